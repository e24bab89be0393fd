package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/teovin/minipost/internal/auth"
	"github.com/teovin/minipost/internal/services"
)

// UserHandler handles HTTP requests for user management.
type UserHandler struct {
	users  services.UserServiceProvider
	tokens *auth.TokenService

	// strictOwnership gates the edit/delete routes on caller == target.
	// Off by default: the original service lets any authenticated user
	// modify or delete any account.
	strictOwnership bool
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(users services.UserServiceProvider, tokens *auth.TokenService, strictOwnership bool) *UserHandler {
	return &UserHandler{users: users, tokens: tokens, strictOwnership: strictOwnership}
}

// SignupPayload defines the structure for signup requests.
type SignupPayload struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

// userRecord is the shape of an entry in the user listing. Password
// carries the stored hash, preserved from the original API's wire
// format.
type userRecord struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

// Create handles new user signup.
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload SignupPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	user, err := h.users.Create(payload.Name, payload.Password)
	if err != nil {
		log.Error().Err(err).Str("name", payload.Name).Msg("Failed to create user")
		internalError(w)
		return
	}

	writeMessage(w, fmt.Sprintf("New user created: %s.", user.Name))
}

// Login verifies basic-auth credentials and returns a signed token.
// Every failure answers 401 with the basic-auth challenge header; the
// body distinguishes the cases.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	username, password, ok := r.BasicAuth()
	if !ok || username == "" || password == "" {
		challenge(w, "Could not verify. No authorization header provided.")
		return
	}

	user, err := h.users.GetByName(username)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			challenge(w, "Could not verify. No user found.")
			return
		}
		log.Error().Err(err).Str("name", username).Msg("Failed to look up user for login")
		internalError(w)
		return
	}

	if !h.users.VerifyPassword(user, password) {
		log.Warn().Str("name", user.Name).Msg("Failed login attempt")
		challenge(w, fmt.Sprintf("Could not verify, Wrong password for %s", user.Name))
		return
	}

	token, err := h.tokens.Issue(user.ID)
	if err != nil {
		log.Error().Err(err).Int("user_id", user.ID).Msg("Failed to issue token")
		internalError(w)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

// List returns every user record, password hash included. Only
// authentication is required, not a resolved identity, so a stale
// token whose user is gone still gets the listing.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List()
	if err != nil {
		log.Error().Err(err).Msg("Failed to list users")
		internalError(w)
		return
	}

	output := make([]userRecord, 0, len(users))
	for _, user := range users {
		output = append(output, userRecord{ID: user.ID, Name: user.Name, Password: user.PasswordHash})
	}

	writeJSON(w, http.StatusOK, map[string]any{"users": output})
}

// Get returns a single user's id and name. The route is public.
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeMessage(w, "No user found.")
		return
	}

	user, err := h.users.GetByID(id)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			writeMessage(w, "No user found.")
			return
		}
		log.Error().Err(err).Int("user_id", id).Msg("Failed to get user")
		internalError(w)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"user": map[string]any{"id": user.ID, "name": user.Name},
	})
}

// Promote runs the no-op update against a user record. Any
// authenticated caller may target any id unless strict ownership is
// enabled.
func (h *UserHandler) Promote(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeMessage(w, "No user found with that id.")
		return
	}

	if h.rejectCrossUser(w, r, id) {
		return
	}

	user, err := h.users.Promote(id)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			writeMessage(w, "No user found with that id.")
			return
		}
		log.Error().Err(err).Int("user_id", id).Msg("Failed to promote user")
		internalError(w)
		return
	}

	writeMessage(w, fmt.Sprintf("User %s has been modified.", user.Name))
}

// Delete removes a user account. Their posts remain behind. Same
// ownership rules as Promote.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeMessage(w, "No user found.")
		return
	}

	if h.rejectCrossUser(w, r, id) {
		return
	}

	user, err := h.users.GetByID(id)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			writeMessage(w, "No user found.")
			return
		}
		log.Error().Err(err).Int("user_id", id).Msg("Failed to look up user for deletion")
		internalError(w)
		return
	}

	if err := h.users.Delete(user.ID); err != nil {
		log.Error().Err(err).Int("user_id", user.ID).Msg("Failed to delete user")
		internalError(w)
		return
	}

	writeMessage(w, fmt.Sprintf("User %s has been deleted.", user.Name))
}

// rejectCrossUser enforces strict ownership when enabled. Reports
// whether the request was rejected.
func (h *UserHandler) rejectCrossUser(w http.ResponseWriter, r *http.Request, targetID int) bool {
	if !h.strictOwnership {
		return false
	}
	current := auth.CurrentUser(r)
	if current == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Unauthorized."})
		return true
	}
	if current.ID != targetID {
		log.Warn().Int("user_id", current.ID).Int("target_id", targetID).Msg("Cross-user modification rejected")
		writeJSON(w, http.StatusForbidden, map[string]string{"message": "Forbidden."})
		return true
	}
	return false
}

func challenge(w http.ResponseWriter, message string) {
	w.Header().Set("WWW-Authenticate", `Basic realm="Login required!"`)
	http.Error(w, message, http.StatusUnauthorized)
}
