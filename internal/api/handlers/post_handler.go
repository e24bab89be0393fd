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
	"github.com/teovin/minipost/internal/models"
	"github.com/teovin/minipost/internal/services"
)

// PostHandler handles HTTP requests for post management. Routes that
// need the caller's identity answer 500 when a valid token's user has
// been deleted, matching the original service's crash path; the
// unscoped listing only needs authentication and tolerates that.
type PostHandler struct {
	posts services.PostServiceProvider
}

// NewPostHandler creates a new PostHandler.
func NewPostHandler(posts services.PostServiceProvider) *PostHandler {
	return &PostHandler{posts: posts}
}

// PostPayload defines the structure for post creation requests.
type PostPayload struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// postItem is the shape of an entry in post listings.
type postItem struct {
	ID      int    `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
	UserID  int    `json:"user_id"`
}

// postDetail is the flat payload of the single-post route.
type postDetail struct {
	ID       int    `json:"id"`
	Title    string `json:"title"`
	Content  string `json:"content"`
	Complete bool   `json:"complete"`
}

// ListMine returns the caller's posts.
func (h *PostHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	current := auth.CurrentUser(r)
	if current == nil {
		internalError(w)
		return
	}

	posts, err := h.posts.ListByOwner(current.ID)
	if err != nil {
		log.Error().Err(err).Int("user_id", current.ID).Msg("Failed to list posts")
		internalError(w)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"posts": listItems(posts)})
}

// ListAll returns every post from every user. Any authenticated
// caller sees the full set.
func (h *PostHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	posts, err := h.posts.ListAll()
	if err != nil {
		log.Error().Err(err).Msg("Failed to list all posts")
		internalError(w)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"posts": listItems(posts)})
}

// Get returns a single post, visible only to its owner. A post owned
// by someone else answers the same as a missing one.
func (h *PostHandler) Get(w http.ResponseWriter, r *http.Request) {
	current := auth.CurrentUser(r)
	if current == nil {
		internalError(w)
		return
	}

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeMessage(w, fmt.Sprintf("No post found. (Logged in as %s).", current.Name))
		return
	}

	post, err := h.posts.GetByIDAndOwner(id, current.ID)
	if err != nil {
		if errors.Is(err, services.ErrPostNotFound) {
			writeMessage(w, fmt.Sprintf("No post found. (Logged in as %s).", current.Name))
			return
		}
		log.Error().Err(err).Int("post_id", id).Msg("Failed to get post")
		internalError(w)
		return
	}

	writeJSON(w, http.StatusOK, postDetail{ID: post.ID, Title: post.Title, Content: post.Content, Complete: post.Complete})
}

// Create stores a new post owned by the caller.
func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	current := auth.CurrentUser(r)
	if current == nil {
		internalError(w)
		return
	}

	var payload PostPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if _, err := h.posts.Create(payload.Title, payload.Content, current.ID); err != nil {
		log.Error().Err(err).Int("user_id", current.ID).Msg("Failed to create post")
		internalError(w)
		return
	}

	writeMessage(w, "Post successfully created.")
}

// Update marks the caller's post complete. Unconditional set, not a
// toggle.
func (h *PostHandler) Update(w http.ResponseWriter, r *http.Request) {
	current := auth.CurrentUser(r)
	if current == nil {
		internalError(w)
		return
	}

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeMessage(w, "No post found.")
		return
	}

	if err := h.posts.MarkComplete(id, current.ID); err != nil {
		if errors.Is(err, services.ErrPostNotFound) {
			writeMessage(w, "No post found.")
			return
		}
		log.Error().Err(err).Int("post_id", id).Msg("Failed to update post")
		internalError(w)
		return
	}

	writeMessage(w, "Post has been updated.")
}

// Delete removes the caller's post.
func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	current := auth.CurrentUser(r)
	if current == nil {
		internalError(w)
		return
	}

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeMessage(w, "No post found.")
		return
	}

	if err := h.posts.Delete(id, current.ID); err != nil {
		if errors.Is(err, services.ErrPostNotFound) {
			writeMessage(w, "No post found.")
			return
		}
		log.Error().Err(err).Int("post_id", id).Msg("Failed to delete post")
		internalError(w)
		return
	}

	writeMessage(w, "Post deleted!")
}

func listItems(posts []models.Post) []postItem {
	items := make([]postItem, 0, len(posts))
	for _, post := range posts {
		items = append(items, postItem{ID: post.ID, Title: post.Title, Content: post.Content, UserID: post.UserID})
	}
	return items
}
