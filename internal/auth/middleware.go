package auth

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/teovin/minipost/internal/models"
)

// TokenHeader is the request header carrying the access token. The
// original API used this bare header rather than Authorization/Bearer,
// and clients depend on it.
const TokenHeader = "access-token"

type contextKey string

const currentUserKey = contextKey("currentUser")

// UserResolver resolves a verified token subject to a user record.
type UserResolver interface {
	GetByID(id int) (models.User, error)
}

// CurrentUser returns the identity resolved by RequireToken. The
// result is nil when the token verified but its subject has since been
// deleted; handlers must tolerate that.
func CurrentUser(r *http.Request) *models.User {
	user, _ := r.Context().Value(currentUserKey).(*models.User)
	return user
}

// RequireToken guards a handler behind the access-token header. A
// missing or invalid token short-circuits with 401 and the handler is
// never invoked. A valid token whose user row is gone still reaches
// the handler, with a nil current user.
func RequireToken(tokens *TokenService, users UserResolver, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tokenStr := r.Header.Get(TokenHeader)
		if tokenStr == "" {
			unauthorized(w, "Token is missing.")
			return
		}

		userID, err := tokens.Verify(tokenStr)
		if err != nil {
			unauthorized(w, "Token is invalid.")
			return
		}

		var current *models.User
		if user, lookupErr := users.GetByID(userID); lookupErr == nil {
			current = &user
		} else {
			log.Warn().Err(lookupErr).Int("user_id", userID).Msg("Token subject not found, proceeding without identity")
		}

		ctx := context.WithValue(r.Context(), currentUserKey, current)
		next(w, r.WithContext(ctx))
	}
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"message": message})
}
