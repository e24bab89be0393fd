package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/teovin/minipost/internal/api/handlers"
	"github.com/teovin/minipost/internal/auth"
	"github.com/teovin/minipost/internal/services"
)

// NewRouter creates and configures a new Chi router. Route paths are
// fixed by the original API and must not move under a version prefix.
func NewRouter(tokens *auth.TokenService, userService services.UserServiceProvider, postService services.PostServiceProvider, strictOwnership bool) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS configuration for development
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000"}, // Adjust for your frontend URL
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", auth.TokenHeader},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Initialize handlers
	userHandler := handlers.NewUserHandler(userService, tokens, strictOwnership)
	postHandler := handlers.NewPostHandler(postService)

	guard := func(next http.HandlerFunc) http.HandlerFunc {
		return auth.RequireToken(tokens, userService, next)
	}

	r.Route("/users", func(r chi.Router) {
		r.Post("/", userHandler.Create)
		r.Post("/login", userHandler.Login)
		r.Get("/", guard(userHandler.List))
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", userHandler.Get)
			r.Put("/", guard(userHandler.Promote))
			r.Delete("/", guard(userHandler.Delete))
		})
	})

	r.Route("/myposts", func(r chi.Router) {
		r.Get("/", guard(postHandler.ListMine))
		r.Post("/", guard(postHandler.Create))
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", guard(postHandler.Get))
			r.Put("/", guard(postHandler.Update))
			r.Delete("/", guard(postHandler.Delete))
		})
	})

	r.Get("/allposts", guard(postHandler.ListAll))

	return r
}
