// Package httpserver exposes the NoteAI REST API.
package httpserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/and161185/noteai/internal/service"
	"github.com/and161185/noteai/internal/token"
)

// Deps are the collaborators of the HTTP layer.
type Deps struct {
	Auth   service.AuthService
	Notes  service.NoteService
	Assist service.AssistService
	Codec  *token.Codec
	Log    *zap.Logger

	Cookies     CookieConfig
	SlideWindow time.Duration
	CORSOrigins []string
}

// Server wires services into HTTP handlers.
type Server struct {
	auth    service.AuthService
	notes   service.NoteService
	assist  service.AssistService
	codec   *token.Codec
	cookies CookieConfig
	gate    *Gate
	origins []string
	log     *zap.Logger
}

// New constructs the HTTP server with injected services.
func New(d Deps) *Server {
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		auth:    d.Auth,
		notes:   d.Notes,
		assist:  d.Assist,
		codec:   d.Codec,
		cookies: d.Cookies,
		gate:    NewGate(d.Codec, d.Auth, d.Cookies, d.SlideWindow, log),
		origins: d.CORSOrigins,
		log:     log,
	}
}

// Routes builds the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(Recover(s.log))
	r.Use(Logging(s.log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/users", func(r chi.Router) {
			r.Post("/register", s.handleRegister)
			r.Post("/login", s.handleLogin)
			r.Post("/refresh", s.handleRefresh)
			r.Get("/logout", s.handleLogout)
			r.Post("/logout", s.handleLogout)
		})

		r.Group(func(r chi.Router) {
			r.Use(s.gate.Middleware)

			r.Get("/me", s.handleMe)
			r.Delete("/me", s.handleDeleteMe)

			r.Get("/notes", s.handleListNotes)
			r.Post("/notes", s.handleCreateNote)
			r.Get("/notes/{noteID}", s.handleGetNote)
			r.Put("/notes/{noteID}", s.handleUpdateNote)
			r.Delete("/notes/{noteID}", s.handleDeleteNote)

			r.Post("/chat-bot", s.handleChatBot)
			r.Post("/image-upload", s.handleImageUpload)
		})
	})
	return r
}
