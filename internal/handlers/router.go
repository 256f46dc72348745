package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"wordmatch/internal/security"
)

// Handlers groups the endpoint handlers mounted by NewRouter
type Handlers struct {
	Game     *GameHandler
	Words    *WordsHandler
	Mistakes *MistakesHandler
	Audio    *AudioHandler // nil when pronunciation is disabled
}

// NewRouter installs middleware and registers every route
func NewRouter(mw *Middleware, limiter *security.RateLimiter, h Handlers, staticPath string) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(Logging)
	r.Use(chimw.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(mw.Player)

		// long lived, so outside the request timeout
		r.Get("/events", h.Game.Events)

		r.Group(func(r chi.Router) {
			r.Use(chimw.Timeout(15 * time.Second))

			r.Post("/session", h.Game.StartSession)

			r.Route("/game", func(r chi.Router) {
				r.Get("/", h.Game.GetView)
				r.Get("/frame.png", h.Game.Frame)
				r.Post("/restart", h.Game.Restart)
				r.Put("/mode", h.Game.SetMode)
				r.Put("/difficulty", h.Game.SetDifficulty)
				r.Put("/sound", h.Game.SetSound)
				r.Post("/click", h.Game.Click)
				r.Post("/drag/start", h.Game.DragStart)
				r.Post("/drag/move", h.Game.DragMove)
				r.Post("/drag/drop", h.Game.Drop)
				r.Post("/drag/cancel", h.Game.CancelDrag)
			})

			r.Route("/words", func(r chi.Router) {
				r.Get("/", h.Words.List)
				r.Delete("/", h.Words.Reset)
				r.Get("/template.xlsx", h.Words.Template)
				r.With(limiter.Limit).Post("/import", h.Words.Import)
			})

			r.Route("/mistakes", func(r chi.Router) {
				r.Get("/", h.Mistakes.List)
				r.Delete("/", h.Mistakes.Clear)
				r.Get("/export.xlsx", h.Mistakes.Export)
				r.With(limiter.Limit).Post("/email", h.Mistakes.Email)
			})

			r.Get("/stats", h.Mistakes.Stats)

			if h.Audio != nil {
				r.Get("/audio", h.Audio.Speak)
			}
		})
	})

	if staticPath != "" {
		r.Handle("/*", http.FileServer(http.Dir(staticPath)))
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusNotFound, errorResponse{Error: "not found: " + r.URL.Path})
	})

	return r
}
