package handlers

import (
	"context"
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"wordmatch/internal/security"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const PlayerContextKey ContextKey = "player"

// Middleware holds dependencies for middleware functions
type Middleware struct {
	secret string
	ttl    time.Duration
}

// NewMiddleware creates a new middleware instance
func NewMiddleware(secret string, ttl time.Duration) *Middleware {
	return &Middleware{secret: secret, ttl: ttl}
}

// Player attaches the caller's player ID to the request context. A missing,
// expired or forged cookie gets a fresh identity.
func (m *Middleware) Player(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var playerID string
		if cookie, err := r.Cookie(security.PlayerCookieName); err == nil {
			playerID, _ = security.ParsePlayerToken(m.secret, cookie.Value)
		}

		if playerID == "" {
			playerID = security.NewPlayerID()
			token, expires, err := security.IssuePlayerToken(m.secret, playerID, m.ttl)
			if err != nil {
				respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Failed to issue player token", err)
				return
			}
			http.SetCookie(w, security.CreatePlayerCookie(r, token, expires))
			log.Debug().Str("player", playerID).Msg("New player")
		}

		ctx := context.WithValue(r.Context(), PlayerContextKey, playerID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetPlayerFromContext retrieves the player ID from the request context
func GetPlayerFromContext(ctx context.Context) string {
	playerID, _ := ctx.Value(PlayerContextKey).(string)
	return playerID
}

// Logging middleware logs HTTP requests
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		log.Info().
			Str("request_id", chimw.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}
