package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"wordmatch/internal/game"
	"wordmatch/internal/service"
	"wordmatch/internal/wordlist"
)

type errorResponse struct {
	Error string `json:"error"`
}

func respondWithError(w http.ResponseWriter, status int, userMsg, logMsg string, err error) {
	if err != nil {
		if logMsg == "" {
			logMsg = userMsg
		}
		event := log.Error()
		if status < http.StatusInternalServerError {
			event = log.Warn()
		}
		event.Err(err).Int("status", status).Msg(logMsg)
	}

	respondJSON(w, status, errorResponse{Error: userMsg})
}

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("Failed to write response")
	}
}

// errorStatus maps domain errors to a status and a message safe to show the player
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, game.ErrUnknownCard),
		errors.Is(err, game.ErrInvalidMode),
		errors.Is(err, game.ErrInvalidDifficulty),
		errors.Is(err, wordlist.ErrUnsupportedFormat),
		errors.Is(err, wordlist.ErrNoValidPairs),
		errors.Is(err, wordlist.ErrMissingColumns),
		errors.Is(err, service.ErrInvalidEmail):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, game.ErrWrongMode), errors.Is(err, game.ErrRoundOver), errors.Is(err, game.ErrSessionClosed):
		return http.StatusConflict, err.Error()
	case errors.Is(err, service.ErrEmailDisabled):
		return http.StatusServiceUnavailable, err.Error()
	default:
		return http.StatusInternalServerError, ErrInternalServerError
	}
}

func respondWithDomainError(w http.ResponseWriter, logMsg string, err error) {
	status, msg := errorStatus(err)
	respondWithError(w, status, msg, logMsg, err)
}
