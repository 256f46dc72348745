package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"wordmatch/internal/models"
	"wordmatch/internal/service"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// MistakesHandler exposes the mistake ledger and statistics
type MistakesHandler struct {
	games *service.GameService
	email *service.EmailService
}

// NewMistakesHandler creates a new mistakes handler
func NewMistakesHandler(games *service.GameService, email *service.EmailService) *MistakesHandler {
	return &MistakesHandler{games: games, email: email}
}

type mistakesResponse struct {
	Mistakes []models.MistakeEntry `json:"mistakes"`
}

type emailRequest struct {
	Email string `json:"email"`
}

type statsResponse struct {
	*models.GameStats
	CompletionRate float64 `json:"completion_rate"`
}

// List returns the ledger, most frequent first
func (h *MistakesHandler) List(w http.ResponseWriter, r *http.Request) {
	entries, err := h.games.Mistakes(GetPlayerFromContext(r.Context()))
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Failed to list mistakes", err)
		return
	}
	if entries == nil {
		entries = []models.MistakeEntry{}
	}
	respondJSON(w, http.StatusOK, mistakesResponse{Mistakes: entries})
}

// Export downloads the ledger as a workbook
func (h *MistakesHandler) Export(w http.ResponseWriter, r *http.Request) {
	// buffered so a failure can still become a JSON error
	var buf bytes.Buffer
	if err := h.games.ExportMistakes(&buf, GetPlayerFromContext(r.Context())); err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Failed to export mistakes", err)
		return
	}
	filename := fmt.Sprintf("mistakes_%s.xlsx", time.Now().Format("20060102"))
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	_, _ = buf.WriteTo(w)
}

// Clear empties the ledger
func (h *MistakesHandler) Clear(w http.ResponseWriter, r *http.Request) {
	if err := h.games.ClearMistakes(GetPlayerFromContext(r.Context())); err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Failed to clear mistakes", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Email sends the ledger to an address
func (h *MistakesHandler) Email(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidRequestBody, "", err)
		return
	}
	entries, err := h.games.Mistakes(GetPlayerFromContext(r.Context()))
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Failed to list mistakes", err)
		return
	}
	if err := h.email.SendMistakeReport(r.Context(), req.Email, entries); err != nil {
		respondWithDomainError(w, "Failed to send mistake report", err)
		return
	}
	respondJSON(w, http.StatusAccepted, map[string]bool{"sent": true})
}

// Stats returns the player's cumulative statistics
func (h *MistakesHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.games.Stats(GetPlayerFromContext(r.Context()))
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Failed to load stats", err)
		return
	}
	respondJSON(w, http.StatusOK, statsResponse{GameStats: stats, CompletionRate: stats.CompletionRate()})
}
