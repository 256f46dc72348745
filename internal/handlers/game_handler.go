package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"wordmatch/internal/game"
	"wordmatch/internal/render"
	"wordmatch/internal/service"
)

// GameHandler serves the board and the player's inputs
type GameHandler struct {
	games    *service.GameService
	renderer *render.Renderer
	hub      *Hub
}

// NewGameHandler creates a new game handler
func NewGameHandler(games *service.GameService, renderer *render.Renderer, hub *Hub) *GameHandler {
	return &GameHandler{games: games, renderer: renderer, hub: hub}
}

type sessionResponse struct {
	PlayerID string    `json:"player_id"`
	View     game.View `json:"view"`
}

type inputResponse struct {
	Outcome game.Outcome `json:"outcome"`
	View    game.View    `json:"view"`
}

type cardRequest struct {
	Card   string           `json:"card"`
	Source game.InputSource `json:"source,omitempty"`
}

type dropRequest struct {
	Card string  `json:"card,omitempty"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

type settingRequest struct {
	Mode       string `json:"mode,omitempty"`
	Difficulty string `json:"difficulty,omitempty"`
	Enabled    *bool  `json:"enabled,omitempty"`
}

func decodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// session resolves the caller's session or writes an error
func (h *GameHandler) session(w http.ResponseWriter, r *http.Request) (*game.Session, bool) {
	playerID := GetPlayerFromContext(r.Context())
	s, err := h.games.Session(playerID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Failed to load session", err)
		return nil, false
	}
	return s, true
}

// StartSession loads or creates the player's game
func (h *GameHandler) StartSession(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, sessionResponse{PlayerID: GetPlayerFromContext(r.Context()), View: s.View()})
}

// GetView returns the current board
func (h *GameHandler) GetView(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, s.View())
}

// Restart deals a fresh round
func (h *GameHandler) Restart(w http.ResponseWriter, r *http.Request) {
	playerID := GetPlayerFromContext(r.Context())
	if err := h.games.Restart(playerID); err != nil {
		respondWithDomainError(w, "Failed to restart", err)
		return
	}
	h.GetView(w, r)
}

// SetMode switches between click and drag input
func (h *GameHandler) SetMode(w http.ResponseWriter, r *http.Request) {
	var req settingRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidRequestBody, "", err)
		return
	}
	if err := h.games.SetMode(GetPlayerFromContext(r.Context()), req.Mode); err != nil {
		respondWithDomainError(w, "Failed to set mode", err)
		return
	}
	h.GetView(w, r)
}

// SetDifficulty changes the time limit and restarts the round
func (h *GameHandler) SetDifficulty(w http.ResponseWriter, r *http.Request) {
	var req settingRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidRequestBody, "", err)
		return
	}
	if err := h.games.SetDifficulty(GetPlayerFromContext(r.Context()), req.Difficulty); err != nil {
		respondWithDomainError(w, "Failed to set difficulty", err)
		return
	}
	h.GetView(w, r)
}

// SetSound toggles sound feedback
func (h *GameHandler) SetSound(w http.ResponseWriter, r *http.Request) {
	var req settingRequest
	if err := decodeJSON(r, &req); err != nil || req.Enabled == nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidRequestBody, "", err)
		return
	}
	if err := h.games.SetSound(GetPlayerFromContext(r.Context()), *req.Enabled); err != nil {
		respondWithDomainError(w, "Failed to set sound", err)
		return
	}
	h.GetView(w, r)
}

func (h *GameHandler) respondOutcome(w http.ResponseWriter, s *game.Session, outcome game.Outcome, err error) {
	if err != nil {
		respondWithDomainError(w, "Input rejected", err)
		return
	}
	respondJSON(w, http.StatusOK, inputResponse{Outcome: outcome, View: s.View()})
}

// Click handles a tap on a card in click mode
func (h *GameHandler) Click(w http.ResponseWriter, r *http.Request) {
	var req cardRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidRequestBody, "", err)
		return
	}
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	outcome, err := s.Click(req.Card)
	h.respondOutcome(w, s, outcome, err)
}

// DragStart picks up a card in drag mode
func (h *GameHandler) DragStart(w http.ResponseWriter, r *http.Request) {
	var req cardRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidRequestBody, "", err)
		return
	}
	if req.Source == "" {
		req.Source = game.InputMouse
	}
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	outcome, err := s.DragStart(req.Card, req.Source)
	h.respondOutcome(w, s, outcome, err)
}

// DragMove moves the end of the drag line
func (h *GameHandler) DragMove(w http.ResponseWriter, r *http.Request) {
	var req dropRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidRequestBody, "", err)
		return
	}
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	h.respondOutcome(w, s, s.DragMove(game.Point{X: req.X, Y: req.Y}), nil)
}

// Drop releases the dragged card over a card, or over a point when no card is named
func (h *GameHandler) Drop(w http.ResponseWriter, r *http.Request) {
	var req dropRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidRequestBody, "", err)
		return
	}
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	h.respondOutcome(w, s, drop(s, req), nil)
}

func drop(s *game.Session, req dropRequest) game.Outcome {
	if req.Card != "" {
		return s.Drop(req.Card)
	}
	return s.DropAt(game.Point{X: req.X, Y: req.Y})
}

// CancelDrag abandons the drag without penalty
func (h *GameHandler) CancelDrag(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	h.respondOutcome(w, s, s.CancelDrag(), nil)
}

// Frame renders the board with its connection lines as PNG
func (h *GameHandler) Frame(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	if err := h.renderer.WritePNG(w, s.View()); err != nil {
		log.Warn().Err(err).Msg("Failed to write frame")
	}
}
