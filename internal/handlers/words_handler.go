package handlers

import (
	"bytes"
	"errors"
	"net/http"

	"wordmatch/internal/game"
	"wordmatch/internal/models"
	"wordmatch/internal/service"
	"wordmatch/internal/wordlist"
)

// WordsHandler imports and exports word lists
type WordsHandler struct {
	games   *service.GameService
	maxSize int64
}

// NewWordsHandler creates a new words handler. maxSize bounds an upload in bytes.
func NewWordsHandler(games *service.GameService, maxSize int64) *WordsHandler {
	return &WordsHandler{games: games, maxSize: maxSize}
}

type importResponse struct {
	ListID int64     `json:"list_id"`
	Name   string    `json:"name"`
	Pairs  int       `json:"pairs"`
	View   game.View `json:"view"`
}

type wordsResponse struct {
	Words []models.WordPair `json:"words"`
}

// List returns the word list the player's rounds are drawn from
func (h *WordsHandler) List(w http.ResponseWriter, r *http.Request) {
	s, err := h.games.Session(GetPlayerFromContext(r.Context()))
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Failed to load session", err)
		return
	}
	respondJSON(w, http.StatusOK, wordsResponse{Words: s.Words()})
}

// Import replaces the word list with an uploaded .txt, .csv or .xlsx file
func (h *WordsHandler) Import(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxSize)
	if err := r.ParseMultipartForm(h.maxSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondWithError(w, http.StatusRequestEntityTooLarge, "File is too large", "", err)
			return
		}
		respondWithError(w, http.StatusBadRequest, "Expected a multipart upload", "", err)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Missing file field", "", err)
		return
	}
	defer file.Close()

	playerID := GetPlayerFromContext(r.Context())
	list, err := h.games.ImportWords(playerID, header.Filename, file)
	if err != nil {
		respondWithDomainError(w, "Word list import failed", err)
		return
	}

	s, err := h.games.Session(playerID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Failed to load session", err)
		return
	}
	respondJSON(w, http.StatusOK, importResponse{ListID: list.ID, Name: list.Name, Pairs: len(list.Pairs), View: s.View()})
}

// Reset discards imported lists and goes back to the built-in words
func (h *WordsHandler) Reset(w http.ResponseWriter, r *http.Request) {
	if err := h.games.ResetWords(GetPlayerFromContext(r.Context())); err != nil {
		respondWithDomainError(w, "Failed to reset word list", err)
		return
	}
	h.List(w, r)
}

var writeTemplate = wordlist.WriteTemplate

// Template downloads a blank workbook with the expected columns
func (h *WordsHandler) Template(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := writeTemplate(&buf); err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Failed to write template", err)
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="word_template.xlsx"`)
	_, _ = buf.WriteTo(w)
}
