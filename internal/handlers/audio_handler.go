package handlers

import (
	"net/http"
	"path/filepath"
	"strings"

	"wordmatch/internal/audio"
)

const maxSpokenText = 100

// AudioHandler serves pronunciation clips, generating them on first request
type AudioHandler struct {
	tts *audio.TTSService
}

// NewAudioHandler creates a new audio handler
func NewAudioHandler(tts *audio.TTSService) *AudioHandler {
	return &AudioHandler{tts: tts}
}

// Speak serves ?text=...&lang=en|zh-CN as MP3
func (h *AudioHandler) Speak(w http.ResponseWriter, r *http.Request) {
	text := strings.TrimSpace(r.URL.Query().Get("text"))
	if text == "" || len(text) > maxSpokenText {
		respondWithError(w, http.StatusBadRequest, "text must be 1-100 bytes", "", nil)
		return
	}
	lang := r.URL.Query().Get("lang")
	switch lang {
	case "":
		lang = audio.LangEnglish
	case audio.LangEnglish, audio.LangChinese:
	default:
		respondWithError(w, http.StatusBadRequest, "unsupported language", "", nil)
		return
	}

	filename, err := h.tts.GenerateAudioFile(r.Context(), text, lang)
	if err != nil {
		respondWithError(w, http.StatusBadGateway, "Pronunciation is unavailable", "TTS failed", err)
		return
	}
	w.Header().Set("Content-Type", "audio/mpeg")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	http.ServeFile(w, r, filepath.Join(h.tts.Dir(), filename))
}
