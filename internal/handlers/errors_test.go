package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"wordmatch/internal/game"
	"wordmatch/internal/service"
	"wordmatch/internal/wordlist"
)

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	original := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = original })
	return &buf
}

func TestRespondWithErrorWritesStatusAndBody(t *testing.T) {
	recorder := httptest.NewRecorder()

	respondWithError(recorder, 418, "Teapot", "", nil)

	if recorder.Code != 418 {
		t.Fatalf("expected status 418, got %d", recorder.Code)
	}
	var body errorResponse
	if err := json.Unmarshal(recorder.Body.Bytes(), &body); err != nil {
		t.Fatalf("body is not JSON: %q", recorder.Body.String())
	}
	if body.Error != "Teapot" {
		t.Fatalf("expected error 'Teapot', got %q", body.Error)
	}
	if ct := recorder.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestRespondWithErrorLogsMessage(t *testing.T) {
	buf := captureLog(t)

	recorder := httptest.NewRecorder()
	respondWithError(recorder, 500, "Internal server error", "", errors.New("boom"))

	logOutput := buf.String()
	if !strings.Contains(logOutput, "Internal server error") {
		t.Fatalf("expected log to include user message, got %q", logOutput)
	}
	if !strings.Contains(logOutput, "boom") {
		t.Fatalf("expected log to include error, got %q", logOutput)
	}
	if !strings.Contains(logOutput, `"level":"error"`) {
		t.Errorf("expected error level, got %q", logOutput)
	}
}

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: r1-e9", game.ErrUnknownCard), http.StatusBadRequest},
		{game.ErrWrongMode, http.StatusConflict},
		{game.ErrRoundOver, http.StatusConflict},
		{game.ErrSessionClosed, http.StatusConflict},
		{fmt.Errorf("%w: \"fast\"", game.ErrInvalidDifficulty), http.StatusBadRequest},
		{wordlist.ErrNoValidPairs, http.StatusBadRequest},
		{service.ErrEmailDisabled, http.StatusServiceUnavailable},
		{errors.New("disk full"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			status, msg := errorStatus(tt.err)
			if status != tt.want {
				t.Errorf("errorStatus() = %d, want %d", status, tt.want)
			}
			if status == http.StatusInternalServerError && msg != ErrInternalServerError {
				t.Errorf("internal error leaked message %q", msg)
			}
		})
	}
}

func TestTemplateWriteFailure(t *testing.T) {
	captureLog(t)
	original := writeTemplate
	t.Cleanup(func() { writeTemplate = original })
	writeTemplate = func(w io.Writer) error {
		_, _ = w.Write([]byte("PK\x03\x04partial"))
		return errors.New("disk full")
	}

	recorder := httptest.NewRecorder()
	(&WordsHandler{}).Template(recorder, httptest.NewRequest(http.MethodGet, "/api/words/template", nil))

	if recorder.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", recorder.Code)
	}
	if ct := recorder.Header().Get("Content-Type"); ct == xlsxContentType {
		t.Errorf("Content-Type = %q on a failed download", ct)
	}
	if recorder.Header().Get("Content-Disposition") != "" {
		t.Error("failed download still offers an attachment")
	}
	var body errorResponse
	if err := json.Unmarshal(recorder.Body.Bytes(), &body); err != nil {
		t.Fatalf("body is not JSON: %q", recorder.Body.String())
	}
}

func TestTemplateDownload(t *testing.T) {
	recorder := httptest.NewRecorder()
	(&WordsHandler{}).Template(recorder, httptest.NewRequest(http.MethodGet, "/api/words/template", nil))

	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", recorder.Code)
	}
	if ct := recorder.Header().Get("Content-Type"); ct != xlsxContentType {
		t.Errorf("Content-Type = %q", ct)
	}
	if !bytes.HasPrefix(recorder.Body.Bytes(), []byte("PK")) {
		t.Error("template is not a zip container")
	}
}
