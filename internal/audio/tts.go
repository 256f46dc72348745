package audio

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"wordmatch/internal/models"
)

const (
	ttsRequestTimeout = 10 * time.Second
	defaultTTSURL     = "https://translate.google.com/translate_tts"
)

// Language codes understood by the TTS endpoint
const (
	LangEnglish = "en"
	LangChinese = "zh-CN"
)

// TTSService fetches pronunciation clips and caches them on disk
type TTSService struct {
	audioDir string
	baseURL  string
	client   *http.Client
}

// NewTTSService creates a new TTS service
func NewTTSService(audioDir string) *TTSService {
	return &TTSService{
		audioDir: audioDir,
		baseURL:  defaultTTSURL,
		client:   &http.Client{Timeout: ttsRequestTimeout},
	}
}

// WithBaseURL points the service at another TTS endpoint
func (s *TTSService) WithBaseURL(u string) *TTSService {
	s.baseURL = u
	return s
}

// Dir is the directory clips are stored in
func (s *TTSService) Dir() string {
	return s.audioDir
}

// Filename is the cache file name of a clip
func Filename(text, lang string) string {
	sum := sha1.Sum([]byte(lang + "\x00" + strings.TrimSpace(text)))
	return fmt.Sprintf("%s_%s.mp3", strings.ToLower(strings.SplitN(lang, "-", 2)[0]), hex.EncodeToString(sum[:8]))
}

// GenerateAudioFile converts text to speech and saves it as MP3.
// Returns the filename (not full path) on success.
func (s *TTSService) GenerateAudioFile(ctx context.Context, text, lang string) (string, error) {
	filename := Filename(text, lang)
	path := filepath.Join(s.audioDir, filename)

	if _, err := os.Stat(path); err == nil {
		return filename, nil
	}

	if err := os.MkdirAll(s.audioDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create audio directory: %w", err)
	}
	if err := s.fetch(ctx, text, lang, path); err != nil {
		return "", fmt.Errorf("failed to generate audio: %w", err)
	}
	return filename, nil
}

func (s *TTSService) fetch(ctx context.Context, text, lang, outputPath string) error {
	params := url.Values{}
	params.Set("ie", "UTF-8")
	params.Set("q", text)
	params.Set("tl", lang)
	params.Set("client", "tw-ob")
	params.Set("textlen", fmt.Sprintf("%d", len([]rune(text))))

	ctx, cancel := context.WithTimeout(ctx, ttsRequestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	// Set user agent (required by Google)
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch audio: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	// a partial download never lands at outputPath
	tmp, err := os.CreateTemp(filepath.Dir(outputPath), ".tts-*")
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write audio file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), outputPath)
}

// PrefetchPairs generates clips for both sides of every pair. Failures are
// logged and skipped; it stops early when ctx is cancelled and returns the
// number of clips available.
func (s *TTSService) PrefetchPairs(ctx context.Context, pairs []models.WordPair) int {
	done := 0
	for _, p := range pairs {
		for _, item := range []struct{ text, lang string }{{p.English, LangEnglish}, {p.Chinese, LangChinese}} {
			if ctx.Err() != nil {
				log.Debug().Int("generated", done).Msg("pronunciation prefetch cancelled")
				return done
			}
			if _, err := s.GenerateAudioFile(ctx, item.text, item.lang); err != nil {
				if ctx.Err() == nil {
					log.Warn().Err(err).Str("text", item.text).Str("lang", item.lang).Msg("pronunciation unavailable")
				}
				continue
			}
			done++
		}
	}
	return done
}
