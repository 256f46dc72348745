package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"wordmatch/internal/audio"
	"wordmatch/internal/config"
	"wordmatch/internal/game"
	"wordmatch/internal/models"
	"wordmatch/internal/repository"
	"wordmatch/internal/wordlist"
)

// Notifier delivers session events to a player's connected clients
type Notifier interface {
	Publish(playerID string, e game.Event)
	// Disconnect drops the player's clients once their session is closed
	Disconnect(playerID string)
}

// GameRepositories groups the stores a GameService persists to
type GameRepositories struct {
	Mistakes *repository.MistakeRepository
	Stats    *repository.StatsRepository
	Progress *repository.ProgressRepository
	Settings *repository.SettingsRepository
	Lists    *repository.WordListRepository
}

type player struct {
	id       string
	session  *game.Session
	ready    atomic.Bool // set once loading is done; earlier events are not persisted
	lastSeen time.Time   // guarded by GameService.mu

	audioMu     sync.Mutex
	cancelAudio context.CancelFunc
}

func (p *player) stopAudio() {
	p.audioMu.Lock()
	defer p.audioMu.Unlock()
	if p.cancelAudio != nil {
		p.cancelAudio()
		p.cancelAudio = nil
	}
}

// GameService owns one game session per player and persists what happens in it
type GameService struct {
	cfg        game.Config
	difficulty game.Difficulty
	repos      GameRepositories
	tts        *audio.TTSService
	notifier   Notifier
	options    []game.Option

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	players map[string]*player
}

// RulesFromConfig applies the environment's round settings to the default rules
func RulesFromConfig(cfg *config.Config) game.Config {
	rules := game.DefaultConfig()
	rules.RoundSize = cfg.RoundSize
	rules.MismatchPenalty = cfg.MismatchPenalty
	rules.ErrorFlash = cfg.ErrorFlash
	rules.RestartDelay = cfg.RestartDelay
	rules.TimerInterval = cfg.TimerInterval
	return rules
}

// NewGameService creates a game service. tts and notifier may be nil.
// Extra options are applied to every session, after the service's own.
func NewGameService(cfg game.Config, difficulty game.Difficulty, repos GameRepositories, tts *audio.TTSService, notifier Notifier, opts ...game.Option) *GameService {
	ctx, cancel := context.WithCancel(context.Background())
	return &GameService{
		cfg:        cfg,
		difficulty: difficulty,
		repos:      repos,
		tts:        tts,
		notifier:   notifier,
		options:    opts,
		ctx:        ctx,
		cancel:     cancel,
		players:    make(map[string]*player),
	}
}

// Session returns the player's session, loading or creating it on first use.
// Every call counts as activity for EvictIdle, so long-lived clients should
// resolve the session per input rather than hold on to it.
func (s *GameService) Session(playerID string) (*game.Session, error) {
	p, err := s.player(playerID)
	if err != nil {
		return nil, err
	}
	return p.session, nil
}

func (s *GameService) player(playerID string) (*player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p, ok := s.players[playerID]; ok {
		p.lastSeen = time.Now()
		return p, nil
	}

	p, err := s.load(playerID)
	if err != nil {
		return nil, err
	}
	p.lastSeen = time.Now()
	s.players[playerID] = p
	return p, nil
}

func (s *GameService) load(playerID string) (*player, error) {
	mode, difficulty, sound := game.ModeClick, s.difficulty, true
	settings, err := s.repos.Settings.Get(playerID)
	switch {
	case err == nil:
		if m, err := game.ParseMode(settings.Mode); err == nil {
			mode = m
		}
		if d, err := game.ParseDifficulty(settings.Difficulty); err == nil {
			difficulty = d
		}
		sound = settings.SoundEnabled
	case !errors.Is(err, repository.ErrNotFound):
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	words := wordlist.Defaults()
	list, err := s.repos.Lists.Latest(playerID)
	switch {
	case err == nil:
		words = list.Pairs
	case !errors.Is(err, repository.ErrNotFound):
		return nil, fmt.Errorf("failed to load word list: %w", err)
	}

	counts, err := s.repos.Mistakes.Counts(playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load mistakes: %w", err)
	}

	p := &player{id: playerID}
	opts := []game.Option{
		game.WithSettings(mode, difficulty, sound),
		game.WithMistakes(counts),
		game.WithListener(func(e game.Event) { s.handleEvent(p, e) }),
	}
	opts = append(opts, s.options...)

	session, err := game.NewSession(s.cfg, words, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	p.session = session

	restored := s.restore(p)
	p.ready.Store(true)
	if !restored {
		if err := s.repos.Stats.RecordStart(playerID); err != nil {
			log.Error().Err(err).Str("player", playerID).Msg("Failed to record game start")
		}
		s.saveProgress(p)
	}

	log.Debug().Str("player", playerID).Int("words", len(words)).Bool("restored", restored).Msg("Session loaded")
	return p, nil
}

// restore resumes a saved round. A snapshot that cannot be applied is discarded.
func (s *GameService) restore(p *player) bool {
	data, err := s.repos.Progress.Load(p.id)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			log.Error().Err(err).Str("player", p.id).Msg("Failed to load progress")
		}
		return false
	}

	var snap game.Snapshot
	if err := json.Unmarshal(data, &snap); err == nil {
		err = p.session.Restore(snap)
	}
	if err != nil {
		log.Warn().Err(err).Str("player", p.id).Msg("Discarding unusable progress snapshot")
		if err := s.repos.Progress.Delete(p.id); err != nil {
			log.Error().Err(err).Str("player", p.id).Msg("Failed to delete progress")
		}
		return false
	}
	return true
}

func (s *GameService) handleEvent(p *player, e game.Event) {
	if !p.ready.Load() {
		return
	}

	var err error
	switch e.Type {
	case game.EventMismatched:
		if e.Word != "" {
			if _, err := s.repos.Mistakes.Increment(p.id, e.Word); err != nil {
				log.Error().Err(err).Str("player", p.id).Str("word", e.Word).Msg("Failed to record mistake")
			}
		}
		err = s.repos.Stats.RecordMistake(p.id)
	case game.EventMatched:
		err = s.repos.Stats.RecordMatch(p.id)
	case game.EventRoundComplete:
		err = s.repos.Stats.RecordCompletion(p.id, e.Score)
	case game.EventTimeUp:
		err = s.repos.Stats.RecordTimeUp(p.id, e.Score)
	case game.EventRestarted:
		p.stopAudio()
		err = s.repos.Stats.RecordStart(p.id)
	}
	if err != nil {
		log.Error().Err(err).Str("player", p.id).Str("event", string(e.Type)).Msg("Failed to update stats")
	}

	switch e.Type {
	case game.EventMatched, game.EventMismatched, game.EventRoundComplete,
		game.EventTimeUp, game.EventRestarted, game.EventSettingsChanged:
		s.saveProgress(p)
	}

	if s.notifier != nil {
		s.notifier.Publish(p.id, e)
	}
}

func (s *GameService) saveProgress(p *player) {
	data, err := json.Marshal(p.session.Snapshot())
	if err == nil {
		err = s.repos.Progress.Save(p.id, data)
	}
	if err != nil {
		log.Error().Err(err).Str("player", p.id).Msg("Failed to save progress")
	}
}

func (s *GameService) saveSettings(p *player) error {
	v := p.session.View()
	err := s.repos.Settings.Save(models.PlayerSettings{
		PlayerID:     p.id,
		Mode:         string(v.Mode),
		Difficulty:   string(v.Difficulty),
		SoundEnabled: v.Sound,
	})
	if err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}

// Restart deals a fresh round for the player
func (s *GameService) Restart(playerID string) error {
	p, err := s.player(playerID)
	if err != nil {
		return err
	}
	p.session.Restart()
	return nil
}

// SetMode switches the player's input mode and remembers the choice
func (s *GameService) SetMode(playerID, mode string) error {
	m, err := game.ParseMode(mode)
	if err != nil {
		return err
	}
	p, err := s.player(playerID)
	if err != nil {
		return err
	}
	if err := p.session.SetMode(m); err != nil {
		return err
	}
	return s.saveSettings(p)
}

// SetDifficulty changes the time limit, which restarts the round
func (s *GameService) SetDifficulty(playerID, difficulty string) error {
	d, err := game.ParseDifficulty(difficulty)
	if err != nil {
		return err
	}
	p, err := s.player(playerID)
	if err != nil {
		return err
	}
	if err := p.session.SetDifficulty(d); err != nil {
		return err
	}
	return s.saveSettings(p)
}

// SetSound toggles sound feedback
func (s *GameService) SetSound(playerID string, enabled bool) error {
	p, err := s.player(playerID)
	if err != nil {
		return err
	}
	p.session.SetSound(enabled)
	return s.saveSettings(p)
}

// ImportWords parses an uploaded word list, stores it and restarts the
// player's game with it. On a parse error nothing changes.
func (s *GameService) ImportWords(playerID, filename string, r io.Reader) (*models.WordList, error) {
	pairs, err := wordlist.Parse(filename, r)
	if err != nil {
		return nil, err
	}
	p, err := s.player(playerID)
	if err != nil {
		return nil, err
	}

	list, err := s.repos.Lists.Create(playerID, filename, pairs)
	if err != nil {
		return nil, fmt.Errorf("failed to store word list: %w", err)
	}
	if err := p.session.ReplaceWords(pairs); err != nil {
		return nil, err
	}
	s.prefetchAudio(p, pairs)

	log.Info().Str("player", playerID).Str("file", filename).Int("pairs", len(pairs)).Msg("Word list imported")
	return list, nil
}

// ResetWords drops the player's imported lists and goes back to the defaults
func (s *GameService) ResetWords(playerID string) error {
	p, err := s.player(playerID)
	if err != nil {
		return err
	}
	if err := s.repos.Lists.DeleteAll(playerID); err != nil {
		return fmt.Errorf("failed to delete word lists: %w", err)
	}
	return p.session.ReplaceWords(wordlist.Defaults())
}

// prefetchAudio generates pronunciation clips in the background. A restart
// or a later import cancels the job.
func (s *GameService) prefetchAudio(p *player, pairs []models.WordPair) {
	if s.tts == nil {
		return
	}
	ctx, cancel := context.WithCancel(s.ctx)

	p.audioMu.Lock()
	if p.cancelAudio != nil {
		p.cancelAudio()
	}
	p.cancelAudio = cancel
	p.audioMu.Unlock()

	go func() {
		defer cancel()
		n := s.tts.PrefetchPairs(ctx, pairs)
		log.Debug().Str("player", p.id).Int("clips", n).Msg("Pronunciation prefetch finished")
	}()
}

// Mistakes returns the player's mistake ledger, most frequent first
func (s *GameService) Mistakes(playerID string) ([]models.MistakeEntry, error) {
	return s.repos.Mistakes.List(playerID)
}

// ClearMistakes empties the ledger and the live tally
func (s *GameService) ClearMistakes(playerID string) error {
	if err := s.repos.Mistakes.Clear(playerID); err != nil {
		return fmt.Errorf("failed to clear mistakes: %w", err)
	}
	s.mu.Lock()
	p, ok := s.players[playerID]
	s.mu.Unlock()
	if ok {
		p.session.ClearMistakes()
	}
	return nil
}

// ExportMistakes writes the ledger as a workbook
func (s *GameService) ExportMistakes(w io.Writer, playerID string) error {
	entries, err := s.repos.Mistakes.List(playerID)
	if err != nil {
		return err
	}
	return wordlist.WriteMistakes(w, entries, time.Now())
}

// Stats returns the player's cumulative statistics
func (s *GameService) Stats(playerID string) (*models.GameStats, error) {
	return s.repos.Stats.Get(playerID)
}

// EvictIdle saves and closes sessions not used for maxIdle
func (s *GameService) EvictIdle(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)

	s.mu.Lock()
	var idle []*player
	for id, p := range s.players {
		if p.lastSeen.Before(cutoff) {
			idle = append(idle, p)
			delete(s.players, id)
		}
	}
	s.mu.Unlock()

	for _, p := range idle {
		s.closePlayer(p)
	}
	return len(idle)
}

// RunJanitor evicts idle sessions every interval until ctx is cancelled
func (s *GameService) RunJanitor(ctx context.Context, interval, maxIdle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.EvictIdle(maxIdle); n > 0 {
				log.Debug().Int("sessions", n).Msg("Evicted idle sessions")
			}
		}
	}
}

// Shutdown saves every session and stops all timers and background jobs
func (s *GameService) Shutdown() {
	s.cancel()

	s.mu.Lock()
	players := s.players
	s.players = make(map[string]*player)
	s.mu.Unlock()

	for _, p := range players {
		s.closePlayer(p)
	}
	log.Info().Int("sessions", len(players)).Msg("Game sessions saved")
}

func (s *GameService) closePlayer(p *player) {
	p.stopAudio()
	p.ready.Store(false)
	s.saveProgress(p)
	p.session.Close()
	if s.notifier != nil {
		s.notifier.Disconnect(p.id)
	}
}
