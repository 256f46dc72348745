package game

import (
	"fmt"
	"strings"
	"time"
)

// Difficulty selects the countdown length of a round
type Difficulty string

const (
	DifficultyOff    Difficulty = "off"
	DifficultyEasy   Difficulty = "easy"
	DifficultyNormal Difficulty = "normal"
	DifficultyHard   Difficulty = "hard"
)

// ParseDifficulty converts a client supplied string; empty means off
func ParseDifficulty(s string) (Difficulty, error) {
	switch d := Difficulty(strings.ToLower(strings.TrimSpace(s))); d {
	case "", DifficultyOff:
		return DifficultyOff, nil
	case DifficultyEasy, DifficultyNormal, DifficultyHard:
		return d, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidDifficulty, s)
	}
}

// Duration is the time limit for the difficulty, zero when untimed
func (d Difficulty) Duration() time.Duration {
	switch d {
	case DifficultyEasy:
		return 120 * time.Second
	case DifficultyNormal:
		return 90 * time.Second
	case DifficultyHard:
		return 60 * time.Second
	default:
		return 0
	}
}

// countdown measures elapsed wall-clock time against the limit on every
// poll instead of decrementing a counter, so late timer callbacks do not drift.
type countdown struct {
	limit   time.Duration
	started time.Time
	timer   Timer
	shown   int64 // whole seconds last reported
}

func ceilSeconds(d time.Duration) int64 {
	return int64((d + time.Second - 1) / time.Second)
}

// startCountdown arms the countdown for the current round. Caller holds s.mu.
func (s *Session) startCountdown(limit time.Duration) {
	s.stopCountdown()
	if limit <= 0 {
		s.countdown = countdown{}
		return
	}
	full := s.difficulty.Duration()
	if full < limit {
		full = limit
	}
	s.countdown = countdown{
		limit:   full,
		started: s.clock.Now().Add(limit - full),
		shown:   ceilSeconds(limit),
	}
	s.scheduleTick(s.round)
}

func (s *Session) scheduleTick(round int) {
	s.countdown.timer = s.clock.AfterFunc(s.cfg.TimerInterval, func() { s.tick(round) })
}

func (s *Session) stopCountdown() {
	if s.countdown.timer != nil {
		s.countdown.timer.Stop()
		s.countdown.timer = nil
	}
}

// timeLeft is the remaining time of a running countdown. Caller holds s.mu.
func (s *Session) timeLeft() time.Duration {
	if s.countdown.limit == 0 {
		return 0
	}
	if s.over {
		return 0
	}
	left := s.countdown.limit - s.clock.Now().Sub(s.countdown.started)
	if left < 0 {
		return 0
	}
	return left
}

func (s *Session) tick(round int) {
	s.mu.Lock()
	if s.round != round || s.countdown.timer == nil || s.over || s.complete {
		s.mu.Unlock()
		return
	}

	left := s.timeLeft()
	if left > 0 {
		if sec := ceilSeconds(left); sec != s.countdown.shown {
			s.countdown.shown = sec
			s.queue(Event{Type: EventTick, TimeLeftMs: left.Milliseconds()})
		}
		s.scheduleTick(round)
	} else {
		s.countdown.timer = nil
		s.over = true
		s.clearInteraction()
		s.queue(Event{Type: EventTimeUp})
		s.restartTimer = s.clock.AfterFunc(s.cfg.RestartDelay, func() { s.autoRestart(round) })
	}

	events := s.drain()
	s.mu.Unlock()
	s.emit(events)
}

func (s *Session) autoRestart(round int) {
	s.mu.Lock()
	if s.round != round || !s.over {
		s.mu.Unlock()
		return
	}
	s.restartTimer = nil
	s.startRound()
	s.queue(Event{Type: EventRestarted})
	events := s.drain()
	s.mu.Unlock()
	s.emit(events)
}
