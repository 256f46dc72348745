package game

import (
	"fmt"
	"time"

	"wordmatch/internal/models"
)

// Snapshot is the persistable state of a round in progress
type Snapshot struct {
	Round      int               `json:"round"`
	Words      []models.WordPair `json:"words"`
	English    []int             `json:"english"` // slot -> index into Words
	Chinese    []int             `json:"chinese"`
	Matched    [][2]int          `json:"matched"` // english slot, chinese slot
	Score      int               `json:"score"`
	Combo      int               `json:"combo"`
	Mode       Mode              `json:"mode"`
	Difficulty Difficulty        `json:"difficulty"`
	Sound      bool              `json:"sound"`
	TimeLeftMs int64             `json:"time_left_ms"`
	TimedOut   bool              `json:"timed_out"`
}

// Snapshot captures the current round
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		Round:      s.round,
		Words:      append([]models.WordPair(nil), s.roundWords...),
		English:    make([]int, len(s.english)),
		Chinese:    make([]int, len(s.chinese)),
		Matched:    make([][2]int, 0, len(s.matched)),
		Score:      s.score.Score,
		Combo:      s.score.Combo,
		Mode:       s.mode,
		Difficulty: s.difficulty,
		Sound:      s.sound,
		TimeLeftMs: s.timeLeft().Milliseconds(),
		TimedOut:   s.over,
	}
	for slot, c := range s.english {
		snap.English[slot] = c.word
	}
	for slot, c := range s.chinese {
		snap.Chinese[slot] = c.word
	}
	for _, m := range s.matched {
		snap.Matched = append(snap.Matched, [2]int{m[0].Slot, m[1].Slot})
	}
	return snap
}

// Validate checks that the snapshot describes a consistent round
func (snap Snapshot) Validate() error {
	n := len(snap.Words)
	if n == 0 {
		return fmt.Errorf("%w: no words", ErrInvalidSnapshot)
	}
	if len(snap.English) != n || len(snap.Chinese) != n {
		return fmt.Errorf("%w: column sizes %d/%d for %d words", ErrInvalidSnapshot, len(snap.English), len(snap.Chinese), n)
	}
	if !isPermutation(snap.English) || !isPermutation(snap.Chinese) {
		return fmt.Errorf("%w: columns are not permutations", ErrInvalidSnapshot)
	}
	if len(snap.Matched) > n {
		return fmt.Errorf("%w: %d matches for %d words", ErrInvalidSnapshot, len(snap.Matched), n)
	}
	usedE := make(map[int]bool)
	usedC := make(map[int]bool)
	for _, m := range snap.Matched {
		e, c := m[0], m[1]
		if e < 0 || e >= n || c < 0 || c >= n || usedE[e] || usedC[c] {
			return fmt.Errorf("%w: bad match %v", ErrInvalidSnapshot, m)
		}
		if snap.Words[snap.English[e]] != snap.Words[snap.Chinese[c]] {
			return fmt.Errorf("%w: match %v pairs different words", ErrInvalidSnapshot, m)
		}
		usedE[e], usedC[c] = true, true
	}
	if _, err := ParseMode(string(snap.Mode)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	if _, err := ParseDifficulty(string(snap.Difficulty)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	return nil
}

func isPermutation(idx []int) bool {
	seen := make([]bool, len(idx))
	for _, i := range idx {
		if i < 0 || i >= len(idx) || seen[i] {
			return false
		}
		seen[i] = true
	}
	return true
}

// Restore replaces the current round with snap. A snapshot taken after the
// countdown expired, or with no time left, starts a fresh round instead.
func (s *Session) Restore(snap Snapshot) error {
	if err := snap.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	s.mode = snap.Mode
	s.difficulty = snap.Difficulty
	s.sound = snap.Sound

	timed := snap.Difficulty.Duration() > 0
	if snap.TimedOut || (timed && snap.TimeLeftMs <= 0) {
		s.startRound()
		s.queue(Event{Type: EventRestarted})
	} else {
		s.restore(snap, timed)
	}
	events := s.drain()
	s.mu.Unlock()
	s.emit(events)
	return nil
}

func (s *Session) restore(snap Snapshot, timed bool) {
	s.cancelTimers()
	if snap.Round > s.round {
		s.round = snap.Round
	} else {
		s.round++
	}
	s.selected = nil
	s.drag = dragState{}
	s.matched = nil
	s.connections = nil
	s.over = false
	s.complete = false

	s.roundWords = append([]models.WordPair(nil), snap.Words...)
	s.dealOrdered(snap.English, snap.Chinese)
	for _, m := range snap.Matched {
		a, b := s.english[m[0]], s.chinese[m[1]]
		a.State = CardMatched
		b.State = CardMatched
		s.matched = append(s.matched, [2]*Card{a, b})
		s.connections = append(s.connections, Connection{
			From:  a.ID,
			To:    b.ID,
			Start: s.cfg.Layout.Center(a.Side, a.Slot),
			End:   s.cfg.Layout.Center(b.Side, b.Slot),
		})
	}

	s.score.Reset()
	s.score.Score = snap.Score
	s.score.Combo = snap.Combo

	if len(s.matched) == len(s.roundWords) {
		s.complete = true
		s.countdown = countdown{}
	} else if timed {
		s.startCountdown(time.Duration(snap.TimeLeftMs) * time.Millisecond)
	} else {
		s.countdown = countdown{}
	}
	s.queue(Event{Type: EventRestarted})
}
