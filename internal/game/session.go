package game

import (
	"fmt"
	"sync"
	"time"

	"wordmatch/internal/models"
)

// Config holds the rules of a session
type Config struct {
	RoundSize       int // pairs dealt per round
	MatchPoints     int
	MismatchPenalty int // subtracted on a failed attempt; zero keeps the score monotonic
	Scoring         ScoreRules
	ErrorFlash      time.Duration // how long mismatched cards stay in the error state
	TimerInterval   time.Duration // countdown polling interval
	RestartDelay    time.Duration // pause between time-up and the automatic restart
	Layout          Layout
}

// DefaultConfig returns the standard rules
func DefaultConfig() Config {
	return Config{
		RoundSize:       10,
		MatchPoints:     10,
		MismatchPenalty: 0,
		Scoring: ScoreRules{
			ComboStep:   3,
			ComboBonus:  5,
			QuickWindow: 2 * time.Second,
			QuickBonus:  5,
		},
		ErrorFlash:    time.Second,
		TimerInterval: 100 * time.Millisecond,
		RestartDelay:  3 * time.Second,
		Layout:        DefaultLayout(),
	}
}

// Option customises a new session
type Option func(*Session)

// WithClock replaces the system clock
func WithClock(c Clock) Option { return func(s *Session) { s.clock = c } }

// WithRNG replaces the random source used for sampling and shuffling
func WithRNG(r RNG) Option { return func(s *Session) { s.rng = r } }

// WithListener receives every event after the session lock is released
func WithListener(fn func(Event)) Option { return func(s *Session) { s.listener = fn } }

// WithMistakes seeds the mistake tally from a persisted ledger
func WithMistakes(m map[string]int) Option {
	return func(s *Session) {
		for w, n := range m {
			s.mistakes[w] = n
		}
	}
}

// WithSettings sets the initial mode, difficulty and sound toggle
func WithSettings(mode Mode, difficulty Difficulty, sound bool) Option {
	return func(s *Session) {
		s.mode = mode
		s.difficulty = difficulty
		s.sound = sound
	}
}

type dragState struct {
	active bool
	card   *Card
	source InputSource
	start  Point
	end    Point
}

// Session is the state of one player's game. All methods are safe for
// concurrent use; timer callbacks and inputs are serialized by mu.
type Session struct {
	mu       sync.Mutex
	cfg      Config
	clock    Clock
	rng      RNG
	listener func(Event)

	words      []models.WordPair
	round      int
	roundWords []models.WordPair
	cards      map[string]*Card
	english    []*Card
	chinese    []*Card

	selected    *Card
	matched     [][2]*Card
	connections []Connection
	score       Scoreboard
	mistakes    map[string]int

	mode       Mode
	difficulty Difficulty
	sound      bool
	drag       dragState

	countdown    countdown
	restartTimer Timer
	reverts      map[int]Timer
	nextRevert   int
	over         bool // countdown expired, inputs refused until restart
	complete     bool
	closed       bool

	pending []Event
}

// NewSession builds a session and deals its first round
func NewSession(cfg Config, words []models.WordPair, opts ...Option) (*Session, error) {
	valid := validPairs(words)
	if len(valid) == 0 {
		return nil, ErrNoWords
	}
	if cfg.RoundSize < 1 {
		return nil, fmt.Errorf("round size must be positive, got %d", cfg.RoundSize)
	}

	s := &Session{
		cfg:        cfg,
		clock:      SystemClock(),
		rng:        DefaultRNG(),
		words:      valid,
		mistakes:   make(map[string]int),
		reverts:    make(map[int]Timer),
		mode:       ModeClick,
		difficulty: DifficultyOff,
		sound:      true,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.score = NewScoreboard(cfg.Scoring)

	s.mu.Lock()
	s.startRound()
	s.pending = nil
	s.mu.Unlock()
	return s, nil
}

func validPairs(words []models.WordPair) []models.WordPair {
	out := make([]models.WordPair, 0, len(words))
	for _, w := range words {
		if w.Valid() {
			out = append(out, w)
		}
	}
	return out
}

// Restart deals a new round from the current word list
func (s *Session) Restart() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.startRound()
	s.queue(Event{Type: EventRestarted})
	events := s.drain()
	s.mu.Unlock()
	s.emit(events)
}

// ReplaceWords swaps the word list and restarts. An empty list leaves the session unchanged.
func (s *Session) ReplaceWords(words []models.WordPair) error {
	valid := validPairs(words)
	if len(valid) == 0 {
		return ErrNoWords
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	s.words = valid
	s.startRound()
	s.queue(Event{Type: EventRestarted})
	events := s.drain()
	s.mu.Unlock()
	s.emit(events)
	return nil
}

// SetMode switches between click and drag input, dropping any selection
func (s *Session) SetMode(mode Mode) error {
	if _, err := ParseMode(string(mode)); err != nil {
		return err
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	if s.mode != mode {
		s.clearInteraction()
		s.mode = mode
		s.queue(Event{Type: EventSettingsChanged})
	}
	events := s.drain()
	s.mu.Unlock()
	s.emit(events)
	return nil
}

// SetDifficulty changes the time limit and restarts the round
func (s *Session) SetDifficulty(d Difficulty) error {
	if _, err := ParseDifficulty(string(d)); err != nil {
		return err
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	s.difficulty = d
	s.startRound()
	s.queue(Event{Type: EventRestarted})
	events := s.drain()
	s.mu.Unlock()
	s.emit(events)
	return nil
}

// SetSound toggles sound feedback
func (s *Session) SetSound(enabled bool) {
	s.mu.Lock()
	if s.sound != enabled && !s.closed {
		s.sound = enabled
		s.queue(Event{Type: EventSettingsChanged})
	}
	events := s.drain()
	s.mu.Unlock()
	s.emit(events)
}

// Close cancels every pending timer. Later inputs are refused with
// ErrSessionClosed or ignored.
func (s *Session) Close() {
	s.mu.Lock()
	s.closed = true
	s.clearInteraction()
	s.cancelTimers()
	s.round++ // invalidates callbacks that already fired and wait on mu
	s.mu.Unlock()
}

// Click handles a tap in click mode: select, deselect, or attempt a match
func (s *Session) Click(cardID string) (Outcome, error) {
	s.mu.Lock()
	out, err := s.click(cardID)
	events := s.drain()
	s.mu.Unlock()
	s.emit(events)
	return out, err
}

func (s *Session) click(cardID string) (Outcome, error) {
	if s.closed {
		return OutcomeIgnored, ErrSessionClosed
	}
	if s.mode != ModeClick {
		return OutcomeIgnored, ErrWrongMode
	}
	if s.over {
		return OutcomeIgnored, ErrRoundOver
	}
	card, ok := s.cards[cardID]
	if !ok {
		return OutcomeIgnored, fmt.Errorf("%w: %s", ErrUnknownCard, cardID)
	}
	if card.State == CardMatched {
		return OutcomeIgnored, nil
	}

	switch {
	case s.selected == nil:
		s.selectCard(card)
		return OutcomeSelected, nil
	case s.selected == card:
		s.deselect()
		return OutcomeDeselected, nil
	default:
		first := s.selected
		s.selected = nil
		return s.attempt(first, card), nil
	}
}

// DragStart picks up a card in drag mode
func (s *Session) DragStart(cardID string, source InputSource) (Outcome, error) {
	s.mu.Lock()
	out, err := s.dragStart(cardID, source)
	events := s.drain()
	s.mu.Unlock()
	s.emit(events)
	return out, err
}

func (s *Session) dragStart(cardID string, source InputSource) (Outcome, error) {
	if s.closed {
		return OutcomeIgnored, ErrSessionClosed
	}
	if s.mode != ModeDrag {
		return OutcomeIgnored, ErrWrongMode
	}
	if s.over {
		return OutcomeIgnored, ErrRoundOver
	}
	card, ok := s.cards[cardID]
	if !ok {
		return OutcomeIgnored, fmt.Errorf("%w: %s", ErrUnknownCard, cardID)
	}
	if card.State == CardMatched {
		return OutcomeIgnored, nil
	}
	if source != InputTouch {
		source = InputMouse
	}

	s.clearInteraction()
	s.selectCard(card)
	center := s.cfg.Layout.Center(card.Side, card.Slot)
	s.drag = dragState{active: true, card: card, source: source, start: center, end: center}
	s.queue(Event{Type: EventDragStarted, Cards: []string{card.ID}})
	return OutcomeDragging, nil
}

// DragMove updates the live end of the drag line
func (s *Session) DragMove(p Point) Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.drag.active {
		return OutcomeIgnored
	}
	s.drag.end = p
	return OutcomeDragging
}

// Drop releases the dragged card over targetID. An empty, unknown, matched
// or identical target cancels the drag without penalty.
func (s *Session) Drop(targetID string) Outcome {
	s.mu.Lock()
	out := s.drop(targetID)
	events := s.drain()
	s.mu.Unlock()
	s.emit(events)
	return out
}

// DropAt releases the drag over whatever card lies under p, the way a touch
// release is resolved from its last position.
func (s *Session) DropAt(p Point) Outcome {
	s.mu.Lock()
	var out Outcome
	if !s.drag.active {
		out = OutcomeIgnored
	} else {
		s.drag.end = p
		target := ""
		if c := s.cardAt(p); c != nil {
			target = c.ID
		}
		out = s.drop(target)
	}
	events := s.drain()
	s.mu.Unlock()
	s.emit(events)
	return out
}

func (s *Session) drop(targetID string) Outcome {
	if !s.drag.active {
		return OutcomeIgnored
	}
	source := s.drag.card
	s.drag = dragState{}
	s.selected = nil

	target, ok := s.cards[targetID]
	if !ok || target == source || target.State == CardMatched {
		if source.State == CardSelected {
			source.State = CardUnselected
		}
		s.queue(Event{Type: EventDragCancelled, Cards: []string{source.ID}})
		return OutcomeCancelled
	}
	return s.attempt(source, target)
}

// CancelDrag abandons an active drag
func (s *Session) CancelDrag() Outcome {
	s.mu.Lock()
	out := OutcomeIgnored
	if s.drag.active {
		out = s.drop("")
	}
	events := s.drain()
	s.mu.Unlock()
	s.emit(events)
	return out
}

// Closed reports whether Close has been called
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Dragging reports whether a drag is in progress
func (s *Session) Dragging() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.drag.active
}

// Round returns the current round number
func (s *Session) Round() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.round
}

// Words returns a copy of the active word list
func (s *Session) Words() []models.WordPair {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.WordPair(nil), s.words...)
}

// SoundEnabled reports the sound toggle
func (s *Session) SoundEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sound
}

// startRound cancels pending work and deals a fresh round. Caller holds s.mu.
func (s *Session) startRound() {
	s.cancelTimers()
	s.round++
	s.selected = nil
	s.drag = dragState{}
	s.matched = nil
	s.connections = nil
	s.score.Reset()
	s.over = false
	s.complete = false

	s.roundWords = s.sample()
	s.deal()
	s.startCountdown(s.difficulty.Duration())
}

// sample picks up to RoundSize distinct pairs from the word list
func (s *Session) sample() []models.WordPair {
	pool := append([]models.WordPair(nil), s.words...)
	Shuffle(pool, s.rng)
	if len(pool) > s.cfg.RoundSize {
		pool = pool[:s.cfg.RoundSize]
	}
	return pool
}

// deal creates both columns, each in its own random order
func (s *Session) deal() {
	n := len(s.roundWords)
	englishOrder := make([]int, n)
	chineseOrder := make([]int, n)
	for i := range n {
		englishOrder[i] = i
		chineseOrder[i] = i
	}
	Shuffle(englishOrder, s.rng)
	Shuffle(chineseOrder, s.rng)
	s.dealOrdered(englishOrder, chineseOrder)
}

func (s *Session) dealOrdered(englishOrder, chineseOrder []int) {
	s.cards = make(map[string]*Card, 2*len(englishOrder))
	s.english = make([]*Card, len(englishOrder))
	s.chinese = make([]*Card, len(chineseOrder))

	for slot, idx := range englishOrder {
		w := s.roundWords[idx]
		c := &Card{
			ID:    fmt.Sprintf("r%d-e%d", s.round, slot),
			Side:  SideEnglish,
			Text:  w.English,
			Pair:  w.Chinese,
			Slot:  slot,
			State: CardUnselected,
			word:  idx,
		}
		s.english[slot] = c
		s.cards[c.ID] = c
	}
	for slot, idx := range chineseOrder {
		w := s.roundWords[idx]
		c := &Card{
			ID:    fmt.Sprintf("r%d-c%d", s.round, slot),
			Side:  SideChinese,
			Text:  w.Chinese,
			Pair:  w.English,
			Slot:  slot,
			State: CardUnselected,
			word:  idx,
		}
		s.chinese[slot] = c
		s.cards[c.ID] = c
	}
}

// cancelTimers stops the countdown, the pending auto-restart and every error flash
func (s *Session) cancelTimers() {
	s.stopCountdown()
	if s.restartTimer != nil {
		s.restartTimer.Stop()
		s.restartTimer = nil
	}
	for id, t := range s.reverts {
		t.Stop()
		delete(s.reverts, id)
	}
}

// clearInteraction drops the selection and any active drag
func (s *Session) clearInteraction() {
	if s.drag.active {
		s.drag = dragState{}
	}
	if s.selected != nil {
		if s.selected.State == CardSelected {
			s.selected.State = CardUnselected
		}
		s.selected = nil
	}
}

func (s *Session) selectCard(c *Card) {
	c.State = CardSelected
	s.selected = c
	s.queue(Event{Type: EventSelected, Cards: []string{c.ID}})
}

func (s *Session) deselect() {
	c := s.selected
	c.State = CardUnselected
	s.selected = nil
	s.queue(Event{Type: EventDeselected, Cards: []string{c.ID}})
}

func (s *Session) attempt(a, b *Card) Outcome {
	if CheckMatch(*a, *b) {
		s.match(a, b)
		return OutcomeMatched
	}
	s.mismatch(a, b)
	return OutcomeMismatched
}

func (s *Session) match(a, b *Card) {
	if a.Side != SideEnglish {
		a, b = b, a
	}
	a.State = CardMatched
	b.State = CardMatched
	s.matched = append(s.matched, [2]*Card{a, b})
	s.connections = append(s.connections, Connection{
		From:  a.ID,
		To:    b.ID,
		Start: s.cfg.Layout.Center(a.Side, a.Slot),
		End:   s.cfg.Layout.Center(b.Side, b.Slot),
	})

	points := s.score.Update(s.cfg.MatchPoints, s.clock.Now())
	s.queue(Event{Type: EventMatched, Cards: []string{a.ID, b.ID}, Word: a.Text, Points: points})

	if len(s.matched) == len(s.roundWords) {
		s.complete = true
		s.stopCountdown()
		s.queue(Event{Type: EventRoundComplete})
	}
}

// mistakeKey is the English term of a failed attempt. With one English card
// that card's text is used; otherwise the term the first card belongs to.
func mistakeKey(first, second *Card) string {
	if first.Side != SideEnglish && second.Side == SideEnglish {
		return second.Text
	}
	return first.english()
}

func (s *Session) mismatch(a, b *Card) {
	word := mistakeKey(a, b)
	s.mistakes[word]++

	a.State = CardError
	b.State = CardError
	a.flash++
	b.flash++

	points := s.score.Update(-s.cfg.MismatchPenalty, s.clock.Now())
	s.queue(Event{
		Type:   EventMismatched,
		Cards:  []string{a.ID, b.ID},
		Word:   word,
		Count:  s.mistakes[word],
		Points: points,
	})
	s.scheduleRevert(a, b)
}

// scheduleRevert returns the flashed cards to unselected after ErrorFlash.
// The callback is bound to the round and to each card's flash generation, and
// the timer is cancelled by startRound.
func (s *Session) scheduleRevert(cards ...*Card) {
	round := s.round
	id := s.nextRevert
	s.nextRevert++

	type flashed struct {
		card *Card
		gen  int
	}
	targets := make([]flashed, len(cards))
	for i, c := range cards {
		targets[i] = flashed{card: c, gen: c.flash}
	}

	s.reverts[id] = s.clock.AfterFunc(s.cfg.ErrorFlash, func() {
		s.mu.Lock()
		if s.round != round {
			s.mu.Unlock()
			return
		}
		delete(s.reverts, id)

		var reverted []string
		for _, t := range targets {
			if t.card.State == CardError && t.card.flash == t.gen {
				t.card.State = CardUnselected
				reverted = append(reverted, t.card.ID)
			}
		}
		if len(reverted) > 0 {
			s.queue(Event{Type: EventReverted, Cards: reverted})
		}
		events := s.drain()
		s.mu.Unlock()
		s.emit(events)
	})
}

func (s *Session) cardAt(p Point) *Card {
	for _, c := range s.english {
		if s.cfg.Layout.Contains(c.Side, c.Slot, p) {
			return c
		}
	}
	for _, c := range s.chinese {
		if s.cfg.Layout.Contains(c.Side, c.Slot, p) {
			return c
		}
	}
	return nil
}

// queue records an event stamped with the current round state. Caller holds s.mu.
func (s *Session) queue(e Event) {
	e.Round = s.round
	e.Score = s.score.Score
	e.Combo = s.score.Combo
	e.Matched = len(s.matched)
	e.Remaining = len(s.roundWords) - len(s.matched)
	e.At = s.clock.Now()
	if e.Type != EventTick {
		e.TimeLeftMs = s.timeLeft().Milliseconds()
	}
	s.pending = append(s.pending, e)
}

func (s *Session) drain() []Event {
	events := s.pending
	s.pending = nil
	return events
}

func (s *Session) emit(events []Event) {
	if s.listener == nil {
		return
	}
	for _, e := range events {
		s.listener(e)
	}
}
