package game

import (
	"errors"
	"testing"
	"time"

	"wordmatch/internal/models"
)

func TestNewSessionRejectsEmptyList(t *testing.T) {
	tests := []struct {
		name  string
		words []models.WordPair
	}{
		{name: "nil", words: nil},
		{name: "only incomplete pairs", words: []models.WordPair{{English: "apple"}, {Chinese: "苹果"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSession(DefaultConfig(), tt.words, WithClock(newFakeClock()))
			if !errors.Is(err, ErrNoWords) {
				t.Errorf("NewSession() error = %v, want ErrNoWords", err)
			}
		})
	}
}

func TestRoundSamplesDistinctPairs(t *testing.T) {
	clock := newFakeClock()
	s, err := NewSession(DefaultConfig(), testWords(20), WithClock(clock), WithRNG(newSeededRNG(7)))
	if err != nil {
		t.Fatalf("NewSession() error = %v", err)
	}
	defer s.Close()

	v := s.View()
	if len(v.English) != 10 || len(v.Chinese) != 10 {
		t.Fatalf("dealt %d/%d cards, want 10/10", len(v.English), len(v.Chinese))
	}
	if v.Total != 10 {
		t.Errorf("Total = %d, want 10", v.Total)
	}

	seen := make(map[string]bool)
	for _, c := range v.English {
		if seen[c.Text] {
			t.Errorf("duplicate English card %q", c.Text)
		}
		seen[c.Text] = true
	}

	// every English card has its translation in the other column
	chinese := make(map[string]bool)
	for _, c := range v.Chinese {
		chinese[c.Text] = true
	}
	words := testWords(20)
	for _, w := range words {
		if seen[w.English] && !chinese[w.Chinese] {
			t.Errorf("translation of %q missing from Chinese column", w.English)
		}
	}

	// columns are ordered independently: at least one row must not be a pair
	aligned := 0
	for i := range v.English {
		for _, w := range words {
			if w.English == v.English[i].Text && w.Chinese == v.Chinese[i].Text {
				aligned++
			}
		}
	}
	if aligned == len(v.English) {
		t.Error("Chinese column follows the English order exactly")
	}
}

func TestShortListDealsEveryPair(t *testing.T) {
	s, _, _ := newTestSession(t, testWords(4))
	v := s.View()
	if v.Total != 4 {
		t.Errorf("Total = %d, want 4", v.Total)
	}
}

func TestClickSelectAndDeselect(t *testing.T) {
	s, _, rec := newTestSession(t, testWords(3))
	id := cardID(1, SideEnglish, 0)

	out, err := s.Click(id)
	if err != nil || out != OutcomeSelected {
		t.Fatalf("Click() = %v, %v; want selected", out, err)
	}
	if v := s.View(); v.Selected != id || stateOf(v, id) != CardSelected {
		t.Errorf("after select: Selected = %q, state = %s", v.Selected, stateOf(v, id))
	}

	out, err = s.Click(id)
	if err != nil || out != OutcomeDeselected {
		t.Fatalf("second Click() = %v, %v; want deselected", out, err)
	}
	if v := s.View(); v.Selected != "" || stateOf(v, id) != CardUnselected {
		t.Errorf("after deselect: Selected = %q, state = %s", v.Selected, stateOf(v, id))
	}
	if rec.count(EventSelected) != 1 || rec.count(EventDeselected) != 1 {
		t.Errorf("events: selected=%d deselected=%d", rec.count(EventSelected), rec.count(EventDeselected))
	}
}

func TestClickMatch(t *testing.T) {
	s, _, rec := newTestSession(t, testWords(3))
	e, c := cardID(1, SideEnglish, 1), cardID(1, SideChinese, 1)

	if _, err := s.Click(c); err != nil {
		t.Fatal(err)
	}
	out, err := s.Click(e)
	if err != nil || out != OutcomeMatched {
		t.Fatalf("Click() = %v, %v; want matched", out, err)
	}

	v := s.View()
	if stateOf(v, e) != CardMatched || stateOf(v, c) != CardMatched {
		t.Errorf("states = %s/%s, want matched", stateOf(v, e), stateOf(v, c))
	}
	if v.Matched != 1 || v.Score != 10 || v.Combo != 1 {
		t.Errorf("Matched=%d Score=%d Combo=%d, want 1/10/1", v.Matched, v.Score, v.Combo)
	}
	if len(v.Connections) != 1 || v.Connections[0].From != e || v.Connections[0].To != c {
		t.Errorf("Connections = %+v", v.Connections)
	}
	ev, ok := rec.last(EventMatched)
	if !ok || ev.Word != "word1" || ev.Points != 10 {
		t.Errorf("matched event = %+v", ev)
	}

	// matched cards ignore further input
	out, err = s.Click(e)
	if err != nil || out != OutcomeIgnored {
		t.Errorf("Click(matched) = %v, %v; want ignored", out, err)
	}
}

func TestMismatchRecordsMistakeAndReverts(t *testing.T) {
	s, clock, rec := newTestSession(t, testWords(3))
	e0, c1 := cardID(1, SideEnglish, 0), cardID(1, SideChinese, 1)

	s.Click(e0)
	out, err := s.Click(c1)
	if err != nil || out != OutcomeMismatched {
		t.Fatalf("Click() = %v, %v; want mismatched", out, err)
	}

	if got := s.Mistakes()["word0"]; got != 1 {
		t.Errorf("mistakes[word0] = %d, want 1", got)
	}
	v := s.View()
	if stateOf(v, e0) != CardError || stateOf(v, c1) != CardError {
		t.Errorf("states = %s/%s, want error", stateOf(v, e0), stateOf(v, c1))
	}
	if v.Score != 0 || v.Combo != 0 {
		t.Errorf("Score=%d Combo=%d, want 0/0", v.Score, v.Combo)
	}

	clock.Advance(999 * time.Millisecond)
	if st := stateOf(s.View(), e0); st != CardError {
		t.Errorf("state before flash ends = %s, want error", st)
	}

	clock.Advance(time.Millisecond)
	v = s.View()
	if stateOf(v, e0) != CardUnselected || stateOf(v, c1) != CardUnselected {
		t.Errorf("states after flash = %s/%s, want unselected", stateOf(v, e0), stateOf(v, c1))
	}
	if rec.count(EventReverted) != 1 {
		t.Errorf("reverted events = %d, want 1", rec.count(EventReverted))
	}
}

func TestMistakeKey(t *testing.T) {
	words := testWords(3)
	tests := []struct {
		name  string
		first string
		then  string
		want  string
	}{
		{name: "english first", first: cardID(1, SideEnglish, 0), then: cardID(1, SideChinese, 2), want: "word0"},
		{name: "chinese first", first: cardID(1, SideChinese, 0), then: cardID(1, SideEnglish, 2), want: "word2"},
		{name: "two english", first: cardID(1, SideEnglish, 1), then: cardID(1, SideEnglish, 2), want: "word1"},
		{name: "two chinese", first: cardID(1, SideChinese, 2), then: cardID(1, SideChinese, 0), want: "word2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _, rec := newTestSession(t, words)
			s.Click(tt.first)
			s.Click(tt.then)
			ev, ok := rec.last(EventMismatched)
			if !ok {
				t.Fatal("no mismatched event")
			}
			if ev.Word != tt.want || ev.Count != 1 {
				t.Errorf("mismatch word = %q count = %d, want %q 1", ev.Word, ev.Count, tt.want)
			}
		})
	}
}

func TestMismatchPenalty(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MismatchPenalty = 3
	s, err := NewSession(cfg, testWords(3), WithClock(newFakeClock()), WithRNG(identityRNG{}))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	s.Click(cardID(1, SideEnglish, 0))
	s.Click(cardID(1, SideChinese, 0))
	s.Click(cardID(1, SideEnglish, 1))
	s.Click(cardID(1, SideChinese, 2))

	if v := s.View(); v.Score != 7 || v.Combo != 0 {
		t.Errorf("Score=%d Combo=%d, want 7/0", v.Score, v.Combo)
	}
}

func TestRestartCancelsPendingRevert(t *testing.T) {
	s, clock, rec := newTestSession(t, testWords(3))

	s.Click(cardID(1, SideEnglish, 0))
	s.Click(cardID(1, SideChinese, 1))
	s.Restart()

	if n := clock.Pending(); n != 0 {
		t.Errorf("pending timers after restart = %d, want 0", n)
	}
	clock.Advance(2 * time.Second)
	if rec.count(EventReverted) != 0 {
		t.Error("revert fired after restart")
	}

	v := s.View()
	if v.Round != 2 {
		t.Errorf("Round = %d, want 2", v.Round)
	}
	for _, c := range append(v.English, v.Chinese...) {
		if c.State != CardUnselected {
			t.Errorf("card %s state = %s after restart", c.ID, c.State)
		}
	}
	// the mistake tally survives restarts
	if got := s.Mistakes()["word0"]; got != 1 {
		t.Errorf("mistakes[word0] = %d after restart, want 1", got)
	}
}

func TestReflashKeepsLatestError(t *testing.T) {
	s, clock, _ := newTestSession(t, testWords(3))
	e0 := cardID(1, SideEnglish, 0)

	s.Click(e0)
	s.Click(cardID(1, SideChinese, 1))
	clock.Advance(600 * time.Millisecond)

	// reselect the flashing card and fail again before the first flash ends
	s.Click(e0)
	s.Click(cardID(1, SideChinese, 2))

	clock.Advance(400 * time.Millisecond)
	if st := stateOf(s.View(), e0); st != CardError {
		t.Errorf("state after first timer = %s, want error", st)
	}
	clock.Advance(600 * time.Millisecond)
	if st := stateOf(s.View(), e0); st != CardUnselected {
		t.Errorf("state after second timer = %s, want unselected", st)
	}
}

func TestRoundComplete(t *testing.T) {
	s, clock, rec := newTestSession(t, testWords(3), WithSettings(ModeClick, DifficultyNormal, true))

	prev := 0
	for i := range 3 {
		s.Click(cardID(1, SideEnglish, i))
		s.Click(cardID(1, SideChinese, i))
		v := s.View()
		if v.Matched < prev || v.Matched > v.Total {
			t.Errorf("Matched = %d after %d pairs (prev %d, total %d)", v.Matched, i+1, prev, v.Total)
		}
		prev = v.Matched
	}

	v := s.View()
	if !v.Complete || v.Matched != 3 {
		t.Errorf("Complete=%v Matched=%d, want true/3", v.Complete, v.Matched)
	}
	// 10, 10+5 quick, 10+5 combo+5 quick
	if v.Score != 45 {
		t.Errorf("Score = %d, want 45", v.Score)
	}
	if rec.count(EventRoundComplete) != 1 {
		t.Errorf("round_complete events = %d, want 1", rec.count(EventRoundComplete))
	}

	// the countdown stops on completion
	clock.Advance(2 * time.Minute)
	if rec.count(EventTimeUp) != 0 {
		t.Error("time_up fired after the round was complete")
	}
}

func TestCountdownExpiry(t *testing.T) {
	s, clock, rec := newTestSession(t, testWords(3), WithSettings(ModeClick, DifficultyHard, true))

	if v := s.View(); !v.Timed || v.TimeLeftMs != 60000 {
		t.Fatalf("Timed=%v TimeLeftMs=%d, want true/60000", v.Timed, v.TimeLeftMs)
	}

	clock.Advance(30 * time.Second)
	if left := s.View().TimeLeftMs; left != 30000 {
		t.Errorf("TimeLeftMs = %d after 30s, want 30000", left)
	}
	ev, ok := rec.last(EventTick)
	if !ok || ev.TimeLeftMs > 30000 || ev.TimeLeftMs <= 29000 {
		t.Errorf("last tick = %+v", ev)
	}

	clock.Advance(30 * time.Second)
	if rec.count(EventTimeUp) != 1 {
		t.Fatalf("time_up events = %d, want 1", rec.count(EventTimeUp))
	}
	if v := s.View(); !v.Over || v.TimeLeftMs != 0 {
		t.Errorf("Over=%v TimeLeftMs=%d", v.Over, v.TimeLeftMs)
	}
	if _, err := s.Click(cardID(1, SideEnglish, 0)); !errors.Is(err, ErrRoundOver) {
		t.Errorf("Click() after time up error = %v, want ErrRoundOver", err)
	}

	clock.Advance(2999 * time.Millisecond)
	if rec.count(EventRestarted) != 0 {
		t.Error("restarted before the delay elapsed")
	}
	clock.Advance(time.Millisecond)
	if rec.count(EventRestarted) != 1 || rec.count(EventTimeUp) != 1 {
		t.Errorf("restarted=%d time_up=%d, want 1/1", rec.count(EventRestarted), rec.count(EventTimeUp))
	}
	if v := s.View(); v.Round != 2 || v.Over || v.TimeLeftMs != 60000 {
		t.Errorf("after auto restart: Round=%d Over=%v TimeLeftMs=%d", v.Round, v.Over, v.TimeLeftMs)
	}
}

func TestManualRestartCancelsAutoRestart(t *testing.T) {
	s, clock, rec := newTestSession(t, testWords(3), WithSettings(ModeClick, DifficultyHard, true))

	clock.Advance(60 * time.Second)
	s.Restart()
	clock.Advance(5 * time.Second)

	if got := rec.count(EventRestarted); got != 1 {
		t.Errorf("restarted events = %d, want 1", got)
	}
	if r := s.Round(); r != 2 {
		t.Errorf("Round = %d, want 2", r)
	}
}

func TestSetDifficultyRestarts(t *testing.T) {
	s, _, rec := newTestSession(t, testWords(3))

	if err := s.SetDifficulty(DifficultyEasy); err != nil {
		t.Fatal(err)
	}
	v := s.View()
	if v.Round != 2 || v.Difficulty != DifficultyEasy || v.TimeLeftMs != 120000 {
		t.Errorf("Round=%d Difficulty=%s TimeLeftMs=%d", v.Round, v.Difficulty, v.TimeLeftMs)
	}
	if rec.count(EventRestarted) != 1 {
		t.Errorf("restarted events = %d, want 1", rec.count(EventRestarted))
	}
	if err := s.SetDifficulty("extreme"); !errors.Is(err, ErrInvalidDifficulty) {
		t.Errorf("SetDifficulty(extreme) error = %v", err)
	}
}

func TestWrongMode(t *testing.T) {
	s, _, _ := newTestSession(t, testWords(3))

	if _, err := s.DragStart(cardID(1, SideEnglish, 0), InputMouse); !errors.Is(err, ErrWrongMode) {
		t.Errorf("DragStart() in click mode error = %v", err)
	}
	if err := s.SetMode(ModeDrag); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Click(cardID(1, SideEnglish, 0)); !errors.Is(err, ErrWrongMode) {
		t.Errorf("Click() in drag mode error = %v", err)
	}
	if _, err := s.DragStart("r9-e0", InputMouse); !errors.Is(err, ErrUnknownCard) {
		t.Errorf("DragStart(stale) error = %v", err)
	}
}

func TestSetModeClearsSelection(t *testing.T) {
	s, _, _ := newTestSession(t, testWords(3))
	id := cardID(1, SideEnglish, 0)

	s.Click(id)
	s.SetMode(ModeDrag)

	v := s.View()
	if v.Selected != "" || stateOf(v, id) != CardUnselected || v.Round != 1 {
		t.Errorf("Selected=%q state=%s Round=%d", v.Selected, stateOf(v, id), v.Round)
	}
}

func TestDragAndDrop(t *testing.T) {
	s, _, _ := newTestSession(t, testWords(3), WithSettings(ModeDrag, DifficultyOff, true))
	e0, c0 := cardID(1, SideEnglish, 0), cardID(1, SideChinese, 0)

	if out, err := s.DragStart(e0, InputTouch); err != nil || out != OutcomeDragging {
		t.Fatalf("DragStart() = %v, %v", out, err)
	}
	s.DragMove(Point{X: 500, Y: 30})

	v := s.View()
	if v.Drag == nil || !v.Drag.SuppressScroll || v.Drag.End != (Point{X: 500, Y: 30}) {
		t.Fatalf("Drag = %+v", v.Drag)
	}
	if v.Drag.Start != v.Layout.Center(SideEnglish, 0) {
		t.Errorf("drag starts at %+v, want card centre", v.Drag.Start)
	}

	if out := s.Drop(c0); out != OutcomeMatched {
		t.Errorf("Drop() = %v, want matched", out)
	}
	if s.Dragging() {
		t.Error("drag still active after drop")
	}
}

func TestDropCancelsWithoutPenalty(t *testing.T) {
	tests := []struct {
		name string
		drop func(s *Session) Outcome
	}{
		{name: "empty space", drop: func(s *Session) Outcome { return s.DropAt(Point{X: 400, Y: 5}) }},
		{name: "same card", drop: func(s *Session) Outcome { return s.Drop(cardID(1, SideEnglish, 1)) }},
		{name: "matched card", drop: func(s *Session) Outcome { return s.Drop(cardID(1, SideChinese, 0)) }},
		{name: "unknown id", drop: func(s *Session) Outcome { return s.Drop("nope") }},
		{name: "cancel", drop: func(s *Session) Outcome { return s.CancelDrag() }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _, rec := newTestSession(t, testWords(3), WithSettings(ModeDrag, DifficultyOff, true))
			s.DragStart(cardID(1, SideEnglish, 0), InputMouse)
			s.Drop(cardID(1, SideChinese, 0))
			before := s.View().Score

			s.DragStart(cardID(1, SideEnglish, 1), InputMouse)
			if out := tt.drop(s); out != OutcomeCancelled {
				t.Errorf("drop = %v, want cancelled", out)
			}

			v := s.View()
			if v.Score != before || len(s.Mistakes()) != 0 {
				t.Errorf("Score=%d (was %d) mistakes=%v", v.Score, before, s.Mistakes())
			}
			if st := stateOf(v, cardID(1, SideEnglish, 1)); st != CardUnselected {
				t.Errorf("dragged card state = %s, want unselected", st)
			}
			if rec.count(EventDragCancelled) != 1 {
				t.Errorf("drag_cancelled events = %d, want 1", rec.count(EventDragCancelled))
			}
		})
	}
}

func TestDropAtResolvesCardUnderPoint(t *testing.T) {
	s, _, _ := newTestSession(t, testWords(3), WithSettings(ModeDrag, DifficultyOff, true))
	layout := s.View().Layout

	s.DragStart(cardID(1, SideChinese, 2), InputTouch)
	if out := s.DropAt(layout.Center(SideEnglish, 2)); out != OutcomeMatched {
		t.Errorf("DropAt(matching card) = %v, want matched", out)
	}

	s.DragStart(cardID(1, SideChinese, 1), InputTouch)
	if out := s.DropAt(layout.Center(SideEnglish, 0)); out != OutcomeMismatched {
		t.Errorf("DropAt(wrong card) = %v, want mismatched", out)
	}
	if got := s.Mistakes()["word0"]; got != 1 {
		t.Errorf("mistakes[word0] = %d, want 1", got)
	}
}

func TestReplaceWords(t *testing.T) {
	s, _, rec := newTestSession(t, testWords(3))

	if err := s.ReplaceWords(nil); !errors.Is(err, ErrNoWords) {
		t.Errorf("ReplaceWords(nil) error = %v", err)
	}
	if s.Round() != 1 {
		t.Error("rejected import restarted the round")
	}

	next := []models.WordPair{{English: "sun", Chinese: "太阳"}, {English: "moon", Chinese: "月亮"}}
	if err := s.ReplaceWords(next); err != nil {
		t.Fatal(err)
	}
	v := s.View()
	if v.Round != 2 || v.Total != 2 {
		t.Errorf("Round=%d Total=%d, want 2/2", v.Round, v.Total)
	}
	if got := sortedTexts(v.English); got[0] != "moon" || got[1] != "sun" {
		t.Errorf("English cards = %v", got)
	}
	if rec.count(EventRestarted) != 1 {
		t.Errorf("restarted events = %d, want 1", rec.count(EventRestarted))
	}
}

func TestListenerMayCallBack(t *testing.T) {
	clock := newFakeClock()
	var s *Session
	views := 0
	s, err := NewSession(DefaultConfig(), testWords(3), WithClock(clock), WithRNG(identityRNG{}),
		WithListener(func(Event) {
			s.View()
			views++
		}))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	s.Click(cardID(1, SideEnglish, 0))
	if views != 1 {
		t.Errorf("listener ran %d times, want 1", views)
	}
}

func TestClosedSessionRefusesInput(t *testing.T) {
	s, clock, rec := newTestSession(t, testWords(3), WithSettings(ModeClick, DifficultyEasy, true))
	s.Click(cardID(1, SideEnglish, 0))
	s.Close()

	if !s.Closed() {
		t.Fatal("Closed() = false after Close")
	}
	if out, err := s.Click(cardID(1, SideChinese, 1)); !errors.Is(err, ErrSessionClosed) || out != OutcomeIgnored {
		t.Errorf("Click() = %s, %v; want ignored, ErrSessionClosed", out, err)
	}
	if _, err := s.DragStart(cardID(1, SideEnglish, 1), InputMouse); !errors.Is(err, ErrSessionClosed) {
		t.Errorf("DragStart() error = %v, want ErrSessionClosed", err)
	}
	if err := s.SetMode(ModeDrag); !errors.Is(err, ErrSessionClosed) {
		t.Errorf("SetMode() error = %v, want ErrSessionClosed", err)
	}
	if err := s.SetDifficulty(DifficultyHard); !errors.Is(err, ErrSessionClosed) {
		t.Errorf("SetDifficulty() error = %v, want ErrSessionClosed", err)
	}
	s.Restart()
	if s.Round() != 2 {
		t.Errorf("Round() = %d after Restart on a closed session, want 2", s.Round())
	}

	clock.Advance(5 * time.Minute)
	if n := rec.count(EventMismatched) + rec.count(EventTimeUp) + rec.count(EventRestarted); n != 0 {
		t.Errorf("closed session emitted %d events", n)
	}
	if clock.Pending() != 0 {
		t.Errorf("%d timers still armed", clock.Pending())
	}
}
