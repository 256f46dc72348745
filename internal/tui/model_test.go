package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"wordmatch/internal/game"
	"wordmatch/internal/wordlist"
)

type inOrder struct{}

func (inOrder) Intn(n int) int { return n - 1 }

// sessionGame drives a bare session without persistence
type sessionGame struct {
	*game.Session
}

func (g sessionGame) Restart() error {
	g.Session.Restart()
	return nil
}

func (g sessionGame) SetDifficulty(d string) error {
	parsed, err := game.ParseDifficulty(d)
	if err != nil {
		return err
	}
	return g.Session.SetDifficulty(parsed)
}

func (g sessionGame) SetSound(enabled bool) error {
	g.Session.SetSound(enabled)
	return nil
}

func newTestModel(t *testing.T) (Model, *game.Session) {
	t.Helper()
	s, err := game.NewSession(game.DefaultConfig(), wordlist.Defaults(), game.WithRNG(inOrder{}))
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	t.Cleanup(s.Close)
	return New(sessionGame{s}), s
}

func press(m Model, keys ...string) Model {
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "up":
			msg = tea.KeyMsg{Type: tea.KeyUp}
		case "down":
			msg = tea.KeyMsg{Type: tea.KeyDown}
		case "left":
			msg = tea.KeyMsg{Type: tea.KeyLeft}
		case "right":
			msg = tea.KeyMsg{Type: tea.KeyRight}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		next, _ := m.Update(msg)
		m = next.(Model)
	}
	return m
}

func TestModelMatch(t *testing.T) {
	m, s := newTestModel(t)

	// selecting jumps the cursor to the other column at the same row
	m = press(m, "down", "enter")
	if m.column != 1 {
		t.Fatalf("column after select = %d, want 1", m.column)
	}
	m = press(m, "down", "enter")

	v := s.View()
	if v.Matched != 1 {
		t.Fatalf("matched = %d, want 1", v.Matched)
	}
	if v.English[1].State != game.CardMatched || v.Chinese[1].State != game.CardMatched {
		t.Errorf("states = %s/%s, want matched", v.English[1].State, v.Chinese[1].State)
	}
	if !m.good || m.status != "Match!" {
		t.Errorf("status = %q (good=%v)", m.status, m.good)
	}
}

func TestModelMismatch(t *testing.T) {
	m, s := newTestModel(t)

	m = press(m, "enter", "down", "enter")

	v := s.View()
	if v.Matched != 0 {
		t.Fatalf("matched = %d, want 0", v.Matched)
	}
	if len(v.Mistakes) != 1 || v.Mistakes[0].Word != wordlist.Defaults()[0].English {
		t.Errorf("mistakes = %+v", v.Mistakes)
	}
	if m.good || !strings.Contains(m.status, "try again") {
		t.Errorf("status = %q (good=%v)", m.status, m.good)
	}
}

func TestModelCursorClamp(t *testing.T) {
	m, s := newTestModel(t)
	n := len(s.View().English)

	m = press(m, "up", "up")
	if m.row[0] != 0 {
		t.Errorf("row after up = %d, want 0", m.row[0])
	}
	for i := 0; i < n+5; i++ {
		m = press(m, "down")
	}
	if m.row[0] != n-1 {
		t.Errorf("row after down = %d, want %d", m.row[0], n-1)
	}
	m = press(m, "right")
	if m.column != 1 || m.row[1] != 0 {
		t.Errorf("cursor = (%d,%d), want (1,0)", m.column, m.row[1])
	}
}

func TestModelSettings(t *testing.T) {
	m, s := newTestModel(t)

	m = press(m, "d")
	if got := s.View().Difficulty; got != game.DifficultyEasy {
		t.Errorf("difficulty = %s, want easy", got)
	}
	if !strings.Contains(m.View(), "Time ") {
		t.Error("timed round should show the clock")
	}

	m = press(m, "s")
	if s.SoundEnabled() {
		t.Error("sound still enabled after toggle")
	}

	m = press(m, "enter", "r")
	if s.View().Selected != "" {
		t.Error("restart should clear the selection")
	}
	if m.row != [2]int{} {
		t.Errorf("cursor = %v, want reset", m.row)
	}
}

func TestModelCopyMistakes(t *testing.T) {
	var copied string
	orig := copyText
	copyText = func(s string) error { copied = s; return nil }
	t.Cleanup(func() { copyText = orig })

	m, _ := newTestModel(t)
	m = press(m, "c")
	if copied != "" || m.status != "No mistakes to copy." {
		t.Fatalf("copied %q with status %q before any mistake", copied, m.status)
	}

	m = press(m, "enter", "down", "enter", "c")
	want := wordlist.Defaults()[0].English + "\t1"
	if copied != want {
		t.Errorf("copied %q, want %q", copied, want)
	}
	if m.status != "Copied 1 mistakes." {
		t.Errorf("status = %q", m.status)
	}
}

func TestModelQuit(t *testing.T) {
	m, _ := newTestModel(t)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("expected a quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Errorf("cmd() = %T, want tea.QuitMsg", cmd())
	}
}

func TestModelViewShowsBoard(t *testing.T) {
	m, s := newTestModel(t)
	out := m.View()
	for _, c := range s.View().English {
		if !strings.Contains(out, c.Text) {
			t.Errorf("view missing %q", c.Text)
		}
	}
	if !strings.Contains(out, "Matched 0/") {
		t.Error("view missing progress")
	}
}

func TestNextDifficulty(t *testing.T) {
	tests := []struct {
		in, want game.Difficulty
	}{
		{game.DifficultyOff, game.DifficultyEasy},
		{game.DifficultyEasy, game.DifficultyNormal},
		{game.DifficultyNormal, game.DifficultyHard},
		{game.DifficultyHard, game.DifficultyOff},
		{"bogus", game.DifficultyOff},
	}
	for _, tt := range tests {
		t.Run(string(tt.in), func(t *testing.T) {
			if got := nextDifficulty(tt.in); got != tt.want {
				t.Errorf("nextDifficulty(%s) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestFormatClock(t *testing.T) {
	tests := []struct {
		ms   int64
		want string
	}{
		{0, "0:00"},
		{1, "0:01"},
		{59_001, "1:00"},
		{90_000, "1:30"},
	}
	for _, tt := range tests {
		if got := formatClock(tt.ms); got != tt.want {
			t.Errorf("formatClock(%d) = %q, want %q", tt.ms, got, tt.want)
		}
	}
}
