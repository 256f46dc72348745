// Package tui is a terminal client that plays click mode against a local
// game session.
package tui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"wordmatch/internal/game"
	"wordmatch/internal/service"
)

const refreshInterval = 100 * time.Millisecond

var (
	styleTitle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).Padding(0, 1)
	styleCard     = lipgloss.NewStyle().Width(18).Padding(0, 1).Border(lipgloss.RoundedBorder())
	styleSelected = styleCard.Copy().BorderForeground(lipgloss.Color("11")).Bold(true)
	styleMatched  = styleCard.Copy().Foreground(lipgloss.Color("10")).BorderForeground(lipgloss.Color("10"))
	styleError    = styleCard.Copy().Foreground(lipgloss.Color("9")).BorderForeground(lipgloss.Color("9"))
	styleCursor   = lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Bold(true)
	styleSubtle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	styleGood     = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	styleBad      = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
)

// copyText is swapped out in tests
var copyText = clipboard.WriteAll

var difficulties = []game.Difficulty{
	game.DifficultyOff,
	game.DifficultyEasy,
	game.DifficultyNormal,
	game.DifficultyHard,
}

// Game is the part of a session the terminal client drives
type Game interface {
	View() game.View
	Click(cardID string) (game.Outcome, error)
	Restart() error
	SetDifficulty(difficulty string) error
	SetSound(enabled bool) error
}

// serviceGame resolves the session through the game service on every call, so
// settings and restarts are persisted and an evicted session is reloaded.
type serviceGame struct {
	games    *service.GameService
	playerID string
}

// NewServiceGame loads the player's session and switches it to click mode
func NewServiceGame(games *service.GameService, playerID string) (Game, error) {
	s, err := games.Session(playerID)
	if err != nil {
		return nil, err
	}
	if s.View().Mode != game.ModeClick {
		if err := games.SetMode(playerID, string(game.ModeClick)); err != nil {
			return nil, err
		}
	}
	return &serviceGame{games: games, playerID: playerID}, nil
}

func (g *serviceGame) View() game.View {
	s, err := g.games.Session(g.playerID)
	if err != nil {
		return game.View{}
	}
	return s.View()
}

func (g *serviceGame) Click(cardID string) (game.Outcome, error) {
	s, err := g.games.Session(g.playerID)
	if err != nil {
		return game.OutcomeIgnored, err
	}
	return s.Click(cardID)
}

func (g *serviceGame) Restart() error { return g.games.Restart(g.playerID) }

func (g *serviceGame) SetDifficulty(d string) error { return g.games.SetDifficulty(g.playerID, d) }

func (g *serviceGame) SetSound(enabled bool) error { return g.games.SetSound(g.playerID, enabled) }

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// Model is the bubbletea model of the board
type Model struct {
	game   Game
	column int    // 0 english, 1 chinese
	row    [2]int // cursor row per column
	status string
	good   bool
}

// New creates a model over g
func New(g Game) Model {
	return Model{game: g, status: "Pick an English word, then its translation."}
}

func (m Model) Init() tea.Cmd {
	return tick()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		return m, tick()
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	v := m.game.View()
	switch msg.String() {
	case "ctrl+c", "q", "esc":
		return m, tea.Quit
	case "left", "h":
		m.column = 0
	case "right", "l":
		m.column = 1
	case "tab":
		m.column = 1 - m.column
	case "up", "k":
		if m.row[m.column] > 0 {
			m.row[m.column]--
		}
	case "down", "j":
		m.row[m.column]++
	case "enter", " ":
		m.click(v)
	case "r":
		m.report(m.game.Restart(), "New round.")
		m.row = [2]int{}
	case "d":
		next := nextDifficulty(v.Difficulty)
		m.report(m.game.SetDifficulty(string(next)), "Difficulty: "+string(next))
	case "s":
		m.report(m.game.SetSound(!v.Sound), fmt.Sprintf("Sound: %s", onOff(!v.Sound)))
	case "c":
		m.copyMistakes(v)
	}
	m.clamp(m.game.View())
	return m, nil
}

func (m *Model) click(v game.View) {
	cards := column(v, m.column)
	if len(cards) == 0 {
		return
	}
	card := cards[m.row[m.column]]
	outcome, err := m.game.Click(card.ID)
	switch {
	case errors.Is(err, game.ErrRoundOver):
		m.status, m.good = "Time is up. Press r for a new round.", false
		return
	case err != nil:
		m.status, m.good = err.Error(), false
		return
	}

	switch outcome {
	case game.OutcomeSelected:
		m.status, m.good = "Selected "+card.Text, true
		m.column = 1 - m.column
	case game.OutcomeDeselected:
		m.status, m.good = "Selection cleared.", true
	case game.OutcomeMatched:
		m.status, m.good = "Match!", true
		if after := m.game.View(); after.Complete {
			m.status = fmt.Sprintf("All matched! Final score %d. Press r to play again.", after.Score)
		}
	case game.OutcomeMismatched:
		m.status, m.good = "Not a pair, try again.", false
	}
}

// copyMistakes puts the mistake list on the clipboard, one "word<TAB>count" per line
func (m *Model) copyMistakes(v game.View) {
	if len(v.Mistakes) == 0 {
		m.status, m.good = "No mistakes to copy.", true
		return
	}
	lines := make([]string, len(v.Mistakes))
	for i, e := range v.Mistakes {
		lines[i] = fmt.Sprintf("%s\t%d", e.Word, e.Count)
	}
	m.report(copyText(strings.Join(lines, "\n")), fmt.Sprintf("Copied %d mistakes.", len(lines)))
}

func (m *Model) report(err error, ok string) {
	if err != nil {
		m.status, m.good = err.Error(), false
		return
	}
	m.status, m.good = ok, true
}

func (m *Model) clamp(v game.View) {
	for c := 0; c < 2; c++ {
		n := len(column(v, c))
		if m.row[c] >= n {
			m.row[c] = n - 1
		}
		if m.row[c] < 0 {
			m.row[c] = 0
		}
	}
}

func column(v game.View, c int) []game.CardView {
	if c == 0 {
		return v.English
	}
	return v.Chinese
}

func nextDifficulty(d game.Difficulty) game.Difficulty {
	for i, candidate := range difficulties {
		if candidate == d {
			return difficulties[(i+1)%len(difficulties)]
		}
	}
	return game.DifficultyOff
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func (m Model) View() string {
	v := m.game.View()
	var b strings.Builder

	header := fmt.Sprintf("Score %d   Combo %d   Matched %d/%d", v.Score, v.Combo, v.Matched, v.Total)
	if v.Timed {
		header += "   Time " + formatClock(v.TimeLeftMs)
	}
	b.WriteString(styleTitle.Render("WordMatch"))
	b.WriteString(header)
	b.WriteString("\n\n")

	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		m.renderColumn(v.English, 0),
		"   ",
		m.renderColumn(v.Chinese, 1),
	))
	b.WriteString("\n")

	status := styleBad.Render(m.status)
	if m.good {
		status = styleGood.Render(m.status)
	}
	if v.Over {
		status = styleBad.Render("Time is up! A new round starts shortly.")
	}
	b.WriteString(status)
	b.WriteString("\n\n")

	if len(v.Mistakes) > 0 {
		b.WriteString("Mistakes: ")
		parts := make([]string, 0, 5)
		for i, e := range v.Mistakes {
			if i == 5 {
				break
			}
			parts = append(parts, fmt.Sprintf("%s ×%d", e.Word, e.Count))
		}
		b.WriteString(strings.Join(parts, ", "))
		b.WriteString("\n")
	}

	b.WriteString(styleSubtle.Render(fmt.Sprintf(
		"←/→ column  ↑/↓ move  enter select  r restart  d difficulty (%s)  s sound (%s)  c copy mistakes  q quit",
		v.Difficulty, onOff(v.Sound))))
	b.WriteString("\n")
	return b.String()
}

func (m Model) renderColumn(cards []game.CardView, c int) string {
	rows := make([]string, 0, len(cards))
	for i, card := range cards {
		style := styleCard
		switch card.State {
		case game.CardSelected:
			style = styleSelected
		case game.CardMatched:
			style = styleMatched
		case game.CardError:
			style = styleError
		}
		pointer := "  "
		if c == m.column && i == m.row[c] {
			pointer = styleCursor.Render("▶ ")
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Center, pointer, style.Render(card.Text)))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func formatClock(ms int64) string {
	secs := (ms + 999) / 1000
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}
