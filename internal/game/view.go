package game

import (
	"wordmatch/internal/models"
)

// CardView is the client-facing projection of a card
type CardView struct {
	ID     string    `json:"id"`
	Side   Side      `json:"side"`
	Text   string    `json:"text"`
	Slot   int       `json:"slot"`
	State  CardState `json:"state"`
	Center Point     `json:"center"`
}

// DragView describes the live drag line
type DragView struct {
	CardID         string      `json:"card_id"`
	Source         InputSource `json:"source"`
	Start          Point       `json:"start"`
	End            Point       `json:"end"`
	SuppressScroll bool        `json:"suppress_scroll"`
}

// View is a read-only snapshot of everything a client needs to draw the board
type View struct {
	Round       int                   `json:"round"`
	Mode        Mode                  `json:"mode"`
	Difficulty  Difficulty            `json:"difficulty"`
	Sound       bool                  `json:"sound"`
	English     []CardView            `json:"english"`
	Chinese     []CardView            `json:"chinese"`
	Selected    string                `json:"selected,omitempty"`
	Connections []Connection          `json:"connections"`
	Drag        *DragView             `json:"drag,omitempty"`
	Score       int                   `json:"score"`
	Combo       int                   `json:"combo"`
	Matched     int                   `json:"matched"`
	Total       int                   `json:"total"`
	TimeLeftMs  int64                 `json:"time_left_ms"`
	Timed       bool                  `json:"timed"`
	Over        bool                  `json:"over"`
	Complete    bool                  `json:"complete"`
	Mistakes    []models.MistakeEntry `json:"mistakes"`
	Layout      Layout                `json:"layout"`
}

// View projects the session state. It never mutates the session.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := View{
		Round:       s.round,
		Mode:        s.mode,
		Difficulty:  s.difficulty,
		Sound:       s.sound,
		English:     s.cardViews(s.english),
		Chinese:     s.cardViews(s.chinese),
		Connections: append([]Connection{}, s.connections...),
		Score:       s.score.Score,
		Combo:       s.score.Combo,
		Matched:     len(s.matched),
		Total:       len(s.roundWords),
		TimeLeftMs:  s.timeLeft().Milliseconds(),
		Timed:       s.countdown.limit > 0,
		Over:        s.over,
		Complete:    s.complete,
		Mistakes:    s.mistakeEntries(),
		Layout:      s.cfg.Layout,
	}
	v.Layout.Height = s.cfg.Layout.CanvasHeight(len(s.roundWords))
	if s.selected != nil {
		v.Selected = s.selected.ID
	}
	if s.drag.active {
		v.Drag = &DragView{
			CardID:         s.drag.card.ID,
			Source:         s.drag.source,
			Start:          s.drag.start,
			End:            s.drag.end,
			SuppressScroll: s.drag.source == InputTouch,
		}
	}
	return v
}

func (s *Session) cardViews(cards []*Card) []CardView {
	out := make([]CardView, len(cards))
	for i, c := range cards {
		out[i] = CardView{
			ID:     c.ID,
			Side:   c.Side,
			Text:   c.Text,
			Slot:   c.Slot,
			State:  c.State,
			Center: s.cfg.Layout.Center(c.Side, c.Slot),
		}
	}
	return out
}

func (s *Session) mistakeEntries() []models.MistakeEntry {
	out := make([]models.MistakeEntry, 0, len(s.mistakes))
	for w, n := range s.mistakes {
		out = append(out, models.MistakeEntry{Word: w, Count: n})
	}
	models.SortMistakes(out)
	return out
}

// Mistakes returns a copy of the session's mistake tally
func (s *Session) Mistakes() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]int, len(s.mistakes))
	for w, n := range s.mistakes {
		out[w] = n
	}
	return out
}

// ClearMistakes empties the mistake tally
func (s *Session) ClearMistakes() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mistakes = make(map[string]int)
}
