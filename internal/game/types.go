// Package game implements the word-matching round: cards, selection and drag
// state, match checking, scoring and the optional countdown.
//
// A Session is the single source of truth for one player's game. Renderers
// and transports read it through View and drive it through the input methods.
package game

import (
	"fmt"
	"strings"
)

// Side is the language shown on a card
type Side string

const (
	SideEnglish Side = "english"
	SideChinese Side = "chinese"
)

// CardState is the interaction state of a card.
// unselected -> selected -> {matched | unselected}; error is the transient
// flash after a failed attempt and returns to unselected. matched is final.
type CardState string

const (
	CardUnselected CardState = "unselected"
	CardSelected   CardState = "selected"
	CardError      CardState = "error"
	CardMatched    CardState = "matched"
)

// Mode is the input modality of a session
type Mode string

const (
	ModeClick Mode = "click"
	ModeDrag  Mode = "drag"
)

// ParseMode converts a client supplied string into a Mode
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeClick:
		return ModeClick, nil
	case ModeDrag:
		return ModeDrag, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidMode, s)
	}
}

// InputSource tells mouse drags from touch drags
type InputSource string

const (
	InputMouse InputSource = "mouse"
	InputTouch InputSource = "touch"
)

// Card is one side of a word pair dealt into a round
type Card struct {
	ID    string
	Side  Side
	Text  string
	Pair  string // text of the card it must be matched with
	Slot  int    // position in its column
	State CardState

	word  int // index into the round's words
	flash int // bumped on every error flash so older revert timers are ignored
}

// english returns the English term this card belongs to
func (c *Card) english() string {
	if c.Side == SideEnglish {
		return c.Text
	}
	return c.Pair
}

// Point is a position on the board in layout units
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Connection links the centres of two matched cards
type Connection struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Start Point  `json:"start"`
	End   Point  `json:"end"`
}

// Outcome describes what an input did
type Outcome string

const (
	OutcomeIgnored    Outcome = "ignored"
	OutcomeSelected   Outcome = "selected"
	OutcomeDeselected Outcome = "deselected"
	OutcomeDragging   Outcome = "dragging"
	OutcomeCancelled  Outcome = "cancelled"
	OutcomeMatched    Outcome = "matched"
	OutcomeMismatched Outcome = "mismatched"
)

// CheckMatch reports whether two cards form a pair: opposite sides, and each
// card's expected pair text equals the other card's text.
func CheckMatch(a, b Card) bool {
	if a.Side == b.Side {
		return false
	}
	return a.Pair == b.Text && b.Pair == a.Text
}
