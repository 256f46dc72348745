package game

import "time"

// ScoreRules configures combo and quick-match bonuses
type ScoreRules struct {
	ComboStep   int           // every ComboStep consecutive matches add ComboBonus
	ComboBonus  int
	QuickWindow time.Duration // a match this soon after the previous one earns QuickBonus
	QuickBonus  int
}

// Scoreboard accumulates the score and combo of a round
type Scoreboard struct {
	Score int
	Combo int

	rules     ScoreRules
	lastMatch time.Time
}

// NewScoreboard creates an empty scoreboard
func NewScoreboard(rules ScoreRules) Scoreboard {
	return Scoreboard{rules: rules}
}

// Update applies points and returns the amount actually added.
// Positive points extend the combo and earn floor(combo/step)*bonus plus the
// quick-match bonus; non-positive points reset the combo and are added as-is.
func (b *Scoreboard) Update(points int, now time.Time) int {
	if points <= 0 {
		b.Combo = 0
		b.Score += points
		return points
	}

	b.Combo++
	total := points
	if b.rules.ComboStep > 0 {
		total += (b.Combo / b.rules.ComboStep) * b.rules.ComboBonus
	}
	if !b.lastMatch.IsZero() && now.Sub(b.lastMatch) <= b.rules.QuickWindow {
		total += b.rules.QuickBonus
	}
	b.lastMatch = now
	b.Score += total
	return total
}

// Reset clears score, combo and match timing
func (b *Scoreboard) Reset() {
	b.Score = 0
	b.Combo = 0
	b.lastMatch = time.Time{}
}
