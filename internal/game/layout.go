package game

// Layout places cards on the board: English cards in the left column,
// Chinese cards in the right one, one row per slot.
type Layout struct {
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	CardWidth  float64 `json:"card_width"`
	CardHeight float64 `json:"card_height"`
	Gap        float64 `json:"gap"`
	Top        float64 `json:"top"`
}

// DefaultLayout fits a ten-row round on an 800x600 board
func DefaultLayout() Layout {
	return Layout{
		Width:      800,
		Height:     600,
		CardWidth:  200,
		CardHeight: 44,
		Gap:        10,
		Top:        20,
	}
}

// Center returns the centre of the card at slot on side
func (l Layout) Center(side Side, slot int) Point {
	x := l.Width * 0.25
	if side == SideChinese {
		x = l.Width * 0.75
	}
	y := l.Top + float64(slot)*(l.CardHeight+l.Gap) + l.CardHeight/2
	return Point{X: x, Y: y}
}

// Contains reports whether p lies on the card at slot on side
func (l Layout) Contains(side Side, slot int, p Point) bool {
	c := l.Center(side, slot)
	return p.X >= c.X-l.CardWidth/2 && p.X <= c.X+l.CardWidth/2 &&
		p.Y >= c.Y-l.CardHeight/2 && p.Y <= c.Y+l.CardHeight/2
}

// CanvasHeight is the board height needed for rows cards per column
func (l Layout) CanvasHeight(rows int) float64 {
	need := 2*l.Top + float64(rows)*(l.CardHeight+l.Gap)
	if need > l.Height {
		return need
	}
	return l.Height
}
