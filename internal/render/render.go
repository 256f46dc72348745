// Package render draws a game board with its connection lines into an image.
package render

import (
	"context"
	"fmt"
	"image"
	"io"
	"math"
	"time"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"

	"wordmatch/internal/game"
)

const (
	matchedLineColor = "#4CAF50"
	dragLineColor    = "#2196F3"
	lineWidth        = 2.0
	cardRadius       = 6.0
	fontSize         = 14.0
)

type cardStyle struct {
	fill   string
	border string
}

var cardStyles = map[game.CardState]cardStyle{
	game.CardUnselected: {fill: "#FFFFFF", border: "#BDBDBD"},
	game.CardSelected:   {fill: "#E3F2FD", border: "#2196F3"},
	game.CardError:      {fill: "#FFEBEE", border: "#F44336"},
	game.CardMatched:    {fill: "#E8F5E9", border: "#4CAF50"},
}

// Renderer draws board frames. It is safe for concurrent use.
type Renderer struct {
	font *truetype.Font
}

// New loads the label font
func New() (*Renderer, error) {
	f, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font: %w", err)
	}
	return &Renderer{font: f}, nil
}

// Frame draws the cards of v, a line between every matched pair and the
// live drag line.
func (r *Renderer) Frame(v game.View) image.Image {
	return r.draw(v).Image()
}

func (r *Renderer) draw(v game.View) *gg.Context {
	l := v.Layout
	dc := gg.NewContext(int(math.Ceil(l.Width)), int(math.Ceil(l.Height)))
	dc.SetHexColor("#FAFAFA")
	dc.Clear()
	// a face per frame: truetype faces keep a glyph cache and are not goroutine safe
	dc.SetFontFace(truetype.NewFace(r.font, &truetype.Options{Size: fontSize, Hinting: font.HintingFull}))

	for _, c := range v.English {
		r.drawCard(dc, l, c, true)
	}
	for _, c := range v.Chinese {
		// the bundled font has no CJK glyphs, so Chinese cards are drawn unlabelled
		r.drawCard(dc, l, c, false)
	}

	dc.SetLineWidth(lineWidth)
	dc.SetHexColor(matchedLineColor)
	for _, conn := range v.Connections {
		dc.DrawLine(conn.Start.X, conn.Start.Y, conn.End.X, conn.End.Y)
		dc.Stroke()
	}

	if v.Drag != nil {
		dc.SetHexColor(dragLineColor)
		dc.DrawLine(v.Drag.Start.X, v.Drag.Start.Y, v.Drag.End.X, v.Drag.End.Y)
		dc.Stroke()
	}

	return dc
}

func (r *Renderer) drawCard(dc *gg.Context, l game.Layout, c game.CardView, label bool) {
	style, ok := cardStyles[c.State]
	if !ok {
		style = cardStyles[game.CardUnselected]
	}
	x := c.Center.X - l.CardWidth/2
	y := c.Center.Y - l.CardHeight/2

	dc.DrawRoundedRectangle(x, y, l.CardWidth, l.CardHeight, cardRadius)
	dc.SetHexColor(style.fill)
	dc.FillPreserve()
	dc.SetHexColor(style.border)
	dc.SetLineWidth(1)
	dc.Stroke()

	if label {
		dc.SetHexColor("#212121")
		dc.DrawStringAnchored(c.Text, c.Center.X, c.Center.Y, 0.5, 0.35)
	}
}

// WritePNG encodes a frame of v as PNG
func (r *Renderer) WritePNG(w io.Writer, v game.View) error {
	if err := r.draw(v).EncodePNG(w); err != nil {
		return fmt.Errorf("failed to encode frame: %w", err)
	}
	return nil
}

// Loop calls draw every interval while active reports true. It returns nil
// once the drag ends, or the context error if ctx is cancelled first.
func Loop(ctx context.Context, interval time.Duration, active func() bool, draw func()) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if !active() {
			return nil
		}
		draw()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
