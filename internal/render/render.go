// Package render turns a trace into animation frames: the visible program
// listing with the running statement highlighted and a running cycle counter.
package render

import (
	"fmt"
	"image"
	"image/color"
	"image/color/palette"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/sophiecomputer/cycle-sim/internal/program"
)

const (
	fontSize   = 40
	stmtPad    = 10 // pixels between two statements
	leftMargin = 20
	sideMargin = 20
)

var highlight = color.RGBA{R: 255, G: 255, B: 0, A: 255}

// Renderer lays out one program's visible listing once and then stamps out
// frames. It is not safe for concurrent use (the font face is stateful).
type Renderer struct {
	face    font.Face
	visible []program.Statement
	rows    map[int]int // pc -> row index

	width      int
	height     int
	lineHeight int
	ascent     int
}

// New measures the program's visible listing and prepares a renderer for it.
func New(p *program.Program) (*Renderer, error) {
	if p == nil {
		return nil, fmt.Errorf("nil program")
	}
	visible := p.Visible()
	if len(visible) == 0 {
		return nil, fmt.Errorf("program has no visible statements")
	}

	ft, err := opentype.Parse(gomono.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	face, err := opentype.NewFace(ft, &opentype.FaceOptions{
		Size:    fontSize,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("build font face: %w", err)
	}

	metrics := face.Metrics()
	lineHeight := (metrics.Ascent + metrics.Descent).Ceil()

	maxWidth := 0
	rows := make(map[int]int, len(visible))
	for i, st := range visible {
		rows[st.PC] = i
		if w := font.MeasureString(face, st.Text).Ceil(); w > maxWidth {
			maxWidth = w
		}
	}

	return &Renderer{
		face:    face,
		visible: visible,
		rows:    rows,

		width:      maxWidth + leftMargin + sideMargin,
		height:     (len(visible) + 1) * (lineHeight + stmtPad),
		lineHeight: lineHeight,
		ascent:     metrics.Ascent.Ceil(),
	}, nil
}

// Close releases the font face.
func (r *Renderer) Close() error { return r.face.Close() }

// Bounds returns the fixed frame dimensions.
func (r *Renderer) Bounds() image.Rectangle {
	return image.Rect(0, 0, r.width, r.height)
}

// Visible reports whether pc corresponds to a displayable row.
func (r *Renderer) Visible(pc int) bool {
	_, ok := r.rows[pc]
	return ok
}

// Frame renders one frame: the full listing, the statement at pc on a yellow
// highlight bar, and the cycle counter bottom-right.
func (r *Renderer) Frame(pc, cycleCount int) *image.Paletted {
	rgba := image.NewRGBA(r.Bounds())
	draw.Draw(rgba, rgba.Bounds(), image.White, image.Point{}, draw.Src)

	for i, st := range r.visible {
		top := i * (r.lineHeight + stmtPad)
		if st.PC == pc {
			bar := image.Rect(leftMargin, top-5, r.width-sideMargin, top+r.lineHeight)
			draw.Draw(rgba, bar, &image.Uniform{highlight}, image.Point{}, draw.Src)
		}
		r.drawText(rgba, st.Text, leftMargin, top+r.ascent)
	}

	counter := fmt.Sprintf("Cycles: %d", cycleCount)
	counterWidth := font.MeasureString(r.face, counter).Ceil()
	top := len(r.visible) * (r.lineHeight + stmtPad)
	r.drawText(rgba, counter, r.width-sideMargin-counterWidth, top+r.ascent)

	pal := image.NewPaletted(rgba.Bounds(), palette.Plan9)
	draw.FloydSteinberg.Draw(pal, rgba.Bounds(), rgba, image.Point{})
	return pal
}

func (r *Renderer) drawText(dst draw.Image, s string, x, y int) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.Black,
		Face: r.face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}
