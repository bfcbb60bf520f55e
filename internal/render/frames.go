package render

import (
	"fmt"
	"image"
	"image/gif"
	"io"

	"github.com/sophiecomputer/cycle-sim/internal/trace"
)

// MillisecondsPerCycle is the default animation speed.
const MillisecondsPerCycle = 200

// FrameCount returns how many frames Frames will produce for tr: one per
// cycle of each event whose statement is visible.
func (r *Renderer) FrameCount(tr trace.ExecutionTrace) int {
	total := 0
	for _, ev := range tr.Events {
		if r.Visible(ev.PC) {
			total += ev.Cycles()
		}
	}
	return total
}

// Frames expands the trace into per-cycle frames: an event spanning c cycles
// contributes c frames of its statement, each advancing the displayed
// counter. Hidden statements consume simulated time but draw nothing, so the
// counter may jump across them. Zero-cost statements contribute no frames.
//
// progress, if non-nil, is called after each rendered frame.
func (r *Renderer) Frames(tr trace.ExecutionTrace, progress func(done, total int)) []*image.Paletted {
	total := r.FrameCount(tr)
	frames := make([]*image.Paletted, 0, total)
	for _, ev := range tr.Events {
		if !r.Visible(ev.PC) {
			continue
		}
		for k := 0; k < ev.Cycles(); k++ {
			frames = append(frames, r.Frame(ev.PC, ev.EnterCycles+k))
			if progress != nil {
				progress(len(frames), total)
			}
		}
	}
	return frames
}

// WriteGIF encodes frames as a looping animated GIF at msPerCycle
// milliseconds per frame.
func WriteGIF(w io.Writer, frames []*image.Paletted, msPerCycle int) error {
	if len(frames) == 0 {
		return fmt.Errorf("no frames to encode")
	}
	if msPerCycle <= 0 {
		msPerCycle = MillisecondsPerCycle
	}

	// GIF delays are in hundredths of a second.
	delay := msPerCycle / 10
	g := &gif.GIF{LoopCount: 0}
	for _, f := range frames {
		g.Image = append(g.Image, f)
		g.Delay = append(g.Delay, delay)
	}
	return gif.EncodeAll(w, g)
}
