package driver

import (
	"fmt"
	"io"

	"github.com/wricardo/minisnakes/game/engine"
)

// TextRenderer writes each frame as ASCII art followed by a status line.
type TextRenderer struct {
	w     io.Writer
	clear bool
}

// NewTextRenderer renders to w. With clear set every frame starts with an
// ANSI clear-screen sequence.
func NewTextRenderer(w io.Writer, clear bool) *TextRenderer {
	return &TextRenderer{w: w, clear: clear}
}

func (r *TextRenderer) Render(g *engine.Grid, res *engine.StepResult) error {
	if r.clear {
		if _, err := io.WriteString(r.w, "\033[H\033[2J"); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(r.w, "%s%s  length %d  score %d\n", g, res.Action, res.Length, res.Score)
	return err
}

// ScoreReporter prints the final score line.
type ScoreReporter struct {
	w io.Writer
}

// NewScoreReporter reports to w.
func NewScoreReporter(w io.Writer) *ScoreReporter {
	return &ScoreReporter{w: w}
}

func (r *ScoreReporter) Report(res *engine.StepResult) {
	fmt.Fprintf(r.w, "Score: %d\n", res.Score)
}
