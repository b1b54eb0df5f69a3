package driver

import (
	"context"
	"fmt"
	"time"

	"github.com/wricardo/minisnakes/game/engine"
)

// InputSource yields the action for the next tick.
type InputSource interface {
	Take() engine.Action
}

// Renderer shows the board after every non-terminal step.
type Renderer interface {
	Render(g *engine.Grid, res *engine.StepResult) error
}

// Reporter receives the terminal step exactly once.
type Reporter interface {
	Report(res *engine.StepResult)
}

// NopRenderer discards frames.
type NopRenderer struct{}

func (NopRenderer) Render(*engine.Grid, *engine.StepResult) error { return nil }

// NopReporter discards the final result.
type NopReporter struct{}

func (NopReporter) Report(*engine.StepResult) {}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(g *engine.Grid, res *engine.StepResult) error

func (f RendererFunc) Render(g *engine.Grid, res *engine.StepResult) error { return f(g, res) }

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(res *engine.StepResult)

func (f ReporterFunc) Report(res *engine.StepResult) { f(res) }

// Driver runs the step loop: take the pending action, step, report on a
// terminal result, otherwise render and wait for the next tick.
type Driver struct {
	stepper  Stepper
	input    InputSource
	renderer Renderer
	reporter Reporter
	interval time.Duration
}

// New creates a driver. A nil renderer or reporter is replaced by the Nop
// implementation; a zero interval steps as fast as possible.
func New(stepper Stepper, input InputSource, renderer Renderer, reporter Reporter, interval time.Duration) *Driver {
	if input == nil {
		input = engine.NewActionSlot()
	}
	if renderer == nil {
		renderer = NopRenderer{}
	}
	if reporter == nil {
		reporter = NopReporter{}
	}
	return &Driver{
		stepper:  stepper,
		input:    input,
		renderer: renderer,
		reporter: reporter,
		interval: interval,
	}
}

// Run loops until the game ends, ctx is cancelled or a step fails. It
// returns the terminal step when the game ended.
func (d *Driver) Run(ctx context.Context) (*engine.StepResult, error) {
	var tick <-chan time.Time
	if d.interval > 0 {
		ticker := time.NewTicker(d.interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		if tick != nil {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-tick:
			}
		} else if err := ctx.Err(); err != nil {
			return nil, err
		}

		res, err := d.stepper.Step(ctx, d.input.Take())
		if err != nil {
			return nil, fmt.Errorf("step: %w", err)
		}
		if res.Done {
			d.reporter.Report(res)
			return res, nil
		}
		if err := d.renderer.Render(d.stepper.Grid(), res); err != nil {
			return res, fmt.Errorf("render: %w", err)
		}
	}
}
