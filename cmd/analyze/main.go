// Command analyze plays headless autopilot games on every configuration in
// the configs directory and prints how far the autopilot gets: average and
// best score, game length and how the games ended.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"sort"

	"github.com/urfave/cli/v3"

	"github.com/wricardo/minisnakes/game/config"
	"github.com/wricardo/minisnakes/game/driver"
	"github.com/wricardo/minisnakes/game/engine"
)

// errStepLimit stops a game that runs past the step limit.
var errStepLimit = errors.New("step limit reached")

// Analysis summarizes the games played on one configuration.
type Analysis struct {
	ConfigID   string
	Name       string
	Width      int
	Height     int
	Games      int
	TotalScore int
	BestScore  int
	TotalSteps int
	Outcomes   map[engine.Outcome]int
	Unfinished int
}

// AverageScore returns the mean score over all games.
func (a *Analysis) AverageScore() float64 {
	if a.Games == 0 {
		return 0
	}
	return float64(a.TotalScore) / float64(a.Games)
}

// AverageSteps returns the mean number of steps per game.
func (a *Analysis) AverageSteps() float64 {
	if a.Games == 0 {
		return 0
	}
	return float64(a.TotalSteps) / float64(a.Games)
}

// playGame runs one autopilot game on the raw grid encoding to the end or
// to maxSteps. It returns the last step and the number of steps taken.
func playGame(ctx context.Context, cfg *engine.GameConfig, maxSteps int) (*engine.StepResult, int, error) {
	eng, err := engine.NewEngine(cfg)
	if err != nil {
		return nil, 0, err
	}
	stepper := driver.NewGridStepper(eng.Grid(), engine.NewRand(cfg.RandomSeed))

	steps := 0
	var last *engine.StepResult
	counter := driver.RendererFunc(func(g *engine.Grid, res *engine.StepResult) error {
		last = res
		if steps++; maxSteps > 0 && steps >= maxSteps {
			return errStepLimit
		}
		return nil
	})
	reporter := driver.ReporterFunc(func(res *engine.StepResult) {
		last = res
		steps++
	})

	_, err = driver.New(stepper, driver.NewAutopilot(stepper), counter, reporter, 0).Run(ctx)
	if err != nil && !errors.Is(err, errStepLimit) {
		return nil, steps, err
	}
	return last, steps, nil
}

// analyzeConfig plays games on cfg. Game i uses seed base+i, where base is
// the config's random_seed or 1 when it has none.
func analyzeConfig(ctx context.Context, id string, cfg *engine.GameConfig, games, maxSteps int) (*Analysis, error) {
	a := &Analysis{
		ConfigID: id,
		Name:     cfg.Name,
		Width:    cfg.Width,
		Height:   cfg.Height,
		Outcomes: make(map[engine.Outcome]int),
	}

	base := cfg.RandomSeed
	if base == 0 {
		base = 1
	}
	for i := 0; i < games; i++ {
		seeded := *cfg
		seeded.RandomSeed = base + int64(i)

		last, steps, err := playGame(ctx, &seeded, maxSteps)
		if err != nil {
			return nil, fmt.Errorf("%s game %d: %w", id, i+1, err)
		}

		a.Games++
		a.TotalSteps += steps
		if last == nil {
			continue
		}
		a.TotalScore += last.Score
		if last.Score > a.BestScore {
			a.BestScore = last.Score
		}
		if last.Done {
			a.Outcomes[last.Outcome]++
		} else {
			a.Unfinished++
		}
	}
	return a, nil
}

func printAnalysis(w io.Writer, a *Analysis) {
	fmt.Fprintf(w, "\n=== Analyzing %s ===\n", a.ConfigID)
	fmt.Fprintf(w, "Name: %s\n", a.Name)
	fmt.Fprintf(w, "Board: %d x %d (max score %d)\n", a.Width, a.Height, a.Width*a.Height-2)
	fmt.Fprintf(w, "Games: %d\n", a.Games)
	fmt.Fprintf(w, "Average Score: %.1f\n", a.AverageScore())
	fmt.Fprintf(w, "Best Score: %d\n", a.BestScore)
	fmt.Fprintf(w, "Average Steps: %.1f\n", a.AverageSteps())

	outcomes := make([]string, 0, len(a.Outcomes))
	for o := range a.Outcomes {
		outcomes = append(outcomes, string(o))
	}
	sort.Strings(outcomes)
	for _, o := range outcomes {
		fmt.Fprintf(w, "Ended by %s: %d\n", o, a.Outcomes[engine.Outcome(o)])
	}
	if a.Unfinished > 0 {
		fmt.Fprintf(w, "⚠️  %d games hit the step limit\n", a.Unfinished)
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	manager, err := config.NewManager(cmd.String("config-dir"))
	if err != nil {
		return err
	}

	ids := cmd.Args().Slice()
	if len(ids) == 0 {
		infos, err := manager.ListConfigs()
		if err != nil {
			return err
		}
		for _, info := range infos {
			ids = append(ids, info.ConfigID)
		}
	}

	for _, id := range ids {
		cfg, err := manager.LoadConfig(id)
		if err != nil {
			return fmt.Errorf("%s: %w", id, err)
		}
		a, err := analyzeConfig(ctx, id, cfg, cmd.Int("games"), cmd.Int("max-steps"))
		if err != nil {
			return err
		}
		printAnalysis(os.Stdout, a)
	}
	return nil
}

func main() {
	cmd := &cli.Command{
		Name:      "analyze",
		Usage:     "play autopilot games on each configuration and summarize the results",
		ArgsUsage: "[config id...]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config-dir",
				Value:   "configs",
				Sources: cli.EnvVars("CONFIG_DIR"),
			},
			&cli.IntFlag{
				Name:  "games",
				Usage: "Games per configuration",
				Value: 20,
			},
			&cli.IntFlag{
				Name:  "max-steps",
				Usage: "Stop a game after this many steps (0 for no limit)",
				Value: 100000,
			},
		},
		Action: run,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
