package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/wricardo/minisnakes/game/config"
	"github.com/wricardo/minisnakes/game/driver"
	"github.com/wricardo/minisnakes/game/engine"
	"github.com/wricardo/minisnakes/validate"
)

// defaultPlayInterval paces keyboard games whose config has no tick_ms.
const defaultPlayInterval = 150 * time.Millisecond

func playCommand() *cli.Command {
	return &cli.Command{
		Name:      "play",
		Usage:     "Play in the terminal. Type left/right/a/d and enter to turn.",
		ArgsUsage: "[config id or file]",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "auto",
				Usage: "Let the autopilot steer",
			},
			&cli.StringFlag{
				Name:  "encoding",
				Usage: "Override the config encoding: explicit or grid (raw numeric grid)",
			},
			&cli.DurationFlag{
				Name:  "interval",
				Usage: "Time between steps (default: the config's tick_ms)",
			},
			&cli.BoolFlag{
				Name:  "no-clear",
				Usage: "Do not clear the screen between frames",
			},
			&cli.BoolFlag{
				Name:  "quiet",
				Usage: "Only print the final score",
			},
			&cli.Int64Flag{
				Name:  "seed",
				Usage: "Random seed (default: the config's random_seed)",
			},
		},
		Action: runPlay,
	}
}

// loadPlayConfig resolves a config id through the manager, or reads a file
// directly when the argument has an extension.
func loadPlayConfig(configDir, arg string) (*engine.GameConfig, error) {
	if arg != "" && filepath.Ext(arg) != "" {
		return config.ReadFile(arg)
	}

	manager, err := config.NewManager(configDir)
	if err != nil {
		return nil, err
	}
	if arg == "" {
		return manager.GetDefault(), nil
	}
	return manager.LoadConfig(arg)
}

// newPlayStepper builds the engine and picks the stepper for the encoding.
func newPlayStepper(cfg *engine.GameConfig, encoding string) (driver.Stepper, error) {
	eng, err := engine.NewEngine(cfg)
	if err != nil {
		return nil, err
	}
	if encoding == "" {
		encoding = cfg.EffectiveEncoding()
	}

	switch encoding {
	case engine.EncodingExplicit:
		// EngineStepper follows the config encoding, so force it explicit
		explicit := *cfg
		explicit.Encoding = engine.EncodingExplicit
		if err := eng.SetConfig(&explicit); err != nil {
			return nil, err
		}
		return driver.NewEngineStepper(eng), nil
	case engine.EncodingGrid:
		return driver.NewGridStepper(eng.Grid(), engine.NewRand(cfg.RandomSeed)), nil
	}
	return nil, fmt.Errorf("unknown encoding %q", encoding)
}

func runPlay(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadPlayConfig(cmd.String("config-dir"), cmd.Args().First())
	if err != nil {
		return err
	}
	if cmd.IsSet("seed") {
		seeded := *cfg
		seeded.RandomSeed = cmd.Int64("seed")
		cfg = &seeded
	}

	stepper, err := newPlayStepper(cfg, cmd.String("encoding"))
	if err != nil {
		return err
	}

	interval := cmd.Duration("interval")
	if interval == 0 && cfg.TickMillis > 0 {
		interval = time.Duration(cfg.TickMillis) * time.Millisecond
	}

	var input driver.InputSource
	if cmd.Bool("auto") {
		input = driver.NewAutopilot(stepper)
	} else {
		if interval == 0 {
			interval = defaultPlayInterval
		}
		slot := engine.NewActionSlot()
		go func() {
			if err := driver.ReadKeys(ctx, os.Stdin, slot); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("Warning: reading input: %v", err)
			}
		}()
		input = slot
	}

	var renderer driver.Renderer = driver.NewTextRenderer(os.Stdout, !cmd.Bool("no-clear"))
	if cmd.Bool("quiet") {
		renderer = driver.NopRenderer{}
	}

	fmt.Fprintf(os.Stdout, "%s (%dx%d)\n", cfg.Name, cfg.Width, cfg.Height)
	_, err = driver.New(stepper, input, renderer, driver.NewScoreReporter(os.Stdout), interval).Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func validateCommand() *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Usage:     "Validate configuration files",
		ArgsUsage: "[file or directory...]",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			paths := cmd.Args().Slice()
			if len(paths) == 0 {
				paths = []string{cmd.String("config-dir")}
			}
			return runValidate(os.Stdout, paths)
		},
	}
}

func runValidate(w io.Writer, paths []string) error {
	var results []validate.Result
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return err
		}
		if info.IsDir() {
			rs, err := validate.Dir(p)
			if err != nil {
				return err
			}
			results = append(results, rs...)
			continue
		}
		results = append(results, validate.File(p))
	}

	if !validate.Report(w, results) {
		return cli.Exit("Some configurations have errors", 1)
	}
	return nil
}
