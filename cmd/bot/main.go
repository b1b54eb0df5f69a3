// Command bot plays snake against a running server through the REST API.
// It creates (or resumes) a session, then plays attempts with a path-to-food
// strategy, resetting between attempts, and reports the best score.
package main

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/wricardo/minisnakes/game/engine"
)

const sessionFile = ".session"

// attemptResult summarizes one game played by the bot.
type attemptResult struct {
	Steps     int
	Score     int
	Outcome   engine.Outcome
	Finished  bool
	BoardFull bool
}

// playAttempt plays from state until the game ends or maxSteps is reached.
func playAttempt(ctx context.Context, client *Client, state *engine.GameState, bulk, maxSteps int, delay time.Duration, verbose bool) (*attemptResult, error) {
	strategy := &Strategy{}
	result := &attemptResult{}

	for !state.GameOver && result.Steps < maxSteps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		next := strategy.NextActions(state, min(bulk, maxSteps-result.Steps))
		if len(next) == 1 {
			s, err := client.Step(ctx, next[0])
			if err != nil {
				return nil, err
			}
			state = s
			result.Steps++
		} else {
			r, err := client.BulkStep(ctx, next)
			if err != nil {
				return nil, err
			}
			state = r.GameState
			result.Steps += r.StepsExecuted
		}

		if verbose && result.Steps%50 == 0 {
			log.Printf("Head: (%d,%d), Length: %d, Score: %d", state.Head.X, state.Head.Y, state.Length, state.Score)
		}
		if delay > 0 {
			time.Sleep(delay)
		}
	}

	result.Score = state.Score
	result.Finished = state.GameOver
	result.Outcome = state.Outcome
	result.BoardFull = state.Outcome == engine.OutcomeBoardFull
	return result, nil
}

// openSession resumes the saved or given session, or creates a new one.
func openSession(ctx context.Context, client *Client, resume, configID string) error {
	if resume == "" {
		if data, err := os.ReadFile(sessionFile); err == nil {
			resume = string(bytes.TrimSpace(data))
		}
	}

	if resume != "" {
		client.sessionID = resume
		_, err := client.GetState(ctx)
		if err == nil {
			log.Printf("Resuming session: %s", client.sessionID)
			return nil
		}
		log.Printf("Failed to resume session (may be expired): %v", err)
	}

	state, err := client.CreateSession(ctx, configID)
	if err != nil {
		return err
	}
	log.Printf("Session created: %s (%dx%d)", client.sessionID, state.Grid.Width, state.Grid.Height)

	if err := os.WriteFile(sessionFile, []byte(client.sessionID), 0644); err != nil {
		log.Printf("Warning: Failed to save session ID: %v", err)
	}
	return nil
}

func run(ctx context.Context, cmd *cli.Command) error {
	client := NewClient(cmd.String("url"))
	log.Printf("Connecting to game server at %s", cmd.String("url"))

	if err := openSession(ctx, client, cmd.String("continue"), cmd.String("config")); err != nil {
		return err
	}

	best := -1
	attempts := cmd.Int("attempts")
	for attempt := 1; attempt <= attempts; attempt++ {
		state, err := client.Reset(ctx)
		if err != nil {
			return err
		}

		log.Printf("=== Attempt %d/%d ===", attempt, attempts)
		result, err := playAttempt(ctx, client, state, cmd.Int("bulk"), cmd.Int("max-steps"), cmd.Duration("delay"), cmd.Bool("verbose"))
		if err != nil {
			return err
		}

		status := string(result.Outcome)
		if !result.Finished {
			status = "step limit"
		}
		log.Printf("Attempt %d: Steps=%d, Score=%d (%s)", attempt, result.Steps, result.Score, status)
		best = max(best, result.Score)

		if result.BoardFull {
			log.Printf("Board filled in attempt %d!", attempt)
			break
		}
	}

	fmt.Printf("Session: %s\nBest score: %d\n", client.sessionID, best)
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cmd := &cli.Command{
		Name:  "bot",
		Usage: "play snake through the REST API",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Value: "http://localhost:8080", Usage: "Game server URL"},
			&cli.StringFlag{Name: "config", Usage: "Config id for a new session"},
			&cli.StringFlag{Name: "continue", Usage: "Resume an existing session by ID"},
			&cli.IntFlag{Name: "attempts", Value: 10, Usage: "Games to play"},
			&cli.IntFlag{Name: "max-steps", Value: 20000, Usage: "Maximum steps per game"},
			&cli.IntFlag{Name: "bulk", Value: 16, Usage: "Maximum actions per bulk step"},
			&cli.DurationFlag{Name: "delay", Usage: "Pause between requests"},
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "Verbose output"},
		},
		Action: run,
	}

	if err := cmd.Run(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}
