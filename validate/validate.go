// Package validate checks game configuration files: it decodes each file
// (JSON, YAML or HCL), runs the schema and engine validation, then seeds the
// board and checks it is playable. Report prints a concise summary.
package validate

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/wricardo/minisnakes/game/config"
	"github.com/wricardo/minisnakes/game/engine"
)

// Result captures the outcome of validating a single file. Info holds the
// summary lines of a valid file, Warnings things that load fine but are
// probably unintended.
type Result struct {
	File     string
	Valid    bool
	Errors   []string
	Warnings []string
	Info     []string
}

func (r *Result) fail(format string, args ...any) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// File loads and validates a single configuration file.
func File(path string) Result {
	result := Result{
		File:  filepath.Base(path),
		Valid: true,
	}

	cfg, err := config.ReadFile(path)
	if err != nil {
		result.fail("%v", err)
		return result
	}

	g, err := engine.SeedGrid(cfg.Width, cfg.Height, cfg.EffectiveSeedLength(), cfg.HasSeedFood())
	if err != nil {
		result.fail("Cannot seed board: %v", err)
		return result
	}
	body, heading, err := g.DecodeSnake()
	if err != nil {
		result.fail("Seeded board does not decode: %v", err)
		return result
	}

	free := len(g.EmptyPositions()) + len(g.FoodPositions())
	reachable := reachableCells(g, body[len(body)-1])
	if reachable != free {
		result.fail("Connectivity failure: %d/%d free cells reachable from the head", reachable, free)
		return result
	}

	if cfg.RandomSeed == 0 {
		result.Warnings = append(result.Warnings, "random_seed is 0: food placement differs on every run")
	}
	if cfg.TickMillis == 0 {
		result.Warnings = append(result.Warnings, "tick_ms is 0: live play falls back to the default interval")
	}

	result.Info = append(result.Info,
		fmt.Sprintf("✓ Name: %s", cfg.Name),
		fmt.Sprintf("✓ Board: %dx%d (%s encoding)", cfg.Width, cfg.Height, cfg.EffectiveEncoding()),
		fmt.Sprintf("✓ Seed: length %d heading %s", len(body), heading),
		fmt.Sprintf("✓ Connectivity: all %d free cells reachable from the head", free),
		fmt.Sprintf("✓ Max score: %d", cfg.MaxScore()),
	)
	if food := g.FoodPositions(); len(food) == 1 {
		result.Info = append(result.Info, fmt.Sprintf("✓ Food: (%d, %d)", food[0].X, food[0].Y))
	}
	return result
}

// reachableCells flood fills from start over every non-body cell and counts
// the cells reached, start excluded.
func reachableCells(g *engine.Grid, start engine.Position) int {
	visited := map[engine.Position]bool{start: true}
	queue := []engine.Position{start}
	count := 0

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, d := range []engine.Direction{engine.Up, engine.Down, engine.Left, engine.Right} {
			next := current.Add(d)
			if !g.InBounds(next) || visited[next] || g.At(next) > 0 {
				continue
			}
			visited[next] = true
			count++
			queue = append(queue, next)
		}
	}
	return count
}

// Dir validates every configuration file in dir, sorted by name.
func Dir(dir string) ([]Result, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("error finding config files: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".json", ".yaml", ".yml", ".hcl":
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	results := make([]Result, 0, len(names))
	for _, name := range names {
		results = append(results, File(filepath.Join(dir, name)))
	}
	return results, nil
}

// Report prints one block per result and a closing verdict. It returns
// whether every result was valid.
func Report(w io.Writer, results []Result) bool {
	allValid := true
	for _, result := range results {
		fmt.Fprintf(w, "\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Fprintln(w, "✅ VALID")
			for _, info := range result.Info {
				fmt.Fprintln(w, "  "+info)
			}
		} else {
			fmt.Fprintln(w, "❌ INVALID")
			allValid = false
			for _, err := range result.Errors {
				fmt.Fprintln(w, "  ❌ "+err)
			}
		}
		for _, warn := range result.Warnings {
			fmt.Fprintln(w, "  ⚠️  "+warn)
		}
	}

	fmt.Fprintf(w, "\n%s\n", strings.Repeat("=", 40))
	switch {
	case len(results) == 0:
		fmt.Fprintln(w, "No configuration files found")
	case allValid:
		fmt.Fprintln(w, "✅ All configurations are valid!")
	default:
		fmt.Fprintln(w, "❌ Some configurations have errors")
	}
	return allValid
}
