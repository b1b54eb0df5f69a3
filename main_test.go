package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/wricardo/minisnakes/game/config"
	"github.com/wricardo/minisnakes/game/driver"
	"github.com/wricardo/minisnakes/game/engine"
	"github.com/wricardo/minisnakes/game/session"
	"github.com/wricardo/minisnakes/transport/mcp"
)

func testOptions(t *testing.T, store string) Options {
	return Options{
		ConfigDir:   "configs",
		SessionsDir: t.TempDir(),
		Store:       store,
		SessionTTL:  time.Hour,
	}
}

func TestConstants(t *testing.T) {
	if Version == "" {
		t.Error("Version should not be empty")
	}
	if AppName != "Mini Snakes" {
		t.Errorf("Expected app name Mini Snakes, got %s", AppName)
	}
}

func TestInitializeServices(t *testing.T) {
	for _, store := range []string{storeFile, storeSQLite} {
		t.Run(store, func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			gameService, manager, err := initializeServices(ctx, testOptions(t, store))
			if err != nil {
				t.Fatalf("Failed to initialize services: %v", err)
			}
			defer manager.Close()

			info, err := gameService.CreateSession(ctx, "tiny")
			if err != nil {
				t.Fatalf("Failed to create session: %v", err)
			}
			if info.GameState.Length != 2 {
				t.Errorf("Expected a seeded snake of length 2, got %d", info.GameState.Length)
			}
		})
	}
}

func TestInitializeServices_Errors(t *testing.T) {
	ctx := context.Background()

	opts := testOptions(t, storeFile)
	opts.ConfigDir = "/non/existent/path"
	if _, _, err := initializeServices(ctx, opts); err == nil {
		t.Error("Expected error for non-existent config directory")
	}

	if _, _, err := initializeServices(ctx, testOptions(t, "redis")); err == nil {
		t.Error("Expected error for unknown store")
	}
}

func TestPruneDeleted(t *testing.T) {
	configManager, err := config.NewManager("configs")
	if err != nil {
		t.Fatalf("Failed to create config manager: %v", err)
	}
	persistence, err := session.NewFilePersistence(t.TempDir(), configManager)
	if err != nil {
		t.Fatalf("Failed to create persistence: %v", err)
	}
	manager := session.NewManagerWithPersistence(persistence)

	keep, err := manager.Create("keep", "tiny", engine.DefaultConfig())
	if err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}
	gone, err := manager.Create("gone", "tiny", engine.DefaultConfig())
	if err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}
	if err := persistence.Delete(gone.ID); err != nil {
		t.Fatalf("Failed to delete stored session: %v", err)
	}

	if n := pruneDeleted(manager, persistence); n != 1 {
		t.Errorf("Expected 1 pruned session, got %d", n)
	}
	if _, err := manager.Get(keep.ID); err != nil {
		t.Errorf("Expected %s to survive: %v", keep.ID, err)
	}
	if manager.Count() != 1 {
		t.Errorf("Expected 1 session in memory, got %d", manager.Count())
	}
}

func TestLoadPlayConfig(t *testing.T) {
	cfg, err := loadPlayConfig("configs", "")
	if err != nil {
		t.Fatalf("Failed to load default config: %v", err)
	}
	if cfg.Name != "classic" {
		t.Errorf("Expected classic as default, got %s", cfg.Name)
	}

	cfg, err = loadPlayConfig("configs", "large")
	if err != nil || cfg.Width != 64 {
		t.Errorf("Expected the 64 wide large config, got %+v, %v", cfg, err)
	}

	cfg, err = loadPlayConfig("/non/existent", filepath.Join("configs", "tiny.hcl"))
	if err != nil || cfg.Name != "tiny" {
		t.Errorf("Expected tiny read straight from the file, got %+v, %v", cfg, err)
	}

	if _, err := loadPlayConfig("configs", "missing"); err == nil {
		t.Error("Expected error for missing config")
	}
}

func TestNewPlayStepper(t *testing.T) {
	cfg := &engine.GameConfig{Name: "t", Width: 5, Height: 5, RandomSeed: 2, Encoding: engine.EncodingGrid}

	s, err := newPlayStepper(cfg, "")
	if err != nil {
		t.Fatalf("newPlayStepper failed: %v", err)
	}
	if _, ok := s.(*driver.GridStepper); !ok {
		t.Errorf("Expected a grid stepper for the grid encoding, got %T", s)
	}

	s, err = newPlayStepper(cfg, engine.EncodingExplicit)
	if err != nil {
		t.Fatalf("newPlayStepper failed: %v", err)
	}
	es, ok := s.(*driver.EngineStepper)
	if !ok {
		t.Fatalf("Expected an engine stepper, got %T", s)
	}
	if es.Engine.GetConfig().EffectiveEncoding() != engine.EncodingExplicit {
		t.Error("Expected the explicit override to reach the engine")
	}
	if cfg.Encoding != engine.EncodingGrid {
		t.Error("Override must not modify the loaded config")
	}

	if _, err := newPlayStepper(cfg, "bitmap"); err == nil {
		t.Error("Expected error for unknown encoding")
	}
}

// Both steppers must play the same game on a board without food.
func TestPlayStepper_EncodingsAgree(t *testing.T) {
	noFood := false
	cfg := &engine.GameConfig{Name: "t", Width: 6, Height: 6, SeedFood: &noFood, RandomSeed: 4}
	explicit, _ := newPlayStepper(cfg, engine.EncodingExplicit)
	grid, _ := newPlayStepper(cfg, engine.EncodingGrid)

	ctx := context.Background()
	actions := []engine.Action{engine.Straight, engine.TurnRight, engine.Straight, engine.TurnRight, engine.TurnRight}
	for i, a := range actions {
		r1, err1 := explicit.Step(ctx, a)
		r2, err2 := grid.Step(ctx, a)
		if err1 != nil || err2 != nil {
			t.Fatalf("step %d: %v / %v", i, err1, err2)
		}
		if r1.To != r2.To || r1.Done != r2.Done || r1.Score != r2.Score {
			t.Fatalf("step %d: explicit %+v, grid %+v", i, r1, r2)
		}
		if !explicit.Grid().Equal(grid.Grid()) {
			t.Fatalf("step %d: boards differ\n%s\n%s", i, explicit.Grid(), grid.Grid())
		}
	}
}

func TestRunValidate(t *testing.T) {
	var buf bytes.Buffer
	if err := runValidate(&buf, []string{"configs"}); err != nil {
		t.Errorf("Expected shipped configs to validate: %v\n%s", err, buf.String())
	}
	if !strings.Contains(buf.String(), "classic.yaml") {
		t.Errorf("Expected classic.yaml in the report, got:\n%s", buf.String())
	}

	buf.Reset()
	if err := runValidate(&buf, []string{filepath.Join("configs", "tiny.hcl")}); err != nil {
		t.Errorf("Expected a single file to validate: %v", err)
	}

	if err := runValidate(&buf, []string{"/non/existent"}); err == nil {
		t.Error("Expected error for missing path")
	}
}

func TestAPIAvailable(t *testing.T) {
	status := http.StatusOK
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(status)
		w.Write([]byte(`{"status":"degraded"}`))
	}))
	defer srv.Close()

	if !apiAvailable(srv.URL) {
		t.Error("Expected a healthy server to be available")
	}

	status = http.StatusInternalServerError
	for i := 0; i < 3; i++ {
		if apiAvailable(srv.URL) {
			t.Error("Expected a failing health check to be unavailable")
		}
	}

	srv.Close()
	if apiAvailable(srv.URL) {
		t.Error("Expected a closed server to be unavailable")
	}
}

func TestMCPHandler(t *testing.T) {
	handler := mcpHandler(mcp.NewClient("http://127.0.0.1:1"))

	w := httptest.NewRecorder()
	handler(w, httptest.NewRequest(http.MethodGet, "/mcp", nil))
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected 405 for GET, got %d", w.Code)
	}

	body := `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2024-11-05","capabilities":{},"clientInfo":{"name":"test","version":"1"}}}`
	w = httptest.NewRecorder()
	handler(w, httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(body)))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), AppName) {
		t.Errorf("Expected server info in initialize response, got %s", w.Body.String())
	}
}

func TestNewApp(t *testing.T) {
	app := newApp()

	names := map[string]bool{}
	for _, c := range app.Commands {
		names[c.Name] = true
	}
	for _, want := range []string{"serve", "mcp", "play", "validate"} {
		if !names[want] {
			t.Errorf("Expected %s command", want)
		}
	}

	if err := app.Run(context.Background(), []string{"minisnakes", "validate", filepath.Join("configs", "large.json")}); err != nil {
		t.Errorf("validate command failed: %v", err)
	}
}
