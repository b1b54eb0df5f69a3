package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/wricardo/minisnakes/game/engine"
)

func createValidConfig() *engine.GameConfig {
	return &engine.GameConfig{
		Name:        "Test Config",
		Description: "Test configuration",
		Width:       8,
		Height:      6,
		SeedLength:  3,
		RandomSeed:  5,
		TickMillis:  50,
		Messages: &engine.Messages{
			Welcome:   "Welcome!",
			Ate:       "Length %d",
			Collision: "Crashed! Score %d",
			BoardFull: "Full! Score %d",
		},
	}
}

func writeConfigFile(t *testing.T, dir, name string, config *engine.GameConfig) {
	t.Helper()
	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		t.Fatalf("Failed to marshal config: %v", err)
	}

	filename := name
	if filepath.Ext(filename) == "" {
		filename = name + ".json"
	}

	writeRaw(t, dir, filename, string(data))
}

func writeRaw(t *testing.T, dir, filename, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, filename), []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
}

const yamlConfig = `name: Yaml Board
description: loaded from yaml
width: 10
height: 7
seed_food: false
tick_ms: 80
messages:
  collision: "Boom %d"
`

const hclConfig = `name        = "Hcl Board"
description = "loaded from hcl"
width       = 5
height      = 4
encoding    = "grid"
random_seed = 9

messages {
  board_full = "You filled it! %d"
}
`

func TestNewManager(t *testing.T) {
	t.Run("valid directory", func(t *testing.T) {
		dir := t.TempDir()

		defaultConfig := createValidConfig()
		defaultConfig.Name = "Classic"
		writeConfigFile(t, dir, DefaultConfigName, defaultConfig)

		manager, err := NewManager(dir)
		if err != nil {
			t.Fatalf("Failed to create manager: %v", err)
		}
		if manager.GetDefault().Name != "Classic" {
			t.Errorf("Expected classic to be the default, got %s", manager.GetDefault().Name)
		}
	})

	t.Run("non-existent directory", func(t *testing.T) {
		_, err := NewManager("/non/existent/path")
		if err == nil {
			t.Error("Expected error for non-existent directory")
		}
	})

	t.Run("missing default config", func(t *testing.T) {
		dir := t.TempDir()

		manager, err := NewManager(dir)
		if err != nil {
			t.Fatalf("NewManager should succeed even without config files, got error: %v", err)
		}

		defaultConfig := manager.GetDefault()
		if defaultConfig == nil || defaultConfig.Name != engine.DefaultConfig().Name {
			t.Errorf("Expected the built-in default config, got %+v", defaultConfig)
		}
	})

	t.Run("first config becomes default", func(t *testing.T) {
		dir := t.TempDir()
		writeRaw(t, dir, "board.yaml", yamlConfig)

		manager, err := NewManager(dir)
		if err != nil {
			t.Fatalf("Failed to create manager: %v", err)
		}
		if manager.GetDefault().Name != "Yaml Board" {
			t.Errorf("Expected the only config to be the default, got %s", manager.GetDefault().Name)
		}
	})
}

func TestManager_LoadConfig(t *testing.T) {
	dir := t.TempDir()

	easyConfig := createValidConfig()
	easyConfig.Name = "Easy"
	easyConfig.Width = 20
	writeConfigFile(t, dir, "easy", easyConfig)
	writeRaw(t, dir, "wide.yaml", yamlConfig)
	writeRaw(t, dir, "small.hcl", hclConfig)

	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	t.Run("load json config", func(t *testing.T) {
		config, err := manager.LoadConfig("easy")
		if err != nil {
			t.Fatalf("Failed to load config: %v", err)
		}
		if config.Name != "Easy" || config.Width != 20 {
			t.Errorf("Unexpected config %+v", config)
		}
	})

	t.Run("load with .json extension", func(t *testing.T) {
		config, err := manager.LoadConfig("easy.json")
		if err != nil {
			t.Fatalf("Failed to load config with extension: %v", err)
		}
		if config.Name != "Easy" {
			t.Errorf("Expected config name 'Easy', got '%s'", config.Name)
		}
	})

	t.Run("load yaml config", func(t *testing.T) {
		config, err := manager.LoadConfig("wide")
		if err != nil {
			t.Fatalf("Failed to load yaml config: %v", err)
		}
		if config.Width != 10 || config.Height != 7 || config.TickMillis != 80 {
			t.Errorf("Unexpected yaml config %+v", config)
		}
		if config.HasSeedFood() {
			t.Error("Expected seed_food: false to be honoured")
		}
		if config.Messages == nil || config.Messages.Collision != "Boom %d" {
			t.Errorf("Expected collision message from yaml, got %+v", config.Messages)
		}
	})

	t.Run("load hcl config", func(t *testing.T) {
		config, err := manager.LoadConfig("small")
		if err != nil {
			t.Fatalf("Failed to load hcl config: %v", err)
		}
		if config.Width != 5 || config.Height != 4 || config.RandomSeed != 9 {
			t.Errorf("Unexpected hcl config %+v", config)
		}
		if config.EffectiveEncoding() != engine.EncodingGrid {
			t.Errorf("Expected grid encoding, got %s", config.EffectiveEncoding())
		}
		if config.Messages == nil || config.Messages.BoardFull != "You filled it! %d" {
			t.Errorf("Expected board_full message from hcl, got %+v", config.Messages)
		}
	})

	t.Run("load from cache", func(t *testing.T) {
		config1, _ := manager.LoadConfig("easy")
		config2, err := manager.LoadConfig("easy")
		if err != nil {
			t.Fatalf("Failed to load config from cache: %v", err)
		}
		if config1 != config2 {
			t.Error("Expected config to be loaded from cache")
		}
	})

	t.Run("load non-existent config", func(t *testing.T) {
		_, err := manager.LoadConfig("non-existent")
		if err != ErrConfigNotFound {
			t.Errorf("Expected ErrConfigNotFound, got %v", err)
		}
	})
}

func TestManager_InvalidConfigs(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		content  string
		want     error
	}{
		{"malformed json", "broken.json", `{"name": "x",`, nil},
		{"unknown field", "extra.json", `{"name": "x", "width": 5, "height": 5, "speed": 3}`, ErrInvalidConfig},
		{"width out of range", "huge.yaml", "name: x\nwidth: 1000\nheight: 5\n", ErrInvalidConfig},
		{"bad encoding", "enc.json", `{"name": "x", "width": 5, "height": 5, "encoding": "bitmap"}`, ErrInvalidConfig},
		{"seed does not fit", "narrow.json", `{"name": "x", "width": 3, "height": 5, "seed_length": 3}`, engine.ErrGridTooSmall},
		{"missing height", "flat.hcl", "name = \"x\"\nwidth = 4\n", nil},
		{"message without verb", "msg.yaml", "name: x\nwidth: 5\nheight: 5\nmessages:\n  collision: Crash\n", engine.ErrInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeRaw(t, dir, tt.filename, tt.content)

			manager, err := NewManager(dir)
			if err != nil {
				t.Fatalf("Failed to create manager: %v", err)
			}

			_, err = manager.LoadConfig(tt.filename)
			if err == nil {
				t.Fatal("Expected error for invalid config")
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}

			configs, err := manager.ListConfigs()
			if err != nil {
				t.Fatalf("ListConfigs failed: %v", err)
			}
			if len(configs) != 0 {
				t.Errorf("Expected invalid config to be skipped, got %d configs", len(configs))
			}
		})
	}
}

func TestManager_ListConfigs(t *testing.T) {
	dir := t.TempDir()

	writeConfigFile(t, dir, "classic", createValidConfig())
	writeRaw(t, dir, "wide.yml", yamlConfig)
	writeRaw(t, dir, "small.hcl", hclConfig)
	writeRaw(t, dir, "notes.txt", "not a config")
	if err := os.Mkdir(filepath.Join(dir, "nested.json"), 0755); err != nil {
		t.Fatalf("Failed to create directory: %v", err)
	}

	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	configs, err := manager.ListConfigs()
	if err != nil {
		t.Fatalf("Failed to list configs: %v", err)
	}
	if len(configs) != 3 {
		t.Fatalf("Expected 3 configs, got %d", len(configs))
	}

	want := []struct{ id, format string }{
		{"classic", FormatJSON},
		{"small", FormatHCL},
		{"wide", FormatYAML},
	}
	for i, w := range want {
		if configs[i].ConfigID != w.id || configs[i].Format != w.format {
			t.Errorf("Config %d: expected %s (%s), got %s (%s)", i, w.id, w.format, configs[i].ConfigID, configs[i].Format)
		}
	}
	if configs[1].MaxScore != 5*4-2 {
		t.Errorf("Expected max score 18 for the 5x4 board, got %d", configs[1].MaxScore)
	}
}

func TestManager_SetDefault(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, "classic", createValidConfig())
	writeRaw(t, dir, "small.hcl", hclConfig)

	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	if err := manager.SetDefault("small"); err != nil {
		t.Fatalf("SetDefault failed: %v", err)
	}
	if manager.GetDefault().Name != "Hcl Board" {
		t.Errorf("Expected Hcl Board as default, got %s", manager.GetDefault().Name)
	}
	if err := manager.SetDefault("missing"); !errors.Is(err, ErrConfigNotFound) {
		t.Errorf("Expected ErrConfigNotFound, got %v", err)
	}
}

func TestManager_SaveConfig(t *testing.T) {
	dir := t.TempDir()
	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	t.Run("json by default", func(t *testing.T) {
		if err := manager.SaveConfig("saved", createValidConfig()); err != nil {
			t.Fatalf("SaveConfig failed: %v", err)
		}
		if _, err := os.Stat(filepath.Join(dir, "saved.json")); err != nil {
			t.Errorf("Expected saved.json on disk: %v", err)
		}
	})

	t.Run("yaml by extension", func(t *testing.T) {
		config := createValidConfig()
		config.Name = "Saved Yaml"
		if err := manager.SaveConfig("saved_yaml.yaml", config); err != nil {
			t.Fatalf("SaveConfig failed: %v", err)
		}
		data, err := os.ReadFile(filepath.Join(dir, "saved_yaml.yaml"))
		if err != nil {
			t.Fatalf("Failed to read saved yaml: %v", err)
		}
		if !strings.Contains(string(data), "name: Saved Yaml") {
			t.Errorf("Expected yaml document, got:\n%s", data)
		}

		// Reading back from disk gives the same values
		reread, err := ReadFile(filepath.Join(dir, "saved_yaml.yaml"))
		if err != nil {
			t.Fatalf("ReadFile failed: %v", err)
		}
		if reread.Width != config.Width || reread.Messages.Ate != config.Messages.Ate {
			t.Errorf("Round trip mismatch: %+v", reread)
		}
	})

	t.Run("hcl is read-only", func(t *testing.T) {
		if err := manager.SaveConfig("board.hcl", createValidConfig()); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("Expected ErrInvalidConfig for hcl save, got %v", err)
		}
	})

	t.Run("invalid config rejected", func(t *testing.T) {
		config := createValidConfig()
		config.Width = 1
		if err := manager.SaveConfig("bad", config); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("Expected ErrInvalidConfig, got %v", err)
		}
		if _, err := os.Stat(filepath.Join(dir, "bad.json")); !os.IsNotExist(err) {
			t.Error("Invalid config should not be written")
		}
	})

	t.Run("names outside the directory rejected", func(t *testing.T) {
		for _, name := range []string{"../escaped", "sub/inner", `sub\win`, "..", ""} {
			if err := manager.SaveConfig(name, createValidConfig()); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("SaveConfig(%q): expected ErrInvalidConfig, got %v", name, err)
			}
			if _, err := manager.LoadConfig(name); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("LoadConfig(%q): expected ErrInvalidConfig, got %v", name, err)
			}
		}
		if _, err := os.Stat(filepath.Join(filepath.Dir(dir), "escaped.json")); !os.IsNotExist(err) {
			t.Error("Config was written outside the config directory")
		}
	})

	configs, err := manager.ListConfigs()
	if err != nil {
		t.Fatalf("ListConfigs failed: %v", err)
	}
	if len(configs) != 2 {
		t.Errorf("Expected 2 saved configs, got %d", len(configs))
	}
}

func TestManager_RefreshCache(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, "classic", createValidConfig())

	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	updated := createValidConfig()
	updated.Name = "Updated"
	writeConfigFile(t, dir, "classic", updated)

	config, _ := manager.LoadConfig("classic")
	if config.Name != "Test Config" {
		t.Errorf("Expected cached config before refresh, got %s", config.Name)
	}

	if err := manager.RefreshCache(); err != nil {
		t.Fatalf("RefreshCache failed: %v", err)
	}
	config, _ = manager.LoadConfig("classic")
	if config.Name != "Updated" {
		t.Errorf("Expected updated config after refresh, got %s", config.Name)
	}
	if manager.GetDefault().Name != "Updated" {
		t.Errorf("Expected default to be reloaded, got %s", manager.GetDefault().Name)
	}
}

func TestManager_ConcurrentAccess(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, "classic", createValidConfig())
	writeRaw(t, dir, "wide.yaml", yamlConfig)

	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	var wg sync.WaitGroup
	errs := make(chan error, 40)
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			if _, err := manager.LoadConfig("wide"); err != nil {
				errs <- err
			}
		}()
		go func() {
			defer wg.Done()
			if _, err := manager.ListConfigs(); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("Concurrent access failed: %v", err)
	}
}

func TestDecode_UnsupportedFormat(t *testing.T) {
	if _, err := Decode("board.toml", []byte("name = 'x'")); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig for toml, got %v", err)
	}
}
