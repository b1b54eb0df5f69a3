package config

import (
	"bytes"
	"encoding/json"
	_ "embed"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2/hclsimple"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/wricardo/minisnakes/game/engine"
)

// Supported configuration formats
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatHCL  = "hcl"
)

// extensions lists the recognised file extensions in lookup order.
var extensions = []string{".json", ".yaml", ".yml", ".hcl"}

//go:embed schema.json
var schemaSource string

var configSchema = jsonschema.MustCompileString("schema.json", schemaSource)

// formatOf returns the format for a file name, or "" if unsupported.
func formatOf(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	case ".hcl":
		return FormatHCL
	}
	return ""
}

// trimExt strips a supported extension from name.
func trimExt(name string) string {
	if formatOf(name) != "" {
		return strings.TrimSuffix(name, filepath.Ext(name))
	}
	return name
}

// Decode parses a configuration document in the format given by filename's
// extension and checks it against the configuration schema. It does not run
// engine.ValidateGameConfig.
func Decode(filename string, data []byte) (*engine.GameConfig, error) {
	var config engine.GameConfig
	var doc any

	switch formatOf(filename) {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
		if err := json.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	case FormatYAML:
		var raw any
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
		var err error
		if doc, err = canonical(raw); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	case FormatHCL:
		if err := hclsimple.Decode(filepath.Base(filename), data, nil, &config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
		var err error
		if doc, err = canonical(&config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: unsupported config format %q", ErrInvalidConfig, filepath.Ext(filename))
	}

	if err := configSchema.Validate(doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return &config, nil
}

// Encode renders config in the format given by filename's extension.
// HCL files are read-only.
func Encode(filename string, config *engine.GameConfig) ([]byte, error) {
	switch formatOf(filename) {
	case FormatJSON:
		return json.MarshalIndent(config, "", "  ")
	case FormatYAML:
		return yaml.Marshal(config)
	case FormatHCL:
		return nil, fmt.Errorf("%w: saving HCL configs is not supported", ErrInvalidConfig)
	}
	return nil, fmt.Errorf("%w: unsupported config format %q", ErrInvalidConfig, filepath.Ext(filename))
}

// canonical round-trips v through JSON so the schema sees plain JSON values.
func canonical(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	return doc, nil
}
