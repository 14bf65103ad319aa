// Package config loads the modelcheck settings file.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"modelcheck/internal/logging"
	"modelcheck/internal/model"
	"modelcheck/internal/predicate"
	"modelcheck/internal/store"
)

// DefaultPath is where the CLI looks for a config file when none is given.
const DefaultPath = ".modelcheck/config.yaml"

// Log configures the process logger.
type Log struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format" validate:"omitempty,oneof=text json"`
}

// Config holds every tunable. Zero fields take the defaults from Default.
type Config struct {
	Log Log `json:"log" yaml:"log"`
	// DBPath is the SQLite run store. Empty disables persistence.
	DBPath string `json:"db_path" yaml:"db_path"`
	// Parallel bounds concurrent rule evaluation.
	Parallel int `json:"parallel" yaml:"parallel" validate:"gte=0,lte=256"`
	// FuzzyThreshold applies to fuzzy rules that set no threshold.
	FuzzyThreshold float64 `json:"fuzzy_threshold" yaml:"fuzzy_threshold" validate:"gte=0,lte=1"`
	// EmptyValues are the texts a property check treats as unset. Null
	// always counts as empty.
	EmptyValues []string `json:"empty_values" yaml:"empty_values"`
	// Unset is the sentinel rule evaluation skips in direct attributes
	// and parameter bags. Nil means none.
	Unset *string `json:"unset,omitempty" yaml:"unset,omitempty"`
	// Metrics exposes Prometheus counters at this address when set
	// (e.g. ":9464").
	Metrics string `json:"metrics,omitempty" yaml:"metrics,omitempty" validate:"omitempty,hostname_port"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Log:            Log{Level: "info", Format: "text"},
		DBPath:         store.DefaultDBPath,
		Parallel:       4,
		FuzzyThreshold: predicate.DefaultThreshold,
		EmptyValues:    []string{"", "Default"},
	}
}

// LoadFromPath reads a config file (YAML or JSON) over the defaults.
// Format is detected by extension (.yaml/.yml, .json) or by content.
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Load(data, filepath.Ext(path))
}

// LoadOptional is LoadFromPath, but a missing file yields the defaults.
func LoadOptional(path string) (*Config, error) {
	cfg, err := LoadFromPath(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// Load parses a config from bytes over the defaults. ext is the file
// extension used as a format hint; empty means detect from content.
func Load(data []byte, ext string) (*Config, error) {
	ext = strings.ToLower(ext)
	if ext == ".yml" {
		ext = ".yaml"
	}
	if ext == "" {
		// Detect: JSON starts with {, anything else is YAML.
		if strings.HasPrefix(strings.TrimSpace(string(data)), "{") {
			ext = ".json"
		} else {
			ext = ".yaml"
		}
	}

	c := Default()
	switch ext {
	case ".yaml":
		if err := yaml.Unmarshal(data, c); err != nil {
			return nil, fmt.Errorf("parse config yaml: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, c); err != nil {
			return nil, fmt.Errorf("parse config json: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config extension %q", ext)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks field ranges and the log level.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("config: %s failed %q (got %v)", fe.Namespace(), fe.Tag(), fe.Value())
		}
		return fmt.Errorf("config: %w", err)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// SlogLevel returns the parsed log level (info when invalid).
func (c *Config) SlogLevel() slog.Level {
	l, _ := logging.ParseLevel(c.Log.Level)
	return l
}

// EmptyValueSet converts EmptyValues to model values, with Null first.
func (c *Config) EmptyValueSet() []model.Value {
	out := []model.Value{model.Null()}
	for _, s := range c.EmptyValues {
		out = append(out, model.String(s))
	}
	return out
}

// UnsetValue is the evaluation sentinel as a model value (Null when unset).
func (c *Config) UnsetValue() model.Value {
	if c.Unset == nil {
		return model.Null()
	}
	return model.String(*c.Unset)
}
