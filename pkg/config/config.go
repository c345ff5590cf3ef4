// Package config loads view dispatch settings from YAML or TOML files with
// MVC_-prefixed environment overrides.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-mvc/internal/ctxlog"
	"github.com/goliatone/go-mvc/pkg/view"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "MVC_"

// Config is the complete runtime configuration.
type Config struct {
	Views   Views                   `yaml:"views" toml:"views" envPrefix:"VIEWS_"`
	Engines map[string]EngineConfig `yaml:"engines" toml:"engines"`
	// EnginePriorities overrides engine priorities from the environment,
	// e.g. MVC_ENGINE_PRIORITIES=pongo:5,component:3.
	EnginePriorities map[string]int `yaml:"-" toml:"-" env:"ENGINE_PRIORITIES"`
	// DisabledEngines disables engines from the environment.
	DisabledEngines []string `yaml:"-" toml:"-" env:"DISABLED_ENGINES"`
	Metrics         Metrics  `yaml:"metrics" toml:"metrics" envPrefix:"METRICS_"`
	Log             Log      `yaml:"log" toml:"log" envPrefix:"LOG_"`
}

// Views configures view resolution and the template engine.
type Views struct {
	BaseFolder string `yaml:"base_folder" toml:"base_folder" env:"BASE_FOLDER"`
	// DefaultPriority applies to the template engine and to engines that
	// do not declare a priority. Engine priority overrides still win.
	DefaultPriority    int      `yaml:"default_priority" toml:"default_priority" env:"DEFAULT_PRIORITY"`
	TemplateDir        string   `yaml:"template_dir" toml:"template_dir" env:"TEMPLATE_DIR"`
	TemplateExtensions []string `yaml:"template_extensions" toml:"template_extensions" env:"TEMPLATE_EXTENSIONS"`
	Watch              bool     `yaml:"watch" toml:"watch" env:"WATCH"`
}

// EngineConfig overrides the registration of one engine.
type EngineConfig struct {
	Priority *int `yaml:"priority" toml:"priority"`
	Disabled bool `yaml:"disabled" toml:"disabled"`
}

// Metrics configures the Prometheus collector.
type Metrics struct {
	Enabled   bool   `yaml:"enabled" toml:"enabled" env:"ENABLED"`
	Namespace string `yaml:"namespace" toml:"namespace" env:"NAMESPACE"`
	Subsystem string `yaml:"subsystem" toml:"subsystem" env:"SUBSYSTEM"`
}

// Log configures the process logger.
type Log struct {
	Level  string `yaml:"level" toml:"level" env:"LEVEL"`
	Format string `yaml:"format" toml:"format" env:"FORMAT"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Views: Views{
			BaseFolder:         view.DefaultBaseFolder,
			DefaultPriority:    1,
			TemplateExtensions: []string{".tpl", ".html", ".django"},
		},
		Metrics: Metrics{
			Namespace: "mvc",
			Subsystem: "views",
		},
		Log: Log{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads path (when non-empty) over the defaults, then applies
// environment overrides. The file format is chosen by extension: .yaml,
// .yml, or .toml.
func Load(path string) (Config, error) {
	cfg := Default()
	if strings.TrimSpace(path) != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		format, err := FormatOf(path)
		if err != nil {
			return Config{}, err
		}
		if err := decode(format, data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: decode %s: %w", path, err)
		}
	}
	if err := ApplyEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

// Parse decodes data in format ("yaml" or "toml") over the defaults. No
// environment overrides are applied.
func Parse(format string, data []byte) (Config, error) {
	cfg := Default()
	if err := decode(format, data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: decode %s: %w", format, err)
	}
	return cfg, cfg.Validate()
}

// FormatOf maps a file extension to a format name.
func FormatOf(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml", nil
	case ".toml":
		return "toml", nil
	default:
		return "", fmt.Errorf("config: unsupported file type %q", filepath.Ext(path))
	}
}

func decode(format string, data []byte, cfg *Config) error {
	switch format {
	case "yaml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		return nil
	case "toml":
		meta, err := toml.Decode(string(data), cfg)
		if err != nil {
			return err
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			return fmt.Errorf("unknown keys %v", undecoded)
		}
		return nil
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
}

// ApplyEnv overrides cfg from MVC_-prefixed environment variables.
func ApplyEnv(cfg *Config) error {
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("config: parse env: %w", err)
	}
	return nil
}

// Validate checks values the loaders cannot.
func (c Config) Validate() error {
	if _, err := ctxlog.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "json", "text":
	default:
		return fmt.Errorf("config: unknown log format %q", c.Log.Format)
	}
	for name := range c.Engines {
		if strings.TrimSpace(name) == "" {
			return errors.New("config: engine name is required")
		}
	}
	return nil
}

// Priorities returns the engine priority overrides, environment values last.
func (c Config) Priorities() map[string]int {
	out := make(map[string]int)
	for name, engine := range c.Engines {
		if engine.Priority != nil {
			out[name] = *engine.Priority
		}
	}
	for name, priority := range c.EnginePriorities {
		out[strings.TrimSpace(name)] = priority
	}
	return out
}

// Disabled returns the names of disabled engines, sorted.
func (c Config) Disabled() []string {
	set := make(map[string]struct{})
	for name, engine := range c.Engines {
		if engine.Disabled {
			set[name] = struct{}{}
		}
	}
	for _, name := range c.DisabledEngines {
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			set[trimmed] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for name := range set {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Logger builds the logger described by c.Log.
func (c Config) Logger(w io.Writer) (*slog.Logger, error) {
	return ctxlog.New(c.Log.Level, c.Log.Format, w)
}
