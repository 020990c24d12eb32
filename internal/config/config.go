// Package config loads the docpartials YAML configuration.
//
// Load reads optional .env files, expands ${VAR} references, decodes the YAML
// strictly, normalizes enumerations, applies defaults and validates. Relative
// paths are resolved the way the compiler sees them: context relative to the
// configuration file, everything else relative to context.
package config

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/docpartials/internal/compiler"
	"git.home.luguber.info/inful/docpartials/internal/docgen"
	"git.home.luguber.info/inful/docpartials/internal/foundation/errors"
	"git.home.luguber.info/inful/docpartials/internal/loader"
	"git.home.luguber.info/inful/docpartials/internal/partial"
)

// DefaultFile is the configuration file looked up when none is given.
const DefaultFile = "docpartials.yaml"

// Config is the complete configuration of a docpartials project.
type Config struct {
	// Context is the directory all sources are resolved against.
	Context   string          `yaml:"context"`
	Output    OutputConfig    `yaml:"output"`
	Documents []docgen.Config `yaml:"documents"`
	Partials  PartialList     `yaml:"partials,omitempty"`
	Loaders   []LoaderRule    `yaml:"loaders,omitempty"`
	Metrics   MetricsConfig   `yaml:"metrics,omitempty"`
	Watch     WatchConfig     `yaml:"watch,omitempty"`
	Logging   LoggingConfig   `yaml:"logging,omitempty"`
}

// OutputConfig mirrors compiler.OutputOptions.
type OutputConfig struct {
	Path       string  `yaml:"path"`
	PublicPath *string `yaml:"public_path"`
	Clean      bool    `yaml:"clean"`
}

// LoaderRule adds a loader rule tried before the built-in ones.
type LoaderRule struct {
	Test string   `yaml:"test"`
	Use  []string `yaml:"use"`
}

// MetricsConfig controls the Prometheus endpoint of the watch command.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen,omitempty"`
}

// WatchConfig tunes the rebuild loop.
type WatchConfig struct {
	// Debounce delays a rebuild until file events settle.
	Debounce string `yaml:"debounce,omitempty"`
	// Every schedules periodic rebuilds; empty disables them.
	Every string `yaml:"every,omitempty"`
}

// DebounceDuration returns the parsed debounce delay.
func (w WatchConfig) DebounceDuration() time.Duration {
	d, _ := time.ParseDuration(w.Debounce)
	return d
}

// EveryDuration returns the parsed rebuild interval, zero when disabled.
func (w WatchConfig) EveryDuration() time.Duration {
	if w.Every == "" {
		return 0
	}
	d, _ := time.ParseDuration(w.Every)
	return d
}

// PartialList is an ordered list of partial configurations. In YAML it may be
// written as a single mapping or as a sequence.
type PartialList []partial.Config

func (l *PartialList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.MappingNode:
		var one partial.Config
		if err := node.Decode(&one); err != nil {
			return err
		}
		*l = PartialList{one}
		return nil
	case yaml.SequenceNode:
		var many []partial.Config
		if err := node.Decode(&many); err != nil {
			return err
		}
		*l = many
		return nil
	default:
		return fmt.Errorf("line %d: partials must be a mapping or a list of mappings", node.Line)
	}
}

// Load reads, defaults and validates the configuration at path.
func Load(path string) (*Config, error) {
	loadEnvFiles(filepath.Dir(path))

	data, err := os.ReadFile(path)
	if stderrors.Is(err, os.ErrNotExist) {
		return nil, errors.ConfigError(fmt.Sprintf("configuration file not found: %s", path)).
			UserAction().Build()
	}
	if err != nil {
		return nil, errors.FileSystemError("failed to read config file").WithCause(err).Build()
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}
	cfg.resolvePaths(filepath.Dir(path))
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	slog.Debug("Loaded configuration",
		slog.String("file", path),
		slog.Int("documents", len(cfg.Documents)),
		slog.Int("partials", len(cfg.Partials)))
	return cfg, nil
}

// Parse decodes YAML after environment expansion and applies defaults. It does
// not validate.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))
	dec := yaml.NewDecoder(bytes.NewReader([]byte(expanded)))
	dec.KnownFields(true)

	var cfg Config
	if err := dec.Decode(&cfg); err != nil && !stderrors.Is(err, io.EOF) {
		return nil, errors.ConfigError("failed to parse configuration").WithCause(err).UserAction().Build()
	}
	normalize(&cfg)
	applyDefaults(&cfg)
	return &cfg, nil
}

// resolvePaths anchors a relative context at the configuration directory.
func (c *Config) resolvePaths(base string) {
	if !filepath.IsAbs(c.Context) {
		c.Context = filepath.Join(base, c.Context)
	}
}

// OutputOptions converts the output section for the compiler.
func (c *Config) OutputOptions() compiler.OutputOptions {
	return compiler.OutputOptions{
		Path:       c.Output.Path,
		PublicPath: c.Output.PublicPath,
		Clean:      c.Output.Clean,
	}
}

// LoaderChain returns the built-in chain with the configured rules in front.
func (c *Config) LoaderChain() (*loader.Chain, error) {
	rules := make([]loader.Rule, 0, len(c.Loaders))
	for _, r := range c.Loaders {
		rule, err := loader.RuleFromNames(r.Test, r.Use)
		if err != nil {
			return nil, errors.ConfigError("invalid loader rule").WithCause(err).Build()
		}
		rules = append(rules, rule)
	}
	return loader.Default().Prepend(rules...), nil
}
