package config

import (
	"path"

	"git.home.luguber.info/inful/docpartials/internal/foundation/normalization"
	"git.home.luguber.info/inful/docpartials/internal/partial"
	"git.home.luguber.info/inful/docpartials/internal/publicpath"
)

const (
	defaultContext    = "."
	defaultOutputPath = "dist"
	defaultListen     = ":9464"
	defaultDebounce   = "300ms"
)

var (
	locations  = normalization.New(partial.LocationHead, partial.LocationBody)
	priorities = normalization.New(partial.PriorityLow, partial.PriorityHigh)
	logLevels  = normalization.New(LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError)
	logFormats = normalization.New(LogFormatText, LogFormatJSON)
)

// normalize case-folds enumerations so "HEAD" and "head" mean the same.
func normalize(cfg *Config) {
	for i := range cfg.Partials {
		p := &cfg.Partials[i]
		if p.Location != "" {
			p.Location = locations.Normalize(p.Location)
		}
		if p.Priority != "" {
			p.Priority = priorities.Normalize(p.Priority)
		}
	}
	if cfg.Logging.Level != "" {
		cfg.Logging.Level = logLevels.Normalize(cfg.Logging.Level)
	}
	if cfg.Logging.Format != "" {
		cfg.Logging.Format = logFormats.Normalize(cfg.Logging.Format)
	}
}

// applyDefaults fills everything left empty. Partial defaults are applied by
// the partial package when descriptors are created.
func applyDefaults(cfg *Config) {
	if cfg.Context == "" {
		cfg.Context = defaultContext
	}
	if cfg.Output.Path == "" {
		cfg.Output.Path = defaultOutputPath
	}
	if cfg.Output.PublicPath == nil {
		cfg.Output.PublicPath = publicpath.Set(publicpath.Auto)
	}
	for i := range cfg.Documents {
		d := &cfg.Documents[i]
		if d.Filename == "" && d.Template != "" {
			d.Filename = path.Base(d.Template)
		}
	}
	if cfg.Metrics.Listen == "" {
		cfg.Metrics.Listen = defaultListen
	}
	if cfg.Watch.Debounce == "" {
		cfg.Watch.Debounce = defaultDebounce
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = LogLevelInfo
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = LogFormatText
	}
}
