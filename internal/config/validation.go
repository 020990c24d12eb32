package config

import (
	"fmt"
	"strings"
	"time"

	"git.home.luguber.info/inful/docpartials/internal/foundation/errors"
	"git.home.luguber.info/inful/docpartials/internal/loader"
	"git.home.luguber.info/inful/docpartials/internal/util/sets"
)

// Validate checks a defaulted configuration.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Output.Path) == "" {
		return validationError("output.path is required")
	}
	if err := c.validateDocuments(); err != nil {
		return err
	}
	for i, p := range c.Partials {
		if err := p.Validate(); err != nil {
			return errors.WrapError(err, errors.CategoryConfig, fmt.Sprintf("partials[%d] is invalid", i)).
				UserAction().Build()
		}
	}
	for i, r := range c.Loaders {
		if _, err := loader.RuleFromNames(r.Test, r.Use); err != nil {
			return errors.ConfigError(fmt.Sprintf("loaders[%d] is invalid", i)).WithCause(err).UserAction().Build()
		}
	}
	if _, err := time.ParseDuration(c.Watch.Debounce); err != nil {
		return validationError(fmt.Sprintf("watch.debounce: %v", err))
	}
	if c.Watch.Every != "" {
		d, err := time.ParseDuration(c.Watch.Every)
		if err != nil {
			return validationError(fmt.Sprintf("watch.every: %v", err))
		}
		if d < time.Second {
			return validationError("watch.every must be at least 1s")
		}
	}
	if _, err := logLevels.Parse(string(c.Logging.Level)); err != nil {
		return validationError(fmt.Sprintf("logging.level: %v", err))
	}
	if _, err := logFormats.Parse(string(c.Logging.Format)); err != nil {
		return validationError(fmt.Sprintf("logging.format: %v", err))
	}
	return nil
}

func (c *Config) validateDocuments() error {
	if len(c.Documents) == 0 {
		return validationError("at least one document is required")
	}
	seen := sets.New[string]()
	for i, d := range c.Documents {
		if strings.TrimSpace(d.Template) == "" {
			return validationError(fmt.Sprintf("documents[%d].template is required", i))
		}
		if strings.TrimSpace(d.Filename) == "" {
			return validationError(fmt.Sprintf("documents[%d].filename is required", i))
		}
		if !seen.Insert(d.Filename) {
			return validationError(fmt.Sprintf("duplicate document filename %q", d.Filename))
		}
	}
	return nil
}

func validationError(msg string) error {
	return errors.ValidationError(msg).UserAction().Build()
}
