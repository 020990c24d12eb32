package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/docpartials/internal/docgen"
	"git.home.luguber.info/inful/docpartials/internal/foundation/errors"
	"git.home.luguber.info/inful/docpartials/internal/partial"
	"git.home.luguber.info/inful/docpartials/internal/publicpath"
)

// Example returns the configuration written by Init.
func Example() *Config {
	return &Config{
		Context: "src",
		Output: OutputConfig{
			Path:       "dist",
			PublicPath: publicpath.Set(publicpath.Auto),
			Clean:      true,
		},
		Documents: []docgen.Config{
			{Template: "index.html", Filename: "index.html", Options: map[string]any{"title": "Home"}},
		},
		Partials: PartialList{
			{
				Path:     "partials/analytics.html",
				Location: partial.LocationHead,
				Priority: partial.PriorityHigh,
				Options:  map[string]any{"id": "${ANALYTICS_ID}"},
			},
			{
				Path:             "partials/footer.md",
				TemplateFilename: partial.All(),
			},
		},
		Watch: WatchConfig{Debounce: defaultDebounce},
	}
}

// Init writes the example configuration to path.
func Init(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return errors.ConfigError(fmt.Sprintf("configuration file already exists: %s (use --force to overwrite)", path)).
			UserAction().Build()
	}
	data, err := yaml.Marshal(Example())
	if err != nil {
		return errors.InternalError("failed to marshal example configuration").WithCause(err).Build()
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return errors.FileSystemError("failed to write configuration").WithCause(err).Build()
	}
	return nil
}
