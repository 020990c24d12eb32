// Package commands implements the docpartials command line.
package commands

import (
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/docpartials/internal/config"
)

// Global carries state shared by subcommands.
type Global struct {
	Out io.Writer
}

func (g *Global) out() io.Writer {
	if g == nil || g.Out == nil {
		return os.Stdout
	}
	return g.Out
}

// CLI definition & global flags.
type CLI struct {
	Config    string           `short:"c" help:"Configuration file path" default:"docpartials.yaml" type:"path"`
	Verbose   bool             `short:"v" help:"Enable verbose logging"`
	LogLevel  string           `name:"log-level" help:"Log level (debug, info, warn, error)" env:"DOCPARTIALS_LOG_LEVEL"`
	LogFormat string           `name:"log-format" help:"Log format (text, json)" env:"DOCPARTIALS_LOG_FORMAT"`
	Version   kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build BuildCmd `cmd:"" default:"1" help:"Compile partials and write the generated documents"`
	Watch WatchCmd `cmd:"" help:"Rebuild whenever sources change"`
	Init  InitCmd  `cmd:"" help:"Write an example configuration file"`
}

// AfterApply runs after flag parsing; setup logging once.
func (c *CLI) AfterApply() error {
	return c.setupLogging(config.LoggingConfig{})
}

// setupLogging installs the default logger. Flags win over the configuration.
func (c *CLI) setupLogging(fromConfig config.LoggingConfig) error {
	level := fromConfig.Level
	if c.LogLevel != "" {
		parsed, err := config.ParseLogLevel(c.LogLevel)
		if err != nil {
			return err
		}
		level = parsed
	}
	if c.Verbose {
		level = config.LogLevelDebug
	}
	if level == "" {
		level = config.LogLevelInfo
	}

	format := fromConfig.Format
	if c.LogFormat != "" {
		format = config.LogFormat(c.LogFormat)
	}

	opts := &slog.HandlerOptions{Level: level.SlogLevel()}
	var handler slog.Handler
	if format == config.LogFormatJSON {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
	return nil
}

// loadConfig loads the configuration and applies its logging section.
func (c *CLI) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(c.Config)
	if err != nil {
		return nil, err
	}
	if err := c.setupLogging(cfg.Logging); err != nil {
		return nil, err
	}
	return cfg, nil
}
