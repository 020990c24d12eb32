package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"git.home.luguber.info/inful/docpartials/internal/compiler"
	"git.home.luguber.info/inful/docpartials/internal/config"
	"git.home.luguber.info/inful/docpartials/internal/logfields"
	"git.home.luguber.info/inful/docpartials/internal/metrics"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Output string `short:"o" help:"Override output.path from the configuration"`
	Clean  bool   `help:"Empty the output directory before writing"`
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	if b.Output != "" {
		cfg.Output.Path = b.Output
	}
	if b.Clean {
		cfg.Output.Clean = true
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	stats, err := RunBuild(ctx, cfg, nil)
	if err != nil {
		return err
	}
	printStats(g, stats)
	return nil
}

// RunBuild performs a single build of cfg.
func RunBuild(ctx context.Context, cfg *config.Config, recorder metrics.Recorder) (*compiler.Stats, error) {
	logger := slog.Default()
	c, err := newCompiler(cfg, logger, recorder)
	if err != nil {
		return nil, err
	}
	stats, err := c.Run(ctx)
	if err != nil {
		return nil, err
	}
	for _, w := range stats.Warnings {
		logger.Warn("Build warning", logfields.BuildID(stats.BuildID), logfields.Error(w))
	}
	return stats, nil
}

func printStats(g *Global, stats *compiler.Stats) {
	out := g.out()
	_, _ = fmt.Fprintf(out, "Built %d document(s) in %s (hash %s)\n",
		len(stats.Assets), stats.Duration.Round(time.Millisecond), stats.Hash)
	for _, name := range stats.Assets {
		_, _ = fmt.Fprintf(out, "  %s\n", name)
	}
	if n := len(stats.Warnings); n > 0 {
		_, _ = fmt.Fprintf(out, "%d warning(s)\n", n)
	}
}
