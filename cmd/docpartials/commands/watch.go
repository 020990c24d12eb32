package commands

import (
	"context"
	"log/slog"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/docpartials/internal/config"
	"git.home.luguber.info/inful/docpartials/internal/logfields"
	"git.home.luguber.info/inful/docpartials/internal/metrics"
	"git.home.luguber.info/inful/docpartials/internal/watch"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	Every         time.Duration `help:"Also rebuild on this interval (overrides watch.every)"`
	Metrics       bool          `help:"Serve Prometheus metrics (overrides metrics.enabled)"`
	MetricsListen string        `name:"metrics-listen" help:"Metrics listen address (overrides metrics.listen)"`
}

func (w *WatchCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	if w.Metrics {
		cfg.Metrics.Enabled = true
	}
	if w.MetricsListen != "" {
		cfg.Metrics.Listen = w.MetricsListen
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	return RunWatch(ctx, g, root.Config, cfg, w.Every)
}

// RunWatch rebuilds cfg until ctx is canceled. The configuration is reloaded
// before every rebuild so edits to it take effect without a restart.
func RunWatch(ctx context.Context, g *Global, configPath string, cfg *config.Config, every time.Duration) error {
	var recorder metrics.Recorder
	if cfg.Metrics.Enabled {
		reg := prom.NewRegistry()
		recorder = metrics.NewPrometheusRecorder(reg)
		srv, err := metrics.Listen(cfg.Metrics.Listen, reg)
		if err != nil {
			return err
		}
		go func() {
			if err := srv.Serve(ctx); err != nil {
				slog.Error("Metrics server failed", logfields.Error(err))
			}
		}()
	}

	if every == 0 {
		every = cfg.Watch.EveryDuration()
	}
	output := cfg.Output.Path
	if !filepath.IsAbs(output) {
		output = filepath.Join(cfg.Context, output)
	}

	current := cfg
	build := func(ctx context.Context) error {
		if configPath != "" {
			reloaded, err := config.Load(configPath)
			if err != nil {
				slog.Warn("Keeping previous configuration", logfields.Error(err))
			} else {
				reloaded.Output = current.Output
				current = reloaded
			}
		}
		stats, err := RunBuild(ctx, current, recorder)
		if err != nil {
			return err
		}
		printStats(g, stats)
		return nil
	}

	w := watch.New(watch.Options{
		Root:     cfg.Context,
		Ignore:   []string{output},
		Debounce: cfg.Watch.DebounceDuration(),
		Every:    every,
	}, build)
	return w.Run(ctx)
}
