package commands

import (
	"log/slog"

	"git.home.luguber.info/inful/docpartials/internal/compiler"
	"git.home.luguber.info/inful/docpartials/internal/config"
	"git.home.luguber.info/inful/docpartials/internal/docgen"
	"git.home.luguber.info/inful/docpartials/internal/metrics"
	"git.home.luguber.info/inful/docpartials/internal/partials"
)

// newCompiler wires one document generator per configured document and the
// partials plugin into a fresh compiler.
func newCompiler(cfg *config.Config, logger *slog.Logger, recorder metrics.Recorder) (*compiler.Compiler, error) {
	chain, err := cfg.LoaderChain()
	if err != nil {
		return nil, err
	}

	plugins := make([]compiler.Plugin, 0, len(cfg.Documents)+1)
	for _, doc := range cfg.Documents {
		plugins = append(plugins, docgen.New(doc, logger))
	}
	pp, err := partials.New(cfg.Partials, partials.Options{Logger: logger, Recorder: recorder})
	if err != nil {
		return nil, err
	}
	plugins = append(plugins, pp)

	return compiler.New(compiler.Options{
		Context:  cfg.Context,
		Output:   cfg.OutputOptions(),
		Loaders:  chain,
		Logger:   logger,
		Recorder: recorder,
	}, plugins...)
}
