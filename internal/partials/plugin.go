// Package partials compiles partial sources in a child compilation, renders
// them and injects the fragments into the documents of the primary build.
//
// Every build gets its own descriptor store, fragments and applied set; none
// of it survives the build. Injection waits on an explicit barrier that is
// released only once every fragment has been executed and rendered (or the
// child compilation failed).
package partials

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/docpartials/internal/compiler"
	"git.home.luguber.info/inful/docpartials/internal/docgen"
	"git.home.luguber.info/inful/docpartials/internal/foundation/errors"
	"git.home.luguber.info/inful/docpartials/internal/metrics"
	"git.home.luguber.info/inful/docpartials/internal/module"
	"git.home.luguber.info/inful/docpartials/internal/partial"
)

const (
	// PluginName is the tap name used on every hook.
	PluginName = "partials"
	// ChildCompilerName names the child compiler in logs.
	ChildCompilerName = "PartialsCompiler"
	// ChildFilename is the artifact pattern of compiled partials.
	ChildFilename = "partial-[name]"
)

// Options configure the plugin.
type Options struct {
	Logger   *slog.Logger
	Recorder metrics.Recorder
	// Modules is the registry partial modules may require. Nil means module.DefaultRegistry.
	Modules module.Registry
}

// Plugin injects partials into generated documents.
type Plugin struct {
	configs  []partial.Config
	logger   *slog.Logger
	recorder metrics.Recorder
	modules  module.Registry
}

// New validates the partial configurations. Descriptors are created per build.
func New(configs []partial.Config, opts Options) (*Plugin, error) {
	for i, cfg := range configs {
		if err := cfg.Validate(); err != nil {
			return nil, errors.WrapError(err, errors.CategoryConfig, "invalid partial configuration").
				WithContext("index", i).
				Build()
		}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Plugin{
		configs:  append([]partial.Config(nil), configs...),
		logger:   opts.Logger,
		recorder: metrics.OrNoop(opts.Recorder),
		modules:  opts.Modules,
	}, nil
}

func (p *Plugin) Name() string { return PluginName }

// Apply taps the primary compiler.
func (p *Plugin) Apply(c *compiler.Compiler) error {
	c.Hooks.ThisCompilation.Tap(PluginName, func(comp *compiler.Compilation) error {
		b, err := p.start(comp)
		if err != nil {
			return err
		}
		comp.ProcessAssets.Tap(PluginName, compiler.StageAdditional, b.resolve)
		comp.ProcessAssets.Tap(PluginName, compiler.StageSummarize, b.inject)
		return nil
	})

	// Compilation taps are inherited by child compilers; only the primary
	// compilation produces documents.
	c.Hooks.Compilation.Tap(PluginName, func(comp *compiler.Compilation) error {
		b, ok := p.buildOf(comp)
		if !ok {
			return nil
		}
		docgen.HooksFor(comp).BeforeEmit.Tap(PluginName, func(d *docgen.BeforeEmitData) error {
			b.observe(d.OutputName)
			return nil
		})
		return nil
	})

	c.Hooks.Make.Tap(PluginName, func(ctx context.Context, comp *compiler.Compilation) error {
		b, ok := p.buildOf(comp)
		if !ok {
			return errors.InternalError("partials make hook ran without build state").Build()
		}
		return b.compile(ctx)
	})
	return nil
}

type buildKey struct{ p *Plugin }

type buildSlot struct{ b *build }

// start creates the state of a new build and attaches it to comp.
func (p *Plugin) start(comp *compiler.Compilation) (*build, error) {
	store, err := partial.NewStore(p.configs)
	if err != nil {
		return nil, err
	}
	b := newBuild(p, comp, store)
	slot := comp.Extension(buildKey{p}, func() any { return &buildSlot{} }).(*buildSlot)
	slot.b = b
	return b, nil
}

func (p *Plugin) buildOf(comp *compiler.Compilation) (*build, bool) {
	slot := comp.Extension(buildKey{p}, func() any { return &buildSlot{} }).(*buildSlot)
	return slot.b, slot.b != nil
}
