package partials

import (
	"context"
	stderrors "errors"
	"log/slog"
	"slices"
	"sync"

	"git.home.luguber.info/inful/docpartials/internal/compiler"
	"git.home.luguber.info/inful/docpartials/internal/foundation/errors"
	"git.home.luguber.info/inful/docpartials/internal/inject"
	"git.home.luguber.info/inful/docpartials/internal/logfields"
	"git.home.luguber.info/inful/docpartials/internal/metrics"
	"git.home.luguber.info/inful/docpartials/internal/module"
	"git.home.luguber.info/inful/docpartials/internal/partial"
	"git.home.luguber.info/inful/docpartials/internal/render"
)

// build is the state of the plugin for one primary compilation.
type build struct {
	plugin *Plugin
	comp   *compiler.Compilation
	store  *partial.Store
	logger *slog.Logger

	mu        sync.Mutex
	observed  []string
	fragments []*partial.Fragment
	// compiled holds each partial's module code by unique id, with the
	// artifact name it had in the child compilation.
	compiled map[string]artifact

	ready chan struct{}
	once  sync.Once
	err   error
}

type artifact struct {
	name string
	code []byte
}

func newBuild(p *Plugin, comp *compiler.Compilation, store *partial.Store) *build {
	return &build{
		plugin:   p,
		comp:     comp,
		store:    store,
		logger:   comp.Logger().With(slog.String("plugin", PluginName)),
		ready:    make(chan struct{}),
		compiled: make(map[string]artifact),
	}
}

// finish releases the barrier. Only the first call has an effect.
func (b *build) finish(err error) {
	b.once.Do(func() {
		b.err = err
		close(b.ready)
	})
}

// wait blocks until every fragment of the build is resolved.
func (b *build) wait(ctx context.Context) error {
	select {
	case <-b.ready:
		return b.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *build) observe(document string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !slices.Contains(b.observed, document) {
		b.observed = append(b.observed, document)
	}
}

func (b *build) documents() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.observed)
}

func (b *build) addFragment(f *partial.Fragment) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fragments = append(b.fragments, f)
}

// rendered returns the fragments in registration order.
func (b *build) rendered() []*partial.Fragment {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.fragments)
}

// compile runs one child compilation covering every descriptor and keeps the
// compiled modules for resolve. A failure releases the barrier with the error.
func (b *build) compile(ctx context.Context) (err error) {
	defer func() {
		if err != nil {
			b.finish(err)
		}
	}()
	if b.store.Len() == 0 {
		return nil
	}

	child := b.comp.CreateChildCompiler(ChildCompilerName, compiler.OutputOptions{Filename: ChildFilename})
	prelude := compiler.InlineModulePrefix + module.PublicPathPrelude(module.PublicPathBinding)

	child.Hooks.Make.Tap(PluginName, func(_ context.Context, cc *compiler.Compilation) error {
		for _, d := range b.store.All() {
			cc.AddEntry(child.Context, prelude, d.UniqueID())
			cc.AddEntry(child.Context, d.Path(), d.UniqueID())
		}
		return nil
	})
	child.Hooks.ThisCompilation.Tap(PluginName, func(cc *compiler.Compilation) error {
		cc.ProcessAssets.Tap(PluginName, compiler.StageAdditions, b.collect)
		return nil
	})

	if _, err := child.RunAsChild(ctx); err != nil {
		return b.childFailure(err)
	}
	return nil
}

// collect moves the compiled partials out of the child asset store so they
// are never emitted.
func (b *build) collect(_ context.Context, cc *compiler.Compilation) error {
	output := cc.Compiler().Output
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, d := range b.store.All() {
		name := output.AssetName(d.UniqueID())
		code, ok := cc.GetAsset(name)
		if !ok {
			return errors.CompilationFailure("compiled partial artifact missing").
				WithPartial(d.Path(), d.UniqueID()).
				WithContext("asset", name).
				Build()
		}
		b.compiled[d.UniqueID()] = artifact{name: name, code: code}
		cc.DeleteAsset(name)
	}
	return nil
}

// resolve executes and renders every compiled partial with the build hash of
// the primary compilation, then releases the barrier.
func (b *build) resolve(_ context.Context, comp *compiler.Compilation) (err error) {
	defer func() { b.finish(err) }()
	executor := module.NewExecutor(b.plugin.modules, b.logger)
	renderer := render.NewRenderer(b.logger)
	output := comp.Compiler().Output

	for _, d := range b.store.All() {
		b.mu.Lock()
		a, ok := b.compiled[d.UniqueID()]
		b.mu.Unlock()
		if !ok {
			return errors.CompilationFailure("compiled partial artifact missing").
				WithPartial(d.Path(), d.UniqueID()).
				Build()
		}
		publicPath := output.PublicPathFor(a.name, comp.Hash())

		out, err := executor.Run(module.Source{
			Code:        string(a.code),
			Origin:      a.name,
			PartialPath: d.Path(),
			PartialID:   d.UniqueID(),
			Bindings:    module.Bindings{module.PublicPathBinding: render.PublicPathMarker + publicPath},
		})
		if err != nil {
			b.plugin.recorder.IncPartialResult(metrics.ResultFatal)
			return err
		}
		html, err := renderer.Render(render.Request{
			PartialPath: d.Path(),
			PartialID:   d.UniqueID(),
			Output:      out,
			Options:     d.Options(),
		})
		if err != nil {
			b.plugin.recorder.IncPartialResult(metrics.ResultFatal)
			return err
		}

		b.addFragment(partial.NewFragment(d, html))
		b.plugin.recorder.IncPartialResult(metrics.ResultSuccess)
		b.logger.Debug("Partial rendered",
			logfields.PartialPath(d.Path()),
			logfields.PartialID(d.UniqueID()),
			slog.String("public_path", publicPath))
	}
	if n := b.store.Len(); n > 0 {
		b.logger.Info("Partials resolved", slog.Int("partials", n))
	}
	return nil
}

// childFailure keeps descriptor-level failures as they are and reports
// everything else as a CompilationFailure naming the partial when known.
func (b *build) childFailure(err error) error {
	if ce, ok := errors.AsClassified(err); ok {
		switch ce.Category() {
		case errors.CategoryExecution, errors.CategoryInvalidOutput, errors.CategoryRender, errors.CategoryCompilation:
			return ce
		}
	}
	builder := errors.CompilationFailure("child compilation failed").WithCause(err)
	var modErr *compiler.ModuleError
	if stderrors.As(err, &modErr) {
		if d, ok := b.store.Lookup(modErr.Entry); ok {
			builder = builder.WithPartial(d.Path(), d.UniqueID())
		}
	}
	return builder.Build()
}

// inject is the summarize-stage tap of the primary compilation.
func (b *build) inject(ctx context.Context, comp *compiler.Compilation) error {
	if err := b.wait(ctx); err != nil {
		return err
	}
	engine := inject.NewEngine(b.logger, b.plugin.recorder)
	report, err := engine.Run(comp, b.documents(), b.rendered())
	for _, missing := range report.Missing {
		comp.AddWarning(missing)
	}
	if err != nil {
		return err
	}
	b.logger.Info("Partials injected",
		slog.Int("injected", len(report.Injected)),
		slog.Int("missing", len(report.Missing)))
	return nil
}
