// Package docgen produces the primary documents of a build.
//
// Each Generator turns one template into one emitted document during the
// StageOptimizeInline process-assets stage. Other plugins observe documents
// through the BeforeEmit hook returned by HooksFor.
package docgen

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"path"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"git.home.luguber.info/inful/docpartials/internal/compiler"
	"git.home.luguber.info/inful/docpartials/internal/foundation/errors"
	"git.home.luguber.info/inful/docpartials/internal/logfields"
	"git.home.luguber.info/inful/docpartials/internal/module"
	"git.home.luguber.info/inful/docpartials/internal/render"
)

// Config describes one generated document.
type Config struct {
	// Template is the source request, relative to the compiler context.
	Template string `yaml:"template"`
	// Filename is the emitted asset name.
	Filename string `yaml:"filename"`
	// Options are render parameters; title defaults to one derived from Filename.
	Options map[string]any `yaml:"options,omitempty"`
}

// BeforeEmitData is handed to BeforeEmit taps, which may rewrite HTML.
type BeforeEmitData struct {
	OutputName string
	HTML       string
}

// Hooks are the per-compilation hooks of all generators.
type Hooks struct {
	BeforeEmit compiler.SyncHook[*BeforeEmitData]
}

type hooksKey struct{}

// HooksFor returns the generator hooks of a compilation.
func HooksFor(comp *compiler.Compilation) *Hooks {
	return comp.Extension(hooksKey{}, func() any { return &Hooks{} }).(*Hooks)
}

// Generator is a compiler plugin emitting one document.
type Generator struct {
	cfg    Config
	logger *slog.Logger
}

// New creates a generator. Filename defaults to the base name of Template.
func New(cfg Config, logger *slog.Logger) *Generator {
	if cfg.Filename == "" {
		cfg.Filename = path.Base(cfg.Template)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{cfg: cfg, logger: logger}
}

func (g *Generator) Name() string { return "docgen:" + g.cfg.Filename }

// Apply taps the compiler.
func (g *Generator) Apply(c *compiler.Compiler) error {
	if g.cfg.Template == "" {
		return errors.ConfigError("document template is required").
			WithContext(errors.ContextDocument, g.cfg.Filename).Build()
	}
	c.Hooks.ThisCompilation.Tap(g.Name(), func(comp *compiler.Compilation) error {
		comp.ProcessAssets.Tap(g.Name(), compiler.StageOptimizeInline, g.generate)
		return nil
	})
	return nil
}

func (g *Generator) generate(_ context.Context, comp *compiler.Compilation) error {
	c := comp.Compiler()
	code, err := comp.CompileModule(c.Context, g.cfg.Template)
	if err != nil {
		return g.fail("cannot compile document template", err)
	}

	publicPath := c.Output.PublicPathFor(g.cfg.Filename, comp.Hash())
	src := module.PublicPathPrelude(module.PublicPathBinding) + string(code)
	out, err := module.NewExecutor(nil, g.logger).Run(module.Source{
		Code:        src,
		Origin:      g.cfg.Filename,
		PartialPath: g.cfg.Template,
		Bindings:    module.Bindings{module.PublicPathBinding: publicPath},
	})
	if err != nil {
		return g.fail("cannot evaluate document template", err)
	}

	html, err := render.NewRenderer(g.logger).Render(render.Request{
		PartialPath: g.cfg.Template,
		Output:      out,
		Options:     g.options(publicPath),
	})
	if err != nil {
		return g.fail("cannot render document", err)
	}

	data := &BeforeEmitData{OutputName: g.cfg.Filename, HTML: html}
	if err := HooksFor(comp).BeforeEmit.Call(data); err != nil {
		return g.fail("before emit hook failed", err)
	}
	if err := comp.EmitAsset(data.OutputName, []byte(data.HTML)); err != nil {
		return g.fail("cannot emit document", err)
	}
	comp.Logger().Debug("Generated document",
		logfields.Document(data.OutputName),
		slog.String("template", g.cfg.Template))
	return nil
}

func (g *Generator) options(publicPath string) map[string]any {
	opts := map[string]any{
		"title":      DefaultTitle(g.cfg.Filename),
		"publicPath": publicPath,
	}
	maps.Copy(opts, g.cfg.Options)
	return opts
}

func (g *Generator) fail(msg string, cause error) error {
	return errors.BuildError(fmt.Sprintf("%s: %s", g.cfg.Filename, msg)).
		WithCause(cause).
		WithContext(errors.ContextDocument, g.cfg.Filename).
		Build()
}

// DefaultTitle derives a title from a document name: "about-us.html" becomes "About Us".
func DefaultTitle(filename string) string {
	base := strings.TrimSuffix(path.Base(filename), path.Ext(filename))
	words := strings.FieldsFunc(base, func(r rune) bool { return r == '-' || r == '_' || r == ' ' })
	return cases.Title(language.English).String(strings.Join(words, " "))
}
