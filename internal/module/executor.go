package module

import (
	"fmt"
	"log/slog"

	"git.home.luguber.info/inful/docpartials/internal/foundation/errors"
	"git.home.luguber.info/inful/docpartials/internal/logfields"
)

// Source is one compiled-module artifact ready for evaluation.
type Source struct {
	Code        string
	Origin      string
	PartialPath string
	PartialID   string
	Bindings    Bindings
}

// Output is the validated product of a partial module: static HTML or an HTML factory.
type Output struct {
	raw     Value
	html    string
	factory Factory
}

// IsFactory reports whether the module produced a callable.
func (o Output) IsFactory() bool { return o.factory != nil }

// Value returns the unwrapped module value.
func (o Output) Value() any { return o.raw.Unwrap() }

// Kind reports how the module exported its value.
func (o Output) Kind() Kind { return o.raw.Kind }

// Resolve returns the HTML, invoking the factory with params when needed.
func (o Output) Resolve(params map[string]any) (string, error) {
	if o.factory == nil {
		return o.html, nil
	}
	return o.factory(params)
}

// Executor evaluates partial modules against a fixed host registry.
type Executor struct {
	modules Registry
	logger  *slog.Logger
}

// NewExecutor creates an executor. A nil registry uses DefaultRegistry.
func NewExecutor(modules Registry, logger *slog.Logger) *Executor {
	if modules == nil {
		modules = DefaultRegistry()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{modules: modules, logger: logger}
}

// Run evaluates src and validates its value. Evaluation errors become
// ExecutionFailure and unusable values InvalidPartialOutput; both carry the
// partial path.
func (e *Executor) Run(src Source) (Output, error) {
	val, err := Evaluate(src.Code, Env{
		Filename: src.Origin,
		Bindings: src.Bindings,
		Modules:  e.modules,
	})
	if err != nil {
		return Output{}, errors.ExecutionFailure("partial module evaluation failed").
			WithCause(err).
			WithPartial(src.PartialPath, src.PartialID).
			WithContext("origin", src.Origin).
			Build()
	}

	out := Output{raw: val}
	switch v := val.Unwrap().(type) {
	case string:
		out.html = v
	case Factory:
		out.factory = v
	case func(map[string]any) (string, error):
		out.factory = v
	case func(map[string]any) string:
		out.factory = func(params map[string]any) (string, error) { return v(params), nil }
	default:
		return Output{}, errors.InvalidPartialOutput(fmt.Sprintf("the loader %q didn't return html (got %T)", src.PartialPath, v)).
			WithPartial(src.PartialPath, src.PartialID).
			Build()
	}

	e.logger.Debug("Evaluated partial module",
		logfields.PartialPath(src.PartialPath),
		logfields.Asset(src.Origin),
		slog.String("kind", val.Kind.String()),
		slog.Bool("factory", out.IsFactory()))
	return out, nil
}
