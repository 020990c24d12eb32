package render

import (
	"log/slog"
	"strings"

	"git.home.luguber.info/inful/docpartials/internal/foundation/errors"
	"git.home.luguber.info/inful/docpartials/internal/logfields"
	"git.home.luguber.info/inful/docpartials/internal/module"
)

// PublicPathMarker prefixes the public path binding handed to partial modules
// so an empty public path is never an empty binding. It never reaches output.
const PublicPathMarker = "hwpp:/"

// Request is everything needed to render one partial.
type Request struct {
	PartialPath string
	PartialID   string
	Output      module.Output
	Options     map[string]any
}

// Renderer turns executor output into final fragment HTML.
type Renderer struct {
	logger *slog.Logger
}

// NewRenderer creates a Renderer.
func NewRenderer(logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Renderer{logger: logger}
}

// Render resolves the module output (invoking factories with the options),
// strips the public-path marker, compiles the template and binds it against
// the options. Any failure is a TemplateRenderFailure; an empty fragment is
// only ever returned when the template itself renders empty.
func (r *Renderer) Render(req Request) (string, error) {
	source, err := req.Output.Resolve(req.Options)
	if err != nil {
		return "", r.fail("partial factory invocation failed", req, err)
	}
	source = strings.ReplaceAll(source, PublicPathMarker, "")

	tmpl, err := Compile(req.PartialPath, source)
	if err != nil {
		return "", r.fail("partial template compilation failed", req, err)
	}
	html, err := tmpl.Execute(req.Options)
	if err != nil {
		return "", r.fail("partial template invocation failed", req, err)
	}

	r.logger.Debug("Rendered partial",
		logfields.PartialPath(req.PartialPath),
		logfields.PartialID(req.PartialID),
		slog.Int("bytes", len(html)))
	return html, nil
}

func (r *Renderer) fail(msg string, req Request, cause error) error {
	return errors.TemplateRenderFailure(msg).
		WithCause(cause).
		WithPartial(req.PartialPath, req.PartialID).
		Build()
}
