package partial

import (
	"fmt"
	"maps"
	"strings"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/docpartials/internal/foundation/errors"
)

// Location names the anchor element a fragment is placed in.
type Location string

const (
	LocationHead Location = "head"
	LocationBody Location = "body"
)

// IsValid reports whether l is one of the supported anchors.
func (l Location) IsValid() bool {
	return l == LocationHead || l == LocationBody
}

// Priority orders fragments competing for the same document and location.
type Priority string

const (
	PriorityLow  Priority = "low"
	PriorityHigh Priority = "high"
)

// IsValid reports whether p is a known priority level.
func (p Priority) IsValid() bool {
	return p == PriorityLow || p == PriorityHigh
}

// Rank returns a sort key; higher ranks sit closer to the location anchor.
func (p Priority) Rank() int {
	if p == PriorityHigh {
		return 1
	}
	return 0
}

// DefaultTemplateFilename is the target document when none is configured.
const DefaultTemplateFilename = "index.html"

// Config is the static, user-supplied configuration of one partial.
type Config struct {
	Path             string         `yaml:"path"`
	Location         Location       `yaml:"location,omitempty"`
	Priority         Priority       `yaml:"priority,omitempty"`
	Inject           *bool          `yaml:"inject,omitempty"`
	TemplateFilename TargetMatcher  `yaml:"template_filename,omitempty"`
	Options          map[string]any `yaml:"options,omitempty"`
}

// Validate checks the configuration without applying defaults.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Path) == "" {
		return errors.ValidationError("partial path is required").Build()
	}
	if c.Location != "" && !c.Location.IsValid() {
		return errors.ValidationError(fmt.Sprintf("unsupported partial location %q (want head or body)", c.Location)).
			WithPartial(c.Path, "").Build()
	}
	if c.Priority != "" && !c.Priority.IsValid() {
		return errors.ValidationError(fmt.Sprintf("unsupported partial priority %q (want high or low)", c.Priority)).
			WithPartial(c.Path, "").Build()
	}
	if c.TemplateFilename.IsEmpty() {
		return errors.ValidationError("template_filename must name at least one document").
			WithPartial(c.Path, "").Build()
	}
	return nil
}

// Descriptor is the immutable per-build view of a partial.
type Descriptor struct {
	path         string
	location     Location
	priority     Priority
	shouldInject bool
	target       TargetMatcher
	options      map[string]any
	uniqueID     string
	order        int
}

// New builds a descriptor from cfg, applying defaults and assigning a fresh unique id.
func New(cfg Config) (*Descriptor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	d := &Descriptor{
		path:         cfg.Path,
		location:     cfg.Location,
		priority:     cfg.Priority,
		shouldInject: cfg.Inject == nil || *cfg.Inject,
		target:       cfg.TemplateFilename,
		options:      maps.Clone(cfg.Options),
		// Entry and artifact names derive from the id, so it carries the .html suffix.
		uniqueID: uuid.NewString() + ".html",
	}
	if d.location == "" {
		d.location = LocationBody
	}
	if d.priority == "" {
		d.priority = PriorityLow
	}
	if d.target.IsZero() {
		d.target = Names(DefaultTemplateFilename)
	}
	if d.options == nil {
		d.options = map[string]any{}
	}
	return d, nil
}

func (d *Descriptor) Path() string          { return d.path }
func (d *Descriptor) Location() Location    { return d.location }
func (d *Descriptor) Priority() Priority    { return d.priority }
func (d *Descriptor) ShouldInject() bool    { return d.shouldInject }
func (d *Descriptor) Target() TargetMatcher { return d.target }
func (d *Descriptor) UniqueID() string      { return d.uniqueID }

// Order is the registration index within the owning store.
func (d *Descriptor) Order() int { return d.order }

// Options returns a copy of the render options.
func (d *Descriptor) Options() map[string]any { return maps.Clone(d.options) }

func (d *Descriptor) String() string {
	return fmt.Sprintf("%s (%s/%s)", d.path, d.location, d.priority)
}
