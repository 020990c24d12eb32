// Package inject merges rendered partial fragments into target documents.
//
// An Engine belongs to exactly one build. It remembers which (partial,
// document) pairs it has merged, so matching a document twice never
// duplicates a fragment, and it is discarded together with the build.
package inject

import (
	"log/slog"
	"slices"

	"git.home.luguber.info/inful/docpartials/internal/foundation/errors"
	"git.home.luguber.info/inful/docpartials/internal/logfields"
	"git.home.luguber.info/inful/docpartials/internal/metrics"
	"git.home.luguber.info/inful/docpartials/internal/partial"
	"git.home.luguber.info/inful/docpartials/internal/util/sets"
)

// Assets is the part of the asset store the engine reads and rewrites.
type Assets interface {
	GetAsset(name string) ([]byte, bool)
	UpdateAsset(name string, src []byte) error
}

// Pair is one fragment merged into one document.
type Pair struct {
	Document    string
	PartialPath string
	PartialID   string
	Location    partial.Location
	Priority    partial.Priority
}

// Report lists what a Run merged and what it could not.
type Report struct {
	Injected []Pair
	// Missing holds one MissingTargetDocument error per unmatched pair.
	Missing []error
}

// Engine runs the injection phase of one build.
type Engine struct {
	logger   *slog.Logger
	recorder metrics.Recorder
	applied  sets.Set[string]
}

// NewEngine creates an engine with an empty applied set.
func NewEngine(logger *slog.Logger, recorder metrics.Recorder) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		logger:   logger,
		recorder: metrics.OrNoop(recorder),
		applied:  sets.New[string](),
	}
}

type planItem struct {
	fragment *partial.Fragment
	document string
}

// Run merges every injectable fragment into the documents its matcher selects.
// observed lists the document names the build produced, in production order;
// the wildcard expands to exactly that list. Missing documents and anchors are
// reported and skipped. An error is returned only when the asset store
// rejects an update.
func (e *Engine) Run(assets Assets, observed []string, fragments []*partial.Fragment) (Report, error) {
	var report Report
	var plan []planItem

	ordered := slices.Clone(fragments)
	slices.SortStableFunc(ordered, func(a, b *partial.Fragment) int {
		return a.Descriptor().Order() - b.Descriptor().Order()
	})

	for _, f := range ordered {
		d := f.Descriptor()
		if !d.ShouldInject() {
			continue
		}
		for _, doc := range d.Target().Resolve(observed) {
			if _, ok := assets.GetAsset(doc); !ok {
				err := errors.MissingTargetDocument("target document does not exist").
					WithPartial(d.Path(), d.UniqueID()).
					WithContext(errors.ContextDocument, doc).
					Build()
				report.Missing = append(report.Missing, err)
				e.recorder.IncMissingTarget()
				e.logger.Warn("Partial target document missing",
					logfields.PartialPath(d.Path()), logfields.Document(doc))
				continue
			}
			plan = append(plan, planItem{fragment: f, document: doc})
		}
	}

	// High priority fragments are each inserted right after the opening tag,
	// so they are applied last-registered first to end up in registration order.
	slices.SortStableFunc(plan, func(a, b planItem) int {
		ra, rb := a.fragment.Descriptor().Priority().Rank(), b.fragment.Descriptor().Priority().Rank()
		if ra != rb {
			return rb - ra
		}
		if ra > 0 {
			return b.fragment.Descriptor().Order() - a.fragment.Descriptor().Order()
		}
		return 0
	})

	for _, item := range plan {
		pair, ok, err := e.apply(assets, item)
		if err != nil {
			if ce, ok := errors.AsClassified(err); ok && ce.IsCategory(errors.CategoryMissingTarget) {
				report.Missing = append(report.Missing, err)
				continue
			}
			return report, err
		}
		if ok {
			report.Injected = append(report.Injected, pair)
		}
	}
	return report, nil
}

func (e *Engine) apply(assets Assets, item planItem) (Pair, bool, error) {
	d := item.fragment.Descriptor()
	if !e.applied.Insert(d.UniqueID() + "\x00" + item.document) {
		return Pair{}, false, nil
	}
	markup, _ := assets.GetAsset(item.document)
	merged, err := Merge(markup, item.fragment.HTML(), d.Location(), d.Priority())
	if err != nil {
		e.recorder.IncMissingTarget()
		e.logger.Warn("Partial anchor missing in document",
			logfields.PartialPath(d.Path()),
			logfields.Document(item.document),
			logfields.Location(string(d.Location())))
		return Pair{}, false, errors.MissingTargetDocument("injection anchor not found").
			WithCause(err).
			WithPartial(d.Path(), d.UniqueID()).
			WithContext(errors.ContextDocument, item.document).
			Build()
	}
	if err := assets.UpdateAsset(item.document, merged); err != nil {
		return Pair{}, false, errors.InternalError("cannot update target document").
			WithCause(err).
			WithPartial(d.Path(), d.UniqueID()).
			WithContext(errors.ContextDocument, item.document).
			Build()
	}
	e.recorder.IncInjection(string(d.Location()))
	e.logger.Debug("Injected partial",
		logfields.PartialPath(d.Path()),
		logfields.Document(item.document),
		logfields.Location(string(d.Location())),
		logfields.Priority(string(d.Priority())))
	return Pair{
		Document:    item.document,
		PartialPath: d.Path(),
		PartialID:   d.UniqueID(),
		Location:    d.Location(),
		Priority:    d.Priority(),
	}, true, nil
}
