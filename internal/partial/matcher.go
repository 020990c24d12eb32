package partial

import (
	"fmt"
	"slices"

	"gopkg.in/yaml.v3"
)

// Wildcard matches every document produced by the build.
const Wildcard = "*"

// TargetMatcher selects the documents a partial is injected into: every
// document, a single name, or an explicit list of names.
type TargetMatcher struct {
	all   bool
	set   bool
	names []string
}

// All returns the wildcard matcher.
func All() TargetMatcher { return TargetMatcher{all: true} }

// Names returns a matcher over explicit document names. A lone "*" is the wildcard.
func Names(names ...string) TargetMatcher {
	if len(names) == 1 && names[0] == Wildcard {
		return All()
	}
	return TargetMatcher{set: true, names: slices.Clone(names)}
}

// IsWildcard reports whether the matcher selects every document.
func (m TargetMatcher) IsWildcard() bool { return m.all }

// IsZero reports whether the matcher was never configured.
func (m TargetMatcher) IsZero() bool { return !m.all && !m.set }

// IsEmpty reports whether the matcher was configured with no names at all.
func (m TargetMatcher) IsEmpty() bool { return m.set && len(m.names) == 0 }

// Resolve expands the matcher against the documents observed by the build.
// The result is de-duplicated and keeps first-seen order.
func (m TargetMatcher) Resolve(observed []string) []string {
	src := m.names
	if m.all {
		src = observed
	}
	out := make([]string, 0, len(src))
	for _, name := range src {
		if !slices.Contains(out, name) {
			out = append(out, name)
		}
	}
	return out
}

func (m TargetMatcher) String() string {
	if m.all {
		return Wildcard
	}
	return fmt.Sprint(m.names)
}

// UnmarshalYAML accepts a scalar name ("*" included) or a sequence of names.
func (m *TargetMatcher) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var name string
		if err := node.Decode(&name); err != nil {
			return err
		}
		if name == "" {
			*m = TargetMatcher{}
			return nil
		}
		*m = Names(name)
		return nil
	case yaml.SequenceNode:
		var names []string
		if err := node.Decode(&names); err != nil {
			return err
		}
		*m = TargetMatcher{set: true, names: names}
		return nil
	default:
		return fmt.Errorf("line %d: template_filename must be a string or a list of strings", node.Line)
	}
}

// MarshalYAML mirrors UnmarshalYAML.
func (m TargetMatcher) MarshalYAML() (any, error) {
	if m.all {
		return Wildcard, nil
	}
	if len(m.names) == 1 {
		return m.names[0], nil
	}
	return m.names, nil
}
