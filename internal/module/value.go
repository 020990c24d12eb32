package module

import "fmt"

// Kind tags how a module exported its value.
type Kind int

const (
	// KindRaw is a plain completion value.
	KindRaw Kind = iota
	// KindESModuleDefault is a namespace whose default member carries the value.
	KindESModuleDefault
)

func (k Kind) String() string {
	switch k {
	case KindRaw:
		return "raw"
	case KindESModuleDefault:
		return "esmodule-default"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Value is the tagged result of evaluating a module.
type Value struct {
	Kind Kind
	V    any
}

// Raw wraps a plain value.
func Raw(v any) Value { return Value{Kind: KindRaw, V: v} }

// ESModuleDefault wraps a default-exported value.
func ESModuleDefault(v any) Value { return Value{Kind: KindESModuleDefault, V: v} }

// Unwrap returns the value a consumer should see: the default member for
// namespaces, the value itself otherwise.
func (v Value) Unwrap() any {
	return v.V
}

// Factory renders HTML from parameters.
type Factory func(params map[string]any) (string, error)
