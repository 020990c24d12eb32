package module

import (
	"html"
	"net/url"
	"path"
	"strings"
)

// Registry is the set of host modules reachable through require.
type Registry map[string]any

// DefaultRegistry exposes a small set of pure helpers. Members are called from
// modules with call, e.g. {{ call (index (require "strings") "ToUpper") "x" }}.
func DefaultRegistry() Registry {
	return Registry{
		"strings": map[string]any{
			"ToUpper":    strings.ToUpper,
			"ToLower":    strings.ToLower,
			"TrimSpace":  strings.TrimSpace,
			"Contains":   strings.Contains,
			"HasPrefix":  strings.HasPrefix,
			"HasSuffix":  strings.HasSuffix,
			"ReplaceAll": strings.ReplaceAll,
		},
		"path": map[string]any{
			"Join": path.Join,
			"Base": path.Base,
			"Dir":  path.Dir,
			"Ext":  path.Ext,
		},
		"html": map[string]any{
			"Escape":   html.EscapeString,
			"Unescape": html.UnescapeString,
		},
		"url": map[string]any{
			"PathEscape":  url.PathEscape,
			"QueryEscape": url.QueryEscape,
		},
	}
}
