// Package render compiles partial HTML into parameterized templates and binds
// them against render options.
//
// Interpolation follows the lodash conventions partial authors already use:
// ${name} and <%= name %> insert the value as-is, <%- name %> HTML-escapes it.
// Names are identifiers or dotted paths into the options map.
package render

import (
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"text/template"
)

var pathPattern = regexp.MustCompile(`^[A-Za-z_$][\w$]*(\.[A-Za-z_$][\w$]*)*$`)

type segment struct {
	literal string
	path    string
	escape  bool
}

// Template is a compiled partial template.
type Template struct {
	name  string
	names []string
	tmpl  *template.Template
}

// Compile parses src. Unterminated delimiters and unsupported expressions are
// compile errors.
func Compile(name, src string) (*Template, error) {
	segs, err := scan(src)
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	var names []string
	for _, s := range segs {
		if s.path == "" {
			b.WriteString("{{ ")
			b.WriteString(strconv.Quote(s.literal))
			b.WriteString(" }}")
			continue
		}
		names = append(names, s.path)
		b.WriteString("{{ lookup . ")
		b.WriteString(strconv.Quote(s.path))
		if s.escape {
			b.WriteString(" | html")
		}
		b.WriteString(" }}")
	}

	tmpl, err := template.New(name).
		Funcs(template.FuncMap{"lookup": lookup}).
		Option("missingkey=error").
		Parse(b.String())
	if err != nil {
		return nil, fmt.Errorf("compile template: %w", err)
	}
	return &Template{name: name, names: names, tmpl: tmpl}, nil
}

// Execute binds the template against options.
func (t *Template) Execute(options map[string]any) (string, error) {
	if options == nil {
		options = map[string]any{}
	}
	var b strings.Builder
	if err := t.tmpl.Execute(&b, options); err != nil {
		return "", fmt.Errorf("render template: %w", err)
	}
	return b.String(), nil
}

func scan(src string) ([]segment, error) {
	var segs []segment
	rest := src
	offset := 0
	for {
		i := nextOpen(rest)
		if i < 0 {
			if rest != "" {
				segs = append(segs, segment{literal: rest})
			}
			return segs, nil
		}
		if i > 0 {
			segs = append(segs, segment{literal: rest[:i]})
		}

		open, closing, escape := "${", "}", false
		switch {
		case strings.HasPrefix(rest[i:], "<%="):
			open, closing = "<%=", "%>"
		case strings.HasPrefix(rest[i:], "<%-"):
			open, closing, escape = "<%-", "%>", true
		case strings.HasPrefix(rest[i:], "<%"):
			return nil, fmt.Errorf("offset %d: evaluate blocks are not supported", offset+i)
		}

		body := rest[i+len(open):]
		end := strings.Index(body, closing)
		if end < 0 {
			return nil, fmt.Errorf("offset %d: unterminated %s", offset+i, open)
		}
		expr := strings.TrimSpace(body[:end])
		if !pathPattern.MatchString(expr) {
			return nil, fmt.Errorf("offset %d: unsupported expression %q", offset+i, expr)
		}
		segs = append(segs, segment{path: expr, escape: escape})

		consumed := i + len(open) + end + len(closing)
		rest = rest[consumed:]
		offset += consumed
	}
}

func nextOpen(s string) int {
	a := strings.Index(s, "${")
	b := strings.Index(s, "<%")
	switch {
	case a < 0:
		return b
	case b < 0:
		return a
	default:
		return min(a, b)
	}
}

// lookup resolves a dotted path. Undefined names are errors; nil renders empty.
func lookup(data map[string]any, path string) (any, error) {
	var cur any = data
	for _, key := range strings.Split(path, ".") {
		v := reflect.ValueOf(cur)
		if !v.IsValid() || v.Kind() != reflect.Map || v.Type().Key().Kind() != reflect.String {
			return nil, fmt.Errorf("%s is not defined", path)
		}
		elem := v.MapIndex(reflect.ValueOf(key).Convert(v.Type().Key()))
		if !elem.IsValid() {
			return nil, fmt.Errorf("%s is not defined", path)
		}
		cur = elem.Interface()
	}
	if cur == nil {
		return "", nil
	}
	return cur, nil
}
