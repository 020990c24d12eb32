// Package loader turns partial and document sources into compiled module code.
//
// Rules select loaders by file name; a rule's Use list runs right to left so
// that {html, markdown} first renders markdown and then wraps the HTML into a
// module. The same Chain is shared by the primary and child compilations.
package loader

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"
)

// Context describes the resource being loaded.
type Context struct {
	// Request is the path as requested, relative to the compiler context.
	Request string
	// Resource is the absolute path of the file on disk.
	Resource string
	Logger   *slog.Logger
}

// Loader transforms source bytes.
type Loader interface {
	Name() string
	Load(ctx *Context, src []byte) ([]byte, error)
}

// Rule applies Use to resources matching Test.
type Rule struct {
	Test *regexp.Regexp
	Use  []Loader
}

// Names lists the rule's loader names in declaration order.
func (r Rule) Names() []string {
	names := make([]string, len(r.Use))
	for i, l := range r.Use {
		names[i] = l.Name()
	}
	return names
}

// Chain is an ordered rule list; the first matching rule wins.
type Chain struct {
	rules []Rule
}

// NewChain creates a chain from rules.
func NewChain(rules ...Rule) *Chain {
	return &Chain{rules: append([]Rule(nil), rules...)}
}

// Default returns the built-in chain.
func Default() *Chain {
	return NewChain(DefaultRules()...)
}

// DefaultRules returns the built-in rule set.
func DefaultRules() []Rule {
	return []Rule{
		{Test: regexp.MustCompile(`\.md$`), Use: []Loader{HTML{}, Markdown{}}},
		{Test: regexp.MustCompile(`\.html?$`), Use: []Loader{HTML{}}},
		{Test: regexp.MustCompile(`\.(tmpl|gohtml)$`), Use: []Loader{Template{}}},
		{Test: regexp.MustCompile(`\.mod$`), Use: []Loader{Module{}}},
	}
}

// Prepend returns a new chain whose extra rules are tried first.
func (c *Chain) Prepend(rules ...Rule) *Chain {
	return NewChain(append(append([]Rule(nil), rules...), c.rules...)...)
}

// Resolve finds the rule for a resource path.
func (c *Chain) Resolve(path string) (Rule, bool) {
	for _, r := range c.rules {
		if r.Test.MatchString(path) {
			return r, true
		}
	}
	return Rule{}, false
}

// Run loads src through the matching rule.
func (c *Chain) Run(ctx *Context, src []byte) ([]byte, error) {
	rule, ok := c.Resolve(ctx.Request)
	if !ok {
		return nil, fmt.Errorf("no loader rule matches %q", ctx.Request)
	}
	out := src
	for i := len(rule.Use) - 1; i >= 0; i-- {
		l := rule.Use[i]
		next, err := l.Load(ctx, out)
		if err != nil {
			return nil, fmt.Errorf("%s loader: %w", l.Name(), err)
		}
		out = next
	}
	if ctx.Logger != nil {
		ctx.Logger.Debug("Loaded module", slog.String("request", ctx.Request), slog.String("loaders", strings.Join(rule.Names(), "!")))
	}
	return out, nil
}

var builtins = map[string]Loader{
	"markdown": Markdown{},
	"html":     HTML{},
	"template": Template{},
	"module":   Module{},
}

// Lookup returns a built-in loader by name.
func Lookup(name string) (Loader, bool) {
	l, ok := builtins[name]
	return l, ok
}

// RuleFromNames builds a rule from a pattern and loader names.
func RuleFromNames(pattern string, names []string) (Rule, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return Rule{}, fmt.Errorf("invalid loader test %q: %w", pattern, err)
	}
	if len(names) == 0 {
		return Rule{}, fmt.Errorf("loader rule %q uses no loaders", pattern)
	}
	use := make([]Loader, 0, len(names))
	for _, n := range names {
		l, ok := Lookup(n)
		if !ok {
			return Rule{}, fmt.Errorf("unknown loader %q", n)
		}
		use = append(use, l)
	}
	return Rule{Test: re, Use: use}, nil
}
