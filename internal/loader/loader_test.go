package loader

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docpartials/internal/module"
)

func evalFactory(t *testing.T, code []byte, params map[string]any) string {
	t.Helper()
	v, err := module.Evaluate(string(code), module.Env{})
	require.NoError(t, err)
	require.Equal(t, module.KindESModuleDefault, v.Kind)
	f, ok := v.Unwrap().(module.Factory)
	require.True(t, ok)
	out, err := f(params)
	require.NoError(t, err)
	return out
}

func TestDefaultChainResolve(t *testing.T) {
	c := Default()
	tests := map[string][]string{
		"partials/nav.html":    {"html"},
		"partials/nav.htm":     {"html"},
		"partials/readme.md":   {"html", "markdown"},
		"partials/card.tmpl":   {"template"},
		"partials/card.gohtml": {"template"},
		"partials/raw.mod":     {"module"},
	}
	for path, want := range tests {
		rule, ok := c.Resolve(path)
		require.True(t, ok, path)
		assert.Equal(t, want, rule.Names(), path)
	}
	_, ok := c.Resolve("style.css")
	assert.False(t, ok)
}

func TestHTMLLoaderKeepsSourceVerbatim(t *testing.T) {
	src := "<h1>${title}</h1>\n<p>{{ not a template }}</p>\n"
	code, err := Default().Run(&Context{Request: "p.html"}, []byte(src))
	require.NoError(t, err)
	assert.Equal(t, src, evalFactory(t, code, nil))
}

func TestMarkdownThroughChain(t *testing.T) {
	src := "---\ntitle: ignored\n---\n# Hello ${name}\n\nSome *text*.\n"
	code, err := Default().Run(&Context{Request: "p.md"}, []byte(src))
	require.NoError(t, err)
	out := evalFactory(t, code, nil)
	assert.Contains(t, out, "<h1>Hello ${name}</h1>")
	assert.Contains(t, out, "<em>text</em>")
	assert.NotContains(t, out, "ignored")
}

func TestTemplateLoader(t *testing.T) {
	code, err := Default().Run(&Context{Request: "card.tmpl"}, []byte(`<div class="card">{{ .title | upper }}</div>`))
	require.NoError(t, err)
	assert.Equal(t, `<div class="card">DOCS</div>`, evalFactory(t, code, map[string]any{"title": "docs"}))
}

func TestModuleLoaderPassthrough(t *testing.T) {
	code, err := Default().Run(&Context{Request: "x.mod"}, []byte(`{{ export 42 }}`))
	require.NoError(t, err)
	assert.Equal(t, `{{ export 42 }}`, string(code))
}

func TestRunWithoutRule(t *testing.T) {
	_, err := Default().Run(&Context{Request: "x.css"}, nil)
	assert.Error(t, err)
}

func TestStripFrontMatter(t *testing.T) {
	tests := map[string]string{
		"---\na: 1\n---\nbody":       "body",
		"---\r\na: 1\r\n---\r\nbody": "body",
		"---\n---\nbody":             "body",
		"---\nunterminated":          "---\nunterminated",
		"plain":                      "plain",
	}
	for src, want := range tests {
		got, err := stripFrontMatter([]byte(src))
		require.NoError(t, err, src)
		assert.Equal(t, want, string(got), src)
	}
}

func TestMalformedFrontMatterFails(t *testing.T) {
	for _, src := range []string{
		"---\ntitle: [unclosed\n---\nbody",
		"---\n- a list\n---\nbody",
	} {
		_, err := Default().Run(&Context{Request: "p.md"}, []byte(src))
		require.Error(t, err, src)
		assert.Contains(t, err.Error(), "markdown loader: front matter", src)
	}
}

func TestRuleFromNames(t *testing.T) {
	rule, err := RuleFromNames(`\.markdown$`, []string{"html", "markdown"})
	require.NoError(t, err)
	c := Default().Prepend(rule)
	got, ok := c.Resolve("notes.markdown")
	require.True(t, ok)
	assert.Equal(t, []string{"html", "markdown"}, got.Names())

	_, err = RuleFromNames(`(`, []string{"html"})
	assert.Error(t, err)
	_, err = RuleFromNames(`\.x$`, []string{"sass"})
	assert.Error(t, err)
	_, err = RuleFromNames(`\.x$`, nil)
	assert.Error(t, err)
}
