package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileAndExecute(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		options map[string]any
		want    string
	}{
		{"dollar interpolation", "<h1>${title}</h1>", map[string]any{"title": "X"}, "<h1>X</h1>"},
		{"spaces inside", "<h1>${ title }</h1>", map[string]any{"title": "X"}, "<h1>X</h1>"},
		{"lodash interpolate", "<p><%= body %></p>", map[string]any{"body": "<b>raw</b>"}, "<p><b>raw</b></p>"},
		{"lodash escape", "<p><%- body %></p>", map[string]any{"body": "<b>"}, "<p>&lt;b&gt;</p>"},
		{"dotted path", "${site.name}/${site.meta.v}", map[string]any{"site": map[string]any{"name": "d", "meta": map[string]any{"v": 2}}}, "d/2"},
		{"nil renders empty", "[${x}]", map[string]any{"x": nil}, "[]"},
		{"no placeholders", "<footer>plain</footer>", nil, "<footer>plain</footer>"},
		{"go template braces are literal", "{{ .x }}{${a}", map[string]any{"a": 1}, "{{ .x }}{1"},
		{"numbers", "${n}", map[string]any{"n": 3.5}, "3.5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpl, err := Compile(tt.name, tt.src)
			require.NoError(t, err)
			got, err := tmpl.Execute(tt.options)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCompileErrors(t *testing.T) {
	for _, src := range []string{
		"<h1>${title</h1>",
		"<%= title",
		"<% if (x) { %>",
		"${ title() }",
		"${}",
	} {
		_, err := Compile("bad", src)
		assert.Error(t, err, src)
	}
}

func TestExecuteUndefinedName(t *testing.T) {
	tmpl, err := Compile("t", "<h1>${title}</h1>")
	require.NoError(t, err)
	_, err = tmpl.Execute(map[string]any{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "title is not defined")

	tmpl, err = Compile("t", "${a.b}")
	require.NoError(t, err)
	_, err = tmpl.Execute(map[string]any{"a": "scalar"})
	assert.Error(t, err)
}

func TestNames(t *testing.T) {
	tmpl, err := Compile("t", "${a} <%= b.c %> <%- d %>")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b.c", "d"}, tmpl.names)
}
