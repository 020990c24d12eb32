package partials

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docpartials/internal/compiler"
	"git.home.luguber.info/inful/docpartials/internal/docgen"
	"git.home.luguber.info/inful/docpartials/internal/foundation/errors"
	"git.home.luguber.info/inful/docpartials/internal/partial"
	"git.home.luguber.info/inful/docpartials/internal/publicpath"
)

const page = `<html><head><title>${title}</title></head><body><main></main></body></html>`

type fixture struct {
	dir      string
	docs     []docgen.Config
	partials []partial.Config
	output   compiler.OutputOptions
}

func newFixture(t *testing.T, files map[string]string) *fixture {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		writeFile(t, dir, name, content)
	}
	return &fixture{
		dir:  dir,
		docs: []docgen.Config{{Template: "index.html"}},
	}
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func (f *fixture) newCompiler(t *testing.T) *compiler.Compiler {
	t.Helper()
	var plugins []compiler.Plugin
	for _, d := range f.docs {
		plugins = append(plugins, docgen.New(d, nil))
	}
	p, err := New(f.partials, Options{})
	require.NoError(t, err)
	plugins = append(plugins, p)

	out := f.output
	if out.Path == "" {
		out.Path = "dist"
	}
	c, err := compiler.New(compiler.Options{Context: f.dir, Output: out}, plugins...)
	require.NoError(t, err)
	return c
}

func (f *fixture) run(t *testing.T) (*compiler.Stats, error) {
	t.Helper()
	return f.newCompiler(t).Run(context.Background())
}

func (f *fixture) read(t *testing.T, name string) string {
	t.Helper()
	src, err := os.ReadFile(filepath.Join(f.dir, "dist", name))
	require.NoError(t, err)
	return string(src)
}

func boolPtr(b bool) *bool { return &b }

func TestRenderedFragmentUsesOptions(t *testing.T) {
	f := newFixture(t, map[string]string{
		"index.html":      page,
		"partials/h.html": `<h1>${title}</h1>`,
	})
	f.partials = []partial.Config{{Path: "partials/h.html", Options: map[string]any{"title": "X"}}}

	_, err := f.run(t)
	require.NoError(t, err)
	assert.Equal(t,
		`<html><head><title>Index</title></head><body><main></main><h1>X</h1></body></html>`,
		f.read(t, "index.html"))
}

func TestPriorityOrdering(t *testing.T) {
	f := newFixture(t, map[string]string{
		"index.html": page,
		"d1.html":    `<p>d1</p>`,
		"d2.html":    `<p>d2</p>`,
		"meta.html":  `<meta name="x">`,
	})
	f.partials = []partial.Config{
		{Path: "d2.html", Priority: partial.PriorityLow},
		{Path: "d1.html", Priority: partial.PriorityHigh},
		{Path: "meta.html", Location: partial.LocationHead, Priority: partial.PriorityHigh},
	}

	_, err := f.run(t)
	require.NoError(t, err)
	assert.Equal(t,
		`<html><head><meta name="x"><title>Index</title></head><body><p>d1</p><main></main><p>d2</p></body></html>`,
		f.read(t, "index.html"))
}

func TestNonInjectedPartialIsCompiledButNotMerged(t *testing.T) {
	f := newFixture(t, map[string]string{"index.html": page, "p.html": `<p>quiet</p>`})
	f.partials = []partial.Config{{Path: "p.html", Inject: boolPtr(false), TemplateFilename: partial.All()}}

	_, err := f.run(t)
	require.NoError(t, err)
	assert.NotContains(t, f.read(t, "index.html"), "quiet")
}

func TestWildcardAndIdempotence(t *testing.T) {
	f := newFixture(t, map[string]string{"index.html": page, "p.html": `<p>all</p>`})
	f.docs = []docgen.Config{
		{Template: "index.html", Filename: "a.html"},
		{Template: "index.html", Filename: "b.html"},
		{Template: "index.html", Filename: "c.html"},
	}
	f.partials = []partial.Config{
		{Path: "p.html", TemplateFilename: partial.All()},
		{Path: "p.html", TemplateFilename: partial.Names("b.html", "b.html")},
	}

	_, err := f.run(t)
	require.NoError(t, err)
	for _, name := range []string{"a.html", "c.html"} {
		assert.Equal(t, 1, strings.Count(f.read(t, name), "<p>all</p>"), name)
	}
	// Two descriptors target b.html; each lands exactly once.
	assert.Equal(t, 2, strings.Count(f.read(t, "b.html"), "<p>all</p>"))
}

func TestMissingTargetIsAWarning(t *testing.T) {
	f := newFixture(t, map[string]string{"index.html": page, "a.html": `<a></a>`, "b.html": `<b></b>`})
	f.partials = []partial.Config{
		{Path: "a.html", TemplateFilename: partial.Names("missing.html")},
		{Path: "b.html"},
	}

	stats, err := f.run(t)
	require.NoError(t, err)
	require.Len(t, stats.Warnings, 1)
	assert.True(t, errors.HasCategory(stats.Warnings[0], errors.CategoryMissingTarget))
	assert.Equal(t, "a.html", errors.PartialPathOf(stats.Warnings[0]))
	assert.Contains(t, f.read(t, "index.html"), "<b></b></body>")
}

func TestInvalidOutputFailsBuildWithoutEmitting(t *testing.T) {
	f := newFixture(t, map[string]string{"index.html": page, "answer.mod": `{{ export 42 }}`})
	f.partials = []partial.Config{{Path: "answer.mod"}}

	_, err := f.run(t)
	require.Error(t, err)
	assert.Equal(t, errors.CategoryInvalidOutput, errors.GetCategory(err))
	assert.Equal(t, "answer.mod", errors.PartialPathOf(err))
	assert.NoFileExists(t, filepath.Join(f.dir, "dist", "index.html"))
}

func TestDescriptorFailuresKeepPartialPath(t *testing.T) {
	tests := []struct {
		name     string
		file     string
		content  string
		category errors.ErrorCategory
	}{
		{"execution", "bad.mod", `{{ binding "nope" }}`, errors.CategoryExecution},
		{"render", "bad.html", `<p>${missing}</p>`, errors.CategoryRender},
		{"unterminated", "bad.html", `<p>${oops</p>`, errors.CategoryRender},
		{"compilation", "bad.css", `body{}`, errors.CategoryCompilation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, map[string]string{"index.html": page, tt.file: tt.content})
			f.partials = []partial.Config{{Path: tt.file}}

			_, err := f.run(t)
			require.Error(t, err)
			assert.True(t, errors.HasCategory(err, tt.category), err.Error())
			assert.Equal(t, tt.file, errors.PartialPathOf(err))
		})
	}
}

func TestMissingPartialSourceIsCompilationFailure(t *testing.T) {
	f := newFixture(t, map[string]string{"index.html": page})
	f.partials = []partial.Config{{Path: "nowhere.html"}}

	_, err := f.run(t)
	require.Error(t, err)
	assert.Equal(t, errors.CategoryCompilation, errors.GetCategory(err))
	assert.Equal(t, "nowhere.html", errors.PartialPathOf(err))
	assert.True(t, errors.HasCategory(err, errors.CategoryFileSystem))
}

func TestPublicPath(t *testing.T) {
	files := map[string]string{
		"index.html": page,
		"img.tmpl":   `<img src="{{ asset "logo.png" }}" data-p="{{ publicPath }}">`,
	}

	f := newFixture(t, files)
	f.partials = []partial.Config{{Path: "img.tmpl"}}
	_, err := f.run(t)
	require.NoError(t, err)
	assert.Contains(t, f.read(t, "index.html"), `<img src="logo.png" data-p="">`)

	f = newFixture(t, files)
	f.partials = []partial.Config{{Path: "img.tmpl"}}
	f.output = compiler.OutputOptions{PublicPath: publicpath.Set("https://cdn.example.com/assets")}
	_, err = f.run(t)
	require.NoError(t, err)
	assert.Contains(t, f.read(t, "index.html"),
		`<img src="https://cdn.example.com/assets/logo.png" data-p="https://cdn.example.com/assets/">`)
}

func TestDocumentsAndPartialsShareTheBuildHash(t *testing.T) {
	build := func(partialSource string) (string, *compiler.Stats) {
		f := newFixture(t, map[string]string{
			"index.html": `<html><head></head><body>doc=${publicPath}</body></html>`,
			"p.tmpl":     partialSource,
		})
		f.partials = []partial.Config{{Path: "p.tmpl"}}
		f.output = compiler.OutputOptions{PublicPath: publicpath.Set("/static/[hash]/")}
		stats, err := f.run(t)
		require.NoError(t, err)
		return f.read(t, "index.html"), stats
	}

	html, stats := build(`partial={{ publicPath }}`)
	want := "/static/" + stats.Hash + "/"
	assert.Equal(t, `<html><head></head><body>doc=`+want+`partial=`+want+`</body></html>`, html)

	_, changed := build(`partial={{ publicPath }}!`)
	assert.NotEqual(t, stats.Hash, changed.Hash)
}

func TestIntermediateArtifactsAreNotEmitted(t *testing.T) {
	f := newFixture(t, map[string]string{"index.html": page, "p.html": `<p></p>`})
	f.partials = []partial.Config{{Path: "p.html"}}

	stats, err := f.run(t)
	require.NoError(t, err)
	assert.Equal(t, []string{"index.html"}, stats.Assets)
	entries, err := os.ReadDir(filepath.Join(f.dir, "dist"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestModuleExportForms(t *testing.T) {
	f := newFixture(t, map[string]string{
		"index.html":  page,
		"raw.mod":     `<i>raw</i>`,
		"default.mod": `{{ exportDefault "<b>default</b>" }}`,
		"card.tmpl":   `<div>{{ .name | upper }}</div>`,
		"notes.md":    "---\ntitle: x\n---\n*${who}*\n",
	})
	f.partials = []partial.Config{
		{Path: "raw.mod"},
		{Path: "default.mod"},
		{Path: "card.tmpl", Options: map[string]any{"name": "ada"}},
		{Path: "notes.md", Options: map[string]any{"who": "me"}},
	}

	_, err := f.run(t)
	require.NoError(t, err)
	out := f.read(t, "index.html")
	assert.Contains(t, out, "<main></main><i>raw</i><b>default</b><div>ADA</div><p><em>me</em></p>\n</body>")
}

func TestNoStateCrossesBuilds(t *testing.T) {
	f := newFixture(t, map[string]string{"index.html": page, "p.html": `<p>v1</p>`})
	f.partials = []partial.Config{{Path: "p.html"}}
	c := f.newCompiler(t)

	_, err := c.Run(context.Background())
	require.NoError(t, err)
	assert.Contains(t, f.read(t, "index.html"), "<p>v1</p>")

	writeFile(t, f.dir, "p.html", `<p>v2</p>`)
	_, err = c.Run(context.Background())
	require.NoError(t, err)
	out := f.read(t, "index.html")
	assert.Contains(t, out, "<p>v2</p>")
	assert.NotContains(t, out, "v1")

	writeFile(t, f.dir, "p.html", `<p>${broken}</p>`)
	_, err = c.Run(context.Background())
	require.Error(t, err)
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	_, err := New([]partial.Config{{Path: "x.html", Location: "footer"}}, Options{})
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryConfig))
	assert.True(t, errors.HasCategory(err, errors.CategoryValidation))
}

func TestNoPartialsIsANoop(t *testing.T) {
	f := newFixture(t, map[string]string{"index.html": page})
	_, err := f.run(t)
	require.NoError(t, err)
	assert.Equal(t, `<html><head><title>Index</title></head><body><main></main></body></html>`, f.read(t, "index.html"))
}
