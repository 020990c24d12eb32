package docgen

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docpartials/internal/compiler"
	"git.home.luguber.info/inful/docpartials/internal/foundation/errors"
	"git.home.luguber.info/inful/docpartials/internal/publicpath"
)

func setup(t *testing.T, files map[string]string, gens ...*Generator) (*compiler.Compiler, **compiler.Compilation) {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	}
	plugins := make([]compiler.Plugin, len(gens))
	for i, g := range gens {
		plugins[i] = g
	}
	c, err := compiler.New(compiler.Options{
		Context: dir,
		Output:  compiler.OutputOptions{Path: filepath.Join(dir, "dist")},
		NoEmit:  true,
	}, plugins...)
	require.NoError(t, err)

	var last *compiler.Compilation
	c.Hooks.ThisCompilation.Tap("capture", func(comp *compiler.Compilation) error {
		last = comp
		return nil
	})
	return c, &last
}

func asset(t *testing.T, comp *compiler.Compilation, name string) string {
	t.Helper()
	src, ok := comp.GetAsset(name)
	require.True(t, ok, name)
	return string(src)
}

func TestGeneratorRendersTemplate(t *testing.T) {
	c, comp := setup(t, map[string]string{
		"src/index.html":    `<html><head><title>${title}</title></head><body>${greeting}</body></html>`,
		"src/about-us.html": `<title>${title}</title><a href="${publicPath}x">`,
	},
		New(Config{Template: "src/index.html", Options: map[string]any{"greeting": "hi"}}, nil),
		New(Config{Template: "src/about-us.html", Filename: "docs/about-us.html"}, nil),
	)

	stats, err := c.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"index.html", "docs/about-us.html"}, stats.Assets)
	assert.Equal(t, `<html><head><title>Index</title></head><body>hi</body></html>`, asset(t, *comp, "index.html"))
	assert.Equal(t, `<title>About Us</title><a href="../x">`, asset(t, *comp, "docs/about-us.html"))
}

func TestGeneratorExplicitEmptyPublicPath(t *testing.T) {
	c, comp := setup(t, map[string]string{
		"about.html": `<a href="${publicPath}x">`,
	}, New(Config{Template: "about.html", Filename: "docs/about.html"}, nil))
	c.Output.PublicPath = publicpath.Set("")

	_, err := c.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, `<a href="x">`, asset(t, *comp, "docs/about.html"))
}

func TestGeneratorGoTemplate(t *testing.T) {
	c, comp := setup(t, map[string]string{
		"page.tmpl": `<link href="{{ asset "main.css" }}"><h1>{{ .title | upper }}</h1>`,
	}, New(Config{Template: "page.tmpl", Filename: "page.html", Options: map[string]any{"title": "x"}}, nil))
	c.Output.PublicPath = publicpath.Set("/static/")

	_, err := c.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, `<link href="/static/main.css"><h1>X</h1>`, asset(t, *comp, "page.html"))
}

func TestBeforeEmitHook(t *testing.T) {
	c, comp := setup(t, map[string]string{"index.html": `<body></body>`},
		New(Config{Template: "index.html"}, nil))
	var seen []string
	c.Hooks.Compilation.Tap("observer", func(comp *compiler.Compilation) error {
		HooksFor(comp).BeforeEmit.Tap("observer", func(d *BeforeEmitData) error {
			seen = append(seen, d.OutputName)
			d.HTML += "<!-- seen -->"
			return nil
		})
		return nil
	})

	_, err := c.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"index.html"}, seen)
	assert.Equal(t, `<body></body><!-- seen -->`, asset(t, *comp, "index.html"))
}

func TestGeneratorErrors(t *testing.T) {
	c, _ := setup(t, map[string]string{"index.html": `${missing}`}, New(Config{Template: "index.html"}, nil))
	_, err := c.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryBuild))
	assert.True(t, errors.HasCategory(err, errors.CategoryRender))

	c, _ = setup(t, nil, New(Config{Template: "nope.html"}, nil))
	_, err = c.Run(context.Background())
	assert.True(t, errors.HasCategory(err, errors.CategoryFileSystem))

	_, err = compiler.New(compiler.Options{Context: t.TempDir()}, New(Config{}, nil))
	assert.True(t, errors.HasCategory(err, errors.CategoryConfig))
}

func TestDefaultTitle(t *testing.T) {
	assert.Equal(t, "Index", DefaultTitle("index.html"))
	assert.Equal(t, "About Us", DefaultTitle("docs/about-us.html"))
	assert.Equal(t, "Release Notes", DefaultTitle("release_notes.htm"))
}
