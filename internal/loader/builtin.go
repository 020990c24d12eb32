package loader

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
	"gopkg.in/yaml.v3"
)

// ExportBlock is the block name the wrapping loaders default-export as a factory.
const ExportBlock = "partial"

// Markdown renders markdown to HTML, dropping YAML front matter. Front matter
// that is not a valid YAML mapping fails the load.
type Markdown struct{}

func (Markdown) Name() string { return "markdown" }

func (Markdown) Load(_ *Context, src []byte) ([]byte, error) {
	body, err := stripFrontMatter(src)
	if err != nil {
		return nil, err
	}
	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(html.WithUnsafe()),
	)
	var buf bytes.Buffer
	if err := md.Convert(body, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// stripFrontMatter removes a leading --- delimited front matter block after
// checking that it parses as a YAML mapping. A missing closing delimiter leaves
// the source untouched.
func stripFrontMatter(src []byte) ([]byte, error) {
	content := string(src)
	lineEnd := "\n"
	switch {
	case strings.HasPrefix(content, "---\r\n"):
		lineEnd = "\r\n"
	case strings.HasPrefix(content, "---\n"):
	default:
		return src, nil
	}
	start := len("---") + len(lineEnd)
	closing := "---" + lineEnd
	if strings.HasPrefix(content[start:], closing) {
		return []byte(content[start+len(closing):]), nil
	}
	end := strings.Index(content[start:], lineEnd+closing)
	if end < 0 {
		return src, nil
	}
	var fm map[string]any
	if err := yaml.Unmarshal([]byte(content[start:start+end]), &fm); err != nil {
		return nil, fmt.Errorf("front matter: %w", err)
	}
	return []byte(content[start+end+len(lineEnd)+len(closing):]), nil
}

// HTML wraps static HTML in a module that default-exports an HTML factory.
type HTML struct{}

func (HTML) Name() string { return "html" }

func (HTML) Load(_ *Context, src []byte) ([]byte, error) {
	return wrapFactory("{{ " + strconv.Quote(string(src)) + " }}"), nil
}

// Template wraps Go template source in a default-exported factory; the
// template sees render parameters as dot and the module helpers as functions.
type Template struct{}

func (Template) Name() string { return "template" }

func (Template) Load(_ *Context, src []byte) ([]byte, error) {
	return wrapFactory(string(src)), nil
}

// Module passes compiled module code through unchanged.
type Module struct{}

func (Module) Name() string { return "module" }

func (Module) Load(_ *Context, src []byte) ([]byte, error) { return src, nil }

func wrapFactory(body string) []byte {
	var b strings.Builder
	b.WriteString(`{{- exportDefault (factory "` + ExportBlock + `") -}}`)
	b.WriteString(`{{- define "` + ExportBlock + `" -}}`)
	b.WriteString(body)
	b.WriteString(`{{- end -}}`)
	return []byte(b.String())
}
