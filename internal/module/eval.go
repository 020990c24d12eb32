package module

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"text/template"

	sprig "github.com/go-task/slim-sprig/v3"
)

// Bindings are the explicit names a module may read with binding.
type Bindings map[string]any

// Env is everything an evaluation can observe of its host.
type Env struct {
	// Filename identifies the execution origin (the artifact path).
	Filename string
	Bindings Bindings
	Modules  Registry
}

// ErrAlreadyExported is returned when a module exports twice.
var ErrAlreadyExported = errors.New("module value already exported")

type evaluation struct {
	env        Env
	publicPath string
	exported   *Value
	sealed     bool
	tmpl       *template.Template
}

// Evaluate runs source in an isolated template set and returns its value.
// Nothing is shared between calls; factories returned in the value keep a
// private reference to their own evaluation.
func Evaluate(source string, env Env) (Value, error) {
	name := env.Filename
	if name == "" {
		name = "module"
	}
	ev := &evaluation{env: env}
	tmpl, err := template.New(name).Funcs(ev.funcs()).Option("missingkey=error").Parse(source)
	if err != nil {
		return Value{}, fmt.Errorf("parse module: %w", err)
	}
	ev.tmpl = tmpl

	var buf bytes.Buffer
	err = tmpl.Execute(&buf, nil)
	ev.sealed = true
	if err != nil {
		return Value{}, fmt.Errorf("evaluate module: %w", err)
	}
	if ev.exported != nil {
		return *ev.exported, nil
	}
	return Raw(buf.String()), nil
}

func (ev *evaluation) funcs() template.FuncMap {
	funcs := sprig.HermeticTxtFuncMap()
	funcs["binding"] = ev.binding
	funcs["setPublicPath"] = ev.setPublicPath
	funcs["publicPath"] = func() string { return ev.publicPath }
	funcs["asset"] = ev.asset
	funcs["filename"] = func() string { return ev.env.Filename }
	funcs["require"] = ev.require
	funcs["export"] = func(v any) (string, error) { return ev.export(Raw(v)) }
	funcs["exportDefault"] = func(v any) (string, error) { return ev.export(ESModuleDefault(v)) }
	funcs["factory"] = ev.factory
	return funcs
}

func (ev *evaluation) binding(name string) (any, error) {
	v, ok := ev.env.Bindings[name]
	if !ok {
		return nil, fmt.Errorf("%s is not defined", name)
	}
	return v, nil
}

func (ev *evaluation) setPublicPath(v any) string {
	ev.publicPath = fmt.Sprint(v)
	return ""
}

func (ev *evaluation) asset(ref string) string {
	return ev.publicPath + strings.TrimPrefix(ref, "./")
}

func (ev *evaluation) require(name string) (any, error) {
	m, ok := ev.env.Modules[name]
	if !ok {
		return nil, fmt.Errorf("cannot find module %q", name)
	}
	return m, nil
}

func (ev *evaluation) export(v Value) (string, error) {
	if ev.sealed {
		return "", errors.New("export called after module evaluation finished")
	}
	if ev.exported != nil {
		return "", ErrAlreadyExported
	}
	ev.exported = &v
	return "", nil
}

func (ev *evaluation) factory(block string) (Factory, error) {
	if ev.tmpl.Lookup(block) == nil {
		return nil, fmt.Errorf("factory block %q is not defined", block)
	}
	return func(params map[string]any) (string, error) {
		if params == nil {
			params = map[string]any{}
		}
		var buf bytes.Buffer
		if err := ev.tmpl.ExecuteTemplate(&buf, block, params); err != nil {
			return "", err
		}
		return buf.String(), nil
	}, nil
}
