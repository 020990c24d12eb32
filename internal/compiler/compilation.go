package compiler

import (
	"context"
	"encoding/hex"
	stderrors "errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/zeebo/blake3"

	"git.home.luguber.info/inful/docpartials/internal/foundation/errors"
	"git.home.luguber.info/inful/docpartials/internal/loader"
	"git.home.luguber.info/inful/docpartials/internal/logfields"
	"git.home.luguber.info/inful/docpartials/internal/metrics"
)

// InlineModulePrefix marks a request whose module code follows the comma.
const InlineModulePrefix = "data:module,"

// hashLength is the number of hex digits kept from the content hash.
const hashLength = 20

// ErrAssetExists is returned by EmitAsset for a name already in the store.
var ErrAssetExists = stderrors.New("asset already exists")

// ErrAssetNotFound is returned when updating an asset that was never emitted.
var ErrAssetNotFound = stderrors.New("asset not found")

// Entry is a named chunk assembled from one or more requests.
type Entry struct {
	Name     string
	Requests []Request
}

// Request is one module request within an entry.
type Request struct {
	Context string
	Request string
}

// ModuleError reports a request that failed to compile.
type ModuleError struct {
	Entry   string
	Request string
	Err     error
}

func (e *ModuleError) Error() string {
	return fmt.Sprintf("entry %s: module %s: %v", e.Entry, e.Request, e.Err)
}

func (e *ModuleError) Unwrap() error { return e.Err }

// Compilation is a single build pass of a Compiler. It owns the asset store
// and everything produced during the pass; nothing carries over to the next one.
type Compilation struct {
	compiler *Compiler
	id       string
	logger   *slog.Logger
	recorder metrics.Recorder

	// ProcessAssets runs after entries are compiled and before emission.
	ProcessAssets StagedHook

	mu       sync.Mutex
	entries  []*Entry
	names    []string
	assets   map[string][]byte
	errs     []error
	warnings []error
	hash     string
	children []string
	ext      map[any]any
}

func newCompilation(c *Compiler) *Compilation {
	id := uuid.NewString()
	return &Compilation{
		compiler: c,
		id:       id,
		logger:   c.Logger.With(logfields.Compiler(c.Name), logfields.BuildID(id)),
		recorder: c.Recorder,
		assets:   make(map[string][]byte),
	}
}

// ID is unique per compilation.
func (c *Compilation) ID() string { return c.id }

// Compiler returns the compiler that created the compilation.
func (c *Compilation) Compiler() *Compiler { return c.compiler }

// Logger is scoped to the compilation.
func (c *Compilation) Logger() *slog.Logger { return c.logger }

// Hash is the content hash of the compiled entries and of every child
// compilation run before sealing. It is empty until the entries have been compiled.
func (c *Compilation) Hash() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hash
}

// Extension returns the value stored under key, calling create to store one on
// first use. Plugins keep per-compilation state here so it is dropped with the
// compilation.
func (c *Compilation) Extension(key any, create func() any) any {
	c.mu.Lock()
	defer c.mu.Unlock()
	if v, ok := c.ext[key]; ok {
		return v
	}
	if c.ext == nil {
		c.ext = make(map[any]any)
	}
	v := create()
	c.ext[key] = v
	return v
}

// AddEntry appends request, resolved against dir, to the entry called name,
// creating the entry on first use.
func (c *Compilation) AddEntry(dir, request, name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range c.entries {
		if e.Name == name {
			e.Requests = append(e.Requests, Request{Context: dir, Request: request})
			return
		}
	}
	c.entries = append(c.entries, &Entry{Name: name, Requests: []Request{{Context: dir, Request: request}}})
}

// Entries returns the registered entries in order.
func (c *Compilation) Entries() []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Entry, len(c.entries))
	for i, e := range c.entries {
		out[i] = Entry{Name: e.Name, Requests: append([]Request(nil), e.Requests...)}
	}
	return out
}

// CompileModule turns one request into module code. Inline requests are
// returned verbatim; anything else is read relative to dir and run through
// the compiler's loader chain.
func (c *Compilation) CompileModule(dir, request string) ([]byte, error) {
	if code, ok := strings.CutPrefix(request, InlineModulePrefix); ok {
		return []byte(code), nil
	}
	resource := request
	if !filepath.IsAbs(resource) {
		resource = filepath.Join(dir, request)
	}
	src, err := os.ReadFile(resource)
	if err != nil {
		return nil, errors.FileSystemError("cannot read module source").
			WithCause(err).
			WithContext("resource", resource).
			Build()
	}
	out, err := c.compiler.Loaders.Run(&loader.Context{
		Request:  request,
		Resource: resource,
		Logger:   c.logger,
	}, src)
	if err != nil {
		return nil, errors.BuildError("module build failed").
			WithCause(err).
			WithContext("resource", resource).
			Build()
	}
	return out, nil
}

// AssetNames lists assets in emission order.
func (c *Compilation) AssetNames() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.names...)
}

// GetAsset returns a copy of an asset's content.
func (c *Compilation) GetAsset(name string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	src, ok := c.assets[name]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), src...), true
}

// EmitAsset adds a new asset.
func (c *Compilation) EmitAsset(name string, src []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.assets[name]; ok {
		return fmt.Errorf("%w: %s", ErrAssetExists, name)
	}
	c.assets[name] = append([]byte(nil), src...)
	c.names = append(c.names, name)
	return nil
}

// UpdateAsset replaces the content of an existing asset.
func (c *Compilation) UpdateAsset(name string, src []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.assets[name]; !ok {
		return fmt.Errorf("%w: %s", ErrAssetNotFound, name)
	}
	c.assets[name] = append([]byte(nil), src...)
	return nil
}

// DeleteAsset removes an asset and reports whether it existed.
func (c *Compilation) DeleteAsset(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.assets[name]; !ok {
		return false
	}
	delete(c.assets, name)
	for i, n := range c.names {
		if n == name {
			c.names = append(c.names[:i], c.names[i+1:]...)
			break
		}
	}
	return true
}

// AddError records a build error. Any error fails the compilation.
func (c *Compilation) AddError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errs = append(c.errs, err)
}

// AddWarning records a non-fatal problem.
func (c *Compilation) AddWarning(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.warnings = append(c.warnings, err)
}

func (c *Compilation) Errors() []error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]error(nil), c.errs...)
}

func (c *Compilation) Warnings() []error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]error(nil), c.warnings...)
}

// Err joins the recorded errors.
func (c *Compilation) Err() error {
	return stderrors.Join(c.Errors()...)
}

// CreateChildCompiler returns a compiler sharing this compilation's context,
// loaders and logger. Output fields left empty are inherited. Compilation taps
// of the parent compiler are copied; ThisCompilation taps are not.
func (c *Compilation) CreateChildCompiler(name string, output OutputOptions) *Compiler {
	parent := c.compiler
	merged := parent.Output
	if output.Path != "" {
		merged.Path = output.Path
	}
	if output.PublicPath != nil {
		merged.PublicPath = output.PublicPath
	}
	if output.Filename != "" {
		merged.Filename = output.Filename
	}
	merged.Clean = false

	child := &Compiler{
		Name:     name,
		Context:  parent.Context,
		Output:   merged,
		Loaders:  parent.Loaders,
		Logger:   parent.Logger,
		Recorder: parent.Recorder,
		NoEmit:   true,
		Hooks:    &Hooks{},
		parent:   c,
	}
	child.Hooks.Compilation.taps = parent.Hooks.Compilation.snapshot()
	return child
}

// addChild folds a finished child compilation into the hash of c.
func (c *Compilation) addChild(name, hash string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.children = append(c.children, name+"\x00"+hash)
}

// seal compiles every entry into an asset, hashes the result and runs the
// process-assets stages.
func (c *Compilation) seal(ctx context.Context) error {
	hasher := blake3.New()
	for _, e := range c.Entries() {
		var code strings.Builder
		failed := false
		for _, r := range e.Requests {
			out, err := c.CompileModule(r.Context, r.Request)
			if err != nil {
				c.AddError(&ModuleError{Entry: e.Name, Request: r.Request, Err: err})
				failed = true
				continue
			}
			code.Write(out)
		}
		if failed {
			continue
		}
		name := c.compiler.Output.AssetName(e.Name)
		_, _ = hasher.Write([]byte(name))
		_, _ = hasher.Write([]byte(code.String()))
		if err := c.EmitAsset(name, []byte(code.String())); err != nil {
			c.AddError(&ModuleError{Entry: e.Name, Err: err})
		}
	}
	c.mu.Lock()
	children := slices.Clone(c.children)
	c.mu.Unlock()
	slices.Sort(children)
	for _, child := range children {
		_, _ = hasher.Write([]byte(child))
	}
	c.mu.Lock()
	c.hash = hex.EncodeToString(hasher.Sum(nil))[:hashLength]
	c.mu.Unlock()

	if len(c.Errors()) > 0 {
		return c.Err()
	}

	for _, t := range c.ProcessAssets.ordered() {
		if err := ctx.Err(); err != nil {
			return err
		}
		stage := StageName(t.stage)
		start := time.Now()
		err := t.fn(ctx, c)
		elapsed := time.Since(start)
		c.recorder.ObserveStageDuration(stage, elapsed)
		if err != nil {
			c.recorder.IncStageResult(stage, metrics.ResultFatal)
			c.logger.Error("Process assets tap failed",
				logfields.Stage(stage), slog.String("tap", t.name), logfields.Error(err))
			return &HookError{Tap: t.name, Err: err}
		}
		c.recorder.IncStageResult(stage, metrics.ResultSuccess)
		c.logger.Debug("Process assets tap finished",
			logfields.Stage(stage), slog.String("tap", t.name),
			logfields.DurationMS(float64(elapsed.Microseconds())/1000))
	}
	if len(c.Errors()) > 0 {
		return c.Err()
	}
	return nil
}
