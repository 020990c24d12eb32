// Package compiler is the host build tool the partials pipeline plugs into.
//
// A Compiler runs Compilations. Each run creates a fresh Compilation, lets
// plugins register entries from the Make hook, compiles every entry through
// the loader chain into an asset, runs the staged ProcessAssets taps and
// finally writes the asset store to the output directory. Child compilers run
// inside a parent compilation, share its loaders and never emit.
package compiler

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"git.home.luguber.info/inful/docpartials/internal/foundation/errors"
	"git.home.luguber.info/inful/docpartials/internal/loader"
	"git.home.luguber.info/inful/docpartials/internal/logfields"
	"git.home.luguber.info/inful/docpartials/internal/metrics"
	"git.home.luguber.info/inful/docpartials/internal/publicpath"
)

// DefaultFilename names entry assets when OutputOptions.Filename is empty.
const DefaultFilename = "[name]"

// OutputOptions controls where and how assets are written.
type OutputOptions struct {
	// Path is the output root.
	Path string
	// PublicPath is an explicit URL prefix or publicpath.Auto. Nil means Auto;
	// an explicit "" keeps asset references unprefixed.
	PublicPath *string
	// Filename is the asset name pattern for entries; [name] is the entry name.
	Filename string
	// Clean empties Path before emitting.
	Clean bool
}

// AssetName applies the filename pattern to an entry name.
func (o OutputOptions) AssetName(entry string) string {
	pattern := o.Filename
	if pattern == "" {
		pattern = DefaultFilename
	}
	return strings.ReplaceAll(pattern, "[name]", entry)
}

// PublicPathFor resolves the public path an asset emitted under name should use.
func (o OutputOptions) PublicPathFor(name, hash string) string {
	publicPath := publicpath.Auto
	if o.PublicPath != nil {
		publicPath = *o.PublicPath
	}
	return publicpath.Resolve(publicpath.Config{
		PublicPath: publicPath,
		OutputPath: o.Path,
		Hash:       hash,
	}, name)
}

// Hooks are the extension points of a Compiler.
type Hooks struct {
	// ThisCompilation fires for compilations of this compiler only.
	ThisCompilation SyncHook[*Compilation]
	// Compilation fires for this compiler and is inherited by child compilers.
	Compilation SyncHook[*Compilation]
	// Make fires before entries are compiled. Taps run concurrently and may block.
	Make ParallelHook[*Compilation]
	// Done fires after a successful run.
	Done SyncHook[*Stats]
}

// Plugin registers taps on a compiler.
type Plugin interface {
	Name() string
	Apply(c *Compiler) error
}

// Options configure a new Compiler.
type Options struct {
	Name     string
	Context  string
	Output   OutputOptions
	Loaders  *loader.Chain
	Logger   *slog.Logger
	Recorder metrics.Recorder
	NoEmit   bool
}

// Compiler creates and runs compilations.
type Compiler struct {
	Name     string
	Context  string
	Output   OutputOptions
	Loaders  *loader.Chain
	Logger   *slog.Logger
	Recorder metrics.Recorder
	// NoEmit keeps assets in memory.
	NoEmit bool
	Hooks  *Hooks

	parent *Compilation
}

// Stats summarizes a finished run.
type Stats struct {
	BuildID  string
	Hash     string
	Assets   []string
	Warnings []error
	Duration time.Duration
}

// New creates a compiler and applies plugins in order.
func New(opts Options, plugins ...Plugin) (*Compiler, error) {
	if opts.Name == "" {
		opts.Name = "main"
	}
	if opts.Context == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, errors.FileSystemError("cannot determine working directory").WithCause(err).Build()
		}
		opts.Context = wd
	}
	if opts.Loaders == nil {
		opts.Loaders = loader.Default()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	c := &Compiler{
		Name:     opts.Name,
		Context:  opts.Context,
		Output:   opts.Output,
		Loaders:  opts.Loaders,
		Logger:   opts.Logger,
		Recorder: metrics.OrNoop(opts.Recorder),
		NoEmit:   opts.NoEmit,
		Hooks:    &Hooks{},
	}
	for _, p := range plugins {
		if err := p.Apply(c); err != nil {
			return nil, errors.ConfigError("plugin setup failed").
				WithCause(err).
				WithContext("plugin", p.Name()).
				Build()
		}
	}
	return c, nil
}

// IsChild reports whether c was created by CreateChildCompiler.
func (c *Compiler) IsChild() bool { return c.parent != nil }

// Parent returns the compilation that created a child compiler.
func (c *Compiler) Parent() *Compilation { return c.parent }

// Run performs one complete build: compile, process assets, emit.
func (c *Compiler) Run(ctx context.Context) (*Stats, error) {
	start := time.Now()
	comp, err := c.compile(ctx)
	if err == nil && !c.NoEmit {
		err = c.emit(comp)
	}
	elapsed := time.Since(start)
	c.Recorder.ObserveBuildDuration(elapsed)
	if err != nil {
		outcome := metrics.BuildOutcomeFailed
		if ctx.Err() != nil {
			outcome = metrics.BuildOutcomeCanceled
		}
		c.Recorder.IncBuildOutcome(outcome)
		return nil, err
	}

	stats := &Stats{
		BuildID:  comp.ID(),
		Hash:     comp.Hash(),
		Assets:   comp.AssetNames(),
		Warnings: comp.Warnings(),
		Duration: elapsed,
	}
	if len(stats.Warnings) > 0 {
		c.Recorder.IncBuildOutcome(metrics.BuildOutcomeWarning)
	} else {
		c.Recorder.IncBuildOutcome(metrics.BuildOutcomeSuccess)
	}
	if err := c.Hooks.Done.Call(stats); err != nil {
		return stats, err
	}
	comp.Logger().Info("Build complete",
		slog.Int("assets", len(stats.Assets)),
		slog.Int("warnings", len(stats.Warnings)),
		logfields.DurationMS(float64(elapsed.Microseconds())/1000))
	return stats, nil
}

// RunAsChild runs a child compiler to completion. Assets still present in the
// child compilation afterwards are added to the parent compilation, and the
// child hash becomes part of the parent hash.
func (c *Compiler) RunAsChild(ctx context.Context) (*Compilation, error) {
	if c.parent == nil {
		return nil, errors.InternalError("RunAsChild called on a root compiler").Build()
	}
	comp, err := c.compile(ctx)
	if err != nil {
		return comp, err
	}
	for _, name := range comp.AssetNames() {
		src, _ := comp.GetAsset(name)
		if err := c.parent.EmitAsset(name, src); err != nil {
			return comp, err
		}
	}
	for _, w := range comp.Warnings() {
		c.parent.AddWarning(w)
	}
	c.parent.addChild(c.Name, comp.Hash())
	return comp, nil
}

func (c *Compiler) compile(ctx context.Context) (*Compilation, error) {
	comp := newCompilation(c)
	comp.Logger().Debug("Compilation started", slog.Bool("child", c.IsChild()))

	if err := c.Hooks.ThisCompilation.Call(comp); err != nil {
		return comp, err
	}
	if err := c.Hooks.Compilation.Call(comp); err != nil {
		return comp, err
	}
	if err := c.Hooks.Make.Call(ctx, comp); err != nil {
		return comp, err
	}
	if err := comp.seal(ctx); err != nil {
		return comp, err
	}
	return comp, nil
}

// emit writes the asset store below Output.Path.
func (c *Compiler) emit(comp *Compilation) error {
	root := c.Output.Path
	if root == "" {
		return errors.ConfigError("output path is empty").Build()
	}
	if !filepath.IsAbs(root) {
		root = filepath.Join(c.Context, root)
	}
	if c.Output.Clean {
		if err := cleanDir(root, c.Context); err != nil {
			return err
		}
	}
	for _, name := range comp.AssetNames() {
		src, _ := comp.GetAsset(name)
		dst := filepath.Join(root, filepath.FromSlash(name))
		if !strings.HasPrefix(dst, filepath.Clean(root)+string(filepath.Separator)) {
			return errors.ValidationError("asset escapes output path").WithContext("asset", name).Build()
		}
		if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
			return errors.FileSystemError("cannot create output directory").WithCause(err).WithContext("asset", name).Build()
		}
		if err := os.WriteFile(dst, src, 0o600); err != nil {
			return errors.FileSystemError("cannot write asset").WithCause(err).WithContext("asset", name).Build()
		}
		comp.Logger().Debug("Emitted asset", logfields.Asset(name), slog.Int("bytes", len(src)))
	}
	return nil
}

func cleanDir(root, contextDir string) error {
	clean := filepath.Clean(root)
	if clean == filepath.Clean(contextDir) || clean == string(filepath.Separator) || clean == "." {
		return errors.ConfigError(fmt.Sprintf("refusing to clean %s", clean)).Build()
	}
	entries, err := os.ReadDir(clean)
	if stderrors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return errors.FileSystemError("cannot read output directory").WithCause(err).Build()
	}
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(clean, e.Name())); err != nil {
			return errors.FileSystemError("cannot clean output directory").WithCause(err).Build()
		}
	}
	return nil
}
