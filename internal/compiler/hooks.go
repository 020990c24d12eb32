package compiler

import (
	"context"
	"sort"
	"sync"
)

// Process-assets stages. Taps run in ascending stage order; taps sharing a
// stage run in the order they were registered.
const (
	// StageAdditional adds assets that do not depend on other assets.
	StageAdditional = -2000
	// StageAdditions adds assets derived from existing ones.
	StageAdditions = -100
	// StageOptimize rewrites existing assets.
	StageOptimize = 100
	// StageOptimizeInline inlines assets into other assets.
	StageOptimizeInline = 700
	// StageSummarize runs after every content mutation and before emission.
	StageSummarize = 1000
	// StageReport only reads assets.
	StageReport = 5000
)

// StageName returns a stable label for a stage number.
func StageName(stage int) string {
	switch stage {
	case StageAdditional:
		return "additional"
	case StageAdditions:
		return "additions"
	case StageOptimize:
		return "optimize"
	case StageOptimizeInline:
		return "optimize_inline"
	case StageSummarize:
		return "summarize"
	case StageReport:
		return "report"
	default:
		return "custom"
	}
}

type tap[F any] struct {
	name string
	fn   F
}

// SyncHook calls its taps one after another. The first error stops the call.
type SyncHook[T any] struct {
	mu   sync.Mutex
	taps []tap[func(T) error]
}

// Tap registers fn under name.
func (h *SyncHook[T]) Tap(name string, fn func(T) error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.taps = append(h.taps, tap[func(T) error]{name: name, fn: fn})
}

// Len reports the number of taps.
func (h *SyncHook[T]) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.taps)
}

// Call invokes every tap with arg.
func (h *SyncHook[T]) Call(arg T) error {
	for _, t := range h.snapshot() {
		if err := t.fn(arg); err != nil {
			return &HookError{Tap: t.name, Err: err}
		}
	}
	return nil
}

func (h *SyncHook[T]) snapshot() []tap[func(T) error] {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]tap[func(T) error](nil), h.taps...)
}

// ParallelHook runs all taps concurrently and waits for every one of them.
// The first error (in tap order) is returned.
type ParallelHook[T any] struct {
	mu   sync.Mutex
	taps []tap[func(context.Context, T) error]
}

// Tap registers fn under name.
func (h *ParallelHook[T]) Tap(name string, fn func(context.Context, T) error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.taps = append(h.taps, tap[func(context.Context, T) error]{name: name, fn: fn})
}

// Call starts every tap and blocks until all have returned.
func (h *ParallelHook[T]) Call(ctx context.Context, arg T) error {
	h.mu.Lock()
	taps := append([]tap[func(context.Context, T) error](nil), h.taps...)
	h.mu.Unlock()

	errs := make([]error, len(taps))
	var wg sync.WaitGroup
	for i, t := range taps {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := t.fn(ctx, arg); err != nil {
				errs[i] = &HookError{Tap: t.name, Err: err}
			}
		}()
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return ctx.Err()
}

type stagedTap struct {
	name  string
	stage int
	seq   int
	fn    func(context.Context, *Compilation) error
}

// StagedHook is the process-assets hook of a compilation.
type StagedHook struct {
	mu   sync.Mutex
	taps []stagedTap
}

// Tap registers fn to run at stage.
func (h *StagedHook) Tap(name string, stage int, fn func(context.Context, *Compilation) error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.taps = append(h.taps, stagedTap{name: name, stage: stage, seq: len(h.taps), fn: fn})
}

// ordered returns the taps sorted by stage, then registration order.
func (h *StagedHook) ordered() []stagedTap {
	h.mu.Lock()
	taps := append([]stagedTap(nil), h.taps...)
	h.mu.Unlock()
	sort.SliceStable(taps, func(i, j int) bool {
		if taps[i].stage != taps[j].stage {
			return taps[i].stage < taps[j].stage
		}
		return taps[i].seq < taps[j].seq
	})
	return taps
}

// HookError names the tap that failed.
type HookError struct {
	Tap string
	Err error
}

func (e *HookError) Error() string { return e.Tap + ": " + e.Err.Error() }

func (e *HookError) Unwrap() error { return e.Err }
