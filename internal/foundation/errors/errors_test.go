package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifiedError(t *testing.T) {
	t.Run("Basic error creation", func(t *testing.T) {
		err := NewError(CategoryConfig, "invalid configuration").
			WithSeverity(SeverityFatal).
			WithContext("file", "docpartials.yaml").
			Build()

		assert.Equal(t, CategoryConfig, err.Category())
		assert.Equal(t, SeverityFatal, err.Severity())
		assert.Equal(t, "invalid configuration", err.Message())

		file, ok := err.Context().GetString("file")
		require.True(t, ok)
		assert.Equal(t, "docpartials.yaml", file)
	})

	t.Run("Partial path in message", func(t *testing.T) {
		cause := errors.New("boom")
		err := ExecutionFailure("partial module evaluation failed").
			WithCause(cause).
			WithPartial("partials/nav.html", "abc.html").
			Build()

		assert.Equal(t, "[execution:fatal] partials/nav.html: partial module evaluation failed: boom", err.Error())
		assert.Equal(t, "partials/nav.html", err.PartialPath())
		assert.ErrorIs(t, err, cause)
		assert.True(t, err.IsFatal())
	})

	t.Run("Missing target is recoverable", func(t *testing.T) {
		err := MissingTargetDocument("target document not found").Build()
		assert.False(t, err.IsFatal())
		assert.Equal(t, SeverityWarning, err.Severity())
	})
}

func TestHasCategoryWalksChain(t *testing.T) {
	inner := InvalidPartialOutput("partial did not return html").WithPartial("p.mod", "").Build()
	outer := CompilationFailure("child compilation failed").WithCause(inner).Build()
	wrapped := fmt.Errorf("build: %w", outer)

	assert.True(t, IsClassified(wrapped))
	assert.True(t, HasCategory(wrapped, CategoryCompilation))
	assert.True(t, HasCategory(wrapped, CategoryInvalidOutput))
	assert.False(t, HasCategory(wrapped, CategoryRender))
	assert.Equal(t, "p.mod", PartialPathOf(wrapped))
	assert.Equal(t, CategoryCompilation, GetCategory(wrapped))
	assert.Equal(t, CategoryInternal, GetCategory(errors.New("plain")))
}

func TestWithContextDoesNotMutate(t *testing.T) {
	base := BuildError("emit failed").WithContext("a", 1).Build()
	next := base.WithContext("b", 2)

	_, ok := base.Context().Get("b")
	assert.False(t, ok)
	v, ok := next.Context().Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)
}

func TestErrorContextMerge(t *testing.T) {
	var empty ErrorContext
	other := ErrorContext{"k": "v"}
	assert.Equal(t, other, empty.Merge(other))

	merged := ErrorContext{"k": "old", "x": 1}.Merge(other)
	assert.Equal(t, "v", merged["k"])
	assert.Equal(t, 1, merged["x"])
}
