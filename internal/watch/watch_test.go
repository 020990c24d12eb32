package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type counter struct{ n atomic.Int32 }

func (c *counter) build(context.Context) error {
	c.n.Add(1)
	return nil
}

func (c *counter) count() int { return int(c.n.Load()) }

func start(t *testing.T, w *Watcher) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-errCh:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Error("watcher did not stop")
		}
	})
}

func TestInitialBuildAndDebouncedRebuild(t *testing.T) {
	root := t.TempDir()
	c := &counter{}
	start(t, New(Options{Root: root, Debounce: 100 * time.Millisecond}, c.build))

	require.Eventually(t, func() bool { return c.count() == 1 }, 2*time.Second, 10*time.Millisecond)

	for i := range 3 {
		require.NoError(t, os.WriteFile(filepath.Join(root, "index.html"), []byte{byte('a' + i)}, 0o600))
		time.Sleep(10 * time.Millisecond)
	}
	require.Eventually(t, func() bool { return c.count() == 2 }, 2*time.Second, 10*time.Millisecond)
	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, 2, c.count())
}

func TestNewDirectoriesAreWatched(t *testing.T) {
	root := t.TempDir()
	c := &counter{}
	start(t, New(Options{Root: root, Debounce: 50 * time.Millisecond}, c.build))
	require.Eventually(t, func() bool { return c.count() == 1 }, 2*time.Second, 10*time.Millisecond)

	sub := filepath.Join(root, "partials")
	require.NoError(t, os.Mkdir(sub, 0o750))
	require.Eventually(t, func() bool { return c.count() == 2 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(sub, "nav.html"), []byte("<nav/>"), 0o600))
	require.Eventually(t, func() bool { return c.count() == 3 }, 2*time.Second, 10*time.Millisecond)
}

func TestIgnoredPathsDoNotTrigger(t *testing.T) {
	root := t.TempDir()
	out := filepath.Join(root, "dist")
	require.NoError(t, os.Mkdir(out, 0o750))
	c := &counter{}
	start(t, New(Options{Root: root, Ignore: []string{out}, Debounce: 50 * time.Millisecond}, c.build))
	require.Eventually(t, func() bool { return c.count() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(out, "index.html"), []byte("x"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(root, ".index.html.swp"), []byte("x"), 0o600))
	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, 1, c.count())
}

func TestPeriodicRebuild(t *testing.T) {
	c := &counter{}
	start(t, New(Options{Root: t.TempDir(), Every: 100 * time.Millisecond}, c.build))
	require.Eventually(t, func() bool { return c.count() >= 3 }, 5*time.Second, 20*time.Millisecond)
}

func TestBuildErrorsDoNotStopWatching(t *testing.T) {
	root := t.TempDir()
	var calls atomic.Int32
	build := func(context.Context) error {
		calls.Add(1)
		return assert.AnError
	}
	start(t, New(Options{Root: root, Debounce: 50 * time.Millisecond}, build))
	require.Eventually(t, func() bool { return calls.Load() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(root, "a.html"), []byte("x"), 0o600))
	require.Eventually(t, func() bool { return calls.Load() == 2 }, 2*time.Second, 10*time.Millisecond)
}

func TestRunFailsForMissingRoot(t *testing.T) {
	w := New(Options{Root: filepath.Join(t.TempDir(), "missing")}, (&counter{}).build)
	assert.Error(t, w.Run(context.Background()))
}

func TestShouldIgnoreEvent(t *testing.T) {
	for _, name := range []string{".hidden", "index.html~", "a.swp", "b.swx", "#draft#", "Thumbs.db", ".DS_Store"} {
		assert.True(t, shouldIgnoreEvent(filepath.Join("/src", name)), name)
	}
	for _, name := range []string{"index.html", "footer.md", "nav.tmpl"} {
		assert.False(t, shouldIgnoreEvent(filepath.Join("/src", name)), name)
	}
}
