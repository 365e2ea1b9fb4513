package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

const (
	debounce = 50 * time.Millisecond
	waitFor  = 3 * time.Second
	pollTick = 10 * time.Millisecond
)

func counter(n *atomic.Int32, err error) RebuildFunc {
	return func(ctx context.Context) (int, error) {
		n.Add(1)
		return 7, err
	}
}

func TestWatcher_RebuildsOnDocumentChange(t *testing.T) {
	defer goleak.VerifyNone(t)

	root := t.TempDir()
	var rebuilds atomic.Int32
	w, err := New([]string{root}, []string{".md"}, counter(&rebuilds, nil), debounce)
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()
	assert.True(t, w.IsWatching())

	require.NoError(t, os.WriteFile(filepath.Join(root, "a.md"), []byte("---\nid: a\n---\n"), 0644))

	require.Eventually(t, func() bool { return rebuilds.Load() >= 1 }, waitFor, pollTick)
	stats := w.Stats()
	assert.GreaterOrEqual(t, stats.Events, 1)
	assert.Equal(t, 7, stats.LastNodes)
	assert.Equal(t, filepath.Join(root, "a.md"), stats.LastEventPath)
}

func TestWatcher_DebouncesBursts(t *testing.T) {
	defer goleak.VerifyNone(t)

	root := t.TempDir()
	var rebuilds atomic.Int32
	w, err := New([]string{root}, []string{".md"}, counter(&rebuilds, nil), 200*time.Millisecond)
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	for i := 0; i < 5; i++ {
		name := filepath.Join(root, string(rune('a'+i))+".md")
		require.NoError(t, os.WriteFile(name, []byte("x"), 0644))
	}

	require.Eventually(t, func() bool { return rebuilds.Load() >= 1 }, waitFor, pollTick)
	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, int32(1), rebuilds.Load())
}

func TestWatcher_IgnoresOtherExtensionsAndHiddenFiles(t *testing.T) {
	defer goleak.VerifyNone(t)

	root := t.TempDir()
	var rebuilds atomic.Int32
	w, err := New([]string{root}, []string{".md"}, counter(&rebuilds, nil), debounce)
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, ".draft.md"), []byte("x"), 0644))

	time.Sleep(4 * debounce)
	assert.Equal(t, int32(0), rebuilds.Load())
	assert.Equal(t, 0, w.Stats().Events)
}

func TestWatcher_WatchesNewAndNestedDirectories(t *testing.T) {
	defer goleak.VerifyNone(t)

	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "sub", "deeper"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".git"), 0755))

	var rebuilds atomic.Int32
	w, err := New([]string{root, filepath.Join(root, "missing")}, []string{".md"}, counter(&rebuilds, nil), debounce)
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	assert.ElementsMatch(t, []string{root, filepath.Join(root, "sub"), filepath.Join(root, "sub", "deeper")}, w.WatchedDirs())

	require.NoError(t, os.WriteFile(filepath.Join(root, "sub", "deeper", "x.md"), []byte("x"), 0644))
	require.Eventually(t, func() bool { return rebuilds.Load() >= 1 }, waitFor, pollTick)

	fresh := filepath.Join(root, "fresh")
	require.NoError(t, os.Mkdir(fresh, 0755))
	require.Eventually(t, func() bool {
		for _, d := range w.WatchedDirs() {
			if d == fresh {
				return true
			}
		}
		return false
	}, waitFor, pollTick)
}

func TestWatcher_CountsFailures(t *testing.T) {
	defer goleak.VerifyNone(t)

	root := t.TempDir()
	var rebuilds atomic.Int32
	w, err := New([]string{root}, []string{".md"}, counter(&rebuilds, errors.New("disk full")), debounce)
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	require.NoError(t, os.WriteFile(filepath.Join(root, "a.md"), []byte("x"), 0644))
	require.Eventually(t, func() bool { return w.Stats().Failures >= 1 }, waitFor, pollTick)
	assert.Equal(t, 0, w.Stats().Rebuilds)
}

func TestWatcher_ContextCancelStopsLoop(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	w, err := New([]string{t.TempDir()}, []string{".md"}, func(context.Context) (int, error) { return 0, nil }, 0)
	require.NoError(t, err)
	require.NoError(t, w.Start(ctx))

	cancel()
	select {
	case <-w.Done():
	case <-time.After(waitFor):
		t.Fatal("event loop did not exit")
	}
	w.Stop()
	w.Stop()
	assert.False(t, w.IsWatching())
}
