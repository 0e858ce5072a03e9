package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatchDebouncesWrites(t *testing.T) {
	dir := t.TempDir()
	asset := filepath.Join(dir, "scene.splat")
	other := filepath.Join(dir, "other.splat")
	require.NoError(t, os.WriteFile(asset, []byte("a"), 0o644))

	fw, err := New(100*time.Millisecond, zerolog.Nop())
	require.NoError(t, err)
	defer fw.Close()

	var calls atomic.Int32
	changed := make(chan string, 4)
	require.NoError(t, fw.Watch(asset, func(path string) {
		calls.Add(1)
		changed <- path
	}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	fw.Start(ctx)

	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(asset, []byte{byte('b' + i)}, 0o644))
	}
	require.NoError(t, os.WriteFile(other, []byte("x"), 0o644))

	select {
	case path := <-changed:
		abs, _ := filepath.Abs(asset)
		assert.Equal(t, abs, path)
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}

	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
}

func TestUnwatch(t *testing.T) {
	dir := t.TempDir()
	asset := filepath.Join(dir, "scene.ply")
	require.NoError(t, os.WriteFile(asset, []byte("ply"), 0o644))

	fw, err := New(20*time.Millisecond, zerolog.Nop())
	require.NoError(t, err)
	defer fw.Close()

	var calls atomic.Int32
	require.NoError(t, fw.Watch(asset, func(string) { calls.Add(1) }))
	require.NoError(t, fw.Unwatch(asset))
	require.NoError(t, fw.Unwatch(asset))

	fw.Start(context.Background())
	require.NoError(t, os.WriteFile(asset, []byte("ply2"), 0o644))
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, int32(0), calls.Load())
}

func TestWatchMissingDirectory(t *testing.T) {
	fw, err := New(time.Millisecond, zerolog.Nop())
	require.NoError(t, err)
	defer fw.Close()

	err = fw.Watch(filepath.Join(t.TempDir(), "missing", "scene.splat"), func(string) {})
	assert.Error(t, err)
}
