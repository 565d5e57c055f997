package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestWatcherStartStop(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	w, err := NewWatcher(newTestEngine(t), zap.NewNop(), []string{dir})
	require.NoError(t, err)

	require.NoError(t, w.StartWatching())
	assert.Error(t, w.StartWatching())

	// the loop goroutine reads the flag concurrently with this store
	require.NoError(t, w.StopWatching())
	assert.False(t, w.isWatching.Load())
}

func TestWatcherMissingDirectory(t *testing.T) {
	t.Parallel()
	w, err := NewWatcher(newTestEngine(t), zap.NewNop(), []string{"/no/such/dir"})
	require.NoError(t, err)
	assert.Error(t, w.StartWatching())
}
