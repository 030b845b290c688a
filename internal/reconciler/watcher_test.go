package reconciler

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigWatcher_DebouncesWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mcp_config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"servers":{}}`), 0644))

	var changes atomic.Int32
	watcher := NewConfigWatcher(path, 100*time.Millisecond, func() { changes.Add(1) })
	require.NoError(t, watcher.Start(context.Background()))
	defer watcher.Stop()

	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(path, []byte(`{"servers":{"a":{"command":"x"}}}`), 0644))
		time.Sleep(10 * time.Millisecond)
	}

	assert.Eventually(t, func() bool { return changes.Load() == 1 }, 2*time.Second, 20*time.Millisecond)
	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, int32(1), changes.Load())
}

func TestConfigWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mcp_config.json")

	var changes atomic.Int32
	watcher := NewConfigWatcher(path, 50*time.Millisecond, func() { changes.Add(1) })
	require.NoError(t, watcher.Start(context.Background()))
	defer watcher.Stop()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hi"), 0644))
	time.Sleep(300 * time.Millisecond)
	assert.Zero(t, changes.Load())
}

func TestConfigWatcher_RenameIntoPlace(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mcp_config.json")

	done := make(chan struct{}, 1)
	watcher := NewConfigWatcher(path, 50*time.Millisecond, func() { done <- struct{}{} })
	require.NoError(t, watcher.Start(context.Background()))
	defer watcher.Stop()

	tmp := filepath.Join(dir, ".mcp_config-1.json")
	require.NoError(t, os.WriteFile(tmp, []byte(`{"servers":{}}`), 0644))
	require.NoError(t, os.Rename(tmp, path))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("rename was not reported")
	}
}

func TestConfigWatcher_StopIsIdempotent(t *testing.T) {
	watcher := NewConfigWatcher(filepath.Join(t.TempDir(), "mcp_config.json"), 0, nil)
	require.NoError(t, watcher.Start(context.Background()))
	assert.NoError(t, watcher.Stop())
	assert.NoError(t, watcher.Stop())
}

type recordingBroadcaster struct {
	mu        sync.Mutex
	envelopes []any
}

func (r *recordingBroadcaster) Broadcast(envelope any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.envelopes = append(r.envelopes, envelope)
	return nil
}

func TestNotifyToolsChanged(t *testing.T) {
	b := &recordingBroadcaster{}
	NotifyToolsChanged(b)()

	require.Len(t, b.envelopes, 1)
	data, err := json.Marshal(b.envelopes[0])
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "2.0", decoded["jsonrpc"])
	assert.Equal(t, "notifications/tools/list_changed", decoded["method"])
	assert.NotContains(t, decoded, "id")
}
