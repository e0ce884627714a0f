package fsnotify

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// =============================================================================
// Watcher adapter: detect changes to the status file, debounce bursts
// Expectation: one callback per settled write, none after Stop
// =============================================================================

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// waitForCallback waits up to timeout for the callback channel to receive a value.
func waitForCallback(ch <-chan string, timeout time.Duration) (string, bool) {
	select {
	case v := <-ch:
		return v, true
	case <-time.After(timeout):
		return "", false
	}
}

func startWatcher(t *testing.T, dir string) (*Watcher, <-chan string) {
	t.Helper()
	w, err := NewWatcher()
	require.NoError(t, err)
	t.Cleanup(func() { w.Stop() })

	changed := make(chan string, 10)
	require.NoError(t, w.Watch(dir, func(path string) {
		changed <- path
	}))
	// Give watcher time to start
	time.Sleep(50 * time.Millisecond)
	return w, changed
}

func TestWatcher_DetectsFileChange(t *testing.T) {
	dir := t.TempDir()
	statusFile := filepath.Join(dir, "status.json")
	require.NoError(t, os.WriteFile(statusFile, []byte(`{"position":1}`), 0644))

	_, changed := startWatcher(t, dir)

	require.NoError(t, os.WriteFile(statusFile, []byte(`{"position":2}`), 0644))

	path, ok := waitForCallback(changed, 2*time.Second)
	assert.True(t, ok, "expected callback for file change")
	assert.Equal(t, statusFile, path)
}

func TestWatcher_DetectsNewFile(t *testing.T) {
	dir := t.TempDir()
	_, changed := startWatcher(t, dir)

	newFile := filepath.Join(dir, "status.json")
	require.NoError(t, os.WriteFile(newFile, []byte("{}"), 0644))

	path, ok := waitForCallback(changed, 2*time.Second)
	assert.True(t, ok, "expected callback for new file")
	assert.Equal(t, newFile, path)
}

func TestWatcher_DetectsDeletedFile(t *testing.T) {
	// A reset removes the status file; followers must notice.
	dir := t.TempDir()
	statusFile := filepath.Join(dir, "status.json")
	require.NoError(t, os.WriteFile(statusFile, []byte("{}"), 0644))

	_, changed := startWatcher(t, dir)

	require.NoError(t, os.Remove(statusFile))

	path, ok := waitForCallback(changed, 2*time.Second)
	assert.True(t, ok, "expected callback for deleted file")
	assert.Equal(t, statusFile, path)
}

func TestWatcher_DebouncesBurst(t *testing.T) {
	dir := t.TempDir()
	statusFile := filepath.Join(dir, "status.json")
	require.NoError(t, os.WriteFile(statusFile, []byte("{}"), 0644))

	w, err := NewWatcher()
	require.NoError(t, err)
	defer w.Stop()
	w.debounce = 150 * time.Millisecond

	var mu sync.Mutex
	calls := 0
	require.NoError(t, w.Watch(dir, func(string) {
		mu.Lock()
		calls++
		mu.Unlock()
	}))
	time.Sleep(50 * time.Millisecond)

	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(statusFile, []byte(`{"position":`+string(rune('1'+i))+`}`), 0644))
		time.Sleep(10 * time.Millisecond)
	}
	time.Sleep(500 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, calls, "burst collapses into one callback")
}

func TestWatcher_IgnoresArtifacts(t *testing.T) {
	dir := t.TempDir()
	_, changed := startWatcher(t, dir)

	os.WriteFile(filepath.Join(dir, ".DS_Store"), []byte("x"), 0644)
	os.WriteFile(filepath.Join(dir, "status.json.swp"), []byte("x"), 0644)
	os.WriteFile(filepath.Join(dir, "session.db.lock"), []byte("x"), 0644)
	os.WriteFile(filepath.Join(dir, "status.json~"), []byte("x"), 0644)

	_, ok := waitForCallback(changed, 500*time.Millisecond)
	assert.False(t, ok, "should not have received callback for ignored files")

	statusFile := filepath.Join(dir, "status.json")
	require.NoError(t, os.WriteFile(statusFile, []byte("{}"), 0644))

	path, ok := waitForCallback(changed, 2*time.Second)
	assert.True(t, ok, "expected callback for status file")
	assert.Equal(t, statusFile, path)
}

func TestWatcher_NotRecursive(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "log")
	require.NoError(t, os.MkdirAll(sub, 0755))
	_, changed := startWatcher(t, dir)

	os.WriteFile(filepath.Join(sub, "survey.log"), []byte("line\n"), 0644)
	_, ok := waitForCallback(changed, 500*time.Millisecond)
	assert.False(t, ok, "subdirectory writes are not watched")
}

func TestWatcher_MissingDir(t *testing.T) {
	w, err := NewWatcher()
	require.NoError(t, err)
	defer w.Stop()
	assert.Error(t, w.Watch(filepath.Join(t.TempDir(), "absent"), func(string) {}))
}

func TestWatcher_StopCleanup(t *testing.T) {
	// After Stop(), no more callbacks fire and no goroutines remain.
	dir := t.TempDir()

	w, err := NewWatcher()
	require.NoError(t, err)

	callCount := 0
	var mu sync.Mutex
	err = w.Watch(dir, func(path string) {
		mu.Lock()
		callCount++
		mu.Unlock()
	})
	require.NoError(t, err)

	time.Sleep(50 * time.Millisecond)

	// Pending debounce timers are cancelled by Stop.
	os.WriteFile(filepath.Join(dir, "pending.json"), []byte("{}"), 0644)
	err = w.Stop()
	require.NoError(t, err)

	mu.Lock()
	countAfterStop := callCount
	mu.Unlock()

	os.WriteFile(filepath.Join(dir, "after_stop.json"), []byte("{}"), 0644)
	time.Sleep(200 * time.Millisecond)

	mu.Lock()
	countAfterWrite := callCount
	mu.Unlock()

	assert.Equal(t, countAfterStop, countAfterWrite, "callbacks fired after Stop()")

	// Double-stop should be safe
	err = w.Stop()
	assert.NoError(t, err)
}
