package watcher

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ansonwcy/ccusage-overlay/internal/ingest"
)

type changeRecorder struct {
	mu      sync.Mutex
	changes []ingest.Change
}

func (r *changeRecorder) record(c ingest.Change) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changes = append(r.changes, c)
}

func (r *changeRecorder) last(path string) (ingest.Change, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.changes) - 1; i >= 0; i-- {
		if r.changes[i].Path == path {
			return r.changes[i], true
		}
	}
	return ingest.Change{}, false
}

func startTestWatcher(t *testing.T, root string) *changeRecorder {
	t.Helper()
	rec := &changeRecorder{}
	w := New(root, 30*time.Millisecond, 40*time.Millisecond, rec.record, nil)
	require.NoError(t, w.Start())
	t.Cleanup(w.Stop)
	return rec
}

func waitForKind(t *testing.T, rec *changeRecorder, path string, kind ingest.ChangeKind) {
	t.Helper()
	require.Eventually(t, func() bool {
		c, ok := rec.last(path)
		return ok && c.Kind == kind
	}, 3*time.Second, 10*time.Millisecond, "waiting for %s on %s", kind, path)
}

func TestWatcher_NewFileIsAdded(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "projects", "alpha")
	require.NoError(t, os.MkdirAll(dir, 0755))

	rec := startTestWatcher(t, root)

	path := filepath.Join(dir, "s1.jsonl")
	require.NoError(t, os.WriteFile(path, []byte("{}\n"), 0644))

	waitForKind(t, rec, path, ingest.ChangeAdded)
}

func TestWatcher_AppendIsModified(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "projects", "alpha")
	require.NoError(t, os.MkdirAll(dir, 0755))
	path := filepath.Join(dir, "s1.jsonl")
	require.NoError(t, os.WriteFile(path, []byte("{}\n"), 0644))

	rec := startTestWatcher(t, root)
	// First observation announces the file.
	waitForKind(t, rec, path, ingest.ChangeAdded)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
	require.NoError(t, err)
	_, err = f.WriteString("{}\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	waitForKind(t, rec, path, ingest.ChangeModified)
}

func TestWatcher_SeededFileNotReannounced(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "projects", "alpha")
	require.NoError(t, os.MkdirAll(dir, 0755))
	path := filepath.Join(dir, "s1.jsonl")
	require.NoError(t, os.WriteFile(path, []byte("{}\n"), 0644))

	rec := &changeRecorder{}
	w := New(root, 30*time.Millisecond, 40*time.Millisecond, rec.record, nil)
	w.Seed([]string{path})
	require.NoError(t, w.Start())
	t.Cleanup(w.Stop)

	time.Sleep(200 * time.Millisecond)
	if _, ok := rec.last(path); ok {
		t.Error("seeded, unchanged file should produce no change events")
	}
}

func TestWatcher_DeleteIsRemoved(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "projects", "alpha")
	require.NoError(t, os.MkdirAll(dir, 0755))
	path := filepath.Join(dir, "s1.jsonl")
	require.NoError(t, os.WriteFile(path, []byte("{}\n"), 0644))

	rec := startTestWatcher(t, root)
	waitForKind(t, rec, path, ingest.ChangeAdded)

	require.NoError(t, os.Remove(path))
	waitForKind(t, rec, path, ingest.ChangeRemoved)
}

func TestWatcher_NewProjectDirectory(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "projects"), 0755))

	rec := startTestWatcher(t, root)

	// A directory created after Start still gets its files noticed, either
	// through the fsnotify dir re-add or the polling pass.
	dir := filepath.Join(root, "projects", "fresh")
	require.NoError(t, os.MkdirAll(dir, 0755))
	path := filepath.Join(dir, "s9.jsonl")
	require.NoError(t, os.WriteFile(path, []byte("{}\n"), 0644))

	waitForKind(t, rec, path, ingest.ChangeAdded)
}
