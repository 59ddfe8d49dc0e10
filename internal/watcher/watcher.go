package watcher

import (
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/ansonwcy/ccusage-overlay/internal/ingest"
)

// DefaultSettle is how long a file must stay quiet after a write burst
// before a change event is emitted. Editors and the logger both write in
// bursts; emitting mid-burst would double-process half-written lines.
const DefaultSettle = 2 * time.Second

// DefaultPollInterval drives the polling fallback that backs up fsnotify.
const DefaultPollInterval = 10 * time.Second

// Watcher observes a data root for JSONL log changes and reports them as
// added/modified/removed ingest changes. fsnotify provides low latency; a
// polling pass always runs as a safety net and detects deletions.
type Watcher struct {
	root         string
	settle       time.Duration
	pollInterval time.Duration
	onChange     func(ingest.Change)
	log          *zap.Logger

	mu      sync.Mutex
	sizes   map[string]int64       // last observed size per known file
	pending map[string]*time.Timer // settle timers per path

	stop chan struct{}
	wg   sync.WaitGroup
}

func New(root string, settle, pollInterval time.Duration, onChange func(ingest.Change), log *zap.Logger) *Watcher {
	if settle <= 0 {
		settle = DefaultSettle
	}
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Watcher{
		root:         root,
		settle:       settle,
		pollInterval: pollInterval,
		onChange:     onChange,
		log:          log,
		sizes:        make(map[string]int64),
		pending:      make(map[string]*time.Timer),
		stop:         make(chan struct{}),
	}
}

// Seed registers files already ingested by the initial bulk load so that the
// first poll does not re-announce them.
func (w *Watcher) Seed(paths []string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, p := range paths {
		if info, err := os.Stat(p); err == nil {
			w.sizes[p] = info.Size()
		} else {
			w.sizes[p] = 0
		}
	}
}

// Start launches the fsnotify listener (when available) and the polling
// fallback.
func (w *Watcher) Start() error {
	fsw, err := fsnotify.NewWatcher()
	if err == nil {
		w.addWatchDirs(fsw)
		w.wg.Add(1)
		go w.runNotify(fsw)
	} else {
		w.log.Warn("fsnotify unavailable, polling only", zap.Error(err))
	}

	w.wg.Add(1)
	go w.runPoll()
	return nil
}

// Stop signals goroutines to exit and waits for them to finish. Pending
// settle timers are cancelled.
func (w *Watcher) Stop() {
	close(w.stop)
	w.wg.Wait()

	w.mu.Lock()
	for _, t := range w.pending {
		t.Stop()
	}
	w.pending = make(map[string]*time.Timer)
	w.mu.Unlock()
}

func (w *Watcher) addWatchDirs(fsw *fsnotify.Watcher) {
	_ = filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
		if err == nil && d.IsDir() {
			_ = fsw.Add(path)
		}
		return nil
	})
}

func (w *Watcher) runNotify(fsw *fsnotify.Watcher) {
	defer w.wg.Done()
	defer fsw.Close()

	for {
		select {
		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			switch {
			case event.Op&fsnotify.Create != 0:
				// New directories need watching too (new project dirs).
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = fsw.Add(event.Name)
					continue
				}
				if filepath.Ext(event.Name) == ".jsonl" {
					w.schedule(event.Name)
				}
			case event.Op&fsnotify.Write != 0:
				if filepath.Ext(event.Name) == ".jsonl" {
					w.schedule(event.Name)
				}
			case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				if filepath.Ext(event.Name) == ".jsonl" {
					w.emitRemoved(event.Name)
				}
			}
		case <-fsw.Errors:
			// Non-fatal; the polling pass covers missed events.
		case <-w.stop:
			return
		}
	}
}

func (w *Watcher) runPoll() {
	defer w.wg.Done()
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			w.pollOnce()
		case <-w.stop:
			return
		}
	}
}

func (w *Watcher) pollOnce() {
	seen := make(map[string]int64)
	_ = filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || filepath.Ext(path) != ".jsonl" {
			return nil
		}
		if info, err := d.Info(); err == nil {
			seen[path] = info.Size()
		}
		return nil
	})

	w.mu.Lock()
	var changed, removed []string
	for path, size := range seen {
		last, known := w.sizes[path]
		if !known || size != last {
			changed = append(changed, path)
		}
	}
	for path := range w.sizes {
		if _, ok := seen[path]; !ok {
			removed = append(removed, path)
		}
	}
	w.mu.Unlock()

	for _, path := range changed {
		w.schedule(path)
	}
	for _, path := range removed {
		w.emitRemoved(path)
	}
}

// schedule arms (or re-arms) the settle timer for path. The change event
// fires only after the file has been quiet for the settle window.
func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.pending[path]; ok {
		t.Reset(w.settle)
		return
	}
	w.pending[path] = time.AfterFunc(w.settle, func() {
		w.emitSettled(path)
	})
}

func (w *Watcher) emitSettled(path string) {
	select {
	case <-w.stop:
		return
	default:
	}

	info, err := os.Stat(path)

	w.mu.Lock()
	delete(w.pending, path)
	_, known := w.sizes[path]
	if err == nil {
		w.sizes[path] = info.Size()
	} else {
		delete(w.sizes, path)
	}
	w.mu.Unlock()

	if err != nil {
		w.onChange(ingest.Change{Kind: ingest.ChangeRemoved, Path: path})
		return
	}
	kind := ingest.ChangeModified
	if !known {
		kind = ingest.ChangeAdded
	}
	w.onChange(ingest.Change{Kind: kind, Path: path})
}

func (w *Watcher) emitRemoved(path string) {
	w.mu.Lock()
	if t, ok := w.pending[path]; ok {
		t.Stop()
		delete(w.pending, path)
	}
	_, known := w.sizes[path]
	delete(w.sizes, path)
	w.mu.Unlock()

	if known {
		w.onChange(ingest.Change{Kind: ingest.ChangeRemoved, Path: path})
	}
}
