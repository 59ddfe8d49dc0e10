package parser

import (
	"bytes"
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ansonwcy/ccusage-overlay/internal/domain"
)

// DefaultGroupSize bounds how many files the bulk loader reads concurrently.
const DefaultGroupSize = 10

// DefaultReadTimeout caps one file read during bulk load so a slow or
// unreadable file degrades to "skipped" instead of stalling the batch.
const DefaultReadTimeout = 5 * time.Second

// DiscoverFiles walks the data root and returns all JSONL log paths.
func DiscoverFiles(root string) []string {
	var paths []string
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || filepath.Ext(path) != ".jsonl" {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	return paths
}

// LoadFiles parses the given files in fixed-size concurrent groups and
// returns per-file event lists keyed by path. Every discovered file gets an
// entry: unreadable files and files outside the projects hierarchy map to
// nil so callers still know they were seen.
func LoadFiles(ctx context.Context, paths []string, groupSize int, readTimeout time.Duration, log *zap.Logger) map[string][]domain.UsageEvent {
	if log == nil {
		log = zap.NewNop()
	}
	if groupSize <= 0 {
		groupSize = DefaultGroupSize
	}
	if readTimeout <= 0 {
		readTimeout = DefaultReadTimeout
	}

	var mu sync.Mutex
	files := make(map[string][]domain.UsageEvent, len(paths))

	for start := 0; start < len(paths); start += groupSize {
		end := start + groupSize
		if end > len(paths) {
			end = len(paths)
		}

		var wg sync.WaitGroup
		for _, path := range paths[start:end] {
			wg.Add(1)
			go func(path string) {
				defer wg.Done()
				events := ParseFile(ctx, path, readTimeout, log)
				mu.Lock()
				files[path] = events
				mu.Unlock()
			}(path)
		}
		wg.Wait()

		if ctx.Err() != nil {
			break
		}
	}

	return files
}

// ParseFile reads and parses one log file with a bounded read. It returns nil
// on any failure; a single bad file never aborts a batch.
func ParseFile(ctx context.Context, path string, readTimeout time.Duration, log *zap.Logger) []domain.UsageEvent {
	if log == nil {
		log = zap.NewNop()
	}

	src, ok := DeriveSource(path)
	if !ok {
		log.Debug("file outside projects hierarchy", zap.String("file", path))
		return nil
	}

	data, err := readWithTimeout(ctx, path, readTimeout)
	if err != nil {
		log.Warn("skipping unreadable file", zap.String("file", path), zap.Error(err))
		return nil
	}

	return ParseReader(bytes.NewReader(data), src, log)
}

// readWithTimeout runs os.ReadFile in a goroutine and abandons it when the
// timeout or ctx expires. The read itself cannot be cancelled; the batch just
// stops waiting for it.
func readWithTimeout(ctx context.Context, path string, timeout time.Duration) ([]byte, error) {
	type result struct {
		data []byte
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		data, err := os.ReadFile(path)
		ch <- result{data, err}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case r := <-ch:
		return r.data, r.err
	case <-timer.C:
		return nil, context.DeadlineExceeded
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
