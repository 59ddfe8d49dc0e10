package ingest

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultDebounce is the quiet period before a batch of notifications is
// applied.
const DefaultDebounce = 500 * time.Millisecond

// ChangeKind classifies a file-system notification.
type ChangeKind int

const (
	ChangeAdded ChangeKind = iota
	ChangeModified
	ChangeRemoved
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeAdded:
		return "added"
	case ChangeModified:
		return "modified"
	case ChangeRemoved:
		return "removed"
	}
	return "unknown"
}

// Change is one file-system notification.
type Change struct {
	Kind ChangeKind
	Path string
}

// Queue coalesces rapid file-system notifications into debounced batches and
// applies them strictly one at a time. A single consumer goroutine drains the
// channel, so a new batch cannot start while one is in flight; notifications
// arriving mid-batch buffer for the next one and are never dropped.
type Queue struct {
	debounce time.Duration
	apply    func([]Change)
	log      *zap.Logger

	in   chan Change
	stop chan struct{}
	wg   sync.WaitGroup
}

// NewQueue creates a queue that calls apply with each coalesced batch.
func NewQueue(debounce time.Duration, apply func([]Change), log *zap.Logger) *Queue {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Queue{
		debounce: debounce,
		apply:    apply,
		log:      log,
		in:       make(chan Change, 1024),
		stop:     make(chan struct{}),
	}
}

// Notify enqueues one notification.
func (q *Queue) Notify(c Change) {
	select {
	case q.in <- c:
	case <-q.stop:
	}
}

// Start launches the consumer goroutine.
func (q *Queue) Start() {
	q.wg.Add(1)
	go q.run()
}

// Stop flushes any pending batch and waits for the consumer to exit.
func (q *Queue) Stop() {
	close(q.stop)
	q.wg.Wait()
}

func (q *Queue) run() {
	defer q.wg.Done()

	timer := time.NewTimer(q.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	var pending []Change
	for {
		select {
		case c := <-q.in:
			pending = append(pending, c)
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(q.debounce)

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			batch := Coalesce(pending)
			pending = nil
			q.log.Debug("applying batch", zap.Int("changes", len(batch)))
			start := time.Now()
			q.apply(batch)
			q.log.Debug("batch applied", zap.Duration("took", time.Since(start)))

		case <-q.stop:
			// Drain whatever is buffered, then flush once.
			for {
				select {
				case c := <-q.in:
					pending = append(pending, c)
					continue
				default:
				}
				break
			}
			if len(pending) > 0 {
				q.apply(Coalesce(pending))
			}
			return
		}
	}
}

// Coalesce collapses repeated notifications for the same path, keeping the
// last kind seen and the first-arrival order of paths.
func Coalesce(changes []Change) []Change {
	last := make(map[string]ChangeKind, len(changes))
	order := make([]string, 0, len(changes))
	for _, c := range changes {
		if _, seen := last[c.Path]; !seen {
			order = append(order, c.Path)
		}
		last[c.Path] = c.Kind
	}

	out := make([]Change, 0, len(order))
	for _, path := range order {
		out = append(out, Change{Kind: last[path], Path: path})
	}
	return out
}
