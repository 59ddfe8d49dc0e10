package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ansonwcy/ccusage-overlay/internal/config"
	"github.com/ansonwcy/ccusage-overlay/internal/domain"
	"github.com/ansonwcy/ccusage-overlay/internal/ingest"
	"github.com/ansonwcy/ccusage-overlay/internal/parser"
	"github.com/ansonwcy/ccusage-overlay/internal/snapshot"
	"github.com/ansonwcy/ccusage-overlay/internal/watcher"
)

// Service owns the ingestion cache, drives file discovery and watch events
// through the debounced update queue, re-aggregates after each batch, and
// pushes the resulting bundle to subscribers.
type Service struct {
	cfg       config.Config
	tz        *time.Location
	weekStart time.Weekday
	log       *zap.Logger
	store     *snapshot.Store // nil disables persistence
	now       func() time.Time

	cache *ingest.Cache
	queue *ingest.Queue
	watch *watcher.Watcher

	mu      sync.Mutex
	latest  *domain.Bundle
	subs    map[int]chan *domain.Bundle
	nextSub int

	stopOnce sync.Once
}

// Option tweaks a Service; used by tests to pin the clock.
type Option func(*Service)

// WithClock replaces the wall clock.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New builds a Service from a validated config. store may be nil.
func New(cfg config.Config, store *snapshot.Store, log *zap.Logger, opts ...Option) (*Service, error) {
	tz, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	weekStart, err := cfg.WeekStartDay()
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}

	s := &Service{
		cfg:       cfg,
		tz:        tz,
		weekStart: weekStart,
		log:       log,
		store:     store,
		now:       time.Now,
		cache:     ingest.NewCache(),
		subs:      make(map[int]chan *domain.Bundle),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.queue = ingest.NewQueue(cfg.Debounce(), s.applyBatch, log.Named("queue"))
	s.watch = watcher.New(cfg.General.DataDir, cfg.Settle(), cfg.PollInterval(), s.queue.Notify, log.Named("watcher"))
	return s, nil
}

// Start restores the persisted snapshot, runs the initial bulk load, and
// begins watching for changes.
func (s *Service) Start(ctx context.Context) error {
	if s.store != nil {
		if cached, err := s.store.Load(s.now()); err == nil && cached != nil {
			s.publish(cached)
			s.log.Info("restored snapshot", zap.Time("generated_at", cached.GeneratedAt))
		}
	}

	paths := parser.DiscoverFiles(s.cfg.General.DataDir)
	files := parser.LoadFiles(ctx, paths, s.cfg.Ingest.GroupSize, s.cfg.ReadTimeout(), s.log.Named("load"))
	for path, events := range files {
		s.cache.Put(path, events)
	}
	s.log.Info("initial load complete",
		zap.Int("files", len(paths)), zap.Int("events", s.cache.EventCount()))

	s.refresh()

	s.queue.Start()
	s.watch.Seed(paths)
	return s.watch.Start()
}

// Stop halts the watcher and flushes the queue. Safe to call twice.
func (s *Service) Stop() {
	s.stopOnce.Do(func() {
		s.watch.Stop()
		s.queue.Stop()
	})
}

// Subscribe registers a bundle listener. Each subscriber holds a one-slot
// buffer; a slow consumer sees only the newest bundle. The returned cancel
// removes the subscription.
func (s *Service) Subscribe() (<-chan *domain.Bundle, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSub
	s.nextSub++
	ch := make(chan *domain.Bundle, 1)
	if s.latest != nil {
		ch <- s.latest
	}
	s.subs[id] = ch

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
	return ch, cancel
}

// Latest returns the most recent bundle, nil before the first aggregation.
func (s *Service) Latest() *domain.Bundle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest
}

// CurrentSessionCost recomputes the running session cost against the latest
// hourly series, folding in live events not yet aggregated.
func (s *Service) CurrentSessionCost(live []domain.UsageEvent) float64 {
	s.mu.Lock()
	latest := s.latest
	s.mu.Unlock()
	if latest == nil {
		return 0
	}
	return domain.RunningSessionCost(latest.TodayHourly, s.now().In(s.tz), live)
}

// applyBatch is the queue consumer: re-parse changed files, drop removed
// ones, then re-aggregate once for the whole batch.
func (s *Service) applyBatch(changes []ingest.Change) {
	ctx := context.Background()
	for _, c := range changes {
		switch c.Kind {
		case ingest.ChangeRemoved:
			s.cache.Remove(c.Path)
		default:
			events := parser.ParseFile(ctx, c.Path, s.cfg.ReadTimeout(), s.log)
			s.cache.Put(c.Path, events)
		}
		s.log.Debug("applied change", zap.Stringer("kind", c.Kind), zap.String("path", c.Path))
	}
	s.refresh()
}

// refresh aggregates the flattened cache against the reference instant and
// broadcasts the bundle.
func (s *Service) refresh() {
	events := parser.Dedup(s.cache.Flatten())
	now := s.referenceInstant(events)

	bundle := domain.Aggregate(events, now, domain.AggregateOptions{
		TZ:          s.tz,
		HoursWindow: s.cfg.General.HoursWindow,
		WeekStart:   s.weekStart,
	})

	if s.store != nil {
		if err := s.store.Save(bundle, s.now()); err != nil {
			s.log.Warn("persisting snapshot failed", zap.Error(err))
		}
	}
	s.publish(bundle)
}

// referenceInstant picks the "now" every aggregation pass sees. Under the
// most-recent-data strategy, when no event falls on the clock's calendar
// date the newest event timestamp stands in, so stale data still renders as
// a populated dashboard.
func (s *Service) referenceInstant(events []domain.UsageEvent) time.Time {
	now := s.now()
	if s.cfg.General.ReferenceDateStrategy != config.StrategyMostRecentData {
		return now
	}
	today := now.In(s.tz).Format("2006-01-02")
	if len(domain.FilterByDate(events, today, s.tz)) > 0 {
		return now
	}
	newest := domain.MostRecentTimestamp(events)
	if newest.IsZero() {
		return now
	}
	s.log.Info("no events on current date, using most recent data date",
		zap.String("clock_date", today),
		zap.String("data_date", newest.In(s.tz).Format("2006-01-02")))
	return newest
}

func (s *Service) publish(b *domain.Bundle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest = b
	for _, ch := range s.subs {
		select {
		case ch <- b:
		default:
			// Replace the stale pending bundle.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- b:
			default:
			}
		}
	}
}
