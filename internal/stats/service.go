package stats

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"gembala/internal/cache"
	applog "gembala/internal/log"
)

// ErrUnavailable is the only error GetSnapshot surfaces to callers; the
// underlying store failure is logged, never exposed.
var ErrUnavailable = errors.New("statistik tidak tersedia")

const (
	// DefaultSnapshotTTL bounds snapshot staleness; the snapshot scans the
	// full roster, so it is not recomputed per request.
	DefaultSnapshotTTL = time.Minute

	defaultReportTTL     = time.Minute
	defaultReportEntries = 64
)

// Service serves cached dashboard snapshots and filtered reports.
//
// The snapshot is a single shared entry: concurrent requests inside the
// validity window get the same computed value, and concurrent misses are
// collapsed into one roster scan via singleflight. Reports are cached per
// canonical filter key in a small TTL LRU. Invalidate drops both.
type Service struct {
	store  Store
	logger *applog.Logger
	ttl    time.Duration
	now    func() time.Time

	group   singleflight.Group
	reports *cache.LRU[*Report]

	mu        sync.Mutex
	snap      *Snapshot
	expiresAt time.Time
}

type Option func(*Service)

// WithClock injects the reference clock used for ages, birthday windows
// and cache expiry.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithSnapshotTTL(ttl time.Duration) Option {
	return func(s *Service) { s.ttl = ttl }
}

func WithLogger(logger *applog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store:   store,
		ttl:     DefaultSnapshotTTL,
		now:     time.Now,
		reports: cache.NewLRU[*Report](defaultReportEntries, defaultReportTTL),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = applog.New(applog.Config{Component: applog.ComponentStats})
	}
	return s
}

// ReportCache exposes the report cache for expiry sweeps.
func (s *Service) ReportCache() cache.Cleaner {
	return s.reports
}

// GetSnapshot returns the dashboard snapshot, served from cache inside the
// validity window. On a miss the recomputation is single-flighted so
// simultaneous callers share one scan.
func (s *Service) GetSnapshot(ctx context.Context) (*Snapshot, error) {
	if snap := s.cached(); snap != nil {
		return snap, nil
	}

	v, err, _ := s.group.Do("snapshot", func() (interface{}, error) {
		if snap := s.cached(); snap != nil {
			return snap, nil
		}

		snap, err := BuildSnapshot(ctx, s.store, s.now())
		if err != nil {
			return nil, err
		}

		s.mu.Lock()
		s.snap = snap
		s.expiresAt = s.now().Add(s.ttl)
		s.mu.Unlock()
		return snap, nil
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "Snapshot build failed", applog.FieldError, err)
		return nil, ErrUnavailable
	}
	return v.(*Snapshot), nil
}

func (s *Service) cached() *Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snap != nil && s.now().Before(s.expiresAt) {
		return s.snap
	}
	return nil
}

// GetReport returns the filtered report. Store failures are converted into
// a failed Report rather than an error, so the caller can always render an
// inline message in place of the statistics.
func (s *Service) GetReport(ctx context.Context, f Filter) *Report {
	key := f.CacheKey()
	if rep, ok := s.reports.Get(key); ok {
		return rep
	}

	rep, err := BuildReport(ctx, s.store, f, s.now())
	if err != nil {
		s.logger.ErrorContext(ctx, "Report build failed", applog.FieldError, err, applog.FieldFilter, key)
		return &Report{Success: false, Error: "laporan tidak tersedia"}
	}

	s.reports.Set(key, rep)
	return rep
}

// Invalidate drops the cached snapshot and all cached reports so the next
// request recomputes against fresh data. Mutations made outside this
// process reach it through the AMQP change feed.
func (s *Service) Invalidate() {
	s.mu.Lock()
	s.snap = nil
	s.mu.Unlock()
	s.reports.Flush()
}
