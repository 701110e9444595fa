package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/okian/crease/internal/adapters/repository"
	"github.com/okian/crease/internal/domain/alerting"
	"github.com/okian/crease/internal/domain/dedupe"
	"github.com/okian/crease/internal/domain/model"
	"github.com/okian/crease/internal/seed"
	"github.com/okian/crease/pkg/logger"
	"github.com/okian/crease/pkg/metrics"
)

// StoreService is the reference performance store: an in-memory record
// and alert log with alert analysis on every write.
type StoreService struct {
	mu sync.RWMutex

	store    repository.Store
	analyzer *alerting.Analyzer
	loader   *seed.Loader
	sources  []seed.Source
	log      logger.Logger

	dedupeMax int

	started bool
}

// StoreOption applies a configuration option to the StoreService.
type StoreOption func(*StoreService)

// WithRepository replaces the in-memory repository.
func WithRepository(s repository.Store) StoreOption {
	return func(svc *StoreService) {
		if s != nil {
			svc.store = s
		}
	}
}

// WithAnalyzer replaces the default alert rules.
func WithAnalyzer(a *alerting.Analyzer) StoreOption {
	return func(svc *StoreService) {
		if a != nil {
			svc.analyzer = a
		}
	}
}

// WithSeedSources sets the CSV files loaded on Start.
func WithSeedSources(sources ...seed.Source) StoreOption {
	return func(svc *StoreService) {
		svc.sources = sources
	}
}

// WithSeedLoader replaces the CSV loader.
func WithSeedLoader(l *seed.Loader) StoreOption {
	return func(svc *StoreService) {
		if l != nil {
			svc.loader = l
		}
	}
}

// WithAlertDedupeMax bounds how many alert messages seeding remembers
// when skipping repeats. Zero keeps every message.
func WithAlertDedupeMax(n int) StoreOption {
	return func(svc *StoreService) {
		svc.dedupeMax = n
	}
}

// WithStoreLogger sets a custom logger for the service.
func WithStoreLogger(l logger.Logger) StoreOption {
	return func(svc *StoreService) {
		if l != nil {
			svc.log = l
		}
	}
}

// NewStoreService constructs a store service with default configuration.
func NewStoreService(opts ...StoreOption) *StoreService {
	s := &StoreService{
		store:    repository.NewMemoryStore(),
		analyzer: alerting.NewAnalyzer(),
		log:      logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.loader == nil {
		s.loader = seed.NewLoader(seed.WithLogger(s.log))
	}
	return s
}

// Start seeds the store. Seed failures are logged, never fatal.
func (s *StoreService) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	s.log.Info(ctx, "starting store service...")

	records, err := s.loader.LoadAll(ctx, s.sources...)
	if err != nil {
		s.log.Warn(ctx, "some seed files were skipped", logger.Error(err))
	}
	for _, rec := range records {
		if err := s.store.Append(ctx, rec); err != nil {
			return fmt.Errorf("seed store: %w", err)
		}
	}
	alerts, err := s.seedAlerts(ctx, records)
	if err != nil {
		return err
	}

	s.started = true
	s.log.Info(ctx, "store service started",
		logger.Int("records", len(records)),
		logger.Int("alerts", alerts),
	)
	return nil
}

// seedAlerts analyses seeded records and stores each distinct message once.
func (s *StoreService) seedAlerts(ctx context.Context, records []model.PerformanceRecord) (int, error) {
	existing, err := s.store.Alerts(ctx)
	if err != nil {
		return 0, fmt.Errorf("list alerts: %w", err)
	}
	seen := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeMax))
	for _, a := range existing {
		seen.SeenAndRecord(ctx, a.AlertMessage)
	}

	var fresh []string
	for _, rec := range records {
		for _, msg := range s.analyzer.Analyze(rec) {
			if seen.SeenAndRecord(ctx, msg) {
				metrics.RecordAlertDeduplicated()
				continue
			}
			fresh = append(fresh, msg)
		}
	}
	if _, err := s.store.AppendAlerts(ctx, fresh); err != nil {
		return 0, fmt.Errorf("seed alerts: %w", err)
	}
	s.log.Debug(ctx, "seed alerts deduplicated",
		logger.Int("remembered", seen.Size()),
		logger.Int("fresh", len(fresh)),
	)
	return len(fresh), nil
}

// Stop marks the service stopped. The logs are kept.
func (s *StoreService) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return
	}
	s.started = false
	s.log.Info(context.Background(), "store service stopped")
}

// AddRecord appends rec and the alerts it triggers. It returns the alert
// messages, never nil.
func (s *StoreService) AddRecord(ctx context.Context, rec model.PerformanceRecord) ([]string, error) {
	if !s.isStarted() {
		return nil, ErrNotStarted
	}
	if err := s.store.Append(ctx, rec); err != nil {
		return nil, fmt.Errorf("append record: %w", err)
	}
	msgs := s.analyzer.Analyze(rec)
	if _, err := s.store.AppendAlerts(ctx, msgs); err != nil {
		return nil, fmt.Errorf("append alerts: %w", err)
	}
	s.log.Debug(ctx, "record added",
		logger.String("player", rec.PlayerName),
		logger.String("type", rec.PerformanceType),
		logger.Int("alerts", len(msgs)),
	)
	if msgs == nil {
		msgs = []string{}
	}
	return msgs, nil
}

// Records returns every record in arrival order.
func (s *StoreService) Records(ctx context.Context) ([]model.PerformanceRecord, error) {
	if !s.isStarted() {
		return nil, ErrNotStarted
	}
	return s.store.Records(ctx)
}

// Alerts returns every alert in arrival order.
func (s *StoreService) Alerts(ctx context.Context) ([]model.AlertRecord, error) {
	if !s.isStarted() {
		return nil, ErrNotStarted
	}
	return s.store.Alerts(ctx)
}

// GetStats returns service statistics for monitoring.
func (s *StoreService) GetStats(ctx context.Context) map[string]any {
	stats := map[string]any{"started": s.isStarted()}
	if s.isStarted() {
		stats["records"] = s.store.Count(ctx)
		if alerts, err := s.store.Alerts(ctx); err == nil {
			stats["alerts"] = len(alerts)
		}
	}
	return stats
}

func (s *StoreService) isStarted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}
