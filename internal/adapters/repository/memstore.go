package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/crease/internal/domain/model"
	"github.com/okian/crease/pkg/metrics"
)

// AlertTimestampLayout is the layout of AlertRecord.Timestamp.
const AlertTimestampLayout = "2006-01-02 15:04:05"

// MemoryStore is a Store kept entirely in process memory.
type MemoryStore struct {
	mu       sync.RWMutex
	records  []model.PerformanceRecord
	alerts   []model.AlertRecord
	now      func() time.Time
	capacity int
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore constructs an empty store with configuration options.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	s.records = make([]model.PerformanceRecord, 0, s.capacity)
	return s
}

func (s *MemoryStore) Append(ctx context.Context, rec model.PerformanceRecord) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("append record: %w", err)
	}
	s.mu.Lock()
	s.records = append(s.records, rec)
	n := len(s.records)
	s.mu.Unlock()

	metrics.UpdateStoreRecords(n)
	return nil
}

func (s *MemoryStore) Records(ctx context.Context) ([]model.PerformanceRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.PerformanceRecord, len(s.records))
	copy(out, s.records)
	return out, nil
}

func (s *MemoryStore) AppendAlerts(ctx context.Context, messages []string) ([]model.AlertRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("append alerts: %w", err)
	}
	if len(messages) == 0 {
		return nil, nil
	}

	// One timestamp per batch.
	ts := s.now().Format(AlertTimestampLayout)
	added := make([]model.AlertRecord, len(messages))
	for i, m := range messages {
		added[i] = model.AlertRecord{Timestamp: ts, AlertMessage: m}
	}

	s.mu.Lock()
	s.alerts = append(s.alerts, added...)
	n := len(s.alerts)
	s.mu.Unlock()

	metrics.UpdateStoreAlerts(n)
	metrics.RecordAlertsGenerated(len(added))
	return added, nil
}

func (s *MemoryStore) Alerts(ctx context.Context) ([]model.AlertRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.AlertRecord, len(s.alerts))
	copy(out, s.alerts)
	return out, nil
}

func (s *MemoryStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
