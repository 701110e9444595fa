// Package repository holds the store's in-memory performance and alert logs.
package repository

import (
	"context"

	"github.com/okian/crease/internal/domain/model"
)

// Store provides append-only access to the performance and alert logs.
// Reads return copies in arrival order.
type Store interface {
	// Append adds a record to the end of the performance log.
	Append(ctx context.Context, rec model.PerformanceRecord) error
	// Records returns every record in arrival order.
	Records(ctx context.Context) ([]model.PerformanceRecord, error)

	// AppendAlerts stamps messages with the current time and appends them.
	// It returns the stored alerts. An empty input is a no-op.
	AppendAlerts(ctx context.Context, messages []string) ([]model.AlertRecord, error)
	// Alerts returns every alert in arrival order.
	Alerts(ctx context.Context) ([]model.AlertRecord, error)

	// Count returns the number of records.
	Count(ctx context.Context) int
}
