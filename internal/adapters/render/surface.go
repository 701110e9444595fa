// Package render provides the display surfaces the dashboard draws on.
package render

import (
	"context"
	"errors"

	"github.com/okian/crease/internal/domain/projection"
)

// Sentinel errors for chart surfaces.
var (
	ErrChartNotCreated = errors.New("chart not created")
	ErrChartExists     = errors.New("chart already created")
)

// ChartSurface is a dual-axis chart created once and updated in place.
type ChartSurface interface {
	Create(ctx context.Context, data projection.ChartData, axes projection.AxisConfig) error
	Update(ctx context.Context, data projection.ChartData) error
}

// TableSurface replaces its full row set on every call.
type TableSurface interface {
	ReplaceRows(ctx context.Context, rows []projection.Row)
}

// Slots are the named text areas of the page.
type Slots interface {
	SetPrimary(text string)
	SetAlerts(text string)
	SetFormStatus(text string)
}

// Surfaces bundles everything the orchestrator draws on.
type Surfaces struct {
	Chart ChartSurface
	Table TableSurface
	Slots Slots
}

// Complete reports whether every surface is set.
func (s Surfaces) Complete() bool {
	return s.Chart != nil && s.Table != nil && s.Slots != nil
}
