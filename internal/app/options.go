package app

import (
	"time"

	"github.com/okian/crease/internal/adapters/render"
	"github.com/okian/crease/pkg/logger"
)

// Default orchestrator settings.
const (
	DefaultStatusClearDelay = 3 * time.Second
	unlimitedEntities       = -1
)

// Option applies a configuration option to the Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets a custom logger for the orchestrator.
func WithLogger(l logger.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.log = l
		}
	}
}

// WithSurfaces sets the display surfaces. Missing surfaces fall back to an
// in-memory snapshot.
func WithSurfaces(s render.Surfaces) Option {
	return func(o *Orchestrator) {
		o.surfaces = s
	}
}

// WithMaxEntities caps the players shown on the chart. Negative means
// unlimited.
func WithMaxEntities(n int) Option {
	return func(o *Orchestrator) {
		o.maxEntities = n
	}
}

// WithPreviewSize sets how many echo entries the preview shows.
func WithPreviewSize(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.previewSize = n
		}
	}
}

// WithStatusClearDelay sets how long a form status stays up. Zero keeps
// it until replaced.
func WithStatusClearDelay(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d >= 0 {
			o.statusClearDelay = d
		}
	}
}

// WithCoupledAlertFailures makes an alert fetch failure overwrite the
// primary display and fail the cycle, even though the records rendered.
func WithCoupledAlertFailures(enabled bool) Option {
	return func(o *Orchestrator) {
		o.coupleAlertFailures = enabled
	}
}

// WithDiscardStale drops load results that finish after a newer cycle was
// already applied.
func WithDiscardStale(enabled bool) Option {
	return func(o *Orchestrator) {
		o.discardStale = enabled
	}
}

// WithClock replaces the time source.
func WithClock(c Clock) Option {
	return func(o *Orchestrator) {
		if c != nil {
			o.clock = c
		}
	}
}
