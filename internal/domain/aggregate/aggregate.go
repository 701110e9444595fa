// Package aggregate folds the performance log into a per-player current
// state ordered by recency.
package aggregate

import (
	"github.com/okian/crease/internal/domain/model"
	"github.com/okian/crease/internal/domain/ordered"
)

// EntityState is the latest known value of each channel for one player.
type EntityState struct {
	Batting model.MetricValue `json:"batting"`
	Bowling model.MetricValue `json:"bowling"`
}

// With returns a copy with channel c set to v. The other channel is kept.
func (s EntityState) With(c model.Channel, v model.MetricValue) EntityState {
	switch c {
	case model.Batting:
		s.Batting = v
	case model.Bowling:
		s.Bowling = v
	}
	return s
}

// Projection is the aggregation output. Keys run from least to most
// recently touched; Entities holds exactly the players named in Keys.
type Projection struct {
	Keys     []string               `json:"keys"`
	Entities map[string]EntityState `json:"entities"`
}

// Len returns the number of players in the projection.
func (p Projection) Len() int { return len(p.Keys) }

// Series returns the chart triple aligned to Keys.
func (p Projection) Series() (labels []string, batting, bowling []model.MetricValue) {
	labels = make([]string, len(p.Keys))
	batting = make([]model.MetricValue, len(p.Keys))
	bowling = make([]model.MetricValue, len(p.Keys))
	for i, k := range p.Keys {
		st := p.Entities[k]
		labels[i] = k
		batting[i] = st.Batting
		bowling[i] = st.Bowling
	}
	return labels, batting, bowling
}

// Option configures Aggregate.
type Option func(*settings)

type settings struct {
	maxEntities int // < 0 means unlimited
}

// WithMaxEntities keeps only the n most recently touched players.
// A negative n means unlimited.
func WithMaxEntities(n int) Option {
	return func(s *settings) {
		s.maxEntities = n
	}
}

// Aggregate builds the projection from the complete record sequence.
// Records are applied strictly in input order; every record moves its
// player to the most recent position, and only the touched channel changes.
// Records whose type is not a tracked channel still count as a touch.
func Aggregate(records []model.PerformanceRecord, opts ...Option) Projection {
	s := settings{maxEntities: -1}
	for _, opt := range opts {
		opt(&s)
	}

	latest := ordered.New[string, EntityState](len(records))
	for _, r := range records {
		channel, tracked := r.Channel()
		value := r.Metric()
		latest.Upsert(r.PlayerName, func(cur EntityState, _ bool) EntityState {
			if !tracked {
				return cur
			}
			return cur.With(channel, value)
		})
	}

	keys := latest.Keys()
	if s.maxEntities >= 0 && s.maxEntities < len(keys) {
		keys = keys[len(keys)-s.maxEntities:]
	}

	entities := make(map[string]EntityState, len(keys))
	for _, k := range keys {
		entities[k], _ = latest.Get(k)
	}
	return Projection{Keys: keys, Entities: entities}
}
