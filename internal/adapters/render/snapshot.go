package render

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/okian/crease/internal/domain/projection"
)

// ChartView is the current state of the chart.
type ChartView struct {
	Data    projection.ChartData  `json:"data"`
	Axes    projection.AxisConfig `json:"axes"`
	Creates int                   `json:"creates"`
	Updates int                   `json:"updates"`
}

// View is a copy of everything on screen.
type View struct {
	Primary    string           `json:"primary"`
	Alerts     string           `json:"alerts"`
	FormStatus string           `json:"form_status"`
	Rows       []projection.Row `json:"rows"`
	Chart      *ChartView       `json:"chart,omitempty"`
}

// Snapshot keeps the display state in memory. It is safe for concurrent use.
type Snapshot struct {
	mu   sync.RWMutex
	view View
}

var (
	_ ChartSurface = (*Snapshot)(nil)
	_ TableSurface = (*Snapshot)(nil)
	_ Slots        = (*Snapshot)(nil)
)

// NewSnapshot creates an empty snapshot surface.
func NewSnapshot() *Snapshot {
	return &Snapshot{view: View{Rows: []projection.Row{}}}
}

// Surfaces returns the snapshot as every surface.
func (s *Snapshot) Surfaces() Surfaces {
	return Surfaces{Chart: s, Table: s, Slots: s}
}

func (s *Snapshot) Create(_ context.Context, data projection.ChartData, axes projection.AxisConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.view.Chart != nil {
		return ErrChartExists
	}
	s.view.Chart = &ChartView{Data: data, Axes: axes, Creates: 1}
	return nil
}

func (s *Snapshot) Update(_ context.Context, data projection.ChartData) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.view.Chart == nil {
		return ErrChartNotCreated
	}
	s.view.Chart.Data = data
	s.view.Chart.Updates++
	return nil
}

func (s *Snapshot) ReplaceRows(_ context.Context, rows []projection.Row) {
	cp := make([]projection.Row, len(rows))
	copy(cp, rows)
	s.mu.Lock()
	s.view.Rows = cp
	s.mu.Unlock()
}

func (s *Snapshot) SetPrimary(text string) {
	s.mu.Lock()
	s.view.Primary = text
	s.mu.Unlock()
}

func (s *Snapshot) SetAlerts(text string) {
	s.mu.Lock()
	s.view.Alerts = text
	s.mu.Unlock()
}

func (s *Snapshot) SetFormStatus(text string) {
	s.mu.Lock()
	s.view.FormStatus = text
	s.mu.Unlock()
}

// View returns a deep copy of the current state.
func (s *Snapshot) View() View {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v := s.view
	v.Rows = append([]projection.Row(nil), s.view.Rows...)
	if v.Rows == nil {
		v.Rows = []projection.Row{}
	}
	if s.view.Chart != nil {
		c := *s.view.Chart
		c.Data = projection.ChartData{
			Labels:  append([]string(nil), c.Data.Labels...),
			Batting: append(c.Data.Batting[:0:0], c.Data.Batting...),
			Bowling: append(c.Data.Bowling[:0:0], c.Data.Bowling...),
		}
		v.Chart = &c
	}
	return v
}

// MarshalJSON encodes the current view.
func (s *Snapshot) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.View())
}
