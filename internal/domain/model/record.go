// Package model contains domain models passed between layers.
package model

import (
	"encoding/json"
	"strings"
	"time"
)

// PerformanceRecord is one entry of the remote performance log.
// Fields mirror the JSON shape of GET /player-data.
type PerformanceRecord struct {
	PlayerName       string `json:"player_name"`       // entity key
	MatchDate        string `json:"match_date"`        // date string, not parsed
	PerformanceType  string `json:"performance_type"`  // batting, bowling, or anything the store accepted
	PerformanceValue string `json:"performance_value"` // possibly non-numeric
}

// Channel returns the tracked channel named by the record's performance type.
func (r PerformanceRecord) Channel() (Channel, bool) {
	return ParseChannel(r.PerformanceType)
}

// Metric resolves the record's value.
func (r PerformanceRecord) Metric() MetricValue {
	return ParseMetric(r.PerformanceValue)
}

// Trimmed returns a copy with the free-text fields trimmed, the way the
// submission form cleans input before posting.
func (r PerformanceRecord) Trimmed() PerformanceRecord {
	r.PlayerName = strings.TrimSpace(r.PlayerName)
	r.PerformanceValue = strings.TrimSpace(r.PerformanceValue)
	return r
}

// AlertRecord is one entry of GET /alerts.
type AlertRecord struct {
	Timestamp    string `json:"timestamp"`
	AlertMessage string `json:"alert_message"`
}

// DisplayText renders a loosely typed JSON field: strings unquoted, null
// or missing as empty, anything else as its JSON text.
func DisplayText(v json.RawMessage) string {
	if len(v) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return s
	}
	return string(v)
}

// EchoEntry is a locally buffered copy of a submitted record. It is only
// used for preview and never feeds the projection.
type EchoEntry struct {
	Record      PerformanceRecord
	SubmittedAt time.Time
}
