package model

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// MetricValue is either a finite number or Unknown. The zero value is
// Unknown, which keeps it distinct from Numeric(0).
type MetricValue struct {
	value float64
	known bool
}

// Numeric wraps a finite value. Non-finite input yields Unknown.
func Numeric(v float64) MetricValue {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Unknown()
	}
	return MetricValue{value: v, known: true}
}

// Unknown is the absent marker.
func Unknown() MetricValue { return MetricValue{} }

// ParseMetric resolves a raw performance value. Surrounding whitespace is
// ignored; empty, non-numeric and non-finite strings are Unknown.
func ParseMetric(raw string) MetricValue {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Unknown()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Unknown()
	}
	return Numeric(v)
}

// Float returns the number and whether it is known.
func (m MetricValue) Float() (float64, bool) { return m.value, m.known }

// IsUnknown reports whether the value is the absent marker.
func (m MetricValue) IsUnknown() bool { return !m.known }

// String renders numbers in their shortest form and Unknown as "—".
func (m MetricValue) String() string {
	if !m.known {
		return "—"
	}
	return strconv.FormatFloat(m.value, 'f', -1, 64)
}

// MarshalJSON encodes Unknown as null.
func (m MetricValue) MarshalJSON() ([]byte, error) {
	if !m.known {
		return []byte("null"), nil
	}
	return json.Marshal(m.value)
}

// UnmarshalJSON accepts a number or null.
func (m *MetricValue) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*m = Unknown()
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*m = Numeric(v)
	return nil
}
