// Package projection maps records and aggregates to the shapes the display
// surfaces consume.
package projection

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/okian/crease/internal/domain/aggregate"
	"github.com/okian/crease/internal/domain/model"
)

// Display constants shared by every surface.
const (
	EmptyAlertsMarker = "[]"
	EmptyPreviewText  = "No player data yet."
	alertSeparator    = " — "
	alertJoiner       = "\n\n"
)

// Row is one line of the history table.
type Row struct {
	PlayerName       string `json:"player_name"`
	MatchDate        string `json:"match_date"`
	PerformanceType  string `json:"performance_type"`
	PerformanceValue string `json:"performance_value"`
}

// Table maps records to rows in delivered order. No sorting, merging or
// deduplication happens here.
func Table(records []model.PerformanceRecord) []Row {
	rows := make([]Row, len(records))
	for i, r := range records {
		rows[i] = Row{
			PlayerName:       r.PlayerName,
			MatchDate:        r.MatchDate,
			PerformanceType:  r.PerformanceType,
			PerformanceValue: r.PerformanceValue,
		}
	}
	return rows
}

// ChartData holds the labels and the two datasets, aligned by index.
type ChartData struct {
	Labels  []string            `json:"labels"`
	Batting []model.MetricValue `json:"batting"`
	Bowling []model.MetricValue `json:"bowling"`
}

// Axis describes one y axis of the dual-axis chart.
type Axis struct {
	ID       string `json:"id"`
	Position string `json:"position"`
	Title    string `json:"title"`
	Grid     bool   `json:"grid"`
}

// Dataset binds a dataset label to an axis.
type Dataset struct {
	Label  string `json:"label"`
	AxisID string `json:"axis_id"`
}

// AxisConfig is handed to the chart surface on creation.
type AxisConfig struct {
	Kind     string     `json:"kind"`
	Datasets [2]Dataset `json:"datasets"`
	Axes     [2]Axis    `json:"axes"`
}

// DefaultAxisConfig is the strike rate / economy bar chart.
func DefaultAxisConfig() AxisConfig {
	return AxisConfig{
		Kind: "bar",
		Datasets: [2]Dataset{
			{Label: "Strike Rate (batting)", AxisID: "y"},
			{Label: "Economy (bowling)", AxisID: "y1"},
		},
		Axes: [2]Axis{
			{ID: "y", Position: "left", Title: "Strike Rate", Grid: true},
			{ID: "y1", Position: "right", Title: "Economy", Grid: false},
		},
	}
}

// Chart turns a projection into chart data.
func Chart(p aggregate.Projection) ChartData {
	labels, batting, bowling := p.Series()
	return ChartData{Labels: labels, Batting: batting, Bowling: bowling}
}

// FormatAlerts renders the raw /alerts payload. Anything but a JSON list
// renders as the empty-list marker.
func FormatAlerts(raw json.RawMessage) string {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil || items == nil {
		return EmptyAlertsMarker
	}
	alerts := make([]model.AlertRecord, len(items))
	for i, item := range items {
		// Non-object entries render with empty fields.
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(item, &fields); err != nil {
			continue
		}
		alerts[i] = model.AlertRecord{
			Timestamp:    model.DisplayText(fields["timestamp"]),
			AlertMessage: model.DisplayText(fields["alert_message"]),
		}
	}
	return FormatAlertRecords(alerts)
}

// FormatAlertRecords renders one "<timestamp> — <message>" line per alert,
// separated by blank lines.
func FormatAlertRecords(alerts []model.AlertRecord) string {
	lines := make([]string, len(alerts))
	for i, a := range alerts {
		lines[i] = a.Timestamp + alertSeparator + a.AlertMessage
	}
	return strings.Join(lines, alertJoiner)
}

// PreviewText renders echo entries (already ordered most-recent-first) as
// an indented JSON array of the submitted payloads.
func PreviewText(entries []model.EchoEntry) string {
	if len(entries) == 0 {
		return EmptyPreviewText
	}
	payloads := make([]model.PerformanceRecord, len(entries))
	for i, e := range entries {
		payloads[i] = e.Record
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(payloads); err != nil {
		return EmptyPreviewText
	}
	return strings.TrimSuffix(buf.String(), "\n")
}
