// Package alerting turns performance records into alert messages.
package alerting

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/okian/crease/internal/domain/model"
)

// Default rule thresholds.
const (
	DefaultStrikeRateThreshold = 150
	DefaultEconomyThreshold    = 6

	fieldingType    = "fielding"
	missKeyword     = "miss"
	unknownPlayer   = "Unknown"
	exponentLowBand = 1e-4
	exponentHiBand  = 1e16
)

// Option applies a configuration option to the Analyzer.
type Option func(*Analyzer)

// WithStrikeRateThreshold sets the batting value above which an alert fires.
func WithStrikeRateThreshold(v float64) Option {
	return func(a *Analyzer) {
		if !math.IsNaN(v) {
			a.strikeRate = v
		}
	}
}

// WithEconomyThreshold sets the bowling value below which an alert fires.
func WithEconomyThreshold(v float64) Option {
	return func(a *Analyzer) {
		if !math.IsNaN(v) {
			a.economy = v
		}
	}
}

// Analyzer applies the batting, bowling and fielding rules.
type Analyzer struct {
	strikeRate float64
	economy    float64
}

// NewAnalyzer creates an analyzer with the default thresholds.
func NewAnalyzer(opts ...Option) *Analyzer {
	a := &Analyzer{
		strikeRate: DefaultStrikeRateThreshold,
		economy:    DefaultEconomyThreshold,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze returns the alert messages a record triggers, possibly none.
// The performance type is matched case-insensitively.
func (a *Analyzer) Analyze(r model.PerformanceRecord) []string {
	player := r.PlayerName
	if player == "" {
		player = unknownPlayer
	}
	kind := strings.ToLower(r.PerformanceType)
	v, numeric := parseValue(r.PerformanceValue)

	var out []string
	switch kind {
	case string(model.Batting):
		if numeric && v > a.strikeRate {
			out = append(out, fmt.Sprintf("High Strike Rate by %s (%s)", player, FormatNumber(v)))
		}
	case string(model.Bowling):
		if numeric && v < a.economy {
			out = append(out, fmt.Sprintf("Good Bowling by %s (Economy %s)", player, FormatNumber(v)))
		}
	case fieldingType:
		switch {
		case numeric && !math.IsInf(v, 0):
			if v > 0 {
				out = append(out, fmt.Sprintf("Missed Fielding Opportunity by %s (%d missed)", player, int64(v)))
			}
		case strings.Contains(strings.ToLower(r.PerformanceValue), missKeyword):
			out = append(out, fmt.Sprintf("Missed Fielding Opportunity by %s (reported)", player))
		}
	}
	return out
}

func parseValue(raw string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// FormatNumber renders a float the way alert messages have always shown
// them: integral values keep a trailing ".0" and very large or very small
// magnitudes switch to exponent form.
func FormatNumber(v float64) string {
	switch {
	case math.IsNaN(v):
		return "nan"
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}
	abs := math.Abs(v)
	if abs != 0 && (abs < exponentLowBand || abs >= exponentHiBand) {
		return strconv.FormatFloat(v, 'e', -1, 64)
	}
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
