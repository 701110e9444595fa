// Package seed loads starting records for the store from CSV exports.
package seed

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/okian/crease/internal/domain/model"
	"github.com/okian/crease/pkg/logger"
)

// Column names in the CSV exports.
const (
	ColumnPlayerName = "player_name"
	ColumnStrikeRate = "strike_rate"
	ColumnEconomy    = "economy"

	matchDateLayout = "2006-01-02"
)

// ErrMalformed is returned for files that exist but cannot be parsed.
var ErrMalformed = errors.New("malformed seed file")

// Source names a CSV file and the column that carries its metric.
type Source struct {
	Path   string
	Type   model.Channel
	Column string
}

// Batting is the batting export; strike rate becomes the value.
func Batting(path string) Source {
	return Source{Path: path, Type: model.Batting, Column: ColumnStrikeRate}
}

// Bowling is the bowling export; economy becomes the value.
func Bowling(path string) Source {
	return Source{Path: path, Type: model.Bowling, Column: ColumnEconomy}
}

// Option applies a configuration option to the Loader.
type Option func(*Loader)

// WithClock sets the time source for the match date.
func WithClock(now func() time.Time) Option {
	return func(l *Loader) {
		if now != nil {
			l.now = now
		}
	}
}

// WithLogger sets the logger.
func WithLogger(lg logger.Logger) Option {
	return func(l *Loader) {
		if lg != nil {
			l.log = lg
		}
	}
}

// Loader reads sources into records dated today.
type Loader struct {
	now func() time.Time
	log logger.Logger
}

// NewLoader creates a loader.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{now: time.Now, log: logger.Nop()}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// LoadAll loads every source in order. Missing files and files without
// the expected columns contribute nothing. A malformed file is skipped and
// its error joined into the result.
func (l *Loader) LoadAll(ctx context.Context, sources ...Source) ([]model.PerformanceRecord, error) {
	var (
		out  []model.PerformanceRecord
		errs []error
	)
	for _, src := range sources {
		recs, err := l.Load(ctx, src)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out = append(out, recs...)
	}
	return out, errors.Join(errs...)
}

// Load reads one source. An empty path or a missing file yields no records
// and no error.
func (l *Loader) Load(ctx context.Context, src Source) ([]model.PerformanceRecord, error) {
	if src.Path == "" {
		return nil, nil
	}
	f, err := os.Open(src.Path)
	if errors.Is(err, fs.ErrNotExist) {
		l.log.Debug(ctx, "seed file not found", logger.String("path", src.Path))
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", src.Path, err)
	}
	defer f.Close()

	recs, err := l.read(f, src)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, src.Path, err)
	}
	l.log.Info(ctx, "seed file loaded",
		logger.String("path", src.Path),
		logger.String("type", src.Type.String()),
		logger.Int("records", len(recs)),
	)
	return recs, nil
}

func (l *Loader) read(r io.Reader, src Source) ([]model.PerformanceRecord, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	nameIdx, valueIdx := -1, -1
	for i, h := range header {
		switch strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")) {
		case ColumnPlayerName:
			nameIdx = i
		case src.Column:
			valueIdx = i
		}
	}
	if nameIdx < 0 || valueIdx < 0 {
		return nil, nil
	}

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}

	date := l.now().Format(matchDateLayout)
	recs := make([]model.PerformanceRecord, 0, len(rows))
	for _, row := range rows {
		name := strings.TrimSpace(row[nameIdx])
		if name == "" {
			continue
		}
		recs = append(recs, model.PerformanceRecord{
			PlayerName:       name,
			MatchDate:        date,
			PerformanceType:  src.Type.String(),
			PerformanceValue: strings.TrimSpace(row[valueIdx]),
		})
	}
	return recs, nil
}
