// Package app drives the dashboard: load cycles, submissions, and the
// reference store service.
package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/okian/crease/internal/adapters/httpclient"
	"github.com/okian/crease/internal/adapters/render"
	"github.com/okian/crease/internal/domain/aggregate"
	"github.com/okian/crease/internal/domain/model"
	"github.com/okian/crease/internal/domain/projection"
	"github.com/okian/crease/pkg/logger"
	"github.com/okian/crease/pkg/metrics"
)

const errorPrefix = "Error: "

// Fetcher is the subset of the store client the orchestrator needs.
type Fetcher interface {
	GetJSON(ctx context.Context, path string) (json.RawMessage, error)
	PostJSON(ctx context.Context, path string, body any) (httpclient.Response, error)
}

// LoadResult describes one finished load cycle.
type LoadResult struct {
	Cycle    uint64
	ID       string
	State    State
	Records  int
	Entities int
	// Err is the records failure, or ErrEmptyState wrapped with the
	// store's message.
	Err error
	// AlertsErr is the alert fetch failure, if any.
	AlertsErr error
	// Stale is set when a newer cycle had already been applied.
	Stale bool
	// Discarded is set when a stale result was dropped.
	Discarded bool
}

// SubmitResult describes one finished submission.
type SubmitResult struct {
	Accepted   bool
	Message    string
	StatusCode int
	Err        error
	// Load is the reload triggered by an accepted submission.
	Load *LoadResult
}

// Orchestrator runs load and submit cycles against the store and draws
// their results on the surfaces.
type Orchestrator struct {
	client   Fetcher
	surfaces render.Surfaces
	echo     *EchoBuffer
	clock    Clock
	log      logger.Logger

	maxEntities         int
	previewSize         int
	statusClearDelay    time.Duration
	coupleAlertFailures bool
	discardStale        bool

	state appState
}

// New constructs an orchestrator around client.
func New(client Fetcher, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		client:           client,
		echo:             NewEchoBuffer(),
		clock:            realClock{},
		log:              logger.Nop(),
		maxEntities:      unlimitedEntities,
		previewSize:      DefaultPreviewSize,
		statusClearDelay: DefaultStatusClearDelay,
	}
	for _, opt := range opts {
		opt(o)
	}
	if !o.surfaces.Complete() {
		snap := render.NewSnapshot()
		if o.surfaces.Chart == nil {
			o.surfaces.Chart = snap
		}
		if o.surfaces.Table == nil {
			o.surfaces.Table = snap
		}
		if o.surfaces.Slots == nil {
			o.surfaces.Slots = snap
		}
	}
	return o
}

// State returns the current lifecycle state.
func (o *Orchestrator) State() State { return o.state.get() }

// Echo returns the local echo buffer.
func (o *Orchestrator) Echo() *EchoBuffer { return o.echo }

// Load runs a full reload: records first, then alerts.
func (o *Orchestrator) Load(ctx context.Context) LoadResult {
	res := LoadResult{Cycle: o.state.begin(), ID: uuid.NewString()}
	log := o.log.Named("sync")
	fields := []logger.Field{logger.Int64("cycle", int64(res.Cycle)), logger.String("cycle_id", res.ID)}
	log.Debug(ctx, "load started", fields...)

	raw, err := o.client.GetJSON(ctx, httpclient.PathPlayerData)
	if err == nil {
		var records []model.PerformanceRecord
		var emptyMsg string
		records, emptyMsg, err = decodeRecords(raw)
		if err == nil && emptyMsg != "" {
			o.applyEmpty(ctx, &res, emptyMsg)
			return o.finish(ctx, res)
		}
		if err == nil {
			return o.loadRecords(ctx, res, records)
		}
	}

	res.Err = err
	log.Warn(ctx, "player data fetch failed", append(fields, logger.Error(err))...)
	o.apply(ctx, &res, func() {
		o.state.state = StateFailed
		o.surfaces.Slots.SetPrimary(errorPrefix + err.Error())
		o.surfaces.Slots.SetAlerts("")
		o.surfaces.Table.ReplaceRows(ctx, nil)
	})
	return o.finish(ctx, res)
}

func (o *Orchestrator) applyEmpty(ctx context.Context, res *LoadResult, msg string) {
	res.Err = fmt.Errorf("%w: %s", ErrEmptyState, msg)
	o.apply(ctx, res, func() {
		o.state.state = StateReady
		o.surfaces.Table.ReplaceRows(ctx, nil)
		o.surfaces.Slots.SetPrimary(msg)
		o.surfaces.Slots.SetAlerts("")
	})
}

func (o *Orchestrator) loadRecords(ctx context.Context, res LoadResult, records []model.PerformanceRecord) LoadResult {
	start := time.Now()
	p := aggregate.Aggregate(records, aggregate.WithMaxEntities(o.maxEntities))
	metrics.RecordAggregationDuration(float64(time.Since(start).Microseconds()) / 1000)
	res.Records = len(records)
	res.Entities = p.Len()

	rows := projection.Table(records)
	chart := projection.Chart(p)

	if !o.apply(ctx, &res, func() {
		o.surfaces.Slots.SetPrimary(projection.PreviewText(o.echo.Preview(o.previewSize)))
		o.surfaces.Table.ReplaceRows(ctx, rows)
		o.drawChart(ctx, chart)
	}) {
		return o.finish(ctx, res)
	}
	metrics.UpdateTrackedEntities(res.Entities)

	rawAlerts, err := o.client.GetJSON(ctx, httpclient.PathAlerts)
	if err != nil {
		res.AlertsErr = err
		o.log.Named("sync").Warn(ctx, "alerts fetch failed",
			logger.Int64("cycle", int64(res.Cycle)),
			logger.String("cycle_id", res.ID),
			logger.Bool("coupled", o.coupleAlertFailures),
			logger.Error(err),
		)
		o.apply(ctx, &res, func() {
			o.surfaces.Slots.SetAlerts("")
			if o.coupleAlertFailures {
				o.state.state = StateFailed
				o.surfaces.Slots.SetPrimary(errorPrefix + err.Error())
				return
			}
			o.state.state = StateReady
		})
		return o.finish(ctx, res)
	}

	text := projection.FormatAlerts(rawAlerts)
	o.apply(ctx, &res, func() {
		o.state.state = StateReady
		o.surfaces.Slots.SetAlerts(text)
	})
	return o.finish(ctx, res)
}

// drawChart must run inside an apply step.
func (o *Orchestrator) drawChart(ctx context.Context, data projection.ChartData) {
	if !o.state.chartCreated {
		if err := o.surfaces.Chart.Create(ctx, data, projection.DefaultAxisConfig()); err != nil {
			o.log.Error(ctx, "chart create failed", logger.Error(err))
			return
		}
		o.state.chartCreated = true
		return
	}
	if err := o.surfaces.Chart.Update(ctx, data); err != nil {
		o.log.Error(ctx, "chart update failed", logger.Error(err))
	}
}

// apply runs fn as one apply step of res's cycle and records staleness.
func (o *Orchestrator) apply(ctx context.Context, res *LoadResult, fn func()) bool {
	applied, stale := o.state.apply(res.Cycle, o.discardStale, fn)
	if !stale {
		return applied
	}
	res.Stale = true
	if !applied {
		res.Discarded = true
		metrics.RecordStaleDiscarded()
		o.log.Named("sync").Info(ctx, "stale load result discarded",
			logger.Int64("cycle", int64(res.Cycle)),
			logger.String("cycle_id", res.ID),
		)
		return false
	}
	metrics.RecordStaleApplied()
	o.log.Named("sync").Warn(ctx, "stale load result applied over a newer cycle",
		logger.Int64("cycle", int64(res.Cycle)),
		logger.String("cycle_id", res.ID),
	)
	return true
}

// finish reports the cycle. A discarded cycle reports whatever state the
// newer cycle left behind.
func (o *Orchestrator) finish(ctx context.Context, res LoadResult) LoadResult {
	res.State = o.state.get()

	outcome := metrics.OutcomeReady
	switch {
	case errors.Is(res.Err, ErrEmptyState):
		outcome = metrics.OutcomeEmpty
	case res.Err != nil, res.State == StateFailed:
		outcome = metrics.OutcomeFailed
	}
	metrics.RecordSyncCycle(outcome)

	o.log.Named("sync").Info(ctx, "load finished",
		logger.Int64("cycle", int64(res.Cycle)),
		logger.String("cycle_id", res.ID),
		logger.String("state", res.State.String()),
		logger.Int("records", res.Records),
		logger.Int("entities", res.Entities),
		logger.Bool("stale", res.Stale),
	)
	return res
}

// Submit posts rec after trimming its free-text fields. An accepted
// submission is echoed locally and followed by a full reload.
func (o *Orchestrator) Submit(ctx context.Context, rec model.PerformanceRecord) SubmitResult {
	rec = rec.Trimmed()
	o.state.set(StateSubmitting)
	log := o.log.Named("submit")

	resp, err := o.client.PostJSON(ctx, httpclient.PathPlayerData, rec)
	if err != nil {
		msg := errorPrefix + err.Error()
		o.setFormStatus(msg)
		o.state.set(StateFailed)
		metrics.RecordSubmission(metrics.OutcomeRejected)
		log.Warn(ctx, "submission failed", logger.String("player", rec.PlayerName), logger.Error(err))
		return SubmitResult{Message: msg, Err: err}
	}

	msg := statusMessage(resp.Body)
	o.setFormStatus(msg)
	if !resp.OK() {
		o.state.set(StateFailed)
		metrics.RecordSubmission(metrics.OutcomeRejected)
		log.Warn(ctx, "submission rejected",
			logger.String("player", rec.PlayerName),
			logger.Int("status", resp.StatusCode),
			logger.String("message", msg),
		)
		return SubmitResult{Message: msg, StatusCode: resp.StatusCode}
	}

	o.echo.Append(model.EchoEntry{Record: rec, SubmittedAt: o.clock.Now()})
	preview := projection.PreviewText(o.echo.Preview(o.previewSize))
	o.state.withLock(func() { o.surfaces.Slots.SetPrimary(preview) })
	metrics.RecordSubmission(metrics.OutcomeAccepted)
	log.Info(ctx, "submission accepted", logger.String("player", rec.PlayerName), logger.Int("status", resp.StatusCode))

	load := o.Load(ctx)
	return SubmitResult{Accepted: true, Message: msg, StatusCode: resp.StatusCode, Load: &load}
}

// setFormStatus shows text and schedules its removal unless a newer status
// replaces it first.
func (o *Orchestrator) setFormStatus(text string) {
	var gen uint64
	o.state.withLock(func() {
		o.state.statusGen++
		gen = o.state.statusGen
		o.surfaces.Slots.SetFormStatus(text)
	})
	if o.statusClearDelay <= 0 {
		return
	}
	o.clock.AfterFunc(o.statusClearDelay, func() {
		o.state.withLock(func() {
			if o.state.statusGen == gen {
				o.surfaces.Slots.SetFormStatus("")
			}
		})
	})
}

// decodeRecords reads a player data payload. A list yields records, null
// yields none, and an object with a truthy "error" yields its message.
func decodeRecords(raw json.RawMessage) ([]model.PerformanceRecord, string, error) {
	trimmed := bytes.TrimSpace(raw)
	switch {
	case len(trimmed) == 0:
		return nil, "", ErrMalformedPayload
	case bytes.Equal(trimmed, []byte("null")):
		return nil, "", nil
	case trimmed[0] == '[':
		var items []map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, "", fmt.Errorf("%w: %v", ErrMalformedPayload, err)
		}
		records := make([]model.PerformanceRecord, len(items))
		for i, item := range items {
			records[i] = model.PerformanceRecord{
				PlayerName:       model.DisplayText(item["player_name"]),
				MatchDate:        model.DisplayText(item["match_date"]),
				PerformanceType:  model.DisplayText(item["performance_type"]),
				PerformanceValue: model.DisplayText(item["performance_value"]),
			}
		}
		return records, "", nil
	case trimmed[0] == '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &obj); err != nil {
			return nil, "", fmt.Errorf("%w: %v", ErrMalformedPayload, err)
		}
		if msg, ok := obj["error"]; ok && truthy(msg) {
			return nil, model.DisplayText(msg), nil
		}
	}
	return nil, "", ErrMalformedPayload
}

func truthy(v json.RawMessage) bool {
	switch string(bytes.TrimSpace(v)) {
	case "", "null", "false", "0", `""`:
		return false
	}
	return true
}

// statusMessage picks the "message" field of a reply, falling back to the
// raw payload.
func statusMessage(body json.RawMessage) string {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err == nil {
		if msg, ok := obj["message"]; ok && truthy(msg) {
			return model.DisplayText(msg)
		}
	}
	var compact bytes.Buffer
	if err := json.Compact(&compact, body); err == nil {
		return compact.String()
	}
	return string(body)
}
