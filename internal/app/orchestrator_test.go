package app_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/okian/crease/internal/adapters/httpclient"
	"github.com/okian/crease/internal/adapters/render"
	"github.com/okian/crease/internal/app"
	"github.com/okian/crease/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

const (
	recordsP1P2 = `[
		{"player_name":"P1","match_date":"2024-03-01","performance_type":"batting","performance_value":"45"},
		{"player_name":"P2","match_date":"2024-03-01","performance_type":"bowling","performance_value":"3.2"},
		{"player_name":"P1","match_date":"2024-03-02","performance_type":"bowling","performance_value":"x"}
	]`
	alertsOne = `[{"timestamp":"2024-03-01 10:00:00","alert_message":"Good Bowling by P2 (Economy 3.2)"}]`
)

func newOrchestrator(f *fakeFetcher, opts ...app.Option) (*app.Orchestrator, *render.Snapshot, *fakeClock) {
	snap := render.NewSnapshot()
	clock := &fakeClock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
	opts = append([]app.Option{app.WithSurfaces(snap.Surfaces()), app.WithClock(clock)}, opts...)
	return app.New(f, opts...), snap, clock
}

func TestOrchestrator_Load(t *testing.T) {
	ctx := context.Background()

	Convey("Given a new orchestrator", t, func() {
		f := newFakeFetcher()
		o, _, _ := newOrchestrator(f)

		Convey("Then it should be idle", func() {
			So(o.State(), ShouldEqual, app.StateIdle)
			So(o.State().String(), ShouldEqual, "idle")
		})
	})

	Convey("Given a store with records and alerts", t, func() {
		f := newFakeFetcher().
			onGet(httpclient.PathPlayerData, reply(recordsP1P2)).
			onGet(httpclient.PathAlerts, reply(alertsOne))
		o, snap, _ := newOrchestrator(f)

		Convey("When loading", func() {
			res := o.Load(ctx)
			v := snap.View()

			Convey("Then the cycle should be ready", func() {
				So(res.State, ShouldEqual, app.StateReady)
				So(res.Err, ShouldBeNil)
				So(res.Cycle, ShouldEqual, 1)
				So(res.ID, ShouldNotBeEmpty)
				So(res.Records, ShouldEqual, 3)
				So(res.Entities, ShouldEqual, 2)
				So(o.State(), ShouldEqual, app.StateReady)
			})

			Convey("And the table should hold every record in order", func() {
				So(len(v.Rows), ShouldEqual, 3)
				So(v.Rows[2].PerformanceValue, ShouldEqual, "x")
			})

			Convey("And the chart should follow recency order", func() {
				So(v.Chart, ShouldNotBeNil)
				So(v.Chart.Creates, ShouldEqual, 1)
				So(v.Chart.Data.Labels, ShouldResemble, []string{"P2", "P1"})
				So(v.Chart.Data.Batting, ShouldResemble, []model.MetricValue{model.Unknown(), model.Numeric(45)})
				So(v.Chart.Data.Bowling, ShouldResemble, []model.MetricValue{model.Numeric(3.2), model.Unknown()})
			})

			Convey("And the preview and alerts should be shown", func() {
				So(v.Primary, ShouldEqual, "No player data yet.")
				So(v.Alerts, ShouldEqual, "2024-03-01 10:00:00 — Good Bowling by P2 (Economy 3.2)")
			})
		})

		Convey("When loading twice", func() {
			o.Load(ctx)
			res := o.Load(ctx)
			v := snap.View()

			Convey("Then the chart should be updated in place", func() {
				So(res.Cycle, ShouldEqual, 2)
				So(v.Chart.Creates, ShouldEqual, 1)
				So(v.Chart.Updates, ShouldEqual, 1)
			})
		})
	})

	Convey("Given a store that reports no data", t, func() {
		f := newFakeFetcher().
			onGet(httpclient.PathPlayerData, reply(`{"error":"no data"}`)).
			onGet(httpclient.PathAlerts, reply(alertsOne))
		o, snap, _ := newOrchestrator(f)
		snap.SetAlerts("old alerts")

		Convey("When loading", func() {
			res := o.Load(ctx)
			v := snap.View()

			Convey("Then the message should be shown and everything else cleared", func() {
				So(errors.Is(res.Err, app.ErrEmptyState), ShouldBeTrue)
				So(res.State, ShouldEqual, app.StateReady)
				So(v.Primary, ShouldEqual, "no data")
				So(v.Alerts, ShouldEqual, "")
				So(v.Rows, ShouldBeEmpty)
				So(v.Chart, ShouldBeNil)
			})

			Convey("And alerts should not be fetched", func() {
				So(f.callCount(httpclient.PathAlerts), ShouldEqual, 0)
			})
		})
	})

	Convey("Given a store whose records endpoint fails", t, func() {
		f := newFakeFetcher().
			onGet(httpclient.PathPlayerData, reply(recordsP1P2), fail(statusError(httpclient.PathPlayerData, 500, "Internal Server Error"))).
			onGet(httpclient.PathAlerts, reply(alertsOne))
		o, snap, _ := newOrchestrator(f)

		Convey("When a good load is followed by a failed one", func() {
			o.Load(ctx)
			res := o.Load(ctx)
			v := snap.View()

			Convey("Then the error should replace the view", func() {
				So(errors.Is(res.Err, httpclient.ErrTransport), ShouldBeTrue)
				So(res.State, ShouldEqual, app.StateFailed)
				So(v.Primary, ShouldEqual, "Error: 500 Internal Server Error")
				So(v.Alerts, ShouldEqual, "")
				So(v.Rows, ShouldBeEmpty)
			})

			Convey("And alerts should only have been fetched by the good load", func() {
				So(f.callCount(httpclient.PathAlerts), ShouldEqual, 1)
			})
		})
	})

	Convey("Given a malformed records payload", t, func() {
		f := newFakeFetcher().onGet(httpclient.PathPlayerData, reply(`{"error":""}`))
		o, snap, _ := newOrchestrator(f)

		Convey("When loading", func() {
			res := o.Load(ctx)

			Convey("Then it should fail like a transport error", func() {
				So(errors.Is(res.Err, app.ErrMalformedPayload), ShouldBeTrue)
				So(res.State, ShouldEqual, app.StateFailed)
				So(snap.View().Primary, ShouldStartWith, "Error: ")
			})
		})
	})

	Convey("Given a null records payload", t, func() {
		f := newFakeFetcher().onGet(httpclient.PathPlayerData, reply(`null`))
		o, snap, _ := newOrchestrator(f)

		Convey("When loading", func() {
			res := o.Load(ctx)

			Convey("Then it should load as an empty list", func() {
				So(res.State, ShouldEqual, app.StateReady)
				So(res.Records, ShouldEqual, 0)
				So(snap.View().Chart.Data.Labels, ShouldBeEmpty)
			})
		})
	})

	Convey("Given an alerts endpoint that fails", t, func() {
		alertErr := statusError(httpclient.PathAlerts, 503, "Service Unavailable")

		Convey("When failures are decoupled", func() {
			f := newFakeFetcher().
				onGet(httpclient.PathPlayerData, reply(recordsP1P2)).
				onGet(httpclient.PathAlerts, fail(alertErr))
			o, snap, _ := newOrchestrator(f)
			snap.SetAlerts("old alerts")
			res := o.Load(ctx)
			v := snap.View()

			Convey("Then only the alert slot should be affected", func() {
				So(res.State, ShouldEqual, app.StateReady)
				So(res.Err, ShouldBeNil)
				So(res.AlertsErr, ShouldEqual, alertErr)
				So(v.Alerts, ShouldEqual, "")
				So(v.Primary, ShouldEqual, "No player data yet.")
				So(len(v.Rows), ShouldEqual, 3)
			})
		})

		Convey("When failures are coupled", func() {
			f := newFakeFetcher().
				onGet(httpclient.PathPlayerData, reply(recordsP1P2)).
				onGet(httpclient.PathAlerts, fail(alertErr))
			o, snap, _ := newOrchestrator(f, app.WithCoupledAlertFailures(true))
			res := o.Load(ctx)
			v := snap.View()

			Convey("Then the primary display should show the error", func() {
				So(res.State, ShouldEqual, app.StateFailed)
				So(v.Primary, ShouldEqual, "Error: 503 Service Unavailable")
				So(v.Alerts, ShouldEqual, "")
			})

			Convey("And the rendered records should stay", func() {
				So(len(v.Rows), ShouldEqual, 3)
				So(v.Chart, ShouldNotBeNil)
			})
		})
	})

	Convey("Given a non-list alerts payload", t, func() {
		f := newFakeFetcher().
			onGet(httpclient.PathPlayerData, reply(recordsP1P2)).
			onGet(httpclient.PathAlerts, reply(`{"unexpected":true}`))
		o, snap, _ := newOrchestrator(f)
		o.Load(ctx)

		Convey("Then the empty-list marker should be shown", func() {
			So(snap.View().Alerts, ShouldEqual, "[]")
		})
	})

	Convey("Given a max entity limit", t, func() {
		f := newFakeFetcher().onGet(httpclient.PathPlayerData, reply(recordsP1P2))
		o, snap, _ := newOrchestrator(f, app.WithMaxEntities(1))
		res := o.Load(ctx)

		Convey("Then only the most recent player should be charted", func() {
			So(res.Entities, ShouldEqual, 1)
			So(snap.View().Chart.Data.Labels, ShouldResemble, []string{"P1"})
			So(len(snap.View().Rows), ShouldEqual, 3)
		})
	})
}

// overlapping starts a slow cycle, runs a fast one to completion, then
// lets the slow one finish.
func overlapping(o *app.Orchestrator, started <-chan struct{}, release chan<- struct{}) (slow, fast app.LoadResult) {
	ctx := context.Background()
	done := make(chan app.LoadResult, 1)
	go func() { done <- o.Load(ctx) }()
	<-started
	fast = o.Load(ctx)
	close(release)
	return <-done, fast
}

func slowFirst(started chan<- struct{}, release <-chan struct{}) (getFunc, getFunc) {
	slow := func(context.Context) (json.RawMessage, error) {
		close(started)
		<-release
		return json.RawMessage(`[{"player_name":"OLD","match_date":"d","performance_type":"batting","performance_value":"1"}]`), nil
	}
	return slow, reply(`[{"player_name":"NEW","match_date":"d","performance_type":"batting","performance_value":"2"}]`)
}

func TestOrchestrator_OverlappingCycles(t *testing.T) {
	Convey("Given two overlapping load cycles", t, func() {
		started := make(chan struct{})
		release := make(chan struct{})
		slow, fast := slowFirst(started, release)

		Convey("When stale results are applied", func() {
			f := newFakeFetcher().onGet(httpclient.PathPlayerData, slow, fast)
			o, snap, _ := newOrchestrator(f)
			slowRes, fastRes := overlapping(o, started, release)

			Convey("Then the older cycle should overwrite the newer one and be flagged", func() {
				So(slowRes.Cycle, ShouldEqual, 1)
				So(fastRes.Cycle, ShouldEqual, 2)
				So(fastRes.Stale, ShouldBeFalse)
				So(slowRes.Stale, ShouldBeTrue)
				So(slowRes.Discarded, ShouldBeFalse)
				So(snap.View().Rows[0].PlayerName, ShouldEqual, "OLD")
			})
		})

		Convey("When stale results are discarded", func() {
			f := newFakeFetcher().onGet(httpclient.PathPlayerData, slow, fast)
			o, snap, _ := newOrchestrator(f, app.WithDiscardStale(true))
			slowRes, _ := overlapping(o, started, release)

			Convey("Then the newer cycle should stay on screen", func() {
				So(slowRes.Stale, ShouldBeTrue)
				So(slowRes.Discarded, ShouldBeTrue)
				So(slowRes.State, ShouldEqual, app.StateReady)
				So(snap.View().Rows[0].PlayerName, ShouldEqual, "NEW")
			})
		})
	})
}

func TestOrchestrator_Submit(t *testing.T) {
	ctx := context.Background()
	rec := func(i int) model.PerformanceRecord {
		return model.PerformanceRecord{
			PlayerName:       fmt.Sprintf(" P%d ", i),
			MatchDate:        "2024-03-01",
			PerformanceType:  "batting",
			PerformanceValue: fmt.Sprintf(" %d ", i),
		}
	}

	Convey("Given a store that accepts submissions", t, func() {
		f := newFakeFetcher().onGet(httpclient.PathPlayerData, reply(recordsP1P2))
		o, snap, clock := newOrchestrator(f)

		Convey("When submitting one record", func() {
			res := o.Submit(ctx, rec(1))

			Convey("Then the trimmed record should be posted", func() {
				So(f.posts, ShouldHaveLength, 1)
				So(f.posts[0], ShouldResemble, model.PerformanceRecord{PlayerName: "P1", MatchDate: "2024-03-01", PerformanceType: "batting", PerformanceValue: "1"})
			})

			Convey("Then exactly one echo entry should be appended and a reload run", func() {
				So(res.Accepted, ShouldBeTrue)
				So(res.Message, ShouldEqual, "Data added in-memory")
				So(o.Echo().Len(), ShouldEqual, 1)
				So(res.Load, ShouldNotBeNil)
				So(res.Load.State, ShouldEqual, app.StateReady)
				So(f.callCount(httpclient.PathPlayerData), ShouldEqual, 1)
			})

			Convey("And the preview should show the entry", func() {
				So(snap.View().Primary, ShouldContainSubstring, `"player_name": "P1"`)
				So(snap.View().FormStatus, ShouldEqual, "Data added in-memory")
			})

			Convey("And the status should clear after the delay", func() {
				clock.fireAll()
				So(snap.View().FormStatus, ShouldEqual, "")
			})
		})

		Convey("When submitting twelve records", func() {
			for i := 1; i <= 12; i++ {
				o.Submit(ctx, rec(i))
			}
			preview := o.Echo().Preview(app.DefaultPreviewSize)

			Convey("Then the preview should hold the last ten, newest first", func() {
				So(o.Echo().Len(), ShouldEqual, 12)
				So(preview, ShouldHaveLength, 10)
				So(preview[0].Record.PlayerName, ShouldEqual, "P12")
				So(preview[9].Record.PlayerName, ShouldEqual, "P3")

				var shown []model.PerformanceRecord
				So(json.Unmarshal([]byte(snap.View().Primary), &shown), ShouldBeNil)
				So(shown, ShouldHaveLength, 10)
				So(shown[0].PlayerName, ShouldEqual, "P12")
			})

			Convey("And an older status timer should not clear a newer status", func() {
				clock.fireOldest()
				So(snap.View().FormStatus, ShouldEqual, "Data added in-memory")
				clock.fireAll()
				So(snap.View().FormStatus, ShouldEqual, "")
			})
		})
	})

	Convey("Given a store that rejects the submission", t, func() {
		f := newFakeFetcher()
		f.post = func(any) (httpclient.Response, error) {
			return httpclient.Response{StatusCode: 400, Body: json.RawMessage(`{"error": "Missing field match_date"}`)}, nil
		}
		o, snap, _ := newOrchestrator(f)
		res := o.Submit(ctx, rec(1))

		Convey("Then the raw payload should be shown and nothing echoed", func() {
			So(res.Accepted, ShouldBeFalse)
			So(res.StatusCode, ShouldEqual, 400)
			So(res.Message, ShouldEqual, `{"error":"Missing field match_date"}`)
			So(snap.View().FormStatus, ShouldEqual, `{"error":"Missing field match_date"}`)
			So(o.Echo().Len(), ShouldEqual, 0)
			So(o.State(), ShouldEqual, app.StateFailed)
		})

		Convey("And no reload should run", func() {
			So(res.Load, ShouldBeNil)
			So(f.callCount(httpclient.PathPlayerData), ShouldEqual, 0)
		})
	})

	Convey("Given a store that cannot be reached", t, func() {
		f := newFakeFetcher()
		f.post = func(any) (httpclient.Response, error) {
			return httpclient.Response{}, &httpclient.TransportError{Method: "POST", Path: httpclient.PathPlayerData, Err: errors.New("connection refused")}
		}
		o, snap, clock := newOrchestrator(f)
		res := o.Submit(ctx, rec(1))

		Convey("Then a generic error should be shown in the form status", func() {
			So(res.Accepted, ShouldBeFalse)
			So(errors.Is(res.Err, httpclient.ErrTransport), ShouldBeTrue)
			So(snap.View().FormStatus, ShouldEqual, "Error: connection refused")
			So(snap.View().Primary, ShouldEqual, "")
			So(o.State(), ShouldEqual, app.StateFailed)
		})

		Convey("And the error should auto-clear", func() {
			clock.fireAll()
			So(snap.View().FormStatus, ShouldEqual, "")
		})
	})
}

func TestEchoBuffer(t *testing.T) {
	Convey("Given an empty echo buffer", t, func() {
		b := app.NewEchoBuffer()

		Convey("Then the preview should be empty", func() {
			So(b.Len(), ShouldEqual, 0)
			So(b.Preview(10), ShouldBeEmpty)
		})

		Convey("When entries are appended", func() {
			for _, name := range []string{"a", "b", "c"} {
				b.Append(model.EchoEntry{Record: model.PerformanceRecord{PlayerName: name}})
			}

			Convey("Then the preview should be newest first and bounded", func() {
				p := b.Preview(2)
				So(p, ShouldHaveLength, 2)
				So(p[0].Record.PlayerName, ShouldEqual, "c")
				So(p[1].Record.PlayerName, ShouldEqual, "b")
				So(b.Preview(0), ShouldBeEmpty)
				So(b.Preview(99), ShouldHaveLength, 3)
			})
		})
	})
}
