package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"
	"gopkg.in/yaml.v3"

	"github.com/okian/crease/internal/app"
	"github.com/okian/crease/pkg/logger"
)

// runCLI executes the root command with args and returns stdout.
func runCLI(args []string, stdin string) (string, error) {
	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

// startStore runs an unseeded store behind httptest and points the CLI at it.
func startStore() (*httptest.Server, func()) {
	ctx := context.Background()
	svc := app.NewStoreService()
	if err := svc.Start(ctx); err != nil {
		panic(err)
	}
	srv := httptest.NewServer(newStoreMux(ctx, svc, logger.Nop()))
	clearEnv()
	_ = os.Setenv("CREASE_BASE_URL", srv.URL)
	_ = os.Setenv("CREASE_LOG_LEVEL", "error")
	return srv, func() {
		srv.Close()
		svc.Stop()
		clearEnv()
	}
}

func clearEnv() {
	for _, kv := range os.Environ() {
		name, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(name, "CREASE_") {
			_ = os.Unsetenv(name)
		}
	}
}

func TestRootCommand(t *testing.T) {
	convey.Convey("Given the root command", t, func() {
		cmd := newRootCommand()

		convey.Convey("Then every subcommand should be present", func() {
			for _, name := range []string{"serve", "dashboard", "submit"} {
				sub, _, err := cmd.Find([]string{name})
				convey.So(err, convey.ShouldBeNil)
				convey.So(sub.Name(), convey.ShouldEqual, name)
			}
		})

		convey.Convey("Then the format flag should default to text", func() {
			flag := cmd.PersistentFlags().Lookup("format")
			convey.So(flag, convey.ShouldNotBeNil)
			convey.So(flag.DefValue, convey.ShouldEqual, "text")
		})

		convey.Convey("Then the dashboard flags should be registered", func() {
			dash, _, err := cmd.Find([]string{"dashboard"})
			convey.So(err, convey.ShouldBeNil)
			convey.So(dash.Flags().Lookup("interactive").Shorthand, convey.ShouldEqual, "i")
			convey.So(dash.Flags().Lookup("listen"), convey.ShouldNotBeNil)
			convey.So(dash.Flags().Lookup("bar-width").DefValue, convey.ShouldEqual, "30")
			convey.So(dash.Flags().Lookup("mono"), convey.ShouldNotBeNil)
		})

		convey.Convey("When an unknown format is requested", func() {
			clearEnv()
			_, err := runCLI([]string{"dashboard", "--format", "xml"}, "")

			convey.Convey("Then the command should fail before running", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "invalid format")
			})
		})

		convey.Convey("When the configuration is invalid", func() {
			clearEnv()
			_ = os.Setenv("CREASE_PREVIEW_SIZE", "0")
			defer clearEnv()
			_, err := runCLI([]string{"dashboard"}, "")

			convey.Convey("Then the command should report it", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "failed to load config")
			})
		})
	})
}

func TestSubmitAndDashboard(t *testing.T) {
	convey.Convey("Given a running store", t, func() {
		_, stop := startStore()
		defer stop()

		convey.Convey("When a record is submitted", func() {
			out, err := runCLI([]string{
				"submit", "--format", "json",
				"--player", " P1 ", "--date", "2024-03-01", "--type", "batting", "--value", "160",
			}, "")

			convey.Convey("Then the store's reply should be printed", func() {
				convey.So(err, convey.ShouldBeNil)
				var res map[string]any
				convey.So(json.Unmarshal([]byte(out), &res), convey.ShouldBeNil)
				convey.So(res["accepted"], convey.ShouldEqual, true)
				convey.So(res["status_code"], convey.ShouldEqual, float64(201))
				convey.So(res["message"], convey.ShouldEqual, "Data added in-memory")
				convey.So(res["records"], convey.ShouldEqual, float64(1))
			})

			convey.Convey("And the dashboard should show it", func() {
				out, err := runCLI([]string{"dashboard", "--format", "json"}, "")
				convey.So(err, convey.ShouldBeNil)

				var view map[string]any
				convey.So(json.Unmarshal([]byte(out), &view), convey.ShouldBeNil)
				convey.So(view["primary"], convey.ShouldEqual, "No player data yet.")
				convey.So(view["rows"], convey.ShouldHaveLength, 1)
				convey.So(view["alerts"], convey.ShouldEndWith, " — High Strike Rate by P1 (160.0)")

				chart := view["chart"].(map[string]any)
				data := chart["data"].(map[string]any)
				convey.So(data["labels"], convey.ShouldResemble, []any{"P1"})
				convey.So(data["batting"], convey.ShouldResemble, []any{float64(160)})
				convey.So(data["bowling"], convey.ShouldResemble, []any{nil})
			})

			convey.Convey("And a narrow mono frame should scale the bar to its width", func() {
				out, err := runCLI([]string{"dashboard", "--mono", "--bar-width", "5"}, "")
				convey.So(err, convey.ShouldBeNil)
				convey.So(out, convey.ShouldContainSubstring, "█████ 160")
				convey.So(out, convey.ShouldNotContainSubstring, "██████")
			})
		})

		convey.Convey("When the dashboard is rendered as YAML", func() {
			out, err := runCLI([]string{"dashboard", "--format", "yaml"}, "")

			convey.Convey("Then the view should use the JSON field names", func() {
				convey.So(err, convey.ShouldBeNil)
				var view map[string]any
				convey.So(yaml.Unmarshal([]byte(out), &view), convey.ShouldBeNil)
				convey.So(view["primary"], convey.ShouldEqual, "No player data yet.")
				convey.So(view["form_status"], convey.ShouldEqual, "")
			})
		})

		convey.Convey("When the dashboard runs interactively", func() {
			out, err := runCLI([]string{"dashboard", "-i"},
				"add P2, 2024-03-02, bowling, 4\nadd broken\nbogus\nreload\nquit\n")

			convey.Convey("Then each command should print a frame", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(out, convey.ShouldContainSubstring, "Recent entries")
				convey.So(out, convey.ShouldContainSubstring, `"player_name": "P2"`)
				convey.So(out, convey.ShouldContainSubstring, "Good Bowling by P2 (Economy 4.0)")
				convey.So(out, convey.ShouldContainSubstring, "usage: add")
				convey.So(out, convey.ShouldContainSubstring, `unknown command "bogus"`)
			})
		})
	})
}

func TestDashboardFailure(t *testing.T) {
	convey.Convey("Given a store that always fails", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()
		clearEnv()
		_ = os.Setenv("CREASE_BASE_URL", srv.URL)
		defer clearEnv()

		convey.Convey("When the dashboard loads once", func() {
			out, err := runCLI([]string{"dashboard"}, "")

			convey.Convey("Then the error should be shown and returned", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(out, convey.ShouldContainSubstring, "Error: 500 Internal Server Error")
			})
		})
	})
}

func TestSubmitRejected(t *testing.T) {
	convey.Convey("Given a store that rejects every record", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error": "Missing field match_date"}`))
		}))
		defer srv.Close()
		clearEnv()
		_ = os.Setenv("CREASE_BASE_URL", srv.URL)
		defer clearEnv()

		convey.Convey("When a record is submitted", func() {
			out, err := runCLI([]string{
				"submit", "--player", "P1", "--date", "2024-03-01", "--type", "batting", "--value", "1",
			}, "")

			convey.Convey("Then the raw reply should be printed and the command should fail", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(out, convey.ShouldEqual, `{"error":"Missing field match_date"}`+"\n")
			})
		})
	})
}

func TestParseRecord(t *testing.T) {
	convey.Convey("Given an add command line", t, func() {
		convey.Convey("When it has four fields", func() {
			rec, err := parseRecord(" P1 , 2024-03-01,batting, 45 ")

			convey.Convey("Then the fields should be trimmed", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(rec.PlayerName, convey.ShouldEqual, "P1")
				convey.So(rec.MatchDate, convey.ShouldEqual, "2024-03-01")
				convey.So(rec.PerformanceType, convey.ShouldEqual, "batting")
				convey.So(rec.PerformanceValue, convey.ShouldEqual, "45")
			})
		})

		convey.Convey("When it has too few fields", func() {
			_, err := parseRecord("P1, 2024-03-01")

			convey.Convey("Then it should be rejected", func() {
				convey.So(err, convey.ShouldNotBeNil)
			})
		})
	})
}

func TestSystemMetrics(t *testing.T) {
	convey.Convey("Given the system metrics updater", t, func() {
		convey.Convey("Then a single update should not panic", func() {
			convey.So(updateSystemMetrics, convey.ShouldNotPanic)
		})

		convey.Convey("Then the loop should stop with its context", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer cancel()
			convey.So(func() { startSystemMetricsUpdater(ctx) }, convey.ShouldNotPanic)
		})
	})
}
