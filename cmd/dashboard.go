package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/okian/crease/internal/adapters/http/api"
	"github.com/okian/crease/internal/adapters/render"
	"github.com/okian/crease/internal/app"
	"github.com/okian/crease/internal/domain/model"
)

// dashboardOptions holds flags for the dashboard command.
type dashboardOptions struct {
	*rootOptions
	interactive bool
	listen      string
	barWidth    int
	mono        bool
}

func newDashboardCommand(rootOpts *rootOptions) *cobra.Command {
	opts := &dashboardOptions{rootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Load the store and show the dashboard",
		Long: `Load the store and show the dashboard.

Without flags the dashboard loads once, prints a frame and exits.

With --interactive it keeps reading commands from stdin:
  reload                                   reload from the store
  add <player>, <date>, <type>, <value>    submit a record
  quit                                     exit

With --listen it serves the dashboard state as JSON on GET /view,
POST /reload and POST /submit.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			switch {
			case opts.listen != "":
				return listenDashboard(cmd.Context(), opts)
			case opts.interactive:
				return interactiveDashboard(cmd.Context(), opts, cmd.InOrStdin(), cmd.OutOrStdout())
			default:
				return showDashboard(cmd.Context(), opts, cmd.OutOrStdout())
			}
		},
	}

	cmd.Flags().BoolVarP(&opts.interactive, "interactive", "i", false, "read commands from stdin")
	cmd.Flags().StringVar(&opts.listen, "listen", "", "serve the dashboard state on this address")
	cmd.Flags().IntVar(&opts.barWidth, "bar-width", 30, "maximum chart bar length in cells")
	cmd.Flags().BoolVar(&opts.mono, "mono", false, "draw the dashboard without colors")

	return cmd
}

func (o *dashboardOptions) newTerminal(out io.Writer) *render.Terminal {
	topts := []render.TerminalOption{render.WithBarWidth(o.barWidth)}
	if o.mono {
		topts = append(topts, render.WithTheme(render.MonoTheme()))
	}
	return render.NewTerminal(out, topts...)
}

// showDashboard runs one load cycle and prints the result.
func showDashboard(ctx context.Context, opts *dashboardOptions, out io.Writer) error {
	term := opts.newTerminal(out)
	orch := opts.newOrchestrator(term.Surfaces())

	res := orch.Load(ctx)
	if err := writeView(ctx, opts.format, term, out); err != nil {
		return err
	}
	if res.State == app.StateFailed {
		return fmt.Errorf("load failed: %w", firstErr(res.Err, res.AlertsErr))
	}
	return nil
}

// interactiveDashboard is a single-goroutine read loop: every command
// finishes, and its frame is printed, before the next line is read.
func interactiveDashboard(ctx context.Context, opts *dashboardOptions, in io.Reader, out io.Writer) error {
	term := opts.newTerminal(out)
	orch := opts.newOrchestrator(term.Surfaces())

	orch.Load(ctx)
	if err := writeView(ctx, opts.format, term, out); err != nil {
		return err
	}

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		if ctx.Err() != nil {
			return nil
		}

		verb, rest, _ := strings.Cut(strings.TrimSpace(scanner.Text()), " ")
		switch strings.ToLower(verb) {
		case "":
			continue
		case "q", "quit", "exit":
			return nil
		case "r", "reload":
			orch.Load(ctx)
		case "a", "add":
			rec, err := parseRecord(rest)
			if err != nil {
				fmt.Fprintln(out, err)
				continue
			}
			orch.Submit(ctx, rec)
		default:
			fmt.Fprintf(out, "unknown command %q (reload, add, quit)\n", verb)
			continue
		}
		if err := writeView(ctx, opts.format, term, out); err != nil {
			return err
		}
	}
}

// listenDashboard serves the dashboard state over HTTP.
func listenDashboard(ctx context.Context, opts *dashboardOptions) error {
	snap := render.NewSnapshot()
	orch := opts.newOrchestrator(snap.Surfaces())
	orch.Load(ctx)

	go startSystemMetricsUpdater(ctx)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", api.MetricsMiddleware(api.NewHealthHandler().HandleHealth, "healthz"))
	api.NewDashboardHandler(orch, snap, opts.log.Named("api")).Register(ctx, mux)

	srv := &http.Server{
		Addr:              opts.listen,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}
	return serveUntilDone(ctx, srv, opts.log)
}

// parseRecord reads "<player>, <date>, <type>, <value>".
func parseRecord(s string) (model.PerformanceRecord, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return model.PerformanceRecord{}, fmt.Errorf("usage: add <player>, <date>, <type>, <value>")
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return model.PerformanceRecord{
		PlayerName:       parts[0],
		MatchDate:        parts[1],
		PerformanceType:  parts[2],
		PerformanceValue: parts[3],
	}, nil
}

// writeView prints the terminal frame, or the view it holds as JSON or
// YAML.
func writeView(ctx context.Context, format string, term *render.Terminal, out io.Writer) error {
	switch format {
	case formatJSON, formatYAML:
		return writeStructured(out, format, term.View())
	default:
		return term.Flush(ctx)
	}
}

// writeStructured encodes v as indented JSON, or as YAML with the same
// field names as the JSON form.
func writeStructured(out io.Writer, format string, v any) error {
	if format == formatJSON {
		enc := json.NewEncoder(out)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}

	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return err
	}
	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return err
	}
	return enc.Close()
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
