package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/okian/crease/internal/adapters/httpclient"
	"github.com/okian/crease/internal/adapters/render"
	"github.com/okian/crease/internal/app"
	"github.com/okian/crease/internal/config"
	"github.com/okian/crease/pkg/logger"
)

// Output formats accepted by --format.
const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

var validFormats = []string{formatText, formatJSON, formatYAML}

func main() {
	// Disable default Go metrics collection to avoid duplicate metrics
	// We collect our own custom system metrics instead
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "crease:", err)
		stop()
		os.Exit(1)
	}
}

// rootOptions carries the state every subcommand shares once
// PersistentPreRunE has run.
type rootOptions struct {
	format string

	cfg *config.Config
	log logger.Logger
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "crease",
		Short: "crease - cricket performance dashboard",
		Long: `crease keeps a log of cricket performance records and shows each
player's current form.

Configuration is read from defaults, then the YAML file named by
CREASE_CONFIG, then CREASE_* environment variables.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.setup(cmd.Context())
		},
	}

	cmd.PersistentFlags().StringVar(&opts.format, "format", formatText, "output format (text|json|yaml)")

	cmd.AddCommand(newServeCommand(opts))
	cmd.AddCommand(newDashboardCommand(opts))
	cmd.AddCommand(newSubmitCommand(opts))

	return cmd
}

// setup validates global flags, loads configuration and initializes
// logging.
func (o *rootOptions) setup(ctx context.Context) error {
	if !isValidFormat(o.format) {
		return fmt.Errorf("invalid format %q: must be one of %v", o.format, validFormats)
	}

	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := logger.Init(logger.WithFormat(cfg.LogFormat)); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	log := logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	o.cfg = cfg
	o.log = log
	return nil
}

// newOrchestrator wires the store client and an orchestrator drawing on
// surfaces.
func (o *rootOptions) newOrchestrator(surfaces render.Surfaces) *app.Orchestrator {
	client := httpclient.New(o.cfg.BaseURL,
		httpclient.WithTimeout(o.cfg.RequestTimeout()),
		httpclient.WithLogger(o.log.Named("httpclient")),
	)
	return app.New(client,
		app.WithLogger(o.log.Named("dashboard")),
		app.WithSurfaces(surfaces),
		app.WithMaxEntities(o.cfg.MaxEntities),
		app.WithPreviewSize(o.cfg.PreviewSize),
		app.WithStatusClearDelay(o.cfg.StatusClearDelay()),
		app.WithCoupledAlertFailures(o.cfg.CoupleAlertFailures),
		app.WithDiscardStale(o.cfg.DiscardStale),
	)
}

func isValidFormat(format string) bool {
	for _, f := range validFormats {
		if f == format {
			return true
		}
	}
	return false
}
