package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/okian/crease/internal/adapters/render"
	"github.com/okian/crease/internal/domain/model"
)

// submitOptions holds flags for the submit command.
type submitOptions struct {
	*rootOptions
	record model.PerformanceRecord
}

// submitOutput is the structured form of a submission outcome.
type submitOutput struct {
	Accepted   bool   `json:"accepted"`
	StatusCode int    `json:"status_code,omitempty"`
	Message    string `json:"message"`
	Records    int    `json:"records,omitempty"`
}

func newSubmitCommand(rootOpts *rootOptions) *cobra.Command {
	opts := &submitOptions{rootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit one performance record to the store",
		Long: `Submit one performance record to the store.

Player name and value are trimmed before posting. The store's reply is
printed; a rejected record exits non-zero.

Example:
  crease submit --player "V Kohli" --date 2024-03-01 --type batting --value 160`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSubmit(cmd.Context(), opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&opts.record.PlayerName, "player", "", "player name")
	cmd.Flags().StringVar(&opts.record.MatchDate, "date", "", "match date")
	cmd.Flags().StringVar(&opts.record.PerformanceType, "type", "", "performance type (batting|bowling|fielding)")
	cmd.Flags().StringVar(&opts.record.PerformanceValue, "value", "", "performance value")
	for _, name := range []string{"player", "date", "type", "value"} {
		_ = cmd.MarkFlagRequired(name)
	}

	return cmd
}

func runSubmit(ctx context.Context, opts *submitOptions, out io.Writer) error {
	orch := opts.newOrchestrator(render.NewSnapshot().Surfaces())
	res := orch.Submit(ctx, opts.record)

	result := submitOutput{Accepted: res.Accepted, StatusCode: res.StatusCode, Message: res.Message}
	if res.Load != nil {
		result.Records = res.Load.Records
	}

	if opts.format == formatText {
		fmt.Fprintln(out, result.Message)
	} else if err := writeStructured(out, opts.format, result); err != nil {
		return err
	}

	if !result.Accepted {
		return fmt.Errorf("submission rejected: %s", result.Message)
	}
	return nil
}
