package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/snipcheck/internal/state"
	"github.com/leapstack-labs/snipcheck/pkg/core"
)

// DefaultHistoryLimit is the number of runs listed by default.
const DefaultHistoryLimit = 20

// NewHistoryCommand creates the history command.
func NewHistoryCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show recorded runs",
		Long: `Show runs recorded in the history database, newest first.

With a run id (or "latest") the run's per-snippet verdicts are shown.`,
		Example: `  # Recent runs
  snipcheck history

  # Verdicts of the most recent run as JSON
  snipcheck history latest -o json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd, args, limit)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", DefaultHistoryLimit, "Maximum number of runs to list")

	return cmd
}

func runHistory(cmd *cobra.Command, args []string, limit int) error {
	if limit <= 0 {
		return fmt.Errorf("--limit must be > 0 (got %d)", limit)
	}

	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	r := cc.Renderer

	if !cc.HasHistory() {
		if len(args) > 0 {
			return fmt.Errorf("no history recorded at %s", cc.Cfg.StatePath)
		}
		return r.Runs(nil)
	}

	store, err := cc.OpenStore()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if len(args) == 0 {
		runs, err := store.ListRuns(limit)
		if err != nil {
			return fmt.Errorf("failed to list runs: %w", err)
		}
		return r.Runs(runs)
	}

	var run *core.Run
	if args[0] == "latest" {
		run, err = store.GetLatestRun()
		if err == nil && run == nil {
			return errors.New("no runs recorded yet")
		}
	} else {
		run, err = store.GetRun(args[0])
	}
	if errors.Is(err, state.ErrRunNotFound) {
		return fmt.Errorf("run %q not found", args[0])
	}
	if err != nil {
		return fmt.Errorf("failed to get run: %w", err)
	}

	entries, err := store.GetEntriesForRun(run.ID)
	if err != nil {
		return fmt.Errorf("failed to get entries: %w", err)
	}
	return r.RunDetail(run, entries)
}
