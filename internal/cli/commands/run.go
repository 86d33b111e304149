package commands

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/snipcheck/internal/cli/output"
	"github.com/leapstack-labs/snipcheck/pkg/core"
)

// ErrRunFailed is returned when a run had failing or errored snippets.
// The summary has already been printed, so callers only set the exit status.
var ErrRunFailed = errors.New("run failed")

// RunOptions holds options for the run command.
type RunOptions struct {
	JSONOutput bool
}

// NewRunCommand creates the run command.
func NewRunCommand() *cobra.Command {
	opts := &RunOptions{}

	cmd := &cobra.Command{
		Use:   "run [paths...]",
		Short: "Execute every snippet and compare its output",
		Long: `Parse the documentation catalog, execute each JavaScript and TypeScript
snippet in an isolated sandbox, and compare what it prints with the
expected output written in its comments.

With no arguments every document under docs_dir is checked. Paths select
individual documents or directories instead.

The command exits non-zero when any snippet fails or errors.`,
		Example: `  # Check the whole catalog
  snipcheck run

  # Check one guide and stop at the first failure
  snipcheck run docs/guide/intro.md --fail-fast

  # Machine-readable summary for CI
  snipcheck run --json`,
		Aliases: []string{"check"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(cmd, args, opts)
		},
	}

	cmd.Flags().Bool("fail-fast", false, "Stop after the first failing snippet")
	cmd.Flags().Int("timeout", 0, "Per-snippet timeout in milliseconds")
	cmd.Flags().Int("concurrency", 0, "Maximum number of snippets executed in parallel")
	cmd.Flags().Bool("no-history", false, "Do not record this run in the history database")
	cmd.Flags().BoolVar(&opts.JSONOutput, "json", false, "Output the summary as JSON")

	return cmd
}

func runRun(cmd *cobra.Command, args []string, opts *RunOptions) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	if opts.JSONOutput {
		cc.Renderer = output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.ModeJSON)
	}

	var summary core.Summary
	err = cc.WithHistory(func(store core.HistoryStore) error {
		var runErr error
		summary, runErr = cc.RunCatalog(cmd.Context(), args, store)
		return runErr
	})
	if err != nil {
		return err
	}

	if err := cc.Renderer.Summary(summary); err != nil {
		return err
	}
	if !summary.OK() {
		return ErrRunFailed
	}
	return nil
}

// RunCatalog loads the catalog and executes it once.
func (c *CommandContext) RunCatalog(ctx context.Context, paths []string, store core.HistoryStore) (core.Summary, error) {
	docs, err := c.LoadDocuments(paths)
	if err != nil {
		return core.Summary{}, err
	}
	eng, err := c.NewEngine(store)
	if err != nil {
		return core.Summary{}, err
	}
	return eng.Run(ctx, docs)
}
