package engine

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/snipcheck/internal/corpus"
	"github.com/leapstack-labs/snipcheck/internal/report"
	"github.com/leapstack-labs/snipcheck/pkg/core"
)

// Run parses docs and executes every record.
//
// Failures of individual records are data in the summary. The returned error
// is non-nil only for a report inconsistency or a history write failure.
// Cancelling ctx finalizes in-flight and pending executions as timeouts.
func (e *Engine) Run(ctx context.Context, docs []corpus.Document) (core.Summary, error) {
	records, err := e.Collect(docs)
	if err != nil {
		return core.Summary{}, err
	}
	return e.Execute(ctx, records)
}

// Execute runs already collected records.
func (e *Engine) Execute(ctx context.Context, records []core.ExampleRecord) (core.Summary, error) {
	var run *core.Run
	if e.store != nil {
		var err error
		run, err = e.store.CreateRun()
		if err != nil {
			return core.Summary{}, fmt.Errorf("failed to create run: %w", err)
		}
		e.logger.Debug("created run", "run_id", run.ID)
	}

	runID := ""
	if run != nil {
		runID = run.ID
	}
	e.logger.Info("starting run", "run_id", runID, "records", len(records))

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	reporter := report.NewReporter(report.Config{
		Compare:  e.compare,
		FailFast: e.opts.FailFast,
		Cancel:   cancel,
		RunID:    runID,
		Logger:   e.logger,
	})

	runErr := e.executeRecords(runCtx, reporter, records)
	summary := reporter.Finalize()

	switch {
	case runErr != nil:
		e.logger.Error("run aborted", "run_id", runID, "error", runErr.Error())
	default:
		e.logger.Info("run completed",
			"run_id", runID,
			"pass", summary.Counts.Pass,
			"fail", summary.Counts.Fail,
			"errored", summary.Counts.Errored,
			"skipped", summary.Counts.Skipped,
			"duration_ms", summary.DurationMs)
	}

	if run != nil {
		status := core.RunStatusFor(summary)
		errMsg := ""
		switch {
		case runErr != nil:
			status = core.RunStatusAborted
			errMsg = runErr.Error()
		case ctx.Err() != nil:
			status = core.RunStatusCancelled
			errMsg = ctx.Err().Error()
		}
		if err := e.store.CompleteRun(run.ID, status, summary, errMsg); err != nil {
			return summary, errors.Join(runErr, fmt.Errorf("failed to record run: %w", err))
		}
	}

	return summary, runErr
}

// executeRecords runs records on a bounded worker group and feeds the reporter.
// Synthetic parse-error records are reported without executing.
func (e *Engine) executeRecords(ctx context.Context, reporter *report.Reporter, records []core.ExampleRecord) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Concurrency)

	for _, rec := range records {
		g.Go(func() error {
			var res core.ExecutionResult
			if rec.IsSynthetic() {
				res = core.ResultForParseError(rec)
			} else {
				res = e.runner.Execute(gctx, rec)
			}

			err := reporter.Add(rec, res)
			switch {
			case err == nil, errors.Is(err, report.ErrStopped):
				return nil
			default:
				return err
			}
		})
	}

	return g.Wait()
}
