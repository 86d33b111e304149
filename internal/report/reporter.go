package report

import (
	"cmp"
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/leapstack-labs/snipcheck/pkg/core"
)

var (
	// ErrStopped is returned by Add once fail-fast has stopped the run.
	ErrStopped = errors.New("reporter stopped after first failure")

	// ErrFinalized is returned by Add after Finalize.
	ErrFinalized = errors.New("reporter already finalized")
)

// Config configures a Reporter.
type Config struct {
	Compare CompareOptions
	// FailFast stops accepting results after the first Fail or Errored entry.
	FailFast bool
	// Cancel is invoked when fail-fast trips. Optional.
	Cancel context.CancelFunc
	// RunID is copied onto the summary.
	RunID  string
	Logger *slog.Logger
}

// Reporter accumulates classified entries for one run.
// Add is safe for concurrent use; the log is append-only until Finalize.
type Reporter struct {
	cfg    Config
	logger *slog.Logger

	mu         sync.Mutex
	startedAt  time.Time
	entries    []core.Entry
	seen       map[string]struct{}
	unreported []string
	stopped    bool
	finalized  bool
	summary    core.Summary
}

// NewReporter creates a Reporter. The run clock starts now.
func NewReporter(cfg Config) *Reporter {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Reporter{
		cfg:       cfg,
		logger:    logger,
		startedAt: time.Now(),
		seen:      make(map[string]struct{}),
	}
}

// Add classifies res against rec and appends the entry.
//
// It returns a report_inconsistency *core.ExecError for a duplicate id or a
// result that does not belong to rec, ErrStopped once fail-fast has tripped
// (the id is then listed as unreported), and ErrFinalized after Finalize.
func (r *Reporter) Add(rec core.ExampleRecord, res core.ExecutionResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.finalized {
		return ErrFinalized
	}
	if res.ExampleID != rec.ID {
		return core.NewExecError(core.ErrorKindReportInconsistency,
			"result for %q reported against record %q", res.ExampleID, rec.ID)
	}
	if _, dup := r.seen[rec.ID]; dup {
		return core.NewExecError(core.ErrorKindReportInconsistency, "duplicate record id %q", rec.ID)
	}
	r.seen[rec.ID] = struct{}{}

	if r.stopped {
		r.unreported = append(r.unreported, rec.ID)
		return ErrStopped
	}

	classification, diff := Classify(rec, res, r.cfg.Compare)
	r.entries = append(r.entries, core.Entry{
		ID:             rec.ID,
		Document:       rec.Document,
		Ordinal:        rec.Ordinal,
		Line:           rec.Line,
		Language:       rec.Language,
		Classification: classification,
		Expected:       rec.ExpectedOutputs(),
		Actual:         res.ActualOutputs(),
		Err:            res.Err.Clone(),
		DurationMs:     res.DurationMs,
		Diff:           diff,
	})

	switch {
	case classification == core.ClassificationSkipped:
		r.logger.Info("skipped example without expected output", slog.String("id", rec.ID))
	case classification.IsFailure():
		r.logger.Debug("example failed",
			slog.String("id", rec.ID),
			slog.String("classification", string(classification)))
		if r.cfg.FailFast {
			r.stopped = true
			if r.cfg.Cancel != nil {
				r.cfg.Cancel()
			}
		}
	}

	return nil
}

// Stopped reports whether fail-fast has tripped.
func (r *Reporter) Stopped() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stopped
}

// Finalize freezes the report and returns the summary.
// Entries are ordered by document, then ordinal. Later calls return an equal
// summary; the returned slices are never shared with the reporter.
func (r *Reporter) Finalize() core.Summary {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.finalized {
		r.finalized = true
		r.summary = r.build()
	}
	return cloneSummary(r.summary)
}

func (r *Reporter) build() core.Summary {
	finishedAt := time.Now()

	entries := make([]core.Entry, len(r.entries))
	copy(entries, r.entries)
	slices.SortFunc(entries, func(a, b core.Entry) int {
		return cmp.Or(
			cmp.Compare(a.Document, b.Document),
			cmp.Compare(a.Ordinal, b.Ordinal),
			cmp.Compare(a.ID, b.ID),
		)
	})

	s := core.Summary{
		RunID:      r.cfg.RunID,
		StartedAt:  r.startedAt,
		FinishedAt: finishedAt,
		DurationMs: finishedAt.Sub(r.startedAt).Milliseconds(),
		Entries:    entries,
		Aborted:    r.stopped,
	}
	for _, e := range entries {
		s.Counts.Add(e.Classification)
		if e.Classification.IsFailure() {
			s.Failures = append(s.Failures, e)
		}
	}
	if len(r.unreported) > 0 {
		s.Unreported = slices.Sorted(slices.Values(r.unreported))
	}
	return s
}

func cloneSummary(s core.Summary) core.Summary {
	out := s
	out.Entries = cloneEntries(s.Entries)
	out.Failures = cloneEntries(s.Failures)
	out.Unreported = slices.Clone(s.Unreported)
	return out
}

func cloneEntries(in []core.Entry) []core.Entry {
	if in == nil {
		return nil
	}
	out := make([]core.Entry, len(in))
	for i, e := range in {
		e.Expected = slices.Clone(e.Expected)
		e.Actual = slices.Clone(e.Actual)
		e.Diff = slices.Clone(e.Diff)
		e.Err = e.Err.Clone()
		out[i] = e
	}
	return out
}
