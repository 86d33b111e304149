// Package engine orchestrates catalog runs.
// It parses documents into records, executes them in parallel isolated
// contexts, and aggregates the results into a finalized summary.
package engine

import (
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/snipcheck/internal/corpus"
	"github.com/leapstack-labs/snipcheck/internal/report"
	"github.com/leapstack-labs/snipcheck/internal/sandbox"
	"github.com/leapstack-labs/snipcheck/pkg/core"
)

// Engine runs example catalogs.
type Engine struct {
	opts    core.Options
	parser  *corpus.Parser
	runner  sandbox.Runner
	compare report.CompareOptions
	store   core.HistoryStore
	logger  *slog.Logger
}

// Config holds engine configuration.
type Config struct {
	// Options are the run options. Zero optional fields take defaults.
	Options core.Options
	// Runner executes records. Defaults to a sandbox.Executor built from Options.
	Runner sandbox.Runner
	// Normalizer is applied to both sides of every comparison (optional).
	Normalizer report.Normalizer
	// Store persists run history (optional).
	Store core.HistoryStore
	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
}

// New creates an engine.
// Returns core.ErrConfiguration if the options are invalid.
func New(cfg Config) (*Engine, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	opts := cfg.Options
	opts.ApplyDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	runner := cfg.Runner
	if runner == nil {
		exec, err := sandbox.New(sandbox.Config{
			Timeout:      opts.Timeout(),
			MaxCallStack: opts.MaxCallStack,
			Logger:       logger,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create executor: %w", err)
		}
		runner = exec
	}

	logger.Debug("initializing engine",
		"timeout_ms", opts.TimeoutMs,
		"concurrency", opts.Concurrency,
		"fail_fast", opts.FailFast,
		"history", cfg.Store != nil)

	return &Engine{
		opts:   opts,
		parser: corpus.NewParser(corpus.ConfigFromOptions(opts)),
		runner: runner,
		compare: report.CompareOptions{
			NormalizeWhitespace: opts.NormalizeWhitespace,
			Normalizer:          cfg.Normalizer,
		},
		store:  cfg.Store,
		logger: logger,
	}, nil
}

// Options returns the effective run options.
func (e *Engine) Options() core.Options {
	return e.opts
}

// Runner returns the runner used for executions.
func (e *Engine) Runner() sandbox.Runner {
	return e.runner
}

// Collect parses documents in order and checks that record ids are unique.
// A duplicate id is a report_inconsistency error.
func (e *Engine) Collect(docs []corpus.Document) ([]core.ExampleRecord, error) {
	var records []core.ExampleRecord
	seen := make(map[string]string)

	for _, doc := range docs {
		for rec := range e.parser.Records(doc) {
			if prev, dup := seen[rec.ID]; dup {
				return nil, core.NewExecError(core.ErrorKindReportInconsistency,
					"duplicate record id %q (documents %q and %q)", rec.ID, prev, doc.Name)
			}
			seen[rec.ID] = doc.Name
			records = append(records, rec)
		}
	}

	e.logger.Debug("collected records", "documents", len(docs), "records", len(records))
	return records, nil
}
