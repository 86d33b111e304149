package core

import "time"

// =============================================================================
// Classification
// =============================================================================

// Classification is the final verdict assigned to one record's execution.
type Classification string

// Classification values.
const (
	ClassificationPass    Classification = "pass"
	ClassificationFail    Classification = "fail"
	ClassificationErrored Classification = "errored"
	ClassificationSkipped Classification = "skipped"
)

// Classifications lists every classification in report order.
var Classifications = []Classification{
	ClassificationPass,
	ClassificationFail,
	ClassificationErrored,
	ClassificationSkipped,
}

// IsFailure reports whether the classification counts against the run.
func (c Classification) IsFailure() bool {
	return c == ClassificationFail || c == ClassificationErrored
}

// =============================================================================
// Diff
// =============================================================================

// DiffLine is one line-aligned comparison between expected and actual output.
type DiffLine struct {
	Line        int    `json:"line"`
	Expected    string `json:"expected,omitempty"`
	Actual      string `json:"actual,omitempty"`
	HasExpected bool   `json:"has_expected"`
	HasActual   bool   `json:"has_actual"`
	Equal       bool   `json:"equal"`
}

// =============================================================================
// Summary
// =============================================================================

// Entry is the reported outcome for one record.
type Entry struct {
	ID             string         `json:"id"`
	Document       string         `json:"document"`
	Ordinal        int            `json:"ordinal"`
	Line           int            `json:"line"`
	Language       Language       `json:"language,omitempty"`
	Classification Classification `json:"classification"`
	Expected       []string       `json:"expected,omitempty"`
	Actual         []string       `json:"actual,omitempty"`
	Err            *ExecError     `json:"error,omitempty"`
	DurationMs     int64          `json:"duration_ms"`
	Diff           []DiffLine     `json:"diff,omitempty"`
}

// Counts tallies entries per classification.
type Counts struct {
	Pass    int `json:"pass"`
	Fail    int `json:"fail"`
	Errored int `json:"errored"`
	Skipped int `json:"skipped"`
}

// Add increments the tally for c.
func (c *Counts) Add(cl Classification) {
	switch cl {
	case ClassificationPass:
		c.Pass++
	case ClassificationFail:
		c.Fail++
	case ClassificationErrored:
		c.Errored++
	case ClassificationSkipped:
		c.Skipped++
	}
}

// Get returns the tally for c.
func (c Counts) Get(cl Classification) int {
	switch cl {
	case ClassificationPass:
		return c.Pass
	case ClassificationFail:
		return c.Fail
	case ClassificationErrored:
		return c.Errored
	case ClassificationSkipped:
		return c.Skipped
	default:
		return 0
	}
}

// Total returns the number of classified entries.
func (c Counts) Total() int {
	return c.Pass + c.Fail + c.Errored + c.Skipped
}

// Summary is the finalized, immutable report of a run.
type Summary struct {
	RunID      string    `json:"run_id,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	DurationMs int64     `json:"duration_ms"`
	Counts     Counts    `json:"counts"`
	Entries    []Entry   `json:"entries"`
	// Failures holds the Fail and Errored entries, in report order.
	Failures []Entry `json:"failures,omitempty"`
	// Aborted is set when fail-fast stopped the run early.
	Aborted bool `json:"aborted,omitempty"`
	// Unreported lists records whose results arrived after the run stopped.
	Unreported []string `json:"unreported,omitempty"`
}

// Total returns the number of classified entries.
func (s Summary) Total() int {
	return s.Counts.Total()
}

// OK reports whether the run had no Fail or Errored entries.
func (s Summary) OK() bool {
	return s.Counts.Fail == 0 && s.Counts.Errored == 0 && !s.Aborted
}
