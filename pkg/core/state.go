package core

import "time"

// HistoryStore defines the interface for persisting run history.
type HistoryStore interface {
	Open(path string) error
	Close() error
	InitSchema() error

	// Run operations
	CreateRun() (*Run, error)
	GetRun(id string) (*Run, error)
	CompleteRun(id string, status RunStatus, summary Summary, errMsg string) error
	GetLatestRun() (*Run, error)
	ListRuns(limit int) ([]*Run, error)

	// Entry operations
	GetEntriesForRun(runID string) ([]Entry, error)
}

// RunStatus represents the status of a catalog run.
type RunStatus string

// Run status constants.
const (
	RunStatusRunning   RunStatus = "running"
	RunStatusPassed    RunStatus = "passed"
	RunStatusFailed    RunStatus = "failed"
	RunStatusCancelled RunStatus = "cancelled"
	RunStatusAborted   RunStatus = "aborted"
)

// RunStatusFor derives the persisted status of a finalized summary.
func RunStatusFor(s Summary) RunStatus {
	switch {
	case s.Aborted:
		return RunStatusAborted
	case s.OK():
		return RunStatusPassed
	default:
		return RunStatusFailed
	}
}

// Run represents a recorded catalog run.
type Run struct {
	ID          string     `json:"id"`
	Status      RunStatus  `json:"status"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Counts      Counts     `json:"counts"`
	DurationMs  int64      `json:"duration_ms"`
	Error       string     `json:"error,omitempty"`
}
