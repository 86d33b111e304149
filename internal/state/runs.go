package state

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/leapstack-labs/snipcheck/pkg/core"
)

// ErrRunNotFound is returned when a run id is unknown.
var ErrRunNotFound = errors.New("run not found")

const runColumns = `id, status, started_at, completed_at, duration_ms,
	pass_count, fail_count, errored_count, skipped_count, error`

// CreateRun creates a new running catalog run.
func (s *SQLiteStore) CreateRun() (*core.Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	run := &core.Run{
		ID:        generateID(),
		Status:    core.RunStatusRunning,
		StartedAt: time.Now().UTC().Truncate(time.Millisecond),
	}

	s.logger.Debug("creating run", slog.String("id", run.ID))

	_, err := s.db.Exec(
		`INSERT INTO runs (id, status, started_at) VALUES (?, ?, ?)`,
		run.ID, string(run.Status), run.StartedAt.UnixMilli(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}

	return run, nil
}

// GetRun retrieves a run by ID.
func (s *SQLiteStore) GetRun(id string) (*core.Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	row := s.db.QueryRow(`SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	return run, nil
}

// CompleteRun records the final status, counts and entries of a run.
func (s *SQLiteStore) CompleteRun(id string, status core.RunStatus, summary core.Summary, errMsg string) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var errorPtr *string
	if errMsg != "" {
		errorPtr = &errMsg
	}

	res, err := tx.Exec(`
		UPDATE runs SET
			status = ?, completed_at = ?, duration_ms = ?,
			pass_count = ?, fail_count = ?, errored_count = ?, skipped_count = ?,
			error = ?
		WHERE id = ?`,
		string(status), time.Now().UTC().UnixMilli(), summary.DurationMs,
		summary.Counts.Pass, summary.Counts.Fail, summary.Counts.Errored, summary.Counts.Skipped,
		errorPtr, id,
	)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO entries (
			run_id, position, example_id, document, ordinal, line, language,
			classification, expected, actual, diff, error, duration_ms
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare entry insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i, e := range summary.Entries {
		cols, err := encodeEntry(e)
		if err != nil {
			return fmt.Errorf("failed to encode entry %s: %w", e.ID, err)
		}
		_, err = stmt.Exec(
			id, i, e.ID, e.Document, e.Ordinal, e.Line, string(e.Language),
			string(e.Classification), cols.expected, cols.actual, cols.diff, cols.err, e.DurationMs,
		)
		if err != nil {
			return fmt.Errorf("failed to record entry %s: %w", e.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}

	s.logger.Debug("completed run",
		slog.String("id", id),
		slog.String("status", string(status)),
		slog.Int("entries", len(summary.Entries)))
	return nil
}

// GetLatestRun retrieves the most recent run.
func (s *SQLiteStore) GetLatestRun() (*core.Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	row := s.db.QueryRow(`SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC, rowid DESC LIMIT 1`)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil // No runs found, return nil without error
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest run: %w", err)
	}

	return run, nil
}

// ListRuns retrieves the most recent runs up to the given limit, newest first.
func (s *SQLiteStore) ListRuns(limit int) ([]*core.Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.Query(`SELECT `+runColumns+` FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []*core.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}

	return runs, nil
}

// GetEntriesForRun retrieves the entries of a run in report order.
func (s *SQLiteStore) GetEntriesForRun(runID string) ([]core.Entry, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.Query(`
		SELECT example_id, document, ordinal, line, language, classification,
			expected, actual, diff, error, duration_ms
		FROM entries WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get entries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []core.Entry
	for rows.Next() {
		var (
			e                       core.Entry
			language, class         string
			expected, actual, diffs string
			errJSON                 sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.Document, &e.Ordinal, &e.Line, &language, &class,
			&expected, &actual, &diffs, &errJSON, &e.DurationMs); err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		e.Language = core.Language(language)
		e.Classification = core.Classification(class)
		if err := decodeEntry(&e, expected, actual, diffs, errJSON); err != nil {
			return nil, fmt.Errorf("failed to decode entry %s: %w", e.ID, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to get entries: %w", err)
	}

	return entries, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*core.Run, error) {
	var (
		run         core.Run
		status      string
		startedAt   int64
		completedAt sql.NullInt64
		errMsg      sql.NullString
	)
	err := row.Scan(&run.ID, &status, &startedAt, &completedAt, &run.DurationMs,
		&run.Counts.Pass, &run.Counts.Fail, &run.Counts.Errored, &run.Counts.Skipped, &errMsg)
	if err != nil {
		return nil, err
	}

	run.Status = core.RunStatus(status)
	run.StartedAt = time.UnixMilli(startedAt).UTC()
	if completedAt.Valid {
		t := time.UnixMilli(completedAt.Int64).UTC()
		run.CompletedAt = &t
	}
	if errMsg.Valid {
		run.Error = errMsg.String
	}
	return &run, nil
}

type entryColumns struct {
	expected, actual, diff string
	err                    *string
}

func encodeEntry(e core.Entry) (entryColumns, error) {
	var cols entryColumns
	var err error

	if cols.expected, err = encodeJSON(e.Expected); err != nil {
		return cols, err
	}
	if cols.actual, err = encodeJSON(e.Actual); err != nil {
		return cols, err
	}
	if cols.diff, err = encodeJSON(e.Diff); err != nil {
		return cols, err
	}
	if e.Err != nil {
		s, err := encodeJSON(e.Err)
		if err != nil {
			return cols, err
		}
		cols.err = &s
	}
	return cols, nil
}

func decodeEntry(e *core.Entry, expected, actual, diff string, errJSON sql.NullString) error {
	if err := json.Unmarshal([]byte(expected), &e.Expected); err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(actual), &e.Actual); err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(diff), &e.Diff); err != nil {
		return err
	}
	if errJSON.Valid {
		e.Err = &core.ExecError{}
		if err := json.Unmarshal([]byte(errJSON.String), e.Err); err != nil {
			return err
		}
	}
	return nil
}

func encodeJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
