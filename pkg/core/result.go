package core

// ExecutionResult is the outcome of executing one ExampleRecord.
// A result may carry partial output AND an error, e.g. when the snippet
// throws after printing. Results are never mutated after creation.
type ExecutionResult struct {
	// ExampleID refers back to the record that produced this result.
	ExampleID string `json:"example_id"`
	// Actual holds the captured output lines in emission order.
	Actual []string `json:"actual,omitempty"`
	// Err describes a failure, if any.
	Err *ExecError `json:"error,omitempty"`
	// DurationMs is the wall-clock execution time.
	DurationMs int64 `json:"duration_ms"`
}

// ActualOutputs returns a copy of the captured output lines.
func (r ExecutionResult) ActualOutputs() []string {
	if len(r.Actual) == 0 {
		return nil
	}
	out := make([]string, len(r.Actual))
	copy(out, r.Actual)
	return out
}

// Failed reports whether the execution produced an error.
func (r ExecutionResult) Failed() bool {
	return r.Err != nil
}

// ResultForParseError builds the result reported for a synthetic record.
func ResultForParseError(rec ExampleRecord) ExecutionResult {
	return ExecutionResult{
		ExampleID: rec.ID,
		Err:       rec.ParseErr.Clone(),
	}
}
