package core

import (
	"fmt"
	"runtime"
	"strings"
	"time"
)

// Default option values.
const (
	DefaultTimeoutMs    = 2000
	DefaultMaxCallStack = 1024
	DefaultMarker       = "//"
)

// DefaultOutputCalls are the calls treated as output-producing statements.
var DefaultOutputCalls = []string{
	"console.log",
	"console.info",
	"console.warn",
	"console.error",
	"console.debug",
}

// Options holds the recognized run options.
type Options struct {
	// TimeoutMs is the per-execution wall-clock limit. Must be > 0.
	TimeoutMs int `json:"timeout_ms"`
	// FailFast stops accepting results and cancels the run after the first
	// Fail or Errored classification.
	FailFast bool `json:"fail_fast"`
	// NormalizeWhitespace trims trailing whitespace before comparison.
	NormalizeWhitespace bool `json:"normalize_whitespace"`
	// Concurrency bounds the number of parallel executions.
	Concurrency int `json:"concurrency"`
	// Markers are the comment prefixes that introduce an expected output.
	Markers []string `json:"markers"`
	// OutputCalls are the callee names that produce observable output.
	OutputCalls []string `json:"output_calls"`
	// MaxCallStack bounds snippet recursion depth.
	MaxCallStack int `json:"max_call_stack"`
}

// DefaultOptions returns Options with default values.
func DefaultOptions() Options {
	return Options{
		TimeoutMs:           DefaultTimeoutMs,
		NormalizeWhitespace: true,
		Concurrency:         runtime.GOMAXPROCS(0),
		Markers:             []string{DefaultMarker},
		OutputCalls:         append([]string(nil), DefaultOutputCalls...),
		MaxCallStack:        DefaultMaxCallStack,
	}
}

// ApplyDefaults fills unset optional fields.
func (o *Options) ApplyDefaults() {
	if o.Concurrency <= 0 {
		o.Concurrency = runtime.GOMAXPROCS(0)
	}
	if len(o.Markers) == 0 {
		o.Markers = []string{DefaultMarker}
	}
	if len(o.OutputCalls) == 0 {
		o.OutputCalls = append([]string(nil), DefaultOutputCalls...)
	}
	if o.MaxCallStack <= 0 {
		o.MaxCallStack = DefaultMaxCallStack
	}
}

// Validate checks option invariants.
// Returns ErrConfiguration if any option is invalid.
func (o Options) Validate() error {
	var problems []string

	if o.TimeoutMs <= 0 {
		problems = append(problems, fmt.Sprintf("timeout_ms must be > 0 (got %d)", o.TimeoutMs))
	}
	for _, m := range o.Markers {
		if strings.TrimSpace(m) == "" {
			problems = append(problems, "markers must not contain empty values")
			break
		}
	}
	for _, c := range o.OutputCalls {
		if strings.TrimSpace(c) == "" {
			problems = append(problems, "output_calls must not contain empty values")
			break
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrConfiguration, strings.Join(problems, "; "))
	}
	return nil
}

// Timeout returns TimeoutMs as a duration.
func (o Options) Timeout() time.Duration {
	return time.Duration(o.TimeoutMs) * time.Millisecond
}
