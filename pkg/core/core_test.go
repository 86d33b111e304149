package core_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/snipcheck/pkg/core"
)

func TestParseLanguage(t *testing.T) {
	tests := []struct {
		in   string
		want core.Language
		ok   bool
	}{
		{"js", core.LanguageJavaScript, true},
		{"JavaScript", core.LanguageJavaScript, true},
		{" node ", core.LanguageJavaScript, true},
		{"mjs", core.LanguageJavaScript, true},
		{"ts", core.LanguageTypeScript, true},
		{"typescript", core.LanguageTypeScript, true},
		{"cts", core.LanguageTypeScript, true},
		{"python", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := core.ParseLanguage(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRecordID(t *testing.T) {
	assert.Equal(t, "guide/intro.md#3", core.RecordID("guide/intro.md", 3))
	assert.Equal(t, "a.md#0", core.RecordID("a.md", 0))
}

func TestExampleRecord_ExpectedOutputsIsCopy(t *testing.T) {
	rec := core.ExampleRecord{ID: "a.md#1", Expected: []string{"1", "2"}}

	out := rec.ExpectedOutputs()
	out[0] = "changed"

	assert.Equal(t, []string{"1", "2"}, rec.Expected)
	assert.True(t, rec.Verifiable())
	assert.False(t, rec.IsSynthetic())
	assert.Nil(t, core.ExampleRecord{}.ExpectedOutputs())
}

func TestExecError_Is(t *testing.T) {
	tests := []struct {
		kind     core.ErrorKind
		sentinel error
	}{
		{core.ErrorKindParse, core.ErrParse},
		{core.ErrorKindTimeout, core.ErrTimeout},
		{core.ErrorKindRuntime, core.ErrRuntime},
		{core.ErrorKindReportInconsistency, core.ErrReportInconsistency},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			err := core.NewExecError(tt.kind, "boom %d", 1)
			assert.ErrorIs(t, err, tt.sentinel)

			wrapped := fmt.Errorf("outer: %w", err)
			assert.ErrorIs(t, wrapped, tt.sentinel)

			for _, other := range []error{core.ErrParse, core.ErrTimeout, core.ErrRuntime, core.ErrReportInconsistency} {
				if other != tt.sentinel {
					assert.False(t, errors.Is(err, other))
				}
			}
		})
	}
}

func TestExecError_Error(t *testing.T) {
	err := core.NewExecError(core.ErrorKindRuntime, "Error: nope")
	assert.Equal(t, "runtime: Error: nope", err.Error())

	err.Line, err.Column = 3, 7
	assert.Equal(t, "runtime: Error: nope (line 3, col 7)", err.Error())
}

func TestExecError_Clone(t *testing.T) {
	var nilErr *core.ExecError
	assert.Nil(t, nilErr.Clone())

	orig := core.NewExecError(core.ErrorKindParse, "unterminated")
	c := orig.Clone()
	c.Message = "other"
	assert.Equal(t, "unterminated", orig.Message)
}

func TestResultForParseError(t *testing.T) {
	rec := core.ExampleRecord{
		ID:       "bad.md#2",
		ParseErr: core.NewExecError(core.ErrorKindParse, "unterminated code fence"),
	}
	require.True(t, rec.IsSynthetic())

	res := core.ResultForParseError(rec)
	assert.Equal(t, "bad.md#2", res.ExampleID)
	assert.True(t, res.Failed())
	assert.Empty(t, res.ActualOutputs())
	assert.ErrorIs(t, res.Err, core.ErrParse)
	assert.NotSame(t, rec.ParseErr, res.Err)
}

func TestCounts(t *testing.T) {
	var c core.Counts
	for _, cl := range []core.Classification{
		core.ClassificationPass, core.ClassificationPass,
		core.ClassificationFail, core.ClassificationErrored, core.ClassificationSkipped,
	} {
		c.Add(cl)
	}

	assert.Equal(t, 2, c.Get(core.ClassificationPass))
	assert.Equal(t, 1, c.Get(core.ClassificationFail))
	assert.Equal(t, 1, c.Get(core.ClassificationErrored))
	assert.Equal(t, 1, c.Get(core.ClassificationSkipped))
	assert.Equal(t, 0, c.Get(core.Classification("bogus")))
	assert.Equal(t, 5, c.Total())
}

func TestClassification_IsFailure(t *testing.T) {
	assert.False(t, core.ClassificationPass.IsFailure())
	assert.True(t, core.ClassificationFail.IsFailure())
	assert.True(t, core.ClassificationErrored.IsFailure())
	assert.False(t, core.ClassificationSkipped.IsFailure())
}

func TestSummary_OKAndRunStatus(t *testing.T) {
	tests := []struct {
		name   string
		s      core.Summary
		ok     bool
		status core.RunStatus
	}{
		{"all pass", core.Summary{Counts: core.Counts{Pass: 2, Skipped: 1}}, true, core.RunStatusPassed},
		{"fail", core.Summary{Counts: core.Counts{Pass: 1, Fail: 1}}, false, core.RunStatusFailed},
		{"errored", core.Summary{Counts: core.Counts{Errored: 1}}, false, core.RunStatusFailed},
		{"aborted", core.Summary{Counts: core.Counts{Fail: 1}, Aborted: true}, false, core.RunStatusAborted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.ok, tt.s.OK())
			assert.Equal(t, tt.status, core.RunStatusFor(tt.s))
		})
	}
}

func TestOptions_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(o *core.Options)
		wantErr string
	}{
		{"defaults", func(*core.Options) {}, ""},
		{"zero timeout", func(o *core.Options) { o.TimeoutMs = 0 }, "timeout_ms must be > 0"},
		{"negative timeout", func(o *core.Options) { o.TimeoutMs = -5 }, "timeout_ms must be > 0"},
		{"blank marker", func(o *core.Options) { o.Markers = []string{"//", " "} }, "markers must not contain empty values"},
		{"blank output call", func(o *core.Options) { o.OutputCalls = []string{""} }, "output_calls must not contain empty values"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := core.DefaultOptions()
			tt.mutate(&opts)

			err := opts.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, core.ErrConfiguration)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestOptions_ApplyDefaults(t *testing.T) {
	opts := core.Options{TimeoutMs: 50}
	opts.ApplyDefaults()

	assert.Positive(t, opts.Concurrency)
	assert.Equal(t, []string{core.DefaultMarker}, opts.Markers)
	assert.Equal(t, core.DefaultOutputCalls, opts.OutputCalls)
	assert.Equal(t, core.DefaultMaxCallStack, opts.MaxCallStack)
	assert.Equal(t, 50, opts.TimeoutMs)
	assert.Equal(t, "50ms", opts.Timeout().String())
}
