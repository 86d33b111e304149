// Package report classifies execution results and aggregates them into a run summary.
//
// Classification precedence: an error makes a record Errored, a record with no
// expected output is Skipped, otherwise actual output must equal expected output
// line for line to Pass.
package report

import (
	"strings"

	"github.com/leapstack-labs/snipcheck/pkg/core"
)

// Normalizer rewrites one output line before comparison.
// Implementations must be safe for concurrent use.
type Normalizer interface {
	Normalize(line string) string
}

// CompareOptions controls how expected and actual output are compared.
type CompareOptions struct {
	// NormalizeWhitespace trims trailing whitespace from every line.
	NormalizeWhitespace bool
	// Normalizer, if set, is applied to both sides after whitespace handling.
	Normalizer Normalizer
}

func (o CompareOptions) normalize(line string) string {
	if o.NormalizeWhitespace {
		line = strings.TrimRight(line, " \t\r\n\v\f")
	}
	if o.Normalizer != nil {
		line = o.Normalizer.Normalize(line)
	}
	return line
}

// Classify assigns exactly one classification to rec's execution.
// The diff is line-aligned and is returned for Fail, and for Errored records
// that declared expected output.
func Classify(rec core.ExampleRecord, res core.ExecutionResult, opts CompareOptions) (core.Classification, []core.DiffLine) {
	switch {
	case res.Err != nil:
		if !rec.Verifiable() {
			return core.ClassificationErrored, nil
		}
		diff, _ := Diff(rec.Expected, res.Actual, opts)
		return core.ClassificationErrored, diff
	case !rec.Verifiable():
		return core.ClassificationSkipped, nil
	}

	diff, equal := Diff(rec.Expected, res.Actual, opts)
	if equal {
		return core.ClassificationPass, nil
	}
	return core.ClassificationFail, diff
}

// Diff aligns expected and actual by line index.
// Equal reports whether both sides have the same length and every line matches.
func Diff(expected, actual []string, opts CompareOptions) (lines []core.DiffLine, equal bool) {
	n := max(len(expected), len(actual))
	equal = len(expected) == len(actual)
	lines = make([]core.DiffLine, 0, n)

	for i := range n {
		dl := core.DiffLine{Line: i + 1}
		if i < len(expected) {
			dl.Expected = expected[i]
			dl.HasExpected = true
		}
		if i < len(actual) {
			dl.Actual = actual[i]
			dl.HasActual = true
		}
		dl.Equal = dl.HasExpected && dl.HasActual && opts.normalize(dl.Expected) == opts.normalize(dl.Actual)
		if !dl.Equal {
			equal = false
		}
		lines = append(lines, dl)
	}

	return lines, equal
}
