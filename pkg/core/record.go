package core

import (
	"fmt"
	"strings"
)

// =============================================================================
// Language
// =============================================================================

// Language identifies the surface syntax of a snippet. Both values belong to the
// single ECMAScript dialect; TypeScript is lowered to JavaScript before evaluation.
type Language string

// Supported languages.
const (
	LanguageJavaScript Language = "javascript"
	LanguageTypeScript Language = "typescript"
)

// ParseLanguage maps a fence info-string word to a Language.
// Returns false for languages outside the ECMAScript dialect.
func ParseLanguage(s string) (Language, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "js", "javascript", "mjs", "cjs", "node":
		return LanguageJavaScript, true
	case "ts", "typescript", "mts", "cts":
		return LanguageTypeScript, true
	default:
		return "", false
	}
}

// =============================================================================
// ExampleRecord
// =============================================================================

// ExampleRecord is one parsed, executable unit extracted from a document.
// Records are created by the corpus parser and are read-only thereafter.
type ExampleRecord struct {
	// ID is "<document>#<ordinal>" and is unique across a run.
	ID string `json:"id"`
	// Document is the name of the source document.
	Document string `json:"document"`
	// Ordinal is the 1-based position of the fenced region within the document.
	// Frontmatter errors use ordinal 0.
	Ordinal int `json:"ordinal"`
	// Line is the 1-based line of the opening fence.
	Line int `json:"line"`
	// Source is the literal code to execute.
	Source string `json:"source"`
	// Expected holds the declared output lines, in the order encountered.
	Expected []string `json:"expected,omitempty"`
	// Language selects the surface syntax.
	Language Language `json:"language"`
	// TimeoutMs overrides the run timeout for this record (0 = run default).
	TimeoutMs int `json:"timeout_ms,omitempty"`
	// ParseErr is set only on synthetic records produced for malformed input.
	ParseErr *ExecError `json:"parse_error,omitempty"`
}

// RecordID builds the stable identifier for a record.
func RecordID(document string, ordinal int) string {
	return fmt.Sprintf("%s#%d", document, ordinal)
}

// ExpectedOutputs returns a copy of the expected output lines.
func (r ExampleRecord) ExpectedOutputs() []string {
	if len(r.Expected) == 0 {
		return nil
	}
	out := make([]string, len(r.Expected))
	copy(out, r.Expected)
	return out
}

// IsSynthetic reports whether the record stands in for malformed input.
func (r ExampleRecord) IsSynthetic() bool {
	return r.ParseErr != nil
}

// Verifiable reports whether the record declares any expected output.
func (r ExampleRecord) Verifiable() bool {
	return len(r.Expected) > 0
}
