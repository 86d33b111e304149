// Package corpus extracts executable example records from documentation text.
//
// A document is scanned for fenced code regions (CommonMark fences). A fence
// whose info string names JavaScript or TypeScript and whose body contains at
// least one output-producing call becomes an ExampleRecord. Expected outputs
// are read from trailing line comments on output statements:
//
//	const x = 1 + 1
//	console.log(x) // 2
//
// Parsing is pure: no I/O, no clocks. Re-parsing the same text always yields
// the same record sequence.
package corpus

import (
	"cmp"
	"iter"
	"slices"
	"strconv"
	"strings"

	"github.com/leapstack-labs/snipcheck/pkg/core"
)

// Document is one named text blob from the corpus.
type Document struct {
	Name string
	Text string
}

// Config controls marker and output-call recognition.
type Config struct {
	// Markers are the comment prefixes that introduce an expected output.
	// A leading "//" is optional; the remainder is matched after the comment
	// opener and any spaces. The empty remainder matches every line comment.
	Markers []string
	// OutputCalls are the callee names that produce observable output.
	OutputCalls []string
}

// arrowPrefixes are stripped from expected values ("// => 2").
var arrowPrefixes = []string{"=>", "->", "→"}

// Info-string words that suppress a block.
var skipWords = map[string]bool{
	"skip":   true,
	"no-run": true,
	"ignore": true,
}

// Parser extracts ExampleRecords from documents.
// A Parser is immutable and safe for concurrent use.
type Parser struct {
	markers     []string
	outputCalls []string
}

// NewParser creates a parser. Empty config fields fall back to the defaults.
func NewParser(cfg Config) *Parser {
	p := &Parser{}

	markers := cfg.Markers
	if len(markers) == 0 {
		markers = []string{core.DefaultMarker}
	}
	for _, m := range markers {
		p.markers = append(p.markers, markerBody(m))
	}
	// Longest marker wins.
	slices.SortStableFunc(p.markers, func(a, b string) int {
		return cmp.Compare(len(b), len(a))
	})
	p.markers = slices.Compact(p.markers)

	p.outputCalls = cfg.OutputCalls
	if len(p.outputCalls) == 0 {
		p.outputCalls = core.DefaultOutputCalls
	}
	p.outputCalls = slices.Clone(p.outputCalls)
	return p
}

// ConfigFromOptions builds a parser Config from run options.
func ConfigFromOptions(opts core.Options) Config {
	return Config{Markers: opts.Markers, OutputCalls: opts.OutputCalls}
}

func markerBody(m string) string {
	return strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(m), "//"))
}

// Parse collects every record of doc.
func (p *Parser) Parse(doc Document) []core.ExampleRecord {
	return slices.Collect(p.Records(doc))
}

// Records returns a lazy, restartable sequence of the records in doc.
// Every iteration re-scans the text.
func (p *Parser) Records(doc Document) iter.Seq[core.ExampleRecord] {
	return func(yield func(core.ExampleRecord) bool) {
		p.scan(doc, yield)
	}
}

func (p *Parser) scan(doc Document, yield func(core.ExampleRecord) bool) {
	fm, err := ExtractFrontmatter(doc.Text)
	if err != nil {
		if !yield(syntheticRecord(doc.Name, 0, 1, "invalid frontmatter: %v", err)) {
			return
		}
	}
	if fm.Config.Skip {
		return
	}

	lines := splitLines(fm.Body)
	ordinal := 0

	for i := 0; i < len(lines); i++ {
		open, ok := openFence(lines[i])
		if !ok {
			continue
		}
		ordinal++
		line := fm.BodyLine + i

		closed := false
		var body []string
		j := i + 1
		for ; j < len(lines); j++ {
			if open.closes(lines[j]) {
				closed = true
				break
			}
			body = append(body, open.strip(lines[j]))
		}
		if !closed {
			// An unterminated fence consumes the rest of the document.
			yield(syntheticRecord(doc.Name, ordinal, line,
				"unterminated code fence opened at line %d", line))
			return
		}
		i = j

		rec, ok := p.buildRecord(doc.Name, ordinal, line, open.info, body, fm.Config.TimeoutMs)
		if !ok {
			continue
		}
		if !yield(rec) {
			return
		}
	}
}

// buildRecord turns one closed fence into a record. It returns false for
// narrative blocks: other languages, suppressed blocks, and blocks with no
// output-producing statement.
func (p *Parser) buildRecord(docName string, ordinal, line int, info string, body []string, docTimeout int) (core.ExampleRecord, bool) {
	words := strings.Fields(info)
	if len(words) == 0 {
		return core.ExampleRecord{}, false
	}
	lang, ok := core.ParseLanguage(words[0])
	if !ok {
		return core.ExampleRecord{}, false
	}

	timeout := docTimeout
	for _, w := range words[1:] {
		if skipWords[strings.ToLower(w)] {
			return core.ExampleRecord{}, false
		}
		if v, found := strings.CutPrefix(w, "timeout="); found {
			ms, err := strconv.Atoi(v)
			if err != nil || ms <= 0 {
				return syntheticRecord(docName, ordinal, line, "invalid block timeout %q", v), true
			}
			timeout = ms
		}
	}

	eligible, expected := p.extract(body)
	if !eligible {
		return core.ExampleRecord{}, false
	}

	return core.ExampleRecord{
		ID:        core.RecordID(docName, ordinal),
		Document:  docName,
		Ordinal:   ordinal,
		Line:      line,
		Source:    strings.Join(body, "\n"),
		Expected:  expected,
		Language:  lang,
		TimeoutMs: timeout,
	}, true
}

// extract scans block source for output calls and expected-output comments.
// An expectation is read from the line on which the first output call's own
// parentheses close, so a call inside a callback opened earlier on the same
// line still takes that line's comment.
func (p *Parser) extract(body []string) (eligible bool, expected []string) {
	lx := newLexer()
	pending := false
	pendingDepth := 0

	for _, src := range body {
		depth := lx.parenDepth
		sl := lx.scanLine(src)

		open, hasCall := p.outputCall(sl.code)
		if hasCall {
			eligible = true
		}

		if pending {
			if !closesTo(sl.code, depth, 0, pendingDepth) {
				continue
			}
			pending = false
		} else {
			if !hasCall {
				continue
			}
			callDepth := depthAt(sl.code, depth, open)
			if !closesTo(sl.code, depth, open+1, callDepth) {
				pending = true
				pendingDepth = callDepth
				continue
			}
		}

		if !sl.hasComment {
			continue
		}
		if v, ok := p.expectedValue(sl.comment); ok {
			expected = append(expected, v)
		}
	}
	return eligible, expected
}

// outputCall returns the offset of the '(' opening the leftmost output call.
func (p *Parser) outputCall(code string) (int, bool) {
	best := -1
	for _, name := range p.outputCalls {
		if i, ok := callOpen(code, name); ok && (best < 0 || i < best) {
			best = i
		}
	}
	return best, best >= 0
}

// expectedValue extracts the expected text from a trailing line comment.
func (p *Parser) expectedValue(comment string) (string, bool) {
	text := strings.TrimLeft(strings.TrimPrefix(comment, "//"), " \t")
	for _, m := range p.markers {
		rest, ok := strings.CutPrefix(text, m)
		if !ok {
			continue
		}
		v := strings.TrimSpace(rest)
		for _, a := range arrowPrefixes {
			if after, found := strings.CutPrefix(v, a); found {
				v = strings.TrimSpace(after)
				break
			}
		}
		return v, true
	}
	return "", false
}

func syntheticRecord(docName string, ordinal, line int, format string, args ...any) core.ExampleRecord {
	perr := core.NewExecError(core.ErrorKindParse, format, args...)
	perr.Line = line
	return core.ExampleRecord{
		ID:       core.RecordID(docName, ordinal),
		Document: docName,
		Ordinal:  ordinal,
		Line:     line,
		Language: core.LanguageJavaScript,
		ParseErr: perr,
	}
}

func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.Split(strings.TrimSuffix(text, "\n"), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

// =============================================================================
// Fences
// =============================================================================

// fence is an opening code fence.
type fence struct {
	char   byte
	length int
	indent int
	info   string
}

func leadingSpaces(s string) int {
	n := 0
	for n < len(s) && s[n] == ' ' {
		n++
	}
	return n
}

// openFence recognizes a CommonMark opening fence.
func openFence(line string) (fence, bool) {
	indent := leadingSpaces(line)
	if indent > 3 {
		return fence{}, false
	}
	rest := line[indent:]
	if rest == "" || (rest[0] != '`' && rest[0] != '~') {
		return fence{}, false
	}
	ch := rest[0]
	n := 0
	for n < len(rest) && rest[n] == ch {
		n++
	}
	if n < 3 {
		return fence{}, false
	}
	info := strings.TrimSpace(rest[n:])
	if ch == '`' && strings.ContainsRune(info, '`') {
		return fence{}, false
	}
	return fence{char: ch, length: n, indent: indent, info: info}, true
}

// closes reports whether line is a closing fence for f.
func (f fence) closes(line string) bool {
	indent := leadingSpaces(line)
	if indent > 3 {
		return false
	}
	rest := line[indent:]
	n := 0
	for n < len(rest) && rest[n] == f.char {
		n++
	}
	if n < f.length {
		return false
	}
	return strings.TrimSpace(rest[n:]) == ""
}

// strip removes up to the opening fence's indentation from a content line.
func (f fence) strip(line string) string {
	n := min(leadingSpaces(line), f.indent)
	return line[n:]
}

