package corpus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLexer_ScanLine(t *testing.T) {
	tests := []struct {
		name       string
		lines      []string
		comment    string
		hasComment bool
		code       string
	}{
		{
			name:       "trailing comment",
			lines:      []string{"f(x) // out"},
			comment:    "// out",
			hasComment: true,
			code:       "f(x) ",
		},
		{
			name:  "string contents masked",
			lines: []string{`f("a // b")`},
			code:  `f("      ")`,
		},
		{
			name:  "escaped quote",
			lines: []string{`f('it\'s')`},
			code:  `f('     ')`,
		},
		{
			name:       "division is not a regex",
			lines:      []string{"a = b / c / d // q"},
			comment:    "// q",
			hasComment: true,
			code:       "a = b / c / d ",
		},
		{
			name:       "comment after block comment closes",
			lines:      []string{"/* start", "end */ f() // ok"},
			comment:    "// ok",
			hasComment: true,
			code:       "       f() ",
		},
		{
			name:       "template continues across lines",
			lines:      []string{"const s = `one", "// two` ; g() // three"},
			comment:    "// three",
			hasComment: true,
			code:       "      ` ; g() ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lx := newLexer()
			var last scannedLine
			for _, l := range tt.lines {
				last = lx.scanLine(l)
			}
			assert.Equal(t, tt.hasComment, last.hasComment)
			assert.Equal(t, tt.comment, last.comment)
			assert.Equal(t, tt.code, last.code)
		})
	}
}

func TestContainsCall(t *testing.T) {
	tests := []struct {
		code string
		want bool
	}{
		{"console.log(1)", true},
		{"  console.log (1)", true},
		{"x; console.error(e)", true},
		{"myconsole.log(1)", false},
		{"a.console.log(1)", false},
		{"console.logger(1)", false},
		{"const f = console.log", false},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			found := false
			for _, name := range []string{"console.log", "console.error"} {
				found = found || containsCall(tt.code, name)
			}
			assert.Equal(t, tt.want, found)
		})
	}
}

func TestCallDepth(t *testing.T) {
	tests := []struct {
		name       string
		code       string
		startDepth int
		wantOpen   int
		wantDepth  int
		closes     bool
	}{
		{"top level", "console.log(x)", 0, 11, 0, true},
		{"inside same-line callback", "[1].forEach((n) => { console.log(n)", 0, 32, 1, true},
		{"unclosed call", "console.log(", 0, 11, 0, false},
		{"continuation depth carried in", "  go(() => { console.log(1)", 2, 24, 3, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			open, ok := callOpen(tt.code, "console.log")
			require.True(t, ok)
			assert.Equal(t, tt.wantOpen, open)

			depth := depthAt(tt.code, tt.startDepth, open)
			assert.Equal(t, tt.wantDepth, depth)
			assert.Equal(t, tt.closes, closesTo(tt.code, tt.startDepth, open+1, depth))
		})
	}
}
