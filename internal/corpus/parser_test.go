package corpus

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/snipcheck/pkg/core"
)

func parseText(t *testing.T, text string) []core.ExampleRecord {
	t.Helper()
	return NewParser(Config{}).Parse(Document{Name: "doc.md", Text: text})
}

func TestParse_SingleBlock(t *testing.T) {
	text := "# Intro\n\n```js\nconst x = 1+1; console.log(x); // 2\n```\n"

	recs := parseText(t, text)
	require.Len(t, recs, 1)

	rec := recs[0]
	assert.Equal(t, "doc.md#1", rec.ID)
	assert.Equal(t, "doc.md", rec.Document)
	assert.Equal(t, 1, rec.Ordinal)
	assert.Equal(t, 3, rec.Line)
	assert.Equal(t, core.LanguageJavaScript, rec.Language)
	assert.Equal(t, "const x = 1+1; console.log(x); // 2", rec.Source)
	assert.Equal(t, []string{"2"}, rec.Expected)
	assert.Nil(t, rec.ParseErr)
}

func TestParse_NarrativeBlocksAreSkipped(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"declarations only", "```js\nfunction add(a, b) {\n  return a + b\n}\n```\n"},
		{"other language", "```python\nprint(1) # 1\n```\n"},
		{"no info string", "```\nconsole.log(1) // 1\n```\n"},
		{"call in comment", "```js\n// console.log(1)\nconst a = 1\n```\n"},
		{"call in block comment", "```js\n/*\nconsole.log(1)\n*/\nconst a = 1\n```\n"},
		{"call in string", "```js\nconst s = \"console.log(1)\"\n```\n"},
		{"call in template", "```js\nconst s = `\nconsole.log(1)\n`\n```\n"},
		{"skip word", "```js skip\nconsole.log(1) // 1\n```\n"},
		{"no-run word", "```ts no-run\nconsole.log(1) // 1\n```\n"},
		{"method named log", "```js\nlogger.log(1) // 1\n```\n"},
		{"empty block", "```js\n```\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Empty(t, parseText(t, tt.text))
		})
	}
}

func TestParse_ExpectedExtraction(t *testing.T) {
	tests := []struct {
		name     string
		source   string
		expected []string
	}{
		{
			name:     "several outputs in order",
			source:   "console.log(1) // 1\nconsole.log('a') // a\nconsole.warn(true) // true",
			expected: []string{"1", "a", "true"},
		},
		{
			name:     "arrow prefixes stripped",
			source:   "console.log(1) // => 1\nconsole.log(2) // -> 2\nconsole.log(3) // → 3",
			expected: []string{"1", "2", "3"},
		},
		{
			name:     "output without comment contributes nothing",
			source:   "console.log(1)\nconsole.log(2) // 2",
			expected: []string{"2"},
		},
		{
			name:     "comment on non-output line ignored",
			source:   "const x = 2 // the value\nconsole.log(x) // 2",
			expected: []string{"2"},
		},
		{
			name:     "slashes inside strings are not comments",
			source:   "console.log(\"http://example.com\") // http://example.com",
			expected: []string{"http://example.com"},
		},
		{
			name:     "slashes inside template literal",
			source:   "console.log(`a//b ${1 + 1}`) // a//b 2",
			expected: []string{"a//b 2"},
		},
		{
			name:     "regex literal with slashes",
			source:   "console.log(/\\/\\//.test('//')) // true",
			expected: []string{"true"},
		},
		{
			name:     "multi-line call takes comment where parens close",
			source:   "console.log(\n  [1, 2].map(n => n * 2)\n) // [ 2, 4 ]",
			expected: []string{"[ 2, 4 ]"},
		},
		{
			name:     "output inside callback",
			source:   "setTimeout(() => {\n  console.log('later') // later\n}, 10)",
			expected: []string{"later"},
		},
		{
			name:     "output in callback opened on the same line",
			source:   "[1, 2].forEach((n) => { console.log(n) // 1\n})",
			expected: []string{"1"},
		},
		{
			name:     "output in timer callback opened on the same line",
			source:   "setTimeout(() => { console.log('later') // later\n}, 50)",
			expected: []string{"later"},
		},
		{
			name:     "output in async IIFE opened on the same line",
			source:   "(async () => { await null; console.log('done') // done\n})()",
			expected: []string{"done"},
		},
		{
			name:     "multi-line call inside a same-line callback",
			source:   "run(() => { console.log(\n  1 + 1\n) // 2\n})",
			expected: []string{"2"},
		},
		{
			name:     "empty expected value",
			source:   "console.log('') //",
			expected: []string{""},
		},
		{
			name:     "no expectations at all",
			source:   "console.log(1)",
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recs := parseText(t, "```js\n"+tt.source+"\n```\n")
			require.Len(t, recs, 1)
			assert.Equal(t, tt.expected, recs[0].Expected)
		})
	}
}

func TestParse_CustomMarkers(t *testing.T) {
	p := NewParser(Config{Markers: []string{"// =>", "out:"}})
	text := "```js\nconsole.log(1) // => 1\nconsole.log(2) // 2\nconsole.log(3) // out: 3\n```\n"

	recs := p.Parse(Document{Name: "m.md", Text: text})
	require.Len(t, recs, 1)
	assert.Equal(t, []string{"1", "3"}, recs[0].Expected)
}

func TestParse_CustomOutputCalls(t *testing.T) {
	p := NewParser(Config{OutputCalls: []string{"print"}})

	recs := p.Parse(Document{Name: "c.md", Text: "```js\nprint(1) // 1\n```\n```js\nconsole.log(2) // 2\n```\n"})
	require.Len(t, recs, 1)
	assert.Equal(t, "c.md#1", recs[0].ID)
	assert.Equal(t, []string{"1"}, recs[0].Expected)
}

func TestParse_OrdinalsCountEveryFence(t *testing.T) {
	text := strings.Join([]string{
		"```sh",
		"npm install",
		"```",
		"```js",
		"console.log(1) // 1",
		"```",
		"~~~typescript",
		"const n: number = 2",
		"console.log(n) // 2",
		"~~~",
	}, "\n")

	recs := parseText(t, text)
	require.Len(t, recs, 2)
	assert.Equal(t, "doc.md#2", recs[0].ID)
	assert.Equal(t, 4, recs[0].Line)
	assert.Equal(t, "doc.md#3", recs[1].ID)
	assert.Equal(t, core.LanguageTypeScript, recs[1].Language)
	assert.Equal(t, 7, recs[1].Line)
}

func TestParse_FenceRules(t *testing.T) {
	t.Run("longer closing fence", func(t *testing.T) {
		recs := parseText(t, "```js\nconsole.log(1) // 1\n`````\n")
		require.Len(t, recs, 1)
	})

	t.Run("shorter fence does not close", func(t *testing.T) {
		recs := parseText(t, "~~~~js\nconsole.log(1) // 1\n~~~\nconsole.log(2) // 2\n~~~~\n")
		require.Len(t, recs, 1)
		assert.Equal(t, []string{"1", "2"}, recs[0].Expected)
	})

	t.Run("indented fence strips indentation", func(t *testing.T) {
		recs := parseText(t, "  ```js\n  console.log(1) // 1\n    console.log(2) // 2\n  ```\n")
		require.Len(t, recs, 1)
		assert.Equal(t, "console.log(1) // 1\n  console.log(2) // 2", recs[0].Source)
	})

	t.Run("four spaces is not a fence", func(t *testing.T) {
		assert.Empty(t, parseText(t, "    ```js\n    console.log(1) // 1\n    ```\n"))
	})

	t.Run("crlf line endings", func(t *testing.T) {
		recs := parseText(t, "```js\r\nconsole.log(1) // 1\r\n```\r\n")
		require.Len(t, recs, 1)
		assert.Equal(t, []string{"1"}, recs[0].Expected)
	})
}

func TestParse_BlockTimeout(t *testing.T) {
	recs := parseText(t, "```js timeout=50\nconsole.log(1) // 1\n```\n```js timeout=abc\nconsole.log(1) // 1\n```\n")
	require.Len(t, recs, 2)

	assert.Equal(t, 50, recs[0].TimeoutMs)
	assert.False(t, recs[0].IsSynthetic())

	require.True(t, recs[1].IsSynthetic())
	assert.Equal(t, "doc.md#2", recs[1].ID)
	assert.ErrorIs(t, recs[1].ParseErr, core.ErrParse)
	assert.Contains(t, recs[1].ParseErr.Message, "invalid block timeout")
}

func TestParse_UnterminatedFence(t *testing.T) {
	var b strings.Builder
	for i := 1; i <= 9; i++ {
		fmt.Fprintf(&b, "Example %d\n\n```js\nconsole.log(%d) // %d\n```\n\n", i, i, i)
	}
	b.WriteString("Broken\n\n```js\nconsole.log('never closed') // never closed\n")

	recs := parseText(t, b.String())
	require.Len(t, recs, 10)

	for i, rec := range recs[:9] {
		assert.Equal(t, core.RecordID("doc.md", i+1), rec.ID)
		assert.False(t, rec.IsSynthetic())
		assert.Equal(t, []string{fmt.Sprint(i + 1)}, rec.Expected)
	}

	bad := recs[9]
	assert.Equal(t, "doc.md#10", bad.ID)
	require.True(t, bad.IsSynthetic())
	assert.Equal(t, core.ErrorKindParse, bad.ParseErr.Kind)
	assert.Contains(t, bad.ParseErr.Message, "unterminated code fence")
	assert.Equal(t, bad.Line, bad.ParseErr.Line)
}

func TestParse_Frontmatter(t *testing.T) {
	t.Run("yaml timeout applies to blocks", func(t *testing.T) {
		text := "---\ntitle: Guide\ntimeout_ms: 75\n---\n```js\nconsole.log(1) // 1\n```\n"
		recs := parseText(t, text)
		require.Len(t, recs, 1)
		assert.Equal(t, 75, recs[0].TimeoutMs)
		assert.Equal(t, 5, recs[0].Line)
	})

	t.Run("block timeout wins", func(t *testing.T) {
		text := "+++\ntimeout_ms = 75\n+++\n```js timeout=20\nconsole.log(1) // 1\n```\n"
		recs := parseText(t, text)
		require.Len(t, recs, 1)
		assert.Equal(t, 20, recs[0].TimeoutMs)
	})

	t.Run("skip document", func(t *testing.T) {
		text := "---\nskip: true\n---\n```js\nconsole.log(1) // 1\n```\n"
		assert.Empty(t, parseText(t, text))
	})

	t.Run("invalid frontmatter yields synthetic record and continues", func(t *testing.T) {
		text := "---\nbogus: 1\n---\n```js\nconsole.log(1) // 1\n```\n"
		recs := parseText(t, text)
		require.Len(t, recs, 2)

		assert.Equal(t, "doc.md#0", recs[0].ID)
		require.True(t, recs[0].IsSynthetic())
		assert.Contains(t, recs[0].ParseErr.Message, `unknown field "bogus"`)

		assert.Equal(t, "doc.md#1", recs[1].ID)
		assert.Equal(t, []string{"1"}, recs[1].Expected)
	})
}

func TestRecords_DeterministicAndRestartable(t *testing.T) {
	text := "```js\nconsole.log(1) // 1\n```\n```ts\nconsole.log(2) // 2\n```\n```js\nconsole.log(3)\n"
	p := NewParser(Config{})
	doc := Document{Name: "d.md", Text: text}

	seq := p.Records(doc)

	var first, second []core.ExampleRecord
	for rec := range seq {
		first = append(first, rec)
	}
	for rec := range seq {
		second = append(second, rec)
	}

	require.Len(t, first, 3)
	assert.Equal(t, first, second)
	assert.Equal(t, first, p.Parse(doc))
}

func TestRecords_EarlyBreak(t *testing.T) {
	text := "```js\nconsole.log(1) // 1\n```\n```js\nconsole.log(2) // 2\n```\n"
	p := NewParser(Config{})

	count := 0
	for range p.Records(Document{Name: "d.md", Text: text}) {
		count++
		break
	}
	assert.Equal(t, 1, count)
}

func TestParse_Completeness(t *testing.T) {
	for _, n := range []int{0, 1, 7, 25} {
		t.Run(fmt.Sprint(n), func(t *testing.T) {
			var b strings.Builder
			for i := range n {
				fmt.Fprintf(&b, "para %d\n\n```js\nconst v = %d\nconsole.log(v) // %d\n```\n\n", i, i, i)
				// Narrative blocks in between never count.
				b.WriteString("```js\nconst unused = 1\n```\n\n")
			}
			assert.Len(t, parseText(t, b.String()), n)
		})
	}
}
