package corpus

import "strings"

// lexer splits source lines into code and trailing line comment while
// tracking multi-line constructs (block comments, template literals).
// It is not a full tokenizer: it only needs to know whether a byte sits in
// code, a string, a regular expression or a comment.
type lexer struct {
	stack          []lexFrame
	inBlockComment bool
	parenDepth     int
	lastSig        byte
	lastWord       string
}

type lexMode int

const (
	modeCode lexMode = iota
	modeTemplate
)

type lexFrame struct {
	mode   lexMode
	braces int
}

// scannedLine is one source line after lexing.
type scannedLine struct {
	// code is the line with string, template, regex and comment contents
	// replaced by spaces. Delimiters are kept.
	code string
	// comment is the trailing line comment, starting at "//".
	comment    string
	hasComment bool
}

func newLexer() *lexer {
	return &lexer{stack: []lexFrame{{mode: modeCode}}}
}

func (lx *lexer) top() *lexFrame {
	return &lx.stack[len(lx.stack)-1]
}

func (lx *lexer) push(f lexFrame) {
	lx.stack = append(lx.stack, f)
}

func (lx *lexer) pop() {
	if len(lx.stack) > 1 {
		lx.stack = lx.stack[:len(lx.stack)-1]
	}
}

// regexAllowed reports whether a '/' at this point starts a regex literal
// rather than a division operator.
func (lx *lexer) regexAllowed() bool {
	if lx.lastWord != "" {
		switch lx.lastWord {
		case "return", "typeof", "case", "do", "else", "in", "of", "new",
			"delete", "void", "throw", "yield", "await", "instanceof":
			return true
		}
		return false
	}
	if lx.lastSig == 0 {
		return true
	}
	return strings.IndexByte("(,=:[!&|?{};+-*%<>~^", lx.lastSig) >= 0
}

func (lx *lexer) scanLine(line string) scannedLine {
	var out scannedLine
	var code strings.Builder
	code.Grow(len(line))

	n := len(line)
	i := 0
	for i < n {
		c := line[i]

		if lx.inBlockComment {
			if c == '*' && i+1 < n && line[i+1] == '/' {
				lx.inBlockComment = false
				code.WriteString("  ")
				i += 2
				continue
			}
			code.WriteByte(' ')
			i++
			continue
		}

		if lx.top().mode == modeTemplate {
			switch {
			case c == '\\':
				code.WriteByte(' ')
				if i+1 < n {
					code.WriteByte(' ')
				}
				i += 2
			case c == '`':
				lx.pop()
				code.WriteByte('`')
				lx.lastSig, lx.lastWord = '`', ""
				i++
			case c == '$' && i+1 < n && line[i+1] == '{':
				lx.push(lexFrame{mode: modeCode})
				code.WriteString("${")
				lx.lastSig, lx.lastWord = '{', ""
				i += 2
			default:
				code.WriteByte(' ')
				i++
			}
			continue
		}

		next := byte(0)
		if i+1 < n {
			next = line[i+1]
		}

		switch {
		case c == '/' && next == '/':
			out.comment = line[i:]
			out.hasComment = true
			i = n
			continue

		case c == '/' && next == '*':
			lx.inBlockComment = true
			code.WriteString("  ")
			i += 2
			continue

		case c == '\'' || c == '"':
			j := skipString(line, i)
			writeMasked(&code, line[i:j], c)
			lx.lastSig, lx.lastWord = c, ""
			i = j
			continue

		case c == '`':
			lx.push(lexFrame{mode: modeTemplate})
			code.WriteByte('`')
			i++
			continue

		case c == '/' && lx.regexAllowed():
			j := skipRegex(line, i)
			writeMasked(&code, line[i:j], '/')
			// A regex literal is an operand.
			lx.lastSig, lx.lastWord = 'a', ""
			i = j
			continue

		case isIdentByte(c):
			j := i
			for j < n && isIdentByte(line[j]) {
				j++
			}
			code.WriteString(line[i:j])
			lx.lastSig, lx.lastWord = 'a', line[i:j]
			i = j
			continue

		case c == '{':
			lx.top().braces++

		case c == '}':
			if lx.top().braces == 0 && len(lx.stack) > 1 {
				// End of a ${...} substitution.
				lx.pop()
				code.WriteByte('}')
				i++
				continue
			}
			if lx.top().braces > 0 {
				lx.top().braces--
			}

		case c == '(':
			lx.parenDepth++

		case c == ')':
			if lx.parenDepth > 0 {
				lx.parenDepth--
			}
		}

		code.WriteByte(c)
		if c != ' ' && c != '\t' && c != '\r' {
			lx.lastSig, lx.lastWord = c, ""
		}
		i++
	}

	out.code = code.String()
	return out
}

// writeMasked writes tok with everything but its first and last byte blanked.
func writeMasked(b *strings.Builder, tok string, delim byte) {
	if len(tok) == 0 {
		return
	}
	b.WriteByte(delim)
	if len(tok) == 1 {
		return
	}
	b.WriteString(strings.Repeat(" ", len(tok)-2))
	b.WriteByte(tok[len(tok)-1])
}

// skipString returns the index just past the string literal starting at i.
// An unterminated literal ends at the end of the line.
func skipString(line string, i int) int {
	quote := line[i]
	j := i + 1
	for j < len(line) {
		switch line[j] {
		case '\\':
			j += 2
			continue
		case quote:
			return j + 1
		}
		j++
	}
	return len(line)
}

// skipRegex returns the index just past the regex literal (and flags) at i.
func skipRegex(line string, i int) int {
	inClass := false
	j := i + 1
	for j < len(line) {
		switch c := line[j]; {
		case c == '\\':
			j += 2
			continue
		case c == '[':
			inClass = true
		case c == ']':
			inClass = false
		case c == '/' && !inClass:
			j++
			for j < len(line) && isIdentByte(line[j]) {
				j++
			}
			return j
		}
		j++
	}
	return len(line)
}

func isIdentByte(c byte) bool {
	return c == '_' || c == '$' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9') || c >= 0x80
}

// containsCall reports whether masked code contains a call to name.
func containsCall(code, name string) bool {
	_, ok := callOpen(code, name)
	return ok
}

// callOpen returns the offset of the '(' of the first call to name in
// masked code.
func callOpen(code, name string) (int, bool) {
	from := 0
	for {
		idx := strings.Index(code[from:], name)
		if idx < 0 {
			return 0, false
		}
		start := from + idx
		end := start + len(name)
		from = start + 1

		if start > 0 {
			prev := code[start-1]
			if isIdentByte(prev) || prev == '.' {
				continue
			}
		}
		rest := strings.TrimLeft(code[end:], " \t")
		if strings.HasPrefix(rest, "(") {
			return len(code) - len(rest), true
		}
	}
}

// depthAt returns the paren depth just before offset in masked code, given
// the depth at the start of the line.
func depthAt(code string, depth, offset int) int {
	for i := 0; i < offset && i < len(code); i++ {
		depth = stepDepth(depth, code[i])
	}
	return depth
}

// closesTo reports whether the paren depth, starting at depth, falls to
// target or below at some offset at or after from.
func closesTo(code string, depth, from, target int) bool {
	for i := 0; i < len(code); i++ {
		depth = stepDepth(depth, code[i])
		if i >= from && depth <= target {
			return true
		}
	}
	return false
}

func stepDepth(depth int, c byte) int {
	switch c {
	case '(':
		return depth + 1
	case ')':
		if depth > 0 {
			return depth - 1
		}
	}
	return depth
}
