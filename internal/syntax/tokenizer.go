package syntax

import (
	"strings"
	"unicode"
)

// Tokenize converts Python source into its normalized structural token
// sequence. The walk is strictly left-to-right over statements with suite
// boundaries emitted in pre-order, so sequence order reflects nesting.
// Identical input always yields an identical sequence. Returns *ParseError
// when the code is not syntactically valid; blank or comment-only code yields
// an empty sequence and no error (an empty module is valid Python).
func Tokenize(code string) ([]Token, error) {
	t := &tokenizer{
		src:        []rune(strings.ReplaceAll(code, "\r\n", "\n")),
		line:       1,
		baseIndent: -1,
	}
	if err := t.run(); err != nil {
		return nil, err
	}
	return t.tokens, nil
}

// suite tracks one open indented block: the column its statements start at.
type suite struct {
	indent int
}

type tokenizer struct {
	src    []rune
	pos    int
	line   int
	tokens []Token

	brackets   []rune // open bracket stack for implicit line joining
	suites     []suite
	baseIndent int // indent of the first logical line; -1 until seen

	headerKeyword string // first token of the current logical line, if a name/keyword
	lineHasTokens bool   // current logical line produced at least one token
	suiteOpened   bool   // current logical line opened a suite via its colon
	inlineSuite   bool   // the opened suite is inline (closed at line end)
	expectIndent  bool   // a header line ended; next line must indent
	headerIndent  int    // indent of that header line
}

func (t *tokenizer) errf(msg string) *ParseError {
	return &ParseError{Line: t.line, Msg: msg}
}

func (t *tokenizer) peek() rune {
	if t.pos >= len(t.src) {
		return 0
	}
	return t.src[t.pos]
}

func (t *tokenizer) peekAt(off int) rune {
	if t.pos+off >= len(t.src) {
		return 0
	}
	return t.src[t.pos+off]
}

func (t *tokenizer) emit(tok Token) {
	t.tokens = append(t.tokens, tok)
	t.lineHasTokens = true
}

func (t *tokenizer) run() error {
	for t.pos < len(t.src) {
		if err := t.scanLogicalLine(); err != nil {
			return err
		}
	}
	if len(t.brackets) > 0 {
		return t.errf("unexpected end of input: unclosed bracket")
	}
	if t.expectIndent {
		return t.errf("expected an indented block")
	}
	for range t.suites {
		t.tokens = append(t.tokens, TokenDedent)
	}
	t.suites = nil
	return nil
}

// scanLogicalLine consumes one logical line: indentation bookkeeping, then
// tokens until a newline at bracket depth zero.
func (t *tokenizer) scanLogicalLine() error {
	indent, blank := t.measureIndent()
	if blank {
		return nil
	}
	if err := t.handleIndent(indent); err != nil {
		return err
	}

	t.headerKeyword = ""
	t.lineHasTokens = false
	t.suiteOpened = false
	t.inlineSuite = false

	for t.pos < len(t.src) {
		c := t.peek()
		switch {
		case c == '\n':
			if len(t.brackets) > 0 {
				// Implicit line joining inside brackets.
				t.pos++
				t.line++
				continue
			}
			t.pos++
			t.line++
			return t.endLogicalLine()
		case c == '\\' && t.peekAt(1) == '\n':
			t.pos += 2
			t.line++
		case c == ' ' || c == '\t':
			t.pos++
		case c == '#':
			t.skipComment()
		case c == '\'' || c == '"':
			if err := t.scanString(); err != nil {
				return err
			}
		case unicode.IsDigit(c) || (c == '.' && unicode.IsDigit(t.peekAt(1))):
			t.scanNumber()
		case c == '_' || unicode.IsLetter(c):
			if err := t.scanWord(); err != nil {
				return err
			}
		case c == ';':
			// Statement separator, structurally equivalent to a newline.
			t.pos++
		default:
			if err := t.scanOperator(); err != nil {
				return err
			}
		}
	}
	return t.endLogicalLine()
}

// measureIndent consumes leading whitespace and reports the indent column
// (tab advances to the next multiple of 8, the CPython rule) and whether the
// physical line is blank or comment-only.
func (t *tokenizer) measureIndent() (int, bool) {
	col := 0
	for t.pos < len(t.src) {
		switch t.src[t.pos] {
		case ' ':
			col++
			t.pos++
		case '\t':
			col = (col/8 + 1) * 8
			t.pos++
		case '\n':
			t.pos++
			t.line++
			return 0, true
		case '#':
			t.skipComment()
			if t.peek() == '\n' {
				t.pos++
				t.line++
			}
			return 0, true
		default:
			return col, false
		}
	}
	return 0, true
}

// handleIndent opens or closes suites according to the new line's indent.
func (t *tokenizer) handleIndent(indent int) error {
	if t.baseIndent < 0 {
		t.baseIndent = indent
	}
	if t.expectIndent {
		if indent <= t.headerIndent {
			return t.errf("expected an indented block")
		}
		t.suites = append(t.suites, suite{indent: indent})
		t.expectIndent = false
		return nil
	}
	for len(t.suites) > 0 && indent < t.suites[len(t.suites)-1].indent {
		t.tokens = append(t.tokens, TokenDedent)
		t.suites = t.suites[:len(t.suites)-1]
	}
	level := t.baseIndent
	if len(t.suites) > 0 {
		level = t.suites[len(t.suites)-1].indent
	}
	if indent != level {
		if indent > level {
			return t.errf("unexpected indent")
		}
		return t.errf("unindent does not match any outer indentation level")
	}
	return nil
}

// endLogicalLine closes an inline suite and records a pending indented suite.
func (t *tokenizer) endLogicalLine() error {
	if t.suiteOpened {
		if t.inlineSuite {
			t.tokens = append(t.tokens, TokenDedent)
		} else {
			t.expectIndent = true
		}
	}
	return nil
}

func (t *tokenizer) skipComment() {
	for t.pos < len(t.src) && t.src[t.pos] != '\n' {
		t.pos++
	}
}

// scanWord lexes an identifier or keyword. Identifiers collapse to the single
// "name" category; a string prefix followed by a quote lexes as a string.
func (t *tokenizer) scanWord() error {
	start := t.pos
	for t.pos < len(t.src) {
		c := t.src[t.pos]
		if c == '_' || unicode.IsLetter(c) || unicode.IsDigit(c) {
			t.pos++
		} else {
			break
		}
	}
	word := string(t.src[start:t.pos])
	if (t.peek() == '\'' || t.peek() == '"') && stringPrefixes[strings.ToLower(word)] {
		return t.scanString()
	}
	if keywords[word] {
		if t.headerKeyword == "" && !t.lineHasTokens {
			t.headerKeyword = word
		}
		t.emit(Token(word))
		return nil
	}
	t.emit(TokenName)
	return nil
}

// scanNumber lexes a numeric literal. The value is normalized away; only the
// "number" category is emitted.
func (t *tokenizer) scanNumber() {
	prev := rune(0)
	for t.pos < len(t.src) {
		c := t.src[t.pos]
		switch {
		case unicode.IsDigit(c) || unicode.IsLetter(c) || c == '_' || c == '.':
			prev = c
			t.pos++
		case (c == '+' || c == '-') && (prev == 'e' || prev == 'E'):
			prev = c
			t.pos++
		default:
			t.emit(TokenNumber)
			return
		}
	}
	t.emit(TokenNumber)
}

// scanString lexes a single- or triple-quoted string literal (the prefix, if
// any, was already consumed). A newline inside a single-quoted string is a
// parse error; a triple-quoted string may span lines.
func (t *tokenizer) scanString() error {
	quote := t.src[t.pos]
	triple := t.peekAt(1) == quote && t.peekAt(2) == quote
	if triple {
		t.pos += 3
	} else {
		t.pos++
	}
	for t.pos < len(t.src) {
		c := t.src[t.pos]
		switch {
		case c == '\\':
			// Backslash guards the next character from terminating the
			// literal; raw strings keep the same termination rule.
			t.pos += 2
			if t.pos <= len(t.src) && t.pos >= 2 && t.src[t.pos-1] == '\n' {
				t.line++
			}
		case c == quote:
			if !triple {
				t.pos++
				t.emit(TokenString)
				return nil
			}
			if t.peekAt(1) == quote && t.peekAt(2) == quote {
				t.pos += 3
				t.emit(TokenString)
				return nil
			}
			t.pos++
		case c == '\n':
			if !triple {
				return t.errf("unterminated string literal")
			}
			t.pos++
			t.line++
		default:
			t.pos++
		}
	}
	return t.errf("unterminated string literal")
}

// scanOperator lexes punctuation and operators with longest-match-first,
// maintaining the bracket stack and opening suites at header colons.
func (t *tokenizer) scanOperator() error {
	for width := 3; width >= 1; width-- {
		if t.pos+width > len(t.src) {
			continue
		}
		op := string(t.src[t.pos : t.pos+width])
		kind, ok := operators[op]
		if !ok {
			continue
		}
		t.pos += width
		switch op {
		case "(", "[", "{":
			t.brackets = append(t.brackets, t.src[t.pos-width])
		case ")", "]", "}":
			if err := t.closeBracket(op); err != nil {
				return err
			}
		case ":":
			if len(t.brackets) == 0 && compoundKeywords[t.headerKeyword] && !t.suiteOpened {
				t.emit(kind)
				t.openSuite()
				return nil
			}
		}
		t.emit(kind)
		return nil
	}
	return t.errf("invalid character " + string(t.peek()))
}

var bracketPairs = map[string]rune{")": '(', "]": '[', "}": '{'}

func (t *tokenizer) closeBracket(op string) error {
	if len(t.brackets) == 0 {
		return t.errf("unmatched " + op)
	}
	open := t.brackets[len(t.brackets)-1]
	if open != bracketPairs[op] {
		return t.errf("mismatched bracket: " + string(open) + " closed by " + op)
	}
	t.brackets = t.brackets[:len(t.brackets)-1]
	return nil
}

// openSuite emits the suite-start token. Whether the body follows inline or
// on indented lines is decided by what remains on the logical line, so both
// spellings produce identical sequences.
func (t *tokenizer) openSuite() {
	t.emit(TokenIndent)
	t.suiteOpened = true
	t.inlineSuite = t.restOfLineHasCode()
	t.headerIndent = t.currentLineIndent()
}

// restOfLineHasCode reports whether code (not just whitespace, comment, or
// continuation) remains before the logical line ends.
func (t *tokenizer) restOfLineHasCode() bool {
	for i := t.pos; i < len(t.src); i++ {
		switch t.src[i] {
		case ' ', '\t':
		case '\\':
			if i+1 < len(t.src) && t.src[i+1] == '\n' {
				i++
				continue
			}
			return true
		case '#', '\n':
			return false
		default:
			return true
		}
	}
	return false
}

// currentLineIndent is the indent of the suite header. For a non-inline suite
// the next logical line must indent past it.
func (t *tokenizer) currentLineIndent() int {
	if len(t.suites) > 0 {
		return t.suites[len(t.suites)-1].indent
	}
	if t.baseIndent > 0 {
		return t.baseIndent
	}
	return 0
}
