package syntax

import (
	"errors"
	"reflect"
	"testing"
)

func mustTokenize(t *testing.T, code string) []Token {
	t.Helper()
	tokens, err := Tokenize(code)
	if err != nil {
		t.Fatalf("Tokenize(%q) failed: %v", code, err)
	}
	return tokens
}

func TestTokenize_Simple(t *testing.T) {
	tokens := mustTokenize(t, "def add(a,b): return a+b")
	want := []Token{
		"def", "name", "lparen", "name", "comma", "name", "rparen",
		"colon", "indent", "return", "name", "add", "name", "dedent",
	}
	if !reflect.DeepEqual(tokens, want) {
		t.Errorf("tokens = %v, want %v", tokens, want)
	}
}

func TestTokenize_Deterministic(t *testing.T) {
	code := "def f(x):\n    if x > 0:\n        return x\n    return -x\n"
	first := mustTokenize(t, code)
	for i := 0; i < 5; i++ {
		again := mustTokenize(t, code)
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("run %d differs: %v vs %v", i, again, first)
		}
	}
}

func TestTokenize_IdentifierRenamingNormalized(t *testing.T) {
	a := mustTokenize(t, "def add(a,b): return a+b")
	b := mustTokenize(t, "def add(x, y):\n    return x + y")
	if !reflect.DeepEqual(a, b) {
		t.Errorf("renamed/reformatted code should tokenize identically:\n%v\n%v", a, b)
	}
}

func TestTokenize_InlineAndIndentedSuitesMatch(t *testing.T) {
	inline := mustTokenize(t, "if x > 0: y = 1")
	indented := mustTokenize(t, "if x > 0:\n    y = 1")
	if !reflect.DeepEqual(inline, indented) {
		t.Errorf("inline = %v, indented = %v", inline, indented)
	}
}

func TestTokenize_OperatorsDistinguished(t *testing.T) {
	add := mustTokenize(t, "def f(a,b): return a+b")
	mul := mustTokenize(t, "def f(a,b): return a*b")
	if reflect.DeepEqual(add, mul) {
		t.Fatal("a+b and a*b should not tokenize identically")
	}
	diff := 0
	for i := range add {
		if add[i] != mul[i] {
			diff++
		}
	}
	if diff != 1 {
		t.Errorf("expected exactly 1 differing token, got %d", diff)
	}
}

func TestTokenize_SemicolonEqualsNewline(t *testing.T) {
	a := mustTokenize(t, "a = 1; b = 2")
	b := mustTokenize(t, "a = 1\nb = 2")
	if !reflect.DeepEqual(a, b) {
		t.Errorf("semicolon-separated = %v, newline-separated = %v", a, b)
	}
}

func TestTokenize_NestedSuitesBalanced(t *testing.T) {
	code := "def f(a, b):\n" +
		"    for i in range(a):\n" +
		"        if i % 2 == 0:\n" +
		"            b += i\n" +
		"    return b\n"
	tokens := mustTokenize(t, code)
	depth := 0
	for _, tok := range tokens {
		switch tok {
		case TokenIndent:
			depth++
		case TokenDedent:
			depth--
		}
		if depth < 0 {
			t.Fatal("dedent before matching indent")
		}
	}
	if depth != 0 {
		t.Errorf("unbalanced suites: depth %d at end", depth)
	}
}

func TestTokenize_LiteralValuesNormalized(t *testing.T) {
	a := mustTokenize(t, "x = 42")
	b := mustTokenize(t, "x = 1000")
	if !reflect.DeepEqual(a, b) {
		t.Errorf("numeric literal values should be normalized: %v vs %v", a, b)
	}
	c := mustTokenize(t, `s = "hello"`)
	d := mustTokenize(t, `s = 'world'`)
	if !reflect.DeepEqual(c, d) {
		t.Errorf("string literal values should be normalized: %v vs %v", c, d)
	}
}

func TestTokenize_StringsAndComments(t *testing.T) {
	code := "# leading comment\n" +
		"s = \"\"\"multi\nline\"\"\"  # trailing\n" +
		"r = r'\\d+'\n"
	tokens := mustTokenize(t, code)
	want := []Token{
		TokenName, "assign", TokenString,
		TokenName, "assign", TokenString,
	}
	if !reflect.DeepEqual(tokens, want) {
		t.Errorf("tokens = %v, want %v", tokens, want)
	}
}

func TestTokenize_ImplicitLineJoining(t *testing.T) {
	a := mustTokenize(t, "f(1,\n   2,\n   3)")
	b := mustTokenize(t, "f(1, 2, 3)")
	if !reflect.DeepEqual(a, b) {
		t.Errorf("bracket continuation should not affect tokens: %v vs %v", a, b)
	}
}

func TestTokenize_EmptyEquivalent(t *testing.T) {
	for _, code := range []string{"", "\n\n", "# only a comment\n", "   \n\t\n"} {
		tokens, err := Tokenize(code)
		if err != nil {
			t.Errorf("Tokenize(%q) unexpected error: %v", code, err)
		}
		if len(tokens) != 0 {
			t.Errorf("Tokenize(%q) = %v, want empty", code, tokens)
		}
	}
}

func TestTokenize_ParseErrors(t *testing.T) {
	cases := []struct {
		name string
		code string
	}{
		{"unterminated string", `s = "oops`},
		{"unterminated triple string", `s = """oops`},
		{"newline in string", "s = 'a\nb'"},
		{"unclosed bracket", "f(1, 2"},
		{"unmatched close", "f 1)"},
		{"mismatched bracket", "f(1]"},
		{"missing indented block", "def f():\nreturn 1"},
		{"header at end", "if x:"},
		{"bad dedent", "if x:\n        a = 1\n    b = 2"},
		{"unexpected indent", "a = 1\n    b = 2"},
		{"invalid character", "a = 1 $ 2"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Tokenize(tc.code)
			if err == nil {
				t.Fatalf("Tokenize(%q) should fail", tc.code)
			}
			var perr *ParseError
			if !errors.As(err, &perr) {
				t.Errorf("error should be *ParseError, got %T", err)
			}
		})
	}
}

func TestTokenize_IndentedFirstLine(t *testing.T) {
	// A uniformly indented snippet (e.g. pasted from inside a function)
	// is accepted; the first line sets the base level.
	code := "    x = 1\n    y = 2\n"
	tokens := mustTokenize(t, code)
	want := []Token{TokenName, "assign", TokenNumber, TokenName, "assign", TokenNumber}
	if !reflect.DeepEqual(tokens, want) {
		t.Errorf("tokens = %v, want %v", tokens, want)
	}
}
