// Package syntax tokenizes Python source into normalized structural token
// sequences for similarity comparison. The sequence preserves statement and
// suite nesting order (pre-order) but is insensitive to cosmetic differences:
// identifiers collapse to a single category, literal values are dropped, and
// inline suites produce the same tokens as indented ones.
package syntax

import "fmt"

// Token is a normalized syntactic category. Identifiers are all "name";
// literals are "number" or "string"; operators carry their kind ("add",
// "mult", ...); suite boundaries are "indent" / "dedent".
type Token string

// Structure and literal categories. Keyword tokens use the keyword itself
// ("def", "if", ...); operator tokens come from the operator table.
const (
	TokenName   Token = "name"
	TokenNumber Token = "number"
	TokenString Token = "string"
	TokenIndent Token = "indent"
	TokenDedent Token = "dedent"
)

// ParseError reports syntactically invalid code. Callers treat it as
// "unparseable submission", not a fatal error for a whole detection pass.
type ParseError struct {
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at line %d: %s", e.Line, e.Msg)
}

// keywords are Python reserved words; each becomes its own token category.
// Soft keywords (match, case) are lexed as plain names.
var keywords = map[string]bool{
	"False": true, "None": true, "True": true, "and": true, "as": true,
	"assert": true, "async": true, "await": true, "break": true, "class": true,
	"continue": true, "def": true, "del": true, "elif": true, "else": true,
	"except": true, "finally": true, "for": true, "from": true, "global": true,
	"if": true, "import": true, "in": true, "is": true, "lambda": true,
	"nonlocal": true, "not": true, "or": true, "pass": true, "raise": true,
	"return": true, "try": true, "while": true, "with": true, "yield": true,
}

// compoundKeywords open a suite when their header colon is reached.
var compoundKeywords = map[string]bool{
	"def": true, "if": true, "elif": true, "else": true, "for": true,
	"while": true, "try": true, "except": true, "finally": true,
	"with": true, "class": true, "async": true,
}

// operators maps operator spellings to token kinds, mirroring the operator
// node names of the Python AST (Add, Mult, FloorDiv, ...) in lowercase.
// Longest spellings must be matched first when lexing.
var operators = map[string]Token{
	"**=": "pow_assign", "//=": "floordiv_assign",
	"<<=": "lshift_assign", ">>=": "rshift_assign", "...": "ellipsis",
	"**": "pow", "//": "floordiv", "<<": "lshift", ">>": "rshift",
	"==": "eq", "!=": "noteq", "<=": "lte", ">=": "gte",
	"->": "arrow", ":=": "walrus",
	"+=": "add_assign", "-=": "sub_assign", "*=": "mult_assign",
	"/=": "div_assign", "%=": "mod_assign", "@=": "matmult_assign",
	"&=": "bitand_assign", "|=": "bitor_assign", "^=": "bitxor_assign",
	"+": "add", "-": "sub", "*": "mult", "/": "div", "%": "mod",
	"@": "matmult", "&": "bitand", "|": "bitor", "^": "bitxor",
	"~": "invert", "<": "lt", ">": "gt", "=": "assign",
	".": "dot", ",": "comma", ":": "colon",
	"(": "lparen", ")": "rparen", "[": "lbracket", "]": "rbracket",
	"{": "lbrace", "}": "rbrace",
}

// stringPrefixes are identifier-like prefixes that start a string literal
// when immediately followed by a quote (r"...", f'...', rb"...").
var stringPrefixes = map[string]bool{
	"r": true, "b": true, "u": true, "f": true,
	"rb": true, "br": true, "fr": true, "rf": true,
}
