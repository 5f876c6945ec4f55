// Package e2e provides end-to-end tests; this file builds a synthetic cohort
// of Python submissions with known relationships.
package e2e

// Fixture is one synthetic student submission.
type Fixture struct {
	StudentID string
	Code      string
}

// BaseSort is a small sorting program; DuplicateSort is the identical text
// under another student, and RenamedSort is the same program with every
// identifier renamed and the spacing reflowed. The two variants exist to pin
// down what detection must catch: byte-identical copies and rename-only
// copies.
const (
	BaseSort = `def sort_items(items):
    for i in range(len(items)):
        for j in range(0, len(items) - i - 1):
            if items[j] > items[j + 1]:
                items[j], items[j + 1] = items[j + 1], items[j]
    return items
`

	RenamedSort = `def order(xs):
    for a in range(len(xs)):
        for b in range(0, len(xs)-a-1):
            if xs[b] > xs[b+1]:
                xs[b], xs[b+1] = xs[b+1], xs[b]
    return xs
`

	Fibonacci = `def fib(n):
    if n < 2:
        return n
    return fib(n - 1) + fib(n - 2)
`

	WordCount = `def count_words(text):
    counts = {}
    for word in text.split():
        key = word.lower()
        counts[key] = counts.get(key, 0) + 1
    return counts
`
)

// Cohort returns the full fixture set. "alice" and "dana" are byte-identical;
// "rena" is alice's program with identifiers renamed; "felix" and "wanda" are
// unrelated programs.
func Cohort() []Fixture {
	return []Fixture{
		{StudentID: "alice", Code: BaseSort},
		{StudentID: "dana", Code: BaseSort},
		{StudentID: "rena", Code: RenamedSort},
		{StudentID: "felix", Code: Fibonacci},
		{StudentID: "wanda", Code: WordCount},
	}
}
