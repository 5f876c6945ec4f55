// Package similarity computes structural and semantic similarity for pairs of
// submissions and combines them into one composite score in [0, 1].
package similarity

import (
	"math"

	"github.com/hyperjump/utsushi/internal/syntax"
)

// LCSRatio computes sequence similarity via the longest common subsequence:
// 2*LCS(a,b) / (len(a)+len(b)). 1.0 for identical sequences, 0.0 when either
// sequence is empty (including both), so there is never a division by zero.
func LCSRatio(a, b []syntax.Token) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}
	lcs := lcsLength(a, b)
	return 2.0 * float64(lcs) / float64(len(a)+len(b))
}

// lcsLength computes the length of the longest common subsequence using
// O(min(m,n)) space via two-row DP.
func lcsLength(a, b []syntax.Token) int {
	// Ensure a is the shorter sequence for space efficiency.
	if len(a) > len(b) {
		a, b = b, a
	}
	m, n := len(a), len(b)

	prev := make([]int, m+1)
	curr := make([]int, m+1)

	for j := 1; j <= n; j++ {
		for i := 1; i <= m; i++ {
			if a[i-1] == b[j-1] {
				curr[i] = prev[i-1] + 1
			} else {
				curr[i] = prev[i]
				if curr[i-1] > curr[i] {
					curr[i] = curr[i-1]
				}
			}
		}
		prev, curr = curr, prev
		for i := range curr {
			curr[i] = 0
		}
	}

	return prev[m]
}

// EditRatio computes edit-distance-derived similarity:
// 1 - distance(a,b)/max(len(a),len(b)). Like LCSRatio it is 0.0 when either
// sequence is empty.
func EditRatio(a, b []syntax.Token) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}
	longest := len(a)
	if len(b) > longest {
		longest = len(b)
	}
	return 1.0 - float64(editDistance(a, b))/float64(longest)
}

// editDistance is the Levenshtein distance over token sequences: the minimum
// number of single-token insertions, deletions, or substitutions required to
// change one sequence into the other. Two-row DP.
func editDistance(a, b []syntax.Token) int {
	lenA, lenB := len(a), len(b)
	if lenA == 0 {
		return lenB
	}
	if lenB == 0 {
		return lenA
	}

	prev := make([]int, lenB+1)
	curr := make([]int, lenB+1)
	for j := 0; j <= lenB; j++ {
		prev[j] = j
	}

	for i := 1; i <= lenA; i++ {
		curr[0] = i
		for j := 1; j <= lenB; j++ {
			cost := 0
			if a[i-1] != b[j-1] {
				cost = 1
			}
			curr[j] = minThree(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}

	return prev[lenB]
}

func minThree(a, b, c int) int {
	if a <= b && a <= c {
		return a
	}
	if b <= c {
		return b
	}
	return c
}

// Cosine returns the cosine similarity of two embedding vectors, clipped to
// [0, 1]. Raw cosine similarity can be negative for arbitrary embeddings;
// clipping is an explicit policy so composite scores stay in range.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	cos := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	return math.Max(0, math.Min(1, cos))
}

// Round6 rounds a score to 6 decimal places so reported values are stable
// across runs and platforms.
func Round6(x float64) float64 {
	return math.Round(x*1e6) / 1e6
}
