package similarity

import (
	"fmt"

	"github.com/hyperjump/utsushi/internal/syntax"
)

// Metric selects the structural sequence-similarity algorithm.
type Metric string

const (
	// MetricLCS is the longest-common-subsequence ratio (default).
	MetricLCS Metric = "lcs"
	// MetricLevenshtein is edit-distance-derived similarity.
	MetricLevenshtein Metric = "levenshtein"
)

// Scorer combines structural and semantic similarity into a composite score
// score = alpha*structural + (1-alpha)*semantic. Alpha is fixed for the
// scorer's lifetime so results within and across runs are reproducible.
type Scorer struct {
	alpha  float64
	metric Metric
}

// NewScorer creates a scorer. Alpha must be in [0, 1]; metric must be a known
// structural metric (empty selects LCS).
func NewScorer(alpha float64, metric Metric) (*Scorer, error) {
	if alpha < 0 || alpha > 1 {
		return nil, fmt.Errorf("alpha must be in [0, 1], got %v", alpha)
	}
	if metric == "" {
		metric = MetricLCS
	}
	if metric != MetricLCS && metric != MetricLevenshtein {
		return nil, fmt.Errorf("unknown structural metric %q", metric)
	}
	return &Scorer{alpha: alpha, metric: metric}, nil
}

// Alpha returns the structural weight.
func (s *Scorer) Alpha() float64 {
	return s.alpha
}

// Structural computes the structural similarity of two token sequences with
// the configured metric. Token order matters: the sequences come from a
// canonical pre-order walk, so control-flow differences lower the score.
func (s *Scorer) Structural(a, b []syntax.Token) float64 {
	if s.metric == MetricLevenshtein {
		return EditRatio(a, b)
	}
	return LCSRatio(a, b)
}

// Composite combines the two similarity terms. Both inputs must already be
// in [0, 1].
func (s *Scorer) Composite(structural, semantic float64) float64 {
	return s.alpha*structural + (1-s.alpha)*semantic
}
