package models

import (
	"encoding/json"
	"fmt"
)

// Caveat marks a pair whose score was computed with a degraded formula
// because one term of the composite was unavailable.
type Caveat string

const (
	// CaveatNone means both structural and semantic terms contributed.
	CaveatNone Caveat = ""
	// CaveatSemanticOnly means a side failed tokenization; the score is the
	// semantic term alone.
	CaveatSemanticOnly Caveat = "semantic-only"
	// CaveatStructuralOnly means a side failed embedding; the score is the
	// structural term alone.
	CaveatStructuralOnly Caveat = "structural-only"
)

// ComparisonResult is one reported pair. StudentA sorts before StudentB so
// each unordered pair appears at most once and always in the same orientation.
type ComparisonResult struct {
	StudentA string
	StudentB string
	Score    float64
	Caveat   Caveat
}

// MarshalJSON encodes the pair as the fixed 3-tuple [student_a, student_b, score].
// Caveats are reported through Diagnostics, not the tuple, so the wire shape
// never varies.
func (r ComparisonResult) MarshalJSON() ([]byte, error) {
	return json.Marshal([]interface{}{r.StudentA, r.StudentB, r.Score})
}

// UnmarshalJSON decodes the 3-tuple form produced by MarshalJSON.
func (r *ComparisonResult) UnmarshalJSON(data []byte) error {
	var tuple []json.RawMessage
	if err := json.Unmarshal(data, &tuple); err != nil {
		return err
	}
	if len(tuple) != 3 {
		return fmt.Errorf("comparison result must be a 3-tuple, got %d elements", len(tuple))
	}
	if err := json.Unmarshal(tuple[0], &r.StudentA); err != nil {
		return err
	}
	if err := json.Unmarshal(tuple[1], &r.StudentB); err != nil {
		return err
	}
	return json.Unmarshal(tuple[2], &r.Score)
}

// Diagnostics distinguishes "no similarity found" from "some submissions
// could not be compared". It is a separate channel from similar_pairs.
type Diagnostics struct {
	// Unparsed lists student IDs whose code failed structural tokenization.
	Unparsed []string `json:"unparsed,omitempty"`
	// Unembedded lists student IDs whose code could not be embedded.
	Unembedded []string `json:"unembedded,omitempty"`
	// SemanticOnlyPairs lists reported pairs scored without the structural term.
	SemanticOnlyPairs [][2]string `json:"semantic_only_pairs,omitempty"`
	// StructuralOnlyPairs lists reported pairs scored without the semantic term.
	StructuralOnlyPairs [][2]string `json:"structural_only_pairs,omitempty"`
	// PairsExcluded counts pairs where neither term could be computed.
	PairsExcluded int `json:"pairs_excluded,omitempty"`
}

// Empty reports whether the diagnostics carry no information.
func (d *Diagnostics) Empty() bool {
	return len(d.Unparsed) == 0 && len(d.Unembedded) == 0 &&
		len(d.SemanticOnlyPairs) == 0 && len(d.StructuralOnlyPairs) == 0 &&
		d.PairsExcluded == 0
}

// DetectionReport is the result of one full detection pass.
type DetectionReport struct {
	RunID          string             `json:"run_id"`
	Threshold      float64            `json:"threshold"`
	Submissions    int                `json:"submissions"`
	PairsEvaluated int                `json:"pairs_evaluated"`
	SimilarPairs   []ComparisonResult `json:"similar_pairs"`
	Diagnostics    *Diagnostics       `json:"diagnostics,omitempty"`
	RunTime        int64              `json:"run_time_ms"`
}
