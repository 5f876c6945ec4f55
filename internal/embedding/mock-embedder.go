package embedding

import (
	"context"
	"math"
	"strings"

	"github.com/hyperjump/utsushi/internal/syntax"
	"github.com/hyperjump/utsushi/pkg/utils"
)

// MockEmbedder is a deterministic embedder used in tests and as a fallback
// when the ONNX model cannot be loaded. It returns a fixed-dimension unit
// vector derived from a hash of the normalized token sequence, so
// structurally identical code (renamed identifiers, reflowed layout) embeds
// identically. Unparseable code hashes the raw text instead.
type MockEmbedder struct {
	dimensions int
}

// NewMockEmbedder returns an embedder producing deterministic embeddings of
// the given dimensions.
func NewMockEmbedder(dimensions int) *MockEmbedder {
	if dimensions <= 0 {
		dimensions = 384
	}
	return &MockEmbedder{dimensions: dimensions}
}

// Embed returns a deterministic embedding based on the structural key of code.
func (e *MockEmbedder) Embed(ctx context.Context, code string) ([]float32, error) {
	if strings.TrimSpace(code) == "" {
		return nil, ErrUnembeddable
	}
	h := HashString(structuralKey(code))
	emb := make([]float32, e.dimensions)
	for i := 0; i < e.dimensions; i++ {
		emb[i] = float32(math.Sin(float64(h*(i+1)))*0.1 + 0.01)
	}
	// Normalize to unit length for cosine similarity
	utils.NormalizeL2(emb)
	return emb, nil
}

// structuralKey reduces code to its normalized token sequence. Rename-only
// and reformat-only variants share a key; unparseable code keys on the raw
// text so it still embeds.
func structuralKey(code string) string {
	tokens, err := syntax.Tokenize(code)
	if err != nil {
		return code
	}
	parts := make([]string, len(tokens))
	for i, tok := range tokens {
		parts[i] = string(tok)
	}
	return strings.Join(parts, " ")
}

// EmbedBatch calls Embed for each code string.
func (e *MockEmbedder) EmbedBatch(ctx context.Context, codes []string) ([][]float32, error) {
	embeddings := make([][]float32, len(codes))
	for i, code := range codes {
		emb, err := e.Embed(ctx, code)
		if err != nil {
			return nil, err
		}
		embeddings[i] = emb
	}
	return embeddings, nil
}

// Dimensions returns the embedding dimension.
func (e *MockEmbedder) Dimensions() int {
	return e.dimensions
}

// Close is a no-op for MockEmbedder.
func (e *MockEmbedder) Close() error {
	return nil
}
