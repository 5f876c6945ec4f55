// Package embedding produces fixed-dimension semantic vectors for code via a
// pretrained ONNX model, with caching and a deterministic fallback.
package embedding

import (
	"context"
	"errors"
)

// ErrUnembeddable is returned when code cannot be embedded (e.g. empty after
// trimming). Callers exclude such submissions from semantic comparison rather
// than aborting a whole detection pass.
var ErrUnembeddable = errors.New("code cannot be embedded")

// Embedder produces vector embeddings for code. Implementations are pure
// functions of their input: the same code always yields the same vector, and
// the dimension is constant for the embedder's lifetime (the model is frozen,
// never trained here).
type Embedder interface {
	Embed(ctx context.Context, code string) ([]float32, error)
	EmbedBatch(ctx context.Context, codes []string) ([][]float32, error)
	Dimensions() int
	Close() error
}
