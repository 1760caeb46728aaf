package vectorcore

import "context"

// Embedder is the external text-to-vector collaborator spec §6 describes:
// "embed(text) → vector that the core calls only when the caller passes
// text instead of a vector." The core never implements embedding itself —
// it validates the returned vector's dimension and normalizes it like any
// other embedding.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}
