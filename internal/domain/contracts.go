package domain

import "context"

// Embedder is the shared text vectorization contract between layers.
// An empty input yields a nil vector without any provider call.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// ChatModel sends a system+user prompt pair to a language model and
// returns its text reply.
type ChatModel interface {
	Complete(ctx context.Context, system, user string) (string, error)
}
