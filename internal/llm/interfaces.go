package llm

import (
	"context"
	"errors"
)

// ErrProvider wraps every failure coming back from an external model provider
// (quota, auth, malformed-input rejection, transport). Callers use errors.Is
// to distinguish provider failures from local ones.
var ErrProvider = errors.New("model provider error")

// TextGenerator is the interface for LLM text completion.
// The rerank prompt uses single-string completion style (not multi-turn chat).
type TextGenerator interface {
	Complete(ctx context.Context, prompt string) (string, error)
	GetModel() string
}

// EmbeddingGenerator is the interface for generating vector embeddings.
type EmbeddingGenerator interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	GetModel() string
}
