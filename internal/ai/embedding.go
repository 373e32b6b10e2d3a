package ai

import (
	"context"
	"errors"

	"paperbase/internal/config"
)

var (
	// ErrServiceUnavailable marks transport failures or non-success statuses
	// from the embedding backend.
	ErrServiceUnavailable = errors.New("embedding service unavailable")
	// ErrInvalidResponse marks a reachable backend returning a payload without
	// a well-formed numeric vector.
	ErrInvalidResponse = errors.New("invalid embedding response")
)

// Embedder computes a fixed-length vector for a text. Implementations do not
// retry; callers decide.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Model() string
}

// NewEmbedder selects the embedding client for the configured provider.
// Unknown providers fall back to the Ollama-style client.
func NewEmbedder(cfg config.EmbeddingConfig) Embedder {
	if cfg.Provider == "openai" {
		return NewOpenAIEmbedder(cfg)
	}
	return NewOllamaEmbedder(cfg)
}
