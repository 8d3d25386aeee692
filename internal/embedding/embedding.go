// Package embedding provides vector embedding generation for clause text.
package embedding

import "context"

// Embedding represents a vector embedding of text.
type Embedding struct {
	Vector []float32 // The embedding vector (e.g., 384 dimensions for all-minilm)
}

// Dimensions returns the dimensionality of the embedding.
func (e Embedding) Dimensions() int {
	return len(e.Vector)
}

// Provider generates embeddings from text. The result for a given text
// is the same whether it is embedded alone or as part of a batch.
type Provider interface {
	// Embed generates an embedding for a single text.
	Embed(ctx context.Context, text string) (Embedding, error)

	// EmbedBatch generates embeddings for an ordered batch of texts.
	// The i-th result corresponds to the i-th input.
	EmbedBatch(ctx context.Context, texts []string) ([]Embedding, error)

	// ModelName returns the name of the embedding model.
	ModelName() string

	// Dimensions returns the expected vector dimensions.
	Dimensions() int
}
