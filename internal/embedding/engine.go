// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package embedding turns text into vectors for similarity search.
package embedding

import (
	"context"
	"errors"
	"math"
)

// ErrModelMissing is returned when the embedding server does not have the
// configured model installed.
var ErrModelMissing = errors.New("embedding model not installed")

// Engine generates vector embeddings for text.
type Engine interface {
	// Embed generates the embedding of a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for texts, in order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the vector length, or 0 if not yet known.
	Dimensions() int

	// Name identifies the engine and model, e.g. "ollama:all-minilm".
	Name() string
}

// HealthChecker is implemented by engines that can verify their backend
// before a long batch starts.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// CosineSimilarity returns the cosine of the angle between a and b. It is 0
// when the lengths differ or either vector is zero.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
