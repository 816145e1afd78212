// Package embedding provides embedding generation for knowledge
// ingestion and semantic search
package embedding

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"strings"
	"sync/atomic"
	"unicode"
)

// Generator produces embedding vectors for text. Implementations must
// be safe for concurrent use.
type Generator interface {
	// GenerateEmbeddings returns one vector per input text, in order
	GenerateEmbeddings(ctx context.Context, texts []string) ([][]float32, error)

	// TotalEmbeddings returns the number of vectors generated so far
	TotalEmbeddings() int64
}

const defaultDimensions = 256

// HashingGenerator is a deterministic, dependency-free embedding
// generator based on token feature hashing. Identical inputs always
// produce identical vectors, which keeps similarity-based graph
// linking and cache behavior reproducible across runs.
type HashingGenerator struct {
	dimensions int
	total      atomic.Int64
}

// NewHashingGenerator creates a hashing generator with the given
// dimensionality. Non-positive values fall back to the default.
func NewHashingGenerator(dimensions int) *HashingGenerator {
	if dimensions <= 0 {
		dimensions = defaultDimensions
	}
	return &HashingGenerator{dimensions: dimensions}
}

// GenerateEmbeddings returns one normalized vector per input text
func (g *HashingGenerator) GenerateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		vectors[i] = g.embed(text)
	}

	g.total.Add(int64(len(texts)))
	return vectors, nil
}

// TotalEmbeddings returns the number of vectors generated so far
func (g *HashingGenerator) TotalEmbeddings() int64 {
	return g.total.Load()
}

// Dimensions returns the vector dimensionality
func (g *HashingGenerator) Dimensions() int {
	return g.dimensions
}

// embed hashes unigram and bigram token features into a fixed-size
// vector and L2-normalizes it
func (g *HashingGenerator) embed(text string) []float32 {
	vector := make([]float32, g.dimensions)

	tokens := tokenize(text)
	for i, token := range tokens {
		g.addFeature(vector, token)
		if i > 0 {
			g.addFeature(vector, tokens[i-1]+" "+token)
		}
	}

	normalize(vector)
	return vector
}

// addFeature hashes a feature into a bucket with a hash-derived sign,
// which keeps opposing features from systematically accumulating
func (g *HashingGenerator) addFeature(vector []float32, feature string) {
	h := fnv.New64a()
	h.Write([]byte(feature))
	sum := h.Sum64()

	bucket := int(sum % uint64(g.dimensions))
	if sum&(1<<63) != 0 {
		vector[bucket]--
	} else {
		vector[bucket]++
	}
}

// tokenize lowercases the text and splits it on non-alphanumeric runes
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

// normalize scales the vector to unit length in place
func normalize(vector []float32) {
	var norm float64
	for _, v := range vector {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return
	}
	norm = math.Sqrt(norm)
	for i := range vector {
		vector[i] = float32(float64(vector[i]) / norm)
	}
}

// Validate checks that a set of vectors share the generator's
// dimensionality. Useful for callers persisting vectors across runs.
func (g *HashingGenerator) Validate(vectors [][]float32) error {
	for i, v := range vectors {
		if len(v) != g.dimensions {
			return fmt.Errorf("vector %d has %d dimensions, expected %d", i, len(v), g.dimensions)
		}
	}
	return nil
}
