package related

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"

	"github.com/philippgille/chromem-go"
)

// Dimensions is the size of the hashed feature vectors.
const Dimensions = 256

// biasToken is added to every text so no vector is all zeros.
const biasToken = "\x00bias"

// HashEmbedding returns a chromem.EmbeddingFunc that maps text to a
// normalized bag-of-words vector using the hashing trick.
func HashEmbedding() chromem.EmbeddingFunc {
	return func(_ context.Context, text string) ([]float32, error) {
		return hashVector(text), nil
	}
}

func hashVector(text string) []float32 {
	vec := make([]float32, Dimensions)
	add := func(token string, weight float32) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(token))
		sum := h.Sum32()
		idx := sum % Dimensions
		// The top bit picks the sign so collisions cancel instead of pile up.
		if sum&(1<<31) != 0 {
			vec[idx] -= weight
		} else {
			vec[idx] += weight
		}
	}

	add(biasToken, 0.1)
	for _, token := range tokenize(text) {
		add(token, 1)
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v * v)
	}
	if norm == 0 {
		// Colliding tokens cancelled out exactly.
		vec[0] = 1
		return vec
	}
	scale := float32(1 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= scale
	}
	return vec
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != ':'
	})
}
