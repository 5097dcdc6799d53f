package knowledge

import (
	"context"
	"math"
	"unicode/utf8"
)

const (
	EmbeddingDim  = 1536
	maxEmbedChars = 8000
)

type Embedder interface {
	Embed(ctx context.Context, inputs []string) ([][]float32, error)
}

// HashEmbedder produces deterministic, L2-normalized character-hash vectors.
// They carry no semantics; they keep retrieval working without an embedding API.
type HashEmbedder struct{}

func (HashEmbedder) Embed(ctx context.Context, inputs []string) ([][]float32, error) {
	out := make([][]float32, len(inputs))
	for i, in := range inputs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = hashEmbedding(truncate(in))
	}
	return out, nil
}

func hashEmbedding(text string) []float32 {
	vec := make([]float64, EmbeddingDim)
	i := 0
	for _, ch := range text {
		vec[(int(ch)*31+i)%EmbeddingDim] += 1
		i++
	}
	var mag float64
	for _, v := range vec {
		mag += v * v
	}
	mag = math.Sqrt(mag)
	if mag == 0 {
		mag = 1
	}
	out := make([]float32, EmbeddingDim)
	for j, v := range vec {
		out[j] = float32(v / mag)
	}
	return out
}

// truncate caps text at maxEmbedChars runes.
func truncate(s string) string {
	if utf8.RuneCountInString(s) <= maxEmbedChars {
		return s
	}
	r := []rune(s)
	return string(r[:maxEmbedChars])
}

func cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, ma, mb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		ma += x * x
		mb += y * y
	}
	if ma == 0 || mb == 0 {
		return 0
	}
	return dot / (math.Sqrt(ma) * math.Sqrt(mb))
}
