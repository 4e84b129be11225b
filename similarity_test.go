package embeddingbench

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCosine(t *testing.T) {
	tests := []struct {
		name     string
		a, b     []float32
		suppress bool
		want     float64
	}{
		{"identical suppressed", []float32{1, 2, 3}, []float32{1, 2, 3}, true, 0},
		{"identical kept", []float32{1, 2, 3}, []float32{1, 2, 3}, false, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, true, 0},
		{"opposite is absolute", []float32{1, 0}, []float32{-1, 0}, true, 1},
		{"zero vector", []float32{0, 0}, []float32{1, 0}, false, 0},
		{"empty", nil, nil, false, 0},
		{"dimension mismatch", []float32{1, 0}, []float32{1, 0, 0}, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Cosine(tt.a, tt.b, tt.suppress), 1e-9)
		})
	}
}

func TestCosine_SymmetricAndBounded(t *testing.T) {
	a := []float32{0.3, -0.7, 0.2}
	b := []float32{-0.1, 0.4, 0.9}

	ab := Cosine(a, b, true)
	ba := Cosine(b, a, true)
	assert.Equal(t, ab, ba)
	assert.GreaterOrEqual(t, ab, 0.0)
	assert.LessOrEqual(t, ab, 1.0)
}

func TestSimilarityEngine_NaN(t *testing.T) {
	emb := newTestEmbedding(t, vec{"a", []float32{1, 0}})
	logger := &mockLogger{}
	engine := NewSimilarityEngine(emb, logger, 16)

	nan := float32(math.NaN())
	got := engine.Cosine([]float32{nan, 1}, []float32{1, 1}, false)
	assert.Equal(t, 0.0, got)
	engine.Cosine([]float32{nan, 1}, []float32{1, 1}, false)

	assert.Equal(t, int64(2), engine.NaNCount())

	// Only the first occurrence is logged
	warnings := 0
	for _, msg := range logger.messages {
		if len(msg) > 5 && msg[:5] == "WARN:" {
			warnings++
		}
	}
	assert.Equal(t, 1, warnings)
}

func TestSimilarityEngine_FallbackVector(t *testing.T) {
	emb := newTestEmbedding(t,
		vec{"a", []float32{1, 0}},
		vec{"b", []float32{3, 2}},
	)
	engine := NewSimilarityEngine(emb, nil, 16)

	assert.Equal(t, []float32{2, 1}, engine.FallbackVector())

	v, ok := engine.ConceptVector("missing", false)
	require.True(t, ok)
	assert.Equal(t, []float32{2, 1}, v)

	v, ok = engine.ConceptVector("missing", true)
	assert.False(t, ok)
	assert.Nil(t, v)

	v, ok = engine.ConceptVector("a", true)
	require.True(t, ok)
	assert.Equal(t, []float32{1, 0}, v)
}

func TestSimilarityEngine_ConceptSimilarity(t *testing.T) {
	emb := newTestEmbedding(t,
		vec{"a", []float32{1, 0}},
		vec{"b", []float32{-1, 1}},
		vec{"c", []float32{1, 1}},
	)
	engine := NewSimilarityEngine(emb, nil, 16)

	// Absolute value of the signed cosine
	assert.InDelta(t, 1/math.Sqrt2, engine.ConceptSimilarity("a", "b"), 1e-9)
	assert.Equal(t, engine.ConceptSimilarity("a", "b"), engine.ConceptSimilarity("b", "a"))

	// Missing concepts resolve through the fallback vector (1/3, 2/3)
	fallback := []float32{1.0 / 3, 2.0 / 3}
	want := Cosine([]float32{1, 1}, fallback, false)
	assert.InDelta(t, want, engine.ConceptSimilarity("c", "missing"), 1e-6)

	engine.Release()
	assert.InDelta(t, 1/math.Sqrt2, engine.ConceptSimilarity("a", "b"), 1e-9)
}

func TestSimilarityEngine_NoCache(t *testing.T) {
	emb := newTestEmbedding(t,
		vec{"a", []float32{1, 0}},
		vec{"b", []float32{1, 1}},
	)
	engine := NewSimilarityEngine(emb, nil, 0)
	assert.InDelta(t, 1/math.Sqrt2, engine.ConceptSimilarity("a", "b"), 1e-9)
	engine.Release()
}

func TestSimilarityEngine_MostSimilarTo(t *testing.T) {
	emb := newTestEmbedding(t,
		vec{"q", []float32{1, 0}},
		vec{"first", []float32{2, 0}},
		vec{"second", []float32{3, 0}},
		vec{"far", []float32{0, 1}},
	)
	engine := NewSimilarityEngine(emb, nil, 16)

	neighbors, ok := engine.MostSimilarTo("q", 2)
	require.True(t, ok)
	require.Len(t, neighbors, 2)
	// Equal scores keep vocabulary order
	assert.Equal(t, "first", neighbors[0].ID)
	assert.Equal(t, "second", neighbors[1].ID)
}

func TestSubtract(t *testing.T) {
	assert.Equal(t, []float32{1, -1, 0.5}, subtract([]float32{2, 0, 1}, []float32{1, 1, 0.5}))
}
