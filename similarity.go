package embeddingbench

import (
	"math"
	"sync"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultSimilarityCacheSize bounds the concept-pair memo of a SimilarityEngine
const DefaultSimilarityCacheSize = 1 << 20

// Cosine returns |cos(a, b)|. It returns 0 for empty, mismatched or zero
// vectors, for NaN results, and for bit-identical vectors when
// suppressIdentical is set.
func Cosine(a, b []float32, suppressIdentical bool) float64 {
	c, _ := cosine(a, b, suppressIdentical)
	return c
}

// cosine also reports whether the raw result was NaN
func cosine(a, b []float32, suppressIdentical bool) (float64, bool) {
	if len(a) == 0 || len(a) != len(b) {
		return 0, false
	}
	if suppressIdentical && identical(a, b) {
		return 0, false
	}

	var dotProduct, norm1, norm2 float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		norm1 += float64(a[i]) * float64(a[i])
		norm2 += float64(b[i]) * float64(b[i])
	}
	if norm1 == 0 || norm2 == 0 {
		return 0, false
	}

	similarity := dotProduct / (math.Sqrt(norm1) * math.Sqrt(norm2))
	if math.IsNaN(similarity) {
		return 0, true
	}
	return clampUnit(math.Abs(similarity)), false
}

func clampUnit(v float64) float64 {
	if v > 1.0 {
		return 1.0
	}
	return v
}

// identical reports bit-level equality
func identical(a, b []float32) bool {
	for i := range a {
		if math.Float32bits(a[i]) != math.Float32bits(b[i]) {
			return false
		}
	}
	return true
}

type conceptPair struct {
	first, second string
}

// SimilarityEngine wraps one embedding with the out-of-vocabulary fallback
// policy and a bounded memo of concept-pair similarities. It is scoped to a
// single benchmark instance.
type SimilarityEngine struct {
	emb    Embedding
	logger Logger

	fallbackOnce sync.Once
	fallback     []float32

	pairs     *lru.Cache[conceptPair, float64]
	nanCount  atomic.Int64
	nanLogged atomic.Bool
}

// NewSimilarityEngine creates an engine over emb. cacheSize <= 0 disables the memo.
func NewSimilarityEngine(emb Embedding, logger Logger, cacheSize int) *SimilarityEngine {
	se := &SimilarityEngine{
		emb:    emb,
		logger: loggerOrDiscard(logger),
	}
	if cacheSize > 0 {
		// lru.New only fails for a non-positive size
		se.pairs, _ = lru.New[conceptPair, float64](cacheSize)
	}
	return se
}

// Embedding returns the wrapped embedding
func (se *SimilarityEngine) Embedding() Embedding {
	return se.emb
}

// Cosine is the package Cosine with NaN accounting
func (se *SimilarityEngine) Cosine(a, b []float32, suppressIdentical bool) float64 {
	c, isNaN := cosine(a, b, suppressIdentical)
	if isNaN {
		se.recordNaN()
	}
	return c
}

func (se *SimilarityEngine) recordNaN() {
	n := se.nanCount.Add(1)
	if se.nanLogged.CompareAndSwap(false, true) {
		se.logger.Warnf("NaN cosine similarity coerced to 0, embedding: %s, occurrences_so_far: %d",
			se.emb.Labels(), n)
	}
}

// NaNCount returns how many NaN similarities were coerced to 0
func (se *SimilarityEngine) NaNCount() int64 {
	return se.nanCount.Load()
}

// ConceptVector returns the concept's vector. Out-of-vocabulary concepts
// resolve to the mean vocabulary vector unless allowMissing is set, in which
// case they are reported as not found.
func (se *SimilarityEngine) ConceptVector(id string, allowMissing bool) ([]float32, bool) {
	if vector, ok := se.emb.GetVector(id); ok {
		return vector, true
	}
	if allowMissing {
		return nil, false
	}
	return se.FallbackVector(), true
}

// FallbackVector returns the arithmetic mean of every vocabulary vector,
// computed once per engine
func (se *SimilarityEngine) FallbackVector() []float32 {
	se.fallbackOnce.Do(func() {
		se.fallback = meanVector(se.emb)
		se.logger.Debugf("Computed fallback vector, embedding: %s, vocabulary_size: %d",
			se.emb.Labels(), se.emb.VocabularySize())
	})
	return se.fallback
}

func meanVector(emb Embedding) []float32 {
	dimension := emb.Dimension()
	sum := make([]float64, dimension)
	count := 0
	for _, id := range emb.Vocabulary() {
		vector, ok := emb.GetVector(id)
		if !ok {
			continue
		}
		for i, val := range vector {
			sum[i] += float64(val)
		}
		count++
	}

	mean := make([]float32, dimension)
	if count == 0 {
		return mean
	}
	for i := range sum {
		mean[i] = float32(sum[i] / float64(count))
	}
	return mean
}

// ConceptSimilarity returns |cos| of two concepts. In-vocabulary pairs are
// memoised; other pairs go through the fallback vector.
func (se *SimilarityEngine) ConceptSimilarity(id1, id2 string) float64 {
	key := conceptPair{first: id1, second: id2}
	if id2 < id1 {
		key = conceptPair{first: id2, second: id1}
	}
	if se.pairs != nil {
		if v, ok := se.pairs.Get(key); ok {
			return v
		}
	}

	var sim float64
	if raw, ok := se.emb.Similarity(id1, id2); ok {
		if math.IsNaN(raw) {
			se.recordNaN()
			raw = 0
		}
		sim = clampUnit(math.Abs(raw))
		if se.pairs != nil {
			se.pairs.Add(key, sim)
		}
		return sim
	}

	v1, _ := se.ConceptVector(id1, false)
	v2, _ := se.ConceptVector(id2, false)
	return se.Cosine(v1, v2, false)
}

// MostSimilar returns the topK nearest vocabulary entries to a vector
func (se *SimilarityEngine) MostSimilar(query []float32, topK int) []Neighbor {
	return se.emb.MostSimilar(query, topK)
}

// MostSimilarTo returns the topK nearest vocabulary entries to a vocabulary entry
func (se *SimilarityEngine) MostSimilarTo(id string, topK int) ([]Neighbor, bool) {
	return se.emb.MostSimilarTo(id, topK)
}

// Release drops the fallback vector and the memo
func (se *SimilarityEngine) Release() {
	se.fallback = nil
	se.fallbackOnce = sync.Once{}
	if se.pairs != nil {
		se.pairs.Purge()
	}
}

// subtract returns a - b
func subtract(a, b []float32) []float32 {
	out := make([]float32, len(a))
	for i := range a {
		out[i] = a[i] - b[i]
	}
	return out
}
