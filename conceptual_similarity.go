package embeddingbench

import (
	"fmt"
	"math"
	"slices"
)

// ConceptualSimilarity is the medical concept similarity measure of Choi et
// al.: a rank-discounted count of nearest neighbours that share the probe
// concept's category.
type ConceptualSimilarity struct {
	engine     *SimilarityEngine
	index      *CategoryIndex
	categories []string
	depth      int
	logger     Logger
}

// NewConceptualSimilarity builds the benchmark; categories is required
func NewConceptualSimilarity(emb Embedding, categories CategorySource, params Params, logger Logger) (*ConceptualSimilarity, error) {
	index, err := NewCategoryIndex(categories, emb)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", BenchmarkConceptualSimilarity, err)
	}

	probes := params.ProbeCategories
	if len(probes) == 0 {
		probes = DefaultProbeCategories
	}
	depth := params.NeighborDepth
	if depth <= 0 {
		depth = DefaultNeighborDepth
	}

	return &ConceptualSimilarity{
		engine:     NewSimilarityEngine(emb, logger, params.SimilarityCacheSize),
		index:      index,
		categories: probes,
		depth:      depth,
		logger:     loggerOrDiscard(logger),
	}, nil
}

func (*ConceptualSimilarity) Name() string { return string(BenchmarkConceptualSimilarity) }

// Evaluate returns the mean CategoryScore over the probe categories
func (mc *ConceptualSimilarity) Evaluate() (Score, error) {
	scores := make([]float64, 0, len(mc.categories))
	for _, category := range mc.categories {
		score := mc.CategoryScore(category)
		mc.logger.Debugf("Conceptual similarity, embedding: %s, category: %s, score: %.4f",
			mc.engine.Embedding().Labels(), category, score)
		scores = append(scores, score)
	}
	return Scalar(mean(scores)), nil
}

// CategoryScore averages ConceptScore over the category's concepts; 0 if none
func (mc *ConceptualSimilarity) CategoryScore(category string) float64 {
	concepts := mc.index.Concepts(category)
	if len(concepts) == 0 {
		return 0
	}
	var sigma float64
	for _, concept := range concepts {
		sigma += mc.ConceptScore(concept, category)
	}
	return sigma / float64(len(concepts))
}

// ConceptScore sums 1/log2(rank+2) over the concept's neighbours carrying
// category. Neighbours without any recorded category are ignored.
func (mc *ConceptualSimilarity) ConceptScore(concept, category string) float64 {
	neighbors, ok := mc.engine.MostSimilarTo(concept, mc.depth)
	if !ok {
		return 0
	}
	var sigma float64
	for rank, neighbor := range neighbors {
		categories, known := mc.index.CategoriesOf(neighbor.ID)
		if !known {
			continue
		}
		if slices.Contains(categories, category) {
			sigma += 1 / math.Log2(float64(rank+2))
		}
	}
	return sigma
}

func (mc *ConceptualSimilarity) Release() {
	mc.engine.Release()
	mc.index = nil
}
