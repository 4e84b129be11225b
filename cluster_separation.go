package embeddingbench

import (
	"fmt"

	"gonum.org/v1/gonum/stat"
)

// CategorySeparation scores how much closer concepts are to their own
// semantic category than to other categories
type CategorySeparation struct {
	engine *SimilarityEngine
	index  *CategoryIndex
	logger Logger
}

// CategoryResult is the breakdown of one category
type CategoryResult struct {
	Within  float64
	Between float64
	Score   float64
}

// NewCategorySeparation builds the benchmark; categories is required
func NewCategorySeparation(emb Embedding, categories CategorySource, params Params, logger Logger) (*CategorySeparation, error) {
	index, err := NewCategoryIndex(categories, emb)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", BenchmarkCategorySeparation, err)
	}
	return &CategorySeparation{
		engine: NewSimilarityEngine(emb, logger, params.SimilarityCacheSize),
		index:  index,
		logger: loggerOrDiscard(logger),
	}, nil
}

func (*CategorySeparation) Name() string { return string(BenchmarkCategorySeparation) }

// Evaluate returns the mean CategoryScore over categories with at least two concepts
func (cs *CategorySeparation) Evaluate() (Score, error) {
	var sum float64
	count := 0
	for _, category := range cs.index.Categories() {
		if len(cs.index.Concepts(category)) < 2 {
			continue
		}
		result := cs.CategoryScore(category)
		cs.logger.Debugf("Category separation, category: %s, within: %.4f, between: %.4f, score: %.4f",
			category, result.Within, result.Between, result.Score)
		sum += result.Score
		count++
	}
	if count == 0 {
		return Scalar(0), nil
	}
	return Scalar(sum / float64(count)), nil
}

// CategoryScore returns within - between for one category
func (cs *CategorySeparation) CategoryScore(category string) CategoryResult {
	concepts := cs.index.Concepts(category)
	if len(concepts) <= 1 {
		return CategoryResult{}
	}

	within := cs.meanWithin(concepts)

	var betweenSum float64
	others := 0
	for _, other := range cs.index.Categories() {
		if other == category {
			continue
		}
		otherConcepts := cs.index.Concepts(other)
		if len(otherConcepts) == 0 {
			continue
		}
		betweenSum += cs.meanAcross(concepts, otherConcepts)
		others++
	}

	between := 0.0
	if others > 0 {
		between = betweenSum / float64(others)
	}
	return CategoryResult{Within: within, Between: between, Score: within - between}
}

// meanWithin averages over unordered pairs of distinct concepts
func (cs *CategorySeparation) meanWithin(concepts []string) float64 {
	var sum float64
	pairs := 0
	for i := range concepts {
		for j := i + 1; j < len(concepts); j++ {
			sum += cs.engine.ConceptSimilarity(concepts[i], concepts[j])
			pairs++
		}
	}
	if pairs == 0 {
		return 0
	}
	return sum / float64(pairs)
}

func (cs *CategorySeparation) meanAcross(left, right []string) float64 {
	if len(left) == 0 || len(right) == 0 {
		return 0
	}
	var sum float64
	for _, l := range left {
		for _, r := range right {
			sum += cs.engine.ConceptSimilarity(l, r)
		}
	}
	return sum / float64(len(left)*len(right))
}

func (cs *CategorySeparation) Release() {
	cs.engine.Release()
	cs.index = nil
}

// SilhouetteMode selects how the nearest-other-cluster distance and the final
// aggregate are reduced
type SilhouetteMode int

const (
	// SilhouetteBestCase takes the minimum over other categories and reports
	// the best-separated category
	SilhouetteBestCase SilhouetteMode = iota
	// SilhouetteAverageCase averages over other categories and categories
	SilhouetteAverageCase
)

// Silhouette is a cosine-similarity silhouette coefficient over semantic categories
type Silhouette struct {
	engine *SimilarityEngine
	index  *CategoryIndex
	mode   SilhouetteMode
	logger Logger
}

// NewSilhouette builds the benchmark; categories is required
func NewSilhouette(emb Embedding, categories CategorySource, mode SilhouetteMode, params Params, logger Logger) (*Silhouette, error) {
	s := &Silhouette{mode: mode, logger: loggerOrDiscard(logger)}
	index, err := NewCategoryIndex(categories, emb)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.Name(), err)
	}
	s.index = index
	s.engine = NewSimilarityEngine(emb, logger, params.SimilarityCacheSize)
	return s, nil
}

func (s *Silhouette) Name() string {
	if s.mode == SilhouetteAverageCase {
		return string(BenchmarkSilhouetteAverage)
	}
	return string(BenchmarkSilhouetteBest)
}

// Evaluate returns the max (best case) or mean (average case) category silhouette
func (s *Silhouette) Evaluate() (Score, error) {
	var scores []float64
	for _, category := range s.index.Categories() {
		if len(s.index.Concepts(category)) < 2 {
			continue
		}
		score := s.CategoryScore(category)
		s.logger.Debugf("Silhouette, category: %s, score: %.4f", category, score)
		scores = append(scores, score)
	}
	if len(scores) == 0 {
		return Scalar(0), nil
	}

	if s.mode == SilhouetteAverageCase {
		return Scalar(mean(scores)), nil
	}
	best := scores[0]
	for _, v := range scores[1:] {
		best = max(best, v)
	}
	return Scalar(best), nil
}

// CategoryScore returns the mean silhouette of the members of category
func (s *Silhouette) CategoryScore(category string) float64 {
	concepts := s.index.Concepts(category)
	if len(concepts) < 2 {
		return 0
	}
	var sum float64
	for _, term := range concepts {
		sum += s.TermScore(term, category)
	}
	return sum / float64(len(concepts))
}

// TermScore returns s(t) for one member of category
func (s *Silhouette) TermScore(term, category string) float64 {
	cluster := s.index.Concepts(category)
	if len(cluster) < 2 {
		return 0
	}

	var within float64
	for _, other := range cluster {
		if other == term {
			continue
		}
		within += s.engine.ConceptSimilarity(term, other)
	}
	a := within / float64(len(cluster)-1)

	var distances []float64
	for _, other := range s.index.Categories() {
		if other == category {
			continue
		}
		members := s.index.Concepts(other)
		if len(members) == 0 {
			continue
		}
		var sum float64
		for _, m := range members {
			sum += s.engine.ConceptSimilarity(term, m)
		}
		distances = append(distances, sum/float64(len(members)))
	}
	if len(distances) == 0 {
		return 0
	}

	var b float64
	if s.mode == SilhouetteAverageCase {
		b = mean(distances)
	} else {
		b = distances[0]
		for _, d := range distances[1:] {
			b = min(b, d)
		}
	}

	return silhouetteValue(a, b)
}

func silhouetteValue(a, b float64) float64 {
	switch {
	case a < b:
		return 1 - a/b
	case a == b:
		return 0
	default:
		return b/a - 1
	}
}

func (s *Silhouette) Release() {
	s.engine.Release()
	s.index = nil
}

// mean is stat.Mean with 0 for an empty slice
func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return stat.Mean(values, nil)
}
