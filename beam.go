package embeddingbench

import (
	"fmt"
	"sort"
	"strings"

	"gonum.org/v1/gonum/stat"
)

// bootstrapThreshold samples min(|poolA|, sampleCap) and min(|poolB|, sampleCap)
// concepts with the same seed, pairs the samples positionally and returns the
// empirical (1 - alpha) quantile of the paired similarities. It reports false
// when either pool is empty.
func bootstrapThreshold(engine *SimilarityEngine, poolA, poolB []string, sampleCap int, seed int64, alpha float64) (float64, bool) {
	if len(poolA) == 0 || len(poolB) == 0 {
		return 0, false
	}

	sampleA := sampleN(poolA, sampleCap, seed)
	sampleB := sampleN(poolB, sampleCap, seed)
	n := min(len(sampleA), len(sampleB))

	values := make([]float64, n)
	for i := range n {
		values[i] = pairCosine(engine, sampleA[i], sampleB[i])
	}
	sort.Float64s(values)

	return stat.Quantile(1-alpha, stat.Empirical, values, nil), true
}

// pairCosine compares two concepts, zeroing bit-identical vectors of distinct concepts
func pairCosine(engine *SimilarityEngine, first, second string) float64 {
	v1, _ := engine.ConceptVector(first, false)
	v2, _ := engine.ConceptVector(second, false)
	return engine.Cosine(v1, v2, first != second)
}

// beamTally accumulates observed indicators
type beamTally struct {
	positives int
	observed  int
	dropped   int // expected comparisons lost to vocabulary coverage
}

func (t *beamTally) observe(similarity, threshold float64) {
	if similarity >= threshold {
		t.positives++
	}
	t.observed++
}

// score returns (lenient, strict); empty denominators yield 0
func (t beamTally) score() Score {
	s := Score{Kind: LenientStrictScore}
	if t.observed > 0 {
		s.Primary = float64(t.positives) / float64(t.observed)
	}
	if total := t.observed + t.dropped; total > 0 {
		s.Secondary = float64(t.positives) / float64(total)
	}
	return s
}

// beamParams are the bootstrap settings shared by every beam variant
type beamParams struct {
	bootstrapCap int
	observedCap  int
	seed         int64
	alpha        float64
}

func newBeamParams(params Params) beamParams {
	bp := beamParams{
		bootstrapCap: params.BootstrapSampleCap,
		observedCap:  params.ObservedSampleCap,
		seed:         params.Seed,
		alpha:        params.SignificanceLevel,
	}
	if bp.bootstrapCap <= 0 {
		bp.bootstrapCap = DefaultBootstrapSampleCap
	}
	if bp.observedCap <= 0 {
		bp.observedCap = DefaultObservedSampleCap
	}
	if bp.alpha <= 0 || bp.alpha >= 1 {
		bp.alpha = DefaultSignificanceLevel
	}
	return bp
}

// SemanticTypeBeam tests whether concepts of one semantic type are
// significantly closer to each other than to concepts of other types. Every
// pair within a sampled subset of the type is an observation.
type SemanticTypeBeam struct {
	engine     *SimilarityEngine
	index      *CategoryIndex
	categories []string
	params     beamParams
	logger     Logger
}

// NewSemanticTypeBeam builds the benchmark; categories is required
func NewSemanticTypeBeam(emb Embedding, categories CategorySource, params Params, logger Logger) (*SemanticTypeBeam, error) {
	index, err := NewCategoryIndex(categories, emb)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", BenchmarkSemanticTypeBeam, err)
	}
	probes := params.ProbeCategories
	if len(probes) == 0 {
		probes = DefaultProbeCategories
	}
	return &SemanticTypeBeam{
		engine:     NewSimilarityEngine(emb, logger, params.SimilarityCacheSize),
		index:      index,
		categories: probes,
		params:     newBeamParams(params),
		logger:     loggerOrDiscard(logger),
	}, nil
}

func (*SemanticTypeBeam) Name() string { return string(BenchmarkSemanticTypeBeam) }

// Evaluate returns (lenient, strict). Concepts of a probed type missing from
// the vocabulary count against the strict ratio.
func (sb *SemanticTypeBeam) Evaluate() (Score, error) {
	var tally beamTally
	all := sb.index.AllConcepts()

	for _, category := range sb.categories {
		same := sb.index.Concepts(category)
		tally.dropped += sb.index.OntologySize(category) - len(same)
		other := difference(all, same)

		threshold, ok := bootstrapThreshold(sb.engine, same, other,
			sb.params.bootstrapCap, sb.params.seed, sb.params.alpha)
		if !ok {
			continue
		}

		sampled := sampleN(same, sb.params.observedCap, sb.params.seed)
		for i := range sampled {
			for j := i + 1; j < len(sampled); j++ {
				tally.observe(pairCosine(sb.engine, sampled[i], sampled[j]), threshold)
			}
		}

		sb.logger.Debugf("Semantic type beam, category: %s, threshold: %.4f, positives: %d, observed: %d",
			category, threshold, tally.positives, tally.observed)
	}

	return tally.score(), nil
}

func (sb *SemanticTypeBeam) Release() {
	sb.engine.Release()
	sb.index = nil
}

// difference returns the sorted elements of all that are not in exclude.
// Both inputs must be sorted.
func difference(all, exclude []string) []string {
	out := make([]string, 0, len(all))
	j := 0
	for _, s := range all {
		for j < len(exclude) && exclude[j] < s {
			j++
		}
		if j < len(exclude) && exclude[j] == s {
			continue
		}
		out = append(out, s)
	}
	return out
}

// RelationBeam tests each literal relation instance against a null threshold
// bootstrapped from concepts sharing the semantic types of its two ends. It
// backs the NDFRT, causality and association beams.
type RelationBeam struct {
	name       BenchmarkKind
	engine     *SimilarityEngine
	index      *CategoryIndex
	relations  []RelationDictionary
	params     beamParams
	thresholds map[string]memoThreshold
	logger     Logger
}

type memoThreshold struct {
	value float64
	ok    bool
}

// NewNDFRTBeam tests may-prevent then may-treat instances
func NewNDFRTBeam(emb Embedding, categories CategorySource, treatments TreatmentRelations, params Params, logger Logger) (*RelationBeam, error) {
	if treatments == nil {
		return nil, fmt.Errorf("%s: %w", BenchmarkNDFRTBeam, ErrMissingSource)
	}
	return newRelationBeam(BenchmarkNDFRTBeam, emb, categories,
		[]RelationDictionary{treatments.MayPrevent(), treatments.MayTreat()}, params, logger)
}

// NewCausalityBeam tests cause instances
func NewCausalityBeam(emb Embedding, categories CategorySource, causal CausalRelations, params Params, logger Logger) (*RelationBeam, error) {
	if causal == nil {
		return nil, fmt.Errorf("%s: %w", BenchmarkCausalityBeam, ErrMissingSource)
	}
	return newRelationBeam(BenchmarkCausalityBeam, emb, categories,
		[]RelationDictionary{causal.Causes()}, params, logger)
}

// NewAssociationBeam tests association instances
func NewAssociationBeam(emb Embedding, categories CategorySource, causal CausalRelations, params Params, logger Logger) (*RelationBeam, error) {
	if causal == nil {
		return nil, fmt.Errorf("%s: %w", BenchmarkAssociationBeam, ErrMissingSource)
	}
	return newRelationBeam(BenchmarkAssociationBeam, emb, categories,
		[]RelationDictionary{causal.Associations()}, params, logger)
}

func newRelationBeam(
	name BenchmarkKind,
	emb Embedding,
	categories CategorySource,
	relations []RelationDictionary,
	params Params,
	logger Logger,
) (*RelationBeam, error) {
	index, err := NewCategoryIndex(categories, emb)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return &RelationBeam{
		name:       name,
		engine:     NewSimilarityEngine(emb, logger, params.SimilarityCacheSize),
		index:      index,
		relations:  relations,
		params:     newBeamParams(params),
		thresholds: make(map[string]memoThreshold),
		logger:     loggerOrDiscard(logger),
	}, nil
}

func (rb *RelationBeam) Name() string { return string(rb.name) }

// Evaluate returns (lenient, strict). Instances with an end outside the
// vocabulary count against the strict ratio; instances whose ends have no
// semantic type or whose type pools are empty are skipped.
func (rb *RelationBeam) Evaluate() (Score, error) {
	var tally beamTally
	emb := rb.engine.Embedding()

	for _, relation := range rb.relations {
		for _, pair := range relation.Pairs() {
			if !emb.Contains(pair.Source) || !emb.Contains(pair.Target) {
				tally.dropped++
				continue
			}
			sourceTypes, ok := rb.index.CategoriesOf(pair.Source)
			if !ok {
				continue
			}
			targetTypes, ok := rb.index.CategoriesOf(pair.Target)
			if !ok {
				continue
			}

			threshold, ok := rb.Threshold(sourceTypes, targetTypes)
			if !ok {
				continue
			}
			tally.observe(pairCosine(rb.engine, pair.Source, pair.Target), threshold)
		}
	}

	rb.logger.Debugf("Relation beam finished, benchmark: %s, positives: %d, observed: %d, dropped: %d",
		rb.name, tally.positives, tally.observed, tally.dropped)

	return tally.score(), nil
}

// Threshold returns the bootstrap threshold between the concepts of two type
// sets, memoised per type combination
func (rb *RelationBeam) Threshold(typesA, typesB []string) (float64, bool) {
	key := strings.Join(typesA, "\x1f") + "\x1e" + strings.Join(typesB, "\x1f")
	if memo, ok := rb.thresholds[key]; ok {
		return memo.value, memo.ok
	}

	value, ok := bootstrapThreshold(rb.engine,
		rb.index.ConceptsOfCategories(typesA),
		rb.index.ConceptsOfCategories(typesB),
		rb.params.bootstrapCap, rb.params.seed, rb.params.alpha)
	rb.thresholds[key] = memoThreshold{value: value, ok: ok}
	return value, ok
}

func (rb *RelationBeam) Release() {
	rb.engine.Release()
	rb.index = nil
	rb.relations = nil
	rb.thresholds = nil
}
