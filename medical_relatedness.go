package embeddingbench

import (
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// MedicalRelatedness is the vector-offset relation test of Choi et al. For a
// seed pair (source, target) it checks, for every relation source v, whether
// the neighbours of v - (source - target) contain a concept v is related to.
type MedicalRelatedness struct {
	name     BenchmarkKind
	engine   *SimilarityEngine
	relation RelationDictionary
	vStar    []string

	depth   int
	sample  int
	seed    int64
	workers int
	logger  Logger
}

// NewMedicalRelatedness builds the benchmark for one treatment relation.
// kind must be BenchmarkMayTreat or BenchmarkMayPrevent.
func NewMedicalRelatedness(
	emb Embedding,
	relations TreatmentRelations,
	kind BenchmarkKind,
	params Params,
	logger Logger,
) (*MedicalRelatedness, error) {
	if relations == nil {
		return nil, fmt.Errorf("%s: %w", kind, ErrMissingSource)
	}

	var relation RelationDictionary
	switch kind {
	case BenchmarkMayTreat:
		relation = relations.MayTreat()
	case BenchmarkMayPrevent:
		relation = relations.MayPrevent()
	default:
		return nil, fmt.Errorf("%w: %s is not a treatment relation", ErrUnknownBenchmark, kind)
	}

	var vStar []string
	for _, source := range relation.Sources() {
		if emb.Contains(source) {
			vStar = append(vStar, source)
		}
	}

	workers := params.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	depth := params.NeighborDepth
	if depth <= 0 {
		depth = DefaultNeighborDepth
	}
	sample := params.SeedPairSample
	if sample <= 0 {
		sample = DefaultSeedPairSample
	}

	return &MedicalRelatedness{
		name:     kind,
		engine:   NewSimilarityEngine(emb, logger, params.SimilarityCacheSize),
		relation: relation,
		vStar:    vStar,
		depth:    depth,
		sample:   sample,
		seed:     params.Seed,
		workers:  workers,
		logger:   loggerOrDiscard(logger),
	}, nil
}

func (mr *MedicalRelatedness) Name() string { return string(mr.name) }

// Evaluate returns (mean, max) of the seed-pair scores over a reproducible
// sample of the relation's pairs
func (mr *MedicalRelatedness) Evaluate() (Score, error) {
	seeds := mr.SeedPairs()
	if len(seeds) == 0 {
		return Score{Kind: MeanMaxScore}, nil
	}

	scores := make([]float64, 0, len(seeds))
	for _, pair := range seeds {
		score, err := mr.SeedScore(pair)
		if err != nil {
			return Score{}, err
		}
		scores = append(scores, score)
		mr.logger.Debugf("Medical relatedness seed scored, relation: %s, source: %s, target: %s, score: %.5f",
			mr.name, pair.Source, pair.Target, score)
	}

	best := scores[0]
	for _, s := range scores[1:] {
		best = max(best, s)
	}
	return Score{Kind: MeanMaxScore, Primary: mean(scores), Secondary: best}, nil
}

// SeedPairs returns the sampled seed pairs; identical inputs and seed give
// identical pairs
func (mr *MedicalRelatedness) SeedPairs() []ConceptPair {
	return sampleN(mr.relation.Pairs(), mr.sample, mr.seed)
}

// SeedScore returns the fraction of V* whose offset neighbourhood contains a
// related concept
func (mr *MedicalRelatedness) SeedScore(pair ConceptPair) (float64, error) {
	if len(mr.vStar) == 0 {
		return 0, nil
	}

	source, _ := mr.engine.ConceptVector(pair.Source, false)
	target, _ := mr.engine.ConceptVector(pair.Target, false)
	offset := subtract(source, target)

	hits := make([]bool, len(mr.vStar))
	g := new(errgroup.Group)
	g.SetLimit(mr.workers)
	for i, v := range mr.vStar {
		g.Go(func() error {
			vector, _ := mr.engine.ConceptVector(v, false)
			for _, neighbor := range mr.engine.MostSimilar(subtract(vector, offset), mr.depth) {
				if mr.relation.Holds(v, neighbor.ID) {
					hits[i] = true
					break
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	positives := 0
	for _, hit := range hits {
		if hit {
			positives++
		}
	}
	return float64(positives) / float64(len(mr.vStar)), nil
}

func (mr *MedicalRelatedness) Release() {
	mr.engine.Release()
	mr.relation = nil
	mr.vStar = nil
}
