package embeddingbench

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// HumanAssessment compares embedding similarities against human judgments,
// either by Spearman rank correlation or by mean absolute error
type HumanAssessment struct {
	name    BenchmarkKind
	engine  *SimilarityEngine
	dataset HumanAssessmentDataset
	scoring string
	logger  Logger
}

// assessmentKinds maps each human benchmark to the dataset it reads
var assessmentKinds = map[BenchmarkKind]AssessmentKind{
	BenchmarkHumanRelatednessCont: RelatednessCont,
	BenchmarkHumanSimilarityCont:  SimilarityCont,
	BenchmarkHumanMayoSRS:         MayoSRS,
}

// NewHumanAssessment builds the benchmark; the dataset for kind must be present
func NewHumanAssessment(emb Embedding, assessments AssessmentSource, kind BenchmarkKind, params Params, logger Logger) (*HumanAssessment, error) {
	datasetKind, ok := assessmentKinds[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s is not a human assessment benchmark", ErrUnknownBenchmark, kind)
	}
	if assessments == nil {
		return nil, fmt.Errorf("%s: %w", kind, ErrMissingSource)
	}
	dataset, ok := assessments.Assessment(datasetKind)
	if !ok {
		return nil, fmt.Errorf("%s: %w: no %s dataset", kind, ErrMissingSource, datasetKind)
	}

	scoring := params.HumanScoring
	if scoring == "" {
		scoring = ScoringSpearman
	}

	return &HumanAssessment{
		name:    kind,
		engine:  NewSimilarityEngine(emb, logger, params.SimilarityCacheSize),
		dataset: dataset,
		scoring: scoring,
		logger:  loggerOrDiscard(logger),
	}, nil
}

func (ha *HumanAssessment) Name() string {
	if ha.scoring == ScoringMAE {
		return string(ha.name) + "_mae"
	}
	return string(ha.name)
}

// Evaluate returns (value, coverage) in the configured scoring mode
func (ha *HumanAssessment) Evaluate() (Score, error) {
	if ha.scoring == ScoringMAE {
		return ha.MeanAbsoluteError(), nil
	}
	return ha.Spearman(), nil
}

// MeanAbsoluteError averages |human - cos| over pairs resolved through the
// fallback vector
func (ha *HumanAssessment) MeanAbsoluteError() Score {
	var sigma float64
	total, found := 0, 0

	ha.eachPair(func(concept, other string, human float64) {
		total++
		v1, ok1 := ha.engine.ConceptVector(concept, false)
		v2, ok2 := ha.engine.ConceptVector(other, false)
		if !ok1 || !ok2 {
			return
		}
		sigma += math.Abs(human - ha.engine.Cosine(v1, v2, concept != other))
		found++
	})

	s := Score{Kind: ValueCoverageScore}
	if found > 0 {
		s.Primary = sigma / float64(found)
	}
	if total > 0 {
		s.Secondary = float64(found) / float64(total)
	}
	ha.logger.Debugf("Human assessment MAE, benchmark: %s, mae: %.4f, found: %d, total: %d",
		ha.name, s.Primary, found, total)
	return s
}

// Spearman correlates human scores with cosine similarities over pairs whose
// concepts are both in the vocabulary. Distinct concepts with similarity
// exactly 1 are left out of both sequences and of the coverage numerator.
func (ha *HumanAssessment) Spearman() Score {
	var humans, cosines []float64
	total := 0

	ha.eachPair(func(concept, other string, human float64) {
		total++
		v1, ok1 := ha.engine.ConceptVector(concept, true)
		v2, ok2 := ha.engine.ConceptVector(other, true)
		if !ok1 || !ok2 {
			return
		}
		cos := ha.engine.Cosine(v1, v2, false)
		if cos == 1 && concept != other {
			return
		}
		humans = append(humans, human)
		cosines = append(cosines, cos)
	})

	s := Score{Kind: ValueCoverageScore, Primary: spearman(humans, cosines)}
	if total > 0 {
		s.Secondary = float64(len(humans)) / float64(total)
	}
	ha.logger.Debugf("Human assessment Spearman, benchmark: %s, rho: %.4f, found: %d, total: %d",
		ha.name, s.Primary, len(humans), total)
	return s
}

// eachPair visits every judged pair in sorted order
func (ha *HumanAssessment) eachPair(visit func(concept, other string, human float64)) {
	concepts := make([]string, 0, len(ha.dataset))
	for concept := range ha.dataset {
		concepts = append(concepts, concept)
	}
	sort.Strings(concepts)

	for _, concept := range concepts {
		judged := ha.dataset[concept]
		others := make([]string, 0, len(judged))
		for other := range judged {
			others = append(others, other)
		}
		sort.Strings(others)
		for _, other := range others {
			visit(concept, other, judged[other])
		}
	}
}

func (ha *HumanAssessment) Release() {
	ha.engine.Release()
	ha.dataset = nil
}

// spearman returns the rank correlation of x and y with average ranks for
// ties. Undefined results (no pairs, constant input) yield 0.
func spearman(x, y []float64) float64 {
	if len(x) == 0 || len(x) != len(y) {
		return 0
	}
	rho := stat.Correlation(ranks(x), ranks(y), nil)
	if math.IsNaN(rho) || math.IsInf(rho, 0) {
		return 0
	}
	return rho
}

// ranks assigns 1-based ranks, averaging the ranks of tied values
func ranks(values []float64) []float64 {
	order := make([]int, len(values))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return values[order[a]] < values[order[b]] })

	out := make([]float64, len(values))
	for i := 0; i < len(order); {
		j := i
		for j+1 < len(order) && values[order[j+1]] == values[order[i]] {
			j++
		}
		avg := float64(i+j)/2 + 1
		for k := i; k <= j; k++ {
			out[order[k]] = avg
		}
		i = j + 1
	}
	return out
}
