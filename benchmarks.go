package embeddingbench

import "fmt"

// BenchmarkKind names one benchmark of the closed set below
type BenchmarkKind string

const (
	BenchmarkCategorySeparation   BenchmarkKind = "category_separation"
	BenchmarkSilhouetteBest       BenchmarkKind = "silhouette_best"
	BenchmarkSilhouetteAverage    BenchmarkKind = "silhouette_average"
	BenchmarkConceptualSimilarity BenchmarkKind = "conceptual_similarity"
	BenchmarkMayTreat             BenchmarkKind = "mrm_may_treat"
	BenchmarkMayPrevent           BenchmarkKind = "mrm_may_prevent"
	BenchmarkSemanticTypeBeam     BenchmarkKind = "semantic_type_beam"
	BenchmarkNDFRTBeam            BenchmarkKind = "ndfrt_beam"
	BenchmarkCausalityBeam        BenchmarkKind = "causality_beam"
	BenchmarkAssociationBeam      BenchmarkKind = "association_beam"
	BenchmarkHumanRelatednessCont BenchmarkKind = "human_relatedness_cont"
	BenchmarkHumanSimilarityCont  BenchmarkKind = "human_similarity_cont"
	BenchmarkHumanMayoSRS         BenchmarkKind = "human_mayo_srs"
)

// AllBenchmarkKinds lists every benchmark in report order
var AllBenchmarkKinds = []BenchmarkKind{
	BenchmarkCategorySeparation,
	BenchmarkSilhouetteBest,
	BenchmarkSilhouetteAverage,
	BenchmarkConceptualSimilarity,
	BenchmarkMayTreat,
	BenchmarkMayPrevent,
	BenchmarkSemanticTypeBeam,
	BenchmarkNDFRTBeam,
	BenchmarkCausalityBeam,
	BenchmarkAssociationBeam,
	BenchmarkHumanRelatednessCont,
	BenchmarkHumanSimilarityCont,
	BenchmarkHumanMayoSRS,
}

// ParseBenchmarkKind validates a benchmark name
func ParseBenchmarkKind(name string) (BenchmarkKind, error) {
	for _, kind := range AllBenchmarkKinds {
		if string(kind) == name {
			return kind, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownBenchmark, name)
}

// Dependencies are the ontology sources a benchmark may need. A nil field is
// an absent source; benchmarks that require it fail at construction.
type Dependencies struct {
	Categories  CategorySource
	Treatments  TreatmentRelations
	Causal      CausalRelations
	Assessments AssessmentSource
}

// DependenciesFromOntology exposes only the sources the ontology actually carries
func DependenciesFromOntology(o *Ontology) Dependencies {
	var deps Dependencies
	if o == nil {
		return deps
	}
	if len(o.Categories) > 0 {
		deps.Categories = o
	}
	if o.HasTreatmentRelations() {
		deps.Treatments = o
	}
	if o.HasCausalRelations() {
		deps.Causal = o
	}
	if len(o.Assessments) > 0 {
		deps.Assessments = o
	}
	return deps
}

// Supports reports whether every source the benchmark kind needs is present
func (d Dependencies) Supports(kind BenchmarkKind) bool {
	switch kind {
	case BenchmarkCategorySeparation, BenchmarkSilhouetteBest, BenchmarkSilhouetteAverage,
		BenchmarkConceptualSimilarity, BenchmarkSemanticTypeBeam:
		return d.Categories != nil
	case BenchmarkMayTreat, BenchmarkMayPrevent:
		return d.Treatments != nil
	case BenchmarkNDFRTBeam:
		return d.Categories != nil && d.Treatments != nil
	case BenchmarkCausalityBeam, BenchmarkAssociationBeam:
		return d.Categories != nil && d.Causal != nil
	case BenchmarkHumanRelatednessCont, BenchmarkHumanSimilarityCont, BenchmarkHumanMayoSRS:
		if d.Assessments == nil {
			return false
		}
		_, ok := d.Assessments.Assessment(assessmentKinds[kind])
		return ok
	default:
		return false
	}
}

// NewBenchmark constructs the benchmark of the given kind over emb
//
//nolint:cyclop
func NewBenchmark(kind BenchmarkKind, emb Embedding, deps Dependencies, params Params, logger Logger) (Benchmark, error) {
	if emb == nil {
		return nil, fmt.Errorf("%s: %w", kind, ErrEmptyInput)
	}

	switch kind {
	case BenchmarkCategorySeparation:
		return NewCategorySeparation(emb, deps.Categories, params, logger)
	case BenchmarkSilhouetteBest:
		return NewSilhouette(emb, deps.Categories, SilhouetteBestCase, params, logger)
	case BenchmarkSilhouetteAverage:
		return NewSilhouette(emb, deps.Categories, SilhouetteAverageCase, params, logger)
	case BenchmarkConceptualSimilarity:
		return NewConceptualSimilarity(emb, deps.Categories, params, logger)
	case BenchmarkMayTreat, BenchmarkMayPrevent:
		return NewMedicalRelatedness(emb, deps.Treatments, kind, params, logger)
	case BenchmarkSemanticTypeBeam:
		return NewSemanticTypeBeam(emb, deps.Categories, params, logger)
	case BenchmarkNDFRTBeam:
		return NewNDFRTBeam(emb, deps.Categories, deps.Treatments, params, logger)
	case BenchmarkCausalityBeam:
		return NewCausalityBeam(emb, deps.Categories, deps.Causal, params, logger)
	case BenchmarkAssociationBeam:
		return NewAssociationBeam(emb, deps.Categories, deps.Causal, params, logger)
	case BenchmarkHumanRelatednessCont, BenchmarkHumanSimilarityCont, BenchmarkHumanMayoSRS:
		return NewHumanAssessment(emb, deps.Assessments, kind, params, logger)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBenchmark, kind)
	}
}
