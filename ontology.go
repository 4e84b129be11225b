package embeddingbench

import (
	"fmt"
	"os"
	"slices"
	"sort"

	"gopkg.in/yaml.v3"
)

// AssessmentKind names a human-judgment dataset
type AssessmentKind string

const (
	RelatednessCont AssessmentKind = "relatedness_cont"
	SimilarityCont  AssessmentKind = "similarity_cont"
	MayoSRS         AssessmentKind = "mayo_srs"
)

// RelationDictionary maps a source concept to the concepts it is related to
type RelationDictionary map[string][]string

// ConceptPair is one (source, target) relation instance
type ConceptPair struct {
	Source string
	Target string
}

// Holds reports whether source is related to target
func (rd RelationDictionary) Holds(source, target string) bool {
	return slices.Contains(rd[source], target)
}

// Sources returns the sorted relation sources
func (rd RelationDictionary) Sources() []string {
	sources := make([]string, 0, len(rd))
	for source := range rd {
		sources = append(sources, source)
	}
	sort.Strings(sources)
	return sources
}

// Pairs returns every relation instance sorted by source then target, without duplicates
func (rd RelationDictionary) Pairs() []ConceptPair {
	var pairs []ConceptPair
	for _, source := range rd.Sources() {
		targets := slices.Clone(rd[source])
		sort.Strings(targets)
		for _, target := range slices.Compact(targets) {
			pairs = append(pairs, ConceptPair{Source: source, Target: target})
		}
	}
	return pairs
}

// Inverse returns the target -> sources dictionary
func (rd RelationDictionary) Inverse() RelationDictionary {
	inverse := make(RelationDictionary)
	for _, pair := range rd.Pairs() {
		inverse[pair.Target] = append(inverse[pair.Target], pair.Source)
	}
	return inverse
}

// HumanAssessmentDataset maps concept -> other concept -> human score.
// A pair may appear in one direction only.
type HumanAssessmentDataset map[string]map[string]float64

// PairCount returns the number of judged pairs
func (hd HumanAssessmentDataset) PairCount() int {
	n := 0
	for _, others := range hd {
		n += len(others)
	}
	return n
}

// Ontology is an in-memory bundle of every ontology source the benchmarks
// consume. It implements CategorySource, TreatmentRelations, CausalRelations,
// AssessmentSource and ConceptUniverse.
type Ontology struct {
	Categories  map[string][]string                       `yaml:"categories"`
	Relations   map[string]RelationDictionary             `yaml:"relations"`
	Assessments map[AssessmentKind]HumanAssessmentDataset `yaml:"assessments"`
	// Terms maps a concept to its surface terms, used to compose vectors for
	// concepts the embedding does not contain
	Terms map[string][]string `yaml:"terms"`
}

// Relation names used in ontology bundles
const (
	RelationMayTreat    = "may_treat"
	RelationMayPrevent  = "may_prevent"
	RelationCause       = "cause"
	RelationAssociation = "association"
)

var (
	_ CategorySource     = (*Ontology)(nil)
	_ TreatmentRelations = (*Ontology)(nil)
	_ CausalRelations    = (*Ontology)(nil)
	_ AssessmentSource   = (*Ontology)(nil)
	_ ConceptUniverse    = (*Ontology)(nil)
)

// NewOntology returns an empty bundle
func NewOntology() *Ontology {
	return &Ontology{
		Categories:  make(map[string][]string),
		Relations:   make(map[string]RelationDictionary),
		Assessments: make(map[AssessmentKind]HumanAssessmentDataset),
		Terms:       make(map[string][]string),
	}
}

// LoadOntology reads and merges one or more YAML ontology bundles.
// Later files extend earlier ones.
func LoadOntology(paths ...string) (*Ontology, error) {
	if len(paths) == 0 {
		return nil, ErrEmptyInput
	}

	merged := NewOntology()
	for _, path := range paths {
		data, err := os.ReadFile(path) //nolint:gosec
		if err != nil {
			return nil, fmt.Errorf("read ontology bundle: %w", err)
		}
		bundle, err := ParseOntology(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		merged.Merge(bundle)
	}
	return merged, nil
}

// ParseOntology decodes one YAML ontology bundle
func ParseOntology(data []byte) (*Ontology, error) {
	o := NewOntology()
	if err := yaml.Unmarshal(data, o); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOntology, err)
	}
	for kind := range o.Assessments {
		switch kind {
		case RelatednessCont, SimilarityCont, MayoSRS:
		default:
			return nil, fmt.Errorf("%w: unknown assessment kind %q", ErrInvalidOntology, kind)
		}
	}
	return o, nil
}

// Merge adds every entry of other to o, de-duplicating list values
func (o *Ontology) Merge(other *Ontology) {
	mergeLists(o.Categories, other.Categories)
	mergeLists(o.Terms, other.Terms)
	for name, rel := range other.Relations {
		if o.Relations[name] == nil {
			o.Relations[name] = make(RelationDictionary)
		}
		mergeLists(o.Relations[name], rel)
	}
	for kind, dataset := range other.Assessments {
		if o.Assessments[kind] == nil {
			o.Assessments[kind] = make(HumanAssessmentDataset)
		}
		for concept, others := range dataset {
			if o.Assessments[kind][concept] == nil {
				o.Assessments[kind][concept] = make(map[string]float64)
			}
			for other, score := range others {
				o.Assessments[kind][concept][other] = score
			}
		}
	}
}

func mergeLists[M ~map[string][]string](dst, src M) {
	for key, values := range src {
		for _, v := range values {
			if !slices.Contains(dst[key], v) {
				dst[key] = append(dst[key], v)
			}
		}
	}
}

// ConceptCategories implements CategorySource
func (o *Ontology) ConceptCategories() map[string][]string {
	return o.Categories
}

// MayTreat implements TreatmentRelations
func (o *Ontology) MayTreat() RelationDictionary {
	return o.Relations[RelationMayTreat]
}

// MayPrevent implements TreatmentRelations
func (o *Ontology) MayPrevent() RelationDictionary {
	return o.Relations[RelationMayPrevent]
}

// Causes implements CausalRelations
func (o *Ontology) Causes() RelationDictionary {
	return o.Relations[RelationCause]
}

// Associations implements CausalRelations
func (o *Ontology) Associations() RelationDictionary {
	return o.Relations[RelationAssociation]
}

// Assessment implements AssessmentSource
func (o *Ontology) Assessment(kind AssessmentKind) (HumanAssessmentDataset, bool) {
	dataset, ok := o.Assessments[kind]
	return dataset, ok && len(dataset) > 0
}

// ConceptIDs returns every concept that has a category or a surface term, sorted
func (o *Ontology) ConceptIDs() []string {
	seen := make(map[string]struct{}, len(o.Categories)+len(o.Terms))
	for id := range o.Categories {
		seen[id] = struct{}{}
	}
	for id := range o.Terms {
		seen[id] = struct{}{}
	}

	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// HasTreatmentRelations reports whether either treatment relation is present
func (o *Ontology) HasTreatmentRelations() bool {
	return len(o.MayTreat()) > 0 || len(o.MayPrevent()) > 0
}

// HasCausalRelations reports whether either causal relation is present
func (o *Ontology) HasCausalRelations() bool {
	return len(o.Causes()) > 0 || len(o.Associations()) > 0
}
