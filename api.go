package embeddingbench

import (
	"context"
	"fmt"
	"io"
	"time"
)

// Embedding is a read-only vector space keyed by concept or word identifier
type Embedding interface {
	// GetVector retrieves the vector for a single identifier
	GetVector(id string) ([]float32, bool)

	// Contains reports whether the identifier is part of the vocabulary
	Contains(id string) bool

	// MostSimilar returns the topK vocabulary entries closest to the query vector,
	// ordered by descending cosine similarity. Ties keep vocabulary order.
	MostSimilar(query []float32, topK int) []Neighbor

	// MostSimilarTo is MostSimilar for a vocabulary entry, excluding the entry itself.
	// Returns false if the identifier is not in the vocabulary.
	MostSimilarTo(id string, topK int) ([]Neighbor, bool)

	// Similarity returns the signed cosine similarity of two vocabulary entries
	Similarity(id1, id2 string) (float64, bool)

	// Vocabulary returns all identifiers in insertion order
	Vocabulary() []string

	// VocabularySize returns total number of identifiers
	VocabularySize() int

	// Dimension returns the vector dimension
	Dimension() int

	// Labels returns the descriptive labels used in reports
	Labels() EmbeddingLabels
}

// EmbeddingLabels describes where an embedding came from
type EmbeddingLabels struct {
	Dataset       string `json:"dataset"        mapstructure:"dataset"`
	Algorithm     string `json:"algorithm"      mapstructure:"algorithm"`
	Preprocessing string `json:"preprocessing"  mapstructure:"preprocessing"`
}

func (l EmbeddingLabels) String() string {
	return fmt.Sprintf("%s|%s|%s", l.Dataset, l.Algorithm, l.Preprocessing)
}

// Neighbor is one nearest-neighbour hit
type Neighbor struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
}

// CategorySource exposes concept to semantic category assignments
type CategorySource interface {
	// ConceptCategories maps concept id to its category labels
	ConceptCategories() map[string][]string
}

// TreatmentRelations exposes drug/condition relations
type TreatmentRelations interface {
	MayTreat() RelationDictionary
	MayPrevent() RelationDictionary
}

// CausalRelations exposes causal and associative relations
type CausalRelations interface {
	Causes() RelationDictionary
	Associations() RelationDictionary
}

// AssessmentSource exposes human relatedness/similarity judgments
type AssessmentSource interface {
	Assessment(kind AssessmentKind) (HumanAssessmentDataset, bool)
}

// ConceptUniverse lists every concept the ontology knows about
type ConceptUniverse interface {
	ConceptIDs() []string
}

// Benchmark is one evaluation metric bound to one embedding
type Benchmark interface {
	// Name returns the benchmark name used in reports
	Name() string

	// Evaluate computes the benchmark score
	Evaluate() (Score, error)

	// Release drops memoised state derived from the embedding
	Release()
}

// ScoreKind tells how the two values of a Score are to be read
type ScoreKind int

const (
	// ScalarScore carries a single value in Primary
	ScalarScore ScoreKind = iota
	// MeanMaxScore carries (mean, max)
	MeanMaxScore
	// LenientStrictScore carries (lenient ratio, strict ratio)
	LenientStrictScore
	// ValueCoverageScore carries (value, coverage ratio)
	ValueCoverageScore
)

func (k ScoreKind) String() string {
	switch k {
	case MeanMaxScore:
		return "mean_max"
	case LenientStrictScore:
		return "lenient_strict"
	case ValueCoverageScore:
		return "value_coverage"
	default:
		return "scalar"
	}
}

// Score is the result of one benchmark evaluation
type Score struct {
	Kind      ScoreKind `json:"kind"`
	Primary   float64   `json:"primary"`
	Secondary float64   `json:"secondary"`
}

// Scalar builds a single-valued score
func Scalar(v float64) Score {
	return Score{Kind: ScalarScore, Primary: v}
}

// IsTuple reports whether Secondary carries a value
func (s Score) IsTuple() bool {
	return s.Kind != ScalarScore
}

func (s Score) String() string {
	if !s.IsTuple() {
		return fmt.Sprintf("%.4f", s.Primary)
	}
	return fmt.Sprintf("(%.4f, %.4f)", s.Primary, s.Secondary)
}

// Record is one appended output row for an (embedding, benchmark) pair
type Record struct {
	RunID            string          `json:"run_id"`
	Labels           EmbeddingLabels `json:"labels"`
	Benchmark        string          `json:"benchmark"`
	Score            Score           `json:"score"`
	Concepts         int             `json:"concepts"`          // ontology concepts present in the vocabulary
	Words            int             `json:"words"`             // vocabulary size
	ConceptCoverage  float64         `json:"concept_coverage"`  // Concepts / Words
	OntologyCoverage float64         `json:"ontology_coverage"` // Concepts / ontology size
	EvaluatedAt      time.Time       `json:"evaluated_at"`
}

// ResultSink persists records. Implementations must only append.
type ResultSink interface {
	Append(ctx context.Context, rec Record) error
	io.Closer
}

// Logger interface for configurable logging
type Logger interface {
	Debug(args ...any)
	Info(args ...any)
	Warn(args ...any)
	Error(args ...any)

	Debugf(template string, args ...any)
	Infof(template string, args ...any)
	Warnf(template string, args ...any)
	Errorf(template string, args ...any)
}

// EmbeddingLoader handles loading and parsing of pre-trained vector files
type EmbeddingLoader interface {
	// LoadFromFile loads vectors from .vec text format
	LoadFromFile(path string, labels EmbeddingLabels) (Embedding, error)

	// LoadFromReader loads vectors from any io.Reader
	LoadFromReader(reader io.Reader, labels EmbeddingLabels) (Embedding, error)

	// LoadMultipleFiles loads vectors from multiple .vec files and merges them into a single model.
	// All files must have the same vector dimension, otherwise ErrDimensionMismatch is returned.
	// If duplicate ids exist across files, later files overwrite earlier ones.
	LoadMultipleFiles(paths []string, labels EmbeddingLabels) (Embedding, error)

	// SetProgressCallback sets a callback for progress reporting during loading
	SetProgressCallback(callback ProgressCallback)
}

// ProgressCallback is called during vector loading to report progress
type ProgressCallback func(loaded, total int, memoryUsage int64)

// TermTokenizer splits ontology surface terms into vocabulary tokens
type TermTokenizer interface {
	// Tokenize splits one term into lower-cased tokens without stop words
	Tokenize(term string) []string

	// TokenizeBatch tokenizes several terms
	TokenizeBatch(terms []string) [][]string
}
