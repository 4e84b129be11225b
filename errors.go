package embeddingbench

import "errors"

// Error types for the embedding benchmark library
var (
	// ErrVectorFileNotFound indicates the vector file could not be found
	ErrVectorFileNotFound = errors.New("vector file not found")

	// ErrInvalidVectorFormat indicates the vector file format is invalid
	ErrInvalidVectorFormat = errors.New("invalid vector file format")

	// ErrDimensionMismatch indicates vector dimensions don't match expected values
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrEmptyInput indicates empty or invalid input was provided
	ErrEmptyInput = errors.New("empty input provided")

	// ErrInvalidConfiguration indicates configuration parameters are invalid
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrNoEmbeddings indicates no embeddings were specified in configuration
	ErrNoEmbeddings = errors.New("no embeddings specified")

	// ErrMissingSource indicates a benchmark was constructed without an ontology
	// source it structurally depends on
	ErrMissingSource = errors.New("missing ontology source")

	// ErrUnknownBenchmark indicates a benchmark name that is not registered
	ErrUnknownBenchmark = errors.New("unknown benchmark")

	// ErrInvalidOntology indicates an ontology bundle could not be parsed
	ErrInvalidOntology = errors.New("invalid ontology bundle")
)
