package embeddingbench

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Evaluation runs a batch of benchmarks over a list of embeddings and appends
// one Record per (embedding, benchmark) pair to a sink
type Evaluation struct {
	config    *Config
	ontology  *Ontology
	deps      Dependencies
	kinds     []BenchmarkKind
	loader    EmbeddingLoader
	tokenizer TermTokenizer
	sink      ResultSink
	logger    Logger
	runID     string
	now       func() time.Time
}

// NewEvaluation creates a runner over an already loaded ontology
func NewEvaluation(config *Config, ontology *Ontology, sink ResultSink, logger Logger) (*Evaluation, error) {
	if config == nil || ontology == nil || sink == nil {
		return nil, ErrInvalidConfiguration
	}
	if err := config.Params.Validate(); err != nil {
		return nil, err
	}

	logger = loggerOrDiscard(logger)
	deps := DependenciesFromOntology(ontology)

	// An explicit list fails at construction when a source is missing; the
	// default list only holds the kinds the ontology can feed
	var kinds []BenchmarkKind
	if len(config.Benchmarks) > 0 {
		kinds = make([]BenchmarkKind, 0, len(config.Benchmarks))
		for _, name := range config.Benchmarks {
			kind, err := ParseBenchmarkKind(name)
			if err != nil {
				return nil, err
			}
			if !deps.Supports(kind) {
				return nil, fmt.Errorf("%s: %w", kind, ErrMissingSource)
			}
			kinds = append(kinds, kind)
		}
	} else {
		for _, kind := range AllBenchmarkKinds {
			if !deps.Supports(kind) {
				logger.Warnf("Skipping benchmark without ontology source, benchmark: %s", kind)
				continue
			}
			kinds = append(kinds, kind)
		}
	}
	if len(kinds) == 0 {
		return nil, fmt.Errorf("%w: no benchmark can run on this ontology", ErrInvalidConfiguration)
	}

	tokenizer, err := NewTermTokenizerWithStopWords(config.StopWordsPath)
	if err != nil {
		logger.Errorf("Failed to load stop words, using defaults, path: %s, error: %v", config.StopWordsPath, err)
		tokenizer = NewTermTokenizer()
	}

	return &Evaluation{
		config:    config,
		ontology:  ontology,
		deps:      deps,
		kinds:     kinds,
		loader:    NewEmbeddingLoader(logger),
		tokenizer: tokenizer,
		sink:      sink,
		logger:    logger,
		runID:     uuid.NewString(),
		now:       time.Now,
	}, nil
}

// NewEvaluationFromConfig loads the ontology bundles named in config and
// creates the runner. This is the recommended way to set up a batch.
func NewEvaluationFromConfig(config *Config, sink ResultSink, logger Logger) (*Evaluation, error) {
	if config == nil {
		return nil, ErrInvalidConfiguration
	}
	logger = loggerOrDiscard(logger)

	ontology, err := LoadOntology(config.OntologyPaths...)
	if err != nil {
		return nil, fmt.Errorf("load ontology: %w", err)
	}
	logger.Infof("Ontology loaded, bundles: %d, categorised_concepts: %d, relations: %d, assessments: %d",
		len(config.OntologyPaths), len(ontology.Categories), len(ontology.Relations), len(ontology.Assessments))

	return NewEvaluation(config, ontology, sink, logger)
}

// RunID identifies the records of this batch
func (ev *Evaluation) RunID() string {
	return ev.runID
}

// Run loads each configured embedding in turn, evaluates it and lets it go
// before loading the next one
func (ev *Evaluation) Run(ctx context.Context) ([]Record, error) {
	if len(ev.config.Embeddings) == 0 {
		return nil, ErrNoEmbeddings
	}

	ev.logger.Infof("Evaluation started, run_id: %s, embeddings: %d, benchmarks: %d",
		ev.runID, len(ev.config.Embeddings), len(ev.kinds))

	var records []Record
	for _, spec := range ev.config.Embeddings {
		if err := ctx.Err(); err != nil {
			return records, err
		}

		emb, err := ev.loadEmbedding(spec)
		if err != nil {
			return records, fmt.Errorf("%s: %w", spec.Labels, err)
		}

		recs, err := ev.EvaluateEmbedding(ctx, emb)
		records = append(records, recs...)
		if err != nil {
			return records, err
		}
	}

	ev.logger.Infof("Evaluation finished, run_id: %s, records: %d", ev.runID, len(records))
	return records, nil
}

func (ev *Evaluation) loadEmbedding(spec EmbeddingSpec) (Embedding, error) {
	emb, err := ev.loader.LoadMultipleFiles(spec.Paths, spec.Labels)
	if err != nil {
		return nil, err
	}

	if spec.ComposeConcepts && len(ev.ontology.Terms) > 0 {
		if _, err := ComposeConceptVectors(emb, ev.ontology.Terms, ev.tokenizer, ev.logger); err != nil {
			return nil, err
		}
	}
	return emb, nil
}

// EvaluateEmbedding runs every selected benchmark on emb. Each record is
// appended to the sink as soon as it is produced, and each benchmark is
// released before the next one is built.
func (ev *Evaluation) EvaluateEmbedding(ctx context.Context, emb Embedding) ([]Record, error) {
	stats := ComputeCoverage(emb, ev.ontology)
	ev.logger.Infof("Embedding coverage, embedding: %s, concepts: %d, words: %d, "+
		"concept_coverage: %.4f, ontology_coverage: %.4f",
		emb.Labels(), stats.Concepts, stats.Words, stats.ConceptCoverage, stats.OntologyCoverage)

	records := make([]Record, 0, len(ev.kinds))
	for _, kind := range ev.kinds {
		if err := ctx.Err(); err != nil {
			return records, err
		}

		rec, err := ev.runBenchmark(kind, emb, stats)
		if err != nil {
			return records, err
		}
		if err := ev.sink.Append(ctx, rec); err != nil {
			return records, fmt.Errorf("append %s: %w", rec.Benchmark, err)
		}
		records = append(records, rec)
	}

	if tracker, ok := emb.(oovTracker); ok {
		ev.logger.Infof("Embedding lookups, embedding: %s, oov_rate: %.4f", emb.Labels(), tracker.OOVRate())
		tracker.ResetStats()
	}
	return records, nil
}

// oovTracker is implemented by embeddings that count lookup misses
type oovTracker interface {
	OOVRate() float64
	ResetStats()
}

func (ev *Evaluation) runBenchmark(kind BenchmarkKind, emb Embedding, stats CoverageStats) (Record, error) {
	benchmark, err := NewBenchmark(kind, emb, ev.deps, ev.config.Params, ev.logger)
	if err != nil {
		return Record{}, err
	}
	defer benchmark.Release()

	start := ev.now()
	score, err := benchmark.Evaluate()
	if err != nil {
		return Record{}, fmt.Errorf("%s: %w", benchmark.Name(), err)
	}

	ev.logger.Infof("Benchmark evaluated, embedding: %s, benchmark: %s, score: %s, elapsed: %s",
		emb.Labels(), benchmark.Name(), score, ev.now().Sub(start).Round(time.Millisecond))

	return Record{
		RunID:            ev.runID,
		Labels:           emb.Labels(),
		Benchmark:        benchmark.Name(),
		Score:            score,
		Concepts:         stats.Concepts,
		Words:            stats.Words,
		ConceptCoverage:  stats.ConceptCoverage,
		OntologyCoverage: stats.OntologyCoverage,
		EvaluatedAt:      ev.now().UTC(),
	}, nil
}

// CoverageStats describes how much of the ontology an embedding covers
type CoverageStats struct {
	Concepts         int     // ontology concepts in the vocabulary
	Words            int     // vocabulary size
	ConceptCoverage  float64 // Concepts / Words
	OntologyCoverage float64 // Concepts / ontology size
}

// ComputeCoverage intersects the ontology's concept ids with the vocabulary
func ComputeCoverage(emb Embedding, universe ConceptUniverse) CoverageStats {
	ids := universe.ConceptIDs()
	stats := CoverageStats{Words: emb.VocabularySize()}
	for _, id := range ids {
		if emb.Contains(id) {
			stats.Concepts++
		}
	}
	if stats.Words > 0 {
		stats.ConceptCoverage = float64(stats.Concepts) / float64(stats.Words)
	}
	if len(ids) > 0 {
		stats.OntologyCoverage = float64(stats.Concepts) / float64(len(ids))
	}
	return stats
}
