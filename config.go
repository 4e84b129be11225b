package embeddingbench

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

const (
	DefaultNeighborDepth      = 40
	DefaultSeed               = 42
	DefaultSeedPairSample     = 100
	DefaultBootstrapSampleCap = 10000
	DefaultObservedSampleCap  = 2000
	DefaultSignificanceLevel  = 0.05

	// EnvPrefix prefixes environment variables that override configuration keys,
	// e.g. EMBEDDING_BENCH_PARAMS_SEED
	EnvPrefix = "EMBEDDING_BENCH"

	configKey = "embedding_bench"
)

// Human assessment scoring modes
const (
	ScoringSpearman = "spearman"
	ScoringMAE      = "mae"
)

// DefaultProbeCategories are the semantic categories probed by the
// conceptual similarity and semantic type beam benchmarks
var DefaultProbeCategories = []string{
	"Pharmacologic Substance",
	"Disease or Syndrome",
	"Neoplastic Process",
	"Clinical Drug",
	"Finding",
	"Injury or Poisoning",
}

// Params holds the numeric parameters shared by the benchmarks
type Params struct {
	NeighborDepth       int      `mapstructure:"neighbor_depth"`
	ProbeCategories     []string `mapstructure:"probe_categories"`
	Seed                int64    `mapstructure:"seed"`
	SeedPairSample      int      `mapstructure:"seed_pair_sample"`
	BootstrapSampleCap  int      `mapstructure:"bootstrap_sample_cap"`
	ObservedSampleCap   int      `mapstructure:"observed_sample_cap"`
	SignificanceLevel   float64  `mapstructure:"significance_level"`
	Workers             int      `mapstructure:"workers"` // 0 uses every CPU
	SimilarityCacheSize int      `mapstructure:"similarity_cache_size"`
	HumanScoring        string   `mapstructure:"human_scoring"` // "spearman" or "mae"
}

// DefaultParams returns the parameters used for published results
func DefaultParams() Params {
	return Params{
		NeighborDepth:       DefaultNeighborDepth,
		ProbeCategories:     append([]string(nil), DefaultProbeCategories...),
		Seed:                DefaultSeed,
		SeedPairSample:      DefaultSeedPairSample,
		BootstrapSampleCap:  DefaultBootstrapSampleCap,
		ObservedSampleCap:   DefaultObservedSampleCap,
		SignificanceLevel:   DefaultSignificanceLevel,
		SimilarityCacheSize: DefaultSimilarityCacheSize,
		HumanScoring:        ScoringSpearman,
	}
}

// Validate checks the parameter ranges
func (p Params) Validate() error {
	switch {
	case p.NeighborDepth <= 0:
		return fmt.Errorf("%w: neighbor_depth must be positive", ErrInvalidConfiguration)
	case p.SeedPairSample <= 0:
		return fmt.Errorf("%w: seed_pair_sample must be positive", ErrInvalidConfiguration)
	case p.BootstrapSampleCap <= 0 || p.ObservedSampleCap <= 0:
		return fmt.Errorf("%w: sample caps must be positive", ErrInvalidConfiguration)
	case p.SignificanceLevel <= 0 || p.SignificanceLevel >= 1:
		return fmt.Errorf("%w: significance_level must be in (0, 1)", ErrInvalidConfiguration)
	case p.Workers < 0:
		return fmt.Errorf("%w: workers must not be negative", ErrInvalidConfiguration)
	case p.HumanScoring != ScoringSpearman && p.HumanScoring != ScoringMAE:
		return fmt.Errorf("%w: human_scoring must be %q or %q",
			ErrInvalidConfiguration, ScoringSpearman, ScoringMAE)
	}
	return nil
}

// EmbeddingSpec names one embedding to evaluate
type EmbeddingSpec struct {
	// Paths lists one or more .vec files merged into a single embedding
	Paths  []string        `mapstructure:"paths"`
	Labels EmbeddingLabels `mapstructure:"labels"`
	// ComposeConcepts adds vectors for ontology concepts composed from their
	// surface terms before benchmarking
	ComposeConcepts bool `mapstructure:"compose_concepts"`
}

// OutputConfig selects where records go
type OutputConfig struct {
	CSVPath     string `mapstructure:"csv_path"`
	TablePath   string `mapstructure:"table_path"`
	PostgresDSN string `mapstructure:"postgres_dsn"`
}

// Config holds configuration for one evaluation batch
type Config struct {
	Embeddings    []EmbeddingSpec `mapstructure:"embeddings"`
	OntologyPaths []string        `mapstructure:"ontology_paths"`
	// StopWordsPath extends the stop words used when composing concept vectors
	StopWordsPath string `mapstructure:"stop_words_path"`
	// Benchmarks lists benchmark kinds to run; empty runs every kind
	Benchmarks    []string     `mapstructure:"benchmarks"`
	Params        Params       `mapstructure:"params"`
	Output        OutputConfig `mapstructure:"output"`
	LogConfigPath string       `mapstructure:"log_config_path"`
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Embeddings:    []EmbeddingSpec{},
		OntologyPaths: []string{},
		Params:        DefaultParams(),
		Output:        OutputConfig{CSVPath: "benchmark_results.csv"},
	}
}

// envOverridable lists the keys below embedding_bench that environment
// variables may override, e.g. EMBEDDING_BENCH_PARAMS_SEED
var envOverridable = []string{
	"params.seed",
	"params.workers",
	"params.human_scoring",
	"params.similarity_cache_size",
	"output.csv_path",
	"output.table_path",
	"output.postgres_dsn",
	"log_config_path",
}

// LoadFromYAML loads configuration from a YAML file
func LoadFromYAML(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	for _, key := range envOverridable {
		envName := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(configKey+"."+key, envName); err != nil {
			return nil, err
		}
	}

	// Read the config file
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	// Unmarshal over the full settings tree so bound environment values are merged in
	root := struct {
		Bench *Config `mapstructure:"embedding_bench"`
	}{Bench: DefaultConfig()}
	if err := v.Unmarshal(&root); err != nil {
		return nil, err
	}

	// Validate the loaded configuration
	if err := Validate(root.Bench); err != nil {
		return nil, err
	}

	return root.Bench, nil
}

// Validate checks if the configuration is valid
func Validate(config *Config) error {
	if config == nil {
		return ErrInvalidConfiguration
	}

	if len(config.Embeddings) == 0 {
		return ErrNoEmbeddings
	}

	for i, spec := range config.Embeddings {
		if len(spec.Paths) == 0 {
			return fmt.Errorf("%w: embedding %d has no paths", ErrInvalidConfiguration, i)
		}
		for _, path := range spec.Paths {
			if path == "" {
				return fmt.Errorf("%w: embedding %d has an empty path", ErrInvalidConfiguration, i)
			}
			if _, err := os.Stat(path); err != nil {
				if os.IsNotExist(err) {
					return fmt.Errorf("%w: %s", ErrVectorFileNotFound, path)
				}
				return err
			}
		}
	}

	if len(config.OntologyPaths) == 0 {
		return fmt.Errorf("%w: no ontology bundles", ErrInvalidConfiguration)
	}

	for _, name := range config.Benchmarks {
		if _, err := ParseBenchmarkKind(name); err != nil {
			return err
		}
	}

	return config.Params.Validate()
}
