package embeddingbench

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assessmentFixture(t *testing.T, dataset HumanAssessmentDataset) (Embedding, *Ontology) {
	t.Helper()
	emb := newTestEmbedding(t,
		vec{"a", []float32{1, 0}},
		vec{"b", []float32{1, 0}},
		vec{"c", []float32{0.6, 0.8}},
		vec{"d", []float32{0, 1}},
	)
	o := NewOntology()
	o.Assessments[RelatednessCont] = dataset
	return emb, o
}

func TestHumanAssessment_Spearman(t *testing.T) {
	emb, o := assessmentFixture(t, HumanAssessmentDataset{
		"a": {"b": 0.9, "c": 0.5, "d": 0.1, "zz": 0.3},
		"c": {"d": 0.7},
	})

	ha, err := NewHumanAssessment(emb, o, BenchmarkHumanRelatednessCont, DefaultParams(), nil)
	require.NoError(t, err)
	assert.Equal(t, "human_relatedness_cont", ha.Name())

	// (a, b) has cosine 1 and is left out; (a, zz) is out of vocabulary.
	// The remaining three pairs are ordered the same way by humans and cosines.
	score, err := ha.Evaluate()
	require.NoError(t, err)
	assert.Equal(t, ValueCoverageScore, score.Kind)
	assert.InDelta(t, 1.0, score.Primary, 1e-9)
	assert.InDelta(t, 0.6, score.Secondary, 1e-9)

	ha.Release()
}

func TestHumanAssessment_MeanAbsoluteError(t *testing.T) {
	emb, o := assessmentFixture(t, HumanAssessmentDataset{
		"a": {"c": 0.5},
	})

	params := DefaultParams()
	params.HumanScoring = ScoringMAE

	ha, err := NewHumanAssessment(emb, o, BenchmarkHumanRelatednessCont, params, nil)
	require.NoError(t, err)
	assert.Equal(t, "human_relatedness_cont_mae", ha.Name())

	score, err := ha.Evaluate()
	require.NoError(t, err)
	assert.InDelta(t, 0.1, score.Primary, 1e-6)
	assert.Equal(t, 1.0, score.Secondary)
}

func TestHumanAssessment_MeanAbsoluteErrorFallback(t *testing.T) {
	emb, o := assessmentFixture(t, HumanAssessmentDataset{
		"a": {"zz": 0.3, "b": 0.2},
	})

	ha, err := NewHumanAssessment(emb, o, BenchmarkHumanRelatednessCont, Params{HumanScoring: ScoringMAE}, nil)
	require.NoError(t, err)

	// zz resolves through the fallback vector, so every pair is found.
	// (a, b) has identical vectors and is zeroed: |0.2 - 0| = 0.2.
	fallback := []float32{0.65, 0.45}
	want := (0.2 + absDiff(0.3, Cosine([]float32{1, 0}, fallback, false))) / 2

	score := ha.MeanAbsoluteError()
	assert.InDelta(t, want, score.Primary, 1e-6)
	assert.Equal(t, 1.0, score.Secondary)
}

func absDiff(a, b float64) float64 {
	if a > b {
		return a - b
	}
	return b - a
}

func TestHumanAssessment_MissingDataset(t *testing.T) {
	emb, o := assessmentFixture(t, HumanAssessmentDataset{"a": {"b": 1}})

	_, err := NewHumanAssessment(emb, o, BenchmarkHumanMayoSRS, DefaultParams(), nil)
	require.ErrorIs(t, err, ErrMissingSource)

	_, err = NewHumanAssessment(emb, nil, BenchmarkHumanRelatednessCont, DefaultParams(), nil)
	require.ErrorIs(t, err, ErrMissingSource)

	_, err = NewHumanAssessment(emb, o, BenchmarkMayTreat, DefaultParams(), nil)
	require.ErrorIs(t, err, ErrUnknownBenchmark)
}

func TestRanks(t *testing.T) {
	assert.Equal(t, []float64{1, 2.5, 2.5, 4}, ranks([]float64{10, 20, 20, 30}))
	assert.Equal(t, []float64{3, 1, 2}, ranks([]float64{0.9, 0.1, 0.5}))
	assert.Empty(t, ranks(nil))
}

func TestSpearman(t *testing.T) {
	assert.InDelta(t, 1.0, spearman([]float64{1, 2, 3}, []float64{10, 20, 30}), 1e-9)
	assert.InDelta(t, -1.0, spearman([]float64{1, 2, 3}, []float64{3, 2, 1}), 1e-9)

	// Undefined correlations are reported as 0
	assert.Equal(t, 0.0, spearman(nil, nil))
	assert.Equal(t, 0.0, spearman([]float64{1, 1, 1}, []float64{1, 2, 3}))
	assert.Equal(t, 0.0, spearman([]float64{1}, []float64{1, 2}))
}
