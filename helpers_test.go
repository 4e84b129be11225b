package embeddingbench

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

// mockLogger implements Logger interface for testing
type mockLogger struct {
	messages []string
}

func (ml *mockLogger) Debug(fields ...any) {
	ml.messages = append(ml.messages, "DEBUG: "+fmt.Sprint(fields...))
}

func (ml *mockLogger) Info(fields ...any) {
	ml.messages = append(ml.messages, "INFO: "+fmt.Sprint(fields...))
}

func (ml *mockLogger) Warn(fields ...any) {
	ml.messages = append(ml.messages, "WARN: "+fmt.Sprint(fields...))
}

func (ml *mockLogger) Error(fields ...any) {
	ml.messages = append(ml.messages, "ERROR: "+fmt.Sprint(fields...))
}

func (ml *mockLogger) Debugf(template string, args ...any) {
	ml.messages = append(ml.messages, "DEBUG: "+fmt.Sprintf(template, args...))
}

func (ml *mockLogger) Infof(template string, args ...any) {
	ml.messages = append(ml.messages, "INFO: "+fmt.Sprintf(template, args...))
}

func (ml *mockLogger) Warnf(template string, args ...any) {
	ml.messages = append(ml.messages, "WARN: "+fmt.Sprintf(template, args...))
}

func (ml *mockLogger) Errorf(template string, args ...any) {
	ml.messages = append(ml.messages, "ERROR: "+fmt.Sprintf(template, args...))
}

// categoryMap is a CategorySource backed by a literal map
type categoryMap map[string][]string

func (c categoryMap) ConceptCategories() map[string][]string { return c }

// vec is one row of a test embedding
type vec struct {
	id     string
	vector []float32
}

func newTestEmbedding(t *testing.T, rows ...vec) Embedding {
	t.Helper()
	ids := make([]string, len(rows))
	vectors := make([][]float32, len(rows))
	for i, row := range rows {
		ids[i] = row.id
		vectors[i] = row.vector
	}
	emb, err := NewEmbeddingFromVectors(EmbeddingLabels{Dataset: "test", Algorithm: "fixture", Preprocessing: "none"}, ids, vectors)
	require.NoError(t, err)
	return emb
}

// tableEmbedding serves similarities from a lookup table so that exact
// cosine values can be stated in tests. It carries no real vectors.
type tableEmbedding struct {
	ids  []string
	sims map[conceptPair]float64
}

var _ Embedding = (*tableEmbedding)(nil)

func newTableEmbedding(sims map[[2]string]float64) *tableEmbedding {
	te := &tableEmbedding{sims: make(map[conceptPair]float64)}
	seen := make(map[string]bool)
	for pair, sim := range sims {
		te.sims[conceptPair{pair[0], pair[1]}] = sim
		te.sims[conceptPair{pair[1], pair[0]}] = sim
		for _, id := range pair {
			if !seen[id] {
				seen[id] = true
				te.ids = append(te.ids, id)
			}
		}
	}
	return te
}

func (te *tableEmbedding) GetVector(id string) ([]float32, bool) {
	if !te.Contains(id) {
		return nil, false
	}
	return []float32{1}, true
}

func (te *tableEmbedding) Contains(id string) bool {
	for _, known := range te.ids {
		if known == id {
			return true
		}
	}
	return false
}

func (*tableEmbedding) MostSimilar([]float32, int) []Neighbor { return nil }

func (*tableEmbedding) MostSimilarTo(string, int) ([]Neighbor, bool) { return nil, false }

func (te *tableEmbedding) Similarity(id1, id2 string) (float64, bool) {
	sim, ok := te.sims[conceptPair{id1, id2}]
	return sim, ok
}

func (te *tableEmbedding) Vocabulary() []string { return te.ids }

func (te *tableEmbedding) VocabularySize() int { return len(te.ids) }

func (*tableEmbedding) Dimension() int { return 1 }

func (*tableEmbedding) Labels() EmbeddingLabels { return EmbeddingLabels{Dataset: "table"} }
