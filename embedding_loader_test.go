package embeddingbench

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
)

var testLabels = EmbeddingLabels{Dataset: "PubMed", Algorithm: "word2vec", Preprocessing: "raw"}

func TestNewEmbeddingLoader(t *testing.T) {
	logger := &mockLogger{}
	loader := NewEmbeddingLoader(logger)

	if loader == nil {
		t.Error("Expected non-nil EmbeddingLoader")
	}
}

func TestEmbeddingLoader_LoadFromReader_ValidFormat(t *testing.T) {
	logger := &mockLogger{}
	loader := NewEmbeddingLoader(logger)

	vecContent := `3 2
C0000001 0.1 0.2
C0000002 0.3 0.4
aspirin 0.5 0.6`

	model, err := loader.LoadFromReader(strings.NewReader(vecContent), testLabels)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if model.Dimension() != 2 {
		t.Errorf("Expected dimension 2, got %d", model.Dimension())
	}

	if model.VocabularySize() != 3 {
		t.Errorf("Expected vocabulary size 3, got %d", model.VocabularySize())
	}

	if model.Labels() != testLabels {
		t.Errorf("Expected labels %v, got %v", testLabels, model.Labels())
	}

	vector1, exists := model.GetVector("C0000001")
	if !exists {
		t.Error("Expected C0000001 to exist")
	}
	if len(vector1) != 2 || vector1[0] != 0.1 || vector1[1] != 0.2 {
		t.Errorf("Expected C0000001 vector [0.1, 0.2], got %v", vector1)
	}

	// Vocabulary keeps file order
	vocab := model.Vocabulary()
	if vocab[0] != "C0000001" || vocab[2] != "aspirin" {
		t.Errorf("Expected file order, got %v", vocab)
	}
}

func TestEmbeddingLoader_LoadFromReader_InvalidFirstLine(t *testing.T) {
	logger := &mockLogger{}
	loader := NewEmbeddingLoader(logger)

	testCases := []struct {
		name    string
		content string
	}{
		{"empty file", ""},
		{"missing dimension", "100"},
		{"invalid word count", "abc 100"},
		{"invalid dimension", "100 abc"},
		{"negative word count", "-1 100"},
		{"zero dimension", "100 0"},
		{"extra fields", "100 200 300"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			model, err := loader.LoadFromReader(strings.NewReader(tc.content), testLabels)

			if !errors.Is(err, ErrInvalidVectorFormat) {
				t.Errorf("Expected ErrInvalidVectorFormat for %s, got %v", tc.name, err)
			}

			if model != nil {
				t.Errorf("Expected nil model for %s, got non-nil", tc.name)
			}
		})
	}
}

func TestEmbeddingLoader_LoadFromReader_InvalidVectorLines(t *testing.T) {
	logger := &mockLogger{}
	loader := NewEmbeddingLoader(logger)

	// Content with some invalid lines that should be skipped
	vecContent := `3 2
word1 0.1 0.2
invalid_line_missing_values 0.3
word2 0.4 abc
word3 0.5 0.6`

	model, err := loader.LoadFromReader(strings.NewReader(vecContent), testLabels)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if model.VocabularySize() != 2 {
		t.Errorf("Expected vocabulary size 2, got %d", model.VocabularySize())
	}

	if _, exists := model.GetVector("word2"); exists {
		t.Error("Expected word2 to not exist due to invalid float")
	}

	warnings := 0
	for _, msg := range logger.messages {
		if strings.HasPrefix(msg, "WARN: Skipping") {
			warnings++
		}
	}
	if warnings != 2 {
		t.Errorf("Expected 2 skip warnings, got %d: %v", warnings, logger.messages)
	}
}

func TestEmbeddingLoader_LoadFromReader_EmptyLines(t *testing.T) {
	logger := &mockLogger{}
	loader := NewEmbeddingLoader(logger)

	vecContent := `2 2
word1 0.1 0.2

word2 0.3 0.4

`

	model, err := loader.LoadFromReader(strings.NewReader(vecContent), testLabels)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if model.VocabularySize() != 2 {
		t.Errorf("Expected vocabulary size 2, got %d", model.VocabularySize())
	}
}

func TestEmbeddingLoader_LoadFromFile_FileNotFound(t *testing.T) {
	logger := &mockLogger{}
	loader := NewEmbeddingLoader(logger)

	model, err := loader.LoadFromFile("nonexistent_file.vec", testLabels)

	if !errors.Is(err, ErrVectorFileNotFound) {
		t.Errorf("Expected ErrVectorFileNotFound, got: %v", err)
	}

	if model != nil {
		t.Error("Expected nil model for nonexistent file")
	}
}

func TestEmbeddingLoader_LoadFromFile_ValidFile(t *testing.T) {
	logger := &mockLogger{}
	loader := NewEmbeddingLoader(logger)

	path := writeTestFile(t, t.TempDir(), "test_vectors.vec", `2 3
hello 0.1 0.2 0.3
world 0.4 0.5 0.6`)

	model, err := loader.LoadFromFile(path, testLabels)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if model.Dimension() != 3 {
		t.Errorf("Expected dimension 3, got %d", model.Dimension())
	}

	if model.VocabularySize() != 2 {
		t.Errorf("Expected vocabulary size 2, got %d", model.VocabularySize())
	}
}

func TestEmbeddingLoader_LoadMultipleFiles(t *testing.T) {
	logger := &mockLogger{}
	loader := NewEmbeddingLoader(logger)
	tmpDir := t.TempDir()

	first := writeTestFile(t, tmpDir, "concepts.vec", `2 2
C0000001 1 0
C0000002 0 1`)
	second := writeTestFile(t, tmpDir, "words.vec", `2 2
aspirin 0.5 0.5
C0000002 1 1`)

	model, err := loader.LoadMultipleFiles([]string{first, second}, testLabels)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if model.VocabularySize() != 3 {
		t.Errorf("Expected vocabulary size 3, got %d", model.VocabularySize())
	}

	// Later files overwrite earlier ones
	vector, _ := model.GetVector("C0000002")
	if vector[0] != 1 || vector[1] != 1 {
		t.Errorf("Expected C0000002 to be overwritten, got %v", vector)
	}
}

func TestEmbeddingLoader_LoadMultipleFiles_DimensionMismatch(t *testing.T) {
	loader := NewEmbeddingLoader(nil)
	tmpDir := t.TempDir()

	first := writeTestFile(t, tmpDir, "a.vec", "1 2\na 1 0\n")
	second := writeTestFile(t, tmpDir, "b.vec", "1 3\nb 1 0 0\n")

	_, err := loader.LoadMultipleFiles([]string{first, second}, testLabels)
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("Expected ErrDimensionMismatch, got %v", err)
	}

	_, err = loader.LoadMultipleFiles(nil, testLabels)
	if err != ErrEmptyInput {
		t.Errorf("Expected ErrEmptyInput, got %v", err)
	}

	_, err = loader.LoadMultipleFiles([]string{first, filepath.Join(tmpDir, "missing.vec")}, testLabels)
	if !errors.Is(err, ErrVectorFileNotFound) {
		t.Errorf("Expected ErrVectorFileNotFound, got %v", err)
	}
}

func TestEmbeddingLoader_ProgressCallback(t *testing.T) {
	logger := &mockLogger{}
	loader := NewEmbeddingLoader(logger)

	var builder strings.Builder
	builder.WriteString("2500 2\n")
	for i := range 2500 {
		fmt.Fprintf(&builder, "word%d %d.0 %d.5\n", i, i, i)
	}

	var calls []int
	loader.SetProgressCallback(func(loaded, total int, memoryUsage int64) {
		if total != 2500 {
			t.Errorf("Expected total 2500, got %d", total)
		}
		calls = append(calls, loaded)
	})

	model, err := loader.LoadFromReader(strings.NewReader(builder.String()), testLabels)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if model.VocabularySize() != 2500 {
		t.Errorf("Expected vocabulary size 2500, got %d", model.VocabularySize())
	}

	// Every 1000 rows plus the final report
	want := []int{1000, 2000, 2500}
	if len(calls) != len(want) {
		t.Fatalf("Expected callbacks %v, got %v", want, calls)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Errorf("Expected callback %d at %d, got %d", i, want[i], calls[i])
		}
	}
}
