package embeddingbench

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cast"
)

const maxVecLineBytes = 4 * 1024 * 1024

// embeddingLoader implements the EmbeddingLoader interface
type embeddingLoader struct {
	logger           Logger
	progressCallback ProgressCallback
}

// NewEmbeddingLoader creates a new EmbeddingLoader instance
func NewEmbeddingLoader(logger Logger) EmbeddingLoader {
	return &embeddingLoader{
		logger: loggerOrDiscard(logger),
	}
}

// SetProgressCallback sets a callback for progress reporting during loading
func (el *embeddingLoader) SetProgressCallback(callback ProgressCallback) {
	el.progressCallback = callback
}

// LoadFromFile loads vectors from .vec text format file
func (el *embeddingLoader) LoadFromFile(path string, labels EmbeddingLabels) (Embedding, error) {
	model, err := el.loadFile(path, labels, nil)
	if err != nil {
		return nil, err
	}
	return model, nil
}

// LoadMultipleFiles merges several .vec files into one model
func (el *embeddingLoader) LoadMultipleFiles(paths []string, labels EmbeddingLabels) (Embedding, error) {
	if len(paths) == 0 {
		return nil, ErrEmptyInput
	}

	var model *vectorModel
	for _, path := range paths {
		loaded, err := el.loadFile(path, labels, model)
		if err != nil {
			return nil, err
		}
		model = loaded
	}

	el.logger.Infof("Merged vector files, file_count: %d, vocabulary_size: %d, dimension: %d",
		len(paths), model.VocabularySize(), model.Dimension())

	return model, nil
}

// LoadFromReader loads vectors from any io.Reader
func (el *embeddingLoader) LoadFromReader(reader io.Reader, labels EmbeddingLabels) (Embedding, error) {
	model, err := el.load(reader, labels, nil)
	if err != nil {
		return nil, err
	}
	return model, nil
}

func (el *embeddingLoader) loadFile(path string, labels EmbeddingLabels, into *vectorModel) (*vectorModel, error) {
	el.logger.Infof("Loading vector file, path: %s", path)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrVectorFileNotFound, path)
	}

	file, err := os.Open(path) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("failed to open vector file: %w", err)
	}
	defer file.Close()

	return el.load(file, labels, into)
}

// load parses "word_count dimension" followed by "id v1 ... vN" lines.
// When into is non-nil the vectors are merged into it.
//
//nolint:cyclop
func (el *embeddingLoader) load(reader io.Reader, labels EmbeddingLabels, into *vectorModel) (*vectorModel, error) {
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), maxVecLineBytes)

	if !scanner.Scan() {
		return nil, ErrInvalidVectorFormat
	}

	parts := strings.Fields(scanner.Text())
	if len(parts) != 2 {
		return nil, fmt.Errorf(
			"%w: first line must contain word count and dimension",
			ErrInvalidVectorFormat,
		)
	}

	wordCount, err := cast.ToIntE(parts[0])
	if err != nil || wordCount <= 0 {
		return nil, fmt.Errorf("%w: invalid word count in first line", ErrInvalidVectorFormat)
	}

	dimension, err := cast.ToIntE(parts[1])
	if err != nil || dimension <= 0 {
		return nil, fmt.Errorf("%w: invalid dimension in first line", ErrInvalidVectorFormat)
	}

	el.logger.Infof("Vector file header parsed, word_count: %d, dimension: %d", wordCount, dimension)

	model := into
	if model == nil {
		model = newVectorModel(dimension, labels)
	} else if model.Dimension() != dimension {
		return nil, fmt.Errorf("%w: expected %d, file has %d",
			ErrDimensionMismatch, model.Dimension(), dimension)
	}
	model.PreallocateCapacity(model.VocabularySize() + wordCount)

	lineNumber := 1
	loaded := 0
	progressInterval := 10000
	if wordCount < 50000 {
		progressInterval = 5000
	}
	if wordCount < 10000 {
		progressInterval = 1000
	}

	for scanner.Scan() {
		lineNumber++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) != dimension+1 {
			el.logger.Warnf(
				"Skipping invalid line, line_number: %d, expected_parts: %d, actual_parts: %d",
				lineNumber, dimension+1, len(fields))
			continue
		}

		id := fields[0]
		vector := make([]float32, dimension)
		parseError := false
		for i := 1; i <= dimension; i++ {
			val, err := cast.ToFloat32E(fields[i])
			if err != nil {
				el.logger.Warnf(
					"Skipping line with invalid float value, line_number: %d, id: %s, value: %s",
					lineNumber, id, fields[i])
				parseError = true
				break
			}
			vector[i-1] = val
		}
		if parseError {
			continue
		}

		model.AddVector(id, vector)
		loaded++

		if loaded%progressInterval == 0 {
			memUsage := model.MemoryUsage()
			el.logger.Infof(
				"Loading progress, loaded_vectors: %d, target: %d, progress_pct: %.2f, memory_mb: %.2f",
				loaded, wordCount, float64(loaded)/float64(wordCount)*100, float64(memUsage)/(1024*1024))
			if el.progressCallback != nil {
				el.progressCallback(loaded, wordCount, memUsage)
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading vector file: %w", err)
	}

	finalMemUsage := model.MemoryUsage()
	el.logger.Infof(
		"Vector loading completed, loaded_vectors: %d, expected_vectors: %d, dimension: %d, "+
			"vocabulary_size: %d, memory_usage_mb: %.2f",
		loaded, wordCount, dimension, model.VocabularySize(), float64(finalMemUsage)/(1024*1024))

	if el.progressCallback != nil {
		el.progressCallback(loaded, wordCount, finalMemUsage)
	}

	if loaded != wordCount {
		el.logger.Warnf("Loaded vector count differs from header, expected: %d, actual: %d",
			wordCount, loaded)
	}

	return model, nil
}

// WriteVec writes emb in .vec text format, keeping at most maxWords entries
// in vocabulary order. maxWords <= 0 keeps everything. Returns the number of rows written.
func WriteVec(w io.Writer, emb Embedding, maxWords int) (int, error) {
	vocab := emb.Vocabulary()
	if maxWords > 0 && maxWords < len(vocab) {
		vocab = vocab[:maxWords]
	}

	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintf(bw, "%d %d\n", len(vocab), emb.Dimension()); err != nil {
		return 0, err
	}

	written := 0
	buf := make([]byte, 0, 32)
	for _, id := range vocab {
		vector, ok := emb.GetVector(id)
		if !ok {
			continue
		}
		if _, err := bw.WriteString(id); err != nil {
			return written, err
		}
		for _, val := range vector {
			buf = strconv.AppendFloat(append(buf[:0], ' '), float64(val), 'g', -1, 32)
			if _, err := bw.Write(buf); err != nil {
				return written, err
			}
		}
		if err := bw.WriteByte('\n'); err != nil {
			return written, err
		}
		written++
	}

	return written, bw.Flush()
}
