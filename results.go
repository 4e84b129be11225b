package embeddingbench

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/spf13/cast"
)

// csvHeader is the column layout of the result cache
var csvHeader = []string{
	"run_id", "dataset", "algorithm", "preprocessing", "benchmark",
	"score_kind", "score", "score_secondary",
	"concepts", "words", "concept_coverage", "ontology_coverage", "evaluated_at",
}

// CSVSink appends records to a CSV file. Existing rows are never rewritten;
// the header is written only when the file is new or empty.
type CSVSink struct {
	file   *os.File
	writer *csv.Writer
	mtx    sync.Mutex
}

var _ ResultSink = (*CSVSink)(nil)

// NewCSVSink opens path for appending, creating it if needed
func NewCSVSink(path string) (*CSVSink, error) {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("open result cache: %w", err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("stat result cache: %w", err)
	}

	sink := &CSVSink{file: file, writer: csv.NewWriter(file)}
	if info.Size() == 0 {
		if err := sink.writeRow(csvHeader); err != nil {
			file.Close()
			return nil, err
		}
	}
	return sink, nil
}

// Append writes one record and flushes it to disk
func (s *CSVSink) Append(_ context.Context, rec Record) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return s.writeRow(recordRow(rec))
}

func (s *CSVSink) writeRow(row []string) error {
	if err := s.writer.Write(row); err != nil {
		return fmt.Errorf("write result row: %w", err)
	}
	s.writer.Flush()
	return s.writer.Error()
}

func (s *CSVSink) Close() error {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	s.writer.Flush()
	return errors.Join(s.writer.Error(), s.file.Close())
}

func recordRow(rec Record) []string {
	return []string{
		rec.RunID,
		rec.Labels.Dataset,
		rec.Labels.Algorithm,
		rec.Labels.Preprocessing,
		rec.Benchmark,
		rec.Score.Kind.String(),
		formatFloat(rec.Score.Primary),
		formatFloat(rec.Score.Secondary),
		strconv.Itoa(rec.Concepts),
		strconv.Itoa(rec.Words),
		formatFloat(rec.ConceptCoverage),
		formatFloat(rec.OntologyCoverage),
		rec.EvaluatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// ParseScoreKind is the inverse of ScoreKind.String
func ParseScoreKind(s string) (ScoreKind, error) {
	for _, kind := range []ScoreKind{ScalarScore, MeanMaxScore, LenientStrictScore, ValueCoverageScore} {
		if kind.String() == s {
			return kind, nil
		}
	}
	return ScalarScore, fmt.Errorf("unknown score kind %q", s)
}

// ReadRecordsCSV reads every record of a result cache written by CSVSink
func ReadRecordsCSV(r io.Reader) ([]Record, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = len(csvHeader)

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read result header: %w", err)
	}
	if header[0] != csvHeader[0] {
		return nil, fmt.Errorf("%w: unexpected result header %v", ErrInvalidConfiguration, header)
	}

	var records []Record
	line := 1
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("read result row %d: %w", line, err)
		}
		rec, err := parseRecordRow(row)
		if err != nil {
			return nil, fmt.Errorf("result row %d: %w", line, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// ReadRecordsFile reads a result cache from disk
func ReadRecordsFile(path string) ([]Record, error) {
	file, err := os.Open(path) //nolint:gosec
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return ReadRecordsCSV(file)
}

func parseRecordRow(row []string) (Record, error) {
	kind, err := ParseScoreKind(row[5])
	if err != nil {
		return Record{}, err
	}
	rec := Record{
		RunID: row[0],
		Labels: EmbeddingLabels{
			Dataset:       row[1],
			Algorithm:     row[2],
			Preprocessing: row[3],
		},
		Benchmark: row[4],
		Score:     Score{Kind: kind},
	}

	if rec.Score.Primary, err = cast.ToFloat64E(row[6]); err != nil {
		return Record{}, err
	}
	if rec.Score.Secondary, err = cast.ToFloat64E(row[7]); err != nil {
		return Record{}, err
	}
	if rec.Concepts, err = cast.ToIntE(row[8]); err != nil {
		return Record{}, err
	}
	if rec.Words, err = cast.ToIntE(row[9]); err != nil {
		return Record{}, err
	}
	if rec.ConceptCoverage, err = cast.ToFloat64E(row[10]); err != nil {
		return Record{}, err
	}
	if rec.OntologyCoverage, err = cast.ToFloat64E(row[11]); err != nil {
		return Record{}, err
	}
	if rec.EvaluatedAt, err = time.Parse(time.RFC3339Nano, row[12]); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// MultiSink fans every record out to several sinks in order
type MultiSink []ResultSink

var _ ResultSink = MultiSink(nil)

// Append stops at the first failing sink
func (ms MultiSink) Append(ctx context.Context, rec Record) error {
	for _, sink := range ms {
		if err := sink.Append(ctx, rec); err != nil {
			return err
		}
	}
	return nil
}

func (ms MultiSink) Close() error {
	var errs []error
	for _, sink := range ms {
		errs = append(errs, sink.Close())
	}
	return errors.Join(errs...)
}

// MemorySink keeps records in memory; useful for tests and programmatic runs
type MemorySink struct {
	mtx     sync.Mutex
	records []Record
}

var _ ResultSink = (*MemorySink)(nil)

func (ms *MemorySink) Append(_ context.Context, rec Record) error {
	ms.mtx.Lock()
	defer ms.mtx.Unlock()
	ms.records = append(ms.records, rec)
	return nil
}

// Records returns a copy of the appended records
func (ms *MemorySink) Records() []Record {
	ms.mtx.Lock()
	defer ms.mtx.Unlock()
	return append([]Record(nil), ms.records...)
}

func (*MemorySink) Close() error { return nil }
