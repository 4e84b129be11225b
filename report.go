package embeddingbench

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// Table is the paper table: one row per embedding, one column per benchmark
type Table struct {
	Benchmarks []string
	Rows       []TableRow
}

// TableRow holds the scores of one embedding
type TableRow struct {
	Labels           EmbeddingLabels
	Concepts         int
	Words            int
	ConceptCoverage  float64
	OntologyCoverage float64
	Scores           map[string]Score
}

var tableLabelColumns = []string{
	"Data set", "Algorithm", "Preprocessing", "# Concepts", "# Words", "CUI Coverage", "UMLS Coverage",
}

// BuildTable pivots records. Rows and benchmark columns keep the order of
// first appearance; when an (embedding, benchmark) pair occurs more than once
// the most recently evaluated record wins.
func BuildTable(records []Record) *Table {
	table := &Table{}
	rowIndex := make(map[EmbeddingLabels]int)
	seenBenchmark := make(map[string]struct{})
	latest := make(map[EmbeddingLabels]map[string]Record)

	for _, rec := range records {
		if _, ok := seenBenchmark[rec.Benchmark]; !ok {
			seenBenchmark[rec.Benchmark] = struct{}{}
			table.Benchmarks = append(table.Benchmarks, rec.Benchmark)
		}

		i, ok := rowIndex[rec.Labels]
		if !ok {
			i = len(table.Rows)
			rowIndex[rec.Labels] = i
			table.Rows = append(table.Rows, TableRow{Labels: rec.Labels, Scores: make(map[string]Score)})
			latest[rec.Labels] = make(map[string]Record)
		}

		if prev, ok := latest[rec.Labels][rec.Benchmark]; ok && prev.EvaluatedAt.After(rec.EvaluatedAt) {
			continue
		}
		latest[rec.Labels][rec.Benchmark] = rec

		row := &table.Rows[i]
		row.Scores[rec.Benchmark] = rec.Score
		row.Concepts = rec.Concepts
		row.Words = rec.Words
		row.ConceptCoverage = rec.ConceptCoverage
		row.OntologyCoverage = rec.OntologyCoverage
	}
	return table
}

// Header returns the column names
func (t *Table) Header() []string {
	return append(append([]string(nil), tableLabelColumns...), t.Benchmarks...)
}

func (t *Table) cells(row TableRow) []string {
	cells := []string{
		row.Labels.Dataset,
		row.Labels.Algorithm,
		row.Labels.Preprocessing,
		fmt.Sprintf("%d", row.Concepts),
		fmt.Sprintf("%d", row.Words),
		fmt.Sprintf("%.4f", row.ConceptCoverage),
		fmt.Sprintf("%.4f", row.OntologyCoverage),
	}
	for _, benchmark := range t.Benchmarks {
		score, ok := row.Scores[benchmark]
		if !ok {
			cells = append(cells, "")
			continue
		}
		cells = append(cells, score.String())
	}
	return cells
}

// WriteTable renders the table as aligned text
func WriteTable(w io.Writer, t *Table) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	header := t.Header()
	fmt.Fprintln(tw, strings.Join(header, "\t"))

	sep := make([]string, len(header))
	for i := range sep {
		sep[i] = "---"
	}
	fmt.Fprintln(tw, strings.Join(sep, "\t"))

	for _, row := range t.Rows {
		fmt.Fprintln(tw, strings.Join(t.cells(row), "\t"))
	}

	return tw.Flush()
}

// WriteTableCSV writes the table as CSV
func WriteTableCSV(w io.Writer, t *Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Header()); err != nil {
		return err
	}
	for _, row := range t.Rows {
		if err := cw.Write(t.cells(row)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
