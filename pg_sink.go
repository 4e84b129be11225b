package embeddingbench

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const createResultsTable = `
CREATE TABLE IF NOT EXISTS benchmark_results (
    id                BIGSERIAL PRIMARY KEY,
    run_id            TEXT             NOT NULL,
    dataset           TEXT             NOT NULL,
    algorithm         TEXT             NOT NULL,
    preprocessing     TEXT             NOT NULL,
    benchmark         TEXT             NOT NULL,
    score_kind        TEXT             NOT NULL,
    score             DOUBLE PRECISION NOT NULL,
    score_secondary   DOUBLE PRECISION NOT NULL,
    concepts          INTEGER          NOT NULL,
    words             INTEGER          NOT NULL,
    concept_coverage  DOUBLE PRECISION NOT NULL,
    ontology_coverage DOUBLE PRECISION NOT NULL,
    evaluated_at      TIMESTAMPTZ      NOT NULL
)`

const insertResult = `
INSERT INTO benchmark_results (
    run_id, dataset, algorithm, preprocessing, benchmark, score_kind, score, score_secondary,
    concepts, words, concept_coverage, ontology_coverage, evaluated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

// execer is the subset of pgxpool.Pool the sink uses
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresSink appends records to the benchmark_results table. It only ever
// inserts rows.
type PostgresSink struct {
	db    execer
	close func()
}

var _ ResultSink = (*PostgresSink)(nil)

// NewPostgresSink connects to dsn and makes sure the results table exists
func NewPostgresSink(ctx context.Context, dsn string) (*PostgresSink, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping DB: %w", err)
	}

	sink := &PostgresSink{db: pool, close: pool.Close}
	if err := sink.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return sink, nil
}

func (ps *PostgresSink) migrate(ctx context.Context) error {
	if _, err := ps.db.Exec(ctx, createResultsTable); err != nil {
		return fmt.Errorf("failed to create results table: %w", err)
	}
	return nil
}

// Append inserts one row
func (ps *PostgresSink) Append(ctx context.Context, rec Record) error {
	_, err := ps.db.Exec(ctx, insertResult,
		rec.RunID,
		rec.Labels.Dataset,
		rec.Labels.Algorithm,
		rec.Labels.Preprocessing,
		rec.Benchmark,
		rec.Score.Kind.String(),
		rec.Score.Primary,
		rec.Score.Secondary,
		rec.Concepts,
		rec.Words,
		rec.ConceptCoverage,
		rec.OntologyCoverage,
		rec.EvaluatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert result: %w", err)
	}
	return nil
}

func (ps *PostgresSink) Close() error {
	if ps.close != nil {
		ps.close()
	}
	return nil
}
