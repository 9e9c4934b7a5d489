package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/kmoroz/askcorpus/internal/core/domain"
)

// EvalStore persists evaluation runs and their per-item metric rows.
type EvalStore struct {
	db *sql.DB
}

func NewEvalStore(db *sql.DB) *EvalStore {
	return &EvalStore{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (s *EvalStore) EnsureSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across concurrent eval starts.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026082401)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS evaluation_runs (
	run_id TEXT PRIMARY KEY,
	started_at TIMESTAMPTZ NOT NULL,
	duration_ms BIGINT NOT NULL,
	num_items INTEGER NOT NULL,
	num_configs INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS evaluation_results (
	run_id TEXT NOT NULL REFERENCES evaluation_runs(run_id) ON DELETE CASCADE,
	question_id TEXT NOT NULL,
	config_id TEXT NOT NULL,
	metric_name TEXT NOT NULL,
	value DOUBLE PRECISION NOT NULL,
	outcome TEXT NOT NULL,
	failure TEXT,
	PRIMARY KEY (run_id, question_id, config_id, metric_name)
);

CREATE INDEX IF NOT EXISTS idx_evaluation_results_config ON evaluation_results(run_id, config_id);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (s *EvalStore) SaveReport(ctx context.Context, report *domain.EvaluationReport) error {
	if report == nil {
		return fmt.Errorf("nil report")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	_, err = tx.ExecContext(ctx, `
INSERT INTO evaluation_runs (run_id, started_at, duration_ms, num_items, num_configs)
VALUES ($1,$2,$3,$4,$5)
`, report.RunID, report.StartedAt, report.Duration.Milliseconds(), report.NumItems, len(report.Configs))
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO evaluation_results (run_id, question_id, config_id, metric_name, value, outcome, failure)
VALUES ($1,$2,$3,$4,$5,$6,$7)
`)
	if err != nil {
		return fmt.Errorf("prepare result insert: %w", err)
	}
	defer stmt.Close()

	for _, cfg := range report.Configs {
		for _, item := range cfg.Items {
			for name, value := range item.Metrics {
				_, err := stmt.ExecContext(ctx,
					report.RunID, item.QuestionID, cfg.ConfigID, name, value,
					string(item.Outcome), string(item.Failure),
				)
				if err != nil {
					return fmt.Errorf("insert result %s/%s/%s: %w", item.QuestionID, cfg.ConfigID, name, err)
				}
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save tx: %w", err)
	}
	return nil
}

func (s *EvalStore) LoadRunMetrics(ctx context.Context, runID string) ([]domain.MetricRow, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT question_id, config_id, metric_name, value
FROM evaluation_results
WHERE run_id = $1
ORDER BY config_id, question_id, metric_name
`, runID)
	if err != nil {
		return nil, fmt.Errorf("query run metrics: %w", err)
	}
	defer rows.Close()

	var out []domain.MetricRow
	for rows.Next() {
		row := domain.MetricRow{RunID: runID}
		if err := rows.Scan(&row.QuestionID, &row.ConfigID, &row.MetricName, &row.Value); err != nil {
			return nil, fmt.Errorf("scan metric row: %w", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate metric rows: %w", err)
	}
	return out, nil
}
