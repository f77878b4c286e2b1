package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/sells-group/lead-scorer/internal/db"
	"github.com/sells-group/lead-scorer/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, cfg db.PoolConfig) (*PostgresStore, error) {
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: connect")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// Pool returns the underlying database pool.
func (s *PostgresStore) Pool() db.Pool {
	return s.pool
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS leads (
	id             TEXT PRIMARY KEY,
	name           TEXT NOT NULL,
	industry       TEXT NOT NULL DEFAULT '',
	country        TEXT NOT NULL DEFAULT '',
	state          TEXT NOT NULL DEFAULT '',
	employee_count INTEGER,
	revenue_usd    DOUBLE PRECISION,
	email          TEXT,
	phone          TEXT,
	linkedin       TEXT,
	growjo_rank    INTEGER,
	hiring         BOOLEAN,
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS score_runs (
	id           TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	weights_hash TEXT NOT NULL,
	prefs        JSONB,
	min_score    INTEGER NOT NULL DEFAULT 0,
	lead_count   INTEGER NOT NULL DEFAULT 0,
	hot_count    INTEGER NOT NULL DEFAULT 0,
	warm_count   INTEGER NOT NULL DEFAULT 0,
	cold_count   INTEGER NOT NULL DEFAULT 0,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS lead_scores (
	run_id   TEXT NOT NULL REFERENCES score_runs(id) ON DELETE CASCADE,
	lead_id  TEXT NOT NULL,
	score    INTEGER NOT NULL,
	priority TEXT NOT NULL,
	PRIMARY KEY (run_id, lead_id)
);

CREATE INDEX IF NOT EXISTS idx_leads_industry ON leads (lower(industry));
CREATE INDEX IF NOT EXISTS idx_score_runs_created_at ON score_runs (created_at DESC);
`

var leadScoreColumns = []string{"run_id", "lead_id", "score", "priority"}

// Ping verifies the database is reachable.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.pool.Ping(ctx), "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) UpsertLeads(ctx context.Context, leads []model.Lead) (int64, error) {
	now := time.Now().UTC()
	rows := make([][]any, len(leads))
	for i, l := range leads {
		rows[i] = append(leadValues(l), now)
	}

	n, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "leads",
		Columns:      leadColumnNames,
		ConflictKeys: []string{"id"},
	}, rows)
	return n, eris.Wrap(err, "postgres: upsert leads")
}

func (s *PostgresStore) ListLeads(ctx context.Context, filter LeadFilter) ([]model.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE 1=1`
	var args []any

	if filter.Industry != "" {
		args = append(args, filter.Industry)
		query += fmt.Sprintf(` AND lower(industry) = lower($%d)`, len(args))
	}
	if filter.Country != "" {
		args = append(args, filter.Country)
		query += fmt.Sprintf(` AND lower(country) = lower($%d)`, len(args))
	}
	query += ` ORDER BY id`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(` LIMIT $%d`, len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list leads")
	}
	defer rows.Close()

	var leads []model.Lead
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan lead")
		}
		leads = append(leads, l)
	}
	return leads, eris.Wrap(rows.Err(), "postgres: list leads iterate")
}

func (s *PostgresStore) SaveRun(ctx context.Context, run *model.ScoreRun, results []model.ScoredLead) error {
	prepareRun(run, results)

	prefs, err := marshalPrefs(run.Prefs)
	if err != nil {
		return err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: save run: begin tx")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	_, err = tx.Exec(ctx,
		`INSERT INTO score_runs (id, weights_hash, prefs, min_score, lead_count, hot_count, warm_count, cold_count, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		run.ID, run.WeightsHash, prefs, run.MinScore, run.LeadCount,
		run.HotCount, run.WarmCount, run.ColdCount, run.CreatedAt,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: insert run %s", run.ID)
	}

	rows := make([][]any, len(results))
	for i, r := range results {
		rows[i] = []any{run.ID, r.ID, r.Score, string(r.Priority)}
	}
	if _, err := db.CopyFrom(ctx, tx, "lead_scores", leadScoreColumns, rows); err != nil {
		return eris.Wrapf(err, "postgres: save scores for run %s", run.ID)
	}

	return eris.Wrap(tx.Commit(ctx), "postgres: save run: commit")
}

func (s *PostgresStore) GetRun(ctx context.Context, id string) (*model.ScoreRun, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+runColumns+` FROM score_runs WHERE id = $1`, id)
	run, err := scanPostgresRun(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "postgres: run %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get run %s", id)
	}
	return run, nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, limit int) ([]model.ScoreRun, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+runColumns+` FROM score_runs ORDER BY created_at DESC, id LIMIT $1`,
		runLimit(limit),
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []model.ScoreRun
	for rows.Next() {
		r, err := scanPostgresRun(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list runs iterate")
}

func scanPostgresRun(row scannable) (*model.ScoreRun, error) {
	var (
		r     model.ScoreRun
		prefs []byte
	)
	err := row.Scan(&r.ID, &r.WeightsHash, &prefs, &r.MinScore, &r.LeadCount,
		&r.HotCount, &r.WarmCount, &r.ColdCount, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	if r.Prefs, err = unmarshalPrefs(prefs); err != nil {
		return nil, err
	}
	return &r, nil
}
