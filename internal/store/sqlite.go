package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/lead-scorer/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS leads (
	id             TEXT PRIMARY KEY,
	name           TEXT NOT NULL,
	industry       TEXT NOT NULL DEFAULT '',
	country        TEXT NOT NULL DEFAULT '',
	state          TEXT NOT NULL DEFAULT '',
	employee_count INTEGER,
	revenue_usd    REAL,
	email          TEXT,
	phone          TEXT,
	linkedin       TEXT,
	growjo_rank    INTEGER,
	hiring         INTEGER,
	updated_at     DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS score_runs (
	id           TEXT PRIMARY KEY,
	weights_hash TEXT NOT NULL,
	prefs        TEXT,
	min_score    INTEGER NOT NULL DEFAULT 0,
	lead_count   INTEGER NOT NULL DEFAULT 0,
	hot_count    INTEGER NOT NULL DEFAULT 0,
	warm_count   INTEGER NOT NULL DEFAULT 0,
	cold_count   INTEGER NOT NULL DEFAULT 0,
	created_at   DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS lead_scores (
	run_id   TEXT NOT NULL REFERENCES score_runs(id) ON DELETE CASCADE,
	lead_id  TEXT NOT NULL,
	score    INTEGER NOT NULL,
	priority TEXT NOT NULL,
	PRIMARY KEY (run_id, lead_id)
);

CREATE INDEX IF NOT EXISTS idx_leads_industry ON leads(industry COLLATE NOCASE);
CREATE INDEX IF NOT EXISTS idx_score_runs_created_at ON score_runs(created_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

const sqliteUpsertLead = `
INSERT INTO leads (id, name, industry, country, state, employee_count, revenue_usd,
	email, phone, linkedin, growjo_rank, hiring, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	name = excluded.name,
	industry = excluded.industry,
	country = excluded.country,
	state = excluded.state,
	employee_count = excluded.employee_count,
	revenue_usd = excluded.revenue_usd,
	email = excluded.email,
	phone = excluded.phone,
	linkedin = excluded.linkedin,
	growjo_rank = excluded.growjo_rank,
	hiring = excluded.hiring,
	updated_at = excluded.updated_at`

func (s *SQLiteStore) UpsertLeads(ctx context.Context, leads []model.Lead) (int64, error) {
	if len(leads) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: upsert leads: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, sqliteUpsertLead)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: upsert leads: prepare")
	}
	defer stmt.Close()

	now := time.Now().UTC()
	var n int64
	for _, l := range leads {
		args := append(leadValues(l), now)
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return 0, eris.Wrapf(err, "sqlite: upsert lead %s", l.ID)
		}
		n++
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: upsert leads: commit")
	}
	return n, nil
}

func (s *SQLiteStore) ListLeads(ctx context.Context, filter LeadFilter) ([]model.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE 1=1`
	var args []any

	if filter.Industry != "" {
		query += ` AND industry = ? COLLATE NOCASE`
		args = append(args, filter.Industry)
	}
	if filter.Country != "" {
		query += ` AND country = ? COLLATE NOCASE`
		args = append(args, filter.Country)
	}
	query += ` ORDER BY id`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list leads")
	}
	defer rows.Close()

	var leads []model.Lead
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan lead")
		}
		leads = append(leads, l)
	}
	return leads, eris.Wrap(rows.Err(), "sqlite: list leads iterate")
}

func (s *SQLiteStore) SaveRun(ctx context.Context, run *model.ScoreRun, results []model.ScoredLead) error {
	prepareRun(run, results)

	prefs, err := marshalPrefs(run.Prefs)
	if err != nil {
		return err
	}
	var prefsText sql.NullString
	if prefs != nil {
		prefsText = sql.NullString{String: string(prefs), Valid: true}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: save run: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.ExecContext(ctx,
		`INSERT INTO score_runs (id, weights_hash, prefs, min_score, lead_count, hot_count, warm_count, cold_count, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.WeightsHash, prefsText, run.MinScore, run.LeadCount,
		run.HotCount, run.WarmCount, run.ColdCount, run.CreatedAt,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: insert run %s", run.ID)
	}

	if len(results) > 0 {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO lead_scores (run_id, lead_id, score, priority) VALUES (?, ?, ?, ?)`)
		if err != nil {
			return eris.Wrap(err, "sqlite: save run: prepare scores")
		}
		defer stmt.Close()

		for _, r := range results {
			if _, err := stmt.ExecContext(ctx, run.ID, r.ID, r.Score, string(r.Priority)); err != nil {
				return eris.Wrapf(err, "sqlite: insert score for lead %s", r.ID)
			}
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: save run: commit")
}

func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*model.ScoreRun, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM score_runs WHERE id = ?`, id)
	run, err := scanSQLiteRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "sqlite: run %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get run %s", id)
	}
	return run, nil
}

func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]model.ScoreRun, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM score_runs ORDER BY created_at DESC, id LIMIT ?`,
		runLimit(limit),
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close()

	var runs []model.ScoreRun
	for rows.Next() {
		r, err := scanSQLiteRun(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan run")
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list runs iterate")
}

func scanSQLiteRun(row scannable) (*model.ScoreRun, error) {
	var (
		r     model.ScoreRun
		prefs sql.NullString
	)
	err := row.Scan(&r.ID, &r.WeightsHash, &prefs, &r.MinScore, &r.LeadCount,
		&r.HotCount, &r.WarmCount, &r.ColdCount, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	if prefs.Valid {
		if r.Prefs, err = unmarshalPrefs([]byte(prefs.String)); err != nil {
			return nil, err
		}
	}
	return &r, nil
}
