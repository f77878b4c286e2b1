package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/lead-scorer/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresStore{pool: mock}
	return s, mock
}

var runRowColumns = []string{"id", "weights_hash", "prefs", "min_score", "lead_count", "hot_count", "warm_count", "cold_count", "created_at"}

func TestPostgresStore_Migrate(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS leads`).WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpsertLeads(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TEMP TABLE "_stage_leads"`).WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"_stage_leads"}, leadColumnNames).WillReturnResult(3)
	mock.ExpectExec(`INSERT INTO "leads" .* ON CONFLICT \("id"\) DO UPDATE SET "name" = EXCLUDED."name"`).
		WillReturnResult(pgxmock.NewResult("INSERT", 3))
	mock.ExpectCommit()
	mock.ExpectRollback()

	n, err := s.UpsertLeads(context.Background(), sampleLeads())
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestPostgresStore_UpsertLeads_BeginFails(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectBegin().WillReturnError(errors.New("connection refused"))

	_, err := s.UpsertLeads(context.Background(), sampleLeads())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres: upsert leads")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListLeads_Filter(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	rows := pgxmock.NewRows([]string{"id", "name", "industry", "country", "state", "employee_count", "revenue_usd",
		"email", "phone", "linkedin", "growjo_rank", "hiring"}).
		AddRow("acme", "Acme", "Logistics", "US", "TX", model.Ptr(120), model.Ptr(1.25e7),
			model.Ptr("ops@acme.test"), (*string)(nil), (*string)(nil), model.Ptr(850), model.Ptr(true))

	mock.ExpectQuery(`SELECT .* FROM leads WHERE 1=1 AND lower\(industry\) = lower\(\$1\) AND lower\(country\) = lower\(\$2\) ORDER BY id LIMIT \$3`).
		WithArgs("logistics", "us", 10).
		WillReturnRows(rows)

	leads, err := s.ListLeads(context.Background(), LeadFilter{Industry: "logistics", Country: "us", Limit: 10})
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, "Acme", leads[0].Name)
	require.NotNil(t, leads[0].EmployeeCount)
	assert.Equal(t, 120, *leads[0].EmployeeCount)
	assert.Nil(t, leads[0].Phone)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveRun(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO score_runs`).
		WithArgs("run-1", "hash", pgxmock.AnyArg(), 0, 4, 2, 1, 1, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCopyFrom(pgx.Identifier{"lead_scores"}, leadScoreColumns).WillReturnResult(4)
	mock.ExpectCommit()
	mock.ExpectRollback()

	run := &model.ScoreRun{ID: "run-1", WeightsHash: "hash", Prefs: &model.ICPPrefs{Countries: []string{"US"}}}
	require.NoError(t, s.SaveRun(context.Background(), run, scoredSample()))
	assert.Equal(t, 2, run.HotCount)
}

func TestPostgresStore_SaveRun_CopyFails(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO score_runs`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCopyFrom(pgx.Identifier{"lead_scores"}, leadScoreColumns).WillReturnError(errors.New("deadlock"))
	mock.ExpectRollback()

	err := s.SaveRun(context.Background(), &model.ScoreRun{ID: "run-1", WeightsHash: "h"}, scoredSample())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "save scores for run run-1")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetRun(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	created := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT .* FROM score_runs WHERE id = \$1`).
		WithArgs("run-1").
		WillReturnRows(pgxmock.NewRows(runRowColumns).
			AddRow("run-1", "hash", []byte(`{"industries":["Tech"]}`), 40, 10, 3, 4, 3, created))

	run, err := s.GetRun(context.Background(), "run-1")
	require.NoError(t, err)
	assert.Equal(t, 40, run.MinScore)
	assert.Equal(t, created, run.CreatedAt)
	require.NotNil(t, run.Prefs)
	assert.Equal(t, []string{"Tech"}, run.Prefs.Industries)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetRun_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT .* FROM score_runs WHERE id = \$1`).
		WithArgs("nonexistent-run").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetRun(context.Background(), "nonexistent-run")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListRuns_DefaultLimit(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT .* FROM score_runs ORDER BY created_at DESC, id LIMIT \$1`).
		WithArgs(defaultRunLimit).
		WillReturnRows(pgxmock.NewRows(runRowColumns).
			AddRow("b", "h", []byte(nil), 0, 1, 0, 0, 1, now).
			AddRow("a", "h", []byte(nil), 0, 2, 1, 1, 0, now.Add(-time.Hour)))

	runs, err := s.ListRuns(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "b", runs[0].ID)
	assert.Nil(t, runs[0].Prefs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Ping(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	s := &PostgresStore{pool: mock}

	mock.ExpectPing().WillReturnError(errors.New("down"))

	err = s.Ping(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres: ping")
}
