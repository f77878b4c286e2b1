package db

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var leadsUpsert = UpsertConfig{
	Table:        "leadscore.leads",
	Columns:      []string{"id", "name", "industry"},
	ConflictKeys: []string{"id"},
}

func TestBulkUpsert_EmptyRows(t *testing.T) {
	n, err := BulkUpsert(context.Background(), nil, leadsUpsert, nil)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestBulkUpsert_ConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		cfg  UpsertConfig
		want string
	}{
		{"no columns", UpsertConfig{Table: "leads", ConflictKeys: []string{"id"}}, "no columns specified"},
		{"no conflict keys", UpsertConfig{Table: "leads", Columns: []string{"id"}}, "no conflict keys specified"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BulkUpsert(context.Background(), nil, tt.cfg, [][]any{{"a"}})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestBulkUpsert_Success(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TEMP TABLE "_stage_leadscore_leads" \(LIKE "leadscore"."leads"`).
		WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"_stage_leadscore_leads"}, leadsUpsert.Columns).WillReturnResult(2)
	mock.ExpectExec(`INSERT INTO "leadscore"."leads" .* ON CONFLICT \("id"\) DO UPDATE SET "name" = EXCLUDED."name", "industry" = EXCLUDED."industry"`).
		WillReturnResult(pgxmock.NewResult("INSERT", 2))
	mock.ExpectCommit()
	mock.ExpectRollback()

	rows := [][]any{{"a", "Acme", "Logistics"}, {"b", "Beta", "Retail"}}
	n, err := BulkUpsert(context.Background(), mock, leadsUpsert, rows)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestBulkUpsert_CopyFails(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TEMP TABLE`).WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"_stage_leadscore_leads"}, leadsUpsert.Columns).
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	_, err = BulkUpsert(context.Background(), mock, leadsUpsert, [][]any{{"a", "Acme", "x"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "COPY into staging table for leadscore.leads")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMergeSQL_DoNothingWithoutUpdateColumns(t *testing.T) {
	cfg := UpsertConfig{Table: "lead_scores", Columns: []string{"run_id", "lead_id"}, ConflictKeys: []string{"run_id", "lead_id"}}
	got := mergeSQL("_stage_lead_scores", cfg, cfg.updateColumns())
	assert.Equal(t,
		`INSERT INTO "lead_scores" ("run_id", "lead_id") SELECT "run_id", "lead_id" FROM "_stage_lead_scores" ON CONFLICT ("run_id", "lead_id") DO NOTHING`,
		got)
}

func TestUpdateColumns_Explicit(t *testing.T) {
	cfg := leadsUpsert
	cfg.UpdateCols = []string{"name"}
	assert.Equal(t, []string{"name"}, cfg.updateColumns())
	assert.Equal(t, []string{"name", "industry"}, leadsUpsert.updateColumns())
}

func TestIdentifier(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"leads", `"leads"`},
		{"leadscore.lead_scores", `"leadscore"."lead_scores"`},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, identifier(tt.input).Sanitize())
		})
	}
}

func TestQuoteAndJoin(t *testing.T) {
	assert.Equal(t, `"id", "name", "score"`, quoteAndJoin([]string{"id", "name", "score"}))
}
