package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/lead-scorer/internal/config"
	"github.com/sells-group/lead-scorer/internal/model"
)

func TestOpen_SQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "open.db")
	st, err := Open(context.Background(), config.StoreConfig{Driver: "sqlite", DatabaseURL: path})
	require.NoError(t, err)
	defer st.Close() //nolint:errcheck

	_, ok := st.(*SQLiteStore)
	assert.True(t, ok)

	runs, err := st.ListRuns(context.Background(), 5)
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestOpen_Errors(t *testing.T) {
	tests := []struct {
		name   string
		driver string
		want   string
	}{
		{"no driver", "", "no driver configured"},
		{"unknown driver", "mysql", `unknown driver "mysql"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Open(context.Background(), config.StoreConfig{Driver: tt.driver})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestPrepareRun(t *testing.T) {
	run := &model.ScoreRun{ID: "keep"}
	prepareRun(run, scoredSample())
	assert.Equal(t, "keep", run.ID)
	assert.False(t, run.CreatedAt.IsZero())
	assert.Equal(t, 4, run.LeadCount)
	assert.Equal(t, 2, run.HotCount)
	assert.Equal(t, 1, run.WarmCount)
	assert.Equal(t, 1, run.ColdCount)

	fresh := &model.ScoreRun{}
	prepareRun(fresh, nil)
	assert.Len(t, fresh.ID, 36)
}

func TestPrefsRoundTrip(t *testing.T) {
	b, err := marshalPrefs(nil)
	require.NoError(t, err)
	assert.Nil(t, b)

	p, err := unmarshalPrefs(nil)
	require.NoError(t, err)
	assert.Nil(t, p)

	_, err = unmarshalPrefs([]byte("{"))
	assert.Error(t, err)
}
