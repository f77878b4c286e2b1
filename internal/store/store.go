// Package store persists leads and score runs. It sits outside the scoring
// engine: the engine takes leads in memory and never reads from here.
package store

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/rotisserie/eris"

	"github.com/sells-group/lead-scorer/internal/config"
	"github.com/sells-group/lead-scorer/internal/db"
	"github.com/sells-group/lead-scorer/internal/model"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("store: not found")

// LeadFilter narrows ListLeads. Empty fields match everything; string
// matches are case-insensitive.
type LeadFilter struct {
	Industry string `json:"industry,omitempty"`
	Country  string `json:"country,omitempty"`
	Limit    int    `json:"limit,omitempty"`
}

// Store defines persistence for leads and score runs.
type Store interface {
	// Leads
	UpsertLeads(ctx context.Context, leads []model.Lead) (int64, error)
	ListLeads(ctx context.Context, filter LeadFilter) ([]model.Lead, error)

	// Runs
	SaveRun(ctx context.Context, run *model.ScoreRun, results []model.ScoredLead) error
	GetRun(ctx context.Context, id string) (*model.ScoreRun, error)
	ListRuns(ctx context.Context, limit int) ([]model.ScoreRun, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// DefaultSQLitePath is used when the sqlite driver has no database_url.
const DefaultSQLitePath = "lead-scorer.db"

// Open connects to the configured driver and runs migrations.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	var (
		st  Store
		err error
	)
	switch cfg.Driver {
	case "sqlite":
		path := cfg.DatabaseURL
		if path == "" {
			path = DefaultSQLitePath
		}
		st, err = NewSQLite(path)
	case "postgres":
		st, err = NewPostgres(ctx, db.PoolConfig{
			URL:      cfg.DatabaseURL,
			MaxConns: cfg.MaxConns,
			MinConns: cfg.MinConns,
		})
	case "":
		return nil, eris.New("store: no driver configured (set store.driver)")
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, err
	}
	return st, nil
}

const defaultRunLimit = 20

func runLimit(limit int) int {
	if limit <= 0 {
		return defaultRunLimit
	}
	return limit
}

// marshalPrefs encodes prefs for storage; nil prefs encode as nil.
func marshalPrefs(p *model.ICPPrefs) ([]byte, error) {
	if p == nil {
		return nil, nil
	}
	b, err := json.Marshal(p)
	return b, eris.Wrap(err, "store: marshal prefs")
}

func unmarshalPrefs(b []byte) (*model.ICPPrefs, error) {
	if len(b) == 0 {
		return nil, nil
	}
	var p model.ICPPrefs
	if err := json.Unmarshal(b, &p); err != nil {
		return nil, eris.Wrap(err, "store: unmarshal prefs")
	}
	return &p, nil
}
