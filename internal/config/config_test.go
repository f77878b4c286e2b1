package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// inTempDir switches to an empty directory so no config.yaml or .env is found.
func inTempDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) }) //nolint:errcheck
	return dir
}

func TestLoadDefaults(t *testing.T) {
	inTempDir(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "", cfg.Store.Driver)
	assert.Equal(t, int32(10), cfg.Store.MaxConns)
	assert.Equal(t, int32(2), cfg.Store.MinConns)
	assert.Equal(t, 30, cfg.Source.FTPTimeout)
	assert.Equal(t, 5, cfg.Source.BreakerThreshold)
	assert.Equal(t, 30, cfg.Source.BreakerResetSecs)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.InDelta(t, 10.0, cfg.Server.RateLimit, 0.001)
	assert.Equal(t, 20, cfg.Server.RateBurst)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.False(t, cfg.Server.PersistRuns)
	assert.Equal(t, 8, cfg.Scoring.Concurrency)
	assert.Equal(t, DefaultWeights(), cfg.Scoring.Weights)
}

func TestDefaultWeights(t *testing.T) {
	w := DefaultWeights()

	sum := w.WEmployeeFit + w.WRevenueFit + w.WIndustryMatch +
		w.WLocationMatch + w.WContactCompleteness + w.WGrowthSignal
	assert.InDelta(t, 100, sum, 0.001)
	assert.InDelta(t, 10, w.EmployeeMin, 0)
	assert.InDelta(t, 200, w.EmployeeMax, 0)
	assert.InDelta(t, 1_000_000, w.RevMin, 0)
	assert.InDelta(t, 50_000_000, w.RevMax, 0)
	assert.InDelta(t, 70, w.HotThreshold, 0)
	assert.InDelta(t, 40, w.WarmThreshold, 0)
}

func TestLoadFromYAML(t *testing.T) {
	dir := inTempDir(t)

	yaml := `
store:
  driver: sqlite
  database_url: leads.db
source:
  uri: ftp://files.example.com/leads.csv
log:
  level: debug
  format: console
server:
  port: 9090
  allowed_origins: ["https://app.example.com"]
scoring:
  weights:
    hot_threshold: 80
    w_growth_signal: 0
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "leads.db", cfg.Store.DatabaseURL)
	assert.Equal(t, "ftp://files.example.com/leads.csv", cfg.Source.URI)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, []string{"https://app.example.com"}, cfg.Server.AllowedOrigins)
	assert.InDelta(t, 80, cfg.Scoring.Weights.HotThreshold, 0)
	assert.InDelta(t, 0, cfg.Scoring.Weights.WGrowthSignal, 0)
	// Defaults still apply for unset values
	assert.InDelta(t, 40, cfg.Scoring.Weights.WarmThreshold, 0)
	assert.InDelta(t, 25, cfg.Scoring.Weights.WEmployeeFit, 0)
}

func TestLoadMalformedYAML(t *testing.T) {
	dir := inTempDir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("store: [unclosed"), 0o644))

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config: read file")
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := inTempDir(t)

	yaml := `
store:
  driver: sqlite
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	t.Setenv("LEADSCORE_STORE_DRIVER", "postgres")
	t.Setenv("LEADSCORE_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	inTempDir(t)

	t.Setenv("LEADSCORE_SERVER_PORT", "3000")
	t.Setenv("LEADSCORE_SCORING_WEIGHTS_HOT_THRESHOLD", "75")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.InDelta(t, 75, cfg.Scoring.Weights.HotThreshold, 0)
}

func TestLoadDotEnv(t *testing.T) {
	dir := inTempDir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("LEADSCORE_SOURCE_URI=leads.json\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("LEADSCORE_SOURCE_URI") }) //nolint:errcheck

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "leads.json", cfg.Source.URI)
}

func TestLoadWeightsJSONEnv(t *testing.T) {
	dir := inTempDir(t)

	yaml := `
scoring:
  weights:
    hot_threshold: 80
    warm_threshold: 50
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))
	t.Setenv(WeightsEnvVar, `{"hot_threshold": 90, "w_industry_match": 40}`)

	cfg, err := Load()
	require.NoError(t, err)

	// The env document wins for the keys it names; the rest keep file or
	// default values.
	assert.InDelta(t, 90, cfg.Scoring.Weights.HotThreshold, 0)
	assert.InDelta(t, 40, cfg.Scoring.Weights.WIndustryMatch, 0)
	assert.InDelta(t, 50, cfg.Scoring.Weights.WarmThreshold, 0)
	assert.InDelta(t, 25, cfg.Scoring.Weights.WEmployeeFit, 0)
}

func TestLoadWeightsJSONEnv_Invalid(t *testing.T) {
	inTempDir(t)
	t.Setenv(WeightsEnvVar, `{"hot_threshold": "high"`)

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), WeightsEnvVar)
}

func TestMergeWeightsJSON(t *testing.T) {
	base := DefaultWeights()

	merged, err := MergeWeightsJSON(base, []byte(`{"rev_min": 500000}`))
	require.NoError(t, err)
	assert.InDelta(t, 500_000, merged.RevMin, 0)
	assert.InDelta(t, base.RevMax, merged.RevMax, 0)

	unchanged, err := MergeWeightsJSON(base, []byte(`not json`))
	assert.Error(t, err)
	assert.Equal(t, base, unchanged)
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

// validDefaults returns a Config with all defaults populated for validation tests.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Server.Port = 8080
	cfg.Server.RateLimit = 10
	cfg.Server.RateBurst = 20
	cfg.Source.URI = "leads.csv"
	cfg.Scoring.Concurrency = 8
	cfg.Scoring.Weights = DefaultWeights()
	return cfg
}

func TestValidateServe_Valid(t *testing.T) {
	assert.NoError(t, validDefaults().Validate("serve"))
}

func TestValidateServe_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		want   string
	}{
		{"port zero", func(c *Config) { c.Server.Port = 0 }, "server.port must be > 0"},
		{"port too high", func(c *Config) { c.Server.Port = 70000 }, "server.port must be > 0"},
		{"negative rate", func(c *Config) { c.Server.RateLimit = -1 }, "server.rate_limit must be >= 0"},
		{"rate without burst", func(c *Config) { c.Server.RateBurst = 0 }, "server.rate_burst must be > 0"},
		{"no source", func(c *Config) { c.Source.URI = "" }, "source.uri is required"},
		{"persist without store", func(c *Config) { c.Server.PersistRuns = true }, "persist_runs"},
		{"store source without store", func(c *Config) { c.Source.URI = "store" }, `source.uri is "store"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validDefaults()
			tt.mutate(cfg)

			err := cfg.Validate("serve")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidateServe_RateLimitDisabled(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.RateLimit = 0
	cfg.Server.RateBurst = 0
	assert.NoError(t, cfg.Validate("serve"))
}

func TestValidateServe_ReportsAllProblems(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.Port = 0
	cfg.Source.URI = ""

	err := cfg.Validate("serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.port")
	assert.Contains(t, err.Error(), "source.uri")
}

func TestValidateScore(t *testing.T) {
	cfg := validDefaults()
	cfg.Source.URI = ""
	cfg.Server.Port = 0
	assert.NoError(t, cfg.Validate("score"))
}

func TestValidateStore(t *testing.T) {
	cfg := validDefaults()
	err := cfg.Validate("store")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.driver is required")

	cfg.Store.Driver = "sqlite"
	assert.NoError(t, cfg.Validate("store"))
}

func TestValidateStoreDrivers(t *testing.T) {
	cfg := validDefaults()

	cfg.Store.Driver = "postgres"
	err := cfg.Validate("store")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.database_url is required")

	cfg.Store.DatabaseURL = "postgres://localhost/leads"
	assert.NoError(t, cfg.Validate("store"))

	cfg.Store.Driver = "mysql"
	err = cfg.Validate("store")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `store.driver must be sqlite or postgres (got "mysql")`)
}

func TestValidateUnknownMode(t *testing.T) {
	cfg := validDefaults()
	err := cfg.Validate("unknown")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}

func TestValidateConcurrencyBounds(t *testing.T) {
	cfg := validDefaults()

	cfg.Scoring.Concurrency = 0
	err := cfg.Validate("score")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "scoring.concurrency must be between 1 and 256")

	cfg.Scoring.Concurrency = 257
	assert.Error(t, cfg.Validate("score"))

	cfg.Scoring.Concurrency = 256
	assert.NoError(t, cfg.Validate("score"))
}
