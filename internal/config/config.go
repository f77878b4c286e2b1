package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// WeightsEnvVar holds an inline JSON weights document that takes precedence
// over every other weights source.
const WeightsEnvVar = "LEAD_SCORING_WEIGHTS_JSON"

// Config holds the full application configuration.
type Config struct {
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	Source  SourceConfig  `yaml:"source" mapstructure:"source"`
	Scoring ScoringConfig `yaml:"scoring" mapstructure:"scoring"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend. An empty driver disables
// persistence.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// SourceConfig points at the upstream lead data the API serves from.
// URI is a local path or http(s)/ftp URL; "store" reads from the configured
// store.
type SourceConfig struct {
	URI              string `yaml:"uri" mapstructure:"uri"`
	FTPTimeout       int    `yaml:"ftp_timeout_secs" mapstructure:"ftp_timeout_secs"`
	BreakerThreshold int    `yaml:"breaker_threshold" mapstructure:"breaker_threshold"`
	BreakerResetSecs int    `yaml:"breaker_reset_secs" mapstructure:"breaker_reset_secs"`
}

// ScoringConfig configures the scoring engine.
type ScoringConfig struct {
	WeightsFile string       `yaml:"weights_file" mapstructure:"weights_file"`
	Weights     ScoreWeights `yaml:"weights" mapstructure:"weights"`
	Concurrency int          `yaml:"concurrency" mapstructure:"concurrency"`
}

// ScoreWeights defines the ideal employee and revenue bands, the relative
// emphasis of each factor, and the tier thresholds.
type ScoreWeights struct {
	EmployeeMin float64 `yaml:"employee_min" mapstructure:"employee_min" json:"employee_min"`
	EmployeeMax float64 `yaml:"employee_max" mapstructure:"employee_max" json:"employee_max"`
	RevMin      float64 `yaml:"rev_min" mapstructure:"rev_min" json:"rev_min"`
	RevMax      float64 `yaml:"rev_max" mapstructure:"rev_max" json:"rev_max"`

	WEmployeeFit         float64 `yaml:"w_employee_fit" mapstructure:"w_employee_fit" json:"w_employee_fit"`
	WRevenueFit          float64 `yaml:"w_revenue_fit" mapstructure:"w_revenue_fit" json:"w_revenue_fit"`
	WIndustryMatch       float64 `yaml:"w_industry_match" mapstructure:"w_industry_match" json:"w_industry_match"`
	WLocationMatch       float64 `yaml:"w_location_match" mapstructure:"w_location_match" json:"w_location_match"`
	WContactCompleteness float64 `yaml:"w_contact_completeness" mapstructure:"w_contact_completeness" json:"w_contact_completeness"`
	WGrowthSignal        float64 `yaml:"w_growth_signal" mapstructure:"w_growth_signal" json:"w_growth_signal"`

	HotThreshold  float64 `yaml:"hot_threshold" mapstructure:"hot_threshold" json:"hot_threshold"`
	WarmThreshold float64 `yaml:"warm_threshold" mapstructure:"warm_threshold" json:"warm_threshold"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	RateLimit      float64  `yaml:"rate_limit" mapstructure:"rate_limit"`
	RateBurst      int      `yaml:"rate_burst" mapstructure:"rate_burst"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	PersistRuns    bool     `yaml:"persist_runs" mapstructure:"persist_runs"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from .env, config.yaml, and the environment.
// Weight overrides from LEAD_SCORING_WEIGHTS_JSON are merged last.
func Load() (*Config, error) {
	// .env is optional; a missing file is not an error.
	_ = godotenv.Load()

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("LEADSCORE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("store.driver", "")
	v.SetDefault("store.database_url", "")
	v.SetDefault("store.max_conns", 10)
	v.SetDefault("store.min_conns", 2)
	v.SetDefault("source.uri", "")
	v.SetDefault("source.ftp_timeout_secs", 30)
	v.SetDefault("source.breaker_threshold", 5)
	v.SetDefault("source.breaker_reset_secs", 30)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.rate_limit", 10.0)
	v.SetDefault("server.rate_burst", 20)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.persist_runs", false)
	v.SetDefault("scoring.concurrency", 8)
	v.SetDefault("scoring.weights_file", "")

	d := DefaultWeights()
	v.SetDefault("scoring.weights.employee_min", d.EmployeeMin)
	v.SetDefault("scoring.weights.employee_max", d.EmployeeMax)
	v.SetDefault("scoring.weights.rev_min", d.RevMin)
	v.SetDefault("scoring.weights.rev_max", d.RevMax)
	v.SetDefault("scoring.weights.w_employee_fit", d.WEmployeeFit)
	v.SetDefault("scoring.weights.w_revenue_fit", d.WRevenueFit)
	v.SetDefault("scoring.weights.w_industry_match", d.WIndustryMatch)
	v.SetDefault("scoring.weights.w_location_match", d.WLocationMatch)
	v.SetDefault("scoring.weights.w_contact_completeness", d.WContactCompleteness)
	v.SetDefault("scoring.weights.w_growth_signal", d.WGrowthSignal)
	v.SetDefault("scoring.weights.hot_threshold", d.HotThreshold)
	v.SetDefault("scoring.weights.warm_threshold", d.WarmThreshold)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	if raw := os.Getenv(WeightsEnvVar); raw != "" {
		merged, err := MergeWeightsJSON(cfg.Scoring.Weights, []byte(raw))
		if err != nil {
			return nil, eris.Wrapf(err, "config: parse %s", WeightsEnvVar)
		}
		cfg.Scoring.Weights = merged
	}

	return &cfg, nil
}

// DefaultWeights returns the stock scoring configuration. Weights sum to 100
// but need not; the aggregator normalizes.
func DefaultWeights() ScoreWeights {
	return ScoreWeights{
		EmployeeMin: 10,
		EmployeeMax: 200,
		RevMin:      1_000_000,
		RevMax:      50_000_000,

		WEmployeeFit:         25,
		WRevenueFit:          20,
		WIndustryMatch:       15,
		WLocationMatch:       10,
		WContactCompleteness: 20,
		WGrowthSignal:        10,

		HotThreshold:  70,
		WarmThreshold: 40,
	}
}

// MergeWeightsJSON overlays the keys present in a JSON document onto base.
// Keys absent from the document keep their base value.
func MergeWeightsJSON(base ScoreWeights, data []byte) (ScoreWeights, error) {
	merged := base
	if err := json.Unmarshal(data, &merged); err != nil {
		return base, eris.Wrap(err, "config: decode weights json")
	}
	return merged, nil
}

// Validate checks the settings a given command depends on. Weight
// consistency is checked separately by the scorer package.
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "serve":
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, "server.port must be > 0 and <= 65535")
		}
		if c.Server.RateLimit < 0 {
			errs = append(errs, "server.rate_limit must be >= 0")
		}
		if c.Server.RateLimit > 0 && c.Server.RateBurst <= 0 {
			errs = append(errs, "server.rate_burst must be > 0 when rate_limit is set")
		}
		if c.Source.URI == "" {
			errs = append(errs, "source.uri is required (file path, http(s)/ftp URL, or \"store\")")
		}
		if c.Server.PersistRuns && c.Store.Driver == "" {
			errs = append(errs, "store.driver is required when server.persist_runs is enabled")
		}
		if c.Source.URI == "store" && c.Store.Driver == "" {
			errs = append(errs, "store.driver is required when source.uri is \"store\"")
		}
	case "score":
	case "store":
		if c.Store.Driver == "" {
			errs = append(errs, "store.driver is required")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	switch c.Store.Driver {
	case "", "sqlite":
	case "postgres":
		if c.Store.DatabaseURL == "" {
			errs = append(errs, "store.database_url is required for postgres")
		}
	default:
		errs = append(errs, fmt.Sprintf("store.driver must be sqlite or postgres (got %q)", c.Store.Driver))
	}

	if c.Scoring.Concurrency < 1 || c.Scoring.Concurrency > 256 {
		errs = append(errs, "scoring.concurrency must be between 1 and 256")
	}

	if len(errs) > 0 {
		return eris.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
