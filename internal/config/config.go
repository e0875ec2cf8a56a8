package config

import (
	"github.com/maxviazov/scorebook-stats-service/internal/extractor"
	"github.com/maxviazov/scorebook-stats-service/internal/logger"
	"github.com/maxviazov/scorebook-stats-service/internal/stats"
)

type Config struct {
	App        App                 `mapstructure:"app"`
	Logger     logger.LoggerConfig `mapstructure:"logger"`
	Postgres   Postgres            `mapstructure:"postgres"`
	Redis      Redis               `mapstructure:"redis"`
	Vision     Vision              `mapstructure:"vision"`
	Extraction Extraction          `mapstructure:"extraction"`
	Ingestion  Ingestion           `mapstructure:"ingestion"`
	Stats      Stats               `mapstructure:"stats"`
	HTTP       HTTP                `mapstructure:"http"`
}

type App struct {
	Name            string `mapstructure:"name"`
	Version         string `mapstructure:"version"`
	Env             string `mapstructure:"env"`
	Port            int    `mapstructure:"port" validate:"gt=0,lte=65535"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout" validate:"gte=0"`
}

// Postgres holds connection and pool settings. User, Password and DBName
// are secrets and usually arrive through APP_POSTGRES_* variables.
type Postgres struct {
	Host              string `mapstructure:"host" validate:"required"`
	Port              int    `mapstructure:"port" validate:"gt=0,lte=65535"`
	User              string `mapstructure:"user" validate:"required"`
	Password          string `mapstructure:"password" validate:"required"`
	DBName            string `mapstructure:"db" validate:"required"`
	SSLMode           string `mapstructure:"sslmode"`
	MaxConns          int32  `mapstructure:"max_conns" validate:"gte=0"`
	MinConns          int32  `mapstructure:"min_conns" validate:"gte=0"`
	MaxConnLifetime   int    `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime   int    `mapstructure:"max_conn_idle_time"`
	HealthCheckPeriod int    `mapstructure:"health_check_period"`
}

// Redis is optional. When disabled the service falls back to in-process
// team locks and skips stat-sheet caching.
type Redis struct {
	Enabled         bool   `mapstructure:"enabled"`
	URL             string `mapstructure:"url" validate:"required_if=Enabled true"`
	LockTTLSeconds  int    `mapstructure:"lock_ttl_seconds" validate:"gte=0"`
	CacheTTLSeconds int    `mapstructure:"cache_ttl_seconds" validate:"gte=0"`
}

type Vision struct {
	APIKey         string `mapstructure:"api_key"`
	BaseURL        string `mapstructure:"base_url" validate:"omitempty,url"`
	Model          string `mapstructure:"model"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds" validate:"gte=0"`
	RetryAttempts  int    `mapstructure:"retry_attempts" validate:"gte=0"`
	MaxTokens      int    `mapstructure:"max_tokens" validate:"gte=0"`
}

type Extraction struct {
	Policy         string              `mapstructure:"policy" validate:"oneof=drop reject keep"`
	TimeoutSeconds int                 `mapstructure:"timeout_seconds" validate:"gte=0"`
	Examples       []extractor.Example `mapstructure:"examples" validate:"dive"`
}

type Ingestion struct {
	// ValidateManual applies the PA/H identities to manual entry as well.
	ValidateManual bool `mapstructure:"validate_manual"`
}

type Stats struct {
	OBPFormula string        `mapstructure:"obp_formula" validate:"oneof=plate_appearances standard"`
	Weights    stats.Weights `mapstructure:"weights"`
}

type HTTP struct {
	UploadRatePerMinute int   `mapstructure:"upload_rate_per_minute" validate:"gte=0"`
	UploadBurst         int   `mapstructure:"upload_burst" validate:"gte=0"`
	MaxUploadBytes      int64 `mapstructure:"max_upload_bytes" validate:"gt=0"`
}

// StatsOptions converts the stats section into engine options.
func (c *Config) StatsOptions() stats.Options {
	return stats.Options{Weights: c.Stats.Weights, OBP: stats.OBPFormula(c.Stats.OBPFormula)}
}
