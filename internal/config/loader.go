package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/maxviazov/scorebook-stats-service/internal/stats"
)

// Load reads the YAML file at path, overlays APP_* environment variables
// (postgres.user -> APP_POSTGRES_USER) and validates the result. A .env file
// next to the config or in the working directory is loaded first if present.
func Load(path string) (*Config, error) {
	loadDotEnv(filepath.Join(filepath.Dir(path), ".env"), ".env")

	v := viper.New()
	v.SetConfigFile(path)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix("APP")
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config file not found: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	config.Logger.ApplyDefaults()
	if err := validator.New().Struct(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &config, nil
}

func loadDotEnv(paths ...string) {
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "config: ignoring %s: %v\n", p, err)
		}
	}
}

// setDefaults registers every key so AutomaticEnv can override keys that
// are absent from the YAML file.
func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "scorebook-stats-service")
	v.SetDefault("app.version", "0.1.0")
	v.SetDefault("app.env", "dev")
	v.SetDefault("app.port", 8080)
	v.SetDefault("app.shutdown_timeout", 10)

	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.user", "")
	v.SetDefault("postgres.password", "")
	v.SetDefault("postgres.db", "")
	v.SetDefault("postgres.sslmode", "disable")
	v.SetDefault("postgres.max_conns", 10)
	v.SetDefault("postgres.min_conns", 1)
	v.SetDefault("postgres.max_conn_lifetime", 3600)
	v.SetDefault("postgres.max_conn_idle_time", 300)
	v.SetDefault("postgres.health_check_period", 30)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.url", "")
	v.SetDefault("redis.lock_ttl_seconds", 30)
	v.SetDefault("redis.cache_ttl_seconds", 300)

	v.SetDefault("vision.api_key", "")
	v.SetDefault("vision.base_url", "")
	v.SetDefault("vision.model", "gpt-4o")
	v.SetDefault("vision.timeout_seconds", 90)
	v.SetDefault("vision.retry_attempts", 3)
	v.SetDefault("vision.max_tokens", 4096)

	v.SetDefault("extraction.policy", "drop")
	v.SetDefault("extraction.timeout_seconds", 120)

	v.SetDefault("ingestion.validate_manual", false)

	v.SetDefault("stats.obp_formula", string(stats.OBPPlateAppearances))
	v.SetDefault("stats.weights.bb", stats.DefaultWeights.BB)
	v.SetDefault("stats.weights.hbp", stats.DefaultWeights.HBP)
	v.SetDefault("stats.weights.single", stats.DefaultWeights.Single)
	v.SetDefault("stats.weights.double", stats.DefaultWeights.Double)
	v.SetDefault("stats.weights.triple", stats.DefaultWeights.Triple)
	v.SetDefault("stats.weights.hr", stats.DefaultWeights.HR)

	v.SetDefault("http.upload_rate_per_minute", 6)
	v.SetDefault("http.upload_burst", 2)
	v.SetDefault("http.max_upload_bytes", 10<<20)
}
