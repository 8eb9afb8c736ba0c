package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "xeenaps.yaml"

// DefaultEnvFile is the dotenv file loaded before the environment overlay.
const DefaultEnvFile = ".env"

// EnvAPIKeyHash carries auth.api_key_hash. It is re-read on SIGHUP.
const EnvAPIKeyHash = "XEENAPS_API_KEY_HASH"

// Load returns a Config using the hierarchy: defaults < YAML < ENV.
// The .env and YAML files are optional; missing files are not an error.
func Load() (*Config, error) {
	if err := LoadDotEnv(DefaultEnvFile); err != nil {
		return nil, fmt.Errorf("config dotenv: %w", err)
	}
	return LoadFrom(DefaultConfigFile)
}

// LoadDotEnv loads KEY=VALUE pairs from path into the process environment.
// Variables that are already set win over the file.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// LoadFrom returns a Config loaded from the given YAML path using the
// hierarchy: defaults < YAML < ENV. The YAML file is optional.
func LoadFrom(yamlPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	loadEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}

	return &cfg, nil
}

// loadYAML reads the YAML file and unmarshals it over cfg.
// Returns nil if the file does not exist.
func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is validated by caller
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return nil
}

// loadEnv overlays environment variables onto cfg.
// Only non-empty env values override the current config.
func loadEnv(cfg *Config) {
	setString(&cfg.Server.Port, "XEENAPS_PORT")
	setString(&cfg.Server.CORSOrigin, "XEENAPS_CORS_ORIGIN")
	setInt64(&cfg.Server.BodyLimit, "XEENAPS_BODY_LIMIT")
	setInt64(&cfg.Server.UploadLimit, "XEENAPS_UPLOAD_LIMIT")
	setDuration(&cfg.Server.RequestTimeout, "XEENAPS_REQUEST_TIMEOUT")
	setDuration(&cfg.Server.ShutdownTimeout, "XEENAPS_SHUTDOWN_TIMEOUT")

	setString(&cfg.Postgres.DSN, "DATABASE_URL")
	setInt32(&cfg.Postgres.MaxConns, "XEENAPS_PG_MAX_CONNS")
	setInt32(&cfg.Postgres.MinConns, "XEENAPS_PG_MIN_CONNS")
	setDuration(&cfg.Postgres.MaxConnLifetime, "XEENAPS_PG_MAX_CONN_LIFETIME")
	setDuration(&cfg.Postgres.MaxConnIdleTime, "XEENAPS_PG_MAX_CONN_IDLE_TIME")
	setDuration(&cfg.Postgres.HealthCheck, "XEENAPS_PG_HEALTH_CHECK")

	setString(&cfg.NATS.URL, "NATS_URL")
	setString(&cfg.NATS.Stream, "XEENAPS_NATS_STREAM")
	setDuration(&cfg.NATS.MaxAge, "XEENAPS_NATS_MAX_AGE")

	setInt64(&cfg.Cache.L1MaxSizeMB, "XEENAPS_CACHE_L1_SIZE_MB")
	setString(&cfg.Cache.L2Bucket, "XEENAPS_CACHE_L2_BUCKET")
	setDuration(&cfg.Cache.L2TTL, "XEENAPS_CACHE_L2_TTL")
	setDuration(&cfg.Cache.LogContentTTL, "XEENAPS_CACHE_LOG_TTL")
	setDuration(&cfg.Cache.AdTTL, "XEENAPS_CACHE_AD_TTL")

	setString(&cfg.Storage.Driver, "XEENAPS_STORAGE_DRIVER")
	setString(&cfg.Storage.GASURL, "GAS_WEB_APP_URL")
	setList(&cfg.Storage.NodeHosts, "XEENAPS_STORAGE_NODE_HOSTS")
	setDuration(&cfg.Storage.HTTPTimeout, "XEENAPS_STORAGE_TIMEOUT")
	setString(&cfg.Storage.S3Bucket, "XEENAPS_S3_BUCKET")
	setString(&cfg.Storage.S3Region, "XEENAPS_S3_REGION")
	setString(&cfg.Storage.S3Endpoint, "XEENAPS_S3_ENDPOINT")
	setBool(&cfg.Storage.S3PathStyle, "XEENAPS_S3_PATH_STYLE")
	setString(&cfg.Storage.S3AccessKey, "XEENAPS_S3_ACCESS_KEY")
	setString(&cfg.Storage.S3SecretKey, "XEENAPS_S3_SECRET_KEY")
	setInt(&cfg.Storage.CleanupConcurrency, "XEENAPS_CLEANUP_CONCURRENCY")
	setDuration(&cfg.Storage.CleanupTimeout, "XEENAPS_CLEANUP_TIMEOUT")

	setString(&cfg.AI.Provider, "XEENAPS_AI_PROVIDER")
	setString(&cfg.AI.Model, "XEENAPS_AI_MODEL")
	setString(&cfg.AI.GeminiAPIKey, "GEMINI_API_KEY")
	setDuration(&cfg.AI.Timeout, "XEENAPS_AI_TIMEOUT")
	setDuration(&cfg.AI.AuditTimeout, "XEENAPS_AUDIT_TIMEOUT")
	setString(&cfg.LiteLLM.URL, "LITELLM_URL")
	setString(&cfg.LiteLLM.MasterKey, "LITELLM_MASTER_KEY")

	setString(&cfg.Ads.CSVURL, "XEENAPS_ADS_CSV_URL")
	setDuration(&cfg.Ads.Timeout, "XEENAPS_ADS_TIMEOUT")

	setString(&cfg.Profile.Name, "XEENAPS_PROFILE_NAME")
	setString(&cfg.Profile.Timezone, "XEENAPS_TIMEZONE")

	setBool(&cfg.Auth.Enabled, "XEENAPS_AUTH_ENABLED")
	setString(&cfg.Auth.APIKeyHash, EnvAPIKeyHash)

	setString(&cfg.Logging.Level, "XEENAPS_LOG_LEVEL")
	setString(&cfg.Logging.Service, "XEENAPS_LOG_SERVICE")
	setBool(&cfg.Logging.Async, "XEENAPS_LOG_ASYNC")
	setInt(&cfg.Logging.AsyncBuffer, "XEENAPS_LOG_ASYNC_BUFFER")
	setInt(&cfg.Logging.AsyncWorkers, "XEENAPS_LOG_ASYNC_WORKERS")

	setInt(&cfg.Breaker.MaxFailures, "XEENAPS_BREAKER_MAX_FAILURES")
	setDuration(&cfg.Breaker.Timeout, "XEENAPS_BREAKER_TIMEOUT")

	setFloat64(&cfg.Rate.RequestsPerSecond, "XEENAPS_RATE_RPS")
	setInt(&cfg.Rate.Burst, "XEENAPS_RATE_BURST")
	setDuration(&cfg.Rate.CleanupInterval, "XEENAPS_RATE_CLEANUP_INTERVAL")
	setDuration(&cfg.Rate.MaxIdleTime, "XEENAPS_RATE_MAX_IDLE_TIME")

	setBool(&cfg.OTEL.Enabled, "XEENAPS_OTEL_ENABLED")
	setString(&cfg.OTEL.Endpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
	setBool(&cfg.OTEL.Insecure, "XEENAPS_OTEL_INSECURE")
	setString(&cfg.OTEL.ServiceName, "OTEL_SERVICE_NAME")
	setFloat64(&cfg.OTEL.SampleRate, "XEENAPS_OTEL_SAMPLE_RATE")

	setBool(&cfg.MCP.Enabled, "XEENAPS_MCP_ENABLED")
	setString(&cfg.MCP.Addr, "XEENAPS_MCP_ADDR")
}

// validate checks that required fields are set.
func validate(cfg *Config) error {
	if cfg.Server.Port == "" {
		return errors.New("server.port is required")
	}
	if cfg.Postgres.DSN == "" {
		return errors.New("postgres.dsn is required")
	}
	if cfg.Postgres.MaxConns < 1 {
		return errors.New("postgres.max_conns must be >= 1")
	}
	switch cfg.Storage.Driver {
	case "gas":
	case "s3":
		if cfg.Storage.S3Bucket == "" {
			return errors.New("storage.s3_bucket is required for the s3 driver")
		}
	default:
		return fmt.Errorf("storage.driver %q is not one of gas, s3", cfg.Storage.Driver)
	}
	if cfg.Storage.CleanupConcurrency < 1 {
		return errors.New("storage.cleanup_concurrency must be >= 1")
	}
	switch cfg.AI.Provider {
	case "gemini", "litellm", "gas":
	default:
		return fmt.Errorf("ai.provider %q is not one of gemini, litellm, gas", cfg.AI.Provider)
	}
	if cfg.Auth.Enabled && cfg.Auth.APIKeyHash == "" {
		return errors.New("auth.api_key_hash is required when auth is enabled")
	}
	if cfg.Breaker.MaxFailures < 1 {
		return errors.New("breaker.max_failures must be >= 1")
	}
	if cfg.Rate.Burst < 1 {
		return errors.New("rate.burst must be >= 1")
	}
	if cfg.OTEL.SampleRate < 0 || cfg.OTEL.SampleRate > 1 {
		return errors.New("otel.sample_rate must be within [0, 1]")
	}
	if cfg.Profile.Timezone != "" {
		if _, err := time.LoadLocation(cfg.Profile.Timezone); err != nil {
			return fmt.Errorf("profile.timezone: %w", err)
		}
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// setList splits a comma separated value, dropping empty entries.
func setList(dst *[]string, key string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	var out []string
	for item := range strings.SplitSeq(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	*dst = out
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt32(dst *int32, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 32); err == nil {
			*dst = int32(n)
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
