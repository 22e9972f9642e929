package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "taxilog"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	Extraction   ExtractionConfig
	Activation   ActivationConfig
	Cron         CronConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"TAXILOG_APP_ENV" default:"dev"`
	Port         string `envconfig:"TAXILOG_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"TAXILOG_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"TAXILOG_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"TAXILOG_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	// Driver selects sqlite (local-first default) or postgres.
	Driver string `envconfig:"TAXILOG_DB_DRIVER" default:"sqlite"`
	// DSN is a postgres URL or a sqlite file path.
	DSN string `envconfig:"TAXILOG_DB_DSN" default:"taxilog.db"`

	MaxOpenConns    int           `envconfig:"TAXILOG_DB_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `envconfig:"TAXILOG_DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"TAXILOG_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"TAXILOG_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

const (
	DBDriverSQLite   = "sqlite"
	DBDriverPostgres = "postgres"
)

func (db DBConfig) validate() error {
	switch strings.ToLower(strings.TrimSpace(db.Driver)) {
	case DBDriverSQLite, DBDriverPostgres:
	default:
		return fmt.Errorf("unsupported db driver %q", db.Driver)
	}
	if strings.TrimSpace(db.DSN) == "" {
		return fmt.Errorf("TAXILOG_DB_DSN is required")
	}
	return nil
}

type RedisConfig struct {
	URL          string        `envconfig:"TAXILOG_REDIS_URL"`
	Address      string        `envconfig:"TAXILOG_REDIS_ADDR"`
	Password     string        `envconfig:"TAXILOG_REDIS_PASSWORD"`
	DB           int           `envconfig:"TAXILOG_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"TAXILOG_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"TAXILOG_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"TAXILOG_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"TAXILOG_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"TAXILOG_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// ExtractionConfig points at the hosted image-to-fields endpoint.
type ExtractionConfig struct {
	APIKey  string        `envconfig:"TAXILOG_EXTRACTION_API_KEY"`
	BaseURL string        `envconfig:"TAXILOG_EXTRACTION_BASE_URL"`
	Model   string        `envconfig:"TAXILOG_EXTRACTION_MODEL" default:"gemini-2.0-flash"`
	Timeout time.Duration `envconfig:"TAXILOG_EXTRACTION_TIMEOUT" default:"30s"`
}

type ActivationConfig struct {
	TrialDays   int `envconfig:"TAXILOG_ACTIVATION_TRIAL_DAYS" default:"10"`
	RenewalDays int `envconfig:"TAXILOG_ACTIVATION_RENEWAL_DAYS" default:"90"`
	// WarningDays is the remaining-days threshold below which the cron
	// worker logs expiry warnings.
	WarningDays int `envconfig:"TAXILOG_ACTIVATION_WARNING_DAYS" default:"5"`
}

type CronConfig struct {
	Interval time.Duration `envconfig:"TAXILOG_CRON_INTERVAL" default:"24h"`
	// LockKey is namespaced by the redis client, so the default expands
	// to txl:lock:cron-worker.
	LockKey  string        `envconfig:"TAXILOG_CRON_LOCK_KEY" default:"cron-worker"`
	LockTTL  time.Duration `envconfig:"TAXILOG_CRON_LOCK_TTL" default:"25h"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"TAXILOG_AUTO_MIGRATE" default:"false"`
}
