// Package config handles application configuration loading and validation using Viper.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Redmine     RedmineConfig     `mapstructure:"redmine"`
	Scheduler   SchedulerConfig   `mapstructure:"scheduler"`
	Aggregation AggregationConfig `mapstructure:"aggregation"`
	Metrics     MetricsConfig     `mapstructure:"metrics"`
	Logging     LoggingConfig     `mapstructure:"logging"`
	Holidays    HolidaysConfig    `mapstructure:"holidays"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Port        int    `mapstructure:"port"`
	Environment string `mapstructure:"environment"`
}

// DatabaseConfig contains database connection settings for PostgreSQL and Redis.
type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

// PostgresConfig contains PostgreSQL database connection and pool settings.
type PostgresConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Database        string `mapstructure:"database"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	SSLMode         string `mapstructure:"ssl_mode"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
	MigrationsDir   string `mapstructure:"migrations_dir"`
}

// RedisConfig contains Redis cache connection and pool settings.
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

// RedmineConfig contains Redmine API connection and import settings.
// When URL or APIKey is empty the Redmine integration is disabled and
// all import and availability lookups return empty results.
type RedmineConfig struct {
	URL                 string `mapstructure:"url"`
	APIKey              string `mapstructure:"api_key"`
	IssueContractField  string `mapstructure:"issue_contract_field"`
	TimeoutSeconds      int    `mapstructure:"timeout_seconds"`
	CacheTTLSeconds     int    `mapstructure:"cache_ttl_seconds"`
	ParentLookupBatch   int    `mapstructure:"parent_lookup_batch"`
	AvailabilityProject string `mapstructure:"availability_project"`
}

// ParentBatch returns the issue batch size for parent chain lookups.
func (c *RedmineConfig) ParentBatch() int {
	if c.ParentLookupBatch <= 0 {
		return 100
	}
	return c.ParentLookupBatch
}

// Timeout returns the HTTP client timeout for Redmine requests.
func (c *RedmineConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// CacheTTL returns the TTL for cached Redmine lookups.
func (c *RedmineConfig) CacheTTL() time.Duration {
	if c.CacheTTLSeconds <= 0 {
		return 15 * time.Minute
	}
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// Enabled reports whether the Redmine integration is configured.
func (c *RedmineConfig) Enabled() bool {
	return c.URL != "" && c.APIKey != ""
}

// SchedulerConfig contains background job scheduler settings.
type SchedulerConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	TimesheetCron  string `mapstructure:"timesheet_cron"`
	ImportCron     string `mapstructure:"import_cron"`
	Timezone       string `mapstructure:"timezone"`
	ImportTimeout  int    `mapstructure:"import_timeout"`
}

// GetLocation returns the timezone location.
func (c *SchedulerConfig) GetLocation() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// AggregationConfig contains range aggregation settings.
type AggregationConfig struct {
	Workers int `mapstructure:"workers"`
}

// WorkerCount returns the per-request user fan-out limit.
func (c *AggregationConfig) WorkerCount() int {
	if c.Workers <= 0 {
		return 8
	}
	return c.Workers
}

// MetricsConfig contains metrics exporter settings.
type MetricsConfig struct {
	Prometheus PrometheusConfig `mapstructure:"prometheus"`
}

// PrometheusConfig contains Prometheus metrics exporter settings.
type PrometheusConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// LoggingConfig contains application logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// HolidaysConfig contains holiday calendar import settings.
type HolidaysConfig struct {
	CalendarDir string `mapstructure:"calendar_dir"`
}

// Load reads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/925r/")
	}

	// Bind specific environment variables (explicit bindings for 12-factor app compliance)
	// Server configuration
	_ = v.BindEnv("server.port", "SERVER_PORT")
	_ = v.BindEnv("server.environment", "SERVER_ENVIRONMENT")

	// PostgreSQL configuration
	_ = v.BindEnv("database.postgres.host", "POSTGRES_HOST")
	_ = v.BindEnv("database.postgres.port", "POSTGRES_PORT")
	_ = v.BindEnv("database.postgres.database", "POSTGRES_DB")
	_ = v.BindEnv("database.postgres.user", "POSTGRES_USER")
	_ = v.BindEnv("database.postgres.password", "POSTGRES_PASSWORD")
	_ = v.BindEnv("database.postgres.ssl_mode", "POSTGRES_SSL_MODE")
	_ = v.BindEnv("database.postgres.max_open_conns", "POSTGRES_MAX_OPEN_CONNS")
	_ = v.BindEnv("database.postgres.max_idle_conns", "POSTGRES_MAX_IDLE_CONNS")
	_ = v.BindEnv("database.postgres.conn_max_lifetime", "POSTGRES_CONN_MAX_LIFETIME")
	_ = v.BindEnv("database.postgres.migrations_dir", "POSTGRES_MIGRATIONS_DIR")

	// Redis configuration
	_ = v.BindEnv("database.redis.host", "REDIS_HOST")
	_ = v.BindEnv("database.redis.port", "REDIS_PORT")
	_ = v.BindEnv("database.redis.password", "REDIS_PASSWORD")
	_ = v.BindEnv("database.redis.db", "REDIS_DB")
	_ = v.BindEnv("database.redis.pool_size", "REDIS_POOL_SIZE")

	// Redmine configuration
	_ = v.BindEnv("redmine.url", "REDMINE_URL")
	_ = v.BindEnv("redmine.api_key", "REDMINE_API_KEY")
	_ = v.BindEnv("redmine.issue_contract_field", "REDMINE_ISSUE_CONTRACT_FIELD")
	_ = v.BindEnv("redmine.timeout_seconds", "REDMINE_TIMEOUT_SECONDS")
	_ = v.BindEnv("redmine.cache_ttl_seconds", "REDMINE_CACHE_TTL_SECONDS")
	_ = v.BindEnv("redmine.availability_project", "REDMINE_AVAILABILITY_PROJECT")

	// Scheduler configuration
	_ = v.BindEnv("scheduler.enabled", "SCHEDULER_ENABLED")
	_ = v.BindEnv("scheduler.timesheet_cron", "SCHEDULER_TIMESHEET_CRON")
	_ = v.BindEnv("scheduler.import_cron", "SCHEDULER_IMPORT_CRON")
	_ = v.BindEnv("scheduler.timezone", "SCHEDULER_TIMEZONE")
	_ = v.BindEnv("scheduler.import_timeout", "SCHEDULER_IMPORT_TIMEOUT")

	// Aggregation configuration
	_ = v.BindEnv("aggregation.workers", "AGGREGATION_WORKERS")

	// Logging configuration
	_ = v.BindEnv("logging.level", "LOG_LEVEL")
	_ = v.BindEnv("logging.format", "LOG_FORMAT")
	_ = v.BindEnv("logging.output", "LOG_OUTPUT")

	// Holidays configuration
	_ = v.BindEnv("holidays.calendar_dir", "HOLIDAYS_CALENDAR_DIR")

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Database.Postgres.Host == "" {
		return fmt.Errorf("database.postgres.host is required")
	}
	if c.Database.Postgres.Database == "" {
		return fmt.Errorf("database.postgres.database is required")
	}
	if c.Database.Postgres.User == "" {
		return fmt.Errorf("database.postgres.user is required")
	}
	if c.Database.Redis.Host == "" {
		return fmt.Errorf("database.redis.host is required")
	}
	if c.Redmine.URL != "" && c.Redmine.APIKey == "" {
		return fmt.Errorf("redmine.api_key is required when redmine.url is set")
	}

	return nil
}
