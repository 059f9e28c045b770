// Package config provides centralized configuration management for the roster
// tool. It loads configuration from environment variables with sensible
// defaults and validates all settings on startup to fail fast on
// misconfiguration.
package config

import "time"

// Storage backends.
const (
	BackendFile     = "file"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
	BackendMemory   = "memory"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Store   StoreConfig
	Engine  EngineConfig
	Import  ImportConfig
	Logging LoggingConfig
}

// StoreConfig selects and configures the durable storage backend.
type StoreConfig struct {
	// Backend is one of file, sqlite, postgres, redis, memory (default: file)
	Backend string `env:"STORE_BACKEND" default:"file"`

	// Dir is the data directory of the file backend (default: ./data)
	Dir string `env:"STORE_DIR" default:"./data"`

	// SQLitePath is the database file of the sqlite backend (default: ./data/roster.db)
	SQLitePath string `env:"STORE_SQLITE_PATH" default:"./data/roster.db"`

	// KeyPrefix namespaces collection keys in shared backends (default: roster)
	KeyPrefix string `env:"STORE_KEY_PREFIX" default:"roster"`

	// Timeout bounds every single load or save call (default: 10s)
	Timeout time.Duration `env:"STORE_TIMEOUT" default:"10s"`

	Database DatabaseConfig
	Redis    RedisConfig
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string, required for the postgres backend
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	// MaxConns is the maximum number of connections in the pool (default: 4)
	MaxConns int `env:"DB_MAX_CONNS" default:"4"`

	// MinConns is the minimum number of connections to keep open (default: 1)
	MinConns int `env:"DB_MIN_CONNS" default:"1"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	// Addr is host:port of the Redis server (default: localhost:6379)
	Addr string `env:"REDIS_ADDR" default:"localhost:6379"`

	// Password is the optional Redis password
	Password string `env:"REDIS_PASSWORD"`

	// DB is the Redis database number (default: 0)
	DB int `env:"REDIS_DB" default:"0"`
}

// EngineConfig holds assignment engine settings.
type EngineConfig struct {
	// MaxWait is how long an operation queues behind a running one (default: 30s)
	MaxWait time.Duration `env:"ENGINE_MAX_WAIT" default:"30s"`

	// RejectWhenBusy fails a second operation immediately instead of queuing (default: false)
	RejectWhenBusy bool `env:"ENGINE_REJECT_WHEN_BUSY" default:"false"`

	// TimeLayout formats import and log timestamps (default: 2006-01-02 15:04:05)
	TimeLayout string `env:"ENGINE_TIME_LAYOUT" default:"2006-01-02 15:04:05"`

	// DefaultSource is the fileName tag of pasted imports (default: 粘贴导入)
	DefaultSource string `env:"ENGINE_DEFAULT_SOURCE" default:"粘贴导入"`

	// RandomSeed makes random export reproducible; 0 seeds from the runtime (default: 0)
	RandomSeed int64 `env:"ENGINE_RANDOM_SEED" default:"0"`
}

// ImportConfig holds bulk import file settings.
type ImportConfig struct {
	// Encoding of import files: utf-8 or gb18030 (default: utf-8)
	Encoding string `env:"IMPORT_ENCODING" default:"utf-8"`

	// MaxBytes is the maximum import file size in bytes (default: 16MB)
	MaxBytes int64 `env:"IMPORT_MAX_BYTES" default:"16777216"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}
