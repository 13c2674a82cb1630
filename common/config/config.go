package config

import (
	"strings"
	"time"

	"github.com/shadower-ai/shadow-analytics/common/env"
)

var (
	// ServerPort overrides the --port flag when running inside container or PaaS environments.
	ServerPort = strings.TrimSpace(env.String("PORT", ""))
	// GinMode allows forcing Gin into release mode (or other modes) without recompiling.
	GinMode = strings.TrimSpace(env.String("GIN_MODE", ""))

	// DebugEnabled toggles verbose structured logging when DEBUG=true.
	DebugEnabled = env.Bool("DEBUG", false)
	// DebugSQLEnabled toggles per-query SQL logging when DEBUG_SQL=true.
	DebugSQLEnabled = env.Bool("DEBUG_SQL", false)

	// SQLDSN selects the primary database. Empty falls back to SQLite,
	// postgres:// prefixes select PostgreSQL, anything else is treated as a MySQL DSN.
	SQLDSN = strings.TrimSpace(env.String("SQL_DSN", ""))
	// SQLitePath is the on-disk SQLite file used when SQL_DSN is unset.
	SQLitePath = env.String("SQLITE_PATH", "shadow-analytics.db")
	// SQLiteBusyTimeout sets the SQLite busy handler timeout in milliseconds.
	SQLiteBusyTimeout = env.Int("SQLITE_BUSY_TIMEOUT", 3000)
	// SQLMaxIdleConns caps idle connections kept by the pool.
	SQLMaxIdleConns = env.Int("SQL_MAX_IDLE_CONNS", 100)
	// SQLMaxOpenConns caps concurrently open database connections.
	SQLMaxOpenConns = env.Int("SQL_MAX_OPEN_CONNS", 1000)
	// SQLMaxLifetime bounds connection reuse time (seconds) to recycle stale connections.
	SQLMaxLifetime = env.Int("SQL_MAX_LIFETIME", 60)

	// RedisConnString enables the Redis cache tier when set (redis:// URL).
	RedisConnString = strings.TrimSpace(env.String("REDIS_CONN_STRING", ""))
	// RedisPassword is used only in Redis cluster/sentinel mode.
	RedisPassword = env.String("REDIS_PASSWORD", "")
	// RedisMasterName switches the Redis client into sentinel mode when set.
	RedisMasterName = env.String("REDIS_MASTER_NAME", "")

	// BucketCacheTTL controls how long computed daily buckets stay cached.
	BucketCacheTTL = time.Duration(env.Int("BUCKET_CACHE_TTL", 300)) * time.Second
	// ForecastCacheTTL controls how long forecast results stay cached, capped at one hour.
	ForecastCacheTTL = time.Duration(env.Int("FORECAST_CACHE_TTL", 3600)) * time.Second

	// UsageRetentionDays bounds how long raw usage events are kept. 0 disables the sweep.
	UsageRetentionDays = env.Int("USAGE_RETENTION_DAYS", 0)
	// RetentionSweepInterval sets how often the retention sweep runs (seconds).
	RetentionSweepInterval = env.Int("RETENTION_SWEEP_INTERVAL", 3600)

	// MaxQueryRangeDays caps the date range accepted by trend/forecast queries.
	MaxQueryRangeDays = env.Int("MAX_QUERY_RANGE_DAYS", 366)
	// BacktestWindowDays caps the walk-forward residual history used for confidence intervals.
	BacktestWindowDays = env.Int("BACKTEST_WINDOW_DAYS", 180)
	// SeasonalWindowDays is the trailing window the seasonal profile is computed over.
	SeasonalWindowDays = env.Int("SEASONAL_WINDOW_DAYS", 90)

	// EnablePrometheusMetrics exposes /metrics when true.
	EnablePrometheusMetrics = env.Bool("ENABLE_PROMETHEUS_METRICS", true)

	// GracefulShutdownTimeout bounds how long shutdown waits for in-flight requests (seconds).
	GracefulShutdownTimeout = env.Int("GRACEFUL_SHUTDOWN_TIMEOUT", 30)
)
