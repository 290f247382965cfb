// Package config loads application configuration from defaults, an optional
// YAML file and SNOOZE_* environment variables. Environment variables win
// over the file.
//
// # Configuration Structure
//
// Server settings:
//
//	SNOOZE_HOST="0.0.0.0"
//	SNOOZE_PORT="8000"
//	SNOOZE_HEALTH_PORT="9090"
//	SNOOZE_READ_TIMEOUT="15s"
//	SNOOZE_CORS_ORIGINS="https://example.com,https://app.example.com"
//
// Database settings:
//
//	SNOOZE_DB_DRIVER="sqlite3"  # sqlite3, postgres
//	SNOOZE_DB_DSN="snooze.db"
//	SNOOZE_DB_MIGRATE_ON_START="true"
//
// Auth settings:
//
//	SNOOZE_TOKEN_HEADER="token"
//	SNOOZE_TOKEN_DIGEST_SOURCE="username"  # username, credential
//	SNOOZE_TOKEN_FRAGMENT_LENGTH="12"
//	SNOOZE_ARGON2_MEMORY="65536"
//
// Rate limiting and Redis:
//
//	SNOOZE_RATE_LIMIT_ENABLED="true"
//	SNOOZE_RATE_LIMIT_BACKEND="memory"  # memory, redis
//	SNOOZE_REDIS_URL="redis://localhost:6379/0"
//	SNOOZE_STORY_CACHE_ENABLED="false"
//
// Observability settings:
//
//	SNOOZE_LOG_LEVEL="info"  # debug, info, warn, error
//	SNOOZE_LOG_FORMAT="json"  # json, text
//	SNOOZE_OTEL_ENABLED="false"
//	SNOOZE_OTEL_ENDPOINT="otel-collector:4317"
//
// The same settings can be written as YAML and named by SNOOZE_CONFIG_FILE:
//
//	server:
//	  port: "8000"
//	database:
//	  driver: postgres
//	  dsn: postgres://snooze@localhost/snooze?sslmode=disable
//	observability:
//	  log_level: debug
//
// Watch reloads that file when it changes, which is how the log level is
// adjusted at runtime.
package config
