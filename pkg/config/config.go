package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/platinummonkey/snooze/pkg/auth"
	"github.com/platinummonkey/snooze/pkg/observability"
	"github.com/platinummonkey/snooze/pkg/storage/cache"
	"github.com/platinummonkey/snooze/pkg/storage/sqlstore"
)

// ConfigFileEnv names the environment variable pointing at an optional YAML
// config file
const ConfigFileEnv = "SNOOZE_CONFIG_FILE"

// Rate limiter backends
const (
	RateLimitBackendMemory = "memory"
	RateLimitBackendRedis  = "redis"
)

// Config holds all application configuration
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Database      DatabaseConfig      `yaml:"database"`
	Auth          AuthConfig          `yaml:"auth"`
	RateLimit     RateLimitConfig     `yaml:"rate_limit"`
	Redis         RedisConfig         `yaml:"redis"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            string        `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes"`
	CORSOrigins     []string      `yaml:"cors_origins"`
	// TrustedProxies lists CIDRs or addresses whose X-Forwarded-For is
	// believed. Empty means the peer address is always the client.
	TrustedProxies []string `yaml:"trusted_proxies"`

	// Health/metrics server (separate port for k8s probes)
	HealthPort string `yaml:"health_port"`
}

// DatabaseConfig selects and tunes the SQL backend
type DatabaseConfig struct {
	Driver          string        `yaml:"driver"`
	DSN             string        `yaml:"dsn"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	MigrateOnStart  bool          `yaml:"migrate_on_start"`
}

// AuthConfig holds token and password hashing settings
type AuthConfig struct {
	TokenHeader       string `yaml:"token_header"`
	DigestSource      string `yaml:"digest_source"`
	FragmentLength    int    `yaml:"fragment_length"`
	FragmentCacheSize int    `yaml:"fragment_cache_size"`

	Argon2Memory      uint32 `yaml:"argon2_memory"`
	Argon2Time        uint32 `yaml:"argon2_time"`
	Argon2Parallelism uint8  `yaml:"argon2_parallelism"`
}

// RateLimitConfig limits signup and login attempts per client address
type RateLimitConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Backend  string        `yaml:"backend"`
	Requests int           `yaml:"requests"`
	Window   time.Duration `yaml:"window"`
	Burst    int           `yaml:"burst"`
}

// RedisConfig configures the shared Redis used by the story cache and the
// distributed rate limiter
type RedisConfig struct {
	URL               string        `yaml:"url"`
	Password          string        `yaml:"password"`
	DB                int           `yaml:"db"`
	PoolSize          int           `yaml:"pool_size"`
	StoryCacheEnabled bool          `yaml:"story_cache_enabled"`
	StoryCacheTTL     time.Duration `yaml:"story_cache_ttl"`
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	MetricsEnabled bool `yaml:"metrics_enabled"`

	OTelEnabled        bool    `yaml:"otel_enabled"`
	OTelEndpoint       string  `yaml:"otel_endpoint"`
	OTelServiceName    string  `yaml:"otel_service_name"`
	OTelServiceVersion string  `yaml:"otel_service_version"`
	OTelInsecure       bool    `yaml:"otel_insecure"` // Use insecure gRPC connection
	OTelSampleRatio    float64 `yaml:"otel_sample_ratio"`
}

// Default returns the built-in configuration
func Default() *Config {
	password := auth.DefaultPasswordConfig()
	token := auth.DefaultTokenConfig()

	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            "8000",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			MaxBodyBytes:    1 << 20,
			HealthPort:      "9090",
		},
		Database: DatabaseConfig{
			Driver:          sqlstore.DriverSQLite,
			DSN:             "snooze.db",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
			MigrateOnStart:  true,
		},
		Auth: AuthConfig{
			TokenHeader:       token.Header,
			DigestSource:      string(token.DigestSource),
			FragmentLength:    token.FragmentLength,
			FragmentCacheSize: token.CacheSize,
			Argon2Memory:      password.Memory,
			Argon2Time:        password.Time,
			Argon2Parallelism: password.Parallelism,
		},
		RateLimit: RateLimitConfig{
			Enabled:  true,
			Backend:  RateLimitBackendMemory,
			Requests: 20,
			Window:   time.Minute,
			Burst:    5,
		},
		Redis: RedisConfig{
			StoryCacheTTL: cache.DefaultTTL,
		},
		Observability: ObservabilityConfig{
			LogLevel:           "info",
			LogFormat:          observability.FormatJSON,
			MetricsEnabled:     true,
			OTelEndpoint:       "localhost:4317",
			OTelServiceName:    "snooze",
			OTelServiceVersion: "1.0.0",
			OTelInsecure:       true,
			OTelSampleRatio:    1.0,
		},
	}
}

// LoadConfig loads configuration from the file named by SNOOZE_CONFIG_FILE,
// if any, and the environment
func LoadConfig() (*Config, error) {
	return Load(os.Getenv(ConfigFileEnv))
}

// Load builds the configuration from defaults, the YAML file at path (when
// path is not empty) and SNOOZE_* environment variables, in that order of
// precedence from lowest to highest
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	s := &c.Server
	s.Host = getEnv("SNOOZE_HOST", s.Host)
	s.Port = getEnv("SNOOZE_PORT", s.Port)
	s.ReadTimeout = getEnvDuration("SNOOZE_READ_TIMEOUT", s.ReadTimeout)
	s.WriteTimeout = getEnvDuration("SNOOZE_WRITE_TIMEOUT", s.WriteTimeout)
	s.IdleTimeout = getEnvDuration("SNOOZE_IDLE_TIMEOUT", s.IdleTimeout)
	s.ShutdownTimeout = getEnvDuration("SNOOZE_SHUTDOWN_TIMEOUT", s.ShutdownTimeout)
	s.MaxBodyBytes = getEnvInt64("SNOOZE_MAX_BODY_BYTES", s.MaxBodyBytes)
	s.CORSOrigins = getEnvList("SNOOZE_CORS_ORIGINS", s.CORSOrigins)
	s.TrustedProxies = getEnvList("SNOOZE_TRUSTED_PROXIES", s.TrustedProxies)
	s.HealthPort = getEnv("SNOOZE_HEALTH_PORT", s.HealthPort)

	d := &c.Database
	d.Driver = getEnv("SNOOZE_DB_DRIVER", d.Driver)
	d.DSN = getEnv("SNOOZE_DB_DSN", d.DSN)
	d.MaxOpenConns = getEnvInt("SNOOZE_DB_MAX_OPEN_CONNS", d.MaxOpenConns)
	d.MaxIdleConns = getEnvInt("SNOOZE_DB_MAX_IDLE_CONNS", d.MaxIdleConns)
	d.ConnMaxLifetime = getEnvDuration("SNOOZE_DB_CONN_MAX_LIFETIME", d.ConnMaxLifetime)
	d.MigrateOnStart = getEnvBool("SNOOZE_DB_MIGRATE_ON_START", d.MigrateOnStart)

	a := &c.Auth
	a.TokenHeader = getEnv("SNOOZE_TOKEN_HEADER", a.TokenHeader)
	a.DigestSource = getEnv("SNOOZE_TOKEN_DIGEST_SOURCE", a.DigestSource)
	a.FragmentLength = getEnvInt("SNOOZE_TOKEN_FRAGMENT_LENGTH", a.FragmentLength)
	a.FragmentCacheSize = getEnvInt("SNOOZE_TOKEN_CACHE_SIZE", a.FragmentCacheSize)
	if memory := getEnvInt("SNOOZE_ARGON2_MEMORY", 0); memory > 0 {
		a.Argon2Memory = uint32(memory)
	}
	if iterations := getEnvInt("SNOOZE_ARGON2_TIME", 0); iterations > 0 {
		a.Argon2Time = uint32(iterations)
	}
	if parallelism := getEnvInt("SNOOZE_ARGON2_PARALLELISM", 0); parallelism > 0 && parallelism < 256 {
		a.Argon2Parallelism = uint8(parallelism)
	}

	r := &c.RateLimit
	r.Enabled = getEnvBool("SNOOZE_RATE_LIMIT_ENABLED", r.Enabled)
	r.Backend = getEnv("SNOOZE_RATE_LIMIT_BACKEND", r.Backend)
	r.Requests = getEnvInt("SNOOZE_RATE_LIMIT_REQUESTS", r.Requests)
	r.Window = getEnvDuration("SNOOZE_RATE_LIMIT_WINDOW", r.Window)
	r.Burst = getEnvInt("SNOOZE_RATE_LIMIT_BURST", r.Burst)

	rd := &c.Redis
	rd.URL = getEnv("SNOOZE_REDIS_URL", rd.URL)
	rd.Password = getEnv("SNOOZE_REDIS_PASSWORD", rd.Password)
	rd.DB = getEnvInt("SNOOZE_REDIS_DB", rd.DB)
	rd.PoolSize = getEnvInt("SNOOZE_REDIS_POOL_SIZE", rd.PoolSize)
	rd.StoryCacheEnabled = getEnvBool("SNOOZE_STORY_CACHE_ENABLED", rd.StoryCacheEnabled)
	rd.StoryCacheTTL = getEnvDuration("SNOOZE_STORY_CACHE_TTL", rd.StoryCacheTTL)

	o := &c.Observability
	o.LogLevel = getEnv("SNOOZE_LOG_LEVEL", o.LogLevel)
	o.LogFormat = getEnv("SNOOZE_LOG_FORMAT", o.LogFormat)
	o.MetricsEnabled = getEnvBool("SNOOZE_METRICS_ENABLED", o.MetricsEnabled)
	o.OTelEnabled = getEnvBool("SNOOZE_OTEL_ENABLED", o.OTelEnabled)
	o.OTelEndpoint = getEnv("SNOOZE_OTEL_ENDPOINT", o.OTelEndpoint)
	o.OTelServiceName = getEnv("SNOOZE_OTEL_SERVICE_NAME", o.OTelServiceName)
	o.OTelServiceVersion = getEnv("SNOOZE_OTEL_SERVICE_VERSION", o.OTelServiceVersion)
	o.OTelInsecure = getEnvBool("SNOOZE_OTEL_INSECURE", o.OTelInsecure)
	o.OTelSampleRatio = getEnvFloat("SNOOZE_OTEL_SAMPLE_RATIO", o.OTelSampleRatio)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Server.HealthPort == "" {
		return fmt.Errorf("health port is required")
	}
	if c.Server.Port == c.Server.HealthPort {
		return fmt.Errorf("server port and health port must be different")
	}
	if c.Server.MaxBodyBytes <= 0 {
		return fmt.Errorf("max body bytes must be positive")
	}
	if _, err := c.ProxyTrust(); err != nil {
		return err
	}

	switch c.Database.Driver {
	case sqlstore.DriverSQLite, sqlstore.DriverPostgres:
	default:
		return fmt.Errorf("invalid database driver: %s (must be %s or %s)", c.Database.Driver, sqlstore.DriverSQLite, sqlstore.DriverPostgres)
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("database DSN is required")
	}

	if err := c.TokenConfig().Validate(); err != nil {
		return err
	}
	if err := c.PasswordConfig().Validate(); err != nil {
		return err
	}

	if c.RateLimit.Enabled {
		if c.RateLimit.Requests <= 0 || c.RateLimit.Window <= 0 {
			return fmt.Errorf("rate limit requests and window must be positive")
		}
		if c.RateLimit.Burst < 0 {
			return fmt.Errorf("rate limit burst must not be negative")
		}
		switch c.RateLimit.Backend {
		case RateLimitBackendMemory:
		case RateLimitBackendRedis:
			if c.Redis.URL == "" {
				return fmt.Errorf("redis URL is required for the redis rate limit backend")
			}
		default:
			return fmt.Errorf("invalid rate limit backend: %s (must be %s or %s)", c.RateLimit.Backend, RateLimitBackendMemory, RateLimitBackendRedis)
		}
	}

	if c.Redis.StoryCacheEnabled && c.Redis.URL == "" {
		return fmt.Errorf("redis URL is required when the story cache is enabled")
	}

	if _, err := logrus.ParseLevel(c.Observability.LogLevel); err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	switch c.Observability.LogFormat {
	case observability.FormatJSON, observability.FormatText:
	default:
		return fmt.Errorf("invalid log format: %s (must be %s or %s)", c.Observability.LogFormat, observability.FormatJSON, observability.FormatText)
	}

	if c.Observability.OTelEnabled {
		if c.Observability.OTelEndpoint == "" {
			return fmt.Errorf("OpenTelemetry endpoint is required when OTel is enabled")
		}
		if c.Observability.OTelServiceName == "" {
			return fmt.Errorf("OpenTelemetry service name is required when OTel is enabled")
		}
		if c.Observability.OTelSampleRatio < 0 || c.Observability.OTelSampleRatio > 1 {
			return errors.New("OpenTelemetry sample ratio must be between 0 and 1")
		}
	}

	return nil
}

// UsesRedis reports whether any component needs the Redis connection
func (c *Config) UsesRedis() bool {
	return c.Redis.StoryCacheEnabled || (c.RateLimit.Enabled && c.RateLimit.Backend == RateLimitBackendRedis)
}

// ProxyTrust returns the resolver for client addresses behind the
// configured proxies
func (c *Config) ProxyTrust() (*auth.ProxyTrust, error) {
	return auth.ParseTrustedProxies(c.Server.TrustedProxies)
}

// TokenConfig returns the token codec settings
func (c *Config) TokenConfig() auth.TokenConfig {
	return auth.TokenConfig{
		Header:         c.Auth.TokenHeader,
		DigestSource:   auth.DigestSource(c.Auth.DigestSource),
		FragmentLength: c.Auth.FragmentLength,
		CacheSize:      c.Auth.FragmentCacheSize,
	}
}

// PasswordConfig returns the argon2id parameters
func (c *Config) PasswordConfig() auth.PasswordConfig {
	password := auth.DefaultPasswordConfig()
	password.Memory = c.Auth.Argon2Memory
	password.Time = c.Auth.Argon2Time
	password.Parallelism = c.Auth.Argon2Parallelism
	return password
}

// StoreConfig returns the SQL store connection settings
func (c *Config) StoreConfig() sqlstore.Config {
	return sqlstore.Config{
		Driver:          c.Database.Driver,
		DSN:             c.Database.DSN,
		MaxOpenConns:    c.Database.MaxOpenConns,
		MaxIdleConns:    c.Database.MaxIdleConns,
		ConnMaxLifetime: c.Database.ConnMaxLifetime,
	}
}

// RedisClientConfig returns the Redis connection settings
func (c *Config) RedisClientConfig() cache.RedisConfig {
	return cache.RedisConfig{
		URL:      c.Redis.URL,
		Password: c.Redis.Password,
		DB:       c.Redis.DB,
		PoolSize: c.Redis.PoolSize,
	}
}

// OTelConfig returns the OpenTelemetry exporter settings
func (c *Config) OTelConfig() observability.OTelConfig {
	o := c.Observability
	return observability.OTelConfig{
		Enabled:        o.OTelEnabled,
		Endpoint:       o.OTelEndpoint,
		ServiceName:    o.OTelServiceName,
		ServiceVersion: o.OTelServiceVersion,
		Insecure:       o.OTelInsecure,
		SampleRatio:    o.OTelSampleRatio,
	}
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvInt64 returns an int64 environment variable or a default
func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvFloat returns a float environment variable or a default
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getEnvList returns a comma separated environment variable or a default
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
