package main

import (
	"context"
	"errors"
	"flag"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/platinummonkey/snooze/pkg/api"
	"github.com/platinummonkey/snooze/pkg/async"
	"github.com/platinummonkey/snooze/pkg/auth"
	"github.com/platinummonkey/snooze/pkg/config"
	"github.com/platinummonkey/snooze/pkg/middleware"
	"github.com/platinummonkey/snooze/pkg/observability"
	"github.com/platinummonkey/snooze/pkg/storage"
	"github.com/platinummonkey/snooze/pkg/storage/cache"
	"github.com/platinummonkey/snooze/pkg/storage/sqlstore"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

const statsSchedule = "@every 1m"

func main() {
	configPath := flag.String("config", os.Getenv(config.ConfigFileEnv), "Path to a YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Observability.LogLevel, cfg.Observability.LogFormat, os.Stdout)
	if err != nil {
		logrus.Fatalf("Failed to create logger: %v", err)
	}

	if err := run(cfg, *configPath, logger); err != nil {
		logger.WithError(err).Fatal("snooze stopped with an error")
	}
	logger.Info("snooze stopped")
}

func run(cfg *config.Config, configPath string, logger *logrus.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdown := observability.NewShutdownManager(logger, cfg.Server.ShutdownTimeout)
	defer shutdown.Shutdown()

	// Tracing
	otelCfg := cfg.OTelConfig()
	otelCfg.ServiceVersion = version
	providers, err := observability.InitOTel(ctx, otelCfg, logger)
	if err != nil {
		return err
	}
	shutdown.Register("otel", providers.Shutdown)

	// Metrics
	registry := prometheus.NewRegistry()
	var metrics *observability.Metrics
	if cfg.Observability.MetricsEnabled {
		registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		metrics = observability.NewMetrics(registry)
	}

	// Storage
	sqlStore, err := sqlstore.Open(cfg.StoreConfig(), sqlstore.WithLogger(logger), sqlstore.WithMetrics(metrics))
	if err != nil {
		return err
	}
	shutdown.Register("database", func(context.Context) error { return sqlStore.Close() })

	if cfg.Database.MigrateOnStart {
		if err := sqlStore.Migrate(ctx); err != nil {
			return err
		}
	}

	var redisClient *redis.Client
	if cfg.UsesRedis() {
		redisClient, err = cache.NewRedisClient(cfg.RedisClientConfig())
		if err != nil {
			return err
		}
		shutdown.Register("redis", func(context.Context) error { return redisClient.Close() })
	}

	var store storage.Store = sqlStore
	if cfg.Redis.StoryCacheEnabled {
		store = cache.NewStoryCache(sqlStore, redisClient,
			cache.WithTTL(cfg.Redis.StoryCacheTTL),
			cache.WithLogger(logger),
			cache.WithMetrics(metrics),
		)
		logger.WithField("ttl", cfg.Redis.StoryCacheTTL).Info("story cache enabled")
	}

	// Auth
	codec, err := auth.NewTokenCodec(cfg.TokenConfig())
	if err != nil {
		return err
	}
	hasher, err := auth.NewPasswordHasher(cfg.PasswordConfig())
	if err != nil {
		return err
	}
	proxies, err := cfg.ProxyTrust()
	if err != nil {
		return err
	}

	opts := []api.Option{
		api.WithLogger(logger),
		api.WithMetrics(metrics),
		api.WithTrustedProxies(proxies),
		api.WithCORSOrigins(cfg.Server.CORSOrigins),
		api.WithMaxBodyBytes(cfg.Server.MaxBodyBytes),
	}
	if limiter, err := newLimiter(ctx, cfg, redisClient); err != nil {
		return err
	} else if limiter != nil {
		opts = append(opts, api.WithRateLimiter(limiter))
		logger.WithFields(logrus.Fields{
			"backend":  cfg.RateLimit.Backend,
			"requests": cfg.RateLimit.Requests,
			"window":   cfg.RateLimit.Window,
		}).Info("rate limiting signup and login")
	}

	server := api.NewServer(store, codec, hasher, opts...)
	if metrics != nil {
		async.SafeGo(ctx, logger, 30*time.Second, "initial stats", server.RefreshStats)
		if err := server.StartStatsRefresher(ctx, statsSchedule); err != nil {
			return err
		}
	}

	if configPath != "" {
		err := config.Watch(ctx, configPath, logger, func(next *config.Config) {
			if err := observability.SetLevel(logger, next.Observability.LogLevel); err != nil {
				logger.WithError(err).Warn("ignoring log level change")
			}
		})
		if err != nil {
			logger.WithError(err).Warn("config reload disabled")
		}
	}

	apiServer := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:      observability.TraceHandler(server.Handler(), "snooze"),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	shutdown.Register("api server", apiServer.Shutdown)

	healthMux := http.NewServeMux()
	observability.RegisterHealthRoutes(healthMux, observability.NewHealthChecker(sqlStore.DB(), redisClient, version))
	if metrics != nil {
		observability.RegisterMetricsEndpoint(healthMux, registry)
	}
	healthServer := &http.Server{
		Addr:              net.JoinHostPort(cfg.Server.Host, cfg.Server.HealthPort),
		Handler:           healthMux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	shutdown.Register("health server", healthServer.Shutdown)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.WithField("addr", apiServer.Addr).Info("starting API server")
		return serve(apiServer)
	})
	g.Go(func() error {
		logger.WithField("addr", healthServer.Addr).Info("starting health server")
		return serve(healthServer)
	})
	g.Go(func() error {
		<-gctx.Done()
		return shutdown.Shutdown()
	})

	return g.Wait()
}

func serve(srv *http.Server) error {
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// newLimiter returns nil when rate limiting is disabled
func newLimiter(ctx context.Context, cfg *config.Config, redisClient *redis.Client) (middleware.Limiter, error) {
	if !cfg.RateLimit.Enabled {
		return nil, nil
	}
	limits := &middleware.RateLimitConfig{
		RequestsPerWindow: cfg.RateLimit.Requests,
		WindowDuration:    cfg.RateLimit.Window,
		BurstSize:         cfg.RateLimit.Burst,
	}

	if cfg.RateLimit.Backend == config.RateLimitBackendRedis {
		return middleware.NewDistributedRateLimiter(redisClient, limits, "snooze:ratelimit"), nil
	}

	limiter := middleware.NewRateLimiter(limits)
	if err := limiter.StartCleanup(ctx); err != nil {
		return nil, err
	}
	return limiter, nil
}
