package container

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"github.com/serroba/shorturl/internal/handlers"
	"github.com/serroba/shorturl/internal/health"
	"github.com/serroba/shorturl/internal/messaging"
	"github.com/serroba/shorturl/internal/middleware"
	"github.com/serroba/shorturl/internal/registry"
	"github.com/serroba/shorturl/internal/store"
	"github.com/serroba/shorturl/internal/validation"
	"github.com/serroba/shorturl/internal/web"
	"go.uber.org/zap"
)

const (
	connectTimeout   = 10 * time.Second
	cacheWarmTimeout = 2 * time.Second

	// ConsumerGroupPrefix prefixes the Redis stream consumer group of each
	// consumer kind, e.g. shorturl.audit-log.
	ConsumerGroupPrefix = "shorturl"

	auditLogConsumer    = "audit-log"
	cacheWarmerConsumer = "cache-warmer"
)

// RedisClient wraps the shared client so the injector closes it on shutdown.
type RedisClient struct {
	*redis.Client
}

// Shutdown closes the client.
func (c *RedisClient) Shutdown() error {
	return c.Close()
}

// LoggerPackage provides the application logger.
func LoggerPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*zap.Logger, error) {
		options := do.MustInvoke[*Options](i)

		return NewLogger(options.LogFormat, options.LogLevel)
	})
}

// RedisPackage provides the Redis client. It is only invoked when a Redis
// address is configured.
func RedisPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*RedisClient, error) {
		options := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)

		client := redis.NewClient(&redis.Options{Addr: options.RedisAddr})

		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		defer cancel()

		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()

			return nil, fmt.Errorf("connect to redis at %s: %w", options.RedisAddr, err)
		}

		logger.Info("connected to redis", zap.String("addr", options.RedisAddr))

		return &RedisClient{Client: client}, nil
	})
}

// PostgresPackage provides the PostgreSQL store with its schema in place.
func PostgresPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*store.PostgresStore, error) {
		options := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)

		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		defer cancel()

		pool, err := pgxpool.New(ctx, options.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("open postgres pool: %w", err)
		}

		pgStore := store.NewPostgresStore(pool)

		if err := pgStore.Ping(ctx); err != nil {
			pool.Close()

			return nil, fmt.Errorf("connect to postgres: %w", err)
		}

		if err := pgStore.EnsureSchema(ctx); err != nil {
			pool.Close()

			return nil, err
		}

		logger.Info("connected to postgres")

		return pgStore, nil
	})
}

// CachePackage provides the Redis read cache in front of the PostgreSQL store.
func CachePackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*store.RedisCacheRepository, error) {
		options := do.MustInvoke[*Options](i)
		pgStore := do.MustInvoke[*store.PostgresStore](i)
		client := do.MustInvoke[*RedisClient](i)

		return store.NewRedisCacheRepository(pgStore, client.Client, options.cacheTTL()), nil
	})
}

// RepositoryPackage provides the record repository selected by --storage.
func RepositoryPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (registry.Repository, error) {
		options := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)

		logger.Info("using record storage",
			zap.String("backend", options.Storage),
			zap.Bool("cache", options.CacheEnabled()),
		)

		switch options.Storage {
		case StorageMemory:
			return store.NewMemoryStore(), nil
		case StoragePostgres:
			if options.CacheEnabled() {
				return do.MustInvoke[*store.RedisCacheRepository](i), nil
			}

			return do.MustInvoke[*store.PostgresStore](i), nil
		case StorageRedis:
			return store.NewRedisStore(do.MustInvoke[*RedisClient](i).Client), nil
		default:
			return nil, fmt.Errorf("unknown storage backend %q", options.Storage)
		}
	})
}

// MessagingPackage provides the event transport, the registration publisher
// and the consumer group handling registration events.
func MessagingPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*messaging.Transport, error) {
		options := do.MustInvoke[*Options](i)
		logger := messaging.NewZapLogger(do.MustInvoke[*zap.Logger](i))

		if options.RedisAddr == "" {
			return messaging.NewInProcessTransport(logger), nil
		}

		client := do.MustInvoke[*RedisClient](i)

		return messaging.NewRedisStreamTransport(client.Client, ConsumerGroupPrefix, logger)
	})

	do.Provide(i, func(i *do.Injector) (messaging.Publish[registry.RegisteredEvent], error) {
		transport := do.MustInvoke[*messaging.Transport](i)

		return messaging.NewPublishFunc[registry.RegisteredEvent](transport.Publisher(), registry.TopicRegistered), nil
	})

	do.Provide(i, func(i *do.Injector) (*messaging.ConsumerGroup, error) {
		options := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)
		transport := do.MustInvoke[*messaging.Transport](i)

		group := messaging.NewConsumerGroup(logger)

		auditSubscriber, err := transport.Subscriber(auditLogConsumer)
		if err != nil {
			return nil, fmt.Errorf("subscribe %s: %w", auditLogConsumer, err)
		}

		group.Add(messaging.NewConsumer[registry.RegisteredEvent](
			auditLogConsumer, auditSubscriber, registry.TopicRegistered,
			registry.AuditLog(logger), logger,
		))

		if options.CacheEnabled() {
			cache := do.MustInvoke[*store.RedisCacheRepository](i)

			warmerSubscriber, err := transport.Subscriber(cacheWarmerConsumer)
			if err != nil {
				return nil, fmt.Errorf("subscribe %s: %w", cacheWarmerConsumer, err)
			}

			group.Add(messaging.NewConsumer[registry.RegisteredEvent](
				cacheWarmerConsumer, warmerSubscriber, registry.TopicRegistered,
				cache.HandleRegistered, logger,
				messaging.WithHandlerTimeout(cacheWarmTimeout),
			))
		}

		return group, nil
	})
}

// ValidatorPackage provides the URL validator.
func ValidatorPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*validation.Validator, error) {
		options := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)

		return validation.NewValidator(nil, options.resolveTimeout(), options.resolveCacheTTL(), logger), nil
	})
}

// RegistryPackage provides the code registry.
func RegistryPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*registry.Registry, error) {
		options := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)
		repo := do.MustInvoke[registry.Repository](i)
		publish := do.MustInvoke[messaging.Publish[registry.RegisteredEvent]](i)

		generator, err := registry.NewDigitGenerator(options.CodeDigits)
		if err != nil {
			return nil, err
		}

		return registry.NewRegistry(repo, generator, options.MaxAttempts, publish, logger), nil
	})
}

// HealthPackage provides the health handler over the configured dependencies.
func HealthPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*health.Handler, error) {
		options := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)

		checks := map[string]health.Checker{}

		if options.Storage == StoragePostgres {
			checks["postgres"] = do.MustInvoke[*store.PostgresStore](i)
		}

		if options.RedisAddr != "" {
			checks["redis"] = health.NewRedisChecker(do.MustInvoke[*RedisClient](i).Client)
		}

		return health.NewHandler(checks, logger), nil
	})
}

// HTTPPackage provides the router and the huma API with every route mounted.
func HTTPPackage(i *do.Injector) {
	do.Provide(i, func(_ *do.Injector) (*chi.Mux, error) {
		router := chi.NewMux()
		router.Use(chimw.RequestID)
		router.Use(chimw.Recoverer)
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			ExposedHeaders: []string{"Location"},
		}))

		web.RegisterRoutes(router)

		return router, nil
	})

	do.Provide(i, func(i *do.Injector) (huma.API, error) {
		router := do.MustInvoke[*chi.Mux](i)
		logger := do.MustInvoke[*zap.Logger](i)

		urlHandler := handlers.NewURLHandler(
			do.MustInvoke[*validation.Validator](i),
			do.MustInvoke[*registry.Registry](i),
			logger,
		)

		api := humachi.New(router, handlers.NewAPIConfig())
		api.UseMiddleware(middleware.RequestLogger(logger))

		handlers.RegisterRoutes(api, urlHandler)
		health.RegisterRoutes(api, do.MustInvoke[*health.Handler](i))

		return api, nil
	})
}

// ServerPackages registers every package the HTTP server needs.
func ServerPackages(i *do.Injector) {
	LoggerPackage(i)
	RedisPackage(i)
	PostgresPackage(i)
	CachePackage(i)
	RepositoryPackage(i)
	MessagingPackage(i)
	ValidatorPackage(i)
	RegistryPackage(i)
	HealthPackage(i)
	HTTPPackage(i)
}

// ConsumerPackages registers what a standalone event consumer needs.
func ConsumerPackages(i *do.Injector) {
	LoggerPackage(i)
	RedisPackage(i)
	PostgresPackage(i)
	CachePackage(i)
	MessagingPackage(i)
}
