package main

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"

	cacheadapter "github.com/DownstreamWealth/portal/internal/adapter/cache"
	"github.com/DownstreamWealth/portal/internal/bootstrap"
	"github.com/DownstreamWealth/portal/internal/config"
	httptransport "github.com/DownstreamWealth/portal/internal/http"
	"github.com/DownstreamWealth/portal/internal/http/handler"
	apimiddleware "github.com/DownstreamWealth/portal/internal/middleware"
	"github.com/DownstreamWealth/portal/internal/repository"
	"github.com/DownstreamWealth/portal/internal/server"
	"github.com/DownstreamWealth/portal/internal/service"
	"github.com/DownstreamWealth/portal/internal/session"
	"github.com/DownstreamWealth/portal/internal/telemetry"
)

func main() {
	app := fx.New(
		fx.Provide(
			newConfig,
			newLogger,
			newTelemetry,
			newSnowflake,
			newPGXPool,
			newUserRepository,
			newAccountUsers,
			newCredentialRepository,
			newProfileRepository,
			newSessionResolver,
			newRateLimiter,
			service.NewAccountService,
			handler.NewAccountHandler,
			newHealthHandler,
			httptransport.NewRouter,
			newHTTPServer,
		),
		fx.Invoke(useTelemetry, bootstrap.EnsureSeedUser, startHTTPServer),
	)

	app.Run()
}

func newConfig() (config.Config, error) {
	return config.Load()
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	var (
		logger *zap.Logger
		err    error
	)
	if cfg.Environment == "development" {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return nil, err
	}
	logger = logger.With(zap.String("service", cfg.ServiceName))
	zap.ReplaceGlobals(logger)
	return logger, nil
}

func newTelemetry(lc fx.Lifecycle, cfg config.Config, logger *zap.Logger) (*telemetry.Provider, error) {
	provider, err := telemetry.New(context.Background(), cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("telemetry init: %w", err)
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			return provider.Shutdown(stopCtx)
		},
	})

	return provider, nil
}

func newSnowflake(cfg config.Config) (*snowflake.Node, error) {
	return snowflake.NewNode(cfg.SnowflakeNode)
}

func newPGXPool(lc fx.Lifecycle, cfg config.Config) (*pgxpool.Pool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			pool.Close()
			return nil
		},
	})

	return pool, nil
}

func newUserRepository(pool *pgxpool.Pool, node *snowflake.Node, logger *zap.Logger) *repository.PostgresUserRepo {
	return repository.NewPostgresUserRepo(pool, node, logger)
}

func newAccountUsers(repo *repository.PostgresUserRepo) repository.UserRepository {
	return repo
}

func newCredentialRepository(repo *repository.PostgresUserRepo) repository.CredentialRepository {
	return repo
}

func newProfileRepository(pool *pgxpool.Pool, node *snowflake.Node, logger *zap.Logger) repository.ProfileRepository {
	return repository.NewPostgresProfileRepo(pool, node, logger)
}

func newSessionResolver(lc fx.Lifecycle, cfg config.Config, logger *zap.Logger) (session.Resolver, error) {
	switch cfg.SessionStore {
	case config.SessionStoreRedis:
		client, err := newRedisClient(lc, cfg)
		if err != nil {
			return nil, err
		}
		logger.Info("session store", zap.String("backend", "redis"), zap.String("addr", cfg.RedisAddr))
		return session.NewStoreResolver(cfg.SessionCookie, cacheadapter.NewRedisSessionStore(client, cfg.RedisSessionPrefix)), nil
	default:
		logger.Info("session store", zap.String("backend", "jwt"))
		return session.NewJWTResolver(cfg.SessionCookie, cfg.SessionSecret, cfg.SessionIssuer), nil
	}
}

func newRedisClient(lc fx.Lifecycle, cfg config.Config) (redis.UniversalClient, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return client.Close()
		},
	})
	return client, nil
}

func newRateLimiter(cfg config.Config) *apimiddleware.RateLimiter {
	return apimiddleware.NewRateLimiter(cfg.RateLimitRPM)
}

func newHealthHandler(pool *pgxpool.Pool, logger *zap.Logger) *handler.HealthHandler {
	return handler.NewHealthHandler(pool, logger)
}

func newHTTPServer(router *gin.Engine, cfg config.Config) *server.HTTPServer {
	return server.NewHTTPServer(router, cfg.ShutdownTimeout)
}

func startHTTPServer(lc fx.Lifecycle, srv *server.HTTPServer, cfg config.Config, logger *zap.Logger) {
	addr := ":" + cfg.HTTPPort
	var (
		cancel context.CancelFunc
		done   chan struct{}
	)

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			runCtx, stop := context.WithCancel(context.Background())
			cancel = stop
			done = make(chan struct{})

			go func() {
				if err := srv.Run(runCtx, addr); err != nil {
					logger.Error("http server stopped", zap.Error(err))
				}
				close(done)
			}()

			logger.Info("http server listening", zap.String("addr", addr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if cancel != nil {
				cancel()
			}
			if done == nil {
				return nil
			}
			select {
			case <-done:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		},
	})
}

func useTelemetry(*telemetry.Provider) {}
