package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/rasaeel/rasaeel/internal/config"
	"github.com/rasaeel/rasaeel/internal/db"
	dbsqlc "github.com/rasaeel/rasaeel/internal/db/sqlc"
	"github.com/rasaeel/rasaeel/internal/handlers"
	"github.com/rasaeel/rasaeel/internal/healthcheck"
	dbchecker "github.com/rasaeel/rasaeel/internal/healthcheck/checkers/database"
	dependencychecker "github.com/rasaeel/rasaeel/internal/healthcheck/checkers/dependency"
	"github.com/rasaeel/rasaeel/internal/instagram"
	"github.com/rasaeel/rasaeel/internal/llm"
	"github.com/rasaeel/rasaeel/internal/logger"
	"github.com/rasaeel/rasaeel/internal/merchants"
	"github.com/rasaeel/rasaeel/internal/observability"
	"github.com/rasaeel/rasaeel/internal/pipeline"
	"github.com/rasaeel/rasaeel/internal/ratelimit"
	"github.com/rasaeel/rasaeel/internal/server"
	"github.com/rasaeel/rasaeel/internal/speech"
	"github.com/rasaeel/rasaeel/internal/tenant"
)

func runServe() error {
	app := fx.New(
		fx.Provide(
			provideConfig,
			provideLogger,
			provideDBConn,
			provideDBQueries,
			provideTokenCipher,
			provideMerchantResolver,
			provideTenantStore,
			provideScopes,
			provideTranscriber,
			provideToolInvoker,
			provideDispatcher,
			provideGraphSender,
			provideOrchestrator,
			provideRateLimiter,
			provideRateLimitScheduler,
			provideServerHandler(providePingHandler),
			provideServerHandler(handlers.NewInstagramWebhookHandler),
			provideServerHandler(handlers.NewSimulateHandler),
			provideServer,
		),
		fx.Invoke(
			startTracing,
			startRateLimitScheduler,
			startServer,
		),
		fx.WithLogger(func(logger *slog.Logger) fxevent.Logger {
			return &fxevent.SlogLogger{Logger: logger.With(slog.String("component", "fx"))}
		}),
	)
	if err := app.Err(); err != nil {
		return err
	}
	app.Run()
	return nil
}

func provideServerHandler(fn any) any {
	return fx.Annotate(
		fn,
		fx.As(new(server.Handler)),
		fx.ResultTags(`group:"server_handlers"`),
	)
}

func provideConfig() (config.Config, error) {
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func provideLogger(cfg config.Config) *slog.Logger {
	logger.Init(cfg.Log.Level, cfg.Log.Format)
	return logger.L.With(slog.String("environment", cfg.Environment))
}

func provideDBConn(lc fx.Lifecycle, cfg config.Config) (*pgxpool.Pool, error) {
	conn, err := db.Open(context.Background(), cfg.Postgres)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	lc.Append(fx.Hook{OnStop: func(ctx context.Context) error { conn.Close(); return nil }})
	return conn, nil
}

func provideDBQueries(conn *pgxpool.Pool) *dbsqlc.Queries { return dbsqlc.New(conn) }

func provideTokenCipher(cfg config.Config) (*merchants.TokenCipher, error) {
	return merchants.NewTokenCipher(cfg.Meta.TokenEncryptionKey)
}

func provideMerchantResolver(log *slog.Logger, queries *dbsqlc.Queries, cipher *merchants.TokenCipher) *merchants.Resolver {
	return merchants.NewResolver(log, queries, cipher)
}

func provideTenantStore(log *slog.Logger, conn *pgxpool.Pool) *tenant.Store {
	return tenant.NewStore(log, conn)
}

func provideScopes(store *tenant.Store) pipeline.ScopeFunc {
	return func(merchantID uuid.UUID) pipeline.Repository { return store.ForMerchant(merchantID) }
}

func provideTranscriber(log *slog.Logger, cfg config.Config) *speech.Transcriber {
	t := speech.NewTranscriber(log, cfg.Speech)
	if !t.Enabled() {
		log.Warn("speech transcription disabled; voice messages will be skipped")
	}
	return t
}

func provideToolInvoker(log *slog.Logger, cfg config.Config) llm.ToolInvoker {
	if strings.TrimSpace(cfg.OpenAI.APIKey) == "" {
		log.Warn("openai api key missing; every reply will be the fallback sentence")
		return nil
	}
	return llm.NewOpenAIInvoker(log, cfg.OpenAI)
}

func provideDispatcher(log *slog.Logger, cfg config.Config, invoker llm.ToolInvoker) (*llm.Dispatcher, error) {
	escalation, err := llm.LoadEscalationMatcher(cfg.Escalation.KeywordsFile)
	if err != nil {
		return nil, err
	}
	return llm.NewDispatcher(log, invoker, escalation)
}

func provideGraphSender(log *slog.Logger, cfg config.Config) *instagram.GraphSender {
	return instagram.NewGraphSender(log, cfg.Meta)
}

func provideOrchestrator(log *slog.Logger, resolver *merchants.Resolver, scopes pipeline.ScopeFunc, transcriber *speech.Transcriber, dispatcher *llm.Dispatcher, sender *instagram.GraphSender) *pipeline.Orchestrator {
	return pipeline.NewOrchestrator(log, pipeline.Deps{
		Resolver:    resolver,
		Scopes:      scopes,
		Transcriber: transcriber,
		Dispatcher:  dispatcher,
		Sender:      sender,
	})
}

// provideRateLimiter picks Redis when configured, the rate_limits table in
// production and process memory otherwise.
func provideRateLimiter(lc fx.Lifecycle, log *slog.Logger, cfg config.Config, queries *dbsqlc.Queries) ratelimit.Limiter {
	switch {
	case strings.TrimSpace(cfg.Redis.Addr) != "":
		client := ratelimit.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		lc.Append(fx.Hook{OnStop: func(ctx context.Context) error { return client.Close() }})
		log.Info("rate limiter backend", slog.String("backend", "redis"))
		return ratelimit.NewRedisLimiter(client)
	case cfg.IsProduction():
		log.Info("rate limiter backend", slog.String("backend", "postgres"))
		return ratelimit.NewPostgresLimiter(queries)
	default:
		log.Info("rate limiter backend", slog.String("backend", "memory"))
		return ratelimit.NewMemoryLimiter()
	}
}

func provideRateLimitScheduler(log *slog.Logger, limiter ratelimit.Limiter) *ratelimit.Scheduler {
	pruner, _ := limiter.(ratelimit.Pruner)
	return ratelimit.NewScheduler(log, pruner)
}

func providePingHandler(log *slog.Logger, cfg config.Config, conn *pgxpool.Pool, transcriber *speech.Transcriber) *handlers.PingHandler {
	deps := dependencychecker.NewChecker(
		dependencychecker.Dependency{Name: "openai", Configured: strings.TrimSpace(cfg.OpenAI.APIKey) != ""},
		dependencychecker.Dependency{Name: "meta", Configured: strings.TrimSpace(cfg.Meta.AppSecret) != "", Optional: !cfg.IsProduction()},
		dependencychecker.Dependency{Name: "azure_speech", Configured: transcriber.Enabled(), Optional: true},
	)
	return handlers.NewPingHandler(log, []healthcheck.Checker{dbchecker.NewChecker(log, conn), deps}...)
}

type serverParams struct {
	fx.In
	Logger         *slog.Logger
	Config         config.Config
	Limiter        ratelimit.Limiter
	ServerHandlers []server.Handler `group:"server_handlers"`
}

func provideServer(params serverParams) *server.Server {
	return server.New(
		params.Logger,
		params.Config.Server.Addr,
		params.Config.Auth.JWTSecret,
		params.ServerHandlers,
		ratelimit.Middleware(params.Logger, params.Limiter),
	)
}

func startTracing(lc fx.Lifecycle, log *slog.Logger, cfg config.Config) {
	var shutdown observability.ShutdownFunc
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			fn, err := observability.InitTracing(ctx, log, cfg.Environment, cfg.Telemetry)
			if err != nil {
				return fmt.Errorf("init tracing: %w", err)
			}
			shutdown = fn
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if shutdown == nil {
				return nil
			}
			return shutdown(ctx)
		},
	})
}

func startRateLimitScheduler(lc fx.Lifecycle, scheduler *ratelimit.Scheduler) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error { return scheduler.Start("@hourly") },
		OnStop:  func(ctx context.Context) error { scheduler.Stop(ctx); return nil },
	})
}

func startServer(lc fx.Lifecycle, logger *slog.Logger, srv *server.Server, shutdowner fx.Shutdowner, cfg config.Config) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if cfg.Postgres.AutoMigrate {
				if err := db.Migrate(cfg.Postgres, db.Up); err != nil {
					return err
				}
				logger.Info("database migrated")
			}
			logger.Info("starting server", slog.String("addr", cfg.Server.Addr))
			go func() {
				if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("server failed", slog.Any("error", err))
					_ = shutdowner.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if err := srv.Stop(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server stop: %w", err)
			}
			return nil
		},
	})
}
