package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/grimbang/nailart/billing"
	"github.com/grimbang/nailart/pkg/config"
	"github.com/grimbang/nailart/pkg/httpserver"
	"github.com/grimbang/nailart/pkg/jwt"
	"github.com/grimbang/nailart/pkg/logger"
	"github.com/grimbang/nailart/pkg/pg"
	"github.com/grimbang/nailart/pkg/redis"
	"github.com/grimbang/nailart/pkg/storage"
	"github.com/grimbang/nailart/studio"
	"github.com/grimbang/nailart/webapi"
)

type authConfig struct {
	// JWTSigningKey is the HS256 secret shared with the identity provider.
	JWTSigningKey string `env:"JWT_SIGNING_KEY,required"`
}

func main() {
	if err := run(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	var logCfg logger.Config
	config.MustLoad(&logCfg)
	log := logger.NewFromConfig(logCfg, logger.WithService("nailart"))
	slog.SetDefault(log)

	var (
		authCfg    authConfig
		pgCfg      pg.Config
		redisCfg   redis.Config
		storageCfg storage.Config
		billingCfg billing.Config
		studioCfg  studio.Config
		serverCfg  httpserver.Config
	)
	config.MustLoad(&authCfg)
	config.MustLoad(&pgCfg)
	config.MustLoad(&redisCfg)
	config.MustLoad(&storageCfg)
	config.MustLoad(&billingCfg)
	config.MustLoad(&studioCfg)
	config.MustLoad(&serverCfg)

	pool, err := pg.Connect(ctx, pgCfg)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pool.Close()

	if err := pg.Migrate(ctx, pool, pgCfg, log); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}

	redisClient, err := redis.Connect(ctx, redisCfg)
	if err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	defer redisClient.Close()

	store, err := storage.New(ctx, storageCfg)
	if err != nil {
		return fmt.Errorf("object storage: %w", err)
	}

	tokens, err := jwt.New(authCfg.JWTSigningKey)
	if err != nil {
		return fmt.Errorf("jwt: %w", err)
	}

	catalog, err := billing.NewCatalog(billingCfg)
	if err != nil {
		return err
	}
	paddleProvider, err := billing.NewPaddleProvider(billingCfg)
	if err != nil {
		return err
	}
	billingStore := billing.NewPgStore(pool)
	billingSvc := billing.NewService(billingCfg, catalog, paddleProvider, billingStore,
		billing.NewRedisLocker(redisClient), log.With(logger.Component("billing")))

	geminiClient, err := studio.NewGeminiClient(ctx, studioCfg.GeminiAPIKey)
	if err != nil {
		return fmt.Errorf("gemini: %w", err)
	}
	studioSvc := studio.NewService(studioCfg, studio.NewPgStore(pool), billingStore, store,
		studio.GeminiBackends(studioCfg, geminiClient), log.With(logger.Component("studio")))

	handler := webapi.NewRouter(webapi.Deps{
		Billing: billingSvc,
		Studio:  studioSvc,
		Tokens:  tokens,
		Log:     log,
		HealthChecks: []func(context.Context) error{
			pg.Healthcheck(pool),
			redis.Healthcheck(redisClient),
		},
	})

	server := httpserver.NewFromConfig(serverCfg, httpserver.WithLogger(log.With(logger.Component("http"))))
	return server.Run(ctx, handler)
}
