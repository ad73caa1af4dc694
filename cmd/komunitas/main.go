package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/komunitas-inovasi/komunitas/config"
	"github.com/komunitas-inovasi/komunitas/internal/bootstrap"
)

func main() {
	ctx := context.Background()
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		bootstrap.InitLogger(slog.LevelInfo, false).ErrorContext(ctx, "load config", "error", err)
		os.Exit(1) //nolint:forbidigo // Main entrypoint should exit with non-zero status on fatal errors.
	}

	logger := bootstrap.InitLogger(cfg.LogLevel, cfg.IsDev)
	if err := run(ctx, &cfg, logger); err != nil {
		logger.ErrorContext(ctx, "fatal error", "error", err)
		os.Exit(1) //nolint:forbidigo // Main entrypoint should exit with non-zero status on fatal errors.
	}
}

func run(ctx context.Context, cfg *config.AppConfig, logger *slog.Logger) error {
	logger.InfoContext(ctx, "starting komunitas service",
		"backend", cfg.Backend.APIURL,
		"locale", cfg.Locale.Default,
		"enabled_services", bootstrap.GetEnabledServices(cfg))

	if err := bootstrap.ValidateServiceConfig(cfg); err != nil {
		return err
	}

	redisClient, mongoClient, mongoDB, err := initInfrastructure(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer func() {
			if cerr := redisClient.Close(); cerr != nil {
				logger.ErrorContext(ctx, "close redis failed", "error", cerr)
			}
		}()
	}
	if mongoClient != nil {
		defer func() {
			if cerr := mongoClient.Disconnect(context.Background()); cerr != nil {
				logger.ErrorContext(ctx, "disconnect mongo failed", "error", cerr)
			}
		}()
	}

	services, err := bootstrap.NewServices(&bootstrap.ServiceDeps{
		Config:      cfg,
		RedisClient: redisClient,
		MongoDB:     mongoDB,
		Logger:      logger,
	})
	if err != nil {
		return err
	}

	return bootstrap.RunServicesWithShutdown(&bootstrap.ServiceOrchestrationConfig{
		Config:      cfg,
		Services:    services,
		RedisClient: redisClient,
		MongoClient: mongoClient,
		Logger:      logger,
	})
}

// initInfrastructure connects the stores the enabled services need. Redis backs admin sessions,
// MongoDB the property listings.
//
//nolint:ireturn // returning redis.UniversalClient keeps sentinel/cluster support flexible.
func initInfrastructure(
	ctx context.Context,
	cfg *config.AppConfig,
	logger *slog.Logger,
) (redis.UniversalClient, *mongo.Client, *mongo.Database, error) {
	dbCfg := bootstrap.DatabaseConfig{RedisConfig: cfg.Redis, MongoConfig: cfg.Mongo, Logger: logger}

	var redisClient redis.UniversalClient
	if cfg.IsHTTPServerEnabled() {
		client, err := bootstrap.ConnectRedis(dbCfg)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("connect redis: %w", err)
		}
		redisClient = client
	}

	if !cfg.NeedsMongo() {
		return redisClient, nil, nil, nil
	}

	mongoClient, mongoDB, err := bootstrap.ConnectMongo(ctx, dbCfg)
	if err != nil {
		if redisClient != nil {
			if cerr := redisClient.Close(); cerr != nil {
				logger.ErrorContext(ctx, "close redis after mongo connect failure", "error", cerr)
			}
		}
		return nil, nil, nil, fmt.Errorf("connect mongo: %w", err)
	}
	return redisClient, mongoClient, mongoDB, nil
}
