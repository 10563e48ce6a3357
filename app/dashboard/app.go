package dashboard

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/axelarscope/dashboard/app/dashboard/types"
	"github.com/axelarscope/dashboard/pkg/cache"
	"github.com/axelarscope/dashboard/pkg/catalog"
	"github.com/axelarscope/dashboard/pkg/logging"
	"github.com/axelarscope/dashboard/pkg/pages"
	"github.com/axelarscope/dashboard/pkg/redis"
	"github.com/axelarscope/dashboard/pkg/utils"
	"github.com/axelarscope/dashboard/pkg/warehouse"
	"github.com/axelarscope/dashboard/pkg/warehouse/clickhouse"
)

// Initialize initializes the application.
func Initialize(ctx context.Context) *types.App {
	logger, err := logging.New("dashboard")
	if err != nil {
		// nothing else to do here, we'll just log to stderr'
		panic(err)
	}

	wh, err := clickhouse.New(ctx, logger.Named("warehouse"), clickhouse.ConfigFromEnv())
	if err != nil {
		logger.Fatal("Unable to connect to the warehouse", zap.Error(err))
	}

	app, err := Build(logger, wh)
	if err != nil {
		logger.Fatal("Unable to initialize dashboard", zap.Error(err))
	}

	// Redis fans cache clears out to other instances (optional)
	if utils.EnvBool("REDIS_ENABLED", false) {
		redisClient, err := redis.NewClient(ctx, logger)
		if err != nil {
			logger.Warn("Failed to initialize Redis client - cache clears will stay local",
				zap.Error(err))
		} else {
			app.RedisClient = redisClient
			app.Broadcaster = redis.NewBroadcaster(redisClient, instanceID(), logger.Named("broadcast"))
			logger.Info("Redis client initialized for cache clear broadcast")
		}
	} else {
		logger.Info("Redis disabled - cache clears will stay local")
	}

	return app
}

// Build wires the catalog, cache and page runner around an already connected warehouse client.
func Build(logger *zap.Logger, wh warehouse.Client) (*types.App, error) {
	cat, err := catalog.New()
	if err != nil {
		return nil, err
	}

	resultCache, err := cache.New(utils.EnvInt("CACHE_MAX_ENTRIES", cache.DefaultMaxEntries), logger.Named("cache"))
	if err != nil {
		return nil, err
	}

	runner, err := pages.NewRunner(pages.Config{
		Logger:    logger.Named("pages"),
		Catalog:   cat,
		Cache:     resultCache,
		Warehouse: wh,
		Registry:  pages.Builtin(),
		Workers:   utils.EnvInt("PAGE_WORKERS", pages.DefaultWorkers),
		Timeout:   utils.EnvDuration("WAREHOUSE_TIMEOUT", pages.DefaultTimeout),
	})
	if err != nil {
		return nil, fmt.Errorf("page runner: %w", err)
	}

	return &types.App{
		Warehouse: wh,
		Catalog:   cat,
		Cache:     resultCache,
		Runner:    runner,
		Logger:    logger,
	}, nil
}

func instanceID() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "dashboard"
	}
	return fmt.Sprintf("%s-%d", host, os.Getpid())
}
