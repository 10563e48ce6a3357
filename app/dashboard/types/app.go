package types

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/axelarscope/dashboard/pkg/cache"
	"github.com/axelarscope/dashboard/pkg/catalog"
	"github.com/axelarscope/dashboard/pkg/pages"
	"github.com/axelarscope/dashboard/pkg/redis"
	"github.com/axelarscope/dashboard/pkg/warehouse"
)

type App struct {
	Warehouse warehouse.Client
	Catalog   *catalog.Catalog
	Cache     *cache.Cache
	Runner    *pages.Runner
	// RedisClient and Broadcaster are nil when REDIS_ENABLED is off.
	RedisClient *redis.Client
	Broadcaster *redis.Broadcaster
	// Zap Logger
	Logger *zap.Logger
	// Server represents the HTTP server instance used to handle incoming client requests and manage HTTP routes.
	Server *http.Server
}

// ClearCache purges the local cache and announces it to other instances.
func (a *App) ClearCache(ctx context.Context, user string) int {
	n := a.Cache.Clear()
	if a.Broadcaster != nil {
		a.Broadcaster.Announce(ctx, n, user)
	}
	return n
}

// Close releases the query pool and the warehouse and Redis connections.
func (a *App) Close() {
	if a.Runner != nil {
		a.Runner.Close()
	}
	if c, ok := a.Warehouse.(io.Closer); ok {
		if err := c.Close(); err != nil {
			a.Logger.Error("Failed to close warehouse connection", zap.Error(err))
		}
	}
	if a.RedisClient != nil {
		if err := a.RedisClient.Close(); err != nil {
			a.Logger.Error("Failed to close Redis connection", zap.Error(err))
		}
	}
}

// Start starts the application.
func (a *App) Start(ctx context.Context) {
	go func() {
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.Error("Server stopped", zap.Error(err))
		}
	}()
	if a.Broadcaster != nil {
		go a.Broadcaster.Listen(ctx, a.Cache)
	}
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = a.Server.Shutdown(shutdownCtx)
	a.Close()
	time.Sleep(200 * time.Millisecond)
	a.Logger.Info("さようなら!")
}
