// Package app assembles the storefront from configuration: connections,
// stores, services and the HTTP router. Every entrypoint starts here.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"gitlab.connectwisedev.com/pos-service/pkg/api"
	"gitlab.connectwisedev.com/pos-service/pkg/cache"
	"gitlab.connectwisedev.com/pos-service/pkg/config"
	"gitlab.connectwisedev.com/pos-service/pkg/database"
	"gitlab.connectwisedev.com/pos-service/pkg/pos"
	"gitlab.connectwisedev.com/pos-service/pkg/ratelimit"
	"gitlab.connectwisedev.com/pos-service/pkg/store"
	"gitlab.connectwisedev.com/pos-service/pkg/upload"
)

const setupTimeout = 10 * time.Second

// App is a fully wired storefront.
type App struct {
	Handler   http.Handler
	Customers *pos.CustomerService
	Products  *pos.ProductService
	Orders    *pos.OrderService
	Logger    *slog.Logger

	closers []func()
}

// NewLogger returns a text logger for local runs and a JSON logger
// everywhere else.
func NewLogger(cfg *config.Config) *slog.Logger {
	if cfg.IsLocal() {
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, nil))
}

// New connects to the configured backends and builds the services. On error
// every connection opened so far is closed again.
func New(cfg *config.Config, logger *slog.Logger) (_ *App, err error) {
	a := &App{Logger: logger}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	st, err := a.openStore(cfg)
	if err != nil {
		return nil, err
	}

	var (
		productCache pos.ProductCache
		limiter      ratelimit.Limiter
	)
	if cfg.RedisAddr != "" {
		rc, err := cache.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, rc.Close)
		productCache = cache.NewProductListCache(rc.GetClient(), cfg.ProductCacheTTL, logger)
		limiter = ratelimit.NewRedisLimiter(rc.GetClient(), cfg.RateLimitMax, cfg.RateLimitWindow)
	} else {
		logger.Warn("redis_disabled", "reason", "REDIS_ADDR not set")
		limiter = ratelimit.NewLocalLimiter(cfg.RateLimitMax, cfg.RateLimitWindow)
	}

	images, err := upload.NewDiskStore(cfg.UploadDir)
	if err != nil {
		return nil, err
	}

	a.Customers = pos.NewCustomerService(st, logger)
	a.Products = pos.NewProductService(st, productCache, logger)
	a.Orders = pos.NewOrderService(st, st, st, logger)

	h := api.NewHandler(a.Customers, a.Products, a.Orders, images, logger)
	a.Handler = api.NewRouter(h, api.RouterOptions{Limiter: limiter, UploadDir: images.Dir()})
	return a, nil
}

func (a *App) openStore(cfg *config.Config) (store.Store, error) {
	ctx, cancel := context.WithTimeout(context.Background(), setupTimeout)
	defer cancel()

	switch cfg.StoreDriver {
	case config.DriverMongo:
		mc, err := database.NewMongoClient(cfg.Mongo)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, mc.Close)
		s := store.NewMongoStore(mc.GetDB())
		if err := s.EnsureIndexes(ctx); err != nil {
			return nil, fmt.Errorf("failed to create MongoDB indexes: %w", err)
		}
		return s, nil
	case config.DriverPostgres:
		pc, err := database.NewPostgresClient(cfg.Postgres)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, pc.Close)
		s := store.NewPostgresStore(pc.GetDB())
		if err := s.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("failed to create PostgreSQL schema: %w", err)
		}
		return s, nil
	case config.DriverMemory:
		a.Logger.Warn("memory_store", "reason", "data is lost on exit")
		return store.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

// Close releases connections in reverse order of opening.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
