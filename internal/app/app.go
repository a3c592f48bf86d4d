// Package app wires the back office together: storage, cache, domain
// services, HTTP surface, and lifecycle.
package app

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/feastline/backoffice/internal/cache"
	"github.com/feastline/backoffice/internal/domain/cart"
	"github.com/feastline/backoffice/internal/domain/catalog"
	"github.com/feastline/backoffice/internal/domain/report"
	"github.com/feastline/backoffice/internal/handler"
	"github.com/feastline/backoffice/internal/repository"
	"github.com/feastline/backoffice/pkg/health"
	"github.com/feastline/backoffice/pkg/httpmiddleware"
)

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Metrics, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

	// PostgreSQL pool + migrations.
	pool, err := repository.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	// Health tracking.
	tracker := health.NewTracker()
	tracker.AddReadiness("postgres", 5*time.Second, func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	tracker.AddLiveness("goroutines", time.Second, health.GoroutineCount(10000))

	// Dish listing cache: Redis when configured, otherwise a noop.
	var dishCache catalog.DishListCache = catalog.NoopDishCache{}
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		rc, err := cache.NewDishCache(ctx, client, cfg.Redis.TTL)
		if err != nil {
			return errors.Wrap(err, "create dish cache")
		}
		defer func() { _ = rc.Close() }()

		tracker.AddReadiness("redis", 5*time.Second, func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		})
		dishCache = rc
	}

	tracker.Watch(ctx, 10*time.Second)
	tracker.SetReady(true)

	// Repositories.
	dishRepo := repository.NewDishRepository(pool)
	comboRepo := repository.NewComboRepository(pool)
	cartRepo := repository.NewCartRepository(pool)
	orderRepo := repository.NewOrderRepository(pool)
	userRepo := repository.NewUserRepository(pool)

	// Domain services.
	catalogSvc := catalog.NewService(dishRepo, comboRepo, dishCache)
	cartSvc := cart.NewService(cartRepo, repository.NewCatalogReader(dishRepo, comboRepo))
	reportSvc := report.NewService(orderRepo, userRepo)
	exporter := report.NewExporter(reportSvc, cfg.ReportTemplate)

	// HTTP surface.
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(
		httpmiddleware.Recovery(),
		httpmiddleware.CORS(httpmiddleware.CORSConfig{
			AllowOrigins:     cfg.CORS.Origins,
			AllowHeaders:     []string{"Content-Type", "Authorization"},
			AllowCredentials: cfg.CORS.AllowCredentials,
			MaxAge:           86400,
		}),
		httpmiddleware.RateLimit(ctx, httpmiddleware.RateLimitConfig{
			Max:    cfg.RateLimit.Max,
			Window: cfg.RateLimit.Window,
		}),
		httpmiddleware.RequestID(),
		httpmiddleware.LogRequests(),
	)

	handler.Router{
		Catalog:   handler.NewCatalogHandler(catalogSvc),
		Cart:      handler.NewCartHandler(cartSvc),
		Report:    handler.NewReportHandler(reportSvc, exporter),
		Health:    tracker,
		JWTSecret: []byte(cfg.JWTSecret),
	}.Register(engine)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler:           engine,
		// Request contexts inherit the app context, so handlers see the
		// zctx logger and shut down with the process.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		tracker.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		tracker.Stop()
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}
