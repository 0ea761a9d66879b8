package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/oolio-storefront/internal/domain/discount"
	"github.com/xenking/oolio-storefront/internal/domain/order"
	"github.com/xenking/oolio-storefront/internal/domain/stats"
	"github.com/xenking/oolio-storefront/internal/handler"
	"github.com/xenking/oolio-storefront/internal/storage/memory"
	"github.com/xenking/oolio-storefront/pkg/health"
	"github.com/xenking/oolio-storefront/pkg/httpmiddleware"
)

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing",
		zap.String("addr", cfg.Addr),
		zap.Int("discount_nth_order", cfg.Discount.NthOrder),
		zap.Int("discount_percent", cfg.Discount.Percent),
	)

	catalog, err := loadCatalog(cfg.CatalogFile)
	if err != nil {
		return err
	}
	lg.Info("Catalog loaded", zap.Int("products", catalog.Len()))

	// Stores.
	carts := memory.NewCartStore()
	orderStore := memory.NewOrderStore()
	codes := memory.NewDiscountStore()

	// Domain services.
	discounts, err := discount.NewService(codes, orderStore,
		discount.Config{N: cfg.Discount.NthOrder, XPercent: cfg.Discount.Percent},
		discount.WithMeterProvider(m.MeterProvider()),
	)
	if err != nil {
		return errors.Wrap(err, "create discount service")
	}
	orders, err := order.NewService(carts, catalog, discounts, orderStore,
		order.WithMeterProvider(m.MeterProvider()),
		order.WithTracerProvider(m.TracerProvider()),
	)
	if err != nil {
		return errors.Wrap(err, "create order service")
	}
	statsSvc := stats.NewService(orderStore, codes)

	// Health check service.
	healthSvc := health.New()
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	healthSvc.AddReadinessCheck("catalog", time.Second, health.NonEmptyCheck("catalog", catalog.Len))
	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	// Router: probes + storefront API on one server.
	router := chi.NewRouter()
	router.Get("/livez", healthSvc.LiveEndpoint)
	router.Get("/readyz", healthSvc.ReadyEndpoint)
	handler.NewHandler(catalog, carts, orders, discounts, statsSvc).Mount(router)

	routeFinder := httpmiddleware.MakeRouteFinder(router)
	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(router,
			httpmiddleware.InjectLogger(lg),
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins:     cfg.CORS.Origins,
				AllowHeaders:     []string{"Content-Type", httpmiddleware.RequestIDHeader},
				ExposeHeaders:    []string{httpmiddleware.RequestIDHeader},
				AllowCredentials: cfg.CORS.AllowCredentials,
				MaxAge:           86400,
			}),
			httpmiddleware.RateLimitWithCleanup(ctx, httpmiddleware.RateLimitConfig{
				Max:    cfg.RateLimit.Max,
				Window: cfg.RateLimit.Window,
				Skip:   isProbe,
			}),
			httpmiddleware.RequestID(),
			httpmiddleware.Instrument("storefront-api", routeFinder, m),
			httpmiddleware.LogRequests(routeFinder),
			httpmiddleware.Labeler(routeFinder),
		),
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		lg.Info("Server listening", zap.String("addr", cfg.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "server")
		}
		return nil
	})
	g.Go(func() error {
		// Graceful shutdown: wait for cancellation, drain, then stop.
		<-gCtx.Done()
		healthSvc.SetReady(false)
		if ctx.Err() != nil {
			lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
			time.Sleep(cfg.Graceful.ReadinessDelay)
		}

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		defer healthSvc.Stop()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return errors.Wrap(err, "shutdown")
		}
		return nil
	})
	return g.Wait()
}

// loadCatalog reads the seed file when configured, otherwise the embedded seed.
func loadCatalog(path string) (*memory.Catalog, error) {
	if path == "" {
		c, err := memory.DefaultCatalog()
		if err != nil {
			return nil, errors.Wrap(err, "load embedded catalog")
		}
		return c, nil
	}
	c, err := memory.LoadCatalogFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "load catalog %q", path)
	}
	return c, nil
}

func isProbe(r *http.Request) bool {
	switch r.URL.Path {
	case "/health", "/livez", "/readyz":
		return true
	}
	return false
}
