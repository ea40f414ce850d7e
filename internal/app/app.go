package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/pos-restaurant/internal/domain/menu"
	"github.com/xenking/pos-restaurant/internal/domain/order"
	"github.com/xenking/pos-restaurant/internal/domain/user"
	"github.com/xenking/pos-restaurant/internal/handler"
	"github.com/xenking/pos-restaurant/pkg/health"
	"github.com/xenking/pos-restaurant/pkg/httpmiddleware"
)

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing",
		zap.String("addr", cfg.Addr),
		zap.String("storage", cfg.Storage.Driver),
	)

	store, err := OpenStore(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.Close(closeCtx); err != nil {
			lg.Error("Close store", zap.Error(err))
		}
	}()

	// Health probes.
	registry := health.New()
	registry.Ready(health.Probe{
		Name:    store.Driver,
		Timeout: 5 * time.Second,
		Check:   health.PingCheck(store),
	})
	registry.Live(health.Probe{
		Name:    "goroutines",
		Timeout: time.Second,
		Check:   health.GoroutineCheck(10000),
	})
	registry.Live(health.Probe{
		Name:    "gc_pause",
		Timeout: time.Second,
		Check:   health.GCPauseCheck(time.Second),
	})

	// Domain services.
	orderService, err := order.NewService(store.Orders, store.Menu,
		order.WithTracerProvider(m.TracerProvider()),
		order.WithMeterProvider(m.MeterProvider()),
	)
	if err != nil {
		return errors.Wrap(err, "create order service")
	}
	menuService := menu.NewService(store.Menu)
	directory := user.NewDirectory(store.Users, user.DirectoryConfig{
		SecretKey:  []byte(cfg.Auth.SecretKey),
		TokenTTL:   cfg.Auth.TokenTTL,
		BcryptCost: cfg.Auth.BcryptCost,
	})

	// HTTP handlers.
	h := handler.New(handler.Config{
		UploadDir:      cfg.Uploads.Dir,
		MaxUploadBytes: cfg.Uploads.MaxBytes,
	}, orderService, menuService, store.Menu, directory)
	router := h.Router(handler.Probes{
		Live:  registry.LiveHandler(),
		Ready: registry.ReadyHandler(),
	})

	limiter := httpmiddleware.NewLimiter(httpmiddleware.RateLimitConfig{
		Max:    cfg.RateLimit.Max,
		Window: cfg.RateLimit.Window,
	})

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(
			otelhttp.NewHandler(router, "pos-api",
				otelhttp.WithTracerProvider(m.TracerProvider()),
				otelhttp.WithMeterProvider(m.MeterProvider()),
			),
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins:     cfg.CORS.Origins,
				AllowHeaders:     []string{"Content-Type", "Authorization"},
				ExposeHeaders:    []string{httpmiddleware.RequestIDHeader},
				AllowCredentials: cfg.CORS.AllowCredentials,
				MaxAge:           86400,
			}),
			limiter.Middleware(),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
		),
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return registry.Run(gCtx, 10*time.Second)
	})
	g.Go(func() error {
		return limiter.Run(gCtx)
	})
	g.Go(func() error {
		// Graceful shutdown: wait for cancellation, drain, then stop.
		<-gCtx.Done()
		registry.MarkReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			return errors.Wrap(err, "shutdown")
		}
		return nil
	})
	g.Go(func() error {
		registry.MarkReady(true)
		lg.Info("Server listening", zap.String("addr", cfg.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "server")
		}
		return nil
	})
	return g.Wait()
}
