// Package app wires configuration, services, transport, and lifecycle
// into the runnable dashboard server.
package app

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"go.opentelemetry.io/otel/metric"

	"darkwatch/internal/config"
	apierrors "darkwatch/internal/errors"
	"darkwatch/internal/infrastructure"
	custommw "darkwatch/internal/middleware"
	"darkwatch/internal/services"
	handlers "darkwatch/internal/transport/http"
	ws "darkwatch/internal/websocket"
)

const (
	Version = "1.2.0"
	AppName = "DarkWatch - Keyword Monitoring Dashboard"
)

// BuildTime is set at compile time via ldflags.
var BuildTime = "unknown"

// Application is the main application container.
type Application struct {
	Config        *config.Config
	Router        *chi.Mux
	Server        *http.Server
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders

	SessionStore     *services.SessionStore
	DashboardService *services.DashboardService
	HealthService    *services.HealthService
	WebSocketHub     *ws.Hub

	webFS   fs.FS
	hubCtx  context.Context
	hubStop context.CancelFunc
	evictCh chan struct{}
}

// NewApplication creates an application instance with all dependencies
// wired. webFS is the embedded static frontend.
func NewApplication(webFS fs.FS) (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger.Info("application starting",
		slog.String("name", AppName),
		slog.String("version", Version),
		slog.Int("port", cfg.Server.Port))

	otelProviders, err := infrastructure.InitializeOTel(infrastructure.DefaultOTelConfig(Version), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: otelProviders,
		webFS:         webFS,
	}

	if err := app.initServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}
	if err := app.setupRouter(); err != nil {
		return nil, fmt.Errorf("failed to setup router: %w", err)
	}
	app.setupServer()

	return app, nil
}

func (a *Application) initServices() error {
	a.SessionStore = services.NewSessionStore(a.Config.Session.IdleTTL, a.Logger)
	a.WebSocketHub = ws.NewHub(a.Logger)

	metrics, err := ingestMetrics(a.OTelProviders.Meter)
	if err != nil {
		return fmt.Errorf("failed to create ingest instruments: %w", err)
	}

	a.DashboardService = services.NewDashboardService(a.SessionStore, a.WebSocketHub, metrics, a.Logger)
	a.HealthService = services.NewHealthService(Version, BuildTime, a.SessionStore, a.WebSocketHub, a.Logger)
	return nil
}

// ingestMetrics adapts the otel counters to the service-layer callback.
func ingestMetrics(meter metric.Meter) (*services.IngestMetrics, error) {
	instruments, err := infrastructure.CreateIngestInstruments(meter)
	if err != nil {
		return nil, err
	}
	return &services.IngestMetrics{
		RecordUpload: func(ctx context.Context, accepted, skipped int, rejected bool) {
			instruments.UploadsTotal.Add(ctx, 1)
			instruments.RowsAccepted.Add(ctx, int64(accepted))
			instruments.RowsSkipped.Add(ctx, int64(skipped))
			if rejected {
				instruments.UploadsRejected.Add(ctx, 1)
			}
		},
	}, nil
}

func (a *Application) setupRouter() error {
	r := chi.NewRouter()

	errorHandler := apierrors.NewErrorHandler(a.Logger, a.Config.Logging.Development)

	r.Use(custommw.RequestID)
	r.Use(custommw.StructuredLogger(a.Logger))
	r.Use(custommw.Recoverer(a.Logger))
	r.Use(custommw.SecurityHeaders)

	if a.Config.Security.EnableCORS {
		r.Use(custommw.CORS(custommw.CORSConfig{
			AllowedOrigins: a.Config.Security.AllowedOrigins,
		}))
	}
	if a.Config.Security.RateLimit.Enabled {
		r.Use(custommw.NewRateLimiter(
			a.Config.Security.RateLimit.RPS,
			a.Config.Security.RateLimit.Burst,
			a.Logger,
		).Handler)
	}

	uploadHandler := handlers.NewUploadHandler(a.DashboardService, a.Config.Upload, a.Logger, errorHandler)
	dashboardHandler := handlers.NewDashboardHandler(a.DashboardService, a.Logger, errorHandler)
	sessionHandler := handlers.NewSessionHandler(a.DashboardService, a.Logger, errorHandler)
	healthHandler := handlers.NewHealthHandler(a.HealthService, a.Logger)

	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Use(custommw.Session(a.Config.Session.CookieName, a.SessionStore, a.Logger))

		r.Post("/uploads", uploadHandler.Ingest)
		r.Mount("/dashboard", dashboardHandler.Routes())
		r.Delete("/session", sessionHandler.Reset)
		r.Get("/healthz", healthHandler.Check)
	})

	if a.OTelProviders.PrometheusHTTP != nil {
		r.Handle("/metrics", a.OTelProviders.PrometheusHTTP)
	}

	r.Get("/ws", ws.ServeWS(a.WebSocketHub, a.Config.WebSocket, a.Logger))

	// Embedded dashboard page and its assets.
	r.Group(func(r chi.Router) {
		r.Use(chimiddleware.Compress(5))
		r.Handle("/*", http.FileServer(http.FS(a.webFS)))
	})

	a.Router = r
	return nil
}

func (a *Application) setupServer() {
	a.Server = &http.Server{
		Addr:           fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
	}
}

// Run starts the server and blocks until the context is cancelled or a
// termination signal arrives.
func (a *Application) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.hubCtx, a.hubStop = context.WithCancel(context.Background())
	go a.WebSocketHub.Run(a.hubCtx)

	a.evictCh = make(chan struct{})
	go a.SessionStore.StartEviction(a.Config.Session.EvictionInterval, a.evictCh)

	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info("http server listening", slog.String("addr", a.Server.Addr))
		if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		a.Logger.Info("shutdown signal received")
		return a.Shutdown(context.Background())
	}
}

// Shutdown stops the server and background workers gracefully.
func (a *Application) Shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		a.Logger.Error("http server shutdown failed", slog.String("error", err.Error()))
	}

	if a.evictCh != nil {
		close(a.evictCh)
		a.evictCh = nil
	}
	if a.hubStop != nil {
		a.hubStop()
		a.hubStop = nil
	}

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.Error("otel shutdown failed", slog.String("error", err.Error()))
		}
	}

	infrastructure.CloseLogFile()
	a.Logger.Info("shutdown complete")
	return nil
}
