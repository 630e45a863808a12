package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"campaignpulse/internal/config"
	apperrors "campaignpulse/internal/errors"
	"campaignpulse/internal/infrastructure"
	customMiddleware "campaignpulse/internal/middleware"
	"campaignpulse/internal/pipeline"
	"campaignpulse/internal/services"
	"campaignpulse/internal/validation"
	handlers "campaignpulse/internal/transport/http"
	"campaignpulse/pkg/contracts"
)

// AppName is the human readable name of the report server
const AppName = "CampaignPulse Report Server"

// Application wires the pipeline, the report services and the HTTP server
type Application struct {
	Config        *config.Config
	Paths         *config.Paths
	Router        *chi.Mux
	Server        *http.Server
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	Metrics       *infrastructure.PipelineMetrics
	Reports       *services.ReportService
	Health        *services.HealthService

	errorHandler *apperrors.ErrorHandler
	now          func() time.Time
}

// NewApplication creates the application from a validated config
func NewApplication(cfg *config.Config, logger *slog.Logger) (*Application, error) {
	if cfg == nil {
		return nil, apperrors.NewConfigError("configuration is required", nil)
	}
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("Application starting",
		slog.String("name", AppName),
		slog.String("version", contracts.Version))

	paths, err := config.NewPaths(cfg.Paths.BaseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve paths: %w", err)
	}
	if err := paths.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to ensure directories: %w", err)
	}
	paths.LogPathResolution(logger)

	providers, err := infrastructure.InitializeOTel(infrastructure.OTelConfigFrom(cfg.Telemetry), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}
	metrics, err := infrastructure.CreatePipelineMetrics(providers.Meter)
	if err != nil {
		return nil, err
	}

	reports := services.NewReportService(logger)
	a := &Application{
		Config:        cfg,
		Paths:         paths,
		Logger:        logger,
		OTelProviders: providers,
		Metrics:       metrics,
		Reports:       reports,
		Health:        services.NewHealthService(contracts.Version, reports, logger),
		errorHandler:  apperrors.NewErrorHandler(logger, cfg.Logging.Development),
		now:           time.Now,
	}

	a.setupRouter()
	a.createServer()
	return a, nil
}

func (a *Application) setupRouter() {
	r := chi.NewRouter()

	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)
	r.Use(customMiddleware.Recoverer(a.Logger))
	r.NotFound(a.errorHandler.NotFound)
	r.MethodNotAllowed(a.errorHandler.MethodNotAllowed)

	healthHandler := handlers.NewHealthHandler(a.Health, a.Logger)
	r.Get("/healthz", healthHandler.HealthCheck)
	r.Get("/version", healthHandler.Version)
	r.Handle("/metrics", handlers.NewMetricsHandler(a.OTelProviders.PrometheusHTTP, a.errorHandler))

	r.Group(func(r chi.Router) {
		otelMiddleware, err := customMiddleware.NewOTelMiddleware(a.OTelProviders, a.Metrics)
		if err != nil {
			a.Logger.Error("Failed to create OpenTelemetry middleware", slog.String("error", err.Error()))
		} else {
			r.Use(otelMiddleware.Handler)
		}

		r.Use(customMiddleware.StructuredLogger(a.Logger))
		r.Use(customMiddleware.SecurityHeaders)
		r.Use(customMiddleware.CORS(customMiddleware.CORSConfig{
			AllowedOrigins: a.Config.Server.AllowedOrigins,
		}))

		if rl := a.Config.Server.RateLimit; rl.Enabled {
			r.Use(customMiddleware.NewRateLimiter(rl.RPS, rl.Burst, a.Logger).Handler)
		}
		r.Use(customMiddleware.Timeout(a.Config.Server.ReadTimeout))

		reportHandler := handlers.NewReportHandler(a.Reports, a.Logger, a.errorHandler)
		r.Mount("/api/v1", reportHandler.Routes())
	})

	a.Router = r
}

func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:         fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:      a.Router,
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: a.Config.Server.WriteTimeout,
		IdleTimeout:  a.Config.Server.IdleTimeout,
	}
}

// RunPipeline analyzes the configured input and publishes the run. A failed
// run is returned with its error and leaves the published run unchanged.
func (a *Application) RunPipeline(ctx context.Context) (*pipeline.State, error) {
	if err := validation.NewInputValidator(a.Logger).ValidateInputFile(a.Config.Paths.InputFile); err != nil {
		return nil, err
	}

	runner, err := pipeline.NewRunner(pipeline.Options{
		Input:    a.Config.Paths.InputFile,
		Paths:    a.Paths,
		Analysis: a.Config.Analysis,
		Logger:   a.Logger,
		Metrics:  a.Metrics,
		Now:      a.now,
	})
	if err != nil {
		return nil, err
	}

	state, err := runner.Run(ctx)
	if err != nil {
		return state, err
	}
	a.Reports.Publish(state)
	return state, nil
}

// Start begins serving on ln in the background. Serve errors other than a
// normal close cancel the application context.
func (a *Application) Start(ctx context.Context, ln net.Listener, cancel context.CancelFunc) {
	a.Logger.InfoContext(ctx, "Starting report server",
		slog.String("address", ln.Addr().String()),
		slog.String("version", contracts.Version))

	go func() {
		if err := a.Server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			cancel()
		}
	}()
}

// Stop gracefully stops the server and flushes telemetry
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	timeout := a.Config.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	var errs []error
	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("server shutdown error: %w", err))
	}
	if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("telemetry shutdown error: %w", err))
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return errors.Join(errs...)
}

// Run serves until SIGINT or SIGTERM. The server starts before the pipeline
// so /healthz reports progress; a failed pipeline shuts the server down and
// is returned.
func (a *Application) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	ln, err := net.Listen("tcp", a.Server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", a.Server.Addr, err)
	}
	a.Start(ctx, ln, cancel)

	if _, err := a.RunPipeline(ctx); err != nil {
		a.Logger.ErrorContext(ctx, "Startup analysis failed", slog.String("error", err.Error()))
		return errors.Join(err, a.Stop(ctx))
	}

	<-ctx.Done()
	a.Logger.InfoContext(ctx, "Received shutdown signal")
	return a.Stop(ctx)
}
