package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/eugenenazirov/pack-fulfillment/internal/api"
	"github.com/eugenenazirov/pack-fulfillment/internal/calculator"
	"github.com/eugenenazirov/pack-fulfillment/internal/config"
	"github.com/eugenenazirov/pack-fulfillment/internal/metrics"
	"github.com/eugenenazirov/pack-fulfillment/internal/storage"
	"github.com/eugenenazirov/pack-fulfillment/web"
)

// App encapsulates the application dependencies and HTTP server.
type App struct {
	storage    storage.Storage
	calculator calculator.Calculator
	handler    *api.Handler
	router     http.Handler
	logger     *zap.Logger
	server     *http.Server
	closers    []io.Closer
}

// New initializes the application with all dependencies from the provided configuration.
func New(cfg config.Config, logger *zap.Logger) (*App, error) {
	ctx := context.Background()

	store, closers, err := openStorage(ctx, cfg)
	if err != nil {
		return nil, err
	}

	calc := calculator.New(calculator.WithMaxHorizon(cfg.MaxHorizon))

	handlerOpts := []api.HandlerOption{
		api.WithCalculationTimeout(cfg.CalculationTimeout),
		api.WithBatchLimits(cfg.BatchConcurrency, cfg.MaxBatchSize),
	}
	routerOpts := []api.RouterOption{
		api.WithLogging(cfg.EnableRequestLogging),
		api.WithRateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst),
		api.WithAllowedOrigins(cfg.CORSAllowedOrigins),
	}

	var metricsHandler http.Handler
	if cfg.MetricsEnabled {
		registry := metrics.NewRegistry()
		recorder := metrics.NewRecorder(registry)
		handlerOpts = append(handlerOpts, api.WithMetrics(recorder))
		routerOpts = append(routerOpts, api.WithRequestMetrics(recorder))
		metricsHandler = metrics.Handler(registry)
	}

	handler := api.NewHandler(calc, store, handlerOpts...)
	apiRouter := api.NewRouter(handler, logger, routerOpts...)

	rootHandler, err := BuildRootHandler(apiRouter, metricsHandler)
	if err != nil {
		closeAll(closers)
		return nil, fmt.Errorf("failed to build HTTP handler: %w", err)
	}

	logger.Info("application initialised",
		zap.String("storage", cfg.StorageDriver),
		zap.Int("max_horizon", cfg.MaxHorizon),
		zap.Bool("metrics", cfg.MetricsEnabled),
	)

	return &App{
		storage:    store,
		calculator: calc,
		handler:    handler,
		router:     apiRouter,
		logger:     logger,
		server:     NewServer(cfg, rootHandler),
		closers:    closers,
	}, nil
}

func openStorage(ctx context.Context, cfg config.Config) (storage.Storage, []io.Closer, error) {
	switch cfg.StorageDriver {
	case config.StorageSQLite:
		store, err := storage.OpenSQLite(ctx, cfg.DatabasePath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open sqlite storage: %w", err)
		}
		if err := storage.SeedIfEmpty(ctx, store, cfg.InitialPackSizes); err != nil {
			_ = store.Close()
			return nil, nil, fmt.Errorf("failed to apply initial pack sizes: %w", err)
		}
		return store, []io.Closer{store}, nil
	default:
		store := storage.NewMemoryStorage()
		if err := store.SetPackSizes(ctx, cfg.InitialPackSizes); err != nil {
			return nil, nil, fmt.Errorf("failed to apply initial pack sizes: %w", err)
		}
		return store, nil, nil
	}
}

// BuildRootHandler constructs the root HTTP handler that serves the embedded
// UI, routes API requests and, when metricsHandler is non-nil, exposes /metrics.
func BuildRootHandler(apiHandler, metricsHandler http.Handler) (http.Handler, error) {
	if apiHandler == nil {
		return nil, errors.New("api handler is required")
	}

	mux := http.NewServeMux()
	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServerFS(web.Static())))
	mux.Handle("/api/", apiHandler)
	if metricsHandler != nil {
		mux.Handle("/metrics", metricsHandler)
	}

	index := web.Index()
	mux.Handle("/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(index)
	}))

	return mux, nil
}

// NewServer creates and configures an HTTP server from the provided configuration.
func NewServer(cfg config.Config, handler http.Handler) *http.Server {
	addr := cfg.Port
	if !strings.Contains(addr, ":") {
		addr = ":" + addr
	}

	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}
}

// Start starts the HTTP server in a goroutine and logs the listening address.
func (a *App) Start() error {
	go func() {
		a.logger.Info("server listening", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Fatal("server error", zap.Error(err))
		}
	}()
	return nil
}

// Server returns the HTTP server instance for shutdown handling.
func (a *App) Server() *http.Server {
	return a.server
}

// Close releases resources held by the storage backend.
func (a *App) Close() error {
	return closeAll(a.closers)
}

func closeAll(closers []io.Closer) error {
	var errs []error
	for _, c := range closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
