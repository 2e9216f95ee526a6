package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"fitbusiness/internal/domain/audit"
	"fitbusiness/internal/domain/auth"
	"fitbusiness/internal/domain/core"
	"fitbusiness/internal/domain/imports"
	"fitbusiness/internal/domain/insights"
	"fitbusiness/internal/platform/config"
	"fitbusiness/internal/platform/crypto"
	"fitbusiness/internal/platform/db"
	"fitbusiness/internal/platform/events"
	"fitbusiness/internal/platform/jobs"
	"fitbusiness/internal/platform/logging"
	"fitbusiness/internal/platform/metrics"
	"fitbusiness/internal/platform/seed"
	"fitbusiness/internal/transport/http/api"
	audithandler "fitbusiness/internal/transport/http/handlers/audit"
	corehandler "fitbusiness/internal/transport/http/handlers/core"
	importshandler "fitbusiness/internal/transport/http/handlers/imports"
	insightshandler "fitbusiness/internal/transport/http/handlers/insights"
	reportshandler "fitbusiness/internal/transport/http/handlers/reports"
	"fitbusiness/internal/transport/http/middleware"
)

const shutdownTimeout = 10 * time.Second

// Deps are the services the HTTP surface is built from.
type Deps struct {
	Core     *core.Service
	Audit    *audit.Service
	Insights *insights.Service
	Imports  *imports.Manager
	Metrics  *metrics.Collector
	Perms    middleware.PermissionStore
	// Ready reports whether external dependencies are reachable. Nil means always ready.
	Ready func(ctx context.Context) error
}

type App struct {
	Config config.Config
	Router http.Handler

	store     *core.Store
	sessions  *imports.Manager
	metrics   *metrics.Collector
	jobs      *jobs.Service
	pool      *pgxpool.Pool
	publisher events.Publisher
}

// New assembles the application from configuration. The caller owns Close.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	app := &App{Config: cfg}
	collector := metrics.New()

	app.store = core.NewStore()
	if cfg.SeedEnabled {
		fx, err := seed.LoadFixture(cfg.SeedFile)
		if err != nil {
			return nil, fmt.Errorf("load seed fixture: %w", err)
		}
		summary, err := seed.Populate(app.store, fx, seed.NewRand(cfg.SeedRandom), time.Now().UTC())
		if err != nil {
			return nil, fmt.Errorf("seed store: %w", err)
		}
		slog.Info("store seeded", "companies", summary.Companies, "employees", summary.Employees)
	}

	app.publisher = events.Noop{}
	if len(cfg.KafkaBrokers) > 0 {
		app.publisher = events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		slog.Info("domain events enabled", "brokers", strings.Join(cfg.KafkaBrokers, ","), "topic", cfg.KafkaTopic)
	}

	auditStore, err := app.auditStore(ctx, cfg)
	if err != nil {
		app.Close()
		return nil, err
	}

	var generator insights.Generator
	if client := insights.NewClient(cfg.InsightsAPIURL, cfg.InsightsAPIKey, cfg.InsightsModel, nil); client != nil {
		generator = client
	} else {
		slog.Info("insights generator not configured; fallback texts will be served")
	}

	app.metrics = collector
	app.sessions = imports.NewManager(cfg.ImportSessionTTL)
	app.jobs = jobs.New(16)
	app.jobs.Every(jobs.JobImportSweep, cfg.MaintenanceEvery, app.sweepImports)
	app.jobs.Every(jobs.JobStoreGauges, cfg.MaintenanceEvery, app.refreshGauges)

	deps := Deps{
		Core:     core.NewService(app.store, app.publisher, collector),
		Audit:    audit.New(auditStore, audit.WithFailureRecorder(collector)),
		Insights: insights.NewService(generator, collector, cfg.InsightsTimeout),
		Imports:  app.sessions,
		Metrics:  collector,
		Perms:    auth.StaticPermissions{},
		Ready:    app.ready,
	}
	app.Router = NewRouter(cfg, deps)
	return app, nil
}

// Start refreshes the store gauges once, then runs the background
// maintenance jobs until ctx is done.
func (a *App) Start(ctx context.Context) {
	if _, err := a.jobs.RunNow(ctx, jobs.JobStoreGauges, a.refreshGauges); err != nil {
		slog.Warn("initial gauge refresh failed", "err", err)
	}
	a.jobs.Start(ctx)
}

func (a *App) sweepImports(context.Context) (any, error) {
	return map[string]int{"expired": a.sessions.Sweep()}, nil
}

func (a *App) refreshGauges(context.Context) (any, error) {
	companies, employees := a.store.Counts()
	a.metrics.SetStoreSize(companies, employees)
	return map[string]int{"companies": companies, "employees": employees}, nil
}

func (a *App) auditStore(ctx context.Context, cfg config.Config) (audit.Store, error) {
	if cfg.AuditDatabaseURL == "" {
		return audit.NewMemoryStore(0), nil
	}
	sealer, err := crypto.New(cfg.DataEncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("audit encryption key: %w", err)
	}
	pool, err := db.Connect(ctx, cfg.AuditDatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("audit db connect: %w", err)
	}
	a.pool = pool
	if err := db.Migrate(ctx, pool, db.Migrations()); err != nil {
		return nil, fmt.Errorf("audit migrations: %w", err)
	}
	return audit.NewPostgresStore(pool, sealer), nil
}

func (a *App) ready(ctx context.Context) error {
	if a.pool == nil {
		return nil
	}
	return a.pool.Ping(ctx)
}

func (a *App) Close() {
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			slog.Warn("event publisher close failed", "err", err)
		}
	}
	if a.pool != nil {
		a.pool.Close()
	}
}

// NewRouter builds the full HTTP surface: probes, metrics, the JSON API under
// /api/v1 and the SPA fallback.
func NewRouter(cfg config.Config, deps Deps) http.Handler {
	if deps.Perms == nil {
		deps.Perms = auth.StaticPermissions{}
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(deps.Metrics))
	router.Use(middleware.Recoverer)
	router.Use(middleware.SecureHeaders(cfg.Environment == "production"))
	router.Use(middleware.Auth(cfg.JWTSecret, cfg.JWTIssuer))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if deps.Ready != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := deps.Ready(ctx); err != nil {
				http.Error(w, "audit db not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	if cfg.MetricsEnabled && deps.Metrics != nil {
		router.Handle("/metrics", deps.Metrics.Handler())
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RateLimit(cfg.RateLimitPerMinute, time.Minute, deps.Metrics))
		r.Use(middleware.SensitiveRateLimit(cfg.RateLimitPerMinute, time.Minute, deps.Metrics))

		r.Group(func(r chi.Router) {
			r.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
			corehandler.NewHandler(deps.Core, deps.Audit, deps.Perms).RegisterRoutes(r)
			reportshandler.NewHandler(deps.Core, deps.Perms).RegisterRoutes(r)
			insightshandler.NewHandler(deps.Core, deps.Insights, deps.Perms).RegisterRoutes(r)
			audithandler.NewHandler(deps.Audit, deps.Perms).RegisterRoutes(r)
		})

		// Uploads bound their own body to the import limit.
		importshandler.NewHandler(deps.Core, deps.Imports, deps.Audit, deps.Perms, deps.Metrics, cfg.ImportMaxBytes).RegisterRoutes(r)

		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			api.Fail(w, http.StatusNotFound, "not_found", "route not found", middleware.GetRequestID(r.Context()))
		})
	})

	router.Mount("/", spaHandler{staticPath: cfg.FrontendDir, indexPath: "index.html"})
	return router
}

// Run is the process entry point. It blocks until SIGINT or SIGTERM and then
// drains in-flight requests.
func Run() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	logCloser, err := logging.Setup(logging.Options{
		Level:      cfg.LogLevel,
		Format:     cfg.LogFormat,
		File:       cfg.LogFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		MaxAgeDays: cfg.LogMaxAgeDays,
	})
	if err != nil {
		slog.Error("logging setup failed", "err", err)
		os.Exit(1)
	}
	defer closeQuietly(logCloser)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := New(ctx, cfg)
	if err != nil {
		slog.Error("startup failed", "err", err)
		os.Exit(1)
	}
	defer app.Close()
	app.Start(ctx)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("FitBusiness server listening", "addr", cfg.Addr, "env", cfg.Environment)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "err", err)
		}
	case <-ctx.Done():
		slog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("graceful shutdown failed", "err", err)
		}
	}
}

func closeQuietly(c io.Closer) {
	if err := c.Close(); err != nil {
		slog.Warn("close failed", "err", err)
	}
}

type spaHandler struct {
	staticPath string
	indexPath  string
}

func (h spaHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet || strings.HasPrefix(r.URL.Path, "/api/") {
		http.NotFound(w, r)
		return
	}

	path := filepath.Join(h.staticPath, filepath.Clean("/"+r.URL.Path))
	_, err := os.Stat(path)
	if err == nil {
		http.FileServer(http.Dir(h.staticPath)).ServeHTTP(w, r)
		return
	}

	if os.IsNotExist(err) {
		index := filepath.Join(h.staticPath, h.indexPath)
		if _, err := os.Stat(index); err != nil {
			http.NotFound(w, r)
			return
		}
		http.ServeFile(w, r, index)
		return
	}

	http.NotFound(w, r)
}
