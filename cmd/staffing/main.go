package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/clinicware/staffing/internal/catalog"
	classapi "github.com/clinicware/staffing/internal/classification/api"
	classdomain "github.com/clinicware/staffing/internal/classification/domain"
	classinfra "github.com/clinicware/staffing/internal/classification/infrastructure"
	"github.com/clinicware/staffing/internal/importer"
	"github.com/clinicware/staffing/internal/shared/auth"
	"github.com/clinicware/staffing/internal/shared/config"
	"github.com/clinicware/staffing/internal/shared/database"
	"github.com/clinicware/staffing/internal/shared/events"
	"github.com/clinicware/staffing/internal/shared/logging"
	"github.com/clinicware/staffing/internal/shared/metrics"
	"github.com/clinicware/staffing/internal/shared/middleware"
	"github.com/clinicware/staffing/internal/stay"
	"github.com/clinicware/staffing/internal/workload"
)

// App holds the application's long-lived components.
type App struct {
	config    *config.Config
	logger    *zap.Logger
	db        *database.DB
	publisher events.Publisher
	poller    *importer.HISPoller
	router    chi.Router
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx := context.Background()

	app, err := NewApp(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize application", zap.Error(err))
	}
	defer app.Close(ctx)

	app.Run(ctx)
}

// NewApp wires the application together. The database is required; the
// catalog cache, the event store and the HIS poller are optional and the
// service degrades gracefully when they are not configured.
func NewApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	app := &App{config: cfg, logger: logger}

	db, err := database.New(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	app.db = db

	if err := database.Migrate(ctx, db.Pool); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	loc, err := time.LoadLocation(cfg.Staffing.Timezone)
	if err != nil {
		logger.Warn("unknown timezone, falling back to UTC",
			zap.String("timezone", cfg.Staffing.Timezone))
		loc = time.UTC
	}

	app.publisher = events.NopPublisher{}
	if cfg.EventStore.Enabled {
		bus, err := events.NewBus(ctx, cfg.EventStore)
		if err != nil {
			logger.Warn("event store unavailable, running without event streaming",
				zap.Error(err))
		} else {
			app.publisher = bus
		}
	}

	// Catalog
	catalogRepo := catalog.NewRepository(db.Pool)
	if err := catalog.Seed(ctx, catalogRepo, logger); err != nil {
		return nil, fmt.Errorf("seed catalog: %w", err)
	}
	var cat catalog.Catalog = catalogRepo
	if cfg.Redis.Enabled {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unavailable, running without catalog cache",
				zap.Error(err))
		} else {
			cached := catalog.NewCachedCatalog(catalogRepo, client, logger)
			// The seed above may have changed reference data under a
			// cache entry from a previous run.
			cached.Invalidate(ctx)
			cat = cached
		}
	}
	catalogHandler := catalog.NewHandler(cat)

	// Stays
	windows := stay.NewWindows(loc)
	stayRepo := stay.NewRepository(db.Pool)
	stayService := stay.NewService(stayRepo, windows, logger)
	stayHandler := stay.NewHandler(stayService)

	// Workload
	workloadRepo := workload.NewRepository(db.Pool)
	calculator := workload.NewCalculator(workloadRepo, stayRepo, cfg.Staffing)
	scheduler := workload.NewScheduler(workloadRepo, calculator, app.publisher, logger)
	workloadHandler := workload.NewHandler(workloadRepo, stayRepo, calculator, scheduler)

	// Classification
	engine := classdomain.NewEngine(cat)
	classRepo := classinfra.NewPostgresRepository(db.Pool)
	classService := classapi.NewService(engine, classRepo, cat, stayRepo, scheduler, app.publisher, logger, loc)
	classHandler := classapi.NewHandler(classService, classRepo)

	// Import
	importService := importer.NewService(stayRepo, workloadRepo, windows, app.publisher, logger, loc)
	importHandler := importer.NewHandler(importService)

	if cfg.HIS.Enabled {
		app.poller = importer.NewHISPoller(cfg.HIS, stayRepo, logger)
		if err := app.poller.Start(ctx); err != nil {
			logger.Warn("HIS unavailable, running without transfer polling",
				zap.Error(err))
			app.poller = nil
		}
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.RateLimiter(100, 200))
	r.Use(metrics.Middleware)

	r.Get("/health", app.healthHandler)
	r.Get("/ready", app.readyHandler)
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api/v1", func(api chi.Router) {
		if cfg.Server.Env == "production" {
			api.Use(auth.Middleware(cfg.Auth))
		}
		api.Mount("/catalog", catalogHandler.Routes())
		api.Mount("/classifications", classHandler.Routes())
		api.Mount("/stays", stayHandler.Routes())
		api.Mount("/workload", workloadHandler.Routes())

		imports := api.With(middleware.MaxBodySize(32 << 20))
		if cfg.Server.Env == "production" {
			imports = imports.With(auth.RequireRoles("controller"))
		}
		imports.Mount("/import", importHandler.Routes())
	})

	app.router = r
	return app, nil
}

// Run starts the HTTP server and blocks until shutdown.
func (a *App) Run(ctx context.Context) {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", a.config.Server.Port),
		Handler:      a.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	done := make(chan struct{})
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		a.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("server shutdown failed", zap.Error(err))
		}
		close(done)
	}()

	a.logger.Info("staffing service listening",
		zap.Int("port", a.config.Server.Port),
		zap.String("env", a.config.Server.Env))

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		a.logger.Fatal("server failed", zap.Error(err))
	}
	<-done
}

// Close releases background components in reverse start order.
func (a *App) Close(ctx context.Context) {
	if a.poller != nil {
		if err := a.poller.Stop(ctx); err != nil {
			a.logger.Warn("HIS poller stop failed", zap.Error(err))
		}
	}
	if a.publisher != nil {
		a.publisher.Close()
	}
	if a.db != nil {
		a.db.Close()
	}
}

func (a *App) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{"status":"healthy","time":"%s"}`, time.Now().UTC().Format(time.RFC3339))
}

func (a *App) readyHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := a.db.Health(r.Context()); err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprintf(w, `{"status":"not ready","error":%q}`, err.Error())
		return
	}
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, `{"status":"ready"}`)
}
