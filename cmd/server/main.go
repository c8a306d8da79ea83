// Command server runs the CheckMaster receiving conference API.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	conferenceapp "github.com/checkmaster/backend/internal/application/conference"
	identityapp "github.com/checkmaster/backend/internal/application/identity"
	"github.com/checkmaster/backend/internal/domain/conference"
	"github.com/checkmaster/backend/internal/infrastructure/auth"
	"github.com/checkmaster/backend/internal/infrastructure/cache"
	"github.com/checkmaster/backend/internal/infrastructure/config"
	"github.com/checkmaster/backend/internal/infrastructure/event"
	"github.com/checkmaster/backend/internal/infrastructure/logger"
	"github.com/checkmaster/backend/internal/infrastructure/migration"
	"github.com/checkmaster/backend/internal/infrastructure/nfe"
	"github.com/checkmaster/backend/internal/infrastructure/persistence"
	"github.com/checkmaster/backend/internal/infrastructure/scheduler"
	"github.com/checkmaster/backend/internal/infrastructure/storage"
	"github.com/checkmaster/backend/internal/infrastructure/telemetry"
	"github.com/checkmaster/backend/internal/interfaces/http/handler"
	"github.com/checkmaster/backend/internal/interfaces/http/middleware"
	"github.com/checkmaster/backend/internal/interfaces/http/router"
	"github.com/checkmaster/backend/migrations"
	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/checkmaster/backend/docs"
)

const shutdownTimeout = 30 * time.Second

//	@title			CheckMaster API
//	@version		1.0
//	@description	Receiving conference of NF-e invoices: staging, counting, approval and history.

//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting CheckMaster backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	if err := run(cfg, log); err != nil {
		log.Fatal("Server stopped with error", zap.Error(err))
	}
	log.Info("Server exited gracefully")
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	profiler, err := telemetry.NewProfiler(cfg.Telemetry, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := profiler.Stop(); err != nil {
			log.Error("Profiler stop failed", zap.Error(err))
		}
	}()

	loggerProvider, err := telemetry.NewLoggerProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := loggerProvider.Shutdown(context.Background()); err != nil {
			log.Error("Logger provider shutdown failed", zap.Error(err))
		}
	}()
	log = loggerProvider.Bridge(log)

	// Telemetry first so the database plugin and the event bus pick up the global providers
	tracerProvider, err := telemetry.NewTracerProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		return err
	}
	meterProvider, err := telemetry.NewMeterProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := meterProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Meter provider shutdown failed", zap.Error(err))
		}
		if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Tracer provider shutdown failed", zap.Error(err))
		}
	}()

	// Database
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level), cfg.Telemetry.DBSlowQueryThresh)
	db, err := persistence.NewDatabase(&cfg.Database, gormLog)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected", zap.String("driver", cfg.Database.Driver))

	dbTracing := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		DBSystem:        dbSystem(cfg.Database.Driver),
		SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
	}, log)
	if err := dbTracing.Register(db.DB); err != nil {
		return fmt.Errorf("failed to register database tracing: %w", err)
	}

	if err := prepareSchema(cfg, db, log); err != nil {
		return err
	}

	// Repositories
	userRepo := persistence.NewGormUserRepository(db.DB)
	branchRepo := persistence.NewGormBranchRepository(db.DB)
	historyRepo := persistence.NewGormHistoryRepository(db.DB)
	var workspaceStore conference.WorkspaceStore = persistence.NewGormWorkspaceStore(db.DB)

	// Redis: workspace snapshot cache and shared token revocation
	var blacklist auth.TokenBlacklist = auth.NewInMemoryTokenBlacklist()
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				log.Error("Error closing Redis", zap.Error(err))
			}
		}()
		workspaceStore = cache.NewRedisWorkspaceStore(workspaceStore, redisClient, cfg.Redis.WorkspaceTTL, log)
		blacklist = auth.NewRedisTokenBlacklist(redisClient)
		log.Info("Redis connected", zap.String("addr", cfg.Redis.Addr()))
	}

	// Invoice archive
	var archive conferenceapp.InvoiceArchive = storage.NoopInvoiceArchive{}
	if cfg.Storage.Enabled {
		s3Archive, err := storage.NewS3InvoiceArchive(ctx, &cfg.Storage, storage.WithLogger(log))
		if err != nil {
			return err
		}
		if err := s3Archive.EnsureBucket(ctx); err != nil {
			return err
		}
		archiveQueue := scheduler.NewArchiveQueue(scheduler.QueueConfig{
			Workers:    cfg.Storage.Workers,
			JobTimeout: cfg.Storage.Timeout,
			Retries:    cfg.Storage.Retries,
			RetryDelay: cfg.Storage.RetryDelay,
		}, s3Archive, log)
		if err := archiveQueue.Start(ctx); err != nil {
			return err
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := archiveQueue.Stop(stopCtx); err != nil {
				log.Warn("Archive queue did not drain", zap.Error(err))
			}
		}()
		archive = archiveQueue
		log.Info("Invoice archive enabled", zap.String("bucket", s3Archive.Bucket()))
	}

	// Events
	eventBus := event.NewInMemoryEventBus(log)
	eventBus.Subscribe(event.NewAuditLogHandler(log))
	conferenceMetrics, err := telemetry.NewConferenceMetrics(meterProvider.Meter("checkmaster/conference"))
	if err != nil {
		return err
	}
	eventBus.Subscribe(event.NewConferenceMetricsHandler(conferenceMetrics))
	if err := eventBus.Start(ctx); err != nil {
		return err
	}
	defer func() {
		_ = eventBus.Stop(context.Background())
	}()

	// Application services
	jwtService := auth.NewJWTService(cfg.JWT)
	authService := identityapp.NewAuthService(userRepo, jwtService, blacklist, log)
	userService := identityapp.NewUserService(userRepo, blacklist, cfg.JWT.AccessTokenExpiration, eventBus, log)
	branchService := identityapp.NewBranchService(branchRepo, log)
	historyService := conferenceapp.NewHistoryService(historyRepo, branchRepo, log)
	workspaceService := conferenceapp.NewWorkspaceService(conferenceapp.WorkspaceServiceDeps{
		Store:       workspaceStore,
		History:     historyRepo,
		Branches:    branchRepo,
		Parser:      nfe.NewParser(),
		Archive:     archive,
		Supervisors: authService,
		EventBus:    eventBus,
		Logger:      log,
	})

	if cfg.Seed.Enabled {
		if err := identityapp.NewSeeder(userRepo, branchRepo, cfg.Seed.Password, log).Seed(ctx); err != nil {
			return err
		}
	}

	// HTTP
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Tracing(cfg.Telemetry.ServiceName, cfg.Telemetry.Enabled))
	engine.Use(middleware.Profiling(profiler.IsEnabled()))
	engine.Use(middleware.Secure())

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	corsConfig.AllowMethods = cfg.HTTP.CORSAllowMethods
	corsConfig.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	engine.Use(middleware.CORSWithConfig(corsConfig))

	checks := map[string]handler.HealthCheck{
		"database": func(context.Context) error { return db.Ping() },
	}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}
	engine.GET("/health", handler.NewHealthHandler(cfg.App.Name, checks).Health)
	engine.GET("/swagger/*any",
		middleware.SwaggerProtection(cfg.HTTP.SwaggerEnabled, cfg.HTTP.SwaggerAllowedIPs),
		ginSwagger.WrapHandler(swaggerFiles.Handler),
	)

	credentialLimiter := middleware.NewRateLimiter(cfg.HTTP.CredentialAttempts, cfg.HTTP.CredentialWindow)
	go credentialLimiter.Run(ctx)

	jwtConfig := middleware.DefaultJWTConfig(jwtService)
	jwtConfig.TokenBlacklist = blacklist
	jwtConfig.Logger = log

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	router.RegisterAPI(r, router.Handlers{
		Auth:       handler.NewAuthHandler(authService),
		Conference: handler.NewConferenceHandler(workspaceService, historyService, cfg.HTTP.MaxUploadSize),
		Dashboard:  handler.NewDashboardHandler(historyService),
		Users:      handler.NewUserHandler(userService),
		Branches:   handler.NewBranchHandler(branchService),
	}, router.Guards{
		Authenticated: []gin.HandlerFunc{
			middleware.JWTAuthMiddlewareWithConfig(jwtConfig),
			middleware.SpanEnricher(),
			middleware.LoadActor(authService),
		},
		Credentials: middleware.RateLimit(credentialLimiter),
		Upload:      middleware.BodyLimit(cfg.HTTP.MaxUploadSize),
	})
	r.Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return nil
}

// prepareSchema creates the SQLite schema from the models, or applies the embedded SQL
// migrations to PostgreSQL when database.migrate_on_start is set
func prepareSchema(cfg *config.Config, db *persistence.Database, log *zap.Logger) error {
	if cfg.Database.Driver != "postgres" {
		if err := db.AutoMigrate(); err != nil {
			return err
		}
		log.Info("Database schema synchronized")
		return nil
	}
	if !cfg.Database.MigrateOnStart {
		return nil
	}

	// The migrator owns and closes its connection
	sqlDB, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("failed to open migration connection: %w", err)
	}
	m, err := migration.New(sqlDB, migrations.FS, log)
	if err != nil {
		_ = sqlDB.Close()
		return err
	}
	defer func() {
		if err := m.Close(); err != nil {
			log.Warn("Failed to close migrator", zap.Error(err))
		}
	}()
	return m.Up()
}

func dbSystem(driver string) string {
	if driver == "postgres" {
		return "postgresql"
	}
	return driver
}
