package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	migrate "github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"

	_ "github.com/harborlend/loancrm/cmd/docs"
	portsrepo "github.com/harborlend/loancrm/internal/core/ports/repositories"
	portssvc "github.com/harborlend/loancrm/internal/core/ports/services"
	"github.com/harborlend/loancrm/internal/core/services"
	"github.com/harborlend/loancrm/internal/handlers"
	"github.com/harborlend/loancrm/internal/middleware"
	"github.com/harborlend/loancrm/internal/platform/cache"
	"github.com/harborlend/loancrm/internal/platform/config"
	"github.com/harborlend/loancrm/internal/platform/leadconnector"
	"github.com/harborlend/loancrm/internal/platform/storage"
	"github.com/harborlend/loancrm/internal/repositories/database/pgsql"
	"github.com/harborlend/loancrm/pkg/database"
)

// @title LoanCRM Backend API
// @version 1.0
// @description REST backend for a mortgage loan pipeline CRM.

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @security BearerAuth
func main() {
	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	dbPool, err := database.NewPgxPool(context.Background(), cfg.DatabaseURL)
	if err != nil {
		logger.Error("Failed to initialize database pool", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer dbPool.Close()
	logger.Info("Database connection pool established.")

	if err := runMigrations(cfg, logger); err != nil {
		logger.Error("Failed to apply migrations", slog.String("error", err.Error()))
		os.Exit(1)
	}

	repos := pgsql.NewRepositoryProvider(dbPool)
	serviceContainer, cleanup := buildServices(cfg, repos, logger)
	defer cleanup()

	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware (logging, recovery, CORS)
	r.Use(middleware.StructuredLoggingMiddleware(logger), gin.Recovery())
	r.Use(cors.New(corsConfig(cfg)))

	if err := r.SetTrustedProxies(nil); err != nil {
		logger.Error("Failed to set trusted proxies", slog.String("error", err.Error()))
		os.Exit(1)
	}

	handlers.RegisterRoutes(r, cfg, serviceContainer, repos.UserRepo)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		logger.Info("Server starting", slog.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed to run", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	// Block until an interrupt arrives, then drain in-flight requests.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("Server exited.")
}

// buildServices assembles the repository provider, optional platform clients
// and the service container. The returned cleanup closes whatever clients
// were opened.
func buildServices(cfg *config.Config, repos portsrepo.RepositoryProvider, logger *slog.Logger) (*portssvc.ServiceContainer, func()) {
	var dashCache *cache.Cache
	if cfg.RedisAddr != "" {
		c, err := cache.New(cfg.RedisAddr, cfg.RedisDB, cfg.DashboardTTL)
		if err != nil {
			// Dashboard queries fall through to the database when the cache
			// is unavailable.
			logger.Warn("Redis unavailable, dashboard caching disabled", slog.String("error", err.Error()))
		} else {
			dashCache = c
			logger.Info("Dashboard cache enabled", slog.String("addr", cfg.RedisAddr))
		}
	}

	var store storage.ObjectStore
	if cfg.S3Endpoint != "" {
		s, err := storage.New(cfg)
		if err != nil {
			logger.Error("Failed to initialize object storage", slog.String("error", err.Error()))
			os.Exit(1)
		}
		if err := s.EnsureBucket(context.Background()); err != nil {
			logger.Error("Failed to ensure storage bucket", slog.String("error", err.Error()))
			os.Exit(1)
		}
		store = s
		logger.Info("Object storage ready", slog.String("bucket", cfg.S3Bucket))
	} else {
		logger.Warn("Object storage not configured, document uploads disabled")
	}

	var contacts leadconnector.ContactClient
	if cfg.LeadConnectorEnabled() {
		contacts = leadconnector.New(cfg.LeadConnectorURL, cfg.LeadConnectorAPIKey, cfg.LeadConnectorTimeout)
		logger.Info("Lead connector client configured")
	} else {
		logger.Warn("Lead connector not configured, lead routes disabled")
	}

	container := services.NewServiceContainer(cfg, repos, dashCache, store, contacts)
	cleanup := func() {
		if dashCache != nil {
			if err := dashCache.Close(); err != nil {
				logger.Error("Error closing cache client", slog.String("error", err.Error()))
			}
		}
	}
	return container, cleanup
}

// runMigrations applies all pending "up" migrations over a temporary
// database/sql connection using the pgx stdlib driver.
func runMigrations(cfg *config.Config, logger *slog.Logger) error {
	logger.Info("Running database migrations...")

	migrationDB, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return err
	}
	if err := migrationDB.Ping(); err != nil {
		migrationDB.Close()
		return err
	}
	defer func() {
		if cerr := migrationDB.Close(); cerr != nil {
			logger.Error("Error closing migration DB connection", slog.String("error", cerr.Error()))
		}
	}()

	driver, err := postgres.WithInstance(migrationDB, &postgres.Config{})
	if err != nil {
		return err
	}

	m, err := migrate.NewWithDatabaseInstance("file://migrations", "postgres", driver)
	if err != nil {
		return err
	}

	upErr := m.Up()
	if upErr != nil && upErr != migrate.ErrNoChange {
		return upErr
	}

	sourceErr, dbErr := m.Close()
	if sourceErr != nil {
		return sourceErr
	}
	if dbErr != nil {
		return dbErr
	}

	if upErr == migrate.ErrNoChange {
		logger.Info("No new migrations to apply.")
	} else {
		logger.Info("Database migrations applied successfully.")
	}
	return nil
}

func corsConfig(cfg *config.Config) cors.Config {
	corsCfg := cors.DefaultConfig()
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "Authorization")
	if len(cfg.CORSAllowedOrigins) > 0 {
		corsCfg.AllowOrigins = cfg.CORSAllowedOrigins
	} else {
		corsCfg.AllowAllOrigins = true
	}
	return corsCfg
}
