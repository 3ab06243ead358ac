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
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"

	migrate "github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"

	portssvc "github.com/quipuware/quipu_backend/internal/core/ports/services"
	"github.com/quipuware/quipu_backend/internal/core/services"
	"github.com/quipuware/quipu_backend/internal/handlers"
	"github.com/quipuware/quipu_backend/internal/middleware"
	"github.com/quipuware/quipu_backend/internal/platform/locking"
	"github.com/quipuware/quipu_backend/internal/platform/sri"
	"github.com/quipuware/quipu_backend/internal/platform/storage"
	"github.com/quipuware/quipu_backend/internal/repositories/database/pgsql"
	"github.com/quipuware/quipu_backend/pkg/config"
	"github.com/quipuware/quipu_backend/pkg/database"
)

func main() {
	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize database connection pool (for application use)
	dbPool, err := database.NewPgxPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("Failed to initialize database pool", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer dbPool.Close()
	logger.Info("Database connection pool established.")

	if err := runMigrations(cfg.DatabaseURL, logger); err != nil {
		logger.Error("Failed to run migrations", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Redis backs the fiscal document locks and the rate limiter.
	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Error("Failed to parse redis URL", slog.String("error", err.Error()))
		os.Exit(1)
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Error("Failed to ping redis", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Fiscal platform adapters.
	httpClient := &http.Client{Timeout: 30 * time.Second}
	authority := sri.NewAuthorityClient(httpClient, sri.Config{
		ReceptionURLTest:     cfg.SRIReceptionURLTest,
		ReceptionURLProd:     cfg.SRIReceptionURLProd,
		AuthorizationURLTest: cfg.SRIAuthorizationURLTest,
		AuthorizationURLProd: cfg.SRIAuthorizationURLProd,
	})
	signer := sri.NewHTTPSigner(httpClient, cfg.SignerURL)
	xmlBuilder := sri.NewDocumentXMLBuilder()
	locker := locking.NewRedisLocker(redisClient, cfg.FiscalLockTTL)
	blobStore, err := storage.NewFilesystemStore(cfg.StorageDir)
	if err != nil {
		logger.Error("Failed to initialize blob store", slog.String("error", err.Error()))
		os.Exit(1)
	}

	repos := pgsql.NewRepositoryProvider(dbPool)
	svcs := services.NewServiceContainer(repos, signer, authority, blobStore, xmlBuilder, locker, cfg.FiscalDocTimeout)

	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware (logging, recovery, CORS, rate limiting)
	r.Use(middleware.StructuredLoggingMiddleware(logger), gin.Recovery())
	r.Use(cors.Default())
	r.Use(middleware.RateLimit(newRateLimiter(cfg, redisClient, logger)))

	if err := r.SetTrustedProxies(nil); err != nil {
		logger.Error("Failed to set trusted proxies", slog.String("error", err.Error()))
		os.Exit(1)
	}

	handlers.RegisterRoutes(r, cfg, svcs)

	// Background sweeper retries IN_PROCESS fiscal documents until the
	// authority settles them.
	go runSweeper(ctx, cfg.SweepInterval, svcs, logger)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		logger.Info("Server starting", slog.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed to run", slog.String("error", err.Error()))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", slog.String("error", err.Error()))
	}
	logger.Info("Server exited.")
}

// runMigrations applies all pending "up" migrations using a temporary
// database/sql connection over the pgx stdlib driver.
func runMigrations(databaseURL string, logger *slog.Logger) error {
	logger.Info("Running database migrations...")

	migrationDB, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := migrationDB.Close(); cerr != nil {
			logger.Error("Error closing migration DB connection", slog.String("error", cerr.Error()))
		}
	}()

	if err := migrationDB.Ping(); err != nil {
		return err
	}

	driver, err := postgres.WithInstance(migrationDB, &postgres.Config{})
	if err != nil {
		return err
	}

	m, err := migrate.NewWithDatabaseInstance("file://migrations", "postgres", driver)
	if err != nil {
		return err
	}

	err = m.Up()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}

	sourceErr, dbErr := m.Close()
	if sourceErr != nil {
		return sourceErr
	}
	if dbErr != nil {
		return dbErr
	}

	if errors.Is(err, migrate.ErrNoChange) {
		logger.Info("No new migrations to apply.")
	} else {
		logger.Info("Database migrations applied successfully.")
	}
	return nil
}

// newRateLimiter creates an IP rate limiter backed by redis.
func newRateLimiter(cfg *config.Config, redisClient *redis.Client, logger *slog.Logger) *limiter.Limiter {
	rate, err := limiter.NewRateFromFormatted(cfg.RateLimit)
	if err != nil {
		logger.Error("Invalid rate limit format", slog.String("rate_limit", cfg.RateLimit), slog.String("error", err.Error()))
		os.Exit(1)
	}

	store, err := sredis.NewStoreWithOptions(redisClient, limiter.StoreOptions{Prefix: "ratelimit"})
	if err != nil {
		logger.Error("Failed to create rate limit store", slog.String("error", err.Error()))
		os.Exit(1)
	}

	return limiter.New(store, rate)
}

// runSweeper runs the fiscal retry sweep on a fixed interval until ctx is
// cancelled.
func runSweeper(ctx context.Context, interval time.Duration, svcs *portssvc.ServiceContainer, logger *slog.Logger) {
	sweepLogger := logger.With(slog.String("component", "fiscal_sweeper"))
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			sweepLogger.Info("Fiscal sweeper stopped.")
			return
		case <-ticker.C:
			sweepCtx := middleware.WithLogger(ctx, sweepLogger)
			if _, err := svcs.Sweeper.SweepPending(sweepCtx); err != nil {
				sweepLogger.Error("Fiscal sweep failed", slog.String("error", err.Error()))
			}
		}
	}
}
