package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"assetflow/config"
	"assetflow/database"
	"assetflow/events"
	"assetflow/files"
	"assetflow/handlers"
	"assetflow/middleware"
	"assetflow/reports"
	"assetflow/routes"
	"assetflow/store"
	"assetflow/utils"
)

// Set at build time with -ldflags "-X main.Version=..."
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:          "assetflow",
	Short:        "Asset tracking API for college departments",
	SilenceUsage: true,
	RunE:         runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(seedCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// bootstrap loads .env and configuration and builds the logger.
func bootstrap() (*config.Config, *zap.Logger, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found or error loading it")
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	logger, err := initLogger(cfg.Log)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, logger, nil
}

func initLogger(cfg config.LogConfig) (*zap.Logger, error) {
	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	switch cfg.Level {
	case "debug":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "warn":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		zapCfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	return zapCfg.Build()
}

// initRedis returns nil when no address is configured or the server does not
// answer; reports are then generated on every request.
func initRedis(ctx context.Context, cfg config.RedisConfig, logger *zap.Logger) *redis.Client {
	if cfg.Addr == "" {
		return nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		logger.Warn("Redis unavailable, report cache disabled", zap.String("addr", cfg.Addr), zap.Error(err))
		rdb.Close()
		return nil
	}
	logger.Info("Connected to Redis", zap.String("addr", cfg.Addr))
	return rdb
}

func initFileStore(ctx context.Context, cfg config.StorageConfig, db *database.Database, logger *zap.Logger) (files.FileStore, error) {
	switch cfg.Backend {
	case files.BackendMinIO:
		return files.NewMinioFileStore(ctx, cfg.MinIO, logger)
	default:
		return files.NewMongoFileStore(db.DB), nil
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}
	defer logger.Sync()

	logger.Info("Starting assetflow", zap.String("version", Version))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := database.Connect(ctx, cfg.Mongo, logger)
	if err != nil {
		logger.Error("Failed to connect to database", zap.Error(err))
		return err
	}
	defer db.Disconnect()

	if err := store.EnsureIndexes(ctx, db.DB); err != nil {
		logger.Error("Failed to create indexes", zap.Error(err))
		return err
	}

	expiration, err := cfg.JWT.Expiration()
	if err != nil {
		return err
	}
	jwtManager := utils.NewJWTManager(cfg.JWT.Secret, expiration)

	assets := store.NewAssetStore(db.DB, logger)
	departments := store.NewDepartmentStore(db.DB)
	users := store.NewUserStore(db.DB)

	fileStore, err := initFileStore(ctx, cfg.Storage, db, logger)
	if err != nil {
		logger.Error("Failed to initialize file storage", zap.String("backend", cfg.Storage.Backend), zap.Error(err))
		return err
	}

	var cache reports.Cache
	if rdb := initRedis(ctx, cfg.Redis, logger); rdb != nil {
		defer rdb.Close()
		cache = reports.NewRedisCache(rdb, cfg.Redis.ReportTTL, logger)
	}

	hub := events.NewHub(logger)
	go hub.Run(ctx)

	h := handlers.New(handlers.Deps{
		Assets:      assets,
		Departments: departments,
		Vendors:     store.NewVendorStore(db.DB),
		Users:       users,
		Audit:       store.NewAuditStore(db.DB, logger),
		Reports:     reports.NewService(assets, departments, cache, logger),
		Events:      hub,
		Files:       fileStore,
		Policy:      files.Policy{MaxBytes: cfg.Storage.MaxFileBytes(), AllowedTypes: cfg.Storage.AllowedTypes},
		Tokens:      jwtManager,
		DB:          db,
		Logger:      logger,
		Version:     Version,
	})

	router := mux.NewRouter()
	routes.RegisterRoutes(router, h, middleware.NewAuthenticator(jwtManager, users, logger))
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		utils.RespondWithError(w, http.StatusNotFound, "Route not found")
	})

	// Outermost first: CORS answers preflights before anything else runs.
	var handler http.Handler = router
	handler = middleware.Recovery(logger)(handler)
	handler = middleware.Logging(logger)(handler)
	handler = middleware.RequestID(handler)
	handler = middleware.CORS(cfg.CORS.AllowedOrigins)(handler)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening",
			zap.String("addr", srv.Addr),
			zap.String("storage", cfg.Storage.Backend),
			zap.Bool("reportCache", cache != nil))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	select {
	case sig := <-quit:
		logger.Info("Shutting down server", zap.String("signal", sig.String()))
	case err := <-serverErr:
		logger.Error("HTTP server failed", zap.Error(err))
		return err
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Server forced shutdown", zap.Error(err))
	}
	cancel()

	logger.Info("Server stopped gracefully")
	return nil
}
