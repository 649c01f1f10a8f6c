package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Helllokittti/tiktok-prototip/internal/api"
	"github.com/Helllokittti/tiktok-prototip/internal/auth"
	"github.com/Helllokittti/tiktok-prototip/internal/config"
	"github.com/Helllokittti/tiktok-prototip/internal/db"
	"github.com/Helllokittti/tiktok-prototip/internal/db/migrations"
	"github.com/Helllokittti/tiktok-prototip/internal/events"
	"github.com/Helllokittti/tiktok-prototip/internal/middleware"
	"github.com/Helllokittti/tiktok-prototip/internal/observ"
	"github.com/Helllokittti/tiktok-prototip/internal/repository/postgres"
	"github.com/Helllokittti/tiktok-prototip/internal/storage"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "server",
	Short:         "Short-video social API",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve()
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the database schema",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		sqlDB, err := db.OpenSQL(cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer sqlDB.Close()

		if err := migrations.MigrateUp(sqlDB); err != nil {
			return err
		}
		fmt.Println("Schema is up to date")
		return nil
	},
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the applied schema version",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		sqlDB, err := db.OpenSQL(cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer sqlDB.Close()

		status, err := migrations.CurrentStatus(sqlDB)
		if err != nil {
			return err
		}
		fmt.Printf("Current version: %d\n", status.Version)
		fmt.Printf("Latest version:  %d\n", status.Latest)
		fmt.Printf("Dirty:           %v\n", status.Dirty)
		fmt.Printf("Pending:         %d\n", status.Pending())
		return nil
	},
}

func init() {
	migrateCmd.AddCommand(migrateUpCmd, migrateStatusCmd)
	rootCmd.AddCommand(serveCmd, migrateCmd)
}

func serve() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := observ.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.New(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer database.Close()
	pool := database.Pool()

	store, uploadDir, err := openStorage(ctx, cfg, logger)
	if err != nil {
		return err
	}

	limiter, closeLimiter, err := authLimiter(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeLimiter()

	var publisher events.Publisher = events.Nop{}
	if len(cfg.KafkaBrokers) > 0 {
		publisher = events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
		logger.Info("publishing activity events", zap.Strings("brokers", cfg.KafkaBrokers), zap.String("topic", cfg.KafkaTopic))
	}
	defer publisher.Close()

	router := api.NewRouter(api.Deps{
		Users:          postgres.NewUserStore(pool),
		Videos:         postgres.NewVideoStore(pool),
		Comments:       postgres.NewCommentStore(pool),
		Likes:          postgres.NewLikeStore(pool),
		Messages:       postgres.NewMessageStore(pool),
		Shares:         postgres.NewShareStore(pool),
		Tokens:         auth.NewCodec(cfg.JWTSecret, cfg.TokenTTL),
		Storage:        store,
		Events:         publisher,
		DB:             database,
		AuthLimiter:    limiter,
		UploadDir:      uploadDir,
		MaxUploadBytes: cfg.MaxUploadBytes,
		Logger:         logger,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", zap.String("port", cfg.Port), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// openStorage returns the upload backend and, for local disk, the
// directory to serve at /uploads.
func openStorage(ctx context.Context, cfg *config.Config, logger *zap.Logger) (storage.Storage, string, error) {
	if cfg.StorageBackend == config.StorageS3 {
		s, err := storage.NewS3Storage(ctx, cfg.S3, logger)
		if err != nil {
			return nil, "", fmt.Errorf("s3 storage: %w", err)
		}
		logger.Info("storing uploads in s3", zap.String("bucket", cfg.S3.Bucket))
		return s, "", nil
	}

	s, err := storage.NewLocalStorage(cfg.UploadDir)
	if err != nil {
		return nil, "", fmt.Errorf("local storage: %w", err)
	}
	logger.Info("storing uploads on disk", zap.String("dir", s.Dir()))
	return s, s.Dir(), nil
}

// authLimiter shares counters through Redis when REDIS_URL is set and
// falls back to per-process buckets otherwise.
func authLimiter(ctx context.Context, cfg *config.Config, logger *zap.Logger) (middleware.RateLimiter, func(), error) {
	if cfg.RedisURL == "" {
		return middleware.NewMemoryLimiter(cfg.AuthRateLimit, 10*time.Minute), func() {}, nil
	}

	client, err := middleware.ConnectRedis(ctx, cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("redis: %w", err)
	}
	logger.Info("auth rate limiter backed by redis")
	limiter := middleware.NewRedisLimiter(client, "ratelimit:auth", cfg.AuthRateLimit, time.Minute)
	return limiter, func() { client.Close() }, nil
}
