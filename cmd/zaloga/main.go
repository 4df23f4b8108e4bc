package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/erazemk/zaloga/internal/api"
	"github.com/erazemk/zaloga/internal/auth"
	"github.com/erazemk/zaloga/internal/config"
	"github.com/erazemk/zaloga/internal/db"
	"github.com/erazemk/zaloga/internal/logging"
	"github.com/erazemk/zaloga/internal/model"
	"github.com/erazemk/zaloga/internal/restock"
	"github.com/erazemk/zaloga/internal/store"
	"github.com/erazemk/zaloga/internal/telemetry"
)

func main() {
	cfg := config.Load()
	fs := flag.NewFlagSet("zaloga", flag.ContinueOnError)

	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "")
	fs.StringVar(&cfg.DBPath, "d", cfg.DBPath, "")

	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "")
	fs.StringVar(&cfg.Addr, "a", cfg.Addr, "")

	fs.StringVar(&cfg.AdminEmail, "admin", cfg.AdminEmail, "")
	fs.StringVar(&cfg.AdminEmail, "u", cfg.AdminEmail, "")

	fs.StringVar(&cfg.LogPath, "log", cfg.LogPath, "")
	fs.StringVar(&cfg.LogPath, "l", cfg.LogPath, "")

	fs.StringVar(&cfg.LogLevel, "level", cfg.LogLevel, "")

	fs.StringVar(&cfg.RedisAddr, "redis", cfg.RedisAddr, "")
	fs.StringVar(&cfg.RedisAddr, "r", cfg.RedisAddr, "")

	fs.StringVar(&cfg.OTLPEndpoint, "otlp", cfg.OTLPEndpoint, "")

	fs.Usage = func() {
		fmt.Fprint(os.Stdout, `Usage: zaloga [flags]

Flags:
  -d, -db <path>          SQLite database path (default: zaloga.sqlite3)
  -a, -addr <host:port>   listen address (default: :8080)
  -u, -admin <email>      admin email on first run (default: admin@localhost.localdomain)
  -l, -log <path>         log file path (default: no file, stdout/stderr only)
      -level <level>      log level: debug, info, warn, error (default: info)
  -r, -redis <host:port>  Redis address for restock notices (default: log only)
      -otlp <url>         OTLP/HTTP trace endpoint (default: tracing off)
  -h, -help               show this help and exit

Every flag also reads a ZALOGA_* environment variable or .env entry.
`)
	}

	if err := fs.Parse(os.Args[1:]); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if fs.NArg() > 0 {
		fmt.Fprintf(os.Stderr, "unexpected argument: %s\n", fs.Arg(0))
		fs.Usage()
		os.Exit(1)
	}

	logger, closeLog, err := logging.Setup(cfg.LogLevel, cfg.LogPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	if err := run(cfg, logger); err != nil {
		logger.Error("fatal", zap.Error(err))
		closeLog()
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx := context.Background()

	shutdownTracing, err := telemetry.SetupTracing(ctx, cfg.OTLPEndpoint)
	if err != nil {
		return fmt.Errorf("setting up tracing: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			logger.Warn("flushing traces", zap.Error(err))
		}
	}()

	_, statErr := os.Stat(cfg.DBPath)
	fresh := errors.Is(statErr, os.ErrNotExist)

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	// Idempotent; also runs on every start.
	if err := db.EnsureSchema(database); err != nil {
		return fmt.Errorf("ensuring database schema: %w", err)
	}
	logger.Info("database ready", zap.String("path", cfg.DBPath))

	jwtSecret := cfg.JWTSecret
	if jwtSecret == "" {
		jwtSecret, err = store.GetJWTSecret(ctx, database)
		if err != nil {
			return fmt.Errorf("getting JWT secret: %w", err)
		}
	}

	if fresh {
		token, err := initAdmin(ctx, database, cfg.AdminEmail, jwtSecret)
		if err != nil {
			database.Close()
			os.Remove(cfg.DBPath)
			return err
		}
		printInitResult(cfg.DBPath, cfg.AdminEmail, token)
		fmt.Println()
	}

	channel, closeChannel, err := restockChannel(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeChannel()

	notifier := restock.NewNotifier(database, channel, logger, cfg.NotifyConcurrency)

	handler, err := api.NewRouter(api.Config{
		DB:        database,
		JWTSecret: jwtSecret,
		Notifier:  notifier,
		Logger:    logger,
		RateLimit: cfg.RateLimit,
	})
	if err != nil {
		return fmt.Errorf("setting up router: %w", err)
	}

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-quit
		logger.Info("shutdown signal received", zap.String("signal", sig.String()))

		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(sctx); err != nil {
			logger.Error("server forced to shutdown", zap.Error(err))
		}
	}()

	logger.Info("server started", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("serving: %w", err)
	}

	logger.Info("server stopped, waiting for restock notices")
	notifier.Wait()
	return nil
}

// restockChannel picks Redis when an address is configured and the log
// otherwise.
func restockChannel(ctx context.Context, cfg *config.Config, logger *zap.Logger) (restock.Channel, func(), error) {
	if cfg.RedisAddr == "" {
		logger.Info("restock notices go to the log")
		return restock.LogChannel{Logger: logger}, func() {}, nil
	}

	client, err := restock.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to redis: %w", err)
	}
	logger.Info("restock notices go to redis",
		zap.String("addr", cfg.RedisAddr), zap.String("channel", cfg.RestockChannel))
	return restock.NewRedisChannel(client, cfg.RestockChannel), func() { client.Close() }, nil
}

// initAdmin creates the first admin account and returns a bearer token for it.
func initAdmin(ctx context.Context, database *sql.DB, email, jwtSecret string) (string, error) {
	user, err := store.CreateUser(ctx, database, email, "Admin", model.RoleAdmin)
	if err != nil {
		return "", fmt.Errorf("creating admin user: %w", err)
	}
	token, err := auth.GenerateToken(jwtSecret, user.ID, user.Email)
	if err != nil {
		return "", fmt.Errorf("generating admin token: %w", err)
	}
	return token, nil
}

// printInitResult prints the database initialization result to stdout.
func printInitResult(dbPath, email, token string) {
	fmt.Printf("Database created: %s\n", dbPath)
	fmt.Println("Schema initialized.")
	fmt.Println()
	fmt.Println("Admin account created:")
	fmt.Printf("  Email: %s\n", email)
	fmt.Printf("  Token: %s\n", token)
	fmt.Println()
	fmt.Println("Use the token as a Bearer credential. It expires in 7 days;")
	fmt.Println("create further users through /api/users.")
}
