package main

import (
	"context"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/Millionpixels-tech/marketplace-sub001/internal/auth"
	"github.com/Millionpixels-tech/marketplace-sub001/internal/cache"
	"github.com/Millionpixels-tech/marketplace-sub001/internal/events"
	"github.com/Millionpixels-tech/marketplace-sub001/internal/storage"
	"github.com/Millionpixels-tech/marketplace-sub001/internal/telemetry"
)

func main() {
	// .env is for local development; in containers the environment is injected
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file found, relying on environment")
	}

	// Use JSON traced logging
	baseHandler := slog.NewJSONHandler(os.Stdout, nil)
	logger := slog.New(telemetry.NewTraceHandler(baseHandler))
	slog.SetDefault(logger)

	if collector := os.Getenv("OTEL_COLLECTOR_URL"); collector != "" {
		shutdown, err := telemetry.InitTracer("authoring-service", collector)
		if err != nil {
			slog.Error("Failed to initialize tracer", "error", err)
			os.Exit(1)
		}
		defer shutdown(context.Background())
	}

	sessionTTL := 2 * time.Hour
	if raw := os.Getenv("SESSION_TTL_MINUTES"); raw != "" {
		if minutes, err := strconv.Atoi(raw); err == nil && minutes > 0 {
			sessionTTL = time.Duration(minutes) * time.Minute
		}
	}

	config := config{
		events:     events.NewEventConfig(),
		frontend:   os.Getenv("DOMAIN_NAME"),
		addr:       ":" + os.Getenv("API_PORT"),
		sessionTTL: sessionTTL,
	}

	poolSize, _ := strconv.Atoi(os.Getenv("REDIS_POOL_SIZE"))
	minIdleConns, _ := strconv.Atoi(os.Getenv("REDIS_MIN_IDLE_CONNS"))

	cacheCfg := cache.Config{
		Addr:         os.Getenv("REDIS_ADDR"),
		Password:     os.Getenv("REDIS_PASSWORD"),
		DB:           0,
		PoolSize:     poolSize,
		MinIdleConns: minIdleConns,
	}
	slog.Info("Connecting to Redis cache", "addr", cacheCfg.Addr)
	rdb, err := cache.NewRedisClient(cacheCfg)
	if err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}

	dsn := os.Getenv("DB_DSN")
	slog.Info("Connecting to database", "addr", dsn)
	conn, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer conn.Close()

	slog.Info("Connecting to object storage", "endpoint", os.Getenv("S3_ENDPOINT"))
	store, err := storage.NewMinioProvider(
		os.Getenv("S3_ENDPOINT"),
		os.Getenv("S3_ACCESS_KEY_ID"),
		os.Getenv("S3_SECRET_ACCESS_KEY"),
		os.Getenv("PUBLIC_FILES_URL"),
		os.Getenv("S3_USE_SSL") == "true",
	)
	if err != nil {
		slog.Error("Failed to initialize MinIO provider", "error", err)
		os.Exit(1)
	}

	slog.Info("Connecting to event bus", "endpoint", os.Getenv("NATS_ENDPOINT"))
	eventBus, err := events.NewNATSBus(os.Getenv("NATS_ENDPOINT"), logger)
	if err != nil {
		slog.Error("Failed to initialize event bus", "error", err)
		os.Exit(1)
	}

	issuerURL := os.Getenv("AUTHORIZATION_URL")
	slog.Info("Connecting to authorization service", "url", issuerURL)
	authenticator, err := auth.NewAuthenticator(context.Background(), issuerURL, os.Getenv("AUTHORIZATION_CLIENT_ID"))
	if err != nil {
		slog.Error("Failed to initialize authenticator", "error", err)
		os.Exit(1)
	}

	app := &application{
		config:        config,
		conn:          conn,
		cache:         rdb,
		authenticator: authenticator,
		storage:       store,
		eventBus:      eventBus,
		logger:        logger,
	}

	if err := app.run(app.mount()); err != nil {
		slog.Error("Failed to start server", "error", err)
		os.Exit(1)
	}
}
