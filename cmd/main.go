/*
Package main is the entry point for the RosterHub server.

It loads configuration, initializes the global logging system, connects to
PostgreSQL (applying migrations), optionally connects Redis and S3 storage,
builds the presence registry and realtime hub, serves HTTP, and shuts down
gracefully on SIGINT or SIGTERM.
*/
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

	"golang.org/x/time/rate"

	"rosterhub/internal/app/cache"
	"rosterhub/internal/app/db"
	"rosterhub/internal/app/presence"
	"rosterhub/internal/app/realtime"
	"rosterhub/internal/app/storage"
	"rosterhub/internal/app/user"
	"rosterhub/internal/configs"
	"rosterhub/internal/handler"
	"rosterhub/internal/pkg/auth/jwt"
	"rosterhub/internal/pkg/limiter"
	"rosterhub/internal/pkg/logx"
)

const (
	// LoginRate allows one login attempt every five seconds per IP, with bursts of five.
	LoginRate  = 0.2
	LoginBurst = 5

	// HandshakeRate allows one WebSocket handshake per second per IP, with bursts of ten.
	HandshakeRate  = 1
	HandshakeBurst = 10

	shutdownTimeout = 5 * time.Second
)

func main() {
	// Load configuration from environment variables
	cfg, err := configs.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize global logger
	logx.InitGlobalLogger(cfg.IsDevelopment())
	logx.Logger().Info().
		Str("environment", cfg.Environment).
		Int("port", cfg.Port).
		Strs("allowed_origins", cfg.AllowedOrigins).
		Str("ws_auth_mode", cfg.WSAuthMode).
		Bool("storage_enabled", cfg.StorageEnabled()).
		Bool("identity_cache_enabled", cfg.RedisURL != "").
		Msg("Configuration loaded successfully")

	// Create a context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.DatabaseDSN)
	if err != nil {
		logx.Fatal(err, "Failed to initialize database")
	}
	defer pool.Close()

	users := db.NewUserStore(pool)

	deps := &handler.AppDeps{
		Config:   cfg,
		Users:    users,
		Students: db.NewStudentStore(pool),
		Activity: db.NewActivityStore(pool),
		Chat:     db.NewChatStore(pool),
	}

	var lookup user.Lookup = users
	if cfg.RedisURL != "" {
		redisClient, err := cache.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			logx.Fatal(err, "Failed to connect to Redis")
		}
		defer redisClient.Close()

		identityCache := cache.NewIdentityCache(redisClient, users, cfg.IdentityCacheTTL)
		lookup = identityCache
		deps.IdentityCache = identityCache
	}

	if cfg.StorageEnabled() {
		storageService, err := storage.NewStorageService(ctx, storage.ServiceConfig{
			S3BucketName:      cfg.S3BucketName,
			S3Endpoint:        cfg.S3Endpoint,
			S3AccessKeyID:     cfg.S3AccessKeyID,
			S3SecretAccessKey: cfg.S3SecretAccessKey,
			PublicBaseURL:     cfg.S3PublicBaseURL,
		})
		if err != nil {
			logx.Fatal(err, "Failed to initialize storage service")
		}
		deps.Storage = storageService
	}

	policy, err := jwt.ParsePolicy(cfg.WSAuthMode)
	if err != nil {
		logx.Fatal(err, "Invalid WebSocket auth mode")
	}

	verifier := jwt.NewVerifier(cfg.JWTSecret, lookup)
	hub := realtime.NewHub()
	lifecycle := realtime.NewLifecycle(presence.NewRegistry(), hub, realtime.LifecycleConfig{
		DisconnectDelay: cfg.DisconnectDelay,
		LogoutGrace:     cfg.LogoutGrace,
	})

	deps.Verifier = verifier
	deps.Authenticator = realtime.NewAuthenticator(verifier, policy)
	deps.Lifecycle = lifecycle
	deps.Broadcaster = hub
	deps.LoginLimiter = limiter.NewIPRateLimiter(rate.Limit(LoginRate), LoginBurst)
	deps.WSLimiter = limiter.NewIPRateLimiter(rate.Limit(HandshakeRate), HandshakeBurst)
	defer deps.LoginLimiter.Stop()
	defer deps.WSLimiter.Stop()

	// Setup HTTP server and routes
	serverAddr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      handler.Router(deps),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logx.Info(fmt.Sprintf("RosterHub server starting on http://localhost%s", serverAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logx.Fatal(err, "Server failed to start")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server.
	<-ctx.Done()
	logx.Info("Received shutdown signal. Starting graceful shutdown...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logx.Error(err, "Server forced to shutdown")
	}

	// Hijacked WebSocket connections are not tracked by Shutdown.
	hub.CloseAll("Server shutting down.")

	logx.Info("Server gracefully stopped.")
}
