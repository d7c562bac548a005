// Package main is the entry point for the minipos API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"minipos/internal/domain/auth"
	"minipos/internal/domain/sales/salereturn"
	v1 "minipos/internal/infrastructure/http/v1"
	"minipos/internal/infrastructure/storage/postgres"
	"minipos/internal/infrastructure/storage/postgres/auth_repo"
	"minipos/internal/infrastructure/storage/postgres/catalog_repo"
	"minipos/internal/infrastructure/storage/postgres/register_repo"
	"minipos/internal/infrastructure/storage/postgres/sales_repo"
	"minipos/pkg/logger"
	"minipos/pkg/numerator"
)

func main() {
	// .env is optional, real deployments use environment variables
	_ = godotenv.Load()

	log, err := logger.New(logger.Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Development: getEnv("APP_ENV", "development") == "development",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	log.Info("starting minipos server")

	// --- Database ---
	dsn := mustEnv("DATABASE_URL")
	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(dsn))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("database connection established")

	txManager := postgres.NewTxManager(pool)

	auditService, err := postgres.NewAuditService(txManager)
	if err != nil {
		log.Fatalw("failed to initialize audit service", "error", err)
	}

	// --- Repositories ---
	billRepo := sales_repo.NewBillRepo(txManager)
	returnRepo := sales_repo.NewReturnBillRepo(txManager)
	productRepo := catalog_repo.NewProductRepo(txManager)
	customerRepo := catalog_repo.NewCustomerRepo(txManager)
	lotRepo := register_repo.NewLotStockRepo(txManager)
	userRepo := auth_repo.NewUserRepo(txManager)

	// --- Services ---
	jwtService := auth.NewJWTService(
		getEnv("JWT_SECRET", "change-me-in-production"),
		getEnvDuration("JWT_TTL", 12*time.Hour),
	)
	authService := auth.NewService(userRepo, jwtService)

	numeratorService := numerator.New(pool)

	returnService := salereturn.NewService(
		billRepo,
		returnRepo,
		productRepo,
		lotRepo,
		customerRepo,
		txManager,
		numeratorService,
		auditService,
	)

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Pool:          pool,
		Logger:        log,
		JWTValidator:  jwtService,
		AuthService:   authService,
		ReturnService: returnService,
		AuditService:  auditService,
	})

	// --- HTTP Server ---
	port := getEnv("APP_PORT", "8080")
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "port", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func mustEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		fmt.Printf("required environment variable %s not set\n", key)
		os.Exit(1)
	}
	return value
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
