// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"minipos/internal/domain/auth"
	"minipos/internal/domain/sales/salereturn"
	"minipos/internal/infrastructure/http/v1/handlers"
	"minipos/internal/infrastructure/http/v1/middleware"
	"minipos/internal/infrastructure/storage/postgres"
	"minipos/pkg/logger"
)

// RouterConfig holds router dependencies.
type RouterConfig struct {
	Pool          *postgres.Pool
	Logger        *logger.Logger
	JWTValidator  middleware.JWTValidator
	AuthService   *auth.Service
	ReturnService *salereturn.Service
	AuditService  *postgres.AuditService
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	// Health endpoints, no auth required
	healthHandler := handlers.NewHealthHandler(cfg.Pool)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
	}

	baseHandler := handlers.NewBaseHandler()

	api := router.Group("/api/v1")
	{
		authHandler := handlers.NewAuthHandler(baseHandler, cfg.AuthService)
		api.POST("/auth/login", authHandler.Login)

		protected := api.Group("")
		protected.Use(middleware.Auth(cfg.JWTValidator))

		returnsHandler := handlers.NewReturnsHandler(baseHandler, cfg.ReturnService, cfg.AuditService)
		returns := protected.Group("/returns")
		{
			returns.GET("/search", returnsHandler.Search)
			returns.POST("", returnsHandler.Process)
			returns.GET("", returnsHandler.List)
			returns.GET("/:id", returnsHandler.GetByID)
			returns.GET("/:id/audit", middleware.RequireRole(auth.RoleAdmin, auth.RoleCashier), returnsHandler.GetAudit)
		}
	}

	return router
}
