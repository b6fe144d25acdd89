package handlers

import (
	"net/http"

	"github.com/PrepMaster-App/analytics-service/internal/auth"
	"github.com/PrepMaster-App/analytics-service/internal/services"
	"github.com/PrepMaster-App/analytics-service/internal/utils"
	"github.com/gin-gonic/gin"
)

// ===== HANDLER MANAGER =====

// HandlerManager holds all handler instances for dependency injection
type HandlerManager struct {
	authHandler      *AuthHandler
	analyticsHandler *AnalyticsHandler
	authProvider     auth.Provider
	logger           utils.Logger
}

// NewHandlerManager creates a new handler manager with all handlers initialized
func NewHandlerManager(
	provider auth.Provider,
	aggregation services.AggregationService,
	analytics services.AnalyticsService,
	logger utils.Logger,
) *HandlerManager {
	return &HandlerManager{
		authHandler:      NewAuthHandler(provider, logger),
		analyticsHandler: NewAnalyticsHandler(aggregation, analytics, logger),
		authProvider:     provider,
		logger:           logger,
	}
}

// ===== ROUTE SETUP =====

// SetupRoutes configures all application routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.Use(RequestLogger(hm.logger))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "analytics-service"})
	})

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "Route not found"})
	})

	requireAuth := AuthMiddleware(hm.authProvider, hm.logger)

	// Public authentication routes
	authRoutes := router.Group("/auth")
	{
		authRoutes.POST("/register", hm.authHandler.Register)
		authRoutes.POST("/login", hm.authHandler.Login)
		authRoutes.POST("/refresh", hm.authHandler.Refresh)
		authRoutes.GET("/me", requireAuth, hm.authHandler.Me)
	}

	// Analytics routes, all scoped to the authenticated user
	analytics := router.Group("/api/v1/analytics", requireAuth)
	{
		analytics.POST("/test-results", hm.analyticsHandler.SaveTestResult)
		analytics.POST("/question-results", hm.analyticsHandler.SaveQuestionResult)
		analytics.GET("/summary", hm.analyticsHandler.GetSummary)
		analytics.GET("/test-history", hm.analyticsHandler.GetTestHistory)
		analytics.GET("/technology-performance", hm.analyticsHandler.GetTechnologyPerformance)
		analytics.GET("/insights", hm.analyticsHandler.GetInsights)
		analytics.GET("/recommendations", hm.analyticsHandler.GetRecommendations)
	}
}
