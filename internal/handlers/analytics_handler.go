package handlers

import (
	"net/http"

	"github.com/PrepMaster-App/analytics-service/internal/services"
	"github.com/PrepMaster-App/analytics-service/internal/utils"
	"github.com/gin-gonic/gin"
)

// ===== ANALYTICS HANDLER =====

// AnalyticsHandler handles result submission and analytics query endpoints
type AnalyticsHandler struct {
	BaseHandler
	aggregation services.AggregationService
	analytics   services.AnalyticsService
}

// NewAnalyticsHandler creates a new analytics handler
func NewAnalyticsHandler(aggregation services.AggregationService, analytics services.AnalyticsService, logger utils.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		BaseHandler: NewBaseHandler(logger),
		aggregation: aggregation,
		analytics:   analytics,
	}
}

// SaveTestResult records a completed practice test for the current user
// POST /api/v1/analytics/test-results
func (h *AnalyticsHandler) SaveTestResult(c *gin.Context) {
	h.LogRequest(c, "Save test result request received")

	var req services.TestSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request format", err, err.Error())
		return
	}

	result, err := h.aggregation.RecordTestResult(c.Request.Context(), CurrentUserID(c), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"testId":  result.ID,
		"message": "Test result saved successfully",
	})
}

// SaveQuestionResult records a single answered question for the current user
// POST /api/v1/analytics/question-results
func (h *AnalyticsHandler) SaveQuestionResult(c *gin.Context) {
	h.LogRequest(c, "Save question result request received")

	var req services.QuestionSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request format", err, err.Error())
		return
	}

	if _, err := h.aggregation.RecordQuestionResult(c.Request.Context(), CurrentUserID(c), &req); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Question result saved successfully",
	})
}

// GetSummary returns the combined analytics summary for the current user
// GET /api/v1/analytics/summary
func (h *AnalyticsHandler) GetSummary(c *gin.Context) {
	summary, err := h.analytics.GetSummary(c.Request.Context(), CurrentUserID(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// GetTestHistory returns a paginated list of past test results
// GET /api/v1/analytics/test-history?limit=20&offset=0
func (h *AnalyticsHandler) GetTestHistory(c *gin.Context) {
	limit := ParseIntQuery(c, "limit", 0)
	offset := ParseIntQuery(c, "offset", 0)

	page, err := h.analytics.GetHistory(c.Request.Context(), CurrentUserID(c), limit, offset)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, page)
}

// GetTechnologyPerformance returns per-technology aggregates for the current user
// GET /api/v1/analytics/technology-performance
func (h *AnalyticsHandler) GetTechnologyPerformance(c *gin.Context) {
	rows, err := h.analytics.GetTechnologyPerformance(c.Request.Context(), CurrentUserID(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"technologies": rows})
}

// GetInsights returns derived strengths and weaknesses for the current user
// GET /api/v1/analytics/insights
func (h *AnalyticsHandler) GetInsights(c *gin.Context) {
	insights, err := h.analytics.GenerateInsights(c.Request.Context(), CurrentUserID(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"insights": insights})
}

// GetRecommendations returns study recommendations for the current user
// GET /api/v1/analytics/recommendations
func (h *AnalyticsHandler) GetRecommendations(c *gin.Context) {
	recommendations, err := h.analytics.GetStudyRecommendations(c.Request.Context(), CurrentUserID(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"recommendations": recommendations})
}
