package repositories

import (
	"context"
	"time"

	"github.com/PrepMaster-App/analytics-service/internal/models"
)

// ProgressRepository is the persistence contract for per-user practice
// results. Lookups report absence through the found flag rather than an
// error; a non-nil error always means the store itself failed.
type ProgressRepository interface {
	// Test result write path
	InsertTestResult(ctx context.Context, result *models.TestResult) error
	FindTestResultByBucket(ctx context.Context, userID, bucketKey string) (*models.TestResult, bool, error)
	UpdateTestResult(ctx context.Context, result *models.TestResult) error

	// Question result write path (always append-only)
	InsertQuestionResult(ctx context.Context, result *models.QuestionResult) error

	// Read side
	ListTestResults(ctx context.Context, userID string, filters HistoryFilters) ([]*models.TestResult, int64, error)
	GetRecentTestResults(ctx context.Context, userID string, limit int) ([]*models.TestResult, error)
	GetProgressStats(ctx context.Context, userID string) (*ProgressStats, error)
	GetTechnologyPerformance(ctx context.Context, userID string) ([]*TechnologyPerformance, error)
	GetDailyTrend(ctx context.Context, userID string, since time.Time) ([]*DailyTrendPoint, error)
	GetDifficultyBreakdown(ctx context.Context, userID string) ([]*DifficultyBucket, error)
	GetQuestionTimeStats(ctx context.Context, userID string) (*QuestionTimeStats, error)
}
