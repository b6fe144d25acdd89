package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/PrepMaster-App/analytics-service/internal/cache"
	"github.com/PrepMaster-App/analytics-service/internal/models"
	"github.com/PrepMaster-App/analytics-service/internal/repositories"
)

// Insight thresholds, on the normalized 10-point basis for per-question
// marks and percent for technology scores.
const (
	weakAreaThreshold    = 7.0
	strengthThreshold    = 8.0
	improvementThreshold = 70.0

	// Recommendation thresholds
	balanceShareThreshold   = 25.0
	balanceMinimumQuestions = 10
	slowAnswerSeconds       = 120.0
)

const (
	summaryCacheTTL = 5 * time.Minute

	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
	recentResultsLimit  = 10
	trendWindowDays     = 30
)

// AnalyticsService answers read-side progress queries for one user. All
// operations are pure reads over the progress store plus the cache; none
// mutate stored records.
type AnalyticsService interface {
	GetSummary(ctx context.Context, userID string) (*AnalyticsSummary, error)
	GetHistory(ctx context.Context, userID string, limit, offset int) (*HistoryPage, error)
	GetTechnologyPerformance(ctx context.Context, userID string) ([]*repositories.TechnologyPerformance, error)
	GenerateInsights(ctx context.Context, userID string) ([]Insight, error)
	GetStudyRecommendations(ctx context.Context, userID string) ([]Recommendation, error)
}

type analyticsService struct {
	repo   repositories.ProgressRepository
	cache  cache.CacheService
	logger *slog.Logger
}

func NewAnalyticsService(repo repositories.ProgressRepository, cacheService cache.CacheService, logger *slog.Logger) AnalyticsService {
	return &analyticsService{
		repo:   repo,
		cache:  cacheService,
		logger: logger,
	}
}

// ===== DATA STRUCTURES =====

type AnalyticsSummary struct {
	Progress              *repositories.ProgressStats           `json:"progress"`
	RecentResults         []*models.TestResult                  `json:"recent_results"`
	TechnologyPerformance []*repositories.TechnologyPerformance `json:"technology_performance"`
	DailyTrend            []*repositories.DailyTrendPoint       `json:"daily_trend"`
	ImprovementRate       float64                               `json:"improvement_rate"`
	GeneratedAt           time.Time                             `json:"generated_at"`
}

type HistoryPage struct {
	Results []*models.TestResult `json:"results"`
	Total   int64                `json:"total"`
	Limit   int                  `json:"limit"`
	Offset  int                  `json:"offset"`
}

type Insight struct {
	Type     string `json:"type"`
	Message  string `json:"message"`
	Priority string `json:"priority"`
}

type Recommendation struct {
	Type     string `json:"type"`
	Message  string `json:"message"`
	Priority string `json:"priority"`
}

// ===== SUMMARY =====

func (s *analyticsService) GetSummary(ctx context.Context, userID string) (*AnalyticsSummary, error) {
	cacheKey := "analytics:" + userID + ":summary"

	if s.cache != nil {
		var cached AnalyticsSummary
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			return &cached, nil
		} else if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Warn("Summary cache read failed", "user_id", userID, "error", err)
		}
	}

	progress, err := s.repo.GetProgressStats(ctx, userID)
	if err != nil {
		return nil, NewStoreError("load progress stats", err)
	}

	recent, err := s.repo.GetRecentTestResults(ctx, userID, recentResultsLimit)
	if err != nil {
		return nil, NewStoreError("load recent results", err)
	}

	technology, err := s.repo.GetTechnologyPerformance(ctx, userID)
	if err != nil {
		return nil, NewStoreError("load technology performance", err)
	}

	since := time.Now().AddDate(0, 0, -trendWindowDays)
	trend, err := s.repo.GetDailyTrend(ctx, userID, since)
	if err != nil {
		return nil, NewStoreError("load daily trend", err)
	}

	summary := &AnalyticsSummary{
		Progress:              progress,
		RecentResults:         recent,
		TechnologyPerformance: technology,
		DailyTrend:            trend,
		ImprovementRate:       improvementRate(trend),
		GeneratedAt:           time.Now(),
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, summary, summaryCacheTTL); err != nil {
			s.logger.Warn("Summary cache write failed", "user_id", userID, "error", err)
		}
	}

	return summary, nil
}

// ===== HISTORY =====

func (s *analyticsService) GetHistory(ctx context.Context, userID string, limit, offset int) (*HistoryPage, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	if offset < 0 {
		offset = 0
	}

	results, total, err := s.repo.ListTestResults(ctx, userID, repositories.HistoryFilters{
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		return nil, NewStoreError("list test results", err)
	}

	return &HistoryPage{
		Results: results,
		Total:   total,
		Limit:   limit,
		Offset:  offset,
	}, nil
}

// ===== TECHNOLOGY PERFORMANCE =====

func (s *analyticsService) GetTechnologyPerformance(ctx context.Context, userID string) ([]*repositories.TechnologyPerformance, error) {
	rows, err := s.repo.GetTechnologyPerformance(ctx, userID)
	if err != nil {
		return nil, NewStoreError("load technology performance", err)
	}

	return rows, nil
}

// ===== INSIGHTS =====

// GenerateInsights surfaces at most one insight per category: the weakest
// difficulty bucket, the lowest-scoring technology below the improvement
// threshold and the strongest difficulty bucket.
func (s *analyticsService) GenerateInsights(ctx context.Context, userID string) ([]Insight, error) {
	insights := make([]Insight, 0, 3)

	buckets, err := s.repo.GetDifficultyBreakdown(ctx, userID)
	if err != nil {
		return nil, NewStoreError("load difficulty breakdown", err)
	}

	if weakest := lowestBucket(buckets, weakAreaThreshold); weakest != nil {
		insights = append(insights, Insight{
			Type: "weak_area",
			Message: fmt.Sprintf("Focus on %s level questions. Your average score is %.1f/10.",
				weakest.DifficultyLevel, weakest.AverageMarks),
			Priority: "high",
		})
	}

	technology, err := s.repo.GetTechnologyPerformance(ctx, userID)
	if err != nil {
		return nil, NewStoreError("load technology performance", err)
	}

	if candidate := lowestTechnology(technology, improvementThreshold); candidate != nil {
		insights = append(insights, Insight{
			Type: "improvement",
			Message: fmt.Sprintf("Consider practicing more %s questions. Your average score is %.1f%%.",
				candidate.Technology, candidate.AverageScore),
			Priority: "medium",
		})
	}

	if strongest := highestBucket(buckets, strengthThreshold); strongest != nil {
		insights = append(insights, Insight{
			Type: "strength",
			Message: fmt.Sprintf("Great job on %s questions! Your average score is %.1f/10.",
				strongest.DifficultyLevel, strongest.AverageMarks),
			Priority: "low",
		})
	}

	return insights, nil
}

// ===== RECOMMENDATIONS =====

func (s *analyticsService) GetStudyRecommendations(ctx context.Context, userID string) ([]Recommendation, error) {
	recommendations := make([]Recommendation, 0)

	buckets, err := s.repo.GetDifficultyBreakdown(ctx, userID)
	if err != nil {
		return nil, NewStoreError("load difficulty breakdown", err)
	}

	totalQuestions := 0
	for _, bucket := range buckets {
		totalQuestions += bucket.QuestionCount
	}

	// Imbalance only matters once there is enough volume to judge it.
	if totalQuestions > balanceMinimumQuestions {
		for _, bucket := range buckets {
			share := 100 * float64(bucket.QuestionCount) / float64(totalQuestions)
			if share < balanceShareThreshold {
				recommendations = append(recommendations, Recommendation{
					Type: "practice_balance",
					Message: fmt.Sprintf("Practice more %s questions. Currently only %.1f%% of your practice.",
						bucket.DifficultyLevel, share),
					Priority: "medium",
				})
			}
		}
	}

	timeStats, err := s.repo.GetQuestionTimeStats(ctx, userID)
	if err != nil {
		return nil, NewStoreError("load question time stats", err)
	}

	if timeStats.QuestionCount > 0 && timeStats.AverageTimeSeconds > slowAnswerSeconds {
		recommendations = append(recommendations, Recommendation{
			Type:     "time_management",
			Message:  "Consider practicing time management. Your average time per question is high.",
			Priority: "medium",
		})
	}

	return recommendations, nil
}

// improvementRate compares the newest and oldest daily averages inside the
// trend window, as a percent change rounded to two decimals. Fewer than two
// trend points carry no signal.
func improvementRate(trend []*repositories.DailyTrendPoint) float64 {
	if len(trend) < 2 {
		return 0
	}
	recent := trend[0].AverageScore
	oldest := trend[len(trend)-1].AverageScore
	if oldest <= 0 {
		return 0
	}
	return math.Round(((recent-oldest)/oldest)*100*100) / 100
}

// ===== HELPER FUNCTIONS =====

func lowestBucket(buckets []*repositories.DifficultyBucket, threshold float64) *repositories.DifficultyBucket {
	var lowest *repositories.DifficultyBucket
	for _, bucket := range buckets {
		if bucket.AverageMarks >= threshold {
			continue
		}
		if lowest == nil || bucket.AverageMarks < lowest.AverageMarks {
			lowest = bucket
		}
	}
	return lowest
}

func highestBucket(buckets []*repositories.DifficultyBucket, threshold float64) *repositories.DifficultyBucket {
	var highest *repositories.DifficultyBucket
	for _, bucket := range buckets {
		if bucket.AverageMarks < threshold {
			continue
		}
		if highest == nil || bucket.AverageMarks > highest.AverageMarks {
			highest = bucket
		}
	}
	return highest
}

func lowestTechnology(rows []*repositories.TechnologyPerformance, threshold float64) *repositories.TechnologyPerformance {
	var lowest *repositories.TechnologyPerformance
	for _, row := range rows {
		if row.AverageScore >= threshold {
			continue
		}
		if lowest == nil || row.AverageScore < lowest.AverageScore {
			lowest = row
		}
	}
	return lowest
}
