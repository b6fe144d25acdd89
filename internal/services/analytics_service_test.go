package services

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/PrepMaster-App/analytics-service/internal/cache"
	"github.com/PrepMaster-App/analytics-service/internal/models"
	"github.com/PrepMaster-App/analytics-service/internal/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// memoryCache is an in-process CacheService used to exercise the
// read-through path without Redis.
type memoryCache struct {
	mu      sync.Mutex
	entries map[string][]byte
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string][]byte)}
}

func (c *memoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = payload
	return nil
}

func (c *memoryCache) Get(ctx context.Context, key string, dest interface{}) error {
	c.mu.Lock()
	payload, ok := c.entries[key]
	c.mu.Unlock()
	if !ok {
		return cache.ErrCacheMiss
	}
	return json.Unmarshal(payload, dest)
}

func (c *memoryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

func (c *memoryCache) DeletePattern(ctx context.Context, pattern string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string][]byte)
	return nil
}

// TestAnalyticsService_GetSummary tests the combined summary query
func TestAnalyticsService_GetSummary(t *testing.T) {
	stats := &repositories.ProgressStats{
		TotalTests:     4,
		TotalQuestions: 40,
		TotalMarks:     28,
		MaxMarks:       40,
		BestMarks:      9,
		TotalTime:      2400,
		AverageScore:   70,
	}
	recent := []*models.TestResult{
		{ID: 2, UserID: "user-1", PercentageScore: 80},
		{ID: 1, UserID: "user-1", PercentageScore: 60},
	}
	technology := []*repositories.TechnologyPerformance{
		{Technology: "JavaScript", TestsTaken: 3, AverageScore: 72.5, BestScore: 9, AverageTime: 600, TotalQuestions: 30},
	}
	trend := []*repositories.DailyTrendPoint{
		{Day: time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC), AverageScore: 80, TestsTaken: 2},
		{Day: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC), AverageScore: 60, TestsTaken: 2},
	}

	t.Run("assembles progress, recent results, technology rows and trend", func(t *testing.T) {
		mockRepo := &MockProgressRepository{}
		mockRepo.On("GetProgressStats", mock.Anything, "user-1").Return(stats, nil)
		mockRepo.On("GetRecentTestResults", mock.Anything, "user-1", recentResultsLimit).Return(recent, nil)
		mockRepo.On("GetTechnologyPerformance", mock.Anything, "user-1").Return(technology, nil)
		mockRepo.On("GetDailyTrend", mock.Anything, "user-1", mock.AnythingOfType("time.Time")).Return(trend, nil)

		svc := NewAnalyticsService(mockRepo, cache.NoopCache{}, testLogger())

		summary, err := svc.GetSummary(context.Background(), "user-1")

		require.NoError(t, err)
		assert.Equal(t, 4, summary.Progress.TotalTests)
		assert.InDelta(t, 70.0, summary.Progress.AverageScore, 0.001)
		assert.Len(t, summary.RecentResults, 2)
		assert.Len(t, summary.TechnologyPerformance, 1)
		assert.Len(t, summary.DailyTrend, 2)
		assert.InDelta(t, 33.33, summary.ImprovementRate, 0.001)
		assert.False(t, summary.GeneratedAt.IsZero())
		mockRepo.AssertExpectations(t)
	})

	t.Run("serves repeat requests from cache", func(t *testing.T) {
		mockRepo := &MockProgressRepository{}
		mockRepo.On("GetProgressStats", mock.Anything, "user-1").Return(stats, nil).Once()
		mockRepo.On("GetRecentTestResults", mock.Anything, "user-1", recentResultsLimit).Return(recent, nil).Once()
		mockRepo.On("GetTechnologyPerformance", mock.Anything, "user-1").Return(technology, nil).Once()
		mockRepo.On("GetDailyTrend", mock.Anything, "user-1", mock.AnythingOfType("time.Time")).Return(trend, nil).Once()

		svc := NewAnalyticsService(mockRepo, newMemoryCache(), testLogger())

		first, err := svc.GetSummary(context.Background(), "user-1")
		require.NoError(t, err)

		second, err := svc.GetSummary(context.Background(), "user-1")
		require.NoError(t, err)

		assert.Equal(t, first.Progress.TotalTests, second.Progress.TotalTests)
		mockRepo.AssertExpectations(t)
	})

	t.Run("wraps store failures", func(t *testing.T) {
		mockRepo := &MockProgressRepository{}
		mockRepo.On("GetProgressStats", mock.Anything, "user-1").Return((*repositories.ProgressStats)(nil), assert.AnError)

		svc := NewAnalyticsService(mockRepo, cache.NoopCache{}, testLogger())

		_, err := svc.GetSummary(context.Background(), "user-1")

		require.Error(t, err)
		assert.True(t, IsStoreError(err))
	})
}

// TestAnalyticsService_GetHistory tests pagination bounds
func TestAnalyticsService_GetHistory(t *testing.T) {
	tests := []struct {
		name           string
		limit          int
		offset         int
		expectedLimit  int
		expectedOffset int
	}{
		{name: "defaults applied", limit: 0, offset: 0, expectedLimit: defaultHistoryLimit, expectedOffset: 0},
		{name: "limit capped", limit: 1000, offset: 5, expectedLimit: maxHistoryLimit, expectedOffset: 5},
		{name: "negative offset reset", limit: 10, offset: -3, expectedLimit: 10, expectedOffset: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := &MockProgressRepository{}
			mockRepo.On("ListTestResults", mock.Anything, "user-1", repositories.HistoryFilters{
				Limit:  tt.expectedLimit,
				Offset: tt.expectedOffset,
			}).Return([]*models.TestResult{}, int64(0), nil)

			svc := NewAnalyticsService(mockRepo, cache.NoopCache{}, testLogger())

			page, err := svc.GetHistory(context.Background(), "user-1", tt.limit, tt.offset)

			require.NoError(t, err)
			assert.Equal(t, tt.expectedLimit, page.Limit)
			assert.Equal(t, tt.expectedOffset, page.Offset)
			mockRepo.AssertExpectations(t)
		})
	}
}

// TestAnalyticsService_GenerateInsights tests insight derivation thresholds
func TestAnalyticsService_GenerateInsights(t *testing.T) {
	t.Run("one insight per category", func(t *testing.T) {
		buckets := []*repositories.DifficultyBucket{
			{DifficultyLevel: "Easy", QuestionCount: 12, AverageMarks: 8.5},
			{DifficultyLevel: "Medium", QuestionCount: 9, AverageMarks: 6.2},
			{DifficultyLevel: "Hard", QuestionCount: 4, AverageMarks: 5.8},
		}
		technology := []*repositories.TechnologyPerformance{
			{Technology: "JavaScript", AverageScore: 65.0},
			{Technology: "Go", AverageScore: 82.0},
		}

		mockRepo := &MockProgressRepository{}
		mockRepo.On("GetDifficultyBreakdown", mock.Anything, "user-1").Return(buckets, nil)
		mockRepo.On("GetTechnologyPerformance", mock.Anything, "user-1").Return(technology, nil)

		svc := NewAnalyticsService(mockRepo, cache.NoopCache{}, testLogger())

		insights, err := svc.GenerateInsights(context.Background(), "user-1")

		require.NoError(t, err)
		require.Len(t, insights, 3)

		assert.Equal(t, "weak_area", insights[0].Type)
		assert.Equal(t, "Focus on Hard level questions. Your average score is 5.8/10.", insights[0].Message)
		assert.Equal(t, "high", insights[0].Priority)

		assert.Equal(t, "improvement", insights[1].Type)
		assert.Equal(t, "Consider practicing more JavaScript questions. Your average score is 65.0%.", insights[1].Message)

		assert.Equal(t, "strength", insights[2].Type)
		assert.Equal(t, "Great job on Easy questions! Your average score is 8.5/10.", insights[2].Message)
	})

	t.Run("no insights when performance sits between thresholds", func(t *testing.T) {
		buckets := []*repositories.DifficultyBucket{
			{DifficultyLevel: "Medium", QuestionCount: 5, AverageMarks: 7.5},
		}
		technology := []*repositories.TechnologyPerformance{
			{Technology: "Go", AverageScore: 75.0},
		}

		mockRepo := &MockProgressRepository{}
		mockRepo.On("GetDifficultyBreakdown", mock.Anything, "user-1").Return(buckets, nil)
		mockRepo.On("GetTechnologyPerformance", mock.Anything, "user-1").Return(technology, nil)

		svc := NewAnalyticsService(mockRepo, cache.NoopCache{}, testLogger())

		insights, err := svc.GenerateInsights(context.Background(), "user-1")

		require.NoError(t, err)
		assert.Empty(t, insights)
	})

	t.Run("empty store yields no insights", func(t *testing.T) {
		mockRepo := &MockProgressRepository{}
		mockRepo.On("GetDifficultyBreakdown", mock.Anything, "user-1").Return([]*repositories.DifficultyBucket{}, nil)
		mockRepo.On("GetTechnologyPerformance", mock.Anything, "user-1").Return([]*repositories.TechnologyPerformance{}, nil)

		svc := NewAnalyticsService(mockRepo, cache.NoopCache{}, testLogger())

		insights, err := svc.GenerateInsights(context.Background(), "user-1")

		require.NoError(t, err)
		assert.Empty(t, insights)
	})
}

// TestAnalyticsService_GetStudyRecommendations tests recommendation rules
func TestAnalyticsService_GetStudyRecommendations(t *testing.T) {
	t.Run("flags underrepresented difficulties and slow answers", func(t *testing.T) {
		buckets := []*repositories.DifficultyBucket{
			{DifficultyLevel: "Easy", QuestionCount: 10, AverageMarks: 8},
			{DifficultyLevel: "Medium", QuestionCount: 2, AverageMarks: 7},
			{DifficultyLevel: "Hard", QuestionCount: 1, AverageMarks: 6},
		}

		mockRepo := &MockProgressRepository{}
		mockRepo.On("GetDifficultyBreakdown", mock.Anything, "user-1").Return(buckets, nil)
		mockRepo.On("GetQuestionTimeStats", mock.Anything, "user-1").Return(&repositories.QuestionTimeStats{
			QuestionCount:      13,
			AverageTimeSeconds: 150,
		}, nil)

		svc := NewAnalyticsService(mockRepo, cache.NoopCache{}, testLogger())

		recommendations, err := svc.GetStudyRecommendations(context.Background(), "user-1")

		require.NoError(t, err)
		require.Len(t, recommendations, 3)

		assert.Equal(t, "practice_balance", recommendations[0].Type)
		assert.Equal(t, "Practice more Medium questions. Currently only 15.4% of your practice.", recommendations[0].Message)
		assert.Equal(t, "practice_balance", recommendations[1].Type)
		assert.Equal(t, "Practice more Hard questions. Currently only 7.7% of your practice.", recommendations[1].Message)
		assert.Equal(t, "time_management", recommendations[2].Type)
	})

	t.Run("balance is not judged on low volume", func(t *testing.T) {
		buckets := []*repositories.DifficultyBucket{
			{DifficultyLevel: "Easy", QuestionCount: 8, AverageMarks: 8},
			{DifficultyLevel: "Hard", QuestionCount: 1, AverageMarks: 6},
		}

		mockRepo := &MockProgressRepository{}
		mockRepo.On("GetDifficultyBreakdown", mock.Anything, "user-1").Return(buckets, nil)
		mockRepo.On("GetQuestionTimeStats", mock.Anything, "user-1").Return(&repositories.QuestionTimeStats{
			QuestionCount:      9,
			AverageTimeSeconds: 45,
		}, nil)

		svc := NewAnalyticsService(mockRepo, cache.NoopCache{}, testLogger())

		recommendations, err := svc.GetStudyRecommendations(context.Background(), "user-1")

		require.NoError(t, err)
		assert.Empty(t, recommendations)
	})

	t.Run("no time recommendation without answered questions", func(t *testing.T) {
		mockRepo := &MockProgressRepository{}
		mockRepo.On("GetDifficultyBreakdown", mock.Anything, "user-1").Return([]*repositories.DifficultyBucket{}, nil)
		mockRepo.On("GetQuestionTimeStats", mock.Anything, "user-1").Return(&repositories.QuestionTimeStats{}, nil)

		svc := NewAnalyticsService(mockRepo, cache.NoopCache{}, testLogger())

		recommendations, err := svc.GetStudyRecommendations(context.Background(), "user-1")

		require.NoError(t, err)
		assert.Empty(t, recommendations)
	})
}

// TestImprovementRate tests the trend-window percent change derivation
func TestImprovementRate(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2026, 8, d, 0, 0, 0, 0, time.UTC) }

	t.Run("newest versus oldest point", func(t *testing.T) {
		trend := []*repositories.DailyTrendPoint{
			{Day: day(30), AverageScore: 90},
			{Day: day(15), AverageScore: 75},
			{Day: day(1), AverageScore: 60},
		}
		assert.InDelta(t, 50.0, improvementRate(trend), 0.001)
	})

	t.Run("declining scores go negative", func(t *testing.T) {
		trend := []*repositories.DailyTrendPoint{
			{Day: day(30), AverageScore: 40},
			{Day: day(1), AverageScore: 80},
		}
		assert.InDelta(t, -50.0, improvementRate(trend), 0.001)
	})

	t.Run("rounded to two decimals", func(t *testing.T) {
		trend := []*repositories.DailyTrendPoint{
			{Day: day(30), AverageScore: 80},
			{Day: day(1), AverageScore: 60},
		}
		assert.InDelta(t, 33.33, improvementRate(trend), 0.0001)
	})

	t.Run("single point carries no signal", func(t *testing.T) {
		trend := []*repositories.DailyTrendPoint{{Day: day(30), AverageScore: 80}}
		assert.InDelta(t, 0.0, improvementRate(trend), 0.001)
	})

	t.Run("zero oldest average yields zero", func(t *testing.T) {
		trend := []*repositories.DailyTrendPoint{
			{Day: day(30), AverageScore: 80},
			{Day: day(1), AverageScore: 0},
		}
		assert.InDelta(t, 0.0, improvementRate(trend), 0.001)
	})
}
