package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/PrepMaster-App/analytics-service/internal/models"
	"github.com/PrepMaster-App/analytics-service/internal/repositories"
	"gorm.io/gorm"
)

type ProgressPostgreSQL struct {
	db *gorm.DB
}

func NewProgressPostgreSQL(db *gorm.DB) repositories.ProgressRepository {
	return &ProgressPostgreSQL{db: db}
}

func (p *ProgressPostgreSQL) InsertTestResult(ctx context.Context, result *models.TestResult) error {
	return p.db.WithContext(ctx).Create(result).Error
}

func (p *ProgressPostgreSQL) FindTestResultByBucket(ctx context.Context, userID, bucketKey string) (*models.TestResult, bool, error) {
	var result models.TestResult
	err := p.db.WithContext(ctx).
		Where("user_id = ? AND bucket_key = ?", userID, bucketKey).
		First(&result).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}

	return &result, true, nil
}

func (p *ProgressPostgreSQL) UpdateTestResult(ctx context.Context, result *models.TestResult) error {
	return p.db.WithContext(ctx).Save(result).Error
}

func (p *ProgressPostgreSQL) InsertQuestionResult(ctx context.Context, result *models.QuestionResult) error {
	return p.db.WithContext(ctx).Create(result).Error
}

func (p *ProgressPostgreSQL) ListTestResults(ctx context.Context, userID string, filters repositories.HistoryFilters) ([]*models.TestResult, int64, error) {
	var results []*models.TestResult
	var total int64

	query := p.db.WithContext(ctx).Model(&models.TestResult{}).Where("user_id = ?", userID)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Order("test_date DESC")
	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	if err := query.Find(&results).Error; err != nil {
		return nil, 0, err
	}

	return results, total, nil
}

func (p *ProgressPostgreSQL) GetRecentTestResults(ctx context.Context, userID string, limit int) ([]*models.TestResult, error) {
	var results []*models.TestResult
	if err := p.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("test_date DESC").
		Limit(limit).
		Find(&results).Error; err != nil {
		return nil, err
	}

	return results, nil
}

func (p *ProgressPostgreSQL) GetProgressStats(ctx context.Context, userID string) (*repositories.ProgressStats, error) {
	var stats repositories.ProgressStats
	if err := p.db.WithContext(ctx).
		Model(&models.TestResult{}).
		Select(`COALESCE(SUM(tests_count), 0) AS total_tests,
			COALESCE(SUM(questions_answered), 0) AS total_questions,
			COALESCE(SUM(total_marks), 0) AS total_marks,
			COALESCE(SUM(max_possible_marks), 0) AS max_marks,
			COALESCE(MAX(total_marks), 0) AS best_marks,
			COALESCE(SUM(time_spent_seconds), 0) AS total_time,
			MAX(test_date) AS last_test_date`).
		Where("user_id = ?", userID).
		Scan(&stats).Error; err != nil {
		return nil, err
	}

	// Average is derived from the running sums, never averaged over
	// stored percentages.
	stats.AverageScore = percentageFromSums(stats.TotalMarks, stats.MaxMarks)

	return &stats, nil
}

// technologyRow carries the raw per-technology sums; the derived score and
// time averages are computed in Go.
type technologyRow struct {
	Technology        string
	TestsTaken        int
	TotalMarks        float64
	MaxPossibleMarks  float64
	BestScore         float64
	TimeSpentSeconds  int
	QuestionsAnswered int
}

func (p *ProgressPostgreSQL) GetTechnologyPerformance(ctx context.Context, userID string) ([]*repositories.TechnologyPerformance, error) {
	var raw []technologyRow
	if err := p.db.WithContext(ctx).
		Model(&models.TestResult{}).
		Select(`technology,
			COALESCE(SUM(tests_count), 0) AS tests_taken,
			COALESCE(SUM(total_marks), 0) AS total_marks,
			COALESCE(SUM(max_possible_marks), 0) AS max_possible_marks,
			COALESCE(MAX(total_marks), 0) AS best_score,
			COALESCE(SUM(time_spent_seconds), 0) AS time_spent_seconds,
			COALESCE(SUM(questions_answered), 0) AS questions_answered`).
		Where("user_id = ?", userID).
		Group("technology").
		Order("tests_taken DESC").
		Scan(&raw).Error; err != nil {
		return nil, err
	}

	rows := make([]*repositories.TechnologyPerformance, 0, len(raw))
	for _, r := range raw {
		rows = append(rows, &repositories.TechnologyPerformance{
			Technology:     r.Technology,
			TestsTaken:     r.TestsTaken,
			AverageScore:   percentageFromSums(r.TotalMarks, r.MaxPossibleMarks),
			BestScore:      r.BestScore,
			AverageTime:    averagePerTest(r.TimeSpentSeconds, r.TestsTaken),
			TotalQuestions: r.QuestionsAnswered,
		})
	}

	return rows, nil
}

// dailyRow carries the raw per-day sums for the trend query.
type dailyRow struct {
	Day              time.Time
	TestsTaken       int
	TotalMarks       float64
	MaxPossibleMarks float64
}

func (p *ProgressPostgreSQL) GetDailyTrend(ctx context.Context, userID string, since time.Time) ([]*repositories.DailyTrendPoint, error) {
	var raw []dailyRow
	if err := p.db.WithContext(ctx).
		Model(&models.TestResult{}).
		Select(`DATE(test_date) AS day,
			COALESCE(SUM(tests_count), 0) AS tests_taken,
			COALESCE(SUM(total_marks), 0) AS total_marks,
			COALESCE(SUM(max_possible_marks), 0) AS max_possible_marks`).
		Where("user_id = ? AND test_date >= ?", userID, since).
		Group("day").
		Order("day DESC").
		Scan(&raw).Error; err != nil {
		return nil, err
	}

	points := make([]*repositories.DailyTrendPoint, 0, len(raw))
	for _, r := range raw {
		points = append(points, &repositories.DailyTrendPoint{
			Day:          r.Day,
			AverageScore: percentageFromSums(r.TotalMarks, r.MaxPossibleMarks),
			TestsTaken:   r.TestsTaken,
		})
	}

	return points, nil
}

// percentageFromSums derives a percentage score from marks sums. Zero or
// negative max marks yield zero rather than a division error.
func percentageFromSums(totalMarks, maxMarks float64) float64 {
	if maxMarks <= 0 {
		return 0
	}
	return 100 * totalMarks / maxMarks
}

func averagePerTest(totalSeconds, tests int) float64 {
	if tests <= 0 {
		return 0
	}
	return float64(totalSeconds) / float64(tests)
}

func (p *ProgressPostgreSQL) GetDifficultyBreakdown(ctx context.Context, userID string) ([]*repositories.DifficultyBucket, error) {
	var buckets []*repositories.DifficultyBucket
	if err := p.db.WithContext(ctx).
		Model(&models.QuestionResult{}).
		Select(`difficulty_level,
			COUNT(*) AS question_count,
			COALESCE(AVG(marks_obtained), 0) AS average_marks,
			COALESCE(SUM(time_spent_seconds), 0) AS total_time`).
		Where("user_id = ?", userID).
		Group("difficulty_level").
		Order("question_count ASC").
		Scan(&buckets).Error; err != nil {
		return nil, err
	}

	return buckets, nil
}

func (p *ProgressPostgreSQL) GetQuestionTimeStats(ctx context.Context, userID string) (*repositories.QuestionTimeStats, error) {
	var stats repositories.QuestionTimeStats
	if err := p.db.WithContext(ctx).
		Model(&models.QuestionResult{}).
		Select(`COUNT(*) AS question_count,
			COALESCE(AVG(time_spent_seconds), 0) AS average_time_seconds`).
		Where("user_id = ?", userID).
		Scan(&stats).Error; err != nil {
		return nil, err
	}

	return &stats, nil
}
