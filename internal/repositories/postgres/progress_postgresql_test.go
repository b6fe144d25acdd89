package postgres

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/PrepMaster-App/analytics-service/internal/models"
	"github.com/PrepMaster-App/analytics-service/internal/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockRepository(t *testing.T) (repositories.ProgressRepository, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(gormpostgres.New(gormpostgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	return NewProgressPostgreSQL(db), mock
}

// TestProgressPostgreSQL_GetProgressStats tests the summary roll-up query
func TestProgressPostgreSQL_GetProgressStats(t *testing.T) {
	t.Run("average score is derived from marks sums", func(t *testing.T) {
		repo, mock := newMockRepository(t)

		lastTest := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
		// Two stored tests: 6/10 and 8/10 marks.
		mock.ExpectQuery(regexp.QuoteMeta(`COALESCE(SUM(tests_count), 0) AS total_tests`)).
			WithArgs("user-1").
			WillReturnRows(sqlmock.NewRows([]string{
				"total_tests", "total_questions", "total_marks", "max_marks",
				"best_marks", "total_time", "last_test_date",
			}).AddRow(2, 18, 14.0, 20.0, 8.0, 720, lastTest))

		stats, err := repo.GetProgressStats(context.Background(), "user-1")

		require.NoError(t, err)
		assert.Equal(t, 2, stats.TotalTests)
		assert.Equal(t, 18, stats.TotalQuestions)
		assert.InDelta(t, 70.0, stats.AverageScore, 0.001)
		assert.InDelta(t, 8.0, stats.BestMarks, 0.001)
		require.NotNil(t, stats.LastTestDate)
		assert.True(t, lastTest.Equal(*stats.LastTestDate))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty store yields zero-valued stats", func(t *testing.T) {
		repo, mock := newMockRepository(t)

		mock.ExpectQuery(regexp.QuoteMeta(`COALESCE(SUM(tests_count), 0) AS total_tests`)).
			WithArgs("user-1").
			WillReturnRows(sqlmock.NewRows([]string{
				"total_tests", "total_questions", "total_marks", "max_marks",
				"best_marks", "total_time", "last_test_date",
			}).AddRow(0, 0, 0.0, 0.0, 0.0, 0, nil))

		stats, err := repo.GetProgressStats(context.Background(), "user-1")

		require.NoError(t, err)
		assert.Equal(t, 0, stats.TotalTests)
		assert.InDelta(t, 0.0, stats.AverageScore, 0.001)
		assert.Nil(t, stats.LastTestDate)
	})
}

// TestProgressPostgreSQL_GetTechnologyPerformance tests the per-technology roll-up
func TestProgressPostgreSQL_GetTechnologyPerformance(t *testing.T) {
	t.Run("one test round-trips into one derived row", func(t *testing.T) {
		repo, mock := newMockRepository(t)

		// Sums for a single stored test: 8/10 marks, 300s, 10 answered.
		mock.ExpectQuery(regexp.QuoteMeta(`COALESCE(SUM(total_marks), 0) AS total_marks`)).
			WithArgs("user-1").
			WillReturnRows(sqlmock.NewRows([]string{
				"technology", "tests_taken", "total_marks", "max_possible_marks",
				"best_score", "time_spent_seconds", "questions_answered",
			}).AddRow("JavaScript", 1, 8.0, 10.0, 8.0, 300, 10))

		rows, err := repo.GetTechnologyPerformance(context.Background(), "user-1")

		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "JavaScript", rows[0].Technology)
		assert.Equal(t, 1, rows[0].TestsTaken)
		assert.InDelta(t, 80.0, rows[0].AverageScore, 0.001)
		assert.InDelta(t, 8.0, rows[0].BestScore, 0.001)
		assert.InDelta(t, 300.0, rows[0].AverageTime, 0.001)
		assert.Equal(t, 10, rows[0].TotalQuestions)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("score and time averages come from sums across tests", func(t *testing.T) {
		repo, mock := newMockRepository(t)

		mock.ExpectQuery(regexp.QuoteMeta(`COALESCE(SUM(total_marks), 0) AS total_marks`)).
			WithArgs("user-1").
			WillReturnRows(sqlmock.NewRows([]string{
				"technology", "tests_taken", "total_marks", "max_possible_marks",
				"best_score", "time_spent_seconds", "questions_answered",
			}).
				AddRow("Go", 4, 30.0, 40.0, 9.0, 1200, 40).
				AddRow("Python", 1, 5.0, 10.0, 5.0, 100, 10))

		rows, err := repo.GetTechnologyPerformance(context.Background(), "user-1")

		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.InDelta(t, 75.0, rows[0].AverageScore, 0.001)
		assert.InDelta(t, 300.0, rows[0].AverageTime, 0.001)
		assert.InDelta(t, 50.0, rows[1].AverageScore, 0.001)
	})
}

// TestProgressPostgreSQL_FindTestResultByBucket tests found-flag semantics
func TestProgressPostgreSQL_FindTestResultByBucket(t *testing.T) {
	t.Run("absent bucket reports not found without error", func(t *testing.T) {
		repo, mock := newMockRepository(t)

		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "test_results" WHERE user_id = $1 AND bucket_key = $2`)).
			WithArgs("user-1", "all", 1).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		result, found, err := repo.FindTestResultByBucket(context.Background(), "user-1", "all")

		require.NoError(t, err)
		assert.False(t, found)
		assert.Nil(t, result)
	})
}

// TestDerivationHelpers tests the sum-to-average derivations directly
func TestDerivationHelpers(t *testing.T) {
	t.Run("percentage from sums", func(t *testing.T) {
		assert.InDelta(t, 70.0, percentageFromSums(14, 20), 0.001)
		assert.InDelta(t, 80.0, percentageFromSums(8, 10), 0.001)
		assert.InDelta(t, 0.0, percentageFromSums(5, 0), 0.001)
	})

	t.Run("average time per test", func(t *testing.T) {
		assert.InDelta(t, 300.0, averagePerTest(300, 1), 0.001)
		assert.InDelta(t, 150.0, averagePerTest(450, 3), 0.001)
		assert.InDelta(t, 0.0, averagePerTest(100, 0), 0.001)
	})
}

// TestProgressPostgreSQL_InsertTestResult tests the append write path
func TestProgressPostgreSQL_InsertTestResult(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "test_results"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(42))
	mock.ExpectCommit()

	result := &models.TestResult{
		UserID:           "user-1",
		Technology:       "JavaScript",
		TestsCount:       1,
		TotalQuestions:   10,
		TotalMarks:       8,
		MaxPossibleMarks: 10,
		PercentageScore:  80,
		TimeSpentSeconds: 300,
		TestDate:         time.Now(),
	}

	require.NoError(t, repo.InsertTestResult(context.Background(), result))
	assert.Equal(t, uint(42), result.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

// TestProgressPostgreSQL_GetDailyTrend tests the per-day roll-up
func TestProgressPostgreSQL_GetDailyTrend(t *testing.T) {
	repo, mock := newMockRepository(t)

	since := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	newest := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)
	oldest := time.Date(2026, 8, 2, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(`DATE(test_date) AS day`)).
		WithArgs("user-1", since).
		WillReturnRows(sqlmock.NewRows([]string{
			"day", "tests_taken", "total_marks", "max_possible_marks",
		}).
			AddRow(newest, 2, 16.0, 20.0).
			AddRow(oldest, 1, 6.0, 10.0))

	points, err := repo.GetDailyTrend(context.Background(), "user-1", since)

	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.True(t, newest.Equal(points[0].Day))
	assert.InDelta(t, 80.0, points[0].AverageScore, 0.001)
	assert.Equal(t, 2, points[0].TestsTaken)
	assert.InDelta(t, 60.0, points[1].AverageScore, 0.001)
	require.NoError(t, mock.ExpectationsWereMet())
}
