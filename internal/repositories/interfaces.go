package repositories

import "time"

// ===== SHARED FILTER STRUCTS =====

type HistoryFilters struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// ===== SHARED STATISTICS STRUCTS =====

// ProgressStats is the per-user roll-up over every stored test result.
type ProgressStats struct {
	TotalTests     int        `json:"total_tests"`
	TotalQuestions int        `json:"total_questions"`
	TotalMarks     float64    `json:"total_marks"`
	MaxMarks       float64    `json:"max_marks"`
	BestMarks      float64    `json:"best_marks"`
	TotalTime      int        `json:"total_time"`
	AverageScore   float64    `json:"average_score"`
	LastTestDate   *time.Time `json:"last_test_date,omitempty"`
}

// TechnologyPerformance is one aggregated row per distinct technology label.
type TechnologyPerformance struct {
	Technology     string  `json:"technology"`
	TestsTaken     int     `json:"tests_taken"`
	AverageScore   float64 `json:"average_score"`
	BestScore      float64 `json:"best_score"`
	AverageTime    float64 `json:"average_time"`
	TotalQuestions int     `json:"total_questions"`
}

// DailyTrendPoint is one day of aggregated test performance, newest first.
type DailyTrendPoint struct {
	Day          time.Time `json:"date"`
	AverageScore float64   `json:"average_score"`
	TestsTaken   int       `json:"tests_taken"`
}

// DifficultyBucket aggregates question results per difficulty level.
type DifficultyBucket struct {
	DifficultyLevel string  `json:"difficulty_level"`
	QuestionCount   int     `json:"question_count"`
	AverageMarks    float64 `json:"average_marks"`
	TotalTime       int     `json:"total_time"`
}

// QuestionTimeStats carries the per-question pacing aggregate.
type QuestionTimeStats struct {
	QuestionCount      int     `json:"question_count"`
	AverageTimeSeconds float64 `json:"average_time_seconds"`
}
