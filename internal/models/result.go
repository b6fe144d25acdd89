package models

import (
	"time"

	"gorm.io/datatypes"
)

// DefaultTechnology is used when a submission carries no technology label.
const DefaultTechnology = "Interview Practice"

type DifficultyLevel string

const (
	DifficultyEasy   DifficultyLevel = "Easy"
	DifficultyMedium DifficultyLevel = "Medium"
	DifficultyHard   DifficultyLevel = "Hard"
)

// TestResult is one stored per-user progress record. Under the append-only
// merge policy every accepted test submission becomes its own row; under the
// accumulate and daily-bucket policies a row covers every submission that
// resolved to the same BucketKey, with TestsCount tracking how many.
type TestResult struct {
	ID     uint   `json:"id" gorm:"primaryKey"`
	UserID string `json:"user_id" gorm:"not null;size:255;index:idx_test_results_user_bucket,priority:1;index:idx_test_results_user_date,priority:1"`

	// BucketKey is empty under append-only, "all" under accumulate and a
	// calendar day ("2006-01-02") under daily-bucket.
	BucketKey string `json:"-" gorm:"size:32;index:idx_test_results_user_bucket,priority:2"`

	Technology string    `json:"technology" gorm:"not null;size:100;default:'Interview Practice'"`
	TestDate   time.Time `json:"test_date" gorm:"not null;index:idx_test_results_user_date,priority:2,sort:desc"`

	TestsCount        int     `json:"tests_count" gorm:"not null;default:1"`
	TotalQuestions    int     `json:"total_questions" gorm:"not null"`
	QuestionsAnswered int     `json:"questions_answered" gorm:"not null"`
	TotalMarks        float64 `json:"total_marks" gorm:"not null"`
	MaxPossibleMarks  float64 `json:"max_possible_marks" gorm:"not null"`

	// PercentageScore is always recomputed from the running sums, never
	// accumulated additively.
	PercentageScore float64 `json:"percentage_score" gorm:"not null"`

	TimeSpentSeconds int `json:"time_spent_seconds" gorm:"not null"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (TestResult) TableName() string {
	return "test_results"
}

// RecomputeScore derives PercentageScore from the running sums.
func (r *TestResult) RecomputeScore() {
	if r.MaxPossibleMarks <= 0 {
		r.PercentageScore = 0
		return
	}
	r.PercentageScore = 100 * r.TotalMarks / r.MaxPossibleMarks
}

// QuestionResult is one answered practice question, stored append-only
// regardless of the configured merge policy so that difficulty-level
// analytics keep their per-question granularity. Marks are normalized to a
// 10-point basis before storage.
type QuestionResult struct {
	ID     uint   `json:"id" gorm:"primaryKey"`
	UserID string `json:"user_id" gorm:"not null;size:255;index"`

	Technology      string          `json:"technology" gorm:"not null;size:100;default:'Interview Practice'"`
	DifficultyLevel DifficultyLevel `json:"difficulty_level" gorm:"size:16;index"`

	MarksObtained    float64 `json:"marks_obtained" gorm:"not null"`
	MaxMarks         float64 `json:"max_marks" gorm:"not null"`
	TimeSpentSeconds int     `json:"time_spent_seconds" gorm:"not null"`

	// Metadata carries the optional self-assessment fields of a submission
	// (confidence, fluency, feedback).
	Metadata datatypes.JSON `json:"metadata,omitempty" gorm:"type:jsonb"`

	TestDate  time.Time `json:"test_date" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
}

func (QuestionResult) TableName() string {
	return "question_results"
}

// QuestionMetadata is the JSON shape of QuestionResult.Metadata.
type QuestionMetadata struct {
	ConfidenceLevel *int    `json:"confidence_level,omitempty"`
	FluencyScore    *int    `json:"fluency_score,omitempty"`
	Feedback        *string `json:"feedback,omitempty"`
}
