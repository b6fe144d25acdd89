package events

import (
	"time"

	"github.com/ThreeDotsLabs/watermill"
)

// EventType represents the kinds of progress events this service publishes
type EventType string

const (
	EventTestResultRecorded     EventType = "result.test_recorded"
	EventQuestionResultRecorded EventType = "result.question_recorded"
)

// ResultEvent is the envelope for all published progress events
type ResultEvent struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Source    string      `json:"source"`
	Version   string      `json:"version"`
	Data      interface{} `json:"data"`
}

// TestResultRecordedEvent is emitted after a test submission is persisted
type TestResultRecordedEvent struct {
	RecordID         uint    `json:"record_id"`
	UserID           string  `json:"user_id"`
	Technology       string  `json:"technology"`
	TotalQuestions   int     `json:"total_questions"`
	PercentageScore  float64 `json:"percentage_score"`
	TimeSpentSeconds int     `json:"time_spent_seconds"`
	MergePolicy      string  `json:"merge_policy"`
}

// QuestionResultRecordedEvent is emitted after a question submission is persisted
type QuestionResultRecordedEvent struct {
	RecordID        uint    `json:"record_id"`
	UserID          string  `json:"user_id"`
	Technology      string  `json:"technology"`
	DifficultyLevel string  `json:"difficulty_level"`
	MarksObtained   float64 `json:"marks_obtained"`
	MaxMarks        float64 `json:"max_marks"`
}

// NewResultEvent wraps a payload in the standard envelope
func NewResultEvent(eventType EventType, data interface{}) *ResultEvent {
	return &ResultEvent{
		ID:        watermill.NewUUID(),
		Type:      eventType,
		Timestamp: time.Now(),
		Source:    "analytics-service",
		Version:   "1.0",
		Data:      data,
	}
}
