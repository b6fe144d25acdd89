package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/PrepMaster-App/analytics-service/internal/cache"
	apperrors "github.com/PrepMaster-App/analytics-service/internal/errors"
	"github.com/PrepMaster-App/analytics-service/internal/events"
	"github.com/PrepMaster-App/analytics-service/internal/models"
	"github.com/PrepMaster-App/analytics-service/internal/repositories"
	"github.com/PrepMaster-App/analytics-service/internal/utils"
	"gorm.io/datatypes"
)

// MergePolicy decides which stored record an incoming test submission
// contributes to. The three policies reflect the accumulation strategies the
// legacy backend mixed freely; exactly one is active per deployment and the
// choice is explicit configuration, never inferred.
type MergePolicy string

const (
	// PolicyAppendOnly stores every submission as its own immutable record.
	// Progress views are reconstructed at read time. This is the default.
	PolicyAppendOnly MergePolicy = "append_only"

	// PolicyAccumulate keeps a single record per user and folds every
	// submission into it.
	PolicyAccumulate MergePolicy = "accumulate"

	// PolicyDailyBucket keeps one record per user and calendar day.
	PolicyDailyBucket MergePolicy = "daily_bucket"
)

// ParseMergePolicy validates a configured policy name.
func ParseMergePolicy(s string) (MergePolicy, error) {
	switch MergePolicy(s) {
	case PolicyAppendOnly, PolicyAccumulate, PolicyDailyBucket:
		return MergePolicy(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMergePolicy, s)
	}
}

// accumulateBucketKey marks the single all-time bucket under PolicyAccumulate.
const accumulateBucketKey = "all"

// normalizedBasis is the canonical marks scale; pairs with a larger max are
// rescaled proportionally on ingestion.
const normalizedBasis = 10.0

// ===== REQUEST STRUCTURES =====

// TestSubmissionRequest carries one finished practice test. The caller's
// percentage_score is accepted for wire compatibility but always recomputed
// server-side.
type TestSubmissionRequest struct {
	Technology        string  `json:"technology" validate:"omitempty,max=100"`
	TotalQuestions    int     `json:"totalQuestions" validate:"required,gt=0"`
	QuestionsAnswered int     `json:"questionsAnswered" validate:"gte=0"`
	TotalMarks        float64 `json:"totalMarks" validate:"gte=0"`
	MaxPossibleMarks  float64 `json:"maxPossibleMarks" validate:"required,gt=0"`
	PercentageScore   float64 `json:"percentageScore"`
	TimeSpent         int     `json:"timeSpent" validate:"gte=0"`
}

// QuestionSubmissionRequest carries one answered practice question. Marks may
// arrive on a 10-point or 100-point scale and are normalized on ingestion.
type QuestionSubmissionRequest struct {
	Technology      string  `json:"technology" validate:"omitempty,max=100"`
	DifficultyLevel string  `json:"difficulty_level" validate:"omitempty,difficulty_level"`
	MarksObtained   float64 `json:"marks_obtained" validate:"gte=0"`
	MaxMarks        float64 `json:"max_marks" validate:"required,gt=0"`
	TimeSpent       int     `json:"time_spent" validate:"gte=0"`
	ConfidenceLevel *int    `json:"confidence_level,omitempty" validate:"omitempty,min=1,max=10"`
	FluencyScore    *int    `json:"fluency_score,omitempty" validate:"omitempty,min=1,max=10"`
	Feedback        *string `json:"feedback,omitempty"`
}

// ===== SERVICE =====

// AggregationService applies incoming submissions to the progress store
// under the configured merge policy. It is the store's only writer.
type AggregationService interface {
	RecordTestResult(ctx context.Context, userID string, req *TestSubmissionRequest) (*models.TestResult, error)
	RecordQuestionResult(ctx context.Context, userID string, req *QuestionSubmissionRequest) (*models.QuestionResult, error)
	Policy() MergePolicy
}

type aggregationService struct {
	repo      repositories.ProgressRepository
	policy    MergePolicy
	cache     cache.CacheService
	publisher events.EventPublisher
	logger    *slog.Logger
	ops       *ServiceLogger
	validator *utils.Validator

	// buckets serializes read-modify-write cycles per (user, bucket) under
	// the accumulate and daily-bucket policies. Append-only inserts never
	// take a lock.
	buckets keyedMutex

	now func() time.Time
}

func NewAggregationService(
	repo repositories.ProgressRepository,
	policy MergePolicy,
	cacheService cache.CacheService,
	publisher events.EventPublisher,
	logger *slog.Logger,
	validator *utils.Validator,
) AggregationService {
	return &aggregationService{
		repo:      repo,
		policy:    policy,
		cache:     cacheService,
		publisher: publisher,
		logger:    logger,
		ops:       NewServiceLogger(logger, "aggregation"),
		validator: validator,
		now:       time.Now,
	}
}

func (s *aggregationService) Policy() MergePolicy {
	return s.policy
}

func (s *aggregationService) RecordTestResult(ctx context.Context, userID string, req *TestSubmissionRequest) (result *models.TestResult, err error) {
	start := time.Now()
	defer func() { s.ops.LogOperation(ctx, "record_test_result", userID, time.Since(start), err) }()

	if err := s.validator.Validate(req); err != nil {
		return nil, asValidationError(err)
	}
	if err := validateTestSubmission(req); err != nil {
		return nil, err
	}

	marks, maxMarks := normalizeMarks(req.TotalMarks, req.MaxPossibleMarks)
	technology := req.Technology
	if technology == "" {
		technology = models.DefaultTechnology
	}

	contribution := &models.TestResult{
		UserID:            userID,
		Technology:        technology,
		TestDate:          s.now(),
		TestsCount:        1,
		TotalQuestions:    req.TotalQuestions,
		QuestionsAnswered: req.QuestionsAnswered,
		TotalMarks:        marks,
		MaxPossibleMarks:  maxMarks,
		TimeSpentSeconds:  req.TimeSpent,
	}

	record, err := s.applyMergePolicy(ctx, userID, contribution)
	if err != nil {
		return nil, err
	}

	s.invalidateUserCache(ctx, userID)
	s.publishEvent(ctx, events.NewResultEvent(events.EventTestResultRecorded, &events.TestResultRecordedEvent{
		RecordID:         record.ID,
		UserID:           userID,
		Technology:       record.Technology,
		TotalQuestions:   req.TotalQuestions,
		PercentageScore:  record.PercentageScore,
		TimeSpentSeconds: req.TimeSpent,
		MergePolicy:      string(s.policy),
	}))

	return record, nil
}

func (s *aggregationService) RecordQuestionResult(ctx context.Context, userID string, req *QuestionSubmissionRequest) (result *models.QuestionResult, err error) {
	start := time.Now()
	defer func() { s.ops.LogOperation(ctx, "record_question_result", userID, time.Since(start), err) }()

	if err := s.validator.Validate(req); err != nil {
		return nil, asValidationError(err)
	}
	if err := validateQuestionSubmission(req); err != nil {
		return nil, err
	}

	marks, maxMarks := normalizeMarks(req.MarksObtained, req.MaxMarks)
	technology := req.Technology
	if technology == "" {
		technology = models.DefaultTechnology
	}
	difficulty := models.DifficultyLevel(req.DifficultyLevel)
	if difficulty == "" {
		difficulty = models.DifficultyMedium
	}

	record := &models.QuestionResult{
		UserID:           userID,
		Technology:       technology,
		DifficultyLevel:  difficulty,
		MarksObtained:    marks,
		MaxMarks:         maxMarks,
		TimeSpentSeconds: req.TimeSpent,
		TestDate:         s.now(),
	}

	if meta := buildQuestionMetadata(req); meta != nil {
		record.Metadata = meta
	}

	// Question results are appended regardless of the merge policy so that
	// difficulty-level analytics keep per-question granularity.
	if err := s.repo.InsertQuestionResult(ctx, record); err != nil {
		return nil, NewStoreError("insert question result", err)
	}

	s.invalidateUserCache(ctx, userID)
	s.publishEvent(ctx, events.NewResultEvent(events.EventQuestionResultRecorded, &events.QuestionResultRecordedEvent{
		RecordID:        record.ID,
		UserID:          userID,
		Technology:      record.Technology,
		DifficultyLevel: string(record.DifficultyLevel),
		MarksObtained:   record.MarksObtained,
		MaxMarks:        record.MaxMarks,
	}))

	return record, nil
}

// ===== MERGE POLICY =====

func (s *aggregationService) applyMergePolicy(ctx context.Context, userID string, contribution *models.TestResult) (*models.TestResult, error) {
	switch s.policy {
	case PolicyAppendOnly:
		contribution.RecomputeScore()
		if err := s.repo.InsertTestResult(ctx, contribution); err != nil {
			return nil, NewStoreError("insert test result", err)
		}
		return contribution, nil

	case PolicyAccumulate:
		return s.mergeIntoBucket(ctx, userID, accumulateBucketKey, contribution)

	case PolicyDailyBucket:
		day := contribution.TestDate.Format("2006-01-02")
		return s.mergeIntoBucket(ctx, userID, day, contribution)

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMergePolicy, s.policy)
	}
}

// mergeIntoBucket runs the read-modify-write cycle for the accumulate and
// daily-bucket policies. The per-(user, bucket) lock prevents two concurrent
// submissions from losing each other's increments; a failed update leaves
// the stored record untouched.
func (s *aggregationService) mergeIntoBucket(ctx context.Context, userID, bucketKey string, contribution *models.TestResult) (*models.TestResult, error) {
	unlock := s.buckets.lock(userID + "/" + bucketKey)
	defer unlock()

	existing, found, err := s.repo.FindTestResultByBucket(ctx, userID, bucketKey)
	if err != nil {
		return nil, NewStoreError("find bucket record", err)
	}

	if !found {
		contribution.BucketKey = bucketKey
		contribution.RecomputeScore()
		if err := s.repo.InsertTestResult(ctx, contribution); err != nil {
			return nil, NewStoreError("insert bucket record", err)
		}
		return contribution, nil
	}

	existing.TestsCount += contribution.TestsCount
	existing.TotalQuestions += contribution.TotalQuestions
	existing.QuestionsAnswered += contribution.QuestionsAnswered
	existing.TotalMarks += contribution.TotalMarks
	existing.MaxPossibleMarks += contribution.MaxPossibleMarks
	existing.TimeSpentSeconds += contribution.TimeSpentSeconds
	existing.Technology = contribution.Technology
	existing.TestDate = contribution.TestDate
	existing.RecomputeScore()

	if err := s.repo.UpdateTestResult(ctx, existing); err != nil {
		return nil, NewStoreError("update bucket record", err)
	}

	return existing, nil
}

// ===== NORMALIZATION & VALIDATION =====

// normalizeMarks rescales a marks pair to the canonical 10-point basis when
// the supplied maximum exceeds it.
func normalizeMarks(marks, maxMarks float64) (float64, float64) {
	if maxMarks <= normalizedBasis {
		return marks, maxMarks
	}
	factor := normalizedBasis / maxMarks
	return marks * factor, normalizedBasis
}

// asValidationError translates go-playground field errors into the shared
// ValidationErrors type so handlers can surface per-field details.
func asValidationError(err error) error {
	if fieldErrs := apperrors.ToValidationErrors(err); len(fieldErrs) > 0 {
		return fieldErrs
	}
	return fmt.Errorf("%w: %v", ErrValidationFailed, err)
}

func validateTestSubmission(req *TestSubmissionRequest) error {
	if req.MaxPossibleMarks <= 0 {
		return fmt.Errorf("%w: maxPossibleMarks=%v", ErrInvalidMarks, req.MaxPossibleMarks)
	}
	if req.QuestionsAnswered > req.TotalQuestions {
		return fmt.Errorf("%w: answered=%d total=%d", ErrAnsweredExceedsTotal, req.QuestionsAnswered, req.TotalQuestions)
	}
	if req.TotalMarks > req.MaxPossibleMarks {
		return fmt.Errorf("%w: marks=%v max=%v", ErrMarksExceedMax, req.TotalMarks, req.MaxPossibleMarks)
	}
	if req.TotalMarks < 0 || req.TimeSpent < 0 || req.QuestionsAnswered < 0 {
		return ErrNegativeContribution
	}
	return nil
}

func validateQuestionSubmission(req *QuestionSubmissionRequest) error {
	if req.MaxMarks <= 0 {
		return fmt.Errorf("%w: max_marks=%v", ErrInvalidMarks, req.MaxMarks)
	}
	if req.MarksObtained > req.MaxMarks {
		return fmt.Errorf("%w: marks=%v max=%v", ErrMarksExceedMax, req.MarksObtained, req.MaxMarks)
	}
	if req.MarksObtained < 0 || req.TimeSpent < 0 {
		return ErrNegativeContribution
	}
	return nil
}

func buildQuestionMetadata(req *QuestionSubmissionRequest) datatypes.JSON {
	if req.ConfidenceLevel == nil && req.FluencyScore == nil && req.Feedback == nil {
		return nil
	}

	meta := models.QuestionMetadata{
		ConfidenceLevel: req.ConfidenceLevel,
		FluencyScore:    req.FluencyScore,
		Feedback:        req.Feedback,
	}

	payload, err := json.Marshal(meta)
	if err != nil {
		return nil
	}
	return payload
}

// ===== SIDE EFFECTS =====

func (s *aggregationService) invalidateUserCache(ctx context.Context, userID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeletePattern(ctx, "analytics:"+userID+":*"); err != nil {
		s.logger.Warn("Failed to invalidate analytics cache", "user_id", userID, "error", err)
	}
}

func (s *aggregationService) publishEvent(ctx context.Context, event *events.ResultEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishResultEvent(ctx, event); err != nil {
		// Event delivery is best-effort; the record is already durable.
		s.logger.Warn("Failed to publish result event", "event_type", event.Type, "error", err)
	}
}

// ===== KEYED MUTEX =====

type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*lockEntry)
	}
	entry, ok := k.locks[key]
	if !ok {
		entry = &lockEntry{}
		k.locks[key] = entry
	}
	entry.refs++
	k.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()

		k.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
