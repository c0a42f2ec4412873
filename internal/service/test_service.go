package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gapmentor_backend/internal/config"
	"gapmentor_backend/internal/model"
	"gapmentor_backend/internal/repository"
	"gapmentor_backend/internal/util"
	"gapmentor_backend/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// TestService drives the test lifecycle: generation, the live session,
// scoring and the post-completion gap analysis.
type TestService struct {
	gen           *GeneratorService
	eval          *EvaluatorService
	gaps          *GapService
	tests         *repository.TestRepository
	notifications *repository.NotificationRepository
	sessions      *SessionStore
	quiz          config.QuizConfig
}

func NewTestService(
	gen *GeneratorService,
	eval *EvaluatorService,
	gaps *GapService,
	tests *repository.TestRepository,
	notifications *repository.NotificationRepository,
	sessions *SessionStore,
	quiz config.QuizConfig,
) *TestService {
	return &TestService{
		gen:           gen,
		eval:          eval,
		gaps:          gaps,
		tests:         tests,
		notifications: notifications,
		sessions:      sessions,
		quiz:          quiz,
	}
}

type StartTestParams struct {
	UserID     uint
	Topic      string
	Difficulty model.Difficulty
	Count      int
	TimeLimit  int // seconds, 0 = untimed
}

// Start generates a fresh question batch, filters out questions the user
// has already been asked on this topic, persists test and questions in one
// transaction and opens the live session. When every generated question has
// been seen before, the topic's question space is treated as exhausted.
func (s *TestService) Start(ctx context.Context, params StartTestParams) (*model.Test, *TestSession, error) {
	count := params.Count
	if count == 0 {
		count = s.quiz.DefaultQuestions
	}
	if count < 0 || count > s.quiz.MaxQuestions {
		return nil, nil, util.ErrInvalidQuestionCount
	}

	generated, err := s.gen.Generate(ctx, GenerateParams{
		UserID:              params.UserID,
		Topic:               params.Topic,
		Difficulty:          params.Difficulty,
		Count:               count,
		DescriptiveFraction: s.quiz.DescriptiveFraction,
	})
	if err != nil {
		return nil, nil, err
	}

	unseen, err := s.gen.FilterSeen(params.UserID, params.Topic, generated)
	if err != nil {
		return nil, nil, err
	}
	if len(unseen) == 0 {
		return nil, nil, util.ErrQuestionSpaceExhausted
	}
	if len(unseen) < len(generated) {
		logger.Log.Info("dropped previously seen questions",
			zap.Uint("userId", params.UserID),
			zap.String("topic", params.Topic),
			zap.Int("generated", len(generated)),
			zap.Int("kept", len(unseen)))
	}

	test := &model.Test{
		UserID:          params.UserID,
		Topic:           params.Topic,
		TopicNormalized: model.NormalizeTopic(params.Topic),
		Difficulty:      params.Difficulty,
		TotalQuestions:  len(unseen),
		TimeLimit:       params.TimeLimit,
	}

	questions := make([]model.Question, 0, len(unseen))
	for i, q := range unseen {
		var options json.RawMessage
		if q.Type == model.QuestionMCQ {
			options, err = json.Marshal(q.Options)
			if err != nil {
				return nil, nil, err
			}
		}
		questions = append(questions, model.Question{
			Number:        i + 1,
			Text:          q.Question,
			Type:          q.Type,
			Options:       options,
			CorrectAnswer: q.CorrectAnswer,
		})
	}

	if err := s.tests.CreateWithQuestions(test, questions); err != nil {
		return nil, nil, err
	}
	test.Questions = questions

	questionIDs := make([]uint, len(questions))
	for i, q := range questions {
		questionIDs[i] = q.ID
	}

	session := NewTestSession(test.ID, params.UserID, questionIDs, params.TimeLimit, time.Now())
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, nil, err
	}

	logger.Log.Info("test started",
		zap.Uint("testId", test.ID),
		zap.Uint("userId", params.UserID),
		zap.String("topic", params.Topic),
		zap.Int("questions", len(questions)))

	return test, session, nil
}

// Session returns the live session for a test. A session whose time limit
// has elapsed is force-finalized with the answers recorded so far; the
// caller is then pointed at the results.
func (s *TestService) Session(ctx context.Context, testID, userID uint) (*TestSession, error) {
	session, err := s.loadSession(ctx, testID, userID)
	if err != nil {
		return nil, err
	}

	if session.Expired(time.Now()) {
		logger.Log.Info("time limit elapsed, force-finalizing test",
			zap.Uint("testId", testID), zap.Uint("userId", userID))
		if _, err := s.Finalize(ctx, testID, userID); err != nil {
			return nil, err
		}
		return nil, util.ErrTestAlreadyCompleted
	}

	return session, nil
}

// SubmitAnswer records the answer for a question of this test and moves the
// cursor forward. Re-answering an already answered question overwrites the
// previous answer.
func (s *TestService) SubmitAnswer(ctx context.Context, testID, userID, questionID uint, answer string) (*TestSession, error) {
	session, err := s.loadSession(ctx, testID, userID)
	if err != nil {
		return nil, err
	}
	if session.Expired(time.Now()) {
		if _, err := s.Finalize(ctx, testID, userID); err != nil {
			return nil, err
		}
		return nil, util.ErrTestAlreadyCompleted
	}

	if err := session.Record(questionID, answer); err != nil {
		return nil, err
	}
	session.Advance()

	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// Navigate moves the session cursor: "previous" steps back, "next" and
// "skip" step forward without requiring an answer. Movement is bounded at
// both ends.
func (s *TestService) Navigate(ctx context.Context, testID, userID uint, direction string) (*TestSession, error) {
	session, err := s.loadSession(ctx, testID, userID)
	if err != nil {
		return nil, err
	}
	if session.Expired(time.Now()) {
		if _, err := s.Finalize(ctx, testID, userID); err != nil {
			return nil, err
		}
		return nil, util.ErrTestAlreadyCompleted
	}

	switch direction {
	case "previous":
		session.Previous()
	case "next", "skip":
		session.Advance()
	default:
		return nil, fmt.Errorf("unknown navigation direction %q", direction)
	}

	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// Finalize scores every question (unanswered ones score zero), writes the
// aggregate, runs gap analysis and closes the session. Idempotent: a test
// already completed is returned as-is without re-scoring.
func (s *TestService) Finalize(ctx context.Context, testID, userID uint) (*model.Test, error) {
	test, err := s.tests.FindWithQuestions(testID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrTestNotFound
		}
		return nil, err
	}
	if test.UserID != userID {
		return nil, util.ErrTestNotFound
	}
	if test.Completed {
		return test, nil
	}

	session, err := s.sessions.Get(ctx, testID)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, util.ErrSessionNotFound
		}
		return nil, err
	}
	if session.UserID != userID {
		return nil, util.ErrTestNotFound
	}

	scores := make([]float64, 0, len(test.Questions))
	for i := range test.Questions {
		q := &test.Questions[i]
		answer := session.Answers[q.ID]

		var eval Evaluation
		switch q.Type {
		case model.QuestionMCQ:
			eval = s.eval.EvaluateMCQ(q.CorrectAnswer, answer)
		default:
			eval = s.eval.EvaluateDescriptive(ctx, q.Text, q.CorrectAnswer, answer, test.Topic)
		}

		if err := s.tests.UpdateQuestionResult(q.ID, answer, eval.IsCorrect, eval.Score, eval.Feedback); err != nil {
			return nil, err
		}
		q.UserAnswer = answer
		q.IsCorrect = &eval.IsCorrect
		q.Score = &eval.Score
		q.Feedback = eval.Feedback
		scores = append(scores, eval.Score)
	}

	score := AggregateScore(scores)

	timeTaken := int(time.Since(session.StartedAt).Seconds())
	if session.TimeLimit > 0 && timeTaken > session.TimeLimit {
		timeTaken = session.TimeLimit
	}

	if err := s.tests.Complete(testID, score, timeTaken); err != nil {
		return nil, err
	}
	now := time.Now()
	test.Completed = true
	test.Score = &score
	test.TimeTaken = timeTaken
	test.CompletedAt = &now

	gaps, err := s.gaps.AnalyzeTest(ctx, test)
	if err != nil {
		// scoring already stands, a failed analysis must not fail the submit
		logger.Log.Error("gap analysis failed", zap.Uint("testId", testID), zap.Error(err))
	}

	notification := &model.Notification{
		UserID: userID,
		Kind:   "test",
		Title:  fmt.Sprintf("Test completed: %s", test.Topic),
		Body:   fmt.Sprintf("You scored %.1f%% on %q (%s). %d new learning gaps identified.", score, test.Topic, test.Difficulty, len(gaps)),
		Link:   fmt.Sprintf("/tests/%d/results", testID),
	}
	if err := s.notifications.Create(notification); err != nil {
		logger.Log.Warn("failed to write completion notification", zap.Uint("testId", testID), zap.Error(err))
	}

	session.Complete()
	if err := s.sessions.Delete(ctx, testID); err != nil {
		logger.Log.Warn("failed to drop completed session", zap.Uint("testId", testID), zap.Error(err))
	}

	logger.Log.Info("test finalized",
		zap.Uint("testId", testID),
		zap.Uint("userId", userID),
		zap.Float64("score", score),
		zap.Int("gaps", len(gaps)))

	return test, nil
}

// Results returns a test with its questions, scoring and feedback.
func (s *TestService) Results(testID, userID uint) (*model.Test, error) {
	test, err := s.tests.FindWithQuestions(testID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrTestNotFound
		}
		return nil, err
	}
	if test.UserID != userID {
		return nil, util.ErrTestNotFound
	}
	return test, nil
}

// List returns the user's test history, newest first.
func (s *TestService) List(userID uint, limit int) ([]model.Test, error) {
	return s.tests.ListByUser(userID, limit)
}

func (s *TestService) loadSession(ctx context.Context, testID, userID uint) (*TestSession, error) {
	session, err := s.sessions.Get(ctx, testID)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			test, terr := s.tests.FindByID(testID)
			if terr == nil && test.UserID == userID && test.Completed {
				return nil, util.ErrTestAlreadyCompleted
			}
			return nil, util.ErrSessionNotFound
		}
		return nil, err
	}
	if session.UserID != userID {
		return nil, util.ErrTestNotFound
	}
	return session, nil
}
