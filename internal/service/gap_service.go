package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"gapmentor_backend/internal/model"
	"gapmentor_backend/pkg/logger"

	"go.uber.org/zap"
)

// fallbackGapCap bounds how many generic gaps the deterministic fallback
// writes per test.
const fallbackGapCap = 3

// GapStore is the persistence surface the extractor needs; satisfied by
// repository.GapRepository.
type GapStore interface {
	CreateBatch(gaps []model.Gap) error
	ListByUser(userID uint, unresolvedOnly bool, limit int) ([]model.Gap, error)
	SetResolved(id, userID uint, resolved bool) error
	CountUnresolved(userID uint) (int64, error)
}

type GapService struct {
	ai    TextGenerator
	store GapStore
}

func NewGapService(ai TextGenerator, store GapStore) *GapService {
	return &GapService{ai: ai, store: store}
}

// missedQuestions are the questions whose recorded score fell below the
// passing threshold (MCQ wrong answers score 0 and always qualify).
func missedQuestions(test *model.Test) []model.Question {
	var missed []model.Question
	for _, q := range test.Questions {
		if q.Score == nil {
			// unanswered questions score 0 and count as missed
			missed = append(missed, q)
			continue
		}
		if *q.Score < passingScore {
			missed = append(missed, q)
		}
	}
	return missed
}

// AnalyzeTest derives learning gaps from a completed test's wrong answers
// and persists them. No wrong answers means an empty result and zero rows.
// A failed model call degrades to generic fallback gaps; persistence is
// never skipped when qualifying wrong answers exist.
func (s *GapService) AnalyzeTest(ctx context.Context, test *model.Test) ([]model.Gap, error) {
	missed := missedQuestions(test)
	if len(missed) == 0 {
		return []model.Gap{}, nil
	}

	gaps := s.extractWithModel(ctx, test, missed)
	if len(gaps) == 0 {
		gaps = s.fallbackGaps(test, missed)
	}

	if err := s.store.CreateBatch(gaps); err != nil {
		return nil, err
	}
	return gaps, nil
}

func (s *GapService) extractWithModel(ctx context.Context, test *model.Test, missed []model.Question) []model.Gap {
	var b strings.Builder
	fmt.Fprintf(&b, "Analyze these incorrect answers from a test on %q at %s difficulty.\n\nIncorrect Questions:\n", test.Topic, test.Difficulty)
	for _, q := range missed {
		fmt.Fprintf(&b, "- %s\n", q.Text)
	}
	b.WriteString("\nIdentify 3-5 specific learning gaps or subtopics the student needs to work on.\n\n")
	b.WriteString("Return ONLY a JSON array with no markdown formatting:\n")
	b.WriteString(`[{"subtopic": "Specific concept or subtopic", "priority": "high", "description": "Brief description of what needs improvement"}]`)
	b.WriteString("\n\nImportant: Return valid JSON only, no code blocks or markdown.\n")

	raw, err := s.ai.Chat(ctx, "", b.String())
	if err != nil {
		logger.Log.Warn("gap extraction falling back to generic gaps", zap.Uint("testId", test.ID), zap.Error(err))
		return nil
	}

	var rows []struct {
		Subtopic    string `json:"subtopic"`
		Priority    string `json:"priority"`
		Description string `json:"description"`
	}
	if err := json.Unmarshal([]byte(StripCodeFence(raw)), &rows); err != nil {
		logger.Log.Warn("unparseable gap extraction response, falling back", zap.Uint("testId", test.ID), zap.Error(err))
		return nil
	}

	gaps := make([]model.Gap, 0, len(rows))
	for _, row := range rows {
		if strings.TrimSpace(row.Subtopic) == "" {
			continue
		}
		gaps = append(gaps, model.Gap{
			UserID:          test.UserID,
			Topic:           test.Topic,
			TopicNormalized: model.NormalizeTopic(test.Topic),
			Subtopic:        strings.TrimSpace(row.Subtopic),
			Priority:        model.CoercePriority(row.Priority),
			Description:     row.Description,
			TestID:          test.ID,
		})
	}
	return gaps
}

// fallbackGaps builds min(N, 3) generic gaps, one per missed question.
func (s *GapService) fallbackGaps(test *model.Test, missed []model.Question) []model.Gap {
	n := len(missed)
	if n > fallbackGapCap {
		n = fallbackGapCap
	}
	gaps := make([]model.Gap, 0, n)
	for i := 0; i < n; i++ {
		gaps = append(gaps, model.Gap{
			UserID:          test.UserID,
			Topic:           test.Topic,
			TopicNormalized: model.NormalizeTopic(test.Topic),
			Subtopic:        test.Topic,
			Priority:        model.GapPriorityMedium,
			Description:     "Needs review",
			TestID:          test.ID,
		})
	}
	return gaps
}

func (s *GapService) ListGaps(userID uint, unresolvedOnly bool) ([]model.Gap, error) {
	return s.store.ListByUser(userID, unresolvedOnly, 0)
}

func (s *GapService) ResolveGap(gapID, userID uint) error {
	return s.store.SetResolved(gapID, userID, true)
}
