package service

import (
	"context"
	"errors"
	"testing"

	"gapmentor_backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGapStore struct {
	created   []model.Gap
	createErr error
	gaps      []model.Gap
}

func (f *fakeGapStore) CreateBatch(gaps []model.Gap) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, gaps...)
	return nil
}

func (f *fakeGapStore) ListByUser(userID uint, unresolvedOnly bool, limit int) ([]model.Gap, error) {
	return f.gaps, nil
}

func (f *fakeGapStore) SetResolved(id, userID uint, resolved bool) error { return nil }

func (f *fakeGapStore) CountUnresolved(userID uint) (int64, error) {
	return int64(len(f.gaps)), nil
}

func scoredTest(scores ...float64) *model.Test {
	test := &model.Test{
		UserID:          1,
		Topic:           "Go concurrency",
		TopicNormalized: "go concurrency",
		Difficulty:      model.DifficultyMedium,
	}
	test.ID = 42
	for i, sc := range scores {
		score := sc
		q := model.Question{Number: i + 1, Text: "Q", Type: model.QuestionMCQ, Score: &score}
		q.ID = uint(100 + i)
		test.Questions = append(test.Questions, q)
	}
	return test
}

func TestAnalyzeTest_AllCorrectWritesNothing(t *testing.T) {
	store := &fakeGapStore{}
	svc := NewGapService(&fakeAI{responses: []string{"[]"}}, store)

	gaps, err := svc.AnalyzeTest(context.Background(), scoredTest(100, 80, 60))
	require.NoError(t, err)
	assert.Empty(t, gaps)
	assert.Empty(t, store.created)
}

func TestAnalyzeTest_ModelGaps(t *testing.T) {
	store := &fakeGapStore{}
	ai := &fakeAI{responses: []string{`[
		{"subtopic": "Channel buffering", "priority": "HIGH", "description": "Confuses buffered and unbuffered channels"},
		{"subtopic": "Select statement", "priority": "nonsense", "description": "Needs select practice"}
	]`}}
	svc := NewGapService(ai, store)

	gaps, err := svc.AnalyzeTest(context.Background(), scoredTest(100, 40, 0))
	require.NoError(t, err)
	require.Len(t, gaps, 2)

	assert.Equal(t, "Channel buffering", gaps[0].Subtopic)
	assert.Equal(t, model.GapPriorityHigh, gaps[0].Priority)
	assert.Equal(t, model.GapPriorityMedium, gaps[1].Priority, "unknown priorities coerce to medium")
	assert.Equal(t, uint(42), gaps[0].TestID)
	assert.Equal(t, "go concurrency", gaps[0].TopicNormalized)
	assert.Len(t, store.created, 2)
}

func TestAnalyzeTest_FallbackOnModelFailure(t *testing.T) {
	store := &fakeGapStore{}
	svc := NewGapService(&fakeAI{err: errors.New("down")}, store)

	gaps, err := svc.AnalyzeTest(context.Background(), scoredTest(0, 0, 0, 0, 0))
	require.NoError(t, err)
	require.Len(t, gaps, 3, "fallback caps at three generic gaps")
	for _, g := range gaps {
		assert.Equal(t, "Go concurrency", g.Subtopic)
		assert.Equal(t, model.GapPriorityMedium, g.Priority)
		assert.Equal(t, "Needs review", g.Description)
	}
	assert.Len(t, store.created, 3)
}

func TestAnalyzeTest_FallbackBelowCap(t *testing.T) {
	store := &fakeGapStore{}
	svc := NewGapService(&fakeAI{responses: []string{"not json"}}, store)

	gaps, err := svc.AnalyzeTest(context.Background(), scoredTest(100, 30, 20))
	require.NoError(t, err)
	assert.Len(t, gaps, 2, "one generic gap per missed question below the cap")
}

func TestAnalyzeTest_UnansweredCountsAsMissed(t *testing.T) {
	test := scoredTest(100)
	q := model.Question{Number: 2, Text: "Q2", Type: model.QuestionDescriptive}
	q.ID = 200
	test.Questions = append(test.Questions, q) // nil score

	store := &fakeGapStore{}
	svc := NewGapService(&fakeAI{responses: []string{"bad"}}, store)

	gaps, err := svc.AnalyzeTest(context.Background(), test)
	require.NoError(t, err)
	assert.Len(t, gaps, 1)
}

func TestAnalyzeTest_PersistErrorSurfaces(t *testing.T) {
	store := &fakeGapStore{createErr: errors.New("db down")}
	svc := NewGapService(&fakeAI{responses: []string{"bad"}}, store)

	_, err := svc.AnalyzeTest(context.Background(), scoredTest(0))
	assert.Error(t, err)
}
