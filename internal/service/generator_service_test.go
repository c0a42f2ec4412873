package service

import (
	"context"
	"errors"
	"testing"

	"gapmentor_backend/internal/model"
	"gapmentor_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validBatch = `[
  {"question": "What is a goroutine?", "type": "Descriptive", "options": null, "correct_answer": "A lightweight thread managed by the Go runtime"},
  {"question": "Which keyword starts a goroutine?", "type": "MCQ", "options": ["go", "run", "async", "spawn"], "correct_answer": "go"}
]`

func newGenerator(ai *fakeAI, history *fakeHistory) *GeneratorService {
	if history == nil {
		history = &fakeHistory{}
	}
	return NewGeneratorService(ai, history)
}

func TestGenerate_ValidBatch(t *testing.T) {
	ai := &fakeAI{responses: []string{validBatch}}
	gen := newGenerator(ai, nil)

	questions, err := gen.Generate(context.Background(), GenerateParams{
		UserID:              1,
		Topic:               "Go concurrency",
		Difficulty:          model.DifficultyMedium,
		Count:               2,
		DescriptiveFraction: 0.5,
	})
	require.NoError(t, err)
	require.Len(t, questions, 2)

	assert.Equal(t, model.QuestionDescriptive, questions[0].Type)
	assert.Nil(t, questions[0].Options)
	assert.Equal(t, model.QuestionMCQ, questions[1].Type)
	assert.Equal(t, []string{"go", "run", "async", "spawn"}, questions[1].Options)
	assert.Equal(t, "go", questions[1].CorrectAnswer)
}

func TestGenerate_StripsCodeFence(t *testing.T) {
	ai := &fakeAI{responses: []string{"```json\n" + validBatch + "\n```"}}
	gen := newGenerator(ai, nil)

	questions, err := gen.Generate(context.Background(), GenerateParams{
		UserID: 1, Topic: "Go", Difficulty: model.DifficultyEasy, Count: 2, DescriptiveFraction: 0.5,
	})
	require.NoError(t, err)
	assert.Len(t, questions, 2)
}

func TestGenerate_ValidatesParams(t *testing.T) {
	gen := newGenerator(&fakeAI{responses: []string{validBatch}}, nil)
	ctx := context.Background()

	_, err := gen.Generate(ctx, GenerateParams{Topic: "   ", Difficulty: model.DifficultyEasy, Count: 2})
	assert.ErrorIs(t, err, util.ErrInvalidTopic)

	_, err = gen.Generate(ctx, GenerateParams{Topic: "Go", Difficulty: "expert", Count: 2})
	assert.ErrorIs(t, err, util.ErrInvalidDifficulty)

	_, err = gen.Generate(ctx, GenerateParams{Topic: "Go", Difficulty: model.DifficultyEasy, Count: 0})
	assert.ErrorIs(t, err, util.ErrInvalidQuestionCount)
}

func TestGenerate_UpstreamFailure(t *testing.T) {
	ai := &fakeAI{err: errors.New("connection refused")}
	gen := newGenerator(ai, nil)

	_, err := gen.Generate(context.Background(), GenerateParams{
		UserID: 1, Topic: "Go", Difficulty: model.DifficultyEasy, Count: 2,
	})
	ge, ok := util.AsGenerationError(err)
	require.True(t, ok)
	assert.Equal(t, util.ReasonUpstreamFailure, ge.Reason)
}

func TestGenerate_ParseFailure(t *testing.T) {
	ai := &fakeAI{responses: []string{"Sure! Here are your questions:"}}
	gen := newGenerator(ai, nil)

	_, err := gen.Generate(context.Background(), GenerateParams{
		UserID: 1, Topic: "Go", Difficulty: model.DifficultyEasy, Count: 2,
	})
	ge, ok := util.AsGenerationError(err)
	require.True(t, ok)
	assert.Equal(t, util.ReasonParseFailed, ge.Reason)
}

func TestGenerate_CountMismatch(t *testing.T) {
	ai := &fakeAI{responses: []string{validBatch}}
	gen := newGenerator(ai, nil)

	_, err := gen.Generate(context.Background(), GenerateParams{
		UserID: 1, Topic: "Go", Difficulty: model.DifficultyEasy, Count: 5,
	})
	ge, ok := util.AsGenerationError(err)
	require.True(t, ok)
	assert.Equal(t, util.ReasonCountMismatch, ge.Reason)
}

func TestGenerate_DuplicateInBatch(t *testing.T) {
	dup := `[
  {"question": "What is a map?", "type": "Descriptive", "options": null, "correct_answer": "A hash table"},
  {"question": "what is a MAP?  ", "type": "Descriptive", "options": null, "correct_answer": "A hash table"}
]`
	ai := &fakeAI{responses: []string{dup}}
	gen := newGenerator(ai, nil)

	_, err := gen.Generate(context.Background(), GenerateParams{
		UserID: 1, Topic: "Go", Difficulty: model.DifficultyEasy, Count: 2,
	})
	ge, ok := util.AsGenerationError(err)
	require.True(t, ok)
	assert.Equal(t, util.ReasonDuplicateQuestions, ge.Reason)
}

func TestGenerate_MCQAnswerMustMatchOption(t *testing.T) {
	bad := `[{"question": "Pick one", "type": "MCQ", "options": ["a", "b"], "correct_answer": "c"}]`
	ai := &fakeAI{responses: []string{bad}}
	gen := newGenerator(ai, nil)

	_, err := gen.Generate(context.Background(), GenerateParams{
		UserID: 1, Topic: "Go", Difficulty: model.DifficultyEasy, Count: 1,
	})
	ge, ok := util.AsGenerationError(err)
	require.True(t, ok)
	assert.Equal(t, util.ReasonParseFailed, ge.Reason)
}

func TestGenerate_UnknownTypeRejected(t *testing.T) {
	bad := `[{"question": "True or false?", "type": "boolean", "options": null, "correct_answer": "true"}]`
	ai := &fakeAI{responses: []string{bad}}
	gen := newGenerator(ai, nil)

	_, err := gen.Generate(context.Background(), GenerateParams{
		UserID: 1, Topic: "Go", Difficulty: model.DifficultyEasy, Count: 1,
	})
	ge, ok := util.AsGenerationError(err)
	require.True(t, ok)
	assert.Equal(t, util.ReasonParseFailed, ge.Reason)
}

func TestFilterSeen_DropsAskedQuestions(t *testing.T) {
	history := &fakeHistory{texts: []string{"What is a goroutine?  "}}
	gen := newGenerator(&fakeAI{}, history)

	candidates := []GeneratedQuestion{
		{Question: "what is a Goroutine?", Type: model.QuestionDescriptive, CorrectAnswer: "x"},
		{Question: "What is a channel?", Type: model.QuestionDescriptive, CorrectAnswer: "y"},
	}

	unseen, err := gen.FilterSeen(1, "Go", candidates)
	require.NoError(t, err)
	require.Len(t, unseen, 1)
	assert.Equal(t, "What is a channel?", unseen[0].Question)
}

func TestFilterSeen_AllSeenIsEmptyNotError(t *testing.T) {
	history := &fakeHistory{texts: []string{"q1", "q2"}}
	gen := newGenerator(&fakeAI{}, history)

	unseen, err := gen.FilterSeen(1, "Go", []GeneratedQuestion{
		{Question: "Q1"}, {Question: "q2"},
	})
	require.NoError(t, err)
	assert.Empty(t, unseen)
}

func TestStripCodeFence(t *testing.T) {
	assert.Equal(t, `{"a":1}`, StripCodeFence("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, StripCodeFence("```\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, StripCodeFence(`  {"a":1}  `))
}
