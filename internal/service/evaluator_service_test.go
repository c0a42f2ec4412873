package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluateMCQ(t *testing.T) {
	eval := NewEvaluatorService(&fakeAI{})

	right := eval.EvaluateMCQ("go", "go")
	assert.Equal(t, 100.0, right.Score)
	assert.True(t, right.IsCorrect)

	wrong := eval.EvaluateMCQ("go", "run")
	assert.Equal(t, 0.0, wrong.Score)
	assert.False(t, wrong.IsCorrect)

	// option text is generator-controlled, comparison stays case-sensitive
	caseDiff := eval.EvaluateMCQ("Go", "go")
	assert.False(t, caseDiff.IsCorrect)
}

func TestEvaluateDescriptive_BlankAnswerSkipsModel(t *testing.T) {
	ai := &fakeAI{responses: []string{`{"score": 90, "is_correct": true, "feedback": "great"}`}}
	eval := NewEvaluatorService(ai)

	result := eval.EvaluateDescriptive(context.Background(), "Q", "ref", "   ", "Go")
	assert.Equal(t, 0.0, result.Score)
	assert.False(t, result.IsCorrect)
	assert.Empty(t, ai.prompts, "blank answers must not reach the model")
}

func TestEvaluateDescriptive_ModelResult(t *testing.T) {
	ai := &fakeAI{responses: []string{`{"score": 85, "is_correct": true, "feedback": "Good coverage"}`}}
	eval := NewEvaluatorService(ai)

	result := eval.EvaluateDescriptive(context.Background(), "Q", "ref answer", "my answer", "Go")
	assert.Equal(t, 85.0, result.Score)
	assert.True(t, result.IsCorrect)
	assert.Equal(t, "Good coverage", result.Feedback)
}

func TestEvaluateDescriptive_ScoreClampedAndRecomputed(t *testing.T) {
	// the model's own is_correct flag is discarded
	ai := &fakeAI{responses: []string{`{"score": 140, "is_correct": false, "feedback": ""}`}}
	eval := NewEvaluatorService(ai)

	result := eval.EvaluateDescriptive(context.Background(), "Q", "ref", "ans", "Go")
	assert.Equal(t, 100.0, result.Score)
	assert.True(t, result.IsCorrect)

	ai = &fakeAI{responses: []string{`{"score": 59.9, "is_correct": true, "feedback": ""}`}}
	eval = NewEvaluatorService(ai)
	result = eval.EvaluateDescriptive(context.Background(), "Q", "ref", "ans", "Go")
	assert.False(t, result.IsCorrect)
}

func TestEvaluateDescriptive_FallbackOnModelFailure(t *testing.T) {
	ai := &fakeAI{err: errors.New("timeout")}
	eval := NewEvaluatorService(ai)

	result := eval.EvaluateDescriptive(context.Background(), "Q",
		"channels share memory by communicating", "channels communicating", "Go")
	require.Greater(t, result.Score, 0.0)
	assert.Equal(t, "Automated scoring based on keyword matching", result.Feedback)
}

func TestEvaluateDescriptive_FallbackOnGarbageResponse(t *testing.T) {
	ai := &fakeAI{responses: []string{"I think the answer is pretty good overall"}}
	eval := NewEvaluatorService(ai)

	result := eval.EvaluateDescriptive(context.Background(), "Q", "alpha beta", "alpha beta", "Go")
	assert.Equal(t, 100.0, result.Score)
	assert.True(t, result.IsCorrect)
}

func TestFallbackEvaluation_KeywordOverlap(t *testing.T) {
	eval := NewEvaluatorService(&fakeAI{})

	full := eval.fallbackEvaluation("one two three", "THREE two ONE")
	assert.Equal(t, 100.0, full.Score)
	assert.True(t, full.IsCorrect)

	half := eval.fallbackEvaluation("one two", "one something")
	assert.Equal(t, 50.0, half.Score)
	assert.False(t, half.IsCorrect)

	empty := eval.fallbackEvaluation("", "anything")
	assert.Equal(t, 0.0, empty.Score)
}

func TestAggregateScore(t *testing.T) {
	assert.Equal(t, 0.0, AggregateScore(nil))
	assert.Equal(t, 100.0, AggregateScore([]float64{100}))
	assert.Equal(t, 66.7, AggregateScore([]float64{100, 100, 0}))
	assert.Equal(t, 50.0, AggregateScore([]float64{100, 0}))
	assert.Equal(t, 60.0, AggregateScore([]float64{100, 0, 100, 40}))
}
