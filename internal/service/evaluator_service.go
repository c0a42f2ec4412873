package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"gapmentor_backend/pkg/logger"

	"go.uber.org/zap"
)

// passingScore is the threshold above which an answer counts as correct.
const passingScore = 60.0

// Evaluation is the scoring outcome for a single answer.
type Evaluation struct {
	Score     float64 `json:"score"`
	IsCorrect bool    `json:"isCorrect"`
	Feedback  string  `json:"feedback"`
}

type EvaluatorService struct {
	ai TextGenerator
}

func NewEvaluatorService(ai TextGenerator) *EvaluatorService {
	return &EvaluatorService{ai: ai}
}

// EvaluateMCQ compares the recorded answer to the stored correct option.
// Options are generator-controlled literal strings, so the comparison is
// case-sensitive.
func (s *EvaluatorService) EvaluateMCQ(correctAnswer, userAnswer string) Evaluation {
	if userAnswer == correctAnswer {
		return Evaluation{Score: 100, IsCorrect: true}
	}
	return Evaluation{Score: 0, IsCorrect: false}
}

// EvaluateDescriptive scores a free-text answer with the model, falling
// back to keyword overlap when the call fails. It never returns an error:
// the fallback is the guaranteed terminal path. IsCorrect is always
// recomputed from the numeric score; the model's own boolean is a hint
// only and is discarded.
func (s *EvaluatorService) EvaluateDescriptive(ctx context.Context, question, referenceAnswer, userAnswer, topic string) Evaluation {
	if strings.TrimSpace(userAnswer) == "" {
		return Evaluation{Score: 0, IsCorrect: false, Feedback: "No answer provided"}
	}

	prompt := buildEvaluationPrompt(question, referenceAnswer, userAnswer, topic)

	raw, err := s.ai.Chat(ctx, "", prompt)
	if err != nil {
		logger.Log.Warn("descriptive evaluation falling back to keyword matching", zap.Error(err))
		return s.fallbackEvaluation(referenceAnswer, userAnswer)
	}

	var result struct {
		Score     float64 `json:"score"`
		IsCorrect bool    `json:"is_correct"`
		Feedback  string  `json:"feedback"`
	}
	if err := json.Unmarshal([]byte(StripCodeFence(raw)), &result); err != nil {
		logger.Log.Warn("unparseable evaluation response, falling back to keyword matching", zap.Error(err))
		return s.fallbackEvaluation(referenceAnswer, userAnswer)
	}

	score := math.Max(0, math.Min(100, result.Score))
	return Evaluation{
		Score:     score,
		IsCorrect: score >= passingScore,
		Feedback:  result.Feedback,
	}
}

// fallbackEvaluation scores by keyword overlap: the fraction of the
// reference answer's lowercase tokens present in the student answer.
func (s *EvaluatorService) fallbackEvaluation(referenceAnswer, userAnswer string) Evaluation {
	keywords := strings.Fields(strings.ToLower(referenceAnswer))
	if len(keywords) == 0 {
		return Evaluation{Score: 0, IsCorrect: false, Feedback: "Automated scoring based on keyword matching"}
	}

	answerWords := make(map[string]bool)
	for _, w := range strings.Fields(strings.ToLower(userAnswer)) {
		answerWords[w] = true
	}

	matches := 0
	for _, kw := range keywords {
		if answerWords[kw] {
			matches++
		}
	}

	score := math.Min(float64(matches)/float64(len(keywords))*100, 100)
	return Evaluation{
		Score:     score,
		IsCorrect: score >= passingScore,
		Feedback:  "Automated scoring based on keyword matching",
	}
}

// AggregateScore is the arithmetic mean of per-question scores rounded to
// one decimal. Empty input yields 0.
func AggregateScore(scores []float64) float64 {
	if len(scores) == 0 {
		return 0
	}
	var sum float64
	for _, s := range scores {
		sum += s
	}
	return math.Round(sum/float64(len(scores))*10) / 10
}

func buildEvaluationPrompt(question, referenceAnswer, userAnswer, topic string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Evaluate this student's answer for the topic %q:\n\n", topic)
	fmt.Fprintf(&b, "Question: %s\nExpected Answer: %s\nStudent's Answer: %s\n\n", question, referenceAnswer, userAnswer)
	b.WriteString("Evaluate based on:\n")
	b.WriteString("1. Correctness - Are the key concepts correct?\n")
	b.WriteString("2. Completeness - Does it cover the main points?\n")
	b.WriteString("3. Understanding - Does it show comprehension?\n\n")
	b.WriteString("Scoring Guide:\n")
	b.WriteString("- 90-100: Excellent, complete understanding with all key points\n")
	b.WriteString("- 70-89: Good, covers most points with minor gaps\n")
	b.WriteString("- 50-69: Adequate, basic understanding but missing important details\n")
	b.WriteString("- 30-49: Insufficient, major gaps in understanding\n")
	b.WriteString("- 0-29: Incorrect or minimal understanding\n\n")
	b.WriteString("Return ONLY a JSON object (no markdown, no code blocks):\n")
	b.WriteString(`{"score": 85, "is_correct": true, "feedback": "Brief constructive feedback (1-2 sentences)"}`)
	b.WriteString("\n\nNote: is_correct should be true if score >= 60, false otherwise.\n")
	return b.String()
}
