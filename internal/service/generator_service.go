package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"gapmentor_backend/internal/model"
	"gapmentor_backend/internal/util"
)

// QuestionHistory is the read-only view of a user's past questions the
// deduplicator needs.
type QuestionHistory interface {
	ListTopicQuestionTexts(userID uint, topicNormalized string) ([]string, error)
}

// GeneratedQuestion is one validated question out of the model, before it
// is persisted as a model.Question row.
type GeneratedQuestion struct {
	Question      string
	Type          model.QuestionType
	Options       []string
	CorrectAnswer string
}

type GenerateParams struct {
	UserID              uint
	Topic               string
	Difficulty          model.Difficulty
	Count               int
	DescriptiveFraction float64
}

type GeneratorService struct {
	ai      TextGenerator
	history QuestionHistory
}

func NewGeneratorService(ai TextGenerator, history QuestionHistory) *GeneratorService {
	return &GeneratorService{ai: ai, history: history}
}

var difficultyGuidance = map[model.Difficulty]string{
	model.DifficultyEasy:   "Focus on basic concepts, definitions, and fundamental understanding. Questions should test recall and comprehension.",
	model.DifficultyMedium: "Include application-based questions, problem-solving, and conceptual understanding. Mix of recall and analytical thinking.",
	model.DifficultyHard:   "Focus on complex scenarios, advanced concepts, analysis, and synthesis. Require deep understanding and critical thinking.",
}

// Generate asks the model for exactly params.Count questions and validates
// the batch. It never retries; a failed batch is the caller's to retry.
func (s *GeneratorService) Generate(ctx context.Context, params GenerateParams) ([]GeneratedQuestion, error) {
	topic := strings.TrimSpace(params.Topic)
	if topic == "" {
		return nil, util.ErrInvalidTopic
	}
	if !params.Difficulty.Valid() {
		return nil, util.ErrInvalidDifficulty
	}
	if params.Count <= 0 {
		return nil, util.ErrInvalidQuestionCount
	}
	if params.DescriptiveFraction < 0 || params.DescriptiveFraction > 1 {
		return nil, fmt.Errorf("descriptive fraction %v outside [0,1]", params.DescriptiveFraction)
	}

	descriptiveCount := int(math.Round(float64(params.Count) * params.DescriptiveFraction))
	mcqCount := params.Count - descriptiveCount

	prompt := buildGenerationPrompt(topic, params.Difficulty, params.Count, mcqCount, descriptiveCount)

	raw, err := s.ai.Chat(ctx, "", prompt)
	if err != nil {
		return nil, util.NewGenerationError(util.ReasonUpstreamFailure, err)
	}

	questions, err := parseQuestionBatch(raw)
	if err != nil {
		return nil, util.NewGenerationError(util.ReasonParseFailed, err)
	}

	if len(questions) != params.Count {
		return nil, util.NewGenerationError(util.ReasonCountMismatch,
			fmt.Errorf("expected %d questions, got %d", params.Count, len(questions)))
	}

	seen := make(map[string]bool, len(questions))
	for _, q := range questions {
		key := model.NormalizeTopic(q.Question)
		if seen[key] {
			return nil, util.NewGenerationError(util.ReasonDuplicateQuestions,
				fmt.Errorf("duplicate question in batch: %q", q.Question))
		}
		seen[key] = true
	}

	return questions, nil
}

// FilterSeen drops candidates whose normalized text the user has already
// been asked on this topic. Read-only; an empty result is a legitimate
// terminal condition, not an error.
func (s *GeneratorService) FilterSeen(userID uint, topic string, candidates []GeneratedQuestion) ([]GeneratedQuestion, error) {
	texts, err := s.history.ListTopicQuestionTexts(userID, model.NormalizeTopic(topic))
	if err != nil {
		return nil, err
	}

	asked := make(map[string]bool, len(texts))
	for _, t := range texts {
		asked[model.NormalizeTopic(t)] = true
	}

	unseen := make([]GeneratedQuestion, 0, len(candidates))
	for _, q := range candidates {
		if !asked[model.NormalizeTopic(q.Question)] {
			unseen = append(unseen, q)
		}
	}
	return unseen, nil
}

func buildGenerationPrompt(topic string, difficulty model.Difficulty, total, mcqCount, descCount int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Generate %d unique, high-quality test questions for the topic: %q at %s difficulty level.\n\n", total, topic, difficulty)
	b.WriteString("IMPORTANT RULES:\n")
	b.WriteString("1. All questions must be UNIQUE - no repetition or similar questions\n")
	fmt.Fprintf(&b, "2. Questions must be appropriate for %s level: %s\n", difficulty, difficultyGuidance[difficulty])
	b.WriteString("3. NO overly simple or trivial questions\n")
	b.WriteString("4. Ensure variety in question types and subtopics\n\n")
	fmt.Fprintf(&b, "Question Distribution:\n- MCQ (Multiple Choice): %d questions\n- Descriptive (Short Answer): %d questions\n\n", mcqCount, descCount)
	b.WriteString("For MCQ questions:\n")
	b.WriteString("- Provide 4 distinct options\n")
	b.WriteString("- Options should be plausible, not obviously wrong\n")
	b.WriteString("- Only ONE correct answer, and it must match one option exactly\n\n")
	b.WriteString("For Descriptive questions:\n")
	b.WriteString("- Clear, specific questions that require 2-3 sentence answers\n")
	b.WriteString("- Include expected key points in the correct_answer field\n\n")
	b.WriteString("Return ONLY a JSON array in this EXACT format (no markdown, no code blocks):\n")
	b.WriteString(`[
  {"question": "Question text here?", "type": "MCQ", "options": ["Option A", "Option B", "Option C", "Option D"], "correct_answer": "Option A"},
  {"question": "Descriptive question here?", "type": "Descriptive", "options": null, "correct_answer": "Expected answer with key points"}
]`)
	fmt.Fprintf(&b, "\n\nTopic: %s\nDifficulty: %s\nTotal Questions: %d\n", topic, difficulty, total)
	return b.String()
}

type rawQuestion struct {
	Question      string   `json:"question"`
	Type          string   `json:"type"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer"`
}

// parseQuestionBatch decodes the model's JSON array into the strict
// internal shape, rejecting anything that does not conform.
func parseQuestionBatch(raw string) ([]GeneratedQuestion, error) {
	cleaned := StripCodeFence(raw)

	var rows []rawQuestion
	if err := json.Unmarshal([]byte(cleaned), &rows); err != nil {
		return nil, fmt.Errorf("decoding question array: %w", err)
	}

	questions := make([]GeneratedQuestion, 0, len(rows))
	for i, row := range rows {
		text := strings.TrimSpace(row.Question)
		if text == "" {
			return nil, fmt.Errorf("question %d: empty question text", i+1)
		}
		if strings.TrimSpace(row.CorrectAnswer) == "" {
			return nil, fmt.Errorf("question %d: empty correct_answer", i+1)
		}

		q := GeneratedQuestion{
			Question:      text,
			CorrectAnswer: row.CorrectAnswer,
		}

		switch strings.ToLower(strings.TrimSpace(row.Type)) {
		case "mcq", "multiple_choice", "multiplechoice":
			q.Type = model.QuestionMCQ
			if len(row.Options) < 2 {
				return nil, fmt.Errorf("question %d: MCQ needs at least 2 options, got %d", i+1, len(row.Options))
			}
			found := false
			for _, opt := range row.Options {
				if opt == row.CorrectAnswer {
					found = true
					break
				}
			}
			if !found {
				return nil, fmt.Errorf("question %d: correct_answer not among options", i+1)
			}
			q.Options = row.Options
		case "descriptive", "short_answer":
			q.Type = model.QuestionDescriptive
			q.Options = nil
		default:
			return nil, fmt.Errorf("question %d: unknown type %q", i+1, row.Type)
		}

		questions = append(questions, q)
	}

	return questions, nil
}
