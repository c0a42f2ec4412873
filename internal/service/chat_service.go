package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gapmentor_backend/internal/model"
	"gapmentor_backend/internal/repository"
	"gapmentor_backend/pkg/logger"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	chatContextTTL     = 5 * time.Minute
	chatHistoryWindow  = 10 // turns fed back to the model per request
	maxSuggestions     = 4
	mentorSystemPrompt = "You are a friendly, encouraging AI study mentor. " +
		"Use the student's recent performance below to personalise your answers. " +
		"Explain concepts clearly, give concrete examples and suggest what to practise next. " +
		"Keep answers focused and under 300 words unless asked for more detail."
)

// ChatService is the AI mentor: a personalised chat grounded in the user's
// recent test performance and open gaps.
type ChatService struct {
	ai    *AIService
	chats *repository.ChatRepository
	tests *repository.TestRepository
	gaps  GapStore
	rdb   *redis.Client
}

func NewChatService(ai *AIService, chats *repository.ChatRepository, tests *repository.TestRepository, gaps GapStore, rdb *redis.Client) *ChatService {
	return &ChatService{ai: ai, chats: chats, tests: tests, gaps: gaps, rdb: rdb}
}

// Ask runs one blocking mentor turn: persists the user message, answers
// with performance context and persists the reply.
func (s *ChatService) Ask(ctx context.Context, userID uint, sessionID, question string) (string, string, error) {
	sessionID = s.ensureSession(sessionID)

	history, err := s.historyForModel(userID, sessionID)
	if err != nil {
		return "", "", err
	}

	if err := s.chats.Create(&model.ChatMessage{UserID: userID, SessionID: sessionID, Role: model.RoleUser, Content: question}); err != nil {
		return "", "", err
	}

	system := mentorSystemPrompt + "\n\n" + s.performanceContext(ctx, userID)
	answer, err := s.ai.ChatWithHistory(ctx, system, history, question)
	if err != nil {
		return "", sessionID, err
	}

	if err := s.chats.Create(&model.ChatMessage{UserID: userID, SessionID: sessionID, Role: model.RoleAssistant, Content: answer}); err != nil {
		logger.Log.Warn("failed to persist mentor reply", zap.Uint("userId", userID), zap.Error(err))
	}
	return answer, sessionID, nil
}

// AskStream streams a mentor turn token by token. The full reply is
// persisted once the stream ends; a stream that dies mid-way persists
// whatever was received.
func (s *ChatService) AskStream(ctx context.Context, userID uint, sessionID, question string) (<-chan string, <-chan error, string, error) {
	sessionID = s.ensureSession(sessionID)

	history, err := s.historyForModel(userID, sessionID)
	if err != nil {
		return nil, nil, "", err
	}

	if err := s.chats.Create(&model.ChatMessage{UserID: userID, SessionID: sessionID, Role: model.RoleUser, Content: question}); err != nil {
		return nil, nil, "", err
	}

	system := mentorSystemPrompt + "\n\n" + s.performanceContext(ctx, userID)
	upstream, upstreamErr := s.ai.ChatStream(ctx, system, history, question)

	out := make(chan string)
	errChan := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errChan)

		var full strings.Builder
		for chunk := range upstream {
			full.WriteString(chunk)
			select {
			case out <- chunk:
			case <-ctx.Done():
				// Receiver is gone. Keep draining so the upstream
				// goroutine can finish, then persist what arrived.
				for c := range upstream {
					full.WriteString(c)
				}
			}
		}
		if err, ok := <-upstreamErr; ok && err != nil {
			errChan <- err
		}

		if full.Len() > 0 {
			if err := s.chats.Create(&model.ChatMessage{UserID: userID, SessionID: sessionID, Role: model.RoleAssistant, Content: full.String()}); err != nil {
				logger.Log.Warn("failed to persist streamed mentor reply", zap.Uint("userId", userID), zap.Error(err))
			}
		}
	}()

	return out, errChan, sessionID, nil
}

func (s *ChatService) ensureSession(sessionID string) string {
	if strings.TrimSpace(sessionID) == "" {
		return uuid.NewString()
	}
	return sessionID
}

func (s *ChatService) historyForModel(userID uint, sessionID string) ([]AIChatMessage, error) {
	msgs, err := s.chats.ListBySession(userID, sessionID, chatHistoryWindow)
	if err != nil {
		return nil, err
	}
	history := make([]AIChatMessage, 0, len(msgs))
	for _, m := range msgs {
		history = append(history, AIChatMessage{Role: string(m.Role), Content: m.Content})
	}
	return history, nil
}

func chatContextKey(userID uint) string {
	return fmt.Sprintf("chat_ctx:%d", userID)
}

// performanceContext summarises the user's recent completed tests and open
// gaps for the system prompt. Cached briefly in redis since it is rebuilt
// on every chat turn but changes only when a test completes.
func (s *ChatService) performanceContext(ctx context.Context, userID uint) string {
	if cached, err := s.rdb.Get(ctx, chatContextKey(userID)).Result(); err == nil && cached != "" {
		return cached
	}

	var b strings.Builder
	b.WriteString("Student's recent performance:\n")

	tests, err := s.tests.ListCompletedByUser(userID, 5)
	if err != nil {
		logger.Log.Warn("failed to load tests for chat context", zap.Uint("userId", userID), zap.Error(err))
	}
	if len(tests) == 0 {
		b.WriteString("- No completed tests yet.\n")
	}
	for _, t := range tests {
		score := 0.0
		if t.Score != nil {
			score = *t.Score
		}
		fmt.Fprintf(&b, "- %s (%s): %.1f%%\n", t.Topic, t.Difficulty, score)
	}

	gaps, err := s.gaps.ListByUser(userID, true, 10)
	if err != nil {
		logger.Log.Warn("failed to load gaps for chat context", zap.Uint("userId", userID), zap.Error(err))
	}
	if len(gaps) > 0 {
		b.WriteString("\nOpen learning gaps:\n")
		for _, g := range gaps {
			fmt.Fprintf(&b, "- %s / %s (priority: %s)\n", g.Topic, g.Subtopic, g.Priority)
		}
	}

	summary := b.String()
	if err := s.rdb.Set(ctx, chatContextKey(userID), summary, chatContextTTL).Err(); err != nil {
		logger.Log.Warn("failed to cache chat context", zap.Uint("userId", userID), zap.Error(err))
	}
	return summary
}

// InvalidateContext drops the cached performance summary, called after a
// test completes so the next chat turn sees fresh results.
func (s *ChatService) InvalidateContext(ctx context.Context, userID uint) {
	if err := s.rdb.Del(ctx, chatContextKey(userID)).Err(); err != nil {
		logger.Log.Warn("failed to invalidate chat context", zap.Uint("userId", userID), zap.Error(err))
	}
}

// Suggestions proposes up to four starter questions, most specific first:
// high-priority gaps, then weak tests, then generic prompts.
func (s *ChatService) Suggestions(userID uint) ([]string, error) {
	var suggestions []string

	gaps, err := s.gaps.ListByUser(userID, true, maxSuggestions)
	if err != nil {
		return nil, err
	}
	for _, g := range gaps {
		if g.Priority != model.GapPriorityHigh {
			continue
		}
		suggestions = append(suggestions, fmt.Sprintf("Can you explain %s in %s?", g.Subtopic, g.Topic))
		if len(suggestions) == maxSuggestions {
			return suggestions, nil
		}
	}

	tests, err := s.tests.ListCompletedByUser(userID, maxSuggestions)
	if err != nil {
		return nil, err
	}
	for _, t := range tests {
		if t.Score == nil || *t.Score >= passingScore {
			continue
		}
		suggestions = append(suggestions, fmt.Sprintf("What should I review after my %s test?", t.Topic))
		if len(suggestions) == maxSuggestions {
			return suggestions, nil
		}
	}

	defaults := []string{
		"What topic should I study next?",
		"How can I improve my test scores?",
		"Quiz me on something I'm weak at.",
		"Summarise my learning progress so far.",
	}
	for _, d := range defaults {
		if len(suggestions) == maxSuggestions {
			break
		}
		suggestions = append(suggestions, d)
	}
	return suggestions, nil
}

func (s *ChatService) History(userID uint, sessionID string, limit int) ([]model.ChatMessage, error) {
	return s.chats.ListBySession(userID, sessionID, limit)
}

func (s *ChatService) Sessions(userID uint) ([]repository.ChatSession, error) {
	return s.chats.ListSessions(userID)
}
