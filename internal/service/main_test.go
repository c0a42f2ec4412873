package service

import (
	"context"
	"errors"
	"os"
	"testing"

	"gapmentor_backend/pkg/logger"

	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	logger.Log = zap.NewNop()
	os.Exit(m.Run())
}

// fakeAI returns canned responses in order, cycling on the last one.
type fakeAI struct {
	responses []string
	err       error
	prompts   []string
	systems   []string
}

func (f *fakeAI) Chat(ctx context.Context, system, prompt string) (string, error) {
	f.systems = append(f.systems, system)
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	if len(f.responses) == 0 {
		return "", errors.New("no canned response configured")
	}
	idx := len(f.prompts) - 1
	if idx >= len(f.responses) {
		idx = len(f.responses) - 1
	}
	return f.responses[idx], nil
}

type fakeHistory struct {
	texts []string
	err   error
}

func (f *fakeHistory) ListTopicQuestionTexts(userID uint, topicNormalized string) ([]string, error) {
	return f.texts, f.err
}
