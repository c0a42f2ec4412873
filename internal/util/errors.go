package util

import (
	"errors"
	"fmt"
)

var (
	ErrUserNotFound           = errors.New("user not found")
	ErrUsernameTaken          = errors.New("username already exists")
	ErrEmailRegistered        = errors.New("email already registered")
	ErrInvalidCredentials     = errors.New("invalid username or password")
	ErrInvalidTopic           = errors.New("topic must not be empty")
	ErrInvalidDifficulty      = errors.New("difficulty must be easy, medium or hard")
	ErrInvalidQuestionCount   = errors.New("question count must be positive")
	ErrTestNotFound           = errors.New("test not found")
	ErrTestAlreadyCompleted   = errors.New("test already completed")
	ErrSessionNotFound        = errors.New("test session not found or expired")
	ErrQuestionNotInTest      = errors.New("question does not belong to this test")
	ErrQuestionSpaceExhausted = errors.New("no unseen questions left for this topic, try another topic or difficulty")
	ErrNoGapsForPlan          = errors.New("no unresolved gaps to build a plan from")
	ErrPlanNotFound           = errors.New("study plan not found")
)

// GenerationReason classifies why a remote generation call failed.
type GenerationReason string

const (
	ReasonParseFailed        GenerationReason = "parse_failed"
	ReasonCountMismatch      GenerationReason = "count_mismatch"
	ReasonUpstreamFailure    GenerationReason = "upstream_failure"
	ReasonDuplicateQuestions GenerationReason = "duplicate_questions"
)

// GenerationError is returned by the generator, evaluator and gap extractor
// when the remote model call fails or yields unusable output. It is never
// retried by the component itself; retry policy belongs to the caller.
type GenerationError struct {
	Reason GenerationReason
	Err    error
}

func (e *GenerationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("generation failed (%s): %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("generation failed (%s)", e.Reason)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

func NewGenerationError(reason GenerationReason, err error) *GenerationError {
	return &GenerationError{Reason: reason, Err: err}
}

// AsGenerationError reports whether err is (or wraps) a GenerationError.
func AsGenerationError(err error) (*GenerationError, bool) {
	var ge *GenerationError
	if errors.As(err, &ge) {
		return ge, true
	}
	return nil, false
}
