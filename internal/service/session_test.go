package service

import (
	"testing"
	"time"

	"gapmentor_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSession(timeLimit int) *TestSession {
	return NewTestSession(7, 1, []uint{10, 11, 12}, timeLimit, time.Now())
}

func TestSession_RecordAndOverwrite(t *testing.T) {
	s := newSession(0)

	require.NoError(t, s.Record(11, "first"))
	require.NoError(t, s.Record(11, "second"))
	assert.Equal(t, "second", s.Answers[11])
	assert.Len(t, s.Answers, 1)
}

func TestSession_RecordRejectsForeignQuestion(t *testing.T) {
	s := newSession(0)

	err := s.Record(99, "answer")
	assert.ErrorIs(t, err, util.ErrQuestionNotInTest)
}

func TestSession_RecordRequiresInProgress(t *testing.T) {
	s := newSession(0)
	s.Complete()

	err := s.Record(10, "answer")
	assert.Error(t, err)
}

func TestSession_NavigationBounds(t *testing.T) {
	s := newSession(0)

	s.Previous()
	assert.Equal(t, 0, s.CurrentIndex, "previous is blocked at the first question")

	s.Advance()
	s.Advance()
	assert.Equal(t, 2, s.CurrentIndex)
	assert.True(t, s.AtLastQuestion())

	s.Advance()
	assert.Equal(t, 2, s.CurrentIndex, "advance is blocked at the last question")

	s.Previous()
	assert.Equal(t, 1, s.CurrentIndex)
}

func TestSession_AdvanceWithoutAnswer(t *testing.T) {
	s := newSession(0)

	s.Advance()
	assert.Equal(t, uint(11), s.CurrentQuestionID())
	assert.Empty(t, s.Answers)
}

func TestSession_Expiry(t *testing.T) {
	s := newSession(600)
	now := s.StartedAt

	assert.False(t, s.Expired(now.Add(599*time.Second)))
	assert.True(t, s.Expired(now.Add(600*time.Second)))

	assert.Equal(t, 300, s.RemainingSeconds(now.Add(300*time.Second)))
	assert.Equal(t, 0, s.RemainingSeconds(now.Add(2*time.Hour)))

	untimed := newSession(0)
	assert.False(t, untimed.Expired(now.Add(100*time.Hour)))
	assert.Equal(t, -1, untimed.RemainingSeconds(now))
}
