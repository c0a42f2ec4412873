package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gapmentor_backend/internal/util"

	"github.com/go-redis/redis/v8"
)

type SessionStatus string

const (
	SessionSetup      SessionStatus = "setup"
	SessionGenerating SessionStatus = "generating"
	SessionInProgress SessionStatus = "in_progress"
	SessionCompleted  SessionStatus = "completed"
)

// TestSession is the live state of one test being taken: the cursor into
// the question list, the recorded answers and the clock. It is a pure
// value; persistence is the SessionStore's job.
type TestSession struct {
	TestID       uint            `json:"testId"`
	UserID       uint            `json:"userId"`
	Status       SessionStatus   `json:"status"`
	QuestionIDs  []uint          `json:"questionIds"`
	CurrentIndex int             `json:"currentIndex"`
	Answers      map[uint]string `json:"answers"` // question id -> recorded answer, last write wins
	StartedAt    time.Time       `json:"startedAt"`
	TimeLimit    int             `json:"timeLimit"` // seconds, 0 = untimed
}

func NewTestSession(testID, userID uint, questionIDs []uint, timeLimit int, startedAt time.Time) *TestSession {
	return &TestSession{
		TestID:       testID,
		UserID:       userID,
		Status:       SessionInProgress,
		QuestionIDs:  questionIDs,
		CurrentIndex: 0,
		Answers:      make(map[uint]string),
		StartedAt:    startedAt,
		TimeLimit:    timeLimit,
	}
}

// Expired reports whether a configured wall-clock limit has been reached.
func (s *TestSession) Expired(now time.Time) bool {
	if s.TimeLimit <= 0 {
		return false
	}
	return now.Sub(s.StartedAt) >= time.Duration(s.TimeLimit)*time.Second
}

// RemainingSeconds is 0 for expired or untimed-and-done sessions; -1 means
// untimed.
func (s *TestSession) RemainingSeconds(now time.Time) int {
	if s.TimeLimit <= 0 {
		return -1
	}
	remaining := s.TimeLimit - int(now.Sub(s.StartedAt).Seconds())
	if remaining < 0 {
		return 0
	}
	return remaining
}

// CurrentQuestionID returns the id under the cursor.
func (s *TestSession) CurrentQuestionID() uint {
	if s.CurrentIndex < 0 || s.CurrentIndex >= len(s.QuestionIDs) {
		return 0
	}
	return s.QuestionIDs[s.CurrentIndex]
}

// AtLastQuestion reports whether the cursor sits on the final question;
// finalize is only offered there.
func (s *TestSession) AtLastQuestion() bool {
	return s.CurrentIndex == len(s.QuestionIDs)-1
}

// Record stores an answer for a question of this session. Unknown question
// ids are rejected.
func (s *TestSession) Record(questionID uint, answer string) error {
	if s.Status != SessionInProgress {
		return fmt.Errorf("session is %s, not in progress", s.Status)
	}
	for _, id := range s.QuestionIDs {
		if id == questionID {
			s.Answers[questionID] = answer
			return nil
		}
	}
	return fmt.Errorf("question %d, test %d: %w", questionID, s.TestID, util.ErrQuestionNotInTest)
}

// Previous moves the cursor back one question, blocked at index 0.
func (s *TestSession) Previous() {
	if s.CurrentIndex > 0 {
		s.CurrentIndex--
	}
}

// Advance moves the cursor forward one question without requiring an
// answer, blocked at the last index.
func (s *TestSession) Advance() {
	if s.CurrentIndex < len(s.QuestionIDs)-1 {
		s.CurrentIndex++
	}
}

// Complete transitions the session to completed. Idempotent.
func (s *TestSession) Complete() {
	s.Status = SessionCompleted
}

// SessionStore keeps live sessions in redis, keyed by test id. A session
// outlives its time limit by a grace hour so a forced completion can still
// read the recorded answers.
type SessionStore struct {
	rdb *redis.Client
}

func NewSessionStore(rdb *redis.Client) *SessionStore {
	return &SessionStore{rdb: rdb}
}

func sessionKey(testID uint) string {
	return fmt.Sprintf("test_session:%d", testID)
}

func (st *SessionStore) ttl(session *TestSession) time.Duration {
	if session.TimeLimit > 0 {
		return time.Duration(session.TimeLimit)*time.Second + time.Hour
	}
	return 24 * time.Hour
}

func (st *SessionStore) Save(ctx context.Context, session *TestSession) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return st.rdb.Set(ctx, sessionKey(session.TestID), data, st.ttl(session)).Err()
}

func (st *SessionStore) Get(ctx context.Context, testID uint) (*TestSession, error) {
	data, err := st.rdb.Get(ctx, sessionKey(testID)).Bytes()
	if err != nil {
		return nil, err
	}
	var session TestSession
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, err
	}
	if session.Answers == nil {
		session.Answers = make(map[uint]string)
	}
	return &session, nil
}

func (st *SessionStore) Delete(ctx context.Context, testID uint) error {
	return st.rdb.Del(ctx, sessionKey(testID)).Err()
}
