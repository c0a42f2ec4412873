package service

import (
	"testing"

	"gapmentor_backend/internal/model"
	"gapmentor_backend/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTestStats struct {
	completed int64
	avg       float64
	topics    int64
	recent    []model.Test
	perf      []repository.TopicPerformance
}

func (f *fakeTestStats) CountCompleted(userID uint) (int64, error)     { return f.completed, nil }
func (f *fakeTestStats) AverageScore(userID uint) (float64, error)     { return f.avg, nil }
func (f *fakeTestStats) CountDistinctTopics(userID uint) (int64, error) { return f.topics, nil }
func (f *fakeTestStats) ListCompletedByUser(userID uint, limit int) ([]model.Test, error) {
	return f.recent, nil
}
func (f *fakeTestStats) TopicPerformance(userID uint) ([]repository.TopicPerformance, error) {
	return f.perf, nil
}

type fakeUnreadCounter struct {
	unread int64
}

func (f *fakeUnreadCounter) CountUnread(userID uint) (int64, error) { return f.unread, nil }

func TestProgressOverview(t *testing.T) {
	stats := &fakeTestStats{
		completed: 7,
		avg:       83.333333,
		topics:    4,
		recent:    []model.Test{{Topic: "Go concurrency"}},
	}
	gaps := &fakeGapStore{gaps: []model.Gap{{Subtopic: "Channels"}, {Subtopic: "Select"}}}
	svc := NewProgressService(stats, gaps, &fakeUnreadCounter{unread: 3})

	overview, err := svc.Overview(1)
	require.NoError(t, err)

	assert.Equal(t, int64(7), overview.TestsCompleted)
	assert.Equal(t, 83.3, overview.AverageScore, "average rounds to one decimal")
	assert.Equal(t, int64(4), overview.TopicsCovered)
	assert.Equal(t, int64(2), overview.UnresolvedGaps)
	assert.Equal(t, int64(3), overview.UnreadNotifications)
	assert.Len(t, overview.RecentTests, 1)
}

func TestTopicPerformanceRounding(t *testing.T) {
	stats := &fakeTestStats{perf: []repository.TopicPerformance{
		{Topic: "Algebra", AverageScore: 66.666666},
	}}
	svc := NewProgressService(stats, &fakeGapStore{}, &fakeUnreadCounter{})

	rows, err := svc.TopicPerformance(1)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 66.7, rows[0].AverageScore)
}
