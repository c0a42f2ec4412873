package service

import (
	"math"

	"gapmentor_backend/internal/model"
	"gapmentor_backend/internal/repository"
)

// TestStats is the read-only slice of the test repository the dashboard
// needs.
type TestStats interface {
	CountCompleted(userID uint) (int64, error)
	AverageScore(userID uint) (float64, error)
	CountDistinctTopics(userID uint) (int64, error)
	ListCompletedByUser(userID uint, limit int) ([]model.Test, error)
	TopicPerformance(userID uint) ([]repository.TopicPerformance, error)
}

// UnreadCounter reports how many notifications a user has not read yet.
type UnreadCounter interface {
	CountUnread(userID uint) (int64, error)
}

// ProgressService aggregates a user's learning statistics for the
// dashboard.
type ProgressService struct {
	tests         TestStats
	gaps          GapStore
	notifications UnreadCounter
}

func NewProgressService(tests TestStats, gaps GapStore, notifications UnreadCounter) *ProgressService {
	return &ProgressService{tests: tests, gaps: gaps, notifications: notifications}
}

type ProgressOverview struct {
	TestsCompleted      int64        `json:"testsCompleted"`
	AverageScore        float64      `json:"averageScore"`
	TopicsCovered       int64        `json:"topicsCovered"`
	UnresolvedGaps      int64        `json:"unresolvedGaps"`
	UnreadNotifications int64        `json:"unreadNotifications"`
	RecentTests         []model.Test `json:"recentTests"`
}

func (s *ProgressService) Overview(userID uint) (*ProgressOverview, error) {
	completed, err := s.tests.CountCompleted(userID)
	if err != nil {
		return nil, err
	}
	avg, err := s.tests.AverageScore(userID)
	if err != nil {
		return nil, err
	}
	topics, err := s.tests.CountDistinctTopics(userID)
	if err != nil {
		return nil, err
	}
	unresolved, err := s.gaps.CountUnresolved(userID)
	if err != nil {
		return nil, err
	}
	unread, err := s.notifications.CountUnread(userID)
	if err != nil {
		return nil, err
	}
	recent, err := s.tests.ListCompletedByUser(userID, 5)
	if err != nil {
		return nil, err
	}

	return &ProgressOverview{
		TestsCompleted:      completed,
		AverageScore:        math.Round(avg*10) / 10,
		TopicsCovered:       topics,
		UnresolvedGaps:      unresolved,
		UnreadNotifications: unread,
		RecentTests:         recent,
	}, nil
}

func (s *ProgressService) TopicPerformance(userID uint) ([]repository.TopicPerformance, error) {
	rows, err := s.tests.TopicPerformance(userID)
	if err != nil {
		return nil, err
	}
	for i := range rows {
		rows[i].AverageScore = math.Round(rows[i].AverageScore*10) / 10
	}
	return rows, nil
}
