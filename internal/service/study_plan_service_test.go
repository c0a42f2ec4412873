package service

import (
	"context"
	"errors"
	"testing"

	"gapmentor_backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func planGaps() []model.Gap {
	return []model.Gap{
		{UserID: 1, Topic: "Go", Subtopic: "Interfaces", Priority: model.GapPriorityLow},
		{UserID: 1, Topic: "Go", Subtopic: "Channels", Priority: model.GapPriorityHigh},
		{UserID: 1, Topic: "SQL", Subtopic: "Joins", Priority: model.GapPriorityMedium},
	}
}

func TestPlanWithModel_ParsesTasks(t *testing.T) {
	ai := &fakeAI{responses: []string{`{
		"plan_name": "Go and SQL catch-up",
		"description": "One week of focused review",
		"tasks": [
			{"name": "Channel drills", "description": "Write producer/consumer examples", "topic": "Go", "priority": "high", "day": 1, "estimated_minutes": 45, "resources": "Tour of Go"},
			{"name": "", "description": "dropped, no name", "topic": "Go", "priority": "low", "day": 2},
			{"name": "Join practice", "topic": "SQL", "priority": "medium", "day": 3}
		]
	}`}}
	svc := NewStudyPlanService(ai, &fakeGapStore{}, nil, nil)

	name, desc, tasks := svc.planWithModel(context.Background(), planGaps(), 7)
	assert.Equal(t, "Go and SQL catch-up", name)
	assert.Equal(t, "One week of focused review", desc)
	require.Len(t, tasks, 2, "nameless tasks are dropped")
	assert.Equal(t, 45, tasks[0].EstimatedMinutes)
	assert.Equal(t, 30, tasks[1].EstimatedMinutes, "missing estimate defaults to 30")
	assert.Equal(t, model.GapPriorityHigh, tasks[0].Priority)
}

func TestPlanWithModel_FailuresYieldNoTasks(t *testing.T) {
	svc := NewStudyPlanService(&fakeAI{err: errors.New("down")}, &fakeGapStore{}, nil, nil)
	_, _, tasks := svc.planWithModel(context.Background(), planGaps(), 7)
	assert.Empty(t, tasks)

	svc = NewStudyPlanService(&fakeAI{responses: []string{"not json"}}, &fakeGapStore{}, nil, nil)
	_, _, tasks = svc.planWithModel(context.Background(), planGaps(), 7)
	assert.Empty(t, tasks)
}

func TestFallbackPlan_PriorityOrderAndDays(t *testing.T) {
	name, _, tasks := fallbackPlan(planGaps(), 2)

	assert.Equal(t, "2-day study plan", name)
	require.Len(t, tasks, 3)
	assert.Equal(t, "Review Channels", tasks[0].Name, "high priority first")
	assert.Equal(t, "Review Joins", tasks[1].Name)
	assert.Equal(t, "Review Interfaces", tasks[2].Name)

	assert.Equal(t, 1, tasks[0].Day)
	assert.Equal(t, 2, tasks[1].Day)
	assert.Equal(t, 1, tasks[2].Day, "tasks wrap around the available days")
}
