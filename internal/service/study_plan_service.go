package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"gapmentor_backend/internal/model"
	"gapmentor_backend/internal/repository"
	"gapmentor_backend/internal/util"
	"gapmentor_backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const defaultPlanDays = 7

// StudyPlanService builds day-by-day study plans from a user's unresolved
// gaps and tracks task completion.
type StudyPlanService struct {
	ai            TextGenerator
	gaps          GapStore
	plans         *repository.StudyPlanRepository
	notifications *repository.NotificationRepository
}

func NewStudyPlanService(ai TextGenerator, gaps GapStore, plans *repository.StudyPlanRepository, notifications *repository.NotificationRepository) *StudyPlanService {
	return &StudyPlanService{ai: ai, gaps: gaps, plans: plans, notifications: notifications}
}

// GeneratePlan creates a new active plan from the user's unresolved gaps,
// abandoning any previously active plan. Without unresolved gaps there is
// nothing to plan from.
func (s *StudyPlanService) GeneratePlan(ctx context.Context, userID uint, targetDays int) (*model.StudyPlan, error) {
	if targetDays <= 0 {
		targetDays = defaultPlanDays
	}

	gaps, err := s.gaps.ListByUser(userID, true, 0)
	if err != nil {
		return nil, err
	}
	if len(gaps) == 0 {
		return nil, util.ErrNoGapsForPlan
	}

	name, description, tasks := s.planWithModel(ctx, gaps, targetDays)
	if len(tasks) == 0 {
		name, description, tasks = fallbackPlan(gaps, targetDays)
	}

	now := time.Now()
	plan := &model.StudyPlan{
		UserID:      userID,
		Name:        name,
		Description: description,
		TargetDate:  now.AddDate(0, 0, targetDays),
		Status:      model.PlanActive,
	}
	for i := range tasks {
		if tasks[i].Day < 1 {
			tasks[i].Day = 1
		}
		if tasks[i].Day > targetDays {
			tasks[i].Day = targetDays
		}
		tasks[i].DueDate = now.AddDate(0, 0, tasks[i].Day)
	}

	if err := s.plans.CreateWithTasks(plan, tasks); err != nil {
		return nil, err
	}
	plan.Tasks = tasks

	notification := &model.Notification{
		UserID: userID,
		Kind:   "study_plan",
		Title:  fmt.Sprintf("New study plan: %s", plan.Name),
		Body:   fmt.Sprintf("%d tasks over %d days, built from %d learning gaps.", len(tasks), targetDays, len(gaps)),
		Link:   "/study-plans/active",
	}
	if err := s.notifications.Create(notification); err != nil {
		logger.Log.Warn("failed to write plan notification", zap.Uint("planId", plan.ID), zap.Error(err))
	}

	logger.Log.Info("study plan generated",
		zap.Uint("planId", plan.ID),
		zap.Uint("userId", userID),
		zap.Int("tasks", len(tasks)),
		zap.Int("days", targetDays))

	return plan, nil
}

func (s *StudyPlanService) planWithModel(ctx context.Context, gaps []model.Gap, targetDays int) (string, string, []model.PlanTask) {
	var b strings.Builder
	fmt.Fprintf(&b, "Create a %d-day study plan for a student with these learning gaps:\n\n", targetDays)
	for _, g := range gaps {
		fmt.Fprintf(&b, "- %s / %s (priority: %s): %s\n", g.Topic, g.Subtopic, g.Priority, g.Description)
	}
	b.WriteString("\nRules:\n")
	b.WriteString("1. Address high-priority gaps first\n")
	fmt.Fprintf(&b, "2. Spread tasks over days 1 to %d, 1-3 tasks per day\n", targetDays)
	b.WriteString("3. Each task is concrete and completable in one sitting\n")
	b.WriteString("4. Include at least one review/practice task per topic\n\n")
	b.WriteString("Return ONLY a JSON object (no markdown, no code blocks):\n")
	b.WriteString(`{"plan_name": "Short plan name", "description": "One-sentence plan summary", "tasks": [{"name": "Task name", "description": "What to do", "topic": "Topic", "priority": "high", "day": 1, "estimated_minutes": 30, "resources": "Suggested resources"}]}`)
	b.WriteString("\n")

	raw, err := s.ai.Chat(ctx, "", b.String())
	if err != nil {
		logger.Log.Warn("plan generation falling back to gap-per-day plan", zap.Error(err))
		return "", "", nil
	}

	var parsed struct {
		PlanName    string `json:"plan_name"`
		Description string `json:"description"`
		Tasks       []struct {
			Name             string `json:"name"`
			Description      string `json:"description"`
			Topic            string `json:"topic"`
			Priority         string `json:"priority"`
			Day              int    `json:"day"`
			EstimatedMinutes int    `json:"estimated_minutes"`
			Resources        string `json:"resources"`
		} `json:"tasks"`
	}
	if err := json.Unmarshal([]byte(StripCodeFence(raw)), &parsed); err != nil {
		logger.Log.Warn("unparseable plan response, falling back", zap.Error(err))
		return "", "", nil
	}

	tasks := make([]model.PlanTask, 0, len(parsed.Tasks))
	for _, t := range parsed.Tasks {
		if strings.TrimSpace(t.Name) == "" {
			continue
		}
		minutes := t.EstimatedMinutes
		if minutes <= 0 {
			minutes = 30
		}
		tasks = append(tasks, model.PlanTask{
			Name:             strings.TrimSpace(t.Name),
			Description:      t.Description,
			Topic:            t.Topic,
			Priority:         model.CoercePriority(t.Priority),
			Day:              t.Day,
			EstimatedMinutes: minutes,
			Resources:        t.Resources,
		})
	}

	name := strings.TrimSpace(parsed.PlanName)
	if name == "" {
		name = fmt.Sprintf("%d-day study plan", targetDays)
	}
	return name, parsed.Description, tasks
}

// fallbackPlan deals one review task per gap across the available days,
// high priority first.
func fallbackPlan(gaps []model.Gap, targetDays int) (string, string, []model.PlanTask) {
	ordered := make([]model.Gap, 0, len(gaps))
	for _, p := range []model.GapPriority{model.GapPriorityHigh, model.GapPriorityMedium, model.GapPriorityLow} {
		for _, g := range gaps {
			if g.Priority == p {
				ordered = append(ordered, g)
			}
		}
	}

	tasks := make([]model.PlanTask, 0, len(ordered))
	for i, g := range ordered {
		tasks = append(tasks, model.PlanTask{
			Name:             fmt.Sprintf("Review %s", g.Subtopic),
			Description:      g.Description,
			Topic:            g.Topic,
			Priority:         g.Priority,
			Day:              i%targetDays + 1,
			EstimatedMinutes: 30,
		})
	}
	return fmt.Sprintf("%d-day study plan", targetDays),
		fmt.Sprintf("Review plan covering %d learning gaps.", len(ordered)),
		tasks
}

// ActivePlan returns the user's active plan with its tasks, or nil when
// there is none.
func (s *StudyPlanService) ActivePlan(userID uint) (*model.StudyPlan, error) {
	plan, err := s.plans.FindActiveByUser(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return plan, nil
}

func (s *StudyPlanService) History(userID uint) ([]model.StudyPlan, error) {
	return s.plans.ListByUser(userID)
}

// CompleteTask marks one task done and recomputes the parent plan's
// progress; completing the last task completes the plan.
func (s *StudyPlanService) CompleteTask(taskID, userID uint) (*model.StudyPlan, error) {
	task, err := s.plans.FindTaskForUser(taskID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrPlanNotFound
		}
		return nil, err
	}

	if !task.Completed {
		if err := s.plans.CompleteTask(taskID); err != nil {
			return nil, err
		}
	}

	plan, err := s.plans.FindActiveByUser(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// task belongs to a non-active plan, nothing to roll up
			return nil, nil
		}
		return nil, err
	}
	if plan.ID != task.PlanID {
		return plan, nil
	}

	done := 0
	for i := range plan.Tasks {
		if plan.Tasks[i].ID == taskID {
			now := time.Now()
			plan.Tasks[i].Completed = true
			plan.Tasks[i].CompletedAt = &now
		}
		if plan.Tasks[i].Completed {
			done++
		}
	}

	if len(plan.Tasks) > 0 && done == len(plan.Tasks) {
		if err := s.plans.MarkCompleted(plan.ID); err != nil {
			return nil, err
		}
		plan.Status = model.PlanCompleted
		plan.Progress = 100
		return plan, nil
	}

	progress := 0
	if len(plan.Tasks) > 0 {
		progress = done * 100 / len(plan.Tasks)
	}
	if err := s.plans.UpdateProgress(plan.ID, progress); err != nil {
		return nil, err
	}
	plan.Progress = progress
	return plan, nil
}
