package repository

import (
	"time"

	"gapmentor_backend/internal/model"

	"gorm.io/gorm"
)

type StudyPlanRepository struct {
	DB *gorm.DB
}

func NewStudyPlanRepository(db *gorm.DB) *StudyPlanRepository {
	return &StudyPlanRepository{DB: db}
}

// CreateWithTasks abandons any currently active plan and writes the new
// plan with its tasks in one transaction.
func (r *StudyPlanRepository) CreateWithTasks(plan *model.StudyPlan, tasks []model.PlanTask) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.StudyPlan{}).
			Where("user_id = ? AND status = ?", plan.UserID, model.PlanActive).
			Update("status", model.PlanAbandoned).Error; err != nil {
			return err
		}
		if err := tx.Create(plan).Error; err != nil {
			return err
		}
		for i := range tasks {
			tasks[i].PlanID = plan.ID
		}
		if len(tasks) == 0 {
			return nil
		}
		return tx.Create(&tasks).Error
	})
}

func (r *StudyPlanRepository) FindActiveByUser(userID uint) (*model.StudyPlan, error) {
	var plan model.StudyPlan
	err := r.DB.Preload("Tasks", func(db *gorm.DB) *gorm.DB {
		return db.Order("due_date asc, FIELD(priority, 'high', 'medium', 'low')")
	}).
		Where("user_id = ? AND status = ?", userID, model.PlanActive).
		Order("created_at desc").
		First(&plan).Error
	return &plan, err
}

func (r *StudyPlanRepository) ListByUser(userID uint) ([]model.StudyPlan, error) {
	var plans []model.StudyPlan
	err := r.DB.Where("user_id = ?", userID).Order("created_at desc").Find(&plans).Error
	return plans, err
}

func (r *StudyPlanRepository) FindTaskForUser(taskID, userID uint) (*model.PlanTask, error) {
	var task model.PlanTask
	err := r.DB.Joins("JOIN study_plans ON study_plans.id = plan_tasks.plan_id").
		Where("plan_tasks.id = ? AND study_plans.user_id = ?", taskID, userID).
		First(&task).Error
	return &task, err
}

func (r *StudyPlanRepository) CompleteTask(taskID uint) error {
	now := time.Now()
	return r.DB.Model(&model.PlanTask{}).
		Where("id = ?", taskID).
		Updates(map[string]interface{}{
			"completed":    true,
			"completed_at": now,
		}).Error
}

func (r *StudyPlanRepository) UpdateProgress(planID uint, progress int) error {
	return r.DB.Model(&model.StudyPlan{}).
		Where("id = ?", planID).
		Update("progress", progress).Error
}

func (r *StudyPlanRepository) MarkCompleted(planID uint) error {
	return r.DB.Model(&model.StudyPlan{}).
		Where("id = ?", planID).
		Updates(map[string]interface{}{
			"status":   model.PlanCompleted,
			"progress": 100,
		}).Error
}
