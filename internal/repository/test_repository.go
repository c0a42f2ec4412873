package repository

import (
	"time"

	"gapmentor_backend/internal/model"

	"gorm.io/gorm"
)

type TestRepository struct {
	DB *gorm.DB
}

func NewTestRepository(db *gorm.DB) *TestRepository {
	return &TestRepository{DB: db}
}

// CreateWithQuestions writes the test header and its question batch in one
// transaction so a mid-batch failure never leaves a header without questions.
func (r *TestRepository) CreateWithQuestions(test *model.Test, questions []model.Question) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(test).Error; err != nil {
			return err
		}
		for i := range questions {
			questions[i].TestID = test.ID
		}
		if err := tx.Create(&questions).Error; err != nil {
			return err
		}
		return nil
	})
}

func (r *TestRepository) FindByID(id uint) (*model.Test, error) {
	var test model.Test
	err := r.DB.First(&test, id).Error
	return &test, err
}

func (r *TestRepository) FindWithQuestions(id uint) (*model.Test, error) {
	var test model.Test
	err := r.DB.Preload("Questions", func(db *gorm.DB) *gorm.DB {
		return db.Order("number asc")
	}).First(&test, id).Error
	return &test, err
}

// ListByUser returns a user's tests, newest first. Headers without
// questions (possible only for rows predating the transactional write)
// are excluded from all listings.
func (r *TestRepository) ListByUser(userID uint, limit int) ([]model.Test, error) {
	var tests []model.Test
	query := r.DB.Where("user_id = ? AND total_questions > 0", userID).
		Order("created_at desc")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&tests).Error
	return tests, err
}

func (r *TestRepository) ListCompletedByUser(userID uint, limit int) ([]model.Test, error) {
	var tests []model.Test
	query := r.DB.Where("user_id = ? AND completed = ? AND total_questions > 0", userID, true).
		Order("completed_at desc")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&tests).Error
	return tests, err
}

// UpdateQuestionResult records the user's answer and its scoring for one
// question. Last write wins.
func (r *TestRepository) UpdateQuestionResult(questionID uint, userAnswer string, isCorrect bool, score float64, feedback string) error {
	return r.DB.Model(&model.Question{}).
		Where("id = ?", questionID).
		Updates(map[string]interface{}{
			"user_answer": userAnswer,
			"is_correct":  isCorrect,
			"score":       score,
			"feedback":    feedback,
		}).Error
}

// Complete marks a test finished with its aggregate score. Mutated exactly
// once per test; callers must check Completed first.
func (r *TestRepository) Complete(testID uint, score float64, timeTaken int) error {
	now := time.Now()
	return r.DB.Model(&model.Test{}).
		Where("id = ?", testID).
		Updates(map[string]interface{}{
			"completed":    true,
			"score":        score,
			"time_taken":   timeTaken,
			"completed_at": now,
		}).Error
}

// ListTopicQuestionTexts returns every question text the user has ever been
// asked on the given normalized topic. Used by the deduplicator.
func (r *TestRepository) ListTopicQuestionTexts(userID uint, topicNormalized string) ([]string, error) {
	var texts []string
	err := r.DB.Model(&model.Question{}).
		Joins("JOIN tests ON tests.id = questions.test_id").
		Where("tests.user_id = ? AND tests.topic_normalized = ? AND tests.deleted_at IS NULL", userID, topicNormalized).
		Pluck("questions.text", &texts).Error
	return texts, err
}

// Stats aggregation over completed tests.

func (r *TestRepository) CountCompleted(userID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.Test{}).
		Where("user_id = ? AND completed = ? AND total_questions > 0", userID, true).
		Count(&count).Error
	return count, err
}

func (r *TestRepository) AverageScore(userID uint) (float64, error) {
	var avg *float64
	err := r.DB.Model(&model.Test{}).
		Where("user_id = ? AND completed = ? AND total_questions > 0", userID, true).
		Select("AVG(score)").
		Scan(&avg).Error
	if err != nil || avg == nil {
		return 0, err
	}
	return *avg, nil
}

func (r *TestRepository) CountDistinctTopics(userID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.Test{}).
		Where("user_id = ? AND total_questions > 0", userID).
		Distinct("topic_normalized").
		Count(&count).Error
	return count, err
}

type TopicPerformance struct {
	Topic        string  `json:"topic"`
	AverageScore float64 `json:"averageScore"`
	TestCount    int64   `json:"testCount"`
}

func (r *TestRepository) TopicPerformance(userID uint) ([]TopicPerformance, error) {
	var rows []TopicPerformance
	err := r.DB.Model(&model.Test{}).
		Select("topic, AVG(score) as average_score, COUNT(*) as test_count").
		Where("user_id = ? AND completed = ? AND total_questions > 0", userID, true).
		Group("topic").
		Order("average_score desc").
		Scan(&rows).Error
	return rows, err
}
