package repository

import (
	"gapmentor_backend/internal/model"

	"gorm.io/gorm"
)

type GapRepository struct {
	DB *gorm.DB
}

func NewGapRepository(db *gorm.DB) *GapRepository {
	return &GapRepository{DB: db}
}

func (r *GapRepository) CreateBatch(gaps []model.Gap) error {
	if len(gaps) == 0 {
		return nil
	}
	return r.DB.Create(&gaps).Error
}

// ListByUser returns gaps ordered high to low priority, newest first within
// a priority band.
func (r *GapRepository) ListByUser(userID uint, unresolvedOnly bool, limit int) ([]model.Gap, error) {
	var gaps []model.Gap
	query := r.DB.Where("user_id = ?", userID)
	if unresolvedOnly {
		query = query.Where("resolved = ?", false)
	}
	query = query.Order("FIELD(priority, 'high', 'medium', 'low'), created_at desc")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&gaps).Error
	return gaps, err
}

func (r *GapRepository) FindByID(id uint) (*model.Gap, error) {
	var gap model.Gap
	err := r.DB.First(&gap, id).Error
	return &gap, err
}

func (r *GapRepository) SetResolved(id, userID uint, resolved bool) error {
	result := r.DB.Model(&model.Gap{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("resolved", resolved)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *GapRepository) CountUnresolved(userID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.Gap{}).
		Where("user_id = ? AND resolved = ?", userID, false).
		Count(&count).Error
	return count, err
}

func (r *GapRepository) ListByTest(testID uint) ([]model.Gap, error) {
	var gaps []model.Gap
	err := r.DB.Where("test_id = ?", testID).Find(&gaps).Error
	return gaps, err
}
