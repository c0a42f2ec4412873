package model

// Notification rows are written when a test completes or a study plan is
// created; the reading surface lives outside this service.
// swagger:model Notification
type Notification struct {
	BaseModel
	UserID uint   `gorm:"index;not null" json:"userId"`
	Kind   string `gorm:"size:50;not null" json:"kind"` // test, study_plan
	Title  string `gorm:"size:255;not null" json:"title"`
	Body   string `gorm:"type:text" json:"body"`
	Link   string `gorm:"size:255" json:"link"`
	Read   bool   `gorm:"default:false;index" json:"read"`
}

func (Notification) TableName() string {
	return "notifications"
}
