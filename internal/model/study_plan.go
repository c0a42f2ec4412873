package model

import "time"

type PlanStatus string

const (
	PlanActive    PlanStatus = "active"
	PlanCompleted PlanStatus = "completed"
	PlanAbandoned PlanStatus = "abandoned"
)

// StudyPlan is generated from a user's unresolved gaps.
// swagger:model StudyPlan
type StudyPlan struct {
	BaseModel
	UserID      uint       `gorm:"index;not null" json:"userId"`
	Name        string     `gorm:"size:255;not null" json:"name"`
	Description string     `gorm:"type:text" json:"description"`
	TargetDate  time.Time  `json:"targetDate"`
	Status      PlanStatus `gorm:"type:enum('active','completed','abandoned');default:'active'" json:"status"`
	Progress    int        `gorm:"default:0" json:"progress"` // percent of tasks completed
	Tasks       []PlanTask `gorm:"foreignKey:PlanID" json:"tasks,omitempty"`
}

func (StudyPlan) TableName() string {
	return "study_plans"
}

// swagger:model PlanTask
type PlanTask struct {
	BaseModel
	PlanID           uint        `gorm:"index;not null" json:"planId"`
	Name             string      `gorm:"size:255;not null" json:"name"`
	Description      string      `gorm:"type:text" json:"description"`
	Topic            string      `gorm:"size:255" json:"topic"`
	Priority         GapPriority `gorm:"type:enum('high','medium','low');default:'medium'" json:"priority"`
	Day              int         `gorm:"default:1" json:"day"`
	EstimatedMinutes int         `gorm:"default:30" json:"estimatedMinutes"`
	Resources        string      `gorm:"type:text" json:"resources"`
	DueDate          time.Time   `json:"dueDate"`
	Completed        bool        `gorm:"default:false" json:"completed"`
	CompletedAt      *time.Time  `json:"completedAt,omitempty"`
}

func (PlanTask) TableName() string {
	return "plan_tasks"
}
