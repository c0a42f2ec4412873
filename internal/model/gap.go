package model

type GapPriority string

const (
	GapPriorityHigh   GapPriority = "high"
	GapPriorityMedium GapPriority = "medium"
	GapPriorityLow    GapPriority = "low"
)

// CoercePriority maps arbitrary model output onto the three allowed
// priorities, defaulting to medium.
func CoercePriority(s string) GapPriority {
	switch GapPriority(NormalizeTopic(s)) {
	case GapPriorityHigh:
		return GapPriorityHigh
	case GapPriorityLow:
		return GapPriorityLow
	default:
		return GapPriorityMedium
	}
}

// Gap is a system-identified weak subtopic for a user, derived from
// incorrect test answers.
// swagger:model Gap
type Gap struct {
	BaseModel
	UserID          uint        `gorm:"index;not null" json:"userId"`
	Topic           string      `gorm:"size:255;not null" json:"topic"`
	TopicNormalized string      `gorm:"size:255;index;not null" json:"-"`
	Subtopic        string      `gorm:"size:255" json:"subtopic"`
	Priority        GapPriority `gorm:"type:enum('high','medium','low');default:'medium'" json:"priority"`
	Description     string      `gorm:"type:text" json:"description"`
	TestID          uint        `gorm:"index" json:"testId"` // originating test
	Resolved        bool        `gorm:"default:false;index" json:"resolved"`
}

func (Gap) TableName() string {
	return "gaps"
}
