package model

import (
	"strings"
	"time"
)

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// NormalizeTopic folds a topic string so equivalent topics match for
// deduplication and gap grouping.
func NormalizeTopic(topic string) string {
	return strings.ToLower(strings.TrimSpace(topic))
}

// Test is one AI-generated quiz taken by a single user. Score is defined
// only once Completed is set.
// swagger:model Test
type Test struct {
	BaseModel
	UserID          uint       `gorm:"index;not null" json:"userId"`
	User            *User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Topic           string     `gorm:"size:255;not null" json:"topic"`
	TopicNormalized string     `gorm:"size:255;index;not null" json:"-"`
	Difficulty      Difficulty `gorm:"type:enum('easy','medium','hard');default:'medium'" json:"difficulty"`
	TotalQuestions  int        `gorm:"default:0" json:"totalQuestions"`
	Score           *float64   `json:"score,omitempty"`
	TimeLimit       int        `gorm:"default:0" json:"timeLimit"` // seconds, 0 = untimed
	TimeTaken       int        `gorm:"default:0" json:"timeTaken"` // seconds
	Completed       bool       `gorm:"default:false;index" json:"completed"`
	CompletedAt     *time.Time `json:"completedAt,omitempty"`
	Questions       []Question `gorm:"foreignKey:TestID" json:"questions,omitempty"`
}

func (Test) TableName() string {
	return "tests"
}
