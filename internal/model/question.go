package model

import "encoding/json"

type QuestionType string

const (
	QuestionMCQ         QuestionType = "mcq"
	QuestionDescriptive QuestionType = "descriptive"
)

// Question belongs to exactly one test. Options is a JSON string array for
// MCQ questions and null for descriptive ones; CorrectAnswer holds the
// correct option for MCQ and the reference answer for descriptive.
// swagger:model Question
type Question struct {
	BaseModel
	TestID        uint            `gorm:"index;not null" json:"testId"`
	Number        int             `gorm:"not null" json:"number"` // 1-based ordinal within the test
	Text          string          `gorm:"type:text;not null" json:"text"`
	Type          QuestionType    `gorm:"type:enum('mcq','descriptive');default:'mcq'" json:"type"`
	Options       json.RawMessage `gorm:"type:json" json:"options,omitempty"`
	CorrectAnswer string          `gorm:"type:text;not null" json:"-"`
	UserAnswer    string          `gorm:"type:text" json:"userAnswer"`
	IsCorrect     *bool           `json:"isCorrect,omitempty"`
	Score         *float64        `json:"score,omitempty"`
	Feedback      string          `gorm:"type:text" json:"feedback,omitempty"`
}

func (Question) TableName() string {
	return "questions"
}

// OptionList decodes the stored options column. Returns nil for
// descriptive questions.
func (q *Question) OptionList() []string {
	if len(q.Options) == 0 {
		return nil
	}
	var opts []string
	if err := json.Unmarshal(q.Options, &opts); err != nil {
		return nil
	}
	return opts
}
