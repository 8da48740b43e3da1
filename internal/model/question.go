package model

import (
	"unimind_backend/internal/scheduler"

	"gorm.io/datatypes"
)

// swagger:model Question
type Question struct {
	UUIDBase
	TopicID      string                      `gorm:"size:36;index;not null" json:"topicId"`
	Prompt       string                      `gorm:"type:text;not null" json:"prompt"`
	Choices      datatypes.JSONSlice[string] `json:"choices"`
	CorrectIndex int                         `gorm:"not null" json:"-"`
	Difficulty   string                      `gorm:"size:16;default:'medium'" json:"difficulty"`
	Explanation  string                      `gorm:"type:text" json:"explanation,omitempty"`

	// tracker rows go with the question
	Metrics  []QuestionMetric `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Attempts []Attempt        `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

func (Question) TableName() string {
	return "questions"
}

func (q *Question) Level() scheduler.Difficulty {
	return scheduler.ParseDifficulty(q.Difficulty)
}

// ValidAnswer reports whether idx addresses one of the choices.
func (q *Question) ValidAnswer(idx int) bool {
	return idx >= 0 && idx < len(q.Choices)
}
