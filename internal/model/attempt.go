package model

import (
	"time"

	"gorm.io/gorm"
)

// Attempt is one submitted answer. Rows are append-only; every tracker can be rebuilt
// by folding over them in AnsweredAt order.
// swagger:model Attempt
type Attempt struct {
	ID           string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID       uint      `gorm:"not null;index:idx_attempt_user_question,priority:1;index:idx_attempt_user_topic,priority:1" json:"userId"`
	QuestionID   string    `gorm:"size:36;not null;index:idx_attempt_user_question,priority:2" json:"questionId"`
	TopicID      string    `gorm:"size:36;not null;index:idx_attempt_user_topic,priority:2" json:"topicId"`
	WasCorrect   bool      `gorm:"not null" json:"wasCorrect"`
	SecondsTaken int       `gorm:"not null;default:0" json:"secondsTaken"`
	AnsweredAt   time.Time `gorm:"not null;index:idx_attempt_user_question,priority:3;index:idx_attempt_user_topic,priority:3" json:"answeredAt"`
}

func (Attempt) TableName() string {
	return "question_attempts"
}

func (a *Attempt) BeforeCreate(*gorm.DB) error {
	ensureID(&a.ID)
	return nil
}

func (a *Attempt) BeforeUpdate(tx *gorm.DB) error {
	return ErrImmutableAttempt
}
