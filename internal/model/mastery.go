package model

import (
	"time"

	"unimind_backend/internal/scheduler"
)

// TopicMastery 用户在某个知识点上的掌握度
// swagger:model TopicMastery
type TopicMastery struct {
	UserID          uint       `gorm:"primaryKey;autoIncrement:false" json:"userId"`
	TopicID         string     `gorm:"primaryKey;size:36" json:"topicId"`
	Rating          float64    `gorm:"not null;default:0.2" json:"rating"`
	LastSeenAt      *time.Time `json:"lastSeenAt"`
	LastPractisedAt *time.Time `json:"lastPractisedAt"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

func (TopicMastery) TableName() string {
	return "topic_mastery"
}

func (m *TopicMastery) State() scheduler.Mastery {
	return scheduler.Mastery{
		Rating:          m.Rating,
		LastSeenAt:      m.LastSeenAt,
		LastPractisedAt: m.LastPractisedAt,
	}
}

func (m *TopicMastery) SetState(s scheduler.Mastery) {
	m.Rating = s.Rating
	m.LastSeenAt = s.LastSeenAt
	m.LastPractisedAt = s.LastPractisedAt
}

// QuestionMetric 用户在单道题上的间隔复习状态
// swagger:model QuestionMetric
type QuestionMetric struct {
	UserID          uint       `gorm:"primaryKey;autoIncrement:false" json:"userId"`
	QuestionID      string     `gorm:"primaryKey;size:36" json:"questionId"`
	RollingAccuracy float64    `gorm:"not null;default:0.5" json:"rollingAccuracy"`
	Attempts        int        `gorm:"not null;default:0" json:"attempts"`
	LastSeenAt      *time.Time `json:"lastSeenAt"`
	NextDueAt       *time.Time `gorm:"index" json:"nextDueAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

func (QuestionMetric) TableName() string {
	return "question_metrics"
}

func (m *QuestionMetric) State() scheduler.Recall {
	return scheduler.Recall{
		RollingAccuracy: m.RollingAccuracy,
		Attempts:        m.Attempts,
		LastSeenAt:      m.LastSeenAt,
		NextDueAt:       m.NextDueAt,
	}
}

func (m *QuestionMetric) SetState(r scheduler.Recall) {
	m.RollingAccuracy = r.RollingAccuracy
	m.Attempts = r.Attempts
	m.LastSeenAt = r.LastSeenAt
	m.NextDueAt = r.NextDueAt
}
