package model

import (
	"time"

	"unimind_backend/internal/scheduler"
)

// DailyStreak 记录用户的连续学习天数
// swagger:model DailyStreak
type DailyStreak struct {
	UserID         uint      `gorm:"primaryKey;autoIncrement:false" json:"userId"`
	CurrentStreak  int       `gorm:"not null;default:0" json:"currentStreak"`
	LongestStreak  int       `gorm:"not null;default:0" json:"longestStreak"`
	LastActiveDate string    `gorm:"size:10" json:"lastActiveDate"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

func (DailyStreak) TableName() string {
	return "daily_streaks"
}

func (s *DailyStreak) State() scheduler.Streak {
	return scheduler.Streak{
		CurrentStreak:  s.CurrentStreak,
		LongestStreak:  s.LongestStreak,
		LastActiveDate: s.LastActiveDate,
	}
}

func (s *DailyStreak) SetState(st scheduler.Streak) {
	s.CurrentStreak = st.CurrentStreak
	s.LongestStreak = st.LongestStreak
	s.LastActiveDate = st.LastActiveDate
}
