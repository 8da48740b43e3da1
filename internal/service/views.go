package service

import (
	"time"

	"unimind_backend/internal/model"
	"unimind_backend/internal/scheduler"
)

// TopicProgress 知识点掌握情况
type TopicProgress struct {
	TopicID         string          `json:"topic_id"`
	TopicName       string          `json:"topic_name,omitempty"`
	CourseCode      string          `json:"course_code,omitempty"`
	Rating          float64         `json:"rating"`
	PercentComplete int             `json:"percent_complete"`
	Stage           scheduler.Stage `json:"stage"`
	LastSeenAt      *time.Time      `json:"last_seen_at,omitempty"`
	LastPractisedAt *time.Time      `json:"last_practised_at,omitempty"`
}

func newTopicProgress(topic *model.Topic, m scheduler.Mastery) TopicProgress {
	p := TopicProgress{
		Rating:          m.Rating,
		PercentComplete: scheduler.PercentFromRating(m.Rating),
		Stage:           scheduler.StageFromRating(m.Rating),
		LastSeenAt:      m.LastSeenAt,
		LastPractisedAt: m.LastPractisedAt,
	}
	if topic != nil {
		p.TopicID = topic.ID
		p.TopicName = topic.Name
		p.CourseCode = topic.CourseCode
	}
	return p
}

// PriorityTopic 待加强的知识点，Rank 从 0 开始，越小越优先
type PriorityTopic struct {
	TopicProgress
	Rank int `json:"rank"`
}

// CourseOverview 单门课程的复习概况
type CourseOverview struct {
	CourseCode        string          `json:"course_code"`
	CourseName        string          `json:"course_name"`
	Enrolled          bool            `json:"enrolled"`
	Date              string          `json:"date"`
	Topics            int             `json:"topics"`
	Questions         int             `json:"questions"`
	DueQuestions      int             `json:"due_questions"`
	AnsweredToday     int             `json:"answered_today"`
	CompletedDueToday int             `json:"completed_due_today"`
	AverageRating     float64         `json:"average_rating"`
	AveragePercent    int             `json:"average_percent"`
	Stage             scheduler.Stage `json:"stage"`
}

// StreakView 连续学习天数（只读）
type StreakView struct {
	CurrentStreak  int    `json:"current_streak"`
	LongestStreak  int    `json:"longest_streak"`
	LastActiveDate string `json:"last_active_date,omitempty"`
}

func newStreakView(s scheduler.Streak) StreakView {
	return StreakView{
		CurrentStreak:  s.CurrentStreak,
		LongestStreak:  s.LongestStreak,
		LastActiveDate: s.LastActiveDate,
	}
}

// ReviewQuestion 题目的间隔复习状态
type ReviewQuestion struct {
	QuestionID      string     `json:"question_id"`
	TopicID         string     `json:"topic_id"`
	Prompt          string     `json:"prompt"`
	Difficulty      string     `json:"difficulty"`
	RollingAccuracy float64    `json:"rolling_accuracy"`
	Attempts        int        `json:"attempts"`
	LastSeenAt      *time.Time `json:"last_seen_at,omitempty"`
	NextDueAt       *time.Time `json:"next_due_at,omitempty"`
	Due             bool       `json:"due"`
}

// AttemptResult 单次作答的处理结果
type AttemptResult struct {
	AttemptID        string                     `json:"attempt_id"`
	QuestionID       string                     `json:"question_id"`
	TopicID          string                     `json:"topic_id"`
	Correct          bool                       `json:"correct"`
	CorrectIndex     int                        `json:"correct_index"`
	Explanation      string                     `json:"explanation,omitempty"`
	SecondsTaken     int                        `json:"seconds_taken"`
	AnsweredAt       time.Time                  `json:"answered_at"`
	Stage            scheduler.Stage            `json:"stage"`
	Rating           float64                    `json:"rating"`
	PercentComplete  int                        `json:"percent_complete"`
	RollingAccuracy  float64                    `json:"rolling_accuracy"`
	NextDueAt        *time.Time                 `json:"next_due_at,omitempty"`
	Streak           StreakView                 `json:"streak"`
	StreakTransition scheduler.StreakTransition `json:"streak_transition"`
}

// TodayStats 当天作答统计，按调度器时区划分自然日
type TodayStats struct {
	Date              string `json:"date"`
	QuestionsAnswered int64  `json:"questions_answered"`
	Attempts          int64  `json:"attempts"`
	Correct           int64  `json:"correct"`
}
