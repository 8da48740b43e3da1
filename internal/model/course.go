package model

import "time"

// swagger:model Course
type Course struct {
	Code        string    `gorm:"primaryKey;size:32" json:"code"`
	Name        string    `gorm:"size:255;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`

	Topics []Topic `gorm:"foreignKey:CourseCode;references:Code;constraint:OnDelete:CASCADE" json:"topics,omitempty"`
}

func (Course) TableName() string {
	return "courses"
}

// swagger:model Topic
type Topic struct {
	UUIDBase
	CourseCode  string `gorm:"size:32;not null;uniqueIndex:uq_topics_course_name" json:"courseCode"`
	Name        string `gorm:"size:255;not null;uniqueIndex:uq_topics_course_name" json:"name"`
	Description string `gorm:"type:text" json:"description,omitempty"`

	Questions []Question     `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Masteries []TopicMastery `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Attempts  []Attempt      `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

func (Topic) TableName() string {
	return "topics"
}

// Enrolment links a user to a course. The composite key prevents duplicates.
// swagger:model Enrolment
type Enrolment struct {
	UserID     uint      `gorm:"primaryKey;autoIncrement:false" json:"userId"`
	CourseCode string    `gorm:"primaryKey;size:32" json:"courseCode"`
	EnrolledAt time.Time `gorm:"autoCreateTime" json:"enrolledAt"`
}

func (Enrolment) TableName() string {
	return "enrolments"
}
