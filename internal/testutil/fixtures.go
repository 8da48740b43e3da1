package testutil

import (
	"fmt"
	"testing"

	"unimind_backend/internal/model"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func MustUser(tb testing.TB, db *gorm.DB, email string) *model.User {
	tb.Helper()
	u := &model.User{Name: email, Email: email, Password: "x", Role: model.Student}
	if err := db.Create(u).Error; err != nil {
		tb.Fatalf("create user: %v", err)
	}
	return u
}

func MustCourse(tb testing.TB, db *gorm.DB, code string) *model.Course {
	tb.Helper()
	c := &model.Course{Code: code, Name: "Course " + code}
	if err := db.Create(c).Error; err != nil {
		tb.Fatalf("create course: %v", err)
	}
	return c
}

func MustTopic(tb testing.TB, db *gorm.DB, courseCode, name string) *model.Topic {
	tb.Helper()
	t := &model.Topic{CourseCode: courseCode, Name: name}
	if err := db.Create(t).Error; err != nil {
		tb.Fatalf("create topic: %v", err)
	}
	return t
}

// MustQuestion creates a four-choice question whose correct answer is correctIndex.
func MustQuestion(tb testing.TB, db *gorm.DB, topicID string, correctIndex int, difficulty string) *model.Question {
	tb.Helper()
	q := &model.Question{
		TopicID:      topicID,
		Prompt:       fmt.Sprintf("question in %s", topicID),
		Choices:      datatypes.JSONSlice[string]{"a", "b", "c", "d"},
		CorrectIndex: correctIndex,
		Difficulty:   difficulty,
		Explanation:  "because",
	}
	if err := db.Create(q).Error; err != nil {
		tb.Fatalf("create question: %v", err)
	}
	return q
}

func MustEnrol(tb testing.TB, db *gorm.DB, userID uint, code string) {
	tb.Helper()
	if err := db.Create(&model.Enrolment{UserID: userID, CourseCode: code}).Error; err != nil {
		tb.Fatalf("enrol: %v", err)
	}
}

func Count(tb testing.TB, db *gorm.DB, m interface{}) int64 {
	tb.Helper()
	var n int64
	if err := db.Model(m).Count(&n).Error; err != nil {
		tb.Fatalf("count: %v", err)
	}
	return n
}
