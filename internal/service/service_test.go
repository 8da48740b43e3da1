package service_test

import (
	"context"
	"testing"
	"time"

	"unimind_backend/internal/config"
	"unimind_backend/internal/model"
	"unimind_backend/internal/repository"
	"unimind_backend/internal/scheduler"
	"unimind_backend/internal/service"
	"unimind_backend/internal/testutil"
	"unimind_backend/pkg/keylock"

	"gorm.io/gorm"
)

var t0 = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

type harness struct {
	db       *gorm.DB
	clock    *testutil.Clock
	tunables *service.Tunables
	attempts *service.AttemptService
	gate     *service.GateService
	progress *service.ProgressService
	courses  *service.CourseService
	user     *model.User
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := testutil.DB(t)
	clock := testutil.NewClock(t0)
	tunables := service.NewTunables(scheduler.DefaultConfig(), config.GateConfig{UnlockDuration: time.Hour, LockoutSeconds: 30})

	courseRepo := repository.NewCourseRepository(db)
	questionRepo := repository.NewQuestionRepository(db)
	attemptRepo := repository.NewAttemptRepository(db)
	masteryRepo := repository.NewMasteryRepository(db)
	metricRepo := repository.NewMetricRepository(db)
	streakRepo := repository.NewStreakRepository(db)

	attempts := service.NewAttemptService(db, questionRepo, attemptRepo, masteryRepo, metricRepo, streakRepo, keylock.NewLocal(), tunables)
	attempts.Now = clock.Now
	gate := service.NewGateService(courseRepo, questionRepo, masteryRepo, attempts, scheduler.NewSeededSelector(42), tunables)
	gate.Now = clock.Now
	progress := service.NewProgressService(courseRepo, questionRepo, attemptRepo, masteryRepo, metricRepo, streakRepo, tunables)
	progress.Now = clock.Now

	return &harness{
		db:       db,
		clock:    clock,
		tunables: tunables,
		attempts: attempts,
		gate:     gate,
		progress: progress,
		courses:  service.NewCourseService(courseRepo),
		user:     testutil.MustUser(t, db, "student@example.com"),
	}
}

func (h *harness) submit(t *testing.T, q *model.Question, answer int, secs int) *service.AttemptResult {
	t.Helper()
	res, err := h.attempts.Submit(context.Background(), service.SubmitAttemptInput{
		UserID:       h.user.ID,
		QuestionID:   q.ID,
		AnswerIndex:  answer,
		SecondsTaken: secs,
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	return res
}

func (h *harness) metric(t *testing.T, questionID string) model.QuestionMetric {
	t.Helper()
	var m model.QuestionMetric
	if err := h.db.Where("user_id = ? AND question_id = ?", h.user.ID, questionID).First(&m).Error; err != nil {
		t.Fatalf("load metric: %v", err)
	}
	return m
}

func (h *harness) mastery(t *testing.T, topicID string) model.TopicMastery {
	t.Helper()
	var m model.TopicMastery
	if err := h.db.Where("user_id = ? AND topic_id = ?", h.user.ID, topicID).First(&m).Error; err != nil {
		t.Fatalf("load mastery: %v", err)
	}
	return m
}

func approx(a, b float64) bool {
	d := a - b
	return d < 1e-9 && d > -1e-9
}
