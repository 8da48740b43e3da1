package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"unimind_backend/internal/model"
	"unimind_backend/internal/scheduler"
	"unimind_backend/internal/service"
	"unimind_backend/internal/testutil"
	"unimind_backend/internal/util"

	"gorm.io/gorm"
)

func TestSubmitUpdatesAllTrackers(t *testing.T) {
	h := newHarness(t)
	testutil.MustCourse(t, h.db, "CS1")
	topic := testutil.MustTopic(t, h.db, "CS1", "loops")
	q := testutil.MustQuestion(t, h.db, topic.ID, 2, "medium")

	res := h.submit(t, q, 2, 5)
	if !res.Correct || res.Explanation != "because" {
		t.Errorf("result = %+v", res)
	}
	if !approx(res.Rating, 0.4) || res.Stage != scheduler.StageInProgress || res.PercentComplete != 40 {
		t.Errorf("mastery in result: rating %v stage %s percent %d", res.Rating, res.Stage, res.PercentComplete)
	}
	if res.Streak.CurrentStreak != 1 || res.StreakTransition != scheduler.StreakStarted {
		t.Errorf("streak = %+v (%s)", res.Streak, res.StreakTransition)
	}

	if n := testutil.Count(t, h.db, &model.Attempt{}); n != 1 {
		t.Errorf("%d attempts stored, want 1", n)
	}
	m := h.mastery(t, topic.ID)
	if !approx(m.Rating, 0.4) || m.LastSeenAt == nil || !m.LastSeenAt.Equal(t0) {
		t.Errorf("stored mastery = %+v", m)
	}
	qm := h.metric(t, q.ID)
	if qm.Attempts != 1 || !approx(qm.RollingAccuracy, 0.6) {
		t.Errorf("stored metric = %+v", qm)
	}
	if iv := qm.NextDueAt.Sub(*qm.LastSeenAt); iv != 24*time.Hour {
		t.Errorf("first interval = %s, want 24h", iv)
	}
}

func TestSubmitIncorrect(t *testing.T) {
	h := newHarness(t)
	testutil.MustCourse(t, h.db, "CS1")
	topic := testutil.MustTopic(t, h.db, "CS1", "loops")
	q := testutil.MustQuestion(t, h.db, topic.ID, 2, "medium")

	h.submit(t, q, 2, 5)
	h.clock.Advance(time.Hour)
	res := h.submit(t, q, 0, 5)
	if res.Correct {
		t.Fatal("answer 0 graded correct")
	}
	if !approx(res.Rating, 0.3) {
		t.Errorf("rating = %v, want 0.3", res.Rating)
	}
	qm := h.metric(t, q.ID)
	if iv := qm.NextDueAt.Sub(*qm.LastSeenAt); iv != 12*time.Hour {
		t.Errorf("interval after miss = %s, want 12h", iv)
	}
	if qm.Attempts != 2 {
		t.Errorf("attempts = %d, want 2", qm.Attempts)
	}
}

func TestSubmitValidationLeavesNoRows(t *testing.T) {
	h := newHarness(t)
	testutil.MustCourse(t, h.db, "CS1")
	topic := testutil.MustTopic(t, h.db, "CS1", "loops")
	q := testutil.MustQuestion(t, h.db, topic.ID, 1, "easy")

	tests := []struct {
		name string
		in   service.SubmitAttemptInput
		want error
	}{
		{"index too large", service.SubmitAttemptInput{UserID: h.user.ID, QuestionID: q.ID, AnswerIndex: 4}, util.ErrAnswerOutOfRange},
		{"negative index", service.SubmitAttemptInput{UserID: h.user.ID, QuestionID: q.ID, AnswerIndex: -1}, util.ErrAnswerOutOfRange},
		{"negative seconds", service.SubmitAttemptInput{UserID: h.user.ID, QuestionID: q.ID, SecondsTaken: -3}, util.ErrInvalidSeconds},
		{"unknown question", service.SubmitAttemptInput{UserID: h.user.ID, QuestionID: "nope"}, util.ErrQuestionNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.attempts.Submit(context.Background(), tt.in)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
	if !errors.Is(util.ErrAnswerOutOfRange, util.ErrInvalidInput) {
		t.Error("ErrAnswerOutOfRange should wrap ErrInvalidInput")
	}

	for _, m := range []interface{}{&model.Attempt{}, &model.TopicMastery{}, &model.QuestionMetric{}, &model.DailyStreak{}} {
		if n := testutil.Count(t, h.db, m); n != 0 {
			t.Errorf("%T: %d rows written by rejected submissions", m, n)
		}
	}
}

func TestSubmitRollsBackOnStorageFailure(t *testing.T) {
	h := newHarness(t)
	testutil.MustCourse(t, h.db, "CS1")
	topic := testutil.MustTopic(t, h.db, "CS1", "loops")
	q := testutil.MustQuestion(t, h.db, topic.ID, 1, "easy")

	boom := errors.New("disk full")
	err := h.db.Callback().Update().Before("gorm:update").Register("test:fail_streak", func(tx *gorm.DB) {
		if tx.Statement.Table == "daily_streaks" {
			_ = tx.AddError(boom)
		}
	})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := h.attempts.Submit(context.Background(), service.SubmitAttemptInput{UserID: h.user.ID, QuestionID: q.ID, AnswerIndex: 1}); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
	for _, m := range []interface{}{&model.Attempt{}, &model.TopicMastery{}, &model.QuestionMetric{}, &model.DailyStreak{}} {
		if n := testutil.Count(t, h.db, m); n != 0 {
			t.Errorf("%T: %d rows survived the rollback", m, n)
		}
	}
}

func TestSubmitStreakAcrossDays(t *testing.T) {
	h := newHarness(t)
	testutil.MustCourse(t, h.db, "CS1")
	topic := testutil.MustTopic(t, h.db, "CS1", "loops")
	q := testutil.MustQuestion(t, h.db, topic.ID, 1, "easy")
	ctx := context.Background()

	h.submit(t, q, 1, 5)
	h.clock.Advance(3 * time.Hour)
	res := h.submit(t, q, 0, 5)
	if res.Streak.CurrentStreak != 1 || res.StreakTransition != scheduler.StreakUnchanged {
		t.Errorf("same day: %+v %s", res.Streak, res.StreakTransition)
	}

	h.clock.Advance(24 * time.Hour)
	res = h.submit(t, q, 1, 5)
	if res.Streak.CurrentStreak != 2 || res.Streak.LongestStreak != 2 {
		t.Errorf("next day: %+v", res.Streak)
	}

	h.clock.Advance(5 * 24 * time.Hour)
	res = h.submit(t, q, 1, 5)
	if res.Streak.CurrentStreak != 1 || res.Streak.LongestStreak != 2 || res.StreakTransition != scheduler.StreakReset {
		t.Errorf("after gap: %+v %s", res.Streak, res.StreakTransition)
	}

	view, err := h.progress.Streak(ctx, h.user.ID)
	if err != nil {
		t.Fatal(err)
	}
	if view != res.Streak {
		t.Errorf("stored streak %+v != result %+v", view, res.Streak)
	}
}

func TestSubmitConcurrentSameQuestion(t *testing.T) {
	h := newHarness(t)
	testutil.MustCourse(t, h.db, "CS1")
	topic := testutil.MustTopic(t, h.db, "CS1", "loops")
	q := testutil.MustQuestion(t, h.db, topic.ID, 1, "hard")

	const n = 8
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.attempts.Submit(context.Background(), service.SubmitAttemptInput{
				UserID:       h.user.ID,
				QuestionID:   q.ID,
				AnswerIndex:  1,
				SecondsTaken: 5,
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("Submit: %v", err)
		}
	}

	if qm := h.metric(t, q.ID); qm.Attempts != n {
		t.Errorf("metric attempts = %d, want %d (lost update)", qm.Attempts, n)
	}
	if got := testutil.Count(t, h.db, &model.Attempt{}); got != n {
		t.Errorf("%d attempts stored, want %d", got, n)
	}
	replayed, err := h.progress.ReplayTopic(context.Background(), h.user.ID, topic.ID)
	if err != nil {
		t.Fatal(err)
	}
	stored := h.mastery(t, topic.ID)
	if !approx(replayed.Rating, stored.Rating) {
		t.Errorf("stored rating %v != replayed %v", stored.Rating, replayed.Rating)
	}
}

func TestReplayTopicMatchesIncremental(t *testing.T) {
	h := newHarness(t)
	testutil.MustCourse(t, h.db, "CS1")
	topic := testutil.MustTopic(t, h.db, "CS1", "loops")
	qs := []*model.Question{
		testutil.MustQuestion(t, h.db, topic.ID, 0, "easy"),
		testutil.MustQuestion(t, h.db, topic.ID, 1, "medium"),
		testutil.MustQuestion(t, h.db, topic.ID, 2, "hard"),
	}
	answers := []struct {
		q, answer, secs int
	}{
		{0, 0, 3}, {1, 0, 20}, {2, 2, 90}, {1, 1, 8}, {0, 3, 4}, {2, 2, 12},
	}
	for _, a := range answers {
		h.submit(t, qs[a.q], a.answer, a.secs)
		h.clock.Advance(7 * time.Minute)
	}

	replayed, err := h.progress.ReplayTopic(context.Background(), h.user.ID, topic.ID)
	if err != nil {
		t.Fatal(err)
	}
	stored := h.mastery(t, topic.ID)
	if !approx(replayed.Rating, stored.Rating) {
		t.Errorf("replayed rating %v != stored %v", replayed.Rating, stored.Rating)
	}
	if !replayed.LastSeenAt.Equal(*stored.LastSeenAt) {
		t.Errorf("replayed last seen %v != stored %v", replayed.LastSeenAt, stored.LastSeenAt)
	}
}

func TestHistory(t *testing.T) {
	h := newHarness(t)
	testutil.MustCourse(t, h.db, "CS1")
	topic := testutil.MustTopic(t, h.db, "CS1", "loops")
	q := testutil.MustQuestion(t, h.db, topic.ID, 1, "easy")
	for i := 0; i < 3; i++ {
		h.submit(t, q, i, 5)
		h.clock.Advance(time.Minute)
	}
	hist, err := h.attempts.History(context.Background(), h.user.ID, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(hist) != 2 || !hist[0].AnsweredAt.After(hist[1].AnsweredAt) {
		t.Errorf("history = %+v, want two newest first", hist)
	}
}
