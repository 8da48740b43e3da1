package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"unimind_backend/internal/model"
	"unimind_backend/internal/repository"
	"unimind_backend/internal/testutil"

	"gorm.io/gorm"
)

var t0 = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

func TestEligibleIDsExcludesRecentAnswers(t *testing.T) {
	ctx := context.Background()
	db := testutil.DB(t)
	u := testutil.MustUser(t, db, "a@example.com")
	other := testutil.MustUser(t, db, "b@example.com")
	testutil.MustCourse(t, db, "CS1")
	topic := testutil.MustTopic(t, db, "CS1", "loops")
	q1 := testutil.MustQuestion(t, db, topic.ID, 0, "easy")
	q2 := testutil.MustQuestion(t, db, topic.ID, 1, "easy")
	q3 := testutil.MustQuestion(t, db, topic.ID, 2, "easy")

	attempts := repository.NewAttemptRepository(db)
	for _, a := range []model.Attempt{
		{UserID: u.ID, QuestionID: q1.ID, TopicID: topic.ID, AnsweredAt: t0.Add(-2 * time.Minute)},
		{UserID: u.ID, QuestionID: q2.ID, TopicID: topic.ID, AnsweredAt: t0.Add(-30 * time.Minute)},
		{UserID: other.ID, QuestionID: q3.ID, TopicID: topic.ID, AnsweredAt: t0.Add(-time.Minute)},
	} {
		a := a
		if err := attempts.Create(ctx, &a); err != nil {
			t.Fatal(err)
		}
	}

	repo := repository.NewQuestionRepository(db)
	ids, err := repo.ForUser(u.ID).EligibleQuestions(ctx, topic.ID, t0.Add(-10*time.Minute))
	if err != nil {
		t.Fatalf("EligibleQuestions: %v", err)
	}
	want := map[string]bool{q2.ID: true, q3.ID: true}
	if len(ids) != 2 || !want[ids[0]] || !want[ids[1]] {
		t.Errorf("eligible = %v, want %s and %s", ids, q2.ID, q3.ID)
	}
	if ids[0] > ids[1] {
		t.Errorf("ids not ordered: %v", ids)
	}
}

func TestEnrolDuplicate(t *testing.T) {
	ctx := context.Background()
	db := testutil.DB(t)
	u := testutil.MustUser(t, db, "a@example.com")
	testutil.MustCourse(t, db, "CS1")
	repo := repository.NewCourseRepository(db)

	if err := repo.Enrol(ctx, u.ID, "CS1"); err != nil {
		t.Fatalf("Enrol: %v", err)
	}
	if err := repo.Enrol(ctx, u.ID, "CS1"); !errors.Is(err, repository.ErrDuplicate) {
		t.Errorf("second Enrol err = %v, want ErrDuplicate", err)
	}
	codes, err := repo.EnrolledCodes(ctx, u.ID)
	if err != nil || len(codes) != 1 || codes[0] != "CS1" {
		t.Errorf("EnrolledCodes = %v, %v", codes, err)
	}
	removed, err := repo.Unenrol(ctx, u.ID, "CS1")
	if err != nil || !removed {
		t.Errorf("Unenrol = %v, %v", removed, err)
	}
	removed, _ = repo.Unenrol(ctx, u.ID, "CS1")
	if removed {
		t.Error("second Unenrol reported a removal")
	}
}

func TestMasteryGetForUpdateCreatesOnce(t *testing.T) {
	ctx := context.Background()
	db := testutil.DB(t)
	u := testutil.MustUser(t, db, "a@example.com")
	testutil.MustCourse(t, db, "CS1")
	topicID := testutil.MustTopic(t, db, "CS1", "loops").ID
	repo := repository.NewMasteryRepository(db)

	if m, err := repo.Find(ctx, u.ID, topicID); err != nil || m != nil {
		t.Fatalf("Find before create = %v, %v", m, err)
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		m, err := repo.WithTx(tx).GetForUpdate(ctx, u.ID, topicID, 0.2)
		if err != nil {
			return err
		}
		if m.Rating != 0.2 {
			t.Errorf("seeded rating = %v, want 0.2", m.Rating)
		}
		m.Rating = 0.55
		return repo.WithTx(tx).Save(ctx, m)
	})
	if err != nil {
		t.Fatal(err)
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		m, err := repo.WithTx(tx).GetForUpdate(ctx, u.ID, topicID, 0.2)
		if err != nil {
			return err
		}
		if m.Rating != 0.55 {
			t.Errorf("existing row overwritten: rating = %v", m.Rating)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if n := testutil.Count(t, db, &model.TopicMastery{}); n != 1 {
		t.Errorf("%d mastery rows, want 1", n)
	}
}

func TestGetForUpdateRollsBack(t *testing.T) {
	ctx := context.Background()
	db := testutil.DB(t)
	u := testutil.MustUser(t, db, "a@example.com")
	testutil.MustCourse(t, db, "CS1")
	q := testutil.MustQuestion(t, db, testutil.MustTopic(t, db, "CS1", "loops").ID, 0, "easy")
	boom := errors.New("boom")

	err := db.Transaction(func(tx *gorm.DB) error {
		if _, err := repository.NewStreakRepository(tx).GetForUpdate(ctx, u.ID); err != nil {
			return err
		}
		if _, err := repository.NewMetricRepository(tx).GetForUpdate(ctx, u.ID, q.ID, 0.5); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	if n := testutil.Count(t, db, &model.DailyStreak{}); n != 0 {
		t.Errorf("%d streak rows survived rollback", n)
	}
	if n := testutil.Count(t, db, &model.QuestionMetric{}); n != 0 {
		t.Errorf("%d metric rows survived rollback", n)
	}
}

func TestAttemptStatsSince(t *testing.T) {
	ctx := context.Background()
	db := testutil.DB(t)
	u := testutil.MustUser(t, db, "a@example.com")
	testutil.MustCourse(t, db, "CS1")
	topic := testutil.MustTopic(t, db, "CS1", "loops")
	q1 := testutil.MustQuestion(t, db, topic.ID, 0, "easy")
	q2 := testutil.MustQuestion(t, db, topic.ID, 1, "easy")
	repo := repository.NewAttemptRepository(db)

	add := func(q *model.Question, correct bool, at time.Time) {
		t.Helper()
		if err := repo.Create(ctx, &model.Attempt{UserID: u.ID, QuestionID: q.ID, TopicID: topic.ID, WasCorrect: correct, AnsweredAt: at}); err != nil {
			t.Fatal(err)
		}
	}
	midnight := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	add(q1, true, midnight.Add(-time.Minute))
	add(q1, false, midnight.Add(time.Hour))
	add(q1, true, midnight.Add(2*time.Hour))
	add(q2, true, midnight.Add(3*time.Hour))

	st, err := repo.StatsSince(ctx, u.ID, midnight)
	if err != nil {
		t.Fatal(err)
	}
	if st.Attempts != 3 || st.Correct != 2 || st.DistinctQuestions != 2 {
		t.Errorf("stats = %+v, want 3 attempts, 2 correct, 2 questions", st)
	}

	hist, err := repo.ListByUserQuestion(ctx, u.ID, q1.ID)
	if err != nil {
		t.Fatal(err)
	}
	for i := 1; i < len(hist); i++ {
		if hist[i].AnsweredAt.Before(hist[i-1].AnsweredAt) {
			t.Fatalf("history out of order at %d", i)
		}
	}
	if len(hist) != 3 {
		t.Errorf("history has %d rows, want 3", len(hist))
	}
}

func TestAttemptsAreImmutable(t *testing.T) {
	ctx := context.Background()
	db := testutil.DB(t)
	u := testutil.MustUser(t, db, "a@example.com")
	testutil.MustCourse(t, db, "CS1")
	topic := testutil.MustTopic(t, db, "CS1", "loops")
	q := testutil.MustQuestion(t, db, topic.ID, 0, "easy")
	repo := repository.NewAttemptRepository(db)
	a := &model.Attempt{UserID: u.ID, QuestionID: q.ID, TopicID: topic.ID, AnsweredAt: t0}
	if err := repo.Create(ctx, a); err != nil {
		t.Fatal(err)
	}
	a.WasCorrect = true
	if err := db.Save(a).Error; !errors.Is(err, model.ErrImmutableAttempt) {
		t.Errorf("Save err = %v, want ErrImmutableAttempt", err)
	}
}

func TestBlockedSites(t *testing.T) {
	ctx := context.Background()
	db := testutil.DB(t)
	u := testutil.MustUser(t, db, "a@example.com")
	repo := repository.NewBlockedSiteRepository(db)

	site := &model.BlockedSite{UserID: u.ID, Domain: "youtube.com"}
	if err := repo.Add(ctx, site); err != nil {
		t.Fatal(err)
	}
	if err := repo.Add(ctx, &model.BlockedSite{UserID: u.ID, Domain: "youtube.com"}); !errors.Is(err, repository.ErrDuplicate) {
		t.Errorf("duplicate err = %v", err)
	}
	removed, err := repo.Remove(ctx, u.ID+1, site.ID)
	if err != nil || removed {
		t.Errorf("another user removed the site: %v %v", removed, err)
	}
	removed, err = repo.Remove(ctx, u.ID, site.ID)
	if err != nil || !removed {
		t.Errorf("Remove = %v, %v", removed, err)
	}
	// hard delete frees the unique key
	if err := repo.Add(ctx, &model.BlockedSite{UserID: u.ID, Domain: "youtube.com"}); err != nil {
		t.Errorf("re-add after remove: %v", err)
	}
}

func TestDeletingCourseCascadesToTrackers(t *testing.T) {
	ctx := context.Background()
	db := testutil.DB(t)
	u := testutil.MustUser(t, db, "a@example.com")
	testutil.MustCourse(t, db, "CS1")
	testutil.MustCourse(t, db, "CS2")
	topic := testutil.MustTopic(t, db, "CS1", "loops")
	q := testutil.MustQuestion(t, db, topic.ID, 0, "easy")
	keepTopic := testutil.MustTopic(t, db, "CS2", "graphs")
	keepQ := testutil.MustQuestion(t, db, keepTopic.ID, 0, "easy")

	attempts := repository.NewAttemptRepository(db)
	for _, a := range []model.Attempt{
		{UserID: u.ID, QuestionID: q.ID, TopicID: topic.ID, WasCorrect: true, AnsweredAt: t0},
		{UserID: u.ID, QuestionID: keepQ.ID, TopicID: keepTopic.ID, WasCorrect: true, AnsweredAt: t0},
	} {
		a := a
		if err := attempts.Create(ctx, &a); err != nil {
			t.Fatal(err)
		}
	}
	err := db.Transaction(func(tx *gorm.DB) error {
		for _, id := range []string{topic.ID, keepTopic.ID} {
			if _, err := repository.NewMasteryRepository(tx).GetForUpdate(ctx, u.ID, id, 0.2); err != nil {
				return err
			}
		}
		for _, id := range []string{q.ID, keepQ.ID} {
			if _, err := repository.NewMetricRepository(tx).GetForUpdate(ctx, u.ID, id, 0.5); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := db.Delete(&model.Course{Code: "CS1"}).Error; err != nil {
		t.Fatalf("delete course: %v", err)
	}

	for _, m := range []interface{}{&model.Topic{}, &model.Question{}, &model.Attempt{}, &model.TopicMastery{}, &model.QuestionMetric{}} {
		if n := testutil.Count(t, db, m); n != 1 {
			t.Errorf("%T: %d rows left, want only the other course's row", m, n)
		}
	}
}

func TestTrackerRowsNeedExistingContent(t *testing.T) {
	ctx := context.Background()
	db := testutil.DB(t)
	u := testutil.MustUser(t, db, "a@example.com")
	err := repository.NewAttemptRepository(db).Create(ctx, &model.Attempt{UserID: u.ID, QuestionID: "missing", TopicID: "missing", AnsweredAt: t0})
	if err == nil {
		t.Error("attempt for a missing question was stored")
	}
}
