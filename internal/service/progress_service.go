package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"unimind_backend/internal/model"
	"unimind_backend/internal/repository"
	"unimind_backend/internal/scheduler"
	"unimind_backend/internal/util"

	"gorm.io/gorm"
)

// ProgressService 只读查询：掌握度、连续天数、复习计划和当日统计
type ProgressService struct {
	Courses   *repository.CourseRepository
	Questions *repository.QuestionRepository
	Attempts  *repository.AttemptRepository
	Mastery   *repository.MasteryRepository
	Metrics   *repository.MetricRepository
	Streaks   *repository.StreakRepository
	Tunables  *Tunables
	Now       Clock
}

func NewProgressService(
	courses *repository.CourseRepository,
	questions *repository.QuestionRepository,
	attempts *repository.AttemptRepository,
	mastery *repository.MasteryRepository,
	metrics *repository.MetricRepository,
	streaks *repository.StreakRepository,
	tunables *Tunables,
) *ProgressService {
	return &ProgressService{
		Courses:   courses,
		Questions: questions,
		Attempts:  attempts,
		Mastery:   mastery,
		Metrics:   metrics,
		Streaks:   streaks,
		Tunables:  tunables,
		Now:       SystemClock,
	}
}

func (s *ProgressService) enrolledTopics(ctx context.Context, userID uint) ([]model.Topic, error) {
	codes, err := s.Courses.EnrolledCodes(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.Courses.TopicsByCourses(ctx, codes)
}

// Progress returns every enrolled topic (untouched ones at the default rating) followed by
// any other topic the user has practised.
func (s *ProgressService) Progress(ctx context.Context, userID uint) ([]TopicProgress, error) {
	cfg := s.Tunables.Scheduler()
	topics, err := s.enrolledTopics(ctx, userID)
	if err != nil {
		return nil, err
	}
	rows, err := s.Mastery.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	byTopic := make(map[string]model.TopicMastery, len(rows))
	for _, r := range rows {
		byTopic[r.TopicID] = r
	}

	out := make([]TopicProgress, 0, len(topics)+len(rows))
	seen := make(map[string]bool, len(topics))
	for i := range topics {
		t := &topics[i]
		seen[t.ID] = true
		state := cfg.NewMastery()
		if r, ok := byTopic[t.ID]; ok {
			state = r.State()
		}
		out = append(out, newTopicProgress(t, state))
	}
	for i := range rows {
		r := &rows[i]
		if seen[r.TopicID] {
			continue
		}
		topic, err := s.Courses.FindTopic(ctx, r.TopicID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		p := newTopicProgress(topic, r.State())
		p.TopicID = r.TopicID
		out = append(out, p)
	}
	return out, nil
}

func (s *ProgressService) TopicProgress(ctx context.Context, userID uint, topicID string) (*TopicProgress, error) {
	topic, err := s.Courses.FindTopic(ctx, topicID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrTopicNotFound
		}
		return nil, err
	}
	row, err := s.Mastery.Find(ctx, userID, topicID)
	if err != nil {
		return nil, err
	}
	state := s.Tunables.Scheduler().NewMastery()
	if row != nil {
		state = row.State()
	}
	p := newTopicProgress(topic, state)
	return &p, nil
}

// Streak 只读，不会创建或修改记录
func (s *ProgressService) Streak(ctx context.Context, userID uint) (StreakView, error) {
	row, err := s.Streaks.Find(ctx, userID)
	if err != nil || row == nil {
		return StreakView{}, err
	}
	return newStreakView(row.State()), nil
}

// ReviewQuestions lists every question in the user's enrolled courses with its recall
// state. Questions without a stored metric are rebuilt by replaying the attempt log.
func (s *ProgressService) ReviewQuestions(ctx context.Context, userID uint, dueOnly bool) ([]ReviewQuestion, error) {
	cfg := s.Tunables.Scheduler()
	now := s.Now()

	topics, err := s.enrolledTopics(ctx, userID)
	if err != nil {
		return nil, err
	}
	topicIDs := make([]string, len(topics))
	for i, t := range topics {
		topicIDs[i] = t.ID
	}
	questions, err := s.Questions.ListByTopics(ctx, topicIDs)
	if err != nil {
		return nil, err
	}
	rows, err := s.Metrics.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	byQuestion := make(map[string]model.QuestionMetric, len(rows))
	for _, r := range rows {
		byQuestion[r.QuestionID] = r
	}

	out := make([]ReviewQuestion, 0, len(questions))
	for _, q := range questions {
		var state scheduler.Recall
		if r, ok := byQuestion[q.ID]; ok {
			state = r.State()
		} else {
			state, err = s.replay(ctx, cfg, userID, q.ID)
			if err != nil {
				return nil, err
			}
		}
		due := state.Due(now)
		if dueOnly && !due {
			continue
		}
		out = append(out, ReviewQuestion{
			QuestionID:      q.ID,
			TopicID:         q.TopicID,
			Prompt:          q.Prompt,
			Difficulty:      string(q.Level()),
			RollingAccuracy: state.RollingAccuracy,
			Attempts:        state.Attempts,
			LastSeenAt:      state.LastSeenAt,
			NextDueAt:       state.NextDueAt,
			Due:             due,
		})
	}
	// most overdue first; never-seen questions lead
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].NextDueAt, out[j].NextDueAt
		if (a == nil) != (b == nil) {
			return a == nil
		}
		return a != nil && a.Before(*b)
	})
	return out, nil
}

// replay rebuilds a question's recall state from the attempt log.
func (s *ProgressService) replay(ctx context.Context, cfg scheduler.Config, userID uint, questionID string) (scheduler.Recall, error) {
	attempts, err := s.Attempts.ListByUserQuestion(ctx, userID, questionID)
	if err != nil {
		return scheduler.Recall{}, err
	}
	reviews := make([]scheduler.Review, len(attempts))
	for i, a := range attempts {
		reviews[i] = scheduler.Review{Correct: a.WasCorrect, AnsweredAt: a.AnsweredAt}
	}
	return cfg.ReplayRecall(reviews), nil
}

// ReplayTopic 由答题记录重算知识点掌握度，用于核对增量结果
func (s *ProgressService) ReplayTopic(ctx context.Context, userID uint, topicID string) (scheduler.Mastery, error) {
	cfg := s.Tunables.Scheduler()
	attempts, err := s.Attempts.ListByUserTopic(ctx, userID, topicID)
	if err != nil {
		return scheduler.Mastery{}, err
	}
	ids := make([]string, 0, len(attempts))
	for _, a := range attempts {
		ids = append(ids, a.QuestionID)
	}
	questions, err := s.Questions.FindByIDs(ctx, ids)
	if err != nil {
		return scheduler.Mastery{}, err
	}
	levels := make(map[string]scheduler.Difficulty, len(questions))
	for i := range questions {
		levels[questions[i].ID] = questions[i].Level()
	}

	m := cfg.NewMastery()
	for _, a := range attempts {
		d, ok := levels[a.QuestionID]
		if !ok {
			d = scheduler.DifficultyMedium
		}
		m = cfg.ApplyMastery(m, a.WasCorrect, d, a.SecondsTaken, a.AnsweredAt)
	}
	return m, nil
}

func (s *ProgressService) TodayStats(ctx context.Context, userID uint) (TodayStats, error) {
	cfg := s.Tunables.Scheduler()
	now := s.Now()
	st, err := s.Attempts.StatsSince(ctx, userID, cfg.StartOfDay(now))
	if err != nil {
		return TodayStats{}, err
	}
	return TodayStats{
		Date:              cfg.Today(now),
		QuestionsAnswered: st.DistinctQuestions,
		Attempts:          st.Attempts,
		Correct:           st.Correct,
	}, nil
}

// PriorityTopics ranks the enrolled topics weakest first with the same ordering the gate
// uses. Mastered topics are left out; limit <= 0 returns every remaining topic.
func (s *ProgressService) PriorityTopics(ctx context.Context, userID uint, limit int) ([]PriorityTopic, error) {
	cfg := s.Tunables.Scheduler()
	topics, err := s.enrolledTopics(ctx, userID)
	if err != nil {
		return nil, err
	}
	rows, err := s.Mastery.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	index := make(map[string]*model.Topic, len(topics))
	for i := range topics {
		index[topics[i].ID] = &topics[i]
	}
	lastPractised := make(map[string]*time.Time, len(rows))
	for _, r := range rows {
		lastPractised[r.TopicID] = r.LastPractisedAt
	}

	remaining := make([]scheduler.TopicCandidate, 0, len(topics))
	for _, c := range topicCandidates(cfg, topics, rows) {
		if scheduler.StageFromRating(c.Rating) != scheduler.StageMastered {
			remaining = append(remaining, c)
		}
	}
	// rank everything here; the gate's scan window does not apply to this list
	cfg.CandidateWindow = len(remaining)
	ranked := cfg.RankTopics(remaining)
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}

	out := make([]PriorityTopic, len(ranked))
	for i, c := range ranked {
		p := newTopicProgress(index[c.TopicID], scheduler.Mastery{
			Rating:          c.Rating,
			LastSeenAt:      c.LastSeenAt,
			LastPractisedAt: lastPractised[c.TopicID],
		})
		out[i] = PriorityTopic{TopicProgress: p, Rank: i}
	}
	return out, nil
}

// CourseOverview summarises one course for the user. A question counts as due when its
// recall state is due now (never-seen questions included). A question counts as
// completed-due-today when it was due at the moment it was answered today, which is
// recovered by replaying the attempt log.
func (s *ProgressService) CourseOverview(ctx context.Context, userID uint, code string) (*CourseOverview, error) {
	cfg := s.Tunables.Scheduler()
	now := s.Now()

	code = NormalizeCourseCode(code)
	course, err := s.Courses.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrCourseNotFound
		}
		return nil, err
	}
	enrolled, err := s.Courses.IsEnrolled(ctx, userID, code)
	if err != nil {
		return nil, err
	}
	topics, err := s.Courses.TopicsByCourses(ctx, []string{code})
	if err != nil {
		return nil, err
	}
	topicIDs := make([]string, len(topics))
	for i, t := range topics {
		topicIDs[i] = t.ID
	}
	questions, err := s.Questions.ListByTopics(ctx, topicIDs)
	if err != nil {
		return nil, err
	}
	questionIDs := make([]string, len(questions))
	for i, q := range questions {
		questionIDs[i] = q.ID
	}

	metrics, err := s.Metrics.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	stored := make(map[string]scheduler.Recall, len(metrics))
	for i := range metrics {
		stored[metrics[i].QuestionID] = metrics[i].State()
	}
	attempts, err := s.Attempts.ListByUserQuestions(ctx, userID, questionIDs)
	if err != nil {
		return nil, err
	}
	history := make(map[string][]model.Attempt, len(questionIDs))
	for _, a := range attempts {
		history[a.QuestionID] = append(history[a.QuestionID], a)
	}

	out := &CourseOverview{
		CourseCode: course.Code,
		CourseName: course.Name,
		Enrolled:   enrolled,
		Date:       cfg.Today(now),
		Topics:     len(topics),
		Questions:  len(questions),
	}
	startOfDay := cfg.StartOfDay(now)
	for _, q := range questions {
		r := cfg.NewRecall()
		answeredToday, completedDue := false, false
		for _, a := range history[q.ID] {
			if !a.AnsweredAt.Before(startOfDay) {
				answeredToday = true
				if r.Due(a.AnsweredAt) {
					completedDue = true
				}
			}
			r = cfg.ApplyRecall(r, a.WasCorrect, a.AnsweredAt)
		}
		if st, ok := stored[q.ID]; ok {
			r = st
		}
		if r.Due(now) {
			out.DueQuestions++
		}
		if answeredToday {
			out.AnsweredToday++
		}
		if completedDue {
			out.CompletedDueToday++
		}
	}

	rows, err := s.Mastery.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(topics) > 0 {
		var sum float64
		for _, c := range topicCandidates(cfg, topics, rows) {
			sum += c.Rating
		}
		out.AverageRating = sum / float64(len(topics))
	}
	out.AveragePercent = scheduler.PercentFromRating(out.AverageRating)
	out.Stage = scheduler.StageFromPercent(out.AveragePercent)
	return out, nil
}
