package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"unimind_backend/internal/model"
	"unimind_backend/internal/repository"
	"unimind_backend/internal/scheduler"
	"unimind_backend/internal/util"
	"unimind_backend/pkg/logger"
	"unimind_backend/pkg/monitoring"
	"unimind_backend/pkg/tracing"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// GatePolicy 门控策略：答对后放行时长，答错后锁定时长
type GatePolicy struct {
	AllowMsOnCorrect     int64 `json:"allow_ms_on_correct"`
	LockoutSecondsOnFail int   `json:"lockout_seconds_on_fail"`
}

type GateQuestion struct {
	QuestionID string     `json:"question_id"`
	TopicID    string     `json:"topic_id"`
	TopicName  string     `json:"topic_name"`
	CourseCode string     `json:"course_code"`
	Prompt     string     `json:"prompt"`
	Choices    []string   `json:"choices"`
	Difficulty string     `json:"difficulty"`
	Policy     GatePolicy `json:"policy"`
}

type GateAnswer struct {
	*AttemptResult
	AllowMs              int64 `json:"allow_ms"`
	LockoutSecondsOnFail int   `json:"lockout_seconds_on_fail"`
}

// GateService 选择门控题目并处理门控作答
type GateService struct {
	Courses   *repository.CourseRepository
	Questions *repository.QuestionRepository
	Mastery   *repository.MasteryRepository
	Attempts  *AttemptService
	Selector  *scheduler.Selector
	Tunables  *Tunables
	Now       Clock
}

func NewGateService(
	courses *repository.CourseRepository,
	questions *repository.QuestionRepository,
	mastery *repository.MasteryRepository,
	attempts *AttemptService,
	selector *scheduler.Selector,
	tunables *Tunables,
) *GateService {
	return &GateService{
		Courses:   courses,
		Questions: questions,
		Mastery:   mastery,
		Attempts:  attempts,
		Selector:  selector,
		Tunables:  tunables,
		Now:       SystemClock,
	}
}

func (s *GateService) policy() GatePolicy {
	g := s.Tunables.Gate()
	return GatePolicy{
		AllowMsOnCorrect:     g.UnlockDuration.Milliseconds(),
		LockoutSecondsOnFail: g.LockoutSeconds,
	}
}

// candidates 构建候选知识点：指定课程的全部知识点，否则为用户已选课程的知识点
func (s *GateService) candidates(ctx context.Context, cfg scheduler.Config, userID uint, courseFilter string) ([]scheduler.TopicCandidate, map[string]model.Topic, error) {
	var codes []string
	if code := strings.ToUpper(strings.TrimSpace(courseFilter)); code != "" {
		if _, err := s.Courses.FindByCode(ctx, code); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, nil, util.ErrCourseNotFound
			}
			return nil, nil, err
		}
		codes = []string{code}
	} else {
		enrolled, err := s.Courses.EnrolledCodes(ctx, userID)
		if err != nil {
			return nil, nil, err
		}
		codes = enrolled
	}

	topics, err := s.Courses.TopicsByCourses(ctx, codes)
	if err != nil {
		return nil, nil, err
	}
	rows, err := s.Mastery.ListByUser(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	index := make(map[string]model.Topic, len(topics))
	for _, t := range topics {
		index[t.ID] = t
	}
	return topicCandidates(cfg, topics, rows), index, nil
}

// topicCandidates pairs each topic with the user's stored rating, or the default rating
// when the topic was never practised.
func topicCandidates(cfg scheduler.Config, topics []model.Topic, rows []model.TopicMastery) []scheduler.TopicCandidate {
	byTopic := make(map[string]model.TopicMastery, len(rows))
	for _, r := range rows {
		byTopic[r.TopicID] = r
	}
	out := make([]scheduler.TopicCandidate, 0, len(topics))
	for _, t := range topics {
		c := scheduler.TopicCandidate{TopicID: t.ID, Rating: cfg.DefaultRating}
		if r, ok := byTopic[t.ID]; ok {
			c.Rating = r.Rating
			c.LastSeenAt = r.LastSeenAt
		}
		out = append(out, c)
	}
	return out
}

// Select 选出下一道门控题目，没有可用题目时返回 scheduler.ErrNoEligibleQuestion
func (s *GateService) Select(ctx context.Context, userID uint, courseFilter string) (*GateQuestion, error) {
	ctx, span := tracing.Tracer.Start(ctx, "GateService.Select")
	defer span.End()
	span.SetAttributes(attribute.Int64("user.id", int64(userID)), attribute.String("course.filter", courseFilter))

	cfg := s.Tunables.Scheduler()
	cands, topics, err := s.candidates(ctx, cfg, userID, courseFilter)
	if err != nil {
		monitoring.GateSelections.WithLabelValues("error").Inc()
		tracing.Fail(span, err)
		return nil, err
	}

	sel, err := s.Selector.Select(ctx, cfg, cands, s.Questions.ForUser(userID), s.Now())
	if err != nil {
		if errors.Is(err, scheduler.ErrNoEligibleQuestion) {
			monitoring.GateSelections.WithLabelValues("not_found").Inc()
			logger.Log.Warn("no eligible gate question",
				zap.Uint("userID", userID),
				zap.String("course", courseFilter),
				zap.Int("topics", len(cands)))
			return nil, err
		}
		monitoring.GateSelections.WithLabelValues("error").Inc()
		tracing.Fail(span, err)
		return nil, fmt.Errorf("select gate question: %w", err)
	}

	q, err := s.Questions.FindByID(ctx, sel.QuestionID)
	if err != nil {
		monitoring.GateSelections.WithLabelValues("error").Inc()
		tracing.Fail(span, err)
		return nil, fmt.Errorf("load selected question: %w", err)
	}
	monitoring.GateSelections.WithLabelValues("selected").Inc()
	span.SetAttributes(attribute.String("topic.id", sel.TopicID), attribute.Int("topic.rank", sel.Rank))

	topic := topics[sel.TopicID]
	return &GateQuestion{
		QuestionID: q.ID,
		TopicID:    q.TopicID,
		TopicName:  topic.Name,
		CourseCode: topic.CourseCode,
		Prompt:     q.Prompt,
		Choices:    []string(q.Choices),
		Difficulty: string(q.Level()),
		Policy:     s.policy(),
	}, nil
}

// Answer 处理门控作答，答对返回放行时长，答错放行时长为 0
func (s *GateService) Answer(ctx context.Context, in SubmitAttemptInput) (*GateAnswer, error) {
	res, err := s.Attempts.Submit(ctx, in)
	if err != nil {
		return nil, err
	}
	p := s.policy()
	out := &GateAnswer{AttemptResult: res, LockoutSecondsOnFail: p.LockoutSecondsOnFail}
	if res.Correct {
		out.AllowMs = p.AllowMsOnCorrect
	}
	return out, nil
}
