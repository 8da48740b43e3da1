package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"unimind_backend/internal/model"
	"unimind_backend/internal/repository"
	"unimind_backend/internal/scheduler"
	"unimind_backend/internal/util"
	"unimind_backend/pkg/keylock"
	"unimind_backend/pkg/logger"
	"unimind_backend/pkg/monitoring"
	"unimind_backend/pkg/tracing"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type SubmitAttemptInput struct {
	UserID       uint
	QuestionID   string
	AnswerIndex  int
	SecondsTaken int
}

// AttemptService 处理作答：追加答题记录并在同一事务内更新掌握度、复习计划和连续天数
type AttemptService struct {
	DB        *gorm.DB
	Questions *repository.QuestionRepository
	Attempts  *repository.AttemptRepository
	Mastery   *repository.MasteryRepository
	Metrics   *repository.MetricRepository
	Streaks   *repository.StreakRepository
	Locker    keylock.Locker
	Tunables  *Tunables
	Now       Clock
}

func NewAttemptService(
	db *gorm.DB,
	questions *repository.QuestionRepository,
	attempts *repository.AttemptRepository,
	mastery *repository.MasteryRepository,
	metrics *repository.MetricRepository,
	streaks *repository.StreakRepository,
	locker keylock.Locker,
	tunables *Tunables,
) *AttemptService {
	return &AttemptService{
		DB:        db,
		Questions: questions,
		Attempts:  attempts,
		Mastery:   mastery,
		Metrics:   metrics,
		Streaks:   streaks,
		Locker:    locker,
		Tunables:  tunables,
		Now:       SystemClock,
	}
}

func lockKeys(userID uint, topicID, questionID string) []string {
	uid := strconv.FormatUint(uint64(userID), 10)
	return []string{
		"user:" + uid + ":topic:" + topicID,
		"user:" + uid + ":question:" + questionID,
		"user:" + uid + ":streak",
	}
}

// Submit grades the answer and applies it. Input is validated before anything is
// written; on any storage failure the whole unit is rolled back and the error returned.
func (s *AttemptService) Submit(ctx context.Context, in SubmitAttemptInput) (*AttemptResult, error) {
	ctx, span := tracing.Tracer.Start(ctx, "AttemptService.Submit")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("user.id", int64(in.UserID)),
		attribute.String("question.id", in.QuestionID),
	)

	if in.SecondsTaken < 0 {
		return nil, util.ErrInvalidSeconds
	}
	q, err := s.Questions.FindByID(ctx, in.QuestionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrQuestionNotFound
		}
		tracing.Fail(span, err)
		return nil, fmt.Errorf("load question: %w", err)
	}
	if !q.ValidAnswer(in.AnswerIndex) {
		return nil, util.ErrAnswerOutOfRange
	}

	unlock, err := s.Locker.Lock(ctx, lockKeys(in.UserID, q.TopicID, q.ID)...)
	if err != nil {
		tracing.Fail(span, err)
		return nil, fmt.Errorf("lock attempt keys: %w", err)
	}
	defer unlock()

	cfg := s.Tunables.Scheduler()
	now := s.Now().UTC()
	correct := in.AnswerIndex == q.CorrectIndex

	attempt := &model.Attempt{
		UserID:       in.UserID,
		QuestionID:   q.ID,
		TopicID:      q.TopicID,
		WasCorrect:   correct,
		SecondsTaken: in.SecondsTaken,
		AnsweredAt:   now,
	}
	var (
		mastery    scheduler.Mastery
		recall     scheduler.Recall
		streak     scheduler.Streak
		transition scheduler.StreakTransition
	)

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.Attempts.WithTx(tx).Create(ctx, attempt); err != nil {
			return fmt.Errorf("append attempt: %w", err)
		}

		masteryRepo := s.Mastery.WithTx(tx)
		mRow, err := masteryRepo.GetForUpdate(ctx, in.UserID, q.TopicID, cfg.DefaultRating)
		if err != nil {
			return fmt.Errorf("load topic mastery: %w", err)
		}
		mastery = cfg.ApplyMastery(mRow.State(), correct, q.Level(), in.SecondsTaken, now)
		mRow.SetState(mastery)
		if err := masteryRepo.Save(ctx, mRow); err != nil {
			return fmt.Errorf("save topic mastery: %w", err)
		}

		metricRepo := s.Metrics.WithTx(tx)
		qRow, err := metricRepo.GetForUpdate(ctx, in.UserID, q.ID, cfg.InitialAccuracy)
		if err != nil {
			return fmt.Errorf("load question metric: %w", err)
		}
		recall = cfg.ApplyRecall(qRow.State(), correct, now)
		qRow.SetState(recall)
		if err := metricRepo.Save(ctx, qRow); err != nil {
			return fmt.Errorf("save question metric: %w", err)
		}

		streakRepo := s.Streaks.WithTx(tx)
		sRow, err := streakRepo.GetForUpdate(ctx, in.UserID)
		if err != nil {
			return fmt.Errorf("load streak: %w", err)
		}
		var prev *scheduler.Streak
		if sRow.LastActiveDate != "" {
			st := sRow.State()
			prev = &st
		}
		streak, transition = cfg.ApplyStreak(prev, now)
		if transition != scheduler.StreakUnchanged {
			sRow.SetState(streak)
			if err := streakRepo.Save(ctx, sRow); err != nil {
				return fmt.Errorf("save streak: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		tracing.Fail(span, err)
		logger.Log.Error("attempt processing rolled back",
			zap.Uint("userID", in.UserID),
			zap.String("questionID", q.ID),
			zap.Error(err))
		return nil, err
	}

	monitoring.AttemptsTotal.WithLabelValues(strconv.FormatBool(correct)).Inc()
	monitoring.MasteryRating.Observe(mastery.Rating)
	monitoring.StreakTransitions.WithLabelValues(string(transition)).Inc()

	stage := scheduler.StageFromRating(mastery.Rating)
	span.SetAttributes(attribute.Bool("attempt.correct", correct), attribute.String("topic.stage", string(stage)))
	logger.Log.Info("attempt processed",
		zap.Uint("userID", in.UserID),
		zap.String("questionID", q.ID),
		zap.String("topicID", q.TopicID),
		zap.Bool("correct", correct),
		zap.Float64("rating", mastery.Rating),
		zap.String("stage", string(stage)),
		zap.Timep("nextDueAt", recall.NextDueAt),
		zap.String("streak", string(transition)))

	return &AttemptResult{
		AttemptID:        attempt.ID,
		QuestionID:       q.ID,
		TopicID:          q.TopicID,
		Correct:          correct,
		CorrectIndex:     q.CorrectIndex,
		Explanation:      q.Explanation,
		SecondsTaken:     in.SecondsTaken,
		AnsweredAt:       now,
		Stage:            stage,
		Rating:           mastery.Rating,
		PercentComplete:  scheduler.PercentFromRating(mastery.Rating),
		RollingAccuracy:  recall.RollingAccuracy,
		NextDueAt:        recall.NextDueAt,
		Streak:           newStreakView(streak),
		StreakTransition: transition,
	}, nil
}

// History 返回用户最近的答题记录，按时间倒序
func (s *AttemptService) History(ctx context.Context, userID uint, limit int) ([]model.Attempt, error) {
	return s.Attempts.ListByUser(ctx, userID, limit)
}
