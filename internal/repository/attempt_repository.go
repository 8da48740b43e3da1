package repository

import (
	"context"
	"time"

	"unimind_backend/internal/model"

	"gorm.io/gorm"
)

type AttemptRepository struct {
	DB *gorm.DB
}

// NewAttemptRepository 创建答题记录仓库实例
func NewAttemptRepository(db *gorm.DB) *AttemptRepository {
	return &AttemptRepository{DB: db}
}

func (r *AttemptRepository) WithTx(tx *gorm.DB) *AttemptRepository {
	return &AttemptRepository{DB: tx}
}

func (r *AttemptRepository) Create(ctx context.Context, a *model.Attempt) error {
	return r.DB.WithContext(ctx).Create(a).Error
}

// ListByUserQuestion 按作答时间升序返回用户在某题上的全部记录
func (r *AttemptRepository) ListByUserQuestion(ctx context.Context, userID uint, questionID string) ([]model.Attempt, error) {
	var attempts []model.Attempt
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND question_id = ?", userID, questionID).
		Order("answered_at ASC, id ASC").
		Find(&attempts).Error
	return attempts, err
}

// ListByUserTopic 按作答时间升序返回用户在某知识点上的全部记录
func (r *AttemptRepository) ListByUserTopic(ctx context.Context, userID uint, topicID string) ([]model.Attempt, error) {
	var attempts []model.Attempt
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND topic_id = ?", userID, topicID).
		Order("answered_at ASC, id ASC").
		Find(&attempts).Error
	return attempts, err
}

// ListByUserQuestions 按作答时间升序返回用户在一组题目上的记录
func (r *AttemptRepository) ListByUserQuestions(ctx context.Context, userID uint, questionIDs []string) ([]model.Attempt, error) {
	var attempts []model.Attempt
	if len(questionIDs) == 0 {
		return attempts, nil
	}
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND question_id IN ?", userID, questionIDs).
		Order("answered_at ASC, id ASC").
		Find(&attempts).Error
	return attempts, err
}

func (r *AttemptRepository) ListByUser(ctx context.Context, userID uint, limit int) ([]model.Attempt, error) {
	var attempts []model.Attempt
	q := r.DB.WithContext(ctx).Where("user_id = ?", userID).Order("answered_at DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&attempts).Error
	return attempts, err
}

func (r *AttemptRepository) AnsweredQuestionIDs(ctx context.Context, userID uint) ([]string, error) {
	var ids []string
	err := r.DB.WithContext(ctx).Model(&model.Attempt{}).
		Where("user_id = ?", userID).
		Distinct("question_id").
		Order("question_id").
		Pluck("question_id", &ids).Error
	return ids, err
}

type AttemptStats struct {
	Attempts          int64
	Correct           int64
	DistinctQuestions int64
}

// StatsSince 统计用户自 since 起的作答情况
func (r *AttemptRepository) StatsSince(ctx context.Context, userID uint, since time.Time) (AttemptStats, error) {
	var s AttemptStats
	base := func() *gorm.DB {
		return r.DB.WithContext(ctx).Model(&model.Attempt{}).Where("user_id = ? AND answered_at >= ?", userID, since.UTC())
	}
	if err := base().Count(&s.Attempts).Error; err != nil {
		return s, err
	}
	if err := base().Where("was_correct = ?", true).Count(&s.Correct).Error; err != nil {
		return s, err
	}
	if err := base().Distinct("question_id").Count(&s.DistinctQuestions).Error; err != nil {
		return s, err
	}
	return s, nil
}
