package repository

import (
	"context"
	"time"

	"unimind_backend/internal/model"

	"gorm.io/gorm"
)

type QuestionRepository struct {
	DB *gorm.DB
}

// NewQuestionRepository 创建题目仓库实例
func NewQuestionRepository(db *gorm.DB) *QuestionRepository {
	return &QuestionRepository{DB: db}
}

func (r *QuestionRepository) WithTx(tx *gorm.DB) *QuestionRepository {
	return &QuestionRepository{DB: tx}
}

func (r *QuestionRepository) Create(ctx context.Context, q *model.Question) error {
	return r.DB.WithContext(ctx).Create(q).Error
}

func (r *QuestionRepository) FindByID(ctx context.Context, id string) (*model.Question, error) {
	var q model.Question
	if err := r.DB.WithContext(ctx).First(&q, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &q, nil
}

func (r *QuestionRepository) FindByIDs(ctx context.Context, ids []string) ([]model.Question, error) {
	var qs []model.Question
	if len(ids) == 0 {
		return qs, nil
	}
	err := r.DB.WithContext(ctx).Where("id IN ?", ids).Order("id").Find(&qs).Error
	return qs, err
}

func (r *QuestionRepository) ListByTopics(ctx context.Context, topicIDs []string) ([]model.Question, error) {
	var qs []model.Question
	if len(topicIDs) == 0 {
		return qs, nil
	}
	err := r.DB.WithContext(ctx).Where("topic_id IN ?", topicIDs).Order("topic_id, id").Find(&qs).Error
	return qs, err
}

func (r *QuestionRepository) CountByTopic(ctx context.Context, topicID string) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&model.Question{}).Where("topic_id = ?", topicID).Count(&n).Error
	return n, err
}

// EligibleIDs 返回某知识点下自 since 起该用户未作答的题目 ID，按 ID 排序保证选择可复现
func (r *QuestionRepository) EligibleIDs(ctx context.Context, userID uint, topicID string, since time.Time) ([]string, error) {
	recent := r.DB.Model(&model.Attempt{}).
		Select("question_id").
		Where("user_id = ? AND answered_at >= ?", userID, since.UTC())

	var ids []string
	err := r.DB.WithContext(ctx).Model(&model.Question{}).
		Where("topic_id = ? AND id NOT IN (?)", topicID, recent).
		Order("id").
		Pluck("id", &ids).Error
	return ids, err
}

// ForUser adapts the repository to the selector's question source for one user.
func (r *QuestionRepository) ForUser(userID uint) *UserQuestionSource {
	return &UserQuestionSource{repo: r, userID: userID}
}

type UserQuestionSource struct {
	repo   *QuestionRepository
	userID uint
}

func (s *UserQuestionSource) EligibleQuestions(ctx context.Context, topicID string, answeredSince time.Time) ([]string, error) {
	return s.repo.EligibleIDs(ctx, s.userID, topicID, answeredSince)
}
