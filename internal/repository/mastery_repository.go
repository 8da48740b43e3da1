package repository

import (
	"context"

	"unimind_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MasteryRepository struct {
	DB *gorm.DB
}

// NewMasteryRepository 创建掌握度仓库实例
func NewMasteryRepository(db *gorm.DB) *MasteryRepository {
	return &MasteryRepository{DB: db}
}

func (r *MasteryRepository) WithTx(tx *gorm.DB) *MasteryRepository {
	return &MasteryRepository{DB: tx}
}

// Find 返回掌握度记录，不存在时返回 nil
func (r *MasteryRepository) Find(ctx context.Context, userID uint, topicID string) (*model.TopicMastery, error) {
	var m model.TopicMastery
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND topic_id = ?", userID, topicID).
		Limit(1).Find(&m).Error
	if err != nil || m.TopicID == "" {
		return nil, err
	}
	return &m, nil
}

// GetForUpdate creates the row with defaultRating if missing and returns it locked for the
// rest of the transaction. Must be called inside a transaction.
func (r *MasteryRepository) GetForUpdate(ctx context.Context, userID uint, topicID string, defaultRating float64) (*model.TopicMastery, error) {
	db := r.DB.WithContext(ctx)
	seed := model.TopicMastery{UserID: userID, TopicID: topicID, Rating: defaultRating}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&seed).Error; err != nil {
		return nil, err
	}
	var m model.TopicMastery
	err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND topic_id = ?", userID, topicID).
		First(&m).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *MasteryRepository) Save(ctx context.Context, m *model.TopicMastery) error {
	return r.DB.WithContext(ctx).Save(m).Error
}

func (r *MasteryRepository) ListByUser(ctx context.Context, userID uint) ([]model.TopicMastery, error) {
	var rows []model.TopicMastery
	err := r.DB.WithContext(ctx).Where("user_id = ?", userID).Order("topic_id").Find(&rows).Error
	return rows, err
}

type MetricRepository struct {
	DB *gorm.DB
}

// NewMetricRepository 创建题目复习指标仓库实例
func NewMetricRepository(db *gorm.DB) *MetricRepository {
	return &MetricRepository{DB: db}
}

func (r *MetricRepository) WithTx(tx *gorm.DB) *MetricRepository {
	return &MetricRepository{DB: tx}
}

// GetForUpdate creates the row with initialAccuracy if missing and returns it locked.
func (r *MetricRepository) GetForUpdate(ctx context.Context, userID uint, questionID string, initialAccuracy float64) (*model.QuestionMetric, error) {
	db := r.DB.WithContext(ctx)
	seed := model.QuestionMetric{UserID: userID, QuestionID: questionID, RollingAccuracy: initialAccuracy}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&seed).Error; err != nil {
		return nil, err
	}
	var m model.QuestionMetric
	err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND question_id = ?", userID, questionID).
		First(&m).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *MetricRepository) Save(ctx context.Context, m *model.QuestionMetric) error {
	return r.DB.WithContext(ctx).Save(m).Error
}

func (r *MetricRepository) ListByUser(ctx context.Context, userID uint) ([]model.QuestionMetric, error) {
	var rows []model.QuestionMetric
	err := r.DB.WithContext(ctx).Where("user_id = ?", userID).Order("question_id").Find(&rows).Error
	return rows, err
}
