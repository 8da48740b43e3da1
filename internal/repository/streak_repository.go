package repository

import (
	"context"

	"unimind_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type StreakRepository struct {
	DB *gorm.DB
}

// NewStreakRepository 创建连续学习记录仓库实例
func NewStreakRepository(db *gorm.DB) *StreakRepository {
	return &StreakRepository{DB: db}
}

func (r *StreakRepository) WithTx(tx *gorm.DB) *StreakRepository {
	return &StreakRepository{DB: tx}
}

// Find 返回用户的连续学习记录，不存在时返回 nil，不会创建记录
func (r *StreakRepository) Find(ctx context.Context, userID uint) (*model.DailyStreak, error) {
	var s model.DailyStreak
	err := r.DB.WithContext(ctx).Where("user_id = ?", userID).Limit(1).Find(&s).Error
	if err != nil || s.UserID == 0 {
		return nil, err
	}
	return &s, nil
}

// GetForUpdate returns the locked row, creating an empty one (no active date) when missing.
func (r *StreakRepository) GetForUpdate(ctx context.Context, userID uint) (*model.DailyStreak, error) {
	db := r.DB.WithContext(ctx)
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&model.DailyStreak{UserID: userID}).Error; err != nil {
		return nil, err
	}
	var s model.DailyStreak
	err := db.Clauses(clause.Locking{Strength: "UPDATE"}).Where("user_id = ?", userID).First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *StreakRepository) Save(ctx context.Context, s *model.DailyStreak) error {
	return r.DB.WithContext(ctx).Save(s).Error
}
