package repository

import (
	"context"

	"unimind_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BlockedSiteRepository struct {
	DB *gorm.DB
}

func NewBlockedSiteRepository(db *gorm.DB) *BlockedSiteRepository {
	return &BlockedSiteRepository{DB: db}
}

func (r *BlockedSiteRepository) List(ctx context.Context, userID uint) ([]model.BlockedSite, error) {
	var sites []model.BlockedSite
	err := r.DB.WithContext(ctx).Where("user_id = ?", userID).Order("created_at, id").Find(&sites).Error
	return sites, err
}

// Add 屏蔽站点，重复添加返回 ErrDuplicate
func (r *BlockedSiteRepository) Add(ctx context.Context, site *model.BlockedSite) error {
	res := r.DB.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(site)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrDuplicate
	}
	return nil
}

// Remove 删除用户自己的屏蔽站点，返回是否删除了记录
func (r *BlockedSiteRepository) Remove(ctx context.Context, userID, siteID uint) (bool, error) {
	res := r.DB.WithContext(ctx).Unscoped().
		Where("id = ? AND user_id = ?", siteID, userID).
		Delete(&model.BlockedSite{})
	return res.RowsAffected > 0, res.Error
}
