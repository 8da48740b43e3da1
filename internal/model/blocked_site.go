package model

// BlockedSite 用户在专注模式下屏蔽的站点
// swagger:model BlockedSite
type BlockedSite struct {
	BaseModel
	UserID uint   `gorm:"not null;uniqueIndex:uq_blocked_user_host" json:"userId"`
	Domain string `gorm:"size:255;not null;uniqueIndex:uq_blocked_user_host" json:"domain"`
}

func (BlockedSite) TableName() string {
	return "blocked_sites"
}
