package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Timestamps 由 gorm 在写入时维护
type Timestamps struct {
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// BaseModel 自增主键并软删除，用于账号类数据（用户、屏蔽站点）
// swagger:model
type BaseModel struct {
	ID uint `gorm:"primaryKey;autoIncrement" json:"id"`
	Timestamps
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// UUIDBase 字符串主键，用于会下发给客户端的内容（主题、题目）
// swagger:model
type UUIDBase struct {
	ID string `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Timestamps
}

func (b *UUIDBase) BeforeCreate(*gorm.DB) error {
	ensureID(&b.ID)
	return nil
}

// NewID 生成内容行和答题记录使用的主键
func NewID() string {
	return uuid.NewString()
}

func ensureID(id *string) {
	if *id == "" {
		*id = NewID()
	}
}
