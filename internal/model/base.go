package model

import (
	"time"

	"github.com/google/uuid"
)

// BaseModel 通用审计字段（所有业务模型嵌入）
type BaseModel struct {
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// newID 生成记录主键；PostgreSQL 与 SQLite 共用同一套由应用生成的字符串主键
func newID(id *string) {
	if *id == "" {
		*id = uuid.NewString()
	}
}
