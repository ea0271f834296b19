package model

import "gorm.io/gorm"

// Session 课次表，对应 sessions
// 日期与时间按定长文本存储（YYYY-MM-DD / HH:MM），两种数据库行为一致且可直接按字符串排序
type Session struct {
	SessionID string  `gorm:"column:id;type:varchar(36);primaryKey"       json:"session_id"`
	UserID    *string `gorm:"type:varchar(36);index"                      json:"-"`
	CourseID  string  `gorm:"type:varchar(36);not null;index"             json:"course_id"`
	Date      string  `gorm:"column:session_date;type:varchar(10);not null" json:"date"`
	StartTime string  `gorm:"type:varchar(5);not null"                    json:"start"`
	EndTime   string  `gorm:"type:varchar(5);not null"                    json:"end"`
	BaseModel

	// 关联
	Course *Course `gorm:"foreignKey:CourseID;references:ID;constraint:OnDelete:CASCADE" json:"course,omitempty"`
}

// TableName 指定表名
func (Session) TableName() string { return "sessions" }

// BeforeCreate 填充主键
func (s *Session) BeforeCreate(*gorm.DB) error {
	newID(&s.SessionID)
	return nil
}
