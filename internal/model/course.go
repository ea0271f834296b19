package model

import "gorm.io/gorm"

// 课程类型
const (
	CourseTypeMandatory = "mandatory"
	CourseTypeMO        = "mo"
)

// Course 课程表，对应 courses
// (user_id, name) 唯一；user_id 为空表示尚未被认领的历史数据
type Course struct {
	ID         string  `gorm:"column:id;type:varchar(36);primaryKey"                             json:"course_id"`
	UserID     *string `gorm:"type:varchar(36);uniqueIndex:uq_courses_user_name,priority:1"      json:"-"`
	Name       string  `gorm:"type:varchar(200);not null;uniqueIndex:uq_courses_user_name,priority:2" json:"name"`
	Credits    float64 `gorm:"not null;default:0"                                                json:"credits"`
	Color      *string `gorm:"type:varchar(16)"                                                  json:"color,omitempty"`
	CourseType *string `gorm:"type:varchar(16)"                                                  json:"type,omitempty"`
	Archived   bool    `gorm:"not null;default:false"                                            json:"archived"`
	BaseModel
}

// TableName 指定表名
func (Course) TableName() string { return "courses" }

// BeforeCreate 填充主键
func (c *Course) BeforeCreate(*gorm.DB) error {
	newID(&c.ID)
	return nil
}

// TypeOrEmpty 课程类型，未设置时为空串
func (c *Course) TypeOrEmpty() string {
	if c.CourseType == nil {
		return ""
	}
	return *c.CourseType
}

// CourseWithCount 课程及其会话数量（列表查询结果）
type CourseWithCount struct {
	Course
	SessionCount int64 `gorm:"column:session_count" json:"session_count"`
}
