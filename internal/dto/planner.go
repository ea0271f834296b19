package dto

import "weekend-planner/backend/internal/planner"

// ── 排课视图 DTO ──

// WeekQuery 周次参数：任意日期，按所属周末归并
type WeekQuery struct {
	Week string `form:"week" binding:"omitempty,isodate"`
}

// MatrixQuery 多周总览参数，courses 为课程名过滤
type MatrixQuery struct {
	Courses []string `form:"courses"`
}

// ResolveConflictRequest 解决冲突：归档其中一门课程
type ResolveConflictRequest struct {
	ArchiveCourseID string `json:"archive_course_id" binding:"required"`
	KeepCourseID    string `json:"keep_course_id"`
}

// ConflictListResponse 冲突列表
type ConflictListResponse struct {
	Week      string             `json:"week,omitempty"`
	Total     int                `json:"total"`
	Conflicts []planner.Conflict `json:"conflicts"`
}

// WeekGridResponse 单周视图
type WeekGridResponse struct {
	Grid      planner.Grid       `json:"grid"`
	Sessions  []SessionResponse  `json:"sessions"`
	Conflicts []planner.Conflict `json:"conflicts"`
	MinHour   int                `json:"min_hour"`
	MaxHour   int                `json:"max_hour"`
}

// StatsResponse 统计：冲突课程对数量与学分
type StatsResponse struct {
	SessionCount    int             `json:"session_count"`
	WeekCount       int             `json:"week_count"`
	GlobalConflicts int             `json:"global_conflicts"`
	WeekConflicts   map[string]int  `json:"week_conflicts"`
	Credits         planner.Credits `json:"credits"`
}
