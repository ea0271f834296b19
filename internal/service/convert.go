package service

import (
	"time"

	"weekend-planner/backend/config"
	"weekend-planner/backend/internal/dto"
	"weekend-planner/backend/internal/model"
	"weekend-planner/backend/internal/planner"
)

// ── 模型 → 排课核心 ──

func toPlannerCourse(c *model.Course) planner.Course {
	return planner.Course{
		ID:       c.ID,
		Name:     c.Name,
		Credits:  c.Credits,
		Color:    c.Color,
		Type:     c.TypeOrEmpty(),
		Archived: c.Archived,
	}
}

func toPlannerSession(s *model.Session) planner.Session {
	return planner.Session{
		ID:       s.SessionID,
		CourseID: s.CourseID,
		Date:     s.Date,
		Start:    s.StartTime,
		End:      s.EndTime,
	}
}

// ── 模型 → 响应 ──

func toUserResponse(u *model.User) dto.UserResponse {
	return dto.UserResponse{
		ID:        u.UserID,
		Name:      u.Name,
		Email:     u.Email,
		CreatedAt: u.CreatedAt.Format(time.RFC3339),
	}
}

func toCourseResponse(c *model.Course, sessionCount int64) dto.CourseResponse {
	return dto.CourseResponse{
		ID:           c.ID,
		Name:         c.Name,
		Credits:      c.Credits,
		Color:        c.Color,
		Type:         c.CourseType,
		Archived:     c.Archived,
		SessionCount: sessionCount,
	}
}

// toSessionResponse 补充派生字段 day / week_key；日期无法解析时留空
func toSessionResponse(s *model.Session, courseName string) dto.SessionResponse {
	resp := dto.SessionResponse{
		ID:         s.SessionID,
		CourseID:   s.CourseID,
		CourseName: courseName,
		Date:       s.Date,
		Start:      s.StartTime,
		End:        s.EndTime,
	}
	if day, err := planner.DayOfDate(s.Date); err == nil {
		resp.Day = string(day)
	}
	if key, err := planner.WeekKeyForDate(s.Date); err == nil {
		resp.WeekKey = key
	}
	return resp
}

func windowOf(cfg *config.PlannerConfig) planner.Window {
	w := planner.Window{MinHour: cfg.MinHour, MaxHour: cfg.MaxHour}
	if !w.Valid() {
		return planner.DefaultWindow
	}
	return w
}

// locationOf 日历导入导出使用的时区，无效时回退 UTC
func locationOf(cfg *config.PlannerConfig) *time.Location {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func strPtr(s string) *string { return &s }

// optional 空串视为未设置
func optional(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}
