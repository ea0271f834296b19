package handler

import "weekend-planner/backend/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth    *AuthHandler
	Course  *CourseHandler
	Session *SessionHandler
	Planner *PlannerHandler
	Data    *DataHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Auth:    NewAuthHandler(svc.Auth),
		Course:  NewCourseHandler(svc.Course),
		Session: NewSessionHandler(svc.Session),
		Planner: NewPlannerHandler(svc.Planner),
		Data:    NewDataHandler(svc.Data),
	}
}
