package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"weekend-planner/backend/internal/api/validate"
	"weekend-planner/backend/internal/dto"
	"weekend-planner/backend/internal/service"
	"weekend-planner/backend/pkg/response"
)

// PlannerHandler 排课视图 HTTP 处理器，全部只读（Resolve 除外）
type PlannerHandler struct {
	svc service.PlannerService
}

// NewPlannerHandler 创建 PlannerHandler
func NewPlannerHandler(svc service.PlannerService) *PlannerHandler {
	return &PlannerHandler{svc: svc}
}

// ListWeeks 全部周末
// GET /api/v1/planner/weeks
func (h *PlannerHandler) ListWeeks(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	weeks, err := h.svc.Weeks(c.Request.Context(), userID)
	if err != nil {
		handlePlannerError(c, err)
		return
	}
	response.OK(c, weeks)
}

// GetWeekGrid 单周布局
// GET /api/v1/planner/grid?week=2024-05-18
func (h *PlannerHandler) GetWeekGrid(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	var q dto.WeekQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, 10001, "参数校验失败", validate.Details(err))
		return
	}

	grid, err := h.svc.WeekGrid(c.Request.Context(), userID, q.Week)
	if err != nil {
		handlePlannerError(c, err)
		return
	}
	response.OK(c, grid)
}

// GetMatrix 多周总览
// GET /api/v1/planner/matrix?courses=A&courses=B
func (h *PlannerHandler) GetMatrix(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	var q dto.MatrixQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	// 同时支持 courses=A,B
	var names []string
	for _, v := range q.Courses {
		names = append(names, strings.Split(v, ",")...)
	}

	rows, err := h.svc.Matrix(c.Request.Context(), userID, names)
	if err != nil {
		handlePlannerError(c, err)
		return
	}
	response.OK(c, rows)
}

// ListConflicts 冲突列表，week 为空时为全局
// GET /api/v1/planner/conflicts?week=2024-05-18
func (h *PlannerHandler) ListConflicts(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	var q dto.WeekQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, 10001, "参数校验失败", validate.Details(err))
		return
	}

	result, err := h.svc.Conflicts(c.Request.Context(), userID, q.Week)
	if err != nil {
		handlePlannerError(c, err)
		return
	}
	response.OK(c, result)
}

// GetStats 统计：课次数、周数、冲突对数与学分
// GET /api/v1/planner/stats
func (h *PlannerHandler) GetStats(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	stats, err := h.svc.Stats(c.Request.Context(), userID)
	if err != nil {
		handlePlannerError(c, err)
		return
	}
	response.OK(c, stats)
}

// ResolveConflict 归档冲突中的一门课程，返回重新计算的冲突列表
// POST /api/v1/planner/conflicts/resolve
func (h *PlannerHandler) ResolveConflict(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	var req dto.ResolveConflictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.svc.Resolve(c.Request.Context(), userID, &req)
	if err != nil {
		handlePlannerError(c, err)
		return
	}
	response.OK(c, result)
}

func handlePlannerError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrWeekNotFound):
		response.NotFound(c, 14001, "该周末没有课次")
	case errors.Is(err, service.ErrResolveSameCourse):
		response.BadRequest(c, 14002, "保留与归档的课程不能相同")
	case errors.Is(err, service.ErrCourseNotFound):
		response.NotFound(c, 12001, "课程不存在")
	default:
		response.InternalError(c)
	}
}
