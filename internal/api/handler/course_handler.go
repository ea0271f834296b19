package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"weekend-planner/backend/internal/api/validate"
	"weekend-planner/backend/internal/dto"
	"weekend-planner/backend/internal/service"
	"weekend-planner/backend/pkg/response"
)

// CourseHandler 课程模块 HTTP 处理器
type CourseHandler struct {
	svc service.CourseService
}

// NewCourseHandler 创建 CourseHandler
func NewCourseHandler(svc service.CourseService) *CourseHandler {
	return &CourseHandler{svc: svc}
}

// ListCourses 课程列表，archived=true 时返回已归档课程
// GET /api/v1/courses
func (h *CourseHandler) ListCourses(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	archived, _ := strconv.ParseBool(c.DefaultQuery("archived", "false"))

	list, err := h.svc.List(c.Request.Context(), userID, archived)
	if err != nil {
		handleCourseError(c, err)
		return
	}
	response.OK(c, list)
}

// CreateCourse 创建课程（同名 upsert）
// POST /api/v1/courses
func (h *CourseHandler) CreateCourse(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	var req dto.CreateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, 10001, "参数校验失败", validate.Details(err))
		return
	}

	result, err := h.svc.Create(c.Request.Context(), userID, &req)
	if err != nil {
		handleCourseError(c, err)
		return
	}
	response.Created(c, result)
}

// UpdateCourse 修改课程
// PUT /api/v1/courses/:id
func (h *CourseHandler) UpdateCourse(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	var req dto.UpdateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, 10001, "参数校验失败", validate.Details(err))
		return
	}

	result, err := h.svc.Update(c.Request.Context(), userID, c.Param("id"), &req)
	if err != nil {
		handleCourseError(c, err)
		return
	}
	response.OK(c, result)
}

// SetColor 按课程名设置颜色
// PUT /api/v1/courses/color
func (h *CourseHandler) SetColor(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	var req dto.SetColorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, 10001, "参数校验失败", validate.Details(err))
		return
	}

	if err := h.svc.SetColorByName(c.Request.Context(), userID, &req); err != nil {
		handleCourseError(c, err)
		return
	}
	response.OK(c, nil)
}

// ArchiveCourse 归档课程
// POST /api/v1/courses/:id/archive
func (h *CourseHandler) ArchiveCourse(c *gin.Context) {
	h.setArchived(c, true)
}

// UnarchiveCourse 取消归档
// POST /api/v1/courses/:id/unarchive
func (h *CourseHandler) UnarchiveCourse(c *gin.Context) {
	h.setArchived(c, false)
}

func (h *CourseHandler) setArchived(c *gin.Context, archived bool) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	if err := h.svc.SetArchived(c.Request.Context(), userID, c.Param("id"), archived); err != nil {
		handleCourseError(c, err)
		return
	}
	response.OK(c, nil)
}

// MergeCourses 合并课程
// POST /api/v1/courses/merge
func (h *CourseHandler) MergeCourses(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	var req dto.MergeCoursesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.svc.Merge(c.Request.Context(), userID, &req)
	if err != nil {
		handleCourseError(c, err)
		return
	}
	response.OK(c, result)
}

// GetCredits 学分汇总
// GET /api/v1/courses/credits
func (h *CourseHandler) GetCredits(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	result, err := h.svc.Credits(c.Request.Context(), userID)
	if err != nil {
		handleCourseError(c, err)
		return
	}
	response.OK(c, result)
}

func handleCourseError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrCourseNotFound):
		response.NotFound(c, 12001, "课程不存在")
	case errors.Is(err, service.ErrCourseNameTaken):
		response.Conflict(c, 12002, "课程名称已存在")
	case errors.Is(err, service.ErrCourseNameEmpty):
		response.BadRequest(c, 12003, "课程名称不能为空")
	case errors.Is(err, service.ErrMergeSameCourse):
		response.BadRequest(c, 12004, "不能将课程合并到自身")
	default:
		response.InternalError(c)
	}
}
