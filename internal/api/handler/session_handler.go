package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"weekend-planner/backend/internal/api/validate"
	"weekend-planner/backend/internal/dto"
	"weekend-planner/backend/internal/service"
	"weekend-planner/backend/pkg/response"
)

// SessionHandler 课次模块 HTTP 处理器
type SessionHandler struct {
	svc service.SessionService
}

// NewSessionHandler 创建 SessionHandler
func NewSessionHandler(svc service.SessionService) *SessionHandler {
	return &SessionHandler{svc: svc}
}

// ListSessions 课次列表，可按 week 过滤
// GET /api/v1/sessions?week=2024-05-18
func (h *SessionHandler) ListSessions(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	var q dto.ListSessionsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, 10001, "参数校验失败", validate.Details(err))
		return
	}

	list, err := h.svc.List(c.Request.Context(), userID, q.Week)
	if err != nil {
		handleSessionError(c, err)
		return
	}
	response.OK(c, list)
}

// CreateSession 新建课次
// POST /api/v1/sessions
func (h *SessionHandler) CreateSession(c *gin.Context) {
	h.save(c, "")
}

// UpdateSession 修改课次
// PUT /api/v1/sessions/:id
func (h *SessionHandler) UpdateSession(c *gin.Context) {
	h.save(c, c.Param("id"))
}

func (h *SessionHandler) save(c *gin.Context, id string) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	var req dto.SaveSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, 10001, "参数校验失败", validate.Details(err))
		return
	}

	result, err := h.svc.Save(c.Request.Context(), userID, id, &req)
	if err != nil {
		handleSessionError(c, err)
		return
	}
	if id == "" {
		response.Created(c, result)
		return
	}
	response.OK(c, result)
}

// BulkCreateSessions 为同一课程批量创建课次
// POST /api/v1/sessions/bulk
func (h *SessionHandler) BulkCreateSessions(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	var req dto.BulkCreateSessionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, 10001, "参数校验失败", validate.Details(err))
		return
	}

	result, err := h.svc.BulkCreate(c.Request.Context(), userID, &req)
	if err != nil {
		handleSessionError(c, err)
		return
	}
	response.Created(c, result)
}

// DeleteSession 删除课次
// DELETE /api/v1/sessions/:id
func (h *SessionHandler) DeleteSession(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), userID, c.Param("id")); err != nil {
		handleSessionError(c, err)
		return
	}
	response.OK(c, nil)
}

func handleSessionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		response.NotFound(c, 13001, "课次不存在")
	case errors.Is(err, service.ErrInvalidDate):
		response.BadRequest(c, 13002, "日期格式必须为 YYYY-MM-DD")
	case errors.Is(err, service.ErrInvalidTimeRange):
		response.BadRequest(c, 13003, "结束时间必须晚于开始时间")
	case errors.Is(err, service.ErrOutsideWindow):
		response.Unprocessable(c, 13004, "课次超出可排课时间范围")
	case errors.Is(err, service.ErrCourseNameEmpty):
		response.BadRequest(c, 12003, "课程名称不能为空")
	default:
		response.InternalError(c)
	}
}
