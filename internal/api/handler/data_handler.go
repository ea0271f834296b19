package handler

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"weekend-planner/backend/internal/dto"
	"weekend-planner/backend/internal/service"
	"weekend-planner/backend/pkg/response"
)

const (
	contentTypeCSV  = "text/csv; charset=utf-8"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypeICS  = "text/calendar; charset=utf-8"
)

// DataHandler 导入导出 HTTP 处理器
type DataHandler struct {
	svc service.DataService
}

// NewDataHandler 创建 DataHandler
func NewDataHandler(svc service.DataService) *DataHandler {
	return &DataHandler{svc: svc}
}

// ── 导出 ──

// ExportJSON 完整备份
// GET /api/v1/data/export/json
func (h *DataHandler) ExportJSON(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	data, err := h.svc.ExportJSON(c.Request.Context(), userID)
	if err != nil {
		handleDataError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="weekend-planner-backup.json"`)
	c.IndentedJSON(http.StatusOK, data)
}

// ExportCSV 导出 CSV
// GET /api/v1/data/export/csv
func (h *DataHandler) ExportCSV(c *gin.Context) {
	h.download(c, h.svc.ExportCSV, contentTypeCSV)
}

// ExportXLSX 导出 Excel 总览
// GET /api/v1/data/export/xlsx
func (h *DataHandler) ExportXLSX(c *gin.Context) {
	h.download(c, h.svc.ExportXLSX, contentTypeXLSX)
}

// ExportICS 导出日历
// GET /api/v1/data/export/ics
func (h *DataHandler) ExportICS(c *gin.Context) {
	h.download(c, h.svc.ExportICS, contentTypeICS)
}

type exportFunc = func(ctx context.Context, userID string) (*bytes.Buffer, string, error)

func (h *DataHandler) download(c *gin.Context, export exportFunc, contentType string) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	buf, filename, err := export(c.Request.Context(), userID)
	if err != nil {
		handleDataError(c, err)
		return
	}
	response.Attachment(c, filename, contentType, buf.Bytes())
}

// ── 导入 ──

// ImportJSON 用备份替换当前全部数据
// POST /api/v1/data/import/json
//
// 支持 application/json 请求体或 multipart/form-data 的 file 字段
func (h *DataHandler) ImportJSON(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	body, err := uploadedBody(c)
	if err != nil {
		response.BadRequest(c, 15000, "请上传备份文件")
		return
	}
	defer body.Close()

	raw, err := io.ReadAll(body)
	if err != nil {
		response.Error(c, http.StatusRequestEntityTooLarge, 10005, "请求体过大")
		return
	}
	var data dto.ExportData
	if err := binding.JSON.BindBody(raw, &data); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, 15001, "备份文件格式无效", err.Error())
		return
	}

	result, err := h.svc.ImportJSON(c.Request.Context(), userID, &data)
	if err != nil {
		handleDataError(c, err)
		return
	}
	response.OK(c, result)
}

// ImportCSV 导入 CSV，按课程名追加课次
// POST /api/v1/data/import/csv
func (h *DataHandler) ImportCSV(c *gin.Context) {
	h.importFile(c, h.svc.ImportCSV)
}

// ImportICS 导入 ICS 日历
// POST /api/v1/data/import/ics
func (h *DataHandler) ImportICS(c *gin.Context) {
	h.importFile(c, h.svc.ImportICS)
}

type importFunc = func(ctx context.Context, userID string, r io.Reader) (*dto.ImportResult, error)

func (h *DataHandler) importFile(c *gin.Context, imp importFunc) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	body, err := uploadedBody(c)
	if err != nil {
		response.BadRequest(c, 15000, "请上传文件")
		return
	}
	defer body.Close()

	result, err := imp(c.Request.Context(), userID, body)
	if err != nil {
		handleDataError(c, err)
		return
	}
	response.Created(c, result)
}

// uploadedBody multipart 上传时取 file 字段，否则直接读请求体
func uploadedBody(c *gin.Context) (io.ReadCloser, error) {
	if c.ContentType() == binding.MIMEMultipartPOSTForm {
		file, _, err := c.Request.FormFile("file")
		if err != nil {
			return nil, err
		}
		return file, nil
	}
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return nil, errors.New("empty body")
	}
	return c.Request.Body, nil
}

func handleDataError(c *gin.Context, err error) {
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxErr):
		response.Error(c, http.StatusRequestEntityTooLarge, 10005, "请求体过大")
	case errors.Is(err, service.ErrImportEmpty):
		response.BadRequest(c, 15002, "导入文件中没有可用数据")
	case errors.Is(err, service.ErrImportInvalid):
		response.ErrorWithDetails(c, http.StatusBadRequest, 15001, "导入数据无效", err.Error())
	case errors.Is(err, service.ErrExportGenerateFail):
		response.InternalError(c)
	default:
		response.InternalError(c)
	}
}
