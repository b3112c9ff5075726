package handler

import (
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"

	"school-timetable/backend/internal/service"
	"school-timetable/backend/pkg/response"
)

const (
	xlsxContentType     = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	calendarContentType = "text/calendar; charset=utf-8"
)

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportSchedule 导出课表
// GET /api/v1/timetable/:id/export
func (h *ExportHandler) ExportSchedule(c *gin.Context) {
	id, ok := pathUUID(c, "id", 16101, "课表不存在")
	if !ok {
		return
	}

	buf, filename, err := h.exportSvc.ExportSchedule(c.Request.Context(), id)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	attachment(c, filename, xlsxContentType, buf.Bytes())
}

// ExportClassCalendar 导出班级 iCalendar
// GET /api/v1/timetable/:id/classes/:classId/calendar?from=2025-09-01
func (h *ExportHandler) ExportClassCalendar(c *gin.Context) {
	id, ok := pathUUID(c, "id", 16101, "课表不存在")
	if !ok {
		return
	}
	classID, ok := pathUUID(c, "classId", 16103, "课表中没有该班级")
	if !ok {
		return
	}

	var from time.Time
	if raw := c.Query("from"); raw != "" {
		t, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			response.BadRequest(c, 16001, "from 必须为 YYYY-MM-DD 格式")
			return
		}
		from = t
	}

	buf, filename, err := h.exportSvc.ExportClassCalendar(c.Request.Context(), id, classID, from)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	attachment(c, filename, calendarContentType, buf.Bytes())
}

// attachment 设置下载响应头并写出文件
func attachment(c *gin.Context, filename, contentType string, data []byte) {
	encodedFilename := url.QueryEscape(filename)
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+encodedFilename)
	c.Data(http.StatusOK, contentType, data)
}

func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrScheduleNotFound):
		response.NotFound(c, 16101, "课表不存在")
	case errors.Is(err, service.ErrExportNoEntries):
		response.BadRequest(c, 16102, "课表中无条目")
	case errors.Is(err, service.ErrExportClassNotInSchedule):
		response.NotFound(c, 16103, "课表中没有该班级")
	default:
		response.InternalError(c)
	}
}
