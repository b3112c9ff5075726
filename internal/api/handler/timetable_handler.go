package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"school-timetable/backend/internal/dto"
	"school-timetable/backend/internal/service"
	"school-timetable/backend/internal/timetable"
	pkgerrors "school-timetable/backend/pkg/errors"
	"school-timetable/backend/pkg/response"
)

// TimetableHandler 课表生成与发布 HTTP 处理器
type TimetableHandler struct {
	generationSvc  service.GenerationService
	publicationSvc service.PublicationService
}

// NewTimetableHandler 创建 TimetableHandler
func NewTimetableHandler(generationSvc service.GenerationService, publicationSvc service.PublicationService) *TimetableHandler {
	return &TimetableHandler{generationSvc: generationSvc, publicationSvc: publicationSvc}
}

// Snapshot 获取生成前的目录快照
// GET /api/v1/timetable/snapshot
func (h *TimetableHandler) Snapshot(c *gin.Context) {
	snapshot, err := h.generationSvc.LoadDirectorySnapshot(c.Request.Context())
	if err != nil {
		h.handleTimetableError(c, err)
		return
	}

	response.OK(c, snapshot)
}

// Generate 生成课表草稿
// POST /api/v1/timetable/generate
func (h *TimetableHandler) Generate(c *gin.Context) {
	var req dto.GenerateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 14001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.generationSvc.Generate(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleTimetableError(c, err)
		return
	}

	response.Created(c, result)
}

// Latest 获取最近生成的课表
// GET /api/v1/timetable/latest
func (h *TimetableHandler) Latest(c *gin.Context) {
	schedule, err := h.generationSvc.GetLatestSchedule(c.Request.Context())
	if err != nil {
		h.handleTimetableError(c, err)
		return
	}

	response.OK(c, schedule)
}

// ActiveDraft 获取当前待发布草稿
// GET /api/v1/timetable/active-draft
func (h *TimetableHandler) ActiveDraft(c *gin.Context) {
	schedule, err := h.generationSvc.GetActiveDraft(c.Request.Context())
	if err != nil {
		h.handleTimetableError(c, err)
		return
	}

	response.OK(c, schedule)
}

// Get 获取指定课表
// GET /api/v1/timetable/:id
func (h *TimetableHandler) Get(c *gin.Context) {
	id, ok := pathUUID(c, "id", 14004, "课表不存在")
	if !ok {
		return
	}

	schedule, err := h.generationSvc.GetSchedule(c.Request.Context(), id)
	if err != nil {
		h.handleTimetableError(c, err)
		return
	}

	response.OK(c, schedule)
}

// History 分页查询生成历史
// GET /api/v1/timetable/history
func (h *TimetableHandler) History(c *gin.Context) {
	var req dto.ScheduleHistoryRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 14001, "参数校验失败")
		return
	}

	list, total, err := h.generationSvc.ListHistory(c.Request.Context(), &req)
	if err != nil {
		h.handleTimetableError(c, err)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// Publish 发布课表草稿
// POST /api/v1/timetable/:id/publish
func (h *TimetableHandler) Publish(c *gin.Context) {
	publisherID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id", 14004, "课表不存在")
	if !ok {
		return
	}

	result, err := h.publicationSvc.Publish(c.Request.Context(), id, publisherID)
	if err != nil {
		h.handleTimetableError(c, err)
		return
	}

	response.OK(c, result)
}

// handleTimetableError 未找到类错误包裹了 ErrInvalidState，须先于状态冲突判断
func (h *TimetableHandler) handleTimetableError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrScheduleNotFound):
		response.NotFound(c, 14004, "课表不存在")
	case errors.Is(err, service.ErrNoActiveDraft):
		response.NotFound(c, 14005, "当前没有待发布的草稿")
	case errors.Is(err, service.ErrGenerationPrecondition):
		response.UnprocessableEntity(c, 14002, "目录数据不足，无法生成课表", err.Error())
	case errors.Is(err, timetable.ErrInvalidConfig):
		response.ErrorWithDetails(c, http.StatusBadRequest, 14003, "生成参数无效", err.Error())
	case errors.Is(err, service.ErrScheduleNotDraft):
		response.Conflict(c, 15001, "课表已发布")
	case errors.Is(err, service.ErrScheduleNotActiveDraft):
		response.Conflict(c, 15002, "该草稿已被更新的草稿取代")
	case errors.Is(err, service.ErrPublishInProgress):
		response.Conflict(c, 15003, "课表正在发布中，请稍后再试")
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		response.Conflict(c, 15004, "课表已被修改，请刷新后重试")
	default:
		response.InternalError(c)
	}
}
