package service

import (
	"time"

	"school-timetable/backend/internal/dto"
	"school-timetable/backend/internal/model"
	"school-timetable/backend/internal/timetable"
)

const timeLayout = "2006-01-02T15:04:05Z07:00"

// ── 引擎结果 → 持久化模型 ──

func toEntryModels(entries []timetable.Entry) []model.ScheduleEntry {
	out := make([]model.ScheduleEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, model.ScheduleEntry{
			ClassID:   e.ClassID,
			SubjectID: e.SubjectID,
			TeacherID: e.TeacherID,
			DayOfWeek: e.DayOfWeek,
			StartTime: e.StartTime.String(),
			EndTime:   e.EndTime.String(),
			Room:      e.Room,
		})
	}
	return out
}

// ── 持久化模型 → 响应 ──

func toEntryResponses(entries []model.ScheduleEntry) []dto.ScheduleEntryResponse {
	out := make([]dto.ScheduleEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, dto.ScheduleEntryResponse{
			ClassID:   e.ClassID,
			SubjectID: e.SubjectID,
			TeacherID: e.TeacherID,
			DayOfWeek: e.DayOfWeek,
			StartTime: e.StartTime,
			EndTime:   e.EndTime,
			Room:      e.Room,
		})
	}
	return out
}

func toConfigResponse(c *model.GenerationConfig) *dto.GenerationConfigResponse {
	if c == nil {
		return nil
	}
	return &dto.GenerationConfigResponse{
		ID:                    c.ConfigID,
		SchoolYear:            c.SchoolYear,
		WeekdayStart:          c.WeekdayStart,
		WeekdayEnd:            c.WeekdayEnd,
		WednesdayStart:        c.WednesdayStart,
		WednesdayEnd:          c.WednesdayEnd,
		CourseDurationMinutes: c.CourseDurationMinutes,
		BreakDurationMinutes:  c.BreakDurationMinutes,
		LunchStart:            c.LunchStart,
		LunchEnd:              c.LunchEnd,
		TotalRooms:            c.TotalRooms,
		RoomStrategy:          c.RoomStrategy,
	}
}

// toScheduleResponse withEntries=false 用于列表等不需要条目内容的场景
func toScheduleResponse(s *model.GeneratedSchedule, activeDraftID *string, withEntries bool) dto.GeneratedScheduleResponse {
	resp := dto.GeneratedScheduleResponse{
		ID:            s.GeneratedScheduleID,
		ConfigID:      s.ConfigID,
		Config:        toConfigResponse(s.Config),
		SchoolYear:    s.SchoolYear,
		Status:        s.Status,
		IsActiveDraft: activeDraftID != nil && *activeDraftID == s.GeneratedScheduleID,
		PublishedBy:   s.PublishedBy,
		EntryCount:    len(s.Entries),
		Version:       s.Version,
		CreatedAt:     formatTime(s.CreatedAt),
	}
	if s.PublishedAt != nil {
		t := formatTime(*s.PublishedAt)
		resp.PublishedAt = &t
	}
	if withEntries {
		resp.Entries = toEntryResponses(s.Entries)
	}
	return resp
}

func toRoomConflictResponses(conflicts []timetable.RoomConflict) []dto.RoomConflictResponse {
	out := make([]dto.RoomConflictResponse, 0, len(conflicts))
	for _, c := range conflicts {
		out = append(out, dto.RoomConflictResponse{
			DayOfWeek: c.DayOfWeek,
			StartTime: c.StartTime.String(),
			Room:      c.Room,
			ClassIDs:  c.ClassIDs,
		})
	}
	return out
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}
