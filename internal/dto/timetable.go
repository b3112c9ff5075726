package dto

// ── 课表生成模块 DTO ──

// GenerateScheduleRequest 生成课表请求，时间字段均为 HH:MM
type GenerateScheduleRequest struct {
	SchoolYear            string `json:"school_year"             binding:"required,max=20"`
	WeekdayStart          string `json:"weekday_start"           binding:"required,hhmm"`
	WeekdayEnd            string `json:"weekday_end"             binding:"required,hhmm"`
	WednesdayStart        string `json:"wednesday_start"         binding:"required,hhmm"`
	WednesdayEnd          string `json:"wednesday_end"           binding:"required,hhmm"`
	CourseDurationMinutes int    `json:"course_duration_minutes" binding:"required,min=1,max=240"`
	BreakDurationMinutes  int    `json:"break_duration_minutes"  binding:"min=0,max=120"`
	LunchStart            string `json:"lunch_start"             binding:"required,hhmm"`
	LunchEnd              string `json:"lunch_end"               binding:"required,hhmm"`
	TotalRooms            int    `json:"total_rooms"             binding:"required,min=1"`
	RoomStrategy          string `json:"room_strategy"           binding:"omitempty,oneof=round_robin conflict_free"`
}

// ── 目录快照 ──

// DirectorySnapshotResponse 生成前的目录快照
type DirectorySnapshotResponse struct {
	Classes      []ClassBrief      `json:"classes"`
	Subjects     []SubjectBrief    `json:"subjects"`
	Assignments  []AssignmentBrief `json:"assignments"`
	TeacherCount int               `json:"teacher_count"`
	Ready        bool              `json:"ready"` // 班级、科目、教师均不为空时才可生成
}

// ClassBrief 班级简要信息
type ClassBrief struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Level string `json:"level"`
}

// SubjectBrief 科目简要信息
type SubjectBrief struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// AssignmentBrief 任课关系
type AssignmentBrief struct {
	TeacherID string `json:"teacher_id"`
	SubjectID string `json:"subject_id"`
	IsPrimary bool   `json:"is_primary"`
}

// ── 课表 ──

// ScheduleEntryResponse 课表条目
type ScheduleEntryResponse struct {
	ClassID   string  `json:"class_id"`
	SubjectID string  `json:"subject_id"`
	TeacherID *string `json:"teacher_id"`
	DayOfWeek int     `json:"day_of_week"`
	StartTime string  `json:"start_time"`
	EndTime   string  `json:"end_time"`
	Room      string  `json:"room"`
}

// GenerationConfigResponse 生成配置
type GenerationConfigResponse struct {
	ID                    string `json:"id"`
	SchoolYear            string `json:"school_year"`
	WeekdayStart          string `json:"weekday_start"`
	WeekdayEnd            string `json:"weekday_end"`
	WednesdayStart        string `json:"wednesday_start"`
	WednesdayEnd          string `json:"wednesday_end"`
	CourseDurationMinutes int    `json:"course_duration_minutes"`
	BreakDurationMinutes  int    `json:"break_duration_minutes"`
	LunchStart            string `json:"lunch_start"`
	LunchEnd              string `json:"lunch_end"`
	TotalRooms            int    `json:"total_rooms"`
	RoomStrategy          string `json:"room_strategy"`
}

// GeneratedScheduleResponse 生成课表响应
type GeneratedScheduleResponse struct {
	ID            string                    `json:"id"`
	ConfigID      string                    `json:"config_id"`
	Config        *GenerationConfigResponse `json:"config,omitempty"`
	SchoolYear    string                    `json:"school_year"`
	Status        string                    `json:"status"`
	IsActiveDraft bool                      `json:"is_active_draft"`
	PublishedAt   *string                   `json:"published_at,omitempty"`
	PublishedBy   *string                   `json:"published_by,omitempty"`
	EntryCount    int                       `json:"entry_count"`
	Entries       []ScheduleEntryResponse   `json:"entries,omitempty"`
	Version       int                       `json:"version"`
	CreatedAt     string                    `json:"created_at"`
}

// GenerationSummary 生成结果概要
type GenerationSummary struct {
	EntryCount             int `json:"entry_count"`
	UnassignedTeacherCount int `json:"unassigned_teacher_count"`
	RoomConflictCount      int `json:"room_conflict_count"`
}

// RoomConflictResponse 教室冲突
type RoomConflictResponse struct {
	DayOfWeek int      `json:"day_of_week"`
	StartTime string   `json:"start_time"`
	Room      string   `json:"room"`
	ClassIDs  []string `json:"class_ids"`
}

// GenerationWarnings 需要人工处理的提示
type GenerationWarnings struct {
	UncoveredSubjectIDs []string               `json:"uncovered_subject_ids"`
	RoomConflicts       []RoomConflictResponse `json:"room_conflicts"`
}

// GenerateScheduleResponse 生成课表响应
type GenerateScheduleResponse struct {
	Schedule GeneratedScheduleResponse `json:"schedule"`
	Summary  GenerationSummary         `json:"summary"`
	Warnings GenerationWarnings        `json:"warnings"`
}

// ── 发布 ──

// 条目跳过原因
const (
	SkipReasonNoTeacher = "no_teacher"
	SkipReasonNoCourse  = "no_course"
)

// EntryOutcome 未写入正式课表的条目
type EntryOutcome struct {
	Index     int    `json:"index"` // 在草稿条目中的下标
	ClassID   string `json:"class_id"`
	SubjectID string `json:"subject_id"`
	DayOfWeek int    `json:"day_of_week"`
	StartTime string `json:"start_time"`
	Reason    string `json:"reason,omitempty"`
	Error     string `json:"error,omitempty"`
}

// PublishScheduleResponse 发布结果：逐条尽力写入，未写入的条目逐一列出
type PublishScheduleResponse struct {
	Schedule          GeneratedScheduleResponse `json:"schedule"`
	InsertedCount     int                       `json:"inserted_count"`
	SkippedEntries    []EntryOutcome            `json:"skipped_entries"`
	FailedEntries     []EntryOutcome            `json:"failed_entries"`
	Resumed           bool                      `json:"resumed"` // 上次发布中断，本次只补写缺失的行
	NotifiedCount     int                       `json:"notified_count"`
	NotificationError string                    `json:"notification_error,omitempty"`
}

// ── 生成历史 ──

// ScheduleHistoryRequest 生成历史查询参数，status 为空时不过滤
type ScheduleHistoryRequest struct {
	Page     int    `form:"page"      binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	Status   string `form:"status"    binding:"omitempty,oneof=draft published"`
}

// GetPage 获取页码（含默认值）
func (p *ScheduleHistoryRequest) GetPage() int {
	if p.Page <= 0 {
		return 1
	}
	return p.Page
}

// GetPageSize 获取每页数量（含默认值）
func (p *ScheduleHistoryRequest) GetPageSize() int {
	if p.PageSize <= 0 {
		return 20
	}
	return p.PageSize
}

// GetOffset 计算偏移量
func (p *ScheduleHistoryRequest) GetOffset() int {
	return (p.GetPage() - 1) * p.GetPageSize()
}
