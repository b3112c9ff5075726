package model

import (
	"time"

	"gorm.io/datatypes"
)

// 课表草稿状态
const (
	ScheduleStatusDraft     = "draft"
	ScheduleStatusPublished = "published"
)

// GenerationConfig 课表生成配置表：对应 schedule_generation_configs（写入后不再修改）
type GenerationConfig struct {
	ConfigID              string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"config_id"`
	SchoolYear            string    `gorm:"type:varchar(20);not null"                      json:"school_year"`
	WeekdayStart          string    `gorm:"type:varchar(5);not null"                       json:"weekday_start"`
	WeekdayEnd            string    `gorm:"type:varchar(5);not null"                       json:"weekday_end"`
	WednesdayStart        string    `gorm:"type:varchar(5);not null"                       json:"wednesday_start"`
	WednesdayEnd          string    `gorm:"type:varchar(5);not null"                       json:"wednesday_end"`
	CourseDurationMinutes int       `gorm:"type:smallint;not null"                         json:"course_duration_minutes"`
	BreakDurationMinutes  int       `gorm:"type:smallint;not null;default:0"               json:"break_duration_minutes"`
	LunchStart            string    `gorm:"type:varchar(5);not null"                       json:"lunch_start"`
	LunchEnd              string    `gorm:"type:varchar(5);not null"                       json:"lunch_end"`
	TotalRooms            int       `gorm:"type:smallint;not null"                         json:"total_rooms"`
	RoomStrategy          string    `gorm:"type:varchar(20);not null;default:'round_robin'" json:"room_strategy"`
	CreatedBy             *string   `gorm:"type:uuid"                                      json:"created_by,omitempty"`
	CreatedAt             time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
}

func (GenerationConfig) TableName() string { return "schedule_generation_configs" }

// ScheduleEntry 草稿中的课表条目，以 JSONB 数组形式存放在 generated_schedules.entries
type ScheduleEntry struct {
	ClassID   string  `json:"class_id"`
	SubjectID string  `json:"subject_id"`
	TeacherID *string `json:"teacher_id"`
	DayOfWeek int     `json:"day_of_week"` // 1=周一 … 5=周五
	StartTime string  `json:"start_time"`  // HH:MM
	EndTime   string  `json:"end_time"`
	Room      string  `json:"room"`
}

// GeneratedSchedule 生成的课表：对应 generated_schedules（只追加，不删除）
type GeneratedSchedule struct {
	GeneratedScheduleID string                             `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"generated_schedule_id"`
	ConfigID            string                             `gorm:"type:uuid;not null"                             json:"config_id"`
	SchoolYear          string                             `gorm:"type:varchar(20);not null"                      json:"school_year"`
	Entries             datatypes.JSONSlice[ScheduleEntry] `gorm:"type:jsonb;not null"                            json:"entries"`
	Status              string                             `gorm:"type:varchar(20);not null;default:'draft'"      json:"status"` // draft | published
	PublishedAt         *time.Time                         `json:"published_at,omitempty"`
	PublishedBy         *string                            `gorm:"type:uuid"                                      json:"published_by,omitempty"`
	VersionedModel

	// 关联
	Config *GenerationConfig `gorm:"foreignKey:ConfigID;references:ConfigID" json:"config,omitempty"`
}

func (GeneratedSchedule) TableName() string { return "generated_schedules" }

// IsDraft 是否仍为草稿
func (s *GeneratedSchedule) IsDraft() bool { return s.Status == ScheduleStatusDraft }

// ScheduleGenerationState 生成状态表：对应 schedule_generation_state（单行）
// ActiveDraftID 指向当前唯一可发布的草稿，发布后清空
type ScheduleGenerationState struct {
	Singleton     bool      `gorm:"primaryKey;default:true"            json:"-"`
	ActiveDraftID *string   `gorm:"type:uuid"                          json:"active_draft_id,omitempty"`
	UpdatedAt     time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (ScheduleGenerationState) TableName() string { return "schedule_generation_state" }
