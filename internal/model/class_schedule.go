package model

// ClassSchedule 正式课表行：对应 class_schedules，仅由发布流程写入
type ClassSchedule struct {
	ClassScheduleID  string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"class_schedule_id"`
	ClassID          string  `gorm:"type:uuid;not null"                             json:"class_id"`
	CourseID         string  `gorm:"type:uuid;not null"                             json:"course_id"`
	DayOfWeek        int     `gorm:"type:smallint;not null"                         json:"day_of_week"`
	StartTime        string  `gorm:"type:varchar(5);not null"                       json:"start_time"`
	EndTime          string  `gorm:"type:varchar(5);not null"                       json:"end_time"`
	Room             string  `gorm:"type:varchar(50);not null"                      json:"room"`
	SchoolYear       string  `gorm:"type:varchar(20);not null"                      json:"school_year"`
	SourceScheduleID *string `gorm:"type:uuid"                                      json:"source_schedule_id,omitempty"`
	BaseModel
}

func (ClassSchedule) TableName() string { return "class_schedules" }
