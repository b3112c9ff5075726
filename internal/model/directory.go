package model

import "time"

// 用户角色
const (
	RoleAdmin     = "admin"
	RolePrincipal = "principal"
	RoleTeacher   = "teacher"
	RoleStudent   = "student"
	RoleParent    = "parent"
)

// Profile 用户档案表：对应 profiles（账号与认证由外部服务管理）
type Profile struct {
	UserID   string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"user_id"`
	FullName string  `gorm:"type:varchar(150);not null"                     json:"full_name"`
	Email    *string `gorm:"type:varchar(255)"                              json:"email,omitempty"`
	Role     string  `gorm:"type:varchar(30);not null;default:'student'"    json:"role"`
	BaseModel
}

func (Profile) TableName() string { return "profiles" }

// SchoolClass 班级表：对应 classes
type SchoolClass struct {
	ClassID    string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"class_id"`
	Name       string `gorm:"type:varchar(100);not null"                     json:"name"`
	Level      string `gorm:"type:varchar(30);not null"                      json:"level"`
	Cycle      string `gorm:"type:varchar(30);not null;default:''"           json:"cycle"` // 学段，如 初中/高中
	SchoolYear string `gorm:"type:varchar(20);not null"                      json:"school_year"`
	BaseModel
}

func (SchoolClass) TableName() string { return "classes" }

// Subject 科目表：对应 subjects
type Subject struct {
	SubjectID   string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"subject_id"`
	Name        string  `gorm:"type:varchar(100);not null"                     json:"name"`
	Code        *string `gorm:"type:varchar(20)"                               json:"code,omitempty"`
	Coefficient float64 `gorm:"type:numeric(4,2);not null;default:1"           json:"coefficient"`
	BaseModel
}

func (Subject) TableName() string { return "subjects" }

// TeacherSubject 教师任课关系表：对应 teacher_subjects
type TeacherSubject struct {
	TeacherSubjectID string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"teacher_subject_id"`
	TeacherID        string    `gorm:"type:uuid;not null"                             json:"teacher_id"`
	SubjectID        string    `gorm:"type:uuid;not null"                             json:"subject_id"`
	IsPrimary        bool      `gorm:"not null;default:false"                         json:"is_primary"`
	CreatedAt        time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
}

func (TeacherSubject) TableName() string { return "teacher_subjects" }

// Course 课程表：对应 courses，(班级, 科目) 唯一确定一门课程
type Course struct {
	CourseID  string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"course_id"`
	ClassID   string  `gorm:"type:uuid;not null"                             json:"class_id"`
	SubjectID string  `gorm:"type:uuid;not null"                             json:"subject_id"`
	TeacherID *string `gorm:"type:uuid"                                      json:"teacher_id,omitempty"`
	Title     string  `gorm:"type:varchar(200);not null"                     json:"title"`
	BaseModel
}

func (Course) TableName() string { return "courses" }
