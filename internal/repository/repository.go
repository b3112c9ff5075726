package repository

import "gorm.io/gorm"

// Repository 所有 Repository 的聚合入口
type Repository struct {
	Profile           ProfileRepository
	Class             ClassRepository
	Subject           SubjectRepository
	TeacherSubject    TeacherSubjectRepository
	Course            CourseRepository
	GenerationConfig  GenerationConfigRepository
	GeneratedSchedule GeneratedScheduleRepository
	GenerationState   GenerationStateRepository
	ClassSchedule     ClassScheduleRepository
	Notification      NotificationRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		Profile:           NewProfileRepo(db),
		Class:             NewClassRepo(db),
		Subject:           NewSubjectRepo(db),
		TeacherSubject:    NewTeacherSubjectRepo(db),
		Course:            NewCourseRepo(db),
		GenerationConfig:  NewGenerationConfigRepo(db),
		GeneratedSchedule: NewGeneratedScheduleRepo(db),
		GenerationState:   NewGenerationStateRepo(db),
		ClassSchedule:     NewClassScheduleRepo(db),
		Notification:      NewNotificationRepo(db),
	}
}
