package repository

import (
	"context"

	"gorm.io/gorm"

	"school-timetable/backend/internal/model"
)

// CourseRepository 课程数据访问接口（发布流程只查不建）
type CourseRepository interface {
	// FindByClassAndSubject 未找到时返回 gorm.ErrRecordNotFound
	FindByClassAndSubject(ctx context.Context, classID, subjectID string) (*model.Course, error)
}

type courseRepo struct {
	db *gorm.DB
}

func NewCourseRepo(db *gorm.DB) CourseRepository {
	return &courseRepo{db: db}
}

func (r *courseRepo) FindByClassAndSubject(ctx context.Context, classID, subjectID string) (*model.Course, error) {
	var course model.Course
	err := r.db.WithContext(ctx).
		Where("class_id = ? AND subject_id = ?", classID, subjectID).
		Order("created_at ASC").
		First(&course).Error
	if err != nil {
		return nil, err
	}
	return &course, nil
}
