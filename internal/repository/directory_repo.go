package repository

import (
	"context"

	"gorm.io/gorm"

	"school-timetable/backend/internal/model"
)

// ════════════════════════════════════════════════════════════
// 目录数据（只读）：班级、科目、任课关系、用户档案
// 列表均按 created_at 升序返回（created_at 相同时按主键）
// ════════════════════════════════════════════════════════════

// ProfileRepository 用户档案数据访问接口
type ProfileRepository interface {
	ListAllIDs(ctx context.Context) ([]string, error)
	CountByRole(ctx context.Context, role string) (int64, error)
	ListByIDs(ctx context.Context, ids []string) ([]model.Profile, error)
}

// ClassRepository 班级数据访问接口
type ClassRepository interface {
	List(ctx context.Context) ([]model.SchoolClass, error)
}

// SubjectRepository 科目数据访问接口
type SubjectRepository interface {
	List(ctx context.Context) ([]model.Subject, error)
}

// TeacherSubjectRepository 任课关系数据访问接口
type TeacherSubjectRepository interface {
	List(ctx context.Context) ([]model.TeacherSubject, error)
}

// ── Profile Repository 实现 ──

type profileRepo struct {
	db *gorm.DB
}

// NewProfileRepo 创建 ProfileRepository 实例
func NewProfileRepo(db *gorm.DB) ProfileRepository {
	return &profileRepo{db: db}
}

func (r *profileRepo) ListAllIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&model.Profile{}).
		Order("created_at ASC, user_id ASC").
		Pluck("user_id", &ids).Error
	return ids, err
}

func (r *profileRepo) CountByRole(ctx context.Context, role string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Profile{}).
		Where("role = ?", role).
		Count(&count).Error
	return count, err
}

func (r *profileRepo) ListByIDs(ctx context.Context, ids []string) ([]model.Profile, error) {
	var profiles []model.Profile
	if len(ids) == 0 {
		return profiles, nil
	}
	err := r.db.WithContext(ctx).
		Where("user_id IN ?", ids).
		Find(&profiles).Error
	return profiles, err
}

// ── Class Repository 实现 ──

type classRepo struct {
	db *gorm.DB
}

func NewClassRepo(db *gorm.DB) ClassRepository {
	return &classRepo{db: db}
}

func (r *classRepo) List(ctx context.Context) ([]model.SchoolClass, error) {
	var classes []model.SchoolClass
	err := r.db.WithContext(ctx).
		Order("created_at ASC, class_id ASC").
		Find(&classes).Error
	return classes, err
}

// ── Subject Repository 实现 ──

type subjectRepo struct {
	db *gorm.DB
}

func NewSubjectRepo(db *gorm.DB) SubjectRepository {
	return &subjectRepo{db: db}
}

func (r *subjectRepo) List(ctx context.Context) ([]model.Subject, error) {
	var subjects []model.Subject
	err := r.db.WithContext(ctx).
		Order("created_at ASC, subject_id ASC").
		Find(&subjects).Error
	return subjects, err
}

// ── TeacherSubject Repository 实现 ──

type teacherSubjectRepo struct {
	db *gorm.DB
}

func NewTeacherSubjectRepo(db *gorm.DB) TeacherSubjectRepository {
	return &teacherSubjectRepo{db: db}
}

func (r *teacherSubjectRepo) List(ctx context.Context) ([]model.TeacherSubject, error) {
	var items []model.TeacherSubject
	err := r.db.WithContext(ctx).
		Order("created_at ASC, teacher_subject_id ASC").
		Find(&items).Error
	return items, err
}
