package repository

import (
	"context"

	"gorm.io/gorm"

	"school-timetable/backend/internal/model"
)

// notificationBatchSize 通知批量写入的分批大小
const notificationBatchSize = 500

// ClassScheduleRepository 正式课表数据访问接口
type ClassScheduleRepository interface {
	Create(ctx context.Context, row *model.ClassSchedule) error
	ListBySource(ctx context.Context, scheduleID string) ([]model.ClassSchedule, error)
}

// NotificationRepository 通知数据访问接口
type NotificationRepository interface {
	BatchCreate(ctx context.Context, notifications []model.Notification) error
}

// ── ClassSchedule Repository 实现 ──

type classScheduleRepo struct {
	db *gorm.DB
}

func NewClassScheduleRepo(db *gorm.DB) ClassScheduleRepository {
	return &classScheduleRepo{db: db}
}

func (r *classScheduleRepo) Create(ctx context.Context, row *model.ClassSchedule) error {
	return r.db.WithContext(ctx).Create(row).Error
}

func (r *classScheduleRepo) ListBySource(ctx context.Context, scheduleID string) ([]model.ClassSchedule, error) {
	var rows []model.ClassSchedule
	err := r.db.WithContext(ctx).
		Where("source_schedule_id = ?", scheduleID).
		Order("day_of_week, start_time").
		Find(&rows).Error
	return rows, err
}

// ── Notification Repository 实现 ──

type notificationRepo struct {
	db *gorm.DB
}

func NewNotificationRepo(db *gorm.DB) NotificationRepository {
	return &notificationRepo{db: db}
}

func (r *notificationRepo) BatchCreate(ctx context.Context, notifications []model.Notification) error {
	if len(notifications) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(&notifications, notificationBatchSize).Error
}
