package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"school-timetable/backend/internal/model"
	pkgerrors "school-timetable/backend/pkg/errors"
)

// GenerationConfigRepository 生成配置数据访问接口
type GenerationConfigRepository interface {
	Create(ctx context.Context, cfg *model.GenerationConfig) error
}

// GeneratedScheduleRepository 生成课表数据访问接口
type GeneratedScheduleRepository interface {
	// CreateDraft 写入草稿并将其设为当前活动草稿（同一事务）
	CreateDraft(ctx context.Context, schedule *model.GeneratedSchedule) error
	GetByID(ctx context.Context, id string) (*model.GeneratedSchedule, error)
	// GetLatest 按创建时间取最新一条，不区分状态
	GetLatest(ctx context.Context) (*model.GeneratedSchedule, error)
	// List 按创建时间倒序分页，status 为空时返回全部
	List(ctx context.Context, status string, offset, limit int) ([]model.GeneratedSchedule, int64, error)
	// MarkPublished 仅当记录仍为 draft 且 version 未变时生效，同时清空活动草稿指针
	MarkPublished(ctx context.Context, schedule *model.GeneratedSchedule, publisherID string, at time.Time) error
}

// GenerationStateRepository 生成状态（活动草稿指针）数据访问接口
type GenerationStateRepository interface {
	Get(ctx context.Context) (*model.ScheduleGenerationState, error)
}

// ── GenerationConfig Repository 实现 ──

type generationConfigRepo struct {
	db *gorm.DB
}

func NewGenerationConfigRepo(db *gorm.DB) GenerationConfigRepository {
	return &generationConfigRepo{db: db}
}

func (r *generationConfigRepo) Create(ctx context.Context, cfg *model.GenerationConfig) error {
	return r.db.WithContext(ctx).Create(cfg).Error
}

// ── GeneratedSchedule Repository 实现 ──

type generatedScheduleRepo struct {
	db *gorm.DB
}

func NewGeneratedScheduleRepo(db *gorm.DB) GeneratedScheduleRepository {
	return &generatedScheduleRepo{db: db}
}

func (r *generatedScheduleRepo) CreateDraft(ctx context.Context, schedule *model.GeneratedSchedule) error {
	schedule.Status = model.ScheduleStatusDraft
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(schedule).Error; err != nil {
			return err
		}
		return tx.Model(&model.ScheduleGenerationState{}).
			Where("singleton = ?", true).
			Updates(map[string]interface{}{
				"active_draft_id": schedule.GeneratedScheduleID,
				"updated_at":      time.Now(),
			}).Error
	})
}

func (r *generatedScheduleRepo) GetByID(ctx context.Context, id string) (*model.GeneratedSchedule, error) {
	var schedule model.GeneratedSchedule
	err := r.db.WithContext(ctx).
		Preload("Config").
		Where("generated_schedule_id = ?", id).
		First(&schedule).Error
	if err != nil {
		return nil, err
	}
	return &schedule, nil
}

func (r *generatedScheduleRepo) GetLatest(ctx context.Context) (*model.GeneratedSchedule, error) {
	var schedule model.GeneratedSchedule
	err := r.db.WithContext(ctx).
		Preload("Config").
		Order("created_at DESC, generated_schedule_id DESC").
		First(&schedule).Error
	if err != nil {
		return nil, err
	}
	return &schedule, nil
}

func (r *generatedScheduleRepo) List(ctx context.Context, status string, offset, limit int) ([]model.GeneratedSchedule, int64, error) {
	var schedules []model.GeneratedSchedule
	var total int64

	db := r.db.WithContext(ctx).Model(&model.GeneratedSchedule{})
	if status != "" {
		db = db.Where("status = ?", status)
	}
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Preload("Config").
		Offset(offset).Limit(limit).
		Order("created_at DESC").
		Find(&schedules).Error; err != nil {
		return nil, 0, err
	}
	return schedules, total, nil
}

func (r *generatedScheduleRepo) MarkPublished(ctx context.Context, schedule *model.GeneratedSchedule, publisherID string, at time.Time) error {
	oldVersion := schedule.Version
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&model.GeneratedSchedule{}).
			Where("generated_schedule_id = ? AND status = ? AND version = ?",
				schedule.GeneratedScheduleID, model.ScheduleStatusDraft, oldVersion).
			Updates(map[string]interface{}{
				"status":       model.ScheduleStatusPublished,
				"published_at": at,
				"published_by": publisherID,
				"updated_by":   publisherID,
				"updated_at":   at,
				"version":      oldVersion + 1,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return pkgerrors.ErrOptimisticLock
		}

		return tx.Model(&model.ScheduleGenerationState{}).
			Where("singleton = ? AND active_draft_id = ?", true, schedule.GeneratedScheduleID).
			Updates(map[string]interface{}{
				"active_draft_id": nil,
				"updated_at":      at,
			}).Error
	})
	if err != nil {
		return err
	}

	schedule.Status = model.ScheduleStatusPublished
	schedule.PublishedAt = &at
	schedule.PublishedBy = &publisherID
	schedule.Version = oldVersion + 1
	return nil
}

// ── GenerationState Repository 实现 ──

type generationStateRepo struct {
	db *gorm.DB
}

func NewGenerationStateRepo(db *gorm.DB) GenerationStateRepository {
	return &generationStateRepo{db: db}
}

func (r *generationStateRepo) Get(ctx context.Context) (*model.ScheduleGenerationState, error) {
	var state model.ScheduleGenerationState
	err := r.db.WithContext(ctx).First(&state).Error
	if err != nil {
		return nil, err
	}
	return &state, nil
}
