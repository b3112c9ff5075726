package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"school-timetable/backend/config"
	"school-timetable/backend/internal/dto"
	"school-timetable/backend/internal/model"
	"school-timetable/backend/internal/repository"
	pkgerrors "school-timetable/backend/pkg/errors"
	"school-timetable/backend/pkg/redis"
)

// ── 课表发布模块业务错误 ──

var (
	ErrScheduleNotDraft       = fmt.Errorf("%w: 课表已发布，不能重复发布", pkgerrors.ErrInvalidState)
	ErrScheduleNotActiveDraft = fmt.Errorf("%w: 只能发布当前活动草稿", pkgerrors.ErrInvalidState)
	ErrPublishInProgress      = errors.New("另一个发布操作正在进行，请稍后重试")
)

const (
	publishLockName          = "timetable:publish"
	relatedTypeGenerated     = "generated_schedule"
	defaultNotificationTitle = "新课表已发布"
)

// PublicationService 课表发布业务接口
//
// 发布是逐条尽力而为的：单条写入失败不回滚已写入的行，结果中逐条列出跳过与失败的条目。
// 状态变更（draft → published）失败视为发布失败；通知写入失败不影响发布结果。
type PublicationService interface {
	Publish(ctx context.Context, scheduleID, publisherID string) (*dto.PublishScheduleResponse, error)
}

type publicationService struct {
	cfg    *config.TimetableConfig
	repo   *repository.Repository
	locker Locker
	logger *zap.Logger
}

// NewPublicationService 创建 PublicationService 实例
func NewPublicationService(cfg *config.TimetableConfig, repo *repository.Repository, locker Locker, logger *zap.Logger) PublicationService {
	return &publicationService{cfg: cfg, repo: repo, locker: locker, logger: logger}
}

// ════════════════════════════════════════════════════════════
// Publish：发布课表草稿
// ════════════════════════════════════════════════════════════
//
// 流程：
//   0. 预校验：课表存在、仍为 draft、且为当前活动草稿
//   1. 获取发布锁（Redis 不可用时跳过）
//   2. 持锁后重新校验
//   3. 逐条写入正式课表（无教师 / 无对应课程 / 已写入的条目跳过）
//   4. 标记为 published（乐观锁），同时清空活动草稿指针
//   5. 向所有用户发送通知

func (s *publicationService) Publish(ctx context.Context, scheduleID, publisherID string) (*dto.PublishScheduleResponse, error) {
	// 已发布或非活动草稿直接拒绝，不必等待发布锁
	if _, err := s.checkPublishable(ctx, scheduleID); err != nil {
		return nil, err
	}

	// 1. 发布锁
	release, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	// 2. 持锁后重新校验
	schedule, err := s.checkPublishable(ctx, scheduleID)
	if err != nil {
		return nil, err
	}

	result := &dto.PublishScheduleResponse{
		SkippedEntries: []dto.EntryOutcome{},
		FailedEntries:  []dto.EntryOutcome{},
	}

	// 3. 写入正式课表；上次发布中断时只补写缺失的行
	existing, err := s.repo.ClassSchedule.ListBySource(ctx, scheduleID)
	if err != nil {
		s.logger.Error("查询已写入的正式课表失败", zap.Error(err))
		return nil, err
	}
	if len(existing) > 0 {
		s.logger.Warn("检测到未完成的发布，补写缺失的正式课表",
			zap.String("schedule_id", scheduleID), zap.Int("existing_rows", len(existing)))
		result.Resumed = true
	}
	s.materialize(ctx, schedule, publisherID, existingSlots(existing), result)

	// 4. 状态变更
	if err := s.repo.GeneratedSchedule.MarkPublished(ctx, schedule, publisherID, time.Now()); err != nil {
		if errors.Is(err, pkgerrors.ErrOptimisticLock) {
			return nil, err
		}
		s.logger.Error("更新课表发布状态失败", zap.String("schedule_id", scheduleID), zap.Error(err))
		return nil, fmt.Errorf("更新课表发布状态失败: %w: %w", pkgerrors.ErrPersistence, err)
	}

	// 5. 通知
	s.notifyAll(ctx, schedule, publisherID, result)

	result.Schedule = toScheduleResponse(schedule, nil, false)

	s.logger.Info("课表已发布",
		zap.String("schedule_id", scheduleID),
		zap.String("publisher_id", publisherID),
		zap.Int("inserted", result.InsertedCount),
		zap.Int("skipped", len(result.SkippedEntries)),
		zap.Int("failed", len(result.FailedEntries)),
		zap.Int("notified", result.NotifiedCount),
	)
	return result, nil
}

// checkPublishable 校验课表存在、仍为 draft、且为当前活动草稿
func (s *publicationService) checkPublishable(ctx context.Context, scheduleID string) (*model.GeneratedSchedule, error) {
	schedule, err := s.repo.GeneratedSchedule.GetByID(ctx, scheduleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrScheduleNotFound
		}
		s.logger.Error("查询课表失败", zap.Error(err))
		return nil, err
	}
	if !schedule.IsDraft() {
		return nil, ErrScheduleNotDraft
	}
	state, err := s.repo.GenerationState.Get(ctx)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询生成状态失败", zap.Error(err))
		return nil, err
	}
	if state == nil || state.ActiveDraftID == nil || *state.ActiveDraftID != scheduleID {
		return nil, ErrScheduleNotActiveDraft
	}
	return schedule, nil
}

// acquire 获取发布锁，返回释放函数
func (s *publicationService) acquire(ctx context.Context) (func(), error) {
	noop := func() {}
	if s.locker == nil {
		return noop, nil
	}

	token, err := s.locker.AcquireLock(ctx, publishLockName, s.cfg.PublishLockTTL)
	if err != nil {
		if errors.Is(err, redis.ErrLockHeld) {
			return nil, ErrPublishInProgress
		}
		s.logger.Warn("获取发布锁失败，继续无锁发布", zap.Error(err))
		return noop, nil
	}

	return func() {
		// 请求上下文可能已取消，释放锁使用独立上下文
		releaseCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := s.locker.ReleaseLock(releaseCtx, publishLockName, token); err != nil {
			s.logger.Warn("释放发布锁失败", zap.Error(err))
		}
	}, nil
}

type courseKey struct {
	classID   string
	subjectID string
}

// slotKey 一个班级在一个时段最多一行正式课表
type slotKey struct {
	classID   string
	dayOfWeek int
	startTime string
}

func existingSlots(rows []model.ClassSchedule) map[slotKey]bool {
	slots := make(map[slotKey]bool, len(rows))
	for _, r := range rows {
		slots[slotKey{classID: r.ClassID, dayOfWeek: r.DayOfWeek, startTime: r.StartTime}] = true
	}
	return slots
}

// materialize 按草稿顺序逐条写入正式课表；written 中已有的时段计入写入数但不重复写入
func (s *publicationService) materialize(ctx context.Context, schedule *model.GeneratedSchedule, publisherID string, written map[slotKey]bool, result *dto.PublishScheduleResponse) {
	courses := make(map[courseKey]*model.Course)
	missing := make(map[courseKey]bool)

	for i, entry := range schedule.Entries {
		outcome := dto.EntryOutcome{
			Index:     i,
			ClassID:   entry.ClassID,
			SubjectID: entry.SubjectID,
			DayOfWeek: entry.DayOfWeek,
			StartTime: entry.StartTime,
		}

		if entry.TeacherID == nil {
			outcome.Reason = dto.SkipReasonNoTeacher
			result.SkippedEntries = append(result.SkippedEntries, outcome)
			continue
		}

		if written[slotKey{classID: entry.ClassID, dayOfWeek: entry.DayOfWeek, startTime: entry.StartTime}] {
			result.InsertedCount++
			continue
		}

		key := courseKey{classID: entry.ClassID, subjectID: entry.SubjectID}
		if missing[key] {
			outcome.Reason = dto.SkipReasonNoCourse
			result.SkippedEntries = append(result.SkippedEntries, outcome)
			continue
		}
		course, ok := courses[key]
		if !ok {
			found, err := s.repo.Course.FindByClassAndSubject(ctx, entry.ClassID, entry.SubjectID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					missing[key] = true
					outcome.Reason = dto.SkipReasonNoCourse
					result.SkippedEntries = append(result.SkippedEntries, outcome)
					continue
				}
				s.logger.Warn("查询课程失败", zap.Int("index", i), zap.Error(err))
				outcome.Error = err.Error()
				result.FailedEntries = append(result.FailedEntries, outcome)
				continue
			}
			courses[key] = found
			course = found
		}

		row := &model.ClassSchedule{
			ClassID:          entry.ClassID,
			CourseID:         course.CourseID,
			DayOfWeek:        entry.DayOfWeek,
			StartTime:        entry.StartTime,
			EndTime:          entry.EndTime,
			Room:             entry.Room,
			SchoolYear:       schedule.SchoolYear,
			SourceScheduleID: &schedule.GeneratedScheduleID,
		}
		row.CreatedBy = optionalString(publisherID)
		if err := s.repo.ClassSchedule.Create(ctx, row); err != nil {
			s.logger.Warn("写入正式课表失败", zap.Int("index", i), zap.Error(err))
			outcome.Error = err.Error()
			result.FailedEntries = append(result.FailedEntries, outcome)
			continue
		}
		result.InsertedCount++
	}
}

// notifyAll 向每个用户档案写入一条通知；失败只记录，不影响发布结果
func (s *publicationService) notifyAll(ctx context.Context, schedule *model.GeneratedSchedule, publisherID string, result *dto.PublishScheduleResponse) {
	userIDs, err := s.repo.Profile.ListAllIDs(ctx)
	if err != nil {
		s.logger.Error("查询用户列表失败，跳过发布通知", zap.Error(err))
		result.NotificationError = err.Error()
		return
	}

	title := s.cfg.NotificationTitle
	if title == "" {
		title = defaultNotificationTitle
	}
	content := fmt.Sprintf("%s 学年课表已发布，请查看最新课表。", schedule.SchoolYear)
	relatedType := relatedTypeGenerated

	notifications := make([]model.Notification, 0, len(userIDs))
	for _, uid := range userIDs {
		n := model.Notification{
			UserID:      uid,
			Type:        model.NotificationTypeSchedule,
			Title:       title,
			Content:     content,
			RelatedType: &relatedType,
			RelatedID:   &schedule.GeneratedScheduleID,
		}
		n.CreatedBy = optionalString(publisherID)
		notifications = append(notifications, n)
	}

	if err := s.repo.Notification.BatchCreate(ctx, notifications); err != nil {
		s.logger.Error("发送发布通知失败", zap.Int("users", len(userIDs)), zap.Error(err))
		result.NotificationError = err.Error()
		return
	}
	result.NotifiedCount = len(notifications)
}
