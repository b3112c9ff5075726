package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"school-timetable/backend/config"
	"school-timetable/backend/internal/dto"
	"school-timetable/backend/internal/model"
	"school-timetable/backend/internal/repository"
	"school-timetable/backend/internal/timetable"
	pkgerrors "school-timetable/backend/pkg/errors"
)

// ── 课表生成模块业务错误 ──

var (
	ErrGenerationPrecondition = fmt.Errorf("%w: 请先创建班级、科目和教师", pkgerrors.ErrPrecondition)
	ErrGenerationTooManyRooms = fmt.Errorf("%w: 教室数超出上限", timetable.ErrInvalidConfig)
	ErrScheduleNotFound       = fmt.Errorf("%w: 课表不存在", pkgerrors.ErrInvalidState)
	ErrNoActiveDraft          = errors.New("当前没有待发布的草稿")
)

// GenerationService 课表生成业务接口
//
// 一次生成 = 读取目录快照 → 校验前置条件 → 解析配置 → 运行引擎 → 写入配置 → 写入草稿。
// 草稿写入是最后一步，任何前置步骤失败都不会留下可见的半成品草稿。
type GenerationService interface {
	// LoadDirectorySnapshot 读取当前目录快照（只读）
	LoadDirectorySnapshot(ctx context.Context) (*dto.DirectorySnapshotResponse, error)
	// Generate 生成新的课表草稿并设为活动草稿
	Generate(ctx context.Context, req *dto.GenerateScheduleRequest, callerID string) (*dto.GenerateScheduleResponse, error)
	// GetLatestSchedule 按创建时间返回最新课表，不区分状态
	GetLatestSchedule(ctx context.Context) (*dto.GeneratedScheduleResponse, error)
	// GetActiveDraft 返回活动草稿指针指向的课表
	GetActiveDraft(ctx context.Context) (*dto.GeneratedScheduleResponse, error)
	GetSchedule(ctx context.Context, id string) (*dto.GeneratedScheduleResponse, error)
	ListHistory(ctx context.Context, req *dto.ScheduleHistoryRequest) ([]dto.GeneratedScheduleResponse, int64, error)
}

type generationService struct {
	cfg    *config.TimetableConfig
	repo   *repository.Repository
	logger *zap.Logger
}

// NewGenerationService 创建 GenerationService 实例
func NewGenerationService(cfg *config.TimetableConfig, repo *repository.Repository, logger *zap.Logger) GenerationService {
	return &generationService{cfg: cfg, repo: repo, logger: logger}
}

// ════════════════════════════════════════════════════════════
// LoadDirectorySnapshot：目录快照
// ════════════════════════════════════════════════════════════

func (s *generationService) LoadDirectorySnapshot(ctx context.Context) (*dto.DirectorySnapshotResponse, error) {
	snap, err := s.loadSnapshot(ctx)
	if err != nil {
		return nil, err
	}

	resp := &dto.DirectorySnapshotResponse{
		Classes:      make([]dto.ClassBrief, 0, len(snap.Classes)),
		Subjects:     make([]dto.SubjectBrief, 0, len(snap.Subjects)),
		Assignments:  make([]dto.AssignmentBrief, 0, len(snap.Assignments)),
		TeacherCount: snap.TeacherCount,
		Ready:        snapshotReady(snap),
	}
	for _, c := range snap.Classes {
		resp.Classes = append(resp.Classes, dto.ClassBrief{ID: c.ID, Name: c.Name, Level: c.Level})
	}
	for _, sub := range snap.Subjects {
		resp.Subjects = append(resp.Subjects, dto.SubjectBrief{ID: sub.ID, Name: sub.Name})
	}
	for _, a := range snap.Assignments {
		resp.Assignments = append(resp.Assignments, dto.AssignmentBrief{
			TeacherID: a.TeacherID, SubjectID: a.SubjectID, IsPrimary: a.IsPrimary,
		})
	}
	return resp, nil
}

func (s *generationService) loadSnapshot(ctx context.Context) (timetable.Snapshot, error) {
	var snap timetable.Snapshot

	classes, err := s.repo.Class.List(ctx)
	if err != nil {
		s.logger.Error("查询班级失败", zap.Error(err))
		return snap, err
	}
	subjects, err := s.repo.Subject.List(ctx)
	if err != nil {
		s.logger.Error("查询科目失败", zap.Error(err))
		return snap, err
	}
	assignments, err := s.repo.TeacherSubject.List(ctx)
	if err != nil {
		s.logger.Error("查询任课关系失败", zap.Error(err))
		return snap, err
	}
	teachers, err := s.repo.Profile.CountByRole(ctx, model.RoleTeacher)
	if err != nil {
		s.logger.Error("统计教师数量失败", zap.Error(err))
		return snap, err
	}

	snap.Classes = make([]timetable.Class, 0, len(classes))
	for _, c := range classes {
		snap.Classes = append(snap.Classes, timetable.Class{ID: c.ClassID, Name: c.Name, Level: c.Level})
	}
	snap.Subjects = make([]timetable.Subject, 0, len(subjects))
	for _, sub := range subjects {
		snap.Subjects = append(snap.Subjects, timetable.Subject{ID: sub.SubjectID, Name: sub.Name})
	}
	snap.Assignments = make([]timetable.Assignment, 0, len(assignments))
	for _, a := range assignments {
		snap.Assignments = append(snap.Assignments, timetable.Assignment{
			TeacherID: a.TeacherID, SubjectID: a.SubjectID, IsPrimary: a.IsPrimary,
		})
	}
	snap.TeacherCount = int(teachers)
	return snap, nil
}

func snapshotReady(snap timetable.Snapshot) bool {
	return len(snap.Classes) > 0 && len(snap.Subjects) > 0 && snap.TeacherCount > 0
}

// ════════════════════════════════════════════════════════════
// Generate：生成课表草稿
// ════════════════════════════════════════════════════════════

func (s *generationService) Generate(ctx context.Context, req *dto.GenerateScheduleRequest, callerID string) (*dto.GenerateScheduleResponse, error) {
	// 1. 目录快照 + 前置条件
	snap, err := s.loadSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	if !snapshotReady(snap) {
		return nil, ErrGenerationPrecondition
	}

	// 2. 解析配置（任何写入之前）
	strategy := req.RoomStrategy
	if strategy == "" {
		strategy = s.cfg.DefaultRoomStrategy
	}
	if req.TotalRooms > s.cfg.MaxRooms {
		return nil, fmt.Errorf("%w: %d > %d", ErrGenerationTooManyRooms, req.TotalRooms, s.cfg.MaxRooms)
	}
	engineCfg, err := timetable.ParseConfig(timetable.Input{
		WeekdayStart:          req.WeekdayStart,
		WeekdayEnd:            req.WeekdayEnd,
		WednesdayStart:        req.WednesdayStart,
		WednesdayEnd:          req.WednesdayEnd,
		CourseDurationMinutes: req.CourseDurationMinutes,
		BreakDurationMinutes:  req.BreakDurationMinutes,
		LunchStart:            req.LunchStart,
		LunchEnd:              req.LunchEnd,
		TotalRooms:            req.TotalRooms,
		RoomStrategy:          timetable.RoomStrategy(strategy),
	})
	if err != nil {
		return nil, err
	}

	// 3. 运行引擎（纯内存）
	entries := timetable.Generate(snap, engineCfg)

	// 4. 写入配置
	genCfg := &model.GenerationConfig{
		SchoolYear:            req.SchoolYear,
		WeekdayStart:          req.WeekdayStart,
		WeekdayEnd:            req.WeekdayEnd,
		WednesdayStart:        req.WednesdayStart,
		WednesdayEnd:          req.WednesdayEnd,
		CourseDurationMinutes: req.CourseDurationMinutes,
		BreakDurationMinutes:  req.BreakDurationMinutes,
		LunchStart:            req.LunchStart,
		LunchEnd:              req.LunchEnd,
		TotalRooms:            req.TotalRooms,
		RoomStrategy:          string(engineCfg.Strategy()),
		CreatedBy:             optionalString(callerID),
	}
	if err := s.repo.GenerationConfig.Create(ctx, genCfg); err != nil {
		s.logger.Error("保存生成配置失败", zap.Error(err))
		return nil, fmt.Errorf("保存生成配置失败: %w: %w", pkgerrors.ErrPersistence, err)
	}

	// 5. 写入草稿（最后一步）
	draft := &model.GeneratedSchedule{
		ConfigID:   genCfg.ConfigID,
		SchoolYear: req.SchoolYear,
		Entries:    toEntryModels(entries),
	}
	draft.CreatedBy = optionalString(callerID)
	if err := s.repo.GeneratedSchedule.CreateDraft(ctx, draft); err != nil {
		s.logger.Error("保存课表草稿失败", zap.Error(err))
		return nil, fmt.Errorf("保存课表草稿失败: %w: %w", pkgerrors.ErrPersistence, err)
	}
	draft.Config = genCfg

	stats := timetable.Summarize(entries)
	conflicts := timetable.DetectRoomConflicts(entries)
	uncovered := timetable.UncoveredSubjects(entries)
	if uncovered == nil {
		uncovered = []string{}
	}

	s.logger.Info("课表草稿已生成",
		zap.String("schedule_id", draft.GeneratedScheduleID),
		zap.String("school_year", draft.SchoolYear),
		zap.Int("entries", stats.Entries),
		zap.Int("unassigned_teacher", stats.UnassignedTeacher),
		zap.Int("room_conflicts", stats.Conflicts),
	)

	return &dto.GenerateScheduleResponse{
		Schedule: toScheduleResponse(draft, &draft.GeneratedScheduleID, true),
		Summary: dto.GenerationSummary{
			EntryCount:             stats.Entries,
			UnassignedTeacherCount: stats.UnassignedTeacher,
			RoomConflictCount:      stats.Conflicts,
		},
		Warnings: dto.GenerationWarnings{
			UncoveredSubjectIDs: uncovered,
			RoomConflicts:       toRoomConflictResponses(conflicts),
		},
	}, nil
}

// ════════════════════════════════════════════════════════════
// 查询
// ════════════════════════════════════════════════════════════

func (s *generationService) GetLatestSchedule(ctx context.Context) (*dto.GeneratedScheduleResponse, error) {
	schedule, err := s.repo.GeneratedSchedule.GetLatest(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrScheduleNotFound
		}
		s.logger.Error("查询最新课表失败", zap.Error(err))
		return nil, err
	}
	resp := toScheduleResponse(schedule, s.activeDraftID(ctx), true)
	return &resp, nil
}

func (s *generationService) GetActiveDraft(ctx context.Context) (*dto.GeneratedScheduleResponse, error) {
	state, err := s.repo.GenerationState.Get(ctx)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询生成状态失败", zap.Error(err))
		return nil, err
	}
	if state == nil || state.ActiveDraftID == nil {
		return nil, ErrNoActiveDraft
	}

	schedule, err := s.repo.GeneratedSchedule.GetByID(ctx, *state.ActiveDraftID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoActiveDraft
		}
		s.logger.Error("查询活动草稿失败", zap.Error(err))
		return nil, err
	}
	resp := toScheduleResponse(schedule, state.ActiveDraftID, true)
	return &resp, nil
}

func (s *generationService) GetSchedule(ctx context.Context, id string) (*dto.GeneratedScheduleResponse, error) {
	schedule, err := s.repo.GeneratedSchedule.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrScheduleNotFound
		}
		s.logger.Error("查询课表失败", zap.Error(err))
		return nil, err
	}
	resp := toScheduleResponse(schedule, s.activeDraftID(ctx), true)
	return &resp, nil
}

func (s *generationService) ListHistory(ctx context.Context, req *dto.ScheduleHistoryRequest) ([]dto.GeneratedScheduleResponse, int64, error) {
	schedules, total, err := s.repo.GeneratedSchedule.List(ctx, req.Status, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("查询课表历史失败", zap.Error(err))
		return nil, 0, err
	}

	active := s.activeDraftID(ctx)
	list := make([]dto.GeneratedScheduleResponse, 0, len(schedules))
	for i := range schedules {
		list = append(list, toScheduleResponse(&schedules[i], active, false))
	}
	return list, total, nil
}

// activeDraftID 读取活动草稿指针；读取失败仅记录日志，不影响查询结果
func (s *generationService) activeDraftID(ctx context.Context) *string {
	state, err := s.repo.GenerationState.Get(ctx)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Warn("读取活动草稿指针失败", zap.Error(err))
		}
		return nil
	}
	return state.ActiveDraftID
}

func optionalString(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
