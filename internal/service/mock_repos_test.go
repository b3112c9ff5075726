package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"

	"school-timetable/backend/config"
	"school-timetable/backend/internal/model"
	"school-timetable/backend/internal/repository"
	pkgerrors "school-timetable/backend/pkg/errors"
	"school-timetable/backend/pkg/redis"
)

var errMockDB = errors.New("mock: 数据库不可用")

// ── Mock ProfileRepository ──

type mockProfileRepo struct {
	profiles []model.Profile
	listErr  error
}

func (m *mockProfileRepo) ListAllIDs(_ context.Context) ([]string, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	ids := make([]string, 0, len(m.profiles))
	for _, p := range m.profiles {
		ids = append(ids, p.UserID)
	}
	return ids, nil
}

func (m *mockProfileRepo) CountByRole(_ context.Context, role string) (int64, error) {
	var n int64
	for _, p := range m.profiles {
		if p.Role == role {
			n++
		}
	}
	return n, nil
}

func (m *mockProfileRepo) ListByIDs(_ context.Context, ids []string) ([]model.Profile, error) {
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var result []model.Profile
	for _, p := range m.profiles {
		if want[p.UserID] {
			result = append(result, p)
		}
	}
	return result, nil
}

// ── Mock 目录 Repository ──

type mockClassRepo struct {
	classes []model.SchoolClass
}

func (m *mockClassRepo) List(_ context.Context) ([]model.SchoolClass, error) {
	return m.classes, nil
}

type mockSubjectRepo struct {
	subjects []model.Subject
}

func (m *mockSubjectRepo) List(_ context.Context) ([]model.Subject, error) {
	return m.subjects, nil
}

type mockTeacherSubjectRepo struct {
	items []model.TeacherSubject
}

func (m *mockTeacherSubjectRepo) List(_ context.Context) ([]model.TeacherSubject, error) {
	return m.items, nil
}

// ── Mock CourseRepository ──

type mockCourseRepo struct {
	courses []model.Course
	failFor map[string]bool // classID:subjectID → 查询报错
	lookups int
}

func (m *mockCourseRepo) FindByClassAndSubject(_ context.Context, classID, subjectID string) (*model.Course, error) {
	m.lookups++
	if m.failFor[classID+":"+subjectID] {
		return nil, errMockDB
	}
	for i := range m.courses {
		if m.courses[i].ClassID == classID && m.courses[i].SubjectID == subjectID {
			return &m.courses[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

// ── Mock GenerationConfigRepository ──

type mockGenerationConfigRepo struct {
	configs   []*model.GenerationConfig
	createErr error
}

func (m *mockGenerationConfigRepo) Create(_ context.Context, cfg *model.GenerationConfig) error {
	if m.createErr != nil {
		return m.createErr
	}
	cfg.ConfigID = fmt.Sprintf("cfg-%d", len(m.configs)+1)
	cfg.CreatedAt = time.Now()
	m.configs = append(m.configs, cfg)
	return nil
}

// ── Mock GeneratedScheduleRepository + GenerationStateRepository ──
// 两者共享活动草稿指针，模拟同一事务内的写入

type mockScheduleStore struct {
	schedules   map[string]*model.GeneratedSchedule
	order       []string
	activeDraft *string
	seq         int
	clock       time.Time

	createErr  error
	publishErr error
}

func newMockScheduleStore() *mockScheduleStore {
	return &mockScheduleStore{
		schedules: make(map[string]*model.GeneratedSchedule),
		clock:     time.Date(2025, 9, 1, 8, 0, 0, 0, time.UTC),
	}
}

func (m *mockScheduleStore) CreateDraft(_ context.Context, schedule *model.GeneratedSchedule) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.seq++
	m.clock = m.clock.Add(time.Minute)
	schedule.GeneratedScheduleID = fmt.Sprintf("sched-%d", m.seq)
	schedule.Status = model.ScheduleStatusDraft
	schedule.Version = 1
	schedule.CreatedAt = m.clock
	m.schedules[schedule.GeneratedScheduleID] = schedule
	m.order = append(m.order, schedule.GeneratedScheduleID)
	id := schedule.GeneratedScheduleID
	m.activeDraft = &id
	return nil
}

func (m *mockScheduleStore) GetByID(_ context.Context, id string) (*model.GeneratedSchedule, error) {
	s, ok := m.schedules[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *mockScheduleStore) GetLatest(_ context.Context) (*model.GeneratedSchedule, error) {
	if len(m.order) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	latest := m.schedules[m.order[0]]
	for _, id := range m.order[1:] {
		if s := m.schedules[id]; s.CreatedAt.After(latest.CreatedAt) {
			latest = s
		}
	}
	cp := *latest
	return &cp, nil
}

func (m *mockScheduleStore) List(_ context.Context, status string, offset, limit int) ([]model.GeneratedSchedule, int64, error) {
	all := make([]model.GeneratedSchedule, 0, len(m.order))
	for _, id := range m.order {
		if status != "" && m.schedules[id].Status != status {
			continue
		}
		all = append(all, *m.schedules[id])
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })

	total := int64(len(all))
	if offset >= len(all) {
		return []model.GeneratedSchedule{}, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (m *mockScheduleStore) MarkPublished(_ context.Context, schedule *model.GeneratedSchedule, publisherID string, at time.Time) error {
	if m.publishErr != nil {
		return m.publishErr
	}
	stored, ok := m.schedules[schedule.GeneratedScheduleID]
	if !ok || stored.Status != model.ScheduleStatusDraft || stored.Version != schedule.Version {
		return pkgerrors.ErrOptimisticLock
	}
	stored.Status = model.ScheduleStatusPublished
	stored.PublishedAt = &at
	stored.PublishedBy = &publisherID
	stored.Version++
	if m.activeDraft != nil && *m.activeDraft == stored.GeneratedScheduleID {
		m.activeDraft = nil
	}

	schedule.Status = stored.Status
	schedule.PublishedAt = stored.PublishedAt
	schedule.PublishedBy = stored.PublishedBy
	schedule.Version = stored.Version
	return nil
}

func (m *mockScheduleStore) Get(_ context.Context) (*model.ScheduleGenerationState, error) {
	return &model.ScheduleGenerationState{Singleton: true, ActiveDraftID: m.activeDraft}, nil
}

// mockGenerationStateRepo 将状态读取委托给 mockScheduleStore
type mockGenerationStateRepo struct {
	store *mockScheduleStore
}

func (m *mockGenerationStateRepo) Get(ctx context.Context) (*model.ScheduleGenerationState, error) {
	return m.store.Get(ctx)
}

// ── Mock ClassScheduleRepository ──

type mockClassScheduleRepo struct {
	rows   []model.ClassSchedule
	failAt map[int]bool // 第 N 次 Create 调用失败（从 0 开始）
	calls  int
}

func (m *mockClassScheduleRepo) Create(_ context.Context, row *model.ClassSchedule) error {
	call := m.calls
	m.calls++
	if m.failAt[call] {
		return errMockDB
	}
	row.ClassScheduleID = fmt.Sprintf("cs-%d", len(m.rows)+1)
	m.rows = append(m.rows, *row)
	return nil
}

func (m *mockClassScheduleRepo) ListBySource(_ context.Context, scheduleID string) ([]model.ClassSchedule, error) {
	var out []model.ClassSchedule
	for _, r := range m.rows {
		if r.SourceScheduleID != nil && *r.SourceScheduleID == scheduleID {
			out = append(out, r)
		}
	}
	return out, nil
}

// ── Mock NotificationRepository ──

type mockNotificationRepo struct {
	notifications []model.Notification
	createErr     error
}

func (m *mockNotificationRepo) BatchCreate(_ context.Context, notifications []model.Notification) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.notifications = append(m.notifications, notifications...)
	return nil
}

// ── Mock Locker ──

type mockLocker struct {
	held     bool
	attempts int
	acquired int
	released int
	err      error
}

func (m *mockLocker) AcquireLock(_ context.Context, _ string, _ time.Duration) (string, error) {
	m.attempts++
	if m.err != nil {
		return "", m.err
	}
	if m.held {
		return "", redis.ErrLockHeld
	}
	m.held = true
	m.acquired++
	return "token", nil
}

func (m *mockLocker) ReleaseLock(_ context.Context, _ string, _ string) error {
	m.held = false
	m.released++
	return nil
}

// ════════════════════════════════════════════════════════════
// 测试夹具
// ════════════════════════════════════════════════════════════

type testRepos struct {
	profiles      *mockProfileRepo
	classes       *mockClassRepo
	subjects      *mockSubjectRepo
	assignments   *mockTeacherSubjectRepo
	courses       *mockCourseRepo
	configs       *mockGenerationConfigRepo
	schedules     *mockScheduleStore
	classSchedule *mockClassScheduleRepo
	notifications *mockNotificationRepo
}

func (r *testRepos) repository() *repository.Repository {
	return &repository.Repository{
		Profile:           r.profiles,
		Class:             r.classes,
		Subject:           r.subjects,
		TeacherSubject:    r.assignments,
		Course:            r.courses,
		GenerationConfig:  r.configs,
		GeneratedSchedule: r.schedules,
		GenerationState:   &mockGenerationStateRepo{store: r.schedules},
		ClassSchedule:     r.classSchedule,
		Notification:      r.notifications,
	}
}

// newScenarioRepos 2个班级、3个科目、2位教师（科目1、2有任课教师，科目3无）、
// 另有1名管理员和1名学生；class-a 的科目1、2 和 class-b 的科目1 有对应课程
func newScenarioRepos() *testRepos {
	return &testRepos{
		profiles: &mockProfileRepo{profiles: []model.Profile{
			{UserID: "teacher-1", FullName: "Awa Diallo", Role: model.RoleTeacher},
			{UserID: "teacher-2", FullName: "Moussa Traoré", Role: model.RoleTeacher},
			{UserID: "admin-1", FullName: "管理员", Role: model.RoleAdmin},
			{UserID: "student-1", FullName: "学生", Role: model.RoleStudent},
		}},
		classes: &mockClassRepo{classes: []model.SchoolClass{
			{ClassID: "class-a", Name: "6e A", Level: "6e", SchoolYear: "2025-2026"},
			{ClassID: "class-b", Name: "5e B", Level: "5e", SchoolYear: "2025-2026"},
		}},
		subjects: &mockSubjectRepo{subjects: []model.Subject{
			{SubjectID: "sub-1", Name: "Mathématiques"},
			{SubjectID: "sub-2", Name: "Français"},
			{SubjectID: "sub-3", Name: "Musique"},
		}},
		assignments: &mockTeacherSubjectRepo{items: []model.TeacherSubject{
			{TeacherID: "teacher-1", SubjectID: "sub-1", IsPrimary: true},
			{TeacherID: "teacher-2", SubjectID: "sub-2", IsPrimary: true},
		}},
		courses: &mockCourseRepo{courses: []model.Course{
			{CourseID: "course-a1", ClassID: "class-a", SubjectID: "sub-1", Title: "数学 6e A"},
			{CourseID: "course-a2", ClassID: "class-a", SubjectID: "sub-2", Title: "法语 6e A"},
			{CourseID: "course-b1", ClassID: "class-b", SubjectID: "sub-1", Title: "数学 5e B"},
		}},
		configs:       &mockGenerationConfigRepo{},
		schedules:     newMockScheduleStore(),
		classSchedule: &mockClassScheduleRepo{},
		notifications: &mockNotificationRepo{},
	}
}

func testTimetableConfig() *config.TimetableConfig {
	return &config.TimetableConfig{
		DefaultRoomStrategy: "round_robin",
		MaxRooms:            100,
		PublishLockTTL:      time.Minute,
		NotificationTitle:   "新课表已发布",
		CalendarTimezone:    "UTC",
		CalendarWeeks:       36,
	}
}
