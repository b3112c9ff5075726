package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"school-timetable/backend/config"
	"school-timetable/backend/internal/model"
	"school-timetable/backend/internal/repository"
)

// ── 导出模块业务错误 ──

var (
	ErrExportNoEntries    = errors.New("课表中无条目")
	ErrExportGenerateFail = errors.New("生成 Excel 文件失败")
)

// ExportService 导出业务接口
//
// 设计说明：
//   - 草稿与已发布课表均可导出，内容取自课表条目
//   - 每个班级一个 Sheet，顺序与课表中班级出现的顺序一致
//   - Sheet 内按 星期 → 开始时间 排序
//   - 另提供按班级的 iCalendar 导出，供家长与学生订阅
//   - 以 bytes.Buffer 返回，由 Handler 层设置响应头
type ExportService interface {
	// ExportSchedule 导出课表为 Excel
	ExportSchedule(ctx context.Context, scheduleID string) (*bytes.Buffer, string, error)
	// ExportClassCalendar 导出单个班级的 iCalendar，from（学校时区的日期，零值为今天）决定首次上课所在的周
	ExportClassCalendar(ctx context.Context, scheduleID, classID string, from time.Time) (*bytes.Buffer, string, error)
}

type exportService struct {
	cfg    *config.TimetableConfig
	repo   *repository.Repository
	logger *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(cfg *config.TimetableConfig, repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{cfg: cfg, repo: repo, logger: logger}
}

var dayNames = map[int]string{1: "周一", 2: "周二", 3: "周三", 4: "周四", 5: "周五"}

// ═══════════════════════════════════════════════════════════
// ExportSchedule：导出课表为 Excel
// ═══════════════════════════════════════════════════════════
//
// 每个 Sheet：
//   - 第 1 行：班级名称 + 学年
//   - 第 2 行：表头 | 星期 | 时间 | 科目 | 教师 | 教室 |
//   - 之后每个条目一行
//
// 返回值：buf（Excel 内容）, filename（建议文件名）, error

func (s *exportService) ExportSchedule(ctx context.Context, scheduleID string) (*bytes.Buffer, string, error) {
	// 1. 查询课表
	schedule, err := s.repo.GeneratedSchedule.GetByID(ctx, scheduleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrScheduleNotFound
		}
		s.logger.Error("查询课表失败", zap.Error(err))
		return nil, "", err
	}
	if len(schedule.Entries) == 0 {
		return nil, "", ErrExportNoEntries
	}

	// 2. 名称索引
	classNames, subjectNames, teacherNames, err := s.loadNames(ctx, schedule.Entries)
	if err != nil {
		return nil, "", err
	}

	// 3. 按班级分组（保持首次出现顺序）
	var classOrder []string
	byClass := make(map[string][]model.ScheduleEntry)
	for _, e := range schedule.Entries {
		if _, ok := byClass[e.ClassID]; !ok {
			classOrder = append(classOrder, e.ClassID)
		}
		byClass[e.ClassID] = append(byClass[e.ClassID], e)
	}

	// 4. 生成 Excel
	f := excelize.NewFile()
	defer f.Close()

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	usedSheets := make(map[string]bool)
	var firstSheet string
	for i, classID := range classOrder {
		className := nameOr(classNames, classID)
		sheetName := uniqueSheetName(className, usedSheets)

		if _, err := f.NewSheet(sheetName); err != nil {
			s.logger.Error("创建 Sheet 失败", zap.String("sheet", sheetName), zap.Error(err))
			return nil, "", ErrExportGenerateFail
		}
		if i == 0 {
			firstSheet = sheetName
		}

		f.SetColWidth(sheetName, "A", "A", 8)
		f.SetColWidth(sheetName, "B", "B", 14)
		f.SetColWidth(sheetName, "C", "D", 22)
		f.SetColWidth(sheetName, "E", "E", 12)

		// 标题行
		f.SetCellValue(sheetName, "A1", fmt.Sprintf("%s %s 学年课表", className, schedule.SchoolYear))
		f.MergeCell(sheetName, "A1", "E1")
		f.SetCellStyle(sheetName, "A1", "A1", headerStyle)

		// 表头
		for col, title := range []string{"星期", "时间", "科目", "教师", "教室"} {
			f.SetCellValue(sheetName, cell(colName(col), 2), title)
		}
		f.SetCellStyle(sheetName, "A2", "E2", headerStyle)

		// 数据行
		entries := byClass[classID]
		sort.SliceStable(entries, func(a, b int) bool {
			if entries[a].DayOfWeek != entries[b].DayOfWeek {
				return entries[a].DayOfWeek < entries[b].DayOfWeek
			}
			return entries[a].StartTime < entries[b].StartTime
		})

		row := 3
		for _, e := range entries {
			teacher := "未分配"
			if e.TeacherID != nil {
				teacher = nameOr(teacherNames, *e.TeacherID)
			}
			f.SetCellValue(sheetName, cell("A", row), dayNames[e.DayOfWeek])
			f.SetCellValue(sheetName, cell("B", row), fmt.Sprintf("%s-%s", e.StartTime, e.EndTime))
			f.SetCellValue(sheetName, cell("C", row), nameOr(subjectNames, e.SubjectID))
			f.SetCellValue(sheetName, cell("D", row), teacher)
			f.SetCellValue(sheetName, cell("E", row), e.Room)
			row++
		}
	}
	// 删除默认 Sheet1（班级名恰好为 Sheet1 时保留）
	if !usedSheets["Sheet1"] {
		f.DeleteSheet("Sheet1")
	}
	if idx, err := f.GetSheetIndex(firstSheet); err == nil && idx >= 0 {
		f.SetActiveSheet(idx)
	}

	// 5. 写入 buffer
	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("课表_%s_%s.xlsx", schedule.SchoolYear, schedule.Status)
	return buf, filename, nil
}

// loadNames 查询班级、科目、教师名称
func (s *exportService) loadNames(ctx context.Context, entries []model.ScheduleEntry) (classes, subjects, teachers map[string]string, err error) {
	classList, err := s.repo.Class.List(ctx)
	if err != nil {
		s.logger.Error("查询班级失败", zap.Error(err))
		return nil, nil, nil, err
	}
	subjectList, err := s.repo.Subject.List(ctx)
	if err != nil {
		s.logger.Error("查询科目失败", zap.Error(err))
		return nil, nil, nil, err
	}

	seen := make(map[string]bool)
	var teacherIDs []string
	for _, e := range entries {
		if e.TeacherID != nil && !seen[*e.TeacherID] {
			seen[*e.TeacherID] = true
			teacherIDs = append(teacherIDs, *e.TeacherID)
		}
	}
	profiles, err := s.repo.Profile.ListByIDs(ctx, teacherIDs)
	if err != nil {
		s.logger.Error("查询教师信息失败", zap.Error(err))
		return nil, nil, nil, err
	}

	classes = make(map[string]string, len(classList))
	for _, c := range classList {
		classes[c.ClassID] = c.Name
	}
	subjects = make(map[string]string, len(subjectList))
	for _, sub := range subjectList {
		subjects[sub.SubjectID] = sub.Name
	}
	teachers = make(map[string]string, len(profiles))
	for _, p := range profiles {
		teachers[p.UserID] = p.FullName
	}
	return classes, subjects, teachers, nil
}

// ── 辅助函数 ──

// nameOr 名称缺失（如班级已删除）时回退为 ID
func nameOr(names map[string]string, id string) string {
	if n, ok := names[id]; ok && n != "" {
		return n
	}
	return id
}

var sheetNameReplacer = strings.NewReplacer(
	":", "_", "\\", "_", "/", "_", "?", "_", "*", "_", "[", "(", "]", ")",
)

// uniqueSheetName Excel Sheet 名最长 31 个字符且不能含 :\/?*[]，重名时追加序号
func uniqueSheetName(name string, used map[string]bool) string {
	base := truncateRunes(sheetNameReplacer.Replace(name), 31)
	if base == "" {
		base = "班级"
	}
	candidate := base
	for n := 2; used[candidate]; n++ {
		suffix := fmt.Sprintf(" (%d)", n)
		candidate = truncateRunes(base, 31-len([]rune(suffix))) + suffix
	}
	used[candidate] = true
	return candidate
}

func truncateRunes(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
