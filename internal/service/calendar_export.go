package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	ics "github.com/arran4/golang-ical"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"school-timetable/backend/internal/model"
	"school-timetable/backend/internal/timetable"
)

var ErrExportClassNotInSchedule = errors.New("课表中没有该班级")

// ═══════════════════════════════════════════════════════════
// ExportClassCalendar：导出单个班级的 iCalendar 订阅文件
// ═══════════════════════════════════════════════════════════
//
// 每个条目对应一个 VEVENT：
//   - 首次发生日期为 from 所在周的对应星期；from 只取年月日，视为学校时区的日期，零值表示今天
//   - RRULE 按周重复 CalendarWeeks 次
//   - 时间按学校时区换算为 UTC 写出
//   - UID 由课表 ID、班级、星期与开始时间组成，重复导出时保持稳定

func (s *exportService) ExportClassCalendar(ctx context.Context, scheduleID, classID string, from time.Time) (*bytes.Buffer, string, error) {
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

	var entries []model.ScheduleEntry
	for _, e := range schedule.Entries {
		if e.ClassID == classID {
			entries = append(entries, e)
		}
	}
	if len(entries) == 0 {
		return nil, "", ErrExportClassNotInSchedule
	}
	sort.SliceStable(entries, func(a, b int) bool {
		if entries[a].DayOfWeek != entries[b].DayOfWeek {
			return entries[a].DayOfWeek < entries[b].DayOfWeek
		}
		return entries[a].StartTime < entries[b].StartTime
	})

	classNames, subjectNames, teacherNames, err := s.loadNames(ctx, entries)
	if err != nil {
		return nil, "", err
	}
	className := nameOr(classNames, classID)

	loc := s.location()
	if from.IsZero() {
		from = time.Now().In(loc)
	}
	monday := weekStart(from, loc)
	stamp := schedule.CreatedAt.UTC()

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//school-timetable//timetable export//ZH")
	cal.SetXWRCalName(fmt.Sprintf("%s %s 学年课表", className, schedule.SchoolYear))
	cal.SetXWRTimezone(loc.String())

	for _, e := range entries {
		start, end, err := entryTimes(monday, e)
		if err != nil {
			s.logger.Warn("课表条目时间无效，已跳过",
				zap.String("schedule_id", scheduleID), zap.String("start", e.StartTime), zap.Error(err))
			continue
		}

		uid := fmt.Sprintf("%s-%s-%d-%s@school-timetable", schedule.GeneratedScheduleID, e.ClassID, e.DayOfWeek, e.StartTime)
		event := cal.AddEvent(uid)
		event.SetDtStampTime(stamp)
		event.SetStartAt(start)
		event.SetEndAt(end)
		event.SetSummary(nameOr(subjectNames, e.SubjectID))
		event.SetLocation(e.Room)
		teacher := "未分配"
		if e.TeacherID != nil {
			teacher = nameOr(teacherNames, *e.TeacherID)
		}
		event.SetDescription(fmt.Sprintf("班级：%s\n教师：%s", className, teacher))
		event.AddProperty(ics.ComponentPropertyRrule, fmt.Sprintf("FREQ=WEEKLY;COUNT=%d", s.cfg.CalendarWeeks))
	}

	buf := new(bytes.Buffer)
	if err := cal.SerializeTo(buf); err != nil {
		s.logger.Error("写入 iCalendar 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("课表_%s_%s.ics", className, schedule.SchoolYear)
	return buf, filename, nil
}

// location 时区无效时退回 UTC
func (s *exportService) location() *time.Location {
	loc, err := time.LoadLocation(s.cfg.CalendarTimezone)
	if err != nil {
		s.logger.Warn("加载时区失败，使用 UTC", zap.String("timezone", s.cfg.CalendarTimezone), zap.Error(err))
		return time.UTC
	}
	return loc
}

// weekStart 取 t 自身的年月日，返回该日期在 loc 中所在周的周一零点
func weekStart(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, loc)
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

// entryTimes 把 星期 + HH:MM 落到 monday 所在周的具体时刻
func entryTimes(monday time.Time, e model.ScheduleEntry) (time.Time, time.Time, error) {
	startClock, err := timetable.ParseClock(e.StartTime)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	endClock, err := timetable.ParseClock(e.EndTime)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}

	y, m, d := monday.AddDate(0, 0, e.DayOfWeek-1).Date()
	start := time.Date(y, m, d, int(startClock)/60, int(startClock)%60, 0, 0, monday.Location())
	duration := time.Duration(endClock-startClock) * time.Minute
	if duration <= 0 {
		duration += 24 * time.Hour
	}
	return start, start.Add(duration), nil
}
