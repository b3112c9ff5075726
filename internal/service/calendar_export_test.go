package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
	_ "time/tzdata"

	ics "github.com/arran4/golang-ical"
	"go.uber.org/zap"
)

func TestExportService_ExportClassCalendar_Success(t *testing.T) {
	repos := newScenarioRepos()
	gen := setupTestGenerationService(repos)
	resp, err := gen.Generate(context.Background(), scenarioRequest(), "admin-1")
	if err != nil {
		t.Fatalf("Generate 应成功: %v", err)
	}
	svc := setupTestExportService(repos)

	// 2025-09-03 是周三，首次上课应落在 2025-09-01 所在周
	from := time.Date(2025, 9, 3, 15, 0, 0, 0, time.UTC)
	buf, filename, err := svc.ExportClassCalendar(context.Background(), resp.Schedule.ID, "class-a", from)
	if err != nil {
		t.Fatalf("ExportClassCalendar 应成功: %v", err)
	}
	if filename != "课表_6e A_2025-2026.ics" {
		t.Errorf("文件名不符，实际=%s", filename)
	}
	if !strings.Contains(buf.String(), "FREQ=WEEKLY;COUNT=36") {
		t.Error("应包含每周重复规则")
	}

	cal, err := ics.ParseCalendar(strings.NewReader(buf.String()))
	if err != nil {
		t.Fatalf("解析导出的 iCalendar 失败: %v", err)
	}
	events := cal.Events()
	if len(events) != 15 {
		t.Fatalf("期望 15 个事件，实际=%d", len(events))
	}

	first := events[0]
	start, err := first.GetStartAt()
	if err != nil {
		t.Fatalf("读取开始时间失败: %v", err)
	}
	if want := time.Date(2025, 9, 1, 7, 0, 0, 0, time.UTC); !start.Equal(want) {
		t.Errorf("首个事件开始时间期望 %s，实际=%s", want, start)
	}
	if got := first.GetProperty(ics.ComponentPropertySummary).Value; got != "Mathématiques" {
		t.Errorf("首个事件标题期望 Mathématiques，实际=%s", got)
	}
	if got := first.GetProperty(ics.ComponentPropertyLocation).Value; got != "Room 1" {
		t.Errorf("首个事件地点期望 Room 1，实际=%s", got)
	}

	last, _ := events[len(events)-1].GetStartAt()
	if last.Weekday() != time.Friday {
		t.Errorf("最后一个事件应在周五，实际=%s", last.Weekday())
	}
}

func TestExportService_ExportClassCalendar_Timezone(t *testing.T) {
	repos := newScenarioRepos()
	gen := setupTestGenerationService(repos)
	resp, _ := gen.Generate(context.Background(), scenarioRequest(), "admin-1")

	cfg := testTimetableConfig()
	cfg.CalendarTimezone = "Etc/GMT-2" // UTC+2
	svc := NewExportService(cfg, repos.repository(), zap.NewNop())

	buf, _, err := svc.ExportClassCalendar(context.Background(), resp.Schedule.ID, "class-b",
		time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("ExportClassCalendar 应成功: %v", err)
	}
	cal, err := ics.ParseCalendar(strings.NewReader(buf.String()))
	if err != nil {
		t.Fatalf("解析失败: %v", err)
	}
	start, _ := cal.Events()[0].GetStartAt()
	if want := time.Date(2025, 9, 1, 5, 0, 0, 0, time.UTC); !start.Equal(want) {
		t.Errorf("07:00 (UTC+2) 应换算为 05:00 UTC，实际=%s", start.UTC())
	}
}

func TestExportService_ExportClassCalendar_WestOfUTC(t *testing.T) {
	repos := newScenarioRepos()
	gen := setupTestGenerationService(repos)
	resp, _ := gen.Generate(context.Background(), scenarioRequest(), "admin-1")

	cfg := testTimetableConfig()
	cfg.CalendarTimezone = "America/New_York"
	svc := NewExportService(cfg, repos.repository(), zap.NewNop())
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("加载时区失败: %v", err)
	}

	// 查询参数 from=2025-09-01 解析为 UTC 零点，仍应视为纽约的周一
	buf, _, err := svc.ExportClassCalendar(context.Background(), resp.Schedule.ID, "class-a",
		time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("ExportClassCalendar 应成功: %v", err)
	}
	cal, err := ics.ParseCalendar(strings.NewReader(buf.String()))
	if err != nil {
		t.Fatalf("解析失败: %v", err)
	}
	start, _ := cal.Events()[0].GetStartAt()
	if want := time.Date(2025, 9, 1, 7, 0, 0, 0, ny); !start.Equal(want) {
		t.Errorf("首个事件期望 %s，实际=%s", want, start.In(ny))
	}
}

func TestExportService_ExportClassCalendar_DefaultsToToday(t *testing.T) {
	repos := newScenarioRepos()
	gen := setupTestGenerationService(repos)
	resp, _ := gen.Generate(context.Background(), scenarioRequest(), "admin-1")
	svc := setupTestExportService(repos)

	buf, _, err := svc.ExportClassCalendar(context.Background(), resp.Schedule.ID, "class-a", time.Time{})
	if err != nil {
		t.Fatalf("ExportClassCalendar 应成功: %v", err)
	}
	cal, err := ics.ParseCalendar(strings.NewReader(buf.String()))
	if err != nil {
		t.Fatalf("解析失败: %v", err)
	}
	start, _ := cal.Events()[0].GetStartAt()
	if want := weekStart(time.Now().UTC(), time.UTC); start.Before(want) || start.After(want.AddDate(0, 0, 7)) {
		t.Errorf("首个事件应落在本周，实际=%s", start)
	}
}

func TestExportService_ExportClassCalendar_Errors(t *testing.T) {
	repos := newScenarioRepos()
	gen := setupTestGenerationService(repos)
	resp, _ := gen.Generate(context.Background(), scenarioRequest(), "admin-1")
	svc := setupTestExportService(repos)
	now := time.Now()

	if _, _, err := svc.ExportClassCalendar(context.Background(), "nonexistent", "class-a", now); !errors.Is(err, ErrScheduleNotFound) {
		t.Errorf("期望 ErrScheduleNotFound，实际: %v", err)
	}
	if _, _, err := svc.ExportClassCalendar(context.Background(), resp.Schedule.ID, "class-z", now); !errors.Is(err, ErrExportClassNotInSchedule) {
		t.Errorf("期望 ErrExportClassNotInSchedule，实际: %v", err)
	}
}

func TestWeekStart(t *testing.T) {
	tests := []struct {
		in   time.Time
		want time.Time
	}{
		{time.Date(2025, 9, 1, 10, 0, 0, 0, time.UTC), time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)},
		{time.Date(2025, 9, 7, 23, 0, 0, 0, time.UTC), time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)},
		{time.Date(2025, 9, 10, 0, 0, 0, 0, time.UTC), time.Date(2025, 9, 8, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		if got := weekStart(tt.in, time.UTC); !got.Equal(tt.want) {
			t.Errorf("weekStart(%s) 期望 %s，实际=%s", tt.in, tt.want, got)
		}
	}

	// 日期按字面取年月日，不随 loc 换算
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("加载时区失败: %v", err)
	}
	got := weekStart(time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC), ny)
	if want := time.Date(2025, 9, 1, 0, 0, 0, 0, ny); !got.Equal(want) {
		t.Errorf("期望 %s，实际=%s", want, got)
	}
}
