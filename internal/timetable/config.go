package timetable

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig 生成配置无法解析（时间格式错误、教室数非法等）
var ErrInvalidConfig = errors.New("课表生成配置无效")

// RoomStrategy 教室分配策略
type RoomStrategy string

const (
	// RoomRoundRobin 全局计数器轮转，不检查同一时段的教室占用
	RoomRoundRobin RoomStrategy = "round_robin"
	// RoomConflictFree 按 (星期, 开始时间) 选择第一个空闲教室，教室用尽时退回轮转
	RoomConflictFree RoomStrategy = "conflict_free"
)

// slotStep 每节课的推进步长。course_duration/break_duration 仅随配置保存，不参与推进
const slotStep Clock = 60

// Input 生成配置原始输入，时间字段均为 "HH:MM"
type Input struct {
	WeekdayStart          string
	WeekdayEnd            string
	WednesdayStart        string
	WednesdayEnd          string
	CourseDurationMinutes int
	BreakDurationMinutes  int
	LunchStart            string
	LunchEnd              string
	TotalRooms            int
	RoomStrategy          RoomStrategy
}

// Config 解析后的生成配置（不可变）
type Config struct {
	weekday        window
	wednesday      window
	lunch          window
	courseDuration int
	breakDuration  int
	totalRooms     int
	strategy       RoomStrategy
}

// ParseConfig 解析并校验生成配置
func ParseConfig(in Input) (Config, error) {
	var cfg Config

	fields := []struct {
		name  string
		value string
		dst   *Clock
	}{
		{"weekday_start", in.WeekdayStart, &cfg.weekday.start},
		{"weekday_end", in.WeekdayEnd, &cfg.weekday.end},
		{"wednesday_start", in.WednesdayStart, &cfg.wednesday.start},
		{"wednesday_end", in.WednesdayEnd, &cfg.wednesday.end},
		{"lunch_start", in.LunchStart, &cfg.lunch.start},
		{"lunch_end", in.LunchEnd, &cfg.lunch.end},
	}
	for _, f := range fields {
		c, err := ParseClock(f.value)
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", f.name, err)
		}
		*f.dst = c
	}

	if in.TotalRooms < 1 {
		return Config{}, fmt.Errorf("%w: total_rooms 必须为正整数，实际 %d", ErrInvalidConfig, in.TotalRooms)
	}
	if in.CourseDurationMinutes < 0 || in.BreakDurationMinutes < 0 {
		return Config{}, fmt.Errorf("%w: 课时与课间时长不能为负数", ErrInvalidConfig)
	}

	switch in.RoomStrategy {
	case "":
		cfg.strategy = RoomRoundRobin
	case RoomRoundRobin, RoomConflictFree:
		cfg.strategy = in.RoomStrategy
	default:
		return Config{}, fmt.Errorf("%w: 未知的教室分配策略 %q", ErrInvalidConfig, in.RoomStrategy)
	}

	cfg.courseDuration = in.CourseDurationMinutes
	cfg.breakDuration = in.BreakDurationMinutes
	cfg.totalRooms = in.TotalRooms
	return cfg, nil
}

// TotalRooms 教室总数
func (c Config) TotalRooms() int { return c.totalRooms }

// Strategy 教室分配策略
func (c Config) Strategy() RoomStrategy { return c.strategy }

// dayWindow 周三使用缩短的作息，其余工作日使用常规作息
func (c Config) dayWindow(day int) window {
	if day == Wednesday {
		return c.wednesday
	}
	return c.weekday
}
