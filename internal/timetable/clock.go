package timetable

import (
	"fmt"
	"strconv"
	"strings"
)

// Clock 一天内的墙上时间，单位为自午夜起的分钟数
type Clock int

const minutesPerDay = 24 * 60

// ParseClock 解析 "HH:MM"（兼容数据库 time 类型返回的 "HH:MM:SS"）
func ParseClock(s string) (Clock, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, fmt.Errorf("%w: 时间格式应为 HH:MM，实际 %q", ErrInvalidConfig, s)
	}
	if len(parts) == 3 && parts[2] != "00" {
		return 0, fmt.Errorf("%w: 时间不支持秒级精度 %q", ErrInvalidConfig, s)
	}
	if len(parts[0]) != 2 || len(parts[1]) != 2 {
		return 0, fmt.Errorf("%w: 时间格式应为 HH:MM，实际 %q", ErrInvalidConfig, s)
	}

	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("%w: 无效的小时 %q", ErrInvalidConfig, s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("%w: 无效的分钟 %q", ErrInvalidConfig, s)
	}
	return Clock(h*60 + m), nil
}

// MustParseClock 仅用于常量与测试
func MustParseClock(s string) Clock {
	c, err := ParseClock(s)
	if err != nil {
		panic(err)
	}
	return c
}

// String 格式化为 "HH:MM"；跨过午夜的时间按 24 小时取模
func (c Clock) String() string {
	v := int(c) % minutesPerDay
	if v < 0 {
		v += minutesPerDay
	}
	return fmt.Sprintf("%02d:%02d", v/60, v%60)
}

// window 半开区间 [start, end)
type window struct {
	start Clock
	end   Clock
}

func (w window) contains(c Clock) bool {
	return c >= w.start && c < w.end
}
