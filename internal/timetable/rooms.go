package timetable

import (
	"fmt"
	"sort"
)

// RoomLabel 教室编号 → 展示名称
func RoomLabel(n int) string {
	return fmt.Sprintf("Room %d", n)
}

// roomAllocator 每次 Generate 调用独立创建，不跨调用共享状态
type roomAllocator interface {
	assign(day int, start Clock) string
}

func newRoomAllocator(cfg Config) roomAllocator {
	if cfg.strategy == RoomConflictFree {
		return &conflictFreeRooms{
			total:    cfg.totalRooms,
			occupied: make(map[slotKey]map[int]bool),
		}
	}
	return &roundRobinRooms{total: cfg.totalRooms}
}

// roundRobinRooms 整次生成共用一个计数器：第 N 个条目分到 (N mod R)+1 号教室
type roundRobinRooms struct {
	total int
	n     int
}

func (r *roundRobinRooms) assign(int, Clock) string {
	room := r.n%r.total + 1
	r.n++
	return RoomLabel(room)
}

type slotKey struct {
	day   int
	start Clock
}

// conflictFreeRooms 同一 (星期, 开始时间) 内取编号最小的空闲教室；全部占用时退回轮转编号
type conflictFreeRooms struct {
	total    int
	occupied map[slotKey]map[int]bool
	fallback roundRobinRooms
}

func (r *conflictFreeRooms) assign(day int, start Clock) string {
	key := slotKey{day: day, start: start}
	used := r.occupied[key]
	if used == nil {
		used = make(map[int]bool, r.total)
		r.occupied[key] = used
	}
	for room := 1; room <= r.total; room++ {
		if !used[room] {
			used[room] = true
			return RoomLabel(room)
		}
	}
	r.fallback.total = r.total
	return r.fallback.assign(day, start)
}

// RoomConflict 同一时段被多个班级占用的教室
type RoomConflict struct {
	DayOfWeek int
	StartTime Clock
	Room      string
	ClassIDs  []string
}

// DetectRoomConflicts 按 (星期, 开始时间, 教室) 索引条目，返回被重复占用的教室。
// 同一天所有班级共用同一组课时，因此按开始时间精确匹配即可。
func DetectRoomConflicts(entries []Entry) []RoomConflict {
	type key struct {
		day   int
		start Clock
		room  string
	}
	index := make(map[key][]string)
	var order []key
	for _, e := range entries {
		k := key{day: e.DayOfWeek, start: e.StartTime, room: e.Room}
		if _, seen := index[k]; !seen {
			order = append(order, k)
		}
		index[k] = append(index[k], e.ClassID)
	}

	var conflicts []RoomConflict
	for _, k := range order {
		classes := index[k]
		if len(classes) < 2 {
			continue
		}
		conflicts = append(conflicts, RoomConflict{
			DayOfWeek: k.day,
			StartTime: k.start,
			Room:      k.room,
			ClassIDs:  classes,
		})
	}

	sort.SliceStable(conflicts, func(i, j int) bool {
		if conflicts[i].DayOfWeek != conflicts[j].DayOfWeek {
			return conflicts[i].DayOfWeek < conflicts[j].DayOfWeek
		}
		return conflicts[i].StartTime < conflicts[j].StartTime
	})
	return conflicts
}

// UncoveredSubjects 返回存在无教师条目的科目 ID（按首次出现顺序）
func UncoveredSubjects(entries []Entry) []string {
	seen := make(map[string]bool)
	var ids []string
	for _, e := range entries {
		if e.TeacherID != nil || seen[e.SubjectID] {
			continue
		}
		seen[e.SubjectID] = true
		ids = append(ids, e.SubjectID)
	}
	return ids
}
