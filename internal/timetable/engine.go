// Package timetable 课表生成引擎。
//
// 引擎是纯函数：输入目录快照与生成配置，输出按 班级 → 星期 → 时间 排序的课表条目，
// 不做任何 I/O，也不在多次调用之间保留状态。
package timetable

// 工作日编号（1=周一 … 5=周五）
const (
	Monday    = 1
	Wednesday = 3
	Friday    = 5
)

// Class 班级
type Class struct {
	ID    string
	Name  string
	Level string
}

// Subject 科目
type Subject struct {
	ID   string
	Name string
}

// Assignment 教师-科目任课关系
type Assignment struct {
	TeacherID string
	SubjectID string
	IsPrimary bool
}

// Snapshot 生成时刻的目录快照（只读）
type Snapshot struct {
	Classes      []Class
	Subjects     []Subject
	Assignments  []Assignment
	TeacherCount int
}

// Entry 课表条目（草稿中的提议，尚未发布）
type Entry struct {
	ClassID   string
	SubjectID string
	TeacherID *string // 无任课教师时为 nil，留给人工处理
	DayOfWeek int
	StartTime Clock
	EndTime   Clock
	Room      string
}

// Generate 按轮转方式填充每个班级每个工作日的课时。
//
// 每天按科目自然顺序依次占用一个课时，课时数为 min(科目数, 当天可用课时数)；
// 落在午休区间内的课时直接跳到午休结束。教师取第一个匹配该科目的任课关系。
func Generate(snap Snapshot, cfg Config) []Entry {
	teachers := firstTeacherBySubject(snap.Assignments)
	rooms := newRoomAllocator(cfg)

	ticksByDay := make(map[int][]Clock, Friday)
	for day := Monday; day <= Friday; day++ {
		ticksByDay[day] = dayTicks(cfg.dayWindow(day), cfg.lunch)
	}

	entries := make([]Entry, 0, len(snap.Classes)*len(snap.Subjects)*Friday)
	for _, class := range snap.Classes {
		for day := Monday; day <= Friday; day++ {
			entries = scheduleDay(entries, class, day, ticksByDay[day], snap.Subjects, teachers, rooms)
		}
	}
	return entries
}

// scheduleDay 将科目依次放入当天的课时，结果追加到 acc 后返回
func scheduleDay(acc []Entry, class Class, day int, ticks []Clock, subjects []Subject,
	teachers map[string]string, rooms roomAllocator) []Entry {
	for i, subject := range subjects {
		if i >= len(ticks) {
			break
		}
		start := ticks[i]

		var teacherID *string
		if id, ok := teachers[subject.ID]; ok {
			teacherID = &id
		}

		acc = append(acc, Entry{
			ClassID:   class.ID,
			SubjectID: subject.ID,
			TeacherID: teacherID,
			DayOfWeek: day,
			StartTime: start,
			EndTime:   start + slotStep,
			Room:      rooms.assign(day, start),
		})
	}
	return acc
}

// dayTicks 枚举当天所有课时的开始时间
func dayTicks(day, lunch window) []Clock {
	var ticks []Clock
	for t := day.start; t < day.end; t += slotStep {
		if lunch.contains(t) {
			t = lunch.end
			if t >= day.end {
				break
			}
		}
		ticks = append(ticks, t)
	}
	return ticks
}

// firstTeacherBySubject 每个科目取任课关系列表中第一个出现的教师
func firstTeacherBySubject(assignments []Assignment) map[string]string {
	m := make(map[string]string, len(assignments))
	for _, a := range assignments {
		if _, ok := m[a.SubjectID]; !ok {
			m[a.SubjectID] = a.TeacherID
		}
	}
	return m
}

// Stats 生成结果概要
type Stats struct {
	Entries           int
	UnassignedTeacher int
	Conflicts         int
}

// Summarize 统计条目数、无教师条目数与教室冲突数
func Summarize(entries []Entry) Stats {
	s := Stats{Entries: len(entries), Conflicts: len(DetectRoomConflicts(entries))}
	for _, e := range entries {
		if e.TeacherID == nil {
			s.UnassignedTeacher++
		}
	}
	return s
}
