package planner

import (
	"sort"
)

// ConflictSide 冲突一侧：课程及触发冲突的具体会话
type ConflictSide struct {
	CourseID   string `json:"course_id"`
	CourseName string `json:"course_name"`
	SessionID  string `json:"session_id"`
}

// Conflict 一对不同课程在同一天的时间重叠，仅保留最早一次
type Conflict struct {
	Date  string       `json:"date"`
	Start string       `json:"start"` // 两会话 min(start)
	End   string       `json:"end"`   // 两会话 max(end)
	A     ConflictSide `json:"a"`
	B     ConflictSide `json:"b"`
}

// PairKey 无序课程对的规范键
func (c Conflict) PairKey() string {
	return pairKey(c.A.CourseID, c.B.CourseID)
}

// Involves 冲突是否涉及指定课程
func (c Conflict) Involves(courseID string) bool {
	return c.A.CourseID == courseID || c.B.CourseID == courseID
}

func pairKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + "::" + b
}

// GetConflicts 检测不同课程会话间的全部时间重叠，
// 每个无序课程对仅保留最早（date, start）的一条，结果按 (date, start) 升序。
//
// sessions 应已由调用方过滤为单个用户的未归档课程；courses 用于回填课程名。
// 同一对课程在同一最早时刻出现多次时，保留扫描顺序中的第一条。
func GetConflicts(sessions []Session, courses map[string]Course) []Conflict {
	byDate := groupByDate(sessions)

	dates := make([]string, 0, len(byDate))
	for d := range byDate {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	earliest := make(map[string]Conflict)
	for _, date := range dates {
		day := byDate[date]
		for i := 0; i < len(day); i++ {
			for j := i + 1; j < len(day); j++ {
				a, b := day[i], day[j]
				if a.CourseID == b.CourseID {
					continue
				}
				if !RangesOverlap(a.start, a.end, b.start, b.end) {
					continue
				}
				c := newConflict(a, b, courses)
				key := c.PairKey()
				cur, ok := earliest[key]
				if !ok || c.Date+"T"+c.Start < cur.Date+"T"+cur.Start {
					earliest[key] = c
				}
			}
		}
	}

	result := make([]Conflict, 0, len(earliest))
	for _, c := range earliest {
		result = append(result, c)
	}
	sort.SliceStable(result, func(i, j int) bool {
		if result[i].Date != result[j].Date {
			return result[i].Date < result[j].Date
		}
		if result[i].Start != result[j].Start {
			return result[i].Start < result[j].Start
		}
		// map 遍历无序，按课程对键兜底保证输出确定
		return result[i].PairKey() < result[j].PairKey()
	})
	return result
}

// groupByDate 按日期分桶，桶内按开始时间升序；时间无法解析的会话被丢弃
func groupByDate(sessions []Session) map[string][]span {
	byDate := make(map[string][]span)
	for _, s := range sessions {
		sp, ok := parseSpan(s)
		if !ok {
			continue
		}
		if _, err := ParseDate(s.Date); err != nil {
			continue
		}
		byDate[s.Date] = append(byDate[s.Date], sp)
	}
	for _, day := range byDate {
		sort.SliceStable(day, func(i, j int) bool { return day[i].start < day[j].start })
	}
	return byDate
}

func newConflict(a, b span, courses map[string]Course) Conflict {
	start, end := a.Start, a.End
	if b.start < a.start {
		start = b.Start
	}
	if b.end > a.end {
		end = b.End
	}
	return Conflict{
		Date:  a.Date,
		Start: start,
		End:   end,
		A:     ConflictSide{CourseID: a.CourseID, CourseName: courses[a.CourseID].Name, SessionID: a.ID},
		B:     ConflictSide{CourseID: b.CourseID, CourseName: courses[b.CourseID].Name, SessionID: b.ID},
	}
}

// WithoutCourse 移除涉及某课程的全部冲突（归档后的本地视图）
func WithoutCourse(conflicts []Conflict, courseID string) []Conflict {
	out := make([]Conflict, 0, len(conflicts))
	for _, c := range conflicts {
		if !c.Involves(courseID) {
			out = append(out, c)
		}
	}
	return out
}

// Stats 冲突课程对计数：全局去重与按周去重
type Stats struct {
	Global  int            `json:"global"`
	PerWeek map[string]int `json:"per_week"`
}

// CountConflictPairs 统计存在重叠的不同课程对数量。
// 与 GetConflicts 不同，同一课程对在不同周分别计入各自周次。
func CountConflictPairs(sessions []Session) Stats {
	global := make(map[string]struct{})
	perWeek := make(map[string]map[string]struct{})

	for date, day := range groupByDate(sessions) {
		week, err := WeekKeyForDate(date)
		if err != nil {
			continue
		}
		for i := 0; i < len(day); i++ {
			for j := i + 1; j < len(day); j++ {
				a, b := day[i], day[j]
				if a.CourseID == b.CourseID || !RangesOverlap(a.start, a.end, b.start, b.end) {
					continue
				}
				key := pairKey(a.CourseID, b.CourseID)
				global[key] = struct{}{}
				if perWeek[week] == nil {
					perWeek[week] = make(map[string]struct{})
				}
				perWeek[week][key] = struct{}{}
			}
		}
	}

	stats := Stats{Global: len(global), PerWeek: make(map[string]int, len(perWeek))}
	for w, set := range perWeek {
		stats.PerWeek[w] = len(set)
	}
	return stats
}
