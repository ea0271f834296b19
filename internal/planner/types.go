// Package planner 周末课程排课核心：周次划分、冲突检测、日视图列布局。
//
// 包内全部为纯函数：输入为调用方一次性取出的会话/课程快照，
// 每次调用都重新计算并返回新的派生结构，不持有任何共享状态，可并发调用。
package planner

// Course 课程快照（只读视图）
type Course struct {
	ID       string
	Name     string
	Credits  float64
	Color    *string
	Type     string // mandatory | mo | ""
	Archived bool
}

// 课程类型
const (
	CourseTypeMandatory = "mandatory"
	CourseTypeMO        = "mo"
)

// Session 单次课（只读视图）
type Session struct {
	ID       string
	CourseID string
	Date     string // YYYY-MM-DD
	Start    string // HH:MM
	End      string // HH:MM
}

// span 解析后的会话时间，解析失败的会话不参与任何计算
type span struct {
	Session
	start int
	end   int
}

func parseSpan(s Session) (span, bool) {
	start, err := TimeToMinutes(s.Start)
	if err != nil {
		return span{}, false
	}
	end, err := TimeToMinutes(s.End)
	if err != nil {
		return span{}, false
	}
	return span{Session: s, start: start, end: end}, true
}
