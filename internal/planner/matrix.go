package planner

import (
	"sort"
	"strings"
)

// MatrixEntry 多周总览中的一条会话
type MatrixEntry struct {
	SessionID  string  `json:"session_id"`
	CourseID   string  `json:"course_id"`
	CourseName string  `json:"course_name"`
	Color      *string `json:"color,omitempty"`
	Date       string  `json:"date"`
	Start      string  `json:"start"`
	End        string  `json:"end"`
}

// MatrixRow 多周总览的一行：一个周次 × 周五/周六/周日
type MatrixRow struct {
	Week Week                  `json:"week"`
	Days map[Day][]MatrixEntry `json:"days"`
}

// BuildMatrix 生成全部周次的总览。
// 周次由全部会话生成；filter 非空时只填入名称在 filter 中的课程，空周次仍保留。
func BuildMatrix(sessions []Session, courses map[string]Course, filter []string) []MatrixRow {
	allowed := make(map[string]bool, len(filter))
	for _, name := range filter {
		if name = strings.TrimSpace(name); name != "" {
			allowed[name] = true
		}
	}

	weeks := WeeksFromSessions(sessions)
	rows := make([]MatrixRow, len(weeks))
	index := make(map[string]int, len(weeks))
	for i, w := range weeks {
		rows[i] = MatrixRow{Week: w, Days: map[Day][]MatrixEntry{Fri: {}, Sat: {}, Sun: {}}}
		index[w.Key] = i
	}

	for _, s := range sessions {
		course := courses[s.CourseID]
		if len(allowed) > 0 && !allowed[course.Name] {
			continue
		}
		key, err := WeekKeyForDate(s.Date)
		if err != nil {
			continue
		}
		day, _ := DayOfDate(s.Date)
		i, ok := index[key]
		if !ok {
			continue
		}
		rows[i].Days[day] = append(rows[i].Days[day], MatrixEntry{
			SessionID:  s.ID,
			CourseID:   s.CourseID,
			CourseName: course.Name,
			Color:      course.Color,
			Date:       s.Date,
			Start:      s.Start,
			End:        s.End,
		})
	}

	for _, row := range rows {
		for _, entries := range row.Days {
			sort.SliceStable(entries, func(i, j int) bool { return entries[i].Start < entries[j].Start })
		}
	}
	return rows
}

// Credits 学分汇总
type Credits struct {
	Total      float64 `json:"total"`
	Mandatory  float64 `json:"mandatory"`
	MO         float64 `json:"mo"`
	NoCategory float64 `json:"no_category"`
}

// CreditSummary 按课程类型汇总学分，跳过已归档及学分不为正的课程
func CreditSummary(courses []Course) Credits {
	var c Credits
	for _, course := range courses {
		if course.Archived || course.Credits <= 0 {
			continue
		}
		c.Total += course.Credits
		switch course.Type {
		case CourseTypeMandatory:
			c.Mandatory += course.Credits
		case CourseTypeMO:
			c.MO += course.Credits
		default:
			c.NoCategory += course.Credits
		}
	}
	return c
}
