package planner

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

const isoDateLayout = "2006-01-02"

// ErrInvalidDate 日期格式无效
var ErrInvalidDate = errors.New("日期格式必须为 YYYY-MM-DD")

// Day 周末中的某一天
type Day string

const (
	Fri Day = "Fri"
	Sat Day = "Sat"
	Sun Day = "Sun"
)

// Days 网格列顺序
var Days = []Day{Fri, Sat, Sun}

// Week 周末周次：以周五日期为 Key，仅由含数据的日期生成
type Week struct {
	ID    string `json:"id"`    // W01, W02 …
	Key   string `json:"key"`   // 周五 YYYY-MM-DD
	Label string `json:"label"` // dd. mm. yyyy–dd. mm. yyyy
	Start string `json:"start"` // 周五
	End   string `json:"end"`   // 周日
}

// ParseDate 解析 YYYY-MM-DD
func ParseDate(date string) (time.Time, error) {
	t, err := time.Parse(isoDateLayout, date)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}
	return t, nil
}

// WeekKeyForDate 返回日期所属周末的周五日期。
// 周五/周六/周日归入本周五；周一至周四回退到之前最近的周五（归入刚结束的周末）。
func WeekKeyForDate(date string) (string, error) {
	d, err := ParseDate(date)
	if err != nil {
		return "", err
	}
	return fridayOf(d).Format(isoDateLayout), nil
}

func fridayOf(d time.Time) time.Time {
	// time.Friday = 5；(dow - 5 + 7) % 7 为距上一个（含当天）周五的天数
	back := (int(d.Weekday()) - int(time.Friday) + 7) % 7
	return d.AddDate(0, 0, -back)
}

// DayOfDate 返回日期在网格中的列。周一至周四与周日同列显示。
func DayOfDate(date string) (Day, error) {
	d, err := ParseDate(date)
	if err != nil {
		return "", err
	}
	switch d.Weekday() {
	case time.Friday:
		return Fri, nil
	case time.Saturday:
		return Sat, nil
	default:
		return Sun, nil
	}
}

// BuildWeeksFromDates 由日期集合生成按 Key 升序、编号连续的周次列表。
// 无法解析的日期被跳过。
func BuildWeeksFromDates(dates []string) []Week {
	seen := make(map[string]time.Time)
	for _, date := range dates {
		d, err := ParseDate(date)
		if err != nil {
			continue
		}
		fri := fridayOf(d)
		seen[fri.Format(isoDateLayout)] = fri
	}

	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	// ISO 日期按字典序即时间序
	sort.Strings(keys)

	weeks := make([]Week, 0, len(keys))
	for i, key := range keys {
		start := seen[key]
		end := start.AddDate(0, 0, 2)
		weeks = append(weeks, Week{
			ID:    fmt.Sprintf("W%02d", i+1),
			Key:   key,
			Label: formatDate(start) + "–" + formatDate(end),
			Start: key,
			End:   end.Format(isoDateLayout),
		})
	}
	return weeks
}

// WeeksFromSessions 便捷封装：按会话日期生成周次
func WeeksFromSessions(sessions []Session) []Week {
	dates := make([]string, 0, len(sessions))
	for _, s := range sessions {
		dates = append(dates, s.Date)
	}
	return BuildWeeksFromDates(dates)
}

// SessionsInWeek 过滤出属于指定周次的会话
func SessionsInWeek(sessions []Session, weekKey string) []Session {
	var out []Session
	for _, s := range sessions {
		if key, err := WeekKeyForDate(s.Date); err == nil && key == weekKey {
			out = append(out, s)
		}
	}
	return out
}

func formatDate(d time.Time) string {
	return d.Format("02. 01. 2006")
}
