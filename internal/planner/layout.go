package planner

import "sort"

// Positioned 会话在日视图列中的渲染位置（均为百分比）
type Positioned struct {
	SessionID string  `json:"session_id"`
	TopPct    float64 `json:"top_pct"`
	HeightPct float64 `json:"height_pct"`
	LeftPct   float64 `json:"left_pct"`
	WidthPct  float64 `json:"width_pct"`
	Column    int     `json:"column"`  // 簇内列号，0 起
	Columns   int     `json:"columns"` // 所在簇的总列数
}

// LayoutDay 对同一天的会话做不重叠布局：
//  1. 按开始时间排序；
//  2. 以运行中的簇结束时间切分传递重叠簇（首尾相接不并簇）；
//  3. 簇内按贪心区间划分分配最少列数；
//  4. 宽度 = 100 / 列数，左偏移 = 列号 × 宽度；纵向位置按 Window 截断后换算。
//
// 时间无法解析的会话不参与布局。
func LayoutDay(sessions []Session, w Window) []Positioned {
	spans := make([]span, 0, len(sessions))
	for _, s := range sessions {
		if sp, ok := parseSpan(s); ok {
			spans = append(spans, sp)
		}
	}
	sort.SliceStable(spans, func(i, j int) bool { return spans[i].start < spans[j].start })

	result := make([]Positioned, 0, len(spans))
	for _, cluster := range clusterSpans(spans) {
		cols := assignColumns(cluster)
		count := 0
		for _, c := range cols {
			count = max(count, c+1)
		}
		width := 100 / float64(count)
		for i, sp := range cluster {
			top, height := verticalPosition(sp.start, sp.end, w)
			result = append(result, Positioned{
				SessionID: sp.ID,
				TopPct:    top,
				HeightPct: height,
				LeftPct:   float64(cols[i]) * width,
				WidthPct:  width,
				Column:    cols[i],
				Columns:   count,
			})
		}
	}
	return result
}

// clusterSpans 将已排序的会话切分为传递重叠的最大簇
func clusterSpans(sorted []span) [][]span {
	var clusters [][]span
	var current []span
	runningEnd := 0
	for _, sp := range sorted {
		if len(current) > 0 && sp.start < runningEnd {
			current = append(current, sp)
			runningEnd = max(runningEnd, sp.end)
			continue
		}
		if len(current) > 0 {
			clusters = append(clusters, current)
		}
		current = []span{sp}
		runningEnd = sp.end
	}
	if len(current) > 0 {
		clusters = append(clusters, current)
	}
	return clusters
}

// assignColumns 贪心区间划分：放入第一个空闲时刻 <= 开始时间的列，否则新开一列
func assignColumns(cluster []span) []int {
	freeAt := make([]int, 0, len(cluster))
	cols := make([]int, len(cluster))
	for i, sp := range cluster {
		placed := false
		for c := range freeAt {
			if freeAt[c] <= sp.start {
				freeAt[c] = sp.end
				cols[i] = c
				placed = true
				break
			}
		}
		if !placed {
			freeAt = append(freeAt, sp.end)
			cols[i] = len(freeAt) - 1
		}
	}
	return cols
}

// verticalPosition 纵向位置；完全落在可视范围之外的会话高度为 0
func verticalPosition(start, end int, w Window) (top, height float64) {
	lo, hi := w.MinMinutes(), w.MaxMinutes()
	total := float64(w.TotalMinutes())
	if total <= 0 {
		return 0, 0
	}
	s := Clamp(start, lo, hi)
	e := Clamp(end, lo, hi)
	top = float64(s-lo) / total * 100
	height = float64(e-s) / total * 100
	return top, height
}

// DayColumn 网格中的一列
type DayColumn struct {
	Day      Day          `json:"day"`
	Sessions []Session    `json:"-"`
	Layout   []Positioned `json:"layout"`
}

// Grid 单个周次的周五/周六/周日视图
type Grid struct {
	Week    Week        `json:"week"`
	Columns []DayColumn `json:"columns"`
}

// BuildWeekGrid 取出指定周次的会话，按天分列并逐列布局
func BuildWeekGrid(sessions []Session, week Week, w Window) Grid {
	byDay := make(map[Day][]Session, len(Days))
	for _, s := range SessionsInWeek(sessions, week.Key) {
		day, err := DayOfDate(s.Date)
		if err != nil {
			continue
		}
		byDay[day] = append(byDay[day], s)
	}

	grid := Grid{Week: week, Columns: make([]DayColumn, 0, len(Days))}
	for _, d := range Days {
		grid.Columns = append(grid.Columns, DayColumn{
			Day:      d,
			Sessions: byDay[d],
			Layout:   LayoutDay(byDay[d], w),
		})
	}
	return grid
}
