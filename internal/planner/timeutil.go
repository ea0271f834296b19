package planner

import (
	"errors"
	"fmt"
	"strconv"
)

// ── 时间区间工具 ──────────────────────────────────────────────
//
// 所有时间均为朴素本地时间 HH:MM（24 小时制），不涉及时区。
// 重叠判断统一使用半开区间 [start, end)，首尾相接不算重叠。
// ─────────────────────────────────────────────────────────────

// ErrInvalidTime 时间格式无效
var ErrInvalidTime = errors.New("时间格式必须为 HH:MM")

// Window 网格可视时间范围 [MinHour, MaxHour)
type Window struct {
	MinHour int
	MaxHour int
}

// DefaultWindow 默认 8:00–20:00
var DefaultWindow = Window{MinHour: 8, MaxHour: 20}

// MinMinutes 可视范围下界（分钟）
func (w Window) MinMinutes() int { return w.MinHour * 60 }

// MaxMinutes 可视范围上界（分钟）
func (w Window) MaxMinutes() int { return w.MaxHour * 60 }

// TotalMinutes 可视范围总分钟数
func (w Window) TotalMinutes() int { return (w.MaxHour - w.MinHour) * 60 }

// Valid 校验范围本身是否合法
func (w Window) Valid() bool {
	return w.MinHour >= 0 && w.MaxHour <= 24 && w.MinHour < w.MaxHour
}

// Contains 判断 [start, end] 是否落在可视范围内（仅用于录入校验，布局只做截断）
func (w Window) Contains(start, end int) bool {
	return start >= w.MinMinutes() && end <= w.MaxMinutes()
}

// TimeToMinutes 将 HH:MM 解析为当日分钟数
func TimeToMinutes(t string) (int, error) {
	if len(t) != 5 || t[2] != ':' {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, t)
	}
	h, err := strconv.Atoi(t[:2])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, t)
	}
	m, err := strconv.Atoi(t[3:])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, t)
	}
	return h*60 + m, nil
}

// MinutesToTime 将分钟数格式化为 HH:MM
func MinutesToTime(mins int) string {
	return fmt.Sprintf("%02d:%02d", mins/60, mins%60)
}

// Clamp 将 v 截断到 [lo, hi]
func Clamp(v, lo, hi int) int {
	return max(lo, min(hi, v))
}

// RangesOverlap 半开区间重叠判断：aStart < bEnd && bStart < aEnd
func RangesOverlap(aStart, aEnd, bStart, bEnd int) bool {
	return aStart < bEnd && bStart < aEnd
}

// ValidTimeRange 校验 start/end 可解析且 end 严格晚于 start
func ValidTimeRange(start, end string) error {
	s, err := TimeToMinutes(start)
	if err != nil {
		return err
	}
	e, err := TimeToMinutes(end)
	if err != nil {
		return err
	}
	if e <= s {
		return ErrEndNotAfterStart
	}
	return nil
}

// ErrEndNotAfterStart 结束时间不晚于开始时间
var ErrEndNotAfterStart = errors.New("结束时间必须晚于开始时间")
