package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"go.uber.org/zap"

	"weekend-planner/backend/internal/dto"
	"weekend-planner/backend/internal/planner"
)

// ── ICS 导入导出 ──────────────────────────────────────────────
//
// 每个 VEVENT 对应一个课次，SUMMARY 为课程名。
//   - 导出：只含未归档课程，时间按配置时区换算为 UTC
//   - 导入：DTSTART/DTEND 换算到配置时区后取日期与 HH:MM；
//     缺少 DTEND 时使用 DURATION；RRULE 不展开，只导入首次
//   - 跨天事件与时间无效的事件跳过并记录原因
// ─────────────────────────────────────────────────────────────

const (
	icsMaxFileSize = 5 * 1024 * 1024 // 5MB
	icsProductID   = "-//weekend-planner//planner//CS"
	icsUIDSuffix   = "@weekend-planner"
)

var icsDurationRe = regexp.MustCompile(`^([+-])?P(?:(\d+)W)?(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?)?$`)

func (s *dataService) ExportICS(ctx context.Context, userID string) (*bytes.Buffer, string, error) {
	_, sessions, err := s.loadAll(ctx, userID)
	if err != nil {
		return nil, "", err
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(icsProductID)

	stamp := s.now().UTC()
	for i := range sessions {
		ss := &sessions[i]
		if ss.Course == nil || ss.Course.Archived {
			continue
		}
		start, err := s.localTime(ss.Date, ss.StartTime)
		if err != nil {
			continue
		}
		end, err := s.localTime(ss.Date, ss.EndTime)
		if err != nil {
			continue
		}

		evt := cal.AddEvent(ss.SessionID + icsUIDSuffix)
		evt.SetDtStampTime(stamp)
		evt.SetStartAt(start)
		evt.SetEndAt(end)
		evt.SetSummary(ss.Course.Name)
		if ss.Course.Credits > 0 {
			evt.SetDescription(fmt.Sprintf("学分: %s", strconv.FormatFloat(ss.Course.Credits, 'f', -1, 64)))
		}
	}

	buf := bytes.NewBufferString(cal.Serialize())
	return buf, exportFilename(s.now(), "ics"), nil
}

// ImportICS 按课程名分组追加课次
func (s *dataService) ImportICS(ctx context.Context, userID string, r io.Reader) (*dto.ImportResult, error) {
	cal, err := ics.ParseCalendar(io.LimitReader(r, icsMaxFileSize))
	if err != nil {
		return nil, fmt.Errorf("%w: ICS 格式解析失败: %v", ErrImportInvalid, err)
	}

	events := cal.Events()
	if len(events) == 0 {
		return nil, ErrImportEmpty
	}

	result := &dto.ImportResult{}
	groups := newGroupCollector()
	for i, evt := range events {
		name, slot, reason := s.parseVEvent(evt)
		if reason != "" {
			result.Skipped = append(result.Skipped, fmt.Sprintf("第 %d 个事件: %s", i+1, reason))
			continue
		}
		groups.add(name, 0, "", slot)
	}

	if err := s.save(ctx, userID, groups, result); err != nil {
		return nil, err
	}
	s.logger.Info("ICS 导入完成",
		zap.String("user_id", userID),
		zap.Int("courses", result.Courses),
		zap.Int("sessions", result.Sessions),
		zap.Int("skipped", len(result.Skipped)))
	return result, nil
}

// parseVEvent 解析单个 VEVENT；reason 非空表示跳过
func (s *dataService) parseVEvent(evt *ics.VEvent) (string, dto.SessionSlot, string) {
	summary := evt.GetProperty(ics.ComponentPropertySummary)
	if summary == nil || strings.TrimSpace(summary.Value) == "" {
		return "", dto.SessionSlot{}, "缺少 SUMMARY"
	}
	name := strings.TrimSpace(summary.Value)

	dtStart, err := parseICSDateTime(evt, ics.ComponentPropertyDtStart, s.location)
	if err != nil {
		return "", dto.SessionSlot{}, "DTSTART 无效"
	}
	dtEnd, err := parseICSDateTime(evt, ics.ComponentPropertyDtEnd, s.location)
	if err != nil {
		// 若无 DTEND，尝试用 DURATION
		durProp := evt.GetProperty(ics.ComponentPropertyDuration)
		if durProp == nil {
			return "", dto.SessionSlot{}, "缺少 DTEND 与 DURATION"
		}
		d, err := parseICSDuration(durProp.Value)
		if err != nil {
			return "", dto.SessionSlot{}, "DURATION 无效"
		}
		dtEnd = dtStart.Add(d)
	}

	date := dtStart.Format("2006-01-02")
	if dtEnd.Format("2006-01-02") != date {
		return "", dto.SessionSlot{}, "跨天事件"
	}
	slot := dto.SessionSlot{Date: date, Start: dtStart.Format("15:04"), End: dtEnd.Format("15:04")}
	if err := planner.ValidTimeRange(slot.Start, slot.End); err != nil {
		return "", dto.SessionSlot{}, "结束时间不晚于开始时间"
	}
	return name, slot, ""
}

// localTime 按配置时区组合日期与 HH:MM
func (s *dataService) localTime(date, hhmm string) (time.Time, error) {
	d, err := planner.ParseDate(date)
	if err != nil {
		return time.Time{}, err
	}
	mins, err := planner.TimeToMinutes(hhmm)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(d.Year(), d.Month(), d.Day(), mins/60, mins%60, 0, 0, s.location), nil
}

// parseICSDateTime 解析 DTSTART / DTEND，结果换算到 loc
func parseICSDateTime(evt *ics.VEvent, propName ics.ComponentProperty, loc *time.Location) (time.Time, error) {
	prop := evt.GetProperty(propName)
	if prop == nil {
		return time.Time{}, fmt.Errorf("missing property %s", propName)
	}
	val := prop.Value

	// 尝试多种 ICS 日期格式
	layouts := []string{
		"20060102T150405Z",
		"20060102T150405",
		"20060102",
	}

	// 检查 TZID 参数
	tzid := ""
	for k, v := range prop.ICalParameters {
		if strings.EqualFold(k, "TZID") && len(v) > 0 {
			tzid = v[0]
		}
	}

	for _, layout := range layouts {
		t, err := time.Parse(layout, val)
		if err != nil {
			continue
		}
		if strings.HasSuffix(layout, "Z") {
			return t.In(loc), nil
		}
		if tzid != "" {
			if tzLoc, err := time.LoadLocation(tzid); err == nil {
				return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, tzLoc).In(loc), nil
			}
		}
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, loc), nil
	}

	return time.Time{}, fmt.Errorf("无法解析日期: %s", val)
}

// parseICSDuration 解析 RFC 5545 DURATION，如 PT1H30M、P1D
func parseICSDuration(val string) (time.Duration, error) {
	m := icsDurationRe.FindStringSubmatch(strings.TrimSpace(val))
	if m == nil || val == "P" || val == "PT" {
		return 0, fmt.Errorf("无法解析时长: %s", val)
	}
	units := []time.Duration{7 * 24 * time.Hour, 24 * time.Hour, time.Hour, time.Minute, time.Second}
	var d time.Duration
	for i, unit := range units {
		if m[i+2] == "" {
			continue
		}
		n, _ := strconv.Atoi(m[i+2])
		d += time.Duration(n) * unit
	}
	if m[1] == "-" {
		d = -d
	}
	return d, nil
}
