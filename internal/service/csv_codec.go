package service

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"

	"weekend-planner/backend/internal/dto"
	"weekend-planner/backend/internal/planner"
)

// ── CSV 导入导出 ──────────────────────────────────────────────
//
// 导出列固定为 course_name,credits,color,date,start,end。
// 导入时表头大小写与变音符号不敏感，支持英文与捷克语别名；
// 时间可分列给出，也可以用 time 列给出 "HH:MM–HH:MM"。
// ─────────────────────────────────────────────────────────────

var csvExportHeader = []string{"course_name", "credits", "color", "date", "start", "end"}

// csvAliases 归一化后的表头 → 字段
var csvAliases = map[string]string{
	"course_name": "name",
	"course":      "name",
	"name":        "name",
	"kurz":        "name",
	"nazev":       "name",
	"credits":     "credits",
	"kredity":     "credits",
	"color":       "color",
	"date":        "date",
	"datum":       "date",
	"start":       "start",
	"zacatek":     "start",
	"end":         "end",
	"konec":       "end",
	"time":        "time",
	"cas":         "time",
}

var (
	dottedDateRe = regexp.MustCompile(`^(\d{1,2})\s*\.\s*(\d{1,2})\s*\.\s*(\d{4})$`)
	clockRe      = regexp.MustCompile(`^\s*(\d{1,2}):(\d{2})(?::\d{2})?\s*$`)
	timeRangeRe  = regexp.MustCompile(`^\s*(\d{1,2}:\d{2}(?::\d{2})?)\s*[–—-]\s*(\d{1,2}:\d{2}(?::\d{2})?)\s*$`)
)

func (s *dataService) ExportCSV(ctx context.Context, userID string) (*bytes.Buffer, string, error) {
	_, sessions, err := s.loadAll(ctx, userID)
	if err != nil {
		return nil, "", err
	}

	buf := new(bytes.Buffer)
	w := csv.NewWriter(buf)
	_ = w.Write(csvExportHeader)
	for _, ss := range sessions {
		var name, credits, color string
		if ss.Course != nil {
			name = ss.Course.Name
			credits = strconv.FormatFloat(ss.Course.Credits, 'f', -1, 64)
			if ss.Course.Color != nil {
				color = *ss.Course.Color
			}
		}
		_ = w.Write([]string{name, credits, color, ss.Date, ss.StartTime, ss.EndTime})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		s.logger.Error("写入 CSV 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}
	return buf, exportFilename(s.now(), "csv"), nil
}

// ImportCSV 按课程名分组追加课次；无法识别的行跳过并记录行号与原因
func (s *dataService) ImportCSV(ctx context.Context, userID string, r io.Reader) (*dto.ImportResult, error) {
	reader := csv.NewReader(skipBOM(r))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrImportEmpty
		}
		return nil, fmt.Errorf("%w: %v", ErrImportInvalid, err)
	}
	columns := mapCSVHeader(header)
	if _, ok := columns["name"]; !ok {
		return nil, fmt.Errorf("%w: 缺少课程名称列", ErrImportInvalid)
	}

	result := &dto.ImportResult{}
	groups := newGroupCollector()
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrImportInvalid, err)
		}
		line, _ := reader.FieldPos(0)

		get := func(field string) string {
			if idx, ok := columns[field]; ok && idx < len(record) {
				return strings.TrimSpace(record[idx])
			}
			return ""
		}
		if isBlankRecord(record) {
			continue
		}

		name := get("name")
		if name == "" {
			result.Skipped = append(result.Skipped, fmt.Sprintf("第 %d 行: 缺少课程名称", line))
			continue
		}
		date := toISODate(get("date"))
		if date == "" {
			result.Skipped = append(result.Skipped, fmt.Sprintf("第 %d 行: 日期 %q 无效", line, get("date")))
			continue
		}
		start, end := toHM(get("start")), toHM(get("end"))
		if start == "" || end == "" {
			start, end = parseTimeRange(get("time"))
		}
		if err := planner.ValidTimeRange(start, end); err != nil {
			result.Skipped = append(result.Skipped, fmt.Sprintf("第 %d 行: 时间无效", line))
			continue
		}

		color := get("color")
		if color != "" && s.validate.Var(color, "hexcolor") != nil {
			color = ""
		}
		groups.add(name, parseCredits(get("credits")), color, dto.SessionSlot{Date: date, Start: start, End: end})
	}

	if len(groups.order) == 0 && len(result.Skipped) == 0 {
		return nil, ErrImportEmpty
	}
	if err := s.save(ctx, userID, groups, result); err != nil {
		return nil, err
	}
	s.logger.Info("CSV 导入完成",
		zap.String("user_id", userID),
		zap.Int("courses", result.Courses),
		zap.Int("sessions", result.Sessions),
		zap.Int("skipped", len(result.Skipped)))
	return result, nil
}

// ── 辅助函数 ──

// mapCSVHeader 字段 → 列下标；重复别名取第一列
func mapCSVHeader(header []string) map[string]int {
	columns := make(map[string]int, len(header))
	for i, h := range header {
		field, ok := csvAliases[foldHeader(h)]
		if !ok {
			continue
		}
		if _, seen := columns[field]; !seen {
			columns[field] = i
		}
	}
	return columns
}

// skipBOM 跳过 Excel 导出的 UTF-8 BOM
func skipBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	if b, err := br.Peek(3); err == nil && bytes.Equal(b, []byte{0xEF, 0xBB, 0xBF}) {
		_, _ = br.Discard(3)
	}
	return br
}

// foldHeader 去变音符号并转小写："Začátek" → "zacatek"
func foldHeader(h string) string {
	h = strings.TrimSpace(h)
	var b strings.Builder
	for _, r := range norm.NFD.String(h) {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// toISODate 接受 YYYY-MM-DD 或 d. m. yyyy，无效时返回空串
func toISODate(s string) string {
	s = strings.TrimSpace(s)
	if m := dottedDateRe.FindStringSubmatch(s); m != nil {
		s = m[3] + "-" + pad2(m[2]) + "-" + pad2(m[1])
	}
	if _, err := planner.ParseDate(s); err != nil {
		return ""
	}
	return s
}

// toHM "9:05" → "09:05"，无法识别时返回空串
func toHM(s string) string {
	m := clockRe.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	return pad2(m[1]) + ":" + m[2]
}

func pad2(s string) string {
	if len(s) == 1 {
		return "0" + s
	}
	return s
}

func parseTimeRange(s string) (string, string) {
	m := timeRangeRe.FindStringSubmatch(s)
	if m == nil {
		return "", ""
	}
	return toHM(m[1]), toHM(m[2])
}

// parseCredits 兼容小数逗号；无效或负数按 0 处理
func parseCredits(s string) float64 {
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil || v < 0 {
		return 0
	}
	return v
}

func isBlankRecord(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
