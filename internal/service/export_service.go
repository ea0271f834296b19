package service

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"weekend-planner/backend/internal/planner"
)

// ═══════════════════════════════════════════════════════════
// ExportXLSX 导出课表为 Excel
// ═══════════════════════════════════════════════════════════
//
// 输出格式：
//   - Sheet "课表"：行为周次，列为 周次 | 日期 | 周五 | 周六 | 周日，
//     单元格内每行一节课 "HH:MM–HH:MM 课程名"，只含未归档课程
//   - Sheet "课程"：全部课程的学分、类型、颜色与归档状态，末行为学分合计

const (
	xlsxScheduleSheet = "课表"
	xlsxCoursesSheet  = "课程"
)

var dayHeaders = map[planner.Day]string{
	planner.Fri: "周五",
	planner.Sat: "周六",
	planner.Sun: "周日",
}

func (s *dataService) ExportXLSX(ctx context.Context, userID string) (*bytes.Buffer, string, error) {
	courses, sessions, err := s.loadAll(ctx, userID)
	if err != nil {
		return nil, "", err
	}

	active := make(map[string]planner.Course, len(courses))
	all := make([]planner.Course, 0, len(courses))
	for i := range courses {
		c := toPlannerCourse(&courses[i])
		all = append(all, c)
		if !c.Archived {
			active[c.ID] = c
		}
	}
	views := make([]planner.Session, 0, len(sessions))
	for i := range sessions {
		if _, ok := active[sessions[i].CourseID]; ok {
			views = append(views, toPlannerSession(&sessions[i]))
		}
	}
	rows := planner.BuildMatrix(views, active, nil)

	f := excelize.NewFile()
	defer f.Close()

	idx, _ := f.NewSheet(xlsxScheduleSheet)
	f.SetActiveSheet(idx)
	// 删除默认 Sheet1
	_ = f.DeleteSheet("Sheet1")
	_, _ = f.NewSheet(xlsxCoursesSheet)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	wrapStyle, _ := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Vertical: "top", WrapText: true},
	})

	if err := writeScheduleSheet(f, rows, headerStyle, wrapStyle); err != nil {
		s.logger.Error("生成课表 Sheet 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}
	if err := writeCoursesSheet(f, all, headerStyle); err != nil {
		s.logger.Error("生成课程 Sheet 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	// 写入 buffer
	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}
	return buf, exportFilename(s.now(), "xlsx"), nil
}

func writeScheduleSheet(f *excelize.File, rows []planner.MatrixRow, headerStyle, wrapStyle int) error {
	sheet := xlsxScheduleSheet
	lastCol := colName(2 + len(planner.Days))

	_ = f.SetColWidth(sheet, "A", "A", 8)
	_ = f.SetColWidth(sheet, "B", "B", 26)
	_ = f.SetColWidth(sheet, "C", lastCol, 34)

	// 表头
	if err := f.SetCellValue(sheet, cell("A", 1), "周次"); err != nil {
		return err
	}
	_ = f.SetCellValue(sheet, cell("B", 1), "日期")
	for i, d := range planner.Days {
		_ = f.SetCellValue(sheet, cell(colName(2+i), 1), dayHeaders[d])
	}
	_ = f.SetCellStyle(sheet, "A1", cell(lastCol, 1), headerStyle)
	_ = f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})

	// 数据行
	for r, row := range rows {
		line := r + 2
		_ = f.SetCellValue(sheet, cell("A", line), row.Week.ID)
		_ = f.SetCellValue(sheet, cell("B", line), row.Week.Label)
		for i, d := range planner.Days {
			entries := row.Days[d]
			texts := make([]string, 0, len(entries))
			for _, e := range entries {
				texts = append(texts, fmt.Sprintf("%s–%s %s", e.Start, e.End, e.CourseName))
			}
			if len(texts) == 0 {
				_ = f.SetCellValue(sheet, cell(colName(2+i), line), "-")
				continue
			}
			_ = f.SetCellValue(sheet, cell(colName(2+i), line), strings.Join(texts, "\n"))
		}
	}
	if len(rows) > 0 {
		return f.SetCellStyle(sheet, "A2", cell(lastCol, len(rows)+1), wrapStyle)
	}
	return nil
}

func writeCoursesSheet(f *excelize.File, courses []planner.Course, headerStyle int) error {
	sheet := xlsxCoursesSheet
	headers := []string{"课程", "学分", "类型", "颜色", "已归档"}
	for i, h := range headers {
		if err := f.SetCellValue(sheet, cell(colName(i), 1), h); err != nil {
			return err
		}
	}
	_ = f.SetCellStyle(sheet, "A1", cell(colName(len(headers)-1), 1), headerStyle)
	_ = f.SetColWidth(sheet, "A", "A", 36)
	_ = f.SetColWidth(sheet, "B", "E", 12)

	typeNames := map[string]string{
		planner.CourseTypeMandatory: "必修",
		planner.CourseTypeMO:        "选修",
	}
	for r, c := range courses {
		line := r + 2
		color := ""
		if c.Color != nil {
			color = *c.Color
		}
		archived := ""
		if c.Archived {
			archived = "是"
		}
		_ = f.SetCellValue(sheet, cell("A", line), c.Name)
		_ = f.SetCellValue(sheet, cell("B", line), c.Credits)
		_ = f.SetCellValue(sheet, cell("C", line), typeNames[c.Type])
		_ = f.SetCellValue(sheet, cell("D", line), color)
		_ = f.SetCellValue(sheet, cell("E", line), archived)
	}

	// 合计：只统计未归档课程
	credits := planner.CreditSummary(courses)
	total := len(courses) + 2
	_ = f.SetCellValue(sheet, cell("A", total), "学分合计")
	return f.SetCellValue(sheet, cell("B", total), credits.Total)
}

// ── 辅助函数 ──

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
