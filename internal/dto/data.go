package dto

// ── 导入导出 DTO ──

// ExportCourse JSON 导出中的课程
type ExportCourse struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Credits  float64 `json:"credits"`
	Color    *string `json:"color"`
	Type     *string `json:"type"`
	Archived bool    `json:"archived"`
}

// ExportSession JSON 导出中的课次
type ExportSession struct {
	ID       string `json:"id"`
	CourseID string `json:"course_id"`
	Date     string `json:"date"`
	Start    string `json:"start"`
	End      string `json:"end"`
}

// ExportData JSON 导出整体结构，导入时原样接收
type ExportData struct {
	Version    int             `json:"version"`
	ExportedAt string          `json:"exported_at,omitempty"`
	Courses    []ExportCourse  `json:"courses"  binding:"dive"`
	Sessions   []ExportSession `json:"sessions" binding:"dive"`
}

// ImportResult 导入结果
type ImportResult struct {
	Courses  int      `json:"courses"`
	Sessions int      `json:"sessions"`
	Skipped  []string `json:"skipped,omitempty"` // 被跳过的行及原因
}
