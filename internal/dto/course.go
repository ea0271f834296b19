package dto

// ── 课程模块 DTO ──

// CreateCourseRequest 创建课程（同名课程按 upsert 处理）
type CreateCourseRequest struct {
	Name    string  `json:"name"    binding:"required,max=200"`
	Credits float64 `json:"credits" binding:"gte=0,lte=100"`
	Color   *string `json:"color"   binding:"omitempty,hexcolor"`
	Type    *string `json:"type"    binding:"omitempty,coursetype"`
}

// UpdateCourseRequest 修改课程；color/type 传空串表示清除
type UpdateCourseRequest struct {
	Name    *string  `json:"name"    binding:"omitempty,min=1,max=200"`
	Credits *float64 `json:"credits" binding:"omitempty,gte=0,lte=100"`
	Color   *string  `json:"color"   binding:"omitempty,hexcolor"`
	Type    *string  `json:"type"    binding:"omitempty,coursetype"`
}

// SetColorRequest 按课程名设置颜色
type SetColorRequest struct {
	Name  string `json:"name"  binding:"required"`
	Color string `json:"color" binding:"required,hexcolor"`
}

// MergeCoursesRequest 合并课程：from 的课次并入 to，随后删除 from
type MergeCoursesRequest struct {
	FromID string `json:"from_id" binding:"required"`
	ToID   string `json:"to_id"   binding:"required"`
}

// CourseResponse 课程信息
type CourseResponse struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Credits      float64 `json:"credits"`
	Color        *string `json:"color"`
	Type         *string `json:"type"`
	Archived     bool    `json:"archived"`
	SessionCount int64   `json:"session_count"`
}

// MergeResponse 合并结果
type MergeResponse struct {
	Target        CourseResponse `json:"target"`
	MovedSessions int64          `json:"moved_sessions"`
}
