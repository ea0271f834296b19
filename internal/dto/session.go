package dto

// ── 课次模块 DTO ──

// SaveSessionRequest 保存课次；课程按名称 upsert
type SaveSessionRequest struct {
	CourseName string  `json:"course_name" binding:"required,max=200"`
	Credits    float64 `json:"credits"     binding:"gte=0,lte=100"`
	Color      *string `json:"color"       binding:"omitempty,hexcolor"`
	Date       string  `json:"date"        binding:"required,isodate"`
	Start      string  `json:"start"       binding:"required,hhmm"`
	End        string  `json:"end"         binding:"required,hhmm"`
}

// SessionSlot 批量创建中的单个时间段
type SessionSlot struct {
	Date  string `json:"date"  binding:"required,isodate"`
	Start string `json:"start" binding:"required,hhmm"`
	End   string `json:"end"   binding:"required,hhmm"`
}

// BulkCreateSessionsRequest 为同一课程批量创建课次
type BulkCreateSessionsRequest struct {
	CourseName string        `json:"course_name" binding:"required,max=200"`
	Credits    float64       `json:"credits"     binding:"gte=0,lte=100"`
	Color      *string       `json:"color"       binding:"omitempty,hexcolor"`
	Type       *string       `json:"type"        binding:"omitempty,coursetype"`
	Sessions   []SessionSlot `json:"sessions"    binding:"required,min=1,max=200,dive"`
}

// ListSessionsQuery 课次列表查询参数
type ListSessionsQuery struct {
	Week string `form:"week" binding:"omitempty,isodate"`
}

// SessionResponse 课次信息
type SessionResponse struct {
	ID         string `json:"id"`
	CourseID   string `json:"course_id"`
	CourseName string `json:"course_name,omitempty"`
	Date       string `json:"date"`
	Day        string `json:"day"`
	WeekKey    string `json:"week_key"`
	Start      string `json:"start"`
	End        string `json:"end"`
}

// BulkCreateResponse 批量创建结果
type BulkCreateResponse struct {
	Course   CourseResponse    `json:"course"`
	Sessions []SessionResponse `json:"sessions"`
}
