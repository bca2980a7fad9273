package dto

import "time"

// ── 课程模块 DTO ──

// BatchRequest 批次定义，StartDate < EndDate 由结构体级校验保证
type BatchRequest struct {
	Name      string    `json:"name"       binding:"required,max=100"`
	StartDate time.Time `json:"start_date" binding:"required"`
	EndDate   time.Time `json:"end_date"   binding:"required"`
	SeatLimit int       `json:"seat_limit" binding:"required,min=1"`
}

// CreateCourseRequest 创建课程请求
type CreateCourseRequest struct {
	Title       string         `json:"title"       binding:"required,max=200"`
	Thumbnail   string         `json:"thumbnail"   binding:"omitempty,url"`
	Description string         `json:"description"`
	Price       float64        `json:"price"       binding:"min=0"`
	Category    string         `json:"category"    binding:"required,max=100"`
	Tags        []string       `json:"tags"        binding:"omitempty,dive,max=50"`
	Batches     []BatchRequest `json:"batches"     binding:"omitempty,dive"`
}

// UpdateCourseRequest 更新课程请求（仅更新非空字段）
type UpdateCourseRequest struct {
	Title       *string   `json:"title"       binding:"omitempty,max=200"`
	Thumbnail   *string   `json:"thumbnail"   binding:"omitempty,url"`
	Description *string   `json:"description"`
	Price       *float64  `json:"price"       binding:"omitempty,min=0"`
	Category    *string   `json:"category"    binding:"omitempty,max=100"`
	Tags        *[]string `json:"tags"`
}

// AddLessonRequest 添加课时请求
type AddLessonRequest struct {
	Title          string `json:"title"           binding:"required,max=200"`
	Description    string `json:"description"`
	VideoURL       string `json:"video_url"       binding:"required,url"`
	QuizFormURL    string `json:"quiz_form_url"   binding:"omitempty,url"`
	AssignmentText string `json:"assignment_text"`
	IsQuiz         bool   `json:"is_quiz"`
}

// CourseListRequest 课程列表查询参数
type CourseListRequest struct {
	PaginationRequest
	Search   string `form:"search"   binding:"omitempty,max=100"`
	Category string `form:"category" binding:"omitempty,max=100"`
	Tags     string `form:"tags"` // 逗号分隔
	Sort     string `form:"sort"     binding:"omitempty,oneof=price -price createdAt -createdAt title"`
}
