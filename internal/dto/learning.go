package dto

import "github.com/Nisha0202/lms-backend/internal/model"

// ── 学习模块 DTO ──

// CourseContentResponse 课程内容（通过访问窗口校验后返回）
type CourseContentResponse struct {
	Course           *model.Course `json:"course"`
	CompletedLessons []string      `json:"completed_lessons"`
	Progress         int           `json:"progress"`
}

// MarkCompleteRequest 标记课时完成请求
type MarkCompleteRequest struct {
	CourseID string `json:"course_id" binding:"required,uuid"`
	LessonID string `json:"lesson_id" binding:"required,uuid"`
}

// ProgressResponse 进度
type ProgressResponse struct {
	Progress         int      `json:"progress"`
	CompletedLessons []string `json:"completed_lessons"`
}
