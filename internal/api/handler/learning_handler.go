package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/Nisha0202/lms-backend/internal/dto"
	"github.com/Nisha0202/lms-backend/internal/service"
	"github.com/Nisha0202/lms-backend/pkg/response"
)

// LearningHandler 学习模块 HTTP 处理器
type LearningHandler struct {
	learningSvc service.LearningService
}

// NewLearningHandler 创建 LearningHandler
func NewLearningHandler(learningSvc service.LearningService) *LearningHandler {
	return &LearningHandler{learningSvc: learningSvc}
}

// GetCourseContent 课程学习内容
// GET /api/learn/course/:courseId
func (h *LearningHandler) GetCourseContent(c *gin.Context) {
	courseID, ok := bindParam(c, "courseId", "课程ID")
	if !ok {
		return
	}
	studentID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	content, err := h.learningSvc.GetCourseContent(c.Request.Context(), studentID, courseID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, content)
}

// MarkComplete 标记课时完成
// POST /api/learn/complete
func (h *LearningHandler) MarkComplete(c *gin.Context) {
	var req dto.MarkCompleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, codeInvalidParams, "参数校验失败")
		return
	}

	studentID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	progress, err := h.learningSvc.MarkLessonComplete(c.Request.Context(), studentID, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, progress)
}
