package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/Nisha0202/lms-backend/internal/dto"
	"github.com/Nisha0202/lms-backend/internal/service"
	"github.com/Nisha0202/lms-backend/pkg/response"
)

// EnrollmentHandler 报名模块 HTTP 处理器
type EnrollmentHandler struct {
	enrollmentSvc service.EnrollmentService
}

// NewEnrollmentHandler 创建 EnrollmentHandler
func NewEnrollmentHandler(enrollmentSvc service.EnrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{enrollmentSvc: enrollmentSvc}
}

// Enroll 直接报名
// POST /api/enrollments/enroll
func (h *EnrollmentHandler) Enroll(c *gin.Context) {
	var req dto.EnrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, codeInvalidParams, "参数校验失败")
		return
	}

	studentID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.enrollmentSvc.Enroll(c.Request.Context(), studentID, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Created(c, result)
}

// MyCourses 我的课程
// GET /api/enrollments/my-courses
func (h *EnrollmentHandler) MyCourses(c *gin.Context) {
	studentID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	items, err := h.enrollmentSvc.MyCourses(c.Request.Context(), studentID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, gin.H{"list": items})
}

// Calendar 下载批次学习窗口日历
// GET /api/enrollments/:id/calendar
func (h *EnrollmentHandler) Calendar(c *gin.Context) {
	id, ok := bindParam(c, "id", "报名ID")
	if !ok {
		return
	}
	studentID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	data, filename, err := h.enrollmentSvc.Calendar(c.Request.Context(), studentID, id)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Attachment(c, filename, "text/calendar; charset=utf-8", data)
}

// AdminList 全部报名记录
// GET /api/enrollments/admin/all-enroll?page=1&limit=10
func (h *EnrollmentHandler) AdminList(c *gin.Context) {
	var req dto.AdminEnrollmentListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, codeInvalidParams, "参数校验失败")
		return
	}

	list, total, err := h.enrollmentSvc.AdminList(c.Request.Context(), &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetLimit())
}

// Stats 报名统计
// GET /api/enrollments/admin/stats
func (h *EnrollmentHandler) Stats(c *gin.Context) {
	stats, err := h.enrollmentSvc.Stats(c.Request.Context())
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, stats)
}
