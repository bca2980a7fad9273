package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/Nisha0202/lms-backend/internal/dto"
	"github.com/Nisha0202/lms-backend/internal/service"
	"github.com/Nisha0202/lms-backend/pkg/response"
)

// AssessmentHandler 作业与测验 HTTP 处理器
type AssessmentHandler struct {
	assessmentSvc service.AssessmentService
}

// NewAssessmentHandler 创建 AssessmentHandler
func NewAssessmentHandler(assessmentSvc service.AssessmentService) *AssessmentHandler {
	return &AssessmentHandler{assessmentSvc: assessmentSvc}
}

// SubmitAssignment 提交作业
// POST /api/assessments/submit-assignment
func (h *AssessmentHandler) SubmitAssignment(c *gin.Context) {
	var req dto.SubmitAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, codeInvalidParams, "参数校验失败")
		return
	}

	studentID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.assessmentSvc.SubmitAssignment(c.Request.Context(), studentID, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Created(c, result)
}

// MyGrades 我的成绩
// GET /api/assessments/my-grades
func (h *AssessmentHandler) MyGrades(c *gin.Context) {
	studentID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	grades, err := h.assessmentSvc.MyGrades(c.Request.Context(), studentID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, grades)
}

// GradeAssignment 作业评分
// POST /api/assessments/grade-assignment/:submissionId
func (h *AssessmentHandler) GradeAssignment(c *gin.Context) {
	id, ok := bindParam(c, "submissionId", "提交ID")
	if !ok {
		return
	}

	var req dto.GradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, codeInvalidParams, "参数校验失败")
		return
	}

	result, err := h.assessmentSvc.GradeAssignment(c.Request.Context(), id, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, result)
}

// RecordQuizScore 测验记分
// POST /api/assessments/record-quiz-score/:resultId
func (h *AssessmentHandler) RecordQuizScore(c *gin.Context) {
	id, ok := bindParam(c, "resultId", "测验记录ID")
	if !ok {
		return
	}

	var req dto.GradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, codeInvalidParams, "参数校验失败")
		return
	}

	result, err := h.assessmentSvc.RecordQuizScore(c.Request.Context(), id, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, result)
}

// ListQuizResults 全部测验记录
// GET /api/assessments/admin/quizzes
func (h *AssessmentHandler) ListQuizResults(c *gin.Context) {
	list, err := h.assessmentSvc.ListQuizResults(c.Request.Context())
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// ListSubmissions 作业提交列表
// GET /api/assessments/admin/submissions?status=pending
func (h *AssessmentHandler) ListSubmissions(c *gin.Context) {
	var req dto.SubmissionListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, codeInvalidParams, "参数校验失败")
		return
	}

	list, err := h.assessmentSvc.ListSubmissions(c.Request.Context(), &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}
