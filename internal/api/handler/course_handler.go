package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/Nisha0202/lms-backend/internal/dto"
	"github.com/Nisha0202/lms-backend/internal/model"
	"github.com/Nisha0202/lms-backend/internal/service"
	"github.com/Nisha0202/lms-backend/pkg/response"
)

// CourseHandler 课程模块 HTTP 处理器
type CourseHandler struct {
	courseSvc service.CourseService
}

// NewCourseHandler 创建 CourseHandler
func NewCourseHandler(courseSvc service.CourseService) *CourseHandler {
	return &CourseHandler{courseSvc: courseSvc}
}

// ListCourses 课程列表
// GET /api/courses?search=&category=&tags=a,b&sort=-price&page=1&limit=10
func (h *CourseHandler) ListCourses(c *gin.Context) {
	var req dto.CourseListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, codeInvalidParams, "参数校验失败")
		return
	}

	courses, total, err := h.courseSvc.List(c.Request.Context(), &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	list := make([]*model.Course, 0, len(courses))
	for i := range courses {
		list = append(list, courses[i].Outline())
	}
	response.OKPage(c, list, total, req.GetPage(), req.GetLimit())
}

// GetCourse 课程详情（公开，不含课时内容链接）
// GET /api/courses/:id
func (h *CourseHandler) GetCourse(c *gin.Context) {
	id, ok := bindParam(c, "id", "课程ID")
	if !ok {
		return
	}

	course, err := h.courseSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, course.Outline())
}

// CreateCourse 创建课程
// POST /api/courses
func (h *CourseHandler) CreateCourse(c *gin.Context) {
	var req dto.CreateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, codeInvalidParams, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	course, err := h.courseSvc.Create(c.Request.Context(), &req, callerID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Created(c, course)
}

// UpdateCourse 更新课程
// PUT /api/courses/:id
func (h *CourseHandler) UpdateCourse(c *gin.Context) {
	id, ok := bindParam(c, "id", "课程ID")
	if !ok {
		return
	}

	var req dto.UpdateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, codeInvalidParams, "参数校验失败")
		return
	}

	course, err := h.courseSvc.Update(c.Request.Context(), id, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, course)
}

// DeleteCourse 删除课程
// DELETE /api/courses/:id
func (h *CourseHandler) DeleteCourse(c *gin.Context) {
	id, ok := bindParam(c, "id", "课程ID")
	if !ok {
		return
	}

	if err := h.courseSvc.Delete(c.Request.Context(), id); err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, nil)
}

// AddLesson 追加课时
// POST /api/courses/:id/lessons
func (h *CourseHandler) AddLesson(c *gin.Context) {
	courseID, ok := bindParam(c, "id", "课程ID")
	if !ok {
		return
	}

	var req dto.AddLessonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, codeInvalidParams, "参数校验失败")
		return
	}

	lesson, err := h.courseSvc.AddLesson(c.Request.Context(), courseID, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Created(c, lesson)
}

// AddBatch 添加批次
// POST /api/courses/:id/batches
func (h *CourseHandler) AddBatch(c *gin.Context) {
	courseID, ok := bindParam(c, "id", "课程ID")
	if !ok {
		return
	}

	var req dto.BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, codeInvalidParams, "参数校验失败")
		return
	}

	batch, err := h.courseSvc.AddBatch(c.Request.Context(), courseID, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Created(c, batch)
}
