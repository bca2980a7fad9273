package handler

import "github.com/Nisha0202/lms-backend/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth       *AuthHandler
	User       *UserHandler
	Course     *CourseHandler
	Enrollment *EnrollmentHandler
	Export     *ExportHandler
	Learning   *LearningHandler
	Payment    *PaymentHandler
	Assessment *AssessmentHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Auth:       NewAuthHandler(svc.Auth),
		User:       NewUserHandler(svc.User),
		Course:     NewCourseHandler(svc.Course),
		Enrollment: NewEnrollmentHandler(svc.Enrollment),
		Export:     NewExportHandler(svc.Export),
		Learning:   NewLearningHandler(svc.Learning),
		Payment:    NewPaymentHandler(svc.Payment),
		Assessment: NewAssessmentHandler(svc.Assessment),
	}
}
