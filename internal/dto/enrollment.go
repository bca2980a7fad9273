package dto

import "time"

// ── 报名模块 DTO ──

// EnrollRequest 直接报名请求
type EnrollRequest struct {
	CourseID string `json:"course_id" binding:"required,uuid"`
	BatchID  string `json:"batch_id"  binding:"required,uuid"`
}

// EnrollmentResponse 报名记录
type EnrollmentResponse struct {
	ID               string   `json:"id"`
	StudentID        string   `json:"student_id"`
	CourseID         string   `json:"course_id"`
	BatchID          string   `json:"batch_id"`
	CompletedLessons []string `json:"completed_lessons"`
	Progress         int      `json:"progress"`
	PaymentStatus    string   `json:"payment_status"`
	CreatedAt        string   `json:"created_at"`
}

// CourseSummary 课程摘要
type CourseSummary struct {
	ID        string  `json:"id"`
	Title     string  `json:"title"`
	Thumbnail string  `json:"thumbnail"`
	Category  string  `json:"category"`
	Price     float64 `json:"price"`
}

// MyCourseItem 我的课程列表项
type MyCourseItem struct {
	EnrollmentID   string         `json:"enrollment_id"`
	Course         *CourseSummary `json:"course"` // 课程被删除时为空
	BatchID        string         `json:"batch_id"`
	BatchName      string         `json:"batch_name"`
	BatchStartDate *time.Time     `json:"batch_start_date,omitempty"`
	Progress       int            `json:"progress"`
	PaymentStatus  string         `json:"payment_status"`
	EnrolledAt     string         `json:"enrolled_at"`
}

// AdminEnrollmentItem 管理端报名列表项
type AdminEnrollmentItem struct {
	EnrollmentID  string `json:"enrollment_id"`
	StudentName   string `json:"student_name"`
	StudentEmail  string `json:"student_email"`
	CourseTitle   string `json:"course_title"`
	BatchName     string `json:"batch_name"`
	Progress      int    `json:"progress"`
	PaymentStatus string `json:"payment_status"`
	EnrolledAt    string `json:"enrolled_at"`
}

// AdminEnrollmentListRequest 管理端报名列表查询参数
type AdminEnrollmentListRequest struct {
	PaginationRequest
}

// StatsResponse 管理端统计
type StatsResponse struct {
	TotalCourses         int64 `json:"total_courses"`
	TotalStudents        int64 `json:"total_students"`
	TotalEnrollments     int64 `json:"total_enrollments"`
	EnrollmentsThisMonth int64 `json:"enrollments_this_month"`
}
