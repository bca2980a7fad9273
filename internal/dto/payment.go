package dto

// ── 支付模块 DTO ──

// CreateCheckoutRequest 创建支付会话请求
type CreateCheckoutRequest struct {
	CourseID string `json:"course_id" binding:"required,uuid"`
	BatchID  string `json:"batch_id"  binding:"required,uuid"`
}

// CheckoutResponse 支付会话
type CheckoutResponse struct {
	URL       string `json:"url"`
	SessionID string `json:"session_id"`
}

// VerifySessionRequest 支付确认请求
type VerifySessionRequest struct {
	SessionID string `json:"session_id" binding:"required,max=255"`
}

// VerifySessionResponse 支付确认结果
type VerifySessionResponse struct {
	Enrollment      EnrollmentResponse `json:"enrollment"`
	AlreadyEnrolled bool               `json:"already_enrolled"`
}
