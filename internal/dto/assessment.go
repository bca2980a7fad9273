package dto

// ── 测评模块 DTO ──

// SubmitAssignmentRequest 作业提交请求
type SubmitAssignmentRequest struct {
	LessonID  string `json:"lesson_id"  binding:"required,uuid"`
	DriveLink string `json:"drive_link" binding:"required,url,max=500"`
}

// GradeRequest 作业评分 / 测验记分请求
type GradeRequest struct {
	Score    *int   `json:"score"    binding:"required,min=0,max=100"`
	Feedback string `json:"feedback" binding:"omitempty,max=2000"`
}

// SubmissionListRequest 作业列表查询参数
type SubmissionListRequest struct {
	Status string `form:"status" binding:"omitempty,oneof=pending all"`
}

// SubmissionResponse 作业提交
type SubmissionResponse struct {
	ID           string  `json:"id"`
	StudentID    string  `json:"student_id"`
	StudentName  string  `json:"student_name,omitempty"`
	StudentEmail string  `json:"student_email,omitempty"`
	LessonID     string  `json:"lesson_id"`
	LessonTitle  string  `json:"lesson_title"`
	DriveLink    string  `json:"drive_link"`
	Grade        *int    `json:"grade"`
	Feedback     *string `json:"feedback,omitempty"`
	SubmittedAt  string  `json:"submitted_at"`
}

// QuizResultResponse 测验成绩
type QuizResultResponse struct {
	ID           string  `json:"id"`
	StudentID    string  `json:"student_id"`
	StudentName  string  `json:"student_name,omitempty"`
	StudentEmail string  `json:"student_email,omitempty"`
	LessonID     string  `json:"lesson_id"`
	LessonTitle  string  `json:"lesson_title"`
	Score        *int    `json:"score"`
	Feedback     *string `json:"feedback,omitempty"`
	UpdatedAt    string  `json:"updated_at"`
}

// MyGradesResponse 学生成绩汇总
type MyGradesResponse struct {
	Assignments []SubmissionResponse `json:"assignments"`
	Quizzes     []QuizResultResponse `json:"quizzes"`
}
