package model

import "time"

// 支付会话状态
const (
	CheckoutPending   = "pending"
	CheckoutCompleted = "completed"
	CheckoutExpired   = "expired"
)

// CheckoutSession 本地支付会话记录，对应 checkout_sessions
// SessionID 即网关返回的会话句柄
type CheckoutSession struct {
	SessionID   string     `gorm:"type:varchar(255);primaryKey"                json:"session_id"`
	StudentID   string     `gorm:"type:uuid;not null"                          json:"student_id"`
	CourseID    string     `gorm:"type:uuid;not null"                          json:"course_id"`
	BatchID     string     `gorm:"type:uuid;not null"                          json:"batch_id"`
	Amount      float64    `gorm:"type:numeric(10,2);not null"                 json:"amount"`
	Currency    string     `gorm:"type:varchar(10);not null"                   json:"currency"`
	CheckoutURL string     `gorm:"type:varchar(1000);not null;default:''"      json:"checkout_url"`
	Status      string     `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	BaseModel
}

// TableName 指定表名
func (CheckoutSession) TableName() string { return "checkout_sessions" }
