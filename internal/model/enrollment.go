package model

import (
	"math"

	"gorm.io/datatypes"
)

// 支付状态
const (
	PaymentPending   = "pending"
	PaymentCompleted = "completed"
)

// Enrollment 报名记录表，对应 enrollments
// (student_id, course_id) 唯一；CompletedLessons 为集合且是课程课时的子集
type Enrollment struct {
	EnrollmentID     string                      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"enrollment_id"`
	StudentID        string                      `gorm:"type:uuid;not null"                             json:"student_id"`
	CourseID         string                      `gorm:"type:uuid;not null"                             json:"course_id"`
	BatchID          string                      `gorm:"type:uuid;not null"                             json:"batch_id"`
	CompletedLessons datatypes.JSONSlice[string] `gorm:"type:jsonb;not null;default:'[]'"               json:"completed_lessons"`
	Progress         int                         `gorm:"type:smallint;not null;default:0"               json:"progress"`
	PaymentStatus    string                      `gorm:"type:varchar(20);not null;default:'pending'"    json:"payment_status"`
	VersionedModel

	// 关联
	Student *User   `gorm:"foreignKey:StudentID;references:UserID"  json:"student,omitempty"`
	Course  *Course `gorm:"foreignKey:CourseID;references:CourseID" json:"course,omitempty"`
}

// TableName 指定表名
func (Enrollment) TableName() string { return "enrollments" }

// HasCompleted 课时是否已完成
func (e *Enrollment) HasCompleted(lessonID string) bool {
	for _, id := range e.CompletedLessons {
		if id == lessonID {
			return true
		}
	}
	return false
}

// MarkCompleted 将课时加入完成集合并重新计算进度
// 已完成时不做任何修改并返回 false
func (e *Enrollment) MarkCompleted(lessonID string, totalLessons int) bool {
	if e.HasCompleted(lessonID) {
		return false
	}
	e.CompletedLessons = append(e.CompletedLessons, lessonID)
	e.Progress = CalcProgress(len(e.CompletedLessons), totalLessons)
	return true
}

// CalcProgress round(100 * completed / total)，课程无课时时为 0
func CalcProgress(completed, total int) int {
	if total <= 0 {
		return 0
	}
	p := int(math.Round(100 * float64(completed) / float64(total)))
	if p > 100 {
		return 100
	}
	return p
}
