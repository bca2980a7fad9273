package model

import (
	"time"

	"gorm.io/datatypes"
)

// Course 课程表，对应 courses
// Lessons 按 course_lessons.position 排序，由仓储层单独加载
type Course struct {
	CourseID     string                      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"course_id"`
	Title        string                      `gorm:"type:varchar(200);not null"                     json:"title"`
	Thumbnail    string                      `gorm:"type:varchar(500);not null;default:''"          json:"thumbnail"`
	Description  string                      `gorm:"type:text;not null;default:''"                  json:"description"`
	Price        float64                     `gorm:"type:numeric(10,2);not null;default:0"          json:"price"`
	Category     string                      `gorm:"type:varchar(100);not null"                     json:"category"`
	Tags         datatypes.JSONSlice[string] `gorm:"type:jsonb;not null;default:'[]'"               json:"tags"`
	InstructorID *string                     `gorm:"type:uuid"                                      json:"instructor_id,omitempty"`
	BaseModel

	Batches []Batch  `gorm:"foreignKey:CourseID;references:CourseID" json:"batches"`
	Lessons []Lesson `gorm:"-"                                       json:"lessons"`
}

// TableName 指定表名
func (Course) TableName() string { return "courses" }

// HasLesson 课时是否属于该课程
func (c *Course) HasLesson(lessonID string) bool {
	for i := range c.Lessons {
		if c.Lessons[i].LessonID == lessonID {
			return true
		}
	}
	return false
}

// FindLesson 按 ID 查找课程内课时
func (c *Course) FindLesson(lessonID string) (*Lesson, bool) {
	for i := range c.Lessons {
		if c.Lessons[i].LessonID == lessonID {
			return &c.Lessons[i], true
		}
	}
	return nil, false
}

// Batch 批次表，对应 batches，从属于课程，不单独建仓储
type Batch struct {
	BatchID   string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"batch_id"`
	CourseID  string    `gorm:"type:uuid;not null"                             json:"course_id"`
	Name      string    `gorm:"type:varchar(100);not null"                     json:"name"`
	StartDate time.Time `gorm:"not null"                                       json:"start_date"`
	EndDate   time.Time `gorm:"not null"                                       json:"end_date"`
	SeatLimit int       `gorm:"not null"                                       json:"seat_limit"`
	BaseModel
}

// TableName 指定表名
func (Batch) TableName() string { return "batches" }

// Outline 返回去除课时内容链接的副本，用于公开目录
func (c *Course) Outline() *Course {
	out := *c
	out.Lessons = make([]Lesson, len(c.Lessons))
	for i, l := range c.Lessons {
		l.VideoURL = ""
		l.QuizFormURL = ""
		l.AssignmentText = ""
		out.Lessons[i] = l
	}
	return &out
}
