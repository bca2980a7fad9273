package model

// Lesson 课时表，对应 lessons
type Lesson struct {
	LessonID       string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"lesson_id"`
	Title          string `gorm:"type:varchar(200);not null"                     json:"title"`
	Description    string `gorm:"type:text;not null;default:''"                  json:"description"`
	VideoURL       string `gorm:"type:varchar(500);not null"                     json:"video_url"`
	QuizFormURL    string `gorm:"type:varchar(500);not null;default:''"          json:"quiz_form_url,omitempty"`
	AssignmentText string `gorm:"type:text;not null;default:''"                  json:"assignment_text,omitempty"`
	IsQuiz         bool   `gorm:"not null;default:false"                         json:"is_quiz"`
	BaseModel
}

// TableName 指定表名
func (Lesson) TableName() string { return "lessons" }

// IsQuizLesson 显式测验标记或带测验链接的课时都视为测验
func (l *Lesson) IsQuizLesson() bool {
	return l.IsQuiz || l.QuizFormURL != ""
}

// CourseLesson 课程与课时的有序关联，对应 course_lessons
type CourseLesson struct {
	CourseID string `gorm:"type:uuid;primaryKey"`
	LessonID string `gorm:"type:uuid;primaryKey"`
	Position int    `gorm:"not null"`
}

// TableName 指定表名
func (CourseLesson) TableName() string { return "course_lessons" }
