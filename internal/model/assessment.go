package model

// QuizResult 测验成绩表，对应 quiz_results，Score 为空表示待评分
type QuizResult struct {
	ResultID  string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"result_id"`
	StudentID string  `gorm:"type:uuid;not null"                             json:"student_id"`
	LessonID  string  `gorm:"type:uuid;not null"                             json:"lesson_id"`
	Score     *int    `gorm:"type:smallint"                                  json:"score"`
	Feedback  *string `gorm:"type:text"                                      json:"feedback,omitempty"`
	BaseModel

	// 关联
	Student *User   `gorm:"foreignKey:StudentID;references:UserID"  json:"student,omitempty"`
	Lesson  *Lesson `gorm:"foreignKey:LessonID;references:LessonID" json:"lesson,omitempty"`
}

// TableName 指定表名
func (QuizResult) TableName() string { return "quiz_results" }

// AssignmentSubmission 作业提交表，对应 assignment_submissions，Grade 为空表示待评分
type AssignmentSubmission struct {
	SubmissionID string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"submission_id"`
	StudentID    string  `gorm:"type:uuid;not null"                             json:"student_id"`
	LessonID     string  `gorm:"type:uuid;not null"                             json:"lesson_id"`
	DriveLink    string  `gorm:"type:varchar(500);not null"                     json:"drive_link"`
	Grade        *int    `gorm:"type:smallint"                                  json:"grade"`
	Feedback     *string `gorm:"type:text"                                      json:"feedback,omitempty"`
	BaseModel

	// 关联
	Student *User   `gorm:"foreignKey:StudentID;references:UserID"  json:"student,omitempty"`
	Lesson  *Lesson `gorm:"foreignKey:LessonID;references:LessonID" json:"lesson,omitempty"`
}

// TableName 指定表名
func (AssignmentSubmission) TableName() string { return "assignment_submissions" }
