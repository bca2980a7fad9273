package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Nisha0202/lms-backend/internal/model"
)

// QuizResultRepository 测验成绩数据访问接口
type QuizResultRepository interface {
	// UpsertPending 写入待评分记录，已存在时仅刷新 updated_at
	UpsertPending(ctx context.Context, studentID, lessonID string) error
	GetByID(ctx context.Context, id string) (*model.QuizResult, error)
	RecordScore(ctx context.Context, id string, score int, feedback *string) error
	ListByStudent(ctx context.Context, studentID string) ([]model.QuizResult, error)
	List(ctx context.Context) ([]model.QuizResult, error)
}

// AssignmentRepository 作业提交数据访问接口
type AssignmentRepository interface {
	// Create 同一学生同一课时重复提交返回 gorm.ErrDuplicatedKey
	Create(ctx context.Context, submission *model.AssignmentSubmission) error
	GetByID(ctx context.Context, id string) (*model.AssignmentSubmission, error)
	Grade(ctx context.Context, id string, grade int, feedback *string) error
	ListByStudent(ctx context.Context, studentID string) ([]model.AssignmentSubmission, error)
	List(ctx context.Context, pendingOnly bool) ([]model.AssignmentSubmission, error)
}

// ── QuizResult Repository 实现 ──

type quizResultRepo struct {
	db *gorm.DB
}

// NewQuizResultRepo 创建 QuizResultRepository 实例
func NewQuizResultRepo(db *gorm.DB) QuizResultRepository {
	return &quizResultRepo{db: db}
}

func (r *quizResultRepo) UpsertPending(ctx context.Context, studentID, lessonID string) error {
	result := &model.QuizResult{StudentID: studentID, LessonID: lessonID}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "student_id"}, {Name: "lesson_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{"updated_at": gorm.Expr("NOW()")}),
		}).
		Create(result).Error
}

func (r *quizResultRepo) GetByID(ctx context.Context, id string) (*model.QuizResult, error) {
	var result model.QuizResult
	err := r.db.WithContext(ctx).
		Where("result_id = ?", id).
		First(&result).Error
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *quizResultRepo) RecordScore(ctx context.Context, id string, score int, feedback *string) error {
	res := r.db.WithContext(ctx).
		Model(&model.QuizResult{}).
		Where("result_id = ?", id).
		Updates(map[string]interface{}{
			"score":      score,
			"feedback":   feedback,
			"updated_at": gorm.Expr("NOW()"),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *quizResultRepo) ListByStudent(ctx context.Context, studentID string) ([]model.QuizResult, error) {
	var results []model.QuizResult
	err := r.db.WithContext(ctx).
		Preload("Lesson").
		Where("student_id = ?", studentID).
		Order("updated_at DESC").
		Find(&results).Error
	return results, err
}

func (r *quizResultRepo) List(ctx context.Context) ([]model.QuizResult, error) {
	var results []model.QuizResult
	err := r.db.WithContext(ctx).
		Preload("Student").
		Preload("Lesson").
		Order("updated_at DESC").
		Find(&results).Error
	return results, err
}

// ── Assignment Repository 实现 ──

type assignmentRepo struct {
	db *gorm.DB
}

// NewAssignmentRepo 创建 AssignmentRepository 实例
func NewAssignmentRepo(db *gorm.DB) AssignmentRepository {
	return &assignmentRepo{db: db}
}

func (r *assignmentRepo) Create(ctx context.Context, submission *model.AssignmentSubmission) error {
	return r.db.WithContext(ctx).Create(submission).Error
}

func (r *assignmentRepo) GetByID(ctx context.Context, id string) (*model.AssignmentSubmission, error) {
	var submission model.AssignmentSubmission
	err := r.db.WithContext(ctx).
		Where("submission_id = ?", id).
		First(&submission).Error
	if err != nil {
		return nil, err
	}
	return &submission, nil
}

func (r *assignmentRepo) Grade(ctx context.Context, id string, grade int, feedback *string) error {
	res := r.db.WithContext(ctx).
		Model(&model.AssignmentSubmission{}).
		Where("submission_id = ?", id).
		Updates(map[string]interface{}{
			"grade":      grade,
			"feedback":   feedback,
			"updated_at": gorm.Expr("NOW()"),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *assignmentRepo) ListByStudent(ctx context.Context, studentID string) ([]model.AssignmentSubmission, error) {
	var submissions []model.AssignmentSubmission
	err := r.db.WithContext(ctx).
		Preload("Lesson").
		Where("student_id = ?", studentID).
		Order("created_at DESC").
		Find(&submissions).Error
	return submissions, err
}

func (r *assignmentRepo) List(ctx context.Context, pendingOnly bool) ([]model.AssignmentSubmission, error) {
	var submissions []model.AssignmentSubmission
	db := r.db.WithContext(ctx).
		Preload("Student").
		Preload("Lesson")
	if pendingOnly {
		db = db.Where("grade IS NULL")
	}
	err := db.Order("created_at DESC").Find(&submissions).Error
	return submissions, err
}
