package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/Nisha0202/lms-backend/internal/model"
	pkgerrors "github.com/Nisha0202/lms-backend/pkg/errors"
)

// EnrollmentRepository 报名记录数据访问接口
type EnrollmentRepository interface {
	Create(ctx context.Context, enrollment *model.Enrollment) error
	GetByID(ctx context.Context, id string) (*model.Enrollment, error)
	GetByStudentAndCourse(ctx context.Context, studentID, courseID string) (*model.Enrollment, error)
	// CountByBatch 统计批次已占用的座位（任意支付状态）
	CountByBatch(ctx context.Context, courseID, batchID string) (int64, error)
	UpdatePaymentStatus(ctx context.Context, id, status string) error
	// UpdateProgress 基于 version 的乐观锁更新完成集合与进度
	UpdateProgress(ctx context.Context, enrollment *model.Enrollment) error
	ListByStudent(ctx context.Context, studentID string) ([]model.Enrollment, error)
	List(ctx context.Context, offset, limit int) ([]model.Enrollment, int64, error)
	ListAll(ctx context.Context) ([]model.Enrollment, error)
	Count(ctx context.Context) (int64, error)
	CountDistinctStudents(ctx context.Context) (int64, error)
	CountSince(ctx context.Context, since time.Time) (int64, error)
}

type enrollmentRepo struct {
	db *gorm.DB
}

// NewEnrollmentRepo 创建 EnrollmentRepository 实例
func NewEnrollmentRepo(db *gorm.DB) EnrollmentRepository {
	return &enrollmentRepo{db: db}
}

// Create 违反 (student_id, course_id) 唯一约束时返回 gorm.ErrDuplicatedKey
func (r *enrollmentRepo) Create(ctx context.Context, enrollment *model.Enrollment) error {
	if enrollment.CompletedLessons == nil {
		enrollment.CompletedLessons = []string{}
	}
	return r.db.WithContext(ctx).Create(enrollment).Error
}

func (r *enrollmentRepo) GetByID(ctx context.Context, id string) (*model.Enrollment, error) {
	var enrollment model.Enrollment
	err := r.db.WithContext(ctx).
		Preload("Course.Batches").
		Where("enrollment_id = ?", id).
		First(&enrollment).Error
	if err != nil {
		return nil, err
	}
	return &enrollment, nil
}

func (r *enrollmentRepo) GetByStudentAndCourse(ctx context.Context, studentID, courseID string) (*model.Enrollment, error) {
	var enrollment model.Enrollment
	err := r.db.WithContext(ctx).
		Where("student_id = ? AND course_id = ?", studentID, courseID).
		First(&enrollment).Error
	if err != nil {
		return nil, err
	}
	return &enrollment, nil
}

func (r *enrollmentRepo) CountByBatch(ctx context.Context, courseID, batchID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Enrollment{}).
		Where("course_id = ? AND batch_id = ?", courseID, batchID).
		Count(&count).Error
	return count, err
}

func (r *enrollmentRepo) UpdatePaymentStatus(ctx context.Context, id, status string) error {
	result := r.db.WithContext(ctx).
		Model(&model.Enrollment{}).
		Where("enrollment_id = ?", id).
		Updates(map[string]interface{}{
			"payment_status": status,
			"updated_at":     gorm.Expr("NOW()"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *enrollmentRepo) UpdateProgress(ctx context.Context, enrollment *model.Enrollment) error {
	oldVersion := enrollment.Version
	result := r.db.WithContext(ctx).
		Model(&model.Enrollment{}).
		Where("enrollment_id = ? AND version = ?", enrollment.EnrollmentID, oldVersion).
		Updates(map[string]interface{}{
			"completed_lessons": enrollment.CompletedLessons,
			"progress":          enrollment.Progress,
			"version":           oldVersion + 1,
			"updated_at":        gorm.Expr("NOW()"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	enrollment.Version = oldVersion + 1
	return nil
}

func (r *enrollmentRepo) ListByStudent(ctx context.Context, studentID string) ([]model.Enrollment, error) {
	var enrollments []model.Enrollment
	err := r.db.WithContext(ctx).
		Preload("Course.Batches").
		Where("student_id = ?", studentID).
		Order("created_at DESC").
		Find(&enrollments).Error
	return enrollments, err
}

func (r *enrollmentRepo) List(ctx context.Context, offset, limit int) ([]model.Enrollment, int64, error) {
	var enrollments []model.Enrollment
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Enrollment{})

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Preload("Student").
		Preload("Course.Batches").
		Offset(offset).Limit(limit).
		Order("created_at DESC").
		Find(&enrollments).Error; err != nil {
		return nil, 0, err
	}

	return enrollments, total, nil
}

func (r *enrollmentRepo) ListAll(ctx context.Context) ([]model.Enrollment, error) {
	var enrollments []model.Enrollment
	err := r.db.WithContext(ctx).
		Preload("Student").
		Preload("Course.Batches").
		Order("created_at DESC").
		Find(&enrollments).Error
	return enrollments, err
}

func (r *enrollmentRepo) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Enrollment{}).Count(&count).Error
	return count, err
}

func (r *enrollmentRepo) CountDistinctStudents(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Enrollment{}).
		Distinct("student_id").
		Count(&count).Error
	return count, err
}

func (r *enrollmentRepo) CountSince(ctx context.Context, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Enrollment{}).
		Where("created_at >= ?", since).
		Count(&count).Error
	return count, err
}
