package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/Nisha0202/lms-backend/internal/model"
)

// LessonRepository 课时数据访问接口
type LessonRepository interface {
	Create(ctx context.Context, lesson *model.Lesson) error
	GetByID(ctx context.Context, id string) (*model.Lesson, error)
}

type lessonRepo struct {
	db *gorm.DB
}

// NewLessonRepo 创建 LessonRepository 实例
func NewLessonRepo(db *gorm.DB) LessonRepository {
	return &lessonRepo{db: db}
}

func (r *lessonRepo) Create(ctx context.Context, lesson *model.Lesson) error {
	return r.db.WithContext(ctx).Create(lesson).Error
}

func (r *lessonRepo) GetByID(ctx context.Context, id string) (*model.Lesson, error) {
	var lesson model.Lesson
	err := r.db.WithContext(ctx).
		Where("lesson_id = ?", id).
		First(&lesson).Error
	if err != nil {
		return nil, err
	}
	return &lesson, nil
}
