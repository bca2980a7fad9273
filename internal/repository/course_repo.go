package repository

import (
	"context"
	"strings"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Nisha0202/lms-backend/internal/model"
)

// CourseFilter 课程列表筛选条件
type CourseFilter struct {
	Search   string // 标题模糊匹配，不区分大小写
	Category string
	Tags     []string // 任一匹配
	Sort     string   // price | -price | createdAt | -createdAt | title
}

var courseSortColumns = map[string]string{
	"price":      "price ASC",
	"-price":     "price DESC",
	"createdAt":  "created_at ASC",
	"-createdAt": "created_at DESC",
	"title":      "title ASC",
}

// CourseRepository 课程数据访问接口
// 批次随课程一起读写，没有独立的仓储
type CourseRepository interface {
	Create(ctx context.Context, course *model.Course) error
	GetByID(ctx context.Context, id string) (*model.Course, error)
	// GetByIDForUpdate 锁定课程行（SELECT ... FOR UPDATE），须在事务中调用
	GetByIDForUpdate(ctx context.Context, id string) (*model.Course, error)
	List(ctx context.Context, filter CourseFilter, offset, limit int) ([]model.Course, int64, error)
	Update(ctx context.Context, course *model.Course) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)
	AddBatch(ctx context.Context, batch *model.Batch) error
	AppendLesson(ctx context.Context, courseID, lessonID string) error
}

type courseRepo struct {
	db *gorm.DB
}

// NewCourseRepo 创建 CourseRepository 实例
func NewCourseRepo(db *gorm.DB) CourseRepository {
	return &courseRepo{db: db}
}

// Create 同时写入 Batches
func (r *courseRepo) Create(ctx context.Context, course *model.Course) error {
	return r.db.WithContext(ctx).Create(course).Error
}

func (r *courseRepo) GetByID(ctx context.Context, id string) (*model.Course, error) {
	return r.get(ctx, id, false)
}

func (r *courseRepo) GetByIDForUpdate(ctx context.Context, id string) (*model.Course, error) {
	return r.get(ctx, id, true)
}

func (r *courseRepo) get(ctx context.Context, id string, forUpdate bool) (*model.Course, error) {
	db := r.db.WithContext(ctx)
	query := db
	if forUpdate {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var course model.Course
	err := query.
		Where("course_id = ?", id).
		First(&course).Error
	if err != nil {
		return nil, err
	}

	if err := db.
		Where("course_id = ?", id).
		Order("start_date ASC").
		Find(&course.Batches).Error; err != nil {
		return nil, err
	}
	if course.Lessons, err = r.lessonsOf(db, id); err != nil {
		return nil, err
	}
	return &course, nil
}

// lessonsOf 按 position 顺序加载课程课时
func (r *courseRepo) lessonsOf(db *gorm.DB, courseID string) ([]model.Lesson, error) {
	var lessons []model.Lesson
	err := db.
		Joins("JOIN course_lessons cl ON cl.lesson_id = lessons.lesson_id").
		Where("cl.course_id = ?", courseID).
		Order("cl.position ASC").
		Find(&lessons).Error
	return lessons, err
}

func (r *courseRepo) List(ctx context.Context, filter CourseFilter, offset, limit int) ([]model.Course, int64, error) {
	var courses []model.Course
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Course{})

	if s := strings.TrimSpace(filter.Search); s != "" {
		db = db.Where("title ILIKE ?", "%"+s+"%")
	}
	if filter.Category != "" {
		db = db.Where("category = ?", filter.Category)
	}
	if len(filter.Tags) > 0 {
		conds := make([]string, 0, len(filter.Tags))
		args := make([]interface{}, 0, len(filter.Tags))
		for _, tag := range filter.Tags {
			conds = append(conds, "tags @> ?::jsonb")
			args = append(args, datatypes.JSONSlice[string]{tag})
		}
		db = db.Where("("+strings.Join(conds, " OR ")+")", args...)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	order, ok := courseSortColumns[filter.Sort]
	if !ok {
		order = "created_at DESC"
	}

	if err := db.Preload("Batches", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("start_date ASC")
	}).
		Order(order).
		Offset(offset).Limit(limit).
		Find(&courses).Error; err != nil {
		return nil, 0, err
	}

	return courses, total, nil
}

func (r *courseRepo) Update(ctx context.Context, course *model.Course) error {
	result := r.db.WithContext(ctx).
		Model(&model.Course{}).
		Where("course_id = ?", course.CourseID).
		Updates(map[string]interface{}{
			"title":       course.Title,
			"thumbnail":   course.Thumbnail,
			"description": course.Description,
			"price":       course.Price,
			"category":    course.Category,
			"tags":        course.Tags,
			"updated_at":  gorm.Expr("NOW()"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete 批次与课时关联由外键级联删除
func (r *courseRepo) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).
		Where("course_id = ?", id).
		Delete(&model.Course{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *courseRepo) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Course{}).Count(&count).Error
	return count, err
}

func (r *courseRepo) AddBatch(ctx context.Context, batch *model.Batch) error {
	return r.db.WithContext(ctx).Create(batch).Error
}

// AppendLesson 将课时追加到课程课时列表末尾
func (r *courseRepo) AppendLesson(ctx context.Context, courseID, lessonID string) error {
	return r.db.WithContext(ctx).Exec(
		`INSERT INTO course_lessons (course_id, lesson_id, position)
		 SELECT ?, ?, COALESCE(MAX(position), 0) + 1 FROM course_lessons WHERE course_id = ?`,
		courseID, lessonID, courseID,
	).Error
}
