package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Nisha0202/lms-backend/internal/dto"
	"github.com/Nisha0202/lms-backend/internal/model"
	"github.com/Nisha0202/lms-backend/internal/repository"
)

// ── 课程模块业务错误 ──

var (
	ErrCourseNotFound = errors.New("课程不存在")
	ErrLessonNotFound = errors.New("课时不存在")
)

// CourseService 课程目录业务接口
type CourseService interface {
	Create(ctx context.Context, req *dto.CreateCourseRequest, instructorID string) (*model.Course, error)
	GetByID(ctx context.Context, id string) (*model.Course, error)
	List(ctx context.Context, req *dto.CourseListRequest) ([]model.Course, int64, error)
	Update(ctx context.Context, id string, req *dto.UpdateCourseRequest) (*model.Course, error)
	Delete(ctx context.Context, id string) error
	AddLesson(ctx context.Context, courseID string, req *dto.AddLessonRequest) (*model.Lesson, error)
	AddBatch(ctx context.Context, courseID string, req *dto.BatchRequest) (*model.Batch, error)
}

type courseService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewCourseService 创建 CourseService 实例
func NewCourseService(repo *repository.Repository, logger *zap.Logger) CourseService {
	return &courseService{repo: repo, logger: logger}
}

func (s *courseService) Create(ctx context.Context, req *dto.CreateCourseRequest, instructorID string) (*model.Course, error) {
	course := &model.Course{
		Title:       strings.TrimSpace(req.Title),
		Thumbnail:   req.Thumbnail,
		Description: req.Description,
		Price:       req.Price,
		Category:    strings.TrimSpace(req.Category),
		Tags:        normalizeTags(req.Tags),
	}
	if instructorID != "" {
		course.InstructorID = &instructorID
	}
	for _, b := range req.Batches {
		course.Batches = append(course.Batches, model.Batch{
			Name:      b.Name,
			StartDate: b.StartDate,
			EndDate:   b.EndDate,
			SeatLimit: b.SeatLimit,
		})
	}

	if err := s.repo.Course.Create(ctx, course); err != nil {
		s.logger.Error("创建课程失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("课程已创建", zap.String("course_id", course.CourseID), zap.Int("batches", len(course.Batches)))
	return course, nil
}

func (s *courseService) GetByID(ctx context.Context, id string) (*model.Course, error) {
	course, err := s.repo.Course.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		s.logger.Error("查询课程失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return course, nil
}

func (s *courseService) List(ctx context.Context, req *dto.CourseListRequest) ([]model.Course, int64, error) {
	filter := repository.CourseFilter{
		Search:   req.Search,
		Category: req.Category,
		Sort:     req.Sort,
	}
	if req.Tags != "" {
		filter.Tags = normalizeTags(strings.Split(req.Tags, ","))
	}

	courses, total, err := s.repo.Course.List(ctx, filter, req.GetOffset(), req.GetLimit())
	if err != nil {
		s.logger.Error("查询课程列表失败", zap.Error(err))
		return nil, 0, err
	}
	return courses, total, nil
}

func (s *courseService) Update(ctx context.Context, id string, req *dto.UpdateCourseRequest) (*model.Course, error) {
	course, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		course.Title = strings.TrimSpace(*req.Title)
	}
	if req.Thumbnail != nil {
		course.Thumbnail = *req.Thumbnail
	}
	if req.Description != nil {
		course.Description = *req.Description
	}
	if req.Price != nil {
		course.Price = *req.Price
	}
	if req.Category != nil {
		course.Category = strings.TrimSpace(*req.Category)
	}
	if req.Tags != nil {
		course.Tags = normalizeTags(*req.Tags)
	}

	if err := s.repo.Course.Update(ctx, course); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		s.logger.Error("更新课程失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return course, nil
}

func (s *courseService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Course.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCourseNotFound
		}
		s.logger.Error("删除课程失败", zap.String("id", id), zap.Error(err))
		return err
	}
	s.logger.Info("课程已删除", zap.String("course_id", id))
	return nil
}

// AddLesson 创建课时并追加到课程课时列表末尾
func (s *courseService) AddLesson(ctx context.Context, courseID string, req *dto.AddLessonRequest) (*model.Lesson, error) {
	lesson := &model.Lesson{
		Title:          strings.TrimSpace(req.Title),
		Description:    req.Description,
		VideoURL:       req.VideoURL,
		QuizFormURL:    req.QuizFormURL,
		AssignmentText: req.AssignmentText,
		IsQuiz:         req.IsQuiz,
	}

	err := s.repo.InTx(ctx, func(tx *repository.Repository) error {
		if _, err := tx.Course.GetByIDForUpdate(ctx, courseID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCourseNotFound
			}
			return err
		}
		if err := tx.Lesson.Create(ctx, lesson); err != nil {
			return err
		}
		return tx.Course.AppendLesson(ctx, courseID, lesson.LessonID)
	})
	if err != nil {
		if !errors.Is(err, ErrCourseNotFound) {
			s.logger.Error("添加课时失败", zap.String("course_id", courseID), zap.Error(err))
		}
		return nil, err
	}
	return lesson, nil
}

func (s *courseService) AddBatch(ctx context.Context, courseID string, req *dto.BatchRequest) (*model.Batch, error) {
	if _, err := s.GetByID(ctx, courseID); err != nil {
		return nil, err
	}

	batch := &model.Batch{
		CourseID:  courseID,
		Name:      req.Name,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		SeatLimit: req.SeatLimit,
	}
	if err := s.repo.Course.AddBatch(ctx, batch); err != nil {
		s.logger.Error("添加批次失败", zap.String("course_id", courseID), zap.Error(err))
		return nil, err
	}
	return batch, nil
}

// normalizeTags 去除空白与重复标签
func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
