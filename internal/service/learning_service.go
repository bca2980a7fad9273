package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Nisha0202/lms-backend/internal/dto"
	"github.com/Nisha0202/lms-backend/internal/model"
	"github.com/Nisha0202/lms-backend/internal/repository"
	pkgerrors "github.com/Nisha0202/lms-backend/pkg/errors"
)

// maxProgressRetries 进度更新遇到版本冲突时的最大尝试次数
const maxProgressRetries = 3

// LearningService 学习业务接口
type LearningService interface {
	// GetCourseContent 访问窗口校验通过后返回课程内容，每次请求都重新判断
	GetCourseContent(ctx context.Context, studentID, courseID string) (*dto.CourseContentResponse, error)
	MarkLessonComplete(ctx context.Context, studentID string, req *dto.MarkCompleteRequest) (*dto.ProgressResponse, error)
}

type learningService struct {
	repo   *repository.Repository
	logger *zap.Logger
	now    func() time.Time
}

// NewLearningService 创建 LearningService 实例
func NewLearningService(repo *repository.Repository, logger *zap.Logger) LearningService {
	return &learningService{repo: repo, logger: logger, now: time.Now}
}

// ────────────────────── GetCourseContent ──────────────────────

func (s *learningService) GetCourseContent(ctx context.Context, studentID, courseID string) (*dto.CourseContentResponse, error) {
	// 1. 报名记录
	enrollment, err := s.getEnrollment(ctx, studentID, courseID)
	if err != nil {
		return nil, err
	}

	// 2. 课程与批次
	course, err := s.getCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	batch, ok := NewBatchRegistry(course).Find(enrollment.BatchID)
	if !ok {
		s.logger.Warn("报名记录引用的批次已不存在",
			zap.String("enrollment_id", enrollment.EnrollmentID),
			zap.String("batch_id", enrollment.BatchID),
		)
		return nil, ErrBatchDataMissing
	}

	// 3. 访问窗口
	if err := CheckWindow(batch, s.now()); err != nil {
		return nil, err
	}

	completed := []string(enrollment.CompletedLessons)
	if completed == nil {
		completed = []string{}
	}
	return &dto.CourseContentResponse{
		Course:           course,
		CompletedLessons: completed,
		Progress:         enrollment.Progress,
	}, nil
}

// ────────────────────── MarkLessonComplete ──────────────────────

func (s *learningService) MarkLessonComplete(ctx context.Context, studentID string, req *dto.MarkCompleteRequest) (*dto.ProgressResponse, error) {
	enrollment, err := s.getEnrollment(ctx, studentID, req.CourseID)
	if err != nil {
		return nil, err
	}

	course, err := s.getCourse(ctx, req.CourseID)
	if err != nil {
		return nil, err
	}
	lesson, ok := course.FindLesson(req.LessonID)
	if !ok {
		return nil, ErrLessonNotFound
	}

	// 加入完成集合并重算进度，版本冲突时重新读取后重试
	for attempt := 1; ; attempt++ {
		if !enrollment.MarkCompleted(req.LessonID, len(course.Lessons)) {
			break
		}
		err := s.repo.Enrollment.UpdateProgress(ctx, enrollment)
		if err == nil {
			break
		}
		if !errors.Is(err, pkgerrors.ErrOptimisticLock) || attempt >= maxProgressRetries {
			s.logger.Error("更新学习进度失败",
				zap.String("enrollment_id", enrollment.EnrollmentID),
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
			return nil, err
		}
		if enrollment, err = s.getEnrollment(ctx, studentID, req.CourseID); err != nil {
			return nil, err
		}
	}

	// 测验课时每次调用都刷新待评分记录
	if lesson.IsQuizLesson() {
		if err := s.repo.QuizResult.UpsertPending(ctx, studentID, lesson.LessonID); err != nil {
			s.logger.Error("写入待评分测验失败",
				zap.String("student_id", studentID),
				zap.String("lesson_id", lesson.LessonID),
				zap.Error(err),
			)
			return nil, err
		}
	}

	return &dto.ProgressResponse{
		Progress:         enrollment.Progress,
		CompletedLessons: []string(enrollment.CompletedLessons),
	}, nil
}

func (s *learningService) getEnrollment(ctx context.Context, studentID, courseID string) (*model.Enrollment, error) {
	enrollment, err := s.repo.Enrollment.GetByStudentAndCourse(ctx, studentID, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotEnrolled
		}
		s.logger.Error("查询报名记录失败", zap.String("course_id", courseID), zap.Error(err))
		return nil, err
	}
	return enrollment, nil
}

func (s *learningService) getCourse(ctx context.Context, courseID string) (*model.Course, error) {
	course, err := s.repo.Course.GetByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		s.logger.Error("查询课程失败", zap.String("course_id", courseID), zap.Error(err))
		return nil, err
	}
	return course, nil
}
