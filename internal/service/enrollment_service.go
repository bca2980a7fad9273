package service

import (
	"context"
	"errors"
	"time"

	"github.com/jinzhu/now"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Nisha0202/lms-backend/internal/dto"
	"github.com/Nisha0202/lms-backend/internal/model"
	"github.com/Nisha0202/lms-backend/internal/repository"
	"github.com/Nisha0202/lms-backend/pkg/mailer"
)

// ── 报名模块业务错误 ──

var (
	ErrAlreadyEnrolled    = errors.New("您已报名该课程")
	ErrBatchNotFound      = errors.New("批次不存在")
	ErrBatchFull          = errors.New("该批次名额已满")
	ErrNotEnrolled        = errors.New("您尚未报名该课程")
	ErrBatchDataMissing   = errors.New("批次数据缺失")
	ErrEnrollmentNotFound = errors.New("报名记录不存在")
)

// EnrollmentService 报名业务接口
type EnrollmentService interface {
	// Enroll 直接报名：名额校验与写入在同一事务中完成，成功后即为已支付
	Enroll(ctx context.Context, studentID string, req *dto.EnrollRequest) (*dto.EnrollmentResponse, error)
	MyCourses(ctx context.Context, studentID string) ([]dto.MyCourseItem, error)
	AdminList(ctx context.Context, req *dto.AdminEnrollmentListRequest) ([]dto.AdminEnrollmentItem, int64, error)
	Stats(ctx context.Context) (*dto.StatsResponse, error)
	// Calendar 以 iCalendar 格式导出报名批次的学习时间窗口
	Calendar(ctx context.Context, studentID, enrollmentID string) ([]byte, string, error)
}

type enrollmentService struct {
	repo    *repository.Repository
	mailer  mailer.Mailer
	baseURL string
	logger  *zap.Logger
	now     func() time.Time
}

// NewEnrollmentService 创建 EnrollmentService 实例
func NewEnrollmentService(repo *repository.Repository, m mailer.Mailer, clientURL string, logger *zap.Logger) EnrollmentService {
	return &enrollmentService{
		repo:    repo,
		mailer:  m,
		baseURL: clientURL,
		logger:  logger,
		now:     time.Now,
	}
}

// ────────────────────── Enroll ──────────────────────

func (s *enrollmentService) Enroll(ctx context.Context, studentID string, req *dto.EnrollRequest) (*dto.EnrollmentResponse, error) {
	var (
		enrollment *model.Enrollment
		course     *model.Course
		batch      *model.Batch
	)

	err := s.repo.InTx(ctx, func(tx *repository.Repository) error {
		// 1. 同一课程只能报名一个批次
		if _, err := tx.Enrollment.GetByStudentAndCourse(ctx, studentID, req.CourseID); err == nil {
			return ErrAlreadyEnrolled
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Error("查询报名记录失败", zap.Error(err))
			return err
		}

		// 2. 锁定课程行，同一课程的报名在此串行化
		c, err := tx.Course.GetByIDForUpdate(ctx, req.CourseID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCourseNotFound
			}
			s.logger.Error("查询课程失败", zap.String("course_id", req.CourseID), zap.Error(err))
			return err
		}
		course = c

		// 3. 批次
		b, ok := NewBatchRegistry(c).Find(req.BatchID)
		if !ok {
			return ErrBatchNotFound
		}
		batch = b

		// 4. 名额
		used, err := tx.Enrollment.CountByBatch(ctx, req.CourseID, req.BatchID)
		if err != nil {
			s.logger.Error("统计批次名额失败", zap.String("batch_id", req.BatchID), zap.Error(err))
			return err
		}
		if SeatsLeft(b, used) == 0 {
			return ErrBatchFull
		}

		// 5. 创建待支付记录
		e := &model.Enrollment{
			StudentID:        studentID,
			CourseID:         req.CourseID,
			BatchID:          req.BatchID,
			CompletedLessons: []string{},
			PaymentStatus:    model.PaymentPending,
		}
		if err := tx.Enrollment.Create(ctx, e); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrAlreadyEnrolled
			}
			s.logger.Error("创建报名记录失败", zap.Error(err))
			return err
		}

		// 6. 直接报名视为已支付
		if err := tx.Enrollment.UpdatePaymentStatus(ctx, e.EnrollmentID, model.PaymentCompleted); err != nil {
			s.logger.Error("更新支付状态失败", zap.String("enrollment_id", e.EnrollmentID), zap.Error(err))
			return err
		}
		e.PaymentStatus = model.PaymentCompleted
		enrollment = e
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("报名成功",
		zap.String("student_id", studentID),
		zap.String("course_id", req.CourseID),
		zap.String("batch_id", req.BatchID),
	)
	notifyEnrolled(ctx, s.repo, s.mailer, s.logger, studentID, course, batch.Name)

	resp := toEnrollmentResponse(enrollment)
	return &resp, nil
}

// ────────────────────── MyCourses ──────────────────────

func (s *enrollmentService) MyCourses(ctx context.Context, studentID string) ([]dto.MyCourseItem, error) {
	enrollments, err := s.repo.Enrollment.ListByStudent(ctx, studentID)
	if err != nil {
		s.logger.Error("查询我的课程失败", zap.String("student_id", studentID), zap.Error(err))
		return nil, err
	}

	items := make([]dto.MyCourseItem, 0, len(enrollments))
	for i := range enrollments {
		e := &enrollments[i]
		item := dto.MyCourseItem{
			EnrollmentID:  e.EnrollmentID,
			BatchID:       e.BatchID,
			BatchName:     UnknownBatchName,
			Progress:      e.Progress,
			PaymentStatus: e.PaymentStatus,
			EnrolledAt:    e.CreatedAt.Format(time.RFC3339),
		}
		if e.Course != nil {
			item.Course = toCourseSummary(e.Course)
			if b, ok := NewBatchRegistry(e.Course).Find(e.BatchID); ok {
				item.BatchName = b.Name
				start := b.StartDate
				item.BatchStartDate = &start
			}
		}
		items = append(items, item)
	}
	return items, nil
}

// ────────────────────── AdminList ──────────────────────

func (s *enrollmentService) AdminList(ctx context.Context, req *dto.AdminEnrollmentListRequest) ([]dto.AdminEnrollmentItem, int64, error) {
	enrollments, total, err := s.repo.Enrollment.List(ctx, req.GetOffset(), req.GetLimit())
	if err != nil {
		s.logger.Error("查询报名列表失败", zap.Error(err))
		return nil, 0, err
	}

	items := make([]dto.AdminEnrollmentItem, 0, len(enrollments))
	for i := range enrollments {
		items = append(items, toAdminEnrollmentItem(&enrollments[i]))
	}
	return items, total, nil
}

func toAdminEnrollmentItem(e *model.Enrollment) dto.AdminEnrollmentItem {
	item := dto.AdminEnrollmentItem{
		EnrollmentID:  e.EnrollmentID,
		BatchName:     NewBatchRegistry(e.Course).Name(e.BatchID),
		Progress:      e.Progress,
		PaymentStatus: e.PaymentStatus,
		EnrolledAt:    e.CreatedAt.Format(time.RFC3339),
	}
	if e.Student != nil {
		item.StudentName = e.Student.Name
		item.StudentEmail = e.Student.Email
	}
	if e.Course != nil {
		item.CourseTitle = e.Course.Title
	}
	return item
}

// ────────────────────── Stats ──────────────────────

func (s *enrollmentService) Stats(ctx context.Context) (*dto.StatsResponse, error) {
	var stats dto.StatsResponse
	var err error

	if stats.TotalCourses, err = s.repo.Course.Count(ctx); err != nil {
		s.logger.Error("统计课程数失败", zap.Error(err))
		return nil, err
	}
	if stats.TotalStudents, err = s.repo.Enrollment.CountDistinctStudents(ctx); err != nil {
		s.logger.Error("统计学生数失败", zap.Error(err))
		return nil, err
	}
	if stats.TotalEnrollments, err = s.repo.Enrollment.Count(ctx); err != nil {
		s.logger.Error("统计报名数失败", zap.Error(err))
		return nil, err
	}
	monthStart := now.With(s.now().UTC()).BeginningOfMonth()
	if stats.EnrollmentsThisMonth, err = s.repo.Enrollment.CountSince(ctx, monthStart); err != nil {
		s.logger.Error("统计本月报名数失败", zap.Error(err))
		return nil, err
	}
	return &stats, nil
}

// ────────────────────── Calendar ──────────────────────

func (s *enrollmentService) Calendar(ctx context.Context, studentID, enrollmentID string) ([]byte, string, error) {
	e, err := s.repo.Enrollment.GetByID(ctx, enrollmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrEnrollmentNotFound
		}
		s.logger.Error("查询报名记录失败", zap.String("id", enrollmentID), zap.Error(err))
		return nil, "", err
	}
	// 他人的报名记录按不存在处理
	if e.StudentID != studentID {
		return nil, "", ErrEnrollmentNotFound
	}
	if e.Course == nil {
		return nil, "", ErrCourseNotFound
	}
	batch, ok := NewBatchRegistry(e.Course).Find(e.BatchID)
	if !ok {
		return nil, "", ErrBatchDataMissing
	}

	data := buildBatchCalendar(e, e.Course, batch, s.baseURL, s.now())
	return data, "course-" + e.CourseID + ".ics", nil
}

// ── 共用辅助 ──

// notifyEnrolled 发送报名确认邮件，失败只记录日志
func notifyEnrolled(ctx context.Context, repo *repository.Repository, m mailer.Mailer, logger *zap.Logger, studentID string, course *model.Course, batchName string) {
	if m == nil || course == nil {
		return
	}
	student, err := repo.User.GetByID(ctx, studentID)
	if err != nil {
		logger.Warn("查询学生失败，跳过报名确认邮件", zap.String("student_id", studentID), zap.Error(err))
		return
	}
	if err := m.SendEnrollmentConfirmation(ctx, &mailer.EnrollmentMail{
		ToAddress:   student.Email,
		ToName:      student.Name,
		CourseTitle: course.Title,
		BatchName:   batchName,
	}); err != nil {
		logger.Warn("发送报名确认邮件失败", zap.String("student_id", studentID), zap.Error(err))
	}
}

func toEnrollmentResponse(e *model.Enrollment) dto.EnrollmentResponse {
	completed := []string(e.CompletedLessons)
	if completed == nil {
		completed = []string{}
	}
	return dto.EnrollmentResponse{
		ID:               e.EnrollmentID,
		StudentID:        e.StudentID,
		CourseID:         e.CourseID,
		BatchID:          e.BatchID,
		CompletedLessons: completed,
		Progress:         e.Progress,
		PaymentStatus:    e.PaymentStatus,
		CreatedAt:        e.CreatedAt.Format(time.RFC3339),
	}
}

func toCourseSummary(c *model.Course) *dto.CourseSummary {
	return &dto.CourseSummary{
		ID:        c.CourseID,
		Title:     c.Title,
		Thumbnail: c.Thumbnail,
		Category:  c.Category,
		Price:     c.Price,
	}
}
