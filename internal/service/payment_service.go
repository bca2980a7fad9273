package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Nisha0202/lms-backend/config"
	"github.com/Nisha0202/lms-backend/internal/dto"
	"github.com/Nisha0202/lms-backend/internal/model"
	"github.com/Nisha0202/lms-backend/internal/repository"
	pkgerrors "github.com/Nisha0202/lms-backend/pkg/errors"
	"github.com/Nisha0202/lms-backend/pkg/mailer"
	"github.com/Nisha0202/lms-backend/pkg/payment"
)

// ── 支付模块业务错误 ──

var (
	ErrPaymentIncomplete     = errors.New("支付尚未完成")
	ErrInvalidMetadata       = errors.New("支付会话元数据无效")
	ErrCheckoutNotFound      = errors.New("支付会话不存在")
	ErrCheckoutOwnerMismatch = errors.New("支付会话不属于当前用户")
	ErrPaymentGatewayFailure = errors.New("支付网关调用失败")
)

const (
	confirmLockTTL = 15 * time.Second
	// Stripe 在回跳时替换为真实会话 ID
	checkoutSessionPlaceholder = "{CHECKOUT_SESSION_ID}"
)

// Locker 短期互斥锁
type Locker interface {
	AcquireLock(ctx context.Context, name string, ttl time.Duration) (func(), error)
}

// PaymentService 支付报名业务接口
type PaymentService interface {
	// CreateCheckout 创建网关支付会话，此时不产生报名记录
	CreateCheckout(ctx context.Context, studentID string, req *dto.CreateCheckoutRequest) (*dto.CheckoutResponse, error)
	// ConfirmCheckout 确认支付并创建已支付报名记录，可重复调用
	ConfirmCheckout(ctx context.Context, studentID, sessionID string) (*dto.VerifySessionResponse, error)
	// ExpireStaleCheckouts 将超过有效期仍未完成的本地会话标记为过期
	ExpireStaleCheckouts(ctx context.Context) (int64, error)
}

type paymentService struct {
	cfg     *config.Config
	repo    *repository.Repository
	gateway payment.Gateway
	locker  Locker
	mailer  mailer.Mailer
	logger  *zap.Logger
	now     func() time.Time
}

// NewPaymentService 创建 PaymentService 实例，locker 可为空
func NewPaymentService(
	cfg *config.Config,
	repo *repository.Repository,
	gateway payment.Gateway,
	locker Locker,
	m mailer.Mailer,
	logger *zap.Logger,
) PaymentService {
	return &paymentService{
		cfg:     cfg,
		repo:    repo,
		gateway: gateway,
		locker:  locker,
		mailer:  m,
		logger:  logger,
		now:     time.Now,
	}
}

// ────────────────────── CreateCheckout ──────────────────────

func (s *paymentService) CreateCheckout(ctx context.Context, studentID string, req *dto.CreateCheckoutRequest) (*dto.CheckoutResponse, error) {
	// 1. 未报名
	if _, err := s.repo.Enrollment.GetByStudentAndCourse(ctx, studentID, req.CourseID); err == nil {
		return nil, ErrAlreadyEnrolled
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询报名记录失败", zap.Error(err))
		return nil, err
	}

	// 2. 课程与批次存在
	course, err := s.repo.Course.GetByID(ctx, req.CourseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		s.logger.Error("查询课程失败", zap.String("course_id", req.CourseID), zap.Error(err))
		return nil, err
	}
	if _, ok := NewBatchRegistry(course).Find(req.BatchID); !ok {
		return nil, ErrBatchNotFound
	}

	// 3. 网关会话
	clientURL := strings.TrimRight(s.cfg.Server.ClientURL, "/")
	checkout, err := s.gateway.CreateCheckout(ctx, &payment.CheckoutRequest{
		ProductName: course.Title,
		AmountMinor: int64(math.Round(course.Price * 100)),
		Currency:    s.cfg.Payment.Currency,
		Metadata: map[string]string{
			payment.MetaUserID:   studentID,
			payment.MetaCourseID: course.CourseID,
			payment.MetaBatchID:  req.BatchID,
		},
		SuccessURL: clientURL + "/payment/success?session_id=" + checkoutSessionPlaceholder,
		CancelURL:  clientURL + "/courses/" + url.PathEscape(course.CourseID),
	})
	if err != nil {
		s.logger.Error("创建支付会话失败", zap.String("course_id", course.CourseID), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrPaymentGatewayFailure, err)
	}

	// 4. 本地会话记录仅用于对账与过期清理，写入失败不影响支付
	if err := s.repo.Checkout.Create(ctx, &model.CheckoutSession{
		SessionID:   checkout.ID,
		StudentID:   studentID,
		CourseID:    course.CourseID,
		BatchID:     req.BatchID,
		Amount:      course.Price,
		Currency:    s.cfg.Payment.Currency,
		CheckoutURL: checkout.URL,
		Status:      model.CheckoutPending,
	}); err != nil {
		s.logger.Warn("记录支付会话失败", zap.String("session_id", checkout.ID), zap.Error(err))
	}

	return &dto.CheckoutResponse{URL: checkout.URL, SessionID: checkout.ID}, nil
}

// ────────────────────── ConfirmCheckout ──────────────────────

func (s *paymentService) ConfirmCheckout(ctx context.Context, studentID, sessionID string) (*dto.VerifySessionResponse, error) {
	// 1. 网关确认支付状态
	checkout, err := s.gateway.GetCheckout(ctx, sessionID)
	if err != nil {
		if errors.Is(err, payment.ErrCheckoutNotFound) {
			return nil, ErrCheckoutNotFound
		}
		s.logger.Error("查询支付会话失败", zap.String("session_id", sessionID), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrPaymentGatewayFailure, err)
	}
	if !checkout.Paid {
		return nil, ErrPaymentIncomplete
	}

	// 2. 元数据
	userID := checkout.Metadata[payment.MetaUserID]
	courseID := checkout.Metadata[payment.MetaCourseID]
	batchID := checkout.Metadata[payment.MetaBatchID]
	if userID == "" || courseID == "" || batchID == "" {
		return nil, ErrInvalidMetadata
	}
	if userID != studentID {
		return nil, ErrCheckoutOwnerMismatch
	}

	// 3. 同一会话的并发确认在此互斥
	if s.locker != nil {
		release, err := s.locker.AcquireLock(ctx, "checkout:"+sessionID, confirmLockTTL)
		if err != nil {
			if !errors.Is(err, pkgerrors.ErrLockNotAcquired) {
				s.logger.Error("获取支付确认锁失败", zap.String("session_id", sessionID), zap.Error(err))
			}
			return nil, err
		}
		defer release()
	}

	// 4. 已报名则幂等返回
	if existing, err := s.repo.Enrollment.GetByStudentAndCourse(ctx, userID, courseID); err == nil {
		s.markCheckoutCompleted(ctx, sessionID)
		return &dto.VerifySessionResponse{Enrollment: toEnrollmentResponse(existing), AlreadyEnrolled: true}, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询报名记录失败", zap.Error(err))
		return nil, err
	}

	course, err := s.repo.Course.GetByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		s.logger.Error("查询课程失败", zap.String("course_id", courseID), zap.Error(err))
		return nil, err
	}

	// 5. 已付款的会话不再校验名额，超额时仅告警
	enrollment := &model.Enrollment{
		StudentID:        userID,
		CourseID:         courseID,
		BatchID:          batchID,
		CompletedLessons: []string{},
		PaymentStatus:    model.PaymentCompleted,
	}
	if err := s.repo.Enrollment.Create(ctx, enrollment); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			existing, getErr := s.repo.Enrollment.GetByStudentAndCourse(ctx, userID, courseID)
			if getErr != nil {
				s.logger.Error("查询报名记录失败", zap.Error(getErr))
				return nil, getErr
			}
			s.markCheckoutCompleted(ctx, sessionID)
			return &dto.VerifySessionResponse{Enrollment: toEnrollmentResponse(existing), AlreadyEnrolled: true}, nil
		}
		s.logger.Error("创建报名记录失败", zap.String("session_id", sessionID), zap.Error(err))
		return nil, err
	}

	s.markCheckoutCompleted(ctx, sessionID)

	registry := NewBatchRegistry(course)
	if batch, ok := registry.Find(batchID); ok {
		if used, err := s.repo.Enrollment.CountByBatch(ctx, courseID, batchID); err == nil && used > int64(batch.SeatLimit) {
			s.logger.Warn("批次报名人数超出名额",
				zap.String("course_id", courseID),
				zap.String("batch_id", batchID),
				zap.Int64("used", used),
				zap.Int("seat_limit", batch.SeatLimit),
			)
		}
	}

	s.logger.Info("支付报名成功",
		zap.String("session_id", sessionID),
		zap.String("student_id", userID),
		zap.String("course_id", courseID),
	)
	notifyEnrolled(ctx, s.repo, s.mailer, s.logger, userID, course, registry.Name(batchID))

	return &dto.VerifySessionResponse{Enrollment: toEnrollmentResponse(enrollment)}, nil
}

func (s *paymentService) markCheckoutCompleted(ctx context.Context, sessionID string) {
	if err := s.repo.Checkout.MarkCompleted(ctx, sessionID, s.now().UTC()); err != nil {
		s.logger.Warn("更新支付会话状态失败", zap.String("session_id", sessionID), zap.Error(err))
	}
}

// ────────────────────── ExpireStaleCheckouts ──────────────────────

func (s *paymentService) ExpireStaleCheckouts(ctx context.Context) (int64, error) {
	cutoff := s.now().Add(-s.cfg.Payment.CheckoutTTL)
	n, err := s.repo.Checkout.ExpireBefore(ctx, cutoff)
	if err != nil {
		s.logger.Error("清理过期支付会话失败", zap.Error(err))
		return 0, err
	}
	if n > 0 {
		s.logger.Info("已过期未完成的支付会话", zap.Int64("count", n), zap.Time("cutoff", cutoff))
	}
	return n, nil
}
