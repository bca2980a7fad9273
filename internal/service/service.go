package service

import (
	"go.uber.org/zap"

	"github.com/Nisha0202/lms-backend/config"
	"github.com/Nisha0202/lms-backend/internal/repository"
	"github.com/Nisha0202/lms-backend/pkg/jwt"
	"github.com/Nisha0202/lms-backend/pkg/mailer"
	"github.com/Nisha0202/lms-backend/pkg/payment"
	"github.com/Nisha0202/lms-backend/pkg/redis"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Auth       AuthService
	User       UserService
	Course     CourseService
	Enrollment EnrollmentService
	Learning   LearningService
	Payment    PaymentService
	Assessment AssessmentService
	Export     ExportService
}

// NewService 创建 Service 聚合，rdb 为空时禁用 Token 黑名单与支付确认锁
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	rdb *redis.Client,
	gateway payment.Gateway,
	m mailer.Mailer,
	logger *zap.Logger,
) *Service {
	var (
		blacklist TokenBlacklist
		locker    Locker
	)
	if rdb != nil {
		blacklist = rdb
		locker = rdb
	}

	return &Service{
		Auth:       NewAuthService(cfg, repo, jwtMgr, blacklist, logger),
		User:       NewUserService(repo, logger),
		Course:     NewCourseService(repo, logger),
		Enrollment: NewEnrollmentService(repo, m, cfg.Server.ClientURL, logger),
		Learning:   NewLearningService(repo, logger),
		Payment:    NewPaymentService(cfg, repo, gateway, locker, m, logger),
		Assessment: NewAssessmentService(repo, logger),
		Export:     NewExportService(repo, logger),
	}
}
