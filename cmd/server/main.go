package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/Nisha0202/lms-backend/config"
	"github.com/Nisha0202/lms-backend/internal/api/handler"
	"github.com/Nisha0202/lms-backend/internal/api/router"
	"github.com/Nisha0202/lms-backend/internal/repository"
	"github.com/Nisha0202/lms-backend/internal/scheduler"
	"github.com/Nisha0202/lms-backend/internal/service"
	"github.com/Nisha0202/lms-backend/pkg/database"
	"github.com/Nisha0202/lms-backend/pkg/jwt"
	applogger "github.com/Nisha0202/lms-backend/pkg/logger"
	"github.com/Nisha0202/lms-backend/pkg/mailer"
	"github.com/Nisha0202/lms-backend/pkg/payment"
	"github.com/Nisha0202/lms-backend/pkg/redis"
)

func main() {
	// 1. 加载配置
	cfg, err := config.Load(os.Getenv("LMS_CONFIG_FILE"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	// 2. 初始化日志
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("应用启动中...",
		zap.Int("port", cfg.Server.Port),
		zap.String("log_level", cfg.Log.Level),
		zap.String("payment_provider", cfg.Payment.Provider),
	)

	// 3. 连接数据库
	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		logger.Fatal("数据库连接失败", zap.Error(err))
	}
	logger.Info("数据库连接成功")

	// 3.1 执行数据库迁移
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("获取底层 sql.DB 失败", zap.Error(err))
	}
	if err := database.RunMigrations(sqlDB, logger); err != nil {
		logger.Fatal("数据库迁移失败", zap.Error(err))
	}

	// 4. 连接 Redis（可选：连接失败时降级运行，不中断启动）
	var rdb *redis.Client
	rdb, err = redis.NewClient(&cfg.Redis, logger)
	if err != nil {
		logger.Warn("Redis 连接失败，Token 黑名单、限流与支付确认锁将不可用", zap.Error(err))
		rdb = nil
	}

	// 5. 初始化 JWT 管理器、支付网关与邮件
	jwtMgr := jwt.NewManager(&cfg.Auth)
	gateway := newGateway(&cfg.Payment, logger)
	m := mailer.New(&cfg.Mail, logger)

	// 6. 依赖注入: Repository → Service → Handler
	repo := repository.NewRepository(db)
	svc := service.NewService(cfg, repo, jwtMgr, rdb, gateway, m, logger)
	h := handler.NewHandler(svc)

	// 6.1 初始化管理员账号
	seedCtx, seedCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := svc.Auth.SeedAdmin(seedCtx, cfg.Admin.Email, cfg.Admin.Password); err != nil {
		logger.Error("初始化管理员失败", zap.Error(err))
	}
	seedCancel()

	// 7. 定时任务
	sched, err := scheduler.New(cfg.Scheduler.CheckoutExpiryCron, svc.Payment, logger)
	if err != nil {
		logger.Fatal("定时任务初始化失败", zap.Error(err))
	}
	sched.Start()

	// 8. 初始化路由
	engine := router.Setup(cfg, h, jwtMgr, rdb, logger)

	// 9. 启动 HTTP 服务器（优雅关闭）
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("HTTP 服务器已启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP 服务器异常", zap.Error(err))
		}
	}()

	// 10. 监听系统信号，优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("收到关闭信号，开始优雅关闭...", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("服务器关闭异常", zap.Error(err))
	}

	sched.Stop(ctx)

	// 关闭数据库连接
	closeDB, _ := db.DB()
	if closeDB != nil {
		closeDB.Close()
	}

	// 关闭 Redis 连接
	if rdb != nil {
		rdb.Close()
	}

	logger.Info("服务器已关闭")
}

// newGateway 按配置选择支付网关
func newGateway(cfg *config.PaymentConfig, logger *zap.Logger) payment.Gateway {
	if cfg.Provider == "stripe" {
		return payment.NewStripeGateway(cfg.StripeSecretKey, cfg.StripeAPIBase, cfg.Timeout)
	}
	logger.Warn("使用模拟支付网关，支付会话创建即视为已支付")
	return payment.NewMockGateway()
}
