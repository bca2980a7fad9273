package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// jobTimeout 单次任务最长执行时间
const jobTimeout = time.Minute

// CheckoutExpirer 过期未完成支付会话的清理方
type CheckoutExpirer interface {
	ExpireStaleCheckouts(ctx context.Context) (int64, error)
}

// Scheduler 后台定时任务
type Scheduler struct {
	cron   *cron.Cron
	logger *zap.Logger
}

// New 创建调度器并注册支付会话清理任务，spec 为空时不注册
func New(spec string, expirer CheckoutExpirer, logger *zap.Logger) (*Scheduler, error) {
	s := &Scheduler{
		cron:   cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger))),
		logger: logger,
	}
	if spec == "" || expirer == nil {
		return s, nil
	}

	if _, err := s.cron.AddFunc(spec, func() { s.expireCheckouts(expirer) }); err != nil {
		return nil, fmt.Errorf("注册支付会话清理任务失败: %w", err)
	}
	return s, nil
}

func (s *Scheduler) expireCheckouts(expirer CheckoutExpirer) {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	n, err := expirer.ExpireStaleCheckouts(ctx)
	if err != nil {
		s.logger.Error("定时清理支付会话失败", zap.Error(err))
		return
	}
	s.logger.Debug("定时清理支付会话完成", zap.Int64("expired", n))
}

// Start 启动调度
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("定时任务已启动", zap.Int("jobs", len(s.cron.Entries())))
}

// Stop 停止调度并等待运行中的任务结束
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.logger.Warn("等待定时任务结束超时")
	}
}
