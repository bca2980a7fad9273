package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/Nisha0202/lms-backend/internal/model"
)

// CheckoutRepository 本地支付会话数据访问接口
type CheckoutRepository interface {
	Create(ctx context.Context, session *model.CheckoutSession) error
	GetByID(ctx context.Context, id string) (*model.CheckoutSession, error)
	MarkCompleted(ctx context.Context, id string, at time.Time) error
	// ExpireBefore 将 cutoff 之前创建且仍未完成的会话置为 expired，返回受影响行数
	ExpireBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type checkoutRepo struct {
	db *gorm.DB
}

// NewCheckoutRepo 创建 CheckoutRepository 实例
func NewCheckoutRepo(db *gorm.DB) CheckoutRepository {
	return &checkoutRepo{db: db}
}

func (r *checkoutRepo) Create(ctx context.Context, session *model.CheckoutSession) error {
	return r.db.WithContext(ctx).Create(session).Error
}

func (r *checkoutRepo) GetByID(ctx context.Context, id string) (*model.CheckoutSession, error) {
	var session model.CheckoutSession
	err := r.db.WithContext(ctx).
		Where("session_id = ?", id).
		First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// MarkCompleted 会话不存在时不报错（例如网关侧直接发起的会话）
func (r *checkoutRepo) MarkCompleted(ctx context.Context, id string, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&model.CheckoutSession{}).
		Where("session_id = ? AND status <> ?", id, model.CheckoutCompleted).
		Updates(map[string]interface{}{
			"status":       model.CheckoutCompleted,
			"completed_at": at,
			"updated_at":   gorm.Expr("NOW()"),
		}).Error
}

func (r *checkoutRepo) ExpireBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&model.CheckoutSession{}).
		Where("status = ? AND created_at < ?", model.CheckoutPending, cutoff).
		Updates(map[string]interface{}{
			"status":     model.CheckoutExpired,
			"updated_at": gorm.Expr("NOW()"),
		})
	return result.RowsAffected, result.Error
}
