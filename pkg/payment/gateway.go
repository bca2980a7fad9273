// Package payment 封装第三方支付网关（Stripe Checkout）
package payment

import (
	"context"
	"errors"
)

// 元数据键，与前端/网关控制台约定一致
const (
	MetaUserID   = "userId"
	MetaCourseID = "courseId"
	MetaBatchID  = "batchId"
)

// ErrCheckoutNotFound 网关中不存在该支付会话
var ErrCheckoutNotFound = errors.New("支付会话不存在")

// CheckoutRequest 创建支付会话的参数
type CheckoutRequest struct {
	ProductName string
	AmountMinor int64 // 最小货币单位（分）
	Currency    string
	Metadata    map[string]string
	SuccessURL  string
	CancelURL   string
}

// Checkout 网关侧支付会话
type Checkout struct {
	ID       string
	URL      string
	Paid     bool
	Metadata map[string]string
}

// Gateway 支付网关接口
// CreateCheckout 不产生任何本地报名记录；GetCheckout 可被重复调用
type Gateway interface {
	CreateCheckout(ctx context.Context, req *CheckoutRequest) (*Checkout, error)
	GetCheckout(ctx context.Context, id string) (*Checkout, error)
}
