package payment

import (
	"context"
	"net/url"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// MockGateway 本地开发用的内存网关
// 会话创建即视为已支付，回跳地址中的 {CHECKOUT_SESSION_ID} 会被替换为会话 ID
type MockGateway struct {
	mu       sync.RWMutex
	sessions map[string]*Checkout
}

// NewMockGateway 创建内存网关
func NewMockGateway() *MockGateway {
	return &MockGateway{sessions: make(map[string]*Checkout)}
}

func (g *MockGateway) CreateCheckout(_ context.Context, req *CheckoutRequest) (*Checkout, error) {
	id := "cs_mock_" + strings.ReplaceAll(uuid.New().String(), "-", "")

	meta := make(map[string]string, len(req.Metadata))
	for k, v := range req.Metadata {
		meta[k] = v
	}

	checkout := &Checkout{
		ID:       id,
		URL:      strings.ReplaceAll(req.SuccessURL, "{CHECKOUT_SESSION_ID}", url.QueryEscape(id)),
		Paid:     true,
		Metadata: meta,
	}

	g.mu.Lock()
	g.sessions[id] = checkout
	g.mu.Unlock()

	copied := *checkout
	return &copied, nil
}

func (g *MockGateway) GetCheckout(_ context.Context, id string) (*Checkout, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	checkout, ok := g.sessions[id]
	if !ok {
		return nil, ErrCheckoutNotFound
	}
	copied := *checkout
	return &copied, nil
}
