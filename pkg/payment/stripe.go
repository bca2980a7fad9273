package payment

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
)

// StripeGateway 基于 Stripe Checkout REST API 的网关实现
type StripeGateway struct {
	client *resty.Client
}

// stripeSession Stripe checkout.session 对象中用到的字段
type stripeSession struct {
	ID            string            `json:"id"`
	URL           string            `json:"url"`
	PaymentStatus string            `json:"payment_status"` // paid | unpaid | no_payment_required
	Metadata      map[string]string `json:"metadata"`
}

type stripeError struct {
	Error struct {
		Type    string `json:"type"`
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// NewStripeGateway 创建 Stripe 网关
func NewStripeGateway(secretKey, apiBase string, timeout time.Duration) *StripeGateway {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	client := resty.New().
		SetBaseURL(apiBase).
		SetAuthToken(secretKey).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")

	return &StripeGateway{client: client}
}

// CreateCheckout POST /v1/checkout/sessions
func (g *StripeGateway) CreateCheckout(ctx context.Context, req *CheckoutRequest) (*Checkout, error) {
	form := map[string]string{
		"mode":                                          "payment",
		"payment_method_types[0]":                       "card",
		"line_items[0][quantity]":                       "1",
		"line_items[0][price_data][currency]":           req.Currency,
		"line_items[0][price_data][unit_amount]":        strconv.FormatInt(req.AmountMinor, 10),
		"line_items[0][price_data][product_data][name]": req.ProductName,
		"success_url":                                   req.SuccessURL,
		"cancel_url":                                    req.CancelURL,
	}
	for k, v := range req.Metadata {
		form["metadata["+k+"]"] = v
	}

	var session stripeSession
	var apiErr stripeError
	resp, err := g.client.R().
		SetContext(ctx).
		SetFormData(form).
		SetResult(&session).
		SetError(&apiErr).
		Post("/v1/checkout/sessions")
	if err != nil {
		return nil, fmt.Errorf("调用 Stripe 创建会话失败: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("Stripe 创建会话失败: HTTP %d %s", resp.StatusCode(), apiErr.Error.Message)
	}

	return session.toCheckout(), nil
}

// GetCheckout GET /v1/checkout/sessions/{id}
func (g *StripeGateway) GetCheckout(ctx context.Context, id string) (*Checkout, error) {
	var session stripeSession
	var apiErr stripeError
	resp, err := g.client.R().
		SetContext(ctx).
		SetPathParam("id", id).
		SetResult(&session).
		SetError(&apiErr).
		Get("/v1/checkout/sessions/{id}")
	if err != nil {
		return nil, fmt.Errorf("调用 Stripe 查询会话失败: %w", err)
	}
	if resp.StatusCode() == http.StatusNotFound || apiErr.Error.Code == "resource_missing" {
		return nil, ErrCheckoutNotFound
	}
	if resp.IsError() {
		return nil, errors.New("Stripe 查询会话失败: " + resp.Status())
	}

	return session.toCheckout(), nil
}

func (s *stripeSession) toCheckout() *Checkout {
	meta := s.Metadata
	if meta == nil {
		meta = map[string]string{}
	}
	return &Checkout{
		ID:       s.ID,
		URL:      s.URL,
		Paid:     s.PaymentStatus == "paid",
		Metadata: meta,
	}
}
