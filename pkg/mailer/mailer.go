// Package mailer 发送系统通知邮件（SendGrid）
package mailer

import (
	"context"
	"fmt"
	"html"
	"net/http"
	"time"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"

	"github.com/Nisha0202/lms-backend/config"
)

const (
	defaultHost = "https://api.sendgrid.com"
	endpoint    = "/v3/mail/send"
	sendTimeout = 10 * time.Second
)

// EnrollmentMail 报名确认邮件内容
type EnrollmentMail struct {
	ToAddress   string
	ToName      string
	CourseTitle string
	BatchName   string
}

// Mailer 邮件发送接口
type Mailer interface {
	SendEnrollmentConfirmation(ctx context.Context, m *EnrollmentMail) error
}

// New 根据配置返回邮件发送器，未配置 API Key 时返回空实现
func New(cfg *config.MailConfig, logger *zap.Logger) Mailer {
	if cfg.SendGridAPIKey == "" {
		logger.Info("未配置 SendGrid，邮件通知已禁用")
		return Noop{}
	}
	return NewSendGrid(cfg, defaultHost)
}

// ────────────────────── SendGrid ──────────────────────

// SendGrid 基于 SendGrid v3 API 的实现
type SendGrid struct {
	key    string
	host   string
	from   *sgmail.Email
	client *rest.Client
}

// NewSendGrid 创建 SendGrid 发送器，host 为空时使用官方地址
func NewSendGrid(cfg *config.MailConfig, host string) *SendGrid {
	if host == "" {
		host = defaultHost
	}
	return &SendGrid{
		key:  cfg.SendGridAPIKey,
		host: host,
		from: sgmail.NewEmail(cfg.FromName, cfg.FromAddress),
		client: &rest.Client{
			HTTPClient: &http.Client{Timeout: sendTimeout},
		},
	}
}

func (s *SendGrid) SendEnrollmentConfirmation(ctx context.Context, m *EnrollmentMail) error {
	subject := "报名成功：" + m.CourseTitle
	text := fmt.Sprintf("%s 您好，\n\n您已成功报名课程《%s》（%s）。\n", m.ToName, m.CourseTitle, m.BatchName)
	body := fmt.Sprintf("<p>%s 您好，</p><p>您已成功报名课程《%s》（%s）。</p>",
		html.EscapeString(m.ToName), html.EscapeString(m.CourseTitle), html.EscapeString(m.BatchName))

	msg := sgmail.NewSingleEmail(s.from, subject, sgmail.NewEmail(m.ToName, m.ToAddress), text, body)

	req := sendgrid.GetRequest(s.key, endpoint, s.host)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(msg)

	res, err := s.client.SendWithContext(ctx, req)
	if err != nil {
		return fmt.Errorf("发送邮件失败: %w", err)
	}
	if res.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("发送邮件失败: status=%d body=%s", res.StatusCode, res.Body)
	}
	return nil
}

// ────────────────────── Noop ──────────────────────

// Noop 不发送任何邮件
type Noop struct{}

func (Noop) SendEnrollmentConfirmation(context.Context, *EnrollmentMail) error { return nil }
