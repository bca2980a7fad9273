package config

import (
	"strings"
	"testing"
)

func validConfig() *Config {
	return &Config{
		Server:  ServerConfig{Port: 4000},
		Auth:    AuthConfig{JWTSecret: "test-secret-key-for-unit-testing"},
		Payment: PaymentConfig{Provider: "mock"},
	}
}

func TestValidate_OK(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("期望校验通过，实际: %v", err)
	}
}

func TestValidate_ShortSecret(t *testing.T) {
	cfg := validConfig()
	cfg.Auth.JWTSecret = "short"
	if err := cfg.Validate(); err == nil {
		t.Error("过短的 jwt_secret 应校验失败")
	}
}

func TestValidate_BadPort(t *testing.T) {
	cfg := validConfig()
	cfg.Server.Port = 70000
	if err := cfg.Validate(); err == nil {
		t.Error("非法端口应校验失败")
	}
}

func TestValidate_StripeWithoutKey(t *testing.T) {
	cfg := validConfig()
	cfg.Payment.Provider = "stripe"
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "stripe_secret_key") {
		t.Errorf("期望 stripe_secret_key 校验错误，实际: %v", err)
	}
}

func TestValidate_UnknownProvider(t *testing.T) {
	cfg := validConfig()
	cfg.Payment.Provider = "paypal"
	if err := cfg.Validate(); err == nil {
		t.Error("未知支付渠道应校验失败")
	}
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("LMS_AUTH_JWT_SECRET", "env-secret-key-0123456789")
	t.Setenv("LMS_SERVER_PORT", "5050")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load 失败: %v", err)
	}
	if cfg.Server.Port != 5050 {
		t.Errorf("期望 Port=5050，实际=%d", cfg.Server.Port)
	}
	if cfg.Payment.Provider != "mock" {
		t.Errorf("期望默认 Provider=mock，实际=%s", cfg.Payment.Provider)
	}
}
