package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Nisha0202/lms-backend/config"
	"github.com/Nisha0202/lms-backend/internal/model"
	"github.com/Nisha0202/lms-backend/pkg/jwt"
	"github.com/Nisha0202/lms-backend/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ── Mocks ──

type mockBlacklist struct {
	revoked map[string]bool
	err     error
}

func (m *mockBlacklist) IsBlacklisted(_ context.Context, jti string) (bool, error) {
	return m.revoked[jti], m.err
}

type mockLimiter struct {
	calls int
	limit int
	err   error
}

func (m *mockLimiter) CheckRateLimit(_ context.Context, _ string, limit int, _ time.Duration) (bool, error) {
	m.calls++
	m.limit = limit
	if m.err != nil {
		return false, m.err
	}
	return m.calls <= limit, nil
}

// ── Helpers ──

func newJWTManager() *jwt.Manager {
	return jwt.NewManager(&config.AuthConfig{
		JWTSecret:      "test-secret-key-for-unit-testing",
		AccessTokenTTL: time.Hour,
	})
}

func parseResponse(w *httptest.ResponseRecorder) response.Response {
	var resp response.Response
	json.Unmarshal(w.Body.Bytes(), &resp)
	return resp
}

// echoContext 返回中间件注入的上下文值
func echoContext(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"user_id":   c.GetString("user_id"),
		"role":      c.GetString("role"),
		"token_jti": c.GetString("token_jti"),
		"has_exp":   !c.GetTime("token_exp").IsZero(),
	})
}

func doRequest(r *gin.Engine, method, path string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// ═══════════════════════════════════════════════════════════
// JWTAuth
// ═══════════════════════════════════════════════════════════

func TestJWTAuth_Rejections(t *testing.T) {
	mgr := newJWTManager()
	other := jwt.NewManager(&config.AuthConfig{JWTSecret: "another-secret-key-0123456", AccessTokenTTL: time.Hour})
	forged, _ := other.GenerateAccessToken("u1", "student")

	tests := []struct {
		name   string
		header string
	}{
		{"缺少认证头", ""},
		{"非 Bearer", "Basic abc"},
		{"空 Token", "Bearer "},
		{"无效 Token", "Bearer not-a-token"},
		{"签名不匹配", "Bearer " + forged},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/p", JWTAuth(mgr, nil), echoContext)

			header := map[string]string{}
			if tt.header != "" {
				header["Authorization"] = tt.header
			}
			w := doRequest(r, "GET", "/p", header)

			if w.Code != http.StatusUnauthorized {
				t.Errorf("期望 401，实际 %d", w.Code)
			}
			if resp := parseResponse(w); resp.Code != 10002 {
				t.Errorf("期望 code 10002，实际 %d", resp.Code)
			}
		})
	}
}

func TestJWTAuth_InjectsClaims(t *testing.T) {
	mgr := newJWTManager()
	token, err := mgr.GenerateAccessToken("user-1", "student")
	if err != nil {
		t.Fatalf("生成 Token 失败: %v", err)
	}

	r := gin.New()
	r.GET("/p", JWTAuth(mgr, &mockBlacklist{}), echoContext)
	w := doRequest(r, "GET", "/p", map[string]string{"Authorization": "Bearer " + token})

	if w.Code != http.StatusOK {
		t.Fatalf("期望 200，实际 %d", w.Code)
	}
	var body map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &body)
	if body["user_id"] != "user-1" || body["role"] != "student" {
		t.Errorf("上下文注入错误: %v", body)
	}
	if body["token_jti"] == "" {
		t.Error("期望注入 token_jti")
	}
	if body["has_exp"] != true {
		t.Error("期望注入 token_exp")
	}
}

func TestJWTAuth_Blacklisted(t *testing.T) {
	mgr := newJWTManager()
	token, _ := mgr.GenerateAccessToken("user-1", "student")
	claims, _ := mgr.ParseToken(token)

	r := gin.New()
	r.GET("/p", JWTAuth(mgr, &mockBlacklist{revoked: map[string]bool{claims.ID: true}}), echoContext)
	w := doRequest(r, "GET", "/p", map[string]string{"Authorization": "Bearer " + token})

	if w.Code != http.StatusUnauthorized {
		t.Errorf("已注销 Token 期望 401，实际 %d", w.Code)
	}
}

func TestJWTAuth_BlacklistErrorFailsOpen(t *testing.T) {
	mgr := newJWTManager()
	token, _ := mgr.GenerateAccessToken("user-1", "student")

	r := gin.New()
	r.GET("/p", JWTAuth(mgr, &mockBlacklist{err: errors.New("redis down")}), echoContext)
	w := doRequest(r, "GET", "/p", map[string]string{"Authorization": "Bearer " + token})

	if w.Code != http.StatusOK {
		t.Errorf("Redis 故障时期望放行，实际 %d", w.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// RequireCapability
// ═══════════════════════════════════════════════════════════

func TestRequireCapability(t *testing.T) {
	tests := []struct {
		name       string
		role       string
		capability model.Capability
		want       int
	}{
		{"学生报名", "student", model.CapEnroll, http.StatusOK},
		{"学生学习", "student", model.CapLearn, http.StatusOK},
		{"学生管理课程", "student", model.CapManageCourses, http.StatusForbidden},
		{"管理员管理课程", "admin", model.CapManageCourses, http.StatusOK},
		{"管理员不能学习", "admin", model.CapLearn, http.StatusForbidden},
		{"未知角色", "teacher", model.CapEnroll, http.StatusForbidden},
		{"未认证", "", model.CapEnroll, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/p", func(c *gin.Context) {
				if tt.role != "" {
					c.Set("role", tt.role)
				}
			}, RequireCapability(tt.capability), func(c *gin.Context) {
				c.Status(http.StatusOK)
			})

			w := doRequest(r, "GET", "/p", nil)
			if w.Code != tt.want {
				t.Errorf("期望 %d，实际 %d", tt.want, w.Code)
			}
		})
	}
}

// ═══════════════════════════════════════════════════════════
// RateLimit
// ═══════════════════════════════════════════════════════════

func TestRateLimit(t *testing.T) {
	limiter := &mockLimiter{}
	r := gin.New()
	r.POST("/p", RateLimit(limiter, 2, time.Minute), func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 1; i <= 3; i++ {
		w := doRequest(r, "POST", "/p", nil)
		want := http.StatusOK
		if i == 3 {
			want = http.StatusTooManyRequests
		}
		if w.Code != want {
			t.Errorf("第 %d 次请求期望 %d，实际 %d", i, want, w.Code)
		}
	}
	if limiter.limit != 2 {
		t.Errorf("期望 limit=2，实际 %d", limiter.limit)
	}
}

func TestRateLimit_Degrades(t *testing.T) {
	for name, limiter := range map[string]RateLimiter{
		"nil":   nil,
		"error": &mockLimiter{err: errors.New("redis down")},
	} {
		t.Run(name, func(t *testing.T) {
			r := gin.New()
			r.POST("/p", RateLimit(limiter, 1, time.Minute), func(c *gin.Context) { c.Status(http.StatusOK) })
			for i := 0; i < 3; i++ {
				if w := doRequest(r, "POST", "/p", nil); w.Code != http.StatusOK {
					t.Fatalf("期望放行，实际 %d", w.Code)
				}
			}
		})
	}
}

// ═══════════════════════════════════════════════════════════
// BodyLimit / RequestID / CORS / SecurityHeaders
// ═══════════════════════════════════════════════════════════

func TestBodyLimit_TooLarge(t *testing.T) {
	r := gin.New()
	r.POST("/p", BodyLimit(16), func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest("POST", "/p", strings.NewReader(strings.Repeat("x", 32)))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("期望 413，实际 %d", w.Code)
	}
	if resp := parseResponse(w); resp.Code != 10005 {
		t.Errorf("期望 code 10005，实际 %d", resp.Code)
	}
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/p", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(requestIDKey)) })

	w := doRequest(r, "GET", "/p", map[string]string{"X-Request-ID": "abc-123"})
	if got := w.Header().Get("X-Request-ID"); got != "abc-123" {
		t.Errorf("期望沿用请求头中的 ID，实际 %q", got)
	}

	w = doRequest(r, "GET", "/p", map[string]string{"X-Request-ID": strings.Repeat("a", 100)})
	if got := w.Header().Get("X-Request-ID"); len(got) != 36 {
		t.Errorf("超长 ID 应被替换为 UUID，实际 %q", got)
	}
	if w.Body.String() != w.Header().Get("X-Request-ID") {
		t.Error("上下文与响应头中的 ID 应一致")
	}

	w = doRequest(r, "GET", "/p", map[string]string{"X-Request-ID": "abc 123;drop"})
	if got := w.Header().Get("X-Request-ID"); got == "abc 123;drop" || len(got) != 36 {
		t.Errorf("含非法字符的 ID 应被替换为 UUID，实际 %q", got)
	}
}

func TestCORS(t *testing.T) {
	r := gin.New()
	r.Use(CORS([]string{"http://localhost:3000/"}))
	r.GET("/p", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := doRequest(r, "GET", "/p", map[string]string{"Origin": "http://localhost:3000"})
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("期望允许来源，实际 %q", got)
	}
	if got := w.Header().Get("Access-Control-Expose-Headers"); !strings.Contains(got, "Content-Disposition") {
		t.Errorf("期望暴露 Content-Disposition，实际 %q", got)
	}

	w = doRequest(r, "GET", "/p", map[string]string{"Origin": "http://evil.example.com"})
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("未授权来源不应返回 CORS 头，实际 %q", got)
	}

	w = doRequest(r, "OPTIONS", "/p", map[string]string{"Origin": "http://localhost:3000"})
	if w.Code != http.StatusNoContent {
		t.Errorf("预检请求期望 204，实际 %d", w.Code)
	}
}

func TestSecurityHeaders(t *testing.T) {
	r := gin.New()
	r.Use(SecurityHeaders())
	r.GET("/p", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := doRequest(r, "GET", "/p", nil)
	if w.Header().Get("X-Frame-Options") != "DENY" {
		t.Error("期望 X-Frame-Options=DENY")
	}
	if w.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("期望 X-Content-Type-Options=nosniff")
	}
	if w.Header().Get("Cache-Control") != "no-store" {
		t.Error("期望 Cache-Control=no-store")
	}
	if w.Header().Get("Strict-Transport-Security") != "" {
		t.Error("明文请求不应返回 HSTS")
	}

	w = doRequest(r, "GET", "/p", map[string]string{"X-Forwarded-Proto": "https"})
	if w.Header().Get("Strict-Transport-Security") == "" {
		t.Error("HTTPS 代理转发的请求期望返回 HSTS")
	}
}
