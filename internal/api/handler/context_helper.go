package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Nisha0202/lms-backend/pkg/response"
)

// 与 middleware.JWTAuth 写入的上下文键保持一致
const (
	ctxUserID   = "user_id"
	ctxRole     = "role"
	ctxTokenJTI = "token_jti"
	ctxTokenExp = "token_exp"
)

// MustGetUserID 从 Gin 上下文中安全提取 user_id。
// 如果 JWT 中间件未正确注入 user_id，返回 false 并写入 401 响应。
// 调用方应在 ok=false 时直接 return。
func MustGetUserID(c *gin.Context) (string, bool) {
	s := c.GetString(ctxUserID)
	if s == "" {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	return s, true
}

// GetTokenMeta 当前 Token 的 jti 与过期时间，未注入时返回零值
func GetTokenMeta(c *gin.Context) (string, time.Time) {
	return c.GetString(ctxTokenJTI), c.GetTime(ctxTokenExp)
}

// bindParam 读取 UUID 路径参数，为空或格式非法时写入 400
func bindParam(c *gin.Context, name, label string) (string, bool) {
	v := c.Param(name)
	if v == "" {
		response.BadRequest(c, codeInvalidParams, label+"不能为空")
		return "", false
	}
	if _, err := uuid.Parse(v); err != nil {
		response.BadRequest(c, codeInvalidParams, label+"格式无效")
		return "", false
	}
	return v, true
}
