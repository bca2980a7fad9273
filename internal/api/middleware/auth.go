package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Nisha0202/lms-backend/internal/model"
	"github.com/Nisha0202/lms-backend/pkg/jwt"
	"github.com/Nisha0202/lms-backend/pkg/response"
)

// BlacklistChecker Token 黑名单查询，由 Redis 客户端实现
type BlacklistChecker interface {
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
}

// JWTAuth JWT 认证中间件
// 从 Authorization: Bearer <token> 中提取并验证 Access Token
// blacklist 为 nil 时跳过黑名单检查；Redis 出错时降级放行
func JWTAuth(jwtMgr *jwt.Manager, blacklist BlacklistChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, 10002, "缺少认证头")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			response.Unauthorized(c, 10002, "认证头格式无效")
			c.Abort()
			return
		}

		claims, err := jwtMgr.ParseToken(parts[1])
		if err != nil {
			response.Unauthorized(c, 10002, "Token 无效或已过期")
			c.Abort()
			return
		}

		if !claims.IsAccess() {
			response.Unauthorized(c, 10002, "Token 类型无效")
			c.Abort()
			return
		}

		if blacklist != nil && claims.ID != "" {
			revoked, err := blacklist.IsBlacklisted(c.Request.Context(), claims.ID)
			if err == nil && revoked {
				response.Unauthorized(c, 10002, "Token 已注销")
				c.Abort()
				return
			}
		}

		// 将用户信息注入上下文
		c.Set("user_id", claims.UserID)
		c.Set("role", claims.Role)
		c.Set("token_jti", claims.ID)
		if claims.ExpiresAt != nil {
			c.Set("token_exp", claims.ExpiresAt.Time)
		}

		c.Next()
	}
}

// RequireCapability 能力授权中间件
// 角色与能力的对应关系统一由 model.Role.Can 判断
func RequireCapability(capability model.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetString("role")
		if raw == "" {
			response.Unauthorized(c, 10002, "未认证")
			c.Abort()
			return
		}

		role, ok := model.ParseRole(raw)
		if !ok || !role.Can(capability) {
			response.Forbidden(c, 10003, "无权限访问")
			c.Abort()
			return
		}

		c.Next()
	}
}
