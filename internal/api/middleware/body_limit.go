package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Nisha0202/lms-backend/pkg/response"
)

// DefaultBodyLimit 默认请求体上限 1 MiB
const DefaultBodyLimit int64 = 1 << 20

// BodyLimit 全局请求体大小限制中间件
// 声明的 Content-Length 超限时直接返回 413；未声明长度时由 MaxBytesReader 截断，
// 读取超限会使参数绑定失败
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			response.Error(c, http.StatusRequestEntityTooLarge, 10005, "请求体过大")
			c.Abort()
			return
		}

		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}

		c.Next()
	}
}
