// Package middleware 提供 serve 模式使用的 Gin 中间件.
package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yeisme/s3presign/pkg/context"
)

// RequestIDHeader 请求 ID 的请求/响应头.
const RequestIDHeader = "X-Request-ID"

// RequestIDMiddleware 沿用客户端传入的 X-Request-ID，否则生成 UUID，并写回响应头.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}

		c.Header(RequestIDHeader, id)
		c.Request = c.Request.WithContext(context.WithRequestID(c.Request.Context(), id))

		c.Next()
	}
}
