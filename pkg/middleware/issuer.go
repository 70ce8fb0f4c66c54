package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/s3presign/pkg/context"
	"github.com/yeisme/s3presign/pkg/internal/service"
	"github.com/yeisme/s3presign/pkg/internal/storage"
)

// IssuerMiddleware 把当前的 Issuer 和存储客户端放进请求 context. issuer 每次请求取值，配置热重载后立即生效.
func IssuerMiddleware(issuer func() *service.Issuer, store storage.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := context.WithIssuer(c.Request.Context(), issuer())
		ctx = context.WithStore(ctx, store)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
