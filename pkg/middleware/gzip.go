package middleware

import (
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
)

// GzipMiddleware 压缩响应体，/metrics 由 promhttp 自行处理压缩.
func GzipMiddleware(metricsPath string) gin.HandlerFunc {
	return gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{metricsPath}))
}
