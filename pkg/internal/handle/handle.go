// Package handle 提供请求处理器的实现，用于处理HTTP请求.
package handle

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// NotFound 未匹配路由.
func NotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "route not found", "path": c.Request.URL.Path})
}

// errorResponse 统一的错误响应体.
func errorResponse(err error) gin.H {
	return gin.H{"state": "failed", "error": err.Error()}
}
