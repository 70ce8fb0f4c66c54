// Package api 定义 serve 模式对外暴露的 HTTP 接口分组.
package api

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/s3presign/pkg/internal/router"
)

// Prefix API 路由前缀.
const Prefix = "/api/v1"

// RegisterGroup 注册上传授权与健康检查路由到传入的 gin 引擎.
func RegisterGroup(e *gin.Engine) *gin.Engine {
	g := e.Group(Prefix)

	router.RegisterUploadRoutes(g)
	router.RegisterHealthCheckRoute(g)

	return e
}
