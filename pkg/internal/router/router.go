// Package router 管理路由配置，只负责将路径和 pkg/internal/handle 中的处理器绑定到 gin 引擎.
package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/s3presign/pkg/internal/handle"
)

// RegisterUploadRoutes 注册上传授权路由（假定上层为 /api/v1）：
//
//	POST /uploads/presign -> Presign
func RegisterUploadRoutes(g *gin.RouterGroup) {
	uploads := g.Group("/uploads")
	{
		uploads.POST("/presign", handle.Presign)
	}
}
