package handle

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/s3presign/pkg/configs"
	ctxPkg "github.com/yeisme/s3presign/pkg/context"
)

const timeout = 2 * time.Second

// HealthS3 对象存储健康检查，检查默认 bucket（可用 ?bucket= 覆盖）是否可访问.
//
//	@Summary	对象存储健康检查
//	@Tags		健康检查
//	@Produce	json
//	@Param		bucket	query		string	false	"bucket 名称"
//	@Success	200		{object}	map[string]any
//	@Failure	503		{object}	map[string]any
//	@Router		/api/v1/health/s3 [get]
func HealthS3(c *gin.Context) {
	store := ctxPkg.GetStore(c.Request.Context())
	if store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"component": "s3", "status": "unhealthy", "error": "s3 client not initialized"})
		return
	}

	bucket := c.DefaultQuery("bucket", configs.GetConfig().Presign.Bucket)

	ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
	defer cancel()

	if err := store.Ping(ctx, bucket); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"component": "s3", "bucket": bucket, "status": "unhealthy", "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"component": "s3", "bucket": bucket, "status": "ok"})
}
