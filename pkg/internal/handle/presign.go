package handle

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/s3presign/pkg/configs"
	ctxPkg "github.com/yeisme/s3presign/pkg/context"
	"github.com/yeisme/s3presign/pkg/curl"
	"github.com/yeisme/s3presign/pkg/internal/types"
	"github.com/yeisme/s3presign/pkg/log"
	"github.com/yeisme/s3presign/pkg/rule"
)

// PresignBody 签发请求体. bucket 为空或 expires_in 缺省时取配置，显式给出的 expires_in 原样校验.
type PresignBody struct {
	Bucket    string `json:"bucket"`
	Key       string `json:"key"`
	ExpiresIn *int   `json:"expires_in"`
}

// Presign 处理上传授权请求.
//
//	200 已签发；409 对象已存在；503 存在性检查失败（deny 策略）；
//	400 参数错误；502 签发失败或检查失败（fail 策略）.
//
//	@Summary		签发上传授权
//	@Description	对象不存在时签发一次 presigned POST 表单，已存在则拒绝
//	@Tags			上传
//	@Accept			json
//	@Produce		json
//	@Param			body	body		PresignBody			true	"签发参数"
//	@Success		200		{object}	map[string]any
//	@Failure		400		{object}	map[string]any
//	@Failure		409		{object}	map[string]any
//	@Failure		502		{object}	map[string]any
//	@Failure		503		{object}	map[string]any
//	@Router			/api/v1/uploads/presign [post]
func Presign(c *gin.Context) {
	ctx := c.Request.Context()
	logger := ctxPkg.WithTraceContext(ctx, *log.Logger())

	var body PresignBody
	if err := c.ShouldBindJSON(&body); err != nil {
		logger.Warn().Err(err).Msg("invalid request body")
		c.JSON(http.StatusBadRequest, errorResponse(err))

		return
	}

	defaults := configs.GetConfig().Presign
	if body.Bucket == "" {
		body.Bucket = defaults.Bucket
	}

	expiresIn := defaults.ExpiresIn
	if body.ExpiresIn != nil {
		expiresIn = *body.ExpiresIn
	}

	issuer := ctxPkg.GetIssuer(ctx)
	if issuer == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"state": "failed", "error": "issuer not initialized"})
		return
	}

	target := types.Target{Bucket: body.Bucket, Key: body.Key}

	res, err := issuer.RequestUploadAuthorization(ctx, target, expiresIn)
	if err != nil {
		if errors.Is(err, types.ErrInvalidRequest) {
			resp := errorResponse(err)
			if details := rule.Errors(err); details != nil {
				resp["details"] = details
			}

			c.JSON(http.StatusBadRequest, resp)

			return
		}

		_ = c.Error(err)
		c.JSON(http.StatusBadGateway, errorResponse(err))

		return
	}

	if res.Issued() {
		desc := res.Descriptor
		c.JSON(http.StatusOK, gin.H{
			"state":      res.State,
			"bucket":     target.Bucket,
			"key":        target.Key,
			"url":        desc.URL,
			"fields":     desc.Fields,
			"expires_at": desc.ExpiresAt,
			"curl":       curl.Command(desc),
		})

		return
	}

	resp := gin.H{
		"state":  res.State,
		"bucket": target.Bucket,
		"key":    target.Key,
		"reason": res.Denial.Reason,
	}

	switch res.Denial.Reason {
	case types.DenialConflict:
		resp["object"] = res.Denial.Object
		c.JSON(http.StatusConflict, resp)
	default:
		if res.Denial.Cause != nil {
			resp["error"] = res.Denial.Cause.Error()
		}

		c.JSON(http.StatusServiceUnavailable, resp)
	}
}
