// Package s3 基于 minio-go 实现对象存储能力，兼容 MinIO、AWS S3 及其它 S3 协议服务.
package s3

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	minio "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/yeisme/s3presign/pkg/configs"
	"github.com/yeisme/s3presign/pkg/internal/types"
)

// defaultEndpoint 未配置端点时使用 AWS S3.
const defaultEndpoint = "s3.amazonaws.com"

// Client 包装 MinIO 客户端.
type Client struct {
	*minio.Client

	now func() time.Time
}

// New 初始化 MinIO 客户端. 不会发起网络请求，也不会创建或修改 bucket.
func New(cfg configs.S3Config) (*Client, error) {
	endpoint := cfg.Endpoint
	secure := cfg.UseSSL
	// 允许用户传完整 schema endpoint（http:// 或 https://）
	if u, err := url.Parse(endpoint); err == nil && u.Host != "" {
		endpoint = u.Host
		secure = u.Scheme == "https"
	}

	if endpoint == "" {
		endpoint = defaultEndpoint
		secure = true
	}

	lookup := minio.BucketLookupAuto
	if cfg.UsePathStyle {
		lookup = minio.BucketLookupPath
	}

	cli, err := minio.New(endpoint, &minio.Options{
		Creds:        newCredentials(cfg),
		Secure:       secure,
		Region:       cfg.Region,
		BucketLookup: lookup,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	cli.SetAppInfo(configs.AppName, configs.AppVersion)

	return &Client{Client: cli, now: time.Now}, nil
}

// newCredentials 优先使用静态密钥，否则依次尝试环境变量与本地凭证文件.
func newCredentials(cfg configs.S3Config) *credentials.Credentials {
	if cfg.HasStaticCredentials() {
		return credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken)
	}

	return credentials.NewChainCredentials([]credentials.Provider{
		&credentials.EnvAWS{},
		&credentials.EnvMinio{},
		&credentials.FileAWSCredentials{},
		&credentials.FileMinioClient{},
		&credentials.IAM{Client: &http.Client{Transport: http.DefaultTransport}},
	})
}

// HeadObject 通过 StatObject 读取对象元数据.
func (c *Client) HeadObject(ctx context.Context, bucket, key string) (*types.ObjectInfo, error) {
	info, err := c.StatObject(ctx, bucket, key, minio.StatObjectOptions{})
	if err != nil {
		if IsNotFound(err) {
			return nil, fmt.Errorf("stat %s/%s: %w", bucket, key, types.ErrObjectNotFound)
		}

		return nil, fmt.Errorf("stat %s/%s: %w", bucket, key, err)
	}

	meta := make(map[string]string, len(info.UserMetadata))
	for k, v := range info.UserMetadata {
		meta[k] = v
	}

	return &types.ObjectInfo{
		Key:          info.Key,
		Size:         info.Size,
		ETag:         strings.Trim(info.ETag, `"`),
		ContentType:  info.ContentType,
		LastModified: info.LastModified,
		VersionID:    info.VersionID,
		Metadata:     meta,
	}, nil
}

// PresignPostForm 生成预签名 POST 策略，表单字段包含 key、policy 以及 x-amz-* 签名字段.
func (c *Client) PresignPostForm(ctx context.Context, bucket, key string, expires time.Duration) (*types.Descriptor, error) {
	expiresAt := c.now().UTC().Add(expires)

	policy := minio.NewPostPolicy()
	if err := policy.SetBucket(bucket); err != nil {
		return nil, fmt.Errorf("post policy bucket: %w", err)
	}

	if err := policy.SetKey(key); err != nil {
		return nil, fmt.Errorf("post policy key: %w", err)
	}

	if err := policy.SetExpires(expiresAt); err != nil {
		return nil, fmt.Errorf("post policy expires: %w", err)
	}

	u, formData, err := c.PresignedPostPolicy(ctx, policy)
	if err != nil {
		return nil, fmt.Errorf("presign post policy: %w", err)
	}

	return types.NewDescriptor(u.String(), formData, expiresAt), nil
}

// Ping 检查 bucket 是否存在且可访问.
func (c *Client) Ping(ctx context.Context, bucket string) error {
	ok, err := c.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", bucket, err)
	}

	if !ok {
		return fmt.Errorf("bucket %s does not exist", bucket)
	}

	return nil
}

// IsNotFound 判断 minio 错误是否表示对象不存在. NoSuchBucket 不算.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}

	resp := minio.ToErrorResponse(err)

	switch resp.Code {
	case "NoSuchKey", "NotFound":
		return true
	case "":
		return resp.StatusCode == http.StatusNotFound
	default:
		return false
	}
}
