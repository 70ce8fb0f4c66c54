// Package awss3 基于 aws-sdk-go-v2 实现对象存储能力.
package awss3

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/yeisme/s3presign/pkg/configs"
	"github.com/yeisme/s3presign/pkg/internal/types"
)

// Client 包装 S3 客户端与预签名客户端.
type Client struct {
	client  *s3.Client
	presign *s3.PresignClient

	now func() time.Time
}

// New 加载 AWS 配置并创建客户端. 配置了静态密钥时优先使用，否则走默认凭证链.
func New(ctx context.Context, cfg configs.S3Config) (*Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithAppID(configs.AppName),
	}

	if cfg.HasStaticCredentials() {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		// 自定义端点用于 MinIO 等兼容服务
		if endpoint := cfg.GetEndpointURL(); endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}

		o.UsePathStyle = cfg.UsePathStyle
	})

	return &Client{
		client:  client,
		presign: s3.NewPresignClient(client),
		now:     time.Now,
	}, nil
}

// HeadObject 读取对象元数据.
func (c *Client) HeadObject(ctx context.Context, bucket, key string) (*types.ObjectInfo, error) {
	out, err := c.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if IsNotFound(err) {
			return nil, fmt.Errorf("head %s/%s: %w", bucket, key, types.ErrObjectNotFound)
		}

		return nil, fmt.Errorf("head %s/%s: %w", bucket, key, err)
	}

	meta := make(map[string]string, len(out.Metadata))
	for k, v := range out.Metadata {
		meta[k] = v
	}

	return &types.ObjectInfo{
		Key:          key,
		Size:         aws.ToInt64(out.ContentLength),
		ETag:         strings.Trim(aws.ToString(out.ETag), `"`),
		ContentType:  aws.ToString(out.ContentType),
		LastModified: aws.ToTime(out.LastModified),
		VersionID:    aws.ToString(out.VersionId),
		Metadata:     meta,
	}, nil
}

// PresignPostForm 生成预签名 POST 表单，SDK 返回的字段名统一转为小写.
func (c *Client) PresignPostForm(ctx context.Context, bucket, key string, expires time.Duration) (*types.Descriptor, error) {
	expiresAt := c.now().UTC().Add(expires)

	req, err := c.presign.PresignPostObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}, func(o *s3.PresignPostOptions) {
		o.Expires = expires
	})
	if err != nil {
		return nil, fmt.Errorf("presign post object: %w", err)
	}

	fields := make(map[string]string, len(req.Values)+1)
	for k, v := range req.Values {
		fields[k] = v
	}

	if _, ok := fields[types.FieldKey]; !ok {
		fields[types.FieldKey] = key
	}

	return types.NewDescriptor(req.URL, fields, expiresAt), nil
}

// Ping 通过 HeadBucket 检查 bucket 是否可访问.
func (c *Client) Ping(ctx context.Context, bucket string) error {
	if _, err := c.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(bucket)}); err != nil {
		return fmt.Errorf("head bucket %s: %w", bucket, err)
	}

	return nil
}

// IsNotFound 判断 SDK 错误是否表示对象不存在. NoSuchBucket 不算.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}

	var notFound *s3types.NotFound
	if errors.As(err, &notFound) {
		return true
	}

	var noSuchKey *s3types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return true
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey":
			return true
		}
	}

	return false
}
