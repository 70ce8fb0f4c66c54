// Package storage 定义上传授权所需的对象存储能力，并按配置构造具体实现.
//
// Example:
//
//	ctx := context.Background()
//	cfg := configs.GetConfig()
//	store, err := storage.New(ctx, cfg.S3, cfg.CircuitBreaker)
//
//	if err != nil {
//	    // 处理错误
//	}
//
//	info, err := store.HeadObject(ctx, "s3presign", "1677634244.gz")
//	if errors.Is(err, types.ErrObjectNotFound) {
//	    // 可以签发上传授权
//	}
package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/yeisme/s3presign/pkg/configs"
	"github.com/yeisme/s3presign/pkg/internal/storage/awss3"
	s3c "github.com/yeisme/s3presign/pkg/internal/storage/s3"
	"github.com/yeisme/s3presign/pkg/internal/types"
	nlog "github.com/yeisme/s3presign/pkg/log"
)

// Store 对象存储的最小能力集合.
type Store interface {
	// HeadObject 只读取元数据，对象不存在时返回 types.ErrObjectNotFound（可用 errors.Is 判断）.
	HeadObject(ctx context.Context, bucket, key string) (*types.ObjectInfo, error)
	// PresignPostForm 生成基于 POST 表单的限时上传授权.
	PresignPostForm(ctx context.Context, bucket, key string, expires time.Duration) (*types.Descriptor, error)
	// Ping 检查桶是否可访问.
	Ping(ctx context.Context, bucket string) error
}

// New 按 s3.provider 构造存储客户端并记录调用指标，启用熔断时在外层包装 gobreaker.
func New(ctx context.Context, cfg configs.S3Config, cb configs.CircuitBreakerConfig) (Store, error) {
	var (
		store Store
		err   error
	)

	switch cfg.Provider {
	case configs.ProviderMinio, "":
		store, err = s3c.New(cfg)
	case configs.ProviderAWS:
		store, err = awss3.New(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported s3 provider: %s", cfg.Provider)
	}

	if err != nil {
		return nil, err
	}

	nlog.Logger().Debug().
		Str("provider", cfg.Provider).
		Str("endpoint", cfg.GetEndpointURL()).
		Str("region", cfg.Region).
		Bool("circuit_breaker", cb.Enabled).
		Msg("object storage client initialized")

	store = Instrument(store)

	if cb.Enabled {
		store = NewBreaker(store, cb)
	}

	return store, nil
}
