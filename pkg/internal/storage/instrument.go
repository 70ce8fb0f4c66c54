package storage

import (
	"context"
	"errors"
	"time"

	"github.com/yeisme/s3presign/pkg/internal/types"
	"github.com/yeisme/s3presign/pkg/metrics"
)

// 存储调用结果标签.
const (
	resultOK       = "ok"
	resultNotFound = "not_found"
	resultError    = "error"
)

// Instrumented 记录每次存储调用的耗时指标.
type Instrumented struct {
	next Store
}

// Instrument 使用 Prometheus 指标包装 next.
func Instrument(next Store) *Instrumented {
	return &Instrumented{next: next}
}

func (s *Instrumented) HeadObject(ctx context.Context, bucket, key string) (*types.ObjectInfo, error) {
	start := time.Now()
	info, err := s.next.HeadObject(ctx, bucket, key)
	metrics.ObserveStoreCall("head_object", resultLabel(err), start)

	return info, err
}

func (s *Instrumented) PresignPostForm(ctx context.Context, bucket, key string, expires time.Duration) (*types.Descriptor, error) {
	start := time.Now()
	desc, err := s.next.PresignPostForm(ctx, bucket, key, expires)
	metrics.ObserveStoreCall("presign_post", resultLabel(err), start)

	return desc, err
}

func (s *Instrumented) Ping(ctx context.Context, bucket string) error {
	start := time.Now()
	err := s.next.Ping(ctx, bucket)
	metrics.ObserveStoreCall("ping", resultLabel(err), start)

	return err
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return resultOK
	case errors.Is(err, types.ErrObjectNotFound):
		return resultNotFound
	default:
		return resultError
	}
}
