package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"

	"github.com/yeisme/s3presign/pkg/configs"
	"github.com/yeisme/s3presign/pkg/internal/types"
	nlog "github.com/yeisme/s3presign/pkg/log"
)

// Breaker 基于 gobreaker 的熔断装饰器. 熔断打开时直接返回 types.ErrCircuitOpen.
type Breaker struct {
	next Store
	cb   *gobreaker.CircuitBreaker
}

// NewBreaker 使用失败比例策略包装 next. 对象不存在和调用方取消不计为失败.
func NewBreaker(next Store, cfg configs.CircuitBreakerConfig) *Breaker {
	settings := gobreaker.Settings{
		Name:        "object-storage",
		MaxRequests: cfg.MaxRequestsInHalf,
		Interval:    cfg.Interval(),
		Timeout:     cfg.Timeout(),
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			total := counts.Requests
			if total < cfg.MinRequests {
				return false
			}
			// 失败比例
			failureRate := float64(counts.TotalFailures) / float64(total)

			return failureRate >= cfg.FailureRate
		},
		IsSuccessful: func(err error) bool {
			return err == nil ||
				errors.Is(err, types.ErrObjectNotFound) ||
				errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			nlog.Logger().Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state changed")
		},
	}

	return &Breaker{next: next, cb: gobreaker.NewCircuitBreaker(settings)}
}

// State 当前熔断状态.
func (b *Breaker) State() gobreaker.State {
	return b.cb.State()
}

func (b *Breaker) HeadObject(ctx context.Context, bucket, key string) (*types.ObjectInfo, error) {
	v, err := b.execute(func() (any, error) {
		return b.next.HeadObject(ctx, bucket, key)
	})
	if err != nil {
		return nil, err
	}

	return v.(*types.ObjectInfo), nil
}

func (b *Breaker) PresignPostForm(ctx context.Context, bucket, key string, expires time.Duration) (*types.Descriptor, error) {
	v, err := b.execute(func() (any, error) {
		return b.next.PresignPostForm(ctx, bucket, key, expires)
	})
	if err != nil {
		return nil, err
	}

	return v.(*types.Descriptor), nil
}

func (b *Breaker) Ping(ctx context.Context, bucket string) error {
	_, err := b.execute(func() (any, error) {
		return nil, b.next.Ping(ctx, bucket)
	})

	return err
}

func (b *Breaker) execute(fn func() (any, error)) (any, error) {
	v, err := b.cb.Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %w", types.ErrCircuitOpen, err)
	}

	return v, err
}
