package service

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/yeisme/s3presign/pkg/internal/types"
	nlog "github.com/yeisme/s3presign/pkg/log"
)

// withRetry 按重试配置执行 op，未启用重试时只执行一次. 熔断打开不重试.
func (s *Issuer) withRetry(ctx context.Context, name string, target types.Target, op func() error) error {
	if !s.retry.Enabled() {
		return op()
	}

	b := backoff.NewExponentialBackOff()
	if s.retry.InitialInterval > 0 {
		b.InitialInterval = s.retry.InitialInterval
	}

	if s.retry.MaxInterval > 0 {
		b.MaxInterval = s.retry.MaxInterval
	}

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		err := op()
		if errors.Is(err, types.ErrCircuitOpen) {
			return struct{}{}, backoff.Permanent(err)
		}

		return struct{}{}, err
	},
		backoff.WithBackOff(b),
		backoff.WithMaxTries(s.retry.MaxAttempts),
		backoff.WithNotify(func(err error, next time.Duration) {
			nlog.Logger().Debug().
				Err(err).
				Str("op", name).
				Str("bucket", target.Bucket).
				Str("key", target.Key).
				Dur("retry_in", next).
				Msg("transient storage error, retrying")
		}),
	)

	return err
}

// probeWithRetry 仅对 OutcomeProbeError 重试，Exists/NotFound 立即返回.
func (s *Issuer) probeWithRetry(ctx context.Context, target types.Target) types.ProbeResult {
	var res types.ProbeResult

	err := s.withRetry(ctx, "probe", target, func() error {
		res = s.Probe(ctx, target)
		if res.Outcome == types.OutcomeProbeError {
			return res.Err
		}

		return nil
	})
	if err != nil {
		return types.ProbeResult{Outcome: types.OutcomeProbeError, Err: err}
	}

	return res
}
