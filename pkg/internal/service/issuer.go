// Package service 实现上传授权的核心流程：先确认目标键不存在，再签发预签名 POST 表单.
//
// Example:
//
//	store, _ := storage.New(ctx, cfg.S3, cfg.CircuitBreaker)
//	issuer := service.NewIssuer(store, service.WithProbeErrorPolicy(configs.ProbeErrorDeny))
//
//	res, err := issuer.RequestUploadAuthorization(ctx, types.Target{Bucket: "s3presign", Key: "1677634244.gz"}, 3600)
//	if err != nil {
//	    // 参数错误或签发失败
//	}
//
//	if res.Issued() {
//	    fmt.Println(curl.Command(res.Descriptor))
//	}
package service

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"github.com/yeisme/s3presign/pkg/configs"
	"github.com/yeisme/s3presign/pkg/internal/storage"
	"github.com/yeisme/s3presign/pkg/internal/types"
	nlog "github.com/yeisme/s3presign/pkg/log"
	"github.com/yeisme/s3presign/pkg/metrics"
	"github.com/yeisme/s3presign/pkg/rule"
	"github.com/yeisme/s3presign/pkg/tracing"
)

// Issuer 上传授权签发器. 不持有可变状态，可并发使用.
type Issuer struct {
	store  storage.Store
	policy string
	retry  configs.RetryConfig
}

// Option Issuer 可选配置.
type Option func(*Issuer)

// WithProbeErrorPolicy 设置探测失败时的处理策略（deny 或 fail）.
func WithProbeErrorPolicy(policy string) Option {
	return func(s *Issuer) {
		if policy != "" {
			s.policy = policy
		}
	}
}

// WithRetry 设置探测与签发失败时的重试参数.
func WithRetry(cfg configs.RetryConfig) Option {
	return func(s *Issuer) {
		s.retry = cfg
	}
}

// NewIssuer 使用注入的存储客户端创建签发器.
func NewIssuer(store storage.Store, opts ...Option) *Issuer {
	s := &Issuer{
		store:  store,
		policy: configs.DefaultPresignProbeErrorPolicy,
		retry:  configs.RetryConfig{MaxAttempts: configs.DefaultRetryMaxAttempts},
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Probe 单次检查目标键是否已有对象. 错误被归类到 OutcomeProbeError，不会以 error 返回.
func (s *Issuer) Probe(ctx context.Context, target types.Target) types.ProbeResult {
	info, err := s.store.HeadObject(ctx, target.Bucket, target.Key)

	switch {
	case err == nil:
		if info == nil {
			info = &types.ObjectInfo{Key: target.Key}
		}

		return types.ProbeResult{Outcome: types.OutcomeExists, Info: info}
	case errors.Is(err, types.ErrObjectNotFound):
		return types.ProbeResult{Outcome: types.OutcomeNotFound}
	default:
		return types.ProbeResult{Outcome: types.OutcomeProbeError, Err: err}
	}
}

// RequestUploadAuthorization 为 target 签发有效期 expiresInSeconds 秒的上传授权.
//
// 目标已存在或（deny 策略下）探测失败时返回 Denied 结果且 error 为 nil；
// 参数非法返回 types.ErrInvalidRequest；签发失败返回 *types.IssuanceError.
func (s *Issuer) RequestUploadAuthorization(ctx context.Context, target types.Target, expiresInSeconds int) (*types.Result, error) {
	ctx, span := tracing.StartSpan(ctx, "issuer.request")
	defer span.End()

	span.SetAttributes(
		attribute.String("s3.bucket", target.Bucket),
		attribute.String("s3.key", target.Key),
		attribute.Int("presign.expires_in", expiresInSeconds),
	)

	logger := nlog.Logger().With().
		Str("bucket", target.Bucket).
		Str("key", target.Key).
		Logger()

	req := types.PresignRequest{Target: target, ExpiresIn: expiresInSeconds}
	if err := rule.ValidateStruct(&req); err != nil {
		err = fmt.Errorf("%w: %w", types.ErrInvalidRequest, err)
		tracing.RecordError(span, err)
		metrics.Authorizations.WithLabelValues(string(types.StateFailed), "invalid").Inc()

		return nil, err
	}

	probe := s.probe(ctx, target)

	switch probe.Outcome {
	case types.OutcomeExists:
		logger.Info().
			Int64("size", probe.Info.Size).
			Str("etag", probe.Info.ETag).
			Time("last_modified", probe.Info.LastModified).
			Msg("object already exists, refusing to authorize upload")

		return s.deny(target, &types.Denial{Reason: types.DenialConflict, Object: probe.Info}), nil

	case types.OutcomeProbeError:
		tracing.RecordError(span, probe.Err)

		if s.policy == configs.ProbeErrorFail {
			logger.Error().Err(probe.Err).Msg("failed to check object existence")
			metrics.Authorizations.WithLabelValues(string(types.StateFailed), string(types.DenialCheckFailure)).Inc()

			return nil, &types.ProbeError{Target: target, Err: probe.Err}
		}

		logger.Warn().Err(probe.Err).Msg("failed to check object existence, refusing to authorize upload")

		return s.deny(target, &types.Denial{Reason: types.DenialCheckFailure, Cause: probe.Err}), nil
	}

	logger.Info().Msg("object does not exist, authorizing upload")

	desc, err := s.presign(ctx, &req)
	if err != nil {
		tracing.RecordError(span, err)
		logger.Error().Err(err).Msg("failed to presign upload form")
		metrics.Authorizations.WithLabelValues(string(types.StateFailed), "issuance").Inc()

		return nil, &types.IssuanceError{Target: target, Err: err}
	}

	logger.Info().
		Str("url", desc.URL).
		Time("expires_at", desc.ExpiresAt).
		Msg("upload authorization issued")
	metrics.Authorizations.WithLabelValues(string(types.StateIssued), "").Inc()

	return &types.Result{
		State:      types.StateIssued,
		Target:     target,
		Descriptor: desc,
	}, nil
}

// probe 带追踪与重试的存在性探测.
func (s *Issuer) probe(ctx context.Context, target types.Target) types.ProbeResult {
	ctx, span := tracing.StartSpan(ctx, "issuer.probe")
	defer span.End()

	res := s.probeWithRetry(ctx, target)

	span.SetAttributes(attribute.String("probe.outcome", res.Outcome.String()))
	tracing.RecordError(span, res.Err)

	return res
}

func (s *Issuer) presign(ctx context.Context, req *types.PresignRequest) (*types.Descriptor, error) {
	ctx, span := tracing.StartSpan(ctx, "issuer.presign")
	defer span.End()

	var desc *types.Descriptor

	err := s.withRetry(ctx, "presign", req.Target, func() error {
		d, err := s.store.PresignPostForm(ctx, req.Bucket, req.Key, req.Expires())
		if err != nil {
			return err
		}

		if d == nil {
			return errors.New("store returned no descriptor")
		}

		desc = d

		return nil
	})
	if err != nil {
		tracing.RecordError(span, err)
		return nil, err
	}

	return desc, nil
}

func (s *Issuer) deny(target types.Target, denial *types.Denial) *types.Result {
	metrics.Authorizations.WithLabelValues(string(types.StateDenied), string(denial.Reason)).Inc()

	return &types.Result{
		State:  types.StateDenied,
		Target: target,
		Denial: denial,
	}
}
