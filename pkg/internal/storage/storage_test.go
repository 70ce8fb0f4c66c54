package storage_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/s3presign/pkg/configs"
	"github.com/yeisme/s3presign/pkg/internal/storage"
	"github.com/yeisme/s3presign/pkg/internal/types"
	"github.com/yeisme/s3presign/pkg/metrics"
)

// stubStore 每次调用返回固定错误并计数.
type stubStore struct {
	err   error
	calls atomic.Int32
}

func (s *stubStore) HeadObject(_ context.Context, _, key string) (*types.ObjectInfo, error) {
	s.calls.Add(1)

	if s.err != nil {
		return nil, s.err
	}

	return &types.ObjectInfo{Key: key}, nil
}

func (s *stubStore) PresignPostForm(_ context.Context, _, key string, expires time.Duration) (*types.Descriptor, error) {
	s.calls.Add(1)

	if s.err != nil {
		return nil, s.err
	}

	return types.NewDescriptor("http://localhost:9000/s3presign", map[string]string{"key": key}, time.Now().Add(expires)), nil
}

func (s *stubStore) Ping(context.Context, string) error {
	s.calls.Add(1)

	return s.err
}

func breakerConfig() configs.CircuitBreakerConfig {
	return configs.CircuitBreakerConfig{
		Enabled:           true,
		FailureRate:       0.5,
		MinRequests:       2,
		IntervalSeconds:   60,
		TimeoutSeconds:    60,
		MaxRequestsInHalf: 1,
	}
}

// TestBreakerOpens 连续失败后熔断，后续调用不再到达后端.
func TestBreakerOpens(t *testing.T) {
	stub := &stubStore{err: errors.New("connection refused")}
	b := storage.NewBreaker(stub, breakerConfig())
	ctx := context.Background()

	for range 2 {
		_, err := b.HeadObject(ctx, "s3presign", "a.gz")
		require.Error(t, err)
		assert.NotErrorIs(t, err, types.ErrCircuitOpen)
	}

	assert.Equal(t, gobreaker.StateOpen, b.State())

	_, err := b.HeadObject(ctx, "s3presign", "a.gz")
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrCircuitOpen)
	assert.Equal(t, int32(2), stub.calls.Load())
}

// TestBreakerIgnoresNotFound 对象不存在是正常结果，不会触发熔断.
func TestBreakerIgnoresNotFound(t *testing.T) {
	stub := &stubStore{err: types.ErrObjectNotFound}
	b := storage.NewBreaker(stub, breakerConfig())

	for range 5 {
		_, err := b.HeadObject(context.Background(), "s3presign", "a.gz")
		assert.ErrorIs(t, err, types.ErrObjectNotFound)
	}

	assert.Equal(t, gobreaker.StateClosed, b.State())
	assert.Equal(t, int32(5), stub.calls.Load())
}

func TestBreakerPassThrough(t *testing.T) {
	stub := &stubStore{}
	b := storage.NewBreaker(stub, breakerConfig())
	ctx := context.Background()

	info, err := b.HeadObject(ctx, "s3presign", "a.gz")
	require.NoError(t, err)
	assert.Equal(t, "a.gz", info.Key)

	desc, err := b.PresignPostForm(ctx, "s3presign", "a.gz", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "a.gz", desc.Field(types.FieldKey))

	require.NoError(t, b.Ping(ctx, "s3presign"))
}

func TestInstrument(t *testing.T) {
	stub := &stubStore{err: types.ErrObjectNotFound}
	s := storage.Instrument(stub)

	before := testutil.CollectAndCount(metrics.StoreCallDuration)

	_, err := s.HeadObject(context.Background(), "s3presign", "a.gz")
	assert.ErrorIs(t, err, types.ErrObjectNotFound)

	stub.err = nil
	require.NoError(t, s.Ping(context.Background(), "s3presign"))

	assert.GreaterOrEqual(t, testutil.CollectAndCount(metrics.StoreCallDuration), before+1)
}

func TestNewUnsupportedProvider(t *testing.T) {
	_, err := storage.New(context.Background(), configs.S3Config{Provider: "gcs", Region: "us-east-1"}, configs.CircuitBreakerConfig{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported s3 provider")
}

func TestNewMinio(t *testing.T) {
	store, err := storage.New(context.Background(), configs.S3Config{
		Provider:        configs.ProviderMinio,
		Endpoint:        "localhost:9000",
		AccessKeyID:     "minioadmin",
		SecretAccessKey: "minioadmin",
		Region:          "us-east-1",
		UsePathStyle:    true,
	}, breakerConfig())
	require.NoError(t, err)

	_, ok := store.(*storage.Breaker)
	assert.True(t, ok)
}
