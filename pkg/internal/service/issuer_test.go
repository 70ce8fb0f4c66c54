package service_test

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/s3presign/pkg/configs"
	"github.com/yeisme/s3presign/pkg/internal/service"
	"github.com/yeisme/s3presign/pkg/internal/types"
	nlog "github.com/yeisme/s3presign/pkg/log"
)

const (
	testBucket  = "s3presign"
	testKey     = "1677634244.gz"
	testExpires = 3600
)

type presignCall struct {
	Bucket  string
	Key     string
	Expires time.Duration
}

// fakeStore 按脚本返回探测结果，并记录每次调用.
type fakeStore struct {
	mu sync.Mutex

	headErrs   []error // 依次返回，耗尽后使用 headErr
	headErr    error
	info       *types.ObjectInfo
	presignErr error

	headCalls    int
	presignCalls []presignCall
}

func (f *fakeStore) HeadObject(_ context.Context, _, _ string) (*types.ObjectInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.headCalls++

	if len(f.headErrs) > 0 {
		err := f.headErrs[0]
		f.headErrs = f.headErrs[1:]

		return nil, err
	}

	if f.headErr != nil {
		return nil, f.headErr
	}

	return f.info, nil
}

func (f *fakeStore) PresignPostForm(_ context.Context, bucket, key string, expires time.Duration) (*types.Descriptor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.presignCalls = append(f.presignCalls, presignCall{Bucket: bucket, Key: key, Expires: expires})

	if f.presignErr != nil {
		return nil, f.presignErr
	}

	return types.NewDescriptor("http://localhost:9000/"+bucket, map[string]string{
		"key":              key,
		"X-Amz-Algorithm":  "AWS4-HMAC-SHA256",
		"X-Amz-Credential": "minioadmin/20230301/us-east-1/s3/aws4_request",
		"X-Amz-Date":       "20230301T013044Z",
		"policy":           "eyJleHBpcmF0aW9uIjoi",
		"X-Amz-Signature":  "deadbeef",
	}, time.Now().Add(expires)), nil
}

func (f *fakeStore) Ping(context.Context, string) error { return nil }

func notFound() error {
	return errors.Join(errors.New("stat s3presign/1677634244.gz"), types.ErrObjectNotFound)
}

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()

	var buf bytes.Buffer

	nlog.SetLogger(zerolog.New(&buf))

	return &buf
}

func target() types.Target {
	return types.Target{Bucket: testBucket, Key: testKey}
}

// TestExistingObjectDenied 对象已存在时拒绝，且不会签发.
func TestExistingObjectDenied(t *testing.T) {
	logs := captureLogs(t)
	store := &fakeStore{info: &types.ObjectInfo{Key: testKey, Size: 42, ETag: "abc"}}

	res, err := service.NewIssuer(store).RequestUploadAuthorization(context.Background(), target(), testExpires)
	require.NoError(t, err)

	assert.Equal(t, types.StateDenied, res.State)
	assert.False(t, res.Issued())
	require.NotNil(t, res.Denial)
	assert.Equal(t, types.DenialConflict, res.Denial.Reason)
	assert.Equal(t, int64(42), res.Denial.Object.Size)
	assert.Empty(t, store.presignCalls)
	assert.Contains(t, logs.String(), "object already exists")
}

// TestNotFoundIssued 对象不存在时恰好签发一次，参数原样传递.
func TestNotFoundIssued(t *testing.T) {
	captureLogs(t)

	store := &fakeStore{headErr: notFound()}

	res, err := service.NewIssuer(store).RequestUploadAuthorization(context.Background(), target(), testExpires)
	require.NoError(t, err)

	require.Len(t, store.presignCalls, 1)
	assert.Equal(t, presignCall{Bucket: testBucket, Key: testKey, Expires: time.Hour}, store.presignCalls[0])

	assert.True(t, res.Issued())
	assert.Equal(t, types.StateIssued, res.State)
	assert.NotEmpty(t, res.Descriptor.URL)
	assert.NotEmpty(t, res.Descriptor.Fields)
	assert.Equal(t, testKey, res.Descriptor.Field(types.FieldKey))
	assert.Nil(t, res.Denial)
}

// TestProbeErrorDenied 默认策略下探测失败被吞掉并拒绝.
func TestProbeErrorDenied(t *testing.T) {
	logs := captureLogs(t)
	cause := errors.New("access denied")
	store := &fakeStore{headErr: cause}

	res, err := service.NewIssuer(store).RequestUploadAuthorization(context.Background(), target(), testExpires)
	require.NoError(t, err)

	assert.Equal(t, types.StateDenied, res.State)
	require.NotNil(t, res.Denial)
	assert.Equal(t, types.DenialCheckFailure, res.Denial.Reason)
	assert.ErrorIs(t, res.Denial.Cause, cause)
	assert.Empty(t, store.presignCalls)
	assert.Contains(t, logs.String(), "access denied")
}

// TestIssuanceFailurePropagated 签发失败总是以错误返回.
func TestIssuanceFailurePropagated(t *testing.T) {
	captureLogs(t)

	cause := errors.New("signature does not match")
	store := &fakeStore{headErr: notFound(), presignErr: cause}

	res, err := service.NewIssuer(store).RequestUploadAuthorization(context.Background(), target(), testExpires)
	require.Error(t, err)
	assert.Nil(t, res)

	var issErr *types.IssuanceError
	require.ErrorAs(t, err, &issErr)
	assert.Equal(t, target(), issErr.Target)
	assert.ErrorIs(t, err, cause)
	assert.Len(t, store.presignCalls, 1)
}

func TestInvalidRequest(t *testing.T) {
	captureLogs(t)

	tests := []struct {
		name    string
		target  types.Target
		expires int
	}{
		{"empty bucket", types.Target{Key: testKey}, testExpires},
		{"empty key", types.Target{Bucket: testBucket}, testExpires},
		{"bad bucket", types.Target{Bucket: "Bad_Bucket", Key: testKey}, testExpires},
		{"zero expiry", target(), 0},
		{"negative expiry", target(), -1},
		{"over seven days", target(), 604801},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeStore{headErr: notFound()}

			res, err := service.NewIssuer(store).RequestUploadAuthorization(context.Background(), tt.target, tt.expires)
			require.Error(t, err)
			assert.Nil(t, res)
			assert.ErrorIs(t, err, types.ErrInvalidRequest)
			assert.Zero(t, store.headCalls)
			assert.Empty(t, store.presignCalls)
		})
	}
}

// TestProbeErrorFailPolicy fail 策略下探测失败作为错误返回.
func TestProbeErrorFailPolicy(t *testing.T) {
	captureLogs(t)

	cause := errors.New("dial tcp 127.0.0.1:9000: connect: connection refused")
	store := &fakeStore{headErr: cause}

	issuer := service.NewIssuer(store, service.WithProbeErrorPolicy(configs.ProbeErrorFail))

	res, err := issuer.RequestUploadAuthorization(context.Background(), target(), testExpires)
	require.Error(t, err)
	assert.Nil(t, res)

	var probeErr *types.ProbeError
	require.ErrorAs(t, err, &probeErr)
	assert.ErrorIs(t, err, cause)
	assert.Empty(t, store.presignCalls)
}

func retryConfig() configs.RetryConfig {
	return configs.RetryConfig{
		MaxAttempts:     3,
		InitialInterval: time.Millisecond,
		MaxInterval:     5 * time.Millisecond,
	}
}

// TestRetryTransientProbeError 瞬时失败后重试成功.
func TestRetryTransientProbeError(t *testing.T) {
	captureLogs(t)

	store := &fakeStore{
		headErrs: []error{errors.New("503 Slow Down")},
		headErr:  notFound(),
	}

	issuer := service.NewIssuer(store, service.WithRetry(retryConfig()))

	res, err := issuer.RequestUploadAuthorization(context.Background(), target(), testExpires)
	require.NoError(t, err)
	assert.True(t, res.Issued())
	assert.Equal(t, 2, store.headCalls)
	assert.Len(t, store.presignCalls, 1)
}

// TestRetryExhausted 重试耗尽后按策略处理.
func TestRetryExhausted(t *testing.T) {
	captureLogs(t)

	store := &fakeStore{headErr: errors.New("503 Slow Down")}

	issuer := service.NewIssuer(store, service.WithRetry(retryConfig()))

	res, err := issuer.RequestUploadAuthorization(context.Background(), target(), testExpires)
	require.NoError(t, err)
	assert.Equal(t, types.DenialCheckFailure, res.Denial.Reason)
	assert.Equal(t, 3, store.headCalls)
	assert.Empty(t, store.presignCalls)
}

// TestRetryNeverOnConflict 对象已存在不会重试.
func TestRetryNeverOnConflict(t *testing.T) {
	captureLogs(t)

	store := &fakeStore{info: &types.ObjectInfo{Key: testKey}}

	issuer := service.NewIssuer(store, service.WithRetry(retryConfig()))

	res, err := issuer.RequestUploadAuthorization(context.Background(), target(), testExpires)
	require.NoError(t, err)
	assert.Equal(t, types.DenialConflict, res.Denial.Reason)
	assert.Equal(t, 1, store.headCalls)
}

// TestRetryCircuitOpen 熔断打开时不重试.
func TestRetryCircuitOpen(t *testing.T) {
	captureLogs(t)

	store := &fakeStore{headErr: types.ErrCircuitOpen}

	issuer := service.NewIssuer(store, service.WithRetry(retryConfig()))

	res, err := issuer.RequestUploadAuthorization(context.Background(), target(), testExpires)
	require.NoError(t, err)
	assert.ErrorIs(t, res.Denial.Cause, types.ErrCircuitOpen)
	assert.Equal(t, 1, store.headCalls)
}

// TestRetryIssuanceFailure 签发失败重试后仍失败则返回错误.
func TestRetryIssuanceFailure(t *testing.T) {
	captureLogs(t)

	store := &fakeStore{headErr: notFound(), presignErr: errors.New("connection reset by peer")}

	issuer := service.NewIssuer(store, service.WithRetry(retryConfig()))

	_, err := issuer.RequestUploadAuthorization(context.Background(), target(), testExpires)

	var issErr *types.IssuanceError
	require.ErrorAs(t, err, &issErr)
	assert.Len(t, store.presignCalls, 3)
}

func TestProbe(t *testing.T) {
	issuer := service.NewIssuer(&fakeStore{headErr: notFound()})
	assert.Equal(t, types.OutcomeNotFound, issuer.Probe(context.Background(), target()).Outcome)

	issuer = service.NewIssuer(&fakeStore{info: &types.ObjectInfo{Key: testKey}})
	res := issuer.Probe(context.Background(), target())
	assert.Equal(t, types.OutcomeExists, res.Outcome)
	assert.Equal(t, testKey, res.Info.Key)

	issuer = service.NewIssuer(&fakeStore{headErr: context.DeadlineExceeded})
	res = issuer.Probe(context.Background(), target())
	assert.Equal(t, types.OutcomeProbeError, res.Outcome)
	assert.ErrorIs(t, res.Err, context.DeadlineExceeded)
}
