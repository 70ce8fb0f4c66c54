package s3_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	minio "github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/s3presign/pkg/configs"
	s3c "github.com/yeisme/s3presign/pkg/internal/storage/s3"
	"github.com/yeisme/s3presign/pkg/internal/types"
)

func newTestClient(t *testing.T, endpoint string) *s3c.Client {
	t.Helper()

	cli, err := s3c.New(configs.S3Config{
		Provider:        configs.ProviderMinio,
		Endpoint:        endpoint,
		AccessKeyID:     "minioadmin",
		SecretAccessKey: "minioadmin",
		Region:          "us-east-1",
		UsePathStyle:    true,
	})
	require.NoError(t, err)

	return cli
}

// fakeS3 只响应 HEAD /bucket/key，按 key 返回不同状态.
func fakeS3(t *testing.T) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodHead {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		switch r.URL.Path {
		case "/s3presign/exists.gz":
			w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
			w.Header().Set("Content-Length", "42")
			w.Header().Set("Content-Type", "application/gzip")
			w.Header().Set("Last-Modified", time.Date(2023, 3, 1, 1, 30, 44, 0, time.UTC).Format(http.TimeFormat))
			w.Header().Set("X-Amz-Meta-Owner", "ops")
			w.WriteHeader(http.StatusOK)
		case "/s3presign/forbidden.gz":
			w.WriteHeader(http.StatusForbidden)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)

	return srv
}

// TestHeadObjectExists 对象存在时返回元数据.
func TestHeadObjectExists(t *testing.T) {
	srv := fakeS3(t)
	cli := newTestClient(t, srv.URL)

	info, err := cli.HeadObject(context.Background(), "s3presign", "exists.gz")
	require.NoError(t, err)
	assert.Equal(t, "exists.gz", info.Key)
	assert.Equal(t, int64(42), info.Size)
	assert.Equal(t, "d41d8cd98f00b204e9800998ecf8427e", info.ETag)
	assert.Equal(t, "application/gzip", info.ContentType)
	assert.Equal(t, 2023, info.LastModified.Year())
}

// TestHeadObjectNotFound 404 映射为 types.ErrObjectNotFound.
func TestHeadObjectNotFound(t *testing.T) {
	srv := fakeS3(t)
	cli := newTestClient(t, srv.URL)

	_, err := cli.HeadObject(context.Background(), "s3presign", "1677634244.gz")
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrObjectNotFound)
}

// TestHeadObjectForbidden 其它错误不会被当作不存在.
func TestHeadObjectForbidden(t *testing.T) {
	srv := fakeS3(t)
	cli := newTestClient(t, srv.URL)

	_, err := cli.HeadObject(context.Background(), "s3presign", "forbidden.gz")
	require.Error(t, err)
	assert.False(t, errors.Is(err, types.ErrObjectNotFound))
	assert.Equal(t, "AccessDenied", minio.ToErrorResponse(errors.Unwrap(err)).Code)
}

// TestPresignPostForm 本地计算签名，不需要访问服务端.
func TestPresignPostForm(t *testing.T) {
	cli := newTestClient(t, "localhost:9000")

	before := time.Now().UTC()

	desc, err := cli.PresignPostForm(context.Background(), "s3presign", "1677634244.gz", time.Hour)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(desc.URL, "http://localhost:9000/s3presign"), desc.URL)
	assert.Equal(t, "1677634244.gz", desc.Field(types.FieldKey))
	assert.Equal(t, "AWS4-HMAC-SHA256", desc.Field(types.FieldAlgorithm))
	assert.True(t, strings.HasPrefix(desc.Field(types.FieldCredential), "minioadmin/"))

	for _, f := range types.KnownFields {
		assert.NotEmpty(t, desc.Field(f), f)
	}

	assert.WithinDuration(t, before.Add(time.Hour), desc.ExpiresAt, 5*time.Second)
}

// TestIsNotFound 错误分类.
func TestIsNotFound(t *testing.T) {
	assert.True(t, s3c.IsNotFound(minio.ErrorResponse{Code: "NoSuchKey", StatusCode: http.StatusNotFound}))
	assert.True(t, s3c.IsNotFound(minio.ErrorResponse{Code: "NotFound"}))
	assert.True(t, s3c.IsNotFound(minio.ErrorResponse{StatusCode: http.StatusNotFound}))
	assert.False(t, s3c.IsNotFound(minio.ErrorResponse{Code: "NoSuchBucket", StatusCode: http.StatusNotFound}))
	assert.False(t, s3c.IsNotFound(minio.ErrorResponse{Code: "AccessDenied", StatusCode: http.StatusForbidden}))
	assert.False(t, s3c.IsNotFound(errors.New("dial tcp: connection refused")))
	assert.False(t, s3c.IsNotFound(nil))
}
