package awss3_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/s3presign/pkg/configs"
	"github.com/yeisme/s3presign/pkg/internal/storage/awss3"
	"github.com/yeisme/s3presign/pkg/internal/types"
)

func newTestClient(t *testing.T, endpoint string) *awss3.Client {
	t.Helper()

	// 隔离本机的 ~/.aws 配置
	dir := t.TempDir()
	t.Setenv("AWS_CONFIG_FILE", filepath.Join(dir, "config"))
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", filepath.Join(dir, "credentials"))

	cli, err := awss3.New(context.Background(), configs.S3Config{
		Provider:        configs.ProviderAWS,
		Endpoint:        endpoint,
		AccessKeyID:     "AKIDEXAMPLE",
		SecretAccessKey: "wJalrXUtnFEMI/K7MDENG+bPxRfiCYEXAMPLEKEY",
		Region:          "us-east-1",
		UsePathStyle:    true,
	})
	require.NoError(t, err)

	return cli
}

func fakeS3(t *testing.T) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/s3presign/exists.gz":
			w.Header().Set("ETag", `"9b2cf535f27731c974343645a3985328"`)
			w.Header().Set("Content-Length", "7")
			w.Header().Set("Content-Type", "application/gzip")
			w.Header().Set("Last-Modified", time.Date(2023, 3, 1, 1, 30, 44, 0, time.UTC).Format(http.TimeFormat))
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

func TestHeadObject(t *testing.T) {
	srv := fakeS3(t)
	cli := newTestClient(t, srv.URL)
	ctx := context.Background()

	t.Run("exists", func(t *testing.T) {
		info, err := cli.HeadObject(ctx, "s3presign", "exists.gz")
		require.NoError(t, err)
		assert.Equal(t, "exists.gz", info.Key)
		assert.Equal(t, int64(7), info.Size)
		assert.Equal(t, "9b2cf535f27731c974343645a3985328", info.ETag)
		assert.Equal(t, "application/gzip", info.ContentType)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := cli.HeadObject(ctx, "s3presign", "1677634244.gz")
		require.Error(t, err)
		assert.ErrorIs(t, err, types.ErrObjectNotFound)
	})

	t.Run("forbidden", func(t *testing.T) {
		_, err := cli.HeadObject(ctx, "s3presign", "forbidden.gz")
		require.Error(t, err)
		assert.NotErrorIs(t, err, types.ErrObjectNotFound)
	})
}

// TestPresignPostForm 签名在本地完成.
func TestPresignPostForm(t *testing.T) {
	cli := newTestClient(t, "http://localhost:9000")

	desc, err := cli.PresignPostForm(context.Background(), "s3presign", "1677634244.gz", time.Hour)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(desc.URL, "http://localhost:9000"), desc.URL)
	assert.Equal(t, "1677634244.gz", desc.Field(types.FieldKey))
	assert.Equal(t, "AWS4-HMAC-SHA256", desc.Field(types.FieldAlgorithm))
	assert.True(t, strings.HasPrefix(desc.Field(types.FieldCredential), "AKIDEXAMPLE/"))
	assert.NotEmpty(t, desc.Field(types.FieldPolicy))
	assert.NotEmpty(t, desc.Field(types.FieldSignature))

	for name := range desc.Fields {
		assert.Equal(t, strings.ToLower(name), name)
	}
}

func TestIsNotFound(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"not found", &s3types.NotFound{}, true},
		{"no such key", fmt.Errorf("wrapped: %w", &s3types.NoSuchKey{}), true},
		{"generic NotFound code", &smithy.GenericAPIError{Code: "NotFound"}, true},
		{"no such bucket", &s3types.NoSuchBucket{}, false},
		{"access denied", &smithy.GenericAPIError{Code: "AccessDenied"}, false},
		{"network", errors.New("dial tcp: i/o timeout"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, awss3.IsNotFound(tt.err))
		})
	}
}
