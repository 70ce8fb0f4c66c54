package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/yeisme/s3presign/pkg/configs"
	"github.com/yeisme/s3presign/pkg/internal/service"
	"github.com/yeisme/s3presign/pkg/internal/storage"
	"github.com/yeisme/s3presign/pkg/internal/types"
	"github.com/yeisme/s3presign/pkg/log"
	"github.com/yeisme/s3presign/pkg/tracing"
)

// registerPresignFlags 注册根命令（签发上传授权）的参数.
func registerPresignFlags() {
	flags := rootCmd.Flags()

	flags.StringP("bucket", "b", configs.DefaultPresignBucket, "target bucket")
	flags.StringP("key", "k", "", "object key (default: base name of --file, or <unix time>.gz)")
	flags.StringP("file", "f", "", "local file referenced by the generated curl command (default: the key)")
	flags.IntP("expires-in", "e", configs.DefaultPresignExpiresIn, "authorization lifetime in seconds (max 604800)")
	flags.StringP("output", "o", configs.DefaultPresignOutput, "output format: text or json")
	flags.String("probe-error-policy", configs.DefaultPresignProbeErrorPolicy,
		"what to do when the existence check fails: deny (no authorization, exit 0) or fail (exit 1)")
}

// runPresign 签发一次上传授权. Denied 返回 nil（退出码 0），失败返回 error（退出码 1）.
func runPresign(cmd *cobra.Command, _ []string) error {
	cfg := configs.GetConfig()
	p := cfg.Presign

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx, cancel := context.WithTimeout(ctx, cfg.Server.GetTimeoutDuration())
	defer cancel()

	if err := tracing.InitTracer(ctx, cfg.Tracing); err != nil {
		return err
	}

	defer func() {
		if err := tracing.ShutdownTracer(context.Background()); err != nil {
			log.Logger().Warn().Err(err).Msg("failed to shutdown tracer")
		}
	}()

	store, err := storage.New(ctx, cfg.S3, cfg.CircuitBreaker)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}

	issuer := service.NewIssuer(store,
		service.WithProbeErrorPolicy(p.ProbeErrorPolicy),
		service.WithRetry(p.Retry),
	)

	target := types.Target{Bucket: p.Bucket, Key: resolveKey(p.Key, p.File, time.Now())}

	res, err := issuer.RequestUploadAuthorization(ctx, target, p.ExpiresIn)
	if err != nil {
		return err
	}

	file := p.File
	if file == "" {
		file = target.Key
	}

	return render(cmd.OutOrStdout(), cmd.ErrOrStderr(), res, p.Output, file)
}

// resolveKey 未指定 key 时使用文件名，否则生成 <unix 秒>.gz.
func resolveKey(key, file string, now time.Time) string {
	if key != "" {
		return key
	}

	if file != "" {
		return filepath.Base(file)
	}

	return strconv.FormatInt(now.Unix(), 10) + ".gz"
}
