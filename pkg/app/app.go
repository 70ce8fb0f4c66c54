// Package app 提供 serve 模式的初始化、路由装配与优雅退出.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/yeisme/s3presign/pkg/api"
	"github.com/yeisme/s3presign/pkg/configs"
	"github.com/yeisme/s3presign/pkg/internal/handle"
	"github.com/yeisme/s3presign/pkg/internal/service"
	"github.com/yeisme/s3presign/pkg/internal/storage"
	"github.com/yeisme/s3presign/pkg/log"
	"github.com/yeisme/s3presign/pkg/metrics"
	"github.com/yeisme/s3presign/pkg/middleware"
	"github.com/yeisme/s3presign/pkg/tracing"
)

// shutdownTimeout 优雅退出时等待进行中请求的最长时间.
const shutdownTimeout = 10 * time.Second

type App struct {
	Engine *gin.Engine
	config *configs.AppConfig
	store  storage.Store
	issuer atomic.Pointer[service.Issuer]
}

// NewApp 初始化追踪、监控、存储客户端与路由. ctx 结束时后台任务随之停止.
func NewApp(ctx context.Context, config *configs.AppConfig) (*App, error) {
	// 初始化追踪
	if err := tracing.InitTracer(ctx, config.Tracing); err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}

	// 初始化监控
	if err := metrics.InitMetrics(config.Metrics); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	store, err := storage.New(ctx, config.S3, config.CircuitBreaker)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	return newApp(ctx, config, store), nil
}

// newApp 使用已构造的存储客户端装配路由.
func newApp(ctx context.Context, config *configs.AppConfig, store storage.Store) *App {
	a := &App{
		config: config,
		store:  store,
	}
	a.issuer.Store(newIssuer(store, config.Presign))

	l := log.Logger()
	gin.DefaultWriter = log.NewGinWriter(l, zerolog.InfoLevel)
	gin.DefaultErrorWriter = log.NewGinWriter(l, zerolog.ErrorLevel)

	engine := gin.New()
	engine.Use(
		gin.Recovery(),
		middleware.RequestIDMiddleware(),
		middleware.TracingMiddleware(),
		middleware.GinLoggerMiddleware(),
		middleware.PrometheusMiddleware(),
		middleware.CORSMiddleware(),
		middleware.GzipMiddleware(config.Metrics.Path),
		middleware.RateLimitMiddleware(ctx, config.RateLimit),
		middleware.IssuerMiddleware(a.issuer.Load, store),
	)
	engine.NoRoute(handle.NotFound)

	metrics.RegisterRoutes(config.Metrics, engine)
	api.RegisterGroup(engine)

	a.Engine = engine

	return a
}

func newIssuer(store storage.Store, cfg configs.PresignConfig) *service.Issuer {
	return service.NewIssuer(store,
		service.WithProbeErrorPolicy(cfg.ProbeErrorPolicy),
		service.WithRetry(cfg.Retry),
	)
}

// Reload 用新的上传授权配置替换 Issuer. 存储、监听地址等配置需要重启才能生效.
func (a *App) Reload(cfg *configs.AppConfig) {
	a.issuer.Store(newIssuer(a.store, cfg.Presign))

	log.Logger().Info().
		Str("probe_error_policy", cfg.Presign.ProbeErrorPolicy).
		Uint("retry_max_attempts", cfg.Presign.Retry.MaxAttempts).
		Msg("presign config reloaded")
}

// Run 启动 HTTP 服务，ctx 结束后优雅退出.
func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.config.Server.Addr(),
		Handler:           a.Engine,
		ReadHeaderTimeout: a.config.Server.GetTimeoutDuration(),
		WriteTimeout:      a.config.Server.GetTimeoutDuration(),
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Logger().Info().Str("addr", srv.Addr).Msg("s3presign server listening")

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen %s: %w", srv.Addr, err)
		}

		return nil
	})

	g.Go(func() error {
		<-ctx.Done()

		log.Logger().Info().Msg("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}

		return tracing.ShutdownTracer(shutdownCtx)
	})

	return g.Wait()
}
