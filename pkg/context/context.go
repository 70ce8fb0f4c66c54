// Package context 拓展上下文功能，将签发器、请求 ID、追踪信息等集成到上下文中，方便在应用程序各处传递和使用.
package context

import (
	"context"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"

	"github.com/yeisme/s3presign/pkg/internal/service"
	"github.com/yeisme/s3presign/pkg/internal/storage"
)

type ContextKey string

const (
	IssuerKey    ContextKey = "issuer"
	StoreKey     ContextKey = "store"
	RequestIDKey ContextKey = "requestID"
)

// WithIssuer 将 Issuer 存储到 context 中.
func WithIssuer(ctx context.Context, issuer *service.Issuer) context.Context {
	return context.WithValue(ctx, IssuerKey, issuer)
}

// GetIssuer 从 context 中获取 Issuer.
func GetIssuer(ctx context.Context) *service.Issuer {
	if issuer, ok := ctx.Value(IssuerKey).(*service.Issuer); ok {
		return issuer
	}

	return nil
}

// WithStore 将存储客户端存储到 context 中.
func WithStore(ctx context.Context, store storage.Store) context.Context {
	return context.WithValue(ctx, StoreKey, store)
}

// GetStore 从 context 中获取存储客户端.
func GetStore(ctx context.Context) storage.Store {
	if store, ok := ctx.Value(StoreKey).(storage.Store); ok {
		return store
	}

	return nil
}

// WithRequestID 将请求 ID 存储到 context 中.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey, id)
}

// GetRequestID 从 context 中获取请求 ID.
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDKey).(string)

	return id
}

// WithTraceContext 创建带有追踪上下文和请求 ID 的 logger.
func WithTraceContext(ctx context.Context, logger zerolog.Logger) zerolog.Logger {
	lc := logger.With()

	if id := GetRequestID(ctx); id != "" {
		lc = lc.Str("request_id", id)
	}

	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		lc = lc.
			Str("trace_id", span.SpanContext().TraceID().String()).
			Str("span_id", span.SpanContext().SpanID().String())
	}

	return lc.Logger()
}
