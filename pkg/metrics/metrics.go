// Package metrics 提供监控指标功能.
// 支持Prometheus标准，收集上传授权结果、存储调用耗时和 HTTP 指标.
//
// Example:
//
//	import "github.com/yeisme/s3presign/pkg/metrics"
//
//	err := metrics.InitMetrics(config.Metrics)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// 记录指标
//	metrics.Authorizations.WithLabelValues("issued", "").Inc()
//	metrics.ObserveStoreCall("head_object", "ok", start)
package metrics

import (
	"net/http"
	_ "net/http/pprof" // 自动注册pprof端点
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yeisme/s3presign/pkg/configs"
)

const namespace = "s3presign"

// 全局指标变量. 未注册时仍可安全调用，只是不会被导出.
var (
	// Authorizations 上传授权请求的终态计数，reason 仅在 denied 时非空.
	Authorizations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "authorizations_total",
			Help:      "Upload authorization requests by terminal state",
		},
		[]string{"state", "reason"},
	)

	// StoreCallDuration 对象存储调用耗时.
	StoreCallDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "store_call_duration_seconds",
			Help:      "Object storage call duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"operation", "result"},
	)

	// RequestCounter HTTP请求计数器.
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// RequestDuration HTTP请求持续时间.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// registry Prometheus注册表.
	registry     = prometheus.NewRegistry()
	registerOnce sync.Once
)

// InitMetrics 初始化Metrics，重复调用是安全的.
func InitMetrics(config configs.MetricsConfig) error {
	if !config.Enabled {
		return nil
	}

	var err error

	registerOnce.Do(func() {
		cs := []prometheus.Collector{Authorizations, StoreCallDuration, RequestCounter, RequestDuration}

		// 注册标准收集器
		if config.RuntimeMetrics {
			cs = append(cs,
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)
		}

		for _, c := range cs {
			if err = registry.Register(c); err != nil {
				return
			}
		}
	})

	return err
}

// RegisterRoutes 在 engine 上挂载 /metrics（以及可选的 pprof）端点.
func RegisterRoutes(config configs.MetricsConfig, engine *gin.Engine) {
	if !config.Enabled {
		return
	}

	path := config.Path
	if path == "" {
		path = "/metrics"
	}

	engine.GET(path, gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	// 如果启用pprof，注册pprof端点
	if config.Pprof {
		engine.GET("/debug/pprof/*any", gin.WrapH(http.DefaultServeMux))
	}
}

// ObserveStoreCall 记录一次存储调用的耗时.
func ObserveStoreCall(operation, result string, start time.Time) {
	StoreCallDuration.WithLabelValues(operation, result).Observe(time.Since(start).Seconds())
}

// GetRegistry 获取Prometheus注册表.
func GetRegistry() *prometheus.Registry {
	return registry
}
