// Package configs 管理应用程序配置，包括对象存储、预签名策略、日志与服务端的配置信息.
// configs 包支持多种配置格式（YAML、JSON、TOML、dotenv）、环境变量与命令行参数，并可在 serve 模式下热重载.
//
// 优先级（高到低）：命令行参数 > 环境变量（S3PRESIGN_ 前缀） > 配置文件 > 默认值.
//
// Example:
//
//	err := configs.InitConfig("./")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	config := configs.GetConfig()
//	fmt.Println(config.Presign.Bucket)
//
// Example accessing S3 config:
//
//	s3Config := configs.GetConfig().S3
//	endpoint := s3Config.GetEndpointURL()
//	fmt.Println("S3 Endpoint:", endpoint)
package configs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/yeisme/s3presign/pkg/rule"
)

// EnvPrefix 环境变量前缀，例如 S3PRESIGN_PRESIGN_BUCKET.
const EnvPrefix = "S3PRESIGN"

type (
	// AppConfig 全局应用程序配置.
	AppConfig struct {
		S3             S3Config             `mapstructure:"s3"`              // S3Config 对象存储配置
		Presign        PresignConfig        `mapstructure:"presign"`         // PresignConfig 上传授权配置
		Server         ServerConfig         `mapstructure:"server"`          // ServerConfig 服务器配置，端口、超时等
		Log            LogConfig            `mapstructure:"log"`             // LogConfig 日志相关配置
		Tracing        TracingConfig        `mapstructure:"tracing"`         // TracingConfig 追踪配置
		Metrics        MetricsConfig        `mapstructure:"metrics"`         // MetricsConfig 监控配置
		RateLimit      RateLimitConfig      `mapstructure:"rate_limit"`      // RateLimitConfig 限流配置
		CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"` // CircuitBreakerConfig 存储熔断配置
	}

	// Option 在读取配置前对 viper 实例做额外设置，例如绑定命令行参数.
	Option func(v *viper.Viper) error
)

var (
	// globalConfig 全局配置实例，热重载时整体替换.
	globalConfig atomic.Pointer[AppConfig]
	// appViper 全局 Viper 实例.
	appViper *viper.Viper
)

// WithFlag 将命令行参数绑定到配置键，只有显式传入的参数才会覆盖其它来源.
func WithFlag(key string, flag *pflag.Flag) Option {
	return func(v *viper.Viper) error {
		if flag == nil {
			return nil
		}

		return v.BindPFlag(key, flag)
	}
}

// InitConfig 加载应用程序配置，支持多种格式(yaml、json、toml、dotenv). 找不到配置文件时只使用默认值、环境变量和参数.
func InitConfig(path string, opts ...Option) error {
	if path == "" {
		path = "."
	}

	v := viper.New()
	// 设置默认值
	setAllDefaults(v)

	hasFile := false

	// 检查path是否是文件
	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		// 是文件，使用SetConfigFile，Viper会自动检测类型
		v.SetConfigFile(path)

		hasFile = true
	} else {
		// 是目录，按扩展名顺序查找 config.*
		exts := []string{"yaml", "yml", "json", "toml", "env", "dotenv"}

		for _, dir := range []string{path, filepath.Join(path, "configs")} {
			for _, ext := range exts {
				cfg := filepath.Join(dir, "config."+ext)
				if _, err := os.Stat(cfg); err == nil {
					v.SetConfigFile(cfg)

					hasFile = true

					break
				}
			}

			if hasFile {
				break
			}
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for _, opt := range opts {
		if err := opt(v); err != nil {
			return fmt.Errorf("failed to apply config option: %w", err)
		}
	}

	// 读取配置
	if hasFile {
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	cfg, err := load(v)
	if err != nil {
		return err
	}

	appViper = v

	globalConfig.Store(cfg)

	return nil
}

// load 解析并校验配置.
func load(v *viper.Viper) (*AppConfig, error) {
	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := rule.ValidateStruct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// setAllDefaults 设置所有配置的默认值.
func setAllDefaults(v *viper.Viper) {
	var serverConfig ServerConfig

	var s3Config S3Config

	var presignConfig PresignConfig

	var logConfig LogConfig

	var tracingConfig TracingConfig

	var metricsConfig MetricsConfig

	var rateLimitConfig RateLimitConfig

	var cbConfig CircuitBreakerConfig

	serverConfig.setDefaults(v)
	s3Config.setDefaults(v)
	presignConfig.setDefaults(v)
	logConfig.setDefaults(v)
	tracingConfig.setDefaults(v)
	metricsConfig.setDefaults(v)
	rateLimitConfig.setDefaults(v)
	cbConfig.setDefaults(v)
}

// Watch 在 server.reload_config 开启且使用了配置文件时启用热重载. onChange 可为 nil.
func Watch(onChange func(*AppConfig)) bool {
	v := appViper
	if v == nil || v.ConfigFileUsed() == "" || !GetConfig().Server.ReloadConfig {
		return false
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		cfg, err := load(v)
		if err != nil {
			fmt.Fprintf(os.Stderr, "reload config %s: %v\n", e.Name, err)

			return
		}

		globalConfig.Store(cfg)

		if onChange != nil {
			onChange(cfg)
		}
	})
	v.WatchConfig()

	return true
}

// GetConfig 返回全局配置实例，未初始化时返回仅含默认值的配置.
func GetConfig() *AppConfig {
	if cfg := globalConfig.Load(); cfg != nil {
		return cfg
	}

	v := viper.New()
	setAllDefaults(v)

	var cfg AppConfig

	_ = v.Unmarshal(&cfg)

	globalConfig.CompareAndSwap(nil, &cfg)

	return globalConfig.Load()
}

// GetViper 返回全局 Viper 实例，未初始化时为 nil.
func GetViper() *viper.Viper {
	return appViper
}
