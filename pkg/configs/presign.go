package configs

import (
	"time"

	"github.com/spf13/viper"
)

// 探测失败时的处理策略.
const (
	ProbeErrorDeny = "deny" // 拒绝授权但不报错
	ProbeErrorFail = "fail" // 作为错误返回给调用方
)

const (
	DefaultPresignBucket           = "s3presign"
	DefaultPresignExpiresIn        = 3600 // 秒
	DefaultPresignProbeErrorPolicy = ProbeErrorDeny
	DefaultPresignOutput           = "text"
	DefaultRetryMaxAttempts        = 1 // 1 表示不重试
	DefaultRetryInitialInterval    = 200 * time.Millisecond
	DefaultRetryMaxInterval        = 2 * time.Second
)

type (
	// PresignConfig 上传授权配置. Bucket、Key、ExpiresIn 等可由命令行参数覆盖.
	PresignConfig struct {
		Bucket           string      `mapstructure:"bucket"`
		Key              string      `mapstructure:"key"`
		File             string      `mapstructure:"file"` // 上传命令中引用的本地文件，默认与 Key 相同
		ExpiresIn        int         `mapstructure:"expires_in"         rule:"gt=0,max=604800"`
		ProbeErrorPolicy string      `mapstructure:"probe_error_policy" rule:"oneof=deny fail"`
		Output           string      `mapstructure:"output"             rule:"oneof=text json"`
		Retry            RetryConfig `mapstructure:"retry"`
	}

	// RetryConfig 针对瞬时探测/签发失败的有界指数退避重试.
	RetryConfig struct {
		MaxAttempts     uint          `mapstructure:"max_attempts"`
		InitialInterval time.Duration `mapstructure:"initial_interval"`
		MaxInterval     time.Duration `mapstructure:"max_interval"`
	}
)

// Enabled 是否会发生重试.
func (r RetryConfig) Enabled() bool {
	return r.MaxAttempts > 1
}

// setDefaults 设置上传授权配置的默认值.
func (c *PresignConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("presign.bucket", DefaultPresignBucket)
	v.SetDefault("presign.key", "")
	v.SetDefault("presign.file", "")
	v.SetDefault("presign.expires_in", DefaultPresignExpiresIn)
	v.SetDefault("presign.probe_error_policy", DefaultPresignProbeErrorPolicy)
	v.SetDefault("presign.output", DefaultPresignOutput)
	v.SetDefault("presign.retry.max_attempts", DefaultRetryMaxAttempts)
	v.SetDefault("presign.retry.initial_interval", DefaultRetryInitialInterval)
	v.SetDefault("presign.retry.max_interval", DefaultRetryMaxInterval)
}
