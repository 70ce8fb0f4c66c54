package configs

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// 支持的对象存储提供方.
const (
	ProviderMinio = "minio" // minio-go，兼容任意 S3 协议的服务
	ProviderAWS   = "aws"   // aws-sdk-go-v2
)

// S3Config S3 兼容对象存储配置.
type S3Config struct {
	Provider        string `mapstructure:"provider"          rule:"oneof=minio aws"` // minio 或 aws
	Endpoint        string `mapstructure:"endpoint"`                                 // 可带 http:// 或 https:// 前缀；为空时使用 AWS 官方端点
	AccessKeyID     string `mapstructure:"access_key_id"`                            // 为空时使用默认凭证链
	SecretAccessKey string `mapstructure:"secret_access_key"`                        // 为空时使用默认凭证链
	SessionToken    string `mapstructure:"session_token"`                            // 可选：临时凭证
	UseSSL          bool   `mapstructure:"use_ssl"`                                  // Endpoint 不带 scheme 时生效
	Region          string `mapstructure:"region"            rule:"required"`        // 签名区域
	UsePathStyle    bool   `mapstructure:"use_path_style"`                           // 路径风格寻址 (endpoint/bucket/key)
}

const (
	DefaultS3Provider     = ProviderMinio // 默认提供方
	DefaultS3Endpoint     = ""            // 为空时使用 AWS 官方端点
	DefaultS3UseSSL       = false         // 默认是否使用SSL
	DefaultS3Region       = "us-east-1"   // 默认区域
	DefaultS3UsePathStyle = true          // 默认路径风格寻址
)

// GetEndpointURL 获取完整的端点URL.
func (c *S3Config) GetEndpointURL() string {
	if c.Endpoint == "" {
		return ""
	}

	if strings.HasPrefix(c.Endpoint, "http://") || strings.HasPrefix(c.Endpoint, "https://") {
		return c.Endpoint
	}

	scheme := "http"
	if c.UseSSL {
		scheme = "https"
	}

	return fmt.Sprintf("%s://%s", scheme, c.Endpoint)
}

// HasStaticCredentials 是否配置了静态访问密钥.
func (c *S3Config) HasStaticCredentials() bool {
	return c.AccessKeyID != "" && c.SecretAccessKey != ""
}

// setDefaults 设置 S3 配置的默认值.
func (c *S3Config) setDefaults(v *viper.Viper) {
	v.SetDefault("s3.provider", DefaultS3Provider)
	v.SetDefault("s3.endpoint", DefaultS3Endpoint)
	v.SetDefault("s3.access_key_id", "")
	v.SetDefault("s3.secret_access_key", "")
	v.SetDefault("s3.session_token", "")
	v.SetDefault("s3.use_ssl", DefaultS3UseSSL)
	v.SetDefault("s3.region", DefaultS3Region)
	v.SetDefault("s3.use_path_style", DefaultS3UsePathStyle)
}
