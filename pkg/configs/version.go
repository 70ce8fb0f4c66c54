package configs

// AppName 应用名称，用于 User-Agent、追踪服务名等.
const AppName = "s3presign"

// AppVersion 应用版本，构建时可通过 -ldflags "-X" 覆盖.
var AppVersion = "0.1.0"
