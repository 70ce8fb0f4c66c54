// Package log 提供基于 zerolog 的日志工具，支持 stderr 控制台/JSON 输出和文件输出（lumberjack 轮转）.
//
// 命令行的结果写入 stdout，日志统一写入 stderr，两者互不干扰.
package log

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/natefinch/lumberjack"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/yeisme/s3presign/pkg/configs"
)

var (
	logger   zerolog.Logger
	initOnce sync.Once
	mu       sync.RWMutex
)

// Init 初始化全局 logger.
func Init() {
	initOnce.Do(initLogger)
}

// initLogger 实际执行一次的初始化函数.
func initLogger() {
	cfg := configs.GetConfig()

	l := New(cfg.Log, os.Stderr, cfg.Server.Debug)

	if cfg.Server.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	setLogger(l)
}

// New 根据配置构造 logger，out 为控制台输出目标.
func New(logCfg configs.LogConfig, out io.Writer, debug bool) zerolog.Logger {
	// level
	lvl, err := zerolog.ParseLevel(strings.ToLower(logCfg.Level))
	if err != nil || logCfg.Level == "" {
		if logCfg.Level != "" {
			fmt.Fprintf(os.Stderr, "invalid log level %q, defaulting to info\n", logCfg.Level)
		}

		lvl = zerolog.InfoLevel
	}

	// outputs
	var writers []io.Writer

	if strings.EqualFold(logCfg.Format, "json") {
		writers = append(writers, out)
	} else {
		// human-friendly console output, set TimeFormat to time.Kitchen
		writers = append(writers, zerolog.NewConsoleWriter(func(w *zerolog.ConsoleWriter) {
			w.Out = out
			w.TimeFormat = time.Kitchen
		}))
	}

	if logCfg.EnableFile {
		writers = append(writers, &lumberjack.Logger{
			Filename:   logCfg.FilePath,
			MaxSize:    logCfg.MaxSize,
			MaxBackups: logCfg.MaxBackups,
			MaxAge:     logCfg.MaxAge,
			Compress:   logCfg.Compress,
		})
	}

	ctx := zerolog.New(io.MultiWriter(writers...)).Level(lvl).With()
	if debug {
		ctx = ctx.Caller().Stack()
	}

	return ctx.Timestamp().Str("app", configs.AppName).Logger()
}

// SetLogger 替换全局 logger，之后不会再按配置初始化. 测试中可用于捕获日志.
func SetLogger(l zerolog.Logger) {
	initOnce.Do(func() {})

	setLogger(l)
}

func setLogger(l zerolog.Logger) {
	mu.Lock()
	defer mu.Unlock()

	logger = l
	log.Logger = l
}

// Logger 返回全局 logger.
func Logger() *zerolog.Logger {
	// ensure logger is initialized on first use
	initOnce.Do(initLogger)

	mu.RLock()
	defer mu.RUnlock()

	l := logger

	return &l
}

// GinWriter 把 Gin 文本行转发为 zerolog 事件.
type GinWriter struct {
	logger *zerolog.Logger
	level  zerolog.Level
}

func NewGinWriter(logger *zerolog.Logger, level zerolog.Level) *GinWriter {
	return &GinWriter{logger: logger, level: level}
}

func (w *GinWriter) Write(p []byte) (n int, err error) {
	msg := strings.TrimSpace(string(p))
	if msg == "" {
		return len(p), nil
	}

	switch w.level {
	case zerolog.ErrorLevel, zerolog.FatalLevel, zerolog.PanicLevel:
		w.logger.Error().Msg(msg)
	case zerolog.WarnLevel:
		w.logger.Warn().Msg(msg)
	default:
		w.logger.Debug().Msg(msg)
	}

	return len(p), nil
}
