// Package rule 提供结构体和字段验证功能的封装，基于 go-playground/validator 实现.
package rule

import (
	"errors"
	"net"
	"reflect"
	"regexp"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

const (
	// MaxObjectKeyBytes S3 对象键的最大字节数.
	MaxObjectKeyBytes = 1024
	minBucketNameLen  = 3
	maxBucketNameLen  = 63
)

var (
	inst *validator.Validate
	once sync.Once

	bucketNamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9.-]*[a-z0-9]$`)
)

// initValidator 尝试复用 gin 的 validator 引擎；若不可用则新建并注册 tag name 函数.
func initValidator() {
	if engine := binding.Validator.Engine(); engine != nil {
		if v, ok := engine.(*validator.Validate); ok {
			inst = v
		}
	}

	if inst == nil {
		inst = validator.New()
	}

	inst.SetTagName("rule")
	inst.RegisterTagNameFunc(jsonTagName)

	// 内置规则注册失败只可能是 tag 为空，属于编程错误
	if err := inst.RegisterValidation("bucketname", isBucketName); err != nil {
		panic(err)
	}

	if err := inst.RegisterValidation("objectkey", isObjectKey); err != nil {
		panic(err)
	}
}

// jsonTagName 校验错误里使用 json 字段名.
func jsonTagName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}

	if name == "" {
		return fld.Name
	}

	return name
}

// isBucketName 兼容 S3 的桶名：3-63 位小写字母、数字、点和连字符，首尾为字母或数字，且不是 IP 地址.
func isBucketName(fl validator.FieldLevel) bool {
	name := fl.Field().String()
	if len(name) < minBucketNameLen || len(name) > maxBucketNameLen {
		return false
	}

	if !bucketNamePattern.MatchString(name) || strings.Contains(name, "..") {
		return false
	}

	return net.ParseIP(name) == nil
}

// isObjectKey 对象键为 1-1024 字节的合法 UTF-8.
func isObjectKey(fl validator.FieldLevel) bool {
	key := fl.Field().String()

	return key != "" && len(key) <= MaxObjectKeyBytes && utf8.ValidString(key)
}

// lazyInit 初始化全局 validator（幂等）.
func lazyInit() {
	once.Do(initValidator)
}

// Engine 返回全局 *validator.Validate，若未初始化则先初始化.
func Engine() *validator.Validate {
	lazyInit()

	return inst
}

// RegisterValidation 代理 RegisterValidation，确保已初始化.
func RegisterValidation(tag string, fn validator.Func, opts ...bool) error {
	lazyInit()

	return inst.RegisterValidation(tag, fn, opts...)
}

// ValidationErrors 是格式化后的验证错误字典，键为字段名（受 RegisterTagNameFunc 影响），值为可读错误信息.
type ValidationErrors map[string]string

// Errors 将 ValidateStruct 返回的错误解析为 ValidationErrors，非校验错误返回 nil.
func Errors(err error) ValidationErrors {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}

	out := make(ValidationErrors, len(verrs))
	for _, fe := range verrs {
		msg := "failed on rule " + fe.Tag()
		if fe.Param() != "" {
			msg += "=" + fe.Param()
		}

		out[fe.Field()] = msg
	}

	return out
}

// ValidateStruct 对结构体执行完整校验，返回原始 error（可用 Errors 解析）.
func ValidateStruct(s any) error {
	lazyInit()

	return inst.Struct(s)
}

// ValidateVar 按规则对单个变量校验，例如: ValidateVar("abc", "required,email").
func ValidateVar(field any, tag string) error {
	lazyInit()

	return inst.Var(field, tag)
}

// RegisterAlias 包装 RegisterAlias，便于注册别名规则.
func RegisterAlias(alias, rules string) {
	lazyInit()

	inst.RegisterAlias(alias, rules)
}
