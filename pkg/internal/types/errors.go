package types

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidRequest 请求参数违反约定（空桶名、空键、非正有效期等）.
	ErrInvalidRequest = errors.New("invalid upload authorization request")
	// ErrObjectNotFound 存储层的“对象不存在”信号.
	ErrObjectNotFound = errors.New("object not found")
	// ErrCircuitOpen 存储熔断器处于打开状态.
	ErrCircuitOpen = errors.New("storage circuit breaker is open")
)

// ProbeError 存在性探测失败，仅在策略为 fail 时返回给调用方.
type ProbeError struct {
	Target Target
	Err    error
}

func (e *ProbeError) Error() string {
	return fmt.Sprintf("check object %s/%s: %v", e.Target.Bucket, e.Target.Key, e.Err)
}

func (e *ProbeError) Unwrap() error { return e.Err }

// IssuanceError 预签名表单生成失败，总是返回给调用方.
type IssuanceError struct {
	Target Target
	Err    error
}

func (e *IssuanceError) Error() string {
	return fmt.Sprintf("presign post form for %s/%s: %v", e.Target.Bucket, e.Target.Key, e.Err)
}

func (e *IssuanceError) Unwrap() error { return e.Err }
