package types

import (
	"sort"
	"strings"
	"time"
)

// 预签名 POST 表单中签名方案要求的字段名（统一小写）.
const (
	FieldKey        = "key"
	FieldAlgorithm  = "x-amz-algorithm"
	FieldCredential = "x-amz-credential"
	FieldDate       = "x-amz-date"
	FieldPolicy     = "policy"
	FieldSignature  = "x-amz-signature"
)

// KnownFields 按表单提交顺序排列的签名字段.
var KnownFields = []string{
	FieldKey,
	FieldAlgorithm,
	FieldCredential,
	FieldDate,
	FieldPolicy,
	FieldSignature,
}

// Descriptor 预签名上传表单描述：URL 加上必须原样提交的表单字段.
type Descriptor struct {
	URL       string            `json:"url"`
	Fields    map[string]string `json:"fields"`
	ExpiresAt time.Time         `json:"expires_at"` // 仅供展示，真正的过期时间在签名策略里
}

// NewDescriptor 构造 Descriptor，字段名统一转为小写.
func NewDescriptor(url string, fields map[string]string, expiresAt time.Time) *Descriptor {
	normalized := make(map[string]string, len(fields))
	for k, v := range fields {
		normalized[strings.ToLower(k)] = v
	}

	return &Descriptor{
		URL:       url,
		Fields:    normalized,
		ExpiresAt: expiresAt,
	}
}

// Field 返回字段值，不存在时为空串.
func (d *Descriptor) Field(name string) string {
	if d == nil || d.Fields == nil {
		return ""
	}

	return d.Fields[strings.ToLower(name)]
}

// ExtraFieldNames 返回 KnownFields 之外的字段名（已排序）.
func (d *Descriptor) ExtraFieldNames() []string {
	if d == nil {
		return nil
	}

	known := make(map[string]struct{}, len(KnownFields))
	for _, f := range KnownFields {
		known[f] = struct{}{}
	}

	var extra []string

	for name := range d.Fields {
		if _, ok := known[name]; ok {
			continue
		}

		extra = append(extra, name)
	}

	sort.Strings(extra)

	return extra
}
