// Package types 定义上传授权相关的请求、结果与错误类型.
package types

import "time"

// Target 上传目标，单次请求内不可变.
type Target struct {
	Bucket string `json:"bucket" rule:"required,bucketname"` // 存储桶名称
	Key    string `json:"key"    rule:"required,objectkey"`  // 对象键
}

// PresignRequest 单个对象的上传授权请求.
type PresignRequest struct {
	Target

	ExpiresIn int `json:"expires_in" rule:"gt=0,max=604800"` // 授权有效期（秒），SigV4 最长 7 天
}

// Expires 返回有效期的 time.Duration 表示.
func (r *PresignRequest) Expires() time.Duration {
	return time.Duration(r.ExpiresIn) * time.Second
}

// ObjectInfo 存在性探测返回的对象元数据.
type ObjectInfo struct {
	Key          string            `json:"key"`
	Size         int64             `json:"size"`
	ETag         string            `json:"etag,omitempty"`
	ContentType  string            `json:"content_type,omitempty"`
	LastModified time.Time         `json:"last_modified"`
	VersionID    string            `json:"version_id,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"` // 用户自定义元数据
}
