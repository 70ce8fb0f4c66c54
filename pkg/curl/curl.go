// Package curl 把预签名上传表单渲染为可直接执行的 curl 命令.
package curl

import (
	"strings"

	"github.com/yeisme/s3presign/pkg/internal/types"
)

// FileField 上传文件对应的表单字段名. S3 会忽略 file 之后的字段，必须放在最后.
const FileField = "file"

// curl -F 会把以 @ 或 < 开头的值当作文件读取，并解析 ;type= 等后缀，
// 签名字段必须用 --form-string 原样提交.
const (
	formString = "--form-string"
	formFile   = "-F"
)

// Field 表单中的一个字段.
type Field struct {
	Name  string
	Value string
}

type options struct {
	file string
}

// Option 渲染选项.
type Option func(*options)

// WithFile 指定要上传的本地文件路径，默认与对象键相同.
func WithFile(path string) Option {
	return func(o *options) {
		o.file = path
	}
}

// Fields 按提交顺序返回表单字段：签名字段（缺失时为空）、其余字段（按名称排序）.
// 不包含 file 字段.
func Fields(desc *types.Descriptor) []Field {
	extra := desc.ExtraFieldNames()
	fields := make([]Field, 0, len(types.KnownFields)+len(extra))

	for _, name := range types.KnownFields {
		fields = append(fields, Field{Name: name, Value: desc.Field(name)})
	}

	for _, name := range extra {
		fields = append(fields, Field{Name: name, Value: desc.Field(name)})
	}

	return fields
}

// Command 渲染多行 curl 命令，例如:
//
//	curl -X POST "http://localhost:9000/s3presign" \
//	  --form-string "key=1677634244.gz" \
//	  ...
//	  -F "file=@1677634244.gz"
func Command(desc *types.Descriptor, opts ...Option) string {
	o := options{file: desc.Field(types.FieldKey)}
	for _, opt := range opts {
		opt(&o)
	}

	var url string
	if desc != nil {
		url = desc.URL
	}

	var b strings.Builder

	b.WriteString("curl -X POST ")
	b.WriteString(quote(url))

	for _, f := range Fields(desc) {
		writeForm(&b, formString, f.Name+"="+f.Value)
	}

	writeForm(&b, formFile, FileField+"=@"+filePath(o.file))

	return b.String()
}

func writeForm(b *strings.Builder, flag, value string) {
	b.WriteString(" \\\n  ")
	b.WriteString(flag)
	b.WriteString(" ")
	b.WriteString(quote(value))
}

var curlQuoter = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// filePath 文件名含 ; , 或引号时按 curl 的规则加双引号，避免被解析为 type/filename 等参数.
func filePath(path string) string {
	if !strings.ContainsAny(path, `;,"\`) {
		return path
	}

	return `"` + curlQuoter.Replace(path) + `"`
}

var shellEscaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	`$`, `\$`,
	"`", "\\`",
)

// quote 生成 POSIX shell 双引号字符串.
func quote(s string) string {
	return `"` + shellEscaper.Replace(s) + `"`
}
