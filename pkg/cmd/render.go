package cmd

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/bytedance/sonic"

	"github.com/yeisme/s3presign/pkg/curl"
	"github.com/yeisme/s3presign/pkg/internal/types"
)

// presignOutput json 输出格式.
type presignOutput struct {
	State     types.State        `json:"state"`
	Bucket    string             `json:"bucket"`
	Key       string             `json:"key"`
	URL       string             `json:"url,omitempty"`
	Fields    map[string]string  `json:"fields,omitempty"`
	ExpiresAt *time.Time         `json:"expires_at,omitempty"`
	Curl      string             `json:"curl,omitempty"`
	Reason    types.DenialReason `json:"reason,omitempty"`
	Object    *types.ObjectInfo  `json:"object,omitempty"`
	Error     string             `json:"error,omitempty"`
}

// render 输出签发结果. text 模式下 Denied 只在 stderr 说明原因.
func render(stdout, stderr io.Writer, res *types.Result, format, file string) error {
	if format == "json" {
		return renderJSON(stdout, res, file)
	}

	if !res.Issued() {
		_, err := fmt.Fprintln(stderr, denialMessage(res))
		return err
	}

	desc := res.Descriptor

	fmt.Fprintf(stdout, "URL: %s\n", desc.URL)
	fmt.Fprintf(stdout, "Expires: %s\n", desc.ExpiresAt.Format(time.RFC3339))
	fmt.Fprintln(stdout, "Fields:")

	names := make([]string, 0, len(desc.Fields))
	for name := range desc.Fields {
		names = append(names, name)
	}

	sort.Strings(names)

	for _, name := range names {
		fmt.Fprintf(stdout, "  %s: %s\n", name, desc.Fields[name])
	}

	_, err := fmt.Fprintf(stdout, "\n%s\n", curl.Command(desc, curl.WithFile(file)))

	return err
}

func renderJSON(w io.Writer, res *types.Result, file string) error {
	out := presignOutput{
		State:  res.State,
		Bucket: res.Target.Bucket,
		Key:    res.Target.Key,
	}

	if res.Issued() {
		desc := res.Descriptor
		out.URL = desc.URL
		out.Fields = desc.Fields
		out.ExpiresAt = &desc.ExpiresAt
		out.Curl = curl.Command(desc, curl.WithFile(file))
	}

	if d := res.Denial; d != nil {
		out.Reason = d.Reason
		out.Object = d.Object

		if d.Cause != nil {
			out.Error = d.Cause.Error()
		}
	}

	b, err := sonic.ConfigStd.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}

	_, err = fmt.Fprintln(w, string(b))

	return err
}

func denialMessage(res *types.Result) string {
	t := res.Target

	if res.Denial == nil {
		return fmt.Sprintf("no upload authorization issued for %s/%s", t.Bucket, t.Key)
	}

	switch res.Denial.Reason {
	case types.DenialConflict:
		return fmt.Sprintf("denied: object %s/%s already exists", t.Bucket, t.Key)
	case types.DenialCheckFailure:
		return fmt.Sprintf("denied: could not check whether %s/%s exists: %v", t.Bucket, t.Key, res.Denial.Cause)
	default:
		return fmt.Sprintf("denied: %s", res.Denial.Reason)
	}
}
