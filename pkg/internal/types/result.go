package types

// Outcome 存在性探测的结果类别.
type Outcome int

const (
	OutcomeNotFound   Outcome = iota // 对象不存在，可以授权
	OutcomeExists                    // 对象已存在
	OutcomeProbeError                // 探测失败（权限、网络、限流等）
)

func (o Outcome) String() string {
	switch o {
	case OutcomeExists:
		return "exists"
	case OutcomeNotFound:
		return "not_found"
	case OutcomeProbeError:
		return "probe_error"
	default:
		return "unknown"
	}
}

// ProbeResult 存在性探测的带标签结果，不会以 error 的形式返回.
type ProbeResult struct {
	Outcome Outcome
	Info    *ObjectInfo // Outcome 为 OutcomeExists 时非空
	Err     error       // Outcome 为 OutcomeProbeError 时非空
}

// State 单次请求的终态.
type State string

const (
	StateIssued State = "issued"
	StateDenied State = "denied"
	StateFailed State = "failed"
)

// DenialReason 拒绝授权的原因.
type DenialReason string

const (
	DenialConflict     DenialReason = "conflict"      // 目标键已有对象
	DenialCheckFailure DenialReason = "check_failure" // 存在性探测失败
)

// Denial 未签发授权但也不是硬错误的结果.
type Denial struct {
	Reason DenialReason `json:"reason"`
	Object *ObjectInfo  `json:"object,omitempty"`
	Cause  error        `json:"-"`
}

// Result 上传授权请求的结果，Descriptor 与 Denial 二选一.
type Result struct {
	State      State
	Target     Target
	Descriptor *Descriptor
	Denial     *Denial
}

// Issued 是否已签发授权.
func (r *Result) Issued() bool {
	return r != nil && r.State == StateIssued && r.Descriptor != nil
}
