package sram

import "fmt"

// ErrCode enumerates the error taxonomy from the spec's error-handling
// design: configuration failures (fail fast at SetParams) and usage-order
// violations (fail fast as invariant errors). Data conditions, like a
// clamped trace latency, are never errors — they're logged at Warn and
// substituted.
type ErrCode string

const (
	// Configuration errors. The first two are raised by SetParams;
	// ErrCodeMissingTraceFile is raised by PrintTrace when the trace file
	// cannot be created or written.
	ErrCodeInvalidActiveFraction ErrCode = "invalid active buffer fraction"
	ErrCodeBandwidthNotDivisible ErrCode = "backing bandwidth not divisible by bank count"
	ErrCodeMissingTraceFile      ErrCode = "missing trace file"

	// Usage-order errors: calling an operation before its prerequisite.
	ErrCodeNotReady       ErrCode = "buffer not ready"
	ErrCodeBankOutOfRange ErrCode = "bank index out of range"
	ErrCodeTraceNotReady  ErrCode = "no trace produced yet"
)

// Error is a structured sram error: the failing operation, a taxonomy code,
// a human-readable message, and (for invariant violations surfaced from
// internal/doublebuffer) the wrapped cause.
type Error struct {
	Op    string
	Code  ErrCode
	Msg   string
	Inner error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = string(e.Code)
	}
	if e.Op != "" {
		return fmt.Sprintf("sram: %s: %s", e.Op, msg)
	}
	return fmt.Sprintf("sram: %s", msg)
}

// Unwrap supports errors.Is/errors.As against the wrapped cause.
func (e *Error) Unwrap() error {
	return e.Inner
}

// Is supports errors.Is comparison by error code, so callers can write
// errors.Is(err, &Error{Code: ErrCodeNotReady}) without needing Msg/Op/Inner
// to match.
func (e *Error) Is(target error) bool {
	te, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == te.Code
}

func newError(op string, code ErrCode, msg string) *Error {
	return &Error{Op: op, Code: code, Msg: msg}
}

// wrapInvariant surfaces an internal/doublebuffer usage-order error (e.g.
// ErrNotReady) as a root-package Error with the matching code.
func wrapInvariant(op string, cause error) error {
	return &Error{Op: op, Code: ErrCodeNotReady, Msg: cause.Error(), Inner: cause}
}
