package signing

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
)

// ErrorKind is the error class reported to the host.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindCorruptData
	KindUserRejection
	KindP0
)

func (k ErrorKind) String() string {
	switch k {
	case KindCorruptData:
		return "corrupt_data"
	case KindUserRejection:
		return "user_rejection"
	case KindP0:
		return "p0"
	default:
		return "unknown"
	}
}

// Code is the numeric detail reported next to the ErrorKind.
type Code uint32

// Error codes reported to the host.
const (
	CodeInvalidRequest Code = iota + 1
	CodeInvalidData
	CodePrevTxnHashMismatch
	CodePrevTxnValueMismatch
	CodePrevTxnScriptMismatch
	CodePrevTxnReadFailure
	CodeRejected
	CodeP0Abort
	CodeP0Inactivity
	CodeResource
	CodeSigningFailed
	CodeWalletNotFound
)

var codeNames = map[Code]string{
	CodeInvalidRequest:        "INVALID_REQUEST",
	CodeInvalidData:           "INVALID_DATA",
	CodePrevTxnHashMismatch:   "PREV_TXN_HASH_MISMATCH",
	CodePrevTxnValueMismatch:  "PREV_TXN_VALUE_MISMATCH",
	CodePrevTxnScriptMismatch: "PREV_TXN_SCRIPT_MISMATCH",
	CodePrevTxnReadFailure:    "PREV_TXN_READ_FAILURE",
	CodeRejected:              "REJECTED",
	CodeP0Abort:               "P0_ABORT",
	CodeP0Inactivity:          "P0_INACTIVITY",
	CodeResource:              "RESOURCE",
	CodeSigningFailed:         "SIGNING_FAILED",
	CodeWalletNotFound:        "WALLET_NOT_FOUND",
}

func (c Code) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("CODE_%d", uint32(c))
}

// ErrRejected is the cause of a FlowError raised when the user declines.
var ErrRejected = errors.New("rejected by user")

// FlowError is a flow failure together with the (kind, code) pair reported
// to the host.
type FlowError struct {
	Kind  ErrorKind
	Code  Code
	Cause error
}

// NewFlowError wraps cause with a host-facing kind and code.
func NewFlowError(kind ErrorKind, code Code, cause error) *FlowError {
	return &FlowError{Kind: kind, Code: code, Cause: cause}
}

// InvalidData wraps a structural validation failure.
func InvalidData(cause error) *FlowError {
	return NewFlowError(KindCorruptData, CodeInvalidData, cause)
}

func (e *FlowError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("flow error [%s/%s]: %v", e.Kind, e.Code, e.Cause)
	}
	return fmt.Sprintf("flow error [%s/%s]", e.Kind, e.Code)
}

func (e *FlowError) Unwrap() error { return e.Cause }

// Classify maps any error returned inside a flow to its host-facing pair.
//
// Cancellation of the flow context is a P0 event and wins over any other
// classification: context.Canceled is a user abort and
// context.DeadlineExceeded an inactivity timeout. Errors that carry no
// classification are reported as unknown.
func Classify(err error) (ErrorKind, Code) {
	var fe *FlowError
	switch {
	case errors.Is(err, context.Canceled):
		return KindP0, CodeP0Abort
	case errors.Is(err, context.DeadlineExceeded):
		return KindP0, CodeP0Inactivity
	case errors.As(err, &fe):
		return fe.Kind, fe.Code
	case errors.Is(err, ErrRejected):
		return KindUserRejection, CodeRejected
	default:
		return KindUnknown, CodeSigningFailed
	}
}
