package regalloc

import (
	"errors"
	"fmt"
)

// ErrMalformedInput is matched by every input validation failure.
var ErrMalformedInput = errors.New("malformed allocation input")

// ErrUnknownStrategy indicates an unrecognized strategy name
var ErrUnknownStrategy = errors.New("unknown allocation strategy")

// InputError describes why an allocation input was rejected.
type InputError struct {
	Value    ValueID
	HasValue bool
	Reason   string
}

func (e *InputError) Error() string {
	if e.HasValue {
		return fmt.Sprintf("%s: value %d: %s", ErrMalformedInput, e.Value, e.Reason)
	}
	return fmt.Sprintf("%s: %s", ErrMalformedInput, e.Reason)
}

func (e *InputError) Unwrap() error {
	return ErrMalformedInput
}

func valueError(v ValueID, format string, args ...any) error {
	return &InputError{Value: v, HasValue: true, Reason: fmt.Sprintf(format, args...)}
}

func inputError(format string, args ...any) error {
	return &InputError{Reason: fmt.Sprintf(format, args...)}
}

// VerifyKind names the property a verification failure violated.
type VerifyKind string

const (
	VerifySafety      VerifyKind = "safety"
	VerifyTotality    VerifyKind = "totality"
	VerifyBoundedness VerifyKind = "boundedness"
)

// VerifyError reports an allocation that breaks one of its guarantees.
type VerifyError struct {
	Kind   VerifyKind
	Detail string
}

func (e *VerifyError) Error() string {
	return fmt.Sprintf("allocation violates %s: %s", e.Kind, e.Detail)
}

// invariant panics when an internal consistency check fails.
func invariant(ok bool, format string, args ...any) {
	if !ok {
		panic("regalloc: invariant violated: " + fmt.Sprintf(format, args...))
	}
}
