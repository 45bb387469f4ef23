package advisor

import (
	"errors"
	"fmt"
)

// Kind classifies why a remote call did not produce a usable result.
type Kind string

const (
	KindCredentialMissing Kind = "credential_missing"
	KindNetwork           Kind = "network"
	KindTimeout           Kind = "timeout"
	KindValidation        Kind = "validation"
)

var (
	ErrCredentialMissing = errors.New("remote credential not configured")
	ErrNetworkFailure    = errors.New("remote call failed")
	ErrTimeout           = errors.New("remote call timed out")
	ErrValidationFailure = errors.New("remote response failed validation")
)

func (k Kind) sentinel() error {
	switch k {
	case KindCredentialMissing:
		return ErrCredentialMissing
	case KindTimeout:
		return ErrTimeout
	case KindValidation:
		return ErrValidationFailure
	default:
		return ErrNetworkFailure
	}
}

// Error is the failure returned by every Advisor operation. It matches the
// sentinel for its Kind under errors.Is.
type Error struct {
	Kind   Kind
	Op     string
	Status int
	Err    error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Op, e.Kind.sentinel())
	if e.Status != 0 {
		msg += fmt.Sprintf(" (status %d)", e.Status)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	return target == e.Kind.sentinel()
}

// KindOf extracts the failure kind from err, or "" when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
