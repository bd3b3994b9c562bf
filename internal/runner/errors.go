package runner

import "fmt"

// Kind classifies a terminal failure.
type Kind int

const (
	KindValidation Kind = iota
	KindAuthentication
	KindFetch
	KindDownload
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuthentication:
		return "authentication"
	case KindFetch:
		return "fetch"
	case KindDownload:
		return "download"
	default:
		return "unknown"
	}
}

func (k Kind) prefix() string {
	switch k {
	case KindAuthentication:
		return "Login failed"
	case KindFetch:
		return "Failed to get activities"
	case KindDownload:
		return "Failed to download activity"
	default:
		return ""
	}
}

// Error is the failure returned by Run. Every Error ends the process with
// exit code 1.
type Error struct {
	Kind  Kind
	Cause error
}

func (e *Error) Error() string {
	prefix := e.Kind.prefix()
	if prefix == "" {
		return e.Cause.Error()
	}
	return fmt.Sprintf("%s: %v", prefix, e.Cause)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Cause
}

func newError(kind Kind, cause error) *Error {
	return &Error{Kind: kind, Cause: cause}
}
