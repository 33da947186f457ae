package pos

import (
	"errors"
	"fmt"
)

// Kind classifies a service failure. The HTTP layer maps each kind to a
// status code.
type Kind int

const (
	KindInternal Kind = iota
	KindInvalidInput
	KindMissingField
	KindDuplicateEmail
	KindNotFound
	KindCustomerNotFound
	KindProductNotFound
	KindTotalMismatch
	KindUploadRejected
)

var kindNames = map[Kind]string{
	KindInternal:         "Internal",
	KindInvalidInput:     "InvalidInput",
	KindMissingField:     "MissingField",
	KindDuplicateEmail:   "DuplicateEmail",
	KindNotFound:         "NotFound",
	KindCustomerNotFound: "CustomerNotFound",
	KindProductNotFound:  "ProductNotFound",
	KindTotalMismatch:    "TotalMismatch",
	KindUploadRejected:   "UploadRejected",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Error is returned by every service operation. Message is safe to show to
// API callers; Err carries the underlying cause for logs.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the kind of err, or KindInternal if err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func newError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func internal(msg string, err error) *Error {
	return &Error{Kind: KindInternal, Message: msg, Err: err}
}
