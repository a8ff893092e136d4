// Package failure classifies the errors a run can produce.
//
// Fatal kinds stop the run before (or instead of) touching the profile.
// Non-fatal kinds are caught at the smallest enclosing scope and only ever
// surface in logs.
package failure

import (
	"errors"
	"fmt"
)

// Kind categorizes a failure
type Kind string

const (
	// Fatal
	KindConfiguration Kind = "CONFIGURATION"
	KindSourceRead    Kind = "SOURCE_READ"
	KindSession       Kind = "SESSION"

	// Non-fatal
	KindResolutionMiss Kind = "RESOLUTION_MISS"
	KindExtractionMiss Kind = "EXTRACTION_MISS"
	KindNavigation     Kind = "NAVIGATION"
)

// Fatal reports whether a failure of this kind terminates the run
func (k Kind) Fatal() bool {
	switch k {
	case KindConfiguration, KindSourceRead, KindSession:
		return true
	}
	return false
}

// Error is a classified failure
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	} else if e.Err != nil {
		msg = msg + ": " + e.Err.Error()
	}
	if e.Op == "" {
		return fmt.Sprintf("[%s] %s", e.Kind, msg)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Kind, e.Op, msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a classified failure without a cause
func New(kind Kind, op, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message}
}

// Wrap classifies err. A nil err yields nil.
func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// Wrapf classifies err with an additional message
func Wrapf(kind Kind, op string, err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf returns the kind of the first classified failure in err's chain,
// or "" when err carries none.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}

// IsFatal reports whether err must terminate the run
func IsFatal(err error) bool {
	return KindOf(err).Fatal()
}

// Is reports whether err carries a failure of the given kind
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
