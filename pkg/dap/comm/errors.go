package comm

import (
	"errors"
	"fmt"
)

// Kind classifies a failure so callers can react without parsing messages.
type Kind int

// Error kinds.
const (
	// ValidationError indicates arguments out of range. Nothing was sent.
	ValidationError Kind = iota + 1
	// TransportError indicates the byte channel failed: open, write,
	// read, timeout or short read.
	TransportError
	// ProtocolError indicates a well-sized response with a wrong header.
	ProtocolError
	// ChecksumError indicates a response checksum or dump sum mismatch.
	ChecksumError
	// CorruptDumpError indicates a dump length above the limit, or a dump
	// stream that ended before the checksum could be evaluated.
	CorruptDumpError
)

var kindNames = map[Kind]string{
	ValidationError:  "validation error",
	TransportError:   "transport error",
	ProtocolError:    "protocol error",
	ChecksumError:    "checksum error",
	CorruptDumpError: "corrupt dump",
}

// String implements fmt.Stringer.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("error kind %d", int(k))
}

// Error implements error so a Kind can be the target of errors.Is.
func (k Kind) Error() string {
	return k.String()
}

var (
	// ErrShortRead indicates fewer bytes than requested arrived before
	// the read timeout expired.
	ErrShortRead = errors.New("short read")
	// ErrClosed indicates the transport or session has been closed.
	ErrClosed = errors.New("closed")
)

// Error is the failure type returned by all DAP operations.
type Error struct {
	Kind Kind
	// Op is the operation that failed, e.g. "read", "write", "dump".
	Op  string
	Msg string
	Err error
}

// Error implements error.
func (e *Error) Error() string {
	msg := "dap"
	if e.Op != "" {
		msg += " " + e.Op
	}
	msg += ": " + e.Kind.String()
	if e.Msg != "" {
		msg += ": " + e.Msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches a Kind target, e.g. errors.Is(err, comm.ChecksumError).
func (e *Error) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && k == e.Kind
}

// NewError creates an Error wrapping a cause.
func NewError(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Errorf creates an Error with a formatted message.
func Errorf(kind Kind, op string, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// KindOf extracts the Kind of err, or 0 if err is not from this package.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
