package errors

import (
	stderrors "errors"
	"fmt"
	"os"

	"github.com/julianstephens/stronghabit/internal/logger"
)

// Error kinds. Match them with errors.Is.
var (
	ErrValidation         = stderrors.New("validation failed")
	ErrNotFound           = stderrors.New("not found")
	ErrStorage            = stderrors.New("storage error")
	ErrStorageRead        = fmt.Errorf("%w: stored document is unreadable", ErrStorage)
	ErrNoData             = stderrors.New("no data to back up")
	ErrFileNotFound       = stderrors.New("file not found")
	ErrInvalidFormat      = fmt.Errorf("%w: invalid backup format", ErrValidation)
	ErrSharingUnavailable = stderrors.New("sharing is not available on this platform")
	ErrConnection         = stderrors.New("connection failed")
)

// Error carries a kind from the taxonomy above, the operation that failed,
// a human readable message and the underlying cause.
type Error struct {
	Kind error
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = e.Kind.Error()
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// New builds an *Error of the given kind.
func New(kind error, op, msg string) error {
	return &Error{Kind: kind, Op: op, Msg: msg}
}

// Wrap builds an *Error of the given kind around cause.
// A nil cause returns nil.
func Wrap(kind error, op, msg string, cause error) error {
	if cause == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Msg: msg, Err: cause}
}

func Validation(op, format string, args ...interface{}) error {
	return New(ErrValidation, op, fmt.Sprintf(format, args...))
}

func NotFound(op, what, id string) error {
	return New(ErrNotFound, op, fmt.Sprintf("%s %q not found", what, id))
}

func Storage(op string, cause error) error {
	return Wrap(ErrStorage, op, "storage operation failed", cause)
}

func FileNotFound(op, name string) error {
	return New(ErrFileNotFound, op, fmt.Sprintf("file %q not found", name))
}

func InvalidFormat(op, format string, args ...interface{}) error {
	return New(ErrInvalidFormat, op, fmt.Sprintf(format, args...))
}

// Is reports whether any error in err's tree matches target.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// Format formats an error message with a consistent "Error: " prefix
func Format(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Error: %v", err)
}

// Formatf formats an error message with a consistent "Error: " prefix using a format string
func Formatf(format string, args ...interface{}) string {
	return fmt.Sprintf("Error: "+format, args...)
}

// Fatal logs an error and exits the program with exit code 1
func Fatal(err error) {
	if err != nil {
		logger.Error("Command execution failed", "error", err)
		fmt.Fprintf(os.Stderr, "%s\n", Format(err))
		os.Exit(1)
	}
}

// Fatalf logs and formats an error message, then exits the program with exit code 1
func Fatalf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	logger.Error("Command execution failed", "error", msg)
	fmt.Fprintf(os.Stderr, "%s\n", Formatf(format, args...))
	os.Exit(1)
}
