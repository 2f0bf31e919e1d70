// Package exception provides the error types shared by every rlsgen component.
// A BatchError records where an error happened, which category it belongs to,
// and whether the generator's retry loop may try the operation again.
package exception

import (
	"context"
	"errors"
	"fmt"
	"net"
	"runtime"
	"strings"
)

// Error categories. A BatchError matches its category with errors.Is.
var (
	// ErrConfiguration marks missing or invalid startup configuration. Fatal, nothing is attempted.
	ErrConfiguration = errors.New("configuration error")
	// ErrConnection marks an unreachable database or a failed catalog query. Fatal for the run.
	ErrConnection = errors.New("connection error")
	// ErrEmptyResult marks a catalog fetch that returned no rows where rows were expected. Fatal.
	ErrEmptyResult = errors.New("empty result")
	// ErrCorpusLoad marks a reference document that could not be loaded.
	ErrCorpusLoad = errors.New("corpus load error")
	// ErrGeneration marks a terminal text-generation failure. Isolated to one job.
	ErrGeneration = errors.New("generation error")
	// ErrIO marks an artifact write failure. Isolated to one job.
	ErrIO = errors.New("io error")
	// ErrArtifactCollision marks two policies that normalise to the same artifact file name.
	// It is reported as an IO failure.
	ErrArtifactCollision = fmt.Errorf("%w: artifact name collision", ErrIO)
)

// BatchError is the error type produced by rlsgen components.
type BatchError struct {
	// Kind is one of the Err* categories above.
	Kind error
	// Module indicates the component where the error occurred (e.g., "catalog", "generator", "writer").
	Module string
	// Message is a concise description of the error.
	Message string
	// OriginalErr is the wrapped original error.
	OriginalErr error
	retryable   bool
	// StackTrace is the stack at construction time, for debug logging.
	StackTrace string
}

// NewBatchError creates a new BatchError.
func NewBatchError(kind error, module, message string, originalErr error, isRetryable bool) *BatchError {
	return &BatchError{
		Kind:        kind,
		Module:      module,
		Message:     message,
		OriginalErr: originalErr,
		retryable:   isRetryable,
		StackTrace:  captureStack(),
	}
}

// NewBatchErrorf creates a non-retryable BatchError with a formatted message.
// If the last argument is an error it becomes OriginalErr instead of a format operand.
func NewBatchErrorf(kind error, module, format string, a ...interface{}) *BatchError {
	var originalErr error
	if len(a) > 0 {
		if err, ok := a[len(a)-1].(error); ok {
			originalErr = err
			a = a[:len(a)-1]
		}
	}
	return &BatchError{
		Kind:        kind,
		Module:      module,
		Message:     fmt.Sprintf(format, a...),
		OriginalErr: originalErr,
		StackTrace:  captureStack(),
	}
}

func captureStack() string {
	buf := make([]byte, 2048)
	n := runtime.Stack(buf, false)
	return string(buf[:n])
}

// Error implements the error interface.
func (e *BatchError) Error() string {
	if e.OriginalErr != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Module, e.Message, e.OriginalErr)
	}
	return fmt.Sprintf("[%s] %s", e.Module, e.Message)
}

// Unwrap returns the original error for errors.Unwrap.
func (e *BatchError) Unwrap() error {
	return e.OriginalErr
}

// Is reports whether target is this error's category.
func (e *BatchError) Is(target error) bool {
	return e.Kind != nil && errors.Is(e.Kind, target)
}

// IsRetryable returns whether this error is retryable.
func (e *BatchError) IsRetryable() bool {
	return e.retryable
}

// IsTemporary reports whether err is worth retrying.
// A BatchError's own flag wins; otherwise network timeouts and connection resets count as temporary.
// Context cancellation never does.
func IsTemporary(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var be *BatchError
	if errors.As(err, &be) {
		return be.IsRetryable()
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "EOF")
}

// KindOf returns the category of err, or nil if err carries none.
func KindOf(err error) error {
	for _, kind := range []error{ErrConfiguration, ErrConnection, ErrEmptyResult, ErrCorpusLoad, ErrGeneration, ErrIO} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}

// ExtractErrorMessage returns the Message of a BatchError, or err.Error() for anything else.
func ExtractErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var be *BatchError
	if errors.As(err, &be) {
		return be.Message
	}
	return err.Error()
}
