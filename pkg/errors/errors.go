// Package errors provides structured error handling for the flight ETL core.
package errors

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"runtime"
	"syscall"
)

// Kind is the closed error taxonomy. Every failure raised inside the
// pipeline is tagged with exactly one Kind at the point it is caught.
type Kind string

const (
	// KindTransient covers network faults, timeouts and other failures
	// that are expected to clear on their own.
	KindTransient Kind = "transient"
	// KindThrottling covers explicit rate-limit rejections from downstream.
	KindThrottling Kind = "throttling"
	// KindResource covers memory, pool and connection exhaustion.
	KindResource Kind = "resource"
	// KindDataQuality covers malformed or unparseable payloads.
	KindDataQuality Kind = "data_quality"
	// KindPermanent covers authorization and invalid-argument failures
	// that no amount of retrying can fix.
	KindPermanent Kind = "permanent"
	// KindConversion marks a structurally unreadable whole input. Always
	// fatal and never retried.
	KindConversion Kind = "conversion"
)

// Error is a structured error with a taxonomy kind and captured stack.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
	Details map[string]interface{}
	Stack   []StackFrame
}

// StackFrame is a single frame in the captured call stack.
type StackFrame struct {
	Function string
	File     string
	Line     int
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithDetail adds a key-value detail to the error.
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// New creates a new error with the given kind and message.
func New(kind Kind, message string) *Error {
	return &Error{
		Kind:    kind,
		Message: message,
		Stack:   captureStack(2),
	}
}

// Newf creates a new error with a formatted message.
func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		Stack:   captureStack(2),
	}
}

// Wrap wraps an existing error with a kind and additional context.
// Wrapping nil returns nil.
func Wrap(err error, kind Kind, message string) *Error {
	if err == nil {
		return nil
	}

	// Preserve the original stack when re-wrapping our own errors.
	var existing *Error
	if errors.As(err, &existing) {
		return &Error{
			Kind:    kind,
			Message: message,
			Cause:   err,
			Stack:   existing.Stack,
		}
	}

	return &Error{
		Kind:    kind,
		Message: message,
		Cause:   err,
		Stack:   captureStack(2),
	}
}

// KindOf returns the taxonomy kind of err. Errors that were never tagged
// are classified on the fly.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Classify(err)
}

// IsKind checks whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// IsRetryable reports whether the error kind admits any retry at all.
func IsRetryable(err error) bool {
	switch KindOf(err) {
	case KindTransient, KindThrottling, KindResource, KindDataQuality:
		return true
	default:
		return false
	}
}

// Classify maps an untagged error into the taxonomy. Classification is
// driven by error types and sentinels, not message text: callers that know
// the failure category tag it with New/Wrap at the catch site, and this is
// the fallback for errors that escaped from libraries untagged.
func Classify(err error) Kind {
	if err == nil {
		return ""
	}

	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return KindTransient
	case errors.Is(err, context.Canceled):
		return KindTransient
	case errors.Is(err, syscall.ECONNREFUSED),
		errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, syscall.EPIPE):
		return KindTransient
	case errors.Is(err, syscall.ENOMEM), errors.Is(err, syscall.EMFILE):
		return KindResource
	case errors.Is(err, os.ErrPermission):
		return KindPermanent
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return KindTransient
		}
		return KindTransient
	}

	return KindPermanent
}

// captureStack captures the current call stack.
func captureStack(skip int) []StackFrame {
	const maxFrames = 32
	frames := make([]StackFrame, 0, maxFrames)

	for i := skip; i < maxFrames+skip; i++ {
		pc, file, line, ok := runtime.Caller(i)
		if !ok {
			break
		}

		fn := runtime.FuncForPC(pc)
		if fn == nil {
			continue
		}

		frames = append(frames, StackFrame{
			Function: fn.Name(),
			File:     file,
			Line:     line,
		})
	}

	return frames
}
