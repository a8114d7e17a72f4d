// Package errors provides error annotation with slog attributes and source
// locations, so that failures log with enough context to debug without
// stringly-typed breadcrumbs.
package errors

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"
)

// AnnotatedError wraps an error with a message, structured attributes, and
// the source location of the wrap site.
type AnnotatedError struct {
	err    error
	msg    string
	attrs  []slog.Attr
	source string
}

// Wrap annotates err with a message and optional slog attributes. A nil err
// is allowed; the result then carries only the message.
func Wrap(err error, msg string, attrs ...slog.Attr) *AnnotatedError {
	return &AnnotatedError{
		err:    err,
		msg:    msg,
		attrs:  attrs,
		source: callerSource(3), //nolint:mnd // runtime.Callers, callerSource, Wrap.
	}
}

// NewSentinel creates a comparable sentinel error without annotations.
func NewSentinel(msg string) error {
	return sentinelError(msg)
}

type sentinelError string

func (e sentinelError) Error() string {
	return string(e)
}

// Error implements the error interface.
func (e *AnnotatedError) Error() string {
	if e.err == nil {
		return e.msg
	}
	return e.msg + ": " + e.err.Error()
}

// Unwrap exposes the wrapped error for errors.Is and errors.As.
func (e *AnnotatedError) Unwrap() error {
	return e.err
}

// DecoratePanic converts a recovered panic value into an annotated error
// pointing at the recover site. Returns nil when recovered is nil.
func DecoratePanic(recovered any) error {
	if recovered == nil {
		return nil
	}
	return &AnnotatedError{
		err:    nil,
		msg:    fmt.Sprintf("panic: %v", recovered),
		attrs:  nil,
		source: callerSource(3), //nolint:mnd // runtime.Callers, callerSource, DecoratePanic.
	}
}

// SlogError renders err as a structured "error" group attribute with the
// message, the deepest annotated source location, and all annotations
// collected from the error chain.
func SlogError(err error) slog.Attr {
	if err == nil {
		return slog.Group("error", slog.String("message", "<nil>"))
	}

	var (
		annotations []slog.Attr
		source      string
	)
	collectAnnotations(err, &annotations, &source)

	args := []any{slog.String("message", err.Error())}
	if source != "" {
		args = append(args, slog.String("source", source))
	}
	if len(annotations) > 0 {
		groupArgs := make([]any, len(annotations))
		for i, attr := range annotations {
			groupArgs[i] = attr
		}
		args = append(args, slog.Group("annotations", groupArgs...))
	}
	return slog.Group("error", args...)
}

// collectAnnotations walks the error tree depth-first, gathering attrs from
// every AnnotatedError and remembering the deepest source location.
func collectAnnotations(err error, annotations *[]slog.Attr, source *string) {
	if err == nil {
		return
	}
	var annotated *AnnotatedError
	if errors.As(err, &annotated) {
		*annotations = append(*annotations, annotated.attrs...)
		if annotated.source != "" {
			*source = annotated.source
		}
		collectAnnotations(annotated.err, annotations, source)
		return
	}
	switch unwrapped := err.(type) { //nolint:errorlint // walking the chain, not matching.
	case interface{ Unwrap() error }:
		collectAnnotations(unwrapped.Unwrap(), annotations, source)
	case interface{ Unwrap() []error }:
		for _, joined := range unwrapped.Unwrap() {
			collectAnnotations(joined, annotations, source)
		}
	}
}

// callerSource resolves the caller's file base name and line, e.g. "main.go:42".
func callerSource(skip int) string {
	pc := make([]uintptr, 1)
	if runtime.Callers(skip, pc) == 0 {
		return ""
	}
	frame, _ := runtime.CallersFrames(pc).Next()
	if frame.File == "" {
		return ""
	}
	return fmt.Sprintf("%s:%d", filepath.Base(frame.File), frame.Line)
}

// Stdlib re-exports so call sites only need one errors import.

// New calls [errors.New].
func New(msg string) error {
	return errors.New(msg)
}

// Is calls [errors.Is].
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As calls [errors.As].
func As(err error, target any) bool {
	return errors.As(err, target)
}

// Join calls [errors.Join].
func Join(errs ...error) error {
	return errors.Join(errs...)
}

// Unwrap calls [errors.Unwrap].
func Unwrap(err error) error {
	return errors.Unwrap(err)
}
