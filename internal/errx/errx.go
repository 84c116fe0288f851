// Package errx composes sentinel errors with their causes so that
// callers can match on the sentinel via errors.Is while keeping the
// underlying error in the chain.
package errx

import "fmt"

// Wrap attaches cause to sentinel.
func Wrap(sentinel, cause error) error {
	return fmt.Errorf("%w: %w", sentinel, cause)
}

// With appends formatted detail to sentinel. The format string may use
// %w to wrap a cause.
func With(sentinel error, format string, args ...any) error {
	return fmt.Errorf("%w"+format, append([]any{sentinel}, args...)...)
}
