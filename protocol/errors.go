package protocol

import (
	"errors"
	"fmt"
)

// Error types for botbase protocol responses.
// Each type reports through ShouldRetry whether resending the same command
// can reasonably succeed.

// ErrIncompleteRead is matched by a ResponseLengthError for a line that
// ended before the expected number of bytes arrived.
var ErrIncompleteRead = errors.New("botbase: incomplete data read from the socket")

// MalformedPayloadError is returned when a response line is not valid hex.
//
// Common causes:
//   - Odd number of hex characters
//   - Non-hex characters (an agent error string, a desynchronized stream)
//
// Retry handling: not retried, surfaced to the caller
type MalformedPayloadError struct {
	Message string
	Length  int   // payload length without terminator
	Err     error // underlying decoder error, if any
}

func (e *MalformedPayloadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed payload (%d bytes): %s: %v", e.Length, e.Message, e.Err)
	}
	return fmt.Sprintf("malformed payload (%d bytes): %s", e.Length, e.Message)
}

func (e *MalformedPayloadError) Unwrap() error {
	return e.Err
}

// ShouldRetry returns false - the agent answered, the answer is unusable
func (e *MalformedPayloadError) ShouldRetry() bool {
	return false
}

// ResponseLengthError is returned when a response line does not have the
// length the command guarantees.
//
// Retry handling: retried, the line was consumed up to its terminator so
// the stream is still aligned for the next command
type ResponseLengthError struct {
	Expected int
	Got      int
}

func (e *ResponseLengthError) Error() string {
	if e.Got < e.Expected {
		return fmt.Sprintf("%v: got %d of %d bytes", ErrIncompleteRead, e.Got, e.Expected)
	}
	return fmt.Sprintf("botbase: oversized response: got %d bytes, expected %d", e.Got, e.Expected)
}

// Is reports short reads as ErrIncompleteRead.
func (e *ResponseLengthError) Is(target error) bool {
	return target == ErrIncompleteRead && e.Got < e.Expected
}

// ShouldRetry returns true - length mismatches are transient transport faults
func (e *ResponseLengthError) ShouldRetry() bool {
	return true
}

// RetryClassifier is implemented by errors that know whether the failed
// operation may be attempted again.
type RetryClassifier interface {
	error
	ShouldRetry() bool
}

// ShouldRetry reports whether err describes a transient failure.
//
// Returns false for nil and MalformedPayloadError, true for
// ResponseLengthError. Errors that do not implement RetryClassifier are
// treated as transport failures and retried.
func ShouldRetry(err error) bool {
	if err == nil {
		return false
	}

	var e RetryClassifier
	if errors.As(err, &e) {
		return e.ShouldRetry()
	}

	return true
}
