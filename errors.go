package botbase

import (
	"context"
	"errors"
	"fmt"

	"github.com/pior/botbase/protocol"
)

var (
	ErrNotConnected      = errors.New("botbase: not connected")
	ErrRetriesExhausted  = errors.New("botbase: retries exhausted")
	ErrEmptyPointerChain = errors.New("botbase: pointer chain is empty")
	ErrOffsetOutOfRange  = errors.New("botbase: offset out of range for address space")
	ErrInvalidLength     = errors.New("botbase: invalid transfer length")
)

// ConnectionError wraps I/O errors from the socket.
//
// Common causes:
//   - Connection reset or closed by the device
//   - Deadline reached
//   - Write on a half-closed socket
//
// Retry handling: retried, with a reconnect before the final attempt
type ConnectionError struct {
	Op  string // write or read
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("botbase: connection error during %s: %v", e.Op, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

func (e *ConnectionError) ShouldRetry() bool {
	return true
}

// TransferError is the terminal error of an operation that failed on every
// attempt. It matches ErrRetriesExhausted and unwraps to the last failure.
type TransferError struct {
	Op       string
	Attempts int
	Err      error
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("botbase: %s failed after %d attempts: %v", e.Op, e.Attempts, e.Err)
}

func (e *TransferError) Unwrap() error {
	return e.Err
}

func (e *TransferError) Is(target error) bool {
	return target == ErrRetriesExhausted
}

// shouldRetry classifies the error of a single attempt.
func shouldRetry(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, ErrNotConnected) {
		return true
	}
	return protocol.ShouldRetry(err)
}
