// Package protocol implements the wire format of the sys-botbase agent.
//
// The protocol is line oriented ASCII over TCP. Every command is a single
// line terminated by '\n':
//
//	peek 0x0042F2C0 16\n
//	pokeMain 0x00000000004C5A1F 0x01FF\n
//	pointerAll 70803248 128 -16\n
//
// Fixed-length responses carry N payload bytes as 2N hex characters
// followed by '\n'. Numeric results (addresses, timestamps) are 8 bytes,
// most significant first. The framebuffer response has no known length and
// is delimited only by its trailing '\n'.
//
// This package is pure: builders return command bytes and decoders turn
// response lines into payloads. It performs no I/O.
//
// # Error Handling
//
//   - MalformedPayloadError: non-hex or odd-length payload, not retried
//   - ResponseLengthError: short (ErrIncompleteRead) or oversized line, retried
//
// Use ShouldRetry to classify an error.
package protocol
