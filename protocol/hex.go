package protocol

import (
	"encoding/binary"
	"encoding/hex"
)

// DecodeHex converts a hex-encoded response line into raw bytes.
// A single trailing terminator is ignored. Every remaining pair of ASCII
// hex characters yields one byte, so an empty line decodes to an empty slice.
func DecodeHex(line []byte) ([]byte, error) {
	if n := len(line); n > 0 && line[n-1] == Terminator {
		line = line[:n-1]
	}

	if len(line)%2 != 0 {
		return nil, &MalformedPayloadError{Message: "odd payload length", Length: len(line)}
	}

	out := make([]byte, len(line)/2)
	if _, err := hex.Decode(out, line); err != nil {
		return nil, &MalformedPayloadError{Message: "invalid hex payload", Length: len(line), Err: err}
	}
	return out, nil
}

// DecodeUint64 converts an 8-byte big-endian payload to a host integer.
// The agent sends addresses and timestamps most significant byte first.
func DecodeUint64(payload []byte) (uint64, error) {
	if len(payload) != AddressLength {
		return 0, &MalformedPayloadError{Message: "numeric payload must be 8 bytes", Length: len(payload)}
	}
	return binary.BigEndian.Uint64(payload), nil
}
