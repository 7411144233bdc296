package protocol

import (
	"fmt"
	"strings"
)

// AddressSpace selects which region an offset is relative to.
type AddressSpace uint8

const (
	// Heap offsets are 32-bit and relative to the heap base of the running title.
	Heap AddressSpace = iota
	// Main offsets are 64-bit and relative to the main module (NSO) base.
	Main
	// Absolute offsets are raw 64-bit addresses.
	Absolute
)

func (s AddressSpace) String() string {
	switch s {
	case Heap:
		return "heap"
	case Main:
		return "main"
	case Absolute:
		return "absolute"
	default:
		return fmt.Sprintf("AddressSpace(%d)", uint8(s))
	}
}

// ParseAddressSpace parses the lowercase name returned by String.
func ParseAddressSpace(name string) (AddressSpace, error) {
	switch strings.ToLower(name) {
	case "heap":
		return Heap, nil
	case "main":
		return Main, nil
	case "absolute", "abs":
		return Absolute, nil
	}
	return 0, fmt.Errorf("unknown address space %q", name)
}

// Range is one (offset, size) pair of a multi-offset read.
type Range struct {
	Offset uint64
	Size   int
}

// Protocol delimiters
const (
	// Terminator ends every command and every response line
	Terminator = '\n'

	// Space separates command tokens
	Space = ' '
)

// Command opcodes
const (
	OpPeek              = "peek"
	OpPoke              = "poke"
	OpPeekMulti         = "peekMulti"
	OpPeekMain          = "peekMain"
	OpPokeMain          = "pokeMain"
	OpPeekMainMulti     = "peekMainMulti"
	OpPeekAbsolute      = "peekAbsolute"
	OpPokeAbsolute      = "pokeAbsolute"
	OpPeekAbsoluteMulti = "peekAbsoluteMulti"

	OpPointerPeek     = "pointerPeek"
	OpPointerPoke     = "pointerPoke"
	OpPointerAll      = "pointerAll"
	OpPointerRelative = "pointerRelative"

	OpGetMainNsoBase   = "getMainNsoBase"
	OpGetHeapBase      = "getHeapBase"
	OpGetTitleID       = "getTitleID"
	OpGetVersion       = "getVersion"
	OpGameInfo         = "game"
	OpIsProgramRunning = "isProgramRunning"
	OpGetUnixTime      = "getUnixTime"
	OpPixelPeek        = "pixelPeek"
)

// Transfer tunables recommended for sys-botbase over WiFi.
const (
	DefaultPort                = 6000
	DefaultMaximumTransferSize = 0x1C0
	DefaultDelayFactor         = 256
	DefaultBaseDelayMillis     = 64
	DefaultReceiveBufferSize   = 8192
)

// AddressLength is the payload size of numeric results.
const AddressLength = 8

// Maximum response lengths of the metadata queries, terminator included.
const (
	TitleIDLength        = 17
	VersionLength        = 10
	GameInfoLength       = 17
	ProgramRunningLength = 17
)

// ResponseLength returns the size of a hex-encoded response line carrying
// payloadLength raw bytes: two characters per byte plus the terminator.
func ResponseLength(payloadLength int) int {
	return 2*payloadLength + 1
}
