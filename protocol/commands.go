package protocol

import (
	"strconv"
)

const hexDigits = "0123456789ABCDEF"

// Command builders return the exact ASCII bytes expected by the agent,
// terminator included. They never fail: callers are responsible for
// passing non-empty jump chains and offsets that fit the address space.

// Peek builds a fixed-offset read of size bytes.
func Peek(space AddressSpace, offset uint64, size int) []byte {
	b := make([]byte, 0, 40)
	b = append(b, peekOp(space)...)
	b = append(b, Space)
	b = appendAddress(b, space, offset)
	b = append(b, Space)
	b = strconv.AppendInt(b, int64(size), 10)
	return append(b, Terminator)
}

// Poke builds a fixed-offset write of data.
func Poke(space AddressSpace, offset uint64, data []byte) []byte {
	b := make([]byte, 0, 32+2*len(data))
	b = append(b, pokeOp(space)...)
	b = append(b, Space)
	b = appendAddress(b, space, offset)
	b = append(b, Space)
	b = AppendHex(b, data)
	return append(b, Terminator)
}

// PeekMulti builds a single command reading every range in order.
// The response carries the payloads concatenated in the same order.
func PeekMulti(space AddressSpace, ranges []Range) []byte {
	b := make([]byte, 0, 24+len(ranges)*24)
	b = append(b, peekMultiOp(space)...)
	for _, r := range ranges {
		b = append(b, Space)
		b = appendAddress(b, space, r.Offset)
		b = append(b, Space)
		b = strconv.AppendInt(b, int64(r.Size), 10)
	}
	return append(b, Terminator)
}

// PointerPeek reads size bytes at the address the jump chain resolves to.
func PointerPeek(jumps []int64, size int) []byte {
	b := append([]byte(OpPointerPeek), Space)
	b = strconv.AppendInt(b, int64(size), 10)
	b = appendJumps(b, jumps)
	return append(b, Terminator)
}

// PointerPoke writes data at the address the jump chain resolves to.
func PointerPoke(jumps []int64, data []byte) []byte {
	b := append([]byte(OpPointerPoke), Space)
	b = AppendHex(b, data)
	b = appendJumps(b, jumps)
	return append(b, Terminator)
}

// PointerAll resolves the chain and returns the final absolute address.
func PointerAll(jumps []int64) []byte {
	b := appendJumps([]byte(OpPointerAll), jumps)
	return append(b, Terminator)
}

// PointerRelative resolves the chain to an address relative to the heap.
func PointerRelative(jumps []int64) []byte {
	b := appendJumps([]byte(OpPointerRelative), jumps)
	return append(b, Terminator)
}

func GetMainNsoBase() []byte { return simple(OpGetMainNsoBase) }
func GetHeapBase() []byte    { return simple(OpGetHeapBase) }
func GetTitleID() []byte     { return simple(OpGetTitleID) }
func GetVersion() []byte     { return simple(OpGetVersion) }
func GetUnixTime() []byte    { return simple(OpGetUnixTime) }
func PixelPeek() []byte      { return simple(OpPixelPeek) }

// GameInfo queries a named field of the running title (e.g. "version", "rating").
func GameInfo(field string) []byte {
	b := append([]byte(OpGameInfo), Space)
	b = append(b, field...)
	return append(b, Terminator)
}

// IsProgramRunning asks whether the program with the given id is running.
// Unlike addresses the agent expects lowercase hex here.
func IsProgramRunning(pid uint64) []byte {
	b := append([]byte(OpIsProgramRunning), Space, '0', 'x')
	s := strconv.FormatUint(pid, 16)
	for i := len(s); i < 16; i++ {
		b = append(b, '0')
	}
	b = append(b, s...)
	return append(b, Terminator)
}

// AppendHex appends "0x" followed by the uppercase hex encoding of data.
func AppendHex(dst, data []byte) []byte {
	dst = append(dst, '0', 'x')
	for _, v := range data {
		dst = append(dst, hexDigits[v>>4], hexDigits[v&0x0F])
	}
	return dst
}

func simple(op string) []byte {
	return append([]byte(op), Terminator)
}

func appendJumps(b []byte, jumps []int64) []byte {
	for _, j := range jumps {
		b = append(b, Space)
		b = strconv.AppendInt(b, j, 10)
	}
	return b
}

// appendAddress writes 0x-prefixed, zero padded uppercase hex: 8 digits for
// heap offsets and 16 for main and absolute addresses.
func appendAddress(b []byte, space AddressSpace, v uint64) []byte {
	width := 16
	if space == Heap {
		width = 8
		v &= 0xFFFFFFFF
	}
	b = append(b, '0', 'x')
	for shift := (width - 1) * 4; shift >= 0; shift -= 4 {
		b = append(b, hexDigits[(v>>uint(shift))&0x0F])
	}
	return b
}

func peekOp(space AddressSpace) string {
	switch space {
	case Main:
		return OpPeekMain
	case Absolute:
		return OpPeekAbsolute
	default:
		return OpPeek
	}
}

func pokeOp(space AddressSpace) string {
	switch space {
	case Main:
		return OpPokeMain
	case Absolute:
		return OpPokeAbsolute
	default:
		return OpPoke
	}
}

func peekMultiOp(space AddressSpace) string {
	switch space {
	case Main:
		return OpPeekMainMulti
	case Absolute:
		return OpPeekAbsoluteMulti
	default:
		return OpPeekMulti
	}
}
