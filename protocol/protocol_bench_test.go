package protocol

import (
	"strings"
	"testing"
)

func BenchmarkDecodeHex(b *testing.B) {
	tests := []struct {
		name  string
		input string
	}{
		{
			name:  "Address",
			input: "0000000804C00000\n",
		},
		{
			name:  "MaxTransfer",
			input: strings.Repeat("AB", DefaultMaximumTransferSize) + "\n",
		},
		{
			name:  "Framebuffer",
			input: strings.Repeat("FF", 100*1024) + "\n",
		},
	}

	for _, tt := range tests {
		line := []byte(tt.input)
		b.Run(tt.name, func(b *testing.B) {
			b.SetBytes(int64(len(line)))
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				if _, err := DecodeHex(line); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkCommands(b *testing.B) {
	data := make([]byte, DefaultMaximumTransferSize)
	jumps := []int64{0x4C1D2A0, 0x10, -0x8}

	b.Run("Peek", func(b *testing.B) {
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			Peek(Main, 0x4293D8B0, DefaultMaximumTransferSize)
		}
	})
	b.Run("Poke", func(b *testing.B) {
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			Poke(Heap, 0x4293D8B0, data)
		}
	})
	b.Run("PointerPeek", func(b *testing.B) {
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			PointerPeek(jumps, 8)
		}
	})
}
