package botbase

import (
	"context"
	"fmt"

	"github.com/pior/botbase/protocol"
)

// PointerPeek reads size bytes at the address the jump chain resolves to.
// The chain is applied in order starting from the main module base.
func (c *Client) PointerPeek(ctx context.Context, size int, jumps []int64) ([]byte, error) {
	if len(jumps) == 0 {
		return nil, ErrEmptyPointerChain
	}
	if size < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLength, size)
	}
	return c.query(ctx, "pointer_peek", protocol.PointerPeek(jumps, size), size)
}

// PointerPoke writes data at the address the jump chain resolves to.
func (c *Client) PointerPoke(ctx context.Context, data []byte, jumps []int64) error {
	if len(jumps) == 0 {
		return ErrEmptyPointerChain
	}
	return c.send(ctx, "pointer_poke", protocol.PointerPoke(jumps, data))
}

// PointerAll resolves the jump chain to an absolute address.
func (c *Client) PointerAll(ctx context.Context, jumps []int64) (uint64, error) {
	if len(jumps) == 0 {
		return 0, ErrEmptyPointerChain
	}
	return c.queryUint64(ctx, "pointer_all", protocol.PointerAll(jumps))
}

// PointerRelative resolves the jump chain to an address relative to the
// last pointer in the chain.
func (c *Client) PointerRelative(ctx context.Context, jumps []int64) (uint64, error) {
	if len(jumps) == 0 {
		return 0, ErrEmptyPointerChain
	}
	return c.queryUint64(ctx, "pointer_relative", protocol.PointerRelative(jumps))
}

// queryUint64 reads an 8-byte big-endian numeric result.
func (c *Client) queryUint64(ctx context.Context, op string, cmd []byte) (uint64, error) {
	payload, err := c.query(ctx, op, cmd, protocol.AddressLength)
	if err != nil {
		return 0, err
	}
	return protocol.DecodeUint64(payload)
}
