package botbase

import (
	"context"
	"fmt"
	"math"

	"github.com/pior/botbase/protocol"
)

// Read reads length bytes at offset in the given address space.
// Reads larger than MaximumTransferSize are split into sequential chunks
// with a pacing delay between them; the result is reassembled in order.
func (c *Client) Read(ctx context.Context, space protocol.AddressSpace, offset uint64, length int) ([]byte, error) {
	if err := checkRange(space, offset, length); err != nil {
		return nil, err
	}
	if length == 0 {
		return []byte{}, nil
	}

	maxSize := c.config.MaximumTransferSize
	if length <= maxSize {
		return c.query(ctx, "read", protocol.Peek(space, offset, length), length)
	}

	result := make([]byte, length)
	for i := 0; i < length; i += maxSize {
		if i > 0 {
			if err := sleepContext(ctx, c.pacingDelay()); err != nil {
				return nil, err
			}
		}

		n := min(maxSize, length-i)
		chunk, err := c.query(ctx, "read", protocol.Peek(space, offset+uint64(i), n), n)
		if err != nil {
			return nil, err
		}
		copy(result[i:], chunk)
		c.stats.recordChunk()
	}
	return result, nil
}

// Write writes data at offset in the given address space.
// Writes are fire-and-forget: no response is read. Data larger than
// MaximumTransferSize is sent as sequential chunks with a pacing delay.
func (c *Client) Write(ctx context.Context, space protocol.AddressSpace, offset uint64, data []byte) error {
	if err := checkRange(space, offset, len(data)); err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}

	maxSize := c.config.MaximumTransferSize
	if len(data) <= maxSize {
		return c.send(ctx, "write", protocol.Poke(space, offset, data))
	}

	for i := 0; i < len(data); i += maxSize {
		if i > 0 {
			if err := sleepContext(ctx, c.pacingDelay()); err != nil {
				return err
			}
		}

		end := min(i+maxSize, len(data))
		if err := c.send(ctx, "write", protocol.Poke(space, offset+uint64(i), data[i:end])); err != nil {
			return err
		}
		c.stats.recordChunk()
	}
	return nil
}

// ReadMulti fetches several ranges with one command and returns their
// payloads concatenated in the order given.
func (c *Client) ReadMulti(ctx context.Context, space protocol.AddressSpace, ranges []protocol.Range) ([]byte, error) {
	if len(ranges) == 0 {
		return nil, fmt.Errorf("%w: no ranges", ErrInvalidLength)
	}

	total := 0
	for _, r := range ranges {
		if err := checkRange(space, r.Offset, r.Size); err != nil {
			return nil, err
		}
		total += r.Size
	}

	return c.query(ctx, "read_multi", protocol.PeekMulti(space, ranges), total)
}

func (c *Client) ReadBytes(ctx context.Context, offset uint32, length int) ([]byte, error) {
	return c.Read(ctx, protocol.Heap, uint64(offset), length)
}

func (c *Client) ReadBytesMain(ctx context.Context, offset uint64, length int) ([]byte, error) {
	return c.Read(ctx, protocol.Main, offset, length)
}

func (c *Client) ReadBytesAbsolute(ctx context.Context, offset uint64, length int) ([]byte, error) {
	return c.Read(ctx, protocol.Absolute, offset, length)
}

func (c *Client) ReadBytesMulti(ctx context.Context, ranges []protocol.Range) ([]byte, error) {
	return c.ReadMulti(ctx, protocol.Heap, ranges)
}

func (c *Client) ReadBytesMainMulti(ctx context.Context, ranges []protocol.Range) ([]byte, error) {
	return c.ReadMulti(ctx, protocol.Main, ranges)
}

func (c *Client) ReadBytesAbsoluteMulti(ctx context.Context, ranges []protocol.Range) ([]byte, error) {
	return c.ReadMulti(ctx, protocol.Absolute, ranges)
}

func (c *Client) WriteBytes(ctx context.Context, data []byte, offset uint32) error {
	return c.Write(ctx, protocol.Heap, uint64(offset), data)
}

func (c *Client) WriteBytesMain(ctx context.Context, data []byte, offset uint64) error {
	return c.Write(ctx, protocol.Main, offset, data)
}

func (c *Client) WriteBytesAbsolute(ctx context.Context, data []byte, offset uint64) error {
	return c.Write(ctx, protocol.Absolute, offset, data)
}

// checkRange rejects negative lengths and heap ranges crossing 4 GiB.
func checkRange(space protocol.AddressSpace, offset uint64, length int) error {
	if length < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidLength, length)
	}
	if space == protocol.Heap && length > 0 && offset+uint64(length)-1 > math.MaxUint32 {
		return fmt.Errorf("%w: heap 0x%X+%d", ErrOffsetOutOfRange, offset, length)
	}
	return nil
}
