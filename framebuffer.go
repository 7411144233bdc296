package botbase

import (
	"context"
	"time"

	"github.com/zeebo/xxh3"

	"github.com/pior/botbase/protocol"
)

// Framebuffer is a captured screen snapshot.
type Framebuffer struct {
	Data       []byte // JPEG bytes as sent by the agent
	Checksum   uint64 // xxh3 hash of Data, zero for an empty capture
	CapturedAt time.Time
}

// Empty reports whether the capture carries no image.
func (f Framebuffer) Empty() bool {
	return len(f.Data) == 0
}

// PixelPeek captures the framebuffer. The trigger command is retried like
// any write; the response has no known length and is read until its
// terminator. Socket errors and malformed payloads are logged and yield an
// empty result with a nil error. Only cancellation is returned as an error.
func (c *Client) PixelPeek(ctx context.Context) ([]byte, error) {
	if err := c.send(ctx, "pixel_peek", protocol.PixelPeek()); err != nil {
		return nil, err
	}
	if err := sleepContext(ctx, c.settleDelay()); err != nil {
		return nil, err
	}

	data, err := c.flexRead(ctx)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return []byte{}, nil
	}

	result, err := protocol.DecodeHex(data)
	if err != nil {
		c.stats.recordMalformed()
		c.logger.Error().Err(err).Msg("malformed screenshot data received")
		return []byte{}, nil
	}
	return result, nil
}

// CaptureFramebuffer captures the framebuffer and fingerprints it.
func (c *Client) CaptureFramebuffer(ctx context.Context) (Framebuffer, error) {
	data, err := c.PixelPeek(ctx)
	if err != nil {
		return Framebuffer{}, err
	}

	fb := Framebuffer{Data: data, CapturedAt: time.Now()}
	if len(data) > 0 {
		fb.Checksum = xxh3.Hash(data)
	}
	return fb, nil
}

// flexRead drains the socket in bursts until the accumulated data ends with
// the terminator. Each read is bounded by ReceiveTimeout and followed by the
// pacing delay. A socket error returns nil data and a nil error; a
// cancelled context returns the context error.
func (c *Client) flexRead(ctx context.Context) ([]byte, error) {
	if c.conn == nil {
		c.logger.Error().Err(ErrNotConnected).Msg("socket exception thrown while receiving data")
		return nil, nil
	}
	defer c.conn.SetReadDeadline(time.Time{})

	var buf []byte
	chunk := make([]byte, c.config.ReceiveBufferSize)
	for {
		c.conn.SetReadDeadline(time.Now().Add(c.config.ReceiveTimeout))
		n, err := c.reader.Read(chunk)
		buf = append(buf, chunk[:n]...)
		if err != nil {
			c.logger.Error().Err(err).Int("received", len(buf)).Msg("socket exception thrown while receiving data")
			return nil, nil
		}
		c.stats.recordRead(n)

		if err := sleepContext(ctx, c.pacingDelay()); err != nil {
			return nil, err
		}

		if len(buf) > 0 && buf[len(buf)-1] == protocol.Terminator {
			return buf, nil
		}
	}
}
