package botbase

import (
	"bufio"
	"context"
	"net"
	"strconv"
	"time"

	"github.com/pior/botbase/protocol"
)

// Connected reports whether the client holds a socket.
// A failed read or write does not clear it; recovery goes through Reconnect.
func (c *Client) Connected() bool {
	return c.conn != nil
}

// Connect opens the connection to the agent. It is a no-op when already
// connected. A failure is logged and leaves the client disconnected;
// check Connected to learn the outcome.
func (c *Client) Connect(ctx context.Context) {
	if c.Connected() {
		c.logger.Info().Msg("already connected, skipping reconnection")
		return
	}

	c.logger.Info().Msg("connecting to device")
	conn, err := c.config.Dialer.DialContext(ctx, "tcp", c.addr)
	if err != nil {
		c.stats.recordConnectFailure()
		c.logger.Error().Err(err).Msg("error during connection")
		return
	}

	c.attach(conn)
	c.logger.Info().Msg("connected")
}

// Disconnect shuts down both directions of the socket and closes it.
// Errors are logged and swallowed: the client always ends up with no socket
// and is ready for a fresh Connect.
func (c *Client) Disconnect() {
	if !c.Connected() {
		c.logger.Info().Msg("already disconnected")
		return
	}

	c.logger.Info().Msg("disconnecting from device")
	defer func() {
		c.detach()
		c.logger.Info().Msg("disconnected and reset socket")
	}()

	if tc, ok := c.conn.(interface {
		CloseRead() error
		CloseWrite() error
	}); ok {
		if err := tc.CloseWrite(); err != nil {
			c.logger.Warn().Err(err).Msg("error during shutdown")
		}
		if err := tc.CloseRead(); err != nil {
			c.logger.Warn().Err(err).Msg("error during shutdown")
		}
	}
	if err := c.conn.Close(); err != nil {
		c.logger.Warn().Err(err).Msg("error during disconnection")
	}
}

// Reset drops any current connection, resolves the host and connects to the
// resolved addresses in order. It stops at the first address that fails,
// without trying the remaining ones.
func (c *Client) Reset(ctx context.Context) {
	if c.Connected() {
		c.Disconnect()
	}
	c.detach()

	c.logger.Info().Msg("connecting to device")
	addresses, err := c.config.Resolver.LookupHost(ctx, c.config.Host)
	if err != nil {
		c.stats.recordConnectFailure()
		c.logger.Error().Err(err).Str("host", c.config.Host).Msg("host resolution failed")
		return
	}

	port := strconv.Itoa(c.config.Port)
	for _, address := range addresses {
		conn, err := c.config.Dialer.DialContext(ctx, "tcp", net.JoinHostPort(address, port))
		if err != nil {
			c.stats.recordConnectFailure()
			c.logger.Debug().Err(err).Str("address", address).Msg("reset connection attempt failed")
			return
		}
		c.attach(conn)
		c.logger.Info().Str("address", address).Msg("connected")
		return
	}
}

// Reconnect disconnects, waits ReconnectDelay for the agent to settle and
// connects again. The retry policy calls it before the final attempt.
func (c *Client) Reconnect(ctx context.Context) {
	c.stats.recordReconnect()
	c.Disconnect()
	if err := sleepContext(ctx, c.config.ReconnectDelay); err != nil {
		c.logger.Warn().Err(err).Msg("reconnect interrupted")
		return
	}
	c.Connect(ctx)
}

func (c *Client) attach(conn net.Conn) {
	c.conn = conn
	c.reader = bufio.NewReader(conn)
	c.stats.recordConnect()
}

func (c *Client) detach() {
	c.conn = nil
	c.reader = nil
}

// applyDeadline bounds blocking socket calls by the context deadline.
func (c *Client) applyDeadline(ctx context.Context) {
	if deadline, ok := ctx.Deadline(); ok {
		c.conn.SetDeadline(deadline)
	} else {
		c.conn.SetDeadline(time.Time{})
	}
}

// write sends one command.
func (c *Client) write(ctx context.Context, cmd []byte) error {
	if c.conn == nil {
		return ErrNotConnected
	}
	c.applyDeadline(ctx)

	if _, err := c.conn.Write(cmd); err != nil {
		return &ConnectionError{Op: "write", Err: err}
	}
	c.stats.recordCommand(len(cmd))
	return nil
}

// readLine reads one response line, terminator included.
// The whole line is consumed even when it exceeds limit, so the stream
// stays aligned on the next response.
func (c *Client) readLine(ctx context.Context, limit int) ([]byte, error) {
	if c.conn == nil {
		return nil, ErrNotConnected
	}
	c.applyDeadline(ctx)

	line, err := c.reader.ReadSlice(protocol.Terminator)
	if err == bufio.ErrBufferFull {
		// Line exceeds buffer, fall back to ReadBytes (allocates)
		var rest []byte
		line = append([]byte(nil), line...)
		rest, err = c.reader.ReadBytes(protocol.Terminator)
		line = append(line, rest...)
	} else if err == nil {
		line = append([]byte(nil), line...)
	}
	if err != nil {
		return nil, &ConnectionError{Op: "read", Err: err}
	}

	if len(line) > limit {
		return nil, &protocol.ResponseLengthError{Expected: limit, Got: len(line)}
	}
	c.stats.recordRead(len(line))
	return line, nil
}

// readFixed sends cmd and decodes a response carrying exactly length bytes.
func (c *Client) readFixed(ctx context.Context, cmd []byte, length int) ([]byte, error) {
	if err := c.write(ctx, cmd); err != nil {
		return nil, err
	}

	expected := protocol.ResponseLength(length)
	line, err := c.readLine(ctx, expected)
	if err != nil {
		return nil, err
	}
	if len(line) < expected {
		return nil, &protocol.ResponseLengthError{Expected: expected, Got: len(line)}
	}

	payload, err := protocol.DecodeHex(line)
	if err != nil {
		c.stats.recordMalformed()
		c.logger.Error().Err(err).Int("length", len(line)).Msg("malformed payload received")
		return nil, err
	}
	return payload, nil
}

// readText sends cmd and returns the response line without its terminator.
func (c *Client) readText(ctx context.Context, cmd []byte, limit int) ([]byte, error) {
	if err := c.write(ctx, cmd); err != nil {
		return nil, err
	}

	line, err := c.readLine(ctx, limit)
	if err != nil {
		return nil, err
	}
	return line[:len(line)-1], nil
}
