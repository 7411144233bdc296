package botbase

import (
	"context"
	"strconv"
	"strings"

	"github.com/pior/botbase/protocol"
)

// MainNsoBase returns the load address of the running title's main module.
func (c *Client) MainNsoBase(ctx context.Context) (uint64, error) {
	return c.queryUint64(ctx, "main_base", protocol.GetMainNsoBase())
}

// HeapBase returns the heap base address of the running title.
func (c *Client) HeapBase(ctx context.Context) (uint64, error) {
	return c.queryUint64(ctx, "heap_base", protocol.GetHeapBase())
}

// UnixTime returns the device clock as seconds since the Unix epoch.
func (c *Client) UnixTime(ctx context.Context) (int64, error) {
	v, err := c.queryUint64(ctx, "unix_time", protocol.GetUnixTime())
	return int64(v), err
}

// TitleID returns the title id of the running program as 16 hex digits.
func (c *Client) TitleID(ctx context.Context) (string, error) {
	text, err := c.ReadRaw(ctx, protocol.GetTitleID(), protocol.TitleIDLength)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(trimPadding(text)), nil
}

// BotbaseVersion returns the agent version string (up to 9 characters).
func (c *Client) BotbaseVersion(ctx context.Context) (string, error) {
	text, err := c.ReadRaw(ctx, protocol.GetVersion(), protocol.VersionLength)
	if err != nil {
		return "", err
	}
	return trimPadding(text), nil
}

// GameInfo returns a named field of the running title, such as "version".
func (c *Client) GameInfo(ctx context.Context, field string) (string, error) {
	text, err := c.ReadRaw(ctx, protocol.GameInfo(field), protocol.GameInfoLength)
	if err != nil {
		return "", err
	}
	return strings.Trim(string(text), "\x00\n"), nil
}

// IsProgramRunning reports whether the program pid is running. The agent
// answers with a number; anything that is not the unsigned integer 1 is false.
// The answer is parsed as decimal, so leading zeros such as "01" mean running.
func (c *Client) IsProgramRunning(ctx context.Context, pid uint64) (bool, error) {
	text, err := c.ReadRaw(ctx, protocol.IsProgramRunning(pid), protocol.ProgramRunningLength)
	if err != nil {
		return false, err
	}
	return parseRunning(text), nil
}

// ReadRaw sends a caller-built command and returns the text response
// without its terminator. maxLength bounds the response line, terminator
// included.
func (c *Client) ReadRaw(ctx context.Context, cmd []byte, maxLength int) ([]byte, error) {
	return c.execute(ctx, "read_raw", func() ([]byte, error) {
		return c.readText(ctx, cmd, maxLength)
	})
}

// SendRaw sends a caller-built command without reading a response.
func (c *Client) SendRaw(ctx context.Context, cmd []byte) error {
	return c.send(ctx, "send_raw", cmd)
}

func trimPadding(text []byte) string {
	return strings.TrimRight(string(text), "\x00")
}

func parseRunning(text []byte) bool {
	value, err := strconv.ParseUint(strings.TrimSpace(trimPadding(text)), 10, 64)
	return err == nil && value == 1
}
