// Package botbase is a client for sys-botbase, the remote debugging agent
// that exposes a console's process memory over a line-based TCP protocol.
//
// Commands are single ASCII lines. Fixed-length results come back as one
// line of uppercase hex, two characters per byte; numeric results are eight
// bytes, most significant first. The framebuffer is the only response with
// no known length and is read until its terminator.
//
// Basic usage:
//
//	client, err := botbase.NewClient(botbase.DefaultConfig("192.168.1.20"))
//	if err != nil {
//		return err
//	}
//	client.Connect(ctx)
//	if !client.Connected() {
//		return botbase.ErrNotConnected
//	}
//	defer client.Disconnect()
//
//	data, err := client.ReadBytes(ctx, 0x4293D8B0, 0x158)
//
// Reads and writes larger than Config.MaximumTransferSize are split into
// paced chunks. Every send and round trip is attempted up to
// Config.MaxAttempts times, reconnecting before the final attempt; when all
// attempts fail the error matches ErrRetriesExhausted.
//
// A Client serves one caller at a time. Shared wraps a client for use from
// several goroutines.
package botbase
