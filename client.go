package botbase

import (
	"bufio"
	"context"
	"errors"
	"net"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"

	"github.com/pior/botbase/protocol"
)

// Dialer opens the TCP connection to the agent. *net.Dialer implements it.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// Resolver resolves the configured host during Reset. *net.Resolver implements it.
type Resolver interface {
	LookupHost(ctx context.Context, host string) ([]string, error)
}

// Config holds configuration for a botbase client.
type Config struct {
	// Host is the device address (IP or hostname).
	// Required.
	Host string

	// Port is the agent port. Zero means protocol.DefaultPort.
	Port int

	// MaximumTransferSize is the largest payload moved by a single command.
	// Larger reads and writes are split into chunks of this size.
	// Zero means protocol.DefaultMaximumTransferSize.
	MaximumTransferSize int

	// DelayFactor and BaseDelay define the pause between chunks:
	// MaximumTransferSize/DelayFactor milliseconds plus BaseDelay.
	// Zero DelayFactor means protocol.DefaultDelayFactor. Zero BaseDelay
	// means protocol.DefaultBaseDelayMillis; a negative BaseDelay disables it.
	DelayFactor int
	BaseDelay   time.Duration

	// MaxAttempts bounds the attempts of every send and round trip.
	// Zero means 3.
	MaxAttempts int

	// RetryDelay is the pause between failed attempts.
	// Zero means 2 seconds; negative means no pause.
	RetryDelay time.Duration

	// ReconnectDelay is the pause between disconnect and connect in Reconnect.
	// Zero means one second; negative means no pause.
	ReconnectDelay time.Duration

	// ReceiveTimeout guards each read of the flexible-length reader.
	// Zero means one second.
	ReceiveTimeout time.Duration

	// ReceiveBufferSize is the read size of the flexible-length reader and
	// sizes the settling delay before it starts.
	// Zero means protocol.DefaultReceiveBufferSize.
	ReceiveBufferSize int

	// Dialer is used to open connections. If nil, a default net.Dialer is used.
	Dialer Dialer

	// Resolver is used by Reset. If nil, net.DefaultResolver is used.
	Resolver Resolver

	// Logger receives connection and retry events. If nil, logging is disabled.
	Logger *zerolog.Logger

	// NewCircuitBreaker creates the breaker wrapping every retried transfer.
	// Called once with the agent address. If nil, no circuit breaker is used.
	NewCircuitBreaker func(addr string) *gobreaker.CircuitBreaker[[]byte]
}

const (
	defaultRetryDelay     = 2 * time.Second
	defaultReconnectDelay = time.Second
)

// DefaultConfig returns the recommended configuration for the agent on host.
func DefaultConfig(host string) Config {
	return Config{
		Host:                host,
		Port:                protocol.DefaultPort,
		MaximumTransferSize: protocol.DefaultMaximumTransferSize,
		DelayFactor:         protocol.DefaultDelayFactor,
		BaseDelay:           protocol.DefaultBaseDelayMillis * time.Millisecond,
		MaxAttempts:         3,
		RetryDelay:          defaultRetryDelay,
		ReconnectDelay:      defaultReconnectDelay,
		ReceiveTimeout:      time.Second,
		ReceiveBufferSize:   protocol.DefaultReceiveBufferSize,
	}
}

// Client talks to one sys-botbase agent over a single TCP connection.
//
// A Client is not safe for concurrent use: operations share the connection
// and must be issued one at a time. Use Shared to serialize callers.
type Client struct {
	config Config
	addr   string
	logger zerolog.Logger

	conn   net.Conn
	reader *bufio.Reader

	breaker *gobreaker.CircuitBreaker[[]byte]
	stats   *clientStatsCollector
}

// NewClient creates a disconnected client. Call Connect or Reset before use.
func NewClient(config Config) (*Client, error) {
	if config.Host == "" {
		return nil, errors.New("botbase: host is required")
	}
	if config.Port == 0 {
		config.Port = protocol.DefaultPort
	}
	if config.MaximumTransferSize <= 0 {
		config.MaximumTransferSize = protocol.DefaultMaximumTransferSize
	}
	if config.DelayFactor <= 0 {
		config.DelayFactor = protocol.DefaultDelayFactor
	}
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 3
	}
	config.BaseDelay = durationOrDefault(config.BaseDelay, protocol.DefaultBaseDelayMillis*time.Millisecond)
	config.RetryDelay = durationOrDefault(config.RetryDelay, defaultRetryDelay)
	config.ReconnectDelay = durationOrDefault(config.ReconnectDelay, defaultReconnectDelay)
	if config.ReceiveTimeout <= 0 {
		config.ReceiveTimeout = time.Second
	}
	if config.ReceiveBufferSize <= 0 {
		config.ReceiveBufferSize = protocol.DefaultReceiveBufferSize
	}
	if config.Dialer == nil {
		config.Dialer = &net.Dialer{}
	}
	if config.Resolver == nil {
		config.Resolver = net.DefaultResolver
	}

	logger := zerolog.Nop()
	if config.Logger != nil {
		logger = *config.Logger
	}

	addr := net.JoinHostPort(config.Host, strconv.Itoa(config.Port))

	client := &Client{
		config: config,
		addr:   addr,
		logger: logger.With().Str("component", "botbase").Str("addr", addr).Logger(),
		stats:  newClientStatsCollector(),
	}

	if config.NewCircuitBreaker != nil {
		client.breaker = config.NewCircuitBreaker(addr)
	}

	return client, nil
}

// Addr returns the agent address as host:port.
func (c *Client) Addr() string {
	return c.addr
}

// Stats returns a snapshot of client statistics.
func (c *Client) Stats() ClientStats {
	return c.stats.snapshot()
}

// pacingDelay is the pause inserted between chunks of a split transfer.
func (c *Client) pacingDelay() time.Duration {
	return time.Duration(c.config.MaximumTransferSize/c.config.DelayFactor)*time.Millisecond + c.config.BaseDelay
}

// settleDelay is the pause between the framebuffer trigger and the first read.
func (c *Client) settleDelay() time.Duration {
	return time.Duration(c.config.ReceiveBufferSize/c.config.DelayFactor)*time.Millisecond + c.config.BaseDelay
}

// durationOrDefault maps zero to def and negative values to no delay.
func durationOrDefault(d, def time.Duration) time.Duration {
	switch {
	case d == 0:
		return def
	case d < 0:
		return 0
	}
	return d
}

// sleepContext waits for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
