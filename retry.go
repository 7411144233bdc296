package botbase

import (
	"context"
)

// execute runs one retried operation, through the circuit breaker when configured.
func (c *Client) execute(ctx context.Context, op string, fn func() ([]byte, error)) ([]byte, error) {
	if c.breaker == nil {
		return c.withRetry(ctx, op, fn)
	}

	return c.breaker.Execute(func() ([]byte, error) {
		return c.withRetry(ctx, op, fn)
	})
}

// withRetry calls fn up to MaxAttempts times. After the second-to-last
// failure the connection is rebuilt with Reconnect, and every failure except
// the last is followed by RetryDelay. Failures that cannot succeed on retry
// (malformed payloads, context errors) are returned immediately.
func (c *Client) withRetry(ctx context.Context, op string, fn func() ([]byte, error)) ([]byte, error) {
	maxAttempts := c.config.MaxAttempts

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		out, err := fn()
		if err == nil {
			return out, nil
		}
		if !shouldRetry(err) {
			return nil, err
		}
		lastErr = err

		c.logger.Warn().
			Err(err).
			Str("op", op).
			Int("attempt", attempt).
			Int("max_attempts", maxAttempts).
			Msg("transfer attempt failed")

		if attempt == maxAttempts {
			break
		}
		c.stats.recordRetry()

		if attempt == maxAttempts-1 {
			c.logger.Info().Str("op", op).Msg("attempting to reconnect before the final retry")
			c.Reconnect(ctx)
		}

		if err := sleepContext(ctx, c.config.RetryDelay); err != nil {
			return nil, err
		}
	}

	c.stats.recordTransferFailure()
	c.logger.Error().Err(lastErr).Str("op", op).Msg("maximum retry attempts reached")
	return nil, &TransferError{Op: op, Attempts: maxAttempts, Err: lastErr}
}

// send writes cmd with retries. Writes have no response.
func (c *Client) send(ctx context.Context, op string, cmd []byte) error {
	_, err := c.execute(ctx, op, func() ([]byte, error) {
		return nil, c.write(ctx, cmd)
	})
	return err
}

// query performs a retried round trip expecting length raw bytes.
func (c *Client) query(ctx context.Context, op string, cmd []byte, length int) ([]byte, error) {
	return c.execute(ctx, op, func() ([]byte, error) {
		return c.readFixed(ctx, cmd, length)
	})
}
