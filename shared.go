package botbase

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/puddle/v2"
)

// Shared serializes goroutines over one Client.
//
// It is a puddle pool of size one: Do acquires the client exclusively,
// waiting in line with other callers until the client is free or ctx is
// done. The client is connected when first acquired. When an operation
// exhausts its retries the client is destroyed (disconnected) and the next
// Do connects it again.
type Shared struct {
	pool *puddle.Pool[*Client]
}

// SharedStats contains statistics about access to a shared client.
type SharedStats struct {
	AcquireCount         int64         // Total successful acquires
	EmptyAcquireCount    int64         // Acquires that had to wait or connect
	CanceledAcquireCount int64         // Acquires abandoned because ctx was done
	AcquireWaitTime      time.Duration // Total time spent waiting for the client
	Connected            bool          // Whether the pool holds a connected client
}

// NewShared wraps client. The caller must not use client directly afterwards.
func NewShared(client *Client) (*Shared, error) {
	pool, err := puddle.NewPool(&puddle.Config[*Client]{
		Constructor: func(ctx context.Context) (*Client, error) {
			client.Connect(ctx)
			if !client.Connected() {
				return nil, ErrNotConnected
			}
			return client, nil
		},
		Destructor: func(c *Client) {
			c.Disconnect()
		},
		MaxSize: 1,
	})
	if err != nil {
		return nil, err
	}
	return &Shared{pool: pool}, nil
}

// Do runs fn with exclusive use of the client.
func (s *Shared) Do(ctx context.Context, fn func(c *Client) error) error {
	res, err := s.pool.Acquire(ctx)
	if err != nil {
		return err
	}

	if err := fn(res.Value()); err != nil {
		if errors.Is(err, ErrRetriesExhausted) {
			res.Destroy()
		} else {
			res.Release()
		}
		return err
	}

	res.Release()
	return nil
}

// Close disconnects the client once it is released.
func (s *Shared) Close() {
	s.pool.Close()
}

// Stats returns a snapshot of acquire statistics.
func (s *Shared) Stats() SharedStats {
	st := s.pool.Stat()
	return SharedStats{
		AcquireCount:         st.AcquireCount(),
		EmptyAcquireCount:    st.EmptyAcquireCount(),
		CanceledAcquireCount: st.CanceledAcquireCount(),
		AcquireWaitTime:      st.EmptyAcquireWaitTime(),
		Connected:            st.TotalResources() > 0,
	}
}
