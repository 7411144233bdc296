package botbase

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pior/botbase/internal/testutils"
	"github.com/pior/botbase/protocol"
)

// newSharedMock wraps a disconnected client whose dialer hands out conns.
func newSharedMock(t *testing.T, conns ...*testutils.ConnectionMock) (*Shared, *testutils.DialerMock) {
	t.Helper()
	netConns := make([]net.Conn, len(conns))
	for i, c := range conns {
		netConns[i] = c
	}
	dialer := testutils.NewDialerMock(netConns...)

	config := testConfig("127.0.0.1", protocol.DefaultPort)
	config.Dialer = dialer
	client, err := NewClient(config)
	require.NoError(t, err)

	shared, err := NewShared(client)
	require.NoError(t, err)
	t.Cleanup(shared.Close)
	return shared, dialer
}

func TestSharedConcurrentAccess(t *testing.T) {
	agent, host, port := startAgent(t)
	client, err := NewClient(testConfig(host, port))
	require.NoError(t, err)

	shared, err := NewShared(client)
	require.NoError(t, err)
	defer shared.Close()
	assert.False(t, shared.Stats().Connected)

	const workers = 8
	var wg sync.WaitGroup
	errs := make(chan error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			offset := uint32(0x100 * i)
			errs <- shared.Do(context.Background(), func(c *Client) error {
				data, err := c.ReadBytes(context.Background(), offset, 32)
				if err != nil {
					return err
				}
				if string(data) != string(agent.memorySlice(protocol.Heap, uint64(offset), 32)) {
					return errors.New("unexpected data")
				}
				return nil
			})
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	stats := shared.Stats()
	assert.Equal(t, int64(workers), stats.AcquireCount)
	assert.True(t, stats.Connected)
	assert.Equal(t, 1, agent.acceptedConnections())
}

func TestSharedReconnectsAfterExhaustedRetries(t *testing.T) {
	failing := errors.New("broken pipe")
	shared, dialer := newSharedMock(t,
		testutils.NewConnectionMock().FailWrites(failing),
		testutils.NewConnectionMock().FailWrites(failing),
		testutils.NewConnectionMock("0000000000001000\n"),
	)
	ctx := context.Background()

	err := shared.Do(ctx, func(c *Client) error {
		_, err := c.HeapBase(ctx)
		return err
	})
	require.ErrorIs(t, err, ErrRetriesExhausted)

	var base uint64
	err = shared.Do(ctx, func(c *Client) error {
		var err error
		base, err = c.HeapBase(ctx)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(0x1000), base)

	// First acquire, the reconnect before the final attempt, then the
	// acquire after the client was destroyed
	assert.Len(t, dialer.Dials(), 3)
}

func TestSharedKeepsClientOnOtherErrors(t *testing.T) {
	shared, dialer := newSharedMock(t, testutils.NewConnectionMock(), testutils.NewConnectionMock())
	ctx := context.Background()

	boom := errors.New("boom")
	for i := 0; i < 2; i++ {
		err := shared.Do(ctx, func(c *Client) error { return boom })
		require.ErrorIs(t, err, boom)
	}
	assert.Len(t, dialer.Dials(), 1)
}

func TestSharedConnectFailure(t *testing.T) {
	shared, _ := newSharedMock(t)

	err := shared.Do(context.Background(), func(c *Client) error { return nil })
	require.ErrorIs(t, err, ErrNotConnected)
	assert.False(t, shared.Stats().Connected)
}

func TestSharedAcquireHonorsContext(t *testing.T) {
	shared, _ := newSharedMock(t, testutils.NewConnectionMock(), testutils.NewConnectionMock())

	held := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- shared.Do(context.Background(), func(c *Client) error {
			close(held)
			<-release
			return nil
		})
	}()
	<-held

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := shared.Do(ctx, func(c *Client) error { return nil })
	require.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, int64(1), shared.Stats().CanceledAcquireCount)
}
