package botbase

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientStatsCollectorConcurrent(t *testing.T) {
	c := newClientStatsCollector()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.recordCommand(10)
				c.recordRead(5)
			}
		}()
	}
	wg.Wait()

	stats := c.snapshot()
	assert.Equal(t, uint64(1000), stats.Commands)
	assert.Equal(t, uint64(10000), stats.BytesSent)
	assert.Equal(t, uint64(5000), stats.BytesReceived)
}

func TestClientStatsTraffic(t *testing.T) {
	client, _ := newAgentClient(t)
	ctx := context.Background()

	_, err := client.ReadBytes(ctx, 0, 40) // three chunks
	require.NoError(t, err)
	require.NoError(t, client.WriteBytes(ctx, []byte{0x01, 0x02}, 0))

	stats := client.Stats()
	assert.Equal(t, uint64(4), stats.Commands)
	assert.Equal(t, uint64(3), stats.Chunks)
	assert.Equal(t, uint64(1), stats.Connects)
	// 16+16+8 bytes back, two hex characters each plus a terminator per line
	assert.Equal(t, uint64(2*40+3), stats.BytesReceived)
	sent := len("peek 0x00000000 16\n") + len("peek 0x00000010 16\n") +
		len("peek 0x00000020 8\n") + len("poke 0x00000000 0x0102\n")
	assert.Equal(t, uint64(sent), stats.BytesSent)
	assert.Zero(t, stats.Retries)
	assert.Zero(t, stats.TransferFailures)
}
