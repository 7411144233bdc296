package botbase

import (
	"sync/atomic"
)

// ClientStats contains statistics about client operations.
// All fields are safe for concurrent access.
//
// For Prometheus integration, expose these as counters
// (see the promexporter package).
type ClientStats struct {
	Commands          uint64 // Commands written to the socket
	BytesSent         uint64 // Command bytes written
	BytesReceived     uint64 // Response bytes read, terminators included
	Chunks            uint64 // Chunks of split reads and writes
	Retries           uint64 // Attempts repeated after a failure
	Connects          uint64 // Successful connections
	Reconnects        uint64 // Reconnects triggered by the retry policy
	ConnectFailures   uint64 // Failed connection attempts
	TransferFailures  uint64 // Operations that exhausted their attempts
	MalformedPayloads uint64 // Responses that failed hex decoding
}

// clientStatsCollector provides internal methods for updating client stats.
// Not exported - client updates its own stats.
type clientStatsCollector struct {
	stats ClientStats
}

func newClientStatsCollector() *clientStatsCollector {
	return &clientStatsCollector{}
}

func (c *clientStatsCollector) recordCommand(size int) {
	atomic.AddUint64(&c.stats.Commands, 1)
	atomic.AddUint64(&c.stats.BytesSent, uint64(size))
}

func (c *clientStatsCollector) recordRead(size int) {
	atomic.AddUint64(&c.stats.BytesReceived, uint64(size))
}

func (c *clientStatsCollector) recordChunk() {
	atomic.AddUint64(&c.stats.Chunks, 1)
}

func (c *clientStatsCollector) recordRetry() {
	atomic.AddUint64(&c.stats.Retries, 1)
}

func (c *clientStatsCollector) recordConnect() {
	atomic.AddUint64(&c.stats.Connects, 1)
}

func (c *clientStatsCollector) recordReconnect() {
	atomic.AddUint64(&c.stats.Reconnects, 1)
}

func (c *clientStatsCollector) recordConnectFailure() {
	atomic.AddUint64(&c.stats.ConnectFailures, 1)
}

func (c *clientStatsCollector) recordTransferFailure() {
	atomic.AddUint64(&c.stats.TransferFailures, 1)
}

func (c *clientStatsCollector) recordMalformed() {
	atomic.AddUint64(&c.stats.MalformedPayloads, 1)
}

func (c *clientStatsCollector) snapshot() ClientStats {
	return ClientStats{
		Commands:          atomic.LoadUint64(&c.stats.Commands),
		BytesSent:         atomic.LoadUint64(&c.stats.BytesSent),
		BytesReceived:     atomic.LoadUint64(&c.stats.BytesReceived),
		Chunks:            atomic.LoadUint64(&c.stats.Chunks),
		Retries:           atomic.LoadUint64(&c.stats.Retries),
		Connects:          atomic.LoadUint64(&c.stats.Connects),
		Reconnects:        atomic.LoadUint64(&c.stats.Reconnects),
		ConnectFailures:   atomic.LoadUint64(&c.stats.ConnectFailures),
		TransferFailures:  atomic.LoadUint64(&c.stats.TransferFailures),
		MalformedPayloads: atomic.LoadUint64(&c.stats.MalformedPayloads),
	}
}
