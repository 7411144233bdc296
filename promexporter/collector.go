package promexporter

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sony/gobreaker/v2"

	"github.com/pior/botbase"
)

// ClientSource is the part of *botbase.Client read by the collector.
type ClientSource interface {
	Addr() string
	Stats() botbase.ClientStats
	CircuitBreakerState() gobreaker.State
}

// SharedSource is the part of *botbase.Shared read by the collector.
type SharedSource interface {
	Stats() botbase.SharedStats
}

// ClientCollector exports client counters at scrape time.
// Values are read from Stats snapshots, so the client keeps no Prometheus state.
type ClientCollector struct {
	client ClientSource
	shared SharedSource

	commands          *prometheus.Desc
	bytes             *prometheus.Desc
	chunks            *prometheus.Desc
	retries           *prometheus.Desc
	connects          *prometheus.Desc
	reconnects        *prometheus.Desc
	connectFailures   *prometheus.Desc
	transferFailures  *prometheus.Desc
	malformedPayloads *prometheus.Desc
	circuitState      *prometheus.Desc

	acquires         *prometheus.Desc
	emptyAcquires    *prometheus.Desc
	canceledAcquires *prometheus.Desc
	acquireWait      *prometheus.Desc
	connected        *prometheus.Desc
}

// NewClientCollector creates a collector for client. shared may be nil.
func NewClientCollector(client ClientSource, shared SharedSource) *ClientCollector {
	labels := prometheus.Labels{"agent": client.Addr()}
	desc := func(name, help string, variable ...string) *prometheus.Desc {
		return prometheus.NewDesc("botbase_"+name, help, variable, labels)
	}

	return &ClientCollector{
		client: client,
		shared: shared,

		commands:          desc("commands_total", "Commands written to the agent"),
		bytes:             desc("bytes_total", "Bytes exchanged with the agent", "direction"),
		chunks:            desc("chunks_total", "Chunks of split reads and writes"),
		retries:           desc("retries_total", "Attempts repeated after a failure"),
		connects:          desc("connects_total", "Successful connections"),
		reconnects:        desc("reconnects_total", "Reconnects triggered by the retry policy"),
		connectFailures:   desc("connect_failures_total", "Failed connection attempts"),
		transferFailures:  desc("transfer_failures_total", "Operations that exhausted their attempts"),
		malformedPayloads: desc("malformed_payloads_total", "Responses that failed hex decoding"),
		circuitState:      desc("circuit_breaker_state", "Circuit breaker state (0=closed, 1=half-open, 2=open)"),

		acquires:         desc("shared_acquires_total", "Successful acquires of the shared client"),
		emptyAcquires:    desc("shared_empty_acquires_total", "Acquires that had to wait or connect"),
		canceledAcquires: desc("shared_canceled_acquires_total", "Acquires abandoned because the context was done"),
		acquireWait:      desc("shared_acquire_wait_seconds_total", "Total time spent waiting for the shared client"),
		connected:        desc("shared_connected", "Whether the shared client holds a connection"),
	}
}

// Describe implements prometheus.Collector.
func (c *ClientCollector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range []*prometheus.Desc{
		c.commands, c.bytes, c.chunks, c.retries, c.connects, c.reconnects,
		c.connectFailures, c.transferFailures, c.malformedPayloads, c.circuitState,
	} {
		ch <- d
	}
	if c.shared != nil {
		ch <- c.acquires
		ch <- c.emptyAcquires
		ch <- c.canceledAcquires
		ch <- c.acquireWait
		ch <- c.connected
	}
}

// Collect implements prometheus.Collector.
func (c *ClientCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.client.Stats()

	counter := func(d *prometheus.Desc, v uint64, labels ...string) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.CounterValue, float64(v), labels...)
	}
	counter(c.commands, s.Commands)
	counter(c.bytes, s.BytesSent, "sent")
	counter(c.bytes, s.BytesReceived, "received")
	counter(c.chunks, s.Chunks)
	counter(c.retries, s.Retries)
	counter(c.connects, s.Connects)
	counter(c.reconnects, s.Reconnects)
	counter(c.connectFailures, s.ConnectFailures)
	counter(c.transferFailures, s.TransferFailures)
	counter(c.malformedPayloads, s.MalformedPayloads)

	ch <- prometheus.MustNewConstMetric(c.circuitState, prometheus.GaugeValue, float64(c.client.CircuitBreakerState()))

	if c.shared == nil {
		return
	}
	ss := c.shared.Stats()
	counter(c.acquires, uint64(ss.AcquireCount))
	counter(c.emptyAcquires, uint64(ss.EmptyAcquireCount))
	counter(c.canceledAcquires, uint64(ss.CanceledAcquireCount))
	ch <- prometheus.MustNewConstMetric(c.acquireWait, prometheus.CounterValue, ss.AcquireWaitTime.Seconds())

	connected := 0.0
	if ss.Connected {
		connected = 1
	}
	ch <- prometheus.MustNewConstMetric(c.connected, prometheus.GaugeValue, connected)
}
