package testutils

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"time"
)

// ConnectionMock is a mock implementation of net.Conn for testing.
// Each response passed to NewConnectionMock is returned by exactly one Read
// call, which lets tests script how data arrives in bursts.
type ConnectionMock struct {
	mu       sync.Mutex
	bursts   [][]byte
	writeBuf bytes.Buffer
	writeErr error
	readErr  error
	reads    int
	writes   int
	closed   bool
}

// NewConnectionMock creates a new mock connection with pre-configured response bursts
func NewConnectionMock(responses ...string) *ConnectionMock {
	m := &ConnectionMock{}
	for _, r := range responses {
		m.bursts = append(m.bursts, []byte(r))
	}
	return m
}

// FailWrites makes every Write return err.
func (m *ConnectionMock) FailWrites(err error) *ConnectionMock {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writeErr = err
	return m
}

// FailReads makes every Read after the scripted bursts return err instead of io.EOF.
func (m *ConnectionMock) FailReads(err error) *ConnectionMock {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readErr = err
	return m
}

func (m *ConnectionMock) Read(b []byte) (n int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.reads++
	if len(m.bursts) == 0 {
		if m.readErr != nil {
			return 0, m.readErr
		}
		return 0, io.EOF
	}

	n = copy(b, m.bursts[0])
	if n < len(m.bursts[0]) {
		m.bursts[0] = m.bursts[0][n:]
	} else {
		m.bursts = m.bursts[1:]
	}
	return n, nil
}

func (m *ConnectionMock) Write(b []byte) (n int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.writes++
	if m.writeErr != nil {
		return 0, m.writeErr
	}
	return m.writeBuf.Write(b)
}

func (m *ConnectionMock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *ConnectionMock) LocalAddr() net.Addr {
	return &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 0}
}

func (m *ConnectionMock) RemoteAddr() net.Addr {
	return &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 6000}
}

func (m *ConnectionMock) SetDeadline(t time.Time) error      { return nil }
func (m *ConnectionMock) SetReadDeadline(t time.Time) error  { return nil }
func (m *ConnectionMock) SetWriteDeadline(t time.Time) error { return nil }

// GetWrittenRequest returns the raw command bytes written to the mock connection
func (m *ConnectionMock) GetWrittenRequest() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writeBuf.String()
}

// Reads returns the number of Read calls.
func (m *ConnectionMock) Reads() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reads
}

// Writes returns the number of Write calls.
func (m *ConnectionMock) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

// IsClosed reports whether Close was called.
func (m *ConnectionMock) IsClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// ErrDialRefused is returned by a DialerMock with no connections left.
var ErrDialRefused = errors.New("testutils: connection refused")

// DialerMock hands out pre-built connections in order and records dials.
type DialerMock struct {
	mu        sync.Mutex
	conns     []net.Conn
	addresses []string
}

func NewDialerMock(conns ...net.Conn) *DialerMock {
	return &DialerMock{conns: conns}
}

func (d *DialerMock) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.addresses = append(d.addresses, address)
	if len(d.conns) == 0 {
		return nil, ErrDialRefused
	}
	conn := d.conns[0]
	d.conns = d.conns[1:]
	if conn == nil {
		return nil, ErrDialRefused
	}
	return conn, nil
}

// Dials returns the addresses dialed so far.
func (d *DialerMock) Dials() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.addresses...)
}
