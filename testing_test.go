package botbase

import (
	"bufio"
	"context"
	"encoding/binary"
	"encoding/hex"
	"net"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pior/botbase/internal/testutils"
	"github.com/pior/botbase/protocol"
)

const agentMemorySize = 64 * 1024

// fakeAgent is a loopback sys-botbase agent. It ignores the transfer size
// cap, so a single peek can return any length.
type fakeAgent struct {
	mu       sync.Mutex
	memory   map[protocol.AddressSpace][]byte
	commands []string
	accepted int

	mainBase uint64
	heapBase uint64
	unixTime int64
	titleID  string
	version  string
	frame    []byte
}

func newFakeAgent() *fakeAgent {
	a := &fakeAgent{
		memory:   make(map[protocol.AddressSpace][]byte),
		mainBase: 0x0000000804C00000,
		heapBase: 0x0000000880000000,
		unixTime: 1700000000,
		titleID:  "0100A3D008C5C000",
		version:  "2.4",
	}
	for _, space := range []protocol.AddressSpace{protocol.Heap, protocol.Main, protocol.Absolute} {
		mem := make([]byte, agentMemorySize)
		for i := range mem {
			mem[i] = byte(i*7 + int(space)*31)
		}
		a.memory[space] = mem
	}
	return a
}

// startAgent serves a fake agent on 127.0.0.1 and returns its host and port.
func startAgent(t testing.TB) (*fakeAgent, string, int) {
	t.Helper()
	agent := newFakeAgent()
	addr := createListener(t, agent.serve)

	host, portStr, err := net.SplitHostPort(addr)
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	return agent, host, port
}

func createListener(t testing.TB, handler func(conn net.Conn)) string {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	t.Cleanup(func() {
		listener.Close()
	})

	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}

			go func(c net.Conn) {
				defer c.Close()
				handler(c)
			}(conn)
		}
	}()

	return listener.Addr().String()
}

func (a *fakeAgent) serve(conn net.Conn) {
	a.mu.Lock()
	a.accepted++
	a.mu.Unlock()

	r := bufio.NewReader(conn)
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return
		}
		line = strings.TrimSuffix(line, "\n")

		a.mu.Lock()
		a.commands = append(a.commands, line)
		a.mu.Unlock()

		if line == protocol.OpPixelPeek {
			a.writeFrame(conn)
			continue
		}

		if resp, ok := a.handle(strings.Fields(line)); ok {
			if _, err := conn.Write([]byte(resp)); err != nil {
				return
			}
		}
	}
}

// handle returns the response line for a command, or false for commands
// without a response.
func (a *fakeAgent) handle(fields []string) (string, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if len(fields) == 0 {
		return "", false
	}

	switch op := fields[0]; op {
	case protocol.OpPeek, protocol.OpPeekMain, protocol.OpPeekAbsolute:
		space := spaceOf(op)
		return hexLine(a.read(space, parseUint(fields[1]), parseInt(fields[2]))), true

	case protocol.OpPeekMulti, protocol.OpPeekMainMulti, protocol.OpPeekAbsoluteMulti:
		space := spaceOf(op)
		var out []byte
		for i := 1; i+1 < len(fields); i += 2 {
			out = append(out, a.read(space, parseUint(fields[i]), parseInt(fields[i+1]))...)
		}
		return hexLine(out), true

	case protocol.OpPoke, protocol.OpPokeMain, protocol.OpPokeAbsolute:
		data, _ := hex.DecodeString(strings.TrimPrefix(fields[2], "0x"))
		copy(a.memory[spaceOf(op)][parseUint(fields[1]):], data)
		return "", false

	case protocol.OpPointerPeek:
		return hexLine(a.read(protocol.Absolute, a.resolve(fields[2:]), parseInt(fields[1]))), true

	case protocol.OpPointerPoke:
		data, _ := hex.DecodeString(strings.TrimPrefix(fields[1], "0x"))
		copy(a.memory[protocol.Absolute][a.resolve(fields[2:]):], data)
		return "", false

	case protocol.OpPointerAll:
		return uint64Line(a.mainBase + a.resolve(fields[1:])), true

	case protocol.OpPointerRelative:
		return uint64Line(a.resolve(fields[1:])), true

	case protocol.OpGetMainNsoBase:
		return uint64Line(a.mainBase), true
	case protocol.OpGetHeapBase:
		return uint64Line(a.heapBase), true
	case protocol.OpGetUnixTime:
		return uint64Line(uint64(a.unixTime)), true
	case protocol.OpGetTitleID:
		return a.titleID + "\n", true
	case protocol.OpGetVersion:
		return a.version + "\n", true
	case protocol.OpGameInfo:
		return "info-" + fields[1] + "\n", true
	case protocol.OpIsProgramRunning:
		return "1\n", true
	}
	return "", false
}

// writeFrame sends the framebuffer in three bursts.
func (a *fakeAgent) writeFrame(conn net.Conn) {
	a.mu.Lock()
	line := []byte(hexLine(a.frame))
	a.mu.Unlock()

	third := len(line) / 3
	for _, part := range [][]byte{line[:third], line[third : 2*third], line[2*third:]} {
		conn.Write(part)
		time.Sleep(5 * time.Millisecond)
	}
}

// resolve sums the jumps; offsets stay inside the fake memory.
func (a *fakeAgent) resolve(jumps []string) uint64 {
	var addr int64
	for _, j := range jumps {
		v, _ := strconv.ParseInt(j, 10, 64)
		addr += v
	}
	return uint64(addr)
}

func (a *fakeAgent) read(space protocol.AddressSpace, offset uint64, size int) []byte {
	return a.memory[space][offset : offset+uint64(size)]
}

func (a *fakeAgent) setFrame(frame []byte) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.frame = frame
}

func (a *fakeAgent) memorySlice(space protocol.AddressSpace, offset uint64, size int) []byte {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]byte(nil), a.read(space, offset, size)...)
}

func (a *fakeAgent) recordedCommands() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.commands...)
}

func (a *fakeAgent) acceptedConnections() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.accepted
}

func spaceOf(op string) protocol.AddressSpace {
	switch {
	case strings.Contains(op, "Main"):
		return protocol.Main
	case strings.Contains(op, "Absolute"):
		return protocol.Absolute
	default:
		return protocol.Heap
	}
}

func parseUint(s string) uint64 {
	v, _ := strconv.ParseUint(s, 0, 64)
	return v
}

func parseInt(s string) int {
	v, _ := strconv.Atoi(s)
	return v
}

func hexLine(b []byte) string {
	return strings.ToUpper(hex.EncodeToString(b)) + "\n"
}

func uint64Line(v uint64) string {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return hexLine(b[:])
}

// testConfig returns a config with a 16-byte transfer cap, no pacing and
// millisecond retry delays.
func testConfig(host string, port int) Config {
	return Config{
		Host:                host,
		Port:                port,
		MaximumTransferSize: 16,
		DelayFactor:         1024,
		BaseDelay:           -1,
		MaxAttempts:         3,
		RetryDelay:          time.Millisecond,
		ReconnectDelay:      time.Millisecond,
		ReceiveTimeout:      time.Second,
		ReceiveBufferSize:   protocol.DefaultReceiveBufferSize,
	}
}

// newAgentClient connects a client to a fresh fake agent.
func newAgentClient(t testing.TB) (*Client, *fakeAgent) {
	t.Helper()
	agent, host, port := startAgent(t)

	client, err := NewClient(testConfig(host, port))
	require.NoError(t, err)

	client.Connect(context.Background())
	require.True(t, client.Connected())
	t.Cleanup(client.Disconnect)

	return client, agent
}

// newMockClient connects a client through a scripted dialer.
func newMockClient(t testing.TB, conns ...*testutils.ConnectionMock) (*Client, *testutils.DialerMock) {
	t.Helper()
	// A nil entry stays an untyped nil so the dialer refuses it
	netConns := make([]net.Conn, len(conns))
	for i, c := range conns {
		if c != nil {
			netConns[i] = c
		}
	}
	dialer := testutils.NewDialerMock(netConns...)

	config := testConfig("127.0.0.1", protocol.DefaultPort)
	config.Dialer = dialer
	client, err := NewClient(config)
	require.NoError(t, err)

	client.Connect(context.Background())
	return client, dialer
}
