// Package mocks provides a fake net.Conn for driving the client against a
// scripted broker without a socket, grounded on the responder pattern at
// every Azure-amqp sender_test.go/receiver_test.go call site:
// mocks.NewNetConn(responder) where responder inspects each decoded frame
// and returns the bytes to hand back on the next Read. The original
// mocks.NewNetConn source itself was not present in the retrieval pack —
// only its call sites — so this reproduces the convention those tests rely
// on, wired to this module's own wire.Frame type instead of AMQP 1.0's.
package mocks

import (
	"bytes"
	"io"
	"net"
	"sync"
	"time"

	"github.com/kestrelmq/amqp/internal/wire"
)

// Responder inspects a decoded frame written by the client and returns the
// raw bytes (already frame-encoded) to queue for the next Read, or nil to
// send nothing back for that frame.
type Responder func(f *wire.Frame) []byte

// NetConn implements net.Conn over an in-memory responder instead of a
// socket. Writes are decoded frame-by-frame and handed to the Responder;
// anything it returns is appended to a read buffer drained by Read.
type NetConn struct {
	responder Responder

	mu      sync.Mutex
	pending []byte
	writeN  int

	closed   chan struct{}
	closeErr error
}

func NewNetConn(responder Responder) *NetConn {
	return &NetConn{
		responder: responder,
		closed:    make(chan struct{}),
	}
}

func (c *NetConn) Read(b []byte) (int, error) {
	for {
		c.mu.Lock()
		if len(c.pending) > 0 {
			n := copy(b, c.pending)
			c.pending = c.pending[n:]
			c.mu.Unlock()
			return n, nil
		}
		c.mu.Unlock()
		select {
		case <-c.closed:
			return 0, io.EOF
		case <-time.After(time.Millisecond):
		}
	}
}

func (c *NetConn) Write(b []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writeN += len(b)

	buf := append([]byte(nil), b...)
	for len(buf) > 0 {
		if bytes.HasPrefix(buf, wire.ProtocolHeader) {
			buf = buf[len(wire.ProtocolHeader):]
			continue
		}
		f, n, err := wire.UnmarshalFrame(buf)
		if err != nil {
			return len(b), nil
		}
		buf = buf[n:]
		if c.responder != nil {
			if resp := c.responder(f); resp != nil {
				c.pending = append(c.pending, resp...)
			}
		}
	}
	return len(b), nil
}

func (c *NetConn) Close() error {
	select {
	case <-c.closed:
	default:
		close(c.closed)
	}
	return c.closeErr
}

func (c *NetConn) LocalAddr() net.Addr                { return fakeAddr{} }
func (c *NetConn) RemoteAddr() net.Addr               { return fakeAddr{} }
func (c *NetConn) SetDeadline(time.Time) error        { return nil }
func (c *NetConn) SetReadDeadline(time.Time) error     { return nil }
func (c *NetConn) SetWriteDeadline(time.Time) error    { return nil }

// Server queues raw bytes to be returned from the next Read, bypassing the
// responder, for tests that need to push an unsolicited frame (Connection
// Close, Channel Close, heartbeat) rather than reply to one.
func (c *NetConn) Server(raw []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = append(c.pending, raw...)
}

type fakeAddr struct{}

func (fakeAddr) Network() string { return "mock" }
func (fakeAddr) String() string  { return "mock" }
