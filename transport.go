package amqp

import (
	"bufio"
	"crypto/tls"
	"net"
	"sync/atomic"
	"time"

	"github.com/kestrelmq/amqp/internal/log"
	"github.com/kestrelmq/amqp/internal/wire"
	"github.com/pkg/errors"
)

// defaultReopenTimeout bounds the detached automatic channel reopen
// dispatch.go's onChannelCloseReceived kicks off; it has no caller-supplied
// context to inherit since no particular operation is waiting on it.
const defaultReopenTimeout = 30 * time.Second

// transport is Component C3: it owns the network connection, runs the
// single read loop that decodes frames off the wire and hands them to
// onFrame, and drives the negotiated heartbeat. Grounded on
// lifeibo-amqp/connection.go's reader()/heartbeater() goroutine pair,
// adapted from that library's per-channel demux to this client's
// single-channel dispatch.
type transport struct {
	conn net.Conn
	r    *bufio.Reader

	onFrame        func(*wire.Frame)
	onDisconnected func(error)

	heartbeatInterval time.Duration
	lastSent          chan time.Time
	done              chan struct{}
	closedLocally     atomic.Bool
}

func dial(network, addr string, timeout time.Duration, tlsConfig *tls.Config, serverName string) (net.Conn, error) {
	conn, err := net.DialTimeout(network, addr, timeout)
	if err != nil {
		return nil, errors.Wrap(err, "amqp: dial")
	}
	if tlsConfig == nil {
		return conn, nil
	}
	cfg := tlsConfig.Clone()
	if cfg.ServerName == "" {
		cfg.ServerName = serverName
	}
	client := tls.Client(conn, cfg)
	if err := client.Handshake(); err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "amqp: tls handshake")
	}
	return client, nil
}

func newTransport(conn net.Conn, onFrame func(*wire.Frame), onDisconnected func(error)) *transport {
	return &transport{
		conn:           conn,
		r:              bufio.NewReader(conn),
		onFrame:        onFrame,
		onDisconnected: onDisconnected,
		lastSent:       make(chan time.Time, 1),
		done:           make(chan struct{}),
	}
}

// writeProtocolHeader sends the fixed 8-byte "AMQP\x00\x00\x09\x01" preamble
// that precedes any frame on a freshly dialed socket.
func (t *transport) writeProtocolHeader() error {
	_, err := t.conn.Write(wire.ProtocolHeader)
	return errors.Wrap(err, "amqp: write protocol header")
}

func (t *transport) writeFrame(frameType uint8, channel uint16, payload []byte) error {
	_, err := t.conn.Write(wire.MarshalFrame(frameType, channel, payload))
	if err != nil {
		return errors.Wrap(err, "amqp: write frame")
	}
	select {
	case t.lastSent <- time.Now():
	default:
	}
	return nil
}

func (t *transport) writeMethod(channel uint16, m wire.Method) error {
	log.Log(2, "TX channel=%d class=%d method=%d", channel, m.ClassID(), m.MethodID())
	return t.writeFrame(wire.FrameMethod, channel, wire.MarshalMethod(m))
}

// run is the single read loop: it accumulates bytes from conn, unmarshals
// as many complete frames as are available, and dispatches each to onFrame
// before blocking for more. Matches the teacher's reader() in shape: one
// goroutine owns the socket, every decoded frame funnels through a single
// dispatch point, and any read/decode error tears the connection down.
func (t *transport) run() {
	var buf []byte
	chunk := make([]byte, 4096)
	for {
		n, err := t.r.Read(chunk)
		if n > 0 {
			buf = append(buf, chunk[:n]...)
			for {
				f, consumed, ferr := wire.UnmarshalFrame(buf)
				if ferr == wire.ErrNeedMoreData {
					break
				}
				if ferr != nil {
					t.shutdown(errors.Wrap(ferr, "amqp: frame decode"))
					return
				}
				buf = buf[consumed:]
				log.Log(2, "RX channel=%d type=%d len=%d", f.Channel, f.Type, len(f.Payload))
				t.onFrame(f)
			}
		}
		if err != nil {
			t.shutdown(errors.Wrap(err, "amqp: read"))
			return
		}
	}
}

func (t *transport) shutdown(err error) {
	close(t.done)
	t.conn.Close()
	// a close() initiated by this client (graceful shutdown, reconnect)
	// makes the subsequent read error expected, not a disconnect to report.
	if !t.closedLocally.Load() && t.onDisconnected != nil {
		t.onDisconnected(err)
	}
}

// startHeartbeat runs the negotiated heartbeat loop: write a Heartbeat
// frame whenever interval elapses without an outbound write, and on every
// tick push the read deadline out to 3x interval. The deadline moves with
// the ticker, not with inbound data, so broker silence alone does not trip
// it while the loop runs; it expires only after the loop has stopped on a
// failed heartbeat write.
func (t *transport) startHeartbeat(interval time.Duration) {
	t.heartbeatInterval = interval
	if interval <= 0 {
		return
	}
	go func() {
		const maxInFlight = 3
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		lastSent := time.Now()
		for {
			select {
			case at := <-t.lastSent:
				lastSent = at
			case at := <-ticker.C:
				if at.Sub(lastSent) > interval-time.Second {
					if err := t.writeFrame(wire.FrameHeartbeat, 0, wire.MarshalHeartbeat()); err != nil {
						return
					}
					lastSent = at
				}
				t.conn.SetReadDeadline(time.Now().Add(maxInFlight * interval))
			case <-t.done:
				return
			}
		}
	}()
}

func (t *transport) close() error {
	t.closedLocally.Store(true)
	select {
	case <-t.done:
		return nil
	default:
	}
	return t.conn.Close()
}
