// Package amqp implements an asynchronous client for the AMQP 0-9-1
// protocol against RabbitMQ-family brokers. A Client multiplexes every
// request/reply pair and inbound delivery through one state machine (see
// state.go/states_table.go) driven by a single read loop (see
// transport.go); callers issue operations concurrently and each blocks on
// WaitForState until its specific reply state is reached.
package amqp

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/kestrelmq/amqp/internal/log"
	"github.com/kestrelmq/amqp/internal/wire"
	"github.com/pkg/errors"
)

// Client is Component C6: the public operation surface wired to the state
// machine (C1), transport (C3), Channel0 handshake (C4) and message
// assembler (C5). It is a line-for-line generalization of
// aiorabbit.client.Client: one TCP connection, one logical channel, no
// connection pooling — see SPEC_FULL.md's Non-goals.
type Client struct {
	sm *StateManager

	opts   *connectOptions
	t      *transport
	c0     *channel0
	dialFn func() (net.Conn, error)

	writeMu     sync.Mutex
	channel     uint16
	channelWrap uint16

	asm       assembler
	consumers *consumerRegistry

	deliveryTag       uint64
	publisherConfirms bool
	pendingConfirms   map[uint64]struct{}
	confirmResults    map[uint64]bool // delivery tag -> ack(true)/nack(false), collected by awaitConfirm
	confirmWatermark  uint64          // highest contiguous delivery tag acked/nacked with multiple=true

	transactional bool
	blocked       bool

	reconnectMu sync.Mutex

	onMessageReturn func(*Message)

	// scratch results the read loop files for the caller goroutine blocked
	// in WaitForState to pick up once its state fires.
	lastQueueDeclareOk *wire.QueueDeclareOkMethod
	lastPurgeCount     uint32
	lastDeleteCount    uint32
	lastConsumerTag    string
	lastChannelClose   *Error

	// getWaiter is the one-shot future of the single in-flight Basic.Get:
	// installed by Get before the request is written, resolved by the read
	// loop on Get-Empty, on assembly of the Get-Ok message, or on an
	// unsolicited Channel.Close — never by Deliver or Return completions,
	// which have their own delivery paths.
	getWaiter chan getResult

	mu sync.Mutex // guards fields mutated from both caller goroutines and the read loop
}

// Connect dials url (amqp:// or amqps://), completes the Connection and
// Channel handshakes, and returns a ready-to-use Client. Mirrors
// aiorabbit.Client.connect(), which is _connect() followed by
// _open_channel().
func Connect(ctx context.Context, rawURL string, opts ...Option) (*Client, error) {
	o, err := parseConnectOptions(rawURL, opts...)
	if err != nil {
		return nil, err
	}

	c := newClient(o)

	if err := c.sm.SetState(StateDisconnected, nil); err != nil {
		return nil, err
	}

	timeout := o.connectTimeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	if err := c.sm.SetState(StateConnecting, nil); err != nil {
		return nil, err
	}
	conn, err := dial(o.network, o.addr, timeout, o.tlsConfig, o.serverName)
	if err != nil {
		if ne, ok := errors.Cause(err).(net.Error); ok && ne.Timeout() {
			err = ErrConnectTimeout
		}
		c.sm.SetState(StateClosed, err)
		return nil, err
	}

	if err := c.handshake(ctx, conn); err != nil {
		return nil, err
	}
	if err := c.openChannel(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// connectOverConn drives the same handshake as Connect against an
// already-established conn instead of dialing one, so tests can substitute
// internal/mocks.NetConn for a real socket. Unexported: only same-package
// _test.go files use it.
func connectOverConn(ctx context.Context, conn net.Conn, o *connectOptions) (*Client, error) {
	c := newClient(o)
	if err := c.sm.SetState(StateDisconnected, nil); err != nil {
		return nil, err
	}
	if err := c.sm.SetState(StateConnecting, nil); err != nil {
		return nil, err
	}
	if err := c.handshake(ctx, conn); err != nil {
		return nil, err
	}
	if err := c.openChannel(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// newClient builds a Client around connectOptions with every scratch field
// zeroed, shared by Connect and the test harness's connectOverConn (which
// hands it an already-established conn instead of dialing one itself).
func newClient(o *connectOptions) *Client {
	c := &Client{
		sm:              NewStateManager(),
		opts:            o,
		consumers:       newConsumerRegistry(),
		pendingConfirms: make(map[uint64]struct{}),
		confirmResults:  make(map[uint64]bool),
		channelWrap:     o.channelMax,
	}
	c.dialFn = func() (net.Conn, error) {
		return dial(o.network, o.addr, o.connectTimeout, o.tlsConfig, o.serverName)
	}
	if c.channelWrap == 0 {
		c.channelWrap = defaultChannelMax
	}
	return c
}

// handshake wires conn into a transport and Channel0, writes the protocol
// header, and waits for the Connection.Open/OpenOk exchange Channel0 drives
// from dispatch.go's inbound Start/Tune handlers. StateConnected is set
// before the read loop starts so a reply arriving as soon as the protocol
// header is written can never race the transition it depends on.
func (c *Client) handshake(ctx context.Context, conn net.Conn) error {
	c.c0 = newChannel0(nil, c.opts.username, c.opts.password, c.opts.vhost, c.opts.locale, c.opts.product)
	c.t = newTransport(conn, c.dispatchFrame, c.handleDisconnect)
	c.c0.t = c.t

	if err := c.sm.SetState(StateConnected, nil); err != nil {
		return err
	}

	go c.t.run()

	if err := c.t.writeProtocolHeader(); err != nil {
		return err
	}

	_, err := c.sm.WaitForState(ctx, StateOpened)
	return err
}

func (c *Client) openChannel(ctx context.Context) error {
	if err := c.sm.SetState(StateOpeningChannel, nil); err != nil {
		return err
	}

	c.mu.Lock()
	c.channel++
	if c.channelWrap > 0 && c.channel > c.channelWrap {
		c.channel = 1
	}
	ch := c.channel
	c.mu.Unlock()

	if err := c.sm.SetState(StateChannelOpenSent, nil); err != nil {
		return err
	}
	if err := c.t.writeMethod(ch, wire.ChannelOpenMethod{}); err != nil {
		return err
	}
	_, err := c.sm.WaitForState(ctx, StateChannelOpenOkReceived)
	return err
}

// IsClosed reports whether the client has reached its terminal closed
// state (aiorabbit.Client.is_closed).
func (c *Client) IsClosed() bool {
	return c.sm.Current() == StateClosed
}

// IsBlocked reports whether the broker has flow-blocked this connection
// (Connection.Blocked, typically a memory or disk alarm) and not yet sent
// Connection.Unblocked.
func (c *Client) IsBlocked() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.blocked
}

// ServerProperties returns the raw properties table Channel0 captured at
// handshake (aiorabbit.Client.server_properties).
func (c *Client) ServerProperties() Table {
	return c.c0.serverProperties
}

// ServerCapabilities returns the negotiated capabilities sub-table
// (aiorabbit.Client.server_capabilities).
func (c *Client) ServerCapabilities() Table {
	return c.c0.serverCapabilities
}

// RegisterReturnCallback registers the function invoked for every
// Basic.Return delivery (an unroutable mandatory/immediate publish),
// matching aiorabbit.register_message_return_callback.
func (c *Client) RegisterReturnCallback(fn func(*Message)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onMessageReturn = fn
}

// Close gracefully shuts the channel and connection down
// (aiorabbit.Client.close): if the channel is open it sends Channel.Close
// and waits for CloseOk, then issues Connection.Close via Channel0 and
// waits for its CloseOk before tearing down the transport.
func (c *Client) Close(ctx context.Context) error {
	if c.IsClosed() {
		return nil
	}
	cur := c.sm.Current()
	if containsState(stateTransitions[cur], StateChannelCloseSent) {
		if err := c.write(wire.ChannelCloseMethod{ReplyCode: 200, ReplyText: "Client Requested"}); err != nil {
			return err
		}
		if err := c.sm.SetState(StateChannelCloseSent, nil); err != nil {
			return err
		}
		if _, err := c.sm.WaitForState(ctx, StateChannelCloseOkReceived); err != nil {
			log.Log(1, "close: channel closeok wait failed: %v", err)
		}
	}
	return c.shutdown(ctx)
}

func (c *Client) shutdown(ctx context.Context) error {
	if err := c.sm.SetState(StateClosing, nil); err != nil {
		return err
	}
	if err := c.c0.sendClose(200, "Client Requested"); err == nil {
		// ConnectionCloseOk moves the machine to StateClosed from the read
		// loop; a broker that never answers is bounded by ctx.
		if _, err := c.sm.WaitForState(ctx, StateClosed); err != nil {
			log.Log(1, "close: connection closeok wait failed: %v", err)
		}
	}
	err := c.t.close()
	if serr := c.sm.SetState(StateClosed, nil); serr != nil {
		log.Log(1, "close: %v", serr)
	}
	return err
}

func (c *Client) handleDisconnect(err error) {
	log.Log(1, "transport disconnected: %v", err)
	if c.sm.Current() != StateClosed && c.sm.Current() != StateClosing {
		c.sm.SetState(StateException, errors.Wrap(err, "amqp: connection lost"))
	}
}

// backgroundReopenContext bounds the automatic channel reopen triggered by
// an unsolicited Channel.Close; it runs off the read loop with no caller
// waiting on it; so it gets its own generous, fixed timeout rather than a
// caller-supplied context.
func backgroundReopenContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), defaultReopenTimeout)
}

// write serializes a method-frame write; multiple caller goroutines may
// issue operations concurrently, but the underlying net.Conn must see one
// frame at a time.
func (c *Client) write(m wire.Method) error {
	if c.IsClosed() {
		return ErrClosed
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.t.writeMethod(c.channel, m)
}

// writeFrame serializes a raw (non-method) frame write, used by Publish
// for the content-header and content-body frames that follow Basic.Publish.
func (c *Client) writeFrame(frameType uint8, payload []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.t.writeFrame(frameType, c.channel, payload)
}

// takeChannelClose returns the reply carried by the most recent
// unsolicited Channel.Close, if any, for an operation to attach to the
// error it returns when it observes StateChannelCloseReceived.
func (c *Client) takeChannelClose() *Error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastChannelClose
}

// awaitReopen blocks until the automatic channel reopen dispatch.go's
// onChannelCloseReceived kicked off has reached StateChannelOpenOkReceived,
// matching spec.md Category A/B/D's stated sequence of "await the
// auto-initiated re-open, then raise." It uses its own bounded background
// context rather than the caller's ctx: the reopen already runs detached
// from the caller (it must complete even if the caller's own ctx is
// cancelled), and WaitForState's immediate-current-state check means a
// reopen that finished before this call still resolves instantly.
func (c *Client) awaitReopen() {
	ctx, cancel := backgroundReopenContext()
	defer cancel()
	c.sm.WaitForState(ctx, StateChannelOpenOkReceived)
}

// waitForState is the operation-side wait: it forwards to the state
// manager and, when the wait ends in a stored broker error (a
// Connection.Close reply raised through StateException), runs the
// automatic reconnect before re-raising that error to the caller —
// aiorabbit's `except exceptions.AMQPException: ... self._reconnect();
// raise` inside _wait_on_state. Transport-level failures and context
// cancellation pass through untouched.
func (c *Client) waitForState(ctx context.Context, states ...State) (State, error) {
	s, err := c.sm.WaitForState(ctx, states...)
	if err == nil {
		return s, nil
	}
	var broker *Error
	if errors.As(err, &broker) {
		if rerr := c.reconnect(ctx); rerr != nil {
			log.Log(1, "reconnect after %v failed: %v", err, rerr)
		}
	}
	return s, err
}

// reconnect resets the per-connection bookkeeping, re-dials, re-runs the
// handshake and channel open, and restores publisher-confirm mode if it was
// enabled. Outstanding consumers and transactional mode are NOT restored;
// re-registering them is the caller's responsibility. Delivery tags restart
// at 1 on the fresh channel.
func (c *Client) reconnect(ctx context.Context) error {
	c.reconnectMu.Lock()
	defer c.reconnectMu.Unlock()
	if c.sm.Current() != StateException {
		// another waiter already reconnected while this one was queued.
		return nil
	}

	c.t.close()

	c.mu.Lock()
	confirming := c.publisherConfirms
	c.publisherConfirms = false
	c.transactional = false
	c.blocked = false
	c.deliveryTag = 0
	c.channel = 0
	c.pendingConfirms = make(map[uint64]struct{})
	c.confirmResults = make(map[uint64]bool)
	c.confirmWatermark = 0
	c.lastChannelClose = nil
	c.mu.Unlock()

	if err := c.sm.SetState(StateDisconnected, nil); err != nil {
		return err
	}
	if err := c.sm.SetState(StateConnecting, nil); err != nil {
		return err
	}
	conn, err := c.dialFn()
	if err != nil {
		c.sm.SetState(StateClosed, err)
		return err
	}
	if err := c.handshake(ctx, conn); err != nil {
		return err
	}
	if err := c.openChannel(ctx); err != nil {
		return err
	}
	if confirming {
		return c.enableConfirms(ctx)
	}
	return nil
}

// waitOk is the common Category A/B body: wait for okState or an
// unsolicited ChannelCloseReceived, and on the latter translate the saved
// Channel.Close reply into a typed error once the channel has been
// auto-reopened.
func (c *Client) waitOk(ctx context.Context, okState State, method string) error {
	return c.waitOkCleanup(ctx, okState, method, nil)
}

// waitOkCleanup is waitOk plus an onClose hook run before the reopen wait,
// for operations (Category D's Consume) that must also roll back bookkeeping
// they performed before the request was sent once it's clear no Ok is coming.
func (c *Client) waitOkCleanup(ctx context.Context, okState State, method string, onClose func()) error {
	reached, err := c.waitForState(ctx, okState, StateChannelCloseReceived)
	if err != nil {
		return err
	}
	if reached == StateChannelCloseReceived {
		if onClose != nil {
			onClose()
		}
		reply := c.takeChannelClose()
		c.awaitReopen()
		return replyError(method, reply)
	}
	return nil
}
