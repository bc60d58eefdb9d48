package amqp

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/fortytw2/leaktest"
	"github.com/kestrelmq/amqp/internal/mocks"
	"github.com/kestrelmq/amqp/internal/wire"
	"github.com/stretchr/testify/require"
)

func testConnectOptions() *connectOptions {
	return &connectOptions{
		network:        "tcp",
		addr:           "mock:5672",
		username:       "guest",
		password:       "guest",
		vhost:          "/",
		connectTimeout: time.Second,
		channelMax:     defaultChannelMax,
		frameMax:       defaultFrameMax,
		heartbeat:      0,
		locale:         DefaultLocale,
		product:        DefaultProduct,
	}
}

// startFrame builds a Connection.Start method frame advertising
// publisher_confirms, the capability ConfirmSelect/enableConfirms checks for.
func startFrame() []byte {
	m := wire.ConnectionStartMethod{
		VersionMajor: 0, VersionMinor: 9,
		ServerProperties: map[string]interface{}{
			"capabilities": map[string]interface{}{
				"publisher_confirms": true,
			},
		},
		Mechanisms: "PLAIN",
		Locales:    "en_US",
	}
	return wire.MarshalFrame(wire.FrameMethod, 0, wire.MarshalMethod(m))
}

// basicResponder auto-answers the Connection/Channel handshake methods every
// test needs regardless of what it's specifically exercising, and falls
// through to extra for anything test-specific (exchange/queue/basic replies,
// injected Channel.Close, etc).
func basicResponder(extra func(f *wire.Frame) []byte) mocks.Responder {
	return func(f *wire.Frame) []byte {
		if f.Type != wire.FrameMethod {
			if extra != nil {
				return extra(f)
			}
			return nil
		}
		dm, err := wire.DecodeMethodFrame(f)
		if err != nil {
			return nil
		}
		switch {
		case dm.ClassID == wire.ClassConnection && dm.MethodID == wire.ConnectionStartOk:
			return wire.MarshalFrame(wire.FrameMethod, 0, wire.MarshalMethod(
				wire.ConnectionTuneMethod{ChannelMax: 2047, FrameMax: defaultFrameMax, Heartbeat: 0}))
		case dm.ClassID == wire.ClassConnection && dm.MethodID == wire.ConnectionOpen:
			return wire.MarshalFrame(wire.FrameMethod, 0, wire.MarshalMethod(wire.ConnectionOpenOkMethod{}))
		case dm.ClassID == wire.ClassConnection && dm.MethodID == wire.ConnectionClose:
			return wire.MarshalFrame(wire.FrameMethod, 0, wire.MarshalMethod(wire.ConnectionCloseOkMethod{}))
		case dm.ClassID == wire.ClassChannel && dm.MethodID == wire.ChannelOpen:
			return wire.MarshalFrame(wire.FrameMethod, f.Channel, wire.MarshalMethod(wire.ChannelOpenOkMethod{}))
		case dm.ClassID == wire.ClassChannel && dm.MethodID == wire.ChannelClose:
			return wire.MarshalFrame(wire.FrameMethod, f.Channel, wire.MarshalMethod(wire.ChannelCloseOkMethod{}))
		default:
			if extra != nil {
				return extra(f)
			}
			return nil
		}
	}
}

func connectTestClient(t *testing.T, extra func(f *wire.Frame) []byte) (*Client, *mocks.NetConn) {
	t.Helper()
	conn := mocks.NewNetConn(basicResponder(extra))
	conn.Server(startFrame())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	c, err := connectOverConn(ctx, conn, testConnectOptions())
	require.NoError(t, err)
	return c, conn
}

func TestConnectOverConnCompletesHandshakeAndOpensChannel(t *testing.T) {
	c, _ := connectTestClient(t, nil)
	require.Equal(t, StateChannelOpenOkReceived, c.sm.Current())
	require.Equal(t, uint16(1), c.channel)
	require.False(t, c.IsClosed())
}

func TestServerPropertiesAndCapabilitiesAreCaptured(t *testing.T) {
	c, _ := connectTestClient(t, nil)
	caps := c.ServerCapabilities()
	require.Equal(t, true, caps["publisher_confirms"])
}

func TestExchangeDeclareSuccess(t *testing.T) {
	c, _ := connectTestClient(t, func(f *wire.Frame) []byte {
		dm, err := wire.DecodeMethodFrame(f)
		if err != nil || dm.ClassID != wire.ClassExchange || dm.MethodID != wire.ExchangeDeclare {
			return nil
		}
		return wire.MarshalFrame(wire.FrameMethod, f.Channel, wire.MarshalMethod(wire.ExchangeDeclareOkMethod{}))
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	err := c.ExchangeDeclare(ctx, "orders", "topic", false, true, false, false, nil)
	require.NoError(t, err)
}

func TestQueueDeclareReturnsServerCounts(t *testing.T) {
	c, _ := connectTestClient(t, func(f *wire.Frame) []byte {
		dm, err := wire.DecodeMethodFrame(f)
		if err != nil || dm.ClassID != wire.ClassQueue || dm.MethodID != wire.QueueDeclare {
			return nil
		}
		return wire.MarshalFrame(wire.FrameMethod, f.Channel, wire.MarshalMethod(
			wire.QueueDeclareOkMethod{Queue: "orders", MessageCount: 4, ConsumerCount: 1}))
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	msgCount, consumerCount, err := c.QueueDeclare(ctx, "orders", false, true, false, false, nil)
	require.NoError(t, err)
	require.Equal(t, uint32(4), msgCount)
	require.Equal(t, uint32(1), consumerCount)
}

func TestQueueBindSuccess(t *testing.T) {
	c, _ := connectTestClient(t, func(f *wire.Frame) []byte {
		dm, err := wire.DecodeMethodFrame(f)
		if err != nil || dm.ClassID != wire.ClassQueue || dm.MethodID != wire.QueueBind {
			return nil
		}
		return wire.MarshalFrame(wire.FrameMethod, f.Channel, wire.MarshalMethod(wire.QueueBindOkMethod{}))
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, c.QueueBind(ctx, "orders", "orders.topic", "orders.created", nil))
}

// TestExchangeDeclareChannelClosedByServerReopensAndReturnsTypedError drives
// a server-initiated Channel.Close (PreconditionFailed, the reply code a
// broker sends for a conflicting redeclare) instead of ExchangeDeclareOk,
// and verifies the operation returns a *ReplyError while leaving the channel
// auto-reopened and usable for a subsequent operation.
func TestExchangeDeclareChannelClosedByServerReopensAndReturnsTypedError(t *testing.T) {
	// basicResponder already auto-answers the reopen's Channel.Open with an
	// OpenOk regardless of channel number, so extra only needs to cover the
	// ExchangeDeclare rejection itself.
	c, _ := connectTestClient(t, func(f *wire.Frame) []byte {
		dm, err := wire.DecodeMethodFrame(f)
		if err != nil || dm.ClassID != wire.ClassExchange || dm.MethodID != wire.ExchangeDeclare {
			return nil
		}
		return wire.MarshalFrame(wire.FrameMethod, f.Channel, wire.MarshalMethod(wire.ChannelCloseMethod{
			ReplyCode: uint16(PreconditionFailed), ReplyText: "inequivalent arg",
			ClassId: wire.ClassExchange, MethodId: wire.ExchangeDeclare,
		}))
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	err := c.ExchangeDeclare(ctx, "orders", "topic", false, true, false, false, nil)
	require.Error(t, err)

	var replyErr *ReplyError
	require.ErrorAs(t, err, &replyErr)
	require.Equal(t, "PreconditionFailed", replyErr.Kind)

	// channel must have been auto-reopened: state settles back at idle.
	reached, waitErr := c.sm.WaitForState(ctx, StateChannelOpenOkReceived)
	require.NoError(t, waitErr)
	require.Equal(t, StateChannelOpenOkReceived, reached)
}

func TestGetReturnsNilOnEmptyQueue(t *testing.T) {
	c, _ := connectTestClient(t, func(f *wire.Frame) []byte {
		dm, err := wire.DecodeMethodFrame(f)
		if err != nil || dm.ClassID != wire.ClassBasic || dm.MethodID != wire.BasicGet {
			return nil
		}
		return wire.MarshalFrame(wire.FrameMethod, f.Channel, wire.MarshalMethod(wire.BasicGetEmptyMethod{}))
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	m, err := c.Get(ctx, "orders", false)
	require.NoError(t, err)
	require.Nil(t, m)
}

func TestGetReturnsAssembledMessage(t *testing.T) {
	c, _ := connectTestClient(t, func(f *wire.Frame) []byte {
		dm, err := wire.DecodeMethodFrame(f)
		if err != nil || dm.ClassID != wire.ClassBasic || dm.MethodID != wire.BasicGet {
			return nil
		}
		getOk := wire.MarshalFrame(wire.FrameMethod, f.Channel, wire.MarshalMethod(
			wire.BasicGetOkMethod{DeliveryTag: 1, Exchange: "orders", RoutingKey: "orders.created", MessageCount: 0}))
		header := (&wire.ContentHeader{ClassID: wire.ClassBasic, BodySize: 5, HasContentType: true, ContentType: "text/plain"}).Marshal()
		headerFrame := wire.MarshalFrame(wire.FrameHeader, f.Channel, header)
		bodyFrame := wire.MarshalFrame(wire.FrameBody, f.Channel, []byte("hello"))
		out := append(append([]byte{}, getOk...), headerFrame...)
		out = append(out, bodyFrame...)
		return out
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	m, err := c.Get(ctx, "orders", false)
	require.NoError(t, err)
	require.NotNil(t, m)
	require.Equal(t, []byte("hello"), m.Body)
	require.Equal(t, "text/plain", m.Properties.ContentType)
}

// TestGetIsNotResolvedByReturnCompletion drives a Basic.Return (an
// unroutable mandatory publish handed back by the broker) to full assembly
// and then issues a Get while the machine still sits in the Return's
// message-assembled state. A wait on the shared assembled-state signal
// would resolve instantly with no Get-Ok message in hand; the Get's
// dedicated one-shot future must instead stay pending until the broker's
// actual Get-Ok arrives, and the Return must reach only the registered
// return callback.
func TestGetIsNotResolvedByReturnCompletion(t *testing.T) {
	returnBurst := func(ch uint16) []byte {
		var out []byte
		out = append(out, wire.MarshalFrame(wire.FrameMethod, ch, wire.MarshalMethod(
			wire.BasicReturnMethod{ReplyCode: uint16(NoRoute), ReplyText: "unroutable", Exchange: "orders", RoutingKey: "nowhere"}))...)
		out = append(out, wire.MarshalFrame(wire.FrameHeader, ch,
			(&wire.ContentHeader{ClassID: wire.ClassBasic, BodySize: 8}).Marshal())...)
		out = append(out, wire.MarshalFrame(wire.FrameBody, ch, []byte("returned"))...)
		return out
	}
	getOkBurst := func(ch uint16) []byte {
		var out []byte
		out = append(out, wire.MarshalFrame(wire.FrameMethod, ch, wire.MarshalMethod(
			wire.BasicGetOkMethod{DeliveryTag: 2, Exchange: "orders", RoutingKey: "orders.created"}))...)
		out = append(out, wire.MarshalFrame(wire.FrameHeader, ch,
			(&wire.ContentHeader{ClassID: wire.ClassBasic, BodySize: 7}).Marshal())...)
		out = append(out, wire.MarshalFrame(wire.FrameBody, ch, []byte("for-get"))...)
		return out
	}
	c, conn := connectTestClient(t, func(f *wire.Frame) []byte {
		if f.Type != wire.FrameMethod {
			return nil
		}
		dm, err := wire.DecodeMethodFrame(f)
		if err != nil || dm.ClassID != wire.ClassBasic || dm.MethodID != wire.BasicGet {
			return nil
		}
		return getOkBurst(f.Channel)
	})

	returned := make(chan *Message, 1)
	c.RegisterReturnCallback(func(m *Message) { returned <- m })

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	ok, err := c.Publish(ctx, "orders", "nowhere", true, false, Publishing{Body: []byte("hello")})
	require.NoError(t, err)
	require.True(t, ok)

	// the broker hands the unroutable publish back once the body frame is
	// on the wire; Publish has already returned, so the machine sits in the
	// post-publish state the Return legally follows.
	conn.Server(returnBurst(c.channel))

	select {
	case r := <-returned:
		require.Equal(t, []byte("returned"), r.Body)
		require.Equal(t, uint16(NoRoute), r.ReplyCode)
	case <-time.After(time.Second):
		t.Fatal("return callback was never invoked")
	}

	m, err := c.Get(ctx, "orders", false)
	require.NoError(t, err)
	require.NotNil(t, m)
	require.Equal(t, []byte("for-get"), m.Body)
	require.Equal(t, DeliveryGet, m.Delivery)
}

func TestGetRejectsSecondOutstandingGet(t *testing.T) {
	// the responder never answers Basic.Get, so the first Get stays in
	// flight for the duration of the test.
	c, _ := connectTestClient(t, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	first := make(chan error, 1)
	go func() {
		_, err := c.Get(ctx, "orders", false)
		first <- err
	}()

	require.Eventually(t, func() bool {
		return c.sm.Current() == StateBasicGetSent
	}, time.Second, time.Millisecond)

	_, err := c.Get(ctx, "orders", false)
	require.ErrorIs(t, err, errGetOutstanding)

	require.ErrorIs(t, <-first, context.DeadlineExceeded)
}

// TestUnsolicitedReplyEscalatesToException verifies the read loop's
// transition discipline: a reply frame the table has no transition for
// (an ExchangeDeclareOk with no ExchangeDeclare in flight) forces the
// exception state carrying a *StateTransitionError.
func TestUnsolicitedReplyEscalatesToException(t *testing.T) {
	c, conn := connectTestClient(t, nil)

	conn.Server(wire.MarshalFrame(wire.FrameMethod, c.channel,
		wire.MarshalMethod(wire.ExchangeDeclareOkMethod{})))

	require.Eventually(t, func() bool {
		return c.sm.Current() == StateException
	}, time.Second, time.Millisecond)

	var tErr *StateTransitionError
	require.ErrorAs(t, c.sm.LastError(), &tErr)
	require.Equal(t, StateChannelOpenOkReceived, tErr.From)
	require.Equal(t, StateExchangeDeclareOkReceived, tErr.To)
}

func TestConsumeDeliversMessagesToCallback(t *testing.T) {
	delivered := make(chan *Message, 1)
	var consumeReplied bool
	c, conn := connectTestClient(t, func(f *wire.Frame) []byte {
		dm, err := wire.DecodeMethodFrame(f)
		if err != nil || dm.ClassID != wire.ClassBasic || dm.MethodID != wire.BasicConsume {
			return nil
		}
		consumeReplied = true
		return wire.MarshalFrame(wire.FrameMethod, f.Channel, wire.MarshalMethod(wire.BasicConsumeOkMethod{ConsumerTag: "ctag-1"}))
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	tag, err := c.Consume(ctx, "orders", false, false, false, nil, func(m *Message) {
		delivered <- m
	}, "")
	require.NoError(t, err)
	require.Equal(t, "ctag-1", tag)
	require.True(t, consumeReplied)

	deliver := wire.MarshalFrame(wire.FrameMethod, c.channel, wire.MarshalMethod(
		wire.BasicDeliverMethod{ConsumerTag: "ctag-1", DeliveryTag: 1, Exchange: "orders", RoutingKey: "orders.created"}))
	header := wire.MarshalFrame(wire.FrameHeader, c.channel,
		(&wire.ContentHeader{ClassID: wire.ClassBasic, BodySize: 3}).Marshal())
	body := wire.MarshalFrame(wire.FrameBody, c.channel, []byte("abc"))
	conn.Server(append(append(deliver, header...), body...))

	select {
	case m := <-delivered:
		require.Equal(t, []byte("abc"), m.Body)
		require.Equal(t, "ctag-1", m.ConsumerTag)
	case <-time.After(time.Second):
		t.Fatal("consumer callback was never invoked")
	}
}

// connectWithAssembledMessage runs Get to completion so the state machine is
// sitting at StateMessageAssembled, the one state Basic.Ack/Nack/Reject are
// reachable from, and returns the client with that delivery ready to be
// acknowledged.
func connectWithAssembledMessage(t *testing.T) *Client {
	t.Helper()
	c, _ := connectTestClient(t, func(f *wire.Frame) []byte {
		dm, err := wire.DecodeMethodFrame(f)
		if err != nil || dm.ClassID != wire.ClassBasic || dm.MethodID != wire.BasicGet {
			return nil
		}
		getOk := wire.MarshalFrame(wire.FrameMethod, f.Channel, wire.MarshalMethod(
			wire.BasicGetOkMethod{DeliveryTag: 1, Exchange: "orders", RoutingKey: "orders.created"}))
		header := wire.MarshalFrame(wire.FrameHeader, f.Channel,
			(&wire.ContentHeader{ClassID: wire.ClassBasic, BodySize: 0}).Marshal())
		return append(getOk, header...)
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	m, err := c.Get(ctx, "orders", false)
	require.NoError(t, err)
	require.NotNil(t, m)
	require.Equal(t, StateMessageAssembled, c.sm.Current())
	return c
}

func TestAckIsFireAndForget(t *testing.T) {
	c := connectWithAssembledMessage(t)
	require.NoError(t, c.Ack(1, false))
	require.Equal(t, StateBasicAckSent, c.sm.Current())
}

func TestNackIsFireAndForget(t *testing.T) {
	c := connectWithAssembledMessage(t)
	require.NoError(t, c.Nack(1, false, true))
	require.Equal(t, StateBasicNackSent, c.sm.Current())
}

func TestRejectIsFireAndForget(t *testing.T) {
	c := connectWithAssembledMessage(t)
	require.NoError(t, c.Reject(1, true))
	require.Equal(t, StateBasicRejectSent, c.sm.Current())
}

func TestExchangeDeclareRejectsInvalidName(t *testing.T) {
	c, _ := connectTestClient(t, nil)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	err := c.ExchangeDeclare(ctx, "no spaces allowed", "topic", false, true, false, false, nil)

	var argErr *ArgumentError
	require.ErrorAs(t, err, &argErr)
	require.Equal(t, "exchange", argErr.Field)
	// validation failures never touch the wire or the state machine.
	require.Equal(t, StateChannelOpenOkReceived, c.sm.Current())
}

func TestPublishRejectsInvalidDeliveryMode(t *testing.T) {
	c, _ := connectTestClient(t, nil)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err := c.Publish(ctx, "orders", "orders.created", false, false, Publishing{
		Properties: Properties{DeliveryMode: 3},
		Body:       []byte("x"),
	})

	var argErr *ArgumentError
	require.ErrorAs(t, err, &argErr)
	require.Equal(t, "delivery_mode", argErr.Field)
}

func TestQueueBindRejectsOverlongRoutingKey(t *testing.T) {
	c, _ := connectTestClient(t, nil)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	long := make([]byte, 257)
	for i := range long {
		long[i] = 'k'
	}
	err := c.QueueBind(ctx, "orders", "orders.topic", string(long), nil)

	var argErr *ArgumentError
	require.ErrorAs(t, err, &argErr)
	require.Equal(t, "routing_key", argErr.Field)
}

func TestChannelFlowIsAnsweredWithFlowOk(t *testing.T) {
	flowOk := make(chan bool, 1)
	c, conn := connectTestClient(t, func(f *wire.Frame) []byte {
		dm, err := wire.DecodeMethodFrame(f)
		if err != nil || dm.ClassID != wire.ClassChannel || dm.MethodID != wire.ChannelFlowOk {
			return nil
		}
		m, err := wire.UnmarshalChannelFlow(dm.Args)
		if err == nil {
			flowOk <- m.Active
		}
		return nil
	})

	conn.Server(wire.MarshalFrame(wire.FrameMethod, c.channel,
		wire.MarshalMethod(wire.ChannelFlowMethod{Active: true})))

	select {
	case active := <-flowOk:
		require.True(t, active)
	case <-time.After(time.Second):
		t.Fatal("Channel.Flow was never answered with FlowOk")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	reached, err := c.sm.WaitForState(ctx, StateChannelFlowOkSent)
	require.NoError(t, err)
	require.Equal(t, StateChannelFlowOkSent, reached)
}

func TestConnectionBlockedTogglesIsBlocked(t *testing.T) {
	c, conn := connectTestClient(t, nil)
	require.False(t, c.IsBlocked())

	conn.Server(wire.MarshalFrame(wire.FrameMethod, 0,
		wire.MarshalMethod(wire.ConnectionBlockedMethod{Reason: "memory alarm"})))
	require.Eventually(t, c.IsBlocked, time.Second, time.Millisecond)

	conn.Server(wire.MarshalFrame(wire.FrameMethod, 0,
		wire.MarshalMethod(wire.ConnectionUnblockedMethod{})))
	require.Eventually(t, func() bool { return !c.IsBlocked() }, time.Second, time.Millisecond)
}

// TestReconnectAfterBrokerConnectionClose drives the automatic reconnect:
// the broker answers an operation with Connection.Close instead of the
// expected Ok, the waiting operation gets the broker's reply as its error,
// and by the time it returns the client has re-dialed, re-handshaken and
// re-opened a channel, leaving it usable for the next operation.
func TestReconnectAfterBrokerConnectionClose(t *testing.T) {
	declareOk := func(f *wire.Frame) []byte {
		dm, err := wire.DecodeMethodFrame(f)
		if err != nil || dm.ClassID != wire.ClassExchange || dm.MethodID != wire.ExchangeDeclare {
			return nil
		}
		return wire.MarshalFrame(wire.FrameMethod, f.Channel, wire.MarshalMethod(wire.ExchangeDeclareOkMethod{}))
	}

	c, _ := connectTestClient(t, func(f *wire.Frame) []byte {
		dm, err := wire.DecodeMethodFrame(f)
		if err != nil || dm.ClassID != wire.ClassConnection || dm.MethodID != wire.ConnectionUpdateSecret {
			return nil
		}
		return wire.MarshalFrame(wire.FrameMethod, 0, wire.MarshalMethod(wire.ConnectionCloseMethod{
			ReplyCode: uint16(ConnectionForced), ReplyText: "broker shutting down",
		}))
	})
	c.dialFn = func() (net.Conn, error) {
		conn := mocks.NewNetConn(basicResponder(declareOk))
		conn.Server(startFrame())
		return conn, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	err := c.UpdateSecret(ctx, "new-token", "rotation")
	require.Error(t, err)
	var broker *Error
	require.ErrorAs(t, err, &broker)
	require.Equal(t, ConnectionForced, broker.Code)

	// the reconnect has already completed; a fresh operation works.
	require.NoError(t, c.ExchangeDeclare(ctx, "orders", "topic", false, true, false, false, nil))
}

// TestCloseTearsDownTransport covers Close right after a fresh connect: the
// client sits in StateChannelOpenOkReceived, from which Channel.Close may be
// sent, so Close first runs the Channel.Close/CloseOk round-trip (answered by
// basicResponder) and then the Connection.Close exchange and transport
// teardown. leaktest verifies the read loop exits with the connection.
func TestCloseTearsDownTransport(t *testing.T) {
	defer leaktest.Check(t)()

	c, _ := connectTestClient(t, nil)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, c.Close(ctx))
	require.True(t, c.IsClosed())

	// closing again is a no-op, matching aiorabbit's idempotent close.
	require.NoError(t, c.Close(ctx))
}
