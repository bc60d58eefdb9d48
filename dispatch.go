package amqp

import (
	"github.com/kestrelmq/amqp/internal/log"
	"github.com/kestrelmq/amqp/internal/wire"
	"github.com/pkg/errors"
)

// setState performs a read-loop transition and escalates a table rejection
// into the exception state: a frame arriving when the table forbids its
// transition means the broker and this client disagree about where the
// protocol is, which poisons every piece of bookkeeping that follows. The
// *StateTransitionError carries both the source and destination names and
// is raised into every pending waiter, the same way codec errors are.
func (c *Client) setState(next State) {
	if err := c.sm.SetState(next, nil); err != nil {
		c.sm.SetState(StateException, err)
	}
}

// dispatchFrame is this client's equivalent of aiorabbit's Client._on_frame:
// the single giant dispatch point every inbound frame passes through,
// mapping a decoded method (or content header/body) to the state transition
// it causes. It runs on the transport's read-loop goroutine — the "one
// event loop dispatches frames and synchronously transitions state" rule
// from this client's concurrency model.
func (c *Client) dispatchFrame(f *wire.Frame) {
	switch f.Type {
	case wire.FrameMethod:
		c.dispatchMethod(f)
	case wire.FrameHeader:
		c.dispatchContentHeader(f)
	case wire.FrameBody:
		c.dispatchContentBody(f)
	case wire.FrameHeartbeat:
		// liveness only; nothing is recorded. The read deadline is moved
		// forward by the heartbeat ticker in transport.startHeartbeat, not
		// by inbound frames.
	}
}

func (c *Client) dispatchMethod(f *wire.Frame) {
	dm, err := wire.DecodeMethodFrame(f)
	if err != nil {
		c.sm.SetState(StateException, err)
		return
	}

	switch dm.ClassID {
	case wire.ClassConnection:
		c.dispatchConnectionMethod(dm)
	case wire.ClassChannel:
		c.dispatchChannelMethod(dm)
	case wire.ClassExchange:
		c.dispatchExchangeMethod(dm)
	case wire.ClassQueue:
		c.dispatchQueueMethod(dm)
	case wire.ClassBasic:
		c.dispatchBasicMethod(dm)
	case wire.ClassTx:
		c.dispatchTxMethod(dm)
	case wire.ClassConfirm:
		c.dispatchConfirmMethod(dm)
	default:
		log.Log(1, "RX: unhandled class %d method %d", dm.ClassID, dm.MethodID)
	}
}

func (c *Client) dispatchConnectionMethod(dm *wire.DecodedMethod) {
	switch dm.MethodID {
	case wire.ConnectionStart:
		m, err := wire.UnmarshalConnectionStart(dm.Args)
		if err != nil {
			c.sm.SetState(StateException, err)
			return
		}
		if err := c.c0.handleStart(m); err != nil {
			c.sm.SetState(StateException, err)
		}

	case wire.ConnectionTune:
		m, err := wire.UnmarshalConnectionTune(dm.Args)
		if err != nil {
			c.sm.SetState(StateException, err)
			return
		}
		if err := c.c0.handleTune(m, c.opts.channelMax, c.opts.frameMax, uint16(c.opts.heartbeat/1e9)); err != nil {
			c.sm.SetState(StateException, err)
			return
		}
		if err := c.c0.sendOpen(); err != nil {
			c.sm.SetState(StateException, err)
			return
		}
		c.t.startHeartbeat(c.c0.heartbeatInterval)

	case wire.ConnectionOpenOk:
		c.setState(StateOpened)

	case wire.ConnectionClose:
		m, err := wire.UnmarshalConnectionClose(dm.Args)
		if err == nil {
			reply := &Error{Code: int(m.ReplyCode), Reason: m.ReplyText}
			if m.ReplyCode == AccessRefused && c.sm.Current() != StateOpened {
				c.sm.SetState(StateException, errors.Wrap(errAuthFailure, reply.Error()))
			} else {
				c.sm.SetState(StateException, reply)
			}
		}
		c.c0.sendCloseOk()

	case wire.ConnectionCloseOk:
		c.setState(StateClosed)

	case wire.ConnectionUpdateSecretOk:
		c.setState(StateUpdateSecretOkReceived)

	case wire.ConnectionBlocked:
		// no state transition defined for these in the table; the flag gates
		// nothing locally, it is surfaced through IsBlocked for callers.
		c.mu.Lock()
		c.blocked = true
		c.mu.Unlock()

	case wire.ConnectionUnblocked:
		c.mu.Lock()
		c.blocked = false
		c.mu.Unlock()
	}
}

func (c *Client) dispatchChannelMethod(dm *wire.DecodedMethod) {
	switch dm.MethodID {
	case wire.ChannelOpenOk:
		c.setState(StateChannelOpenOkReceived)

	case wire.ChannelClose:
		m, err := wire.UnmarshalChannelClose(dm.Args)
		var reply *Error
		if err == nil {
			reply = &Error{Code: int(m.ReplyCode), Reason: m.ReplyText}
		}
		c.mu.Lock()
		c.lastChannelClose = reply
		c.mu.Unlock()
		c.setState(StateChannelCloseReceived)
		// a Get waiting for its Get-Ok will never see one now; hand it the
		// close reply so it fails with the typed error instead of hanging.
		c.resolveGet(getResult{closed: true, reply: reply})
		c.onChannelCloseReceived()

	case wire.ChannelCloseOk:
		c.setState(StateChannelCloseOkReceived)

	case wire.ChannelFlow:
		m, err := wire.UnmarshalChannelFlow(dm.Args)
		if err != nil {
			c.sm.SetState(StateException, err)
			return
		}
		c.setState(StateChannelFlowReceived)
		// advisory at this layer: echo the active bit back and carry on.
		if c.t.writeMethod(c.channel, wire.ChannelFlowOkMethod{Active: m.Active}) == nil {
			c.setState(StateChannelFlowOkSent)
		}
	}
}

// onChannelCloseReceived answers the server's Channel.Close with CloseOk
// and reopens a fresh channel, mirroring aiorabbit's
// _on_channel_closed/_open_channel auto-reopen — the one automatic-retry
// exception this client's Non-goals carve out.
func (c *Client) onChannelCloseReceived() {
	if c.t.writeMethod(c.channel, wire.ChannelCloseOkMethod{}) != nil {
		return
	}
	c.setState(StateChannelCloseOkSent)
	go func() {
		ctx, cancel := backgroundReopenContext()
		defer cancel()
		if err := c.openChannel(ctx); err != nil {
			log.Log(1, "channel reopen failed: %v", err)
			return
		}
		c.mu.Lock()
		confirming := c.publisherConfirms
		c.mu.Unlock()
		if confirming {
			if err := c.enableConfirms(ctx); err != nil {
				log.Log(1, "re-enabling publisher confirms failed: %v", err)
			}
		}
	}()
}

func (c *Client) dispatchExchangeMethod(dm *wire.DecodedMethod) {
	switch dm.MethodID {
	case wire.ExchangeDeclareOk:
		c.setState(StateExchangeDeclareOkReceived)
	case wire.ExchangeDeleteOk:
		c.setState(StateExchangeDeleteOkReceived)
	case wire.ExchangeBindOk:
		c.setState(StateExchangeBindOkReceived)
	case wire.ExchangeUnbindOk:
		c.setState(StateExchangeUnbindOkReceived)
	}
}

func (c *Client) dispatchQueueMethod(dm *wire.DecodedMethod) {
	switch dm.MethodID {
	case wire.QueueDeclareOk:
		m, err := wire.UnmarshalQueueDeclareOk(dm.Args)
		if err == nil {
			c.mu.Lock()
			c.lastQueueDeclareOk = m
			c.mu.Unlock()
		}
		c.setState(StateQueueDeclareOkReceived)
	case wire.QueueBindOk:
		c.setState(StateQueueBindOkReceived)
	case wire.QueuePurgeOk:
		m, err := wire.UnmarshalQueuePurgeOk(dm.Args)
		if err == nil {
			c.mu.Lock()
			c.lastPurgeCount = m.MessageCount
			c.mu.Unlock()
		}
		c.setState(StateQueuePurgeOkReceived)
	case wire.QueueDeleteOk:
		m, err := wire.UnmarshalQueueDeleteOk(dm.Args)
		if err == nil {
			c.mu.Lock()
			c.lastDeleteCount = m.MessageCount
			c.mu.Unlock()
		}
		c.setState(StateQueueDeleteOkReceived)
	case wire.QueueUnbindOk:
		c.setState(StateQueueUnbindOkReceived)
	}
}

func (c *Client) dispatchBasicMethod(dm *wire.DecodedMethod) {
	switch dm.MethodID {
	case wire.BasicQosOk:
		c.setState(StateBasicQosOkReceived)

	case wire.BasicConsumeOk:
		m, err := wire.UnmarshalBasicConsumeOk(dm.Args)
		if err == nil {
			c.consumers.resolve(m.ConsumerTag)
			c.mu.Lock()
			c.lastConsumerTag = m.ConsumerTag
			c.mu.Unlock()
		}
		c.setState(StateBasicConsumeOkReceived)

	case wire.BasicCancelOk:
		m, err := wire.UnmarshalBasicCancelOk(dm.Args)
		if err == nil {
			c.consumers.cancel(m.ConsumerTag)
		}
		c.setState(StateBasicCancelOkReceived)

	case wire.BasicCancel:
		// server-initiated cancel (e.g. queue deleted): recorded only as the
		// STATE_BASIC_CANCEL_RECEIVED idle transition; the consumer's
		// callback stays in the live consumer map.
		c.setState(StateBasicCancelReceived)

	case wire.BasicDeliver:
		m, err := wire.UnmarshalBasicDeliver(dm.Args)
		if err != nil {
			c.sm.SetState(StateException, err)
			return
		}
		c.asm.beginDeliver(m)
		c.setState(StateBasicDeliverReceived)

	case wire.BasicGetOk:
		m, err := wire.UnmarshalBasicGetOk(dm.Args)
		if err != nil {
			c.sm.SetState(StateException, err)
			return
		}
		c.asm.beginGetOk(m)
		c.setState(StateBasicGetOkReceived)

	case wire.BasicGetEmpty:
		c.setState(StateBasicGetEmptyReceived)
		c.resolveGet(getResult{})

	case wire.BasicReturn:
		m, err := wire.UnmarshalBasicReturn(dm.Args)
		if err != nil {
			c.sm.SetState(StateException, err)
			return
		}
		c.asm.beginReturn(m)
		c.setState(StateBasicReturnReceived)

	case wire.BasicAck:
		m, err := wire.UnmarshalBasicAck(dm.Args)
		if err == nil {
			c.recordConfirm(m.DeliveryTag, m.Multiple, true)
		}
		c.setState(StateBasicAckReceived)

	case wire.BasicNack:
		m, err := wire.UnmarshalBasicNack(dm.Args)
		if err == nil {
			c.recordConfirm(m.DeliveryTag, m.Multiple, false)
		}
		c.setState(StateBasicNackReceived)

	case wire.BasicRecoverOk:
		c.setState(StateBasicRecoverOkReceived)
	}
}

func (c *Client) dispatchTxMethod(dm *wire.DecodedMethod) {
	switch dm.MethodID {
	case wire.TxSelectOk:
		c.setState(StateTxSelectOkReceived)
	case wire.TxCommitOk:
		c.setState(StateTxCommitOkReceived)
	case wire.TxRollbackOk:
		c.setState(StateTxRollbackOkReceived)
	}
}

func (c *Client) dispatchConfirmMethod(dm *wire.DecodedMethod) {
	if dm.MethodID == wire.ConfirmSelectOk {
		c.setState(StateConfirmSelectOkReceived)
	}
}

func (c *Client) dispatchContentHeader(f *wire.Frame) {
	h, err := wire.UnmarshalContentHeader(wire.NewReader(f.Payload))
	if err != nil {
		c.sm.SetState(StateException, err)
		return
	}
	done := c.asm.acceptHeader(h)
	c.setState(StateContentHeaderReceived)
	if done {
		c.completeMessage()
	}
}

func (c *Client) dispatchContentBody(f *wire.Frame) {
	done := c.asm.acceptBody(f.Payload)
	c.setState(StateContentBodyReceived)
	if done {
		c.completeMessage()
	}
}

// completeMessage fires once a Message is fully assembled: it routes a
// Return to the registered return callback, a Deliver to its consumer, and
// a Get-Ok to the waiting Get call's one-shot future. The three paths are
// disjoint — only the message announced by Basic.Get-Ok can resolve the
// Get future, however the completions interleave.
func (c *Client) completeMessage() {
	c.setState(StateMessageAssembled)
	m := c.asm.take()
	switch m.Delivery {
	case DeliveryDeliver:
		c.consumers.deliver(m.ConsumerTag, m)
	case DeliveryReturn:
		c.mu.Lock()
		cb := c.onMessageReturn
		c.mu.Unlock()
		if cb != nil {
			cb(m)
		}
	case DeliveryGet:
		c.resolveGet(getResult{msg: m})
	}
}

// recordConfirm tracks a publisher-confirm Ack/Nack against pendingConfirms.
// multiple=true acknowledges every outstanding tag up to and including
// deliveryTag — the watermark semantics this client's Open Questions flag
// as ambiguous; this client resolves the full range rather than only the
// pivot tag, matching the protocol's stated meaning of the multiple bit.
// Each resolved tag's outcome is recorded in confirmResults for
// awaitConfirm (publish.go) to collect.
func (c *Client) recordConfirm(deliveryTag uint64, multiple, positive bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if multiple {
		for tag := range c.pendingConfirms {
			if tag <= deliveryTag {
				delete(c.pendingConfirms, tag)
				c.confirmResults[tag] = positive
			}
		}
		if deliveryTag > c.confirmWatermark {
			c.confirmWatermark = deliveryTag
		}
		return
	}
	if _, ok := c.pendingConfirms[deliveryTag]; ok {
		delete(c.pendingConfirms, deliveryTag)
		c.confirmResults[deliveryTag] = positive
	}
}
