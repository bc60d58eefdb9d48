package amqp

import (
	"context"

	"github.com/kestrelmq/amqp/internal/wire"
	"github.com/pkg/errors"
)

// Consume starts a queue consumer and returns the consumer tag the server
// assigned it (or the one requested, if the caller supplied one).
// callback is invoked once per assembled Message for the lifetime of the
// consumer. Matches aiorabbit.basic_consume's callback-passing form.
func (c *Client) Consume(ctx context.Context, queue string, noLocal, noAck, exclusive bool, args Table, callback ConsumerFunc, consumerTag string) (string, error) {
	if err := validateShortStr("queue", queue); err != nil {
		return "", err
	}
	if err := validateShortStr("consumer_tag", consumerTag); err != nil {
		return "", err
	}
	if err := validateFieldTable("arguments", args); err != nil {
		return "", err
	}

	c.consumers.enqueue(&pendingConsumer{callback: callback})

	if err := c.write(wire.BasicConsumeMethod{
		Queue: queue, ConsumerTag: consumerTag, NoLocal: noLocal,
		NoAck: noAck, Exclusive: exclusive, Arguments: args,
	}); err != nil {
		return "", err
	}
	if err := c.sm.SetState(StateBasicConsumeSent, nil); err != nil {
		return "", err
	}
	if err := c.waitOkCleanup(ctx, StateBasicConsumeOkReceived, "basic.consume", c.consumers.dequeueFront); err != nil {
		return "", err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastConsumerTag, nil
}

// Cancel ends a consumer: it sends Basic.Cancel and waits for the server's
// CancelOk, whose dispatch removes the tag from the live consumer map,
// matching aiorabbit.basic_cancel.
func (c *Client) Cancel(ctx context.Context, consumerTag string) error {
	if err := c.write(wire.BasicCancelMethod{ConsumerTag: consumerTag}); err != nil {
		return err
	}
	if err := c.sm.SetState(StateBasicCancelSent, nil); err != nil {
		return err
	}
	_, err := c.waitForState(ctx, StateBasicCancelOkReceived)
	return err
}

// getResult is the resolution of an in-flight Basic.Get: the assembled
// message (nil after Basic.Get-Empty), or the Channel.Close reply that
// aborted the request.
type getResult struct {
	msg    *Message
	closed bool
	reply  *Error
}

// Get fetches a single message from queue without a standing consumer
// (Basic.Get). It returns (nil, nil) if the queue was empty
// (Basic.Get-Empty). The reply is awaited on a one-shot future installed
// before the request is written — aiorabbit's basic_get awaits a dedicated
// Future rather than _wait_on_state, so a Deliver or Return completing for
// another consumer while the Get is outstanding can never resolve it. At
// most one Get may be in flight at a time.
func (c *Client) Get(ctx context.Context, queue string, noAck bool) (*Message, error) {
	if err := validateShortStr("queue", queue); err != nil {
		return nil, err
	}

	ch := make(chan getResult, 1)
	c.mu.Lock()
	if c.getWaiter != nil {
		c.mu.Unlock()
		return nil, errGetOutstanding
	}
	c.getWaiter = ch
	c.mu.Unlock()
	abandon := func() {
		c.mu.Lock()
		if c.getWaiter == ch {
			c.getWaiter = nil
		}
		c.mu.Unlock()
	}

	if err := c.write(wire.BasicGetMethod{Queue: queue, NoAck: noAck}); err != nil {
		abandon()
		return nil, err
	}
	if err := c.sm.SetState(StateBasicGetSent, nil); err != nil {
		abandon()
		return nil, err
	}

	select {
	case r := <-ch:
		if r.closed {
			c.awaitReopen()
			return nil, replyError("basic.get", r.reply)
		}
		return r.msg, nil
	case <-ctx.Done():
		abandon()
		return nil, ctx.Err()
	}
}

// resolveGet completes the in-flight Basic.Get, if one is outstanding. The
// waiter slot is cleared here so a frame arriving after an abandoned Get
// cannot resolve a later call's future.
func (c *Client) resolveGet(r getResult) {
	c.mu.Lock()
	ch := c.getWaiter
	c.getWaiter = nil
	c.mu.Unlock()
	if ch != nil {
		ch <- r
	}
}

var errGetOutstanding = errors.New("amqp: a basic.get is already outstanding")
