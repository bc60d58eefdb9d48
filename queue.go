package amqp

import (
	"context"

	"github.com/kestrelmq/amqp/internal/wire"
)

// QueueDeclare declares a queue and returns the server-reported message and
// consumer counts (aiorabbit.queue_declare returns the (message_count,
// consumer_count) tuple the same way). A server-side Channel.Close (e.g.
// redeclaring an exclusive queue from a second connection yields
// ResourceLocked) surfaces as the typed error its reply code maps to,
// after the channel has been auto-reopened.
func (c *Client) QueueDeclare(ctx context.Context, name string, passive, durable, exclusive, autoDelete bool, args Table) (messageCount, consumerCount uint32, err error) {
	if err := validateShortStr("queue", name); err != nil {
		return 0, 0, err
	}
	if err := validateFieldTable("arguments", args); err != nil {
		return 0, 0, err
	}
	if err := c.write(wire.QueueDeclareMethod{
		Queue: name, Passive: passive, Durable: durable,
		Exclusive: exclusive, AutoDelete: autoDelete, Arguments: args,
	}); err != nil {
		return 0, 0, err
	}
	if err := c.sm.SetState(StateQueueDeclareSent, nil); err != nil {
		return 0, 0, err
	}
	if err := c.waitOk(ctx, StateQueueDeclareOkReceived, "queue.declare"); err != nil {
		return 0, 0, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lastQueueDeclareOk == nil {
		return 0, 0, nil
	}
	return c.lastQueueDeclareOk.MessageCount, c.lastQueueDeclareOk.ConsumerCount, nil
}

// QueueBind binds queue to exchange under routingKey.
func (c *Client) QueueBind(ctx context.Context, queue, exchange, routingKey string, args Table) error {
	if err := validateQueueBinding(queue, exchange, routingKey, args); err != nil {
		return err
	}
	if err := c.write(wire.QueueBindMethod{Queue: queue, Exchange: exchange, RoutingKey: routingKey, Arguments: args}); err != nil {
		return err
	}
	if err := c.sm.SetState(StateQueueBindSent, nil); err != nil {
		return err
	}
	return c.waitOk(ctx, StateQueueBindOkReceived, "queue.bind")
}

// QueueUnbind removes a queue-to-exchange binding.
func (c *Client) QueueUnbind(ctx context.Context, queue, exchange, routingKey string, args Table) error {
	if err := validateQueueBinding(queue, exchange, routingKey, args); err != nil {
		return err
	}
	if err := c.write(wire.QueueUnbindMethod{Queue: queue, Exchange: exchange, RoutingKey: routingKey, Arguments: args}); err != nil {
		return err
	}
	if err := c.sm.SetState(StateQueueUnbindSent, nil); err != nil {
		return err
	}
	return c.waitOk(ctx, StateQueueUnbindOkReceived, "queue.unbind")
}

// QueuePurge removes all messages from queue and returns the purge count.
func (c *Client) QueuePurge(ctx context.Context, queue string) (uint32, error) {
	if err := c.write(wire.QueuePurgeMethod{Queue: queue}); err != nil {
		return 0, err
	}
	if err := c.sm.SetState(StateQueuePurgeSent, nil); err != nil {
		return 0, err
	}
	if err := c.waitOk(ctx, StateQueuePurgeOkReceived, "queue.purge"); err != nil {
		return 0, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastPurgeCount, nil
}

// QueueDelete deletes queue and returns the number of messages it held.
func (c *Client) QueueDelete(ctx context.Context, queue string, ifUnused, ifEmpty bool) (uint32, error) {
	if err := c.write(wire.QueueDeleteMethod{Queue: queue, IfUnused: ifUnused, IfEmpty: ifEmpty}); err != nil {
		return 0, err
	}
	if err := c.sm.SetState(StateQueueDeleteSent, nil); err != nil {
		return 0, err
	}
	if err := c.waitOk(ctx, StateQueueDeleteOkReceived, "queue.delete"); err != nil {
		return 0, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastDeleteCount, nil
}
