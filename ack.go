package amqp

import "github.com/kestrelmq/amqp/internal/wire"

// Ack acknowledges one delivery, or every outstanding delivery up to and
// including deliveryTag when multiple is true. Fire-and-forget: the broker
// never replies to Basic.Ack.
func (c *Client) Ack(deliveryTag uint64, multiple bool) error {
	if err := c.write(wire.BasicAckMethod{DeliveryTag: deliveryTag, Multiple: multiple}); err != nil {
		return err
	}
	return c.sm.SetState(StateBasicAckSent, nil)
}

// Nack negatively acknowledges one delivery, or a range when multiple is
// true, optionally asking the broker to requeue it.
func (c *Client) Nack(deliveryTag uint64, multiple, requeue bool) error {
	if err := c.write(wire.BasicNackMethod{DeliveryTag: deliveryTag, Multiple: multiple, Requeue: requeue}); err != nil {
		return err
	}
	return c.sm.SetState(StateBasicNackSent, nil)
}

// Reject is the single-message predecessor of Nack, kept for brokers or
// callers that still expect Basic.Reject specifically.
func (c *Client) Reject(deliveryTag uint64, requeue bool) error {
	if err := c.write(wire.BasicRejectMethod{DeliveryTag: deliveryTag, Requeue: requeue}); err != nil {
		return err
	}
	return c.sm.SetState(StateBasicRejectSent, nil)
}
