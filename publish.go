package amqp

import (
	"context"
	"time"

	"github.com/kestrelmq/amqp/internal/wire"
)

// Publish sends a message via Basic.Publish as a Publish-ContentHeader-Body
// frame sequence, chunking the body to the connection's negotiated frame
// size (aiorabbit.basic_publish does the equivalent through pika's
// BlockingConnection, this client does its own chunking since it owns the
// wire codec). When publisher confirms are enabled it blocks until the
// broker acks or nacks this delivery tag, returning false on nack — the
// same (bool, error) shape as aiorabbit.basic_publish.
func (c *Client) Publish(ctx context.Context, exchange, routingKey string, mandatory, immediate bool, msg Publishing) (bool, error) {
	if err := validateExchangeName("exchange", exchange); err != nil {
		return false, err
	}
	if err := validateShortStr("routing_key", routingKey); err != nil {
		return false, err
	}
	if err := msg.Properties.validate(); err != nil {
		return false, err
	}

	c.mu.Lock()
	c.deliveryTag++
	tag := c.deliveryTag
	tracking := c.publisherConfirms
	if tracking {
		c.pendingConfirms[tag] = struct{}{}
	}
	frameMax := c.c0.frameMax
	c.mu.Unlock()

	if err := c.write(wire.BasicPublishMethod{
		Exchange: exchange, RoutingKey: routingKey, Mandatory: mandatory, Immediate: immediate,
	}); err != nil {
		return false, err
	}
	if err := c.sm.SetState(StateBasicPublishSent, nil); err != nil {
		return false, err
	}

	header := msg.Properties.toHeader(wire.ClassBasic, uint64(len(msg.Body)))
	if err := c.writeFrame(wire.FrameHeader, header.Marshal()); err != nil {
		return false, err
	}
	if err := c.sm.SetState(StateContentHeaderSent, nil); err != nil {
		return false, err
	}

	if err := c.writeBodyChunks(msg.Body, frameMax); err != nil {
		return false, err
	}
	if err := c.sm.SetState(StateContentBodySent, nil); err != nil {
		return false, err
	}

	if !tracking {
		return true, nil
	}
	return c.awaitConfirm(ctx, tag)
}

// writeBodyChunks splits body across one or more content-body frames no
// larger than frameMax - the frame header/trailer overhead; RabbitMQ
// negotiates frameMax during Channel0's Tune exchange (see channel0.go).
// A zero-length body emits no body frame at all: the receiving assembler
// (message.go's acceptHeader) already completes the message the instant it
// sees a content header declaring bodySize 0, so a trailing empty body
// frame would arrive after the assembler has reset and has no header left
// to check its length against.
func (c *Client) writeBodyChunks(body []byte, frameMax uint32) error {
	if len(body) == 0 {
		return nil
	}
	chunk := int(frameMax)
	if chunk <= 8 {
		chunk = defaultFrameMax
	} else {
		chunk -= 8 // frame header (7) + frame-end (1)
	}
	for off := 0; off < len(body); off += chunk {
		end := off + chunk
		if end > len(body) {
			end = len(body)
		}
		if err := c.writeFrame(wire.FrameBody, body[off:end]); err != nil {
			return err
		}
	}
	return nil
}

// awaitConfirm blocks until the broker resolves deliveryTag, which
// recordConfirm (dispatch.go) removes from pendingConfirms on both
// Basic.Ack and Basic.Nack. It loops on WaitForState because confirms for
// other in-flight publishes wake the same states; once the machine is
// already sitting in an ack/nack state a re-wait would return immediately,
// so unresolved retries pace themselves with a short poll interval instead.
func (c *Client) awaitConfirm(ctx context.Context, tag uint64) (bool, error) {
	for first := true; ; first = false {
		c.mu.Lock()
		positive, resolved := c.confirmResults[tag]
		if resolved {
			delete(c.confirmResults, tag)
		}
		c.mu.Unlock()
		if resolved {
			return positive, nil
		}
		if !first {
			select {
			case <-ctx.Done():
				return false, ctx.Err()
			case <-time.After(time.Millisecond):
			}
		}

		reached, err := c.waitForState(ctx, StateBasicAckReceived, StateBasicNackReceived, StateChannelCloseReceived)
		if err != nil {
			return false, err
		}
		if reached == StateChannelCloseReceived {
			c.mu.Lock()
			delete(c.pendingConfirms, tag)
			c.mu.Unlock()
			reply := c.takeChannelClose()
			c.awaitReopen()
			return false, replyError("basic.publish", reply)
		}
	}
}
