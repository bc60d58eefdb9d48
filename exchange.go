package amqp

import (
	"context"

	"github.com/kestrelmq/amqp/internal/wire"
)

// ExchangeDeclare declares an exchange, asserting its existence if
// passive. A server-side Channel.Close (e.g. redeclaring with different
// properties yields PreconditionFailed) surfaces as the typed error its
// reply code maps to in SPEC_FULL.md §6's table, matching aiorabbit's
// exchange_declare translation, after the channel has been auto-reopened.
func (c *Client) ExchangeDeclare(ctx context.Context, name, kind string, passive, durable, autoDelete, internal bool, args Table) error {
	if err := validateExchangeName("exchange", name); err != nil {
		return err
	}
	if err := validateShortStr("type", kind); err != nil {
		return err
	}
	if err := validateFieldTable("arguments", args); err != nil {
		return err
	}
	if err := c.write(wire.ExchangeDeclareMethod{
		Exchange: name, Type: kind, Passive: passive, Durable: durable,
		AutoDelete: autoDelete, Internal: internal, Arguments: args,
	}); err != nil {
		return err
	}
	if err := c.sm.SetState(StateExchangeDeclareSent, nil); err != nil {
		return err
	}
	return c.waitOk(ctx, StateExchangeDeclareOkReceived, "exchange.declare")
}

// ExchangeDelete deletes an exchange.
func (c *Client) ExchangeDelete(ctx context.Context, name string, ifUnused bool) error {
	if err := validateExchangeName("exchange", name); err != nil {
		return err
	}
	if err := c.write(wire.ExchangeDeleteMethod{Exchange: name, IfUnused: ifUnused}); err != nil {
		return err
	}
	if err := c.sm.SetState(StateExchangeDeleteSent, nil); err != nil {
		return err
	}
	return c.waitOk(ctx, StateExchangeDeleteOkReceived, "exchange.delete")
}

// ExchangeBind binds one exchange to another (exchange-to-exchange
// routing).
func (c *Client) ExchangeBind(ctx context.Context, destination, source, routingKey string, args Table) error {
	if err := validateBinding(destination, source, routingKey, args); err != nil {
		return err
	}
	if err := c.write(wire.ExchangeBindMethod{Destination: destination, Source: source, RoutingKey: routingKey, Arguments: args}); err != nil {
		return err
	}
	if err := c.sm.SetState(StateExchangeBindSent, nil); err != nil {
		return err
	}
	return c.waitOk(ctx, StateExchangeBindOkReceived, "exchange.bind")
}

// ExchangeUnbind removes an exchange-to-exchange binding.
func (c *Client) ExchangeUnbind(ctx context.Context, destination, source, routingKey string, args Table) error {
	if err := validateBinding(destination, source, routingKey, args); err != nil {
		return err
	}
	if err := c.write(wire.ExchangeUnbindMethod{Destination: destination, Source: source, RoutingKey: routingKey, Arguments: args}); err != nil {
		return err
	}
	if err := c.sm.SetState(StateExchangeUnbindSent, nil); err != nil {
		return err
	}
	return c.waitOk(ctx, StateExchangeUnbindOkReceived, "exchange.unbind")
}
