package amqp

import (
	"fmt"
	"regexp"
)

// namePattern is the character set RabbitMQ accepts for exchange names:
// letters, digits, hyphen, underscore, period, or colon.
var namePattern = regexp.MustCompile(`^[\w:.-]+$`)

// ArgumentError reports a caller-supplied value that fails synchronous
// validation. It is returned before any frame is written; the connection
// state is untouched.
type ArgumentError struct {
	Field  string
	Reason string
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("amqp: %s %s", e.Field, e.Reason)
}

// validateShortStr caps a value headed into a method frame's shortstr field
// at 256 bytes. The wire encoder (wire.Writer.Shortstr) accepts at most 255,
// so a 256-byte value passes here and is rejected when the frame is encoded.
func validateShortStr(field, value string) error {
	if len(value) > 256 {
		return &ArgumentError{Field: field, Reason: "must not exceed 256 characters"}
	}
	return nil
}

// validateExchangeName allows the empty string (the default exchange) and
// otherwise requires a short string drawn from namePattern.
func validateExchangeName(field, value string) error {
	if value == "" {
		return nil
	}
	if err := validateShortStr(field, value); err != nil {
		return err
	}
	if !namePattern.MatchString(value) {
		return &ArgumentError{Field: field, Reason: "must only contain letters, digits, hyphen, underscore, period, or colon"}
	}
	return nil
}

// validateFieldTable requires every key of an arguments/headers table to be
// a non-empty string of at most 256 characters.
func validateFieldTable(field string, table Table) error {
	for k := range table {
		if len(k) == 0 || len(k) > 256 {
			return &ArgumentError{Field: field, Reason: "keys must be between 1 and 256 characters"}
		}
	}
	return nil
}

// validateBinding covers the shared argument shape of the four bind/unbind
// operations: two exchange names, a routing key, and an arguments table.
func validateBinding(destination, source, routingKey string, args Table) error {
	if err := validateExchangeName("destination", destination); err != nil {
		return err
	}
	if err := validateExchangeName("source", source); err != nil {
		return err
	}
	if err := validateShortStr("routing_key", routingKey); err != nil {
		return err
	}
	return validateFieldTable("arguments", args)
}

func validateQueueBinding(queue, exchange, routingKey string, args Table) error {
	if err := validateShortStr("queue", queue); err != nil {
		return err
	}
	if err := validateExchangeName("exchange", exchange); err != nil {
		return err
	}
	if err := validateShortStr("routing_key", routingKey); err != nil {
		return err
	}
	return validateFieldTable("arguments", args)
}

// validate checks every optional content-header property before Publish
// writes a frame. Priority needs no range check beyond its type; delivery
// mode is the one numeric field with values the wire accepts but the
// protocol does not.
func (p Properties) validate() error {
	if p.DeliveryMode > 2 {
		return &ArgumentError{Field: "delivery_mode", Reason: "must be 1 or 2"}
	}
	for _, s := range []struct {
		field string
		value string
	}{
		{"content_type", p.ContentType},
		{"content_encoding", p.ContentEncoding},
		{"correlation_id", p.CorrelationID},
		{"reply_to", p.ReplyTo},
		{"expiration", p.Expiration},
		{"message_id", p.MessageID},
		{"type", p.Type},
		{"user_id", p.UserID},
		{"app_id", p.AppID},
	} {
		if err := validateShortStr(s.field, s.value); err != nil {
			return err
		}
	}
	return validateFieldTable("headers", p.Headers)
}
