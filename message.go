package amqp

import (
	"time"

	amqp091 "github.com/rabbitmq/amqp091-go"

	"github.com/kestrelmq/amqp/internal/wire"
)

// Table is the AMQP field-table type used for headers and for the
// arguments of declare/bind/consume operations. It aliases amqp091.Table
// so tables built for this client interchange with code already using the
// ecosystem's de facto client.
type Table = amqp091.Table

// Delivery describes which server method announced a Message: a consumer
// delivery, a Basic.Get reply, or an unroutable-message return.
type Delivery int

const (
	DeliveryDeliver Delivery = iota
	DeliveryGet
	DeliveryReturn
)

// Properties mirrors the AMQP 0-9-1 basic content-header property list,
// the header your Publishing and every assembled Message carry.
type Properties struct {
	ContentType     string
	ContentEncoding string
	Headers         Table
	DeliveryMode    uint8
	Priority        uint8
	CorrelationID   string
	ReplyTo         string
	Expiration      string
	MessageID       string
	Timestamp       time.Time
	Type            string
	UserID          string
	AppID           string
}

func propertiesFromHeader(h *wire.ContentHeader) Properties {
	p := Properties{
		ContentType:     h.ContentType,
		ContentEncoding: h.ContentEnc,
		Headers:         h.Headers,
		DeliveryMode:    h.DeliveryMode,
		Priority:        h.Priority,
		CorrelationID:   h.CorrelationID,
		ReplyTo:         h.ReplyTo,
		Expiration:      h.Expiration,
		MessageID:       h.MessageID,
		Type:            h.Type,
		UserID:          h.UserID,
		AppID:           h.AppID,
	}
	if h.HasTimestamp {
		p.Timestamp = h.Timestamp
	}
	return p
}

func (p Properties) toHeader(classID uint16, bodySize uint64) *wire.ContentHeader {
	h := &wire.ContentHeader{ClassID: classID, BodySize: bodySize}
	if p.ContentType != "" {
		h.HasContentType, h.ContentType = true, p.ContentType
	}
	if p.ContentEncoding != "" {
		h.HasContentEnc, h.ContentEnc = true, p.ContentEncoding
	}
	if p.Headers != nil {
		h.HasHeaders, h.Headers = true, p.Headers
	}
	if p.DeliveryMode != 0 {
		h.HasDeliveryMode, h.DeliveryMode = true, p.DeliveryMode
	}
	if p.Priority != 0 {
		h.HasPriority, h.Priority = true, p.Priority
	}
	if p.CorrelationID != "" {
		h.HasCorrelationID, h.CorrelationID = true, p.CorrelationID
	}
	if p.ReplyTo != "" {
		h.HasReplyTo, h.ReplyTo = true, p.ReplyTo
	}
	if p.Expiration != "" {
		h.HasExpiration, h.Expiration = true, p.Expiration
	}
	if p.MessageID != "" {
		h.HasMessageID, h.MessageID = true, p.MessageID
	}
	if !p.Timestamp.IsZero() {
		h.HasTimestamp, h.Timestamp = true, p.Timestamp
	}
	if p.Type != "" {
		h.HasType, h.Type = true, p.Type
	}
	if p.UserID != "" {
		h.HasUserID, h.UserID = true, p.UserID
	}
	if p.AppID != "" {
		h.HasAppID, h.AppID = true, p.AppID
	}
	return h
}

// Publishing is what a caller hands to Client.Publish: the routing
// arguments plus a body and its properties.
type Publishing struct {
	Properties
	Body []byte
}

// Message is a fully assembled inbound delivery: the method that announced
// it (Deliver/Get-Ok/Return), its routing info, its properties, and its
// complete body.
type Message struct {
	Delivery Delivery

	ConsumerTag  string
	DeliveryTag  uint64
	Redelivered  bool
	Exchange     string
	RoutingKey   string
	MessageCount uint32 // valid for DeliveryGet
	ReplyCode    uint16 // valid for DeliveryReturn
	ReplyText    string // valid for DeliveryReturn

	Properties Properties
	Body       []byte
}

// assembler is Component C5: it accumulates one ContentHeader and a
// sequence of ContentBody frames into a complete Message, completing the
// instant the accumulated body reaches the header's declared size — zero
// immediately, since a header announcing a zero-length body has nothing
// left to receive.
type assembler struct {
	pending *Message
	header  *wire.ContentHeader
	body    []byte
}

func (a *assembler) beginDeliver(m *wire.BasicDeliverMethod) {
	a.pending = &Message{
		Delivery:    DeliveryDeliver,
		ConsumerTag: m.ConsumerTag,
		DeliveryTag: m.DeliveryTag,
		Redelivered: m.Redelivered,
		Exchange:    m.Exchange,
		RoutingKey:  m.RoutingKey,
	}
}

func (a *assembler) beginGetOk(m *wire.BasicGetOkMethod) {
	a.pending = &Message{
		Delivery:     DeliveryGet,
		DeliveryTag:  m.DeliveryTag,
		Redelivered:  m.Redelivered,
		Exchange:     m.Exchange,
		RoutingKey:   m.RoutingKey,
		MessageCount: m.MessageCount,
	}
}

func (a *assembler) beginReturn(m *wire.BasicReturnMethod) {
	a.pending = &Message{
		Delivery:   DeliveryReturn,
		Exchange:   m.Exchange,
		RoutingKey: m.RoutingKey,
		ReplyCode:  m.ReplyCode,
		ReplyText:  m.ReplyText,
	}
}

// acceptHeader records the content header and reports whether the body is
// already complete (a zero-length message needs no body frame at all).
func (a *assembler) acceptHeader(h *wire.ContentHeader) (done bool) {
	a.header = h
	a.pending.Properties = propertiesFromHeader(h)
	a.body = a.body[:0]
	if h.BodySize == 0 {
		a.pending.Body = nil
		return true
	}
	return false
}

// acceptBody appends a content-body frame's payload and reports whether the
// message is now fully assembled.
func (a *assembler) acceptBody(payload []byte) (done bool) {
	a.body = append(a.body, payload...)
	if uint64(len(a.body)) >= a.header.BodySize {
		a.pending.Body = a.body
		return true
	}
	return false
}

// take returns the completed message and resets the assembler for the next
// delivery.
func (a *assembler) take() *Message {
	m := a.pending
	a.pending = nil
	a.header = nil
	a.body = nil
	return m
}
