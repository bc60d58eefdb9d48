package amqp

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/kestrelmq/amqp/internal/wire"
	"github.com/stretchr/testify/require"
)

func TestAssemblerCompletesImmediatelyOnZeroBodySize(t *testing.T) {
	var a assembler
	a.beginDeliver(&wire.BasicDeliverMethod{ConsumerTag: "ctag-1", DeliveryTag: 1})

	done := a.acceptHeader(&wire.ContentHeader{ClassID: wire.ClassBasic, BodySize: 0})
	require.True(t, done)

	m := a.take()
	require.Equal(t, DeliveryDeliver, m.Delivery)
	require.Nil(t, m.Body)
}

func TestAssemblerAccumulatesMultipleBodyFrames(t *testing.T) {
	var a assembler
	a.beginDeliver(&wire.BasicDeliverMethod{ConsumerTag: "ctag-1", DeliveryTag: 2})

	done := a.acceptHeader(&wire.ContentHeader{ClassID: wire.ClassBasic, BodySize: 9})
	require.False(t, done)

	require.False(t, a.acceptBody([]byte("hello")))
	require.True(t, a.acceptBody([]byte(" wor")))

	m := a.take()
	require.Equal(t, []byte("hello wor"), m.Body)
}

func TestAssemblerResetsBetweenDeliveries(t *testing.T) {
	var a assembler
	a.beginDeliver(&wire.BasicDeliverMethod{DeliveryTag: 1})
	a.acceptHeader(&wire.ContentHeader{BodySize: 0})
	first := a.take()
	require.NotNil(t, first)

	require.Nil(t, a.pending)
	require.Nil(t, a.header)
	require.Nil(t, a.body)
}

func TestAssemblerCarriesPropertiesFromHeader(t *testing.T) {
	var a assembler
	a.beginGetOk(&wire.BasicGetOkMethod{DeliveryTag: 5, MessageCount: 3})

	done := a.acceptHeader(&wire.ContentHeader{
		BodySize: 4, HasContentType: true, ContentType: "text/plain",
	})
	require.False(t, done)
	require.True(t, a.acceptBody([]byte("abcd")))

	m := a.take()
	require.Equal(t, DeliveryGet, m.Delivery)
	require.Equal(t, uint32(3), m.MessageCount)
	require.Equal(t, "text/plain", m.Properties.ContentType)
	require.Equal(t, []byte("abcd"), m.Body)
}

func TestAssemblerReturnCarriesReplyCodeAndText(t *testing.T) {
	var a assembler
	a.beginReturn(&wire.BasicReturnMethod{
		ReplyCode: NoRoute, ReplyText: "no queue bound", Exchange: "orders", RoutingKey: "missing",
	})
	a.acceptHeader(&wire.ContentHeader{BodySize: 0})

	m := a.take()
	require.Equal(t, DeliveryReturn, m.Delivery)
	require.Equal(t, uint16(NoRoute), m.ReplyCode)
	require.Equal(t, "no queue bound", m.ReplyText)
	require.Equal(t, "orders", m.Exchange)
}

// TestPropertiesSurviveHeaderWireRoundTrip sends a representative property
// set through the same path a published message takes (struct -> content
// header -> wire bytes -> decoded header -> struct) and requires the result
// to be indistinguishable from what went in.
func TestPropertiesSurviveHeaderWireRoundTrip(t *testing.T) {
	in := Properties{
		ContentType:   "application/json",
		DeliveryMode:  2,
		Priority:      4,
		CorrelationID: "corr-17",
		ReplyTo:       "replies",
		Expiration:    "60000",
		MessageID:     "m-17",
		Timestamp:     time.Unix(1700000000, 0).UTC(),
		Headers:       map[string]interface{}{"x-retry": int32(2)},
		AppID:         "billing",
	}

	payload := in.toHeader(wire.ClassBasic, 128).Marshal()
	h, err := wire.UnmarshalContentHeader(wire.NewReader(payload))
	require.NoError(t, err)
	require.Equal(t, uint64(128), h.BodySize)

	out := propertiesFromHeader(h)
	if diff := cmp.Diff(in, out); diff != "" {
		t.Fatalf("properties changed across the wire (-in +out):\n%s", diff)
	}
}

func TestPropertiesToHeaderOnlySetsProvidedFields(t *testing.T) {
	p := Properties{ContentType: "application/json", DeliveryMode: 2}
	h := p.toHeader(wire.ClassBasic, 10)

	require.True(t, h.HasContentType)
	require.Equal(t, "application/json", h.ContentType)
	require.True(t, h.HasDeliveryMode)
	require.Equal(t, uint8(2), h.DeliveryMode)
	require.False(t, h.HasPriority)
	require.False(t, h.HasCorrelationID)
	require.Equal(t, uint64(10), h.BodySize)
}
