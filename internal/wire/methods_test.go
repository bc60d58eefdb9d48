package wire

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMarshalMethodPrependsClassAndMethodID(t *testing.T) {
	m := ChannelOpenMethod{}
	raw := MarshalMethod(m)

	r := NewReader(raw)
	h, err := UnmarshalMethodHeader(r)
	require.NoError(t, err)
	require.Equal(t, ClassChannel, int(h.ClassID))
	require.Equal(t, ChannelOpen, int(h.MethodID))
}

func TestConnectionTuneRoundTrip(t *testing.T) {
	in := ConnectionTuneMethod{ChannelMax: 2047, FrameMax: 131072, Heartbeat: 60}
	r := NewReader(in.Marshal())
	out, err := UnmarshalConnectionTune(r)
	require.NoError(t, err)
	require.Equal(t, &in, out)
}

func TestConnectionCloseRoundTrip(t *testing.T) {
	in := ConnectionCloseMethod{ReplyCode: 404, ReplyText: "not found", ClassId: ClassQueue, MethodId: QueueDeclare}
	r := NewReader(in.Marshal())
	out, err := UnmarshalConnectionClose(r)
	require.NoError(t, err)
	require.Equal(t, &in, out)
}

func TestQueueDeclareOkRoundTrip(t *testing.T) {
	in := QueueDeclareOkMethod{Queue: "orders", MessageCount: 12, ConsumerCount: 3}
	r := NewReader(in.Marshal())
	out, err := UnmarshalQueueDeclareOk(r)
	require.NoError(t, err)
	require.Equal(t, &in, out)
}

func TestBasicDeliverRoundTrip(t *testing.T) {
	in := BasicDeliverMethod{
		ConsumerTag: "ctag-1",
		DeliveryTag: 42,
		Redelivered: true,
		Exchange:    "orders",
		RoutingKey:  "orders.created",
	}
	r := NewReader(in.Marshal())
	out, err := UnmarshalBasicDeliver(r)
	require.NoError(t, err)
	require.Equal(t, &in, out)
}

func TestBasicAckRoundTrip(t *testing.T) {
	in := BasicAckMethod{DeliveryTag: 7, Multiple: true}
	r := NewReader(in.Marshal())
	out, err := UnmarshalBasicAck(r)
	require.NoError(t, err)
	require.Equal(t, &in, out)
}

func TestContentHeaderRoundTripWithAllProperties(t *testing.T) {
	ts := time.Unix(1700000000, 0).UTC()
	in := &ContentHeader{
		ClassID:  ClassBasic,
		BodySize: 128,

		HasContentType: true, ContentType: "application/json",
		HasContentEnc: true, ContentEnc: "utf-8",
		HasHeaders: true, Headers: map[string]interface{}{"x-retry": int32(1)},
		HasDeliveryMode: true, DeliveryMode: 2,
		HasPriority: true, Priority: 5,
		HasCorrelationID: true, CorrelationID: "corr-1",
		HasReplyTo: true, ReplyTo: "reply-queue",
		HasExpiration: true, Expiration: "60000",
		HasMessageID: true, MessageID: "msg-1",
		HasTimestamp: true, Timestamp: ts,
		HasType: true, Type: "order.created",
		HasUserID: true, UserID: "guest",
		HasAppID: true, AppID: "kestrelmq",
	}

	out, err := UnmarshalContentHeader(NewReader(in.Marshal()))
	require.NoError(t, err)

	require.Equal(t, in.ClassID, out.ClassID)
	require.Equal(t, in.BodySize, out.BodySize)
	require.Equal(t, in.ContentType, out.ContentType)
	require.Equal(t, in.ContentEnc, out.ContentEnc)
	require.Equal(t, in.Headers["x-retry"], out.Headers["x-retry"])
	require.Equal(t, in.DeliveryMode, out.DeliveryMode)
	require.Equal(t, in.Priority, out.Priority)
	require.Equal(t, in.CorrelationID, out.CorrelationID)
	require.Equal(t, in.ReplyTo, out.ReplyTo)
	require.Equal(t, in.Expiration, out.Expiration)
	require.Equal(t, in.MessageID, out.MessageID)
	require.True(t, in.Timestamp.Equal(out.Timestamp))
	require.Equal(t, in.Type, out.Type)
	require.Equal(t, in.UserID, out.UserID)
	require.Equal(t, in.AppID, out.AppID)
}

func TestContentHeaderRoundTripWithNoProperties(t *testing.T) {
	in := &ContentHeader{ClassID: ClassBasic, BodySize: 0}
	out, err := UnmarshalContentHeader(NewReader(in.Marshal()))
	require.NoError(t, err)
	require.Equal(t, uint64(0), out.BodySize)
	require.False(t, out.HasContentType)
	require.False(t, out.HasDeliveryMode)
}
