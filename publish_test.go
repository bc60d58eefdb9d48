package amqp

import (
	"context"
	"testing"
	"time"

	"github.com/kestrelmq/amqp/internal/mocks"
	"github.com/kestrelmq/amqp/internal/wire"
	"github.com/stretchr/testify/require"
)

func TestWriteBodyChunksEmitsNoFrameForEmptyBody(t *testing.T) {
	var written [][]byte
	conn := mocks.NewNetConn(func(f *wire.Frame) []byte {
		written = append(written, append([]byte(nil), f.Payload...))
		return nil
	})
	c := &Client{t: newTransport(conn, func(*wire.Frame) {}, func(error) {})}

	require.NoError(t, c.writeBodyChunks(nil, defaultFrameMax))
	require.Empty(t, written)
}

func TestWriteBodyChunksSplitsAtFrameMax(t *testing.T) {
	var chunks [][]byte
	conn := mocks.NewNetConn(func(f *wire.Frame) []byte {
		chunks = append(chunks, append([]byte(nil), f.Payload...))
		return nil
	})
	c := &Client{t: newTransport(conn, func(*wire.Frame) {}, func(error) {})}

	body := make([]byte, 25)
	for i := range body {
		body[i] = byte(i)
	}
	// frameMax of 15 leaves 15-8=7 usable bytes per content-body frame
	require.NoError(t, c.writeBodyChunks(body, 15))

	require.Len(t, chunks, 4) // 7+7+7+4 = 25
	var reassembled []byte
	for _, chunk := range chunks {
		reassembled = append(reassembled, chunk...)
	}
	require.Equal(t, body, reassembled)
}

func TestPublishNonTrackedReturnsTrueWithoutWaitingForConfirm(t *testing.T) {
	conn := mocks.NewNetConn(func(f *wire.Frame) []byte { return nil })
	c := &Client{
		sm: NewStateManager(),
		t:  newTransport(conn, func(*wire.Frame) {}, func(error) {}),
		c0: &channel0{frameMax: defaultFrameMax},
	}
	require.NoError(t, c.sm.SetState(StateDisconnected, nil))
	require.NoError(t, c.sm.SetState(StateConnecting, nil))
	require.NoError(t, c.sm.SetState(StateConnected, nil))
	require.NoError(t, c.sm.SetState(StateOpened, nil))
	require.NoError(t, c.sm.SetState(StateOpeningChannel, nil))
	require.NoError(t, c.sm.SetState(StateChannelOpenSent, nil))
	require.NoError(t, c.sm.SetState(StateChannelOpenOkReceived, nil))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	ok, err := c.Publish(ctx, "orders", "orders.created", false, false, Publishing{Body: []byte("payload")})
	require.NoError(t, err)
	require.True(t, ok)
}

func TestAwaitConfirmPositiveAck(t *testing.T) {
	c := &Client{
		sm:              NewStateManager(),
		pendingConfirms: map[uint64]struct{}{1: {}},
		confirmResults:  make(map[uint64]bool),
	}
	require.NoError(t, c.sm.SetState(StateDisconnected, nil))
	require.NoError(t, c.sm.SetState(StateConnecting, nil))
	require.NoError(t, c.sm.SetState(StateConnected, nil))
	require.NoError(t, c.sm.SetState(StateOpened, nil))
	require.NoError(t, c.sm.SetState(StateOpeningChannel, nil))
	require.NoError(t, c.sm.SetState(StateChannelOpenSent, nil))
	require.NoError(t, c.sm.SetState(StateChannelOpenOkReceived, nil))
	require.NoError(t, c.sm.SetState(StateBasicPublishSent, nil))
	require.NoError(t, c.sm.SetState(StateContentHeaderSent, nil))
	require.NoError(t, c.sm.SetState(StateContentBodySent, nil))

	go func() {
		time.Sleep(10 * time.Millisecond)
		c.recordConfirm(1, false, true)
		c.sm.SetState(StateBasicAckReceived, nil)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	ok, err := c.awaitConfirm(ctx, 1)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestRecordConfirmMultipleResolvesWatermarkRange(t *testing.T) {
	c := &Client{
		pendingConfirms: map[uint64]struct{}{1: {}, 2: {}, 3: {}, 5: {}},
		confirmResults:  make(map[uint64]bool),
	}
	c.recordConfirm(3, true, true)

	require.Equal(t, true, c.confirmResults[1])
	require.Equal(t, true, c.confirmResults[2])
	require.Equal(t, true, c.confirmResults[3])
	_, stillPending := c.confirmResults[5]
	require.False(t, stillPending)
	_, ok := c.pendingConfirms[5]
	require.True(t, ok)
	require.Equal(t, uint64(3), c.confirmWatermark)
}

func TestRecordConfirmSingleTagOnly(t *testing.T) {
	c := &Client{
		pendingConfirms: map[uint64]struct{}{1: {}, 2: {}},
		confirmResults:  make(map[uint64]bool),
	}
	c.recordConfirm(2, false, false)

	require.Equal(t, false, c.confirmResults[2])
	_, stillPending := c.pendingConfirms[2]
	require.False(t, stillPending)
	_, untouched := c.pendingConfirms[1]
	require.True(t, untouched)
}
