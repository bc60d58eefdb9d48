package wire

import (
	"encoding/binary"
)

// Frame type octets, the AMQP 0-9-1 constant closing type of every frame
// shipped on the wire after the protocol header. Confirmed against the
// passive decoder in _examples/other_examples (packetd's pamqp decoder):
// method=0x01, content-header=0x02, content-body=0x03, heartbeat=0x08.
const (
	FrameMethod        = 0x01
	FrameHeader        = 0x02
	FrameBody          = 0x03
	FrameHeartbeat     = 0x08
	frameEnd           = 0xCE
	frameHeaderLength  = 7 // 1 byte type + 2 byte channel + 4 byte payload size
	frameTrailerLength = 1
)

// MaxPayloadSize is the largest single frame payload this codec will ever
// attempt to allocate for, matching the protocol's 32-bit size field bound
// seen in the same decoder (2147483647).
const MaxPayloadSize = 2147483647

// ProtocolHeader is the fixed 8-byte preamble a client writes before any
// frame: "AMQP" 0 0 9 1.
var ProtocolHeader = []byte{'A', 'M', 'Q', 'P', 0, 0, 9, 1}

// Frame is a fully decoded wire frame: a type octet, the channel it belongs
// to, and its raw payload (method arguments, content header, content body,
// or empty for a heartbeat).
type Frame struct {
	Type    uint8
	Channel uint16
	Payload []byte
}

// MarshalFrame wraps payload in the type/channel/size header and the 0xCE
// trailer byte.
func MarshalFrame(frameType uint8, channel uint16, payload []byte) []byte {
	out := make([]byte, frameHeaderLength+len(payload)+frameTrailerLength)
	out[0] = frameType
	binary.BigEndian.PutUint16(out[1:3], channel)
	binary.BigEndian.PutUint32(out[3:7], uint32(len(payload)))
	copy(out[7:], payload)
	out[len(out)-1] = frameEnd
	return out
}

// UnmarshalFrame extracts one complete frame from the head of buf, returning
// the frame and the number of bytes consumed. It returns ErrNeedMoreData if
// buf does not yet hold a complete frame, and an *UnmarshalError if the
// declared payload size exceeds MaxPayloadSize or the trailer byte is not
// 0xCE.
func UnmarshalFrame(buf []byte) (*Frame, int, error) {
	if len(buf) < frameHeaderLength {
		return nil, 0, ErrNeedMoreData
	}
	size := binary.BigEndian.Uint32(buf[3:7])
	if size > MaxPayloadSize {
		return nil, 0, &UnmarshalError{Reason: "frame payload size exceeds MaxPayloadSize"}
	}
	total := frameHeaderLength + int(size) + frameTrailerLength
	if len(buf) < total {
		return nil, 0, ErrNeedMoreData
	}
	if buf[total-1] != frameEnd {
		return nil, 0, &UnmarshalError{Reason: "missing frame-end octet"}
	}
	f := &Frame{
		Type:    buf[0],
		Channel: binary.BigEndian.Uint16(buf[1:3]),
		Payload: append([]byte(nil), buf[frameHeaderLength:frameHeaderLength+int(size)]...),
	}
	return f, total, nil
}
