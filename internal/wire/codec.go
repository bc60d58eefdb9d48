package wire

// DecodedMethod pairs a frame's channel with the class/method id and the
// still-to-be-parsed argument reader, so callers can dispatch on
// (ClassID, MethodID) before paying for argument decoding.
type DecodedMethod struct {
	Channel  uint16
	ClassID  uint16
	MethodID uint16
	Args     *Reader
}

// DecodeMethodFrame splits a method frame's payload into its class/method
// header and an argument Reader positioned just past it.
func DecodeMethodFrame(f *Frame) (*DecodedMethod, error) {
	r := NewReader(f.Payload)
	h, err := UnmarshalMethodHeader(r)
	if err != nil {
		return nil, err
	}
	return &DecodedMethod{Channel: f.Channel, ClassID: h.ClassID, MethodID: h.MethodID, Args: r}, nil
}

// ContentBody is the raw bytes of one content-body frame; callers accumulate
// these against a ContentHeader.BodySize to reassemble a full message (the
// Message Assembler's job, not this package's).
type ContentBody struct {
	Payload []byte
}

// MarshalHeartbeat returns the empty payload a heartbeat frame carries.
func MarshalHeartbeat() []byte { return nil }
