package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"
)

// ErrNeedMoreData is returned by Unmarshal when buf does not yet contain a
// complete frame. The caller (the Frame Codec Adapter, C2) retains the bytes
// and waits for more to arrive; this is not a protocol error.
var ErrNeedMoreData = errors.New("wire: need more data")

// UnmarshalError reports definitively invalid bytes, as opposed to a frame
// that is merely incomplete (ErrNeedMoreData).
type UnmarshalError struct {
	Reason string
}

func (e *UnmarshalError) Error() string { return "wire: unmarshal error: " + e.Reason }

// Reader walks a byte slice extracting AMQP 0-9-1 primitive field types.
// It never copies; slices returned alias buf.
type Reader struct {
	buf  []byte
	pos  int
	bit  int // bit offset into the byte last consumed by Bit(); -1 if none pending
	cur  byte
}

func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf, bit: -1}
}

func (r *Reader) remaining() int { return len(r.buf) - r.pos }

func (r *Reader) need(n int) error {
	if r.remaining() < n {
		return ErrNeedMoreData
	}
	return nil
}

func (r *Reader) Pos() int { return r.pos }

func (r *Reader) Bit() (bool, error) {
	if r.bit < 0 || r.bit > 7 {
		if err := r.need(1); err != nil {
			return false, err
		}
		r.cur = r.buf[r.pos]
		r.pos++
		r.bit = 0
	}
	v := r.cur&(1<<uint(r.bit)) != 0
	r.bit++
	return v, nil
}

func (r *Reader) resetBits() { r.bit = -1 }

func (r *Reader) Octet() (uint8, error) {
	r.resetBits()
	if err := r.need(1); err != nil {
		return 0, err
	}
	v := r.buf[r.pos]
	r.pos++
	return v, nil
}

func (r *Reader) Short() (uint16, error) {
	r.resetBits()
	if err := r.need(2); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint16(r.buf[r.pos:])
	r.pos += 2
	return v, nil
}

func (r *Reader) Long() (uint32, error) {
	r.resetBits()
	if err := r.need(4); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint32(r.buf[r.pos:])
	r.pos += 4
	return v, nil
}

func (r *Reader) Longlong() (uint64, error) {
	r.resetBits()
	if err := r.need(8); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint64(r.buf[r.pos:])
	r.pos += 8
	return v, nil
}

func (r *Reader) Shortstr() (string, error) {
	r.resetBits()
	n, err := r.Octet()
	if err != nil {
		return "", err
	}
	if err := r.need(int(n)); err != nil {
		return "", err
	}
	s := string(r.buf[r.pos : r.pos+int(n)])
	r.pos += int(n)
	return s, nil
}

func (r *Reader) Longstr() (string, error) {
	r.resetBits()
	n, err := r.Long()
	if err != nil {
		return "", err
	}
	if err := r.need(int(n)); err != nil {
		return "", err
	}
	s := string(r.buf[r.pos : r.pos+int(n)])
	r.pos += int(n)
	return s, nil
}

func (r *Reader) Bytes(n int) ([]byte, error) {
	r.resetBits()
	if err := r.need(n); err != nil {
		return nil, err
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

func (r *Reader) LongBytes() ([]byte, error) {
	r.resetBits()
	n, err := r.Long()
	if err != nil {
		return nil, err
	}
	return r.Bytes(int(n))
}

func (r *Reader) Timestamp() (time.Time, error) {
	v, err := r.Longlong()
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(int64(v), 0).UTC(), nil
}

func (r *Reader) Table() (map[string]interface{}, error) {
	r.resetBits()
	raw, err := r.LongBytes()
	if err != nil {
		return nil, err
	}
	inner := NewReader(raw)
	out := map[string]interface{}{}
	for inner.remaining() > 0 {
		key, err := inner.Shortstr()
		if err != nil {
			return nil, &UnmarshalError{Reason: "malformed table key: " + err.Error()}
		}
		val, err := inner.FieldValue()
		if err != nil {
			return nil, &UnmarshalError{Reason: "malformed table value: " + err.Error()}
		}
		out[key] = val
	}
	return out, nil
}

func (r *Reader) FieldValue() (interface{}, error) {
	tag, err := r.Octet()
	if err != nil {
		return nil, err
	}
	switch tag {
	case 't':
		v, err := r.Octet()
		return v != 0, err
	case 'b':
		v, err := r.Octet()
		return int8(v), err
	case 's':
		v, err := r.Short()
		return int16(v), err
	case 'I':
		v, err := r.Long()
		return int32(v), err
	case 'l':
		v, err := r.Longlong()
		return int64(v), err
	case 'f':
		v, err := r.Long()
		return float32frombits(v), err
	case 'd':
		v, err := r.Longlong()
		return float64frombits(v), err
	case 'S':
		return r.Longstr()
	case 'x':
		return r.LongBytes()
	case 'T':
		return r.Timestamp()
	case 'F':
		return r.Table()
	case 'A':
		raw, err := r.LongBytes()
		if err != nil {
			return nil, err
		}
		inner := NewReader(raw)
		var out []interface{}
		for inner.remaining() > 0 {
			v, err := inner.FieldValue()
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	case 'V':
		return nil, nil
	default:
		return nil, &UnmarshalError{Reason: fmt.Sprintf("unknown field table tag %q", tag)}
	}
}
