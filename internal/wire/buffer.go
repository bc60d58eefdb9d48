// Package wire implements the AMQP 0-9-1 frame codec: marshaling and
// unmarshaling of the protocol header, method, content-header, content-body
// and heartbeat frames.
//
// There is no importable public package for this in the Go ecosystem —
// github.com/rabbitmq/amqp091-go keeps its reader/writer unexported — so
// this package is grounded directly on the wire layout used by that
// library's predecessor (github.com/streadway/amqp, visible in this repo's
// reference corpus as chenggangschool-amqp and lifeibo-amqp) and on
// Azure-amqp's buffer-based composite marshaling in encode.go, generalized
// from AMQP 1.0's type system to 0-9-1's.
package wire

import (
	"encoding/binary"
	"fmt"
	"math"
	"sort"
	"time"
)

// Writer accumulates an encoded method/content payload before it is
// wrapped in a frame header and trailer.
type Writer struct {
	buf  []byte
	bits []bool // pending boolean fields, flushed on the next non-bit write
}

func NewWriter() *Writer {
	return &Writer{buf: make([]byte, 0, 64)}
}

func (w *Writer) Bytes() []byte { w.flushBits(); return w.buf }
func (w *Writer) Len() int      { return len(w.Bytes()) }

func (w *Writer) flushBits() {
	if len(w.bits) == 0 {
		return
	}
	var b byte
	for i, v := range w.bits {
		if v {
			b |= 1 << uint(i%8)
		}
		if i%8 == 7 {
			w.buf = append(w.buf, b)
			b = 0
		}
	}
	if len(w.bits)%8 != 0 {
		w.buf = append(w.buf, b)
	}
	w.bits = nil
}

// Bit queues a boolean field. AMQP packs consecutive bit fields into octets;
// any non-bit write flushes the pending octets first.
func (w *Writer) Bit(v bool) { w.bits = append(w.bits, v) }

func (w *Writer) Octet(v uint8) {
	w.flushBits()
	w.buf = append(w.buf, v)
}

func (w *Writer) Short(v uint16) {
	w.flushBits()
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

func (w *Writer) Long(v uint32) {
	w.flushBits()
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

func (w *Writer) Longlong(v uint64) {
	w.flushBits()
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

func (w *Writer) Shortstr(s string) error {
	if len(s) > 255 {
		return fmt.Errorf("wire: short string exceeds 255 bytes: %d", len(s))
	}
	w.flushBits()
	w.buf = append(w.buf, byte(len(s)))
	w.buf = append(w.buf, s...)
	return nil
}

func (w *Writer) Longstr(s string) {
	w.flushBits()
	w.Long(uint32(len(s)))
	w.buf = append(w.buf, s...)
}

func (w *Writer) LongBytes(b []byte) {
	w.flushBits()
	w.Long(uint32(len(b)))
	w.buf = append(w.buf, b...)
}

func (w *Writer) Timestamp(t time.Time) {
	w.Longlong(uint64(t.Unix()))
}

// Table encodes a field table. Nested tables and the field types used by
// headers/arguments (string, bool, numeric, []interface{}, nested Table,
// time.Time, nil) are supported.
func (w *Writer) Table(t map[string]interface{}) error {
	inner := NewWriter()
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	// deterministic order keeps wire output reproducible for tests
	sort.Strings(keys)
	for _, k := range keys {
		if err := inner.Shortstr(k); err != nil {
			return err
		}
		if err := inner.FieldValue(t[k]); err != nil {
			return err
		}
	}
	w.LongBytes(inner.Bytes())
	return nil
}

func (w *Writer) FieldValue(v interface{}) error {
	w.flushBits()
	switch val := v.(type) {
	case nil:
		w.buf = append(w.buf, 'V')
	case bool:
		w.buf = append(w.buf, 't')
		if val {
			w.buf = append(w.buf, 1)
		} else {
			w.buf = append(w.buf, 0)
		}
	case int8:
		w.buf = append(w.buf, 'b')
		w.buf = append(w.buf, byte(val))
	case int16:
		w.buf = append(w.buf, 's')
		w.Short(uint16(val))
	case int32:
		w.buf = append(w.buf, 'I')
		w.Long(uint32(val))
	case int:
		w.buf = append(w.buf, 'I')
		w.Long(uint32(val))
	case int64:
		w.buf = append(w.buf, 'l')
		w.Longlong(uint64(val))
	case float32:
		w.buf = append(w.buf, 'f')
		w.Long(math.Float32bits(val))
	case float64:
		w.buf = append(w.buf, 'd')
		w.Longlong(math.Float64bits(val))
	case string:
		w.buf = append(w.buf, 'S')
		w.Longstr(val)
	case []byte:
		w.buf = append(w.buf, 'x')
		w.LongBytes(val)
	case time.Time:
		w.buf = append(w.buf, 'T')
		w.Timestamp(val)
	case map[string]interface{}:
		w.buf = append(w.buf, 'F')
		return w.Table(val)
	case []interface{}:
		w.buf = append(w.buf, 'A')
		inner := NewWriter()
		for _, item := range val {
			if err := inner.FieldValue(item); err != nil {
				return err
			}
		}
		w.LongBytes(inner.Bytes())
	default:
		return fmt.Errorf("wire: unsupported field table value type %T", v)
	}
	return nil
}

func float32frombits(v uint32) float32 { return math.Float32frombits(v) }
func float64frombits(v uint64) float64 { return math.Float64frombits(v) }
