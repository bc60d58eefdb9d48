package wire

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWriterReaderPrimitivesRoundTrip(t *testing.T) {
	w := NewWriter()
	w.Octet(7)
	w.Short(1234)
	w.Long(123456789)
	w.Longlong(1234567890123)
	require.NoError(t, w.Shortstr("hello"))
	w.Longstr("a longer string that still fits in one frame")
	w.LongBytes([]byte{1, 2, 3, 4})

	r := NewReader(w.Bytes())
	octet, err := r.Octet()
	require.NoError(t, err)
	require.Equal(t, uint8(7), octet)

	short, err := r.Short()
	require.NoError(t, err)
	require.Equal(t, uint16(1234), short)

	long, err := r.Long()
	require.NoError(t, err)
	require.Equal(t, uint32(123456789), long)

	longlong, err := r.Longlong()
	require.NoError(t, err)
	require.Equal(t, uint64(1234567890123), longlong)

	shortstr, err := r.Shortstr()
	require.NoError(t, err)
	require.Equal(t, "hello", shortstr)

	longstr, err := r.Longstr()
	require.NoError(t, err)
	require.Equal(t, "a longer string that still fits in one frame", longstr)

	longBytes, err := r.LongBytes()
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 3, 4}, longBytes)
}

func TestWriterBitsPackIntoOctets(t *testing.T) {
	w := NewWriter()
	w.Bit(true)
	w.Bit(false)
	w.Bit(true)
	w.Octet(9) // flushes the three pending bits into one octet first

	buf := w.Bytes()
	require.Len(t, buf, 2)
	require.Equal(t, byte(0b00000101), buf[0])
	require.Equal(t, byte(9), buf[1])

	r := NewReader(buf)
	b0, err := r.Bit()
	require.NoError(t, err)
	require.True(t, b0)
	b1, err := r.Bit()
	require.NoError(t, err)
	require.False(t, b1)
	b2, err := r.Bit()
	require.NoError(t, err)
	require.True(t, b2)
	octet, err := r.Octet()
	require.NoError(t, err)
	require.Equal(t, uint8(9), octet)
}

func TestTimestampRoundTrip(t *testing.T) {
	now := time.Unix(1700000000, 0).UTC()
	w := NewWriter()
	w.Timestamp(now)

	r := NewReader(w.Bytes())
	got, err := r.Timestamp()
	require.NoError(t, err)
	require.True(t, now.Equal(got))
}

func TestTableRoundTrip(t *testing.T) {
	in := map[string]interface{}{
		"str":    "value",
		"bool":   true,
		"int32":  int32(42),
		"int64":  int64(-9000),
		"float":  float64(3.5),
		"nested": map[string]interface{}{"inner": "v"},
		"list":   []interface{}{"a", int32(1)},
		"null":   nil,
	}

	w := NewWriter()
	require.NoError(t, w.Table(in))

	r := NewReader(w.Bytes())
	out, err := r.Table()
	require.NoError(t, err)

	require.Equal(t, "value", out["str"])
	require.Equal(t, true, out["bool"])
	require.Equal(t, int32(42), out["int32"])
	require.Equal(t, int64(-9000), out["int64"])
	require.Equal(t, float64(3.5), out["float"])
	require.Nil(t, out["null"])

	nested, ok := out["nested"].(map[string]interface{})
	require.True(t, ok)
	require.Equal(t, "v", nested["inner"])

	list, ok := out["list"].([]interface{})
	require.True(t, ok)
	require.Equal(t, []interface{}{"a", int32(1)}, list)
}

func TestTableKeyOrderIsDeterministic(t *testing.T) {
	in := map[string]interface{}{"z": "1", "a": "2", "m": "3"}
	w1 := NewWriter()
	require.NoError(t, w1.Table(in))
	w2 := NewWriter()
	require.NoError(t, w2.Table(in))
	require.Equal(t, w1.Bytes(), w2.Bytes())
}

func TestReaderNeedMoreData(t *testing.T) {
	r := NewReader([]byte{0, 1})
	_, err := r.Long()
	require.ErrorIs(t, err, ErrNeedMoreData)
}

func TestShortstrRejectsOversizedString(t *testing.T) {
	w := NewWriter()
	err := w.Shortstr(string(make([]byte, 256)))
	require.Error(t, err)
}
