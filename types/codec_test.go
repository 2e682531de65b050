package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncoderDecoderRoundTrip(t *testing.T) {
	e := NewEncoder()
	e.Uint8(7)
	e.Uint32(42)
	e.Uint64(1 << 40)
	e.Bytes([]byte("hello"))
	e.ByteSlices([][]byte{{1, 2}, nil, {3}})
	e.Uint64s([]uint64{9, 8, 7})

	d := NewDecoder(e.Finish())

	v8, err := d.Uint8()
	require.NoError(t, err)
	require.Equal(t, uint8(7), v8)

	v32, err := d.Uint32()
	require.NoError(t, err)
	require.Equal(t, uint32(42), v32)

	v64, err := d.Uint64()
	require.NoError(t, err)
	require.Equal(t, uint64(1<<40), v64)

	b, err := d.Bytes()
	require.NoError(t, err)
	require.Equal(t, []byte("hello"), b)

	bs, err := d.ByteSlices()
	require.NoError(t, err)
	require.Len(t, bs, 3)
	require.Equal(t, []byte{1, 2}, bs[0])
	require.Empty(t, bs[1])
	require.Equal(t, []byte{3}, bs[2])

	vs, err := d.Uint64s()
	require.NoError(t, err)
	require.Equal(t, []uint64{9, 8, 7}, vs)

	require.NoError(t, d.Done())
}

func TestDecoderTruncated(t *testing.T) {
	d := NewDecoder([]byte{1, 2, 3})
	_, err := d.Uint64()
	require.Error(t, err)
}

func TestDecoderBadLength(t *testing.T) {
	e := NewEncoder()
	e.Uint64(1 << 62) // absurd length prefix
	d := NewDecoder(e.Finish())
	_, err := d.Bytes()
	require.Error(t, err)
}

func TestDecoderTrailingBytes(t *testing.T) {
	d := NewDecoder([]byte{0})
	require.Error(t, d.Done())
}
