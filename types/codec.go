package types

import (
	"encoding/binary"
	"fmt"
)

// Encoder writes the canonical wire form used for program inputs and
// outputs: little-endian fixed-width integers and u64 length-prefixed byte
// strings. The encoding is deterministic; fingerprints are computed over
// these bytes.
type Encoder struct {
	buf []byte
}

func NewEncoder() *Encoder {
	return &Encoder{buf: make([]byte, 0, 256)}
}

func (e *Encoder) Uint8(v uint8) {
	e.buf = append(e.buf, v)
}

func (e *Encoder) Uint32(v uint32) {
	e.buf = binary.LittleEndian.AppendUint32(e.buf, v)
}

func (e *Encoder) Uint64(v uint64) {
	e.buf = binary.LittleEndian.AppendUint64(e.buf, v)
}

// Fixed writes raw bytes with no length prefix.
func (e *Encoder) Fixed(b []byte) {
	e.buf = append(e.buf, b...)
}

// Bytes writes a u64 length prefix followed by the raw bytes.
func (e *Encoder) Bytes(b []byte) {
	e.Uint64(uint64(len(b)))
	e.Fixed(b)
}

// ByteSlices writes a u64 element count followed by each slice length-prefixed.
func (e *Encoder) ByteSlices(bs [][]byte) {
	e.Uint64(uint64(len(bs)))
	for _, b := range bs {
		e.Bytes(b)
	}
}

func (e *Encoder) Uint64s(vs []uint64) {
	e.Uint64(uint64(len(vs)))
	for _, v := range vs {
		e.Uint64(v)
	}
}

func (e *Encoder) Finish() []byte {
	return e.buf
}

// Decoder is the inverse of Encoder. All reads validate remaining length
// and fail with a wrapped error rather than panicking on truncated input.
type Decoder struct {
	buf []byte
	off int
}

func NewDecoder(b []byte) *Decoder {
	return &Decoder{buf: b}
}

func (d *Decoder) remaining() int {
	return len(d.buf) - d.off
}

func (d *Decoder) Uint8() (uint8, error) {
	if d.remaining() < 1 {
		return 0, fmt.Errorf("decode uint8: truncated at offset %d", d.off)
	}
	v := d.buf[d.off]
	d.off++
	return v, nil
}

func (d *Decoder) Uint32() (uint32, error) {
	if d.remaining() < 4 {
		return 0, fmt.Errorf("decode uint32: truncated at offset %d", d.off)
	}
	v := binary.LittleEndian.Uint32(d.buf[d.off:])
	d.off += 4
	return v, nil
}

func (d *Decoder) Uint64() (uint64, error) {
	if d.remaining() < 8 {
		return 0, fmt.Errorf("decode uint64: truncated at offset %d", d.off)
	}
	v := binary.LittleEndian.Uint64(d.buf[d.off:])
	d.off += 8
	return v, nil
}

func (d *Decoder) Fixed(n int) ([]byte, error) {
	if d.remaining() < n {
		return nil, fmt.Errorf("decode fixed[%d]: truncated at offset %d", n, d.off)
	}
	v := make([]byte, n)
	copy(v, d.buf[d.off:])
	d.off += n
	return v, nil
}

func (d *Decoder) Fixed32() ([32]byte, error) {
	var out [32]byte
	b, err := d.Fixed(32)
	if err != nil {
		return out, err
	}
	copy(out[:], b)
	return out, nil
}

func (d *Decoder) Bytes() ([]byte, error) {
	n, err := d.Uint64()
	if err != nil {
		return nil, err
	}
	if uint64(d.remaining()) < n {
		return nil, fmt.Errorf("decode bytes: length %d exceeds remaining %d", n, d.remaining())
	}
	return d.Fixed(int(n))
}

func (d *Decoder) ByteSlices() ([][]byte, error) {
	n, err := d.Uint64()
	if err != nil {
		return nil, err
	}
	out := make([][]byte, 0, n)
	for i := uint64(0); i < n; i++ {
		b, err := d.Bytes()
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

func (d *Decoder) Uint64s() ([]uint64, error) {
	n, err := d.Uint64()
	if err != nil {
		return nil, err
	}
	out := make([]uint64, 0, n)
	for i := uint64(0); i < n; i++ {
		v, err := d.Uint64()
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// Done returns an error if trailing bytes remain after decoding a record.
func (d *Decoder) Done() error {
	if d.remaining() != 0 {
		return fmt.Errorf("decode: %d trailing bytes", d.remaining())
	}
	return nil
}
