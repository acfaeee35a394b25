package marshal

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func reversed(b []byte) []byte {
	out := make([]byte, len(b))
	for i, v := range b {
		out[len(b)-1-i] = v
	}
	return out
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	t.Run("Uint16", func(t *testing.T) {
		for _, v := range []uint16{0, 1, 0xBBCC, math.MaxUint16} {
			var be, le [2]byte
			EncodeInt(BE, be[:], v)
			EncodeInt(LE, le[:], v)
			assert.Equal(t, v, DecodeInt[uint16](BE, be[:]))
			assert.Equal(t, v, DecodeInt[uint16](LE, le[:]))
			assert.Equal(t, reversed(le[:]), be[:])
		}
	})

	t.Run("Uint32", func(t *testing.T) {
		for _, v := range []uint32{0, 0xDDEEFF00, math.MaxUint32} {
			var be, le [4]byte
			EncodeInt(BE, be[:], v)
			EncodeInt(LE, le[:], v)
			assert.Equal(t, v, DecodeInt[uint32](BE, be[:]))
			assert.Equal(t, v, DecodeInt[uint32](LE, le[:]))
			assert.Equal(t, reversed(le[:]), be[:])
		}
	})

	t.Run("Uint64", func(t *testing.T) {
		for _, v := range []uint64{0, 0x0102030405060708, math.MaxUint64} {
			var be, le [8]byte
			EncodeInt(BE, be[:], v)
			EncodeInt(LE, le[:], v)
			assert.Equal(t, v, DecodeInt[uint64](BE, be[:]))
			assert.Equal(t, v, DecodeInt[uint64](LE, le[:]))
			assert.Equal(t, reversed(le[:]), be[:])
		}
	})

	t.Run("SignedAndByte", func(t *testing.T) {
		var b [8]byte
		n := EncodeInt(BE, b[:], int8(-5))
		assert.Equal(t, 1, n)
		assert.Equal(t, int8(-5), DecodeInt[int8](BE, b[:]))

		n = EncodeInt(LE, b[:], int32(-123456))
		assert.Equal(t, 4, n)
		assert.Equal(t, int32(-123456), DecodeInt[int32](LE, b[:]))

		n = EncodeInt(BE, b[:], int64(math.MinInt64))
		assert.Equal(t, 8, n)
		assert.Equal(t, int64(math.MinInt64), DecodeInt[int64](BE, b[:]))
	})

	t.Run("Floats", func(t *testing.T) {
		var b [8]byte
		for _, v := range []float64{0, 1.5, -math.Pi, math.MaxFloat64} {
			EncodeFloat64(BE, b[:], v)
			assert.Equal(t, v, DecodeFloat64(BE, b[:]))
			EncodeFloat64(LE, b[:], v)
			assert.Equal(t, v, DecodeFloat64(LE, b[:]))
		}
		for _, v := range []float32{0, 2.25, -1e20} {
			EncodeFloat32(LE, b[:4], v)
			assert.Equal(t, v, DecodeFloat32(LE, b[:4]))
		}
	})
}

func TestSwapByteOrder(t *testing.T) {
	assert.Equal(t, uint8(0xAB), SwapByteOrder(uint8(0xAB)))
	assert.Equal(t, uint16(0xCDAB), SwapByteOrder(uint16(0xABCD)))
	assert.Equal(t, uint32(0x78563412), SwapByteOrder(uint32(0x12345678)))
	assert.Equal(t, uint64(0x0807060504030201), SwapByteOrder(uint64(0x0102030405060708)))
	assert.Equal(t, int16(0x0201), SwapByteOrder(int16(0x0102)))

	// A double swap is the identity.
	v := uint32(0xCAFEBABE)
	assert.Equal(t, v, SwapByteOrder(SwapByteOrder(v)))

	// Swapping converts between the two endian encodings.
	var be, le [4]byte
	EncodeInt(BE, be[:], v)
	EncodeInt(LE, le[:], SwapByteOrder(v))
	assert.Equal(t, be, le)
}

func TestRoundup(t *testing.T) {
	assert.EqualValues(t, 0, Roundup(0, 4))
	assert.EqualValues(t, 4, Roundup(1, 4))
	assert.EqualValues(t, 4, Roundup(4, 4))
	assert.EqualValues(t, 16, Roundup(9, 8))
}
