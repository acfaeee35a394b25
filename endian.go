package marshal

import (
	"encoding/binary"
	"math"
	"math/bits"

	"golang.org/x/exp/constraints"
)

// Stateless byte-order converters. Both are safe to share and reuse.
var (
	BE binary.ByteOrder = binary.BigEndian
	LE binary.ByteOrder = binary.LittleEndian

	// Order is the package default byte order.
	Order = BE
)

// EncodeInt writes v into the front of buf using the given byte order and
// returns the number of bytes written. The width is v's native width, so
// buf must hold at least that many bytes.
func EncodeInt[T constraints.Integer](order binary.ByteOrder, buf []byte, v T) int {
	switch any(v).(type) {
	case int8, uint8:
		buf[0] = byte(v)
		return 1
	case int16, uint16:
		order.PutUint16(buf, uint16(v))
		return 2
	case int32, uint32:
		order.PutUint32(buf, uint32(v))
		return 4
	default:
		order.PutUint64(buf, uint64(v))
		return 8
	}
}

// DecodeInt reads a value of type T from the front of buf using the given
// byte order. buf must hold at least T's width in bytes.
func DecodeInt[T constraints.Integer](order binary.ByteOrder, buf []byte) T {
	var v T
	switch any(v).(type) {
	case int8, uint8:
		return T(buf[0])
	case int16, uint16:
		return T(order.Uint16(buf))
	case int32, uint32:
		return T(order.Uint32(buf))
	default:
		return T(order.Uint64(buf))
	}
}

// EncodeFloat32 writes the IEEE 754 bits of v into buf.
func EncodeFloat32(order binary.ByteOrder, buf []byte, v float32) int {
	order.PutUint32(buf, math.Float32bits(v))
	return 4
}

// DecodeFloat32 reads an IEEE 754 float32 from buf.
func DecodeFloat32(order binary.ByteOrder, buf []byte) float32 {
	return math.Float32frombits(order.Uint32(buf))
}

// EncodeFloat64 writes the IEEE 754 bits of v into buf.
func EncodeFloat64(order binary.ByteOrder, buf []byte, v float64) int {
	order.PutUint64(buf, math.Float64bits(v))
	return 8
}

// DecodeFloat64 reads an IEEE 754 float64 from buf.
func DecodeFloat64(order binary.ByteOrder, buf []byte) float64 {
	return math.Float64frombits(order.Uint64(buf))
}

// SwapByteOrder reverses the byte order of a fixed-width integer.
// Converting a value between big and little endian is a single swap.
func SwapByteOrder[T constraints.Integer](v T) T {
	switch any(v).(type) {
	case int8, uint8:
		return v
	case int16, uint16:
		return T(bits.ReverseBytes16(uint16(v)))
	case int32, uint32:
		return T(bits.ReverseBytes32(uint32(v)))
	default:
		return T(bits.ReverseBytes64(uint64(v)))
	}
}

// Roundup rounds n up to the nearest multiple of align. align must be a
// power of two.
func Roundup[T constraints.Integer](n, align T) T { return (n + (align - 1)) &^ (align - 1) }
