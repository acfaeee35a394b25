package marshal

import (
	"encoding/binary"
	"fmt"
	"io"
	"reflect"

	"github.com/puzpuzpuz/xsync/v4"
)

// sizeCache avoids the reflection cost of binary.Size on every call.
var sizeCache = xsync.NewMap[reflect.Type, int]()

// Record provides a generic Codec implementation for any struct Payload
// composed of fixed-width fields, eliminating boilerplate for header-style
// data structures. Order selects the byte order for this record; when nil
// the package default applies.
//
// Constraint: Payload must not contain variable-size fields (slices, maps,
// strings), as those make binary.Size fail.
type Record[Payload any] struct {
	Payload Payload
	Order   binary.ByteOrder
}

var _ Codec = (*Record[struct{}])(nil)

func (c *Record[Payload]) order() binary.ByteOrder {
	if c.Order != nil {
		return c.Order
	}
	return Order
}

// Size returns the fixed encoded size of the payload in bytes.
// The result is cached per payload type.
func (c *Record[Payload]) Size() int {
	bodyType := reflect.TypeOf((*Payload)(nil)).Elem()
	if size, ok := sizeCache.Load(bodyType); ok {
		return size
	}
	size := binary.Size(&c.Payload)
	sizeCache.Store(bodyType, size)
	return size
}

// MarshalBinary implements encoding.BinaryMarshaler. It allocates a new
// slice; use MarshalTo or WriteTo on hot paths.
func (c *Record[Payload]) MarshalBinary() ([]byte, error) {
	buf := make([]byte, c.Size())
	if _, err := c.MarshalTo(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler. Trailing bytes
// must be zero; anything else indicates a truncated or oversized payload.
func (c *Record[Payload]) UnmarshalBinary(data []byte) error {
	n, err := binary.Decode(data, c.order(), &c.Payload)
	if err != nil {
		return ErrTruncatedData
	}
	return checkTrailingZeros(data[n:])
}

// ReadFrom implements io.ReaderFrom for allocation-free decoding from a stream.
func (c *Record[Payload]) ReadFrom(r io.Reader) (int64, error) {
	if err := binary.Read(r, c.order(), &c.Payload); err != nil {
		return 0, err
	}
	return int64(c.Size()), nil
}

// WriteTo implements io.WriterTo for allocation-free encoding to a stream.
func (c *Record[Payload]) WriteTo(w io.Writer) (int64, error) {
	if err := binary.Write(w, c.order(), &c.Payload); err != nil {
		return 0, err
	}
	return int64(c.Size()), nil
}

// MarshalTo encodes the payload into p without allocating.
func (c *Record[Payload]) MarshalTo(p []byte) (int, error) {
	n, err := binary.Encode(p, c.order(), &c.Payload)
	if err != nil {
		return n, io.ErrShortWrite
	}
	return n, nil
}

// checkTrailingZeros verifies that every byte of tail is zero.
func checkTrailingZeros(tail []byte) error {
	for i, b := range tail {
		if b != 0 {
			return fmt.Errorf("%w: found non-zero byte 0x%02x at offset %d", ErrTrailingData, b, i)
		}
	}
	return nil
}
