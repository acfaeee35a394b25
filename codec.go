package marshal

import (
	"encoding"
	"io"
)

// Sizer reports a type's binary-encoded size, letting callers pre-size
// buffers before encoding.
type Sizer interface {
	// Size returns the size of the type in bytes when binary encoded.
	Size() int
}

// Marshaler defines the encoding surface of a record: the standard
// slice-allocating form, the streaming form, and an allocation-free form
// into a caller-supplied buffer.
type Marshaler interface {
	encoding.BinaryMarshaler // MarshalBinary() ([]byte, error)
	io.WriterTo              // WriteTo(w io.Writer) (int64, error)

	// MarshalTo encodes into a pre-allocated buffer, returning
	// io.ErrShortWrite if the buffer is too small.
	MarshalTo(buf []byte) (int, error)
}

// Unmarshaler defines the decoding surface of a record.
type Unmarshaler interface {
	encoding.BinaryUnmarshaler // UnmarshalBinary(data []byte) error
	io.ReaderFrom              // ReadFrom(r io.Reader) (int64, error)
}

// Codec aggregates the full binary serialization surface. A type
// implementing Codec is a complete, self-sizing binary encoder/decoder.
type Codec interface {
	Sizer
	Marshaler
	Unmarshaler
}
