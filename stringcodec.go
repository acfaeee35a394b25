package marshal

import (
	"context"
	"slices"
	"strings"

	"github.com/puzpuzpuz/xsync/v4"
	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"
)

// NullTerminatorBehavior governs how ReadString treats null code units.
type NullTerminatorBehavior int

const (
	// NullTerminatorStop ends the read at the first aligned null code unit.
	// The terminator's bytes count toward BytesRead but are excluded from
	// the returned string.
	NullTerminatorStop NullTerminatorBehavior = iota

	// NullTerminatorIgnore decodes null code units as ordinary characters.
	NullTerminatorIgnore

	// NullTerminatorTrimTrailing decodes like NullTerminatorIgnore, then
	// strips trailing (but not embedded) null characters from the result.
	NullTerminatorTrimTrailing
)

// ReadStringResult reports the outcome of a ReadString.
type ReadStringResult struct {
	Value               string
	BytesRead           int64
	FoundNullTerminator bool
	IsEndOfStream       bool
}

// codeUnitSizeCache holds the measured minimum code unit width per encoding.
var codeUnitSizeCache = xsync.NewMap[encoding.Encoding, int]()

// MinimumCodeUnitSize returns the byte width of enc's smallest code unit
// (1 for UTF-8 and single-byte charmaps, 2 for UTF-16, 4 for UTF-32). The
// width is measured by encoding U+0000; encoding two of them and one of
// them separately cancels out any byte order mark the encoder emits.
func MinimumCodeUnitSize(enc encoding.Encoding) int {
	if size, ok := codeUnitSizeCache.Load(enc); ok {
		return size
	}
	size := 1
	one, err1 := enc.NewEncoder().Bytes([]byte("\x00"))
	two, err2 := enc.NewEncoder().Bytes([]byte("\x00\x00"))
	if err1 == nil && err2 == nil && len(two) > len(one) {
		size = len(two) - len(one)
	}
	codeUnitSizeCache.Store(enc, size)
	return size
}

// NullTerminatedString interprets buf as a null-terminated byte string.
// It returns the content before the first zero byte and that byte's index,
// or the whole buffer and -1 when no terminator is present.
func NullTerminatedString(buf []byte) (string, int) {
	for i, b := range buf {
		if b == 0 {
			return string(buf[:i]), i
		}
	}
	return string(buf), -1
}

// ReadString decodes bytes from the stream into text using enc's decoder,
// consuming at most maxBytesToRead bytes (-1 for unlimited) and honoring the
// given null-terminator behavior. Decoding is incremental: multi-byte
// characters may span internal buffer boundaries, and a character left
// incomplete at the byte cap or at end of stream is flushed through the
// decoder's replacement fallback rather than dropped, so Value and BytesRead
// always agree on what was consumed.
func (s *MarshalStream) ReadString(enc encoding.Encoding, maxBytesToRead int64, behavior NullTerminatorBehavior) (ReadStringResult, error) {
	return s.readString(context.Background(), enc, maxBytesToRead, behavior)
}

// ReadStringContext is ReadString with cancellation checked at each
// backing-store I/O boundary.
func (s *MarshalStream) ReadStringContext(ctx context.Context, enc encoding.Encoding, maxBytesToRead int64, behavior NullTerminatorBehavior) (ReadStringResult, error) {
	return s.readString(ctx, enc, maxBytesToRead, behavior)
}

func (s *MarshalStream) readString(ctx context.Context, enc encoding.Encoding, maxBytes int64, behavior NullTerminatorBehavior) (ReadStringResult, error) {
	if s.closed {
		return ReadStringResult{}, ErrClosed
	}
	if !s.CanRead() {
		return ReadStringResult{}, ErrNotReadable
	}

	unit := MinimumCodeUnitSize(enc)
	dec := enc.NewDecoder()
	out := make([]byte, 0, 64)

	var res ReadStringResult
	needed := unit
	for {
		if maxBytes >= 0 && res.BytesRead >= maxBytes {
			break
		}

		if s.fixed == nil && needed > len(s.buf) {
			needed = len(s.buf)
		}
		ok, err := s.ensureBuffered(ctx, needed)
		if err != nil {
			return res, err
		}
		needed = unit
		window := s.BufferedReadableBytes()
		if len(window) == 0 {
			res.IsEndOfStream = true
			break
		}
		// ok=false means the backing store is exhausted: the window holds
		// everything there will ever be.
		exhausted := !ok
		final := exhausted

		if maxBytes >= 0 {
			if allowed := maxBytes - res.BytesRead; int64(len(window)) >= allowed {
				window = window[:allowed]
				final = true
			}
		}

		if behavior == NullTerminatorStop {
			if i, found := findAlignedNull(window, unit, res.BytesRead); found {
				out, _, err = feedDecoder(dec, out, window[:i], true)
				if err != nil {
					return res, err
				}
				s.consume(i + unit)
				res.BytesRead += int64(i + unit)
				res.FoundNullTerminator = true
				res.Value = string(out)
				return res, nil
			}
		}

		grown, consumed, err := feedDecoder(dec, out, window, final)
		out = grown
		if err != nil {
			return res, err
		}
		s.consume(consumed)
		res.BytesRead += int64(consumed)

		if final && consumed == 0 {
			// The decoder cannot make progress and no more bytes are
			// coming; stop rather than spin.
			res.IsEndOfStream = exhausted
			break
		}
		if consumed < len(window) {
			// A partial multi-byte character is stalling the decoder.
			// Widen the window by a byte so it can complete.
			needed = s.BufferedReadableByteCount() + 1
		}
	}

	res.Value = string(out)
	if behavior == NullTerminatorTrimTrailing {
		res.Value = strings.TrimRight(res.Value, "\x00")
	}
	return res, nil
}

// findAlignedNull locates the first all-zero code unit in window that sits
// at a position aligned to the code unit width, given how many bytes of the
// string were consumed before this window.
func findAlignedNull(window []byte, unit int, phase int64) (int, bool) {
	start := 0
	if off := int(phase % int64(unit)); off != 0 {
		start = unit - off
	}
scan:
	for i := start; i+unit <= len(window); i += unit {
		for j := 0; j < unit; j++ {
			if window[i+j] != 0 {
				continue scan
			}
		}
		return i, true
	}
	return 0, false
}

// feedDecoder runs src through dec, appending decoded bytes to out and
// growing it when a replacement fallback expands past the estimate. When
// atEOF is false a trailing partial character is left unconsumed for the
// next call; when atEOF is true it is flushed through the fallback instead.
func feedDecoder(dec *encoding.Decoder, out, src []byte, atEOF bool) ([]byte, int, error) {
	consumed := 0
	for {
		if cap(out)-len(out) < 4 {
			out = slices.Grow(out, 64)
		}
		nDst, nSrc, err := dec.Transform(out[len(out):cap(out)], src[consumed:], atEOF)
		out = out[:len(out)+nDst]
		consumed += nSrc
		switch err {
		case nil:
			if consumed >= len(src) {
				return out, consumed, nil
			}
		case transform.ErrShortDst:
			out = slices.Grow(out, len(src)-consumed+4)
		case transform.ErrShortSrc:
			if !atEOF {
				return out, consumed, nil
			}
			// An EOF-time short source means the decoder wants bytes that
			// will never come; its fallback already ran, so stop here.
			return out, consumed, nil
		default:
			return out, consumed, err
		}
	}
}

// WriteString encodes value through enc's encoder and writes it to the
// stream in bounded chunks, optionally followed by a single encoded null
// character. It returns the total bytes written. An empty value with no
// terminator writes nothing.
func (s *MarshalStream) WriteString(enc encoding.Encoding, value string, writeNullTerminator bool) (int64, error) {
	return s.writeString(context.Background(), enc, value, writeNullTerminator)
}

// WriteStringContext is WriteString with cancellation checked at each
// backing-store I/O boundary.
func (s *MarshalStream) WriteStringContext(ctx context.Context, enc encoding.Encoding, value string, writeNullTerminator bool) (int64, error) {
	return s.writeString(ctx, enc, value, writeNullTerminator)
}

func (s *MarshalStream) writeString(ctx context.Context, enc encoding.Encoding, value string, writeNullTerminator bool) (int64, error) {
	if s.closed {
		return 0, ErrClosed
	}
	if !s.CanWrite() {
		return 0, ErrNotWritable
	}
	if value == "" && !writeNullTerminator {
		return 0, nil
	}

	src := []byte(value)
	if writeNullTerminator {
		src = append(src, 0)
	}

	e := enc.NewEncoder()
	bufPtr := chunkPool.Get().(*[]byte)
	defer chunkPool.Put(bufPtr)
	dst := *bufPtr

	var total int64
	consumed := 0
	for {
		nDst, nSrc, terr := e.Transform(dst, src[consumed:], true)
		consumed += nSrc
		if nDst > 0 {
			n, werr := s.write(ctx, dst[:nDst])
			total += int64(n)
			if werr != nil {
				return total, werr
			}
		}
		switch terr {
		case nil:
			if consumed >= len(src) {
				return total, nil
			}
		case transform.ErrShortDst:
			// Next pass writes the following chunk.
		default:
			return total, terr
		}
	}
}
