package marshal

import (
	"context"
	"io"
)

// ScanFunc examines the cached window it is given and returns either 0,
// meaning a match was found and nothing further should be consumed, or a
// positive count of bytes to consume and skip before the next invocation.
// The window is re-supplied on each call, already advanced past consumed
// bytes, so a ScanFunc should scan its entire window per call rather than
// one byte at a time. Returning a negative count, or more than the window
// holds, is a contract violation.
type ScanFunc func(window []byte) int

// ScanResult reports the outcome of a Scan.
type ScanResult struct {
	BytesRead       int64
	IsPositiveMatch bool
	IsEndOfStream   bool
}

// MatchResult reports the outcome of a Match.
type MatchResult struct {
	IsMatch       bool
	BytesRead     int64
	IsEndOfStream bool
}

// Scan advances through the stream under the control of fn. minBytesNeeded
// is the smallest window fn can make a decision on (a multi-byte pattern
// needs its full width visible even at a chunk boundary); it may not exceed
// the fixed buffer's length or, on a wrapped stream, the configured buffer
// capacity. maxBytesToRead caps consumption, with -1 meaning unlimited; when
// minBytesNeeded > 1 the cap is soft, since the final window may still be
// widened to minBytesNeeded so a pattern spanning the boundary can be
// checked, and BytesRead may exceed the cap by up to minBytesNeeded-1.
func (s *MarshalStream) Scan(minBytesNeeded int, maxBytesToRead int64, fn ScanFunc) (ScanResult, error) {
	return s.scan(context.Background(), minBytesNeeded, maxBytesToRead, fn, nil)
}

// ScanContext is Scan with cancellation checked at each backing-store I/O
// boundary.
func (s *MarshalStream) ScanContext(ctx context.Context, minBytesNeeded int, maxBytesToRead int64, fn ScanFunc) (ScanResult, error) {
	return s.scan(ctx, minBytesNeeded, maxBytesToRead, fn, nil)
}

// ScanTo is Scan with every consumed byte also copied to dst.
func (s *MarshalStream) ScanTo(minBytesNeeded int, maxBytesToRead int64, fn ScanFunc, dst io.Writer) (ScanResult, error) {
	if dst == nil {
		return ScanResult{}, ErrNilDestination
	}
	return s.scan(context.Background(), minBytesNeeded, maxBytesToRead, fn, dst)
}

// ScanToContext is ScanTo with cancellation checked at each backing-store
// I/O boundary.
func (s *MarshalStream) ScanToContext(ctx context.Context, minBytesNeeded int, maxBytesToRead int64, fn ScanFunc, dst io.Writer) (ScanResult, error) {
	if dst == nil {
		return ScanResult{}, ErrNilDestination
	}
	return s.scan(ctx, minBytesNeeded, maxBytesToRead, fn, dst)
}

func (s *MarshalStream) scan(ctx context.Context, minBytes int, maxBytes int64, fn ScanFunc, dst io.Writer) (ScanResult, error) {
	if s.closed {
		return ScanResult{}, ErrClosed
	}
	if !s.CanRead() {
		return ScanResult{}, ErrNotReadable
	}
	if minBytes < 1 {
		return ScanResult{}, ErrExceedsBufferCapacity
	}
	if s.fixed != nil {
		if minBytes > len(s.fixed) {
			return ScanResult{}, ErrExceedsBufferCapacity
		}
	} else if minBytes > len(s.buf) {
		return ScanResult{}, ErrExceedsBufferCapacity
	}

	var res ScanResult
	for {
		if maxBytes >= 0 && res.BytesRead >= maxBytes {
			return res, nil
		}

		if _, err := s.ensureBuffered(ctx, minBytes); err != nil {
			return res, err
		}
		window := s.BufferedReadableBytes()
		if len(window) == 0 {
			res.IsEndOfStream = true
			return res, nil
		}

		// Trim the window to the remaining budget, but never below
		// minBytes: a boundary-spanning pattern must stay checkable.
		if maxBytes >= 0 {
			allowed := maxBytes - res.BytesRead
			if allowed < int64(minBytes) {
				allowed = int64(minBytes)
			}
			if int64(len(window)) > allowed {
				window = window[:allowed]
			}
		}

		n := fn(window)
		if n == 0 {
			res.IsPositiveMatch = true
			return res, nil
		}
		if n < 0 || n > len(window) {
			return res, ErrScanConsumedOutOfRange
		}
		if err := s.emitConsumed(dst, window[:n]); err != nil {
			return res, err
		}
		s.consume(n)
		res.BytesRead += int64(n)
	}
}

// Match reads and compares incoming bytes one-for-one against seq. It stops
// at the first mismatch, counting the mismatching byte as consumed, at end
// of stream, or after the whole sequence matched. An empty seq is an
// immediate zero-byte match and never touches the stream.
func (s *MarshalStream) Match(seq []byte) (MatchResult, error) {
	return s.match(context.Background(), seq, nil)
}

// MatchContext is Match with cancellation checked at each backing-store I/O
// boundary.
func (s *MarshalStream) MatchContext(ctx context.Context, seq []byte) (MatchResult, error) {
	return s.match(ctx, seq, nil)
}

// MatchTo is Match with every consumed byte also copied to dst, including
// the mismatching byte when the match fails.
func (s *MarshalStream) MatchTo(seq []byte, dst io.Writer) (MatchResult, error) {
	if dst == nil {
		return MatchResult{}, ErrNilDestination
	}
	return s.match(context.Background(), seq, dst)
}

// MatchToContext is MatchTo with cancellation checked at each backing-store
// I/O boundary.
func (s *MarshalStream) MatchToContext(ctx context.Context, seq []byte, dst io.Writer) (MatchResult, error) {
	if dst == nil {
		return MatchResult{}, ErrNilDestination
	}
	return s.match(ctx, seq, dst)
}

func (s *MarshalStream) match(ctx context.Context, seq []byte, dst io.Writer) (MatchResult, error) {
	if len(seq) == 0 {
		return MatchResult{IsMatch: true}, nil
	}
	if s.closed {
		return MatchResult{}, ErrClosed
	}
	if !s.CanRead() {
		return MatchResult{}, ErrNotReadable
	}

	var res MatchResult
	matched := 0
	for matched < len(seq) {
		if _, err := s.ensureBuffered(ctx, 1); err != nil {
			return res, err
		}
		window := s.BufferedReadableBytes()
		if len(window) == 0 {
			res.IsEndOfStream = true
			return res, nil
		}
		if len(window) > len(seq)-matched {
			window = window[:len(seq)-matched]
		}
		for i, b := range window {
			if b != seq[matched+i] {
				if err := s.emitConsumed(dst, window[:i+1]); err != nil {
					return res, err
				}
				s.consume(i + 1)
				res.BytesRead += int64(i + 1)
				return res, nil
			}
		}
		if err := s.emitConsumed(dst, window); err != nil {
			return res, err
		}
		s.consume(len(window))
		res.BytesRead += int64(len(window))
		matched += len(window)
	}
	res.IsMatch = true
	return res, nil
}

// emitConsumed copies bytes a scan or match is about to consume to dst.
func (s *MarshalStream) emitConsumed(dst io.Writer, b []byte) error {
	if dst == nil || len(b) == 0 {
		return nil
	}
	n, err := dst.Write(b)
	if err != nil {
		return err
	}
	if n < len(b) {
		return io.ErrShortWrite
	}
	return nil
}
