package marshal

import (
	"context"
	"io"
)

// Truncater is the optional interface a wrapped stream implements to
// support SetLength. os.File satisfies it.
type Truncater interface {
	Truncate(size int64) error
}

// MarshalStream is a buffered stream for binary marshalling. It wraps either
// a fixed in-memory buffer (read-only, fully addressable) or an arbitrary
// byte stream, and presents one Read/Write/Seek/Flush contract over both.
//
// A MarshalStream is driven by one logical caller at a time; it performs no
// internal locking.
type MarshalStream struct {
	// fixed-buffer mode; nil means wrapped-stream mode.
	fixed []byte

	// wrapped-stream mode
	rd        io.Reader
	wr        io.Writer
	sk        io.Seeker
	ownsInner bool
	inner     any

	// buf stages both the read cache and the write cache. At most one of
	// the two is active at a time: the read cache is buf[readPos:readLen],
	// the write cache is buf[:writeLen] destined for offset writeStart.
	buf        []byte
	readPos    int
	readLen    int
	writeLen   int
	writeStart int64

	pos      int64 // logical caller-visible cursor
	innerPos int64 // wrapped stream's physical cursor as tracked

	closed bool

	readProcs  []StreamProcessor
	writeProcs []StreamProcessor
}

var (
	_ io.ReadWriteSeeker = (*MarshalStream)(nil)
	_ io.ByteReader      = (*MarshalStream)(nil)
	_ io.ByteWriter      = (*MarshalStream)(nil)
	_ io.Closer          = (*MarshalStream)(nil)
)

// maxConsecutiveEmptyReads bounds how often a backing reader may return a
// zero count with no error before the stream reports io.ErrNoProgress. A
// zero-count nil-error read is legal for an io.Reader and must not be
// mistaken for end of stream.
const maxConsecutiveEmptyReads = 100

// NewFixedBuffer creates a MarshalStream over a fixed byte region. The
// entire region is addressable and logically cached; the stream is readable
// and seekable but not writable. The caller retains ownership of data but
// must not mutate it while the stream is in use.
func NewFixedBuffer(data []byte) *MarshalStream {
	if data == nil {
		data = []byte{}
	}
	return &MarshalStream{fixed: data}
}

// NewStream creates a MarshalStream over a wrapped byte stream with the
// default buffer capacity. Capabilities are detected from the interfaces
// backing implements: io.Reader, io.Writer, io.Seeker, Truncater. When
// ownsStream is true, Close also closes the backing stream if it implements
// io.Closer.
func NewStream(backing any, ownsStream bool) (*MarshalStream, error) {
	return NewStreamSize(backing, ownsStream, DefaultBufferCapacity)
}

// NewStreamSize is NewStream with an explicit read/write cache capacity.
func NewStreamSize(backing any, ownsStream bool, size int) (*MarshalStream, error) {
	if backing == nil {
		return nil, ErrNilStream
	}
	if size < MinBufferCapacity {
		return nil, ErrBufferTooSmall
	}
	s := &MarshalStream{
		inner:     backing,
		ownsInner: ownsStream,
		buf:       make([]byte, size),
	}
	s.rd, _ = backing.(io.Reader)
	s.wr, _ = backing.(io.Writer)
	s.sk, _ = backing.(io.Seeker)
	if s.rd == nil && s.wr == nil {
		return nil, ErrNilStream
	}
	return s, nil
}

// IsFixedBuffer reports whether the stream is in fixed-buffer mode.
func (s *MarshalStream) IsFixedBuffer() bool { return s.fixed != nil }

// CanRead reports whether the stream can currently be read. Attaching a
// write processor revokes readability until the processor is detached.
func (s *MarshalStream) CanRead() bool {
	if s.closed || len(s.writeProcs) > 0 {
		return false
	}
	return s.fixed != nil || s.rd != nil
}

// CanWrite reports whether the stream can currently be written. Fixed-buffer
// streams are never writable. Attaching a read processor revokes writability
// until the processor is detached.
func (s *MarshalStream) CanWrite() bool {
	if s.closed || len(s.readProcs) > 0 {
		return false
	}
	return s.fixed == nil && s.wr != nil
}

// CanSeek reports whether the stream can currently seek. Any attached
// processor revokes seekability until it is detached.
func (s *MarshalStream) CanSeek() bool {
	if s.closed || len(s.readProcs) > 0 || len(s.writeProcs) > 0 {
		return false
	}
	return s.fixed != nil || s.sk != nil
}

// Position returns the logical read/write cursor. It accounts for buffered
// but unconsumed read bytes and for written but unflushed bytes.
func (s *MarshalStream) Position() int64 { return s.pos }

// BufferedReadableBytes returns the bytes already cached ahead of the
// current position. The returned slice is a view into internal state and
// must not be modified or retained across stream operations. In fixed-buffer
// mode this is the entire remaining content.
func (s *MarshalStream) BufferedReadableBytes() []byte {
	if s.closed {
		return nil
	}
	if s.fixed != nil {
		if s.pos >= int64(len(s.fixed)) {
			return nil
		}
		return s.fixed[s.pos:]
	}
	return s.buf[s.readPos:s.readLen]
}

// BufferedReadableByteCount returns the number of cached unconsumed bytes.
func (s *MarshalStream) BufferedReadableByteCount() int {
	return len(s.BufferedReadableBytes())
}

// Length returns the total logical length of the stream, including any
// written but unflushed bytes. Wrapped streams must be seekable for their
// length to be known.
func (s *MarshalStream) Length() (int64, error) {
	if s.closed {
		return 0, ErrClosed
	}
	if s.fixed != nil {
		return int64(len(s.fixed)), nil
	}
	if s.sk == nil {
		return 0, ErrNotSeekable
	}
	end, err := s.sk.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, err
	}
	if _, err := s.sk.Seek(s.innerPos, io.SeekStart); err != nil {
		return 0, err
	}
	if s.writeLen > 0 && s.writeStart+int64(s.writeLen) > end {
		end = s.writeStart + int64(s.writeLen)
	}
	return end, nil
}

// Close flushes pending writes, marks the stream closed, and closes the
// backing stream when it is owned. All further operations return ErrClosed.
func (s *MarshalStream) Close() error {
	if s.closed {
		return nil
	}
	err := s.flushWrites(context.Background())
	s.closed = true
	if s.ownsInner {
		if c, ok := s.inner.(io.Closer); ok {
			if cerr := c.Close(); err == nil {
				err = cerr
			}
		}
	}
	return err
}

// Read implements io.Reader. It drains the read cache first, reads directly
// from the backing stream for requests at least as large as the cache, and
// otherwise refills the cache. Attached read processors observe exactly the
// returned bytes, in order, before Read returns.
func (s *MarshalStream) Read(p []byte) (int, error) {
	return s.read(context.Background(), p)
}

// ReadContext is Read with cancellation checked at each backing-store I/O
// boundary.
func (s *MarshalStream) ReadContext(ctx context.Context, p []byte) (int, error) {
	return s.read(ctx, p)
}

func (s *MarshalStream) read(ctx context.Context, p []byte) (int, error) {
	if s.closed {
		return 0, ErrClosed
	}
	if !s.CanRead() {
		return 0, ErrNotReadable
	}
	if len(p) == 0 {
		return 0, nil
	}

	if s.fixed != nil {
		if s.pos >= int64(len(s.fixed)) {
			return 0, io.EOF
		}
		n := copy(p, s.fixed[s.pos:])
		s.pos += int64(n)
		s.observeRead(p[:n])
		return n, nil
	}

	if err := s.flushWrites(ctx); err != nil {
		return 0, err
	}

	// Serve cached bytes first.
	if cached := s.readLen - s.readPos; cached > 0 {
		n := copy(p, s.buf[s.readPos:s.readLen])
		s.readPos += n
		s.pos += int64(n)
		s.observeRead(p[:n])
		return n, nil
	}

	// Large requests bypass the cache to avoid a redundant copy.
	if len(p) >= len(s.buf) {
		for retries := maxConsecutiveEmptyReads; retries > 0; retries-- {
			if err := ctx.Err(); err != nil {
				return 0, err
			}
			n, err := s.rd.Read(p)
			if n < 0 {
				return 0, ErrInvalidRead
			}
			s.innerPos += int64(n)
			s.pos += int64(n)
			if n > 0 {
				s.observeRead(p[:n])
				return n, nil
			}
			if err != nil {
				return 0, err
			}
		}
		return 0, io.ErrNoProgress
	}

	for retries := maxConsecutiveEmptyReads; retries > 0; retries-- {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		n, err := s.rd.Read(s.buf)
		if n < 0 {
			return 0, ErrInvalidRead
		}
		s.innerPos += int64(n)
		if n > 0 {
			s.readPos, s.readLen = 0, n
			n = copy(p, s.buf[:s.readLen])
			s.readPos = n
			s.pos += int64(n)
			s.observeRead(p[:n])
			return n, nil
		}
		if err != nil {
			return 0, err
		}
	}
	return 0, io.ErrNoProgress
}

// ReadByte implements io.ByteReader.
func (s *MarshalStream) ReadByte() (byte, error) {
	var b [1]byte
	for {
		n, err := s.Read(b[:])
		if n == 1 {
			return b[0], nil
		}
		if err != nil {
			return 0, err
		}
	}
}

// EnsureBuffered guarantees that at least n unconsumed bytes are cached,
// reading from the backing stream as needed. It returns false, with no
// error, exactly when the backing store is exhausted before n bytes could be
// cached; this is the designed way to detect short data without an error.
// n may not exceed the configured buffer capacity on a wrapped stream.
func (s *MarshalStream) EnsureBuffered(n int) (bool, error) {
	return s.ensureBuffered(context.Background(), n)
}

// EnsureBufferedContext is EnsureBuffered with cancellation checked at each
// backing-store I/O boundary.
func (s *MarshalStream) EnsureBufferedContext(ctx context.Context, n int) (bool, error) {
	return s.ensureBuffered(ctx, n)
}

func (s *MarshalStream) ensureBuffered(ctx context.Context, n int) (bool, error) {
	if s.closed {
		return false, ErrClosed
	}
	if !s.CanRead() {
		return false, ErrNotReadable
	}
	if n <= 0 {
		return true, nil
	}

	if s.fixed != nil {
		return int64(len(s.fixed))-s.pos >= int64(n), nil
	}
	if n > len(s.buf) {
		return false, ErrExceedsBufferCapacity
	}
	if err := s.flushWrites(ctx); err != nil {
		return false, err
	}

	// Compact so the window can grow to n contiguous bytes.
	if len(s.buf)-s.readPos < n && s.readPos > 0 {
		copy(s.buf, s.buf[s.readPos:s.readLen])
		s.readLen -= s.readPos
		s.readPos = 0
	}

	empty := 0
	for s.readLen-s.readPos < n {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		m, err := s.rd.Read(s.buf[s.readLen:])
		if m < 0 {
			return false, ErrInvalidRead
		}
		s.readLen += m
		s.innerPos += int64(m)
		if err != nil {
			if err == io.EOF {
				return s.readLen-s.readPos >= n, nil
			}
			return false, err
		}
		if m == 0 {
			if empty++; empty >= maxConsecutiveEmptyReads {
				return false, io.ErrNoProgress
			}
		} else {
			empty = 0
		}
	}
	return true, nil
}

// consume advances the logical position past n cached bytes. The bytes must
// already be in the read cache; read processors observe them.
func (s *MarshalStream) consume(n int) {
	if n == 0 {
		return
	}
	if s.fixed != nil {
		s.observeRead(s.fixed[s.pos : s.pos+int64(n)])
		s.pos += int64(n)
		return
	}
	s.observeRead(s.buf[s.readPos : s.readPos+n])
	s.readPos += n
	s.pos += int64(n)
}

// Write implements io.Writer. Bytes are staged in the write cache and
// persisted once the cache fills, the position moves, or Flush is called.
// Attached write processors observe bytes as they are accepted here, not at
// flush time.
func (s *MarshalStream) Write(p []byte) (int, error) {
	return s.write(context.Background(), p)
}

// WriteContext is Write with cancellation checked at each backing-store I/O
// boundary.
func (s *MarshalStream) WriteContext(ctx context.Context, p []byte) (int, error) {
	return s.write(ctx, p)
}

func (s *MarshalStream) write(ctx context.Context, p []byte) (int, error) {
	if s.closed {
		return 0, ErrClosed
	}
	if !s.CanWrite() {
		return 0, ErrNotWritable
	}
	if len(p) == 0 {
		return 0, nil
	}

	if err := s.dropReadCache(); err != nil {
		return 0, err
	}

	// Large writes go straight through once anything pending is flushed.
	if s.writeLen == 0 && len(p) >= len(s.buf) {
		if err := s.seekInner(ctx, s.pos); err != nil {
			return 0, err
		}
		n, err := s.wr.Write(p)
		if n < 0 {
			if err == nil {
				err = ErrInvalidWrite
			}
			return 0, err
		}
		s.innerPos += int64(n)
		s.pos += int64(n)
		s.observeWrite(p[:n])
		return n, err
	}

	written := 0
	for written < len(p) {
		if s.writeLen == len(s.buf) {
			if err := s.flushWrites(ctx); err != nil {
				return written, err
			}
		}
		if s.writeLen == 0 {
			s.writeStart = s.pos
		}
		n := copy(s.buf[s.writeLen:], p[written:])
		s.writeLen += n
		s.pos += int64(n)
		s.observeWrite(p[written : written+n])
		written += n
	}
	return written, nil
}

// WriteByte implements io.ByteWriter.
func (s *MarshalStream) WriteByte(b byte) error {
	_, err := s.Write([]byte{b})
	return err
}

// Flush persists any pending written bytes to the wrapped stream. It is a
// no-op in fixed-buffer mode: the cached content is the content, not a
// transient cache, and is deliberately left intact.
func (s *MarshalStream) Flush() error {
	return s.FlushContext(context.Background())
}

// FlushContext is Flush with cancellation checked at each backing-store I/O
// boundary.
func (s *MarshalStream) FlushContext(ctx context.Context) error {
	if s.closed {
		return ErrClosed
	}
	if s.fixed != nil {
		return nil
	}
	return s.flushWrites(ctx)
}

// flushWrites persists the write cache: seeks the wrapped stream to the
// cache's target offset if the physical cursor has drifted, writes the
// cache, and clears it. A partial failure leaves the unwritten tail staged
// at its correct offset, so the logical position stays consistent.
func (s *MarshalStream) flushWrites(ctx context.Context) error {
	if s.writeLen == 0 {
		return nil
	}
	if err := s.seekInner(ctx, s.writeStart); err != nil {
		return err
	}
	for s.writeLen > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := s.wr.Write(s.buf[:s.writeLen])
		if n < 0 {
			if err == nil {
				err = ErrInvalidWrite
			}
			return err
		}
		s.innerPos += int64(n)
		s.writeStart += int64(n)
		copy(s.buf, s.buf[n:s.writeLen])
		s.writeLen -= n
		if err != nil {
			return err
		}
	}
	return nil
}

// dropReadCache abandons buffered read bytes and repositions the wrapped
// stream's physical cursor back to the logical position, so a subsequent
// write lands where the caller expects.
func (s *MarshalStream) dropReadCache() error {
	cached := s.readLen - s.readPos
	s.readPos, s.readLen = 0, 0
	if cached == 0 {
		return nil
	}
	if s.sk == nil {
		return ErrNotSeekable
	}
	if _, err := s.sk.Seek(s.pos, io.SeekStart); err != nil {
		return err
	}
	s.innerPos = s.pos
	return nil
}

// seekInner moves the wrapped stream's physical cursor to target.
func (s *MarshalStream) seekInner(ctx context.Context, target int64) error {
	if s.innerPos == target {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.sk == nil {
		return ErrNotSeekable
	}
	if _, err := s.sk.Seek(target, io.SeekStart); err != nil {
		return err
	}
	s.innerPos = target
	return nil
}

// Seek implements io.Seeker. Seeking past the end of content is legal and
// simply moves the logical cursor; subsequent reads report EOF. On a wrapped
// stream, pending writes are flushed first, and the read cache is slid in
// place when the target falls inside the already-buffered window.
func (s *MarshalStream) Seek(offset int64, whence int) (int64, error) {
	return s.SeekContext(context.Background(), offset, whence)
}

// SeekContext is Seek with cancellation checked at each backing-store I/O
// boundary.
func (s *MarshalStream) SeekContext(ctx context.Context, offset int64, whence int) (int64, error) {
	if s.closed {
		return 0, ErrClosed
	}
	if !s.CanSeek() {
		return 0, ErrNotSeekable
	}

	var target int64
	switch whence {
	case io.SeekStart:
		target = offset
	case io.SeekCurrent:
		target = s.pos + offset
	case io.SeekEnd:
		length, err := s.Length()
		if err != nil {
			return 0, err
		}
		target = length + offset
	default:
		return 0, ErrInvalidWhence
	}
	if target < 0 {
		return 0, ErrInvalidSeek
	}

	if s.fixed != nil {
		s.pos = target
		return target, nil
	}

	if err := s.flushWrites(ctx); err != nil {
		return 0, err
	}

	// The buffer also holds bytes consumed just before the current position,
	// so short backward seeks stay in memory too.
	windowStart := s.pos - int64(s.readPos)
	windowEnd := s.pos + int64(s.readLen-s.readPos)
	if target >= windowStart && target <= windowEnd {
		s.readPos += int(target - s.pos)
		s.pos = target
		return target, nil
	}

	s.readPos, s.readLen = 0, 0
	if err := s.seekInner(ctx, target); err != nil {
		return 0, err
	}
	s.pos = target
	return target, nil
}

// SetLength truncates or extends the wrapped stream. The logical position is
// left untouched even when it exceeds the new length; reads past the end
// simply report EOF. The wrapped stream must implement Truncater.
func (s *MarshalStream) SetLength(length int64) error {
	return s.SetLengthContext(context.Background(), length)
}

// SetLengthContext is SetLength with cancellation checked at each
// backing-store I/O boundary.
func (s *MarshalStream) SetLengthContext(ctx context.Context, length int64) error {
	if s.closed {
		return ErrClosed
	}
	if s.fixed != nil {
		return ErrSetLengthUnsupported
	}
	t, ok := s.inner.(Truncater)
	if !ok {
		return ErrSetLengthUnsupported
	}
	if err := s.flushWrites(ctx); err != nil {
		return err
	}
	if err := s.dropReadCache(); err != nil {
		return err
	}
	return t.Truncate(length)
}

// CopyTo drains the remaining content of the stream into dst, returning the
// number of bytes copied. Read processors observe all copied bytes.
func (s *MarshalStream) CopyTo(dst io.Writer) (int64, error) {
	return s.CopyToContext(context.Background(), dst)
}

// CopyToContext is CopyTo with cancellation checked at each backing-store
// I/O boundary.
func (s *MarshalStream) CopyToContext(ctx context.Context, dst io.Writer) (int64, error) {
	if s.closed {
		return 0, ErrClosed
	}
	if dst == nil {
		return 0, ErrNilDestination
	}
	if !s.CanRead() {
		return 0, ErrNotReadable
	}
	if ms, ok := dst.(*MarshalStream); ok && !ms.CanWrite() {
		return 0, ErrNotWritable
	}

	bufPtr := chunkPool.Get().(*[]byte)
	defer chunkPool.Put(bufPtr)
	buf := *bufPtr

	var total int64
	for {
		n, rerr := s.read(ctx, buf)
		if n > 0 {
			w, werr := dst.Write(buf[:n])
			total += int64(w)
			if werr != nil {
				return total, werr
			}
			if w < n {
				return total, io.ErrShortWrite
			}
		}
		if rerr != nil {
			if rerr == io.EOF {
				return total, nil
			}
			return total, rerr
		}
	}
}
