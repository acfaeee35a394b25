package marshal

import "io"

// CappedReader caps the number of bytes readable from an inner stream. It
// buffers nothing and cannot seek or write; the cap simply turns into EOF
// once the remaining budget hits zero.
type CappedReader struct {
	r         io.Reader
	remaining int64
	total     int64
}

// NewCappedReader wraps r so that at most maxReadableBytes can be read.
func NewCappedReader(r io.Reader, maxReadableBytes int64) *CappedReader {
	if maxReadableBytes < 0 {
		maxReadableBytes = 0
	}
	return &CappedReader{r: r, remaining: maxReadableBytes}
}

// TotalBytesRead returns how many bytes have been read through the cap.
func (c *CappedReader) TotalBytesRead() int64 { return c.total }

// Read implements io.Reader.
func (c *CappedReader) Read(p []byte) (int, error) {
	if c.remaining <= 0 {
		return 0, io.EOF
	}
	if int64(len(p)) > c.remaining {
		p = p[:c.remaining]
	}
	n, err := c.r.Read(p)
	c.remaining -= int64(n)
	c.total += int64(n)
	return n, err
}

// Close closes the inner stream if it implements io.Closer.
func (c *CappedReader) Close() error {
	if closer, ok := c.r.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// WriteTo implements io.WriterTo so io.Copy avoids an intermediate buffer
// when the destination supports io.ReaderFrom.
func (c *CappedReader) WriteTo(w io.Writer) (n int64, err error) {
	if rf, ok := w.(io.ReaderFrom); ok {
		lr := &io.LimitedReader{R: c.r, N: c.remaining}
		n, err = rf.ReadFrom(lr)
		c.remaining -= n
		c.total += n
		return n, err
	}

	bufPtr := chunkPool.Get().(*[]byte)
	defer chunkPool.Put(bufPtr)
	buf := *bufPtr

	for c.remaining > 0 {
		read, rerr := c.Read(buf)
		if read > 0 {
			written, werr := w.Write(buf[:read])
			n += int64(written)
			if werr != nil {
				return n, werr
			}
			if written < read {
				return n, io.ErrShortWrite
			}
		}
		if rerr != nil {
			if rerr == io.EOF {
				return n, nil
			}
			return n, rerr
		}
	}
	return n, nil
}
