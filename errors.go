package marshal

import "errors"

var (
	// ErrClosed indicates an operation was attempted on a closed MarshalStream.
	ErrClosed = errors.New("marshal: stream is closed")

	// ErrNilStream indicates a constructor was called with a nil backing store.
	ErrNilStream = errors.New("marshal: nil backing store")

	// ErrNotReadable indicates a read was attempted on a stream that cannot
	// currently be read, either natively or because a write processor is attached.
	ErrNotReadable = errors.New("marshal: stream is not readable")

	// ErrNotWritable indicates a write was attempted on a stream that cannot
	// currently be written, either natively or because a read processor is attached.
	ErrNotWritable = errors.New("marshal: stream is not writable")

	// ErrNotSeekable indicates a seek was attempted on a stream that cannot
	// currently seek, either natively or because a processor is attached.
	ErrNotSeekable = errors.New("marshal: stream is not seekable")

	// ErrSetLengthUnsupported indicates the wrapped stream does not support
	// truncation, or the stream is in fixed-buffer mode.
	ErrSetLengthUnsupported = errors.New("marshal: backing store does not support SetLength")

	// ErrInvalidWhence indicates an invalid 'whence' parameter was provided to Seek.
	ErrInvalidWhence = errors.New("marshal: invalid seek whence")

	// ErrInvalidSeek indicates a seek was attempted to a negative position.
	ErrInvalidSeek = errors.New("marshal: seek to a negative position")

	// ErrBufferTooSmall indicates a buffer capacity below the supported minimum.
	ErrBufferTooSmall = errors.New("marshal: buffer capacity is too small")

	// ErrExceedsBufferCapacity indicates a request for more contiguous buffered
	// bytes than the stream's buffering can ever make visible at once.
	ErrExceedsBufferCapacity = errors.New("marshal: requested window exceeds buffer capacity")

	// ErrScanConsumedOutOfRange indicates a scan function reported consuming a
	// negative byte count or more bytes than its window contained.
	ErrScanConsumedOutOfRange = errors.New("marshal: scan function consumed out-of-range byte count")

	// ErrNilProcessor indicates a nil processor was passed to Add*Processor.
	ErrNilProcessor = errors.New("marshal: nil processor")

	// ErrProcessorDuplicate indicates the same processor instance was registered
	// twice in the same direction.
	ErrProcessorDuplicate = errors.New("marshal: processor is already attached in this direction")

	// ErrWriteProcessorOnFixedBuffer indicates a write processor was attached to
	// a fixed-buffer stream, which has no write path to observe.
	ErrWriteProcessorOnFixedBuffer = errors.New("marshal: write processor not supported on a fixed-buffer stream")

	// ErrNilDestination indicates a copy was attempted to a nil destination.
	ErrNilDestination = errors.New("marshal: nil destination")

	// ErrInvalidRead indicates the wrapped stream returned an invalid count from Read.
	ErrInvalidRead = errors.New("marshal: backing store returned invalid count from Read")

	// ErrInvalidWrite indicates the wrapped stream returned an invalid count from Write.
	ErrInvalidWrite = errors.New("marshal: backing store returned invalid count from Write")

	// ErrTrailingData is returned when non-zero bytes are found after the
	// expected end of a decoded record, indicating truncated or malformed data.
	ErrTrailingData = errors.New("marshal: non-zero trailing data found after decoding")

	// ErrTruncatedData indicates a decode could not complete because the data
	// source ended before all expected bytes were read.
	ErrTruncatedData = errors.New("marshal: truncated data")
)
