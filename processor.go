package marshal

import "hash/crc32"

// StreamProcessor observes bytes crossing a read or write boundary of a
// MarshalStream. Implementations must not mutate the bytes or touch the
// stream from inside Observe.
type StreamProcessor interface {
	Observe(p []byte)
}

// ProcessorHandle is the scoped registration of a processor. Closing the
// handle detaches the processor and restores the capabilities it revoked;
// close it with defer so restoration happens on every exit path.
type ProcessorHandle struct {
	s     *MarshalStream
	proc  StreamProcessor
	write bool
	done  bool
}

// Close detaches the processor. It is idempotent.
func (h *ProcessorHandle) Close() error {
	if h.done {
		return nil
	}
	h.done = true
	procs := &h.s.readProcs
	if h.write {
		procs = &h.s.writeProcs
	}
	for i, q := range *procs {
		if q == h.proc {
			*procs = append((*procs)[:i], (*procs)[i+1:]...)
			break
		}
	}
	return nil
}

// AddReadProcessor attaches a processor to the read path. Every byte handed
// to a reading caller is observed, in stream order, whether it came from a
// plain Read, a Scan, a Match, or a string decode. While any read processor
// is attached the stream is read-only and non-seekable. The same processor
// instance cannot be attached twice in the same direction.
func (s *MarshalStream) AddReadProcessor(p StreamProcessor) (*ProcessorHandle, error) {
	if s.closed {
		return nil, ErrClosed
	}
	if p == nil {
		return nil, ErrNilProcessor
	}
	if s.fixed == nil && s.rd == nil {
		return nil, ErrNotReadable
	}
	for _, q := range s.readProcs {
		if q == p {
			return nil, ErrProcessorDuplicate
		}
	}
	s.readProcs = append(s.readProcs, p)
	return &ProcessorHandle{s: s, proc: p}, nil
}

// AddWriteProcessor attaches a processor to the write path. Bytes are
// observed as they are accepted by Write, not at flush time. While any write
// processor is attached the stream is write-only and non-seekable. Fixed-
// buffer streams have no write path and reject write processors outright.
func (s *MarshalStream) AddWriteProcessor(p StreamProcessor) (*ProcessorHandle, error) {
	if s.closed {
		return nil, ErrClosed
	}
	if p == nil {
		return nil, ErrNilProcessor
	}
	if s.fixed != nil {
		return nil, ErrWriteProcessorOnFixedBuffer
	}
	if s.wr == nil {
		return nil, ErrNotWritable
	}
	for _, q := range s.writeProcs {
		if q == p {
			return nil, ErrProcessorDuplicate
		}
	}
	s.writeProcs = append(s.writeProcs, p)
	return &ProcessorHandle{s: s, proc: p, write: true}, nil
}

func (s *MarshalStream) observeRead(p []byte) {
	for _, proc := range s.readProcs {
		proc.Observe(p)
	}
}

func (s *MarshalStream) observeWrite(p []byte) {
	for _, proc := range s.writeProcs {
		proc.Observe(p)
	}
}

// CRC32Processor accumulates a CRC-32 over every observed byte. It is the
// canonical example of a StreamProcessor: attach it to a read or write path
// to checksum data as it flows through without extra passes.
type CRC32Processor struct {
	table *crc32.Table
	crc   uint32
}

// NewCRC32Processor creates a processor using the IEEE polynomial.
func NewCRC32Processor() *CRC32Processor {
	return &CRC32Processor{table: crc32.IEEETable}
}

// NewCRC32ProcessorTable creates a processor using a custom table.
func NewCRC32ProcessorTable(table *crc32.Table) *CRC32Processor {
	return &CRC32Processor{table: table}
}

// Observe implements StreamProcessor.
func (p *CRC32Processor) Observe(b []byte) {
	p.crc = crc32.Update(p.crc, p.table, b)
}

// Reset restarts the accumulator from the given seed.
func (p *CRC32Processor) Reset(seed uint32) { p.crc = seed }

// Sum32 returns the current checksum value.
func (p *CRC32Processor) Sum32() uint32 { return p.crc }
