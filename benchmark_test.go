package marshal

import (
	"io"
	"testing"
)

type benchPayload struct {
	ID      uint32
	Val1    uint64
	Val2    uint64
	IsAlive bool
	Padding [3]byte
}

type benchRecord = Record[benchPayload]

func BenchmarkRecordMarshalTo(b *testing.B) {
	rec := &benchRecord{Payload: benchPayload{ID: 1, Val1: 100}}
	buf := make([]byte, rec.Size())
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := rec.MarshalTo(buf); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkFixedBufferRead(b *testing.B) {
	content := make([]byte, 64*1024)
	buf := make([]byte, 512)
	b.SetBytes(int64(len(content)))
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ms := NewFixedBuffer(content)
		for {
			if _, err := ms.Read(buf); err == io.EOF {
				break
			}
		}
	}
}

func BenchmarkScanFixedBuffer(b *testing.B) {
	content := make([]byte, 64*1024)
	content[len(content)-1] = 0xFF
	fn := func(w []byte) int {
		for i, v := range w {
			if v == 0xFF {
				if i == 0 {
					return 0
				}
				return i
			}
		}
		return len(w)
	}
	b.SetBytes(int64(len(content)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ms := NewFixedBuffer(content)
		if _, err := ms.Scan(1, -1, fn); err != nil {
			b.Fatal(err)
		}
	}
}
