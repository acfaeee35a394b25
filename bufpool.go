package marshal

import "sync"

// DefaultBufferCapacity is the read/write cache capacity used when a
// wrapped-stream MarshalStream is constructed without an explicit size.
const DefaultBufferCapacity = 4096

// MinBufferCapacity is the smallest cache a wrapped-stream MarshalStream
// will accept. Anything smaller defeats the point of buffering.
const MinBufferCapacity = 16

const chunkSize = 32 * 1024

// chunkPool holds scratch buffers for CopyTo and string transcoding.
// 32KB matches the chunk size used by io.Copy and keeps GC pressure low
// when many streams transcode concurrently.
var chunkPool = sync.Pool{
	New: func() interface{} {
		b := make([]byte, chunkSize)
		return &b
	},
}
