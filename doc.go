// Package marshal is a binary marshalling toolkit: fixed-width endian
// primitives, a fixed-layout record codec, and MarshalStream, a buffered
// dual-mode stream for sequential and random-access binary I/O.
//
// MarshalStream wraps either a fixed in-memory buffer or an arbitrary byte
// stream behind one Read/Write/Seek/Flush contract, maintains internal
// read-ahead and write-behind caches, and layers pattern scanning, literal
// matching, incremental string transcoding, and byte-observer processors
// (e.g. running checksums) on top of that cache.
//
// The package is not safe for concurrent use; a stream is driven by one
// logical caller at a time. Context-accepting variants of each blocking
// operation check cancellation at every backing-store I/O boundary.
package marshal
