/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: interfaces.go
Description: Shared interfaces for drivehound. Defines the byte source and output sink
contracts used by the carving engine so that drive readers, stream readers and
artifact writers can live in their own packages without import cycles.
*/

package interfaces

import (
	"io"
)

// ByteSource is a sequential chunked reader over a drive, file or stream.
// ReadChunk returns at most one chunk per call and an empty slice exactly at
// and after end-of-stream.
type ByteSource interface {
	// ReadChunk returns the next chunk, or an empty slice at end-of-stream
	ReadChunk() ([]byte, error)

	// Seek moves the read position to an absolute offset
	Seek(offset int64) error

	// Position returns the number of bytes consumed so far
	Position() int64

	// Close releases the underlying handle
	Close() error
}

// Artifact is an open output being filled by one extraction.
// Close must be safe to call more than once.
type Artifact interface {
	io.Writer

	// Name returns the generated artifact name ("{key}_{n}{ext}")
	Name() string

	// Close flushes and releases the artifact
	Close() error
}

// OutputSink creates artifacts for carved byte ranges
type OutputSink interface {
	// Create opens a new artifact with the given generated name
	Create(name string) (Artifact, error)
}
