/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: stream.go
Description: Chunked sources over arbitrary readers and scripted chunk sequences.
*/

package source

import (
	"errors"
	"fmt"
	"io"
)

// ErrNotSeekable is returned by Seek on sources that cannot reposition
var ErrNotSeekable = errors.New("source is not seekable")

// StreamReader serves any io.Reader as a ByteSource
type StreamReader struct {
	r        io.Reader
	buf      []byte
	position int64
	eof      bool
}

// NewReader wraps r, reading chunkSize bytes per chunk
func NewReader(r io.Reader, chunkSize int) *StreamReader {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &StreamReader{r: r, buf: make([]byte, chunkSize)}
}

// ReadChunk returns the next chunk or an empty slice at end-of-stream
func (s *StreamReader) ReadChunk() ([]byte, error) {
	if s.eof {
		return nil, nil
	}
	n, err := io.ReadFull(s.r, s.buf)
	s.position += int64(n)
	switch {
	case err == nil:
		return s.buf[:n], nil
	case errors.Is(err, io.ErrUnexpectedEOF), errors.Is(err, io.EOF):
		s.eof = true
		return s.buf[:n], nil
	default:
		return nil, err
	}
}

// Seek repositions the stream when the underlying reader is an io.Seeker
func (s *StreamReader) Seek(offset int64) error {
	seeker, ok := s.r.(io.Seeker)
	if !ok {
		return ErrNotSeekable
	}
	if _, err := seeker.Seek(offset, io.SeekStart); err != nil {
		return fmt.Errorf("failed to seek to %d: %w", offset, err)
	}
	s.position = offset
	s.eof = false
	return nil
}

// Position returns the number of bytes consumed so far
func (s *StreamReader) Position() int64 {
	return s.position
}

// Close closes the underlying reader when it is an io.Closer
func (s *StreamReader) Close() error {
	if c, ok := s.r.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Chunks replays a fixed sequence of chunks, one per ReadChunk call.
// An empty chunk in the sequence ends the stream early.
type Chunks struct {
	chunks   [][]byte
	next     int
	position int64
	err      error
	errAt    int
}

// NewChunks creates a scripted source
func NewChunks(chunks ...[]byte) *Chunks {
	return &Chunks{chunks: chunks, errAt: -1}
}

// FailAt makes the n-th ReadChunk call (zero based) return err
func (c *Chunks) FailAt(n int, err error) *Chunks {
	c.errAt = n
	c.err = err
	return c
}

// ReadChunk returns the next scripted chunk
func (c *Chunks) ReadChunk() ([]byte, error) {
	if c.next == c.errAt {
		c.next++
		return nil, c.err
	}
	if c.next >= len(c.chunks) {
		return nil, nil
	}
	chunk := c.chunks[c.next]
	c.next++
	c.position += int64(len(chunk))
	return chunk, nil
}

// Seek is unsupported on scripted sources
func (c *Chunks) Seek(offset int64) error {
	return ErrNotSeekable
}

// Position returns the number of bytes served so far
func (c *Chunks) Position() int64 {
	return c.position
}

// Close does nothing
func (c *Chunks) Close() error {
	return nil
}
