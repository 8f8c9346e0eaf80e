/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: drive.go
Description: Drive reader for drivehound. Opens disk images, POSIX raw devices and
Windows partitions or physical drives, and serves them as fixed-size chunks with
position tracking for offset reporting.
*/

package source

import (
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"unicode"
)

const (
	// DefaultChunkSize is the number of bytes requested per read
	DefaultChunkSize = 512 * 1024
	// DefaultSectorSize is the sector size assumed for raw devices
	DefaultSectorSize = 512
)

// Options configures a DriveReader
type Options struct {
	ChunkSize  int
	SectorSize int
}

func (o Options) withDefaults() Options {
	if o.SectorSize <= 0 {
		o.SectorSize = DefaultSectorSize
	}
	if o.ChunkSize <= 0 {
		o.ChunkSize = DefaultChunkSize
	}
	// Raw devices reject reads that are not sector aligned
	if rem := o.ChunkSize % o.SectorSize; rem != 0 {
		o.ChunkSize += o.SectorSize - rem
	}
	return o
}

// DriveReader reads a drive, partition or image sequentially in chunks
type DriveReader struct {
	path     string
	file     *os.File
	opts     Options
	buf      []byte
	position int64
	eof      bool
}

// Open resolves a drive identifier and opens it for reading
func Open(drive string, opts Options) (*DriveReader, error) {
	path := ResolvePath(drive)
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open drive %s: %w", drive, err)
	}

	opts = opts.withDefaults()
	return &DriveReader{
		path: path,
		file: file,
		opts: opts,
		buf:  make([]byte, opts.ChunkSize),
	}, nil
}

// ResolvePath maps a drive identifier to an openable path. Existing paths are
// returned unchanged; on Windows a drive letter ("C" or "C:") becomes a raw
// partition path and "PhysicalDriveN" a raw physical drive path.
func ResolvePath(drive string) string {
	if _, err := os.Stat(drive); err == nil {
		return drive
	}
	if runtime.GOOS != "windows" {
		return drive
	}
	return windowsRawPath(drive)
}

func windowsRawPath(drive string) string {
	if strings.HasPrefix(drive, `\\.\`) {
		return drive
	}
	if strings.HasPrefix(strings.ToLower(drive), "physicaldrive") {
		return `\\.\` + drive
	}
	letter := strings.TrimRight(drive, ":")
	if len(letter) == 1 && unicode.IsLetter(rune(letter[0])) {
		return `\\.\` + strings.ToUpper(letter) + ":"
	}
	return drive
}

// Path returns the resolved path being read
func (r *DriveReader) Path() string {
	return r.path
}

// ChunkSize returns the effective, sector aligned chunk size
func (r *DriveReader) ChunkSize() int {
	return r.opts.ChunkSize
}

// ReadChunk returns up to ChunkSize bytes, or an empty slice at end-of-stream.
// The returned slice is reused by the next call.
func (r *DriveReader) ReadChunk() ([]byte, error) {
	if r.eof {
		return nil, nil
	}
	n, err := io.ReadFull(r.file, r.buf)
	r.position += int64(n)
	switch {
	case err == nil:
		return r.buf[:n], nil
	case errors.Is(err, io.ErrUnexpectedEOF), errors.Is(err, io.EOF):
		r.eof = true
		return r.buf[:n], nil
	default:
		return nil, fmt.Errorf("failed to read %s: %w", r.path, err)
	}
}

// Seek moves to an absolute offset
func (r *DriveReader) Seek(offset int64) error {
	if _, err := r.file.Seek(offset, io.SeekStart); err != nil {
		return fmt.Errorf("failed to seek %s to %d: %w", r.path, offset, err)
	}
	r.position = offset
	r.eof = false
	return nil
}

// Position returns the absolute offset of the next byte to be read
func (r *DriveReader) Position() int64 {
	return r.position
}

// Size returns the size of the source in bytes. Block devices report a zero
// size through stat, so their size is queried from the device itself.
func (r *DriveReader) Size() (int64, error) {
	info, err := r.file.Stat()
	if err != nil {
		return 0, fmt.Errorf("failed to stat %s: %w", r.path, err)
	}
	if info.Mode()&os.ModeDevice != 0 {
		return deviceSize(r.file)
	}
	return info.Size(), nil
}

// Close releases the file handle
func (r *DriveReader) Close() error {
	return r.file.Close()
}
