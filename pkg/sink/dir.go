/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: dir.go
Description: Directory output sink. Writes each carved artifact to its own file under
an output directory that is created on first use, optionally compressing the stream
and computing a digest of the uncompressed bytes as they are written.
*/

package sink

import (
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/kleascm/drivehound/pkg/interfaces"
)

// IOError reports an artifact that could not be created, written or closed
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// Options configures a directory sink
type Options struct {
	Digest      string      // none, xxhash or blake3
	Compression string      // none, zstd or lz4
	FileMode    os.FileMode // Mode of created artifacts
}

// Record describes a closed artifact
type Record struct {
	Name        string `json:"name"`
	Path        string `json:"path"`
	Size        int64  `json:"size"`
	Digest      string `json:"digest,omitempty"`
	DigestType  string `json:"digest_type,omitempty"`
	Compression string `json:"compression,omitempty"`
}

// Dir writes artifacts into a directory
type Dir struct {
	dir         string
	opts        Options
	compression Compression

	mu      sync.Mutex
	ready   bool
	records []Record
}

// NewDir creates a directory sink. The directory itself is created lazily,
// with parents, before the first artifact.
func NewDir(dir string, opts Options) (*Dir, error) {
	if opts.FileMode == 0 {
		opts.FileMode = 0644
	}
	if _, err := newHasher(opts.Digest); err != nil {
		return nil, err
	}
	compression, err := ParseCompression(opts.Compression)
	if err != nil {
		return nil, err
	}
	return &Dir{dir: dir, opts: opts, compression: compression}, nil
}

// Path returns the output directory
func (d *Dir) Path() string {
	return d.dir
}

// Create opens a new artifact file
func (d *Dir) Create(name string) (interfaces.Artifact, error) {
	if err := d.ensureDir(); err != nil {
		return nil, err
	}

	path := filepath.Join(d.dir, name+d.compression.Ext())
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, d.opts.FileMode)
	if err != nil {
		return nil, &IOError{Op: "create", Path: path, Err: err}
	}

	enc, err := d.compression.wrap(file)
	if err != nil {
		file.Close()
		return nil, &IOError{Op: "create", Path: path, Err: err}
	}
	hasher, _ := newHasher(d.opts.Digest)

	return &fileArtifact{
		sink:   d,
		name:   name,
		path:   path,
		file:   file,
		enc:    enc,
		hasher: hasher,
	}, nil
}

// Artifacts lists closed artifacts in the order they were closed
func (d *Dir) Artifacts() []Record {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Record, len(d.records))
	copy(out, d.records)
	return out
}

func (d *Dir) ensureDir() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.ready {
		return nil
	}
	if err := os.MkdirAll(d.dir, 0755); err != nil {
		return &IOError{Op: "mkdir", Path: d.dir, Err: err}
	}
	d.ready = true
	return nil
}

func (d *Dir) add(r Record) {
	d.mu.Lock()
	d.records = append(d.records, r)
	d.mu.Unlock()
}

// fileArtifact is one open output file
type fileArtifact struct {
	sink   *Dir
	name   string
	path   string
	file   *os.File
	enc    io.WriteCloser // Compressor, nil when writing plain bytes
	hasher hash.Hash      // nil when digests are disabled
	size   int64
	closed bool
}

func (a *fileArtifact) Name() string {
	return a.name
}

func (a *fileArtifact) Write(p []byte) (int, error) {
	if a.closed {
		return 0, &IOError{Op: "write", Path: a.path, Err: os.ErrClosed}
	}
	var w io.Writer = a.file
	if a.enc != nil {
		w = a.enc
	}
	n, err := w.Write(p)
	if a.hasher != nil {
		a.hasher.Write(p[:n])
	}
	a.size += int64(n)
	if err != nil {
		return n, &IOError{Op: "write", Path: a.path, Err: err}
	}
	return n, nil
}

func (a *fileArtifact) Close() error {
	if a.closed {
		return nil
	}
	a.closed = true

	var firstErr error
	if a.enc != nil {
		if err := a.enc.Close(); err != nil {
			firstErr = &IOError{Op: "close", Path: a.path, Err: err}
		}
	}
	if err := a.file.Close(); err != nil && firstErr == nil {
		firstErr = &IOError{Op: "close", Path: a.path, Err: err}
	}

	record := Record{
		Name: a.name,
		Path: a.path,
		Size: a.size,
	}
	if a.hasher != nil {
		record.Digest = hex.EncodeToString(a.hasher.Sum(nil))
		record.DigestType = a.sink.opts.Digest
	}
	if a.sink.compression != CompressionNone {
		record.Compression = a.sink.compression.String()
	}
	a.sink.add(record)

	return firstErr
}
