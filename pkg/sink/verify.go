/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: verify.go
Description: Re-reads stored artifacts and checks them against their records.
Compressed artifacts are decoded on the fly so size and digest are compared on the
carved bytes.
*/

package sink

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrMismatch is returned when a stored artifact no longer matches its record
var ErrMismatch = errors.New("artifact does not match its record")

// Verify reads the artifact at path and compares it with rec. An empty path
// means rec.Path.
func Verify(rec Record, path string) error {
	if path == "" {
		path = rec.Path
	}

	compression, err := ParseCompression(rec.Compression)
	if err != nil {
		return err
	}
	hasher, err := newHasher(rec.DigestType)
	if err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return &IOError{Op: "open", Path: path, Err: err}
	}
	defer f.Close()

	r, done, err := compression.NewReader(f)
	if err != nil {
		return &IOError{Op: "read", Path: path, Err: err}
	}
	defer done()

	var w io.Writer = io.Discard
	if hasher != nil {
		w = hasher
	}
	size, err := io.Copy(w, r)
	if err != nil {
		return &IOError{Op: "read", Path: path, Err: err}
	}

	if size != rec.Size {
		return fmt.Errorf("%w: %s is %d bytes, recorded %d", ErrMismatch, rec.Name, size, rec.Size)
	}
	if hasher != nil {
		if digest := hex.EncodeToString(hasher.Sum(nil)); digest != rec.Digest {
			return fmt.Errorf("%w: %s %s digest %s, recorded %s", ErrMismatch, rec.Name, rec.DigestType, digest, rec.Digest)
		}
	}
	return nil
}
