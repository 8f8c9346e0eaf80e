/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: extraction.go
Description: Active extractions. Each extraction owns one open artifact and feeds it
window bytes until its end marker is found or the stream ends. An extraction with
an end marker holds back the last len(end)-1 bytes it has seen so that a marker
split across two chunks is still detected.
*/

package carving

import (
	"bytes"
	"fmt"

	"github.com/kleascm/drivehound/pkg/interfaces"
)

// extraction is one in-flight carve
type extraction struct {
	key     string
	name    string
	end     []byte
	offset  int64
	handle  interfaces.Artifact
	pending []byte // Written-pending tail kept for split end markers
	written int64
	closed  bool
}

func (x *extraction) write(p []byte) error {
	if len(p) == 0 {
		return nil
	}
	n, err := x.handle.Write(p)
	x.written += int64(n)
	if err != nil {
		return fmt.Errorf("write %s: %w", x.name, err)
	}
	return nil
}

// advance feeds the window to the extraction. It reports true when the end
// marker was found; the bytes through the marker are then consumed and the
// rest of the window is left for other extractions and the start scan. When
// the marker is not found the whole window is claimed.
func (x *extraction) advance(w *window) (bool, error) {
	data := w.Bytes()

	if len(x.end) == 0 {
		if err := x.write(data); err != nil {
			return false, err
		}
		w.Reset()
		return false, nil
	}

	// A marker starting in the held-back tail
	if len(x.pending) > 0 {
		head := data[:min(len(x.end)-1, len(data))]
		boundary := make([]byte, 0, len(x.pending)+len(head))
		boundary = append(boundary, x.pending...)
		boundary = append(boundary, head...)
		if i := bytes.Index(boundary, x.end); i >= 0 {
			cut := i + len(x.end) - len(x.pending)
			if err := x.flushPending(); err != nil {
				return false, err
			}
			if err := x.write(data[:cut]); err != nil {
				return false, err
			}
			w.Consume(cut)
			return true, nil
		}
	}

	if i := bytes.Index(data, x.end); i >= 0 {
		cut := i + len(x.end)
		if err := x.flushPending(); err != nil {
			return false, err
		}
		if err := x.write(data[:cut]); err != nil {
			return false, err
		}
		w.Consume(cut)
		return true, nil
	}

	if err := x.hold(data); err != nil {
		return false, err
	}
	w.Reset()
	return false, nil
}

// hold writes everything except the last len(end)-1 bytes of pending+data and
// keeps those as the new pending tail.
func (x *extraction) hold(data []byte) error {
	keep := min(len(x.end)-1, len(x.pending)+len(data))

	if len(data) >= keep {
		if err := x.flushPending(); err != nil {
			return err
		}
		if err := x.write(data[:len(data)-keep]); err != nil {
			return err
		}
		x.pending = append(x.pending[:0], data[len(data)-keep:]...)
		return nil
	}

	drop := len(x.pending) + len(data) - keep
	if err := x.write(x.pending[:drop]); err != nil {
		return err
	}
	tail := make([]byte, 0, keep)
	tail = append(tail, x.pending[drop:]...)
	tail = append(tail, data...)
	x.pending = tail
	return nil
}

func (x *extraction) flushPending() error {
	if len(x.pending) == 0 {
		return nil
	}
	err := x.write(x.pending)
	x.pending = x.pending[:0]
	return err
}

// close releases the artifact. Safe to call more than once.
func (x *extraction) close() error {
	if x.closed {
		return nil
	}
	x.closed = true
	if err := x.handle.Close(); err != nil {
		return fmt.Errorf("close %s: %w", x.name, err)
	}
	return nil
}
