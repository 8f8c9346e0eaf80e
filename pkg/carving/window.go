/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: window.go
Description: Rolling buffer for the carving engine. An append-only byte arena with a
logical read cursor; consumed bytes are reclaimed by compaction on the next append
instead of reslicing and copying on every trim.
*/

package carving

// window holds the unconsumed, not yet classified tail of the stream.
// buf[off:] is the live region.
type window struct {
	buf []byte
	off int
}

// Bytes returns the live region. The slice is only valid until the next Append.
func (w *window) Bytes() []byte {
	return w.buf[w.off:]
}

// Len returns the number of live bytes
func (w *window) Len() int {
	return len(w.buf) - w.off
}

// Append adds a chunk, compacting first when at least half the arena is dead
func (w *window) Append(p []byte) {
	if w.off > 0 && w.off >= len(w.buf)/2 {
		w.compact()
	}
	w.buf = append(w.buf, p...)
}

// Consume drops n bytes from the front of the live region
func (w *window) Consume(n int) {
	if n <= 0 {
		return
	}
	if n >= w.Len() {
		w.Reset()
		return
	}
	w.off += n
}

// KeepTail retains at most the last n live bytes
func (w *window) KeepTail(n int) {
	if n <= 0 {
		w.Reset()
		return
	}
	if w.Len() > n {
		w.off = len(w.buf) - n
	}
}

// Reset empties the window while keeping the arena for reuse
func (w *window) Reset() {
	w.buf = w.buf[:0]
	w.off = 0
}

func (w *window) compact() {
	n := copy(w.buf, w.buf[w.off:])
	w.buf = w.buf[:n]
	w.off = 0
}
