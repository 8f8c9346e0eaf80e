/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: engine.go
Description: Carving engine. A single-pass streaming state machine that reads chunks
from a byte source, keeps a small rolling window, recognises start markers from the
signature catalog, tracks each open extraction until its end marker or end-of-stream,
and writes every matched byte range to its own artifact.
*/

package carving

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/kleascm/drivehound/pkg/interfaces"
	"github.com/kleascm/drivehound/pkg/signatures"
)

// Option configures an Engine
type Option func(*Engine)

// WithReporter sets the event reporter
func WithReporter(r Reporter) Option {
	return func(e *Engine) {
		if r != nil {
			e.reporter = r
		}
	}
}

// WithTieBreak sets the start marker tie-break policy
func WithTieBreak(tb TieBreak) Option {
	return func(e *Engine) {
		e.tieBreak = tb
	}
}

// WithContinueOnCreateError skips artifacts the sink cannot create instead of
// aborting the scan
func WithContinueOnCreateError(enabled bool) Option {
	return func(e *Engine) {
		e.continueOnCreate = enabled
	}
}

// Engine carves artifacts out of a byte source.
// One engine runs one scan at a time.
type Engine struct {
	catalog          *signatures.Catalog
	sink             interfaces.OutputSink
	reporter         Reporter
	tieBreak         TieBreak
	continueOnCreate bool

	running atomic.Bool
	stats   Stats
}

// NewEngine creates a carving engine over a built catalog
func NewEngine(catalog *signatures.Catalog, sink interfaces.OutputSink, opts ...Option) *Engine {
	e := &Engine{
		catalog:  catalog,
		sink:     sink,
		reporter: NopReporter{},
		tieBreak: TieBreakCatalogOrder,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// NewSingle creates an engine whose catalog is restricted to one signature key
func NewSingle(table []signatures.Signature, key string, sink interfaces.OutputSink, opts ...Option) (*Engine, error) {
	catalog, err := signatures.Build(table, key)
	if err != nil {
		return nil, err
	}
	return NewEngine(catalog, sink, opts...), nil
}

// Catalog returns the catalog the engine matches against
func (e *Engine) Catalog() *signatures.Catalog {
	return e.catalog
}

// Stats returns statistics of the most recent scan
func (e *Engine) Stats() Stats {
	return e.stats
}

// Scan reads src until end-of-stream and returns the number of artifacts per key.
// Every artifact is closed before Scan returns, on all paths. Cancelling ctx
// finalizes the open artifacts and returns the partial tally with ctx.Err().
func (e *Engine) Scan(ctx context.Context, src interfaces.ByteSource) (Tally, error) {
	if !e.running.CompareAndSwap(false, true) {
		return nil, ErrScanInProgress
	}
	defer e.running.Store(false)

	s := &scan{
		engine:     e,
		src:        src,
		tally:      make(Tally),
		activeKeys: make(map[string]bool),
	}
	e.stats = Stats{StartTime: time.Now()}
	defer func() {
		e.stats.Duration = time.Since(e.stats.StartTime)
	}()

	if e.catalog.Empty() {
		e.reporter.OnWarning(Warning{Message: "no signatures with a valid start signature; nothing to carve"})
		return s.tally, nil
	}

	err := s.run(ctx)
	return s.tally, err
}

// scan is the per-session state of Engine.Scan
type scan struct {
	engine     *Engine
	src        interfaces.ByteSource
	win        window
	active     []*extraction
	activeKeys map[string]bool
	tally      Tally
}

func (s *scan) run(ctx context.Context) error {
	retain := s.engine.catalog.MaxStartLength() - 1

	for {
		if err := ctx.Err(); err != nil {
			if ferr := s.finalize(); ferr != nil {
				return errors.Join(err, ferr)
			}
			return err
		}

		chunk, err := s.src.ReadChunk()
		if err != nil {
			return s.abort(fmt.Errorf("read at offset %d: %w", s.src.Position(), err))
		}
		if len(chunk) == 0 {
			break
		}
		s.engine.stats.BytesScanned += int64(len(chunk))
		s.engine.stats.Chunks++
		s.win.Append(chunk)

		if err := s.advanceActive(); err != nil {
			return s.abort(err)
		}
		if err := s.scanStarts(); err != nil {
			return s.abort(err)
		}
		if len(s.active) == 0 {
			s.win.KeepTail(retain)
		}
	}

	return s.finalize()
}

// advanceActive feeds the window to every open extraction in activation order
func (s *scan) advanceActive() error {
	if len(s.active) == 0 {
		return nil
	}
	for _, x := range s.active {
		if x.closed {
			continue
		}
		if s.win.Len() == 0 {
			break
		}
		done, err := x.advance(&s.win)
		if err != nil {
			return err
		}
		if done {
			if err := s.complete(x, true); err != nil {
				return err
			}
		}
	}
	s.prune()
	return nil
}

// scanStarts opens extractions for start markers found in the window. Each
// iteration must shrink the window, which bounds the loop.
func (s *scan) scanStarts() error {
	for s.win.Len() > 0 {
		before := s.win.Len()

		idx, at := s.match(s.win.Bytes())
		if idx < 0 {
			return nil
		}
		if err := s.open(idx, at); err != nil {
			return err
		}

		if s.win.Len() >= before {
			return nil
		}
	}
	return nil
}

// match finds the start marker to open next, honouring the tie-break policy.
// Signatures with an open extraction are skipped.
func (s *scan) match(data []byte) (int, int) {
	catalog := s.engine.catalog
	bestIdx, bestAt := -1, -1

	for i := 0; i < catalog.Len(); i++ {
		sig := catalog.At(i)
		if s.activeKeys[sig.Key] {
			continue
		}
		at := bytes.Index(data, sig.Start)
		if at < 0 {
			continue
		}
		if s.engine.tieBreak != TieBreakEarliestOffset {
			return i, at
		}
		if bestAt < 0 || at < bestAt {
			bestIdx, bestAt = i, at
		}
	}
	return bestIdx, bestAt
}

// open creates the artifact for a start marker at window index at, writes the
// marker and lets the new extraction claim the rest of the window.
func (s *scan) open(idx, at int) error {
	sig := s.engine.catalog.At(idx)
	offset := s.src.Position() - int64(s.win.Len()) + int64(at)
	name := fmt.Sprintf("%s_%d%s", sig.Key, s.tally[sig.Key], sig.Extension)

	handle, err := s.engine.sink.Create(name)
	if err != nil {
		if !s.engine.continueOnCreate {
			return fmt.Errorf("create %s: %w", name, err)
		}
		s.engine.reporter.OnWarning(Warning{
			Key:     sig.Key,
			Message: fmt.Sprintf("skipping %s at offset 0x%x", name, offset),
			Err:     err,
		})
		s.win.Consume(at + len(sig.Start))
		return nil
	}

	x := &extraction{
		key:    sig.Key,
		name:   name,
		end:    sig.End,
		offset: offset,
		handle: handle,
	}
	s.active = append(s.active, x)
	s.activeKeys[sig.Key] = true
	s.tally[sig.Key]++
	s.engine.stats.Artifacts++
	s.engine.reporter.OnFound(Found{Key: sig.Key, Name: name, Offset: offset})

	s.win.Consume(at)
	if err := x.write(s.win.Bytes()[:len(sig.Start)]); err != nil {
		return err
	}
	s.win.Consume(len(sig.Start))

	done, err := x.advance(&s.win)
	if err != nil {
		return err
	}
	if done {
		if err := s.complete(x, true); err != nil {
			return err
		}
		s.prune()
	}
	return nil
}

// complete closes a finished extraction and frees its key for new matches
func (s *scan) complete(x *extraction, terminated bool) error {
	err := x.close()
	delete(s.activeKeys, x.key)
	s.engine.reporter.OnCompleted(Completed{
		Key:        x.key,
		Name:       x.name,
		Offset:     x.offset,
		Size:       x.written,
		Terminated: terminated,
	})
	return err
}

func (s *scan) prune() {
	kept := s.active[:0]
	for _, x := range s.active {
		if !x.closed {
			kept = append(kept, x)
		}
	}
	for i := len(kept); i < len(s.active); i++ {
		s.active[i] = nil
	}
	s.active = kept
}

// finalize writes what is left to every open extraction and closes it.
// Reaching end-of-stream with an open extraction is the normal completion path
// for formats without an end marker.
func (s *scan) finalize() error {
	var errs []error
	for _, x := range s.active {
		if x.closed {
			continue
		}
		if err := x.flushPending(); err != nil {
			errs = append(errs, err)
		}
		// The first open extraction claims the remaining window
		if s.win.Len() > 0 {
			if err := x.write(s.win.Bytes()); err != nil {
				errs = append(errs, err)
			}
			s.win.Reset()
		}
		if err := s.complete(x, false); err != nil {
			errs = append(errs, err)
		}
	}
	s.prune()
	return errors.Join(errs...)
}

// abort closes every open artifact without writing more data
func (s *scan) abort(cause error) error {
	errs := []error{cause}
	for _, x := range s.active {
		if err := x.close(); err != nil {
			errs = append(errs, err)
		}
		delete(s.activeKeys, x.key)
	}
	s.active = nil
	return errors.Join(errs...)
}
