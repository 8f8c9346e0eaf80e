/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: window_test.go
Description: Tests for the rolling window and the retained buffer bound between chunks.
*/

package carving

import (
	"bytes"
	"context"
	"testing"

	"github.com/kleascm/drivehound/pkg/signatures"
	"github.com/kleascm/drivehound/pkg/sink"
	"github.com/kleascm/drivehound/pkg/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestWindowOperations tests append, consume, tail retention and compaction
func TestWindowOperations(t *testing.T) {
	var w window

	w.Append([]byte("abcdef"))
	assert.Equal(t, "abcdef", string(w.Bytes()))

	w.Consume(4)
	assert.Equal(t, "ef", string(w.Bytes()))
	assert.Equal(t, 2, w.Len())

	// Dead prefix is reclaimed on the next append
	w.Append([]byte("gh"))
	assert.Equal(t, "efgh", string(w.Bytes()))
	assert.Equal(t, 0, w.off)

	w.KeepTail(3)
	assert.Equal(t, "fgh", string(w.Bytes()))

	w.KeepTail(10)
	assert.Equal(t, "fgh", string(w.Bytes()))

	w.Consume(10)
	assert.Equal(t, 0, w.Len())

	w.Append([]byte("xyz"))
	w.KeepTail(0)
	assert.Equal(t, 0, w.Len())
}

// sampleSource records the window length before each read
type sampleSource struct {
	*source.Chunks
	sample func()
}

func (p *sampleSource) ReadChunk() ([]byte, error) {
	p.sample()
	return p.Chunks.ReadChunk()
}

// TestBufferBound tests that idle windows never exceed max_start_length-1 bytes
func TestBufferBound(t *testing.T) {
	catalog := signatures.MustBuild(signatures.Defaults())
	engine := NewEngine(catalog, sink.NewMemory())

	noise := bytes.Repeat([]byte("no markers in this noise "), 40)
	var chunks [][]byte
	for len(noise) > 0 {
		n := min(37, len(noise))
		chunks = append(chunks, noise[:n])
		noise = noise[n:]
	}

	s := &scan{engine: engine, tally: make(Tally), activeKeys: make(map[string]bool)}
	var lengths []int
	s.src = &sampleSource{
		Chunks: source.NewChunks(chunks...),
		sample: func() { lengths = append(lengths, s.win.Len()) },
	}

	require.NoError(t, s.run(context.Background()))
	require.NotEmpty(t, lengths)
	for _, n := range lengths {
		assert.LessOrEqual(t, n, catalog.MaxStartLength()-1)
	}
	assert.Empty(t, s.tally)
}

// TestSingleByteStartRetainsNothing tests the one byte marker edge case
func TestSingleByteStartRetainsNothing(t *testing.T) {
	table := []signatures.Signature{{Key: "z", Start: []byte("Z"), End: []byte("!"), Extension: ".z"}}
	engine := NewEngine(signatures.MustBuild(table), sink.NewMemory())

	s := &scan{engine: engine, tally: make(Tally), activeKeys: make(map[string]bool)}
	var lengths []int
	s.src = &sampleSource{
		Chunks: source.NewChunks([]byte("abc"), []byte("def"), []byte("Zx!")),
		sample: func() { lengths = append(lengths, s.win.Len()) },
	}

	require.NoError(t, s.run(context.Background()))
	assert.Equal(t, []int{0, 0, 0, 0}, lengths)
	assert.Equal(t, Tally{"z": 1}, s.tally)
}
