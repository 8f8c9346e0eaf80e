/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: engine_test.go
Description: Behavioural tests for the carving engine. Feeds scripted chunk sequences
through the engine into an in-memory sink and checks artifact bytes, names, tallies,
event order and handle cleanup on cancellation and I/O failures.
*/

package carving_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/kleascm/drivehound/pkg/carving"
	"github.com/kleascm/drivehound/pkg/interfaces"
	"github.com/kleascm/drivehound/pkg/signatures"
	"github.com/kleascm/drivehound/pkg/sink"
	"github.com/kleascm/drivehound/pkg/source"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	jpgStart = []byte{0xFF, 0xD8, 0xFF}
	jpgEnd   = []byte{0xFF, 0xD9}
)

func jpgTable() []signatures.Signature {
	return []signatures.Signature{
		{Key: "jpg", Start: jpgStart, End: jpgEnd, Extension: ".jpg"},
	}
}

// recorder collects engine events
type recorder struct {
	found     []carving.Found
	completed []carving.Completed
	warnings  []carving.Warning
}

func (r *recorder) OnFound(ev carving.Found)         { r.found = append(r.found, ev) }
func (r *recorder) OnCompleted(ev carving.Completed) { r.completed = append(r.completed, ev) }
func (r *recorder) OnWarning(ev carving.Warning)     { r.warnings = append(r.warnings, ev) }

// chunked splits data at the given points, dropping empty pieces
func chunked(data []byte, points ...int) [][]byte {
	var chunks [][]byte
	prev := 0
	for _, p := range append(points, len(data)) {
		if p > prev {
			chunks = append(chunks, data[prev:p])
		}
		prev = p
	}
	return chunks
}

func carve(t *testing.T, table []signatures.Signature, chunks [][]byte, opts ...carving.Option) (carving.Tally, *sink.Memory) {
	t.Helper()
	mem := sink.NewMemory()
	engine := carving.NewEngine(signatures.MustBuild(table), mem, opts...)
	tally, err := engine.Scan(context.Background(), source.NewChunks(chunks...))
	require.NoError(t, err)
	assert.Empty(t, mem.Open(), "all artifacts must be closed")
	return tally, mem
}

func artifact(t *testing.T, mem *sink.Memory, name string) []byte {
	t.Helper()
	data, ok := mem.Bytes(name)
	require.True(t, ok, "missing artifact %s", name)
	return data
}

func concat(parts ...[]byte) []byte {
	return bytes.Join(parts, nil)
}

// TestScenarioTerminatedAndOpenOccurrence tests one terminated and one unterminated
// occurrence in a single chunk
func TestScenarioTerminatedAndOpenOccurrence(t *testing.T) {
	table := []signatures.Signature{
		{Key: "alpha", Start: []byte{0x00, 0x01, 0x02}, End: []byte{0xFF}, Extension: ".bin"},
	}
	input := []byte("\x00\x01\x02HELLO\xFF\x00\x01\x02WORLD")
	rec := &recorder{}

	tally, mem := carve(t, table, [][]byte{input}, carving.WithReporter(rec))

	assert.Equal(t, carving.Tally{"alpha": 2}, tally)
	assert.Equal(t, []string{"alpha_0.bin", "alpha_1.bin"}, mem.Names())
	assert.Equal(t, []byte("\x00\x01\x02HELLO\xFF"), artifact(t, mem, "alpha_0.bin"))
	assert.Equal(t, []byte("\x00\x01\x02WORLD"), artifact(t, mem, "alpha_1.bin"))

	require.Len(t, rec.found, 2)
	assert.Equal(t, int64(0), rec.found[0].Offset)
	assert.Equal(t, int64(9), rec.found[1].Offset)

	require.Len(t, rec.completed, 2)
	assert.True(t, rec.completed[0].Terminated)
	assert.Equal(t, int64(9), rec.completed[0].Size)
	assert.False(t, rec.completed[1].Terminated)
	assert.Equal(t, int64(8), rec.completed[1].Size)
}

// TestExactSingleMatch tests that surrounding bytes are excluded
func TestExactSingleMatch(t *testing.T) {
	carved := concat(jpgStart, []byte("JFIF payload"), jpgEnd)

	tally, mem := carve(t, jpgTable(), [][]byte{carved})
	assert.Equal(t, carving.Tally{"jpg": 1}, tally)
	assert.Equal(t, carved, artifact(t, mem, "jpg_0.jpg"))

	tally, mem = carve(t, jpgTable(), [][]byte{concat([]byte("leading junk"), carved, []byte("trailing junk"))})
	assert.Equal(t, carving.Tally{"jpg": 1}, tally)
	assert.Equal(t, carved, artifact(t, mem, "jpg_0.jpg"))
}

// TestStartMarkerAcrossChunks tests every split point inside the start marker
func TestStartMarkerAcrossChunks(t *testing.T) {
	carved := concat(jpgStart, []byte("payload"), jpgEnd)

	for i := 0; i <= len(jpgStart); i++ {
		t.Run(fmt.Sprintf("split_%d", i), func(t *testing.T) {
			tally, mem := carve(t, jpgTable(), chunked(carved, i))
			assert.Equal(t, carving.Tally{"jpg": 1}, tally)
			assert.Equal(t, carved, artifact(t, mem, "jpg_0.jpg"))
		})
	}
}

// TestEndMarkerAcrossChunks tests every split point inside the end marker
func TestEndMarkerAcrossChunks(t *testing.T) {
	table := []signatures.Signature{
		{Key: "png", Start: []byte("\x89PNG"), End: []byte("IEND\xAEB`\x82"), Extension: ".png"},
	}
	carved := concat([]byte("\x89PNG"), []byte("chunks of image data"), []byte("IEND\xAEB`\x82"))
	input := concat(carved, []byte("\x89PN"))
	endAt := len(carved) - len(table[0].End)

	for j := 0; j <= len(table[0].End); j++ {
		t.Run(fmt.Sprintf("split_%d", j), func(t *testing.T) {
			tally, mem := carve(t, table, chunked(input, endAt+j))
			assert.Equal(t, carving.Tally{"png": 1}, tally)
			assert.Equal(t, carved, artifact(t, mem, "png_0.png"))
		})
	}
}

// TestEverySplitPoint tests that chunking never changes the output
func TestEverySplitPoint(t *testing.T) {
	first := concat(jpgStart, []byte("first"), jpgEnd)
	second := concat(jpgStart, []byte("second"), jpgEnd)
	input := concat([]byte("xx"), first, []byte("gap"), second, []byte("yy"))

	for i := 0; i <= len(input); i++ {
		for _, size := range []int{1, 2, 3} {
			points := []int{i}
			for p := i + size; p < len(input); p += size {
				points = append(points, p)
			}
			tally, mem := carve(t, jpgTable(), chunked(input, points...))
			require.Equal(t, carving.Tally{"jpg": 2}, tally, "split %d size %d", i, size)
			require.Equal(t, first, artifact(t, mem, "jpg_0.jpg"), "split %d size %d", i, size)
			require.Equal(t, second, artifact(t, mem, "jpg_1.jpg"), "split %d size %d", i, size)
		}
	}
}

// TestNoEndMarkerStreamsToEOF tests finalization of formats without an end marker
func TestNoEndMarkerStreamsToEOF(t *testing.T) {
	table := []signatures.Signature{
		{Key: "raw", Start: []byte("RAW!"), Extension: ".raw"},
	}
	rec := &recorder{}

	tally, mem := carve(t, table, [][]byte{[]byte("RAW!data1"), []byte("data2")}, carving.WithReporter(rec))

	assert.Equal(t, carving.Tally{"raw": 1}, tally)
	assert.Equal(t, []byte("RAW!data1data2"), artifact(t, mem, "raw_0.raw"))
	require.Len(t, rec.completed, 1)
	assert.False(t, rec.completed[0].Terminated)
}

// TestRepeatOccurrencesNumbered tests sequential occurrence names
func TestRepeatOccurrencesNumbered(t *testing.T) {
	first := concat(jpgStart, []byte("one"), jpgEnd)
	second := concat(jpgStart, []byte("two"), jpgEnd)

	for name, chunks := range map[string][][]byte{
		"single_chunk": {concat(first, second)},
		"two_chunks":   {first, second},
	} {
		t.Run(name, func(t *testing.T) {
			tally, mem := carve(t, jpgTable(), chunks)
			assert.Equal(t, carving.Tally{"jpg": 2}, tally)
			assert.Equal(t, []string{"jpg_0.jpg", "jpg_1.jpg"}, mem.Names())
			assert.Equal(t, first, artifact(t, mem, "jpg_0.jpg"))
			assert.Equal(t, second, artifact(t, mem, "jpg_1.jpg"))
		})
	}
}

// TestOneExtractionPerKey tests that a start marker inside an open extraction is payload
func TestOneExtractionPerKey(t *testing.T) {
	table := []signatures.Signature{
		{Key: "tag", Start: []byte("<"), End: []byte(">"), Extension: ".tag"},
	}

	tally, mem := carve(t, table, [][]byte{[]byte("<a<b>c>")})
	assert.Equal(t, carving.Tally{"tag": 1}, tally)
	assert.Equal(t, []byte("<a<b>"), artifact(t, mem, "tag_0.tag"))
}

// TestStreamingExtractionClaimsBuffer tests that an extraction without an end marker
// consumes bytes before any other start scan
func TestStreamingExtractionClaimsBuffer(t *testing.T) {
	table := []signatures.Signature{
		{Key: "raw", Start: []byte("AA"), Extension: ".raw"},
		{Key: "box", Start: []byte("BB"), End: []byte("!"), Extension: ".box"},
	}

	tally, mem := carve(t, table, [][]byte{[]byte("AAxx"), []byte("BByy!")})
	assert.Equal(t, carving.Tally{"raw": 1}, tally)
	assert.Equal(t, []byte("AAxxBByy!"), artifact(t, mem, "raw_0.raw"))
}

// TestTieBreakPolicies tests catalog order against earliest offset
func TestTieBreakPolicies(t *testing.T) {
	table := []signatures.Signature{
		{Key: "a", Start: []byte("AA"), End: []byte("!"), Extension: ".a"},
		{Key: "b", Start: []byte("BB"), End: []byte("!"), Extension: ".b"},
	}
	input := [][]byte{[]byte("BBxx!AAyy!")}

	tally, mem := carve(t, table, input)
	assert.Equal(t, carving.Tally{"a": 1}, tally)
	assert.Equal(t, []byte("AAyy!"), artifact(t, mem, "a_0.a"))

	tally, mem = carve(t, table, input, carving.WithTieBreak(carving.TieBreakEarliestOffset))
	assert.Equal(t, carving.Tally{"a": 1, "b": 1}, tally)
	assert.Equal(t, []string{"b_0.b", "a_0.a"}, mem.Names())
	assert.Equal(t, []byte("BBxx!"), artifact(t, mem, "b_0.b"))
	assert.Equal(t, []byte("AAyy!"), artifact(t, mem, "a_0.a"))
}

// TestDefaultsOverStream tests the built-in catalog over a chunked stream
func TestDefaultsOverStream(t *testing.T) {
	png := concat([]byte("\x89PNG\r\n\x1a\n"), []byte("IHDR image bytes"), []byte("IEND\xaeB`\x82"))
	gif := concat([]byte("GIF89a"), []byte("pixels"), []byte{0x00, 0x3B})
	disk := concat([]byte("junkjunk"), png, []byte("garbage"), gif, []byte("tail"))

	mem := sink.NewMemory()
	engine := carving.NewEngine(signatures.MustBuild(signatures.Defaults()), mem)
	tally, err := engine.Scan(context.Background(), source.NewReader(bytes.NewReader(disk), 7))
	require.NoError(t, err)

	assert.Equal(t, carving.Tally{"png": 1, "gif_89a": 1}, tally)
	assert.Equal(t, 2, tally.Total())
	assert.Equal(t, png, artifact(t, mem, "png_0.png"))
	assert.Equal(t, gif, artifact(t, mem, "gif_89a_0.gif"))

	stats := engine.Stats()
	assert.Equal(t, int64(len(disk)), stats.BytesScanned)
	assert.Equal(t, 2, stats.Artifacts)
}

// TestEmptyCatalog tests that nothing is read when nothing can be carved
func TestEmptyCatalog(t *testing.T) {
	catalog, err := signatures.Build([]signatures.Signature{{Key: "broken", Extension: ".x"}}, "")
	require.NoError(t, err)
	rec := &recorder{}

	src := source.NewChunks([]byte("anything"))
	engine := carving.NewEngine(catalog, sink.NewMemory(), carving.WithReporter(rec))
	tally, err := engine.Scan(context.Background(), src)

	require.NoError(t, err)
	assert.Empty(t, tally)
	assert.Len(t, rec.warnings, 1)
	assert.Equal(t, int64(0), src.Position())
}

// TestNewSingle tests the single signature mode
func TestNewSingle(t *testing.T) {
	mem := sink.NewMemory()
	engine, err := carving.NewSingle(signatures.Defaults(), "png", mem)
	require.NoError(t, err)
	assert.Equal(t, []string{"png"}, engine.Catalog().Keys())

	_, err = carving.NewSingle(signatures.Defaults(), "bmp", mem)
	var cfgErr *signatures.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "bmp", cfgErr.Key)
}

// cancelSource cancels the scan after serving its first chunk
type cancelSource struct {
	*source.Chunks
	cancel context.CancelFunc
}

func (c *cancelSource) ReadChunk() ([]byte, error) {
	chunk, err := c.Chunks.ReadChunk()
	c.cancel()
	return chunk, err
}

// TestCancellationFinalizes tests that cancellation closes open artifacts and keeps the tally
func TestCancellationFinalizes(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mem := sink.NewMemory()
	engine := carving.NewEngine(signatures.MustBuild(jpgTable()), mem)
	src := &cancelSource{
		Chunks: source.NewChunks(concat(jpgStart, []byte("partial")), []byte("never read")),
		cancel: cancel,
	}

	tally, err := engine.Scan(ctx, src)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, carving.Tally{"jpg": 1}, tally)
	assert.Empty(t, mem.Open())
	assert.Equal(t, concat(jpgStart, []byte("partial")), artifact(t, mem, "jpg_0.jpg"))
}

// TestReadErrorClosesArtifacts tests that a failing source aborts with all handles closed
func TestReadErrorClosesArtifacts(t *testing.T) {
	boom := errors.New("device removed")
	mem := sink.NewMemory()
	engine := carving.NewEngine(signatures.MustBuild(jpgTable()), mem)

	src := source.NewChunks(concat(jpgStart, []byte("partial"))).FailAt(1, boom)
	tally, err := engine.Scan(context.Background(), src)

	require.ErrorIs(t, err, boom)
	assert.Equal(t, carving.Tally{"jpg": 1}, tally)
	assert.Equal(t, []string{"jpg_0.jpg"}, mem.Names())
	assert.Empty(t, mem.Open())
}

// failingSink fails Create for the listed attempts (zero based) and delegates otherwise
type failingSink struct {
	inner    *sink.Memory
	failOn   map[int]bool
	attempts int
}

func (f *failingSink) Create(name string) (interfaces.Artifact, error) {
	attempt := f.attempts
	f.attempts++
	if f.failOn[attempt] {
		return nil, &sink.IOError{Op: "create", Path: name, Err: errors.New("disk full")}
	}
	return f.inner.Create(name)
}

// TestCreateErrorAborts tests the default abort on output creation failure
func TestCreateErrorAborts(t *testing.T) {
	fs := &failingSink{inner: sink.NewMemory(), failOn: map[int]bool{1: true}}
	table := []signatures.Signature{
		{Key: "box", Start: []byte("BB"), End: []byte("!"), Extension: ".box"},
		{Key: "raw", Start: []byte("RAW"), Extension: ".raw"},
	}
	engine := carving.NewEngine(signatures.MustBuild(table), fs)

	// box opens first, raw fails to open in the same pass
	_, err := engine.Scan(context.Background(), source.NewChunks([]byte("BBxx!RAWyy")))

	var ioErr *sink.IOError
	require.ErrorAs(t, err, &ioErr)
	assert.Equal(t, "create", ioErr.Op)
	assert.Empty(t, fs.inner.Open())
}

// TestCreateErrorContinues tests skipping artifacts that cannot be created
func TestCreateErrorContinues(t *testing.T) {
	fs := &failingSink{inner: sink.NewMemory(), failOn: map[int]bool{0: true}}
	rec := &recorder{}
	table := []signatures.Signature{
		{Key: "box", Start: []byte("BB"), End: []byte("!"), Extension: ".box"},
	}
	engine := carving.NewEngine(signatures.MustBuild(table), fs,
		carving.WithReporter(rec), carving.WithContinueOnCreateError(true))

	tally, err := engine.Scan(context.Background(), source.NewChunks([]byte("BB1!BB2!")))

	require.NoError(t, err)
	assert.Equal(t, carving.Tally{"box": 1}, tally)
	require.Len(t, rec.warnings, 1)
	assert.Equal(t, "box", rec.warnings[0].Key)
	assert.Equal(t, []byte("BB2!"), artifact(t, fs.inner, "box_0.box"))
}

// brokenArtifact fails every write
type brokenArtifact struct {
	name   string
	closed bool
}

func (b *brokenArtifact) Name() string                { return b.name }
func (b *brokenArtifact) Write(p []byte) (int, error) { return 0, errors.New("read-only filesystem") }
func (b *brokenArtifact) Close() error                { b.closed = true; return nil }

type brokenSink struct {
	created []*brokenArtifact
}

func (s *brokenSink) Create(name string) (interfaces.Artifact, error) {
	a := &brokenArtifact{name: name}
	s.created = append(s.created, a)
	return a, nil
}

// TestWriteErrorClosesArtifacts tests that write failures abort with handles closed
func TestWriteErrorClosesArtifacts(t *testing.T) {
	bs := &brokenSink{}
	engine := carving.NewEngine(signatures.MustBuild(jpgTable()), bs)

	_, err := engine.Scan(context.Background(), source.NewChunks(concat(jpgStart, []byte("data"))))
	require.Error(t, err)
	require.Len(t, bs.created, 1)
	assert.True(t, bs.created[0].closed)
}

// blockingSource holds the first read until released
type blockingSource struct {
	*source.Chunks
	started chan struct{}
	release chan struct{}
	once    bool
}

func (b *blockingSource) ReadChunk() ([]byte, error) {
	if !b.once {
		b.once = true
		close(b.started)
		<-b.release
	}
	return b.Chunks.ReadChunk()
}

// TestScanInProgress tests that an engine runs one scan at a time
func TestScanInProgress(t *testing.T) {
	engine := carving.NewEngine(signatures.MustBuild(jpgTable()), sink.NewMemory())
	src := &blockingSource{
		Chunks:  source.NewChunks([]byte("nothing here")),
		started: make(chan struct{}),
		release: make(chan struct{}),
	}

	done := make(chan error, 1)
	go func() {
		_, err := engine.Scan(context.Background(), src)
		done <- err
	}()

	<-src.started
	_, err := engine.Scan(context.Background(), source.NewChunks())
	assert.ErrorIs(t, err, carving.ErrScanInProgress)

	close(src.release)
	require.NoError(t, <-done)
}

// TestLoggerReporter tests structured log output for carving events
func TestLoggerReporter(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	reporter := carving.NewLoggerReporter(logger)

	reporter.OnFound(carving.Found{Key: "png", Name: "png_0.png", Offset: 4096})
	require.Len(t, hook.Entries, 1)
	assert.Equal(t, "Found signature", hook.LastEntry().Message)
	assert.Equal(t, "0x1000", hook.LastEntry().Data["offset"])
	assert.Equal(t, "png_0.png", hook.LastEntry().Data["artifact"])

	reporter.OnCompleted(carving.Completed{Key: "png", Name: "png_0.png", Offset: 4096, Size: 10})
	assert.Equal(t, "Completed artifact (no end signature)", hook.LastEntry().Message)
	assert.Equal(t, int64(10), hook.LastEntry().Data["size"])

	reporter.OnWarning(carving.Warning{Key: "png", Message: "skipped", Err: errors.New("disk full")})
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
	assert.NotNil(t, hook.LastEntry().Data[logrus.ErrorKey])
}

// TestMultiReporter tests that every reporter sees every event in order
func TestMultiReporter(t *testing.T) {
	table := []signatures.Signature{
		{Key: "alpha", Start: []byte{0x00, 0x01, 0x02}, End: []byte{0xFF}, Extension: ".bin"},
	}
	first, second := &recorder{}, &recorder{}
	carve(t, table, [][]byte{[]byte("\x00\x01\x02HELLO\xFF")}, carving.WithReporter(carving.MultiReporter{first, second}))

	assert.Len(t, first.found, 1)
	assert.Len(t, first.completed, 1)
	assert.Equal(t, first.found, second.found)
	assert.Equal(t, first.completed, second.completed)

	carving.MultiReporter{first, second}.OnWarning(carving.Warning{Key: "alpha", Message: "skipped"})
	assert.Len(t, first.warnings, 1)
	assert.Len(t, second.warnings, 1)
}

// TestTallyAndTieBreakParsing tests helper types
func TestTallyAndTieBreakParsing(t *testing.T) {
	tally := carving.Tally{"png": 2, "gif_89a": 1}
	assert.Equal(t, 3, tally.Total())
	assert.Equal(t, []string{"gif_89a", "png"}, tally.Keys())

	tb, err := carving.ParseTieBreak("earliest-offset")
	require.NoError(t, err)
	assert.Equal(t, carving.TieBreakEarliestOffset, tb)

	tb, err = carving.ParseTieBreak("")
	require.NoError(t, err)
	assert.Equal(t, carving.TieBreakCatalogOrder, tb)

	_, err = carving.ParseTieBreak("random")
	assert.Error(t, err)
}

// TestConfigValidate tests scan configuration validation
func TestConfigValidate(t *testing.T) {
	cfg := carving.DefaultConfig()
	assert.Error(t, cfg.Validate(), "source is required")

	cfg.Source = "disk.img"
	require.NoError(t, cfg.Validate())

	cfg.ChunkSize = 0
	assert.Error(t, cfg.Validate())

	cfg = carving.DefaultConfig()
	cfg.Source = "disk.img"
	cfg.TieBreak = "random"
	assert.Error(t, cfg.Validate())
}
