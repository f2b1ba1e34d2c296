package builders

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/fredcamaral/deckforge/internal/domain/entities"
	"github.com/fredcamaral/deckforge/internal/domain/ports"
)

// FixedClock is a TimeProvider that only moves when told to
type FixedClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewFixedClock creates a clock stopped at now
func NewFixedClock(now time.Time) *FixedClock {
	return &FixedClock{now: now}
}

func (c *FixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *FixedClock) Since(t time.Time) time.Duration {
	return c.Now().Sub(t)
}

// Advance moves the clock forward
func (c *FixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// StubAssets is an in-memory AssetCache serving canned entries
type StubAssets struct {
	mu       sync.Mutex
	entries  map[string]entities.CacheEntry
	failures map[string]error
	calls    map[string]int
	leases   []string
	released []string
}

// NewStubAssets creates an empty asset stub
func NewStubAssets() *StubAssets {
	return &StubAssets{
		entries:  make(map[string]entities.CacheEntry),
		failures: make(map[string]error),
		calls:    make(map[string]int),
	}
}

// WithImage registers a fetchable image of the given pixel size
func (s *StubAssets) WithImage(source string, width, height int) *StubAssets {
	s.entries[source] = entities.CacheEntry{
		Key:         source,
		Source:      source,
		Path:        "/cache/" + source,
		ContentType: "image/png",
		Width:       width,
		Height:      height,
	}
	return s
}

// WithFailure makes source fail with err
func (s *StubAssets) WithFailure(source string, err error) *StubAssets {
	s.failures[source] = err
	return s
}

func (s *StubAssets) GetOrFetch(_ context.Context, source string) (entities.CachedAsset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[source]++
	if err, ok := s.failures[source]; ok {
		return entities.CachedAsset{}, fmt.Errorf("%w: %v", entities.ErrCacheFetch, err)
	}
	entry, ok := s.entries[source]
	if !ok {
		return entities.CachedAsset{}, fmt.Errorf("%w: %s not found", entities.ErrCacheFetch, source)
	}
	return entities.CachedAsset{Entry: entry, FromCache: s.calls[source] > 1}, nil
}

func (s *StubAssets) Peek(source string) (entities.CacheEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[source]
	return e, ok && s.calls[source] > 0
}

func (s *StubAssets) NewLease(runID string) ports.AssetLease {
	s.mu.Lock()
	s.leases = append(s.leases, runID)
	s.mu.Unlock()
	return &stubLease{assets: s, runID: runID}
}

func (s *StubAssets) Invalidate(_ context.Context, source string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.calls, source)
	return nil
}

func (s *StubAssets) Sweep(context.Context) (int, error) {
	return 0, nil
}

func (s *StubAssets) Stats() entities.CacheStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return entities.CacheStats{Entries: len(s.entries), Leased: len(s.leases) - len(s.released)}
}

// Calls returns how often source was requested
func (s *StubAssets) Calls(source string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[source]
}

// Released returns the run ids whose leases were released
func (s *StubAssets) Released() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.released...)
}

type stubLease struct {
	assets *StubAssets
	runID  string
	once   sync.Once
}

func (l *stubLease) GetOrFetch(ctx context.Context, source string) (entities.CachedAsset, error) {
	return l.assets.GetOrFetch(ctx, source)
}

func (l *stubLease) Release() {
	l.once.Do(func() {
		l.assets.mu.Lock()
		l.assets.released = append(l.assets.released, l.runID)
		l.assets.mu.Unlock()
	})
}

// StubProber answers probes from a table; unknown sources are reachable
type StubProber struct {
	Failures map[string]error
	Delay    time.Duration
}

func (p StubProber) Probe(ctx context.Context, source string) error {
	if p.Delay > 0 {
		select {
		case <-time.After(p.Delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return p.Failures[source]
}

// StubTemplates serves templates from memory
type StubTemplates map[string]entities.TemplateTheme

func (t StubTemplates) Load(_ context.Context, path string) (entities.TemplateTheme, error) {
	tmpl, ok := t[path]
	if !ok {
		return entities.TemplateTheme{}, fmt.Errorf("%w: %s", entities.ErrTemplateMissing, path)
	}
	return tmpl, nil
}

func (t StubTemplates) Exists(path string) bool {
	_, ok := t[path]
	return ok
}

// CanvasOp is one recorded draw call
type CanvasOp struct {
	Op     string
	Slot   string
	Bounds entities.Rect
	Text   string
	Path   string
}

// RecordingCanvas records every draw call of one slide
type RecordingCanvas struct {
	Background   string
	Ops          []CanvasOp
	FailPictures map[string]bool
}

func (c *RecordingCanvas) AddText(b entities.Rect, tb entities.TextBox) error {
	var s string
	for i, p := range tb.Paragraphs {
		if i > 0 {
			s += "\n"
		}
		s += p.PlainText()
	}
	c.Ops = append(c.Ops, CanvasOp{Op: "text", Bounds: b, Text: s})
	return nil
}

func (c *RecordingCanvas) AddPicture(path string, b entities.Rect) error {
	if c.FailPictures[path] {
		return fmt.Errorf("cannot embed %s", path)
	}
	c.Ops = append(c.Ops, CanvasOp{Op: "picture", Bounds: b, Path: path})
	return nil
}

func (c *RecordingCanvas) AddTable(_ entities.TableBlock, b entities.Rect) error {
	c.Ops = append(c.Ops, CanvasOp{Op: "table", Bounds: b})
	return nil
}

func (c *RecordingCanvas) AddChart(_ entities.ChartBlock, b entities.Rect) error {
	c.Ops = append(c.Ops, CanvasOp{Op: "chart", Bounds: b})
	return nil
}

func (c *RecordingCanvas) SetFill(color string, b entities.Rect) error {
	c.Ops = append(c.Ops, CanvasOp{Op: "fill", Bounds: b, Text: color})
	return nil
}

func (c *RecordingCanvas) BindPlaceholder(slot string, p entities.Primitive) error {
	n := len(c.Ops)
	var err error
	switch p.Kind {
	case entities.PrimitiveText:
		err = c.AddText(p.Bounds, *p.Text)
	case entities.PrimitivePicture:
		err = c.AddPicture(p.Picture.Path, p.Bounds)
	default:
		err = fmt.Errorf("slot %s cannot hold %s", slot, p.Kind)
	}
	if len(c.Ops) > n {
		c.Ops[n].Slot = slot
	}
	return err
}

// RecordingWriter keeps the canvases it handed out and writes a marker file
type RecordingWriter struct {
	Format       string
	Meta         ports.ArtifactMeta
	Slides       []*RecordingCanvas
	SaveErr      error
	FailPictures map[string]bool
}

func (w *RecordingWriter) NewSlide(background string) (ports.SlideCanvas, error) {
	c := &RecordingCanvas{Background: background, FailPictures: w.FailPictures}
	w.Slides = append(w.Slides, c)
	return c, nil
}

func (w *RecordingWriter) Save(path string) error {
	if w.SaveErr != nil {
		return w.SaveErr
	}
	return os.WriteFile(path, []byte(fmt.Sprintf("%s %d slides\n", w.Format, len(w.Slides))), 0o600)
}

// RecordingFactory hands out RecordingWriters and remembers the last one
type RecordingFactory struct {
	mu           sync.Mutex
	Last         *RecordingWriter
	SaveErr      error
	FailPictures map[string]bool
}

func (f *RecordingFactory) NewWriter(format string, meta ports.ArtifactMeta) (ports.ArtifactWriter, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Last = &RecordingWriter{Format: format, Meta: meta, SaveErr: f.SaveErr, FailPictures: f.FailPictures}
	return f.Last, nil
}

var (
	_ ports.TimeProvider   = (*FixedClock)(nil)
	_ ports.AssetCache     = (*StubAssets)(nil)
	_ ports.AssetProber    = StubProber{}
	_ ports.TemplateLoader = StubTemplates{}
	_ ports.SlideCanvas    = (*RecordingCanvas)(nil)
	_ ports.WriterFactory  = (*RecordingFactory)(nil)
)
