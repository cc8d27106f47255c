package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aretw0/tickline/pkg/timing"
)

// AudioLoader opens the cached audio file for playback.
type AudioLoader func(path string) (timing.Audio, error)

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithLogger sets the logger used by the session.
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithEventBuffer sets the per-subscriber event buffer size.
func WithEventBuffer(size int) ServiceOption {
	return func(s *Service) {
		if size > 0 {
			s.eventBufferSize = size
		}
	}
}

// WithSettings sets the defaults used for new and reset documents.
func WithSettings(settings Settings) ServiceOption {
	return func(s *Service) {
		s.settings = settings
	}
}

// WithNow replaces the wall clock used by playback and event timestamps.
func WithNow(now func() time.Time) ServiceOption {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithAudioLoader enables audio playback alongside the clock.
func WithAudioLoader(fn AudioLoader) ServiceOption {
	return func(s *Service) {
		s.loadAudio = fn
	}
}

// Service is the editing session: one document, one clock and one cache
// slot. Every mutation and clock call is serialized by the session mutex.
type Service struct {
	mu sync.RWMutex
	id string

	repo            Repository
	logger          *slog.Logger
	settings        Settings
	now             func() time.Time
	loadAudio       AudioLoader
	eventBufferSize int
	broker          *broker

	doc         *Document
	clock       *timing.Clock
	audio       timing.Audio
	state       PersistState
	preferTicks bool
}

// NewService creates a session holding a fresh document built from the
// configured settings. Nothing is read from the repository until LoadCache.
func NewService(repo Repository, opts ...ServiceOption) (*Service, error) {
	s := &Service{
		id:              uuid.NewString(),
		repo:            repo,
		logger:          slog.Default(),
		settings:        DefaultSettings(),
		now:             time.Now,
		eventBufferSize: 100,
		state:           Unsaved,
	}
	for _, opt := range opts {
		opt(s)
	}

	doc, err := NewDocument(s.settings)
	if err != nil {
		return nil, fmt.Errorf("default document: %w", err)
	}
	s.doc = doc
	s.clock = timing.NewClock(s.now)
	s.broker = newBroker(s.eventBufferSize, s.logger)
	return s, nil
}

// Document returns a deep copy of the current document.
func (s *Service) Document() *Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc.Clone()
}

// View runs fn with read access to the live document. fn must not keep the
// pointer or modify the document.
func (s *Service) View(fn func(d *Document) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(s.doc)
}

// Update applies fn to a copy of the document and commits the copy only if
// fn succeeds and the result is valid.
func (s *Service) Update(fn func(d *Document) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.update(fn)
}

func (s *Service) update(fn func(d *Document) error) error {
	next := s.doc.Clone()
	if err := fn(next); err != nil {
		return err
	}
	if err := next.Validate(); err != nil {
		return err
	}

	prev := s.doc
	s.doc = next
	s.state = Unsaved

	if prev.Tempo() != next.Tempo() && s.clock.Running() {
		// Re-anchor so the running position continues at the new rate.
		_ = s.clock.Stop()
		if err := s.clock.Start(next.Tempo()); err != nil {
			s.logger.Warn("failed to restart audio after tempo change", "error", err)
		}
	}

	s.emit(Event{Type: EventRebuild})
	if prev.ChartLength() != next.ChartLength() {
		s.emit(Event{Type: EventSync, Field: FieldChartLength})
	}
	if prev.Tempo().TickPerSecond() != next.Tempo().TickPerSecond() {
		s.emit(Event{Type: EventSync, Field: FieldTickPerSecond})
	}
	if prev.Assets.Image != next.Assets.Image {
		s.emit(Event{Type: EventSync, Field: FieldImageFile})
	}
	return nil
}

// SetMetadata replaces the chart metadata.
func (s *Service) SetMetadata(m Metadata) error {
	return s.Update(func(d *Document) error {
		if int(m.Copyright) >= len(copyrightNames) {
			return invalid("copyright", "unknown mode %d", uint8(m.Copyright))
		}
		d.Metadata = m
		return nil
	})
}

// SetEditorSettings replaces the authoring preferences.
func (s *Service) SetEditorSettings(e EditorSettings) error {
	return s.Update(func(d *Document) error {
		d.Editor = e
		return nil
	})
}

// SetTempo changes the tick resolution and BPM.
func (s *Service) SetTempo(tickPerBeat, bpm int) error {
	return s.Update(func(d *Document) error {
		return d.SetTempo(tickPerBeat, bpm)
	})
}

// SetOffset stores the audio offset, clamped to the configured range.
func (s *Service) SetOffset(seconds float64) error {
	return s.Update(func(d *Document) error {
		d.SetOffset(seconds)
		return nil
	})
}

// SetChartLength stores the chart length, clamped to [0, max].
func (s *Service) SetChartLength(ticks timing.Tick) error {
	return s.Update(func(d *Document) error {
		d.SetChartLength(ticks)
		return nil
	})
}

// AddHighlight registers a highlighted subdivision.
func (s *Service) AddHighlight(value int, color Color) error {
	return s.Update(func(d *Document) error {
		return d.AddHighlight(value, color)
	})
}

// SetHighlightColor recolors the highlighted tick at index i.
func (s *Service) SetHighlightColor(i int, color Color) error {
	return s.Update(func(d *Document) error {
		return d.SetHighlightColor(i, color)
	})
}

// RemoveHighlight deletes the highlighted tick at index i.
func (s *Service) RemoveHighlight(i int) error {
	return s.Update(func(d *Document) error {
		_, err := d.RemoveHighlight(i)
		return err
	})
}

// AddLine appends a judge line with the next free id and returns that id.
func (s *Service) AddLine() (int, error) {
	var id int
	err := s.Update(func(d *Document) error {
		id = d.NextLineID()
		_, err := d.AddLine(id)
		return err
	})
	return id, err
}

// RemoveLine deletes a judge line with its notes and curves.
func (s *Service) RemoveLine(id int) error {
	return s.Update(func(d *Document) error {
		return d.RemoveLine(id)
	})
}

// AddNote builds a note from spec and appends it to the line.
func (s *Service) AddNote(lineID int, spec NoteSpec) error {
	return s.Update(func(d *Document) error {
		l, err := d.Line(lineID)
		if err != nil {
			return err
		}
		n, err := NewNote(spec)
		if err != nil {
			return err
		}
		return l.AddNote(n)
	})
}

// RemoveNote deletes the i-th note of a line.
func (s *Service) RemoveNote(lineID, i int) error {
	return s.Update(func(d *Document) error {
		l, err := d.Line(lineID)
		if err != nil {
			return err
		}
		_, err = l.RemoveNote(i)
		return err
	})
}

// SortNotes orders the notes of a line by time.
func (s *Service) SortNotes(lineID int) error {
	return s.Update(func(d *Document) error {
		l, err := d.Line(lineID)
		if err != nil {
			return err
		}
		l.SortNotes()
		return nil
	})
}

// InsertKeyframe adds or replaces a keyframe on one channel of a line.
func (s *Service) InsertKeyframe(lineID int, ch Channel, kf Keyframe) error {
	return s.Update(func(d *Document) error {
		c, err := lineCurve(d, lineID, ch)
		if err != nil {
			return err
		}
		return c.Insert(kf)
	})
}

// RemoveKeyframe deletes the i-th keyframe on one channel of a line.
func (s *Service) RemoveKeyframe(lineID int, ch Channel, i int) error {
	return s.Update(func(d *Document) error {
		c, err := lineCurve(d, lineID, ch)
		if err != nil {
			return err
		}
		return c.RemoveAt(i)
	})
}

// ValueAt evaluates one channel of a line at a fractional tick.
func (s *Service) ValueAt(lineID int, ch Channel, tick float64) (float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, err := lineCurve(s.doc, lineID, ch)
	if err != nil {
		return 0, err
	}
	return c.ValueAt(tick), nil
}

func lineCurve(d *Document, lineID int, ch Channel) (*Curve, error) {
	l, err := d.Line(lineID)
	if err != nil {
		return nil, err
	}
	return l.Curve(ch)
}

// PreferTicks reports whether positions are displayed in ticks rather than
// seconds.
func (s *Service) PreferTicks() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.preferTicks
}

// SetPreferTicks switches the display unit. It is a session preference and
// does not touch the document.
func (s *Service) SetPreferTicks(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.preferTicks == v {
		return
	}
	s.preferTicks = v
	s.emit(Event{Type: EventSync, Field: FieldPreferTicks})
}

// Start starts playback from the current position. An audio failure is
// returned but the clock keeps running.
func (s *Service) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.clock.Running() {
		return nil
	}
	err := s.clock.Start(s.doc.Tempo())
	if s.clock.Running() {
		s.emit(Event{Type: EventSync, Field: FieldIsRunning})
	}
	return err
}

// Stop freezes playback.
func (s *Service) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopLocked()
}

func (s *Service) stopLocked() error {
	if !s.clock.Running() {
		return nil
	}
	err := s.clock.Stop()
	s.emit(Event{Type: EventSync, Field: FieldIsRunning})
	s.emit(Event{Type: EventSync, Field: FieldCurrentTime})
	return err
}

// Sample returns the interpolated position of a running clock. It does not
// publish events; hosts sample at frame rate.
func (s *Service) Sample() (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clock.Sample()
}

// Seek moves a stopped clock.
func (s *Service) Seek(ticks float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.clock.Seek(ticks); err != nil {
		return err
	}
	s.emit(Event{Type: EventSync, Field: FieldCurrentTime})
	return nil
}

// Playback returns the playback state.
func (s *Service) Playback() timing.State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.clock.State()
}

// PersistState reports where the document stands relative to the cache.
func (s *Service) PersistState() PersistState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// SaveCache writes the document to the cache slot.
func (s *Service) SaveCache(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked(ctx)
}

func (s *Service) saveLocked(ctx context.Context) error {
	if err := s.repo.Save(ctx, s.doc.Snapshot()); err != nil {
		return fmt.Errorf("save cache: %w", err)
	}
	s.state = CachedLocally
	s.logger.Debug("chart cached", "lines", len(s.doc.lines))
	return nil
}

// LoadCache replaces the document with the cached chart. On failure the
// current document is kept.
func (s *Service) LoadCache(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.repo.Load(ctx)
	if err != nil {
		return fmt.Errorf("load cache: %w", err)
	}
	doc, err := FromSnapshot(snap, s.settings.Limits)
	if err != nil {
		return fmt.Errorf("load cache: %w", &CorruptError{Source: "cache", Reason: err.Error()})
	}
	s.replaceLocked(doc)
	s.state = CachedLocally
	return nil
}

// ExportArchive caches the document and packages the cache into a single
// archive. It returns the archive path.
func (s *Service) ExportArchive(ctx context.Context, dest string) (string, error) {
	a, ok := s.repo.(Archiver)
	if !ok {
		return "", errors.New("repository does not support archives")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.saveLocked(ctx); err != nil {
		return "", err
	}
	path, err := a.Export(ctx, dest)
	if err != nil {
		return "", fmt.Errorf("export archive: %w", err)
	}
	s.state = ExportedArchive
	s.logger.Info("chart exported", "path", path)
	return path, nil
}

// ImportArchive replaces the cache and the document with the content of an
// archive. On failure both are kept.
func (s *Service) ImportArchive(ctx context.Context, path string) error {
	a, ok := s.repo.(Archiver)
	if !ok {
		return errors.New("repository does not support archives")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := a.Import(ctx, path)
	if err != nil {
		return fmt.Errorf("import archive: %w", err)
	}
	doc, err := FromSnapshot(snap, s.settings.Limits)
	if err != nil {
		return fmt.Errorf("import archive: %w", &CorruptError{Source: path, Reason: err.Error()})
	}
	s.replaceLocked(doc)
	s.state = ImportedFromArchive
	s.logger.Info("chart imported", "path", path)
	return nil
}

// ImportAudio copies an audio file into the cache and attaches it to the
// document.
func (s *Service) ImportAudio(ctx context.Context, path string) error {
	return s.importAsset(ctx, AssetAudio, path)
}

// ImportImage copies a background image into the cache and attaches it to
// the document.
func (s *Service) ImportImage(ctx context.Context, path string) error {
	return s.importAsset(ctx, AssetImage, path)
}

func (s *Service) importAsset(ctx context.Context, kind AssetKind, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if kind == AssetAudio {
		if err := s.stopLocked(); err != nil {
			s.logger.Warn("failed to pause audio", "error", err)
		}
	}
	name, err := s.repo.ImportAsset(ctx, kind, path)
	if err != nil {
		return fmt.Errorf("import %s: %w", kind, err)
	}
	err = s.update(func(d *Document) error {
		if kind == AssetAudio {
			d.Assets.Audio = name
		} else {
			d.Assets.Image = name
		}
		return nil
	})
	if err != nil {
		return err
	}
	if kind == AssetAudio {
		s.attachAudioLocked()
	}
	return nil
}

// ResetAll clears the cache and starts over with a fresh document.
func (s *Service) ResetAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := NewDocument(s.settings)
	if err != nil {
		return err
	}
	if err := s.repo.Reset(ctx); err != nil {
		return fmt.Errorf("reset: %w", err)
	}
	s.replaceLocked(doc)
	s.state = Unsaved
	s.logger.Info("chart reset")
	return nil
}

// replaceLocked swaps in a new document, rewinds the clock and reattaches
// the audio.
func (s *Service) replaceLocked(doc *Document) {
	if err := s.stopLocked(); err != nil {
		s.logger.Warn("failed to pause audio", "error", err)
	}
	s.clock.Reset()
	s.doc = doc
	s.attachAudioLocked()

	s.emit(Event{Type: EventRebuild})
	for _, f := range []Field{FieldChartLength, FieldImageFile, FieldCurrentTime, FieldTickPerSecond} {
		s.emit(Event{Type: EventSync, Field: f})
	}
}

func (s *Service) attachAudioLocked() {
	s.closeAudioLocked()
	if s.loadAudio == nil || s.doc.Assets.Audio == "" {
		return
	}
	a, err := s.loadAudio(s.repo.AssetPath(s.doc.Assets.Audio))
	if err != nil {
		s.logger.Warn("failed to open audio", "file", s.doc.Assets.Audio, "error", err)
		return
	}
	s.audio = a
	s.clock.SetAudio(a)
}

func (s *Service) closeAudioLocked() {
	if s.audio == nil {
		return
	}
	if c, ok := s.audio.(io.Closer); ok {
		if err := c.Close(); err != nil {
			s.logger.Warn("failed to close audio", "error", err)
		}
	}
	s.audio = nil
	s.clock.SetAudio(nil)
}

// Close stops playback and releases the audio handle.
func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.stopLocked()
	s.closeAudioLocked()
	return err
}

// Subscribe streams session events until ctx is done. Slow subscribers miss
// events instead of blocking edits.
func (s *Service) Subscribe(ctx context.Context) <-chan Event {
	return s.broker.subscribe(ctx)
}

// ID identifies the session in the events it publishes.
func (s *Service) ID() string {
	return s.id
}

func (s *Service) emit(e Event) {
	e.ID = s.id
	e.Timestamp = s.now().Unix()
	s.broker.publish(e)
}

// Watch observes external changes to the cache if the repository supports
// it. Events are buffered so the watcher is never held up by the consumer.
func (s *Service) Watch(ctx context.Context, pattern string) (<-chan Event, error) {
	w, ok := s.repo.(Watchable)
	if !ok {
		return nil, errors.New("repository does not support watching")
	}
	upstream, err := w.Watch(ctx, pattern)
	if err != nil {
		return nil, err
	}

	out := make(chan Event, s.eventBufferSize)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case e, ok := <-upstream:
				if !ok {
					return
				}
				select {
				case out <- e:
				default:
					s.logger.Debug("dropping cache event", "event", e.String())
				}
			}
		}
	}()
	return out, nil
}
