// Package audio decodes chart music with beep and exposes it as the
// playback handle driven by the timing clock.
package audio

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/vorbis"
	"github.com/faiface/beep/wav"

	"github.com/aretw0/tickline/pkg/core"
	"github.com/aretw0/tickline/pkg/timing"
)

// Info describes a decoded audio file.
type Info struct {
	Format     string        `json:"format"`
	SampleRate int           `json:"sampleRate"`
	Channels   int           `json:"channels"`
	Duration   time.Duration `json:"duration"`
}

// Supported reports whether the file extension has a decoder.
func Supported(path string) bool {
	_, ok := decoders[ext(path)]
	return ok
}

type decoder func(io.ReadCloser) (beep.StreamSeekCloser, beep.Format, error)

var decoders = map[string]decoder{
	"mp3": mp3.Decode,
	"ogg": vorbis.Decode,
	"wav": func(rc io.ReadCloser) (beep.StreamSeekCloser, beep.Format, error) {
		return wav.Decode(rc)
	},
}

func ext(path string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
}

// decode opens path and runs the decoder matching its extension. The
// returned file is closed by the caller once the streamer is done.
func decode(path string) (beep.StreamSeekCloser, beep.Format, *os.File, error) {
	dec, ok := decoders[ext(path)]
	if !ok {
		return nil, beep.Format{}, nil, &core.ValidationError{Field: "audio", Reason: fmt.Sprintf("unsupported format %q", filepath.Ext(path))}
	}

	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, beep.Format{}, nil, fmt.Errorf("audio %s: %w", path, core.ErrNotFound)
	}
	if err != nil {
		return nil, beep.Format{}, nil, core.IOError("open audio", err)
	}

	streamer, format, err := dec(f)
	if err != nil {
		f.Close()
		return nil, beep.Format{}, nil, core.Corrupt(filepath.Base(path), "decode audio: %v", err)
	}
	return streamer, format, f, nil
}

// Probe decodes the header of an mp3, ogg or wav file.
func Probe(path string) (Info, error) {
	streamer, format, f, err := decode(path)
	if err != nil {
		return Info{}, err
	}
	defer closeAll(streamer, f)

	return Info{
		Format:     ext(path),
		SampleRate: int(format.SampleRate),
		Channels:   format.NumChannels,
		Duration:   format.SampleRate.D(streamer.Len()),
	}, nil
}

// Track is an open audio file. It implements timing.Audio and beep.Streamer,
// so the same value is driven by the clock and handed to a speaker.
type Track struct {
	mu       sync.Mutex
	streamer beep.StreamSeekCloser
	ctrl     *beep.Ctrl
	format   beep.Format
	file     *os.File
	closed   bool
}

// Open decodes path and returns a paused track positioned at the start.
func Open(path string) (*Track, error) {
	streamer, format, f, err := decode(path)
	if err != nil {
		return nil, err
	}
	return &Track{
		streamer: streamer,
		ctrl:     &beep.Ctrl{Streamer: streamer, Paused: true},
		format:   format,
		file:     f,
	}, nil
}

// Loader opens tracks for the session.
func Loader(path string) (timing.Audio, error) {
	return Open(path)
}

// Format returns the decoded stream format.
func (t *Track) Format() beep.Format {
	return t.format
}

// Duration is the total length of the track.
func (t *Track) Duration() time.Duration {
	return t.format.SampleRate.D(t.streamer.Len())
}

// Play seeks to at and resumes. Positions past the end are clamped; a
// negative position starts from the beginning.
func (t *Track) Play(at time.Duration) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return errors.New("track is closed")
	}

	pos := t.format.SampleRate.N(at)
	if pos < 0 {
		pos = 0
	}
	if n := t.streamer.Len(); pos > n {
		pos = n
	}
	if err := t.streamer.Seek(pos); err != nil {
		return fmt.Errorf("seek audio: %w", err)
	}
	t.ctrl.Paused = false
	return nil
}

// Pause stops playback and keeps the position.
func (t *Track) Pause() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ctrl.Paused = true
	return nil
}

// Playing reports whether the track is unpaused.
func (t *Track) Playing() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return !t.closed && !t.ctrl.Paused
}

// Position is the current playback position.
func (t *Track) Position() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.format.SampleRate.D(t.streamer.Position())
}

// Stream implements beep.Streamer. A paused track streams silence.
func (t *Track) Stream(samples [][2]float64) (int, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return 0, false
	}
	return t.ctrl.Stream(samples)
}

// Err implements beep.Streamer.
func (t *Track) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.streamer.Err()
}

// Streamer returns the track as a beep.Streamer for speaker.Play.
func (t *Track) Streamer() beep.Streamer {
	return t
}

// Close releases the decoder and the underlying file.
func (t *Track) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	return closeAll(t.streamer, t.file)
}

// closeAll closes the streamer and then the file, which some decoders
// already close themselves.
func closeAll(streamer beep.StreamSeekCloser, f *os.File) error {
	err := streamer.Close()
	if ferr := f.Close(); ferr != nil && !errors.Is(ferr, os.ErrClosed) && err == nil {
		err = ferr
	}
	return err
}

var (
	_ timing.Audio  = (*Track)(nil)
	_ beep.Streamer = (*Track)(nil)
	_ io.Closer     = (*Track)(nil)
)
