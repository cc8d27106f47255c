// Package timing converts between musical ticks and wall-clock time and
// drives the playback position of an open chart.
//
// The Clock never owns a timer. Hosts call Sample from their own loop (for
// example every 10ms); each sample is recomputed from the anchor recorded at
// Start, so frequent sampling does not accumulate drift.
package timing

import (
	"errors"
	"time"
)

// ErrNotRunning is returned by Sample when the clock is stopped.
var ErrNotRunning = errors.New("clock is not running")

// ErrRunning is returned by operations that need a stopped clock.
var ErrRunning = errors.New("clock is running")

// Audio is the playable-audio-handle collaborator driven by the clock.
type Audio interface {
	// Play seeks to at and starts playback.
	Play(at time.Duration) error
	// Pause stops playback, keeping the position.
	Pause() error
}

// State is a snapshot of the playback state.
type State struct {
	CurrentTime  float64    `json:"currentTime"`
	IsRunning    bool       `json:"isRunning"`
	Anchor       *time.Time `json:"anchor,omitempty"`
	TickAtAnchor float64    `json:"tickAtAnchor"`
}

// Clock holds the playback position of one document. It is not safe for
// concurrent use; the owning session serializes access.
type Clock struct {
	now   func() time.Time
	audio Audio

	current      float64
	running      bool
	anchor       time.Time
	tickAtAnchor float64
	tempo        Tempo
}

// NewClock creates a stopped clock at tick zero. A nil now uses time.Now.
func NewClock(now func() time.Time) *Clock {
	if now == nil {
		now = time.Now
	}
	return &Clock{now: now}
}

// SetAudio attaches the audio handle played and paused alongside the clock.
func (c *Clock) SetAudio(a Audio) {
	c.audio = a
}

// Running reports whether the clock is advancing.
func (c *Clock) Running() bool {
	return c.running
}

// Position returns the current tick position without advancing the stored
// state. While running it is the interpolated position.
func (c *Clock) Position() float64 {
	if !c.running {
		return c.current
	}
	return c.at(c.now())
}

// Start anchors the clock at the current position and starts the audio at the
// matching time. Starting a running clock is a no-op.
//
// The clock is running even if the audio fails to start; the audio error is
// returned for the caller to report.
func (c *Clock) Start(tempo Tempo) error {
	if c.running {
		return nil
	}
	if err := tempo.Validate(); err != nil {
		return err
	}
	c.tempo = tempo
	c.anchor = c.now()
	c.tickAtAnchor = c.current
	c.running = true

	if c.audio != nil {
		return c.audio.Play(tempo.AudioPosition(c.current))
	}
	return nil
}

// Stop freezes the position and pauses the audio. Stopping a stopped clock
// is a no-op and leaves the position unchanged.
func (c *Clock) Stop() error {
	if !c.running {
		return nil
	}
	c.current = c.at(c.now())
	c.anchor = time.Time{}
	c.running = false

	if c.audio != nil {
		return c.audio.Pause()
	}
	return nil
}

// Sample returns the interpolated tick position of a running clock.
func (c *Clock) Sample() (float64, error) {
	if !c.running {
		return c.current, ErrNotRunning
	}
	return c.at(c.now()), nil
}

// Seek moves a stopped clock. Negative positions are clamped to zero.
func (c *Clock) Seek(ticks float64) error {
	if c.running {
		return ErrRunning
	}
	if ticks < 0 {
		ticks = 0
	}
	c.current = ticks
	return nil
}

// Reset stops the clock without touching the audio and rewinds to zero.
func (c *Clock) Reset() {
	c.running = false
	c.anchor = time.Time{}
	c.current = 0
	c.tickAtAnchor = 0
}

// State returns a snapshot of the playback state.
func (c *Clock) State() State {
	s := State{
		CurrentTime:  c.Position(),
		IsRunning:    c.running,
		TickAtAnchor: c.tickAtAnchor,
	}
	if c.running {
		anchor := c.anchor
		s.Anchor = &anchor
	}
	return s
}

func (c *Clock) at(now time.Time) float64 {
	elapsed := now.Sub(c.anchor).Seconds()
	return c.tickAtAnchor + elapsed*c.tempo.TickPerSecond()
}
