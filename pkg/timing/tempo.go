package timing

import (
	"fmt"
	"time"
)

// Tick is the indivisible unit of musical time. TickPerBeat ticks make one beat.
type Tick = int

// Tempo is the constant-BPM mapping between ticks and wall-clock seconds.
// Offset shifts where the audio sits relative to tick zero and never changes
// tick values themselves.
type Tempo struct {
	TickPerBeat int
	BPM         int
	Offset      float64 // seconds
}

// Validate reports whether the tempo can convert between domains.
func (t Tempo) Validate() error {
	if t.TickPerBeat <= 0 {
		return fmt.Errorf("tick per beat must be positive, got %d", t.TickPerBeat)
	}
	if t.BPM <= 0 {
		return fmt.Errorf("bpm must be positive, got %d", t.BPM)
	}
	return nil
}

// TickPerSecond is the tick rate of the clock while running.
func (t Tempo) TickPerSecond() float64 {
	return float64(t.TickPerBeat) * float64(t.BPM) / 60
}

// TicksToSeconds converts a tick position to seconds from tick zero.
func (t Tempo) TicksToSeconds(ticks float64) float64 {
	return ticks / float64(t.TickPerBeat) * 60 / float64(t.BPM)
}

// SecondsToTicks is the inverse of TicksToSeconds.
func (t Tempo) SecondsToTicks(seconds float64) float64 {
	return seconds * float64(t.BPM) / 60 * float64(t.TickPerBeat)
}

// AudioPosition is where the audio must be when the chart is at ticks.
// Positions before the start of the audio are floored at zero.
func (t Tempo) AudioPosition(ticks float64) time.Duration {
	seconds := t.TicksToSeconds(ticks) + t.Offset
	if seconds < 0 {
		return 0
	}
	return time.Duration(seconds * float64(time.Second))
}
