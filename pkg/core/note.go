package core

import (
	"fmt"
	"math"

	"github.com/aretw0/tickline/pkg/timing"
)

// NoteType is the gameplay kind of a note.
type NoteType uint8

const (
	Tap NoteType = iota
	Hold
	Flick
	Drag
)

var noteTypeNames = [...]string{"tap", "hold", "flick", "drag"}

func (t NoteType) String() string {
	if int(t) < len(noteTypeNames) {
		return noteTypeNames[t]
	}
	return fmt.Sprintf("NoteType(%d)", uint8(t))
}

// ParseNoteType resolves a persisted note type name.
func ParseNoteType(name string) (NoteType, error) {
	for i, n := range noteTypeNames {
		if n == name {
			return NoteType(i), nil
		}
	}
	return 0, fmt.Errorf("unknown note type %q", name)
}

// MarshalText implements encoding.TextMarshaler.
func (t NoteType) MarshalText() ([]byte, error) {
	if int(t) >= len(noteTypeNames) {
		return nil, fmt.Errorf("unknown note type %d", uint8(t))
	}
	return []byte(noteTypeNames[t]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *NoteType) UnmarshalText(text []byte) error {
	parsed, err := ParseNoteType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Note is a placed note. It belongs to exactly one judge line.
type Note struct {
	ID        *int
	Type      NoteType
	Time      timing.Tick
	HoldTime  *timing.Tick // only for Hold
	PosX      float64
	Width     float64 // relative to the default note size
	IsFake    bool
	FallSpeed float64 // relative multiplier
	FallSide  bool
}

// NoteSpec describes a note to construct. Zero FallSpeed means the default
// (1) and a nil FallSide means the default (true).
type NoteSpec struct {
	ID        *int
	Type      NoteType
	Time      timing.Tick
	HoldTime  *timing.Tick
	PosX      float64
	Width     float64
	IsFake    bool
	FallSpeed float64
	FallSide  *bool
}

// NewNote validates spec and builds the note. HoldTime is dropped for every
// type other than Hold.
func NewNote(spec NoteSpec) (Note, error) {
	n := Note{
		ID:        spec.ID,
		Type:      spec.Type,
		Time:      spec.Time,
		HoldTime:  spec.HoldTime,
		PosX:      spec.PosX,
		Width:     spec.Width,
		IsFake:    spec.IsFake,
		FallSpeed: spec.FallSpeed,
		FallSide:  true,
	}
	if spec.FallSide != nil {
		n.FallSide = *spec.FallSide
	}
	if n.FallSpeed == 0 {
		n.FallSpeed = 1
	}
	if n.Type != Hold {
		n.HoldTime = nil
	} else if n.HoldTime != nil {
		h := *n.HoldTime
		n.HoldTime = &h
	}
	if n.ID != nil {
		id := *n.ID
		n.ID = &id
	}
	if err := n.Validate(); err != nil {
		return Note{}, err
	}
	return n, nil
}

// Validate checks the note invariants.
func (n Note) Validate() error {
	if int(n.Type) >= len(noteTypeNames) {
		return invalid("note type", "unknown type %d", uint8(n.Type))
	}
	if n.Time < 0 {
		return invalid("note time", "must not be negative, got %d", n.Time)
	}
	if n.Type == Hold {
		if n.HoldTime == nil {
			return invalid("hold time", "hold note requires a hold time")
		}
		if *n.HoldTime <= 0 {
			return invalid("hold time", "must be positive, got %d", *n.HoldTime)
		}
	}
	if !finite(n.Width) || n.Width <= 0 {
		return invalid("note width", "must be positive, got %v", n.Width)
	}
	if !finite(n.PosX) {
		return invalid("note posX", "must be finite")
	}
	if !finite(n.FallSpeed) {
		return invalid("note fall speed", "must be finite")
	}
	if n.ID != nil && *n.ID < 0 {
		return invalid("note id", "must not be negative, got %d", *n.ID)
	}
	return nil
}

// End is the last tick the note occupies.
func (n Note) End() timing.Tick {
	if n.Type == Hold && n.HoldTime != nil {
		return n.Time + *n.HoldTime
	}
	return n.Time
}

// Equal compares every field of the note.
func (n Note) Equal(o Note) bool {
	return equalIntPtr(n.ID, o.ID) &&
		n.Type == o.Type &&
		n.Time == o.Time &&
		equalIntPtr(n.HoldTime, o.HoldTime) &&
		n.PosX == o.PosX &&
		n.Width == o.Width &&
		n.IsFake == o.IsFake &&
		n.FallSpeed == o.FallSpeed &&
		n.FallSide == o.FallSide
}

func (n Note) clone() Note {
	c := n
	if n.ID != nil {
		id := *n.ID
		c.ID = &id
	}
	if n.HoldTime != nil {
		h := *n.HoldTime
		c.HoldTime = &h
	}
	return c
}

func equalIntPtr(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
