package core

import (
	"fmt"
	"sort"

	"github.com/aretw0/tickline/pkg/timing"
)

// Channel names an animated property of a judge line.
type Channel uint8

const (
	ControlX Channel = iota
	ControlY
	Angle
	Speed
	NoteAlpha
	LineAlpha
	DisplayRange

	channelCount
)

var channelNames = [channelCount]string{
	"controlX", "controlY", "angle", "speed", "noteAlpha", "lineAlpha", "displayRange",
}

// Channels lists every channel in a stable order.
func Channels() []Channel {
	chs := make([]Channel, channelCount)
	for i := range chs {
		chs[i] = Channel(i)
	}
	return chs
}

func (c Channel) String() string {
	if c < channelCount {
		return channelNames[c]
	}
	return fmt.Sprintf("Channel(%d)", uint8(c))
}

// ParseChannel resolves a channel name such as "lineAlpha".
func ParseChannel(name string) (Channel, error) {
	for i, n := range channelNames {
		if n == name {
			return Channel(i), nil
		}
	}
	return 0, fmt.Errorf("unknown channel %q", name)
}

// JudgeLine owns its notes and one property curve per channel.
type JudgeLine struct {
	ID     int
	notes  []Note
	curves [channelCount]Curve
	// sorted tracks whether notes are still ordered by time, so window
	// queries can binary-search.
	sorted bool
}

// NewJudgeLine creates an empty line.
func NewJudgeLine(id int) (*JudgeLine, error) {
	if id < 0 {
		return nil, invalid("line id", "must not be negative, got %d", id)
	}
	return &JudgeLine{ID: id, sorted: true}, nil
}

// Notes returns a copy of the notes in insertion order.
func (l *JudgeLine) Notes() []Note {
	out := make([]Note, len(l.notes))
	for i, n := range l.notes {
		out[i] = n.clone()
	}
	return out
}

// NoteCount returns the number of notes on the line.
func (l *JudgeLine) NoteCount() int { return len(l.notes) }

// AddNote validates n and appends it. Notes are not re-sorted.
func (l *JudgeLine) AddNote(n Note) error {
	if err := n.Validate(); err != nil {
		return err
	}
	if len(l.notes) > 0 && n.Time < l.notes[len(l.notes)-1].Time {
		l.sorted = false
	}
	l.notes = append(l.notes, n.clone())
	return nil
}

// RemoveNote deletes the i-th note.
func (l *JudgeLine) RemoveNote(i int) (Note, error) {
	if i < 0 || i >= len(l.notes) {
		return Note{}, outOfRange("note", i, len(l.notes))
	}
	removed := l.notes[i]
	l.notes = append(l.notes[:i], l.notes[i+1:]...)
	if len(l.notes) == 0 {
		l.notes = nil
		l.sorted = true
	}
	return removed, nil
}

// SortNotes orders notes by time, keeping insertion order for equal times.
func (l *JudgeLine) SortNotes() {
	sort.SliceStable(l.notes, func(i, j int) bool { return l.notes[i].Time < l.notes[j].Time })
	l.sorted = true
}

// Sorted reports whether notes are ordered by time.
func (l *JudgeLine) Sorted() bool { return l.sorted }

// NotesInWindow returns the notes whose time lies in [from, to). It
// binary-searches while the notes are sorted and scans otherwise.
func (l *JudgeLine) NotesInWindow(from, to timing.Tick) []Note {
	var out []Note
	if from >= to {
		return out
	}
	if !l.sorted {
		for _, n := range l.notes {
			if n.Time >= from && n.Time < to {
				out = append(out, n.clone())
			}
		}
		return out
	}
	lo := sort.Search(len(l.notes), func(i int) bool { return l.notes[i].Time >= from })
	hi := sort.Search(len(l.notes), func(i int) bool { return l.notes[i].Time >= to })
	for _, n := range l.notes[lo:hi] {
		out = append(out, n.clone())
	}
	return out
}

// Curve returns the curve of channel ch for reading and editing.
func (l *JudgeLine) Curve(ch Channel) (*Curve, error) {
	if ch >= channelCount {
		return nil, invalid("channel", "unknown channel %d", uint8(ch))
	}
	return &l.curves[ch], nil
}

// Equal compares the line id and its notes.
func (l *JudgeLine) Equal(o *JudgeLine) bool {
	if l.ID != o.ID || len(l.notes) != len(o.notes) {
		return false
	}
	for i := range l.notes {
		if !l.notes[i].Equal(o.notes[i]) {
			return false
		}
	}
	return true
}

// DeepEqual also compares every curve.
func (l *JudgeLine) DeepEqual(o *JudgeLine) bool {
	if !l.Equal(o) {
		return false
	}
	for i := range l.curves {
		if !l.curves[i].Equal(&o.curves[i]) {
			return false
		}
	}
	return true
}

// Validate checks the line, its notes and curves.
func (l *JudgeLine) Validate() error {
	if l.ID < 0 {
		return invalid("line id", "must not be negative, got %d", l.ID)
	}
	for i, n := range l.notes {
		if err := n.Validate(); err != nil {
			return fmt.Errorf("line %d note %d: %w", l.ID, i, err)
		}
	}
	for i := range l.curves {
		if err := l.curves[i].Validate(); err != nil {
			return fmt.Errorf("line %d curve %s: %w", l.ID, Channel(i), err)
		}
	}
	return nil
}

// Clone returns a deep copy.
func (l *JudgeLine) Clone() *JudgeLine {
	c := &JudgeLine{ID: l.ID, sorted: l.sorted}
	if len(l.notes) > 0 {
		c.notes = make([]Note, len(l.notes))
		for i, n := range l.notes {
			c.notes[i] = n.clone()
		}
	}
	for i := range l.curves {
		c.curves[i] = l.curves[i].clone()
	}
	return c
}
