package core

import (
	"fmt"

	"github.com/aretw0/tickline/pkg/timing"
)

// Snapshot is the plain, fully exported form of a Document. Storage adapters
// encode and decode snapshots; FromSnapshot is the only way back to a live
// document and enforces every invariant.
type Snapshot struct {
	Metadata    Metadata
	TickPerBeat int
	BPM         int
	ChartLength timing.Tick
	Offset      float64
	Highlights  []HighlightedTick
	Lines       []LineSnapshot
	Assets      Assets
	Editor      EditorSettings
}

// LineSnapshot is the plain form of a JudgeLine. Curves holds only the
// channels that have keyframes.
type LineSnapshot struct {
	ID     int
	Notes  []Note
	Curves map[Channel][]Keyframe
}

// Snapshot copies the document into its plain form.
func (d *Document) Snapshot() Snapshot {
	s := Snapshot{
		Metadata:    d.Metadata,
		TickPerBeat: d.tempo.TickPerBeat,
		BPM:         d.tempo.BPM,
		ChartLength: d.chartLength,
		Offset:      d.tempo.Offset,
		Highlights:  d.Highlights(),
		Assets:      d.Assets,
		Editor:      d.Editor,
	}
	for _, l := range d.lines {
		ls := LineSnapshot{ID: l.ID, Notes: l.Notes()}
		for i := range l.curves {
			if l.curves[i].Len() == 0 {
				continue
			}
			if ls.Curves == nil {
				ls.Curves = make(map[Channel][]Keyframe)
			}
			ls.Curves[Channel(i)] = l.curves[i].Keyframes()
		}
		s.Lines = append(s.Lines, ls)
	}
	return s
}

// FromSnapshot rebuilds a document. Only the limits clamp values: a negative
// chart length, a repeated highlight, a duplicate line id or any invalid note
// or curve is a validation error. Highlight divisibility is an insertion rule
// and is not re-checked here.
func FromSnapshot(s Snapshot, limits Limits) (*Document, error) {
	d := &Document{
		Metadata: s.Metadata,
		Editor:   s.Editor,
		Assets:   s.Assets,
		limits:   limits,
	}
	if int(s.Metadata.Copyright) >= len(copyrightNames) {
		return nil, invalid("copyright", "unknown mode %d", uint8(s.Metadata.Copyright))
	}
	if err := d.SetTempo(s.TickPerBeat, s.BPM); err != nil {
		return nil, err
	}
	if !finite(s.Offset) {
		return nil, invalid("offset", "must be finite")
	}
	d.SetOffset(s.Offset)
	if s.ChartLength < 0 {
		return nil, invalid("chart length", "must not be negative, got %d", s.ChartLength)
	}
	d.SetChartLength(s.ChartLength)

	for _, h := range s.Highlights {
		if h.Value <= 0 {
			return nil, invalid("highlighted tick", "value must be positive, got %d", h.Value)
		}
		d.highlights = append(d.highlights, h)
	}

	for _, ls := range s.Lines {
		l, err := d.AddLine(ls.ID)
		if err != nil {
			return nil, err
		}
		for i, n := range ls.Notes {
			if err := l.AddNote(n); err != nil {
				return nil, fmt.Errorf("line %d note %d: %w", ls.ID, i, err)
			}
		}
		for ch, keys := range ls.Curves {
			curve, err := l.Curve(ch)
			if err != nil {
				return nil, err
			}
			c, err := NewCurve(keys...)
			if err != nil {
				return nil, fmt.Errorf("line %d curve %s: %w", ls.ID, ch, err)
			}
			*curve = c
		}
	}

	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}
