package core

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/aretw0/tickline/pkg/timing"
)

// Copyright is the licensing mode declared for the music.
type Copyright uint8

const (
	CopyrightFull Copyright = iota
	CopyrightLimited
	CopyrightNone
)

var copyrightNames = [...]string{"full", "limited", "none"}

func (c Copyright) String() string {
	if int(c) < len(copyrightNames) {
		return copyrightNames[c]
	}
	return fmt.Sprintf("Copyright(%d)", uint8(c))
}

// MarshalText implements encoding.TextMarshaler.
func (c Copyright) MarshalText() ([]byte, error) {
	if int(c) >= len(copyrightNames) {
		return nil, fmt.Errorf("unknown copyright mode %d", uint8(c))
	}
	return []byte(copyrightNames[c]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Copyright) UnmarshalText(text []byte) error {
	for i, n := range copyrightNames {
		if n == string(text) {
			*c = Copyright(i)
			return nil
		}
	}
	return fmt.Errorf("unknown copyright mode %q", string(text))
}

// Metadata describes the music and the chart.
type Metadata struct {
	MusicName       string
	AuthorName      string
	ChartLevel      string
	ChartAuthorName string
	Copyright       Copyright
}

// Color is an RGB color, persisted as "#rrggbb".
type Color struct {
	R, G, B uint8
}

func (c Color) String() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// ParseColor reads "#rrggbb" (the leading '#' is optional).
func ParseColor(s string) (Color, error) {
	hex := strings.TrimPrefix(s, "#")
	if len(hex) != 6 {
		return Color{}, fmt.Errorf("invalid color %q", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("invalid color %q", s)
	}
	return Color{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}, nil
}

// MarshalText implements encoding.TextMarshaler.
func (c Color) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Color) UnmarshalText(text []byte) error {
	parsed, err := ParseColor(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// HighlightedTick marks a beat subdivision (Value 4 means 1/4 beat) with a
// grid color.
type HighlightedTick struct {
	Value int
	Color Color
}

// EditorSettings are authoring preferences stored with the chart.
type EditorSettings struct {
	FastHold        bool
	NoteDivision    int
	DefaultHoldTime timing.Tick
}

// Assets names the cached audio and image files. Empty means absent.
type Assets struct {
	Audio string
	Image string
}

// Limits bound the silently clamped settings.
type Limits struct {
	OffsetMin       float64
	OffsetMax       float64
	MaxChartSeconds float64 // zero disables the upper bound
}

// Settings seed a new document.
type Settings struct {
	TickPerBeat int
	BPM         int
	ChartLength timing.Tick
	Offset      float64
	Highlights  []HighlightedTick
	Editor      EditorSettings
	Limits      Limits
}

// DefaultSettings mirrors a fresh chart in the editor.
func DefaultSettings() Settings {
	return Settings{
		TickPerBeat: 48,
		BPM:         96,
		ChartLength: 120,
		Highlights: []HighlightedTick{
			{Value: 2, Color: Color{B: 0xff}},
			{Value: 4, Color: Color{R: 0xff}},
		},
		Editor: EditorSettings{NoteDivision: 16, DefaultHoldTime: 48},
		Limits: Limits{OffsetMin: -10, OffsetMax: 10, MaxChartSeconds: 600},
	}
}

// Document is the unit of persistence: it owns every judge line and, through
// them, every note.
type Document struct {
	Metadata Metadata
	Editor   EditorSettings
	Assets   Assets

	tempo       timing.Tempo
	chartLength timing.Tick
	highlights  []HighlightedTick
	lines       []*JudgeLine
	limits      Limits
}

// NewDocument creates a document with one judge line (id 0).
func NewDocument(s Settings) (*Document, error) {
	d := &Document{
		Editor: s.Editor,
		limits: s.Limits,
	}
	if err := d.SetTempo(s.TickPerBeat, s.BPM); err != nil {
		return nil, err
	}
	d.SetOffset(s.Offset)
	d.SetChartLength(s.ChartLength)
	for _, h := range s.Highlights {
		if err := d.AddHighlight(h.Value, h.Color); err != nil {
			return nil, fmt.Errorf("default highlight: %w", err)
		}
	}
	if _, err := d.AddLine(0); err != nil {
		return nil, err
	}
	return d, nil
}

// Tempo returns the tick configuration used for time conversion.
func (d *Document) Tempo() timing.Tempo { return d.tempo }

// SetTempo changes tick resolution and BPM. Existing highlighted ticks are
// kept even if they no longer divide the new resolution.
func (d *Document) SetTempo(tickPerBeat, bpm int) error {
	t := timing.Tempo{TickPerBeat: tickPerBeat, BPM: bpm, Offset: d.tempo.Offset}
	if err := t.Validate(); err != nil {
		return &ValidationError{Field: "tempo", Reason: err.Error()}
	}
	d.tempo = t
	d.chartLength = d.clampChartLength(d.chartLength)
	return nil
}

// Offset returns the audio offset in seconds.
func (d *Document) Offset() float64 { return d.tempo.Offset }

// SetOffset clamps seconds to the configured range and stores it.
func (d *Document) SetOffset(seconds float64) {
	if math.IsNaN(seconds) {
		seconds = 0
	}
	if d.limits.OffsetMin < d.limits.OffsetMax {
		seconds = math.Max(d.limits.OffsetMin, math.Min(d.limits.OffsetMax, seconds))
	}
	d.tempo.Offset = seconds
}

// ChartLength returns the chart length in ticks.
func (d *Document) ChartLength() timing.Tick { return d.chartLength }

// SetChartLength clamps ticks to [0, max] and stores it.
func (d *Document) SetChartLength(ticks timing.Tick) {
	d.chartLength = d.clampChartLength(ticks)
}

// MaxChartLength is the longest chart length in ticks, or -1 when unbounded.
func (d *Document) MaxChartLength() timing.Tick {
	if d.limits.MaxChartSeconds <= 0 || d.tempo.Validate() != nil {
		return -1
	}
	return timing.Tick(math.Floor(d.tempo.SecondsToTicks(d.limits.MaxChartSeconds) + 1e-9))
}

func (d *Document) clampChartLength(ticks timing.Tick) timing.Tick {
	if ticks < 0 {
		return 0
	}
	if limit := d.MaxChartLength(); limit >= 0 && ticks > limit {
		return limit
	}
	return ticks
}

// Limits returns the clamp bounds.
func (d *Document) Limits() Limits { return d.limits }

// Highlights returns a copy of the highlighted ticks in insertion order.
func (d *Document) Highlights() []HighlightedTick {
	return append([]HighlightedTick(nil), d.highlights...)
}

// AddHighlight registers a subdivision marker. Values that are already
// present or do not divide the tick resolution are rejected and the set is
// left unchanged.
func (d *Document) AddHighlight(value int, color Color) error {
	if value <= 0 {
		return invalid("highlighted tick", "value must be positive, got %d", value)
	}
	if d.tempo.TickPerBeat%value != 0 {
		return invalid("highlighted tick", "%d does not divide %d ticks per beat", value, d.tempo.TickPerBeat)
	}
	for _, h := range d.highlights {
		if h.Value == value {
			return invalid("highlighted tick", "1/%d is already highlighted", value)
		}
	}
	d.highlights = append(d.highlights, HighlightedTick{Value: value, Color: color})
	return nil
}

// SetHighlightColor recolors the marker at index i.
func (d *Document) SetHighlightColor(i int, color Color) error {
	if i < 0 || i >= len(d.highlights) {
		return outOfRange("highlighted tick", i, len(d.highlights))
	}
	d.highlights[i].Color = color
	return nil
}

// RemoveHighlight deletes the marker at index i.
func (d *Document) RemoveHighlight(i int) (HighlightedTick, error) {
	if i < 0 || i >= len(d.highlights) {
		return HighlightedTick{}, outOfRange("highlighted tick", i, len(d.highlights))
	}
	removed := d.highlights[i]
	d.highlights = append(d.highlights[:i], d.highlights[i+1:]...)
	if len(d.highlights) == 0 {
		d.highlights = nil
	}
	return removed, nil
}

// Lines returns the judge lines in order. The lines themselves are live.
func (d *Document) Lines() []*JudgeLine {
	return append([]*JudgeLine(nil), d.lines...)
}

// Line finds a judge line by id.
func (d *Document) Line(id int) (*JudgeLine, error) {
	for _, l := range d.lines {
		if l.ID == id {
			return l, nil
		}
	}
	return nil, fmt.Errorf("judge line %d: %w", id, ErrNotFound)
}

// AddLine appends a new judge line. Ids are unique within the document.
func (d *Document) AddLine(id int) (*JudgeLine, error) {
	for _, l := range d.lines {
		if l.ID == id {
			return nil, invalid("line id", "judge line %d already exists", id)
		}
	}
	l, err := NewJudgeLine(id)
	if err != nil {
		return nil, err
	}
	d.lines = append(d.lines, l)
	return l, nil
}

// RemoveLine deletes a judge line together with its notes and curves.
func (d *Document) RemoveLine(id int) error {
	for i, l := range d.lines {
		if l.ID == id {
			d.lines = append(d.lines[:i], d.lines[i+1:]...)
			if len(d.lines) == 0 {
				d.lines = nil
			}
			return nil
		}
	}
	return fmt.Errorf("judge line %d: %w", id, ErrNotFound)
}

// NextLineID is one past the largest line id.
func (d *Document) NextLineID() int {
	next := 0
	for _, l := range d.lines {
		if l.ID >= next {
			next = l.ID + 1
		}
	}
	return next
}

// Validate checks every document invariant.
func (d *Document) Validate() error {
	if err := d.tempo.Validate(); err != nil {
		return &ValidationError{Field: "tempo", Reason: err.Error()}
	}
	if d.chartLength < 0 {
		return invalid("chart length", "must not be negative, got %d", d.chartLength)
	}
	if !finite(d.tempo.Offset) {
		return invalid("offset", "must be finite")
	}
	seen := make(map[int]bool, len(d.highlights))
	for _, h := range d.highlights {
		if h.Value <= 0 {
			return invalid("highlighted tick", "value must be positive, got %d", h.Value)
		}
		if seen[h.Value] {
			return invalid("highlighted tick", "1/%d appears twice", h.Value)
		}
		seen[h.Value] = true
	}
	ids := make(map[int]bool, len(d.lines))
	for _, l := range d.lines {
		if ids[l.ID] {
			return invalid("line id", "judge line %d appears twice", l.ID)
		}
		ids[l.ID] = true
		if err := l.Validate(); err != nil {
			return err
		}
	}
	if d.Editor.NoteDivision < 0 {
		return invalid("note division", "must not be negative, got %d", d.Editor.NoteDivision)
	}
	if d.Editor.DefaultHoldTime < 0 {
		return invalid("default hold time", "must not be negative, got %d", d.Editor.DefaultHoldTime)
	}
	return nil
}

// Clone returns a deep copy.
func (d *Document) Clone() *Document {
	c := *d
	c.highlights = append([]HighlightedTick(nil), d.highlights...)
	c.lines = nil
	for _, l := range d.lines {
		c.lines = append(c.lines, l.Clone())
	}
	return &c
}

// Equal reports deep equality of every persisted field.
func (d *Document) Equal(o *Document) bool {
	if d.Metadata != o.Metadata || d.Editor != o.Editor || d.Assets != o.Assets ||
		d.tempo != o.tempo || d.chartLength != o.chartLength ||
		len(d.highlights) != len(o.highlights) || len(d.lines) != len(o.lines) {
		return false
	}
	for i := range d.highlights {
		if d.highlights[i] != o.highlights[i] {
			return false
		}
	}
	for i := range d.lines {
		if !d.lines[i].DeepEqual(o.lines[i]) {
			return false
		}
	}
	return true
}
