package core_test

import (
	"math"
	"testing"

	"github.com/aretw0/tickline/pkg/core"
	"github.com/aretw0/tickline/pkg/easing"
	"github.com/aretw0/tickline/pkg/timing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ticks(v int) *timing.Tick { return &v }

func newDoc(t *testing.T) *core.Document {
	t.Helper()
	d, err := core.NewDocument(core.DefaultSettings())
	require.NoError(t, err)
	return d
}

func TestNewNote_HoldTime(t *testing.T) {
	_, err := core.NewNote(core.NoteSpec{Type: core.Hold, Time: 96, HoldTime: ticks(0), Width: 1})
	assert.ErrorIs(t, err, core.ErrValidation)

	_, err = core.NewNote(core.NoteSpec{Type: core.Hold, Time: 96, Width: 1})
	assert.ErrorIs(t, err, core.ErrValidation, "hold without a hold time")

	n, err := core.NewNote(core.NoteSpec{Type: core.Hold, Time: 96, HoldTime: ticks(50), Width: 1})
	require.NoError(t, err)
	assert.Equal(t, 146, n.End())
}

func TestNewNote_Defaults(t *testing.T) {
	n, err := core.NewNote(core.NoteSpec{Type: core.Tap, Time: 10, HoldTime: ticks(20), Width: 1})
	require.NoError(t, err)
	assert.Nil(t, n.HoldTime, "hold time is dropped for non-hold notes")
	assert.Equal(t, 1.0, n.FallSpeed)
	assert.True(t, n.FallSide)
	assert.Equal(t, 10, n.End())

	left := false
	n, err = core.NewNote(core.NoteSpec{Type: core.Drag, Width: 1, FallSide: &left})
	require.NoError(t, err)
	assert.False(t, n.FallSide)
}

func TestNewNote_Rejects(t *testing.T) {
	cases := map[string]core.NoteSpec{
		"negative time": {Type: core.Tap, Time: -1, Width: 1},
		"zero width":    {Type: core.Tap, Width: 0},
		"NaN width":     {Type: core.Tap, Width: math.NaN()},
		"infinite posX": {Type: core.Drag, Width: 1, PosX: math.Inf(1)},
		"unknown type":  {Type: core.NoteType(9), Width: 1},
	}
	for name, spec := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := core.NewNote(spec)
			assert.ErrorIs(t, err, core.ErrValidation)
		})
	}
}

func TestNoteType_Text(t *testing.T) {
	for _, nt := range []core.NoteType{core.Tap, core.Hold, core.Flick, core.Drag} {
		b, err := nt.MarshalText()
		require.NoError(t, err)
		var back core.NoteType
		require.NoError(t, back.UnmarshalText(b))
		assert.Equal(t, nt, back)
	}
	var nt core.NoteType
	assert.Error(t, nt.UnmarshalText([]byte("slide")))
}

func TestCurve_ValueAt(t *testing.T) {
	var empty core.Curve
	assert.Equal(t, 0.0, empty.ValueAt(12))

	c, err := core.NewCurve(
		core.Keyframe{Time: 0, Value: 0, Easing: easing.Linear},
		core.Keyframe{Time: 100, Value: 1, Easing: easing.InQuad},
		core.Keyframe{Time: 200, Value: 3, Easing: easing.Linear},
	)
	require.NoError(t, err)

	assert.Equal(t, 0.0, c.ValueAt(-50), "flat before the first keyframe")
	assert.Equal(t, 3.0, c.ValueAt(500), "flat after the last keyframe")
	assert.Equal(t, 1.0, c.ValueAt(100), "keyframe value is exact")
	assert.InDelta(t, 0.5, c.ValueAt(50), 1e-12)
	// InQuad from 1 to 3 at t=0.5: 1 + 2*0.25
	assert.InDelta(t, 1.5, c.ValueAt(150), 1e-12)
}

func TestCurve_Insert(t *testing.T) {
	var c core.Curve
	require.NoError(t, c.Insert(core.Keyframe{Time: 100, Value: 1}))
	require.NoError(t, c.Insert(core.Keyframe{Time: 0, Value: 0}))
	require.NoError(t, c.Insert(core.Keyframe{Time: 50, Value: 9}))
	require.NoError(t, c.Insert(core.Keyframe{Time: 50, Value: 5, Easing: easing.OutSine}))

	keys := c.Keyframes()
	require.Len(t, keys, 3)
	assert.Equal(t, []timing.Tick{0, 50, 100}, []timing.Tick{keys[0].Time, keys[1].Time, keys[2].Time})
	assert.Equal(t, 5.0, keys[1].Value, "equal time replaces")
	assert.Equal(t, easing.OutSine, keys[1].Easing)

	assert.ErrorIs(t, c.Insert(core.Keyframe{Time: 10, Easing: easing.Tag(200)}), core.ErrValidation)
	assert.ErrorIs(t, c.Insert(core.Keyframe{Time: 10, Value: math.Inf(-1)}), core.ErrValidation)
	assert.Equal(t, 3, c.Len())
}

func TestCurve_RemoveAt(t *testing.T) {
	c, err := core.NewCurve(core.Keyframe{Time: 0}, core.Keyframe{Time: 10, Value: 1})
	require.NoError(t, err)

	assert.ErrorIs(t, c.RemoveAt(2), core.ErrOutOfRange)
	assert.ErrorIs(t, c.RemoveAt(-1), core.ErrOutOfRange)
	require.NoError(t, c.RemoveAt(0))
	assert.Equal(t, 1.0, c.ValueAt(0))
}

func TestNewCurve_RejectsUnordered(t *testing.T) {
	_, err := core.NewCurve(core.Keyframe{Time: 10}, core.Keyframe{Time: 10})
	assert.ErrorIs(t, err, core.ErrValidation)
	_, err = core.NewCurve(core.Keyframe{Time: 10}, core.Keyframe{Time: 5})
	assert.ErrorIs(t, err, core.ErrValidation)
}

func mustNote(t *testing.T, at timing.Tick) core.Note {
	t.Helper()
	n, err := core.NewNote(core.NoteSpec{Type: core.Tap, Time: at, Width: 1})
	require.NoError(t, err)
	return n
}

func noteTimes(ns []core.Note) []timing.Tick {
	out := make([]timing.Tick, len(ns))
	for i, n := range ns {
		out[i] = n.Time
	}
	return out
}

func TestJudgeLine_NotesInWindow(t *testing.T) {
	l, err := core.NewJudgeLine(0)
	require.NoError(t, err)

	for _, at := range []timing.Tick{0, 48, 96, 144} {
		require.NoError(t, l.AddNote(mustNote(t, at)))
	}
	assert.True(t, l.Sorted())
	assert.Equal(t, []timing.Tick{48, 96}, noteTimes(l.NotesInWindow(48, 144)))

	require.NoError(t, l.AddNote(mustNote(t, 60)))
	assert.False(t, l.Sorted(), "earlier note breaks the order")
	assert.Equal(t, []timing.Tick{48, 96, 60}, noteTimes(l.NotesInWindow(48, 144)), "insertion order while unsorted")

	l.SortNotes()
	assert.True(t, l.Sorted())
	assert.Equal(t, []timing.Tick{48, 60, 96}, noteTimes(l.NotesInWindow(48, 144)))
	assert.Empty(t, l.NotesInWindow(10, 10))
}

func TestJudgeLine_RemoveNote(t *testing.T) {
	l, err := core.NewJudgeLine(3)
	require.NoError(t, err)
	require.NoError(t, l.AddNote(mustNote(t, 5)))

	_, err = l.RemoveNote(1)
	assert.ErrorIs(t, err, core.ErrOutOfRange)

	removed, err := l.RemoveNote(0)
	require.NoError(t, err)
	assert.Equal(t, 5, removed.Time)
	assert.Zero(t, l.NoteCount())

	_, err = core.NewJudgeLine(-1)
	assert.ErrorIs(t, err, core.ErrValidation)

	_, err = l.Curve(core.Channel(42))
	assert.ErrorIs(t, err, core.ErrValidation)
}

func TestChannels(t *testing.T) {
	chs := core.Channels()
	require.Len(t, chs, 7)
	for _, ch := range chs {
		parsed, err := core.ParseChannel(ch.String())
		require.NoError(t, err)
		assert.Equal(t, ch, parsed)
	}
	_, err := core.ParseChannel("colour")
	assert.Error(t, err)
}

func TestNewDocument_Defaults(t *testing.T) {
	d := newDoc(t)

	assert.Equal(t, 48, d.Tempo().TickPerBeat)
	assert.Equal(t, 96, d.Tempo().BPM)
	assert.Equal(t, 120, d.ChartLength())
	require.Len(t, d.Lines(), 1)
	assert.Equal(t, 0, d.Lines()[0].ID)
	assert.Equal(t, []core.HighlightedTick{
		{Value: 2, Color: core.Color{B: 0xff}},
		{Value: 4, Color: core.Color{R: 0xff}},
	}, d.Highlights())
}

func TestDocument_AddHighlight(t *testing.T) {
	d := newDoc(t)
	red := core.Color{R: 0xff}

	require.NoError(t, d.AddHighlight(6, red))
	assert.Len(t, d.Highlights(), 3)

	assert.ErrorIs(t, d.AddHighlight(5, red), core.ErrValidation, "5 does not divide 48")
	assert.ErrorIs(t, d.AddHighlight(6, red), core.ErrValidation, "already present")
	assert.ErrorIs(t, d.AddHighlight(0, red), core.ErrValidation)
	assert.Len(t, d.Highlights(), 3, "rejected values leave the set unchanged")

	removed, err := d.RemoveHighlight(0)
	require.NoError(t, err)
	assert.Equal(t, 2, removed.Value)
	_, err = d.RemoveHighlight(7)
	assert.ErrorIs(t, err, core.ErrOutOfRange)
}

func TestDocument_Clamps(t *testing.T) {
	d := newDoc(t)

	// 600s at 76.8 ticks per second.
	assert.Equal(t, 46080, d.MaxChartLength())
	d.SetChartLength(1_000_000)
	assert.Equal(t, 46080, d.ChartLength())
	d.SetChartLength(-5)
	assert.Equal(t, 0, d.ChartLength())

	d.SetOffset(42)
	assert.Equal(t, 10.0, d.Offset())
	d.SetOffset(-42)
	assert.Equal(t, -10.0, d.Offset())
	d.SetOffset(0.25)
	assert.Equal(t, 0.25, d.Offset())

	assert.ErrorIs(t, d.SetTempo(0, 96), core.ErrValidation)
	assert.ErrorIs(t, d.SetTempo(48, -1), core.ErrValidation)
}

func TestDocument_SetTempoReclampsLength(t *testing.T) {
	d := newDoc(t)
	d.SetChartLength(46080)
	require.NoError(t, d.SetTempo(24, 96))
	assert.Equal(t, 23040, d.ChartLength())
	assert.Len(t, d.Highlights(), 2, "highlights survive a resolution change")
}

func TestDocument_Lines(t *testing.T) {
	d := newDoc(t)

	_, err := d.AddLine(0)
	assert.ErrorIs(t, err, core.ErrValidation)

	l, err := d.AddLine(d.NextLineID())
	require.NoError(t, err)
	assert.Equal(t, 1, l.ID)
	require.NoError(t, l.AddNote(mustNote(t, 12)))

	require.NoError(t, d.RemoveLine(1))
	_, err = d.Line(1)
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.ErrorIs(t, d.RemoveLine(1), core.ErrNotFound)
	assert.Equal(t, 1, d.NextLineID())
}

func TestDocument_Clone(t *testing.T) {
	d := newDoc(t)
	l, err := d.Line(0)
	require.NoError(t, err)
	require.NoError(t, l.AddNote(mustNote(t, 12)))
	c, err := l.Curve(core.LineAlpha)
	require.NoError(t, err)
	require.NoError(t, c.Insert(core.Keyframe{Time: 0, Value: 1}))

	cp := d.Clone()
	assert.True(t, d.Equal(cp))

	cl, err := cp.Line(0)
	require.NoError(t, err)
	require.NoError(t, cl.AddNote(mustNote(t, 24)))
	assert.False(t, d.Equal(cp))
	assert.Equal(t, 1, l.NoteCount(), "clone does not share notes")
}

func TestColor_Parse(t *testing.T) {
	c, err := core.ParseColor("#00ff7f")
	require.NoError(t, err)
	assert.Equal(t, core.Color{G: 0xff, B: 0x7f}, c)
	assert.Equal(t, "#00ff7f", c.String())

	_, err = core.ParseColor("#12")
	assert.Error(t, err)
	_, err = core.ParseColor("zzzzzz")
	assert.Error(t, err)
}
