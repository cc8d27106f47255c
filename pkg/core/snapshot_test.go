package core_test

import (
	"testing"

	"github.com/aretw0/tickline/pkg/core"
	"github.com/aretw0/tickline/pkg/easing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sampleDocument builds a chart touching every persisted field.
func sampleDocument(t *testing.T) *core.Document {
	t.Helper()
	d := newDoc(t)
	d.Metadata = core.Metadata{
		MusicName:       "Lumen",
		AuthorName:      "kasa",
		ChartLevel:      "IN 14",
		ChartAuthorName: "tick",
		Copyright:       core.CopyrightLimited,
	}
	d.Assets = core.Assets{Audio: "audio.ogg", Image: "image.png"}
	d.Editor.FastHold = true
	d.SetOffset(-0.125)
	d.SetChartLength(960)
	require.NoError(t, d.AddHighlight(3, core.Color{G: 0x80}))

	l0, err := d.Line(0)
	require.NoError(t, err)
	id := 7
	n, err := core.NewNote(core.NoteSpec{ID: &id, Type: core.Hold, Time: 96, HoldTime: ticks(48), Width: 1.5, PosX: -0.5, IsFake: true, FallSpeed: 2})
	require.NoError(t, err)
	require.NoError(t, l0.AddNote(n))
	require.NoError(t, l0.AddNote(mustNote(t, 12)))

	l1, err := d.AddLine(4)
	require.NoError(t, err)
	c, err := l1.Curve(core.Angle)
	require.NoError(t, err)
	require.NoError(t, c.Insert(core.Keyframe{Time: 0, Value: 0, Easing: easing.InOutBack}))
	require.NoError(t, c.Insert(core.Keyframe{Time: 192, Value: 90}))
	return d
}

func TestSnapshot_RoundTrip(t *testing.T) {
	d := sampleDocument(t)

	back, err := core.FromSnapshot(d.Snapshot(), d.Limits())
	require.NoError(t, err)
	assert.True(t, d.Equal(back))

	l0, err := back.Line(0)
	require.NoError(t, err)
	assert.False(t, l0.Sorted(), "insertion order is kept")
}

func TestSnapshot_OnlyFilledChannels(t *testing.T) {
	s := sampleDocument(t).Snapshot()
	require.Len(t, s.Lines, 2)
	assert.Nil(t, s.Lines[0].Curves)
	assert.Len(t, s.Lines[1].Curves, 1)
	assert.Len(t, s.Lines[1].Curves[core.Angle], 2)
}

func TestFromSnapshot_Rejects(t *testing.T) {
	limits := core.DefaultSettings().Limits
	cases := map[string]func(s *core.Snapshot){
		"negative chart length": func(s *core.Snapshot) { s.ChartLength = -1 },
		"zero bpm":              func(s *core.Snapshot) { s.BPM = 0 },
		"duplicate highlight":   func(s *core.Snapshot) { s.Highlights = append(s.Highlights, s.Highlights[0]) },
		"duplicate line id":     func(s *core.Snapshot) { s.Lines = append(s.Lines, core.LineSnapshot{ID: 0}) },
		"negative line id":      func(s *core.Snapshot) { s.Lines = append(s.Lines, core.LineSnapshot{ID: -3}) },
		"hold without time": func(s *core.Snapshot) {
			s.Lines[0].Notes = append(s.Lines[0].Notes, core.Note{Type: core.Hold, Width: 1})
		},
		"unordered curve": func(s *core.Snapshot) {
			s.Lines[1].Curves[core.Angle] = []core.Keyframe{{Time: 5}, {Time: 1}}
		},
		"unknown copyright": func(s *core.Snapshot) { s.Metadata.Copyright = core.Copyright(9) },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			s := sampleDocument(t).Snapshot()
			mutate(&s)
			_, err := core.FromSnapshot(s, limits)
			assert.ErrorIs(t, err, core.ErrValidation)
		})
	}
}

func TestFromSnapshot_ClampsToLimits(t *testing.T) {
	s := sampleDocument(t).Snapshot()
	s.Offset = 99
	s.ChartLength = 10_000_000

	d, err := core.FromSnapshot(s, core.DefaultSettings().Limits)
	require.NoError(t, err)
	assert.Equal(t, 10.0, d.Offset())
	assert.Equal(t, d.MaxChartLength(), d.ChartLength())
}

func TestFromSnapshot_KeepsStaleHighlights(t *testing.T) {
	s := sampleDocument(t).Snapshot()
	s.TickPerBeat = 32 // 3 no longer divides the resolution

	d, err := core.FromSnapshot(s, core.DefaultSettings().Limits)
	require.NoError(t, err)
	assert.Len(t, d.Highlights(), 3)
}
