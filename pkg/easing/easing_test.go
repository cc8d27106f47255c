package easing

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEase_Endpoints(t *testing.T) {
	for _, tag := range Tags() {
		t.Run(tag.String(), func(t *testing.T) {
			assert.Equal(t, 0.0, Ease(tag, 0))
			assert.Equal(t, 1.0, Ease(tag, 1))
		})
	}
}

func TestEase_ClampsInput(t *testing.T) {
	assert.Equal(t, 0.0, Ease(OutBack, -0.5))
	assert.Equal(t, 1.0, Ease(InBack, 7))
}

func TestEase_InOutMidpoint(t *testing.T) {
	for _, tag := range Tags() {
		if !strings.HasPrefix(tag.String(), "easeInOut") {
			continue
		}
		assert.InDelta(t, 0.5, Ease(tag, 0.5), 1e-9, tag.String())
	}
}

func TestEase_MonotonicFamilies(t *testing.T) {
	// Everything before the overshoot families never turns back.
	for tag := Linear; tag <= InOutCirc; tag++ {
		prev := Ease(tag, 0)
		for i := 1; i <= 200; i++ {
			v := Ease(tag, float64(i)/200)
			if v < prev-1e-12 {
				t.Fatalf("%s decreased at step %d: %v < %v", tag, i, v, prev)
			}
			prev = v
		}
	}
}

func TestEase_Overshoot(t *testing.T) {
	assert.Less(t, Ease(InBack, 0.2), 0.0, "easeInBack dips below zero")
	assert.Greater(t, Ease(OutBack, 0.8), 1.0, "easeOutBack overshoots one")
	assert.Greater(t, Ease(OutElastic, 0.1), 1.0)
}

func TestEase_Shapes(t *testing.T) {
	assert.InDelta(t, 0.25, Ease(InQuad, 0.5), 1e-12)
	assert.InDelta(t, 0.875, Ease(OutCubic, 0.5), 1e-12)
	assert.InDelta(t, 0.3, Ease(Linear, 0.3), 1e-12)
	assert.InDelta(t, 0.75, Ease(OutQuad, 0.5), 1e-12)
}

func TestEase_UnknownTagPanics(t *testing.T) {
	assert.Panics(t, func() { Ease(Tag(200), 0.5) })
	assert.False(t, Tag(200).Valid())
}

func TestParse(t *testing.T) {
	t.Run("Known Names", func(t *testing.T) {
		for _, tag := range Tags() {
			got, err := Parse(tag.String())
			require.NoError(t, err)
			assert.Equal(t, tag, got)
		}
	})

	t.Run("Unknown Name", func(t *testing.T) {
		_, err := Parse("easeSideways")
		assert.Error(t, err)
	})

	t.Run("Text Encoding", func(t *testing.T) {
		text, err := InOutElastic.MarshalText()
		require.NoError(t, err)
		assert.Equal(t, "easeInOutElastic", string(text))

		var tag Tag
		require.NoError(t, tag.UnmarshalText([]byte("easeOutBounce")))
		assert.Equal(t, OutBounce, tag)

		_, err = Tag(99).MarshalText()
		assert.Error(t, err)
	})
}
