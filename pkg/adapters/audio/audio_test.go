package audio_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/tickline/pkg/adapters/audio"
	"github.com/aretw0/tickline/pkg/core"
)

var testFormat = beep.Format{SampleRate: 44100, NumChannels: 2, Precision: 2}

// silentWAV writes a wav file of the given length.
func silentWAV(t *testing.T, d time.Duration) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "silence.wav")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	require.NoError(t, wav.Encode(f, beep.Silence(testFormat.SampleRate.N(d)), testFormat))
	return path
}

func TestProbe(t *testing.T) {
	info, err := audio.Probe(silentWAV(t, 2*time.Second))
	require.NoError(t, err)
	assert.Equal(t, "wav", info.Format)
	assert.Equal(t, 44100, info.SampleRate)
	assert.Equal(t, 2, info.Channels)
	assert.Equal(t, 2*time.Second, info.Duration)
}

func TestProbe_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := audio.Probe(filepath.Join(dir, "missing.ogg"))
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = audio.Probe(filepath.Join(dir, "song.flac"))
	assert.ErrorIs(t, err, core.ErrValidation)

	bad := filepath.Join(dir, "bad.wav")
	require.NoError(t, os.WriteFile(bad, []byte("not a riff header"), 0644))
	_, err = audio.Probe(bad)
	assert.ErrorIs(t, err, core.ErrCorrupt)
}

func TestSupported(t *testing.T) {
	assert.True(t, audio.Supported("a.MP3"))
	assert.True(t, audio.Supported("a.ogg"))
	assert.True(t, audio.Supported("a.wav"))
	assert.False(t, audio.Supported("a.flac"))
}

func TestTrack_PlayPause(t *testing.T) {
	track, err := audio.Open(silentWAV(t, time.Second))
	require.NoError(t, err)
	defer track.Close()

	assert.False(t, track.Playing(), "tracks open paused")
	assert.Equal(t, time.Second, track.Duration())

	require.NoError(t, track.Play(500*time.Millisecond))
	assert.True(t, track.Playing())
	assert.Equal(t, 500*time.Millisecond, track.Position())

	buf := make([][2]float64, 441)
	n, ok := track.Streamer().Stream(buf)
	assert.True(t, ok)
	assert.Equal(t, 441, n)
	assert.Equal(t, 510*time.Millisecond, track.Position())

	require.NoError(t, track.Pause())
	assert.False(t, track.Playing())
	_, ok = track.Stream(buf)
	assert.True(t, ok, "a paused track streams silence")
	assert.Equal(t, 510*time.Millisecond, track.Position(), "paused position holds")
}

func TestTrack_PlayClampsPosition(t *testing.T) {
	track, err := audio.Open(silentWAV(t, time.Second))
	require.NoError(t, err)
	defer track.Close()

	require.NoError(t, track.Play(5*time.Second))
	assert.Equal(t, time.Second, track.Position())

	require.NoError(t, track.Play(-time.Second))
	assert.Equal(t, time.Duration(0), track.Position())
}

func TestTrack_Close(t *testing.T) {
	track, err := audio.Open(silentWAV(t, 100*time.Millisecond))
	require.NoError(t, err)

	require.NoError(t, track.Close())
	require.NoError(t, track.Close(), "closing twice is harmless")
	assert.Error(t, track.Play(0))
	_, ok := track.Stream(make([][2]float64, 10))
	assert.False(t, ok)
}

func TestLoader(t *testing.T) {
	a, err := audio.Loader(silentWAV(t, 100*time.Millisecond))
	require.NoError(t, err)
	require.NoError(t, a.Play(0))
	require.NoError(t, a.Pause())
	track, ok := a.(*audio.Track)
	require.True(t, ok)
	require.NoError(t, track.Close())
}
