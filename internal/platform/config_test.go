package platform_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/tickline/internal/platform"
	"github.com/aretw0/tickline/pkg/core"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := platform.LoadConfig(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, platform.DefaultConfig(), cfg)

	s, err := cfg.Settings()
	require.NoError(t, err)
	assert.Equal(t, core.DefaultSettings(), s)
}

func TestLoadConfig_OverridesKeys(t *testing.T) {
	dir := t.TempDir()
	yaml := `bpm: 150
offsetRange: [-2, 3]
highlightedTicks:
  - value: 3
    color: "#00ff00"
format: yaml
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, platform.ConfigFileName), []byte(yaml), 0644))

	cfg, err := platform.LoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, 150, cfg.BPM)
	assert.Equal(t, 48, cfg.TickPerBeat, "keys not in the file keep their default")
	assert.Equal(t, "yaml", cfg.Format)

	s, err := cfg.Settings()
	require.NoError(t, err)
	assert.Equal(t, -2.0, s.Limits.OffsetMin)
	assert.Equal(t, 3.0, s.Limits.OffsetMax)
	assert.Equal(t, []core.HighlightedTick{{Value: 3, Color: core.Color{G: 0xff}}}, s.Highlights)
}

func TestLoadConfig_Invalid(t *testing.T) {
	cases := map[string]string{
		"malformed":          "bpm: [1,\n",
		"zero bpm":           "bpm: 0\n",
		"non dividing tick":  "highlightedTicks:\n  - value: 5\n    color: \"#ffffff\"\n",
		"bad color":          "highlightedTicks:\n  - value: 2\n    color: blue\n",
		"inverted offsets":   "offsetRange: [3, -3]\n",
		"unknown format":     "format: toml\n",
		"zero note division": "noteDivision: 0\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			require.NoError(t, os.WriteFile(filepath.Join(dir, platform.ConfigFileName), []byte(content), 0644))
			_, err := platform.LoadConfig(dir)
			assert.ErrorIs(t, err, core.ErrValidation)
		})
	}
}

func TestConfig_SaveRoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "project")
	cfg := platform.DefaultConfig()
	cfg.BPM = 174
	cfg.FastHold = true
	require.NoError(t, cfg.Save(dir))

	back, err := platform.LoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, cfg, back)
}
