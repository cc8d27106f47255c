package platform

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/tickline/pkg/core"
)

// ConfigFileName is the editor config looked up in the project directory.
const ConfigFileName = "tickline.yaml"

// HighlightConfig is a highlighted tick as written in the config file.
type HighlightConfig struct {
	Value int    `yaml:"value"`
	Color string `yaml:"color"`
}

// Config holds the editor defaults for new charts.
type Config struct {
	TickPerBeat      int               `yaml:"tickPerBeat"`
	BPM              int               `yaml:"bpm"`
	ChartLength      int               `yaml:"chartLength"`
	OffsetRange      [2]float64        `yaml:"offsetRange,flow"`
	MaxChartSeconds  float64           `yaml:"maxChartSeconds"`
	HighlightedTicks []HighlightConfig `yaml:"highlightedTicks"`
	FastHold         bool              `yaml:"fastHold"`
	NoteDivision     int               `yaml:"noteDivision"`
	DefaultHoldTime  int               `yaml:"defaultHoldTime"`
	Format           string            `yaml:"format"`
}

// DefaultConfig mirrors core.DefaultSettings.
func DefaultConfig() *Config {
	s := core.DefaultSettings()
	cfg := &Config{
		TickPerBeat:     s.TickPerBeat,
		BPM:             s.BPM,
		ChartLength:     s.ChartLength,
		OffsetRange:     [2]float64{s.Limits.OffsetMin, s.Limits.OffsetMax},
		MaxChartSeconds: s.Limits.MaxChartSeconds,
		FastHold:        s.Editor.FastHold,
		NoteDivision:    s.Editor.NoteDivision,
		DefaultHoldTime: s.Editor.DefaultHoldTime,
		Format:          "json",
	}
	for _, h := range s.Highlights {
		cfg.HighlightedTicks = append(cfg.HighlightedTicks, HighlightConfig{Value: h.Value, Color: h.Color.String()})
	}
	return cfg
}

// LoadConfig reads tickline.yaml from dir. Keys missing from the file keep
// their defaults; a missing file yields DefaultConfig.
func LoadConfig(dir string) (*Config, error) {
	cfg := DefaultConfig()
	path := filepath.Join(dir, ConfigFileName)

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, core.IOError("read config", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse %s: %w", path, &core.ValidationError{Field: "config", Reason: err.Error()})
	}
	if _, err := cfg.Settings(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the config to dir/tickline.yaml.
func (c *Config) Save(dir string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return core.IOError("create project directory", err)
	}
	if err := os.WriteFile(filepath.Join(dir, ConfigFileName), data, 0644); err != nil {
		return core.IOError("write config", err)
	}
	return nil
}

// Settings converts the config into document settings and checks it.
func (c *Config) Settings() (core.Settings, error) {
	if c.OffsetRange[0] > c.OffsetRange[1] {
		return core.Settings{}, &core.ValidationError{Field: "offsetRange", Reason: fmt.Sprintf("min %v exceeds max %v", c.OffsetRange[0], c.OffsetRange[1])}
	}
	if c.MaxChartSeconds < 0 {
		return core.Settings{}, &core.ValidationError{Field: "maxChartSeconds", Reason: "must not be negative"}
	}
	if c.NoteDivision <= 0 {
		return core.Settings{}, &core.ValidationError{Field: "noteDivision", Reason: "must be positive"}
	}
	switch c.Format {
	case "json", "yaml":
	default:
		return core.Settings{}, &core.ValidationError{Field: "format", Reason: fmt.Sprintf("unsupported chart format %q", c.Format)}
	}

	s := core.Settings{
		TickPerBeat: c.TickPerBeat,
		BPM:         c.BPM,
		ChartLength: c.ChartLength,
		Editor: core.EditorSettings{
			FastHold:        c.FastHold,
			NoteDivision:    c.NoteDivision,
			DefaultHoldTime: c.DefaultHoldTime,
		},
		Limits: core.Limits{
			OffsetMin:       c.OffsetRange[0],
			OffsetMax:       c.OffsetRange[1],
			MaxChartSeconds: c.MaxChartSeconds,
		},
	}
	for _, h := range c.HighlightedTicks {
		color, err := core.ParseColor(h.Color)
		if err != nil {
			return core.Settings{}, &core.ValidationError{Field: "highlightedTicks", Reason: err.Error()}
		}
		s.Highlights = append(s.Highlights, core.HighlightedTick{Value: h.Value, Color: color})
	}

	// A document built from the settings validates tempo and highlights.
	if _, err := core.NewDocument(s); err != nil {
		return core.Settings{}, err
	}
	return s, nil
}
