package fs

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/aretw0/tickline/pkg/core"
	"github.com/aretw0/tickline/pkg/easing"
	"gopkg.in/yaml.v3"
)

// ChartVersion is the version written to every chart file.
const ChartVersion = 1

// Serializer defines how to read and write a specific chart file format.
type Serializer interface {
	// Ext is the file extension, including the dot.
	Ext() string
	// Encode converts the snapshot to bytes.
	Encode(s core.Snapshot) ([]byte, error)
	// Decode reads a chart. Shape errors are reported as core.ErrCorrupt.
	Decode(r io.Reader) (core.Snapshot, error)
}

// DefaultSerializers returns the standard set of serializers keyed by format
// name.
func DefaultSerializers() map[string]Serializer {
	return map[string]Serializer{
		"json": NewJSONSerializer(),
		"yaml": NewYAMLSerializer(),
	}
}

// --- JSON Serializer ---

// JSONSerializer handles reading and writing JSON chart files.
type JSONSerializer struct{}

// NewJSONSerializer creates a new JSON serializer.
func NewJSONSerializer() *JSONSerializer {
	return &JSONSerializer{}
}

func (s *JSONSerializer) Ext() string { return ".json" }

func (s *JSONSerializer) Encode(snap core.Snapshot) ([]byte, error) {
	f, err := toChartFile(snap)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(f); err != nil {
		return nil, fmt.Errorf("failed to encode chart: %w", err)
	}
	return buf.Bytes(), nil
}

func (s *JSONSerializer) Decode(r io.Reader) (core.Snapshot, error) {
	var f chartFile
	if err := json.NewDecoder(r).Decode(&f); err != nil {
		return core.Snapshot{}, core.Corrupt("chart.json", "invalid json: %v", err)
	}
	return f.snapshot("chart.json")
}

// --- YAML Serializer ---

// YAMLSerializer handles reading and writing YAML chart files.
type YAMLSerializer struct{}

// NewYAMLSerializer creates a new YAML serializer.
func NewYAMLSerializer() *YAMLSerializer {
	return &YAMLSerializer{}
}

func (s *YAMLSerializer) Ext() string { return ".yaml" }

func (s *YAMLSerializer) Encode(snap core.Snapshot) ([]byte, error) {
	f, err := toChartFile(snap)
	if err != nil {
		return nil, err
	}
	return yaml.Marshal(f)
}

func (s *YAMLSerializer) Decode(r io.Reader) (core.Snapshot, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return core.Snapshot{}, core.IOError("read chart.yaml", err)
	}
	var f chartFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return core.Snapshot{}, core.Corrupt("chart.yaml", "invalid yaml: %v", err)
	}
	return f.snapshot("chart.yaml")
}

// --- File shape ---
//
// Required values are pointers so that a missing field is told apart from a
// zero value. Unknown fields are ignored by both decoders.

type chartFile struct {
	Version    *int            `json:"version" yaml:"version"`
	Metadata   *metadataFile   `json:"metadata" yaml:"metadata"`
	Timing     *timingFile     `json:"timing" yaml:"timing"`
	Highlights []highlightFile `json:"highlightedTicks" yaml:"highlightedTicks"`
	Lines      []lineFile      `json:"judgeLines" yaml:"judgeLines"`
	Assets     assetsFile      `json:"assets" yaml:"assets"`
	Editor     *editorFile     `json:"editor,omitempty" yaml:"editor,omitempty"`
}

type metadataFile struct {
	MusicName       string  `json:"musicName" yaml:"musicName"`
	AuthorName      string  `json:"authorName" yaml:"authorName"`
	ChartLevel      string  `json:"chartLevel" yaml:"chartLevel"`
	ChartAuthorName string  `json:"chartAuthorName" yaml:"chartAuthorName"`
	Copyright       *string `json:"copyright" yaml:"copyright"`
}

type timingFile struct {
	TickPerBeat *int     `json:"tickPerBeat" yaml:"tickPerBeat"`
	BPM         *int     `json:"bpm" yaml:"bpm"`
	ChartLength *int     `json:"chartLength" yaml:"chartLength"`
	Offset      *float64 `json:"offset" yaml:"offset"`
}

type highlightFile struct {
	Value *int    `json:"value" yaml:"value"`
	Color *string `json:"color" yaml:"color"`
}

type assetsFile struct {
	Audio string `json:"audio,omitempty" yaml:"audio,omitempty"`
	Image string `json:"image,omitempty" yaml:"image,omitempty"`
}

type editorFile struct {
	FastHold        bool `json:"fastHold" yaml:"fastHold"`
	NoteDivision    int  `json:"noteDivision" yaml:"noteDivision"`
	DefaultHoldTime int  `json:"defaultHoldTime" yaml:"defaultHoldTime"`
}

type lineFile struct {
	ID    *int                      `json:"id" yaml:"id"`
	Notes []noteFile                `json:"notes" yaml:"notes"`
	Props map[string][]keyframeFile `json:"props,omitempty" yaml:"props,omitempty"`
}

type noteFile struct {
	ID        *int     `json:"id,omitempty" yaml:"id,omitempty"`
	Type      *string  `json:"type" yaml:"type"`
	Time      *int     `json:"time" yaml:"time"`
	HoldTime  *int     `json:"holdTime,omitempty" yaml:"holdTime,omitempty"`
	PosX      *float64 `json:"posX" yaml:"posX"`
	Width     *float64 `json:"width" yaml:"width"`
	IsFake    bool     `json:"isFake" yaml:"isFake"`
	FallSpeed *float64 `json:"fallSpeed,omitempty" yaml:"fallSpeed,omitempty"`
	FallSide  *bool    `json:"fallSide,omitempty" yaml:"fallSide,omitempty"`
}

type keyframeFile struct {
	Time   *int     `json:"time" yaml:"time"`
	Value  *float64 `json:"value" yaml:"value"`
	Easing *string  `json:"easing" yaml:"easing"`
}

func ptr[T any](v T) *T { return &v }

func toChartFile(s core.Snapshot) (chartFile, error) {
	copyright, err := s.Metadata.Copyright.MarshalText()
	if err != nil {
		return chartFile{}, err
	}
	f := chartFile{
		Version: ptr(ChartVersion),
		Metadata: &metadataFile{
			MusicName:       s.Metadata.MusicName,
			AuthorName:      s.Metadata.AuthorName,
			ChartLevel:      s.Metadata.ChartLevel,
			ChartAuthorName: s.Metadata.ChartAuthorName,
			Copyright:       ptr(string(copyright)),
		},
		Timing: &timingFile{
			TickPerBeat: ptr(s.TickPerBeat),
			BPM:         ptr(s.BPM),
			ChartLength: ptr(s.ChartLength),
			Offset:      ptr(s.Offset),
		},
		Highlights: []highlightFile{},
		Lines:      []lineFile{},
		Assets:     assetsFile{Audio: s.Assets.Audio, Image: s.Assets.Image},
		Editor: &editorFile{
			FastHold:        s.Editor.FastHold,
			NoteDivision:    s.Editor.NoteDivision,
			DefaultHoldTime: s.Editor.DefaultHoldTime,
		},
	}
	for _, h := range s.Highlights {
		f.Highlights = append(f.Highlights, highlightFile{Value: ptr(h.Value), Color: ptr(h.Color.String())})
	}
	for _, l := range s.Lines {
		lf := lineFile{ID: ptr(l.ID), Notes: []noteFile{}}
		for _, n := range l.Notes {
			nf := noteFile{
				ID:        n.ID,
				Type:      ptr(n.Type.String()),
				Time:      ptr(n.Time),
				HoldTime:  n.HoldTime,
				PosX:      ptr(n.PosX),
				Width:     ptr(n.Width),
				IsFake:    n.IsFake,
				FallSpeed: ptr(n.FallSpeed),
				FallSide:  ptr(n.FallSide),
			}
			lf.Notes = append(lf.Notes, nf)
		}
		for ch, keys := range l.Curves {
			if lf.Props == nil {
				lf.Props = make(map[string][]keyframeFile)
			}
			kfs := make([]keyframeFile, 0, len(keys))
			for _, k := range keys {
				kfs = append(kfs, keyframeFile{Time: ptr(k.Time), Value: ptr(k.Value), Easing: ptr(k.Easing.String())})
			}
			lf.Props[ch.String()] = kfs
		}
		f.Lines = append(f.Lines, lf)
	}
	return f, nil
}

func (f *chartFile) snapshot(source string) (core.Snapshot, error) {
	missing := func(field string) error {
		return core.Corrupt(source, "missing %s", field)
	}

	var s core.Snapshot
	switch {
	case f.Version == nil:
		return s, missing("version")
	case *f.Version != ChartVersion:
		return s, core.Corrupt(source, "unsupported version %d", *f.Version)
	case f.Metadata == nil:
		return s, missing("metadata")
	case f.Metadata.Copyright == nil:
		return s, missing("metadata.copyright")
	case f.Timing == nil:
		return s, missing("timing")
	case f.Timing.TickPerBeat == nil:
		return s, missing("timing.tickPerBeat")
	case f.Timing.BPM == nil:
		return s, missing("timing.bpm")
	case f.Timing.ChartLength == nil:
		return s, missing("timing.chartLength")
	case f.Timing.Offset == nil:
		return s, missing("timing.offset")
	}

	s.Metadata = core.Metadata{
		MusicName:       f.Metadata.MusicName,
		AuthorName:      f.Metadata.AuthorName,
		ChartLevel:      f.Metadata.ChartLevel,
		ChartAuthorName: f.Metadata.ChartAuthorName,
	}
	if err := s.Metadata.Copyright.UnmarshalText([]byte(*f.Metadata.Copyright)); err != nil {
		return s, core.Corrupt(source, "%v", err)
	}
	s.TickPerBeat = *f.Timing.TickPerBeat
	s.BPM = *f.Timing.BPM
	s.ChartLength = *f.Timing.ChartLength
	s.Offset = *f.Timing.Offset
	s.Assets = core.Assets{Audio: f.Assets.Audio, Image: f.Assets.Image}
	if f.Editor != nil {
		s.Editor = core.EditorSettings{
			FastHold:        f.Editor.FastHold,
			NoteDivision:    f.Editor.NoteDivision,
			DefaultHoldTime: f.Editor.DefaultHoldTime,
		}
	}

	for i, h := range f.Highlights {
		if h.Value == nil || h.Color == nil {
			return s, missing(fmt.Sprintf("highlightedTicks[%d] value or color", i))
		}
		c, err := core.ParseColor(*h.Color)
		if err != nil {
			return s, core.Corrupt(source, "highlightedTicks[%d]: %v", i, err)
		}
		s.Highlights = append(s.Highlights, core.HighlightedTick{Value: *h.Value, Color: c})
	}

	for i, lf := range f.Lines {
		if lf.ID == nil {
			return s, missing(fmt.Sprintf("judgeLines[%d].id", i))
		}
		if *lf.ID < 0 {
			return s, core.Corrupt(source, "judgeLines[%d]: negative id %d", i, *lf.ID)
		}
		ls := core.LineSnapshot{ID: *lf.ID}
		for j, nf := range lf.Notes {
			n, err := nf.note()
			if err != nil {
				return s, core.Corrupt(source, "judgeLines[%d].notes[%d]: %v", i, j, err)
			}
			ls.Notes = append(ls.Notes, n)
		}
		names := make([]string, 0, len(lf.Props))
		for name := range lf.Props {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			ch, err := core.ParseChannel(name)
			if err != nil {
				return s, core.Corrupt(source, "judgeLines[%d]: %v", i, err)
			}
			var keys []core.Keyframe
			for k, kf := range lf.Props[name] {
				if kf.Time == nil || kf.Value == nil || kf.Easing == nil {
					return s, missing(fmt.Sprintf("judgeLines[%d].props.%s[%d] time, value or easing", i, name, k))
				}
				tag, err := easing.Parse(*kf.Easing)
				if err != nil {
					return s, core.Corrupt(source, "judgeLines[%d].props.%s[%d]: %v", i, name, k, err)
				}
				keys = append(keys, core.Keyframe{Time: *kf.Time, Value: *kf.Value, Easing: tag})
			}
			if len(keys) == 0 {
				continue
			}
			if ls.Curves == nil {
				ls.Curves = make(map[core.Channel][]core.Keyframe)
			}
			ls.Curves[ch] = keys
		}
		s.Lines = append(s.Lines, ls)
	}
	return s, nil
}

func (nf noteFile) note() (core.Note, error) {
	switch {
	case nf.Type == nil:
		return core.Note{}, fmt.Errorf("missing type")
	case nf.Time == nil:
		return core.Note{}, fmt.Errorf("missing time")
	case nf.PosX == nil:
		return core.Note{}, fmt.Errorf("missing posX")
	case nf.Width == nil:
		return core.Note{}, fmt.Errorf("missing width")
	}
	nt, err := core.ParseNoteType(*nf.Type)
	if err != nil {
		return core.Note{}, err
	}
	n := core.Note{
		ID:        nf.ID,
		Type:      nt,
		Time:      *nf.Time,
		PosX:      *nf.PosX,
		Width:     *nf.Width,
		IsFake:    nf.IsFake,
		FallSpeed: 1,
		FallSide:  true,
	}
	if nt == core.Hold {
		n.HoldTime = nf.HoldTime
	}
	if nf.FallSpeed != nil {
		n.FallSpeed = *nf.FallSpeed
	}
	if nf.FallSide != nil {
		n.FallSide = *nf.FallSide
	}
	return n, nil
}
