// Package tickline is the composition root of the tickline chart editor core.
//
// It connects the editing session (pkg/core) with the infrastructure adapters
// (cache directory, archives, audio, HTTP) using the hexagonal layout of its
// packages.
//
// Model:
//
// A chart is a set of judge lines. Each line owns its notes and a set of
// animated property curves, all placed on an integer tick grid. The tick
// resolution and a constant BPM convert ticks into seconds; the offset shifts
// the audio relative to tick zero.
//
// Features:
//
//   - **Tick Clock**: drift-free playback position recomputed from a wall-clock anchor.
//   - **Property Curves**: keyframed channels with 31 easing functions.
//   - **Atomic Edits**: every mutation is validated on a copy and swapped in whole.
//   - **Cache Slot**: one cached chart plus its audio and image, written atomically.
//   - **Archives**: a single zip holding the chart and its assets, validated before import.
//   - **Events**: rebuild and sync notifications for presentation layers.
//
// Usage:
//
//	svc, err := tickline.New("./charts/lumen",
//		tickline.WithFormat("yaml"),
//		tickline.WithLogger(logger),
//	)
//
//	id, err := svc.AddLine()
//	err = svc.AddNote(id, core.NoteSpec{Type: core.Tap, Time: 96, Width: 1})
//	err = svc.SaveCache(ctx)
package tickline
