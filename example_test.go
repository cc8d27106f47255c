package tickline_test

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/aretw0/tickline"
	"github.com/aretw0/tickline/pkg/core"
	"github.com/aretw0/tickline/pkg/easing"
)

// Example_basic opens a project, places a note, animates a line and caches
// the chart.
func Example_basic() {
	tmpDir, err := os.MkdirTemp("", "tickline-example-*")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(tmpDir)

	svc, err := tickline.New(tmpDir)
	if err != nil {
		log.Fatal(err)
	}
	defer svc.Close()

	ctx := context.Background()

	// 1. Place a note on the default line
	if err := svc.AddNote(0, core.NoteSpec{Type: core.Tap, Time: 96, Width: 1}); err != nil {
		log.Fatal(err)
	}

	// 2. Rotate the line over two beats
	if err := svc.InsertKeyframe(0, core.Angle, core.Keyframe{Time: 0, Value: 0, Easing: easing.InQuad}); err != nil {
		log.Fatal(err)
	}
	if err := svc.InsertKeyframe(0, core.Angle, core.Keyframe{Time: 96, Value: 90}); err != nil {
		log.Fatal(err)
	}

	// 3. Cache it
	if err := svc.SaveCache(ctx); err != nil {
		log.Fatal(err)
	}

	angle, err := svc.ValueAt(0, core.Angle, 48)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("angle at beat 1: %.1f\n", angle)
	fmt.Println("state:", svc.PersistState())
	// Output:
	// angle at beat 1: 22.5
	// state: cached
}
