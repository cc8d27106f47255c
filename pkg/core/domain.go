package core

import "fmt"

// EventType represents the type of change raised to collaborators.
type EventType string

const (
	// EventRebuild asks the presentation layer to rebuild its scene after a
	// structural edit.
	EventRebuild EventType = "REBUILD"
	// EventSync carries a change of one of the synchronized fields.
	EventSync EventType = "SYNC"
	// EventCacheChanged reports that the cached chart changed on disk.
	EventCacheChanged EventType = "CACHE_CHANGED"
)

// Field names the values mirrored to collaborators through EventSync.
type Field string

const (
	FieldChartLength   Field = "chartLength"
	FieldImageFile     Field = "imageFile"
	FieldCurrentTime   Field = "currentTime"
	FieldIsRunning     Field = "isRunning"
	FieldPreferTicks   Field = "preferTicks"
	FieldTickPerSecond Field = "tickPerSecond"
)

// Event represents a change in the editing session.
type Event struct {
	Type      EventType
	Field     Field  `json:",omitempty"`
	ID        string `json:",omitempty"` // session id or cache entry name
	Timestamp int64  // Unix timestamp
}

func (e Event) String() string {
	switch {
	case e.Field != "":
		return fmt.Sprintf("%s %s", e.Type, e.Field)
	case e.ID != "":
		return fmt.Sprintf("%s %s", e.Type, e.ID)
	default:
		return string(e.Type)
	}
}

// PersistState tracks where the in-memory document stands relative to the
// cache and the last archive.
type PersistState string

const (
	Unsaved             PersistState = "unsaved"
	CachedLocally       PersistState = "cached"
	ExportedArchive     PersistState = "exported"
	ImportedFromArchive PersistState = "imported"
)

// AssetKind selects the cached audio or image slot.
type AssetKind string

const (
	AssetAudio AssetKind = "audio"
	AssetImage AssetKind = "image"
)
