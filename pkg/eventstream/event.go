package eventstream

import (
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/hues/pkg/swatch"
)

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeFingerprintIndexed is emitted after a fingerprint is inserted
	// into a collection.
	EventTypeFingerprintIndexed = "hues.fingerprint.indexed"
)

// FingerprintIndexedEvent is a transport-neutral event payload for an
// indexed image.
type FingerprintIndexedEvent struct {
	SchemaVersion int          `json:"schema_version"`
	EventType     string       `json:"event_type"`
	EventID       string       `json:"event_id"`
	EmittedAt     time.Time    `json:"emitted_at"`
	Collection    string       `json:"collection"`
	ImageID       string       `json:"image_id"`
	Colors        []EventColor `json:"colors"`
}

// EventColor is one fingerprint entry rendered for consumers.
type EventColor struct {
	Hex    string  `json:"hex"`
	Weight float64 `json:"weight"`
}

// NewFingerprintIndexedEvent builds an event with a fresh id.
func NewFingerprintIndexedEvent(collection, imageID string, fp swatch.Fingerprint) *FingerprintIndexedEvent {
	colors := make([]EventColor, len(fp))
	for i, wc := range fp {
		colors[i] = EventColor{Hex: wc.Hex(), Weight: wc.Weight}
	}

	return &FingerprintIndexedEvent{
		SchemaVersion: SchemaVersionV1,
		EventType:     EventTypeFingerprintIndexed,
		EventID:       uuid.NewString(),
		EmittedAt:     time.Now().UTC(),
		Collection:    collection,
		ImageID:       imageID,
		Colors:        colors,
	}
}
