package testutils

import (
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/hues/pkg/storage"
	"github.com/papercomputeco/hues/pkg/swatch"
)

// NewTestSnapshot builds a snapshot with awkward float weights so drivers
// that round or reorder are caught.
func NewTestSnapshot(name string) *storage.Snapshot {
	now := time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)
	return &storage.Snapshot{
		Meta: storage.Meta{
			ID:        uuid.New(),
			Name:      name,
			Thumbnail: "/photos/" + name + "/cover.jpg",
			Count:     3,
			CreatedAt: now,
			UpdatedAt: now.Add(time.Hour),
		},
		Records: []storage.Record{
			{ID: "/photos/sunset.jpg", Fingerprint: swatch.Fingerprint{
				{Color: swatch.Color{R: 250, G: 94, B: 12}, Weight: 5123},
				{Color: swatch.Color{R: 30, G: 20, B: 80}, Weight: 0.1 + 0.2},
				{Color: swatch.Color{R: 255, G: 230, B: 170}, Weight: 1.0 / 3.0},
			}},
			{ID: "/photos/forest.png", Fingerprint: swatch.Fingerprint{
				{Color: swatch.Color{R: 20, G: 110, B: 40}, Weight: 1e-9},
			}},
			{ID: "/photos/a-sea.jpg", Fingerprint: swatch.Fingerprint{
				{Color: swatch.Color{B: 200}, Weight: 700},
				{Color: swatch.Color{R: 240, G: 240, B: 240}, Weight: 699.999999},
			}},
		},
	}
}
