// Package storage defines how collections of fingerprints are persisted.
// Implementations live in sub-packages, one per backend.
package storage

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/hues/pkg/swatch"
)

// ErrInvalidName is returned for collection names that cannot be stored.
var ErrInvalidName = errors.New("invalid collection name")

// Meta describes a collection.
type Meta struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Thumbnail string    `json:"thumbnail,omitempty"`
	Count     int       `json:"count"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Record is one stored fingerprint.
type Record struct {
	ID          string
	Fingerprint swatch.Fingerprint
}

// Snapshot is the full persisted state of a collection. Records are kept in
// index insertion order.
type Snapshot struct {
	Meta    Meta
	Records []Record
}

// Clone returns a deep copy of s.
func (s *Snapshot) Clone() *Snapshot {
	out := &Snapshot{Meta: s.Meta, Records: make([]Record, len(s.Records))}
	for i, r := range s.Records {
		out.Records[i] = Record{ID: r.ID, Fingerprint: r.Fingerprint.Clone()}
	}
	return out
}

// Driver persists collection snapshots. A Save followed by a Load must return
// the same records, in the same order, with bit-identical weights.
type Driver interface {
	// Save replaces the stored state of the collection named snap.Meta.Name.
	Save(ctx context.Context, snap *Snapshot) error

	// Load returns the stored collection or NotFoundError.
	Load(ctx context.Context, name string) (*Snapshot, error)

	// List returns the metadata of every stored collection, sorted by name.
	List(ctx context.Context) ([]Meta, error)

	// Delete removes a collection or returns NotFoundError.
	Delete(ctx context.Context, name string) error

	// Close releases any resources held by the driver.
	Close() error
}

// ValidateName rejects names that are empty or only whitespace.
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrInvalidName
	}
	return nil
}
