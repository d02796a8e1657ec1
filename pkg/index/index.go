// Package index provides k-nearest-neighbor search over color fingerprints.
package index

import (
	"errors"

	"github.com/papercomputeco/hues/pkg/swatch"
)

// All asks KNN and Similar for every entry, fully ranked.
const All = -1

var (
	// ErrNotFound is returned when an id is not in the index.
	ErrNotFound = errors.New("fingerprint not found")

	// ErrInvalidFingerprint is returned by Insert for an empty id or a
	// fingerprint that fails validation.
	ErrInvalidFingerprint = swatch.ErrInvalidFingerprint
)

// Entry is a stored fingerprint.
type Entry struct {
	ID          string             `json:"id"`
	Fingerprint swatch.Fingerprint `json:"fingerprint"`
}

// Result is a ranked neighbor.
type Result struct {
	ID          string             `json:"id"`
	Distance    float64            `json:"distance"`
	Fingerprint swatch.Fingerprint `json:"fingerprint"`
}

// SimilarityIndex stores fingerprints by id and answers nearest-neighbor
// queries. Implementations are not required to be safe for concurrent use.
type SimilarityIndex interface {
	// Insert stores fp under id, replacing any previous fingerprint.
	Insert(id string, fp swatch.Fingerprint) error

	// Get returns the fingerprint stored under id or ErrNotFound.
	Get(id string) (swatch.Fingerprint, error)

	// KNN ranks stored entries by ascending distance to query and returns
	// the first k. Ties keep insertion order. k < 0 returns every entry.
	KNN(query swatch.Fingerprint, k int) []Result

	// Similar ranks the other entries against the one stored under id.
	Similar(id string, k int) ([]Result, error)

	// Entries returns all entries in insertion order.
	Entries() []Entry

	// Len returns the number of entries.
	Len() int
}
