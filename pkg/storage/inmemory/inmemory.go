// Package inmemory provides a storage.Driver that keeps snapshots in a map.
package inmemory

import (
	"context"
	"sort"
	"sync"

	"github.com/papercomputeco/hues/pkg/storage"
)

// Driver implements storage.Driver using an in-memory map.
type Driver struct {
	// mu guards collections
	mu sync.RWMutex

	// collections maps a collection name to a private copy of its snapshot
	collections map[string]*storage.Snapshot
}

// NewDriver creates a new in-memory driver.
func NewDriver() *Driver {
	return &Driver{
		collections: make(map[string]*storage.Snapshot),
	}
}

// Save stores a deep copy of snap.
func (d *Driver) Save(_ context.Context, snap *storage.Snapshot) error {
	if err := storage.ValidateName(snap.Meta.Name); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.collections[snap.Meta.Name] = snap.Clone()
	return nil
}

// Load returns a deep copy of the stored snapshot.
func (d *Driver) Load(_ context.Context, name string) (*storage.Snapshot, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	snap, ok := d.collections[name]
	if !ok {
		return nil, storage.NotFoundError{Name: name}
	}
	return snap.Clone(), nil
}

// List returns collection metadata sorted by name.
func (d *Driver) List(_ context.Context) ([]storage.Meta, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	metas := make([]storage.Meta, 0, len(d.collections))
	for _, snap := range d.collections {
		metas = append(metas, snap.Meta)
	}
	sort.Slice(metas, func(i, j int) bool { return metas[i].Name < metas[j].Name })
	return metas, nil
}

// Delete removes a collection.
func (d *Driver) Delete(_ context.Context, name string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.collections[name]; !ok {
		return storage.NotFoundError{Name: name}
	}
	delete(d.collections, name)
	return nil
}

// Close is a no-op.
func (d *Driver) Close() error {
	return nil
}
