// Package collection manages named similarity indexes and their persistence.
//
// An index.Memory is not safe for concurrent use. The Manager owns every
// open index and runs all access to it under a single lock, so HTTP handlers,
// ingestion and watchers can share one Manager.
package collection

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/hues/pkg/index"
	"github.com/papercomputeco/hues/pkg/storage"
	"github.com/papercomputeco/hues/pkg/swatch"
)

// ErrExists is returned when renaming onto a name that is already taken.
var ErrExists = errors.New("collection already exists")

// Collection is an open, named index and its metadata.
type Collection struct {
	Meta  storage.Meta
	Index *index.Memory
	dirty bool
}

// Manager opens, caches and persists collections.
type Manager struct {
	mu     sync.Mutex
	driver storage.Driver
	metric swatch.Metric
	logger *slog.Logger
	open   map[string]*Collection
	now    func() time.Time
}

// NewManager returns a Manager persisting through driver.
func NewManager(driver storage.Driver, metric swatch.Metric, logger *slog.Logger) *Manager {
	return &Manager{
		driver: driver,
		metric: metric,
		logger: logger,
		open:   make(map[string]*Collection),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Metric returns the metric used by every index the manager opens.
func (m *Manager) Metric() swatch.Metric {
	return m.metric
}

// Do runs fn with the named collection, loading it or creating an empty one
// on first use. fn must not retain the collection after it returns.
func (m *Manager) Do(ctx context.Context, name string, fn func(*Collection) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, err := m.get(ctx, name, true)
	if err != nil {
		return err
	}
	return fn(c)
}

// View runs fn with an existing collection. It returns storage.NotFoundError
// when the collection is neither open nor stored.
func (m *Manager) View(ctx context.Context, name string, fn func(*Collection) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, err := m.get(ctx, name, false)
	if err != nil {
		return err
	}
	return fn(c)
}

func (m *Manager) get(ctx context.Context, name string, create bool) (*Collection, error) {
	if err := storage.ValidateName(name); err != nil {
		return nil, err
	}
	if c, ok := m.open[name]; ok {
		return c, nil
	}

	snap, err := m.driver.Load(ctx, name)
	var nf storage.NotFoundError
	switch {
	case err == nil:
		c, err := m.restore(snap)
		if err != nil {
			return nil, err
		}
		m.open[name] = c
		m.logger.Debug("loaded collection", "collection", name, "images", c.Index.Len())
		return c, nil
	case errors.As(err, &nf) && create:
		now := m.now()
		c := &Collection{
			Meta:  storage.Meta{ID: uuid.New(), Name: name, CreatedAt: now, UpdatedAt: now},
			Index: index.NewMemory(index.WithMetric(m.metric)),
			dirty: true,
		}
		m.open[name] = c
		m.logger.Info("created collection", "collection", name, "id", c.Meta.ID)
		return c, nil
	default:
		return nil, err
	}
}

func (m *Manager) restore(snap *storage.Snapshot) (*Collection, error) {
	idx := index.NewMemory(index.WithMetric(m.metric))
	for _, r := range snap.Records {
		if err := idx.Insert(r.ID, r.Fingerprint); err != nil {
			return nil, fmt.Errorf("restoring collection %s: %w", snap.Meta.Name, err)
		}
	}
	return &Collection{Meta: snap.Meta, Index: idx}, nil
}

// Insert stores fp under id in the collection and marks it for saving.
func (c *Collection) Insert(id string, fp swatch.Fingerprint) error {
	if err := c.Index.Insert(id, fp); err != nil {
		return err
	}
	c.dirty = true
	return nil
}

// Dirty reports whether the collection changed since it was loaded or saved.
func (c *Collection) Dirty() bool {
	return c.dirty
}

func (c *Collection) snapshot() *storage.Snapshot {
	entries := c.Index.Entries()
	snap := &storage.Snapshot{Meta: c.Meta, Records: make([]storage.Record, len(entries))}
	snap.Meta.Count = len(entries)
	for i, e := range entries {
		snap.Records[i] = storage.Record{ID: e.ID, Fingerprint: e.Fingerprint}
	}
	return snap
}

// Save persists the named collection if it is open.
func (m *Manager) Save(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.open[name]
	if !ok {
		return nil
	}
	return m.save(ctx, c)
}

func (m *Manager) save(ctx context.Context, c *Collection) error {
	c.Meta.UpdatedAt = m.now()
	snap := c.snapshot()
	if err := m.driver.Save(ctx, snap); err != nil {
		return fmt.Errorf("saving collection %s: %w", c.Meta.Name, err)
	}
	c.Meta.Count = snap.Meta.Count
	c.dirty = false

	m.logger.Debug("saved collection", "collection", c.Meta.Name, "images", snap.Meta.Count)
	return nil
}

// SaveAll persists every open collection that changed.
func (m *Manager) SaveAll(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var errs []error
	for _, c := range m.open {
		if !c.dirty {
			continue
		}
		if err := m.save(ctx, c); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// List returns the metadata of every stored collection. Open collections
// report their in-memory state.
func (m *Manager) List(ctx context.Context) ([]storage.Meta, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	metas, err := m.driver.List(ctx)
	if err != nil {
		return nil, err
	}
	for i, meta := range metas {
		if c, ok := m.open[meta.Name]; ok {
			metas[i] = c.Meta
			metas[i].Count = c.Index.Len()
		}
	}
	return metas, nil
}

// Rename moves a stored collection to a new name.
func (m *Manager) Rename(ctx context.Context, from, to string) error {
	if err := storage.ValidateName(to); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := m.get(ctx, to, false); err == nil {
		return fmt.Errorf("%w: %s", ErrExists, to)
	} else if !errors.As(err, new(storage.NotFoundError)) {
		return err
	}

	c, err := m.get(ctx, from, false)
	if err != nil {
		return err
	}

	c.Meta.Name = to
	if err := m.save(ctx, c); err != nil {
		c.Meta.Name = from
		return err
	}
	if err := m.driver.Delete(ctx, from); err != nil && !errors.As(err, new(storage.NotFoundError)) {
		return fmt.Errorf("removing old collection %s: %w", from, err)
	}

	delete(m.open, from)
	m.open[to] = c
	m.logger.Info("renamed collection", "from", from, "to", to)
	return nil
}

// SetThumbnail records the image shown for the collection and saves it.
func (m *Manager) SetThumbnail(ctx context.Context, name, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, err := m.get(ctx, name, false)
	if err != nil {
		return err
	}
	c.Meta.Thumbnail = path
	return m.save(ctx, c)
}

// Delete removes a collection from the driver and closes it.
func (m *Manager) Delete(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, wasOpen := m.open[name]
	delete(m.open, name)

	err := m.driver.Delete(ctx, name)
	if errors.As(err, new(storage.NotFoundError)) && wasOpen && c.dirty {
		// Created in memory and never saved.
		err = nil
	}
	if err != nil {
		return err
	}

	m.logger.Info("deleted collection", "collection", name)
	return nil
}
