// Package jsonfile provides a storage.Driver that writes one JSON document per
// collection into a directory.
//
// Each fingerprint is encoded as a flat array of [R, G, B, weight] groups.
// encoding/json writes float64 values with the shortest representation that
// parses back to the same bits, so weights survive a round trip exactly.
package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/hues/pkg/storage"
	"github.com/papercomputeco/hues/pkg/swatch"
)

const (
	fileExt       = ".json"
	tempPrefix    = ".collection-"
	formatVersion = 1
)

type document struct {
	Version   int        `json:"version"`
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	Thumbnail string     `json:"thumbnail,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	Count     int        `json:"image_count"`
	Entries   []docEntry `json:"entries"`
}

type docEntry struct {
	ID     string    `json:"id"`
	Colors []float64 `json:"colors"`
}

// Driver implements storage.Driver on top of a directory of JSON files.
type Driver struct {
	mu  sync.Mutex
	dir string
}

// NewDriver creates dir if needed and returns a driver rooted there.
func NewDriver(dir string) (*Driver, error) {
	if dir == "" {
		return nil, errors.New("collections directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating collections directory: %w", err)
	}
	return &Driver{dir: dir}, nil
}

// Dir returns the directory the driver writes to.
func (d *Driver) Dir() string {
	return d.dir
}

func (d *Driver) path(name string) string {
	return filepath.Join(d.dir, url.PathEscape(name)+fileExt)
}

// Save writes the snapshot to a temporary file and renames it into place.
func (d *Driver) Save(_ context.Context, snap *storage.Snapshot) error {
	if err := storage.ValidateName(snap.Meta.Name); err != nil {
		return err
	}

	doc := document{
		Version:   formatVersion,
		ID:        snap.Meta.ID,
		Name:      snap.Meta.Name,
		Thumbnail: snap.Meta.Thumbnail,
		CreatedAt: snap.Meta.CreatedAt,
		UpdatedAt: snap.Meta.UpdatedAt,
		Count:     snap.Meta.Count,
		Entries:   make([]docEntry, len(snap.Records)),
	}
	for i, r := range snap.Records {
		doc.Entries[i] = docEntry{ID: r.ID, Colors: r.Fingerprint.Flatten()}
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding collection %s: %w", snap.Meta.Name, err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	tmp, err := os.CreateTemp(d.dir, tempPrefix+"*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing collection %s: %w", snap.Meta.Name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), d.path(snap.Meta.Name)); err != nil {
		return fmt.Errorf("replacing collection %s: %w", snap.Meta.Name, err)
	}
	return nil
}

// Load reads and decodes a collection file.
func (d *Driver) Load(_ context.Context, name string) (*storage.Snapshot, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	doc, err := d.read(d.path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, storage.NotFoundError{Name: name}
	}
	if err != nil {
		return nil, err
	}

	snap := &storage.Snapshot{
		Meta:    doc.meta(),
		Records: make([]storage.Record, len(doc.Entries)),
	}
	for i, e := range doc.Entries {
		fp, err := swatch.FromFlat(e.Colors)
		if err != nil {
			return nil, fmt.Errorf("decoding %s in collection %s: %w", e.ID, name, err)
		}
		snap.Records[i] = storage.Record{ID: e.ID, Fingerprint: fp}
	}
	return snap, nil
}

// List decodes the metadata of every collection file in the directory.
func (d *Driver) List(_ context.Context) ([]storage.Meta, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	files, err := os.ReadDir(d.dir)
	if err != nil {
		return nil, fmt.Errorf("reading collections directory: %w", err)
	}

	var metas []storage.Meta
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), fileExt) || strings.HasPrefix(f.Name(), tempPrefix) {
			continue
		}
		doc, err := d.read(filepath.Join(d.dir, f.Name()))
		if err != nil {
			return nil, err
		}
		metas = append(metas, doc.meta())
	}

	sort.Slice(metas, func(i, j int) bool { return metas[i].Name < metas[j].Name })
	return metas, nil
}

// Delete removes the collection file.
func (d *Driver) Delete(_ context.Context, name string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	err := os.Remove(d.path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return storage.NotFoundError{Name: name}
	}
	if err != nil {
		return fmt.Errorf("deleting collection %s: %w", name, err)
	}
	return nil
}

// Close is a no-op.
func (d *Driver) Close() error {
	return nil
}

func (d *Driver) read(path string) (*document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", filepath.Base(path), err)
	}
	if doc.Version > formatVersion {
		return nil, fmt.Errorf("%s uses format version %d, newest supported is %d",
			filepath.Base(path), doc.Version, formatVersion)
	}
	return &doc, nil
}

func (doc *document) meta() storage.Meta {
	return storage.Meta{
		ID:        doc.ID,
		Name:      doc.Name,
		Thumbnail: doc.Thumbnail,
		Count:     doc.Count,
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}
}
