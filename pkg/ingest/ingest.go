// Package ingest fingerprints image files and adds them to collections.
//
// Decoding and extraction run in parallel. Inserts happen afterwards from a
// single goroutine, in path order, so the resulting index does not depend on
// scheduling.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/papercomputeco/hues/pkg/collection"
	"github.com/papercomputeco/hues/pkg/decode"
	"github.com/papercomputeco/hues/pkg/eventstream"
	"github.com/papercomputeco/hues/pkg/extract"
	"github.com/papercomputeco/hues/pkg/swatch"
)

// Progress is reported after each image is extracted.
type Progress struct {
	Done  int
	Total int
	Path  string
	Err   error
}

// Failure records an image that could not be fingerprinted.
type Failure struct {
	Path string `json:"path"`
	Err  error  `json:"-"`
}

// Report summarizes a Run.
type Report struct {
	Indexed []string
	Skipped []string
	Failed  []Failure
}

// Config configures an Ingester.
type Config struct {
	// Manager owns the collections images are inserted into.
	Manager *collection.Manager

	// Extractor fingerprints decoded images.
	Extractor *extract.Extractor

	// Publisher receives an event per inserted image. Optional.
	Publisher eventstream.Publisher

	// Workers bounds concurrent extractions. Defaults to GOMAXPROCS.
	Workers int

	// SkipExisting leaves images whose id is already indexed untouched.
	SkipExisting bool

	// OnProgress is called from worker goroutines after each extraction.
	OnProgress func(Progress)

	// Logger is the provided slog logger.
	Logger *slog.Logger
}

// Ingester adds image files to collections.
type Ingester struct {
	config Config
}

// New returns an Ingester.
func New(c Config) *Ingester {
	if c.Workers <= 0 {
		c.Workers = runtime.GOMAXPROCS(0)
	}
	return &Ingester{config: c}
}

// ImageID is the identifier an image file is indexed under.
func ImageID(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}

// Fingerprint decodes the file at path and extracts its fingerprint.
func Fingerprint(e *extract.Extractor, path string) (swatch.Fingerprint, error) {
	img, err := decode.DecodeFile(path)
	if err != nil {
		return nil, err
	}
	fp, err := e.Extract(img)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return fp, nil
}

// Run fingerprints paths and inserts them into the named collection. A
// failing image is recorded in the report and does not stop the others.
// The collection is not saved.
func (i *Ingester) Run(ctx context.Context, name string, paths []string) (*Report, error) {
	report := &Report{}

	ids := make([]string, len(paths))
	for n, p := range paths {
		ids[n] = ImageID(p)
	}

	existing := map[string]bool{}
	if i.config.SkipExisting {
		err := i.config.Manager.Do(ctx, name, func(c *collection.Collection) error {
			for _, e := range c.Index.Entries() {
				existing[e.ID] = true
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	var todo []int
	for n, id := range ids {
		if existing[id] {
			report.Skipped = append(report.Skipped, paths[n])
			continue
		}
		todo = append(todo, n)
	}

	fps := make([]swatch.Fingerprint, len(paths))
	errs := make([]error, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(i.config.Workers)

	var done atomic.Int64
	for _, n := range todo {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			fps[n], errs[n] = Fingerprint(i.config.Extractor, paths[n])
			if i.config.OnProgress != nil {
				i.config.OnProgress(Progress{Done: int(done.Add(1)), Total: len(todo), Path: paths[n], Err: errs[n]})
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return report, err
	}

	var inserted []int
	err := i.config.Manager.Do(ctx, name, func(c *collection.Collection) error {
		for _, n := range todo {
			if errs[n] != nil {
				continue
			}
			if err := c.Insert(ids[n], fps[n]); err != nil {
				errs[n] = err
				continue
			}
			inserted = append(inserted, n)
		}
		return nil
	})
	if err != nil {
		return report, err
	}

	for _, n := range todo {
		if errs[n] != nil {
			i.config.Logger.Warn("skipping image", "path", paths[n], "error", errs[n])
			report.Failed = append(report.Failed, Failure{Path: paths[n], Err: errs[n]})
		}
	}
	for _, n := range inserted {
		report.Indexed = append(report.Indexed, paths[n])
		i.publish(ctx, name, ids[n], fps[n])
	}

	i.config.Logger.Info("ingested images",
		"collection", name,
		"indexed", len(report.Indexed),
		"skipped", len(report.Skipped),
		"failed", len(report.Failed),
	)
	return report, nil
}

func (i *Ingester) publish(ctx context.Context, name, id string, fp swatch.Fingerprint) {
	if i.config.Publisher == nil {
		return
	}
	event := eventstream.NewFingerprintIndexedEvent(name, id, fp)
	if err := i.config.Publisher.PublishIndexed(ctx, event); err != nil {
		i.config.Logger.Warn("failed to publish indexed event", "image_id", id, "error", err)
	}
}
