// Package worker provides an asynchronous worker pool that fingerprints image
// files and inserts them into collections.
//
// The pool decouples indexing from whatever discovers new images (a folder
// watcher, an upload handler) so discovery never blocks on extraction.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/papercomputeco/hues/pkg/collection"
	"github.com/papercomputeco/hues/pkg/eventstream"
	"github.com/papercomputeco/hues/pkg/extract"
	"github.com/papercomputeco/hues/pkg/ingest"
)

var (
	defaultNumWorkers   uint = 3
	defaultJobQueueSize uint = 256
)

// Job is a unit of work for the worker pool to execute against.
type Job struct {
	Collection string
	Path       string
}

// Config is the configuration options for the worker pool.
type Config struct {
	// Manager owns the collections images are inserted into.
	Manager *collection.Manager

	// Extractor fingerprints decoded images.
	Extractor *extract.Extractor

	// Publisher receives an event per inserted image. Optional.
	Publisher eventstream.Publisher

	// AutoSave persists the collection after every insert.
	AutoSave bool

	// NumWorkers is the number of background workers in the pool.
	NumWorkers uint

	// QueueSize is the capacity of the buffered job channel (defaults to 256).
	QueueSize uint

	// OnResult is called from the worker goroutine after each job.
	OnResult func(Job, error)

	// Logger is the provided slog logger
	Logger *slog.Logger
}

// Pool processes indexing jobs asynchronously via a worker pool.
type Pool struct {
	config *Config
	queue  chan Job
	wg     sync.WaitGroup
	logger *slog.Logger

	// mu guards closed and the queue send against Close.
	mu     sync.RWMutex
	closed bool
}

// NewPool creates a new Pool and starts its worker goroutines.
func NewPool(c *Config) (*Pool, error) {
	if c.Manager == nil || c.Extractor == nil {
		return nil, errors.New("worker pool needs a collection manager and an extractor")
	}

	if c.NumWorkers == 0 {
		c.NumWorkers = defaultNumWorkers
	}

	if c.QueueSize == 0 {
		c.QueueSize = defaultJobQueueSize
	}

	if c.NumWorkers > uint(math.MaxInt) {
		return nil, fmt.Errorf("NumWorkers %d exceeds max int", c.NumWorkers)
	}

	wp := &Pool{
		config: c,
		queue:  make(chan Job, c.QueueSize),
		logger: c.Logger,
	}

	wp.wg.Add(int(c.NumWorkers))
	for i := range c.NumWorkers {
		go wp.worker(i)
	}

	return wp, nil
}

// Enqueue submits a job for processing by the worker pool.
// Returns true if enqueued, false if the queue is full or the pool is closed,
// resulting in the job being dropped
func (p *Pool) Enqueue(job Job) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		p.logger.Warn("job not queued, pool closed, job dropped",
			"collection", job.Collection,
			"path", job.Path,
		)
		return false
	}

	select {
	case p.queue <- job:
		p.logger.Debug("job queued",
			"collection", job.Collection,
			"path", job.Path,
		)
		return true
	default:
		p.logger.Error("job not queued, queue full, job dropped",
			"collection", job.Collection,
			"path", job.Path,
		)
		return false
	}
}

// Close signals workers to stop and waits for in-flight jobs to drain.
// Calling Close more than once is a no-op.
func (p *Pool) Close() {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.queue)
	}
	p.mu.Unlock()

	p.wg.Wait()
}

// worker is the inner worker thread that continuously pulls jobs off the jobs queue
func (p *Pool) worker(id uint) {
	defer p.wg.Done()
	p.logger.Debug("worker started", "worker_id", id)

	for job := range p.queue {
		err := p.processJob(job)
		if err != nil {
			p.logger.Error("indexing failed",
				"collection", job.Collection,
				"path", job.Path,
				"error", err,
			)
		}
		if p.config.OnResult != nil {
			p.config.OnResult(job, err)
		}
	}

	p.logger.Debug("worker stopped", "worker_id", id)
}

// processJob fingerprints the job's image, inserts it and, when configured,
// saves the collection.
func (p *Pool) processJob(job Job) error {
	ctx := context.Background()

	fp, err := ingest.Fingerprint(p.config.Extractor, job.Path)
	if err != nil {
		return err
	}

	id := ingest.ImageID(job.Path)
	if err := p.config.Manager.Do(ctx, job.Collection, func(c *collection.Collection) error {
		return c.Insert(id, fp)
	}); err != nil {
		return fmt.Errorf("inserting %s: %w", id, err)
	}

	if p.config.AutoSave {
		if err := p.config.Manager.Save(ctx, job.Collection); err != nil {
			return err
		}
	}

	p.logger.Info("image indexed",
		"collection", job.Collection,
		"id", id,
		"colors", len(fp),
	)

	if p.config.Publisher != nil {
		event := eventstream.NewFingerprintIndexedEvent(job.Collection, id, fp)
		if err := p.config.Publisher.PublishIndexed(ctx, event); err != nil {
			p.logger.Warn("failed to publish indexed event", "id", id, "error", err)
		}
	}

	return nil
}
