package index

import (
	"fmt"
	"sort"

	"github.com/papercomputeco/hues/pkg/swatch"
)

type slot struct {
	id      string
	fp      swatch.Fingerprint
	version uint64
}

type pairKey struct {
	a, b string
}

type cachedDistance struct {
	va, vb   uint64
	distance float64
}

// Memory is a linear-scan SimilarityIndex held in memory.
//
// Distances between stored entries computed by Similar are cached. Every
// Insert bumps the entry's version, which invalidates all cached pairs that
// involve it.
type Memory struct {
	metric swatch.Metric
	slots  []*slot
	byID   map[string]*slot
	pairs  map[pairKey]cachedDistance
	clock  uint64
}

// Option configures a Memory index.
type Option func(*Memory)

// WithMetric sets the metric used for ranking.
func WithMetric(m swatch.Metric) Option {
	return func(idx *Memory) {
		idx.metric = m
	}
}

// NewMemory returns an empty index using swatch.DefaultMetric unless
// configured otherwise.
func NewMemory(opts ...Option) *Memory {
	idx := &Memory{
		metric: swatch.DefaultMetric,
		byID:   make(map[string]*slot),
		pairs:  make(map[pairKey]cachedDistance),
	}
	for _, opt := range opts {
		opt(idx)
	}
	return idx
}

// Metric returns the metric used for ranking.
func (m *Memory) Metric() swatch.Metric {
	return m.metric
}

// Insert stores a copy of fp. An existing id keeps its position.
func (m *Memory) Insert(id string, fp swatch.Fingerprint) error {
	if id == "" {
		return fmt.Errorf("%w: empty id", swatch.ErrInvalidFingerprint)
	}
	if err := fp.Validate(); err != nil {
		return fmt.Errorf("inserting %q: %w", id, err)
	}

	m.clock++
	if s, ok := m.byID[id]; ok {
		s.fp = fp.Clone()
		s.version = m.clock
		return nil
	}

	s := &slot{id: id, fp: fp.Clone(), version: m.clock}
	m.slots = append(m.slots, s)
	m.byID[id] = s
	return nil
}

// Get returns a copy of the fingerprint stored under id.
func (m *Memory) Get(id string) (swatch.Fingerprint, error) {
	s, ok := m.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s.fp.Clone(), nil
}

// Len returns the number of entries.
func (m *Memory) Len() int {
	return len(m.slots)
}

// Entries returns copies of all entries in insertion order.
func (m *Memory) Entries() []Entry {
	out := make([]Entry, len(m.slots))
	for i, s := range m.slots {
		out[i] = Entry{ID: s.id, Fingerprint: s.fp.Clone()}
	}
	return out
}

// KNN computes the distance from query to every entry.
func (m *Memory) KNN(query swatch.Fingerprint, k int) []Result {
	results := make([]Result, len(m.slots))
	for i, s := range m.slots {
		results[i] = Result{ID: s.id, Distance: m.metric.FingerprintDistance(query, s.fp)}
	}
	return m.rank(results, k)
}

// Similar ranks every other entry against the entry stored under id.
func (m *Memory) Similar(id string, k int) ([]Result, error) {
	target, ok := m.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	results := make([]Result, 0, len(m.slots))
	for _, s := range m.slots {
		if s == target {
			continue
		}
		results = append(results, Result{ID: s.id, Distance: m.pairDistance(target, s)})
	}
	return m.rank(results, k), nil
}

// rank sorts results stably, truncates to k and attaches fingerprint copies.
func (m *Memory) rank(results []Result, k int) []Result {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Distance < results[j].Distance
	})

	if k >= 0 && k < len(results) {
		results = results[:k]
	}
	for i := range results {
		results[i].Fingerprint = m.byID[results[i].ID].fp.Clone()
	}
	return results
}

func (m *Memory) pairDistance(a, b *slot) float64 {
	key := pairKey{a: a.id, b: b.id}
	va, vb := a.version, b.version
	if b.id < a.id {
		key = pairKey{a: b.id, b: a.id}
		va, vb = vb, va
	}

	if c, ok := m.pairs[key]; ok && c.va == va && c.vb == vb {
		return c.distance
	}

	d := m.metric.FingerprintDistance(a.fp, b.fp)
	m.pairs[key] = cachedDistance{va: va, vb: vb, distance: d}
	return d
}
