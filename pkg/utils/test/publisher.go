package testutils

import (
	"context"
	"sync"

	"github.com/papercomputeco/hues/pkg/eventstream"
)

// RecordingPublisher keeps every published event in memory.
type RecordingPublisher struct {
	mu     sync.Mutex
	events []*eventstream.FingerprintIndexedEvent
	Err    error
}

func NewRecordingPublisher() *RecordingPublisher {
	return &RecordingPublisher{}
}

func (p *RecordingPublisher) PublishIndexed(_ context.Context, event *eventstream.FingerprintIndexedEvent) error {
	if p.Err != nil {
		return p.Err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *RecordingPublisher) Events() []*eventstream.FingerprintIndexedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*eventstream.FingerprintIndexedEvent, len(p.events))
	copy(out, p.events)
	return out
}

func (p *RecordingPublisher) Close() error {
	return nil
}
