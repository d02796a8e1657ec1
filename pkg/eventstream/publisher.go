// Package eventstream publishes indexing events to an event stream backend.
package eventstream

import "context"

// Publisher publishes indexing events to an event stream backend.
type Publisher interface {
	PublishIndexed(ctx context.Context, event *FingerprintIndexedEvent) error
	Close() error
}
