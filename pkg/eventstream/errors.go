package eventstream

import "errors"

// ErrNilIndexedEvent indicates a nil event payload was provided to a publisher.
var ErrNilIndexedEvent = errors.New("nil indexed event")
