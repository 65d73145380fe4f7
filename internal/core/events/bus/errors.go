package bus

import "errors"

var (
	ErrNilEvent         = errors.New("event is nil")
	ErrNilHandler       = errors.New("event handler is nil")
	ErrInvalidEventType = errors.New("event type must be non-empty and not a wildcard")
)
