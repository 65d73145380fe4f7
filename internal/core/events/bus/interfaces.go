package bus

import "time"

// EventBus is an in-process pub/sub bus the runtime uses to announce what
// happened during a frame: objects created or destroyed, assets settled,
// lifecycle faults. Delivery is synchronous on the publishing goroutine and
// follows subscription order. Handler errors are joined and returned.
//
// All methods are safe for concurrent use; asset loaders publish from their
// own goroutines.
type EventBus interface {
	Publish(event Event) error
	Subscribe(eventType string, handler EventHandler) (Subscription, error)
	// SubscribeAll receives every event regardless of type.
	SubscribeAll(handler EventHandler) (Subscription, error)
	Unsubscribe(Subscription) error

	AddObserver(obs EventBusObserver)
	// GetMetrics is only populated while at least one observer is registered.
	GetMetrics() EventBusMetrics
}

// Event is an immutable message transported by the EventBus.
type Event interface {
	Type() string
	Source() string
	Timestamp() time.Time
	Data() any
	Metadata() map[string]any
}

type EventHandler func(event Event) error

type Subscription interface {
	ID() string
	// EventType is empty for SubscribeAll subscriptions.
	EventType() string
	IsActive() bool
	// Cancel de-registers the handler. Multiple calls are safe.
	Cancel() error
}

type EventBusObserver interface {
	OnPublish(eventType string, event Event)
	OnDelivered(eventType string, handlers int, err error, durationMicros int64)
}

type EventBusMetrics struct {
	Published         uint64
	DeliveredHandlers uint64
	Errors            uint64
	SubscribersActive uint64
}
