package bus

import "github.com/ajsengine/ajs/internal/core/observability/log"

// LogObserver reports handler failures, and every delivery at debug level.
type LogObserver struct {
	Logger log.Log
}

func (LogObserver) OnPublish(string, Event) {}

func (o LogObserver) OnDelivered(eventType string, handlers int, err error, durationMicros int64) {
	fields := []log.Field{
		log.String("event", eventType),
		log.Int("handlers", handlers),
		log.Int64("micros", durationMicros),
	}
	if err != nil {
		o.Logger.Warn("event handler failed", append(fields, log.Error(err))...)
		return
	}
	o.Logger.Debug("event delivered", fields...)
}
