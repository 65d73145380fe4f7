// Package monitor keeps running totals of what the runtime announces on the
// event bus and reports them when a session ends.
package monitor

import (
	"errors"
	"maps"
	"sync"

	"github.com/ajsengine/ajs/internal/core/events/bus"
	"github.com/ajsengine/ajs/internal/core/observability/log"
	"github.com/ajsengine/ajs/internal/runtime/fault"
)

// Stats is a snapshot of the totals.
type Stats struct {
	Scene   string
	Objects int
	// Faults counts faults by kind name.
	Faults       map[string]int
	LastFault    *fault.Fault
	AssetsLoaded int
	AssetsFailed int
}

// TotalFaults sums Faults.
func (s Stats) TotalFaults() int {
	n := 0
	for _, c := range s.Faults {
		n += c
	}
	return n
}

type Monitor struct {
	bus    bus.EventBus
	logger log.Log
	subs   []bus.Subscription

	mu    sync.Mutex
	stats Stats
}

// New subscribes to b. Close releases the subscriptions.
func New(b bus.EventBus, logger log.Log) (*Monitor, error) {
	m := &Monitor{bus: b, logger: logger.Named("monitor"), stats: Stats{Faults: make(map[string]int)}}
	handlers := map[string]bus.EventHandler{
		bus.FaultRaised:     m.onFault,
		bus.AssetLoaded:     m.onAsset,
		bus.AssetFailed:     m.onAsset,
		bus.SceneLoaded:     m.onScene,
		bus.SceneStopped:    m.onScene,
		bus.ObjectCreated:   m.onObject,
		bus.ObjectDestroyed: m.onObject,
	}
	for typ, h := range handlers {
		sub, err := b.Subscribe(typ, h)
		if err != nil {
			m.Close()
			return nil, err
		}
		m.subs = append(m.subs, sub)
	}
	return m, nil
}

func (m *Monitor) onFault(e bus.Event) error {
	f, ok := e.Data().(fault.Fault)
	if !ok {
		return nil
	}
	m.mu.Lock()
	m.stats.Faults[f.Kind.String()]++
	m.stats.LastFault = &f
	m.mu.Unlock()
	return nil
}

func (m *Monitor) onAsset(e bus.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e.Type() == bus.AssetFailed {
		m.stats.AssetsFailed++
	} else {
		m.stats.AssetsLoaded++
	}
	return nil
}

func (m *Monitor) onScene(e bus.Event) error {
	ev, _ := e.Data().(bus.SceneEvent)
	m.mu.Lock()
	defer m.mu.Unlock()
	if e.Type() == bus.SceneStopped {
		m.stats.Objects = 0
		return nil
	}
	m.stats.Scene = ev.Name
	return nil
}

func (m *Monitor) onObject(e bus.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e.Type() == bus.ObjectCreated {
		m.stats.Objects++
	} else if m.stats.Objects > 0 {
		m.stats.Objects--
	}
	return nil
}

func (m *Monitor) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.stats
	s.Faults = maps.Clone(m.stats.Faults)
	return s
}

// Report logs the totals together with the bus delivery counters.
func (m *Monitor) Report() {
	s := m.Stats()
	bm := m.bus.GetMetrics()
	fields := []log.Field{
		log.String("scene", s.Scene),
		log.Int("objects", s.Objects),
		log.Int("faults", s.TotalFaults()),
		log.Int("assets_loaded", s.AssetsLoaded),
		log.Int("assets_failed", s.AssetsFailed),
		log.Int64("events", int64(bm.Published)),
		log.Int64("handler_errors", int64(bm.Errors)),
	}
	if s.LastFault != nil {
		fields = append(fields, log.String("last_fault", s.LastFault.Error()))
	}
	m.logger.Info("session summary", fields...)
}

// Close unsubscribes from the bus. Multiple calls are safe.
func (m *Monitor) Close() error {
	var errs []error
	for _, sub := range m.subs {
		errs = append(errs, m.bus.Unsubscribe(sub))
	}
	m.subs = nil
	return errors.Join(errs...)
}
