package monitor

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ajsengine/ajs/internal/core/events/bus"
	"github.com/ajsengine/ajs/internal/core/observability/log"
	"github.com/ajsengine/ajs/internal/runtime/fault"
)

func publish(t *testing.T, b bus.EventBus, typ string, data any) {
	t.Helper()
	require.NoError(t, b.Publish(bus.NewEvent(typ, "test", data, nil)))
}

func TestMonitorCountsRuntimeEvents(t *testing.T) {
	b := bus.New()
	m, err := New(b, log.NewNop())
	require.NoError(t, err)
	defer m.Close()

	publish(t, b, bus.ObjectCreated, bus.ObjectEvent{Oid: "a"})
	publish(t, b, bus.ObjectCreated, bus.ObjectEvent{Oid: "b"})
	publish(t, b, bus.SceneLoaded, bus.SceneEvent{Name: "level1", Objects: 2})
	publish(t, b, bus.AssetLoaded, bus.AssetEvent{Kind: "images", Path: "a.png"})
	publish(t, b, bus.AssetFailed, bus.AssetEvent{Kind: "sounds", Path: "b.wav", Err: errors.New("gone")})
	publish(t, b, bus.FaultRaised, fault.Fault{Kind: fault.KindContract, Phase: fault.PhaseUpdate, Oid: "a", Err: errors.New("no sprite")})
	publish(t, b, bus.FaultRaised, fault.Fault{Kind: fault.KindContract, Oid: "b", Err: errors.New("again")})
	publish(t, b, bus.ObjectDestroyed, bus.ObjectEvent{Oid: "a"})

	s := m.Stats()
	assert.Equal(t, "level1", s.Scene)
	assert.Equal(t, 1, s.Objects)
	assert.Equal(t, 1, s.AssetsLoaded)
	assert.Equal(t, 1, s.AssetsFailed)
	assert.Equal(t, map[string]int{fault.KindContract.String(): 2}, s.Faults)
	assert.Equal(t, 2, s.TotalFaults())
	require.NotNil(t, s.LastFault)
	assert.Equal(t, "b", s.LastFault.Oid)

	publish(t, b, bus.SceneStopped, bus.SceneEvent{Name: "level1"})
	assert.Zero(t, m.Stats().Objects)
}

func TestMonitorCloseUnsubscribes(t *testing.T) {
	b := bus.New()
	m, err := New(b, log.NewNop())
	require.NoError(t, err)

	require.NoError(t, m.Close())
	require.NoError(t, m.Close())
	publish(t, b, bus.ObjectCreated, bus.ObjectEvent{Oid: "a"})
	assert.Zero(t, m.Stats().Objects)
}

func TestMonitorReport(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	b := bus.New()
	b.AddObserver(bus.LogObserver{Logger: log.NewNop()})
	m, err := New(b, log.NewFromZap(zap.New(core)))
	require.NoError(t, err)
	defer m.Close()

	publish(t, b, bus.SceneLoaded, bus.SceneEvent{Name: "menu"})
	publish(t, b, bus.FaultRaised, fault.Fault{Kind: fault.KindPlugin, Oid: "x", Err: errors.New("boom")})
	m.Report()

	entries := logs.FilterMessage("session summary").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "menu", fields["scene"])
	assert.Equal(t, int64(1), fields["faults"])
	assert.Equal(t, int64(2), fields["events"])
	assert.Contains(t, fields["last_fault"], "boom")
}
