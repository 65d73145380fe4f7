// Package exttest provides an in-memory extension.API for tests.
package exttest

import (
	"context"
	"sync"

	"github.com/ajsengine/ajs/internal/core/observability/log"
	"github.com/ajsengine/ajs/internal/runtime/assets"
	"github.com/ajsengine/ajs/internal/runtime/audio"
	"github.com/ajsengine/ajs/internal/runtime/extension"
	"github.com/ajsengine/ajs/internal/runtime/input"
	"github.com/ajsengine/ajs/internal/runtime/object"
	"github.com/ajsengine/ajs/internal/runtime/timing"
)

// ScriptEvent is one recorded CallScriptEvent.
type ScriptEvent struct {
	Oid  string
	Name string
	Args []any
}

// API is a field-configured extension.API. Nil fields fall back to working
// defaults so tests only set what they exercise.
type API struct {
	Ctx      context.Context
	TimeSys  *timing.Time
	InputMgr *input.Manager
	AssetMgr assets.Loader
	Player   audio.Player
	Log      log.Log
	Objects  map[string]*object.GameObject
	OnEvent  func(ScriptEvent)

	mu     sync.Mutex
	events []ScriptEvent
}

var _ extension.API = (*API)(nil)

func New() *API {
	return &API{
		Ctx:      context.Background(),
		InputMgr: input.NewManager(),
		Log:      log.NewNop(),
		Objects:  make(map[string]*object.GameObject),
	}
}

func (a *API) Context() context.Context {
	if a.Ctx == nil {
		return context.Background()
	}
	return a.Ctx
}

func (a *API) Time() timing.Reader {
	if a.TimeSys == nil {
		return nil
	}
	return a.TimeSys
}

func (a *API) Input() input.Reader {
	return a.InputMgr
}

func (a *API) Mouse() input.MouseReader {
	return a.InputMgr.Mouse()
}

func (a *API) Assets() assets.Loader {
	return a.AssetMgr
}

func (a *API) Audio() audio.Player {
	return a.Player
}

func (a *API) ResolveAssetPath(p string) string {
	return assets.CleanPath(p)
}

func (a *API) CallScriptEvent(obj *object.GameObject, name string, args ...any) {
	ev := ScriptEvent{Oid: obj.Oid(), Name: name, Args: args}
	a.mu.Lock()
	a.events = append(a.events, ev)
	a.mu.Unlock()
	if a.OnEvent != nil {
		a.OnEvent(ev)
	}
}

func (a *API) FindGameObject(nameOrOid string) (*object.GameObject, bool) {
	if obj, ok := a.Objects[nameOrOid]; ok {
		return obj, true
	}
	for _, obj := range a.Objects {
		if obj.Name() == nameOrOid {
			return obj, true
		}
	}
	return nil, false
}

func (a *API) Logger() log.Log {
	return a.Log
}

// Events returns the script events recorded so far.
func (a *API) Events() []ScriptEvent {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]ScriptEvent(nil), a.events...)
}
