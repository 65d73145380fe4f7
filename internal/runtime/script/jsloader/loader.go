// Package jsloader resolves script paths to classes written in JavaScript.
// Modules are CommonJS-style: the source runs with module and exports in
// scope and must export a class, either as module.exports or as its default
// property. A leading "export default" is accepted as shorthand.
//
// A Loader owns one goja runtime and is not safe for concurrent use; all
// calls happen on the frame goroutine.
package jsloader

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/dop251/goja"

	"github.com/ajsengine/ajs/internal/core/observability/log"
	"github.com/ajsengine/ajs/internal/runtime/scene"
	"github.com/ajsengine/ajs/internal/runtime/script"
)

const DefaultCallTimeout = 250 * time.Millisecond

var ErrTimeout = errors.New("script call timed out")

// methodScan lists every function on a constructor's prototype chain.
const methodScan = `(function (ctor) {
	var names = {};
	for (var p = ctor.prototype; p && p !== Object.prototype; p = Object.getPrototypeOf(p)) {
		var own = Object.getOwnPropertyNames(p);
		for (var i = 0; i < own.length; i++) {
			var d = Object.getOwnPropertyDescriptor(p, own[i]);
			if (own[i] !== "constructor" && d && typeof d.value === "function") {
				names[own[i]] = true;
			}
		}
	}
	return Object.keys(names);
})`

var exportDefault = regexp.MustCompile(`(?m)^\s*export\s+default\s+`)

type module struct {
	hash  uint64
	class *script.Class
	stale bool
}

type Option func(*Loader)

func WithLogger(l log.Log) Option {
	return func(ld *Loader) {
		if l != nil {
			ld.logger = l
		}
	}
}

// WithCallTimeout bounds every call into JavaScript. Zero disables it.
func WithCallTimeout(d time.Duration) Option {
	return func(ld *Loader) { ld.timeout = d }
}

type Loader struct {
	fsys    fs.FS
	vm      *goja.Runtime
	logger  log.Log
	timeout time.Duration
	scan    goja.Callable
	depth   int

	mu      sync.Mutex
	modules map[string]*module
}

var _ script.ModuleLoader = (*Loader)(nil)

func New(fsys fs.FS, opts ...Option) (*Loader, error) {
	l := &Loader{
		fsys:    fsys,
		vm:      goja.New(),
		logger:  log.NewNop(),
		timeout: DefaultCallTimeout,
		modules: make(map[string]*module),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.logger = l.logger.Named("js")
	l.vm.SetFieldNameMapper(goja.UncapFieldNameMapper())

	v, err := l.vm.RunString(methodScan)
	if err != nil {
		return nil, fmt.Errorf("install method scan: %w", err)
	}
	l.scan, _ = goja.AssertFunction(v)

	if err := l.vm.Set("console", l.console()); err != nil {
		return nil, fmt.Errorf("install console: %w", err)
	}
	return l, nil
}

// modulePath maps a script path onto the loader's file system.
func modulePath(p string) string {
	p = strings.TrimPrefix(p, "res://")
	p = strings.TrimLeft(path.Clean("/"+p), "/")
	if path.Ext(p) == "" {
		p += ".js"
	}
	return p
}

// Resolve returns the class exported by the module at p. A cached module
// is reused unless it was invalidated and its source hash has changed.
func (l *Loader) Resolve(ctx context.Context, p string) (*script.Class, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	name := modulePath(p)
	src, err := fs.ReadFile(l.fsys, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", script.ErrScriptNotFound, p)
		}
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	sum := xxhash.Sum64(src)

	l.mu.Lock()
	defer l.mu.Unlock()
	if m, ok := l.modules[name]; ok && (!m.stale || m.hash == sum) {
		m.stale = false
		return m.class, nil
	}

	class, err := l.compile(name, src)
	if err != nil {
		return nil, err
	}
	l.modules[name] = &module{hash: sum, class: class}
	l.logger.Debug("module loaded", log.ScriptPath(name), log.Uint64("hash", sum))
	return class, nil
}

// Invalidate marks the module at p stale. The next Resolve re-reads the
// source and recompiles only when its content changed.
func (l *Loader) Invalidate(p string) {
	l.mu.Lock()
	if m, ok := l.modules[modulePath(p)]; ok {
		m.stale = true
	}
	l.mu.Unlock()
}

func (l *Loader) compile(name string, src []byte) (*script.Class, error) {
	body := exportDefault.ReplaceAllString(string(src), "module.exports = ")
	prog, err := goja.Compile(name, "(function (module, exports) {\n"+body+"\n})", false)
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", name, err)
	}

	vm := l.vm
	mod := vm.NewObject()
	exports := vm.NewObject()
	_ = mod.Set("exports", exports)

	err = l.guard(func() error {
		wrapper, err := vm.RunProgram(prog)
		if err != nil {
			return err
		}
		fn, ok := goja.AssertFunction(wrapper)
		if !ok {
			return fmt.Errorf("module wrapper is %s", wrapper.ExportType())
		}
		_, err = fn(goja.Undefined(), mod, exports)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("evaluate %s: %w", name, err)
	}

	ctor, ok := pickConstructor(mod.Get("exports"))
	if !ok {
		return nil, fmt.Errorf("%w: %s", script.ErrNotAClass, name)
	}

	var probe *goja.Object
	if err := l.guard(func() error {
		var err error
		probe, err = vm.New(ctor)
		return err
	}); err != nil {
		return nil, fmt.Errorf("construct %s: %w", name, err)
	}

	caps, err := l.capabilities(ctor, probe)
	if err != nil {
		return nil, fmt.Errorf("inspect %s: %w", name, err)
	}
	defaults := defaultsOf(vm, ctor, probe)

	return script.NewClass(name, defaults, caps, func() (script.Behavior, error) {
		var this *goja.Object
		if err := l.guard(func() error {
			var err error
			this, err = vm.New(ctor)
			return err
		}); err != nil {
			return nil, err
		}
		return &behavior{l: l, this: this}, nil
	}), nil
}

func isConstructor(v goja.Value) bool {
	if v == nil {
		return false
	}
	_, ok := goja.AssertConstructor(v)
	return ok
}

func pickConstructor(exports goja.Value) (goja.Value, bool) {
	if isConstructor(exports) {
		return exports, true
	}
	if o, ok := exports.(*goja.Object); ok {
		if d := o.Get("default"); isConstructor(d) {
			return d, true
		}
	}
	return nil, false
}

// capabilities merges prototype methods with function-valued own properties
// set by the constructor. Any on* function other than the lifecycle hooks is
// a custom event.
func (l *Loader) capabilities(ctor goja.Value, probe *goja.Object) (script.Capabilities, error) {
	res, err := l.scan(goja.Undefined(), ctor)
	if err != nil {
		return script.Capabilities{}, err
	}
	var names []string
	if list, ok := res.Export().([]any); ok {
		for _, n := range list {
			if s, ok := n.(string); ok {
				names = append(names, s)
			}
		}
	}
	for _, k := range probe.Keys() {
		if _, ok := goja.AssertFunction(probe.Get(k)); ok {
			names = append(names, k)
		}
	}

	var caps script.Capabilities
	for _, n := range names {
		switch n {
		case "onStart":
			caps.HasOnStart = true
		case "onUpdate":
			caps.HasOnUpdate = true
		case "onDestroy":
			caps.HasOnDestroy = true
		default:
			if len(n) > 2 && strings.HasPrefix(n, "on") {
				caps.Events = append(caps.Events, n)
			}
		}
	}
	slices.Sort(caps.Events)
	caps.Events = slices.Compact(caps.Events)
	return caps, nil
}

// defaultsOf reads the instance "properties" field, falling back to a
// static one on the class.
func defaultsOf(vm *goja.Runtime, ctor goja.Value, probe *goja.Object) map[string]any {
	for _, v := range []goja.Value{probe.Get("properties"), ctor.ToObject(vm).Get("properties")} {
		if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
			continue
		}
		if m, ok := scene.Normalize(v.Export()).(map[string]any); ok {
			return m
		}
	}
	return nil
}

// guard runs fn with the call timeout armed. Nested calls share the
// outermost deadline.
func (l *Loader) guard(fn func() error) error {
	l.depth++
	defer func() { l.depth-- }()
	if l.timeout <= 0 || l.depth > 1 {
		return fn()
	}

	fired := make(chan struct{})
	timer := time.AfterFunc(l.timeout, func() {
		l.vm.Interrupt(ErrTimeout)
		close(fired)
	})
	err := fn()
	if !timer.Stop() {
		<-fired
	}
	l.vm.ClearInterrupt()

	var ie *goja.InterruptedError
	if errors.As(err, &ie) {
		return fmt.Errorf("%w after %s", ErrTimeout, l.timeout)
	}
	return err
}

func (l *Loader) console() *goja.Object {
	c := l.vm.NewObject()
	for name, level := range map[string]log.Level{
		"debug": log.LevelDebug,
		"log":   log.LevelInfo,
		"info":  log.LevelInfo,
		"warn":  log.LevelWarn,
		"error": log.LevelError,
	} {
		_ = c.Set(name, func(call goja.FunctionCall) goja.Value {
			l.logger.Log(level, joinArgs(call.Arguments))
			return goja.Undefined()
		})
	}
	return c
}

func joinArgs(args []goja.Value) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.String()
	}
	return strings.Join(parts, " ")
}
