// Package fault describes failures raised at a lifecycle boundary and the
// helpers used to keep them from escaping into the frame driver.
package fault

import (
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
)

// Kind classifies a fault.
type Kind uint8

const (
	// KindPlugin is an extension or script failing during a lifecycle call.
	KindPlugin Kind = iota
	// KindResource is an asset that could not be fetched or decoded.
	KindResource
	// KindConfiguration is scene or script data that references something missing.
	KindConfiguration
	// KindContract is a required runtime capability that is absent.
	KindContract
)

func (k Kind) String() string {
	switch k {
	case KindPlugin:
		return "plugin"
	case KindResource:
		return "resource"
	case KindConfiguration:
		return "configuration"
	case KindContract:
		return "contract"
	default:
		return "unknown"
	}
}

// Phase names the lifecycle call that produced a fault.
type Phase string

const (
	PhaseCreate  Phase = "create"
	PhaseUpdate  Phase = "update"
	PhaseRender  Phase = "render"
	PhaseDestroy Phase = "destroy"
	PhaseStart   Phase = "start"
	PhaseEvent   Phase = "event"
	PhaseLoad    Phase = "load"
)

// Fault is the result of one failed invocation. Source is the extension id
// or script path that owns the failing code.
type Fault struct {
	Kind   Kind
	Phase  Phase
	Oid    string
	Source string
	Event  string
	Err    error
}

func (f Fault) Error() string {
	var b strings.Builder
	b.WriteString(f.Kind.String())
	b.WriteString(" fault in ")
	b.WriteString(string(f.Phase))
	if f.Event != "" {
		b.WriteString(" (")
		b.WriteString(f.Event)
		b.WriteString(")")
	}
	if f.Source != "" {
		b.WriteString(" of ")
		b.WriteString(f.Source)
	}
	if f.Oid != "" {
		b.WriteString(" on ")
		b.WriteString(f.Oid)
	}
	if f.Err != nil {
		b.WriteString(": ")
		b.WriteString(f.Err.Error())
	}
	return b.String()
}

func (f Fault) Unwrap() error {
	return f.Err
}

// PanicError carries a recovered panic value and the stack it was raised on.
type PanicError struct {
	Value any
	Stack []byte
}

func (p *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", p.Value)
}

// Capture runs fn and converts both a returned error and a panic into an
// error value.
func Capture(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = &PanicError{Value: e, Stack: debug.Stack()}
				return
			}
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	return fn()
}

// Join flattens faults into a single error, or nil when there are none.
func Join(faults []Fault) error {
	if len(faults) == 0 {
		return nil
	}
	errs := make([]error, len(faults))
	for i, f := range faults {
		errs[i] = f
	}
	return errors.Join(errs...)
}

// KindOf reports the kind attached to err. Errors carrying a Kind via
// Classified keep it; anything else is treated as a plugin fault.
func KindOf(err error) Kind {
	var c *classified
	if errors.As(err, &c) {
		return c.kind
	}
	return KindPlugin
}

type classified struct {
	kind Kind
	err  error
}

func (c *classified) Error() string { return c.err.Error() }
func (c *classified) Unwrap() error { return c.err }

// Classified tags err with a kind so the invocation site reports it correctly.
func Classified(kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return &classified{kind: kind, err: err}
}

// Configuration is shorthand for Classified(KindConfiguration, ...).
func Configuration(format string, args ...any) error {
	return Classified(KindConfiguration, fmt.Errorf(format, args...))
}

// Contract is shorthand for Classified(KindContract, ...).
func Contract(format string, args ...any) error {
	return Classified(KindContract, fmt.Errorf(format, args...))
}
