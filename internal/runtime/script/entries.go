package script

import (
	"fmt"

	"github.com/ajsengine/ajs/internal/runtime/object"
	"github.com/ajsengine/ajs/internal/runtime/scene"
)

// Entry is one script attachment declared in scene data.
type Entry struct {
	Path       string
	Enabled    bool
	Properties map[string]any
}

// Entries reads an object's script declarations. The "scripts" list wins
// over the legacy single "script" path, which is treated as one enabled
// entry. Malformed list items are reported and skipped.
func Entries(props map[string]any) ([]Entry, []error) {
	raw, ok := props[object.PropScripts]
	if !ok || raw == nil {
		if p, ok := props[object.PropScript].(string); ok && p != "" {
			return []Entry{{Path: p, Enabled: true}}, nil
		}
		return nil, nil
	}

	list, ok := raw.([]any)
	if !ok {
		if typed, ok := raw.([]map[string]any); ok {
			list = make([]any, len(typed))
			for i := range typed {
				list[i] = typed[i]
			}
		} else {
			return nil, []error{fmt.Errorf("%w: scripts is %T", ErrInvalidEntry, raw)}
		}
	}

	var (
		entries []Entry
		errs    []error
	)
	for i, item := range list {
		switch t := item.(type) {
		case string:
			entries = append(entries, Entry{Path: t, Enabled: true})
		case map[string]any:
			path, _ := t["path"].(string)
			if path == "" {
				errs = append(errs, fmt.Errorf("%w: #%d has no path", ErrInvalidEntry, i))
				continue
			}
			e := Entry{Path: path, Enabled: true}
			if enabled, ok := t["enabled"].(bool); ok {
				e.Enabled = enabled
			}
			if p, ok := t["properties"].(map[string]any); ok {
				e.Properties = p
			}
			entries = append(entries, e)
		default:
			errs = append(errs, fmt.Errorf("%w: #%d is %T", ErrInvalidEntry, i, item))
		}
	}
	return entries, errs
}

// MergeProperties deep-copies defaults and overlays a deep copy of
// overrides. Override keys win; absent keys keep their default.
func MergeProperties(defaults, overrides map[string]any) map[string]any {
	out := scene.CopyMap(defaults)
	for k, v := range scene.CopyMap(overrides) {
		out[k] = v
	}
	return out
}
