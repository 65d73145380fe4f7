package assets

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyPath         = errors.New("asset path is empty")
	ErrNotFound          = errors.New("asset not found")
	ErrUnsupportedFormat = errors.New("unsupported asset format")
	ErrUnknownKind       = errors.New("unknown asset cache kind")
	ErrDestroyed         = errors.New("asset manager destroyed")
	ErrHTTPStatus        = errors.New("unexpected http status")
)

// LoadError is returned to every caller waiting on a failed load.
type LoadError struct {
	Kind Kind
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s %q: %v", e.Kind.singular(), e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}
