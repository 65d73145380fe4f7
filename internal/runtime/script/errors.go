package script

import "errors"

var (
	ErrScriptNotFound   = errors.New("script not found")
	ErrDuplicateScript  = errors.New("script already registered")
	ErrNotAClass        = errors.New("script module does not export a class")
	ErrInvalidEntry     = errors.New("invalid script entry")
	ErrInstanceDisabled = errors.New("script instance disabled")
)
