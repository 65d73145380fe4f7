package engine

import "errors"

var (
	ErrNotRunning  = errors.New("no scene is running")
	ErrNilScene    = errors.New("scene data is nil")
	ErrNoExtension = errors.New("object has no extension")
)
