package extension

import "errors"

var (
	ErrInvalidManifest    = errors.New("extension manifest has no id")
	ErrDuplicateExtension = errors.New("extension already registered")
	ErrUnknownExtension   = errors.New("unknown extension")
	ErrUnknownMethod      = errors.New("unknown extension method")
	ErrDuplicateSystem    = errors.New("system extension already has an instance")
)
