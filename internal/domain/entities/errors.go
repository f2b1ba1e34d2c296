package entities

import "errors"

// Sentinel errors for the failure kinds of the rendering pipeline
var (
	ErrSchema           = errors.New("schema error")
	ErrTemplateMissing  = errors.New("template missing")
	ErrOutputWrite      = errors.New("output write failure")
	ErrLayoutNotFound   = errors.New("layout not found")
	ErrAssetUnreachable = errors.New("asset unreachable")
	ErrCacheFetch       = errors.New("cache fetch failure")
	ErrFontUnmapped     = errors.New("font unmapped")
	ErrContentOverflow  = errors.New("content overflow")
	ErrInvalidColor     = errors.New("invalid color")
	ErrCompileCanceled  = errors.New("compile canceled")
)
