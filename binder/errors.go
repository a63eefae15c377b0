package binder

import "github.com/dmitrymomot/chatblast/core"

var (
	ErrUnsupportedMediaType = core.Invalid("binder.unsupported_media_type")
	ErrInvalidJSON          = core.Invalid("binder.invalid_json")
	ErrInvalidPath          = core.Invalid("binder.invalid_path")
)
