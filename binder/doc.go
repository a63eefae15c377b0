// Package binder populates typed request structs for handler.Wrap.
//
// BindJSON decodes a strict JSON body: unknown fields and trailing data are
// rejected. Path copies router path parameters into fields tagged `path`.
// Every binding failure unwraps to core.ErrValidationFailed so the error
// handler answers 400.
package binder
