package session

import "github.com/dmitrymomot/chatblast/core"

var (
	ErrSessionNotFound = core.NotFound("session.not_found")
	ErrMissingToken    = core.Unauthenticated("session.missing_token")
	// ErrWrongSlot is returned when a non-registered profile presents the
	// default cookie. It carries no cookie hint.
	ErrWrongSlot       = core.Unauthenticated("session.wrong_slot")
	ErrNotInContext    = core.Unauthenticated("session.not_in_context")
	ErrTokenGeneration = core.Invalid("session.token_generation_failed")
)
