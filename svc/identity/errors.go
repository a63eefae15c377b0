package identity

import "github.com/dmitrymomot/chatblast/core"

var (
	ErrProfileNotFound        = core.NotFound("identity.profile_not_found")
	ErrUsernameTaken          = core.Conflict("identity.username_taken")
	ErrExternalIDTaken        = core.Conflict("identity.external_id_taken")
	ErrEmailTaken             = core.Conflict("identity.email_taken")
	ErrUsernameRetryExhausted = core.Conflict("identity.username_retry_exhausted")
	ErrInvalidProfile         = core.Invalid("identity.invalid_profile")
	ErrInvalidPatch           = core.Invalid("identity.invalid_patch")
	ErrNotRegistered          = core.Forbidden("identity.not_registered")
	ErrInvalidPermission      = core.Invalid("identity.invalid_permission")
)
