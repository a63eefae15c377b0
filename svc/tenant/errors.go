package tenant

import "github.com/dmitrymomot/chatblast/core"

var (
	ErrTenantNotFound        = core.NotFound("tenant.not_found")
	ErrNotOwner              = core.Forbidden("tenant.not_owner")
	ErrStateNotAllowed       = core.Forbidden("tenant.state_not_allowed")
	ErrNameTaken             = core.Conflict("tenant.name_taken")
	ErrInvalidTenant         = core.Invalid("tenant.invalid")
	ErrInvalidPatch          = core.Invalid("tenant.invalid_patch")
	ErrDomainAlreadyVerified = core.Conflict("tenant.domain_already_verified")
	ErrDomainRecordMissing   = core.Invalid("tenant.domain_record_missing")
	ErrDomainLookupFailed    = core.Upstream("tenant.domain_lookup_failed")
)
