package account

import "github.com/dmitrymomot/chatblast/core"

var (
	ErrAlreadyAuthenticated = core.Conflict("account.already_authenticated")
	ErrInvalidCredentials   = core.Unauthenticated("account.invalid_credentials")
	ErrTooManyRequests      = core.RateLimited("account.too_many_requests")
)
