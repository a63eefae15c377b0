package delegated

import "github.com/dmitrymomot/chatblast/core"

var (
	ErrVerificationFailed = core.Upstream("delegated.verification_failed")
	ErrMissingToken       = core.Unauthenticated("delegated.missing_token")
)
