// Package delegated exchanges a caller's bearer token for an identity by
// calling the tenant's own verification endpoint.
//
// Every failure (transport, status, body shape, open breaker) collapses to
// ErrVerificationFailed. The raw cause is logged and never returned.
package delegated
