// Package session decides which profile a request belongs to and manages
// the single session row each profile owns.
//
// A browser may hold two tokens at once: the default "token" cookie for a
// registered profile and a "<tenantID>-token" cookie for an anonymous or
// delegated profile scoped to that tenant. CookieSlot is the only place
// that chooses between them.
//
// Resolver.Resolve runs the validation pipeline. Manager issues and revokes
// sessions, and Sweeper expires old sessions and drops realtime connections
// whose identity went stale.
package session
