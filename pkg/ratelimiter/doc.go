// Package ratelimiter implements fixed-window request limiting for the
// authentication endpoints (login, signup, tenant entry, domain checks).
//
// A Limiter counts hits per key inside a window. Counters live in a Store:
// MemoryStore for single-instance deployments and tests, RedisStore when
// several instances share limits. Middleware keys requests by client IP and
// answers 429 with Retry-After once the window is exhausted.
package ratelimiter
