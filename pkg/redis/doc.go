// Package redis connects to Redis. The client backs the tenant cache and the
// distributed rate limiter store.
package redis
