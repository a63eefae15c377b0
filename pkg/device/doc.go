// Package device identifies the client behind a request: its IP address and
// a fingerprint hash of stable browser headers. Session issuance records
// both on the session row.
package device
