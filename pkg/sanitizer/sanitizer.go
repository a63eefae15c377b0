// Package sanitizer normalizes user input before it is validated and
// persisted. Functions never fail; input they cannot improve is returned
// trimmed.
package sanitizer

import (
	"regexp"
	"strings"
)

var (
	dotRun        = regexp.MustCompile(`\.{2,}`)
	whitespaceRun = regexp.MustCompile(`\s+`)
)

// TrimToLower trims surrounding whitespace and lowercases s.
func TrimToLower(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// RemoveExtraWhitespace collapses whitespace runs into one space and trims.
func RemoveExtraWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(s, " "))
}

// NormalizeEmail lowercases the address and collapses repeated dots in the
// local part. Strings without exactly one @ are only trimmed and lowercased.
func NormalizeEmail(email string) string {
	email = TrimToLower(email)

	local, domain, ok := strings.Cut(email, "@")
	if !ok || strings.Contains(domain, "@") {
		return email
	}

	local = strings.Trim(dotRun.ReplaceAllString(local, "."), ".")
	return local + "@" + domain
}

// NormalizeDomain lowercases a host name and strips a trailing root dot.
func NormalizeDomain(domain string) string {
	return strings.TrimSuffix(TrimToLower(domain), ".")
}
