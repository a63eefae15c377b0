package tenant

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"net"
	"net/url"
	"regexp"
	"strings"

	"github.com/dmitrymomot/chatblast/pkg/sanitizer"
	"github.com/dmitrymomot/chatblast/pkg/validator"
)

const (
	maxDomainLength = 128
	maxURLLength    = 128
	maxAPIKeyLength = 128
	maxCookieName   = 64
)

var (
	namePattern     = regexp.MustCompile(`^[a-z0-9-]{2,32}$`)
	domainPattern   = regexp.MustCompile(`^([a-z0-9][a-z0-9-]{1,61}[a-z0-9]\.)+[a-z]{2,24}(:[0-9]{2,5})?$`)
	tokenKeyPattern = regexp.MustCompile(`(?i)^[a-z-]{1,64}$`)
	// Cookie names are RFC 6265 tokens.
	cookieNamePattern = regexp.MustCompile(`^[A-Za-z0-9!#$%&'*+.^_|~-]+$`)
)

// DefaultName returns a generated "apps-NNN" name.
func DefaultName() string {
	return fmt.Sprintf("apps-%03d", rand.IntN(1000))
}

// Normalize canonicalizes next before it is persisted. Any change to the
// submitted domain, a case-only one included, clears its verified flag. prev
// is nil on create.
func Normalize(prev, next *Tenant) {
	domainChanged := prev == nil ||
		strings.TrimSpace(prev.Domain.Value) != strings.TrimSpace(next.Domain.Value)

	next.Name = sanitizer.TrimToLower(next.Name)
	next.Domain.Value = sanitizer.NormalizeDomain(next.Domain.Value)
	next.CookieName = strings.TrimSpace(next.CookieName)
	if next.Verification != nil {
		next.Verification.URL = strings.TrimSpace(next.Verification.URL)
		next.Verification.TokenKey = strings.TrimSpace(next.Verification.TokenKey)
	}

	if domainChanged {
		next.Domain.Verified = false
	}
}

// Validate checks every field of t and the cross-field rules of the
// delegated strategy.
func Validate(t *Tenant) error {
	rules := []validator.Rule{
		validator.Matches("name", t.Name, namePattern, "2-32 lowercase letters, digits or hyphens"),
		validator.Check("state", t.State.Valid(), "unknown state"),
		validator.Check("strategy", t.Strategy.Valid(), "unknown strategy"),
		validator.Required("domain.value", t.Domain.Value),
		validator.MaxLen("domain.value", t.Domain.Value, maxDomainLength),
		validator.Matches("domain.value", t.Domain.Value, domainPattern, "a domain name"),
		validator.MaxLen("cookie_name", t.CookieName, maxCookieName),
		validator.Check("cookie_name", t.CookieName == "" || cookieNamePattern.MatchString(t.CookieName), "must be a valid cookie name"),
	}

	v := t.Verification
	rules = append(rules, validator.Each(t.Strategy == DelegatedAuth,
		validator.Check("verification", v != nil, "is required for delegated authentication"),
	)...)

	if v != nil {
		rules = append(rules,
			validator.MaxLen("verification.url", v.URL, maxURLLength),
			validator.URLWithScheme("verification.url", v.URL, "https"),
			validator.MaxLen("verification.api_key", v.APIKey, maxAPIKeyLength),
			validator.Check("verification.token_placement", v.TokenPlacement.Valid(), "unknown token placement"),
			validator.Matches("verification.token_key", v.TokenKey, tokenKeyPattern, "1-64 letters or hyphens"),
		)
		rules = append(rules, validator.Each(t.Strategy == DelegatedAuth && t.Domain.Value != "",
			validator.Check("verification.url", sameRegistrableDomain(v.URL, t.Domain.Value),
				"must be on the same domain as the application"),
		)...)
	}

	if err := validator.Apply(rules...); err != nil {
		return errors.Join(ErrInvalidTenant, err)
	}
	return nil
}

// sameRegistrableDomain compares the last two labels of rawURL's host with
// domain stripped of "www." and any port.
func sameRegistrableDomain(rawURL, domain string) bool {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return false
	}

	labels := strings.Split(strings.ToLower(u.Hostname()), ".")
	if len(labels) < 2 {
		return false
	}
	routeDomain := strings.Join(labels[len(labels)-2:], ".")

	domain = strings.TrimPrefix(domain, "www.")
	if host, _, err := net.SplitHostPort(domain); err == nil {
		domain = host
	}

	return routeDomain == domain
}
