package identity

import (
	"errors"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/dmitrymomot/chatblast/pkg/sanitizer"
	"github.com/dmitrymomot/chatblast/pkg/validator"
)

const (
	minPasswordLength = 6
	maxPasswordLength = 32
	passwordClasses   = 2
	maxUsernameLength = 32
)

var (
	usernamePattern = regexp.MustCompile(`^[a-z0-9]{1,32}$`)
	namePattern     = regexp.MustCompile(`^[\p{L} -]{0,32}$`)
	// ReservedUsernames cannot be claimed by any profile.
	ReservedUsernames = []string{"system"}
)

// Normalize canonicalizes next before it is persisted. A changed email
// address loses its verified flag and pending code. prev is nil on create.
func Normalize(prev, next *Profile) {
	next.Username = sanitizer.TrimToLower(next.Username)
	next.Name.First = sanitizer.RemoveExtraWhitespace(next.Name.First)
	next.Name.Last = sanitizer.RemoveExtraWhitespace(next.Name.Last)

	if next.Email != nil {
		next.Email.Address = sanitizer.NormalizeEmail(next.Email.Address)
		if next.Email.Address == "" {
			next.Email = nil
		}
	}

	if prev == nil || emailAddress(prev) != emailAddress(next) {
		if next.Email != nil {
			next.Email.Verified = false
			next.Email.VerificationCode = ""
		}
	}
}

func emailAddress(p *Profile) string {
	if p.Email == nil {
		return ""
	}
	return p.Email.Address
}

// Validate checks field formats and the per-kind shape of p.
func Validate(p *Profile) error {
	rules := []validator.Rule{
		validator.Check("kind", p.Kind.Valid(), "unknown kind"),
		validator.Matches("username", p.Username, usernamePattern, "1-32 lowercase letters or digits"),
		validator.NotInList("username", p.Username, ReservedUsernames...),
		validator.Matches("name.first", p.Name.First, namePattern, "at most 32 letters, spaces or hyphens"),
		validator.Matches("name.last", p.Name.Last, namePattern, "at most 32 letters, spaces or hyphens"),
	}

	rules = append(rules, validator.Each(p.Kind == Registered,
		validator.Check("tenant_id", p.TenantID == "", "must be empty for registered profiles"),
		validator.Check("external_id", p.ExternalID == "", "must be empty for registered profiles"),
	)...)
	rules = append(rules, validator.Each(p.Kind != Registered,
		validator.Required("tenant_id", p.TenantID),
		validator.Check("email", p.Email == nil, "only registered profiles have an email"),
		validator.Check("password", p.PasswordHash == "", "only registered profiles have a password"),
	)...)
	rules = append(rules, validator.Each(p.Kind == Delegated,
		validator.Required("external_id", p.ExternalID),
	)...)
	rules = append(rules, validator.Each(p.Kind == Anonymous,
		validator.Check("external_id", p.ExternalID == "", "must be empty for anonymous profiles"),
	)...)

	if p.Email != nil {
		rules = append(rules, validator.Email("email.address", p.Email.Address))
	}

	if err := validator.Apply(rules...); err != nil {
		return errors.Join(ErrInvalidProfile, err)
	}
	return nil
}

// ValidatePassword applies the strength rule: 6 to 32 characters mixing at
// least two of lowercase, uppercase and digits.
func ValidatePassword(password string) error {
	err := validator.Apply(validator.PasswordClasses("password", password, minPasswordLength, maxPasswordLength, passwordClasses))
	if err != nil {
		return errors.Join(ErrInvalidProfile, err)
	}
	return nil
}

// SanitizeUsername turns an arbitrary upstream name into a username base:
// lowercase ASCII letters and digits, short enough to leave room for the
// digits GenerateUnusedUsername may append. Accents are folded first, so
// "Éloïse" becomes "eloise".
func SanitizeUsername(raw string) string {
	folded, _, err := transform.String(
		transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), raw)
	if err != nil {
		folded = raw
	}

	var b strings.Builder
	for _, r := range strings.ToLower(folded) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	s := b.String()
	if limit := maxUsernameLength - maxUsernameAttempts; len(s) > limit {
		s = s[:limit]
	}
	if s == "" {
		s = "user"
	}
	return s
}
