package validator

import (
	"fmt"
	"net/mail"
	"net/url"
	"regexp"
	"slices"
	"strings"
	"unicode"
)

func rule(field, message string, check func() bool) Rule {
	return Rule{Check: check, Error: ValidationError{Field: field, Message: message}}
}

// Required fails on empty or whitespace-only strings.
func Required(field, value string) Rule {
	return rule(field, "field is required", func() bool {
		return strings.TrimSpace(value) != ""
	})
}

func MaxLen(field, value string, maxLen int) Rule {
	return rule(field, fmt.Sprintf("must be at most %d characters long", maxLen), func() bool {
		return len(value) <= maxLen
	})
}

// Matches checks value against a precompiled pattern.
func Matches(field, value string, pattern *regexp.Regexp, description string) Rule {
	return rule(field, "must be "+description, func() bool {
		return pattern.MatchString(value)
	})
}

// Email accepts a bare address with a dotted domain.
func Email(field, value string) Rule {
	return rule(field, "must be a valid email address", func() bool {
		addr, err := mail.ParseAddress(value)
		if err != nil || addr.Address != value {
			return false
		}
		local, domain, ok := strings.Cut(value, "@")
		if !ok || local == "" || !strings.Contains(domain, ".") {
			return false
		}
		return !slices.Contains(strings.Split(domain, "."), "")
	})
}

// URLWithScheme accepts absolute URLs whose scheme is one of schemes.
func URLWithScheme(field, value string, schemes ...string) Rule {
	return rule(field, "must be a valid URL with scheme: "+strings.Join(schemes, ", "), func() bool {
		u, err := url.ParseRequestURI(value)
		if err != nil || u.Host == "" {
			return false
		}
		return slices.Contains(schemes, u.Scheme)
	})
}

func InList[T comparable](field string, value T, allowed ...T) Rule {
	return rule(field, fmt.Sprintf("must be one of: %v", allowed), func() bool {
		return slices.Contains(allowed, value)
	})
}

func NotInList[T comparable](field string, value T, forbidden ...T) Rule {
	return rule(field, "value is not allowed", func() bool {
		return !slices.Contains(forbidden, value)
	})
}

// PasswordClasses requires a length in [minLen, maxLen] and at least classes
// distinct character classes among lowercase, uppercase and digits.
func PasswordClasses(field, value string, minLen, maxLen, classes int) Rule {
	msg := fmt.Sprintf("must be %d to %d characters and mix at least %d of lowercase, uppercase and digits", minLen, maxLen, classes)
	return rule(field, msg, func() bool {
		if n := len(value); n < minLen || n > maxLen {
			return false
		}
		var lower, upper, digit bool
		for _, r := range value {
			switch {
			case unicode.IsLower(r):
				lower = true
			case unicode.IsUpper(r):
				upper = true
			case unicode.IsDigit(r):
				digit = true
			}
		}
		count := 0
		for _, has := range []bool{lower, upper, digit} {
			if has {
				count++
			}
		}
		return count >= classes
	})
}

// Check wraps an already computed condition.
func Check(field string, ok bool, message string) Rule {
	return rule(field, message, func() bool { return ok })
}

// Each flattens rules for optional fields so every failure is reported.
func Each(cond bool, rules ...Rule) []Rule {
	if !cond {
		return nil
	}
	return rules
}
