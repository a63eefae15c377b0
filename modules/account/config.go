package account

import (
	"time"

	"github.com/dmitrymomot/chatblast/pkg/ratelimiter"
)

// Config holds the per-IP limits of the unauthenticated entry points and the
// websocket origin allow list.
type Config struct {
	OAuthLimit   int           `env:"RATE_LIMIT_OAUTH" envDefault:"5"`
	OAuthWindow  time.Duration `env:"RATE_LIMIT_OAUTH_WINDOW" envDefault:"2m"`
	SignupLimit  int           `env:"RATE_LIMIT_SIGNUP" envDefault:"5"`
	SignupWindow time.Duration `env:"RATE_LIMIT_SIGNUP_WINDOW" envDefault:"5m"`
	LoginLimit   int           `env:"RATE_LIMIT_LOGIN" envDefault:"5"`
	LoginWindow  time.Duration `env:"RATE_LIMIT_LOGIN_WINDOW" envDefault:"1m"`
	DomainLimit  int           `env:"RATE_LIMIT_DOMAIN_VERIFICATION" envDefault:"5"`
	DomainWindow time.Duration `env:"RATE_LIMIT_DOMAIN_VERIFICATION_WINDOW" envDefault:"30s"`

	// AllowedOrigins restricts websocket upgrades. Empty allows any origin.
	AllowedOrigins []string `env:"WS_ALLOWED_ORIGINS" envSeparator:","`
}

func DefaultConfig() Config {
	return Config{
		OAuthLimit:   5,
		OAuthWindow:  2 * time.Minute,
		SignupLimit:  5,
		SignupWindow: 5 * time.Minute,
		LoginLimit:   5,
		LoginWindow:  time.Minute,
		DomainLimit:  5,
		DomainWindow: 30 * time.Second,
	}
}

func (c Config) oauthRule() ratelimiter.Rule {
	return ratelimiter.Rule{Limit: c.OAuthLimit, Window: c.OAuthWindow}
}
func (c Config) signupRule() ratelimiter.Rule {
	return ratelimiter.Rule{Limit: c.SignupLimit, Window: c.SignupWindow}
}
func (c Config) loginRule() ratelimiter.Rule {
	return ratelimiter.Rule{Limit: c.LoginLimit, Window: c.LoginWindow}
}
func (c Config) domainRule() ratelimiter.Rule {
	return ratelimiter.Rule{Limit: c.DomainLimit, Window: c.DomainWindow}
}
